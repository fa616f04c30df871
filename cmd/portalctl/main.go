// Command portalctl is the agency back office: migrations, staff roles,
// agency-side lifecycle transitions and milestone management.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dgtech/config"
	"dgtech/internal/events"
	"dgtech/internal/lifecycle"
	"dgtech/internal/model"
	"dgtech/internal/repository"
	"dgtech/internal/service/profile"
	"dgtech/internal/service/project"
	"dgtech/pkg/db"
	"dgtech/pkg/logger"
	"dgtech/pkg/mq"
)

type app struct {
	cfg       *config.Config
	log       *zap.Logger
	pool      *pgxpool.Pool
	closers   []func()
	profiles  *profile.Service
	projects  *project.Service
	workspace *project.Workspace
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func load() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, log: logger.NewLogger(cfg.Debug)}, nil
}

// connect opens the database and the event publisher and builds the
// services.
func (a *app) connect() error {
	pool, err := db.NewConnection(a.cfg.DB, a.log)
	if err != nil {
		return err
	}
	a.pool = pool
	a.closers = append(a.closers, pool.Close)

	var publisher events.Publisher = events.NewLogPublisher(a.log)
	if a.cfg.MQ.URL != "" {
		p, err := mq.NewPublisher(a.cfg.MQ.URL)
		if err != nil {
			a.log.Warn("MQ unavailable, events will only be logged", zap.Error(err))
		} else {
			a.closers = append(a.closers, p.Close)
			publisher = p
		}
	}

	a.profiles = profile.NewService(repository.NewProfileRepository(pool, a.log), a.log)
	a.projects = project.NewService(repository.NewProjectRepository(pool, a.log), a.profiles, events.NewEmitter(publisher, a.log), a.log)
	a.workspace = project.NewWorkspace(a.projects,
		repository.NewMilestoneRepository(pool, a.log),
		repository.NewMessageRepository(pool, a.log),
		a.log,
	)
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// withApp runs fn against a connected app.
func withApp(fn func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := load()
		if err != nil {
			return err
		}
		defer a.log.Sync()
		if err := a.connect(); err != nil {
			return err
		}
		defer a.close()
		return fn(cmd, a, args)
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}
	run := func(up bool) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			a, err := load()
			if err != nil {
				return err
			}
			defer a.log.Sync()
			return db.Migrate(a.cfg.DB, up, a.log)
		}
	}
	cmd.AddCommand(
		&cobra.Command{Use: "up", Short: "Apply all pending migrations", Args: cobra.NoArgs, RunE: run(true)},
		&cobra.Command{Use: "down", Short: "Roll back the last migration", Args: cobra.NoArgs, RunE: run(false)},
	)
	return cmd
}

func projectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Agency-side project operations",
	}

	status := &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Move a project along the lifecycle",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p, err := a.projects.UpdateProjectStatus(ctx, id, args[1])
			if err != nil {
				return err
			}
			return printJSON(p)
		}),
	}

	assign := &cobra.Command{
		Use:   "assign-manager <id> <manager-id>",
		Short: "Assign a manager to a project",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p, err := a.projects.AssignManager(ctx, id, args[1])
			if err != nil {
				return err
			}
			return printJSON(p)
		}),
	}

	var (
		depositType  string
		depositValue float64
		depositPaid  bool
		balancePaid  bool
		method       string
	)
	payment := &cobra.Command{
		Use:   "payment <id>",
		Short: "Record deposit terms and payment state",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var u model.ProjectUpdate
			changed := cmd.Flags().Changed
			if changed("deposit-type") {
				dt, err := model.ParseDepositType(depositType)
				if err != nil {
					return err
				}
				u.DepositType = &dt
			}
			if changed("deposit-value") {
				u.DepositValue = &depositValue
			}
			if changed("deposit-paid") {
				u.DepositPaid = &depositPaid
			}
			if changed("balance-paid") {
				u.FinalBalancePaid = &balancePaid
			}
			if changed("method") {
				u.PaymentMethodUsed = &method
			}
			p, err := a.projects.UpdateProject(ctx, id, u)
			if err != nil {
				return err
			}
			return printJSON(p)
		}),
	}
	payment.Flags().StringVar(&depositType, "deposit-type", "", "percentage or fixed")
	payment.Flags().Float64Var(&depositValue, "deposit-value", 0, "deposit amount or percentage")
	payment.Flags().BoolVar(&depositPaid, "deposit-paid", false, "deposit received")
	payment.Flags().BoolVar(&balancePaid, "balance-paid", false, "final balance received")
	payment.Flags().StringVar(&method, "method", "", "payment method used")

	statuses := &cobra.Command{
		Use:   "statuses",
		Short: "Print the lifecycle statuses and their legal moves",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(lifecycle.Table())
		},
	}

	cmd.AddCommand(status, assign, payment, statuses)
	return cmd
}

func profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Staff profile management",
	}

	role := &cobra.Command{
		Use:   "role <user-id> <role>",
		Short: "Set the role of a user (client, manager or developer)",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			r, err := model.ParseRole(args[1])
			if err != nil {
				return err
			}
			p, err := a.profiles.SetRole(cmd.Context(), args[0], r)
			if err != nil {
				return err
			}
			return printJSON(p)
		}),
	}

	cmd.AddCommand(role)
	return cmd
}

func milestoneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "milestone",
		Short: "Milestone management",
	}

	var (
		projectID int64
		title     string
		price     float64
		due       string
		developer string
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a milestone to a project",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			ctx := cmd.Context()
			in := project.NewMilestone{ProjectID: projectID, Title: title, Price: price}
			if due != "" {
				t, err := time.Parse("2006-01-02", due)
				if err != nil {
					return fmt.Errorf("invalid --due %q: %w", due, err)
				}
				in.DueDate = &t
			}
			if developer != "" {
				in.DeveloperID = &developer
			}
			m, err := a.workspace.AddMilestone(ctx, in)
			if err != nil {
				return err
			}
			return printJSON(m)
		}),
	}
	add.Flags().Int64Var(&projectID, "project", 0, "project id")
	add.Flags().StringVar(&title, "title", "", "milestone title")
	add.Flags().Float64Var(&price, "price", 0, "milestone price")
	add.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD)")
	add.Flags().StringVar(&developer, "developer", "", "assigned developer profile id")
	_ = add.MarkFlagRequired("project")
	_ = add.MarkFlagRequired("title")

	status := &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Change a milestone's status",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			m, err := a.workspace.SetMilestoneStatus(ctx, id, args[1])
			if err != nil {
				return err
			}
			return printJSON(m)
		}),
	}

	cmd.AddCommand(add, status)
	return cmd
}

func main() {
	root := &cobra.Command{
		Use:           "portalctl",
		Short:         "DGTech portal back office",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(migrateCmd(), profileCmd(), projectCmd(), milestoneCmd())

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
