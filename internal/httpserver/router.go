package httpserver

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"dgtech/internal/handler"
	"dgtech/internal/onboarding"
	"dgtech/internal/service/auth"
	"dgtech/internal/service/profile"
	"dgtech/pkg/rbac"
)

// Pinger reports backend readiness. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handlers struct {
	Auth        *handler.AuthHandler
	Profile     *handler.ProfileHandler
	Onboarding  *handler.OnboardingHandler
	Project     *handler.ProjectHandler
	Dashboard   *handler.DashboardHandler
	Deliverable *handler.DeliverableHandler
}

type Deps struct {
	AuthService *auth.Service
	Profiles    *profile.Service
	Controller  *onboarding.Controller
	DB          Pinger
	Logger      *zap.Logger

	AuthRequestsPerMinute int
	AuthBurst             int
}

type Router struct {
	Engine *gin.Engine
}

func NewRouter(h Handlers, d Deps) *Router {
	r := gin.New()
	r.Use(gin.Recovery(), TraceMiddleware(), RequestLogMiddleware(d.Logger))

	// Health endpoints
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(200)
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
		defer cancel()

		if d.DB == nil {
			c.JSON(503, gin.H{"status": "db_not_configured"})
			return
		}
		if err := d.DB.Ping(ctx); err != nil {
			c.JSON(503, gin.H{"status": "db_not_ready", "error": err.Error()})
			return
		}

		c.JSON(200, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public
	public := r.Group("/auth")
	public.Use(RateLimitMiddleware(d.AuthRequestsPerMinute, d.AuthBurst))
	{
		public.POST("/sign-up", h.Auth.SignUp)
		public.POST("/sign-in", h.Auth.SignIn)
	}

	// Protected
	authed := r.Group("/")
	authed.Use(AuthMiddleware(d.AuthService), PrincipalMiddleware(d.Profiles, d.Logger))
	{
		authed.POST("/auth/sign-out", h.Auth.SignOut)
		authed.GET("/me", h.Profile.GetMe)
		authed.PATCH("/me", h.Profile.UpdateMe)
		authed.GET("/session/landing", h.Profile.Landing)
	}

	wizard := authed.Group("/onboarding")
	wizard.Use(OnboardingOnly(d.Controller))
	{
		wizard.GET("/state", h.Onboarding.State)
		wizard.POST("/step1", RequirePermission(rbac.PermissionCreateProject), h.Onboarding.Classify)
		wizard.POST("/step2", RequirePermission(rbac.PermissionCreateProject), h.Onboarding.Describe)
		wizard.POST("/back", RequirePermission(rbac.PermissionCreateProject), h.Onboarding.Back)
	}

	dash := authed.Group("/")
	dash.Use(RequireOnboarded(d.Controller))
	{
		dash.GET("/projects", h.Project.List)
		dash.POST("/projects", RequirePermission(rbac.PermissionCreateProject), h.Project.Create)
		dash.GET("/projects/:id", h.Project.Get)
		dash.PATCH("/projects/:id", RequirePermission(rbac.PermissionEditOwnProject), h.Project.Update)
		dash.DELETE("/projects/:id", RequirePermission(rbac.PermissionEditOwnProject), h.Project.Delete)
		dash.POST("/projects/:id/submit", RequirePermission(rbac.PermissionEditOwnProject), h.Project.Submit)
		dash.GET("/projects/:id/milestones", h.Project.Milestones)
		dash.GET("/projects/:id/messages", h.Project.Messages)
		dash.POST("/projects/:id/messages", RequirePermission(rbac.PermissionPostMessage), h.Project.PostMessage)

		dash.GET("/dashboard/stats", RequirePermission(rbac.PermissionReadDashboardStats), h.Dashboard.Stats)
		dash.GET("/dashboard/messages", RequirePermission(rbac.PermissionReadDashboardStats), h.Dashboard.RecentMessages)
		dash.GET("/dashboard/documents", RequirePermission(rbac.PermissionReadDashboardStats), h.Dashboard.RecentDocuments)

		dash.POST("/milestones/:id/deliverables", RequirePermission(rbac.PermissionUploadDeliverable), h.Deliverable.Upload)
		dash.GET("/deliverables/:id/url", h.Deliverable.DownloadURL)
	}

	return &Router{Engine: r}
}

func (r *Router) Run(port string) error {
	return r.Engine.Run(port)
}
