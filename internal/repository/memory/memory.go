// Package memory implements the repository store interfaces in process
// memory. It backs service and handler tests.
package memory

import (
	"fmt"
	"sync"
	"time"

	"dgtech/internal/apperr"
	"dgtech/internal/model"
	"dgtech/internal/repository"
)

// DB holds every table. The store views returned by its accessors share it.
type DB struct {
	mu sync.Mutex

	profiles     map[string]model.Profile
	users        map[string]model.User
	projects     map[int64]model.Project
	milestones   map[int64]model.Milestone
	messages     map[int64]model.ProjectChatMessage
	deliverables map[int64]model.Deliverable
	nextID       int64

	clock time.Time
	fail  map[string]error
	calls map[string]int
}

func New() *DB {
	return &DB{
		profiles:     map[string]model.Profile{},
		users:        map[string]model.User{},
		projects:     map[int64]model.Project{},
		milestones:   map[int64]model.Milestone{},
		messages:     map[int64]model.ProjectChatMessage{},
		deliverables: map[int64]model.Deliverable{},
		clock:        time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		fail:         map[string]error{},
		calls:        map[string]int{},
	}
}

// Fail makes every later call of op return err until cleared with a nil
// err. Operations are named "<table>.<Method>", e.g. "projects.Insert".
func (db *DB) Fail(op string, err error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err == nil {
		delete(db.fail, op)
		return
	}
	db.fail[op] = err
}

// Calls reports how many times op was invoked, failed calls included.
func (db *DB) Calls(op string) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.calls[op]
}

// Now returns the store clock. Every write advances it by one second so
// creation order is observable.
func (db *DB) Now() time.Time {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.clock
}

// enter must be called with db.mu held.
func (db *DB) enter(op string) error {
	db.calls[op]++
	if err := db.fail[op]; err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (db *DB) tick() time.Time {
	db.clock = db.clock.Add(time.Second)
	return db.clock
}

func (db *DB) id() int64 {
	db.nextID++
	return db.nextID
}

func (db *DB) totalFor(projectID int64) float64 {
	var total float64
	for _, m := range db.milestones {
		if m.ProjectID == projectID {
			total += m.Price
		}
	}
	return total
}

func (db *DB) withTotals(p model.Project) *model.ProjectWithTotals {
	return &model.ProjectWithTotals{Project: p, TotalPrice: db.totalFor(p.ID)}
}

func (db *DB) Profiles() *Profiles         { return &Profiles{db} }
func (db *DB) Users() *Users               { return &Users{db} }
func (db *DB) Projects() *Projects         { return &Projects{db} }
func (db *DB) Milestones() *Milestones     { return &Milestones{db} }
func (db *DB) Messages() *Messages         { return &Messages{db} }
func (db *DB) Deliverables() *Deliverables { return &Deliverables{db} }

var (
	_ repository.ProfileStore     = (*Profiles)(nil)
	_ repository.UserStore        = (*Users)(nil)
	_ repository.ProjectStore     = (*Projects)(nil)
	_ repository.MilestoneStore   = (*Milestones)(nil)
	_ repository.MessageStore     = (*Messages)(nil)
	_ repository.DeliverableStore = (*Deliverables)(nil)
)

func notFound(what string, id any) error {
	return fmt.Errorf("%s %v: %w", what, id, apperr.ErrNotFound)
}
