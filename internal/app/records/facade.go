package records

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/timecard-io/timecard/internal/app/access"
	"github.com/timecard-io/timecard/internal/app/aggregate"
	"github.com/timecard-io/timecard/internal/app/ledger"
	"github.com/timecard-io/timecard/internal/domain"
	"github.com/timecard-io/timecard/internal/infra/metrics"
	"github.com/timecard-io/timecard/internal/infra/sqlite"
)

// Facade composes the access guard, the time entry ledger, and the
// aggregation service behind the record operations the application
// layer calls. Every operation takes the acting user explicitly; there
// is no ambient current-user state.
type Facade struct {
	db     *sqlite.DB
	guard  *access.Guard
	ledger *ledger.Ledger
	agg    *aggregate.Service
}

// NewFacade creates the record facade.
func NewFacade(db *sqlite.DB, guard *access.Guard, led *ledger.Ledger, agg *aggregate.Service) *Facade {
	return &Facade{db: db, guard: guard, ledger: led, agg: agg}
}

// ─── Users (identity bootstrap) ─────────────────────────────────────────────

// CreateUser registers a platform account. When operator is true the
// account is linked to a fresh operator identity; without the link the
// account cannot touch project data.
func (f *Facade) CreateUser(name string, operator bool) (*domain.User, error) {
	if name == "" {
		return nil, domain.Invalid("user name is required")
	}

	u := domain.User{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if operator {
		u.OperatorID = uuid.NewString()
	}

	if err := f.db.InsertUser(u); err != nil {
		return nil, err
	}
	metrics.RecordOps.WithLabelValues("user", "create").Inc()
	return &u, nil
}

// GetUser reads an account by id.
func (f *Facade) GetUser(id string) (*domain.User, error) {
	u, err := f.db.GetUser(id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	return u, nil
}

// ─── Projects ───────────────────────────────────────────────────────────────

// CreateProject creates a project owned by the actor. The actor must be
// linked to an operator identity.
func (f *Facade) CreateProject(actor *domain.User, name string) (*ProjectRecord, error) {
	if err := f.guard.Check(actor); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, domain.Invalid("project name is required")
	}

	p := domain.Project{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedBy: actor.ID,
		CreatedAt: time.Now().UTC(),
	}
	if err := f.db.InsertProject(p); err != nil {
		return nil, err
	}
	metrics.RecordOps.WithLabelValues("project", "create").Inc()
	return f.projectRecord(&p)
}

// SearchProjects lists the actor's own projects.
func (f *Facade) SearchProjects(actor *domain.User, page Page) ([]ProjectRecord, error) {
	if err := checkOrder(page.Order, "created_at", "name"); err != nil {
		return nil, err
	}

	projects, err := f.db.ListProjects(sqlite.ProjectFilter{
		CreatedBy: actor.ID,
		Limit:     page.limit(),
		Offset:    page.Offset,
		Order:     page.Order,
	})
	if err != nil {
		return nil, err
	}

	refs := make([]access.Ref, len(projects))
	for i, p := range projects {
		refs[i] = access.ProjectRef(p.ID)
	}
	if err := f.guard.Check(actor, refs...); err != nil {
		return nil, err
	}

	metrics.RecordOps.WithLabelValues("project", "search").Inc()
	out := make([]ProjectRecord, 0, len(projects))
	for i := range projects {
		rec, err := f.projectRecord(&projects[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, nil
}

// GetProject reads one project by id.
func (f *Facade) GetProject(actor *domain.User, id string) (*ProjectRecord, error) {
	if err := f.guard.Check(actor, access.ProjectRef(id)); err != nil {
		return nil, err
	}
	p, err := f.db.GetProject(id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	metrics.RecordOps.WithLabelValues("project", "read").Inc()
	return f.projectRecord(p)
}

// UpdateProject renames a project. Ownership and creation time are
// immutable; an empty name is a no-op, mirroring partial updates.
func (f *Facade) UpdateProject(actor *domain.User, id, name string) error {
	if err := f.guard.Check(actor, access.ProjectRef(id)); err != nil {
		return err
	}
	if name == "" {
		return nil
	}
	if err := f.db.RenameProject(id, name); err != nil {
		return err
	}
	metrics.RecordOps.WithLabelValues("project", "update").Inc()
	return nil
}

// DeleteProject removes a project; owned tasks and entries cascade.
func (f *Facade) DeleteProject(actor *domain.User, id string) error {
	if err := f.guard.Check(actor, access.ProjectRef(id)); err != nil {
		return err
	}
	if err := f.db.DeleteProject(id); err != nil {
		return err
	}
	metrics.RecordOps.WithLabelValues("project", "delete").Inc()
	return nil
}

func (f *Facade) projectRecord(p *domain.Project) (*ProjectRecord, error) {
	total, err := f.agg.ProjectTotal(p.ID)
	if err != nil {
		return nil, err
	}
	stages, err := f.db.ProjectStages(p.ID)
	if err != nil {
		return nil, err
	}
	return &ProjectRecord{
		ID:              p.ID,
		Name:            p.Name,
		Duration:        total.Seconds,
		DurationDisplay: total.Display,
		Stages:          stages,
		CreatedAt:       p.CreatedAt,
	}, nil
}

// ─── Stages ─────────────────────────────────────────────────────────────────

// CreateStage creates a stage associated with at least one project.
func (f *Facade) CreateStage(actor *domain.User, name string, projectIDs []string) (*StageRecord, error) {
	if err := f.guard.Check(actor); err != nil {
		return nil, err
	}
	if name == "" || len(projectIDs) == 0 {
		return nil, domain.Invalid("stage name and at least one project are required")
	}
	for _, pid := range projectIDs {
		p, err := f.db.GetProject(pid)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, domain.Invalid("project %s does not exist", pid)
		}
	}

	s := domain.Stage{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedBy: actor.ID,
		CreatedAt: time.Now().UTC(),
	}
	if err := f.db.InsertStage(s, projectIDs); err != nil {
		return nil, err
	}
	metrics.RecordOps.WithLabelValues("stage", "create").Inc()
	return f.stageRecord(&s)
}

// SearchStages lists the actor's stages within the given projects. At
// least one project id is required.
func (f *Facade) SearchStages(actor *domain.User, projectIDs []string, page Page) ([]StageRecord, error) {
	if len(projectIDs) == 0 {
		return nil, domain.Invalid("at least one project id is required to search stages")
	}
	if err := checkOrder(page.Order, "created_at", "name"); err != nil {
		return nil, err
	}

	stages, err := f.db.ListStages(sqlite.StageFilter{
		ProjectIDs: projectIDs,
		CreatedBy:  actor.ID,
		Limit:      page.limit(),
		Offset:     page.Offset,
		Order:      page.Order,
	})
	if err != nil {
		return nil, err
	}

	refs := make([]access.Ref, len(stages))
	for i, s := range stages {
		refs[i] = access.StageRef(s.ID)
	}
	if err := f.guard.Check(actor, refs...); err != nil {
		return nil, err
	}

	metrics.RecordOps.WithLabelValues("stage", "search").Inc()
	out := make([]StageRecord, 0, len(stages))
	for i := range stages {
		rec, err := f.stageRecord(&stages[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, nil
}

// GetStage reads one stage by id.
func (f *Facade) GetStage(actor *domain.User, id string) (*StageRecord, error) {
	if err := f.guard.Check(actor, access.StageRef(id)); err != nil {
		return nil, err
	}
	s, err := f.db.GetStage(id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("stage %s: %w", id, domain.ErrNotFound)
	}
	metrics.RecordOps.WithLabelValues("stage", "read").Inc()
	return f.stageRecord(s)
}

// UpdateStage renames a stage.
func (f *Facade) UpdateStage(actor *domain.User, id, name string) error {
	if err := f.guard.Check(actor, access.StageRef(id)); err != nil {
		return err
	}
	if name == "" {
		return nil
	}
	if err := f.db.RenameStage(id, name); err != nil {
		return err
	}
	metrics.RecordOps.WithLabelValues("stage", "update").Inc()
	return nil
}

// DeleteStage removes a stage and its project associations.
func (f *Facade) DeleteStage(actor *domain.User, id string) error {
	if err := f.guard.Check(actor, access.StageRef(id)); err != nil {
		return err
	}
	if err := f.db.DeleteStage(id); err != nil {
		return err
	}
	metrics.RecordOps.WithLabelValues("stage", "delete").Inc()
	return nil
}

func (f *Facade) stageRecord(s *domain.Stage) (*StageRecord, error) {
	projects, err := f.db.StageProjects(s.ID)
	if err != nil {
		return nil, err
	}
	tasks, err := f.db.StageTasks(s.ID)
	if err != nil {
		return nil, err
	}
	return &StageRecord{
		ID:        s.ID,
		Name:      s.Name,
		Projects:  projects,
		Tasks:     tasks,
		CreatedAt: s.CreatedAt,
	}, nil
}

// ─── Tasks ──────────────────────────────────────────────────────────────────

// CreateTask creates a task in a project and stage. All three fields
// are required; the project and stage must exist.
func (f *Facade) CreateTask(actor *domain.User, name, projectID, stageID string) (*TaskRecord, error) {
	if name == "" || projectID == "" || stageID == "" {
		return nil, domain.Invalid("task name, project, and stage are required")
	}
	p, err := f.db.GetProject(projectID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.Invalid("project %s does not exist", projectID)
	}
	s, err := f.db.GetStage(stageID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, domain.Invalid("stage %s does not exist", stageID)
	}

	t := domain.Task{
		ID:        uuid.NewString(),
		Name:      name,
		ProjectID: projectID,
		StageID:   stageID,
		CreatedBy: actor.ID,
		CreatedAt: time.Now().UTC(),
	}
	if err := f.db.InsertTask(t); err != nil {
		return nil, err
	}
	metrics.RecordOps.WithLabelValues("task", "create").Inc()
	return f.taskRecord(actor, &t)
}

// SearchTasks lists the actor's tasks within a project. The project
// filter is required.
func (f *Facade) SearchTasks(actor *domain.User, projectID string, page Page) ([]TaskRecord, error) {
	if projectID == "" {
		return nil, domain.Invalid("a project id is required to search tasks")
	}
	if err := checkOrder(page.Order, "created_at", "name"); err != nil {
		return nil, err
	}

	tasks, err := f.db.ListTasks(sqlite.TaskFilter{
		ProjectID: projectID,
		CreatedBy: actor.ID,
		Limit:     page.limit(),
		Offset:    page.Offset,
		Order:     page.Order,
	})
	if err != nil {
		return nil, err
	}

	refs := make([]access.Ref, len(tasks))
	for i, t := range tasks {
		refs[i] = access.TaskRef(t.ID)
	}
	if err := f.guard.Check(actor, refs...); err != nil {
		return nil, err
	}

	metrics.RecordOps.WithLabelValues("task", "search").Inc()
	out := make([]TaskRecord, 0, len(tasks))
	for i := range tasks {
		rec, err := f.taskRecord(actor, &tasks[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, nil
}

// GetTask reads one task by id.
func (f *Facade) GetTask(actor *domain.User, id string) (*TaskRecord, error) {
	if err := f.guard.Check(actor, access.TaskRef(id)); err != nil {
		return nil, err
	}
	t, err := f.db.GetTask(id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("task %s: %w", id, domain.ErrNotFound)
	}
	metrics.RecordOps.WithLabelValues("task", "read").Inc()
	return f.taskRecord(actor, t)
}

// UpdateTask changes a task's name and/or stage. The owning project is
// immutable. A new stage must exist.
func (f *Facade) UpdateTask(actor *domain.User, id, name, stageID string) error {
	if err := f.guard.Check(actor, access.TaskRef(id)); err != nil {
		return err
	}
	if stageID != "" {
		s, err := f.db.GetStage(stageID)
		if err != nil {
			return err
		}
		if s == nil {
			return domain.Invalid("stage %s does not exist", stageID)
		}
	}
	if err := f.db.UpdateTask(id, name, stageID); err != nil {
		return err
	}
	metrics.RecordOps.WithLabelValues("task", "update").Inc()
	return nil
}

// DeleteTask removes a task; its time entries cascade.
func (f *Facade) DeleteTask(actor *domain.User, id string) error {
	if err := f.guard.Check(actor, access.TaskRef(id)); err != nil {
		return err
	}
	if err := f.db.DeleteTask(id); err != nil {
		return err
	}
	metrics.RecordOps.WithLabelValues("task", "delete").Inc()
	return nil
}

// StartTimer begins a time entry for the actor on a task.
func (f *Facade) StartTimer(actor *domain.User, taskID string) (*EntryRecord, error) {
	e, err := f.ledger.Start(actor, taskID)
	if err != nil {
		return nil, err
	}
	return entryRecord(e), nil
}

// StopTimer ends the actor's running entry on a task.
func (f *Facade) StopTimer(actor *domain.User, taskID string) (*EntryRecord, error) {
	e, err := f.ledger.Stop(actor, taskID)
	if err != nil {
		return nil, err
	}
	return entryRecord(e), nil
}

func (f *Facade) taskRecord(actor *domain.User, t *domain.Task) (*TaskRecord, error) {
	total, err := f.agg.TaskTotal(t.ID)
	if err != nil {
		return nil, err
	}

	// The running entry reference is a per-actor derived view: set only
	// when the actor's active entry belongs to this task.
	runningID := ""
	running, err := f.ledger.Running(actor)
	if err != nil {
		return nil, err
	}
	if running != nil && running.TaskID == t.ID {
		runningID = running.ID
	}

	return &TaskRecord{
		ID:              t.ID,
		Name:            t.Name,
		ProjectID:       t.ProjectID,
		StageID:         t.StageID,
		Duration:        total.Seconds,
		DurationDisplay: total.Display,
		RunningEntryID:  runningID,
		CreatedAt:       t.CreatedAt,
	}, nil
}

// ─── Time Entries ───────────────────────────────────────────────────────────
// Entries are created only by StartTimer and mutated only by StopTimer;
// the facade exposes search, read, and delete.

// SearchEntries lists the actor's own entries, optionally narrowed to a
// task or project.
func (f *Facade) SearchEntries(actor *domain.User, taskID, projectID string, page Page) ([]EntryRecord, error) {
	if err := f.guard.Check(actor); err != nil {
		return nil, err
	}
	if err := checkOrder(page.Order, "created_at", "start_time"); err != nil {
		return nil, err
	}

	entries, err := f.db.ListEntries(sqlite.EntryFilter{
		TaskID:    taskID,
		ProjectID: projectID,
		CreatedBy: actor.ID,
		Limit:     page.limit(),
		Offset:    page.Offset,
		Order:     page.Order,
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordOps.WithLabelValues("entry", "search").Inc()
	out := make([]EntryRecord, 0, len(entries))
	for i := range entries {
		out = append(out, *entryRecord(&entries[i]))
	}
	return out, nil
}

// GetEntry reads one entry by id.
func (f *Facade) GetEntry(actor *domain.User, id string) (*EntryRecord, error) {
	if err := f.guard.Check(actor); err != nil {
		return nil, err
	}
	e, err := f.db.GetEntry(id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, fmt.Errorf("entry %s: %w", id, domain.ErrNotFound)
	}
	metrics.RecordOps.WithLabelValues("entry", "read").Inc()
	return entryRecord(e), nil
}

// DeleteEntry removes an entry. Access delegates through the entry's
// task to its project.
func (f *Facade) DeleteEntry(actor *domain.User, id string) error {
	e, err := f.db.GetEntry(id)
	if err != nil {
		return err
	}
	if e == nil {
		return fmt.Errorf("entry %s: %w", id, domain.ErrNotFound)
	}
	if err := f.guard.Check(actor, access.TaskRef(e.TaskID)); err != nil {
		return err
	}
	if err := f.db.DeleteEntry(id); err != nil {
		return err
	}
	metrics.RecordOps.WithLabelValues("entry", "delete").Inc()
	return nil
}
