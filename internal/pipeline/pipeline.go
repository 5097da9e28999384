// Package pipeline holds the dashboard state: the loaded record list, the
// derived list view and the create/edit form draft.
package pipeline

import (
	"context"
	"fmt"

	"employee-management/internal/client"
	"employee-management/internal/models"

	"go.uber.org/zap"
)

// API is the subset of the HTTP client the pipeline talks to.
type API interface {
	ListEmployees(ctx context.Context) ([]models.Employee, error)
	CreateEmployee(ctx context.Context, f client.EmployeeForm) (models.Employee, error)
	UpdateEmployee(ctx context.Context, id string, f client.EmployeeForm) (models.Employee, error)
	DeleteCourses(ctx context.Context, id string, courses []string) error
	DeleteEmployee(ctx context.Context, id string) error
}

type Mode int

const (
	ModeWelcome Mode = iota
	ModeList
	ModeCreate
	ModeEdit
)

func (m Mode) String() string {
	switch m {
	case ModeList:
		return "list"
	case ModeCreate:
		return "create"
	case ModeEdit:
		return "edit"
	default:
		return "welcome"
	}
}

// Pipeline is not safe for concurrent use; it backs a single UI.
type Pipeline struct {
	api     API
	session client.Session
	log     *zap.Logger

	records []models.Employee
	term    string
	key     SortKey
	page    int

	mode     Mode
	draft    Draft
	editID   string
	original []string
}

func New(api API, s client.Session, log *zap.Logger) (*Pipeline, error) {
	if !s.Valid() {
		return nil, ErrNoSession
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		api:     api,
		session: s,
		log:     log.With(zap.String("user", s.Email)),
		key:     SortByName,
		page:    1,
	}, nil
}

func (p *Pipeline) Session() client.Session { return p.session }
func (p *Pipeline) Mode() Mode              { return p.mode }
func (p *Pipeline) Records() []models.Employee {
	return append([]models.Employee(nil), p.records...)
}

// ShowList switches to the list screen without touching the form.
func (p *Pipeline) ShowList() { p.mode = ModeList }

// Refresh reloads the full record list. On failure the previous list is kept.
func (p *Pipeline) Refresh(ctx context.Context) error {
	list, err := p.api.ListEmployees(ctx)
	if err != nil {
		p.log.Error("failed to load employees", zap.Error(err))
		return fmt.Errorf("load employees: %w", err)
	}
	p.records = list
	p.clampPage()
	return nil
}

func (p *Pipeline) SetSearch(term string) {
	p.term = term
	p.page = 1
}

func (p *Pipeline) SetSort(key SortKey) { p.key = key }

// SetPage moves to page n, clamped to the available pages.
func (p *Pipeline) SetPage(n int) {
	p.page = n
	p.clampPage()
}

func (p *Pipeline) clampPage() {
	pages := PageCount(len(Filter(p.records, p.term)), PageSize)
	if p.page > pages {
		p.page = pages
	}
	if p.page < 1 {
		p.page = 1
	}
}

func (p *Pipeline) View() View {
	return Compute(p.records, p.term, p.key, p.page)
}

func (p *Pipeline) BeginCreate() {
	p.mode = ModeCreate
	p.draft = Draft{}
	p.editID = ""
	p.original = nil
}

// BeginEdit opens the form on a loaded record and snapshots its courses.
func (p *Pipeline) BeginEdit(id string) error {
	for _, e := range p.records {
		if e.ID == id {
			p.mode = ModeEdit
			p.draft = draftFrom(e)
			p.editID = id
			p.original = models.AddCourses(nil, e.Course)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownRecord, id)
}

// Draft returns a copy of the open form.
func (p *Pipeline) Draft() Draft {
	d := p.draft
	d.Course = append([]string(nil), p.draft.Course...)
	return d
}

func (p *Pipeline) editing() bool {
	return p.mode == ModeCreate || p.mode == ModeEdit
}

func (p *Pipeline) SetField(f Field, value string) error {
	if !p.editing() {
		return ErrNotEditing
	}
	return p.draft.Set(f, value)
}

func (p *Pipeline) ToggleCourse(label string, checked bool) error {
	if !p.editing() {
		return ErrNotEditing
	}
	p.draft.Toggle(label, checked)
	return nil
}

func (p *Pipeline) AttachImage(name string, data []byte) error {
	if !p.editing() {
		return ErrNotEditing
	}
	p.draft.Image = &client.Attachment{Name: name, Data: data}
	return nil
}

// Cancel drops the draft and returns to the list. No request is made.
func (p *Pipeline) Cancel() {
	p.resetForm()
	p.mode = ModeList
}

func (p *Pipeline) resetForm() {
	p.draft = Draft{}
	p.editID = ""
	p.original = nil
}

// Submit sends the draft. Edits first remove the courses the record had when
// editing started, then send the update; the pair is not atomic and a failed
// update is returned as a *PartialFailureError without retry. A failed reload
// after a successful save is reported as ErrReloadFailed.
func (p *Pipeline) Submit(ctx context.Context) error {
	if !p.editing() {
		return ErrNotEditing
	}
	if err := p.draft.validate(); err != nil {
		return err
	}

	switch p.mode {
	case ModeCreate:
		created, err := p.api.CreateEmployee(ctx, p.draft.form())
		if err != nil {
			p.log.Error("failed to create employee", zap.Error(err))
			return fmt.Errorf("create employee: %w", err)
		}
		p.log.Info("employee created", zap.String("id", created.ID))

	case ModeEdit:
		id := p.editID
		if err := p.api.DeleteCourses(ctx, id, p.original); err != nil {
			p.log.Error("failed to clear courses", zap.String("id", id), zap.Error(err))
			return fmt.Errorf("clear courses: %w", err)
		}
		if _, err := p.api.UpdateEmployee(ctx, id, p.draft.form()); err != nil {
			p.log.Error("update failed after courses were cleared",
				zap.String("id", id), zap.Strings("removed", p.original), zap.Error(err))
			return &PartialFailureError{ID: id, Removed: append([]string(nil), p.original...), Err: err}
		}
		p.log.Info("employee updated", zap.String("id", id))
	}

	p.resetForm()
	p.mode = ModeList
	if err := p.Refresh(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrReloadFailed, err)
	}
	return nil
}

// Delete removes the record on the server and then from the loaded list.
func (p *Pipeline) Delete(ctx context.Context, id string) error {
	if err := p.api.DeleteEmployee(ctx, id); err != nil {
		p.log.Error("failed to delete employee", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("delete employee: %w", err)
	}

	kept := p.records[:0:0]
	for _, e := range p.records {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	p.records = kept
	p.clampPage()
	return nil
}
