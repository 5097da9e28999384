package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"employee-management/internal/client"
	"employee-management/internal/config"
	"employee-management/internal/handlers"
	"employee-management/internal/metrics"
	"employee-management/internal/models"
	"employee-management/internal/router"
	"employee-management/internal/store"
	"employee-management/internal/upload"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// fakeAPI applies calls to an in-memory list the way the server does and
// records the call sequence.
type fakeAPI struct {
	records   []models.Employee
	calls     []string
	failOn    map[string]error
	lastForms []client.EmployeeForm
	nextID    int
}

func (f *fakeAPI) fail(call string) error {
	f.calls = append(f.calls, call)
	return f.failOn[call]
}

func (f *fakeAPI) find(id string) *models.Employee {
	for i := range f.records {
		if f.records[i].ID == id {
			return &f.records[i]
		}
	}
	return nil
}

func (f *fakeAPI) ListEmployees(context.Context) ([]models.Employee, error) {
	if err := f.fail("list"); err != nil {
		return nil, err
	}
	return append([]models.Employee(nil), f.records...), nil
}

func (f *fakeAPI) CreateEmployee(_ context.Context, form client.EmployeeForm) (models.Employee, error) {
	if err := f.fail("create"); err != nil {
		return models.Employee{}, err
	}
	f.lastForms = append(f.lastForms, form)
	f.nextID++
	e := models.Employee{ID: fmt.Sprintf("id-%d", f.nextID), Name: *form.Name, Email: *form.Email,
		Course: models.AddCourses(nil, form.Course)}
	f.records = append(f.records, e)
	return e, nil
}

func (f *fakeAPI) UpdateEmployee(_ context.Context, id string, form client.EmployeeForm) (models.Employee, error) {
	if err := f.fail("update"); err != nil {
		return models.Employee{}, err
	}
	f.lastForms = append(f.lastForms, form)
	e := f.find(id)
	if e == nil {
		return models.Employee{}, &client.APIError{StatusCode: http.StatusNotFound}
	}
	e.Name = *form.Name
	e.Course = models.AddCourses(e.Course, form.Course)
	return *e, nil
}

func (f *fakeAPI) DeleteCourses(_ context.Context, id string, courses []string) error {
	if err := f.fail("delete-courses"); err != nil {
		return err
	}
	if e := f.find(id); e != nil {
		e.Course = models.RemoveCourses(e.Course, courses)
	}
	return nil
}

func (f *fakeAPI) DeleteEmployee(_ context.Context, id string) error {
	if err := f.fail("delete"); err != nil {
		return err
	}
	for i := range f.records {
		if f.records[i].ID == id {
			f.records = append(f.records[:i], f.records[i+1:]...)
			return nil
		}
	}
	return &client.APIError{StatusCode: http.StatusNotFound}
}

var session = client.Session{Email: "admin@gmail.com"}

func newPipeline(t *testing.T, api API) *Pipeline {
	p, err := New(api, session, zap.NewNop())
	require.NoError(t, err)
	return p
}

func TestNew_RequiresSession(t *testing.T) {
	_, err := New(&fakeAPI{}, client.Session{}, nil)
	assert.ErrorIs(t, err, ErrNoSession)

	p, err := New(&fakeAPI{}, session, nil)
	require.NoError(t, err)
	assert.Equal(t, ModeWelcome, p.Mode())
	assert.Equal(t, session, p.Session())
}

func TestToggleCourse_Idempotent(t *testing.T) {
	p := newPipeline(t, &fakeAPI{})
	p.BeginCreate()

	require.NoError(t, p.ToggleCourse("MCA", true))
	require.NoError(t, p.ToggleCourse("MCA", true))
	require.NoError(t, p.ToggleCourse("BSc", true))
	assert.Equal(t, []string{"MCA", "BSc"}, p.Draft().Course)

	require.NoError(t, p.ToggleCourse("BCA", false))
	require.NoError(t, p.ToggleCourse("MCA", false))
	require.NoError(t, p.ToggleCourse("MCA", false))
	assert.Equal(t, []string{"BSc"}, p.Draft().Course)
	assert.True(t, p.Draft().HasCourse("BSc"))
}

func TestForm_RequiresOpenForm(t *testing.T) {
	p := newPipeline(t, &fakeAPI{})

	assert.ErrorIs(t, p.SetField(FieldName, "x"), ErrNotEditing)
	assert.ErrorIs(t, p.ToggleCourse("MCA", true), ErrNotEditing)
	assert.ErrorIs(t, p.AttachImage("a.png", nil), ErrNotEditing)
	assert.ErrorIs(t, p.Submit(context.Background()), ErrNotEditing)

	p.BeginCreate()
	assert.Error(t, p.SetField("salary", "1"))
}

func TestSubmit_Create(t *testing.T) {
	api := &fakeAPI{}
	p := newPipeline(t, api)
	ctx := context.Background()

	p.BeginCreate()
	assert.ErrorIs(t, p.Submit(ctx), ErrValidation)
	assert.Empty(t, api.calls, "validation runs before any request")

	require.NoError(t, p.SetField(FieldName, "Asha"))
	require.NoError(t, p.SetField(FieldEmail, "asha@example.com"))
	require.NoError(t, p.ToggleCourse("MCA", true))
	require.NoError(t, p.ToggleCourse("BCA", true))
	require.NoError(t, p.AttachImage("face.png", []byte("png")))

	require.NoError(t, p.Submit(ctx))

	assert.Equal(t, []string{"create", "list"}, api.calls)
	form := api.lastForms[0]
	assert.Equal(t, []string{"MCA", "BCA"}, form.Course)
	assert.Nil(t, form.CreatedDate, "server assigns the creation date")
	require.NotNil(t, form.Image)
	assert.Equal(t, "face.png", form.Image.Name)

	assert.Equal(t, ModeList, p.Mode())
	assert.Equal(t, Draft{}, p.Draft())
	require.Len(t, p.Records(), 1)
}

func TestSubmit_SavedButReloadFailed(t *testing.T) {
	listErr := errors.New("boom")
	api := &fakeAPI{failOn: map[string]error{"list": listErr}}
	p := newPipeline(t, api)
	ctx := context.Background()

	p.BeginCreate()
	require.NoError(t, p.SetField(FieldName, "Asha"))
	require.NoError(t, p.SetField(FieldEmail, "asha@example.com"))

	err := p.Submit(ctx)
	assert.ErrorIs(t, err, ErrReloadFailed)
	assert.ErrorIs(t, err, listErr)
	assert.Len(t, api.records, 1, "the record was stored")
	assert.Equal(t, ModeList, p.Mode())
	assert.Equal(t, Draft{}, p.Draft())

	assert.ErrorIs(t, p.BeginEdit("id-1"), ErrUnknownRecord, "the loaded list is stale")
}

func TestSubmit_EditSavedButReloadFailed(t *testing.T) {
	api := &fakeAPI{records: []models.Employee{{ID: "e1", Name: "Asha", Email: "a@x.io", Course: []string{"MCA"}}}}
	p := newPipeline(t, api)
	ctx := context.Background()
	require.NoError(t, p.Refresh(ctx))

	require.NoError(t, p.BeginEdit("e1"))
	require.NoError(t, p.SetField(FieldName, "Asha K"))
	api.failOn = map[string]error{"list": errors.New("timeout")}

	err := p.Submit(ctx)
	assert.ErrorIs(t, err, ErrReloadFailed)

	var partial *PartialFailureError
	assert.False(t, errors.As(err, &partial))
	assert.Equal(t, "Asha K", api.records[0].Name)
	assert.Equal(t, ModeList, p.Mode())
}

func TestSubmit_EditReplacesCourseSet(t *testing.T) {
	api := &fakeAPI{records: []models.Employee{
		{ID: "e1", Name: "Asha", Email: "asha@example.com", Course: []string{"MCA", "BCA"}},
	}}
	p := newPipeline(t, api)
	ctx := context.Background()
	require.NoError(t, p.Refresh(ctx))

	require.NoError(t, p.BeginEdit("e1"))
	assert.Nil(t, p.Draft().Image)

	require.NoError(t, p.ToggleCourse("MCA", false))
	require.NoError(t, p.ToggleCourse("BSc", true))
	require.NoError(t, p.Submit(ctx))

	assert.Equal(t, []string{"list", "delete-courses", "update", "list"}, api.calls)
	assert.ElementsMatch(t, []string{"BCA", "BSc"}, api.records[0].Course)
	assert.Equal(t, ModeList, p.Mode())
}

func TestSubmit_EditPartialFailure(t *testing.T) {
	updateErr := &client.APIError{StatusCode: http.StatusInternalServerError, Message: "Server error"}
	api := &fakeAPI{
		records: []models.Employee{{ID: "e1", Name: "Asha", Email: "a@x.io", Course: []string{"MCA", "BCA"}}},
		failOn:  map[string]error{"update": updateErr},
	}
	p := newPipeline(t, api)
	ctx := context.Background()
	require.NoError(t, p.Refresh(ctx))

	require.NoError(t, p.BeginEdit("e1"))
	require.NoError(t, p.ToggleCourse("BSc", true))

	err := p.Submit(ctx)

	var partial *PartialFailureError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, "e1", partial.ID)
	assert.Equal(t, []string{"MCA", "BCA"}, partial.Removed)
	assert.ErrorIs(t, err, updateErr)

	assert.Equal(t, []string{"list", "delete-courses", "update"}, api.calls, "no retry")
	assert.Empty(t, api.records[0].Course)
	assert.Equal(t, ModeEdit, p.Mode(), "draft stays open")
}

func TestSubmit_EditRemovalFails(t *testing.T) {
	api := &fakeAPI{
		records: []models.Employee{{ID: "e1", Name: "Asha", Email: "a@x.io", Course: []string{"MCA"}}},
		failOn:  map[string]error{"delete-courses": errors.New("connection refused")},
	}
	p := newPipeline(t, api)
	ctx := context.Background()
	require.NoError(t, p.Refresh(ctx))
	require.NoError(t, p.BeginEdit("e1"))

	err := p.Submit(ctx)
	require.Error(t, err)

	var partial *PartialFailureError
	assert.False(t, errors.As(err, &partial))
	assert.NotContains(t, api.calls, "update")
}

func TestBeginEdit_Unknown(t *testing.T) {
	p := newPipeline(t, &fakeAPI{})

	assert.ErrorIs(t, p.BeginEdit("missing"), ErrUnknownRecord)
	assert.Equal(t, ModeWelcome, p.Mode())
}

func TestCancel(t *testing.T) {
	api := &fakeAPI{records: []models.Employee{{ID: "e1", Name: "Asha", Email: "a@x.io"}}}
	p := newPipeline(t, api)
	require.NoError(t, p.Refresh(context.Background()))

	require.NoError(t, p.BeginEdit("e1"))
	require.NoError(t, p.SetField(FieldName, "changed"))
	p.Cancel()

	assert.Equal(t, ModeList, p.Mode())
	assert.Equal(t, Draft{}, p.Draft())
	assert.Equal(t, []string{"list"}, api.calls)
}

func TestRefresh_FailureKeepsView(t *testing.T) {
	api := &fakeAPI{records: []models.Employee{{ID: "e1", Name: "Asha", Email: "a@x.io"}}}

	core, logs := observer.New(zap.ErrorLevel)
	p, err := New(api, session, zap.New(core))
	require.NoError(t, err)
	require.NoError(t, p.Refresh(context.Background()))
	before := p.View()

	api.failOn = map[string]error{"list": errors.New("timeout")}
	require.Error(t, p.Refresh(context.Background()))

	if diff := cmp.Diff(before, p.View()); diff != "" {
		t.Errorf("view changed after failed refresh (-before +after)\n%s", diff)
	}
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "failed to load employees", logs.All()[0].Message)
}

func TestSearchAndPaging(t *testing.T) {
	var records []models.Employee
	for i := 0; i < 21; i++ {
		records = append(records, models.Employee{ID: fmt.Sprintf("%02d", i), Name: fmt.Sprintf("emp %02d", i), Email: "e@x.io"})
	}
	api := &fakeAPI{records: records}
	p := newPipeline(t, api)
	ctx := context.Background()
	require.NoError(t, p.Refresh(ctx))

	p.SetPage(3)
	assert.Equal(t, 3, p.View().Page)
	assert.Equal(t, []string{"20"}, ids(p.View().Items))

	p.SetPage(9)
	assert.Equal(t, 3, p.View().Page, "clamped to last page")

	p.SetSearch("emp 1")
	assert.Equal(t, 1, p.View().Page, "search resets the page")
	assert.Equal(t, 10, p.View().Total)

	p.SetSearch("")
	p.SetSort(SortByName)
	p.SetPage(3)
	require.NoError(t, p.Delete(ctx, "20"))
	assert.Equal(t, 2, p.View().Page, "page clamped after the last row is deleted")
	assert.Equal(t, []string{"list", "delete"}, api.calls, "delete does not refetch")
	assert.Len(t, p.Records(), 20)
}

func TestDelete_Failure(t *testing.T) {
	api := &fakeAPI{records: []models.Employee{{ID: "e1", Name: "Asha", Email: "a@x.io"}}}
	p := newPipeline(t, api)
	require.NoError(t, p.Refresh(context.Background()))

	err := p.Delete(context.Background(), "nope")
	assert.True(t, client.IsNotFound(err))
	assert.Len(t, p.Records(), 1)
}

// TestPipeline_AgainstServer runs the edit protocol end to end over HTTP.
func TestPipeline_AgainstServer(t *testing.T) {
	gin.SetMode(gin.TestMode)

	s := store.NewMemory()
	_, err := handlers.EnsureUser(context.Background(), s, "admin@gmail.com", "admin")
	require.NoError(t, err)
	disk, err := upload.NewDisk(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)

	srv := httptest.NewServer(router.New(router.Deps{
		Config: config.AppConfig{}, Store: s, Uploads: disk, Log: zap.NewNop(), Metrics: metrics.New(),
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	api := client.New(srv.URL)
	sess, err := api.Login(ctx, "admin@gmail.com", "admin")
	require.NoError(t, err)

	p, err := New(api.WithSession(sess), sess, zap.NewNop())
	require.NoError(t, err)

	p.BeginCreate()
	require.NoError(t, p.SetField(FieldName, "Asha"))
	require.NoError(t, p.SetField(FieldEmail, "asha@example.com"))
	require.NoError(t, p.SetField(FieldCreatedDate, "2024-05-01"))
	require.NoError(t, p.ToggleCourse("MCA", true))
	require.NoError(t, p.ToggleCourse("BCA", true))
	require.NoError(t, p.Submit(ctx))

	require.Len(t, p.Records(), 1)
	rec := p.Records()[0]
	assert.ElementsMatch(t, []string{"MCA", "BCA"}, rec.Course)
	assert.Equal(t, "2024-05-01T00:00:00.000Z", rec.CreatedDateText())

	require.NoError(t, p.BeginEdit(rec.ID))
	require.NoError(t, p.ToggleCourse("MCA", false))
	require.NoError(t, p.ToggleCourse("BSc", true))
	require.NoError(t, p.Submit(ctx))

	got, err := api.GetEmployee(ctx, rec.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"BCA", "BSc"}, got.Course)
	assert.Equal(t, rec.CreatedDateText(), got.CreatedDateText())

	require.NoError(t, p.Delete(ctx, rec.ID))
	assert.Empty(t, p.View().Items)
}
