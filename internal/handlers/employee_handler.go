package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"employee-management/internal/middleware"
	"employee-management/internal/models"
	"employee-management/internal/store"
	"employee-management/internal/upload"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AssetObserver is told about every best-effort asset release.
type AssetObserver interface {
	AssetReleased(err error)
}

type EmployeeHandler struct {
	store    store.EmployeeStore
	sink     upload.Sink
	log      *zap.Logger
	observer AssetObserver
	now      func() time.Time
}

func NewEmployeeHandler(s store.EmployeeStore, sink upload.Sink, log *zap.Logger, observer AssetObserver) *EmployeeHandler {
	return &EmployeeHandler{store: s, sink: sink, log: log, observer: observer, now: time.Now}
}

// employeeForm binds both multipart/form bodies and JSON. Pointer fields stay
// nil when the key is absent, which is what makes PUT a partial update.
type employeeForm struct {
	Name        *string  `form:"name" json:"name"`
	Email       *string  `form:"email" json:"email"`
	MobileNo    *string  `form:"mobile_no" json:"mobile_no"`
	Designation *string  `form:"designation" json:"designation"`
	Gender      *string  `form:"gender" json:"gender"`
	Course      []string `form:"course" json:"course"`
	CreatedDate *string  `form:"created_date" json:"created_date"`
}

// splitCourses accepts both repeated entries and a single comma list.
func splitCourses(in []string) []string {
	var out []string
	for _, v := range in {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.MessageResponse{Message: "Invalid input", Error: err.Error()})
}

func serverError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, models.MessageResponse{Message: "Server error", Error: err.Error()})
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, models.MessageResponse{Message: "Employee not found"})
}

// saveImage stores the optional "image" part of a multipart body.
// It returns "" when no file was sent.
func (h *EmployeeHandler) saveImage(c *gin.Context) (string, error) {
	if c.ContentType() != gin.MIMEMultipartPOSTForm {
		return "", nil
	}
	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}

	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	return h.sink.Save(c.Request.Context(), fh.Filename, f)
}

// release drops an asset best-effort: failures are logged, never returned.
func (h *EmployeeHandler) release(c *gin.Context, ref string) {
	if ref == "" {
		return
	}
	err := h.sink.Remove(ref)
	if err != nil {
		middleware.LoggerFrom(c, h.log).Warn("failed to release image", zap.String("image", ref), zap.Error(err))
	}
	if h.observer != nil {
		h.observer.AssetReleased(err)
	}
}

// POST /api/employees
func (h *EmployeeHandler) CreateEmployee(c *gin.Context) {
	var in employeeForm
	if err := c.ShouldBind(&in); err != nil {
		badRequest(c, err)
		return
	}

	e := models.Employee{
		Name:        deref(in.Name),
		Email:       deref(in.Email),
		MobileNo:    deref(in.MobileNo),
		Designation: models.Designation(deref(in.Designation)),
		Gender:      models.Gender(deref(in.Gender)),
		Course:      splitCourses(in.Course),
		CreatedDate: h.now().UTC().Truncate(time.Millisecond),
	}
	if d := strings.TrimSpace(deref(in.CreatedDate)); d != "" {
		created, err := models.ParseDate(d)
		if err != nil {
			badRequest(c, err)
			return
		}
		e.CreatedDate = created
	}
	if err := e.Validate(); err != nil {
		badRequest(c, err)
		return
	}

	image, err := h.saveImage(c)
	if err != nil {
		serverError(c, err)
		return
	}
	e.Image = image

	created, err := h.store.Insert(c.Request.Context(), e)
	if err != nil {
		h.release(c, image)
		serverError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// GET /api/employees
func (h *EmployeeHandler) ListEmployees(c *gin.Context) {
	list, err := h.store.FindAll(c.Request.Context())
	if err != nil {
		serverError(c, err)
		return
	}
	if list == nil {
		list = []models.Employee{}
	}
	c.JSON(http.StatusOK, list)
}

// GET /api/employees/:id
func (h *EmployeeHandler) GetEmployeeByID(c *gin.Context) {
	e, err := h.store.FindByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		notFound(c)
		return
	}
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// PUT /api/employees/:id
// Scalars present in the body overwrite; course labels are merged into the
// stored set. Clients that want to drop labels call delete-courses first.
func (h *EmployeeHandler) UpdateEmployee(c *gin.Context) {
	id := c.Param("id")

	var in employeeForm
	if err := c.ShouldBind(&in); err != nil {
		badRequest(c, err)
		return
	}

	u := models.EmployeeUpdate{
		Name:     in.Name,
		Email:    in.Email,
		MobileNo: in.MobileNo,
		Course:   splitCourses(in.Course),
	}
	if in.Designation != nil {
		d := models.Designation(*in.Designation)
		u.Designation = &d
	}
	if in.Gender != nil {
		g := models.Gender(*in.Gender)
		u.Gender = &g
	}
	if d := strings.TrimSpace(deref(in.CreatedDate)); d != "" {
		created, err := models.ParseDate(d)
		if err != nil {
			badRequest(c, err)
			return
		}
		u.CreatedDate = &created
	}
	if err := u.Validate(); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	current, err := h.store.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		notFound(c)
		return
	}
	if err != nil {
		serverError(c, err)
		return
	}

	image, err := h.saveImage(c)
	if err != nil {
		serverError(c, err)
		return
	}
	if image != "" {
		u.Image = &image
	}

	updated, err := h.store.Update(ctx, id, u)
	if err != nil {
		h.release(c, image)
		if errors.Is(err, store.ErrNotFound) {
			notFound(c)
			return
		}
		serverError(c, err)
		return
	}

	if image != "" && current.Image != "" && current.Image != image {
		h.release(c, current.Image)
	}

	c.JSON(http.StatusOK, updated)
}

// POST /api/employees/:id/delete-courses
// Unknown ids succeed without effect.
func (h *EmployeeHandler) DeleteCourses(c *gin.Context) {
	var in models.DeleteCoursesRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error deleting courses"})
		return
	}

	if err := h.store.PullCourses(c.Request.Context(), c.Param("id"), in.Courses); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error deleting courses"})
		return
	}

	c.String(http.StatusOK, "Courses deleted successfully")
}

// DELETE /api/employees/:id
func (h *EmployeeHandler) DeleteEmployee(c *gin.Context) {
	deleted, err := h.store.Delete(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		notFound(c)
		return
	}
	if err != nil {
		serverError(c, err)
		return
	}

	h.release(c, deleted.Image)

	c.JSON(http.StatusOK, models.MessageResponse{Message: "Employee deleted"})
}
