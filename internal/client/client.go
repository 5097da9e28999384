// Package client is a typed HTTP client for the employee API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"employee-management/internal/models"
)

// Session identifies the signed-in user. It is passed explicitly to the
// client and pipeline; nothing holds it globally.
type Session struct {
	Email string
	Token string
}

func (s Session) Valid() bool { return s.Email != "" }

// Attachment is a file to upload with a create or update.
type Attachment struct {
	Name string
	Data []byte
}

// EmployeeForm is the body of create and update calls. Nil scalars are not
// sent; Course members are sent as repeated "course" entries.
type EmployeeForm struct {
	Name        *string
	Email       *string
	MobileNo    *string
	Designation *string
	Gender      *string
	CreatedDate *string
	Course      []string
	Image       *Attachment
}

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

func statusIs(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

func IsNotFound(err error) bool     { return statusIs(err, http.StatusNotFound) }
func IsUnauthorized(err error) bool { return statusIs(err, http.StatusUnauthorized) }

type Client struct {
	baseURL string
	http    *http.Client
	session Session
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http = &http.Client{Timeout: d} }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// WithSession returns a copy of c that authenticates as s.
func (c *Client) WithSession(s Session) *Client {
	cp := *c
	cp.session = s
	return &cp
}

func (c *Client) Session() Session { return c.session }

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.session.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.session.Token)
	}
	return req, nil
}

// do sends req and decodes a 2xx JSON body into out (if non-nil).
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func errorMessage(body []byte) string {
	var m struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &m) == nil {
		switch {
		case m.Message != "":
			return m.Message
		case m.Error != "":
			return m.Error
		}
	}
	return strings.TrimSpace(string(body))
}

func jsonBody(v any) (io.Reader, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(b), nil
}

// Login verifies the credential and returns the session to use afterwards.
func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	body, err := jsonBody(models.LoginRequest{Email: email, Password: password})
	if err != nil {
		return Session{}, err
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/api/login", body, "application/json")
	if err != nil {
		return Session{}, err
	}

	var resp models.LoginResponse
	if err := c.do(req, &resp); err != nil {
		return Session{}, err
	}
	return Session{Email: resp.User.Email, Token: resp.Token}, nil
}

func (c *Client) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/employees", nil, "")
	if err != nil {
		return nil, err
	}
	var list []models.Employee
	if err := c.do(req, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) GetEmployee(ctx context.Context, id string) (models.Employee, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/employees/"+url.PathEscape(id), nil, "")
	if err != nil {
		return models.Employee{}, err
	}
	var e models.Employee
	err = c.do(req, &e)
	return e, err
}

func encodeForm(f EmployeeForm) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := []struct {
		name  string
		value *string
	}{
		{"name", f.Name},
		{"email", f.Email},
		{"mobile_no", f.MobileNo},
		{"designation", f.Designation},
		{"gender", f.Gender},
		{"created_date", f.CreatedDate},
	}
	for _, fld := range fields {
		if fld.value == nil {
			continue
		}
		if err := mw.WriteField(fld.name, *fld.value); err != nil {
			return nil, "", err
		}
	}
	for _, course := range f.Course {
		if err := mw.WriteField("course", course); err != nil {
			return nil, "", err
		}
	}
	if f.Image != nil {
		w, err := mw.CreateFormFile("image", f.Image.Name)
		if err != nil {
			return nil, "", err
		}
		if _, err := w.Write(f.Image.Data); err != nil {
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

func (c *Client) sendForm(ctx context.Context, method, path string, f EmployeeForm) (models.Employee, error) {
	body, ct, err := encodeForm(f)
	if err != nil {
		return models.Employee{}, fmt.Errorf("encode form: %w", err)
	}
	req, err := c.newRequest(ctx, method, path, body, ct)
	if err != nil {
		return models.Employee{}, err
	}
	var e models.Employee
	err = c.do(req, &e)
	return e, err
}

func (c *Client) CreateEmployee(ctx context.Context, f EmployeeForm) (models.Employee, error) {
	return c.sendForm(ctx, http.MethodPost, "/api/employees", f)
}

func (c *Client) UpdateEmployee(ctx context.Context, id string, f EmployeeForm) (models.Employee, error) {
	return c.sendForm(ctx, http.MethodPut, "/api/employees/"+url.PathEscape(id), f)
}

func (c *Client) DeleteCourses(ctx context.Context, id string, courses []string) error {
	if courses == nil {
		courses = []string{}
	}
	body, err := jsonBody(models.DeleteCoursesRequest{Courses: courses})
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/api/employees/"+url.PathEscape(id)+"/delete-courses", body, "application/json")
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

func (c *Client) DeleteEmployee(ctx context.Context, id string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/api/employees/"+url.PathEscape(id), nil, "")
	if err != nil {
		return err
	}
	return c.do(req, nil)
}
