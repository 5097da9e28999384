package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is the wire form of created_date. Sorting and searching on
// the client compare this text, so it must stay fixed-width and UTC.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// DateLayout is what the create/edit form carries for created_date.
const DateLayout = "2006-01-02"

type Designation string

const (
	DesignationHR      Designation = "HR"
	DesignationManager Designation = "Manager"
	DesignationSales   Designation = "Sales"
)

func (d Designation) Valid() bool {
	switch d {
	case "", DesignationHR, DesignationManager, DesignationSales:
		return true
	}
	return false
}

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

func (g Gender) Valid() bool {
	switch g {
	case "", GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// Course labels an employee may hold.
const (
	CourseMCA = "MCA"
	CourseBCA = "BCA"
	CourseBSc = "BSc"
)

var Courses = []string{CourseMCA, CourseBCA, CourseBSc}

func IsCourse(label string) bool {
	for _, c := range Courses {
		if c == label {
			return true
		}
	}
	return false
}

type Employee struct {
	ID          string      `json:"_id"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	MobileNo    string      `json:"mobile_no"`
	Designation Designation `json:"designation"`
	Gender      Gender      `json:"gender"`
	Course      []string    `json:"course"`
	CreatedDate time.Time   `json:"created_date"`
	Image       string      `json:"image"`
}

// CreatedDateText is created_date exactly as it appears on the wire.
func (e Employee) CreatedDateText() string {
	if e.CreatedDate.IsZero() {
		return ""
	}
	return e.CreatedDate.UTC().Format(TimestampLayout)
}

func (e Employee) MarshalJSON() ([]byte, error) {
	type wire struct {
		ID          string      `json:"_id"`
		Name        string      `json:"name"`
		Email       string      `json:"email"`
		MobileNo    string      `json:"mobile_no"`
		Designation Designation `json:"designation"`
		Gender      Gender      `json:"gender"`
		Course      []string    `json:"course"`
		CreatedDate string      `json:"created_date,omitempty"`
		Image       string      `json:"image"`
	}
	course := e.Course
	if course == nil {
		course = []string{}
	}
	return json.Marshal(wire{
		ID:          e.ID,
		Name:        e.Name,
		Email:       e.Email,
		MobileNo:    e.MobileNo,
		Designation: e.Designation,
		Gender:      e.Gender,
		Course:      course,
		CreatedDate: e.CreatedDateText(),
		Image:       e.Image,
	})
}

// Validate runs the presence and enumeration checks applied on create.
func (e *Employee) Validate() error {
	e.Name = strings.TrimSpace(e.Name)
	e.Email = strings.TrimSpace(e.Email)
	if e.Name == "" || e.Email == "" {
		return fmt.Errorf("name and email are required")
	}
	if !e.Designation.Valid() {
		return fmt.Errorf("invalid designation %q", e.Designation)
	}
	if !e.Gender.Valid() {
		return fmt.Errorf("invalid gender %q", e.Gender)
	}
	course, err := NormalizeCourses(e.Course)
	if err != nil {
		return err
	}
	e.Course = course
	return nil
}

// NormalizeCourses drops duplicates and rejects labels outside Courses.
// The result is never nil.
func NormalizeCourses(labels []string) ([]string, error) {
	out := make([]string, 0, len(labels))
	seen := make(map[string]bool, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" || seen[l] {
			continue
		}
		if !IsCourse(l) {
			return nil, fmt.Errorf("invalid course %q", l)
		}
		seen[l] = true
		out = append(out, l)
	}
	return out, nil
}

// ParseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("created_date must be YYYY-MM-DD or RFC 3339")
	}
	return t, nil
}

// EmployeeUpdate is a partial update. Nil fields are left untouched; Course
// labels are merged into the stored set, never replacing it.
type EmployeeUpdate struct {
	Name        *string
	Email       *string
	MobileNo    *string
	Designation *Designation
	Gender      *Gender
	CreatedDate *time.Time
	Course      []string
	Image       *string
}

func (u EmployeeUpdate) Empty() bool {
	return u.Name == nil && u.Email == nil && u.MobileNo == nil && u.Designation == nil &&
		u.Gender == nil && u.CreatedDate == nil && len(u.Course) == 0 && u.Image == nil
}

// Validate normalizes Course and checks the enumerated fields that are set.
func (u *EmployeeUpdate) Validate() error {
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if u.Email != nil && strings.TrimSpace(*u.Email) == "" {
		return fmt.Errorf("email cannot be empty")
	}
	if u.Designation != nil && !u.Designation.Valid() {
		return fmt.Errorf("invalid designation %q", *u.Designation)
	}
	if u.Gender != nil && !u.Gender.Valid() {
		return fmt.Errorf("invalid gender %q", *u.Gender)
	}
	course, err := NormalizeCourses(u.Course)
	if err != nil {
		return err
	}
	u.Course = course
	return nil
}

// Apply merges u into e the way every store does.
func (u EmployeeUpdate) Apply(e *Employee) {
	if u.Name != nil {
		e.Name = strings.TrimSpace(*u.Name)
	}
	if u.Email != nil {
		e.Email = strings.TrimSpace(*u.Email)
	}
	if u.MobileNo != nil {
		e.MobileNo = *u.MobileNo
	}
	if u.Designation != nil {
		e.Designation = *u.Designation
	}
	if u.Gender != nil {
		e.Gender = *u.Gender
	}
	if u.CreatedDate != nil {
		e.CreatedDate = *u.CreatedDate
	}
	if u.Image != nil {
		e.Image = *u.Image
	}
	e.Course = AddCourses(e.Course, u.Course)
}

// AddCourses returns set ∪ labels, keeping the order of first appearance.
func AddCourses(set, labels []string) []string {
	out := append(make([]string, 0, len(set)+len(labels)), set...)
	for _, l := range labels {
		if !contains(out, l) {
			out = append(out, l)
		}
	}
	return out
}

// RemoveCourses returns set \ labels.
func RemoveCourses(set, labels []string) []string {
	out := make([]string, 0, len(set))
	for _, c := range set {
		if !contains(labels, c) {
			out = append(out, c)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
