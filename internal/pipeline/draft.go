package pipeline

import (
	"fmt"
	"strings"

	"employee-management/internal/client"
	"employee-management/internal/models"
)

type Field string

const (
	FieldName        Field = "name"
	FieldEmail       Field = "email"
	FieldMobileNo    Field = "mobile_no"
	FieldDesignation Field = "designation"
	FieldGender      Field = "gender"
	FieldCreatedDate Field = "created_date"
)

// Draft is the state of an open create or edit form.
type Draft struct {
	Name        string
	Email       string
	MobileNo    string
	Designation string
	Gender      string
	CreatedDate string
	Course      []string
	Image       *client.Attachment
}

// draftFrom copies the editable fields of e. The image slot starts empty.
func draftFrom(e models.Employee) Draft {
	return Draft{
		Name:        e.Name,
		Email:       e.Email,
		MobileNo:    e.MobileNo,
		Designation: string(e.Designation),
		Gender:      string(e.Gender),
		CreatedDate: e.CreatedDateText(),
		Course:      models.AddCourses(nil, e.Course),
	}
}

func (d *Draft) Set(f Field, value string) error {
	switch f {
	case FieldName:
		d.Name = value
	case FieldEmail:
		d.Email = value
	case FieldMobileNo:
		d.MobileNo = value
	case FieldDesignation:
		d.Designation = value
	case FieldGender:
		d.Gender = value
	case FieldCreatedDate:
		d.CreatedDate = value
	default:
		return fmt.Errorf("unknown field %q", f)
	}
	return nil
}

// Toggle adds label when checked and removes it otherwise. Both directions
// are idempotent.
func (d *Draft) Toggle(label string, checked bool) {
	if checked {
		d.Course = models.AddCourses(d.Course, []string{label})
		return
	}
	d.Course = models.RemoveCourses(d.Course, []string{label})
}

func (d Draft) HasCourse(label string) bool {
	for _, c := range d.Course {
		if c == label {
			return true
		}
	}
	return false
}

func (d Draft) validate() error {
	if strings.TrimSpace(d.Name) == "" || strings.TrimSpace(d.Email) == "" {
		return ErrValidation
	}
	return nil
}

// form is the request body for submitting d. Every scalar is sent so edits
// overwrite; an empty created date is left for the server to fill.
func (d Draft) form() client.EmployeeForm {
	f := client.EmployeeForm{
		Name:        strPtr(d.Name),
		Email:       strPtr(d.Email),
		MobileNo:    strPtr(d.MobileNo),
		Designation: strPtr(d.Designation),
		Gender:      strPtr(d.Gender),
		Course:      append([]string(nil), d.Course...),
		Image:       d.Image,
	}
	if strings.TrimSpace(d.CreatedDate) != "" {
		f.CreatedDate = strPtr(d.CreatedDate)
	}
	return f
}

func strPtr(s string) *string { return &s }
