package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestEmployee_MarshalJSON(t *testing.T) {
	e := Employee{
		ID:          "64b7f0c2a1",
		Name:        "Asha",
		Email:       "asha@example.com",
		MobileNo:    "9876543210",
		Designation: DesignationHR,
		Gender:      GenderFemale,
		CreatedDate: time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC),
		Image:       "/uploads/1-a.png",
	}

	b, err := json.Marshal(e)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"_id":"64b7f0c2a1","name":"Asha","email":"asha@example.com","mobile_no":"9876543210",
		"designation":"HR","gender":"female","course":[],
		"created_date":"2024-03-05T10:30:00.000Z","image":"/uploads/1-a.png"
	}`, string(b))

	var back Employee
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, e.CreatedDate.Equal(back.CreatedDate))
	assert.Equal(t, []string{}, back.Course)
}

func TestEmployee_Validate(t *testing.T) {
	tests := []struct {
		desc    string
		in      Employee
		course  []string
		wantErr bool
	}{
		{"ok with duplicates collapsed", Employee{Name: " A ", Email: "a@x", Course: []string{"MCA", "MCA", "BCA"}}, []string{"MCA", "BCA"}, false},
		{"missing name", Employee{Email: "a@x"}, nil, true},
		{"missing email", Employee{Name: "A"}, nil, true},
		{"bad designation", Employee{Name: "A", Email: "a@x", Designation: "CEO"}, nil, true},
		{"bad gender", Employee{Name: "A", Email: "a@x", Gender: "robot"}, nil, true},
		{"bad course", Employee{Name: "A", Email: "a@x", Course: []string{"PhD"}}, nil, true},
	}

	for i, tc := range tests {
		err := tc.in.Validate()

		if tc.wantErr {
			assert.Error(t, err, "TEST[%d], failed.\n%s", i, tc.desc)
			continue
		}

		assert.NoError(t, err, "TEST[%d], failed.\n%s", i, tc.desc)
		assert.Equal(t, tc.course, tc.in.Course, "TEST[%d], failed.\n%s", i, tc.desc)
		assert.Equal(t, "A", tc.in.Name, "TEST[%d], failed.\n%s", i, tc.desc)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-01-31")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDate("2024-01-31T12:00:00.000Z")
	require.NoError(t, err)
	assert.Equal(t, 12, d.Hour())

	_, err = ParseDate("31/01/2024")
	assert.Error(t, err)
}

func TestEmployeeUpdate_Apply(t *testing.T) {
	e := Employee{Name: "A", Email: "a@x", Course: []string{"MCA", "BCA"}, Image: "/uploads/old.png"}

	u := EmployeeUpdate{Name: strPtr("B"), Course: []string{"BCA", "BSc"}}
	require.NoError(t, u.Validate())
	u.Apply(&e)

	assert.Equal(t, "B", e.Name)
	assert.Equal(t, "a@x", e.Email)
	assert.Equal(t, []string{"MCA", "BCA", "BSc"}, e.Course)
	assert.Equal(t, "/uploads/old.png", e.Image)
	assert.False(t, u.Empty())
	assert.True(t, EmployeeUpdate{}.Empty())
}

func TestEmployeeUpdate_Validate(t *testing.T) {
	empty := ""
	bad := Designation("CEO")

	assert.Error(t, (&EmployeeUpdate{Name: &empty}).Validate())
	assert.Error(t, (&EmployeeUpdate{Email: &empty}).Validate())
	assert.Error(t, (&EmployeeUpdate{Designation: &bad}).Validate())
	assert.Error(t, (&EmployeeUpdate{Course: []string{"MBA"}}).Validate())
}

func TestRemoveCourses(t *testing.T) {
	assert.Equal(t, []string{"BCA"}, RemoveCourses([]string{"MCA", "BCA"}, []string{"MCA", "BSc"}))
	assert.Equal(t, []string{}, RemoveCourses(nil, []string{"MCA"}))
}
