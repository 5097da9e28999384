package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"employee-management/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var employeeCols = []string{"id", "name", "email", "mobile_no", "designation", "gender", "course", "created_date", "image"}

func newMockStore(t *testing.T) (pgxmock.PgxPoolIface, *Postgres) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	return mock, NewPostgres(mock)
}

func TestPostgres_Insert(t *testing.T) {
	mock, s := newMockStore(t)
	created := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO employees")).
		WithArgs("Meera", "meera@x", "99", "Sales", "female", []string{"BSc"}, pgxmock.AnyArg(), "").
		WillReturnRows(pgxmock.NewRows(employeeCols).
			AddRow("0b6f", "Meera", "meera@x", "99", "Sales", "female", []string{"BSc"}, &created, ""))

	e, err := s.Insert(context.Background(), models.Employee{
		Name: "Meera", Email: "meera@x", MobileNo: "99",
		Designation: models.DesignationSales, Gender: models.GenderFemale,
		Course: []string{"BSc"}, CreatedDate: created,
	})
	require.NoError(t, err)

	assert.Equal(t, "0b6f", e.ID)
	assert.Equal(t, models.DesignationSales, e.Designation)
	assert.Equal(t, created, e.CreatedDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_FindAll(t *testing.T) {
	mock, s := newMockStore(t)
	created := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM employees ORDER BY inserted_at")).
		WillReturnRows(pgxmock.NewRows(employeeCols).
			AddRow("1", "A", "a@x", "", "", "", []string{"MCA"}, &created, "").
			AddRow("2", "B", "b@x", "", "HR", "male", []string{}, &created, "/uploads/b.png"))

	list, err := s.FindAll(context.Background())
	require.NoError(t, err)

	require.Len(t, list, 2)
	assert.Equal(t, "A", list[0].Name)
	assert.Equal(t, "/uploads/b.png", list[1].Image)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_FindByID_NotFound(t *testing.T) {
	mock, s := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id::text=$1")).
		WithArgs("nope").
		WillReturnRows(pgxmock.NewRows(employeeCols))

	_, err := s.FindByID(context.Background(), "nope")

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Update(t *testing.T) {
	mock, s := newMockStore(t)
	created := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE employees SET name=$1, course=course || ARRAY(")).
		WithArgs("New", []string{"BCA"}, "1").
		WillReturnRows(pgxmock.NewRows(employeeCols).
			AddRow("1", "New", "a@x", "", "", "", []string{"MCA", "BCA"}, &created, ""))

	e, err := s.Update(context.Background(), "1", models.EmployeeUpdate{Name: strPtr(" New "), Course: []string{"BCA"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"MCA", "BCA"}, e.Course)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Update_NotFound(t *testing.T) {
	mock, s := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE employees SET email=$1 WHERE id::text=$2")).
		WithArgs("e@x", "missing").
		WillReturnRows(pgxmock.NewRows(employeeCols))

	_, err := s.Update(context.Background(), "missing", models.EmployeeUpdate{Email: strPtr("e@x")})

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_PullCourses(t *testing.T) {
	mock, s := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE employees SET course = ARRAY(")).
		WithArgs("1", []string{"MCA"}).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	// zero rows affected is still success
	require.NoError(t, s.PullCourses(context.Background(), "1", []string{"MCA"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Delete(t *testing.T) {
	mock, s := newMockStore(t)
	created := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM employees")).
		WithArgs("1").
		WillReturnRows(pgxmock.NewRows(employeeCols).
			AddRow("1", "A", "a@x", "", "", "", []string{}, &created, "/uploads/a.png"))
	mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM employees")).
		WithArgs("2").
		WillReturnRows(pgxmock.NewRows(employeeCols))

	e, err := s.Delete(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/a.png", e.Image)

	_, err = s.Delete(context.Background(), "2")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_InsertUser_Duplicate(t *testing.T) {
	mock, s := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("admin@gmail.com", "hash").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	_, err := s.InsertUser(context.Background(), models.User{Email: " Admin@gmail.com", PasswordHash: "hash"})

	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_FindUserByEmail(t *testing.T) {
	mock, s := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email=$1")).
		WithArgs("admin@gmail.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "password_hash"}).AddRow("u1", "admin@gmail.com", "hash"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email=$1")).
		WithArgs("down@gmail.com").
		WillReturnError(errors.New("conn reset"))

	u, err := s.FindUserByEmail(context.Background(), "admin@gmail.com")
	require.NoError(t, err)
	assert.Equal(t, "hash", u.PasswordHash)

	_, err = s.FindUserByEmail(context.Background(), "down@gmail.com")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
