package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"employee-management/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of *pgxpool.Pool the postgres store uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS employees (
	id           uuid PRIMARY KEY DEFAULT gen_random_uuid(),
	name         text NOT NULL,
	email        text NOT NULL,
	mobile_no    text NOT NULL DEFAULT '',
	designation  text NOT NULL DEFAULT '',
	gender       text NOT NULL DEFAULT '',
	course       text[] NOT NULL DEFAULT '{}',
	created_date timestamptz,
	image        text NOT NULL DEFAULT '',
	inserted_at  timestamptz NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS users (
	id            uuid PRIMARY KEY DEFAULT gen_random_uuid(),
	email         text NOT NULL UNIQUE,
	password_hash text NOT NULL
);`

const employeeColumns = `id::text, name, email, mobile_no, designation, gender, course, created_date, image`

type Postgres struct {
	db DB
}

func NewPostgres(db DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the tables if they do not exist yet.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func scanEmployee(row pgx.Row) (models.Employee, error) {
	var (
		e           models.Employee
		designation string
		gender      string
		created     *time.Time
	)
	if err := row.Scan(&e.ID, &e.Name, &e.Email, &e.MobileNo, &designation, &gender, &e.Course, &created, &e.Image); err != nil {
		return models.Employee{}, err
	}
	e.Designation = models.Designation(designation)
	e.Gender = models.Gender(gender)
	if created != nil {
		e.CreatedDate = created.UTC()
	}
	if e.Course == nil {
		e.Course = []string{}
	}
	return e, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func (p *Postgres) Insert(ctx context.Context, e models.Employee) (models.Employee, error) {
	course := e.Course
	if course == nil {
		course = []string{}
	}
	out, err := scanEmployee(p.db.QueryRow(ctx, `
		INSERT INTO employees (name, email, mobile_no, designation, gender, course, created_date, image)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+employeeColumns,
		e.Name, e.Email, e.MobileNo, string(e.Designation), string(e.Gender), course, nullableTime(e.CreatedDate), e.Image))
	if err != nil {
		return models.Employee{}, fmt.Errorf("insert employee: %w", parsePgErr(err))
	}
	return out, nil
}

func (p *Postgres) FindAll(ctx context.Context) ([]models.Employee, error) {
	rows, err := p.db.Query(ctx, `SELECT `+employeeColumns+` FROM employees ORDER BY inserted_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	list := make([]models.Employee, 0)
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		list = append(list, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	return list, nil
}

func (p *Postgres) FindByID(ctx context.Context, id string) (models.Employee, error) {
	e, err := scanEmployee(p.db.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id::text=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Employee{}, ErrNotFound
	}
	if err != nil {
		return models.Employee{}, fmt.Errorf("find employee: %w", err)
	}
	return e, nil
}

func (p *Postgres) Update(ctx context.Context, id string, u models.EmployeeUpdate) (models.Employee, error) {
	updates := []string{}
	args := []any{}
	argIdx := 1

	set := func(column string, v any) {
		updates = append(updates, fmt.Sprintf("%s=$%d", column, argIdx))
		args = append(args, v)
		argIdx++
	}

	if u.Name != nil {
		set("name", strings.TrimSpace(*u.Name))
	}
	if u.Email != nil {
		set("email", strings.TrimSpace(*u.Email))
	}
	if u.MobileNo != nil {
		set("mobile_no", *u.MobileNo)
	}
	if u.Designation != nil {
		set("designation", string(*u.Designation))
	}
	if u.Gender != nil {
		set("gender", string(*u.Gender))
	}
	if u.CreatedDate != nil {
		set("created_date", *u.CreatedDate)
	}
	if u.Image != nil {
		set("image", *u.Image)
	}
	if len(u.Course) > 0 {
		// union, keeping existing order and appending new labels
		updates = append(updates, fmt.Sprintf(
			"course=course || ARRAY(SELECT l FROM unnest($%d::text[]) l WHERE NOT l = ANY(course))", argIdx))
		args = append(args, u.Course)
		argIdx++
	}

	if len(updates) == 0 {
		return p.FindByID(ctx, id)
	}

	query := "UPDATE employees SET " + strings.Join(updates, ", ") +
		" WHERE id::text=$" + fmt.Sprintf("%d", argIdx) + " RETURNING " + employeeColumns
	args = append(args, id)

	e, err := scanEmployee(p.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Employee{}, ErrNotFound
	}
	if err != nil {
		return models.Employee{}, fmt.Errorf("update employee: %w", parsePgErr(err))
	}
	return e, nil
}

func (p *Postgres) PullCourses(ctx context.Context, id string, labels []string) error {
	if labels == nil {
		labels = []string{}
	}
	_, err := p.db.Exec(ctx, `
		UPDATE employees SET course = ARRAY(SELECT c FROM unnest(course) c WHERE NOT c = ANY($2::text[]))
		WHERE id::text=$1`, id, labels)
	if err != nil {
		return fmt.Errorf("pull courses: %w", err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, id string) (models.Employee, error) {
	e, err := scanEmployee(p.db.QueryRow(ctx, `DELETE FROM employees WHERE id::text=$1 RETURNING `+employeeColumns, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Employee{}, ErrNotFound
	}
	if err != nil {
		return models.Employee{}, fmt.Errorf("delete employee: %w", err)
	}
	return e, nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.Ping(ctx)
}

func (p *Postgres) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := p.db.QueryRow(ctx,
		`SELECT id::text, email, password_hash FROM users WHERE email=$1`,
		strings.ToLower(strings.TrimSpace(email))).Scan(&u.ID, &u.Email, &u.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

func (p *Postgres) InsertUser(ctx context.Context, u models.User) (models.User, error) {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	err := p.db.QueryRow(ctx,
		`INSERT INTO users (email, password_hash) VALUES ($1, $2) RETURNING id::text`,
		u.Email, u.PasswordHash).Scan(&u.ID)
	if err != nil {
		return models.User{}, fmt.Errorf("insert user: %w", parsePgErr(err))
	}
	return u, nil
}

func (p *Postgres) Close(context.Context) error {
	p.db.Close()
	return nil
}

// parsePgErr maps constraint violations onto store sentinels.
func parsePgErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}
