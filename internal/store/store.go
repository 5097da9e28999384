// Package store holds the Record Store: employee documents and login users.
package store

import (
	"context"
	"errors"

	"employee-management/internal/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

// EmployeeStore persists employee records. Implementations serialize writes
// to the same id; concurrent writers get last-write-wins.
type EmployeeStore interface {
	// Insert assigns the identifier and returns the stored record.
	Insert(ctx context.Context, e models.Employee) (models.Employee, error)
	FindAll(ctx context.Context) ([]models.Employee, error)
	FindByID(ctx context.Context, id string) (models.Employee, error)
	// Update overwrites the set scalar fields and adds u.Course to the
	// stored course set. Unknown ids return ErrNotFound.
	Update(ctx context.Context, id string, u models.EmployeeUpdate) (models.Employee, error)
	// PullCourses removes labels from the course set. Unknown ids are a no-op.
	PullCourses(ctx context.Context, id string, labels []string) error
	// Delete removes the record and returns it so callers can release assets.
	Delete(ctx context.Context, id string) (models.Employee, error)
	Ping(ctx context.Context) error
}

type UserStore interface {
	FindUserByEmail(ctx context.Context, email string) (models.User, error)
	InsertUser(ctx context.Context, u models.User) (models.User, error)
}

// Store is everything the API layer needs from persistence.
type Store interface {
	EmployeeStore
	UserStore
	Close(ctx context.Context) error
}
