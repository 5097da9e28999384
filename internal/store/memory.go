package store

import (
	"context"
	"strings"
	"sync"

	"employee-management/internal/models"

	"github.com/google/uuid"
)

// Memory is an in-process Store. Records are returned in insertion order.
type Memory struct {
	mu        sync.RWMutex
	employees map[string]models.Employee
	order     []string
	users     map[string]models.User
}

func NewMemory() *Memory {
	return &Memory{
		employees: make(map[string]models.Employee),
		users:     make(map[string]models.User),
	}
}

func clone(e models.Employee) models.Employee {
	e.Course = append([]string{}, e.Course...)
	return e
}

func (m *Memory) Insert(_ context.Context, e models.Employee) (models.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e.ID = uuid.NewString()
	e = clone(e)
	m.employees[e.ID] = e
	m.order = append(m.order, e.ID)
	return clone(e), nil
}

func (m *Memory) FindAll(_ context.Context) ([]models.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Employee, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, clone(m.employees[id]))
	}
	return out, nil
}

func (m *Memory) FindByID(_ context.Context, id string) (models.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.employees[id]
	if !ok {
		return models.Employee{}, ErrNotFound
	}
	return clone(e), nil
}

func (m *Memory) Update(_ context.Context, id string, u models.EmployeeUpdate) (models.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.employees[id]
	if !ok {
		return models.Employee{}, ErrNotFound
	}
	e = clone(e)
	u.Apply(&e)
	m.employees[id] = e
	return clone(e), nil
}

func (m *Memory) PullCourses(_ context.Context, id string, labels []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.employees[id]
	if !ok {
		return nil
	}
	e.Course = models.RemoveCourses(e.Course, labels)
	m.employees[id] = e
	return nil
}

func (m *Memory) Delete(_ context.Context, id string) (models.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.employees[id]
	if !ok {
		return models.Employee{}, ErrNotFound
	}
	delete(m.employees, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return e, nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) FindUserByEmail(_ context.Context, email string) (models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[strings.ToLower(email)]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return u, nil
}

func (m *Memory) InsertUser(_ context.Context, u models.User) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(u.Email)
	if _, ok := m.users[key]; ok {
		return models.User{}, ErrDuplicate
	}
	u.ID = uuid.NewString()
	m.users[key] = u
	return u, nil
}

func (m *Memory) Close(context.Context) error { return nil }
