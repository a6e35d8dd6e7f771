package repository

import (
	"context"
	"sync"
	"time"

	"go-identity/internal/model"
)

// MemoryDirectory is an in-memory user directory with the same uniqueness
// and ordering semantics as the Postgres repository. It backs tests that
// need real directory behavior without a database.
type MemoryDirectory struct {
	mu     sync.Mutex
	users  map[string]model.User
	hashes map[string]string
	order  []string

	// Optional failure injection, matched before any state change.
	InsertErr          error
	UpdateLastLoginErr error
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		users:  map[string]model.User{},
		hashes: map[string]string{},
	}
}

func (d *MemoryDirectory) FindByID(_ context.Context, id string) (model.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	u, ok := d.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (d *MemoryDirectory) FindByEmail(_ context.Context, email string) (model.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	u, ok := d.byEmailLocked(email)
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (d *MemoryDirectory) PasswordHashByEmail(_ context.Context, email string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	u, ok := d.byEmailLocked(email)
	if !ok {
		return "", model.ErrUserNotFound
	}
	return d.hashes[u.ID], nil
}

func (d *MemoryDirectory) Insert(_ context.Context, u model.User, passwordHash string) error {
	if d.InsertErr != nil {
		return d.InsertErr
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, taken := d.byEmailLocked(u.Email); taken {
		return model.ErrEmailTaken
	}

	d.users[u.ID] = u
	d.hashes[u.ID] = passwordHash
	d.order = append(d.order, u.ID)
	return nil
}

func (d *MemoryDirectory) Update(_ context.Context, id string, fields model.UserUpdate) (model.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	u, ok := d.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}

	if fields.Email != nil {
		if other, taken := d.byEmailLocked(*fields.Email); taken && other.ID != id {
			return model.User{}, model.ErrEmailTaken
		}
		u.Email = *fields.Email
	}
	if fields.FullName != nil {
		u.FullName = *fields.FullName
	}
	if fields.IsActive != nil {
		u.IsActive = *fields.IsActive
	}
	if fields.Role != nil {
		u.Role = *fields.Role
	}
	u.UpdatedAt = time.Now().UTC()

	d.users[id] = u
	return u, nil
}

func (d *MemoryDirectory) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	if d.UpdateLastLoginErr != nil {
		return d.UpdateLastLoginErr
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	u, ok := d.users[id]
	if !ok {
		return model.ErrUserNotFound
	}
	u.LastLogin = &at
	d.users[id] = u
	return nil
}

func (d *MemoryDirectory) Delete(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.users[id]; !ok {
		return model.ErrUserNotFound
	}

	delete(d.users, id)
	delete(d.hashes, id)
	for i, existing := range d.order {
		if existing == id {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	return nil
}

func (d *MemoryDirectory) List(_ context.Context, filter model.ListFilter) ([]model.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	limit := filter.Limit
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	matched := make([]model.User, 0)
	for _, id := range d.order {
		u := d.users[id]
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		matched = append(matched, u)
	}

	if offset >= len(matched) {
		return []model.User{}, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (d *MemoryDirectory) byEmailLocked(email string) (model.User, bool) {
	for _, u := range d.users {
		if u.Email == email {
			return u, true
		}
	}
	return model.User{}, false
}
