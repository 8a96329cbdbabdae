package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/therealutkarshpriyadarshi/tasktracker/internal/errs"
	"github.com/therealutkarshpriyadarshi/tasktracker/pkg/models"
)

// MemoryUserStore is an in-process identity store for development and tests
type MemoryUserStore struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]*models.Identity
	byName map[string]int64
	now    func() time.Time
}

// NewMemoryUserStore creates an empty identity store
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		byID:   make(map[int64]*models.Identity),
		byName: make(map[string]int64),
		now:    time.Now,
	}
}

// Create inserts u, assigning ID and DateJoined
func (s *MemoryUserStore) Create(_ context.Context, u *models.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byName[u.Username]; ok {
		return errs.ErrAlreadyExists
	}

	s.nextID++
	u.ID = s.nextID
	u.DateJoined = s.now().UTC()

	cp := *u
	s.byID[u.ID] = &cp
	s.byName[u.Username] = u.ID
	return nil
}

// GetByID returns a copy of the identity with the given ID
func (s *MemoryUserStore) GetByID(_ context.Context, id int64) (*models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// GetByUsername returns a copy of the identity with the given username
func (s *MemoryUserStore) GetByUsername(ctx context.Context, username string) (*models.Identity, error) {
	s.mu.RLock()
	id, ok := s.byName[username]
	s.mu.RUnlock()

	if !ok {
		return nil, errs.ErrNotFound
	}
	return s.GetByID(ctx, id)
}

// List returns all identities ordered by ID
func (s *MemoryUserStore) List(_ context.Context) ([]*models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Identity, 0, len(s.byID))
	for _, u := range s.byID {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// UpdateProfile stores the profile fields of u
func (s *MemoryUserStore) UpdateProfile(_ context.Context, u *models.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.byID[u.ID]
	if !ok {
		return errs.ErrNotFound
	}
	cur.FirstName = u.FirstName
	cur.LastName = u.LastName
	cur.Email = u.Email
	return nil
}

// SetAdmin grants or revokes administrator rights
func (s *MemoryUserStore) SetAdmin(_ context.Context, username string, admin bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byName[username]
	if !ok {
		return errs.ErrNotFound
	}
	s.byID[id].IsAdmin = admin
	return nil
}

// MemoryTaskStore is an in-process task store for development and tests
type MemoryTaskStore struct {
	mu     sync.RWMutex
	nextID int64
	tasks  map[int64]*models.Task
	now    func() time.Time
}

// NewMemoryTaskStore creates an empty task store
func NewMemoryTaskStore() *MemoryTaskStore {
	return &MemoryTaskStore{
		tasks: make(map[int64]*models.Task),
		now:   time.Now,
	}
}

// Create inserts t, assigning ID and timestamps
func (s *MemoryTaskStore) Create(_ context.Context, t *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	now := s.now().UTC()
	t.ID = s.nextID
	t.CreatedAt = now
	t.UpdatedAt = now

	cp := *t
	s.tasks[t.ID] = &cp
	return nil
}

// Get returns a copy of the task with the given ID
func (s *MemoryTaskStore) Get(_ context.Context, id int64) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

// List returns one page of matching tasks ordered by ID and the total match count
func (s *MemoryTaskStore) List(_ context.Context, filter models.TaskFilter, limit, offset int) ([]*models.Task, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*models.Task, 0)
	for _, t := range s.tasks {
		if filter.Matches(t) {
			matched = append(matched, t)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := len(matched)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	page := make([]*models.Task, 0, end-offset)
	for _, t := range matched[offset:end] {
		cp := *t
		page = append(page, &cp)
	}
	return page, total, nil
}

// Update overwrites the mutable fields of t
func (s *MemoryTaskStore) Update(_ context.Context, t *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.tasks[t.ID]
	if !ok {
		return errs.ErrNotFound
	}
	cur.Title = t.Title
	cur.Description = t.Description
	cur.Status = t.Status
	cur.UpdatedAt = s.now().UTC()
	t.UpdatedAt = cur.UpdatedAt
	return nil
}

// Delete removes a task
func (s *MemoryTaskStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return errs.ErrNotFound
	}
	delete(s.tasks, id)
	return nil
}

// MemoryBlacklist is an in-process refresh token blacklist
type MemoryBlacklist struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

// NewMemoryBlacklist creates an empty blacklist
func NewMemoryBlacklist() *MemoryBlacklist {
	return &MemoryBlacklist{entries: make(map[string]time.Time)}
}

// Add blacklists jti; a second Add of the same jti yields errs.ErrTokenRevoked
func (b *MemoryBlacklist) Add(_ context.Context, jti string, expiresAt time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.entries[jti]; ok {
		return errs.ErrTokenRevoked
	}
	b.entries[jti] = expiresAt
	return nil
}

// Contains reports whether jti has been blacklisted
func (b *MemoryBlacklist) Contains(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, ok := b.entries[jti]
	return ok, nil
}

// PurgeExpired drops entries whose token expired before the given instant
func (b *MemoryBlacklist) PurgeExpired(_ context.Context, before time.Time) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var n int64
	for jti, exp := range b.entries {
		if exp.Before(before) {
			delete(b.entries, jti)
			n++
		}
	}
	return n, nil
}
