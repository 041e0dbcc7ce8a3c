package repository

import (
	"context"
	"sync"

	"github.com/Vivehasrinivasan/Buddy-Sign-new/internal/model"
)

// MemoryStore is an in-process CredentialStore for development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	byEmail map[string]model.User
	byID    map[string]string // id -> email
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byEmail: make(map[string]model.User),
		byID:    make(map[string]string),
	}
}

// GetByEmail returns a copy of the record stored under email.
func (s *MemoryStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byEmail[email]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return cloneUser(u), nil
}

// GetByID resolves id through the secondary index.
func (s *MemoryStore) GetByID(_ context.Context, id string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	email, ok := s.byID[id]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return cloneUser(s.byEmail[email]), nil
}

// Create inserts u; the email must be unused.
func (s *MemoryStore) Create(_ context.Context, u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[u.Email]; ok {
		return ErrEmailExists
	}
	s.byEmail[u.Email] = cloneUser(u)
	s.byID[u.ID] = u.Email
	return nil
}

// Update applies patch to the record stored under email.
func (s *MemoryStore) Update(_ context.Context, email string, patch model.UserPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byEmail[email]
	if !ok {
		return ErrNotFound
	}
	patch.Apply(&u)
	s.byEmail[email] = u
	return nil
}

// Len reports the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byEmail)
}

// cloneUser detaches slices and pointers so callers cannot mutate stored state.
func cloneUser(u model.User) model.User {
	if u.Children != nil {
		children := make([]model.Child, len(u.Children))
		copy(children, u.Children)
		u.Children = children
	}
	if u.Points != nil {
		p := *u.Points
		u.Points = &p
	}
	if u.IsParent != nil {
		b := *u.IsParent
		u.IsParent = &b
	}
	if u.LastLogin != nil {
		t := *u.LastLogin
		u.LastLogin = &t
	}
	return u
}
