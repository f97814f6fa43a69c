// Package users keeps the registered accounts for this store's terminal.
package users

import (
	"errors"
	"strings"
	"sync"
	"time"

	"medstore/m/domain"
)

var (
	ErrEmailTaken = errors.New("email already exists")
	ErrNotFound   = errors.New("user not found")
)

// Store holds registered users keyed by lowercased email.
type Store struct {
	mu      sync.Mutex
	byEmail map[string]domain.User
	byID    map[int64]string
	nextID  int64
	now     func() time.Time
}

// NewStore builds an empty user store.
func NewStore() *Store {
	return NewStoreWithClock(time.Now)
}

// NewStoreWithClock builds a Store with an injected time source.
func NewStoreWithClock(now func() time.Time) *Store {
	return &Store{
		byEmail: make(map[string]domain.User),
		byID:    make(map[int64]string),
		now:     now,
	}
}

// Create registers a new user. The password is expected to arrive already
// hashed. Emails are unique, compared case-insensitively.
func (s *Store) Create(username, email, passwordHash, role string) (domain.User, error) {
	email = strings.ToLower(email)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[email]; exists {
		return domain.User{}, ErrEmailTaken
	}

	s.nextID++
	user := domain.User{
		ID:        s.nextID,
		Username:  username,
		Email:     email,
		Password:  passwordHash,
		Role:      role,
		CreatedAt: s.now().Format(time.RFC3339),
	}
	s.byEmail[email] = user
	s.byID[user.ID] = email
	return user, nil
}

// GetByEmail looks a user up by email, case-insensitively.
func (s *Store) GetByEmail(email string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return domain.User{}, ErrNotFound
	}
	return user, nil
}

// UpdatePassword replaces the stored hash for the given user id.
func (s *Store) UpdatePassword(id int64, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	user := s.byEmail[email]
	user.Password = passwordHash
	s.byEmail[email] = user
	return nil
}
