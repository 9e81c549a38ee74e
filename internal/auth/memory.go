package auth

import (
	"context"
	"sync"
	"time"

	"github.com/EmpoweredVote/meal-tracker/internal/apperr"
)

// MemoryUserStore keeps users in process memory. It backs STORAGE=memory and
// the service tests.
type MemoryUserStore struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]User
	// OnDelete runs after a user is removed, standing in for ON DELETE CASCADE.
	OnDelete func(userID int64)
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{byID: make(map[int64]User)}
}

func (s *MemoryUserStore) usernameTaken(username string, except int64) bool {
	for id, u := range s.byID {
		if id != except && u.Username == username {
			return true
		}
	}
	return false
}

func (s *MemoryUserStore) Create(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.usernameTaken(u.Username, 0) {
		return apperr.ErrDuplicateUsername
	}
	s.nextID++
	u.UserID = s.nextID
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	s.byID[u.UserID] = *u
	return nil
}

func (s *MemoryUserStore) FindByUsername(_ context.Context, username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.byID {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, apperr.New(apperr.KindNotFound, "not found")
}

func (s *MemoryUserStore) FindByID(_ context.Context, id int64) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "not found")
	}
	return &u, nil
}

func (s *MemoryUserStore) UpdateFields(_ context.Context, id int64, fields map[string]any) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "user not found")
	}
	if name, ok := fields["username"].(string); ok {
		if s.usernameTaken(name, id) {
			return nil, apperr.ErrDuplicateUsername
		}
		u.Username = name
	}
	if hash, ok := fields["password_hash"].(string); ok {
		u.PasswordHash = hash
	}
	s.byID[id] = u
	return &u, nil
}

func (s *MemoryUserStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	if _, ok := s.byID[id]; !ok {
		s.mu.Unlock()
		return apperr.New(apperr.KindNotFound, "user not found")
	}
	delete(s.byID, id)
	onDelete := s.OnDelete
	s.mu.Unlock()

	if onDelete != nil {
		onDelete(id)
	}
	return nil
}
