package meal

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/EmpoweredVote/meal-tracker/internal/apperr"
)

// MemoryStore keeps records in process memory. Insert enforces the same row
// constraints as the meal_records table, including the foreign key to users
// removed through DeleteUser.
type MemoryStore struct {
	mu      sync.Mutex
	nextID  int64
	records map[int64][]Record
	locks   map[int64]*sync.Mutex
	deleted map[int64]bool
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[int64][]Record),
		locks:   make(map[int64]*sync.Mutex),
		deleted: make(map[int64]bool),
		now:     time.Now,
	}
}

func (s *MemoryStore) userLock(userID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	return l
}

func (s *MemoryStore) WithUserLock(_ context.Context, userID int64, fn func(Store) error) error {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()
	return fn(s)
}

func (s *MemoryStore) Latest(_ context.Context, userID int64) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var latest *Record
	for i := range s.records[userID] {
		r := s.records[userID][i]
		if latest == nil || r.EndTime.After(latest.EndTime) {
			latest = &r
		}
	}
	return latest, nil
}

func (s *MemoryStore) Insert(_ context.Context, r *Record) error {
	if !r.EndTime.After(r.StartTime) || r.DurationMinutes < 1 || r.IntervalMinutes < 0 {
		return apperr.New(apperr.KindIntegrity, "record violates a storage constraint")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.deleted[r.UserID] {
		return apperr.New(apperr.KindNotFound, "user not found")
	}
	s.nextID++
	r.RecordID = s.nextID
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now().UTC()
	}
	s.records[r.UserID] = append(s.records[r.UserID], *r)
	return nil
}

func (s *MemoryStore) History(_ context.Context, userID int64, since *time.Time) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Record, 0, len(s.records[userID]))
	for _, r := range s.records[userID] {
		if since != nil && r.StartTime.Before(*since) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out, nil
}

// DeleteUser drops every record of the user and refuses later inserts for it.
func (s *MemoryStore) DeleteUser(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted[userID] = true
	delete(s.records, userID)
	delete(s.locks, userID)
}
