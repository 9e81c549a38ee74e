package meal

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/EmpoweredVote/meal-tracker/internal/db"
)

type Store interface {
	// WithUserLock runs fn with the user's records locked against concurrent
	// writers. fn must use the Store it is given.
	WithUserLock(ctx context.Context, userID int64, fn func(Store) error) error
	// Latest returns the record with the greatest end_time, or nil.
	Latest(ctx context.Context, userID int64) (*Record, error)
	Insert(ctx context.Context, r *Record) error
	// History returns records newest start_time first. A nil since means all.
	History(ctx context.Context, userID int64, since *time.Time) ([]Record, error)
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(d *gorm.DB) *GormStore {
	return &GormStore{db: d}
}

// WithUserLock holds pg_advisory_xact_lock(user_id) for the length of one
// transaction.
func (s *GormStore) WithUserLock(ctx context.Context, userID int64, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", userID).Error; err != nil {
			return db.Classify(err)
		}
		return fn(&GormStore{db: tx})
	})
}

func (s *GormStore) Latest(ctx context.Context, userID int64) (*Record, error) {
	var recs []Record
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("end_time DESC").
		Limit(1).
		Find(&recs).Error
	if err != nil {
		return nil, db.Classify(err)
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return &recs[0], nil
}

func (s *GormStore) Insert(ctx context.Context, r *Record) error {
	return db.Classify(s.db.WithContext(ctx).Create(r).Error)
}

func (s *GormStore) History(ctx context.Context, userID int64, since *time.Time) ([]Record, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if since != nil {
		q = q.Where("start_time >= ?", *since)
	}

	recs := make([]Record, 0)
	if err := q.Order("start_time DESC").Find(&recs).Error; err != nil {
		return nil, db.Classify(err)
	}
	return recs, nil
}
