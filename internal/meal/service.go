package meal

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/EmpoweredVote/meal-tracker/internal/apperr"
)

// DurationMinutes is the meal length rounded up to whole minutes, at least 1.
func DurationMinutes(start, end time.Time) int {
	m := int(math.Ceil(end.Sub(start).Minutes()))
	if m < 1 {
		return 1
	}
	return m
}

// IntervalMinutes is the gap since the previous meal ended, rounded to the
// nearest minute and clamped at 0.
func IntervalMinutes(priorEnd, start time.Time) int {
	m := int(math.Round(start.Sub(priorEnd).Minutes()))
	if m < 0 {
		return 0
	}
	return m
}

type Service struct {
	store Store
	log   *zap.Logger
	now   func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{store: store, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordMeal stores one meal for the user. The interval is measured from the
// user's latest end_time; the lookup and insert run under the user lock.
func (s *Service) RecordMeal(ctx context.Context, userID int64, start, end time.Time) (*Record, error) {
	start, end = start.UTC(), end.UTC()
	if !end.After(start) {
		return nil, apperr.Validation(apperr.FieldError{Field: "end_time", Message: "end time must be after start time"})
	}

	rec := &Record{
		UserID:          userID,
		StartTime:       start,
		EndTime:         end,
		DurationMinutes: DurationMinutes(start, end),
	}

	err := s.store.WithUserLock(ctx, userID, func(tx Store) error {
		prior, err := tx.Latest(ctx, userID)
		if err != nil {
			return err
		}
		if prior != nil {
			rec.IntervalMinutes = IntervalMinutes(prior.EndTime, start)
		}
		return tx.Insert(ctx, rec)
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug("meal recorded",
		zap.Int64("user_id", userID),
		zap.Int64("record_id", rec.RecordID),
		zap.Int("duration_minutes", rec.DurationMinutes),
		zap.Int("interval_minutes", rec.IntervalMinutes),
	)
	out := rec.UTC()
	return &out, nil
}

// GetMealHistory lists the user's meals, newest first. daily, weekly and
// monthly restrict to the last 1, 7 and 30 days; anything else returns all.
func (s *Service) GetMealHistory(ctx context.Context, userID int64, filter Filter) ([]Record, error) {
	var since *time.Time
	if window, ok := filter.Window(); ok {
		t := s.now().UTC().Add(-window)
		since = &t
	}

	recs, err := s.store.History(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	for i := range recs {
		recs[i] = recs[i].UTC()
	}
	return recs, nil
}
