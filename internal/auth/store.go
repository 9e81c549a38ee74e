package auth

import (
	"context"

	"gorm.io/gorm"

	"github.com/EmpoweredVote/meal-tracker/internal/apperr"
	"github.com/EmpoweredVote/meal-tracker/internal/db"
)

type UserStore interface {
	Create(ctx context.Context, u *User) error
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	UpdateFields(ctx context.Context, id int64, fields map[string]any) (*User, error)
	Delete(ctx context.Context, id int64) error
}

type GormUserStore struct {
	db *gorm.DB
}

func NewGormUserStore(d *gorm.DB) *GormUserStore {
	return &GormUserStore{db: d}
}

func (s *GormUserStore) Create(ctx context.Context, u *User) error {
	return db.Classify(s.db.WithContext(ctx).Create(u).Error)
}

func (s *GormUserStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, db.Classify(err)
	}
	return &u, nil
}

func (s *GormUserStore) FindByID(ctx context.Context, id int64) (*User, error) {
	var u User
	if err := s.db.WithContext(ctx).Where("user_id = ?", id).First(&u).Error; err != nil {
		return nil, db.Classify(err)
	}
	return &u, nil
}

// UpdateFields sets only the given columns and returns the updated row.
func (s *GormUserStore) UpdateFields(ctx context.Context, id int64, fields map[string]any) (*User, error) {
	res := s.db.WithContext(ctx).Model(&User{}).Where("user_id = ?", id).Updates(fields)
	if res.Error != nil {
		return nil, db.Classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.New(apperr.KindNotFound, "user not found")
	}
	return s.FindByID(ctx, id)
}

// Delete removes the user; meal records go with it through ON DELETE CASCADE.
func (s *GormUserStore) Delete(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Where("user_id = ?", id).Delete(&User{})
	if res.Error != nil {
		return db.Classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.KindNotFound, "user not found")
	}
	return nil
}
