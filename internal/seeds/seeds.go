package seeds

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-yaml"
	"go.uber.org/zap"

	"github.com/EmpoweredVote/meal-tracker/internal/apperr"
	"github.com/EmpoweredVote/meal-tracker/internal/auth"
	"github.com/EmpoweredVote/meal-tracker/internal/meal"
)

//go:embed demo.yaml
var demoData []byte

type Fixture struct {
	Users []UserFixture `yaml:"users"`
}

type UserFixture struct {
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	Meals    []MealFixture `yaml:"meals"`
}

type MealFixture struct {
	Start   string `yaml:"start"`
	Minutes int    `yaml:"minutes"`
}

func Parse(raw []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse seed data: %w", err)
	}
	return &f, nil
}

// SeedAll loads the embedded demo data through the workflows.
func SeedAll(ctx context.Context, users *auth.Service, meals *meal.Service, log *zap.Logger) error {
	f, err := Parse(demoData)
	if err != nil {
		return err
	}
	return Seed(ctx, f, users, meals, log)
}

// Seed creates each fixture user with their meals. Existing usernames are
// skipped, meals included.
func Seed(ctx context.Context, f *Fixture, users *auth.Service, meals *meal.Service, log *zap.Logger) error {
	created := 0
	for _, uf := range f.Users {
		sess, err := users.Register(ctx, auth.RegisterRequest{Username: uf.Username, Password: uf.Password})
		if errors.Is(err, apperr.ErrDuplicateUsername) {
			log.Info("user exists, skipping", zap.String("username", uf.Username))
			continue
		}
		if err != nil {
			return fmt.Errorf("create user %s: %w", uf.Username, err)
		}

		for _, mf := range uf.Meals {
			start, err := time.Parse(time.RFC3339, mf.Start)
			if err != nil {
				return fmt.Errorf("meal for %s: %w", uf.Username, err)
			}
			end := start.Add(time.Duration(mf.Minutes) * time.Minute)
			if _, err := meals.RecordMeal(ctx, sess.User.UserID, start, end); err != nil {
				return fmt.Errorf("record meal for %s: %w", uf.Username, err)
			}
		}
		created++
	}

	log.Info("seeded users", zap.Int("created", created), zap.Int("total", len(f.Users)))
	return nil
}
