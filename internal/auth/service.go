package auth

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/language"

	"github.com/EmpoweredVote/meal-tracker/internal/apperr"
	"github.com/EmpoweredVote/meal-tracker/internal/validation"
)

type TokenIssuer interface {
	Issue(userID int64, username string) (string, error)
}

// Service implements account registration, login and profile management.
type Service struct {
	users  UserStore
	hasher Hasher
	tokens TokenIssuer
	val    *validation.Validator
	log    *zap.Logger

	dummyOnce sync.Once
	dummyHash string
}

func NewService(users UserStore, hasher Hasher, tokens TokenIssuer, val *validation.Validator, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{users: users, hasher: hasher, tokens: tokens, val: val, log: log}
}

func (s *Service) validate(v any) error {
	if s.val == nil {
		return nil
	}
	if fields := s.val.Struct(v, language.English); len(fields) > 0 {
		return apperr.Validation(fields...)
	}
	return nil
}

func (s *Service) Register(ctx context.Context, in RegisterRequest) (*Session, error) {
	if err := s.validate(&in); err != nil {
		return nil, err
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}

	u := &User{Username: in.Username, PasswordHash: hash}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info("user registered", zap.Int64("user_id", u.UserID))

	return s.session(u)
}

// Login answers InvalidCredentials for both an unknown username and a wrong
// password. Unknown usernames still pay for a hash comparison.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	if username == "" || password == "" {
		return nil, apperr.ErrInvalidCredentials
	}

	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			_ = s.hasher.Compare(s.dummy(), password)
			return nil, apperr.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		return nil, apperr.ErrInvalidCredentials
	}
	return s.session(u)
}

// hash reports passwords bcrypt cannot take (over 72 bytes) as a validation
// error.
func (s *Service) hash(password string) (string, error) {
	h, err := s.hasher.Hash(password)
	switch {
	case errors.Is(err, bcrypt.ErrPasswordTooLong):
		return "", apperr.Validation(apperr.FieldError{Field: "password", Message: "password must be at most 72 characters"})
	case err != nil:
		return "", apperr.Wrap(apperr.KindInternal, "hash password", err)
	}
	return h, nil
}

func (s *Service) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("not-a-real-password-1!")
		if err != nil {
			s.log.Warn("dummy hash", zap.Error(err))
		}
		s.dummyHash = h
	})
	return s.dummyHash
}

func (s *Service) session(u *User) (*Session, error) {
	tok, err := s.tokens.Issue(u.UserID, u.Username)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "issue token", err)
	}
	return &Session{Token: tok, User: u}, nil
}

func (s *Service) GetProfile(ctx context.Context, userID int64) (*User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.New(apperr.KindNotFound, "user not found")
	}
	return u, err
}

// UpdateProfile changes the supplied fields only. At least one is required.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, in ProfileRequest) (*User, error) {
	if in.Username == nil && in.Password == nil {
		return nil, apperr.Validation(apperr.FieldError{Message: "at least one of username or password is required"})
	}
	if err := s.validate(&in); err != nil {
		return nil, err
	}

	fields := make(map[string]any, 2)
	if in.Username != nil {
		fields["username"] = *in.Username
	}
	if in.Password != nil {
		hash, err := s.hash(*in.Password)
		if err != nil {
			return nil, err
		}
		fields["password_hash"] = hash
	}

	u, err := s.users.UpdateFields(ctx, userID, fields)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "user not found")
		}
		return nil, err
	}
	return u, nil
}

func (s *Service) UpdatePassword(ctx context.Context, userID int64, in PasswordRequest) error {
	if err := s.validate(&in); err != nil {
		return err
	}

	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.hasher.Compare(u.PasswordHash, in.CurrentPassword); err != nil {
		return apperr.New(apperr.KindInvalidCredentials, "current password is incorrect")
	}

	hash, err := s.hash(in.NewPassword)
	if err != nil {
		return err
	}
	_, err = s.users.UpdateFields(ctx, userID, map[string]any{"password_hash": hash})
	return err
}

func (s *Service) DeleteAccount(ctx context.Context, userID int64) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	s.log.Info("user deleted", zap.Int64("user_id", userID))
	return nil
}
