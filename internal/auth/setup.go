package auth

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/EmpoweredVote/meal-tracker/internal/config"
	"github.com/EmpoweredVote/meal-tracker/internal/middleware"
	"github.com/EmpoweredVote/meal-tracker/internal/token"
	"github.com/EmpoweredVote/meal-tracker/internal/validation"
)

type Module struct {
	Service *Service
	Handler *Handler
	Tokens  *token.Service
	limiter *middleware.RateLimiter
}

// Init wires the auth workflow over the given store.
func Init(cfg *config.Config, users UserStore, val *validation.Validator, log *zap.Logger) *Module {
	log = log.Named("auth")
	tokens := token.NewService(cfg.JWTSecret, cfg.TokenExpiry)
	svc := NewService(users, NewBcryptHasher(cfg.BcryptCost), tokens, val, log)

	return &Module{
		Service: svc,
		Handler: NewHandler(svc, val, log),
		Tokens:  tokens,
		limiter: middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
	}
}

func (m *Module) Routes() http.Handler {
	return SetupRoutes(m.Handler, m.Tokens, m.limiter.Handler)
}
