package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aussiebroadwan/hotellisting/internal/auth/domain"
	"github.com/aussiebroadwan/hotellisting/internal/auth/store"
	"github.com/aussiebroadwan/hotellisting/pkg/cryptox"
	"github.com/aussiebroadwan/hotellisting/pkg/slogx"
)

var (
	ErrBootstrapDisabled     = errors.New("bootstrap disabled")
	ErrBootstrapAlready      = errors.New("system already bootstrapped")
	ErrBootstrapUnauthorized = errors.New("unauthorized bootstrap attempt")
)

// BootstrapService creates the first Administrator on an empty store.
type BootstrapService struct {
	Store store.Store
	Auth  *AuthService
	Token string // Pre-configured bootstrap token; empty disables bootstrap
}

func (s *BootstrapService) IsBootstrapped(ctx context.Context) (bool, error) {
	empty, err := s.Store.Principals().IsEmpty(ctx)
	if err != nil {
		return false, err
	}
	return !empty, nil
}

func (s *BootstrapService) Bootstrap(
	ctx context.Context,
	token string,
	req domain.BootstrapData,
) ([]domain.ValidationError, error) {
	l := slogx.FromContext(ctx).With(slog.String("op", "bootstrap"))

	if s.Token == "" {
		return nil, ErrBootstrapDisabled
	}

	bootstrapped, err := s.IsBootstrapped(ctx)
	if err != nil {
		return nil, err
	}
	if bootstrapped {
		l.Warn("attempted bootstrap on already-bootstrapped system")
		return nil, ErrBootstrapAlready
	}

	if !cryptox.ConstantTimeEqual(token, s.Token) {
		l.Warn("unauthorized bootstrap attempt")
		return nil, ErrBootstrapUnauthorized
	}

	errs, err := s.Auth.Register(ctx, req.Admin, domain.RoleAdministrator)
	if err != nil || len(errs) > 0 {
		return errs, err
	}

	l.Info("successfully bootstrapped system", slog.String("email", req.Admin.Email))
	return nil, nil
}
