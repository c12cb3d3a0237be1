package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/hotellisting/internal/auth/domain"
	"github.com/aussiebroadwan/hotellisting/internal/auth/store"
	"github.com/aussiebroadwan/hotellisting/pkg/cryptox"
	"github.com/aussiebroadwan/hotellisting/pkg/idx"
	"github.com/aussiebroadwan/hotellisting/pkg/jwtx"
	"github.com/aussiebroadwan/hotellisting/pkg/slogx"
)

var ErrInvalidRole = errors.New("service: unknown role")

// dummyHash is verified against when the email is unknown so that both
// login failures cost the same.
var dummyHash = sync.OnceValue(func() string {
	return newDummyHash(cryptox.HashPassword)
})

// dummySalt stands in when no random salt can be read. The dummy hash only
// needs to cost as much as a real one.
var dummySalt = []byte("hotellisting-pad")

func newDummyHash(hash func(string) (string, error)) string {
	secret := idx.New().String()
	h, err := hash(secret)
	if err == nil {
		return h
	}
	slog.Warn("dummy password hash: falling back to fixed salt", slog.Any("error", err))
	return cryptox.DefaultParams.HashWithSalt(secret, dummySalt)
}

// AuthService runs login, refresh and registration.
//
// Authentication failures are reported as a nil response with a nil error.
// Callers never learn why a login or refresh was refused. A non-nil error
// always means an infrastructure fault.
type AuthService struct {
	Store   store.Store
	Claims  *ClaimsAssembler
	Issuer  *jwtx.Issuer
	Refresh *RefreshTokenManager
	Policy  PasswordPolicy
	Clock   func() time.Time
}

// Login checks the credentials and issues an access and refresh token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.AuthResponse, error) {
	l := slogx.FromContext(ctx).With(slog.String("op", "login"), slog.String("email", email))

	p, err := s.Store.Principals().GetByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		_ = cryptox.VerifyPassword(password, dummyHash())
		l.Warn("login failed")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("login: lookup principal: %w", err)
	}

	if err := cryptox.VerifyPassword(password, p.PasswordHash); err != nil {
		if !errors.Is(err, cryptox.ErrPasswordMismatch) {
			l.Error("stored password hash is unreadable", slog.String("principal_id", p.ID), slog.Any("error", err))
		}
		l.Warn("login failed")
		return nil, nil
	}

	if cryptox.NeedsRehash(p.PasswordHash) {
		s.upgradeHash(ctx, l, p.ID, password)
	}

	resp, err := s.issue(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	l.Info("login succeeded", slog.String("principal_id", p.ID))
	return resp, nil
}

// upgradeHash re-hashes a verified password with the current settings.
// Failure only costs the upgrade, so the login goes ahead.
func (s *AuthService) upgradeHash(ctx context.Context, l *slog.Logger, principalID, password string) {
	hash, err := cryptox.HashPassword(password)
	if err == nil {
		err = s.Store.Principals().UpdatePasswordHash(ctx, principalID, hash)
	}
	if err != nil {
		l.Warn("password hash upgrade failed", slog.String("principal_id", principalID), slog.Any("error", err))
		return
	}
	l.Info("password hash upgraded", slog.String("principal_id", principalID))
}

// RefreshToken exchanges a (possibly expired) access token and its refresh
// token for a new pair. The access token is only decoded to find the
// principal; trust comes from the refresh token. A refresh token that does
// not verify, or that loses a race with a concurrent refresh, rotates the
// principal's security stamp so every outstanding refresh token dies.
func (s *AuthService) RefreshToken(ctx context.Context, req domain.AuthResponse) (*domain.AuthResponse, error) {
	l := slogx.FromContext(ctx).With(slog.String("op", "refresh_token"))

	claims, err := jwtx.ParseUnverified(req.AccessToken)
	if err != nil {
		l.Warn("refresh rejected: access token could not be decoded")
		return nil, nil
	}
	email, ok := claims.First(jwtx.ClaimEmail)
	if !ok || email == "" {
		l.Warn("refresh rejected: access token has no email claim")
		return nil, nil
	}
	l = l.With(slog.String("email", email))

	p, err := s.Store.Principals().GetByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		l.Warn("refresh rejected: unknown principal")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("refresh token: lookup principal: %w", err)
	}
	if p.ID != req.PrincipalID {
		l.Warn("refresh rejected: principal mismatch", slog.String("principal_id", p.ID))
		return nil, nil
	}

	valid, err := s.Refresh.Verify(ctx, p, req.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}
	if !valid {
		l.Warn("refresh token rejected, invalidating principal", slog.String("principal_id", p.ID))
		if err := s.Invalidate(ctx, p.ID); err != nil {
			return nil, fmt.Errorf("refresh token: %w", err)
		}
		return nil, nil
	}

	refresh, err := s.Refresh.Rotate(ctx, p, req.RefreshToken)
	if errors.Is(err, store.ErrTokenConflict) {
		l.Warn("refresh token reused concurrently, invalidating principal", slog.String("principal_id", p.ID))
		if err := s.Invalidate(ctx, p.ID); err != nil {
			return nil, fmt.Errorf("refresh token: %w", err)
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}

	access, err := s.accessToken(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}

	l.Info("refresh succeeded", slog.String("principal_id", p.ID))
	return &domain.AuthResponse{
		AccessToken:  access,
		PrincipalID:  p.ID,
		RefreshToken: refresh,
	}, nil
}

// Register validates the registration and creates the principal with the
// given role. An empty list means success; nothing is written when any
// validation error is returned.
func (s *AuthService) Register(
	ctx context.Context,
	reg domain.Registration,
	role string,
) ([]domain.ValidationError, error) {
	reg.Email = strings.TrimSpace(reg.Email)
	reg.FirstName = strings.TrimSpace(reg.FirstName)
	reg.LastName = strings.TrimSpace(reg.LastName)
	l := slogx.FromContext(ctx).With(
		slog.String("op", "register"),
		slog.String("email", reg.Email),
		slog.String("role", role),
	)

	errs := validateRegistration(reg, s.Policy)
	if IsValidEmail(reg.Email) {
		_, err := s.Store.Principals().GetByEmail(ctx, reg.Email)
		switch {
		case err == nil:
			errs = append(errs, duplicateEmail(reg.Email))
		case !errors.Is(err, store.ErrNotFound):
			return nil, fmt.Errorf("register: lookup principal: %w", err)
		}
	}
	if len(errs) > 0 {
		l.Info("registration rejected", slog.Int("errors", len(errs)))
		return errs, nil
	}

	hash, err := cryptox.HashPassword(reg.Password)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}
	stamp, err := newSecurityStamp()
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	p := domain.Principal{
		ID:            idx.New().String(),
		Email:         reg.Email,
		FirstName:     reg.FirstName,
		LastName:      reg.LastName,
		PasswordHash:  hash,
		SecurityStamp: stamp,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		r, err := tx.Roles().GetByName(ctx, role)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: %q", ErrInvalidRole, role)
		}
		if err != nil {
			return err
		}
		if err := tx.Principals().Create(ctx, p); err != nil {
			return err
		}
		return tx.Roles().AddPrincipal(ctx, p.ID, r.ID)
	})
	if errors.Is(err, store.ErrAlreadyExists) {
		// Lost a race with another registration for the same email.
		return []domain.ValidationError{duplicateEmail(reg.Email)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	l.Info("principal registered", slog.String("principal_id", p.ID))
	return nil, nil
}

// Invalidate rotates the principal's security stamp, so every refresh token
// issued before the rotation stops verifying, then empties the slot.
func (s *AuthService) Invalidate(ctx context.Context, principalID string) error {
	stamp, err := newSecurityStamp()
	if err != nil {
		return err
	}
	if err := s.Store.Principals().UpdateSecurityStamp(ctx, principalID, stamp); err != nil {
		return fmt.Errorf("rotate security stamp: %w", err)
	}
	if err := s.Refresh.Revoke(ctx, principalID); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

func (s *AuthService) issue(ctx context.Context, p domain.Principal) (*domain.AuthResponse, error) {
	access, err := s.accessToken(ctx, p)
	if err != nil {
		return nil, err
	}
	refresh, err := s.Refresh.Issue(ctx, p)
	if err != nil {
		return nil, err
	}
	return &domain.AuthResponse{
		AccessToken:  access,
		PrincipalID:  p.ID,
		RefreshToken: refresh,
	}, nil
}

func (s *AuthService) accessToken(ctx context.Context, p domain.Principal) (string, error) {
	claims, err := s.Claims.Assemble(ctx, p)
	if err != nil {
		return "", err
	}
	return s.Issuer.Issue(claims, s.now())
}

func (s *AuthService) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now().UTC()
}

func newSecurityStamp() (string, error) {
	stamp, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return "", fmt.Errorf("generate security stamp: %w", err)
	}
	return stamp, nil
}
