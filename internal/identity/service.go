// Package identity implements sign-in, sign-up, sign-out and session restore
// against the identity provider, with the session persisted in Redis.
package identity

import (
	"context"
	"strings"
	"time"

	"scoutly/internal/common/auth"
	apperrors "scoutly/internal/common/errors"
	"scoutly/internal/common/logger"
	"scoutly/internal/common/metrics"
	"scoutly/internal/common/validation"
	"scoutly/internal/models"
)

// Provider is the identity provider surface used here. *auth.KeycloakClient
// satisfies it.
type Provider interface {
	PasswordGrant(ctx context.Context, username, password string) (*auth.TokenResponse, error)
	RefreshGrant(ctx context.Context, refreshToken string) (*auth.TokenResponse, error)
	UserInfo(ctx context.Context, accessToken string) (*auth.UserInfo, error)
	CreateUser(ctx context.Context, user *auth.User, password string) (*auth.User, error)
	Logout(ctx context.Context, refreshToken string) error
}

type Service struct {
	provider Provider
	cache    *SessionCache
	logger   logger.Logger
	now      func() time.Time
}

func NewService(provider Provider, cache *SessionCache, log logger.Logger) *Service {
	return &Service{
		provider: provider,
		cache:    cache,
		logger:   log.WithFields(map[string]interface{}{"component": "identity"}),
		now:      time.Now,
	}
}

// SignIn authenticates with email and password. On failure any existing
// session is left as it was.
func (s *Service) SignIn(ctx context.Context, email, password string) (*models.AuthSession, error) {
	email = strings.TrimSpace(email)
	if err := validation.ValidateSignIn(email, password); err != nil {
		return nil, s.record("sign_in", err)
	}

	tokens, err := s.provider.PasswordGrant(ctx, email, password)
	if err != nil {
		return nil, s.record("sign_in", err)
	}

	sess, err := s.establish(ctx, tokens)
	if err != nil {
		return nil, s.record("sign_in", err)
	}

	s.logger.Info("scout signed in", map[string]interface{}{"userId": sess.User.ID})
	return sess, s.record("sign_in", nil)
}

// SignUp registers a new account and signs it in. The profile row is created
// by the backend, never here.
func (s *Service) SignUp(ctx context.Context, email, password, fullName string) (*models.AuthSession, error) {
	email = strings.TrimSpace(email)
	fullName = strings.TrimSpace(fullName)
	if err := validation.ValidateSignUp(email, password, fullName); err != nil {
		return nil, s.record("sign_up", err)
	}

	first, last := auth.SplitName(fullName)
	created, err := s.provider.CreateUser(ctx, &auth.User{
		Email:     email,
		Username:  email,
		FirstName: first,
		LastName:  last,
	}, password)
	if err != nil {
		return nil, s.record("sign_up", err)
	}

	s.record("sign_up", nil)

	s.logger.Info("scout account created", map[string]interface{}{"userId": created.ID})
	return s.SignIn(ctx, email, password)
}

// SignOut ends the provider session and forgets the local one. The local
// session is cleared even when the provider cannot be reached.
func (s *Service) SignOut(ctx context.Context) error {
	sess, err := s.cache.Load(ctx)
	if err != nil {
		s.logger.Warn("could not read session before sign-out", map[string]interface{}{"error": err})
	}

	if sess != nil && sess.RefreshToken != "" {
		if err := s.provider.Logout(ctx, sess.RefreshToken); err != nil {
			s.logger.Warn("provider logout failed", map[string]interface{}{"error": err})
		}
	}

	if err := s.cache.Clear(ctx); err != nil {
		return s.record("sign_out", apperrors.NewIdentityUnavailableError(err))
	}
	return s.record("sign_out", nil)
}

// Current restores the stored session, refreshing the access token once it
// has expired. It returns a NotAuthenticated error when nobody is signed in.
func (s *Service) Current(ctx context.Context) (*models.AuthSession, error) {
	sess, err := s.cache.Load(ctx)
	if err != nil {
		return nil, s.record("restore", apperrors.NewIdentityUnavailableError(err))
	}
	if sess == nil {
		return nil, apperrors.NewNotAuthenticatedError()
	}
	if s.now().Before(sess.ExpiresAt) {
		return sess, nil
	}

	if sess.RefreshToken == "" {
		_ = s.cache.Clear(ctx)
		return nil, s.record("refresh", apperrors.NewNotAuthenticatedError())
	}

	tokens, err := s.provider.RefreshGrant(ctx, sess.RefreshToken)
	if err != nil {
		if apperrors.HasCode(err, apperrors.ErrCodeNotAuthenticated) {
			_ = s.cache.Clear(ctx)
		}
		return nil, s.record("refresh", err)
	}

	refreshed := *sess
	refreshed.AccessToken = tokens.AccessToken
	if tokens.RefreshToken != "" {
		refreshed.RefreshToken = tokens.RefreshToken
	}
	refreshed.ExpiresAt = s.now().Add(time.Duration(tokens.ExpiresIn) * time.Second)
	if err := s.cache.Save(ctx, &refreshed); err != nil {
		return nil, s.record("refresh", apperrors.NewIdentityUnavailableError(err))
	}

	s.logger.Debug("session refreshed", map[string]interface{}{"userId": refreshed.User.ID})
	return &refreshed, s.record("refresh", nil)
}

func (s *Service) establish(ctx context.Context, tokens *auth.TokenResponse) (*models.AuthSession, error) {
	info, err := s.provider.UserInfo(ctx, tokens.AccessToken)
	if err != nil {
		return nil, err
	}

	now := s.now()
	tokenType := tokens.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	sess := &models.AuthSession{
		User: models.User{
			ID:       info.Sub,
			Email:    info.Email,
			FullName: info.Name,
		},
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		TokenType:    tokenType,
		ExpiresAt:    now.Add(time.Duration(tokens.ExpiresIn) * time.Second),
		CreatedAt:    now,
	}
	if err := s.cache.Save(ctx, sess); err != nil {
		return nil, apperrors.NewIdentityUnavailableError(err)
	}
	return sess, nil
}

func (s *Service) record(operation string, err error) error {
	outcome := "success"
	if err != nil {
		outcome = string(apperrors.Normalize(err).Code)
	}
	metrics.IdentityOperations.WithLabelValues(operation, outcome).Inc()
	return err
}
