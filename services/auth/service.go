package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bookitgy/models"
	"bookitgy/services/api"

	"go.uber.org/zap"
)

// ErrMissingCredentials is returned before any request when the login form is incomplete.
var ErrMissingCredentials = errors.New("email and password are required")

// Service implements the account operations on top of a Session.
type Service struct {
	client  *api.Client
	session *Session
	logger  *zap.Logger

	stepTimeout time.Duration
	watchdog    time.Duration
}

func NewService(client *api.Client, session *Session, stepTimeout, watchdog time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.L()
	}
	if stepTimeout <= 0 {
		stepTimeout = 5 * time.Second
	}
	if watchdog <= 0 {
		watchdog = 12 * time.Second
	}
	return &Service{client: client, session: session, logger: logger, stepTimeout: stepTimeout, watchdog: watchdog}
}

// Session returns the credential holder behind the service.
func (s *Service) Session() *Session { return s.session }

// Login exchanges a username (or email) and password for a token pair and returns the profile.
func (s *Service) Login(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	var pair models.TokenPair
	err := s.client.Do(ctx, api.Request{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Form:   url.Values{"username": {username}, "password": {password}},
		NoAuth: true,
	}, &pair)
	if err != nil {
		return nil, err
	}
	if pair.AccessToken == "" {
		return nil, fmt.Errorf("login: %w: missing access_token", api.ErrUnexpectedShape)
	}
	s.session.SetTokens(ctx, pair)
	s.logger.Info("User logged in", zap.String("username", username))

	return s.Me(ctx)
}

// Logout forgets the credential locally.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.session.Clear(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.logger.Info("User logged out")
	return nil
}

// Me fetches the profile of the signed-in user.
func (s *Service) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := s.client.Do(ctx, api.Request{Method: http.MethodGet, Path: "/me"}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.New("email is required")
	}
	return s.client.Do(ctx, api.Request{
		Method: http.MethodPost,
		Path:   "/auth/forgot-password",
		JSON:   map[string]string{"email": email},
		NoAuth: true,
	}, nil)
}

func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return errors.New("reset token is required")
	}
	if newPassword == "" {
		return errors.New("new password is required")
	}
	return s.client.Do(ctx, api.Request{
		Method: http.MethodPost,
		Path:   "/auth/reset-password",
		JSON:   map[string]string{"token": token, "new_password": newPassword},
		NoAuth: true,
	}, nil)
}
