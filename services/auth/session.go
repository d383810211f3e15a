package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"bookitgy/models"
	"bookitgy/services/api"
	"bookitgy/services/storage"
	"bookitgy/utils"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// Session holds the bearer credential shared by every outbound request. It implements
// api.Credentials.
type Session struct {
	client *api.Client
	store  *storage.TokenStore
	logger *zap.Logger

	refreshGroup singleflight.Group

	mu        sync.RWMutex
	token     *oauth2.Token
	onExpired []func()
}

func NewSession(client *api.Client, store *storage.TokenStore, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.L()
	}
	return &Session{client: client, store: store, logger: logger}
}

// OnExpired registers fn to run after a failed refresh has cleared the credentials.
func (s *Session) OnExpired(fn func()) {
	s.mu.Lock()
	s.onExpired = append(s.onExpired, fn)
	s.mu.Unlock()
}

// Token returns the in-memory token or nil when signed out.
func (s *Session) Token(ctx context.Context) (*oauth2.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, nil
}

// SignedIn reports whether an access token is held.
func (s *Session) SignedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != nil && s.token.AccessToken != ""
}

// Claims decodes the identity claims of the current access token.
func (s *Session) Claims() (utils.TokenClaims, error) {
	s.mu.RLock()
	tok := s.token
	s.mu.RUnlock()
	if tok == nil {
		return utils.TokenClaims{}, errors.New("not signed in")
	}
	return utils.ParseTokenClaims(tok.AccessToken)
}

// Load reads the persisted credential into memory.
func (s *Session) Load(ctx context.Context) (*oauth2.Token, error) {
	tok, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	// A caller that gave up must not find the token installed later.
	if err := ctx.Err(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.token = tok
	s.mu.Unlock()
	return tok, nil
}

// SetTokens installs a freshly issued pair and persists it. A persistence failure is logged;
// the in-memory session still works.
func (s *Session) SetTokens(ctx context.Context, pair models.TokenPair) *oauth2.Token {
	tok := &oauth2.Token{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken, TokenType: "Bearer"}
	if claims, err := utils.ParseTokenClaims(pair.AccessToken); err == nil {
		tok.Expiry = claims.ExpiresAt
	}
	s.mu.Lock()
	s.token = tok
	s.mu.Unlock()

	if err := s.store.Save(ctx, tok); err != nil {
		s.logger.Warn("Failed to persist tokens", zap.Error(err))
	}
	return tok
}

// Clear drops the credential from memory and storage without firing the expired hooks.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.token = nil
	s.mu.Unlock()
	return s.store.Clear(ctx)
}

// Expire clears the credential and notifies the OnExpired hooks.
func (s *Session) Expire(ctx context.Context) {
	if err := s.Clear(ctx); err != nil {
		s.logger.Warn("Failed to clear stored tokens", zap.Error(err))
	}
	s.mu.RLock()
	hooks := append([]func(){}, s.onExpired...)
	s.mu.RUnlock()
	for _, fn := range hooks {
		fn()
	}
}

// Refresh exchanges the refresh token for a new pair. At most one refresh call is in flight;
// concurrent callers share its result. When the current token already differs from stale,
// another caller has refreshed and the current token is returned without a call.
func (s *Session) Refresh(ctx context.Context, stale *oauth2.Token) (*oauth2.Token, error) {
	if current, ok := s.newerThan(stale); ok {
		return current, nil
	}

	v, err, shared := s.refreshGroup.Do("refresh", func() (interface{}, error) {
		// A flight may have finished between the check above and joining the group.
		current, ok := s.newerThan(stale)
		if ok {
			return current, nil
		}
		return s.refresh(context.WithoutCancel(ctx), current)
	})
	if shared {
		s.logger.Debug("Joined in-flight token refresh")
	}
	if err != nil {
		return nil, err
	}
	return v.(*oauth2.Token), nil
}

// newerThan returns the current token and whether it differs from stale.
func (s *Session) newerThan(stale *oauth2.Token) (*oauth2.Token, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	current := s.token
	if current == nil || current.AccessToken == "" {
		return current, false
	}
	return current, stale == nil || current.AccessToken != stale.AccessToken
}

func (s *Session) refresh(ctx context.Context, current *oauth2.Token) (*oauth2.Token, error) {
	if current == nil || current.RefreshToken == "" {
		s.Expire(ctx)
		return nil, fmt.Errorf("%w: no refresh token", api.ErrSessionExpired)
	}

	var pair models.TokenPair
	err := s.client.Do(ctx, api.Request{
		Method: http.MethodPost,
		Path:   "/auth/refresh",
		JSON:   map[string]string{"refresh_token": current.RefreshToken},
		NoAuth: true,
	}, &pair)
	if err == nil && (pair.AccessToken == "" || pair.RefreshToken == "") {
		err = errors.New("refresh response missing tokens")
	}
	if err != nil {
		s.logger.Warn("Token refresh failed, signing out", zap.Error(err))
		s.Expire(ctx)
		return nil, fmt.Errorf("%w: %v", api.ErrSessionExpired, err)
	}

	s.logger.Info("Access token refreshed")
	return s.SetTokens(ctx, pair), nil
}
