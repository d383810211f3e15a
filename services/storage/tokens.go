package storage

import (
	"context"
	"errors"
	"fmt"

	"bookitgy/utils"

	"golang.org/x/oauth2"
)

// TokenStore persists the access/refresh pair.
type TokenStore struct {
	kv KeyValueStore
}

func NewTokenStore(kv KeyValueStore) *TokenStore {
	return &TokenStore{kv: kv}
}

// Load returns the stored token, or nil when no access token is stored.
func (s *TokenStore) Load(ctx context.Context) (*oauth2.Token, error) {
	access, err := s.kv.Get(ctx, utils.AccessTokenKey)
	if errors.Is(err, ErrNotFound) || access == "" && err == nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load access token: %w", err)
	}
	refresh, err := s.kv.Get(ctx, utils.RefreshTokenKey)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("load refresh token: %w", err)
	}
	tok := &oauth2.Token{AccessToken: access, RefreshToken: refresh, TokenType: "Bearer"}
	if claims, err := utils.ParseTokenClaims(access); err == nil {
		tok.Expiry = claims.ExpiresAt
	}
	return tok, nil
}

func (s *TokenStore) Save(ctx context.Context, tok *oauth2.Token) error {
	if tok == nil || tok.AccessToken == "" {
		return s.Clear(ctx)
	}
	if err := s.kv.Set(ctx, utils.AccessTokenKey, tok.AccessToken); err != nil {
		return fmt.Errorf("save access token: %w", err)
	}
	if tok.RefreshToken == "" {
		return s.kv.Delete(ctx, utils.RefreshTokenKey)
	}
	if err := s.kv.Set(ctx, utils.RefreshTokenKey, tok.RefreshToken); err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	return nil
}

func (s *TokenStore) Clear(ctx context.Context) error {
	return s.kv.Delete(ctx, utils.AccessTokenKey, utils.RefreshTokenKey)
}
