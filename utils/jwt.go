package utils

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt"
)

// TokenClaims is the subset of access token claims the client reads.
type TokenClaims struct {
	Subject   string
	Email     string
	ExpiresAt time.Time
}

// ParseTokenClaims decodes an access token without verifying its signature. The server is the
// only party holding the key; the client uses the claims for identity keys and expiry hints.
func ParseTokenClaims(tokenString string) (TokenClaims, error) {
	if tokenString == "" {
		return TokenClaims{}, errors.New("empty token")
	}
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(tokenString, claims); err != nil {
		return TokenClaims{}, fmt.Errorf("failed to decode token: %w", err)
	}

	var out TokenClaims
	switch sub := claims["sub"].(type) {
	case string:
		out.Subject = sub
	case float64:
		out.Subject = strconv.FormatInt(int64(sub), 10)
	}
	if email, ok := claims["email"].(string); ok {
		out.Email = email
	}
	if exp, ok := claims["exp"].(float64); ok {
		out.ExpiresAt = time.Unix(int64(exp), 0)
	}
	if out.Subject == "" {
		return out, errors.New("token does not contain a valid 'sub' claim")
	}
	return out, nil
}
