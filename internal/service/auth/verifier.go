package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/phrazzld/todo-reminders/internal/config"
)

// TokenVerifier checks bearer tokens.
type TokenVerifier interface {
	// Verify validates tokenString and returns its claims.
	// Returns ErrInvalidToken, ErrExpiredToken or ErrTokenNotYetValid for
	// rejected tokens and ErrKeysUnavailable when keys cannot be loaded.
	Verify(ctx context.Context, tokenString string) (*Claims, error)
}

// TokenMinter issues tokens a TokenVerifier accepts.
type TokenMinter interface {
	// Mint creates a signed token whose subject is subject.
	Mint(ctx context.Context, subject string) (string, error)
}

// Claims are the verified claims of a token.
type Claims struct {
	// Subject identifies the task owner the token was issued for.
	Subject   string    `json:"sub,omitempty"`
	Issuer    string    `json:"iss,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}

// defaultClockSkew is the leeway allowed on time-based claims.
const defaultClockSkew = 2 * time.Minute

// NewVerifier builds the verifier selected by cfg.Mode.
func NewVerifier(cfg config.AuthConfig, client *http.Client, logger *slog.Logger) (TokenVerifier, error) {
	switch cfg.Mode {
	case config.AuthModeHMAC:
		return NewHMACVerifier(cfg)
	case config.AuthModeJWKS:
		if cfg.JWKSURL == "" {
			return nil, errors.New("jwks mode requires a jwks url")
		}
		source := NewCachedKeySource(NewHTTPKeySource(cfg.JWKSURL, client), logger)
		return NewJWKSVerifier(source, cfg.Issuer), nil
	default:
		return nil, fmt.Errorf("unsupported auth mode %q", cfg.Mode)
	}
}

// claimsFrom converts parsed registered claims.
func claimsFrom(rc *jwt.RegisteredClaims) *Claims {
	c := &Claims{
		Subject: rc.Subject,
		Issuer:  rc.Issuer,
		ID:      rc.ID,
	}
	if rc.IssuedAt != nil {
		c.IssuedAt = rc.IssuedAt.Time
	}
	if rc.ExpiresAt != nil {
		c.ExpiresAt = rc.ExpiresAt.Time
	}
	return c
}

// mapParseError turns a jwt parse error into one of the package errors.
func mapParseError(log *slog.Logger, err error) error {
	switch {
	case errors.Is(err, ErrKeysUnavailable):
		log.Warn("token validation failed: keys unavailable", "error", err)
		return ErrKeysUnavailable
	case errors.Is(err, jwt.ErrTokenExpired):
		log.Debug("token validation failed: token expired", "error", err)
		return ErrExpiredToken
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		log.Debug("token validation failed: token not yet valid", "error", err)
		return ErrTokenNotYetValid
	case errors.Is(err, jwt.ErrTokenMalformed):
		log.Debug("token validation failed: malformed token", "error", err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		log.Debug("token validation failed: invalid signature", "error", err)
	default:
		log.Debug("token validation failed: other validation error",
			"error", err,
			"error_type", fmt.Sprintf("%T", err))
	}
	return ErrInvalidToken
}
