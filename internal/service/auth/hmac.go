package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/todo-reminders/internal/config"
	"github.com/phrazzld/todo-reminders/internal/platform/logger"
)

// minSecretLength is the shortest accepted HMAC secret.
const minSecretLength = 32

// HMACVerifier verifies and mints HS256 tokens signed with a shared secret.
type HMACVerifier struct {
	signingKey    []byte
	issuer        string
	tokenLifetime time.Duration
	timeFunc      func() time.Time // Injectable for testing
	clockSkew     time.Duration
}

var (
	_ TokenVerifier = (*HMACVerifier)(nil)
	_ TokenMinter   = (*HMACVerifier)(nil)
)

// NewHMACVerifier creates an HMACVerifier from cfg.
func NewHMACVerifier(cfg config.AuthConfig) (*HMACVerifier, error) {
	if len(cfg.JWTSecret) < minSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d characters", minSecretLength)
	}
	lifetime := time.Duration(cfg.TokenLifetimeMinutes) * time.Minute
	if lifetime <= 0 {
		lifetime = time.Hour
	}
	return &HMACVerifier{
		signingKey:    []byte(cfg.JWTSecret),
		issuer:        cfg.Issuer,
		tokenLifetime: lifetime,
		timeFunc:      time.Now,
		clockSkew:     defaultClockSkew,
	}, nil
}

// WithTimeFunc returns a copy of v that reads the current time from now.
func (v *HMACVerifier) WithTimeFunc(now func() time.Time) *HMACVerifier {
	c := *v
	c.timeFunc = now
	return &c
}

// Mint creates a signed token for subject.
func (v *HMACVerifier) Mint(ctx context.Context, subject string) (string, error) {
	if subject == "" {
		return "", errors.New("token subject cannot be empty")
	}
	now := v.timeFunc()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    v.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(v.tokenLifetime)),
		ID:        uuid.New().String(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.signingKey)
	if err != nil {
		logger.FromContext(ctx).Error("failed to sign token",
			"error", err,
			"signing_method", jwt.SigningMethodHS256.Name)
		return "", fmt.Errorf("failed to sign token with HMAC-SHA256: %w", err)
	}
	return signed, nil
}

// Verify validates an HS256 token.
func (v *HMACVerifier) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	log := logger.FromContext(ctx)
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	now := v.timeFunc()
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithLeeway(v.clockSkew),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var rc jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenString, &rc, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.signingKey, nil
	}, opts...)
	if err != nil {
		return nil, mapParseError(log, err)
	}
	if !token.Valid || rc.Subject == "" {
		log.Debug("token validation failed: missing subject")
		return nil, ErrInvalidToken
	}

	log.Debug("token validated", "subject", rc.Subject, "token_id", rc.ID)
	return claimsFrom(&rc), nil
}
