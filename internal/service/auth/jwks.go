package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/phrazzld/todo-reminders/internal/platform/logger"
	"github.com/phrazzld/todo-reminders/internal/redact"
)

// KeySource supplies the key set tokens are verified against.
type KeySource interface {
	KeySet(ctx context.Context) (keyfunc.Keyfunc, error)
}

// maxJWKSBytes bounds the size of a fetched key set.
const maxJWKSBytes = 1 << 20

// HTTPKeySource fetches a JSON Web Key Set over HTTP on every call.
type HTTPKeySource struct {
	url    string
	client *http.Client
}

// NewHTTPKeySource creates an HTTPKeySource for url. A nil client gets a
// client with a 10 second timeout.
func NewHTTPKeySource(url string, client *http.Client) *HTTPKeySource {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPKeySource{url: url, client: client}
}

// KeySet implements KeySource. Transport failures and non-200 responses
// wrap ErrKeysUnavailable.
func (s *HTTPKeySource) KeySet(ctx context.Context) (keyfunc.Keyfunc, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeysUnavailable, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeysUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrKeysUnavailable, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxJWKSBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeysUnavailable, err)
	}
	return ParseJWKS(ctx, body)
}

// ParseJWKS builds a key set from a JSON Web Key Set document. A malformed
// document, an invalid key or a set without keys is an error.
func ParseJWKS(ctx context.Context, data []byte) (keyfunc.Keyfunc, error) {
	kf, err := keyfunc.NewJWKSetJSON(json.RawMessage(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeysUnavailable, err)
	}
	keys, err := kf.Storage().KeyReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeysUnavailable, err)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: empty key set", ErrKeysUnavailable)
	}
	return kf, nil
}

// CachedKeySource loads a key set from another source once and reuses it.
// A failed load leaves the cache empty, so the next call fetches again.
type CachedKeySource struct {
	source KeySource
	logger *slog.Logger

	mu   sync.Mutex
	keys keyfunc.Keyfunc
}

// NewCachedKeySource wraps source.
func NewCachedKeySource(source KeySource, log *slog.Logger) *CachedKeySource {
	if log == nil {
		log = slog.Default()
	}
	return &CachedKeySource{source: source, logger: log.With("component", "key_cache")}
}

// KeySet implements KeySource.
func (c *CachedKeySource) KeySet(ctx context.Context) (keyfunc.Keyfunc, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.keys != nil {
		return c.keys, nil
	}
	keys, err := c.source.KeySet(ctx)
	if err != nil {
		logger.FromContextOrDefault(ctx, c.logger).Error("failed to load verification keys",
			"error", redact.Error(err))
		return nil, err
	}
	c.keys = keys
	return keys, nil
}

// Invalidate drops the cached key set.
func (c *CachedKeySource) Invalidate() {
	c.mu.Lock()
	c.keys = nil
	c.mu.Unlock()
}

// JWKSVerifier verifies RS256 tokens against keys from a KeySource.
type JWKSVerifier struct {
	keys      KeySource
	issuer    string
	timeFunc  func() time.Time
	clockSkew time.Duration
}

var _ TokenVerifier = (*JWKSVerifier)(nil)

// NewJWKSVerifier creates a JWKSVerifier. When issuer is non-empty tokens
// must carry it as their iss claim.
func NewJWKSVerifier(keys KeySource, issuer string) *JWKSVerifier {
	return &JWKSVerifier{
		keys:      keys,
		issuer:    issuer,
		timeFunc:  time.Now,
		clockSkew: defaultClockSkew,
	}
}

// WithTimeFunc returns a copy of v that reads the current time from now.
func (v *JWKSVerifier) WithTimeFunc(now func() time.Time) *JWKSVerifier {
	c := *v
	c.timeFunc = now
	return &c
}

// Verify validates an RS256 token. A token naming a key ID absent from a
// cached key set invalidates the cache and is checked once more against a
// fresh set, so rotated keys are picked up.
func (v *JWKSVerifier) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}
	claims, err := v.verify(ctx, tokenString)
	if errors.Is(err, ErrUnknownKey) {
		if cache, ok := v.keys.(*CachedKeySource); ok {
			cache.Invalidate()
			claims, err = v.verify(ctx, tokenString)
		}
	}
	if errors.Is(err, ErrUnknownKey) {
		return nil, ErrInvalidToken
	}
	return claims, err
}

func (v *JWKSVerifier) verify(ctx context.Context, tokenString string) (*Claims, error) {
	log := logger.FromContext(ctx)
	now := v.timeFunc()
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Name}),
		jwt.WithLeeway(v.clockSkew),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var rc jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenString, &rc, func(token *jwt.Token) (interface{}, error) {
		if kid, _ := token.Header["kid"].(string); kid == "" {
			return nil, errors.New("token has no key id")
		}
		keys, err := v.keys.KeySet(ctx)
		if err != nil {
			return nil, err
		}
		key, err := keys.Keyfunc(token)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnknownKey, err)
		}
		return key, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, ErrUnknownKey) {
			log.Debug("token validation failed: unknown key id")
			return nil, ErrUnknownKey
		}
		return nil, mapParseError(log, err)
	}
	if !token.Valid || rc.Subject == "" {
		log.Debug("token validation failed: missing subject")
		return nil, ErrInvalidToken
	}
	return claimsFrom(&rc), nil
}
