package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIssuer = "https://idp.example.com/pool"

func generateKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

type jsonWebKey struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func jwksJSON(t *testing.T, keys map[string]*rsa.PrivateKey) []byte {
	t.Helper()
	set := struct {
		Keys []jsonWebKey `json:"keys"`
	}{Keys: []jsonWebKey{}}
	for kid, k := range keys {
		set.Keys = append(set.Keys, jsonWebKey{
			Kty: "RSA",
			Kid: kid,
			Use: "sig",
			N:   base64.RawURLEncoding.EncodeToString(k.N.Bytes()),
			E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(k.E)).Bytes()),
		})
	}
	data, err := json.Marshal(set)
	require.NoError(t, err)
	return data
}

func signRS256(t *testing.T, key *rsa.PrivateKey, kid string, claims jwt.RegisteredClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func validClaims(now time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Subject:   "user-1",
		Issuer:    testIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}
}

// staticSource counts fetches and serves a key set built from keys, or err.
type staticSource struct {
	t     *testing.T
	calls atomic.Int32
	keys  map[string]*rsa.PrivateKey
	err   error
}

func (s *staticSource) KeySet(ctx context.Context) (keyfunc.Keyfunc, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return ParseJWKS(ctx, jwksJSON(s.t, s.keys))
}

func TestParseJWKS(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	key := generateKey(t)
	kf, err := ParseJWKS(ctx, jwksJSON(t, map[string]*rsa.PrivateKey{"k1": key}))
	require.NoError(t, err)

	token, err := jwt.Parse(signRS256(t, key, "k1", validClaims(now)), kf.Keyfunc)
	require.NoError(t, err)
	assert.True(t, token.Valid)

	_, err = jwt.Parse(signRS256(t, key, "k2", validClaims(now)), kf.Keyfunc)
	assert.Error(t, err, "key IDs outside the set are rejected")

	for name, doc := range map[string]string{
		"incomplete EC key": `{"keys":[{"kty":"EC","kid":"e1"}]}`,
		"bad modulus":       `{"keys":[{"kty":"RSA","kid":"bad","n":"!!","e":"AQAB"}]}`,
		"not json":          `not json`,
		"empty set":         `{"keys":[]}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseJWKS(ctx, []byte(doc))
			assert.ErrorIs(t, err, ErrKeysUnavailable)
		})
	}
}

func TestCachedKeySourceFetchesOnce(t *testing.T) {
	source := &staticSource{t: t, keys: map[string]*rsa.PrivateKey{"k1": generateKey(t)}}
	cache := NewCachedKeySource(source, nil)

	for i := 0; i < 3; i++ {
		keys, err := cache.KeySet(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, keys)
	}
	assert.Equal(t, int32(1), source.calls.Load())

	cache.Invalidate()
	_, err := cache.KeySet(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), source.calls.Load())
}

func TestCachedKeySourceForgetsFailedFetch(t *testing.T) {
	source := &staticSource{t: t, err: errors.New("dns failure")}
	cache := NewCachedKeySource(source, nil)

	_, err := cache.KeySet(context.Background())
	require.Error(t, err)

	source.err = nil
	source.keys = map[string]*rsa.PrivateKey{"k1": generateKey(t)}
	keys, err := cache.KeySet(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, keys)
	assert.Equal(t, int32(2), source.calls.Load(), "failure is not cached")
}

func TestJWKSVerifier(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	key := generateKey(t)
	source := &staticSource{t: t, keys: map[string]*rsa.PrivateKey{"k1": key}}
	v := NewJWKSVerifier(NewCachedKeySource(source, nil), testIssuer).
		WithTimeFunc(func() time.Time { return now })

	claims, err := v.Verify(context.Background(), signRS256(t, key, "k1", validClaims(now)))
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, testIssuer, claims.Issuer)

	otherKey := generateKey(t)
	wrongIssuer := validClaims(now)
	wrongIssuer.Issuer = "https://evil.example.com"
	expired := validClaims(now.Add(-3 * time.Hour))

	hmacToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims(now)).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", ErrMissingToken},
		{"signed by another key", signRS256(t, otherKey, "k1", validClaims(now)), ErrInvalidToken},
		{"unknown key id", signRS256(t, key, "k9", validClaims(now)), ErrInvalidToken},
		{"missing key id", signRS256(t, key, "", validClaims(now)), ErrInvalidToken},
		{"wrong issuer", signRS256(t, key, "k1", wrongIssuer), ErrInvalidToken},
		{"expired", signRS256(t, key, "k1", expired), ErrExpiredToken},
		{"hmac algorithm", hmacToken, ErrInvalidToken},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), tc.token)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestJWKSVerifierPicksUpRotatedKey(t *testing.T) {
	now := time.Now()
	oldKey := generateKey(t)
	newKey := generateKey(t)
	source := &staticSource{t: t, keys: map[string]*rsa.PrivateKey{"old": oldKey}}
	v := NewJWKSVerifier(NewCachedKeySource(source, nil), "")

	_, err := v.Verify(context.Background(), signRS256(t, oldKey, "old", validClaims(now)))
	require.NoError(t, err)

	source.keys = map[string]*rsa.PrivateKey{"old": oldKey, "new": newKey}
	_, err = v.Verify(context.Background(), signRS256(t, newKey, "new", validClaims(now)))
	require.NoError(t, err)
	assert.Equal(t, int32(2), source.calls.Load())
}

func TestJWKSVerifierKeysUnavailable(t *testing.T) {
	source := &staticSource{t: t, err: ErrKeysUnavailable}
	v := NewJWKSVerifier(NewCachedKeySource(source, nil), "")

	_, err := v.Verify(context.Background(), signRS256(t, generateKey(t), "k1", validClaims(time.Now())))
	assert.ErrorIs(t, err, ErrKeysUnavailable)
}

func TestHTTPKeySource(t *testing.T) {
	key := generateKey(t)
	body := jwksJSON(t, map[string]*rsa.PrivateKey{"k1": key})
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/.well-known/jwks.json" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	kf, err := NewHTTPKeySource(srv.URL+"/.well-known/jwks.json", srv.Client()).KeySet(context.Background())
	require.NoError(t, err)
	_, err = jwt.Parse(signRS256(t, key, "k1", validClaims(time.Now())), kf.Keyfunc)
	assert.NoError(t, err)

	_, err = NewHTTPKeySource(srv.URL+"/missing", srv.Client()).KeySet(context.Background())
	assert.ErrorIs(t, err, ErrKeysUnavailable)
	assert.Equal(t, int32(2), hits.Load())
}
