package auth_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/loxconnect/connect-api/internal/auth"
	"github.com/loxconnect/connect-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const projectID = "loxconnect-test"

type keyServer struct {
	key     *rsa.PrivateKey
	kid     string
	fetches atomic.Int32
	server  *httptest.Server
}

func newKeyServer(t *testing.T) *keyServer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	ks := &keyServer{key: key, kid: "key-1"}
	ks.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ks.fetches.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"keys": []map[string]string{{
				"kid": ks.kid,
				"kty": "RSA",
				"use": "sig",
				"alg": "RS256",
				"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
			}},
		})
	}))
	t.Cleanup(ks.server.Close)
	return ks
}

func (ks *keyServer) sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = ks.kid
	signed, err := token.SignedString(ks.key)
	require.NoError(t, err)
	return signed
}

func validClaims() jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"iss":   "https://securetoken.google.com/" + projectID,
		"aud":   projectID,
		"sub":   "firebase-uid-1",
		"email": "kari@example.com",
		"name":  "Kari Nordmann",
		"iat":   now.Add(-time.Minute).Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}
}

func TestJWTValidator_ValidateToken(t *testing.T) {
	ks := newKeyServer(t)
	validator := auth.NewJWTValidator(&config.FirebaseConfig{ProjectID: projectID, JWKSURL: ks.server.URL})
	ctx := context.Background()

	identity, err := validator.ValidateToken(ctx, ks.sign(t, validClaims()))
	require.NoError(t, err)
	assert.Equal(t, &auth.Identity{UID: "firebase-uid-1", Email: "kari@example.com", Name: "Kari Nordmann"}, identity)

	t.Run("keys are cached", func(t *testing.T) {
		_, err := validator.ValidateToken(ctx, ks.sign(t, validClaims()))
		require.NoError(t, err)
		assert.Equal(t, int32(1), ks.fetches.Load())
	})

	tests := []struct {
		name   string
		mutate func(jwt.MapClaims)
		err    error
	}{
		{"expired", func(c jwt.MapClaims) { c["exp"] = time.Now().Add(-time.Hour).Unix() }, auth.ErrExpiredToken},
		{"wrong audience", func(c jwt.MapClaims) { c["aud"] = "other-project" }, auth.ErrInvalidToken},
		{"wrong issuer", func(c jwt.MapClaims) { c["iss"] = "https://securetoken.google.com/other" }, auth.ErrInvalidToken},
		{"missing subject", func(c jwt.MapClaims) { delete(c, "sub") }, auth.ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := validClaims()
			tt.mutate(claims)
			_, err := validator.ValidateToken(ctx, ks.sign(t, claims))
			assert.ErrorIs(t, err, tt.err)
		})
	}

	t.Run("HS256 token is rejected", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims())
		token.Header["kid"] = ks.kid
		signed, err := token.SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = validator.ValidateToken(ctx, signed)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := validator.ValidateToken(ctx, "not-a-jwt")
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})
}

func TestSessionManager(t *testing.T) {
	sessions := auth.NewSessionManager("session-secret", time.Hour, true)
	id := &auth.Identity{UID: "uid-1", Email: "kari@example.com", Name: "Kari"}

	token, expires, err := sessions.Mint(id)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)

	got, err := sessions.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	t.Run("other secret is rejected", func(t *testing.T) {
		_, err := auth.NewSessionManager("other", time.Hour, true).Verify(token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("expired session", func(t *testing.T) {
		short := auth.NewSessionManager("session-secret", time.Nanosecond, true)
		token, _, err := short.Mint(id)
		require.NoError(t, err)
		time.Sleep(time.Millisecond)
		_, err = short.Verify(token)
		assert.ErrorIs(t, err, auth.ErrExpiredToken)
	})

	t.Run("cookie attributes", func(t *testing.T) {
		rec := httptest.NewRecorder()
		sessions.SetCookie(rec, token, expires)
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, auth.SessionCookieName, cookies[0].Name)
		assert.True(t, cookies[0].HttpOnly)
		assert.True(t, cookies[0].Secure)

		rec = httptest.NewRecorder()
		sessions.ClearCookie(rec)
		cookies = rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Negative(t, cookies[0].MaxAge)
	})

	t.Run("missing secret", func(t *testing.T) {
		_, _, err := auth.NewSessionManager("", time.Hour, false).Mint(id)
		assert.Error(t, err)
	})
}
