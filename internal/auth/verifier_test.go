package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/quoter-api/internal/common"
)

const testSecret = "unit-test-secret"

func mintToken(t *testing.T, mutate func(b *jwt.Builder)) string {
	t.Helper()
	builder := jwt.NewBuilder().
		Subject("user-1").
		Issuer("quoter").
		Audience([]string{"quoter-api"}).
		IssuedAt(time.Now()).
		Expiration(time.Now().Add(time.Hour)).
		Claim("channel", "retail")
	if mutate != nil {
		mutate(builder)
	}
	tok, err := builder.Build()
	require.NoError(t, err)
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, []byte(testSecret)))
	require.NoError(t, err)
	return string(signed)
}

func newTestVerifier(t *testing.T) *Verifier {
	t.Helper()
	v, err := NewVerifier(VerifierConfig{
		Secret:   testSecret,
		Issuer:   "quoter",
		Audience: "quoter-api",
	})
	require.NoError(t, err)
	return v
}

func TestVerifierAcceptsValidToken(t *testing.T) {
	v := newTestVerifier(t)

	identity, err := v.Verify(mintToken(t, nil))
	require.NoError(t, err)
	require.Equal(t, "user-1", identity.UserID)
	require.Equal(t, "retail", identity.Channel)
	require.True(t, identity.Active)
}

func TestVerifierRejectsExpiredToken(t *testing.T) {
	v := newTestVerifier(t)

	token := mintToken(t, func(b *jwt.Builder) {
		b.Expiration(time.Now().Add(-time.Minute))
	})
	_, err := v.Verify(token)
	require.Error(t, err)
	require.True(t, common.IsAppError(err))
}

func TestVerifierRejectsWrongIssuer(t *testing.T) {
	v := newTestVerifier(t)

	token := mintToken(t, func(b *jwt.Builder) {
		b.Issuer("someone-else")
	})
	_, err := v.Verify(token)
	require.Error(t, err)
}

func TestVerifierRejectsWrongSignature(t *testing.T) {
	v := newTestVerifier(t)

	tok, err := jwt.NewBuilder().Subject("user-1").Build()
	require.NoError(t, err)
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, []byte("other-secret")))
	require.NoError(t, err)

	_, err = v.Verify(string(signed))
	require.Error(t, err)
}

func TestVerifierHonorsActiveClaim(t *testing.T) {
	v := newTestVerifier(t)

	token := mintToken(t, func(b *jwt.Builder) {
		b.Claim("active", false)
	})
	identity, err := v.Verify(token)
	require.NoError(t, err)
	require.False(t, identity.Active)
}

func TestAuthenticateMiddleware(t *testing.T) {
	v := newTestVerifier(t)
	mw := Middleware{Verifier: v}

	var gotUser, gotChannel string
	var hadUser bool
	handler := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, hadUser = common.UserID(r.Context())
		gotChannel, _ = common.Channel(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("anonymous request passes through", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusNoContent, rec.Code)
		require.False(t, hadUser)
	})

	t.Run("garbage token still passes through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code)
		require.False(t, hadUser)
	})

	t.Run("valid token attaches identity", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+mintToken(t, nil))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code)
		require.True(t, hadUser)
		require.Equal(t, "user-1", gotUser)
		require.Equal(t, "retail", gotChannel)
	})
}

func TestRequireAuthMiddleware(t *testing.T) {
	v := newTestVerifier(t)
	mw := Middleware{Verifier: v}

	handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := common.UserID(r.Context())
		require.True(t, ok)
		require.Equal(t, "user-1", userID)
		channel, ok := common.Channel(r.Context())
		require.True(t, ok)
		require.Equal(t, "retail", channel)
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+mintToken(t, nil))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("disabled account", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+mintToken(t, func(b *jwt.Builder) {
			b.Claim("active", false)
		}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})
}
