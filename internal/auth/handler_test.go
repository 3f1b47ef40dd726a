package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/opsdesk/opsdesk/internal/shared"
	"github.com/opsdesk/opsdesk/internal/upstream"
)

type authHarness struct {
	router  http.Handler
	session *shared.Session
}

func newAuthHarness(t *testing.T, upstreamHandler http.Handler) *authHarness {
	t.Helper()

	server := httptest.NewServer(upstreamHandler)
	t.Cleanup(server.Close)

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	sessions := shared.NewSessionManager(redisClient, "opsdesk_session", "secret", time.Hour, false)
	sess, err := sessions.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	client, err := upstream.New(server.URL, sessions, nil)
	require.NoError(t, err)

	handler := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), client, sessions, shared.NewCSRFManager("csrf-secret"))
	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(shared.ContextWithSession(r.Context(), sess)))
		})
	})
	handler.MountRoutes(router)

	return &authHarness{router: router, session: sess}
}

func (h *authHarness) post(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func TestLoginStoresTokenAndOperator(t *testing.T) {
	h := newAuthHarness(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/login", r.URL.Path)
		require.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"data":{"token":"fresh-bearer","operator":{"id":"op-7","email":"ops@example.com"}}}`))
	}))

	rec := h.post(t, "/login", map[string]string{"email": "ops@example.com", "password": "correct-horse"})
	require.Equal(t, http.StatusOK, rec.Code)

	var res struct {
		Operator  string `json:"operator"`
		CSRFToken string `json:"csrfToken"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, "op-7", res.Operator)
	require.NotEmpty(t, res.CSRFToken)
	require.Equal(t, "fresh-bearer", h.session.Token())
	require.True(t, h.session.Authenticated())
}

func TestLoginAcceptsFlatTokenShape(t *testing.T) {
	h := newAuthHarness(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"token":"flat-bearer"}`))
	}))

	rec := h.post(t, "/login", map[string]string{"email": "ops@example.com", "password": "correct-horse"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "flat-bearer", h.session.Token())
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	h := newAuthHarness(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid credentials"}`))
	}))

	rec := h.post(t, "/login", map[string]string{"email": "ops@example.com", "password": "wrong-password"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.False(t, h.session.Authenticated())
}

func TestLoginValidatesInput(t *testing.T) {
	h := newAuthHarness(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("upstream must not be called for invalid input")
	}))

	rec := h.post(t, "/login", map[string]string{"email": "not-an-email", "password": "correct-horse"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.post(t, "/login", map[string]string{"email": "ops@example.com", "password": "short"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginWithoutTokenIsBadGateway(t *testing.T) {
	h := newAuthHarness(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"operator":{"id":"op-7"}}}`))
	}))

	rec := h.post(t, "/login", map[string]string{"email": "ops@example.com", "password": "correct-horse"})
	require.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestLogoutDestroysSession(t *testing.T) {
	h := newAuthHarness(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"token":"flat-bearer"}`))
	}))

	rec := h.post(t, "/login", map[string]string{"email": "ops@example.com", "password": "correct-horse"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.post(t, "/logout", map[string]string{})
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.True(t, h.session.Destroyed())
	require.False(t, h.session.Authenticated())
}

func TestSessionEndpointReflectsAuthState(t *testing.T) {
	h := newAuthHarness(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"token":"flat-bearer"}`))
	}))

	req := httptest.NewRequest(http.MethodGet, "/session", nil)
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	require.Equal(t, http.StatusOK, h.post(t, "/login", map[string]string{"email": "ops@example.com", "password": "correct-horse"}).Code)

	rec = httptest.NewRecorder()
	h.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/session", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}
