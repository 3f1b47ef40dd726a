package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/opsdesk/opsdesk/internal/shared"
)

func newSessionContext(t *testing.T, token string) (context.Context, *shared.Session, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sm := shared.NewSessionManager(client, "opsdesk_session", "secret", time.Hour, false)
	sess, err := sm.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.SetToken(token)
	require.NoError(t, sm.Commit(context.Background(), httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), sess))
	require.NotEmpty(t, sess.ID)

	return shared.ContextWithSession(context.Background(), sess), sess, mr
}

func newClient(t *testing.T, baseURL string, sessions *shared.SessionManager) *Client {
	t.Helper()
	c, err := New(baseURL, sessions, nil)
	require.NoError(t, err)
	return c
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "op-1",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return token
}

func TestClientAttachesSessionBearer(t *testing.T) {
	var gotAuth atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	ctx, _, mr := newSessionContext(t, "operator-token")
	_ = mr
	c := newClient(t, server.URL, nil)

	var out any
	require.NoError(t, c.Get(ctx, "admin/payouts", nil, &out))
	require.Equal(t, "Bearer operator-token", gotAuth.Load())
}

func TestClientFallsBackToServiceToken(t *testing.T) {
	var gotAuth atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	c, err := New(server.URL, nil, nil, WithServiceToken("svc-token"))
	require.NoError(t, err)

	var out any
	require.NoError(t, c.Get(context.Background(), "admin/payouts", nil, &out))
	require.Equal(t, "Bearer svc-token", gotAuth.Load())
}

func TestClientRejectsUnauthenticatedCalls(t *testing.T) {
	c := newClient(t, "http://127.0.0.1:0", nil)

	err := c.Get(context.Background(), "admin/payouts", nil, nil)
	require.ErrorIs(t, err, shared.ErrNotAuthenticated)
}

func TestClientUpstream401DestroysSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })
	sm := shared.NewSessionManager(redisClient, "opsdesk_session", "secret", time.Hour, false)

	sess, err := sm.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.SetToken("stale-token")
	require.NoError(t, sm.Commit(context.Background(), httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), sess))
	require.True(t, mr.Exists("opsdesk:session:"+sess.ID))

	ctx := shared.ContextWithSession(context.Background(), sess)
	c := newClient(t, server.URL, sm)

	err = c.Get(ctx, "admin/payouts", nil, nil)
	require.ErrorIs(t, err, shared.ErrSessionExpired)
	require.True(t, sess.Destroyed())
	require.False(t, mr.Exists("opsdesk:session:"+sess.ID))
}

func TestClientExpiredJWTShortCircuits(t *testing.T) {
	serverHit := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serverHit = true
	}))
	defer server.Close()

	ctx, sess, _ := newSessionContext(t, signedToken(t, time.Now().Add(-time.Hour)))
	c := newClient(t, server.URL, sessionManagerOf(t, sess))

	err := c.Get(ctx, "admin/payouts", nil, nil)
	require.ErrorIs(t, err, shared.ErrSessionExpired)
	require.False(t, serverHit, "an expired bearer must not reach the upstream")
	require.True(t, sess.Destroyed())
}

func TestClientLiveJWTPassesPreCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	ctx, _, _ := newSessionContext(t, signedToken(t, time.Now().Add(time.Hour)))
	c := newClient(t, server.URL, nil)

	require.NoError(t, c.Get(ctx, "admin/payouts", nil, nil))
}

func TestClientSurfacesBackendFailureMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":"error","message":"payout already disbursed"}`))
	}))
	defer server.Close()

	ctx, _, _ := newSessionContext(t, "operator-token")
	c := newClient(t, server.URL, nil)

	err := c.Post(ctx, "admin/payouts/p1/approve", map[string]any{}, nil)
	var ue *Error
	require.ErrorAs(t, err, &ue)
	require.Equal(t, http.StatusBadRequest, ue.Status)
	require.Equal(t, "payout already disbursed", ue.UserMessage())
}

func TestListPageBuildsQuery(t *testing.T) {
	var gotQuery atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.Query().Encode())
		_, _ = w.Write([]byte(`{"data":{"docs":[{"id":"a"}],"totalPages":3,"totalDocs":25}}`))
	}))
	defer server.Close()

	ctx, _, _ := newSessionContext(t, "operator-token")
	c := newClient(t, server.URL, nil)

	page, err := c.ListPage(ctx, "admin/payouts", 2, 10, map[string]string{"status": "pending", "skip": ""})
	require.NoError(t, err)
	require.Equal(t, "limit=10&page=2&status=pending", gotQuery.Load())
	require.Len(t, page.Items, 1)
	require.Equal(t, 3, page.TotalPages)
	require.Equal(t, 25, page.TotalItems)
}

func TestDetailUnwrapsEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/admin/payouts/p1", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":{"id":"p1","amount":5000}}`))
	}))
	defer server.Close()

	ctx, _, _ := newSessionContext(t, "operator-token")
	c := newClient(t, server.URL, nil)

	var out struct {
		ID     string  `json:"id"`
		Amount float64 `json:"amount"`
	}
	require.NoError(t, c.Detail(ctx, "admin/payouts", "p1", &out))
	require.Equal(t, "p1", out.ID)
	require.Equal(t, 5000.0, out.Amount)
}

// sessionManagerOf rebuilds a manager bound to the same redis the session
// was persisted in, for tests that need the 401 teardown path.
func sessionManagerOf(t *testing.T, sess *shared.Session) *shared.SessionManager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return shared.NewSessionManager(client, "opsdesk_session", "secret", time.Hour, false)
}
