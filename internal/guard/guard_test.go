package guard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/legaltime/internal/authz"
	"github.com/felixgeelhaar/legaltime/internal/errors"
	"github.com/felixgeelhaar/legaltime/internal/gateway"
	"github.com/felixgeelhaar/legaltime/internal/session"
	"github.com/felixgeelhaar/legaltime/internal/token"
	"github.com/felixgeelhaar/legaltime/internal/tokenstore"
)

func mint(t *testing.T, sub, role string) string {
	t.Helper()
	claims := token.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: sub}, RawRole: role}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	require.NoError(t, err)
	return raw
}

func setup(t *testing.T) (*Guard, *session.State, *tokenstore.MemoryStore, *[]Transition) {
	t.Helper()
	store := tokenstore.NewMemoryStore()
	sess := session.New(store, nil)
	g := New(sess, nil)
	t.Cleanup(g.Close)

	var transitions []Transition
	g.OnTransition(func(tr Transition) { transitions = append(transitions, tr) })
	return g, sess, store, &transitions
}

func TestInitialStateIsLoading(t *testing.T) {
	g, _, _, _ := setup(t)
	assert.Equal(t, Loading, g.State())
	for _, r := range []authz.Route{authz.RouteLogin, authz.RouteDashboard, authz.RouteRates} {
		assert.Equal(t, Wait, g.Decide(r), "loading makes no navigation decision for %s", r)
	}
}

func TestHydration(t *testing.T) {
	t.Run("to unauthenticated", func(t *testing.T) {
		g, sess, _, tr := setup(t)
		sess.Hydrate(context.Background())

		assert.Equal(t, Unauthenticated, g.State())
		require.Len(t, *tr, 1)
		assert.Equal(t, Transition{From: Loading, To: Unauthenticated, Reason: ReasonHydrated}, (*tr)[0])
		assert.Equal(t, Render, g.Decide(authz.RouteLogin))
		assert.Equal(t, RedirectLogin, g.Decide(authz.RouteDashboard))
	})

	t.Run("to authenticated", func(t *testing.T) {
		g, sess, store, tr := setup(t)
		require.NoError(t, store.Save(mint(t, "a@x.com", "lawyer")))
		sess.Hydrate(context.Background())

		assert.Equal(t, Authenticated, g.State())
		require.Len(t, *tr, 1)
		assert.Equal(t, ReasonHydrated, (*tr)[0].Reason)
		assert.Equal(t, authz.RoleLawyer, (*tr)[0].Role)
	})

	t.Run("undecodable token", func(t *testing.T) {
		g, sess, store, _ := setup(t)
		require.NoError(t, store.Save("x.y"))
		sess.Hydrate(context.Background())
		assert.Equal(t, Unauthenticated, g.State())
	})
}

func TestDecide_Authenticated(t *testing.T) {
	g, sess, _, _ := setup(t)
	sess.Hydrate(context.Background())
	_, err := sess.Establish(mint(t, "l@x.com", "lawyer"))
	require.NoError(t, err)

	tests := []struct {
		route authz.Route
		want  Decision
	}{
		{authz.RouteLogin, RedirectHome},
		{authz.RouteDashboard, Render},
		{authz.RouteTimeEntries, Render},
		{authz.RouteContracts, Render},
		{authz.RouteEmployees, Forbidden},
		{authz.RouteRates, Forbidden},
		{authz.RouteReports, Forbidden},
		{authz.Route("settings"), Render},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, g.Decide(tt.route), "route %s", tt.route)
	}

	_, err = sess.Establish(mint(t, "a@x.com", "admin"))
	require.NoError(t, err)
	assert.Equal(t, Render, g.Decide(authz.RouteEmployees))
	assert.Equal(t, authz.RoleAdmin, g.Role())
}

func TestLoginLogoutCycle(t *testing.T) {
	g, sess, _, tr := setup(t)
	sess.Hydrate(context.Background())

	_, err := sess.Establish(mint(t, "a@x.com", "admin"))
	require.NoError(t, err)
	assert.Equal(t, Authenticated, g.State())

	require.NoError(t, sess.Clear())
	assert.Equal(t, Unauthenticated, g.State())
	assert.Empty(t, g.Notice(), "explicit logout posts no notice")

	_, err = sess.Establish(mint(t, "a@x.com", "admin"))
	require.NoError(t, err)

	reasons := []Reason{}
	for _, x := range *tr {
		reasons = append(reasons, x.Reason)
	}
	assert.Equal(t, []Reason{ReasonHydrated, ReasonLogin, ReasonLogout, ReasonLogin}, reasons)
}

func TestForceLogout_IgnoredUnlessAuthenticated(t *testing.T) {
	g, sess, _, tr := setup(t)

	g.ForceLogout(context.Background(), 401)
	assert.Equal(t, Loading, g.State())

	sess.Hydrate(context.Background())
	g.ForceLogout(context.Background(), 401)
	assert.Equal(t, Unauthenticated, g.State())
	assert.Empty(t, g.Notice())
	assert.Len(t, *tr, 1)
}

// A rejected call while Authenticated demotes the guard, clears the
// persisted token and makes the login view reachable.
func TestForcedLogoutOnRejectedCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Could not validate credentials"}`))
	}))
	defer srv.Close()

	gw, err := gateway.New(srv.URL)
	require.NoError(t, err)

	store := tokenstore.NewMemoryStore()
	// The token is expired, but decoding does not check expiry.
	expired := token.Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "a@x.com",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}, RawRole: "senior_lawyer"}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, expired).SignedString([]byte("k"))
	require.NoError(t, err)
	require.NoError(t, store.Save(raw))

	sess := session.New(store, gw)
	g := New(sess, nil)
	defer g.Close()
	gw.OnAuthRejected(g.ForceLogout)

	var tr []Transition
	g.OnTransition(func(x Transition) { tr = append(tr, x) })

	assert.Equal(t, Loading, g.State())
	sess.Hydrate(context.Background())
	assert.Equal(t, Authenticated, g.State(), "expired token is accepted optimistically")

	err = gw.Get(context.Background(), "/time-entries/", nil, nil)
	require.Error(t, err)
	assert.True(t, errors.IsAuthRejected(err))

	assert.Equal(t, Unauthenticated, g.State())
	assert.Equal(t, Render, g.Decide(authz.RouteLogin))
	assert.Equal(t, SessionExpiredNotice, g.TakeNotice())
	assert.Empty(t, g.Notice())

	_, ok, _ := store.Load()
	assert.False(t, ok)
	assert.Empty(t, gw.Credential())

	require.Len(t, tr, 2)
	assert.Equal(t, ReasonForcedLogout, tr[1].Reason)
}

// A session change that lands between ForceLogout deciding to log out and
// its Clear does not swallow the forced logout.
func TestForceLogout_InterleavedEstablish(t *testing.T) {
	g, sess, _, tr := setup(t)
	sess.Hydrate(context.Background())
	_, err := sess.Establish(mint(t, "a@x.com", "admin"))
	require.NoError(t, err)

	g.mu.Lock()
	g.forcing = true
	g.mu.Unlock()

	_, err = sess.Establish(mint(t, "b@x.com", "lawyer"))
	require.NoError(t, err)
	assert.Empty(t, g.Notice())
	require.NoError(t, sess.Clear())

	assert.Equal(t, Unauthenticated, g.State())
	assert.Equal(t, SessionExpiredNotice, g.Notice())
	last := (*tr)[len(*tr)-1]
	assert.Equal(t, ReasonForcedLogout, last.Reason)

	// The flag is spent; the next logout is voluntary.
	_, err = sess.Establish(mint(t, "a@x.com", "admin"))
	require.NoError(t, err)
	require.NoError(t, sess.Clear())
	assert.Equal(t, ReasonLogout, (*tr)[len(*tr)-1].Reason)
	assert.Empty(t, g.Notice())
}

func TestNoticeClearedByLogin(t *testing.T) {
	g, sess, _, _ := setup(t)
	sess.Hydrate(context.Background())
	_, err := sess.Establish(mint(t, "a@x.com", "admin"))
	require.NoError(t, err)

	g.ForceLogout(context.Background(), 403)
	assert.Equal(t, SessionExpiredNotice, g.Notice())

	_, err = sess.Establish(mint(t, "a@x.com", "admin"))
	require.NoError(t, err)
	assert.Empty(t, g.Notice())
}

func TestStrings(t *testing.T) {
	assert.Equal(t, "loading", Loading.String())
	assert.Equal(t, "unauthenticated", Unauthenticated.String())
	assert.Equal(t, "redirect-login", RedirectLogin.String())
	assert.Equal(t, "forbidden", Forbidden.String())
}
