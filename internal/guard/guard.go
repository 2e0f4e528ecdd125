// Package guard decides which views the current session may open.
//
// The guard follows the session: it starts Loading, resolves once the
// session is hydrated, and then cycles between Authenticated and
// Unauthenticated for the life of the process.
package guard

import (
	"context"
	"sync"

	"github.com/felixgeelhaar/legaltime/internal/authz"
	"github.com/felixgeelhaar/legaltime/internal/log"
	"github.com/felixgeelhaar/legaltime/internal/session"
)

// SessionExpiredNotice is shown after a forced logout.
const SessionExpiredNotice = "session expired, please log in again"

// State is the guard's position.
type State int

const (
	Loading State = iota
	Authenticated
	Unauthenticated
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Decision is the outcome of a navigation request.
type Decision int

const (
	// Wait means hydration is still running; show a placeholder.
	Wait Decision = iota
	// Render means the view may be shown.
	Render
	// RedirectLogin sends an unauthenticated user to the login view.
	RedirectLogin
	// RedirectHome sends an authenticated user away from the login view.
	RedirectHome
	// Forbidden means the role lacks the view's capability.
	Forbidden
)

func (d Decision) String() string {
	switch d {
	case Wait:
		return "wait"
	case Render:
		return "render"
	case RedirectLogin:
		return "redirect-login"
	case RedirectHome:
		return "redirect-home"
	case Forbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Reason explains a transition.
type Reason string

const (
	ReasonHydrated     Reason = "hydrated"
	ReasonLogin        Reason = "login"
	ReasonLogout       Reason = "logout"
	ReasonForcedLogout Reason = "forced-logout"
)

// Transition is delivered to observers on every state change.
type Transition struct {
	From   State
	To     State
	Reason Reason
	Role   authz.Role
}

// Session is what the guard needs from session.State.
type Session interface {
	Snapshot() session.Snapshot
	Subscribe(fn func(session.Snapshot)) (unsubscribe func())
	Clear() error
}

// Guard tracks session state and answers navigation requests.
type Guard struct {
	session Session
	logger  *log.Logger

	mu        sync.Mutex
	state     State
	role      authz.Role
	forcing   bool
	notice    string
	observers []func(Transition)

	unsubscribe func()
}

// New attaches a guard to sess. Call Close to detach it.
func New(sess Session, logger *log.Logger) *Guard {
	if logger == nil {
		logger = log.Discard()
	}
	g := &Guard{
		session: sess,
		logger:  logger.WithComponent("guard"),
		state:   Loading,
	}
	g.unsubscribe = sess.Subscribe(g.apply)
	g.apply(sess.Snapshot())
	return g
}

// Close stops following the session.
func (g *Guard) Close() {
	if g.unsubscribe != nil {
		g.unsubscribe()
	}
}

// State returns the current state.
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Role returns the role the guard last saw, or "" when not authenticated.
func (g *Guard) Role() authz.Role {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.role
}

// Home is where authenticated users land.
func (g *Guard) Home() authz.Route {
	return authz.RouteDashboard
}

// OnTransition registers an observer for state changes.
func (g *Guard) OnTransition(fn func(Transition)) {
	g.mu.Lock()
	g.observers = append(g.observers, fn)
	g.mu.Unlock()
}

// Notice returns the pending user notice without consuming it.
func (g *Guard) Notice() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.notice
}

// TakeNotice returns and clears the pending user notice.
func (g *Guard) TakeNotice() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := g.notice
	g.notice = ""
	return n
}

// Decide answers whether route may be shown now.
func (g *Guard) Decide(route authz.Route) Decision {
	g.mu.Lock()
	state, role := g.state, g.role
	g.mu.Unlock()

	switch state {
	case Loading:
		return Wait
	case Unauthenticated:
		if route == authz.RouteLogin {
			return Render
		}
		return RedirectLogin
	}

	if route == authz.RouteLogin {
		return RedirectHome
	}
	if c, ok := authz.RequiredCapability(route); ok && !authz.Can(role, c) {
		return Forbidden
	}
	return Render
}

// ForceLogout ends an authenticated session after the backend rejected its
// credential. It is a no-op unless the guard is Authenticated. The
// signature matches gateway.AuthRejectedHandler.
func (g *Guard) ForceLogout(ctx context.Context, status int) {
	g.mu.Lock()
	if g.state != Authenticated {
		g.mu.Unlock()
		return
	}
	g.forcing = true
	g.mu.Unlock()

	g.logger.InfoContext(ctx, "forcing logout", "status", status)
	if err := g.session.Clear(); err != nil {
		g.logger.WarnContext(ctx, "forced logout could not clear persisted token", "error", err)
	}
}

func (g *Guard) apply(snap session.Snapshot) {
	g.mu.Lock()

	from := g.state
	var to State
	switch {
	case snap.Loading:
		to = Loading
	case snap.Authenticated():
		to = Authenticated
	default:
		to = Unauthenticated
	}

	g.role = snap.Role()

	var reason Reason
	switch {
	case from == Loading && to != Loading:
		reason = ReasonHydrated
	case to == Authenticated && from != Authenticated:
		reason = ReasonLogin
		g.notice = ""
	case from == Authenticated && to == Unauthenticated && g.forcing:
		reason = ReasonForcedLogout
		g.notice = SessionExpiredNotice
	case from == Authenticated && to == Unauthenticated:
		reason = ReasonLogout
	}
	// Only a logged out snapshot spends the flag; a session change that
	// lands before the forced Clear leaves it for the Clear.
	if to == Unauthenticated {
		g.forcing = false
	}
	g.state = to

	observers := append([]func(Transition){}, g.observers...)
	g.mu.Unlock()

	if from == to {
		return
	}

	t := Transition{From: from, To: to, Reason: reason, Role: snap.Role()}
	g.logger.Debug("transition", "from", from, "to", to, "reason", reason, "role", t.Role)
	for _, fn := range observers {
		fn(t)
	}
}
