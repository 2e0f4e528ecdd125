// Package app owns the single session of a LegalTime client and wires the
// components that share it: the token store, the request gateway, the
// session state, the route guard and the resource client.
package app

import (
	"context"
	stderrors "errors"
	"net/http"
	"os"

	"github.com/felixgeelhaar/legaltime/internal/api"
	"github.com/felixgeelhaar/legaltime/internal/authz"
	"github.com/felixgeelhaar/legaltime/internal/config"
	"github.com/felixgeelhaar/legaltime/internal/errors"
	"github.com/felixgeelhaar/legaltime/internal/gateway"
	"github.com/felixgeelhaar/legaltime/internal/guard"
	"github.com/felixgeelhaar/legaltime/internal/log"
	"github.com/felixgeelhaar/legaltime/internal/session"
	"github.com/felixgeelhaar/legaltime/internal/token"
	"github.com/felixgeelhaar/legaltime/internal/tokenstore"
	"github.com/felixgeelhaar/legaltime/internal/version"
)

// App is the explicit context object handed to commands and views.
type App struct {
	Config  *config.Config
	Home    string
	Logger  *log.Logger
	Gateway *gateway.Client
	Store   tokenstore.Store
	Session *session.State
	Guard   *guard.Guard
	API     *api.Service

	owners      employeeIDs
	unsubscribe func()
}

type options struct {
	store     tokenstore.Store
	transport http.RoundTripper
	logger    *log.Logger
}

// Option customizes New.
type Option func(*options)

// WithStore replaces the token store chosen from the configuration.
func WithStore(s tokenstore.Store) Option {
	return func(o *options) { o.store = s }
}

// WithTransport sends every backend request through rt.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// WithLogger replaces the logger built from the configuration.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New builds the application from cfg. The session starts Loading; call
// Boot before making navigation decisions.
func New(cfg *config.Config, home string, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = log.New(log.FromSettings(cfg.Logging.Level, cfg.Logging.Format, os.Stderr))
	}

	gwOpts := []gateway.Option{
		gateway.WithTimeout(cfg.API.Timeout),
		gateway.WithLogger(logger),
		gateway.WithUserAgent(version.GetInfo().UserAgent()),
	}
	if len(cfg.API.ForceLogoutStatuses) > 0 {
		gwOpts = append(gwOpts, gateway.WithForceLogoutStatuses(cfg.API.ForceLogoutStatuses...))
	}
	if o.transport != nil {
		gwOpts = append(gwOpts, gateway.WithTransport(o.transport))
	}
	gw, err := gateway.New(cfg.API.URL, gwOpts...)
	if err != nil {
		return nil, err
	}

	store := o.store
	if store == nil {
		if cfg.Session.Persist && home != "" {
			store = tokenstore.InHome(home, cfg.Session.Passphrase)
		} else {
			store = tokenstore.NewMemoryStore()
		}
	}

	sess := session.New(store, gw, session.WithLogger(logger))
	g := guard.New(sess, logger)
	gw.OnAuthRejected(g.ForceLogout)

	a := &App{
		Config:  cfg,
		Home:    home,
		Logger:  logger,
		Gateway: gw,
		Store:   store,
		Session: sess,
		Guard:   g,
		API:     api.New(gw),
	}
	a.unsubscribe = sess.Subscribe(func(snap session.Snapshot) {
		if !snap.Authenticated() {
			a.owners.reset()
		}
	})
	return a, nil
}

// Boot hydrates the session from the token store.
func (a *App) Boot(ctx context.Context) session.Snapshot {
	return a.Session.Hydrate(ctx)
}

// Close detaches the guard from the session and the gateway.
func (a *App) Close() {
	a.Gateway.OnAuthRejected(nil)
	a.Guard.Close()
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
}

// Login exchanges credentials for a token and establishes the session.
// A token that cannot be decoded leaves the session logged out. A token
// that decodes but cannot be persisted still logs in; the store error is
// returned alongside an authenticated snapshot.
func (a *App) Login(ctx context.Context, email, password string) (session.Snapshot, error) {
	raw, err := a.Gateway.Login(ctx, email, password)
	if err != nil {
		return a.Session.Snapshot(), err
	}
	return a.Adopt(raw)
}

// Adopt establishes the session from a token obtained elsewhere.
func (a *App) Adopt(raw string) (session.Snapshot, error) {
	snap, err := a.Session.Establish(raw)
	if err != nil && stderrors.Is(err, token.ErrUndecodable) {
		return snap, errors.Wrap(errors.ErrCodeAPIDecode, "the server returned a token that could not be read", err).
			WithSuggestion("Check that api.url points at a LegalTime server")
	}
	return snap, err
}

// Logout clears the session and the persisted token.
func (a *App) Logout() error {
	return a.Session.Clear()
}

// RequireSession returns the current session or a not-logged-in error.
func (a *App) RequireSession() (session.Snapshot, error) {
	snap := a.Session.Snapshot()
	if !snap.Authenticated() {
		return snap, errors.NewNotLoggedInError()
	}
	return snap, nil
}

// Require fails unless a session exists and its role has c.
func (a *App) Require(c authz.Capability) error {
	snap, err := a.RequireSession()
	if err != nil {
		return err
	}
	return authz.Require(snap.Role(), c)
}

// Can reports whether the current role has c. Logged out sessions have
// nothing.
func (a *App) Can(c authz.Capability) bool {
	snap := a.Session.Snapshot()
	return snap.Authenticated() && authz.Can(snap.Role(), c)
}

// Navigation lists the views the current session may open.
func (a *App) Navigation() []authz.NavEntry {
	snap := a.Session.Snapshot()
	if !snap.Authenticated() {
		return nil
	}
	return authz.Navigation(snap.Role())
}

// Actions reports which buttons a view shows for resource.
func (a *App) Actions(resource authz.Resource) authz.ActionSet {
	snap := a.Session.Snapshot()
	if !snap.Authenticated() {
		return authz.ActionSet{}
	}
	return authz.Actions(snap.Role(), resource)
}

// Approve fetches the entry to learn its owner and approves it when the
// session may. Refused approvals send no approval call.
func (a *App) Approve(ctx context.Context, entryID int) (*api.TimeEntry, error) {
	if err := a.Require(authz.CapApproveTimeEntries); err != nil {
		return nil, err
	}
	entry, err := a.API.TimeEntries.Get(ctx, entryID)
	if err != nil {
		return nil, err
	}
	return a.ApproveEntry(ctx, *entry)
}

// ApproveEntry approves an entry the caller already holds. A senior lawyer
// whose token carries no employee id is matched against their own entries
// first, so their own work is refused before any approval call.
func (a *App) ApproveEntry(ctx context.Context, entry api.TimeEntry) (*api.TimeEntry, error) {
	snap, err := a.RequireSession()
	if err != nil {
		return nil, err
	}
	actor, _ := snap.Actor()
	if actor, err = a.resolveActor(ctx, snap, actor); err != nil {
		return nil, err
	}

	decision, err := authz.CanApprove(actor, entry.ID, entry.EmployeeID)
	if err != nil {
		a.Logger.InfoContext(ctx, "approval refused", "entry", entry.ID, "role", actor.Role, "reason", decision.Reason)
		return nil, err
	}
	if decision.Reason != "" {
		a.Logger.DebugContext(ctx, "approval deferred to server", "entry", entry.ID, "reason", decision.Reason)
	}
	return a.API.TimeEntries.Approve(ctx, entry.ID)
}
