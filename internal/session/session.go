// Package session holds the identity of the current LegalTime user.
//
// A State is created empty and loading, hydrated once from the token
// store, then replaced wholesale by Establish or emptied by Clear. Both
// mutators update the gateway credential before they return, so any call
// dispatched afterwards carries the new credential.
package session

import (
	"context"
	"strings"
	"sync"

	"github.com/felixgeelhaar/legaltime/internal/authz"
	"github.com/felixgeelhaar/legaltime/internal/errors"
	"github.com/felixgeelhaar/legaltime/internal/log"
	"github.com/felixgeelhaar/legaltime/internal/token"
	"github.com/felixgeelhaar/legaltime/internal/tokenstore"
)

// CredentialSetter is the part of the request gateway the session drives.
type CredentialSetter interface {
	SetCredential(raw string)
	ClearCredential()
}

// Snapshot is an immutable view of the session.
type Snapshot struct {
	RawToken string
	Claims   *token.Claims
	Loading  bool
}

// Authenticated reports whether a decodable token is present.
func (s Snapshot) Authenticated() bool {
	return s.Claims != nil
}

// Role returns the session role, or "" when logged out.
func (s Snapshot) Role() authz.Role {
	if s.Claims == nil {
		return ""
	}
	return s.Claims.Role()
}

// Email returns the subject, or "" when logged out.
func (s Snapshot) Email() string {
	if s.Claims == nil {
		return ""
	}
	return s.Claims.Subject
}

// Actor returns the identity for approval checks.
func (s Snapshot) Actor() (authz.Actor, bool) {
	if s.Claims == nil {
		return authz.Actor{}, false
	}
	return s.Claims.Actor(), true
}

// State is the single session of a running client.
type State struct {
	mu     sync.Mutex
	store  tokenstore.Store
	cred   CredentialSetter
	logger *log.Logger
	snap   Snapshot

	subMu  sync.Mutex
	subs   map[int]func(Snapshot)
	nextID int
}

// Option configures a State.
type Option func(*State)

// WithLogger sets the session logger.
func WithLogger(l *log.Logger) Option {
	return func(s *State) {
		if l != nil {
			s.logger = l.WithComponent("session")
		}
	}
}

// New returns an empty, loading session over store. cred may be nil.
func New(store tokenstore.Store, cred CredentialSetter, opts ...Option) *State {
	s := &State{
		store:  store,
		cred:   cred,
		logger: log.Discard(),
		snap:   Snapshot{Loading: true},
		subs:   map[int]func(Snapshot){},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hydrate loads the persisted token and resolves the session. It never
// fails: an unreadable store or undecodable token resolves to logged out.
// Undecodable tokens are removed from the store.
func (s *State) Hydrate(ctx context.Context) Snapshot {
	s.mu.Lock()

	raw, ok, err := s.store.Load()
	switch {
	case err != nil:
		s.logger.WarnContext(ctx, "could not read persisted token", "error", err)
		s.resetLocked()
	case !ok:
		s.resetLocked()
	default:
		raw = strings.TrimSpace(raw)
		claims, err := token.Decode(raw)
		if err != nil {
			s.logger.DebugContext(ctx, "discarding persisted token", "token", token.Fingerprint(raw), "error", err)
			s.purgeLocked()
		} else {
			s.setLocked(raw, claims)
		}
	}

	snap := s.snap
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "session hydrated", "authenticated", snap.Authenticated(), "role", snap.Role())
	s.notify(snap)
	return snap
}

// Establish replaces the session with raw. If raw cannot be decoded the
// session becomes logged out, the store is purged and a DecodeError is
// returned. If raw decodes but cannot be persisted, the session is still
// established for this process and the store error is returned.
// Surrounding whitespace is not part of the token.
func (s *State) Establish(raw string) (Snapshot, error) {
	raw = strings.TrimSpace(raw)
	claims, decodeErr := token.Decode(raw)

	s.mu.Lock()
	var err error
	if decodeErr != nil {
		s.purgeLocked()
		err = decodeErr
	} else {
		s.setLocked(raw, claims)
		if saveErr := s.store.Save(raw); saveErr != nil {
			err = errors.Wrap(errors.ErrCodeTokenStore, "session could not be saved", saveErr).
				WithSuggestion("You will need to log in again next time")
		}
	}
	snap := s.snap
	s.mu.Unlock()

	s.logger.Debug("session established", "authenticated", snap.Authenticated(), "role", snap.Role(), "token", token.Fingerprint(raw))
	s.notify(snap)
	return snap, err
}

// Clear logs the session out and removes the persisted token. Clearing an
// empty session is a no-op apart from notifying subscribers again.
func (s *State) Clear() error {
	s.mu.Lock()
	err := s.purgeLocked()
	snap := s.snap
	s.mu.Unlock()

	s.logger.Debug("session cleared")
	s.notify(snap)
	return err
}

// Snapshot returns the current session.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Role returns the current role, or "" when logged out.
func (s *State) Role() authz.Role {
	return s.Snapshot().Role()
}

// IsAuthenticated reports whether a decodable token is present.
func (s *State) IsAuthenticated() bool {
	return s.Snapshot().Authenticated()
}

// IsLoading reports whether hydration has not finished yet.
func (s *State) IsLoading() bool {
	return s.Snapshot().Loading
}

// RawToken returns the current token, or "".
func (s *State) RawToken() string {
	return s.Snapshot().RawToken
}

// Subscribe registers fn to receive every new snapshot. Calls happen after
// the mutation completes, outside the session lock.
func (s *State) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *State) notify(snap Snapshot) {
	s.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func (s *State) setLocked(raw string, claims *token.Claims) {
	s.snap = Snapshot{RawToken: raw, Claims: claims}
	if s.cred != nil {
		s.cred.SetCredential(raw)
	}
}

func (s *State) resetLocked() {
	s.snap = Snapshot{}
	if s.cred != nil {
		s.cred.ClearCredential()
	}
}

func (s *State) purgeLocked() error {
	s.resetLocked()
	if err := s.store.Clear(); err != nil {
		s.logger.Warn("could not remove persisted token", "error", err)
		return err
	}
	return nil
}
