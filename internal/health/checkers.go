package health

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/legaltime/internal/apicheck"
	"github.com/felixgeelhaar/legaltime/internal/errors"
	"github.com/felixgeelhaar/legaltime/internal/session"
	"github.com/felixgeelhaar/legaltime/internal/tokenstore"
)

// StoreChecker verifies that the persisted token can be read.
type StoreChecker struct {
	store tokenstore.Store
}

func NewStoreChecker(store tokenstore.Store) *StoreChecker {
	return &StoreChecker{store: store}
}

func (c *StoreChecker) Name() string { return "Token store" }

func (c *StoreChecker) Check(ctx context.Context) *Result {
	fs, ok := c.store.(*tokenstore.FileStore)
	if !ok {
		return Healthy("in memory; sessions end with each command").
			WithDetail("kind", "memory").
			WithNextStep("Keep sessions between commands: legaltime config set session.persist true")
	}

	if _, _, err := fs.Load(); err != nil {
		return Unhealthy(err.Error()).
			WithDetail("path", fs.Path()).
			WithNextStep("Log in again: legaltime auth logout && legaltime auth login")
	}

	msg := fs.Path()
	if fs.Encrypted() {
		msg += " (encrypted)"
	}
	return Healthy(msg).
		WithDetail("kind", "file").
		WithDetail("path", fs.Path()).
		WithDetail("encrypted", fs.Encrypted())
}

// SlowBackend is the latency above which the backend is reported degraded.
const SlowBackend = 5 * time.Second

// BackendChecker downloads the backend's OpenAPI document and checks that
// every endpoint the client calls is published.
type BackendChecker struct {
	downloader apicheck.Downloader
	url        string
	required   []apicheck.Endpoint
}

func NewBackendChecker(d apicheck.Downloader, url string) *BackendChecker {
	return &BackendChecker{downloader: d, url: url, required: apicheck.Required()}
}

func (c *BackendChecker) Name() string { return "Backend" }

func (c *BackendChecker) Check(ctx context.Context) *Result {
	start := time.Now()
	checker, err := apicheck.Fetch(ctx, c.downloader)
	latency := time.Since(start)
	if err != nil {
		if errors.IsNetwork(err) || ctx.Err() != nil {
			return Unhealthy(fmt.Sprintf("cannot reach %s", c.url)).
				WithLatency(latency).
				WithNextStep("Start the backend or set api.url: legaltime config set api.url <url>")
		}
		return Unhealthy(err.Error()).WithLatency(latency)
	}

	findings := checker.Check(c.required)
	missing := 0
	for _, f := range findings {
		if f.Severity == "error" {
			missing++
		}
	}

	msg := fmt.Sprintf("%s at %s (%dms)", checker.Title(), c.url, latency.Milliseconds())
	var r *Result
	switch {
	case missing > 0:
		r = Unhealthy(fmt.Sprintf("%s; %d of %d endpoints not published", msg, missing, len(c.required))).
			WithNextStep("Upgrade the backend or use a client built for its version")
	case latency > SlowBackend:
		r = Degraded(msg + " - high latency")
	default:
		r = Healthy(fmt.Sprintf("%s; %d endpoints published", msg, len(c.required)))
	}
	return r.WithLatency(latency).WithDetail("findings", findings)
}

// Snapshotter is the part of the session SessionChecker reads.
type Snapshotter interface {
	Snapshot() session.Snapshot
}

// SessionChecker reports who is logged in.
type SessionChecker struct {
	session Snapshotter
	now     func() time.Time
}

func NewSessionChecker(s Snapshotter) *SessionChecker {
	return &SessionChecker{session: s, now: time.Now}
}

func (c *SessionChecker) Name() string { return "Session" }

func (c *SessionChecker) Check(ctx context.Context) *Result {
	snap := c.session.Snapshot()
	if !snap.Authenticated() {
		return Degraded("not logged in").WithNextStep("Log in: legaltime auth login")
	}

	msg := fmt.Sprintf("%s (%s)", snap.Email(), snap.Role().Label())
	if snap.Claims.Expired(c.now()) {
		// Expiry is only advisory; the backend decides.
		return Degraded(msg + "; token expired, the backend will ask you to log in again")
	}
	return Healthy(msg).WithDetail("role", string(snap.Role()))
}
