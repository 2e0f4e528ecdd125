// Package health runs the client's readiness checks: token store,
// backend contract and current session.
//
//	m := health.NewManager().WithTimeout(10 * time.Second)
//	m.AddChecker(health.NewStoreChecker(a.Store))
//	m.AddChecker(health.NewBackendChecker(a.Gateway, a.Gateway.BaseURL()))
//	for _, r := range m.Check(ctx) {
//	    fmt.Println(r.Name, r.Status)
//	}
package health

import (
	"context"
	"time"
)

// Checker verifies one dependency of the client.
type Checker interface {
	// Name is shown to the user, e.g. "Token store".
	Name() string

	// Check must respect the context deadline.
	Check(ctx context.Context) *Result
}

// Status represents the health check status.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
	// StatusSkipped means a prerequisite failed and nothing was checked.
	StatusSkipped Status = "skipped"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// Result represents the result of a health check.
type Result struct {
	Status  Status
	Message string

	// NextStep tells the user how to fix a degraded or unhealthy result.
	NextStep string

	// Details carries structured data for machine-readable output.
	Details map[string]interface{}

	Latency time.Duration
}

// NewResult creates a new health check result with the given status and message.
func NewResult(status Status, message string) *Result {
	return &Result{
		Status:  status,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// WithDetail adds a detail to the result and returns the result for chaining.
func (r *Result) WithDetail(key string, value interface{}) *Result {
	r.Details[key] = value
	return r
}

// WithLatency sets the latency and returns the result for chaining.
func (r *Result) WithLatency(latency time.Duration) *Result {
	r.Latency = latency
	return r
}

// WithNextStep sets the remedy and returns the result for chaining.
func (r *Result) WithNextStep(step string) *Result {
	r.NextStep = step
	return r
}

func Healthy(message string) *Result {
	return NewResult(StatusHealthy, message)
}

func Degraded(message string) *Result {
	return NewResult(StatusDegraded, message)
}

func Unhealthy(message string) *Result {
	return NewResult(StatusUnhealthy, message)
}

func Skipped(message string) *Result {
	return NewResult(StatusSkipped, message)
}
