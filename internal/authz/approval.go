package authz

import (
	"fmt"

	"github.com/felixgeelhaar/legaltime/internal/errors"
)

// Actor is the session identity an approval is evaluated for.
type Actor struct {
	Email string
	Role  Role
	// EmployeeID is nil when the token did not carry it.
	EmployeeID *int
}

// Decision is the outcome of a client-side check.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
}

// Err converts a refusal into a coded error, or nil when allowed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return errors.NewPolicyDeniedError(d.Reason)
}

// CanApprove decides whether actor may approve the time entry with the
// given id owned by ownerID. Senior lawyers may not approve their own
// entries. When the actor's employee id is unknown ownership cannot be
// checked locally and the backend has the final word.
func CanApprove(actor Actor, entryID, ownerID int) (Decision, error) {
	role := actor.Role.normalize()
	if !Can(role, CapApproveTimeEntries) {
		d := Decision{Reason: fmt.Sprintf("%s accounts cannot approve time entries", role.Label())}
		return d, d.Err()
	}

	if role == RoleSeniorLawyer {
		if actor.EmployeeID == nil {
			return Decision{Allowed: true, Reason: "ownership not verifiable locally"}, nil
		}
		if *actor.EmployeeID == ownerID {
			err := errors.NewSelfApprovalError(entryID)
			return Decision{Reason: err.Message}, err
		}
	}

	return Decision{Allowed: true}, nil
}

// Require returns a policy error when role lacks c.
func Require(role Role, c Capability) error {
	if Can(role, c) {
		return nil
	}
	return errors.NewPolicyDeniedError(fmt.Sprintf("%s accounts do not have %s", role.normalize().Label(), c))
}
