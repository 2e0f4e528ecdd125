package authz

import "sort"

// Capability names a role-gated feature.
type Capability string

const (
	CapViewDashboard      Capability = "dashboard:view"
	CapViewTimeEntries    Capability = "time_entries:view"
	CapViewMatters        Capability = "matters:view"
	CapViewClients        Capability = "clients:view"
	CapViewContracts      Capability = "contracts:view"
	CapManageContracts    Capability = "contracts:manage"
	CapManageEmployees    Capability = "employees:manage"
	CapManageRates        Capability = "rates:manage"
	CapApproveTimeEntries Capability = "time_entries:approve"
	CapReviewTimeEntries  Capability = "time_entries:review"
	CapRunReports         Capability = "reports:run"
	CapRecalculateRates   Capability = "rates:recalculate"
)

// baseline is what every authenticated employee can do.
var baseline = []Capability{
	CapViewDashboard,
	CapViewTimeEntries,
	CapViewMatters,
	CapViewClients,
	CapViewContracts,
}

var policy = map[Role][]Capability{
	RoleLawyer: baseline,
	RoleSeniorLawyer: append(append([]Capability{}, baseline...),
		CapManageContracts,
		CapManageRates,
		CapApproveTimeEntries,
		CapReviewTimeEntries,
		CapRunReports,
	),
	RoleAdmin: append(append([]Capability{}, baseline...),
		CapManageContracts,
		CapManageEmployees,
		CapManageRates,
		CapApproveTimeEntries,
		CapReviewTimeEntries,
		CapRunReports,
		CapRecalculateRates,
	),
}

// CapabilitySet is an immutable set of capabilities.
type CapabilitySet struct {
	caps map[Capability]struct{}
}

// Capabilities returns the capability set for role. Unknown roles get the
// lawyer set.
func Capabilities(role Role) CapabilitySet {
	caps := policy[role.normalize()]
	set := CapabilitySet{caps: make(map[Capability]struct{}, len(caps))}
	for _, c := range caps {
		set.caps[c] = struct{}{}
	}
	return set
}

// Has reports whether c is in the set.
func (s CapabilitySet) Has(c Capability) bool {
	_, ok := s.caps[c]
	return ok
}

// List returns the capabilities in a stable order.
func (s CapabilitySet) List() []Capability {
	out := make([]Capability, 0, len(s.caps))
	for c := range s.caps {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Equal reports whether both sets hold the same capabilities.
func (s CapabilitySet) Equal(other CapabilitySet) bool {
	if len(s.caps) != len(other.caps) {
		return false
	}
	for c := range s.caps {
		if !other.Has(c) {
			return false
		}
	}
	return true
}

// Can is shorthand for Capabilities(role).Has(c).
func Can(role Role, c Capability) bool {
	return Capabilities(role).Has(c)
}
