package authz

// Resource is a collection the in-page actions apply to.
type Resource string

const (
	ResourceTimeEntries Resource = "time-entries"
	ResourceMatters     Resource = "matters"
	ResourceClients     Resource = "clients"
	ResourceContracts   Resource = "contracts"
	ResourceEmployees   Resource = "employees"
	ResourceRates       Resource = "rates"
)

// ActionSet lists the in-page actions enabled for a resource.
type ActionSet struct {
	Create  bool `json:"create"`
	Edit    bool `json:"edit"`
	Delete  bool `json:"delete"`
	Approve bool `json:"approve"`
}

func crud(enabled bool) ActionSet {
	return ActionSet{Create: enabled, Edit: enabled, Delete: enabled}
}

// Actions returns the actions role may trigger on resource.
func Actions(role Role, resource Resource) ActionSet {
	caps := Capabilities(role)
	switch resource {
	case ResourceTimeEntries:
		set := crud(caps.Has(CapViewTimeEntries))
		set.Approve = caps.Has(CapApproveTimeEntries)
		return set
	case ResourceMatters:
		return crud(caps.Has(CapViewMatters))
	case ResourceClients:
		return crud(caps.Has(CapViewClients))
	case ResourceContracts:
		return crud(caps.Has(CapManageContracts))
	case ResourceEmployees:
		return crud(caps.Has(CapManageEmployees))
	case ResourceRates:
		return crud(caps.Has(CapManageRates))
	default:
		return ActionSet{}
	}
}
