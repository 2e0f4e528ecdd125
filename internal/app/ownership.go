package app

import (
	"context"
	"sync"

	"github.com/felixgeelhaar/legaltime/internal/api"
	"github.com/felixgeelhaar/legaltime/internal/authz"
	"github.com/felixgeelhaar/legaltime/internal/session"
)

// employeeIDs remembers the employee id learned for the current token, so a
// token that does not carry one is resolved at most once.
type employeeIDs struct {
	mu    sync.Mutex
	token string
	id    int
}

func (c *employeeIDs) get(raw string) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == "" || c.token != raw {
		return 0, false
	}
	return c.id, true
}

func (c *employeeIDs) put(raw string, id int) {
	c.mu.Lock()
	c.token, c.id = raw, id
	c.mu.Unlock()
}

func (c *employeeIDs) reset() {
	c.mu.Lock()
	c.token, c.id = "", 0
	c.mu.Unlock()
}

// resolveActor fills in the employee id of a senior lawyer whose token does
// not carry one, by listing the caller's own entries. A caller without
// entries stays unresolved and owns nothing yet.
func (a *App) resolveActor(ctx context.Context, snap session.Snapshot, actor authz.Actor) (authz.Actor, error) {
	if actor.EmployeeID != nil || actor.Role != authz.RoleSeniorLawyer {
		return actor, nil
	}
	if id, ok := a.owners.get(snap.RawToken); ok {
		actor.EmployeeID = &id
		return actor, nil
	}

	own, err := a.API.TimeEntries.Mine(ctx, api.Page{Limit: 1})
	if err != nil {
		return actor, err
	}
	if len(own) == 0 {
		return actor, nil
	}
	id := own[0].EmployeeID
	a.owners.put(snap.RawToken, id)
	a.Logger.DebugContext(ctx, "employee id resolved from own entries", "employee_id", id)
	actor.EmployeeID = &id
	return actor, nil
}
