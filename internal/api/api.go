// Package api exposes the LegalTime backend resources as typed calls on
// top of the request gateway.
package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

// Resource paths.
const (
	PathClients       = "/clients"
	PathContracts     = "/contracts"
	PathMatters       = "/matters"
	PathEmployees     = "/employees"
	PathRates         = "/rates"
	PathActivityTypes = "/activity-types"
	PathTimeEntries   = "/time-entries"
	PathGoogleAuth    = "/google/auth"
)

// Service groups every backend resource.
type Service struct {
	Clients       Collection[Client]
	Contracts     Collection[Contract]
	Matters       Collection[Matter]
	Employees     Collection[Employee]
	Rates         Collection[Rate]
	ActivityTypes Collection[ActivityType]
	TimeEntries   *TimeEntries
	Calendar      *Calendar
}

// New binds all resources to gw.
func New(gw Gateway) *Service {
	return &Service{
		Clients:       NewCollection[Client](gw, PathClients),
		Contracts:     NewCollection[Contract](gw, PathContracts),
		Matters:       NewCollection[Matter](gw, PathMatters),
		Employees:     NewCollection[Employee](gw, PathEmployees),
		Rates:         NewCollection[Rate](gw, PathRates),
		ActivityTypes: NewCollection[ActivityType](gw, PathActivityTypes),
		TimeEntries:   &TimeEntries{Collection: NewCollection[TimeEntry](gw, PathTimeEntries), gw: gw},
		Calendar:      &Calendar{gw: gw},
	}
}

// EntryFilter narrows the senior/admin time entry search.
type EntryFilter struct {
	EmployeeID *int
	StartDate  Date
	EndDate    Date
	Status     EntryStatus
	Page
}

// Values encodes the filter as query parameters.
func (f EntryFilter) Values() url.Values {
	v := f.Page.values()
	setInt(v, "employee_id", f.EmployeeID)
	setDate(v, "start_date", f.StartDate)
	setDate(v, "end_date", f.EndDate)
	if f.Status != "" {
		v.Set("status", string(f.Status))
	}
	return v
}

// ReportFilter narrows the approved-hours report.
type ReportFilter struct {
	EmployeeID *int
	MatterID   *int
	ContractID *int
	ClientID   *int
	StartDate  Date
	EndDate    Date
}

// Values encodes the filter as query parameters.
func (f ReportFilter) Values() url.Values {
	v := url.Values{}
	setInt(v, "employee_id", f.EmployeeID)
	setInt(v, "matter_id", f.MatterID)
	setInt(v, "contract_id", f.ContractID)
	setInt(v, "client_id", f.ClientID)
	setDate(v, "start_date", f.StartDate)
	setDate(v, "end_date", f.EndDate)
	return v
}

func setInt(v url.Values, key string, p *int) {
	if p != nil {
		v.Set(key, strconv.Itoa(*p))
	}
}

func setDate(v url.Values, key string, d Date) {
	if !d.IsZero() {
		v.Set(key, d.String())
	}
}

// TimeEntries is the time entry resource with its approval workflow.
type TimeEntries struct {
	Collection[TimeEntry]
	gw Gateway
}

// Mine lists the caller's own entries.
func (t *TimeEntries) Mine(ctx context.Context, page Page) ([]TimeEntry, error) {
	return t.List(ctx, page)
}

// Pending lists draft entries awaiting approval.
func (t *TimeEntries) Pending(ctx context.Context, page Page) ([]TimeEntry, error) {
	var out []TimeEntry
	if err := t.gw.Get(ctx, PathTimeEntries+"/pending", page.values(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Filter searches entries across employees.
func (t *TimeEntries) Filter(ctx context.Context, f EntryFilter) ([]TimeEntry, error) {
	var out []TimeEntry
	if err := t.gw.Get(ctx, PathTimeEntries+"/filter", f.Values(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Approve marks an entry approved. Callers check self-approval first.
func (t *TimeEntries) Approve(ctx context.Context, id int) (*TimeEntry, error) {
	var out TimeEntry
	if err := t.gw.Patch(ctx, fmt.Sprintf("%s/%d/approve", PathTimeEntries, id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Report streams the approved-hours spreadsheet to w.
func (t *TimeEntries) Report(ctx context.Context, f ReportFilter, w io.Writer) (int64, error) {
	return t.gw.Download(ctx, PathTimeEntries+"/report", f.Values(), w)
}

// RecalculateRates re-resolves the rate of every entry.
func (t *TimeEntries) RecalculateRates(ctx context.Context) (*RecalculateResult, error) {
	var out RecalculateResult
	if err := t.gw.Post(ctx, PathTimeEntries+"/recalculate-rates", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Calendar is the Google Calendar integration.
type Calendar struct {
	gw Gateway
}

// ConnectURL returns the Google consent URL for the current user.
func (c *Calendar) ConnectURL(ctx context.Context) (string, error) {
	return c.gw.Location(ctx, PathGoogleAuth)
}

// Push creates calendar events for entries that have none.
func (c *Calendar) Push(ctx context.Context) (*SyncResult, error) {
	var out SyncResult
	if err := c.gw.Post(ctx, PathTimeEntries+"/sync-to-calendar", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Pull creates draft entries from calendar events in the window around
// today. Zero values use the backend default of 30 days.
func (c *Calendar) Pull(ctx context.Context, daysBack, daysForward int) (*SyncResult, error) {
	q := url.Values{}
	if daysBack > 0 {
		q.Set("days_back", strconv.Itoa(daysBack))
	}
	if daysForward > 0 {
		q.Set("days_forward", strconv.Itoa(daysForward))
	}
	var out SyncResult
	if err := c.gw.Do(ctx, http.MethodPost, PathTimeEntries+"/sync-from-calendar", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Events lists calendar events linked to time entries.
func (c *Calendar) Events(ctx context.Context, maxResults int) (*CalendarEvents, error) {
	q := url.Values{}
	if maxResults > 0 {
		q.Set("max_results", strconv.Itoa(maxResults))
	}
	var out CalendarEvents
	if err := c.gw.Get(ctx, PathTimeEntries+"/calendar/events", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
