package ux

import (
	"fmt"
	"strconv"

	"github.com/felixgeelhaar/legaltime/internal/api"
	"github.com/felixgeelhaar/legaltime/internal/authz"
)

// List types give backend records a table rendering while encoding to
// JSON and YAML as plain arrays.
type (
	TimeEntries    []api.TimeEntry
	Clients        []api.Client
	Contracts      []api.Contract
	Matters        []api.Matter
	Employees      []api.Employee
	Rates          []api.Rate
	ActivityTypes  []api.ActivityType
	CalendarEvents []api.CalendarEvent
	Navigation     []authz.NavEntry
)

func id(v int) string { return strconv.Itoa(v) }

func optional(p *int) string {
	if p == nil {
		return "-"
	}
	return strconv.Itoa(*p)
}

func hours(h float64) string {
	return strconv.FormatFloat(h, 'f', 2, 64)
}

func (l TimeEntries) Table() *Table {
	t := NewTable("ID", "DATE", "EMPLOYEE", "MATTER", "HOURS", "STATUS", "DESCRIPTION")
	for _, e := range l {
		t.Append(id(e.ID), e.Date.String(), id(e.EmployeeID), id(e.MatterID), hours(e.Hours), string(e.Status), e.Description)
	}
	return t
}

// TotalHours sums the hours of every entry.
func (l TimeEntries) TotalHours() float64 {
	var total float64
	for _, e := range l {
		total += e.Hours
	}
	return total
}

func (l Clients) Table() *Table {
	t := NewTable("ID", "NAME", "TYPE")
	for _, c := range l {
		t.Append(id(c.ID), c.Name, string(c.Type))
	}
	return t
}

func (l Contracts) Table() *Table {
	t := NewTable("ID", "NUMBER", "DATE", "CLIENT")
	for _, c := range l {
		t.Append(id(c.ID), c.Number, c.Date.String(), id(c.ClientID))
	}
	return t
}

func (l Matters) Table() *Table {
	t := NewTable("ID", "CODE", "NAME", "CONTRACT")
	for _, m := range l {
		t.Append(id(m.ID), m.Code, m.Name, id(m.ContractID))
	}
	return t
}

func (l Employees) Table() *Table {
	t := NewTable("ID", "NAME", "EMAIL", "ROLE")
	for _, e := range l {
		t.Append(id(e.ID), e.Name, e.Email, authz.ParseRole(e.Role).Label())
	}
	return t
}

func (l Rates) Table() *Table {
	t := NewTable("ID", "VALUE", "EMPLOYEE", "CONTRACT")
	for _, r := range l {
		t.Append(id(r.ID), hours(r.Value), optional(r.EmployeeID), optional(r.ContractID))
	}
	return t
}

func (l ActivityTypes) Table() *Table {
	t := NewTable("ID", "NAME")
	for _, a := range l {
		t.Append(id(a.ID), a.Name)
	}
	return t
}

func (l CalendarEvents) Table() *Table {
	t := NewTable("EVENT", "SUMMARY", "START", "END", "ENTRY", "STATUS")
	for _, e := range l {
		t.Append(e.EventID, e.Summary, e.Start.String(), e.End.String(), id(e.TimeEntryID), string(e.Status))
	}
	return t
}

func (l Navigation) Table() *Table {
	t := NewTable("VIEW", "PATH", "REQUIRES")
	for _, e := range l {
		t.Append(e.Title, e.Path, string(e.Requires))
	}
	return t
}

// TimeEntryFields renders one entry in detail.
func TimeEntryFields(e api.TimeEntry) Fields {
	return Fields{
		{"ID", id(e.ID)},
		{"Date", e.Date.String()},
		{"Employee", id(e.EmployeeID)},
		{"Matter", id(e.MatterID)},
		{"Activity", id(e.ActivityTypeID)},
		{"Rate", optional(e.RateID)},
		{"Hours", hours(e.Hours)},
		{"Status", string(e.Status)},
		{"Description", e.Description},
	}
}

// SyncFields renders a calendar sync run.
func SyncFields(r api.SyncResult) Fields {
	fs := Fields{{"Result", r.Message}}
	if r.Synced > 0 {
		fs = append(fs, Field{"Synced", id(r.Synced)})
	}
	if r.Created > 0 || r.Skipped > 0 {
		fs = append(fs, Field{"Created", id(r.Created)}, Field{"Skipped", id(r.Skipped)})
	}
	return append(fs, Field{"Failed", id(r.Failed)}, Field{"Total", id(r.Total)})
}

// RecalculateFields renders a rate recalculation run.
func RecalculateFields(r api.RecalculateResult) Fields {
	return Fields{
		{"Result", r.Message},
		{"Updated", fmt.Sprintf("%d of %d", r.Updated, r.Total)},
	}
}
