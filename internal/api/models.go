package api

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the backend's calendar date format.
const DateLayout = "2006-01-02"

// Date is a calendar day without time or zone.
type Date struct {
	time.Time
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MarshalText renders the date for text encoders such as YAML.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	// Some endpoints return full timestamps.
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// EntryStatus is the approval state of a time entry.
type EntryStatus string

const (
	StatusDraft    EntryStatus = "draft"
	StatusApproved EntryStatus = "approved"
)

// TimeEntry is hours an employee logged against a matter.
type TimeEntry struct {
	ID             int         `json:"id" yaml:"id"`
	EmployeeID     int         `json:"employee_id" yaml:"employee_id"`
	Hours          float64     `json:"hours" yaml:"hours"`
	Description    string      `json:"description,omitempty" yaml:"description,omitempty"`
	Date           Date        `json:"date" yaml:"date"`
	MatterID       int         `json:"matter_id" yaml:"matter_id"`
	ActivityTypeID int         `json:"activity_type_id" yaml:"activity_type_id"`
	RateID         *int        `json:"rate_id,omitempty" yaml:"rate_id,omitempty"`
	Status         EntryStatus `json:"status" yaml:"status"`
}

// TimeEntryInput is the writable part of a time entry.
type TimeEntryInput struct {
	Hours          float64 `json:"hours" yaml:"hours"`
	Description    string  `json:"description,omitempty" yaml:"description,omitempty"`
	Date           Date    `json:"date" yaml:"date"`
	MatterID       int     `json:"matter_id" yaml:"matter_id"`
	ActivityTypeID int     `json:"activity_type_id" yaml:"activity_type_id"`
	RateID         *int    `json:"rate_id,omitempty" yaml:"rate_id,omitempty"`
}

// Employee is a member of the firm.
type Employee struct {
	ID    int    `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email" yaml:"email"`
	Role  string `json:"role" yaml:"role"`
}

// EmployeeInput creates or updates an employee. Password is optional on
// update.
type EmployeeInput struct {
	Name     string `json:"name" yaml:"name"`
	Email    string `json:"email" yaml:"email"`
	Role     string `json:"role" yaml:"role"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
}

// ClientType distinguishes companies from individuals.
type ClientType string

const (
	ClientLegal    ClientType = "legal"
	ClientPhysical ClientType = "physical"
)

// Client is a customer of the firm.
type Client struct {
	ID   int        `json:"id" yaml:"id"`
	Name string     `json:"name" yaml:"name"`
	Type ClientType `json:"type" yaml:"type"`
}

// Contract is an engagement with a client.
type Contract struct {
	ID       int    `json:"id" yaml:"id"`
	Number   string `json:"number" yaml:"number"`
	Date     Date   `json:"date" yaml:"date"`
	ClientID int    `json:"client_id" yaml:"client_id"`
}

// Matter is a legal case under a contract.
type Matter struct {
	ID          int    `json:"id" yaml:"id"`
	Code        string `json:"code" yaml:"code"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	ContractID  int    `json:"contract_id" yaml:"contract_id"`
}

// Rate is an hourly billing rate, scoped to an employee, a contract, or
// neither for the firm default.
type Rate struct {
	ID         int     `json:"id" yaml:"id"`
	Value      float64 `json:"value" yaml:"value"`
	EmployeeID *int    `json:"employee_id,omitempty" yaml:"employee_id,omitempty"`
	ContractID *int    `json:"contract_id,omitempty" yaml:"contract_id,omitempty"`
}

// ActivityType classifies work, for example consultation or court hearing.
type ActivityType struct {
	ID   int    `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// RecalculateResult reports a rate recalculation run.
type RecalculateResult struct {
	Message string `json:"message" yaml:"message"`
	Updated int    `json:"updated" yaml:"updated"`
	Total   int    `json:"total" yaml:"total"`
}

// SyncResult reports a calendar synchronisation run. Push fills Synced;
// pull fills Created and Skipped.
type SyncResult struct {
	Message string `json:"message" yaml:"message"`
	Synced  int    `json:"synced,omitempty" yaml:"synced,omitempty"`
	Created int    `json:"created,omitempty" yaml:"created,omitempty"`
	Skipped int    `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Failed  int    `json:"failed" yaml:"failed"`
	Total   int    `json:"total" yaml:"total"`
}

// EventTime is Google Calendar's start/end shape.
type EventTime struct {
	DateTime string `json:"dateTime,omitempty" yaml:"dateTime,omitempty"`
	Date     string `json:"date,omitempty" yaml:"date,omitempty"`
	TimeZone string `json:"timeZone,omitempty" yaml:"timeZone,omitempty"`
}

func (e EventTime) String() string {
	if e.DateTime != "" {
		return e.DateTime
	}
	return e.Date
}

// CalendarEvent is a calendar event linked to a time entry.
type CalendarEvent struct {
	EventID     string      `json:"event_id" yaml:"event_id"`
	Summary     string      `json:"summary" yaml:"summary"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Start       EventTime   `json:"start" yaml:"start"`
	End         EventTime   `json:"end" yaml:"end"`
	TimeEntryID int         `json:"time_entry_id" yaml:"time_entry_id"`
	Status      EntryStatus `json:"status" yaml:"status"`
}

// CalendarEvents is the event listing envelope.
type CalendarEvents struct {
	Events []CalendarEvent `json:"events" yaml:"events"`
	Total  int             `json:"total" yaml:"total"`
}
