package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/legaltime/internal/api"
	"github.com/felixgeelhaar/legaltime/internal/app"
	"github.com/felixgeelhaar/legaltime/internal/authz"
	"github.com/felixgeelhaar/legaltime/internal/guard"
	"github.com/felixgeelhaar/legaltime/internal/ux"
)

// View renders the TUI (required by Bubble Tea)
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	switch m.app.Guard.Decide(m.route) {
	case guard.Wait:
		return m.renderLoading()
	case guard.Render:
		if m.route == authz.RouteLogin {
			return m.renderLogin()
		}
		return m.renderMain()
	default:
		// Redirects are applied on the next update.
		return m.renderLoading()
	}
}

func (m Model) renderLoading() string {
	return fmt.Sprintf("\n  %s Loading session...\n", m.spinner.View())
}

func (m Model) renderLogin() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("LegalTime"))
	b.WriteString("\n")

	if m.notice != "" {
		b.WriteString(m.styles.Warning.Render(m.notice))
		b.WriteString("\n\n")
	}

	b.WriteString(m.email.View())
	b.WriteString("\n")
	b.WriteString(m.password.View())
	b.WriteString("\n\n")

	if m.busy {
		b.WriteString(m.spinner.View() + " Signing in...\n")
	}
	if m.lastError != "" {
		b.WriteString(m.styles.Error.Render(m.lastError))
		b.WriteString("\n")
	}

	b.WriteString(m.renderHelp([][2]string{{"enter", "next/submit"}, {"tab", "switch field"}, {"esc", "quit"}}))
	return b.String()
}

func (m Model) renderMain() string {
	var b strings.Builder

	snap := m.app.Session.Snapshot()
	header := m.styles.Title.Render("LegalTime") + "  " +
		m.styles.Subtitle.Render(fmt.Sprintf("%s (%s)", snap.Email(), snap.Role().Label()))
	b.WriteString(header)
	b.WriteString("\n")

	nav := m.renderNav()
	body := m.renderBody()
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, nav, "  ", body))
	b.WriteString("\n")

	if m.status != "" {
		b.WriteString(m.styles.Success.Render(m.status))
		b.WriteString("\n")
	}
	if m.lastError != "" {
		b.WriteString(m.styles.Error.Render(m.lastError))
		b.WriteString("\n")
	}

	keys := [][2]string{{"↑/↓", "move"}, {"enter", "open"}, {"r", "reload"}}
	if m.route == authz.RouteReports && len(m.pending) > 0 {
		keys = append(keys, [2]string{"tab", "select entry"}, [2]string{"a", "approve"})
	}
	keys = append(keys, [2]string{"L", "log out"}, [2]string{"q", "quit"})
	b.WriteString(m.renderHelp(keys))
	return b.String()
}

func (m Model) renderNav() string {
	var lines []string
	for i, e := range m.app.Navigation() {
		label := e.Title
		switch {
		case i == m.cursor:
			label = m.styles.Highlighted.Render(label)
		case e.Route == m.route:
			label = m.styles.Status.Render(" " + label)
		default:
			label = " " + label
		}
		lines = append(lines, label)
	}
	return m.styles.Border.Render(strings.Join(lines, "\n"))
}

func (m Model) renderBody() string {
	if m.busy {
		return m.spinner.View() + " Loading..."
	}
	if m.route == authz.RouteReports {
		return m.renderQueue()
	}
	return m.content
}

// renderQueue lists the entries awaiting approval with the selection marked.
func (m Model) renderQueue() string {
	var b strings.Builder
	b.WriteString(m.styles.Status.Render("Awaiting approval"))
	b.WriteString("\n\n")

	if len(m.pending) == 0 {
		b.WriteString(m.styles.Muted.Render("Nothing to approve."))
	}
	for i, e := range m.pending {
		line := fmt.Sprintf("#%-5d %s  employee %-4d %6sh  %s", e.ID, e.Date, e.EmployeeID, strconv.FormatFloat(e.Hours, 'f', 2, 64), e.Description)
		if i == m.selected {
			line = m.styles.Highlighted.Render(line)
		} else {
			line = " " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.styles.Muted.Render("Export the spreadsheet with 'legaltime entries report'."))
	return b.String()
}

func (m Model) renderHelp(keys [][2]string) string {
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, m.styles.Key.Render(k[0])+" "+m.styles.KeyDesc.Render(k[1]))
	}
	return m.styles.Help.Render(strings.Join(parts, " • "))
}

// load fetches the content of route off the program loop.
func (m Model) load(route authz.Route) tea.Cmd {
	a, ctx := m.app, m.ctx
	return func() tea.Msg {
		body, pending, err := fetch(ctx, a, route)
		return contentMsg{route: route, body: body, pending: pending, err: err}
	}
}

func fetch(ctx context.Context, a *app.App, route authz.Route) (string, []api.TimeEntry, error) {
	svc := a.API
	first := api.Page{}

	switch route {
	case authz.RouteDashboard:
		entries, err := svc.TimeEntries.Mine(ctx, first)
		if err != nil {
			return "", nil, err
		}
		drafts := 0
		for _, e := range entries {
			if e.Status == api.StatusDraft {
				drafts++
			}
		}
		snap := a.Session.Snapshot()
		return ux.Fields{
			{Key: "Signed in as", Value: snap.Email()},
			{Key: "Role", Value: snap.Role().Label()},
			{Key: "Time entries", Value: strconv.Itoa(len(entries))},
			{Key: "Hours logged", Value: strconv.FormatFloat(ux.TimeEntries(entries).TotalHours(), 'f', 2, 64)},
			{Key: "Drafts", Value: strconv.Itoa(drafts)},
		}.String(), nil, nil

	case authz.RouteTimeEntries:
		entries, err := svc.TimeEntries.Mine(ctx, first)
		return table(ux.TimeEntries(entries), err)

	case authz.RouteMatters:
		matters, err := svc.Matters.List(ctx, first)
		return table(ux.Matters(matters), err)

	case authz.RouteClients:
		clients, err := svc.Clients.List(ctx, first)
		return table(ux.Clients(clients), err)

	case authz.RouteContracts:
		contracts, err := svc.Contracts.List(ctx, first)
		return table(ux.Contracts(contracts), err)

	case authz.RouteEmployees:
		employees, err := svc.Employees.List(ctx, first)
		return table(ux.Employees(employees), err)

	case authz.RouteRates:
		rates, err := svc.Rates.List(ctx, first)
		return table(ux.Rates(rates), err)

	case authz.RouteReports:
		pending, err := svc.TimeEntries.Pending(ctx, first)
		if err != nil {
			return "", nil, err
		}
		return "", pending, nil
	}

	return "", nil, nil
}

func table(t ux.Tabler, err error) (string, []api.TimeEntry, error) {
	if err != nil {
		return "", nil, err
	}
	return t.Table().String(), nil, nil
}
