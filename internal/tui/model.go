package tui

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/legaltime/internal/api"
	"github.com/felixgeelhaar/legaltime/internal/app"
	"github.com/felixgeelhaar/legaltime/internal/authz"
	"github.com/felixgeelhaar/legaltime/internal/errors"
	"github.com/felixgeelhaar/legaltime/internal/guard"
	"github.com/felixgeelhaar/legaltime/internal/session"
)

// Model is the interactive LegalTime shell. Every view change is decided
// by the route guard.
type Model struct {
	app *app.App
	ctx context.Context

	route   authz.Route
	shown   authz.Route
	cursor  int
	content string

	// Approval queue of the reports view.
	pending  []api.TimeEntry
	selected int

	email    textinput.Model
	password textinput.Model
	focus    int

	busy      bool
	status    string
	lastError string
	notice    string

	spinner  spinner.Model
	width    int
	height   int
	quitting bool

	styles Styles
}

// Styles contains lipgloss styles for the TUI
type Styles struct {
	Title       lipgloss.Style
	Subtitle    lipgloss.Style
	Status      lipgloss.Style
	Error       lipgloss.Style
	Success     lipgloss.Style
	Warning     lipgloss.Style
	Muted       lipgloss.Style
	Border      lipgloss.Style
	Highlighted lipgloss.Style
	Help        lipgloss.Style
	Key         lipgloss.Style
	KeyDesc     lipgloss.Style
}

// DefaultStyles returns the default lipgloss styles
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")). // Purple
			MarginBottom(1),
		Subtitle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")), // Gray
		Status: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")), // Cyan
		Error: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")), // Red
		Success: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("46")), // Green
		Warning: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("226")), // Yellow
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")), // Gray
		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")). // Purple
			Padding(0, 1),
		Highlighted: lipgloss.NewStyle().
			Background(lipgloss.Color("63")).  // Purple
			Foreground(lipgloss.Color("230")). // Light yellow
			Bold(true).
			Padding(0, 1),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")). // Gray
			MarginTop(1),
		Key: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")), // Purple
		KeyDesc: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")), // Gray
	}
}

// NewModel creates the shell for a booted or not yet booted app. The first
// view requested is the home view; the guard redirects as needed.
func NewModel(ctx context.Context, a *app.App) Model {
	email := textinput.New()
	email.Placeholder = "you@firm.com"
	email.Prompt = "Email    "
	email.Focus()

	password := textinput.New()
	password.Prompt = "Password "
	password.EchoMode = textinput.EchoPassword

	return Model{
		app:      a,
		ctx:      ctx,
		route:    a.Guard.Home(),
		email:    email,
		password: password,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		styles:   DefaultStyles(),
	}
}

// Messages

// HydratedMsg reports that the session finished loading.
type HydratedMsg struct {
	Snapshot session.Snapshot
}

// TransitionMsg forwards a guard transition into the program loop.
type TransitionMsg struct {
	Transition guard.Transition
}

type loginResultMsg struct {
	err error
}

type contentMsg struct {
	route   authz.Route
	body    string
	pending []api.TimeEntry
	err     error
}

type approvedMsg struct {
	entryID int
	err     error
}

// Init hydrates the session (required by Bubble Tea)
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.hydrate())
}

func (m Model) hydrate() tea.Cmd {
	a, ctx := m.app, m.ctx
	return func() tea.Msg {
		return HydratedMsg{Snapshot: a.Boot(ctx)}
	}
}

// Update handles messages and updates the model state (required by Bubble Tea)
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case HydratedMsg, TransitionMsg:
		return m.resolve()

	case loginResultMsg:
		m.busy = false
		if msg.err != nil {
			m.lastError = describe(msg.err)
			return m, nil
		}
		m.password.Reset()
		m.lastError = ""
		return m.resolve()

	case contentMsg:
		if msg.route != m.route {
			return m, nil
		}
		m.busy = false
		if msg.err != nil {
			if errors.IsAuthRejected(msg.err) {
				return m.resolve()
			}
			m.lastError = describe(msg.err)
			return m, nil
		}
		m.content = msg.body
		m.pending = msg.pending
		if m.selected >= len(m.pending) {
			m.selected = 0
		}
		return m, nil

	case approvedMsg:
		m.busy = false
		if msg.err != nil {
			m.lastError = describe(msg.err)
			if errors.IsAuthRejected(msg.err) {
				return m.resolve()
			}
			return m, nil
		}
		m.lastError = ""
		m.status = fmt.Sprintf("Approved time entry %d", msg.entryID)
		return m.reload()
	}

	return m, nil
}

// resolve asks the guard what to do with the current route.
func (m Model) resolve() (tea.Model, tea.Cmd) {
	g := m.app.Guard

	switch g.Decide(m.route) {
	case guard.Wait:
		return m, nil

	case guard.RedirectLogin:
		m.route = authz.RouteLogin
		m.shown = ""
		m.content = ""
		m.pending = nil
		m.cursor = 0
		m.status = ""
		if notice := g.TakeNotice(); notice != "" {
			m.notice = notice
		}
		m.focus = 0
		m.password.Blur()
		cmd := m.email.Focus()
		return m, cmd

	case guard.RedirectHome:
		m.notice = ""
		m.route = g.Home()
		return m.resolve()

	case guard.Forbidden:
		m.lastError = fmt.Sprintf("%s is not available to your role", m.route)
		m.route = g.Home()
		return m.resolve()
	}

	if m.route == authz.RouteLogin || m.shown == m.route {
		return m, nil
	}
	return m.reload()
}

// navigate requests route through the guard.
func (m Model) navigate(route authz.Route) (tea.Model, tea.Cmd) {
	m.route = route
	m.shown = ""
	m.lastError = ""
	m.status = ""
	return m.resolve()
}

func (m Model) reload() (tea.Model, tea.Cmd) {
	m.shown = m.route
	m.busy = true
	m.content = ""
	return m, m.load(m.route)
}

func (m Model) login() tea.Cmd {
	a, ctx := m.app, m.ctx
	email, password := strings.TrimSpace(m.email.Value()), m.password.Value()
	return func() tea.Msg {
		_, err := a.Login(ctx, email, password)
		return loginResultMsg{err: err}
	}
}

func (m Model) approve() tea.Cmd {
	entry := m.pending[m.selected]
	a, ctx := m.app, m.ctx
	return func() tea.Msg {
		_, err := a.ApproveEntry(ctx, entry)
		return approvedMsg{entryID: entry.ID, err: err}
	}
}

// handleKeyPress handles keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Ctrl+C always quits
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	if m.app.Guard.State() == guard.Loading {
		return m, nil
	}
	if m.route == authz.RouteLogin {
		return m.handleLoginKey(msg)
	}

	nav := m.app.Navigation()
	switch msg.String() {
	case "q", "esc":
		m.quitting = true
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(nav)-1 {
			m.cursor++
		}

	case "enter":
		if m.cursor < len(nav) {
			return m.navigate(nav[m.cursor].Route)
		}

	case "r":
		m.lastError = ""
		return m.reload()

	case "tab":
		if len(m.pending) > 0 {
			m.selected = (m.selected + 1) % len(m.pending)
		}

	case "shift+tab":
		if len(m.pending) > 0 {
			m.selected = (m.selected + len(m.pending) - 1) % len(m.pending)
		}

	case "a":
		if m.route == authz.RouteReports && len(m.pending) > 0 && !m.busy {
			m.busy = true
			m.status = ""
			return m, m.approve()
		}

	case "L":
		m.status = ""
		if err := m.app.Logout(); err != nil {
			m.lastError = describe(err)
		}
		return m.resolve()
	}

	return m, nil
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.quitting = true
		return m, tea.Quit

	case "tab", "shift+tab", "up", "down":
		return m.toggleFocus()

	case "enter":
		if m.busy {
			return m, nil
		}
		if m.focus == 0 {
			return m.toggleFocus()
		}
		m.busy = true
		m.lastError = ""
		return m, m.login()
	}

	var cmd tea.Cmd
	if m.focus == 0 {
		m.email, cmd = m.email.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m Model) toggleFocus() (tea.Model, tea.Cmd) {
	if m.focus == 0 {
		m.focus = 1
		m.email.Blur()
		cmd := m.password.Focus()
		return m, cmd
	}
	m.focus = 0
	m.password.Blur()
	cmd := m.email.Focus()
	return m, cmd
}

// describe returns the user-facing text of err without codes or
// suggestions.
func describe(err error) string {
	var e *errors.Error
	if !stderrors.As(err, &e) {
		return err.Error()
	}
	if len(e.Fields) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field()+": "+f.Msg)
	}
	return strings.Join(parts, ", ")
}

// Run starts the shell and blocks until the user quits.
func Run(ctx context.Context, a *app.App, opts ...tea.ProgramOption) error {
	m := NewModel(ctx, a)
	p := tea.NewProgram(m, append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)...)
	a.Guard.OnTransition(func(t guard.Transition) {
		p.Send(TransitionMsg{Transition: t})
	})
	_, err := p.Run()
	return err
}
