package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rshade/carbonledger/internal/engine"
)

// defaultHeight is the viewport height before the first window size message.
const defaultHeight = 24

// helpHeight is the number of lines reserved under the viewport.
const helpHeight = 1

// DashboardState is the interactive dashboard's view state.
type DashboardState int

const (
	// DashboardStateLoading means the ledger is being read.
	DashboardStateLoading DashboardState = iota
	// DashboardStateReady means a dashboard is on screen.
	DashboardStateReady
	// DashboardStateError means the last load failed.
	DashboardStateError
	// DashboardStateQuitting means the program is exiting.
	DashboardStateQuitting
)

// DashboardLoader assembles a fresh dashboard from the ledger.
type DashboardLoader func(ctx context.Context) (engine.Dashboard, error)

type dashboardLoadedMsg struct {
	dashboard engine.Dashboard
	err       error
}

// DashboardModel is the Bubble Tea model for the live dashboard. Pressing r
// reloads from the store so entries logged from another shell show up.
//
//nolint:recvcheck // Bubble Tea requires value receivers for Init/Update/View interface methods.
type DashboardModel struct {
	ctx  context.Context
	load DashboardLoader
	opts engine.RenderOptions

	state     DashboardState
	dashboard engine.Dashboard
	err       error

	spinner  spinner.Model
	viewport viewport.Model
	width    int
	height   int
}

// NewDashboardModel returns a model in the loading state.
func NewDashboardModel(ctx context.Context, load DashboardLoader, opts engine.RenderOptions) DashboardModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ColorHighlight)

	return DashboardModel{
		ctx:      ctx,
		load:     load,
		opts:     opts,
		state:    DashboardStateLoading,
		spinner:  s,
		viewport: viewport.New(defaultWidth, defaultHeight-helpHeight),
		width:    defaultWidth,
		height:   defaultHeight,
	}
}

// Init starts the spinner and the first load.
func (m DashboardModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadCmd())
}

func (m DashboardModel) loadCmd() tea.Cmd {
	ctx, load := m.ctx, m.load
	return func() tea.Msg {
		d, err := load(ctx)
		return dashboardLoadedMsg{dashboard: d, err: err}
	}
}

// Update handles messages (Bubble Tea interface).
func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-helpHeight, 1)
		m.refreshContent()
		return m, nil

	case dashboardLoadedMsg:
		if msg.err != nil {
			m.state = DashboardStateError
			m.err = msg.err
			return m, nil
		}
		m.state = DashboardStateReady
		m.err = nil
		m.dashboard = msg.dashboard
		m.refreshContent()
		m.viewport.GotoTop()
		return m, nil

	case spinner.TickMsg:
		if m.state != DashboardStateLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m DashboardModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		m.state = DashboardStateQuitting
		return m, tea.Quit
	case "r":
		if m.state == DashboardStateLoading {
			return m, nil
		}
		m.state = DashboardStateLoading
		return m, tea.Batch(m.spinner.Tick, m.loadCmd())
	}

	if m.state != DashboardStateReady {
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *DashboardModel) refreshContent() {
	if m.state == DashboardStateReady {
		m.viewport.SetContent(RenderDashboard(m.dashboard, m.opts, m.width))
	}
}

// View renders the current state (Bubble Tea interface).
func (m DashboardModel) View() string {
	switch m.state {
	case DashboardStateQuitting:
		return ""
	case DashboardStateLoading:
		return fmt.Sprintf("%s Reading ledger...", m.spinner.View())
	case DashboardStateError:
		return CriticalStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n" + renderDashboardHelp()
	default:
		return m.viewport.View() + "\n" + renderDashboardHelp()
	}
}

// State returns the current view state.
func (m DashboardModel) State() DashboardState { return m.state }

// Dashboard returns the last loaded dashboard.
func (m DashboardModel) Dashboard() engine.Dashboard { return m.dashboard }

// Err returns the last load error, if any.
func (m DashboardModel) Err() error { return m.err }

func renderDashboardHelp() string {
	return SubtleStyle.Render("↑/↓: Scroll | r: Refresh | q: Quit")
}

// RunDashboard runs the interactive dashboard until the user quits or ctx
// is cancelled.
func RunDashboard(ctx context.Context, load DashboardLoader, opts engine.RenderOptions) error {
	p := tea.NewProgram(
		NewDashboardModel(ctx, load, opts),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("running dashboard: %w", err)
	}
	if m, ok := final.(DashboardModel); ok && m.err != nil {
		return m.err
	}
	return nil
}
