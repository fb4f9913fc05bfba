// Package tui provides the interactive Bubble Tea stopwatch.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/fakeyudi/chronogen/internal/controller"
	"github.com/fakeyudi/chronogen/internal/laps"
	"github.com/fakeyudi/chronogen/internal/stopwatch"
)

// ── Styles ────────────

var (
	// Title bar at the very top
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	readoutStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Padding(1, 4)

	runningReadoutStyle = readoutStyle.Foreground(lipgloss.Color("86"))

	stateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	sectionHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("178"))

	fastestStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	slowestStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	insightStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)
)

// ── Keys ─────────────────

type keyMap struct {
	Toggle  key.Binding
	Lap     key.Binding
	Reset   key.Binding
	Insight key.Binding
	Dismiss key.Binding
	Quit    key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Lap, k.Reset, k.Insight, k.Dismiss, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var keys = keyMap{
	Toggle:  key.NewBinding(key.WithKeys(" ", "s"), key.WithHelp("space", "start/stop")),
	Lap:     key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "lap")),
	Reset:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
	Insight: key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "fact")),
	Dismiss: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "dismiss")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// ── Messages ─────────────

type tickMsg time.Time

type insightMsg controller.Reply

// waitForTick blocks on the controller's tick channel. Exactly one of these
// is outstanding at a time; each tickMsg re-arms it.
func waitForTick(ch <-chan time.Time) tea.Cmd {
	return func() tea.Msg {
		t, ok := <-ch
		if !ok {
			return nil
		}
		return tickMsg(t)
	}
}

func runInsight(ctx context.Context, req controller.Request) tea.Cmd {
	return func() tea.Msg {
		return insightMsg(req.Run(ctx))
	}
}

// ── Model ────────────────────

// Model is the root Bubble Tea model for the stopwatch.
type Model struct {
	ctrl    *controller.Controller
	ctx     context.Context
	log     logrus.FieldLogger
	help    help.Model
	spinner spinner.Model
	laps    viewport.Model
	width   int
	height  int
	ready   bool
	errMsg  string
}

// New creates a model over ctrl. ctx bounds insight requests.
func New(ctx context.Context, ctrl *controller.Controller, log logrus.FieldLogger) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = timeStyle
	return Model{
		ctrl:    ctrl,
		ctx:     ctx,
		log:     log,
		help:    help.New(),
		spinner: sp,
	}
}

// ── Bubble Tea interface ───────────────

func (m Model) Init() tea.Cmd {
	return waitForTick(m.ctrl.Ticks())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.errMsg = ""
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Toggle):
			if m.ctrl.State() == stopwatch.StateRunning {
				m.fail(m.ctrl.Stop())
			} else {
				m.fail(m.ctrl.Start())
			}
		case key.Matches(msg, keys.Lap):
			if _, err := m.ctrl.Lap(); err == nil {
				m.refreshLaps()
				m.laps.GotoTop()
			} else {
				m.fail(err)
			}
		case key.Matches(msg, keys.Reset):
			m.ctrl.Reset()
			m.refreshLaps()
		case key.Matches(msg, keys.Insight):
			req, err := m.ctrl.BeginInsight()
			if err != nil {
				if !errors.Is(err, controller.ErrInsightPending) {
					m.fail(err)
				}
				return m, nil
			}
			return m, tea.Batch(runInsight(m.ctx, req), m.spinner.Tick)
		case key.Matches(msg, keys.Dismiss):
			m.ctrl.DismissInsight()
		default:
			var cmd tea.Cmd
			m.laps, cmd = m.laps.Update(msg)
			return m, cmd
		}
		return m, nil

	case tickMsg:
		m.ctrl.Tick()
		return m, waitForTick(m.ctrl.Ticks())

	case insightMsg:
		if !m.ctrl.CompleteInsight(controller.Reply(msg)) {
			m.log.Debug("discarded insight for an abandoned run")
		}
		return m, nil

	case spinner.TickMsg:
		if !m.ctrl.InsightPending() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true
		m.initViewport()
		return m, nil
	}
	return m, nil
}

func (m *Model) fail(err error) {
	if err != nil {
		m.errMsg = err.Error()
	}
}

func (m Model) View() string {
	if !m.ready {
		return "Loading…"
	}
	snap := m.ctrl.Snapshot()

	// ── Row 1: title bar ──────────────────────────────────────────────────────
	title := titleStyle.Width(m.width).Render("  chronogen  stopwatch")

	// ── Readout ───────────────────────────────────────────────────────────────
	style := readoutStyle
	if snap.State == stopwatch.StateRunning {
		style = runningReadoutStyle
	}
	readout := lipgloss.JoinHorizontal(lipgloss.Center,
		style.Render(stopwatch.Format(snap.Elapsed)),
		stateStyle.Render(strings.ToUpper(snap.State.String())),
	)

	// ── Laps ──────────────────────────────────────────────────────────────────
	lapsHeader := sectionHeader.Render(fmt.Sprintf("  Laps (%d)", len(snap.Laps)))

	// ── Insight panel ─────────────────────────────────────────────────────────
	panel := m.renderInsight(snap)

	// ── Status / hint bar ─────────────────────────────────────────────────────
	hint := m.help.View(keys)
	if m.errMsg != "" {
		hint = errorStyle.Render(m.errMsg)
	}
	statusBar := statusBarStyle.Width(m.width).Render(hint)

	return lipgloss.JoinVertical(lipgloss.Left, title, readout, lapsHeader, m.laps.View(), panel, statusBar)
}

// ── Viewport management ───────────────────────────────────────────────────────

func (m *Model) initViewport() {
	// title(1) + readout(3) + laps header(1) + insight panel(3) + status bar(1)
	vpHeight := m.height - 9
	if vpHeight < 1 {
		vpHeight = 1
	}
	m.laps = viewport.New(m.width, vpHeight)
	m.refreshLaps()
}

func (m *Model) refreshLaps() {
	snap := m.ctrl.Snapshot()
	m.laps.SetContent(renderLaps(snap.Laps, snap.FastestLap, snap.SlowestLap))
}

// ── Renderers ─────────────────────────────────────────────────────────────────

// renderLaps lists laps newest first.
func renderLaps(ls []laps.Lap, fastest, slowest int) string {
	if len(ls) == 0 {
		return dimStyle.Render("  (no laps yet, press l while running)") + "\n"
	}
	var sb strings.Builder
	for i := len(ls) - 1; i >= 0; i-- {
		l := ls[i]
		row := fmt.Sprintf("  Lap %-3d  %s  %s",
			l.Number,
			timeStyle.Render(stopwatch.Format(l.Split)),
			dimStyle.Render(stopwatch.Format(l.Total)),
		)
		switch l.Number {
		case fastest:
			row += "  " + fastestStyle.Render("fastest")
		case slowest:
			row += "  " + slowestStyle.Render("slowest")
		}
		sb.WriteString(row + "\n")
	}
	return sb.String()
}

func (m Model) renderInsight(snap controller.Snapshot) string {
	width := m.width - 4
	if width < 10 {
		width = 10
	}
	switch {
	case snap.InsightPending:
		return insightStyle.Width(width).Render(m.spinner.View() + " Consulting the archives of time…")
	case snap.Insight != nil:
		return insightStyle.Width(width).Render(snap.Insight.Text)
	case m.ctrl.InsightReady():
		return dimStyle.Render("  press i for a fact about " + stopwatch.Format(snap.Elapsed))
	}
	return ""
}

// Run starts the TUI over ctrl and blocks until the user quits.
func Run(ctx context.Context, ctrl *controller.Controller, log logrus.FieldLogger) error {
	p := tea.NewProgram(New(ctx, ctrl, log), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
