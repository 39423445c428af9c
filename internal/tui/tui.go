// Package tui provides a Bubble Tea terminal user interface for switching
// origins and watching progress live.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/handiism/httphelper/internal/api"
	"github.com/handiism/httphelper/internal/config"
	"github.com/handiism/httphelper/internal/download"
	"github.com/handiism/httphelper/internal/endpoint"
	"github.com/handiism/httphelper/internal/helper"
	"github.com/handiism/httphelper/internal/http"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)

	originStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500"))
)

// State represents the current UI state.
type State int

const (
	StateMenu State = iota
	StateEditing
	StateRequesting
	StateDownloading
	StateComplete
	StateError
)

const (
	maxLogs      = 10
	previewWidth = 60
)

var errCancelled = errors.New("cancelled by user")

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   download.ProgressLevel
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state     State
	textInput textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	settings  *config.Settings
	logs      []LogEntry
	results   []download.Result
	err       error

	helper  *helper.Helper
	manager *download.Manager
	events  chan download.ProgressEvent

	// Request context
	ctx    context.Context
	cancel context.CancelFunc

	// Download progress
	totalBytes    int64
	receivedBytes int64
	savedTo       string

	verbose bool

	width  int
	height int
}

// NewModel creates a new TUI model sending through client. Aliases and the
// global base URL are changed on h.
func NewModel(settings *config.Settings, h *helper.Helper, client *http.Client) Model {
	ti := textinput.New()
	ti.Placeholder = "https://example.com (empty clears the global base URL)"
	ti.CharLimit = 500
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	ctx, cancel := context.WithCancel(context.Background())

	events := make(chan download.ProgressEvent, 64)
	manager := download.NewManager(settings, h, client, func(event download.ProgressEvent) {
		select {
		case events <- event:
		default:
		}
	})

	return Model{
		state:     StateMenu,
		textInput: ti,
		spinner:   sp,
		progress:  prog,
		settings:  settings,
		logs:      make([]LogEntry, 0),
		helper:    h,
		manager:   manager,
		events:    events,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForEvent())
}

// Message types
type (
	// ProgressMsg is sent for every manager progress event.
	ProgressMsg struct {
		Event download.ProgressEvent
	}

	// RequestsDoneMsg is sent when a batch of requests completes.
	RequestsDoneMsg struct {
		Results []download.Result
	}

	// DownloadDoneMsg is sent when the download completes.
	DownloadDoneMsg struct {
		Path     string
		Received int64
		Total    int64
		Err      error
	}

	// TickMsg is for periodic progress updates.
	TickMsg struct{}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = min(max(msg.Width-20, 20), 80)
		return m, nil

	case tea.KeyMsg:
		if m.state == StateEditing {
			return m.updateEditing(msg)
		}
		return m.updateKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case ProgressMsg:
		cmds = append(cmds, m.waitForEvent())
		if msg.Event.Level == download.LevelVerbose && !m.verbose {
			break
		}
		m.addLog(msg.Event.Message, msg.Event.Level)

	case RequestsDoneMsg:
		m.results = msg.Results
		m.finish(nil)

	case DownloadDoneMsg:
		m.receivedBytes = msg.Received
		m.totalBytes = msg.Total
		m.savedTo = msg.Path
		m.finish(msg.Err)
		if m.state == StateComplete && msg.Total > 0 {
			cmds = append(cmds, m.progress.SetPercent(1))
		}

	case TickMsg:
		if m.state == StateDownloading {
			m.receivedBytes, m.totalBytes, _, _ = m.manager.GetProgress()
			cmds = append(cmds, m.progress.SetPercent(m.percent()), m.tickProgress())
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	busy := m.state == StateRequesting || m.state == StateDownloading

	switch key := msg.String(); key {
	case "ctrl+c":
		m.cancel()
		return m, tea.Quit

	case "esc":
		if busy {
			m.cancel()
			return m, nil
		}
		return m, tea.Quit

	case "q":
		if !busy {
			return m, tea.Quit
		}

	case "1", "2", "3", "4", "a":
		if busy {
			return m, nil
		}
		eps := api.Requests()
		if key != "a" {
			ep, err := api.Lookup(key)
			if err != nil {
				return m, nil
			}
			eps = []*endpoint.Endpoint{ep}
		}
		m.start(StateRequesting)
		return m, tea.Batch(m.runRequests(eps), m.spinner.Tick)

	case "d":
		if busy {
			return m, nil
		}
		m.start(StateDownloading)
		return m, tea.Batch(m.startDownload(), m.progress.SetPercent(0), m.tickProgress())

	case "b":
		m.toggleDynamic()

	case "t":
		m.helper.SetDynamicDomain(!m.helper.IsDynamicDomain())
		m.addLog(fmt.Sprintf("Dynamic domain %s", onOff(m.helper.IsDynamicDomain())), download.LevelInfo)

	case "g":
		if busy {
			return m, nil
		}
		m.state = StateEditing
		if o, ok := m.helper.BaseURL(); ok {
			m.textInput.SetValue(o.String())
		} else {
			m.textInput.SetValue("")
		}
		return m, m.textInput.Focus()

	case "c":
		m.helper.ClearListener()
		m.addLog("Progress listeners cleared", download.LevelInfo)

	case "v":
		m.verbose = !m.verbose
	}

	return m, nil
}

func (m Model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.cancel()
		return m, tea.Quit

	case "esc":
		m.state = StateMenu
		m.textInput.Blur()
		return m, nil

	case "enter":
		m.state = StateMenu
		m.textInput.Blur()
		value := strings.TrimSpace(m.textInput.Value())
		if value == "" {
			m.helper.RemoveBaseURL()
			m.addLog("Global base URL removed", download.LevelInfo)
			return m, nil
		}
		if err := m.helper.SetBaseURL(value); err != nil {
			m.addLog(err.Error(), download.LevelError)
			return m, nil
		}
		m.addLog("Global base URL set to "+value, download.LevelSuccess)
		return m, nil
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

// toggleDynamic flips the dynamic alias between the GitHub and Baidu origins.
func (m *Model) toggleDynamic() {
	next := api.GitHubBaseURL
	if o, ok := m.helper.DomainURL(api.DomainDynamic); ok && o.String() == api.GitHubBaseURL {
		next = api.BaiduBaseURL
	}
	if err := m.helper.PutDomain(api.DomainDynamic, next); err != nil {
		m.addLog(err.Error(), download.LevelError)
		return
	}
	m.addLog(fmt.Sprintf("%s -> %s", api.DomainDynamic, next), download.LevelSuccess)
}

func (m *Model) start(state State) {
	m.state = state
	m.err = nil
	m.results = nil
	m.savedTo = ""
	m.receivedBytes = 0
	m.totalBytes = 0
}

func (m *Model) finish(err error) {
	switch {
	case m.ctx.Err() != nil:
		m.state = StateError
		m.err = errCancelled
		m.ctx, m.cancel = context.WithCancel(context.Background())
	case err != nil:
		m.state = StateError
		m.err = err
	default:
		m.state = StateComplete
	}
}

func (m *Model) addLog(message string, level download.ProgressLevel) {
	m.logs = append(m.logs, LogEntry{Message: message, Level: level})
	// Keep only the last maxLogs entries
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

func (m Model) percent() float64 {
	if m.totalBytes <= 0 {
		return 0
	}
	return min(float64(m.receivedBytes)/float64(m.totalBytes), 1)
}

// waitForEvent returns a command delivering the next manager event.
func (m Model) waitForEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		return ProgressMsg{Event: <-events}
	}
}

// tickProgress returns a command to tick progress updates.
func (m Model) tickProgress() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// runRequests calls eps in the background.
func (m Model) runRequests(eps []*endpoint.Endpoint) tea.Cmd {
	ctx, manager := m.ctx, m.manager
	return func() tea.Msg {
		return RequestsDoneMsg{Results: manager.RunRequests(ctx, eps)}
	}
}

// startDownload starts the download in the background.
func (m Model) startDownload() tea.Cmd {
	ctx, manager, dir := m.ctx, m.manager, m.settings.DownloadsPath
	return func() tea.Msg {
		path, err := manager.Download(ctx, api.Download, dir)
		received, total, _, _ := manager.GetProgress()
		return DownloadDoneMsg{Path: path, Received: received, Total: total, Err: err}
	}
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("httphelper"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Switch origins at runtime and watch progress"))
	b.WriteString("\n\n")

	b.WriteString(m.viewState())
	b.WriteString("\n")

	switch m.state {
	case StateEditing:
		b.WriteString(m.viewEditing())
	case StateRequesting:
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(subtitleStyle.Render("Sending requests..."))
		b.WriteString("\n")
	case StateDownloading:
		b.WriteString(m.viewDownloading())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	b.WriteString("\n")
	b.WriteString(m.renderLogs())

	// Footer
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func (m Model) viewState() string {
	var b strings.Builder

	b.WriteString(infoStyle.Render("Origins:"))
	b.WriteString("\n")

	snap := m.helper.Domains().Snapshot()
	for _, alias := range []string{api.DomainGitHub, api.DomainGoogle, api.DomainDynamic} {
		value := dimStyle.Render("(unset)")
		if o, ok := snap.Lookup(alias); ok {
			value = originStyle.Render(o.String())
		}
		b.WriteString(fmt.Sprintf("  %-8s %s\n", alias, value))
	}

	global := dimStyle.Render("(unset)")
	if o, ok := snap.Global(); ok {
		global = originStyle.Render(o.String())
	}
	b.WriteString(fmt.Sprintf("  %-8s %s\n", "global", global))
	b.WriteString(fmt.Sprintf("  dynamic domain: %s | verbose: %s\n", onOff(snap.Dynamic()), onOff(m.verbose)))

	return b.String()
}

func (m Model) viewEditing() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Global base URL:"))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewDownloading() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Downloading " + api.Download.Name))
	b.WriteString("\n")
	b.WriteString(m.progress.ViewAs(m.percent()))
	b.WriteString("\n")

	total := "?"
	if m.totalBytes > 0 {
		total = fmt.Sprintf("%.2f MB", float64(m.totalBytes)/1024/1024)
	}
	b.WriteString(infoStyle.Render(fmt.Sprintf(
		"Downloaded: %.2f MB / %s",
		float64(m.receivedBytes)/1024/1024,
		total,
	)))
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewComplete() string {
	if m.savedTo != "" {
		return boxStyle.Render(fmt.Sprintf(
			"Download Complete!\n\nFile: %s\nSize: %.2f MB",
			m.savedTo,
			float64(m.receivedBytes)/1024/1024,
		)) + "\n"
	}

	var b strings.Builder
	for _, res := range m.results {
		if res.Err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("✗ %s: %v", res.Endpoint.Name, res.Err)))
		} else {
			b.WriteString(successStyle.Render(fmt.Sprintf("✓ %s", res.Endpoint.Name)))
			b.WriteString(dimStyle.Render(" " + preview(res.Body)))
		}
		b.WriteString("\n")
	}
	return boxStyle.Render(strings.TrimSuffix(b.String(), "\n")) + "\n"
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s\n", m.err.Error()))
	}

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case download.LevelError:
			style = errorStyle
			prefix = "✗"
		case download.LevelWarning:
			style = warningStyle
			prefix = "!"
		case download.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case download.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) getHelpText() string {
	switch m.state {
	case StateEditing:
		return "enter: apply • esc: back"
	case StateRequesting, StateDownloading:
		return "esc: cancel"
	}
	return "1-4: request • a: all • d: download • b: toggle dynamic • t: dynamic on/off • g: global url • c: clear listeners • v: verbose • q: quit"
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// preview returns the first line of body, shortened to previewWidth runes.
func preview(body string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(body), "\n")
	if r := []rune(line); len(r) > previewWidth {
		return string(r[:previewWidth]) + "..."
	}
	return line
}

// Run starts the TUI application.
func Run(settings *config.Settings, h *helper.Helper, client *http.Client) error {
	p := tea.NewProgram(NewModel(settings, h, client), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
