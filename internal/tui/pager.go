// Package tui provides the interactive conversation pager and setup form.
package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/sessionlens/internal/model"
	"github.com/theirongolddev/sessionlens/internal/tui/components"
	"github.com/theirongolddev/sessionlens/internal/tui/theme"
)

// PageLoader fetches one page of a conversation.
type PageLoader func(page, pageSize int) (model.ConversationView, error)

type keyMap struct {
	Next   key.Binding
	Prev   key.Binding
	Top    key.Binding
	Bottom key.Binding
	Help   key.Binding
	Quit   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Next: key.NewBinding(
			key.WithKeys("n", "right", "l"),
			key.WithHelp("n/→", "next page"),
		),
		Prev: key.NewBinding(
			key.WithKeys("p", "left", "h"),
			key.WithHelp("p/←", "prev page"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "bottom"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev},
		{k.Top, k.Bottom},
		{k.Help, k.Quit},
	}
}

// pageLoadedMsg is sent when a page fetch completes.
type pageLoadedMsg struct {
	view model.ConversationView
	err  error
}

// Pager is a Bubble Tea model that scrolls through one conversation page at
// a time and fetches neighbouring pages on demand.
type Pager struct {
	load     PageLoader
	title    string
	page     int
	pageSize int

	view    model.ConversationView
	loaded  bool
	loading bool
	err     error

	keys     keyMap
	help     help.Model
	spinner  spinner.Model
	viewport viewport.Model
	width    int
	height   int
}

// NewPager returns a pager starting at page.
func NewPager(title string, page, pageSize int, load PageLoader) Pager {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent)

	return Pager{
		load:     load,
		title:    title,
		page:     page,
		pageSize: pageSize,
		loading:  true,
		keys:     defaultKeyMap(),
		help:     help.New(),
		spinner:  sp,
		viewport: viewport.New(0, 0),
	}
}

// Init starts loading the first page.
func (m Pager) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch(m.page))
}

func (m Pager) fetch(page int) tea.Cmd {
	load, size := m.load, m.pageSize
	return func() tea.Msg {
		v, err := load(page, size)
		return pageLoadedMsg{view: v, err: err}
	}
}

// Update handles input and page loads.
func (m Pager) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.resize()
		return m, nil

	case pageLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.view = msg.view
			m.page = msg.view.Page
			m.loaded = true
			m.viewport.SetContent(RenderMessages(m.view, m.viewport.Width))
			m.viewport.GotoTop()
		}
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Pager) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resize()
		return m, nil
	case key.Matches(msg, m.keys.Next):
		if m.loading || !m.view.HasMore {
			return m, nil
		}
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.fetch(m.page+1))
	case key.Matches(msg, m.keys.Prev):
		if m.loading || m.page == 0 {
			return m, nil
		}
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.fetch(m.page-1))
	case key.Matches(msg, m.keys.Top):
		m.viewport.GotoTop()
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// resize fits the viewport between the header and the status/help lines.
func (m *Pager) resize() {
	chrome := 2 + lipgloss.Height(m.help.View(m.keys))
	m.viewport.Width = m.width
	m.viewport.Height = max(m.height-chrome, 1)
	if m.loaded {
		m.viewport.SetContent(RenderMessages(m.view, m.viewport.Width))
	}
}

// View renders the pager.
func (m Pager) View() string {
	t := theme.Active
	header := components.RenderRule(m.width, m.title, t.BorderAccent)

	var body string
	switch {
	case m.err != nil:
		body = lipgloss.NewStyle().Foreground(t.Orange).Render("  " + m.err.Error())
	case !m.loaded:
		body = "  " + m.spinner.View() + " loading conversation..."
	default:
		body = m.viewport.View()
	}

	right := fmt.Sprintf("%3.f%% ", m.viewport.ScrollPercent()*100)
	if m.loading && m.loaded {
		right = m.spinner.View() + " " + right
	}
	status := components.RenderStatusBar(m.width, " "+pageLabel(m.view), right)

	return lipgloss.JoinVertical(lipgloss.Left, header, body, status, m.help.View(m.keys))
}

func pageLabel(v model.ConversationView) string {
	if !v.HasTranscript {
		return "no transcript"
	}
	pages := 1
	if v.PageSize > 0 && v.TotalEntries > 0 {
		pages = (v.TotalEntries + v.PageSize - 1) / v.PageSize
	}
	return fmt.Sprintf("page %d/%d  %d messages", v.Page+1, pages, v.TotalEntries)
}

// Run starts the pager full-screen and blocks until the user quits.
func Run(p Pager) error {
	_, err := tea.NewProgram(p, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}
