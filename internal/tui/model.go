package tui

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Kauxtubh/pinecone/pkg/client"
	"github.com/Kauxtubh/pinecone/pkg/protocol"
)

// ModelConfig holds the configuration for creating a new dashboard model
type ModelConfig struct {
	Client *client.Client
	// Renderer is the Lip Gloss renderer to use for styling. If nil, the
	// default renderer (local terminal) is used.
	Renderer *lipgloss.Renderer
}

// Model is the root BubbleTea model for the live stats dashboard. It holds
// one table row per index and a namespace breakdown for the selected row,
// both refreshed from the gateway's stats socket.
type Model struct {
	config ModelConfig
	client *client.Client
	styles Styles

	table table.Model

	// Live state
	stream           *client.StatsStream
	frame            *protocol.StatsFrame
	connected        bool
	reconnectAttempt int
	lastUpdate       time.Time
	lastErr          error

	width    int
	height   int
	quitting bool
}

// NewModel creates the root dashboard model
func NewModel(config ModelConfig) Model {
	r := config.Renderer
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	styles := NewStyles(r)

	t := table.New(
		table.WithColumns(indexColumns(0)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	ts := table.DefaultStyles()
	ts.Header = ts.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("238")).
		BorderBottom(true).
		Bold(true)
	ts.Selected = ts.Selected.
		Foreground(lipgloss.Color("15")).
		Background(lipgloss.Color("62")).
		Bold(true)
	t.SetStyles(ts)

	return Model{
		config: config,
		client: config.Client,
		styles: styles,
		table:  t,
	}
}

func indexColumns(termWidth int) []table.Column {
	nameWidth := 28
	if termWidth > 0 {
		nameWidth = termWidth - 35
		if nameWidth < 12 {
			nameWidth = 12
		}
	}
	return []table.Column{
		{Title: "INDEX", Width: nameWidth},
		{Title: "DIM", Width: 6},
		{Title: "VECTORS", Width: 12},
		{Title: "NAMESPACES", Width: 11},
	}
}

// Init starts the stats subscription
func (m Model) Init() tea.Cmd {
	return connectCmd(m.client)
}

// connectCmd opens the stats socket
func connectCmd(c *client.Client) tea.Cmd {
	return func() tea.Msg {
		stream, err := c.SubscribeStats(context.Background())
		if err != nil {
			return DisconnectedMsg{Err: err}
		}
		return ConnectedMsg{Stream: stream}
	}
}

// waitForFrameCmd blocks until the server pushes the next frame
func waitForFrameCmd(stream *client.StatsStream) tea.Cmd {
	return func() tea.Msg {
		frame, err := stream.Next()
		if err != nil {
			return DisconnectedMsg{Err: err}
		}
		return StatsMsg{Frame: frame}
	}
}

// retryCmd waits out the backoff before the next connect attempt
func retryCmd(attempt int) tea.Cmd {
	delay := time.Duration(attempt) * time.Second
	if delay > 10*time.Second {
		delay = 10 * time.Second
	}
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return RetryMsg{Attempt: attempt}
	})
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			if m.stream != nil {
				m.stream.Close()
			}
			return m, tea.Quit
		case "r":
			if !m.connected {
				m.reconnectAttempt = 0
				cmds = append(cmds, connectCmd(m.client))
			}
		}

	case ConnectedMsg:
		m.connected = true
		m.reconnectAttempt = 0
		m.lastErr = nil
		m.stream = msg.Stream
		cmds = append(cmds, waitForFrameCmd(m.stream))

	case StatsMsg:
		m.frame = msg.Frame
		m.lastUpdate = time.Now()
		m.table.SetRows(m.buildRows())
		if m.stream != nil {
			cmds = append(cmds, waitForFrameCmd(m.stream))
		}

	case DisconnectedMsg:
		// A read error after Close during quit is expected.
		if m.quitting {
			return m, nil
		}
		m.connected = false
		m.stream = nil
		m.lastErr = msg.Err
		m.reconnectAttempt++
		cmds = append(cmds, retryCmd(m.reconnectAttempt))

	case RetryMsg:
		if !m.connected {
			cmds = append(cmds, connectCmd(m.client))
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// buildRows converts the latest frame into table rows, sorted by index name
func (m *Model) buildRows() []table.Row {
	if m.frame == nil {
		return nil
	}
	names := make([]string, 0, len(m.frame.Indexes))
	for name := range m.frame.Indexes {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([]table.Row, 0, len(names))
	for _, name := range names {
		stats := m.frame.Indexes[name]
		rows = append(rows, table.Row{
			name,
			strconv.Itoa(stats.Dimension),
			strconv.Itoa(stats.TotalVectorCount),
			strconv.Itoa(len(stats.Namespaces)),
		})
	}
	return rows
}

// updateLayout resizes the table to the terminal
func (m *Model) updateLayout() {
	// Header, detail pane and status bar take fixed height; the table gets
	// the rest.
	tableHeight := m.height - 12
	if tableHeight < 3 {
		tableHeight = 3
	}
	m.table.SetHeight(tableHeight)
	m.table.SetColumns(indexColumns(m.width))
}

// View renders the dashboard
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	header := m.styles.Header.Render("pinecone top")
	body := m.table.View()
	detail := m.renderDetail()
	status := m.renderStatusBar()

	return m.styles.App.Render(
		lipgloss.JoinVertical(lipgloss.Left, header, body, detail, status),
	)
}

// renderDetail shows the namespace breakdown for the selected index
func (m Model) renderDetail() string {
	row := m.table.SelectedRow()
	if m.frame == nil || len(row) == 0 {
		return m.styles.DetailBorder.Render(m.styles.Muted.Render("No indexes yet."))
	}

	name := row[0]
	stats, ok := m.frame.Indexes[name]
	if !ok {
		return m.styles.DetailBorder.Render("")
	}

	namespaces := make([]string, 0, len(stats.Namespaces))
	for ns := range stats.Namespaces {
		namespaces = append(namespaces, ns)
	}
	sort.Strings(namespaces)

	var b strings.Builder
	b.WriteString(m.styles.DetailTitle.Render("Namespaces in "+name) + "\n")
	if len(namespaces) == 0 {
		b.WriteString(m.styles.Muted.Render("  (empty)"))
	}
	for _, ns := range namespaces {
		label := ns
		if label == "" {
			label = "(default)"
		}
		b.WriteString(fmt.Sprintf("  %-24s %d\n", label, stats.Namespaces[ns]))
	}
	return m.styles.DetailBorder.Render(strings.TrimRight(b.String(), "\n"))
}

// renderStatusBar shows connection state, target and the last update time
func (m Model) renderStatusBar() string {
	var state string
	switch {
	case m.connected:
		state = m.styles.StatusConnected.Render("● connected")
	case m.reconnectAttempt > 0:
		state = m.styles.StatusReconnecting.Render(fmt.Sprintf("● reconnecting (attempt %d)", m.reconnectAttempt))
	default:
		state = m.styles.StatusDisconnected.Render("● disconnected")
	}

	parts := []string{state, m.styles.Muted.Render(m.client.BaseURL())}
	if !m.lastUpdate.IsZero() {
		parts = append(parts, m.styles.Muted.Render("updated "+m.lastUpdate.Format("15:04:05")))
	}
	if m.lastErr != nil && !m.connected {
		parts = append(parts, m.styles.StatusDisconnected.Render(m.lastErr.Error()))
	}

	hint := "q quit"
	if !m.connected {
		hint = "r reconnect  q quit"
	}
	parts = append(parts, m.styles.Muted.Render(hint))

	return m.styles.StatusBar.Render(strings.Join(parts, "  "))
}
