package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"lumeni-retrieval/internal/domain"
	"lumeni-retrieval/internal/retrieval"
)

// RetrievalPort is the console-facing subset of the retrieval service.
type RetrievalPort interface {
	RetrieveForModule(ctx context.Context, query string, moduleID int64, limit int) []retrieval.Snippet
	SearchVideos(ctx context.Context, query string, limit int) ([]domain.Video, error)
}

// Model is the Bubble Tea model for the search console. With a module ID
// it searches that module's indexed materials; without one it searches the
// video catalog.
type Model struct {
	retriever RetrievalPort
	moduleID  int64
	limit     int

	input    textinput.Model
	viewport viewport.Model
	snippets []retrieval.Snippet
	videos   []domain.Video
	cursor   int
	status   string
	ready    bool
}

// New creates a search console. moduleID <= 0 selects catalog mode.
func New(retriever RetrievalPort, moduleID int64, limit int) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	if moduleID > 0 {
		ti.Placeholder = "Ask about the course materials"
	} else {
		ti.Placeholder = "Search the video catalog"
	}
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		retriever: retriever,
		moduleID:  moduleID,
		limit:     limit,
		input:     ti,
		viewport:  vp,
		status:    "Ready. Type a query and press Enter.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + qh + 1 // header, status, query frame, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderCurrent())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" {
				m = m.runQuery(q)
				m.viewport.SetContent(m.renderCurrent())
				return m, nil
			}
		case "down":
			if n := m.resultCount(); n > 0 {
				m.cursor = (m.cursor + 1) % n
				m.viewport.SetContent(m.renderCurrent())
				return m, nil
			}
		case "up":
			if n := m.resultCount(); n > 0 {
				m.cursor = (m.cursor - 1 + n) % n
				m.viewport.SetContent(m.renderCurrent())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) runQuery(q string) Model {
	ctx := context.Background()
	m.cursor = 0
	if m.moduleID > 0 {
		m.snippets = m.retriever.RetrieveForModule(ctx, q, m.moduleID, m.limit)
		if len(m.snippets) == 0 {
			m.status = fmt.Sprintf("No material found for %q", q)
		} else {
			m.status = fmt.Sprintf("%d passage(s) for %q", len(m.snippets), q)
		}
		return m
	}
	videos, err := m.retriever.SearchVideos(ctx, q, m.limit)
	if err != nil {
		m.status = "Error: " + err.Error()
		m.videos = nil
		return m
	}
	m.videos = videos
	if len(videos) == 0 {
		m.status = fmt.Sprintf("No videos found for %q", q)
	} else {
		m.status = fmt.Sprintf("%d video(s) for %q", len(videos), q)
	}
	return m
}

func (m Model) resultCount() int {
	if m.moduleID > 0 {
		return len(m.snippets)
	}
	return len(m.videos)
}

// View renders the console layout and the current result.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	title := "Lumeni Catalog Search"
	if m.moduleID > 0 {
		title = fmt.Sprintf("Lumeni Module %d Search", m.moduleID)
	}
	header := lipgloss.NewStyle().Bold(true).Render(title)
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) renderCurrent() string {
	if m.moduleID > 0 {
		return m.renderSnippet()
	}
	return m.renderVideo()
}

func (m Model) renderSnippet() string {
	if len(m.snippets) == 0 {
		return "No results yet."
	}
	s := m.snippets[m.cursor]
	head := fmt.Sprintf("Passage %d/%d", m.cursor+1, len(m.snippets))
	src := sourceStyle.Render("From: " + s.Source)
	return head + "\n\n" + s.Text + "\n\n" + src
}

func (m Model) renderVideo() string {
	if len(m.videos) == 0 {
		return "No results yet."
	}
	v := m.videos[m.cursor]
	head := fmt.Sprintf("Video %d/%d", m.cursor+1, len(m.videos))
	title := lipgloss.NewStyle().Bold(true).Render(v.Title)
	lines := []string{head, "", title}
	if strings.TrimSpace(v.Description) != "" {
		lines = append(lines, "", v.Description)
	}
	if v.URL != "" {
		lines = append(lines, "", sourceStyle.Render(v.URL))
	}
	return strings.Join(lines, "\n")
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	sourceStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
)
