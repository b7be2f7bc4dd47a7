package tui

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"complaintrag/internal/domain"
	"complaintrag/internal/service"
)

const (
	maxEvidence   = 3
	evidenceRunes = 100
)

// QueryPort is the TUI-facing subset of the RAG service.
type QueryPort interface {
	ProcessQuery(ctx context.Context, query string) service.Response
}

// answerMsg carries a finished query back into Update.
type answerMsg struct {
	query string
	resp  service.Response
}

// Model is the Bubble Tea model for the chat application.
type Model struct {
	service  QueryPort
	input    textinput.Model
	viewport viewport.Model
	resp     *service.Response
	title    string
	summary  string
	status   string
	cursor   int
	ready    bool
	busy     bool
	query    string
}

// New creates a new chat model. title names the answer source and summary
// is shown under it.
func New(svc QueryPort, title, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about complaints and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{service: svc, input: ti, viewport: vp, title: title, summary: summary, status: "Ready. Ctrl+C to quit."}
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
		reserved := 2 + 1 + qh + 1 // header and summary, status, input box, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-rh)
		m.viewport.SetContent(m.renderAnswer())
		return m, nil
	case answerMsg:
		m.busy = false
		m.resp = &msg.resp
		m.query = msg.query
		m.cursor = 0
		m.status = fmt.Sprintf("Answer for %q (%d excerpts)", msg.query, len(msg.resp.Chunks))
		m.viewport.SetContent(m.renderAnswer())
		m.viewport.GotoTop()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			if m.busy {
				return m, nil
			}
			q := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			m.busy = true
			m.status = "Searching..."
			return m, m.ask(q)
		case "down":
			if n := m.evidenceCount(); n > 0 {
				m.cursor = (m.cursor + 1) % n
				m.viewport.SetContent(m.renderAnswer())
				return m, nil
			}
		case "up":
			if n := m.evidenceCount(); n > 0 {
				m.cursor = (m.cursor - 1 + n) % n
				m.viewport.SetContent(m.renderAnswer())
				return m, nil
			}
		case "pgdown":
			m.viewport.HalfViewDown()
			return m, nil
		case "pgup":
			m.viewport.HalfViewUp()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) ask(q string) tea.Cmd {
	svc := m.service
	return func() tea.Msg {
		return answerMsg{query: q, resp: svc.ProcessQuery(context.Background(), q)}
	}
}

// View renders the layout and the current answer.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render(m.title)
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.summary)
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + summary + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) evidenceCount() int {
	if m.resp == nil {
		return 0
	}
	return min(len(m.resp.Chunks), maxEvidence)
}

func (m Model) renderAnswer() string {
	if m.resp == nil {
		return "Ask a question about consumer complaints, e.g. \"What are common credit card issues?\""
	}
	var b strings.Builder
	b.WriteString(m.resp.Answer)
	n := m.evidenceCount()
	if n == 0 {
		return b.String()
	}
	b.WriteString("\n\n")
	b.WriteString(evidenceTitleStyle.Render("Evidence"))
	for i := 0; i < n; i++ {
		marker := "  "
		if i == m.cursor {
			marker = "› "
		}
		var meta domain.Metadata
		if i < len(m.resp.Metadata) {
			meta = m.resp.Metadata[i]
		}
		fmt.Fprintf(&b, "\n%s[%d] %s · %s: %s", marker, i+1,
			meta.Get(domain.KeyProductCategory), meta.Get(domain.KeyIssue), truncate(m.resp.Chunks[i], evidenceRunes))
	}
	b.WriteString("\n\n")
	b.WriteString(highlightBestSentence(m.resp.Chunks[m.cursor], m.query))
	return b.String()
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

var (
	resultBoxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	evidenceTitleStyle = lipgloss.NewStyle().Underline(true)
	unicodeWordRe      = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentenceRe         = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
)

// highlightBestSentence emphasizes the sentence sharing the most words with query.
func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := splitSentences(text)
	qTokens := toTokenSet(query)
	if len(qTokens) == 0 {
		return strings.Join(sentences, " ")
	}
	bestIdx, bestScore := 0, -1
	for i, s := range sentences {
		if score := tokenOverlapScore(qTokens, s); score > bestScore {
			bestScore, bestIdx = score, i
		}
	}
	sentences[bestIdx] = highlightStyle.Render(sentences[bestIdx])
	return strings.Join(sentences, " ")
}

// splitSentences keeps trailing text without terminal punctuation as a
// final sentence.
func splitSentences(text string) []string {
	var sentences []string
	last := 0
	for _, loc := range sentenceRe.FindAllStringIndex(text, -1) {
		if s := strings.TrimSpace(text[loc[0]:loc[1]]); s != "" {
			sentences = append(sentences, s)
		}
		last = loc[1]
	}
	if tail := strings.TrimSpace(text[last:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	seen := map[string]struct{}{}
	for _, t := range unicodeWordRe.FindAllString(strings.ToLower(sentence), -1) {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}
