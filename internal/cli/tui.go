package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/suratkita/suratkita/pkg/document"
	"github.com/suratkita/suratkita/pkg/merge"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// PreviewModel - Interactive mail merge preview
// =============================================================================

// PageCounter returns the number of pages a resolved letter would render to.
type PageCounter func(doc *document.Document) (int, error)

// PreviewModel is the bubbletea model for browsing a mail merge one
// recipient at a time.
type PreviewModel struct {
	Preview *merge.Preview
	Pages   PageCounter

	// Selected is the 0-based recipient chosen with enter, or -1.
	Selected int

	Height int // rows of the recipient list shown
	Offset int

	// jump collects digits typed before "g" to seek to a recipient.
	jump string
}

// NewPreviewModel creates a preview model positioned at the first recipient.
func NewPreviewModel(p *merge.Preview, pages PageCounter) PreviewModel {
	return PreviewModel{
		Preview:  p,
		Pages:    pages,
		Selected: -1,
		Height:   8,
	}
}

func (m PreviewModel) Init() tea.Cmd {
	return nil
}

func (m PreviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		key := msg.String()
		switch key {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k", "left", "h", "p":
			m.Preview.Prev()
			m.jump = ""
		case "down", "j", "right", "l", "n":
			m.Preview.Next()
			m.jump = ""
		case "home":
			_ = m.Preview.Seek(0)
		case "end":
			if m.Preview.Len() > 0 {
				_ = m.Preview.Seek(m.Preview.Len() - 1)
			}
		case "g":
			if n, err := strconv.Atoi(m.jump); err == nil {
				_ = m.Preview.Seek(n - 1)
			}
			m.jump = ""
		case "enter":
			if m.Preview.Len() > 0 {
				m.Selected = m.Preview.Position()
				return m, tea.Quit
			}
		default:
			if len(key) == 1 && key[0] >= '0' && key[0] <= '9' {
				m.jump += key
			}
		}
		m.scroll()
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 16
		if m.Height < 3 {
			m.Height = 3
		}
		m.scroll()
	}
	return m, nil
}

// scroll keeps the current recipient inside the visible window.
func (m *PreviewModel) scroll() {
	pos := m.Preview.Position()
	if pos < m.Offset {
		m.Offset = pos
	}
	if pos >= m.Offset+m.Height {
		m.Offset = pos - m.Height + 1
	}
}

func (m PreviewModel) View() string {
	var b strings.Builder

	rec, doc := m.Preview.Current()

	b.WriteString(StyleTitle.Render("Mail Merge Preview"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ recipient  <n>g jump  ⏎ export this letter  q quit"))
	b.WriteString("\n\n")

	b.WriteString(m.letterCard(rec, doc))
	b.WriteString("\n\n")
	b.WriteString(m.recipientList())
	b.WriteString("\n")
	total := max(m.Preview.Len(), 1)
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Preview.Position()+1, total)))
	if m.jump != "" {
		b.WriteString(listDimStyle.Render("  go to " + m.jump))
	}

	return b.String()
}

// letterCard summarizes the letter resolved for rec.
func (m PreviewModel) letterCard(rec document.Recipient, doc *document.Document) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Width(10)
	line := func(k, v string) string {
		if v == "" {
			v = "—"
		}
		return headerStyle.Render(k) + " " + listNormalStyle.Render(v)
	}

	pages := "?"
	if m.Pages != nil {
		if n, err := m.Pages(doc); err == nil {
			pages = strconv.Itoa(n)
		} else {
			pages = StyleWarning.Render(err.Error())
		}
	}

	lines := []string{
		line("Kepada", rec.Name),
		line("Jabatan", rec.Title),
		line("Alamat", rec.Place),
		"",
		line("Perihal", doc.Header.Subject),
		line("Nomor", doc.Header.LetterNumber),
		line("Jenis", string(doc.Kind)),
		line("Halaman", pages),
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorDim).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}

// recipientList renders the visible window of recipients.
func (m PreviewModel) recipientList() string {
	recs := m.Preview.Recipients()
	end := min(m.Offset+m.Height, len(recs))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		cursor := "  "
		if i == m.Preview.Position() {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, strconv.Itoa(i + 1), recs[i].Name, recs[i].Title})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "#", "Nama", "Jabatan").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.Offset+row == m.Preview.Position() {
				return listSelectedStyle
			}
			return listDimStyle
		}).
		Render()
}
