package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/docmap/pkg/model"
)

var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// ViewListModel is the bubbletea model for picking a view of a multi-view
// map. Views without nodes are listed but cannot be picked.
type ViewListModel struct {
	Views    []model.ProductView
	Cursor   int
	Selected *model.ProductView
	Height   int
	Offset   int
}

// NewViewListModel creates a view list model over views in display order.
func NewViewListModel(views []model.ProductView) ViewListModel {
	return ViewListModel{Views: views, Height: 15}
}

func (m ViewListModel) Init() tea.Cmd {
	return nil
}

func (m ViewListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Views)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Views) == 0 || len(m.Views[m.Cursor].Nodes) == 0 {
				return m, nil
			}
			v := m.Views[m.Cursor]
			m.Selected = &v
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	return m, nil
}

func (m ViewListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select View"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Views))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		v := m.Views[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, v.Title, v.Slug, strconv.Itoa(len(v.Nodes)), strconv.Itoa(len(v.Edges))})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "View", "Slug", "Nodes", "Edges").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.Offset + row
			if idx >= len(m.Views) {
				return lipgloss.NewStyle()
			}
			base := lipgloss.NewStyle()
			if len(m.Views[idx].Nodes) == 0 {
				base = base.Foreground(colorDim)
			} else if col == 1 || col == 2 {
				base = base.Foreground(colorGreen)
			}
			if idx == m.Cursor {
				return base.Bold(true)
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Views))))

	return b.String()
}

// pickView lets the user choose a view of m interactively. It returns an
// empty slug when no selection was made.
func pickView(m *model.Map) (string, error) {
	views := make([]model.ProductView, len(m.Views))
	copy(views, m.Views)
	model.SortViews(views)

	final, err := tea.NewProgram(NewViewListModel(views)).Run()
	if err != nil {
		return "", err
	}
	fm, ok := final.(ViewListModel)
	if !ok || fm.Selected == nil {
		return "", nil
	}
	return fm.Selected.Slug, nil
}
