package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aurwrap/aurwrap/pkg/aur"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// UpdateListModel - Interactive update selection
// =============================================================================

// UpdateListModel is the bubbletea model for picking which outdated packages
// to upgrade. All entries start checked.
type UpdateListModel struct {
	Updates   []aur.Update
	Checked   []bool
	Cursor    int
	Confirmed bool
	Height    int
	Offset    int
}

// NewUpdateListModel creates an update list model with everything selected.
func NewUpdateListModel(updates []aur.Update) UpdateListModel {
	checked := make([]bool, len(updates))
	for i := range checked {
		checked[i] = true
	}
	return UpdateListModel{
		Updates: updates,
		Checked: checked,
		Height:  15,
	}
}

func (m UpdateListModel) Init() tea.Cmd {
	return nil
}

func (m UpdateListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			if m.Cursor < len(m.Updates)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case " ":
			m.Checked[m.Cursor] = !m.Checked[m.Cursor]
		case "a":
			all := true
			for _, c := range m.Checked {
				if !c {
					all = false
					break
				}
			}
			for i := range m.Checked {
				m.Checked[i] = !all
			}
		case "enter":
			m.Confirmed = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m UpdateListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Updates"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  space toggle  a all  ⏎ confirm  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Updates) {
		end = len(m.Updates)
	}

	for i := m.Offset; i < end; i++ {
		u := m.Updates[i]

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		check := "[ ]"
		if m.Checked[i] {
			check = "[x]"
		}

		line := fmt.Sprintf("%s%s %-30s %s %s %s",
			cursor, check, u.Name,
			listDimStyle.Render(u.Installed),
			listDimStyle.Render(iconArrow),
			StyleSuccess.Render(u.Latest))

		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else if m.Checked[i] {
			b.WriteString(listNormalStyle.Render(line))
		} else {
			b.WriteString(listDimStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Updates))))

	return b.String()
}

// Selected returns the updates left checked, in display order.
func (m UpdateListModel) Selected() []aur.Update {
	var out []aur.Update
	for i, u := range m.Updates {
		if m.Checked[i] {
			out = append(out, u)
		}
	}
	return out
}

// pickUpdates runs the interactive selection and returns the chosen updates.
// A quit without confirming returns nil.
func pickUpdates(updates []aur.Update) ([]aur.Update, error) {
	p := tea.NewProgram(NewUpdateListModel(updates))
	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	m, ok := final.(UpdateListModel)
	if !ok || !m.Confirmed {
		return nil, nil
	}
	return m.Selected(), nil
}
