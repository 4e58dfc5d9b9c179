package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/kintree/pkg/family"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorRule)
)

// =============================================================================
// MemberPickerModel - Interactive member selection
// =============================================================================

// MemberPickerModel is the bubbletea model for picking a member. Typed
// characters narrow the list by name.
type MemberPickerModel struct {
	Members  []family.WithFamily
	Filter   string
	Cursor   int
	Offset   int
	Height   int
	Selected *family.WithFamily

	visible []int
}

// NewMemberPickerModel creates a picker over members in the given order.
func NewMemberPickerModel(members []family.WithFamily) MemberPickerModel {
	m := MemberPickerModel{Members: members, Height: 15}
	m.refilter()
	return m
}

func (m MemberPickerModel) Init() tea.Cmd {
	return nil
}

func (m MemberPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyUp:
			m.move(-1)
		case tea.KeyDown:
			m.move(1)
		case tea.KeyEnter:
			if len(m.visible) == 0 {
				return m, nil
			}
			sel := m.Members[m.visible[m.Cursor]]
			m.Selected = &sel
			return m, tea.Quit
		case tea.KeyBackspace:
			if m.Filter != "" {
				r := []rune(m.Filter)
				m.Filter = string(r[:len(r)-1])
				m.refilter()
			}
		case tea.KeySpace:
			m.Filter += " "
			m.refilter()
		case tea.KeyRunes:
			m.Filter += string(msg.Runes)
			m.refilter()
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 8
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m *MemberPickerModel) move(delta int) {
	next := m.Cursor + delta
	if next < 0 || next >= len(m.visible) {
		return
	}
	m.Cursor = next
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

// refilter recomputes the visible rows and resets the cursor.
func (m *MemberPickerModel) refilter() {
	terms := strings.Fields(strings.ToLower(m.Filter))
	m.visible = nil
	for i, mem := range m.Members {
		name := strings.ToLower(mem.FullName())
		keep := true
		for _, t := range terms {
			if !strings.Contains(name, t) {
				keep = false
				break
			}
		}
		if keep {
			m.visible = append(m.visible, i)
		}
	}
	m.Cursor, m.Offset = 0, 0
}

func (m MemberPickerModel) View() string {
	var b strings.Builder

	b.WriteString(styleName.Render("Select Member"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  type to filter  ⏎ select  esc quit"))
	b.WriteString("\n")
	b.WriteString(styleAccent.Render("› " + m.Filter))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.visible))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		mem := m.Members[m.visible[i]]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{
			cursor,
			strconv.FormatInt(mem.ID, 10),
			mem.FullName(),
			genderCell(mem.Gender),
			dobCell(mem.DOB),
			strconv.Itoa(len(mem.Spouses) + len(mem.Children) + len(mem.Parents)),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorMuted).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorRule)).
		Headers("", "ID", "Name", "Gender", "Born", "Relatives").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if m.Offset+row == m.Cursor {
				return lipgloss.NewStyle().Foreground(colorOK).Bold(true)
			}
			if col == 1 || col == 4 {
				return lipgloss.NewStyle().Foreground(colorRule)
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	pos := 0
	if len(m.visible) > 0 {
		pos = m.Cursor + 1
	}
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", pos, len(m.visible))))

	return b.String()
}
