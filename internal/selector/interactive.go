package selector

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle      = lipgloss.NewStyle().Bold(true)
	cursorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	selectedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	documentedStyle = lipgloss.NewStyle().Faint(true)
	helpStyle       = lipgloss.NewStyle().Faint(true)
)

// keyMap holds the picker's keybindings.
type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Toggle  key.Binding
	Confirm key.Binding
	Quit    key.Binding
}

var defaultKeys = keyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k")),
	Down:    key.NewBinding(key.WithKeys("down", "j")),
	Toggle:  key.NewBinding(key.WithKeys(" ")),
	Confirm: key.NewBinding(key.WithKeys("enter")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c", "esc")),
}

// pickerModel is a checkbox list over the offered candidates.
type pickerModel struct {
	candidates []Candidate
	cursor     int
	checked    map[int]bool
	confirmed  bool
	aborted    bool
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, defaultKeys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(keyMsg, defaultKeys.Down):
		if m.cursor < len(m.candidates)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, defaultKeys.Toggle):
		m.checked[m.cursor] = !m.checked[m.cursor]
	case key.Matches(keyMsg, defaultKeys.Confirm):
		m.confirmed = true
		return m, tea.Quit
	case key.Matches(keyMsg, defaultKeys.Quit):
		m.aborted = true
		return m, tea.Quit
	}
	return m, nil
}

func (m pickerModel) View() string {
	s := titleStyle.Render("Select the models you want to document:") + "\n\n"
	for i, c := range m.candidates {
		cursor := "  "
		if i == m.cursor {
			cursor = cursorStyle.Render("> ")
		}
		check := "[ ]"
		if m.checked[i] {
			check = selectedStyle.Render("[x]")
		}
		label := c.ID
		if c.Documented {
			label += documentedStyle.Render(" (documented)")
		}
		s += fmt.Sprintf("%s%s %s\n", cursor, check, label)
	}
	s += "\n" + helpStyle.Render("space: toggle, enter: confirm, q: abort")
	return s
}

// Interactive returns a Selector that shows a terminal checkbox picker.
func Interactive() Selector {
	return func(candidates []Candidate) ([]string, error) {
		if len(candidates) == 0 {
			return nil, nil
		}

		model := pickerModel{
			candidates: candidates,
			checked:    make(map[int]bool),
		}
		final, err := tea.NewProgram(model).Run()
		if err != nil {
			return nil, fmt.Errorf("selection failed: %w", err)
		}

		picked := final.(pickerModel)
		if picked.aborted {
			return nil, nil
		}

		var ids []string
		for i, c := range picked.candidates {
			if picked.checked[i] {
				ids = append(ids, c.ID)
			}
		}
		return ids, nil
	}
}
