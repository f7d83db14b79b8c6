// Package tui holds the interactive pieces of the CLI. Currently that is a
// single-select picker used to resolve who "me" is when the transcript does
// not say.
package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrCancelled is returned when the user quits the picker without choosing.
var ErrCancelled = errors.New("selection cancelled")

type keyMap struct {
	Up    key.Binding
	Down  key.Binding
	Enter key.Binding
	Quit  key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k", "ctrl+k"),
		key.WithHelp("up/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j", "ctrl+j"),
		key.WithHelp("dn/j", "down"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "choose"),
	),
	Quit: key.NewBinding(
		key.WithKeys("esc", "ctrl+c", "q"),
		key.WithHelp("esc", "cancel"),
	),
}

var (
	colorPrimary   = lipgloss.Color("12")
	colorHighlight = lipgloss.Color("11")
	colorDim       = lipgloss.Color("240")

	styleTitle    = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	styleSelected = lipgloss.NewStyle().Foreground(colorHighlight).Bold(true)
	styleNormal   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	styleStatus   = lipgloss.NewStyle().Foreground(colorDim)
)

type pickerModel struct {
	title    string
	options  []string
	cursor   int
	choice   int // -1 until chosen
	quitting bool
}

func (m pickerModel) Init() tea.Cmd { return nil }

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, keys.Enter):
			m.choice = m.cursor
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.options)-1 {
				m.cursor++
			}
		}
	}
	return m, nil
}

func (m pickerModel) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(styleTitle.Render(m.title) + "\n\n")
	for i, opt := range m.options {
		if i == m.cursor {
			b.WriteString(styleSelected.Render("> "+opt) + "\n")
		} else {
			b.WriteString("  " + styleNormal.Render(opt) + "\n")
		}
	}
	b.WriteString("\n" + styleStatus.Render("up/dn navigate | enter choose | esc cancel"))
	return b.String()
}

// Pick shows a single-select list and returns the chosen option.
func Pick(title string, options []string) (string, error) {
	if len(options) == 0 {
		return "", ErrCancelled
	}
	m := pickerModel{title: title, options: options, choice: -1}
	final, err := tea.NewProgram(m).Run()
	if err != nil {
		return "", fmt.Errorf("picker: %w", err)
	}
	fm := final.(pickerModel)
	if fm.choice < 0 {
		return "", ErrCancelled
	}
	return options[fm.choice], nil
}
