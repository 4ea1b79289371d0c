package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/kvhost/store"
)

const pageSize = 20

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	keyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type entry struct {
	key   []byte
	value []byte
}

type modelState int

const (
	stateBrowse modelState = iota
	stateSeek
	stateDetail
)

type browserModel struct {
	cursor *store.Cursor
	path   string
	err    error

	// starts holds the first key of every page visited; the last one is
	// the current page. A nil start means the beginning of the store.
	starts   [][]byte
	entries  []entry
	next     []byte
	selected int
	input    textinput.Model
	state    modelState
}

type pageMsg struct {
	start   []byte
	entries []entry
	next    []byte
	push    bool
	err     error
}

func newBrowserModel(cursor *store.Cursor, path string) *browserModel {
	ti := textinput.New()
	ti.Prompt = "seek: "
	ti.Placeholder = "key prefix"
	ti.Width = 40
	return &browserModel{
		cursor: cursor,
		path:   path,
		input:  ti,
		state:  stateBrowse,
	}
}

func (m *browserModel) Init() tea.Cmd {
	return m.load(nil, true)
}

// load reads one page starting at the first key >= start.
func (m *browserModel) load(start []byte, push bool) tea.Cmd {
	return func() tea.Msg {
		var err error
		if start == nil {
			err = m.cursor.SeekToFirst()
		} else {
			err = m.cursor.Seek(start)
		}
		msg := pageMsg{start: start, push: push}
		for err == nil && len(msg.entries) <= pageSize {
			var ok bool
			if ok, err = m.cursor.IsValid(); err != nil || !ok {
				break
			}
			var e entry
			if e.key, err = m.cursor.Key(); err != nil {
				break
			}
			if len(msg.entries) == pageSize {
				msg.next = e.key
				break
			}
			if e.value, err = m.cursor.Value(); err != nil {
				break
			}
			msg.entries = append(msg.entries, e)
			err = m.cursor.Next()
		}
		msg.err = err
		return msg
	}
}

func (m *browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.state == stateSeek {
			return m.updateSeek(msg)
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			if m.state == stateBrowse && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateBrowse && m.selected < len(m.entries)-1 {
				m.selected++
			}

		case "right", "pgdown", "n":
			if m.state == stateBrowse && m.next != nil {
				return m, m.load(m.next, true)
			}

		case "left", "pgup", "p":
			if m.state == stateBrowse && len(m.starts) > 1 {
				m.starts = m.starts[:len(m.starts)-1]
				return m, m.load(m.starts[len(m.starts)-1], false)
			}

		case "g", "home":
			if m.state == stateBrowse {
				m.starts = nil
				return m, m.load(nil, true)
			}

		case "/":
			if m.state == stateBrowse {
				m.state = stateSeek
				m.input.SetValue("")
				m.input.Focus()
				return m, textinput.Blink
			}

		case "enter":
			switch m.state {
			case stateBrowse:
				if len(m.entries) > 0 {
					m.state = stateDetail
				}
			case stateDetail:
				m.state = stateBrowse
			}

		case "esc":
			m.state = stateBrowse
			m.err = nil
		}

	case pageMsg:
		m.err = msg.err
		if msg.err != nil {
			return m, nil
		}
		if msg.push {
			m.starts = append(m.starts, msg.start)
		}
		m.entries = msg.entries
		m.next = msg.next
		m.selected = 0
	}
	return m, nil
}

func (m *browserModel) updateSeek(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.input.Blur()
		m.state = stateBrowse
		return m, nil
	case "enter":
		m.input.Blur()
		m.state = stateBrowse
		return m, m.load([]byte(m.input.Value()), true)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *browserModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("KV Browser"))
	b.WriteString(" ")
	b.WriteString(m.path)
	b.WriteString(fmt.Sprintf("  page %d", len(m.starts)))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n\n")
	}

	switch m.state {
	case stateDetail:
		e := m.entries[m.selected]
		b.WriteString(keyStyle.Render(display(e.key)))
		b.WriteString("\n\n")
		b.WriteString(valueStyle.Render(display(e.value)))
		b.WriteString(fmt.Sprintf("\n\n%d bytes\n\n", len(e.value)))
		b.WriteString(helpStyle.Render("enter back • q quit"))
		return b.String()

	case stateSeek:
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
	}

	if len(m.entries) == 0 {
		b.WriteString("(no entries)\n")
	}
	for i, e := range m.entries {
		line := truncate(display(e.key), 32)
		line = fmt.Sprintf("%-32s  %s", line, truncate(display(e.value), 40))
		if i == m.selected {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	if m.state == stateSeek {
		b.WriteString(helpStyle.Render("enter seek • esc cancel"))
	} else {
		b.WriteString(helpStyle.Render("↑/↓ select • ←/→ page • / seek • g first • enter show • q quit"))
	}
	return b.String()
}

func runInteractive(path string, opts *store.Options) error {
	db, err := store.Open(path, opts)
	if err != nil {
		return err
	}
	defer db.Close()

	cursor, err := db.NewCursor()
	if err != nil {
		return err
	}
	defer cursor.Close()

	p := tea.NewProgram(newBrowserModel(cursor, path), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
