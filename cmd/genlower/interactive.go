package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/genlower/syntax"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	paneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type pane int

const (
	paneSource pane = iota
	paneIR
	paneLowered
	paneCount
)

func (p pane) String() string {
	switch p {
	case paneSource:
		return "source"
	case paneIR:
		return "operations"
	case paneLowered:
		return "lowered"
	}
	return "unknown"
}

type modelState int

const (
	stateSelectFunc modelState = iota
	stateShowFunc
)

// headerLines is the number of lines View writes above the viewport.
const headerLines = 4

type interactiveModel struct {
	err      error
	opts     options
	filename string
	source   string
	funcs    []functionView
	visible  []int
	filter   textinput.Model
	view     viewport.Model
	selected int
	pane     pane
	state    modelState
	loaded   bool
	width    int
	height   int
}

type loadedMsg struct {
	err   error
	funcs []functionView
}

func newInteractiveModel(filename, source string, opts options) *interactiveModel {
	filter := textinput.New()
	filter.Placeholder = "filter functions"
	filter.Prompt = "/ "
	filter.Width = 40
	filter.Focus()
	return &interactiveModel{
		opts:     opts,
		filename: filename,
		source:   source,
		filter:   filter,
		view:     viewport.New(80, 20),
		state:    stateSelectFunc,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return tea.Batch(m.load, textinput.Blink)
}

func (m *interactiveModel) load() tea.Msg {
	prog, err := syntax.Parse(m.source)
	if err != nil {
		return loadedMsg{err: err}
	}
	cfg := m.opts.generatorConfig()
	var funcs []functionView
	for _, g := range generators(prog) {
		funcs = append(funcs, describe(g, cfg))
	}
	return loadedMsg{funcs: funcs}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.view.Width = msg.Width
		m.view.Height = max(msg.Height-headerLines-2, 1)
		return m, nil

	case loadedMsg:
		m.loaded = true
		m.err = msg.err
		m.funcs = msg.funcs
		m.applyFilter()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		}
		if m.state == stateShowFunc {
			return m.updateShow(msg)
		}
		return m.updateSelect(msg)
	}

	if m.state == stateShowFunc {
		var cmd tea.Cmd
		m.view, cmd = m.view.Update(msg)
		return m, cmd
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	return m, cmd
}

func (m *interactiveModel) updateSelect(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, tea.Quit
	case "up":
		if m.selected > 0 {
			m.selected--
		}
		return m, nil
	case "down":
		if m.selected < len(m.visible)-1 {
			m.selected++
		}
		return m, nil
	case "enter":
		if len(m.visible) == 0 {
			return m, nil
		}
		m.state = stateShowFunc
		m.pane = paneSource
		m.showPane()
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m *interactiveModel) updateShow(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc":
		m.state = stateSelectFunc
		return m, nil
	case "tab":
		m.pane = (m.pane + 1) % paneCount
		m.showPane()
		return m, nil
	case "shift+tab":
		m.pane = (m.pane + paneCount - 1) % paneCount
		m.showPane()
		return m, nil
	}
	var cmd tea.Cmd
	m.view, cmd = m.view.Update(msg)
	return m, cmd
}

// applyFilter recomputes the visible functions from the filter text.
func (m *interactiveModel) applyFilter() {
	query := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	m.visible = m.visible[:0]
	for i, f := range m.funcs {
		if query == "" || strings.Contains(strings.ToLower(f.path), query) {
			m.visible = append(m.visible, i)
		}
	}
	if m.selected >= len(m.visible) {
		m.selected = max(len(m.visible)-1, 0)
	}
}

func (m *interactiveModel) current() functionView {
	return m.funcs[m.visible[m.selected]]
}

func (m *interactiveModel) showPane() {
	f := m.current()
	var content string
	switch {
	case m.pane == paneSource:
		content = f.source
	case f.err != nil:
		content = errorStyle.Render(fmt.Sprintf("Error: %v", f.err))
	case m.pane == paneIR:
		content = f.ir
	default:
		content = f.lowered
	}
	m.view.SetContent(content)
	m.view.GotoTop()
}

func (m *interactiveModel) View() string {
	if !m.loaded {
		return "Parsing " + m.filename + "..."
	}
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress ctrl+c to quit.", m.err))
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("genlower"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectFunc:
		b.WriteString(m.filter.View())
		b.WriteString("\n\n")
		if len(m.funcs) == 0 {
			b.WriteString("No generator functions.\n")
		}
		for i, idx := range m.visible {
			f := m.funcs[idx]
			line := f.path
			if f.err != nil {
				line += " " + errorStyle.Render("(error)")
			}
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + funcStyle.Render(line))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("type to filter • ↑/↓ select • enter open • esc quit"))

	case stateShowFunc:
		f := m.current()
		var tabs []string
		for p := pane(0); p < paneCount; p++ {
			if p == m.pane {
				tabs = append(tabs, selectedStyle.Render(" "+p.String()+" "))
			} else {
				tabs = append(tabs, paneStyle.Render(" "+p.String()+" "))
			}
		}
		b.WriteString(funcStyle.Render(f.path))
		b.WriteString("  ")
		b.WriteString(strings.Join(tabs, " "))
		b.WriteString("\n")
		b.WriteString(m.view.View())
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next view • ↑/↓ scroll • esc back • q quit"))
	}

	return b.String()
}

func runInteractive(filename, source string, opts options) error {
	p := tea.NewProgram(newInteractiveModel(filename, source, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
