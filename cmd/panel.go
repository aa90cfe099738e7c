// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 The kombi authors

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/openkombi/kombi/pkg/agw"
)

var panelCmd = &cobra.Command{
	Use:   "panel",
	Short: "Interactive display control panel",
	Long: `Interactively drive the cluster display.

Pick an action from the list, type the text and send it. The panel keeps the
page alive between commands the same way "run" does: it watches the
cluster's status reports and re-asserts the page when the factory AGW
overrides it.`,
	RunE: runPanel,
}

func init() {
	rootCmd.AddCommand(panelCmd)
}

// Focus states
const (
	focusActionList = iota
	focusTextInput
)

// panelAction is one selectable display action
type panelAction struct {
	name string
	desc string
	run  func(d *agw.Display, text string) error
}

// Implement list.Item interface
func (a panelAction) Title() string       { return a.name }
func (a panelAction) Description() string { return a.desc }
func (a panelAction) FilterValue() string { return a.name }

var panelActions = []panelAction{
	{
		name: "Init audio page",
		desc: "Claim the audio page with this header",
		run: func(d *agw.Display, text string) error {
			return d.InitPage(agw.PageAudio, text, true, agw.SymbolNone, agw.SymbolNone)
		},
	},
	{
		name: "Init telephone page",
		desc: "Claim the telephone page with this header",
		run: func(d *agw.Display, text string) error {
			return d.InitPage(agw.PageTelephone, text, true, agw.SymbolNone, agw.SymbolNone)
		},
	},
	{
		name: "Set header",
		desc: "Replace the header line",
		run: func(d *agw.Display, text string) error {
			return d.SetHeader(d.CurrentPage(), text, true)
		},
	},
	{
		name: "Set body",
		desc: "Replace the body line",
		run: func(d *agw.Display, text string) error {
			return d.SetBody(d.CurrentPage(), text, true)
		},
	},
	{
		name: "Set telephone lines",
		desc: "Four lines separated by '|'",
		run: func(d *agw.Display, text string) error {
			lines := strings.SplitN(text, "|", 4)
			for len(lines) < 4 {
				lines = append(lines, "")
			}
			return d.SetBodyTel(lines[0], lines[1], lines[2], lines[3])
		},
	},
}

type panelModel struct {
	connInfo string
	display  *agw.Display

	actionList list.Model
	textInput  textinput.Model
	focused    int

	events    []monitorEntry
	maxEvents int

	width    int
	height   int
	quitting bool
}

// Messages
type panelTickMsg time.Time
type panelFrameMsg struct {
	frame agw.Frame
}
type panelReadErrMsg struct {
	err error
}

func initialPanelModel(connInfo string, display *agw.Display) panelModel {
	items := make([]list.Item, len(panelActions))
	for i, a := range panelActions {
		items[i] = a
	}
	actionList := list.New(items, list.NewDefaultDelegate(), 40, 14)
	actionList.Title = "Actions"
	actionList.SetShowStatusBar(false)
	actionList.SetFilteringEnabled(false)
	actionList.SetShowHelp(false)

	ti := textinput.New()
	ti.Placeholder = "Text to display"
	ti.CharLimit = 120
	ti.Width = 40

	return panelModel{
		connInfo:   connInfo,
		display:    display,
		actionList: actionList,
		textInput:  ti,
		focused:    focusActionList,
		maxEvents:  50,
		width:      80,
		height:     24,
	}
}

func (m panelModel) Init() tea.Cmd {
	return tea.Batch(
		panelTickCmd(),
		tea.EnterAltScreen,
	)
}

func panelTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return panelTickMsg(t)
	})
}

func (m panelModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "q":
			if m.focused == focusActionList {
				m.quitting = true
				return m, tea.Quit
			}
		case "tab":
			if m.focused == focusActionList {
				m.focused = focusTextInput
				m.textInput.Focus()
			} else {
				m.focused = focusActionList
				m.textInput.Blur()
			}
			return m, nil
		case "enter":
			m.runSelected()
			return m, nil
		}

		if m.focused == focusTextInput {
			var cmd tea.Cmd
			m.textInput, cmd = m.textInput.Update(msg)
			return m, cmd
		}
		var cmd tea.Cmd
		m.actionList, cmd = m.actionList.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.actionList.SetSize(msg.Width/2-4, msg.Height-10)

	case panelTickMsg:
		// Periodic re-assertion against AGW overrides
		if err := m.display.Update(); err != nil {
			m.addEvent(fmt.Sprintf("re-assert failed: %v", err), true)
		}
		return m, panelTickCmd()

	case panelFrameMsg:
		if err := m.display.ProcessResponse(msg.frame); err != nil {
			m.addEvent(fmt.Sprintf("inbound: %v", err), true)
		}

	case panelReadErrMsg:
		m.addEvent(fmt.Sprintf("READ ERROR: %v", msg.err), true)
	}

	return m, nil
}

func (m *panelModel) runSelected() {
	action, ok := m.actionList.SelectedItem().(panelAction)
	if !ok {
		return
	}
	text := m.textInput.Value()
	if err := action.run(m.display, text); err != nil {
		m.addEvent(fmt.Sprintf("%s: %v", action.name, err), true)
		return
	}
	m.addEvent(fmt.Sprintf("%s: %q sent", action.name, text), false)
}

func (m *panelModel) addEvent(message string, isError bool) {
	m.events = append(m.events, monitorEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})
	if len(m.events) > m.maxEvents {
		m.events = m.events[len(m.events)-m.maxEvents:]
	}
}

func (m panelModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder
	s.WriteString(monitorTitleStyle.Render("KOMBI - CONTROL PANEL"))
	s.WriteString("\n")
	s.WriteString(monitorHeaderStyle.Render(fmt.Sprintf(
		"Connection: %s | Tab switches focus, Enter sends | 'q' quits", m.connInfo)))
	s.WriteString("\n\n")

	status := fmt.Sprintf("%s %s   %s %v",
		monitorLabelStyle.Render("Page:"), monitorValueStyle.Render(m.display.CurrentPage().String()),
		monitorLabelStyle.Render("Re-init pending:"), m.display.NeedsInit(),
	)
	s.WriteString(monitorBoxStyle.Render(status))
	s.WriteString("\n\n")

	inputLabel := "Text"
	if m.focused == focusTextInput {
		inputLabel = "Text (focused)"
	}
	right := fmt.Sprintf("%s\n%s", monitorLabelStyle.Render(inputLabel), m.textInput.View())

	eventLines := strings.Builder{}
	if len(m.events) == 0 {
		eventLines.WriteString(monitorHeaderStyle.Render("(no events yet)"))
	}
	for _, e := range m.events {
		style := monitorValueStyle
		if e.isError {
			style = monitorErrorStyle
		}
		eventLines.WriteString(fmt.Sprintf("%s %s\n",
			monitorHeaderStyle.Render(e.timestamp.Format("15:04:05")),
			style.Render(e.message)))
	}
	right += "\n\n" + monitorLabelStyle.Render("Events:") + "\n" + eventLines.String()

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		m.actionList.View(),
		"  ",
		right,
	))

	return s.String()
}

func runPanel(cmd *cobra.Command, args []string) error {
	bus, connInfo, cleanup, err := openBus()
	if err != nil {
		return err
	}
	defer cleanup()

	display := agw.NewDisplay(bus)
	p := tea.NewProgram(initialPanelModel(connInfo, display))

	go func() {
		for {
			frames, err := bus.ReadFrames()
			if err != nil {
				p.Send(panelReadErrMsg{err: err})
				return
			}
			for _, f := range frames {
				p.Send(panelFrameMsg{frame: f})
			}
		}
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %v", err)
	}
	return nil
}
