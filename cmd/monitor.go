// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 The kombi authors

package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/openkombi/kombi/pkg/agw"
	"github.com/openkombi/kombi/pkg/capture"
)

var monitorCapturePath string

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live TUI view of display traffic",
	Long: `Full-screen live view of the AGW display channel.

Shows reassembled payloads from both directions as they arrive, the page the
cluster currently reports, and running statistics: frame and payload counts,
checksum and decode errors, and how often the factory AGW overrode the
display.

With --capture all frames are also written to a CBOR capture file that
"replay" can play back later.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().StringVar(&monitorCapturePath, "capture", "", "Write traffic to a CBOR capture file")
}

// monitor log entry
type monitorEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

type monitorModel struct {
	connInfo string
	stats    *agw.Statistics

	currentPage agw.Page
	havePage    bool

	entries  []monitorEntry
	maxLog   int
	viewport viewport.Model
	follow   bool

	width    int
	height   int
	quitting bool
}

// Messages
type monitorTickMsg time.Time
type monitorFrameMsg struct {
	frame agw.Frame
}
type monitorPayloadMsg struct {
	id      uint16
	payload []byte
	err     error
}
type monitorReadErrMsg struct {
	err error
}
type monitorCaptureErrMsg struct {
	err error
}

func initialMonitorModel(connInfo string) monitorModel {
	vp := viewport.New(80, 20)
	return monitorModel{
		connInfo: connInfo,
		stats:    agw.NewStatistics(),
		maxLog:   200,
		viewport: vp,
		follow:   true,
		width:    80,
		height:   24,
	}
}

func (m monitorModel) Init() tea.Cmd {
	return tea.Batch(
		monitorTickCmd(),
		tea.EnterAltScreen,
	)
}

func monitorTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return monitorTickMsg(t)
	})
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "f":
			m.follow = !m.follow
		case "r":
			m.stats.Reset()
		default:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = m.logHeight()
		m.refreshLog()

	case monitorTickMsg:
		return m, monitorTickCmd()

	case monitorFrameMsg:
		m.stats.FramesIn++

	case monitorPayloadMsg:
		if msg.err != nil {
			m.stats.DecodeErrors++
			m.addEntry(fmt.Sprintf("DECODE ERROR: %v", msg.err), true)
			break
		}
		if err := agw.ValidatePayload(msg.payload); err != nil {
			m.stats.ChecksumErrors++
			m.addEntry(fmt.Sprintf("CHECKSUM ERROR: %v", err), true)
			break
		}
		m.stats.Payloads++
		m.applyPayload(msg.id, msg.payload)
		m.addEntry(strings.TrimRight(agw.FormatPayload(msg.payload), "\n"), false)

	case monitorReadErrMsg:
		m.addEntry(fmt.Sprintf("READ ERROR: %v", msg.err), true)

	case monitorCaptureErrMsg:
		m.addEntry(fmt.Sprintf("CAPTURE STOPPED: %v", msg.err), true)
	}

	return m, nil
}

// applyPayload tracks the page the cluster reports.
func (m *monitorModel) applyPayload(id uint16, payload []byte) {
	body := payload[:len(payload)-1]
	if id != agw.ReceiveCANID || len(body) < 2 || body[0] != agw.PkgPageStatus {
		return
	}
	page, err := agw.PageFromWire(body[1])
	if err != nil {
		return
	}
	if m.havePage && page != m.currentPage {
		m.stats.Overrides++
	}
	m.currentPage = page
	m.havePage = true
}

func (m *monitorModel) addEntry(message string, isError bool) {
	m.entries = append(m.entries, monitorEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})
	if len(m.entries) > m.maxLog {
		m.entries = m.entries[len(m.entries)-m.maxLog:]
	}
	m.refreshLog()
}

func (m *monitorModel) logHeight() int {
	h := m.height - 10
	if h < 5 {
		h = 5
	}
	return h
}

var (
	monitorTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("12")).
				Background(lipgloss.Color("235")).
				Padding(0, 1)

	monitorHeaderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("241"))

	monitorLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("12")).
				Bold(true)

	monitorValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("10"))

	monitorErrorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("9")).
				Bold(true)

	monitorBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

func (m *monitorModel) refreshLog() {
	var b strings.Builder
	for _, entry := range m.entries {
		timestamp := entry.timestamp.Format("15:04:05.000")
		style := monitorValueStyle
		if entry.isError {
			style = monitorErrorStyle
		}
		for i, line := range strings.Split(entry.message, "\n") {
			prefix := timestamp
			if i > 0 {
				prefix = strings.Repeat(" ", len(timestamp))
			}
			b.WriteString(fmt.Sprintf("%s %s\n", monitorHeaderStyle.Render(prefix), style.Render(line)))
		}
	}
	m.viewport.SetContent(b.String())
	if m.follow {
		m.viewport.GotoBottom()
	}
}

func (m monitorModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder
	s.WriteString(monitorTitleStyle.Render("KOMBI - BUS MONITOR"))
	s.WriteString("\n")
	followMode := "follow"
	if !m.follow {
		followMode = "scroll"
	}
	s.WriteString(monitorHeaderStyle.Render(fmt.Sprintf(
		"Connection: %s | Mode: %s ('f' toggles, 'r' resets stats) | Press 'q' to quit", m.connInfo, followMode)))
	s.WriteString("\n\n")

	pageStr := "(no report yet)"
	if m.havePage {
		pageStr = m.currentPage.String()
	}
	statsContent := fmt.Sprintf("%s %s   %s %s   %s %s   %s %s\n%s %s   %s %s   %s %s",
		monitorLabelStyle.Render("Page:"), monitorValueStyle.Render(pageStr),
		monitorLabelStyle.Render("Frames:"), monitorValueStyle.Render(fmt.Sprintf("%d", m.stats.FramesIn)),
		monitorLabelStyle.Render("Payloads:"), monitorValueStyle.Render(fmt.Sprintf("%d", m.stats.Payloads)),
		monitorLabelStyle.Render("Rate:"), monitorValueStyle.Render(fmt.Sprintf("%.1f frames/s", m.stats.FrameRate())),
		monitorLabelStyle.Render("Checksum Errors:"), monitorErrorStyle.Render(fmt.Sprintf("%d", m.stats.ChecksumErrors)),
		monitorLabelStyle.Render("Decode Errors:"), monitorErrorStyle.Render(fmt.Sprintf("%d", m.stats.DecodeErrors)),
		monitorLabelStyle.Render("Overrides:"), monitorErrorStyle.Render(fmt.Sprintf("%d", m.stats.Overrides)),
	)
	s.WriteString(monitorBoxStyle.Render(statsContent))
	s.WriteString("\n\n")

	s.WriteString(monitorLabelStyle.Render("Traffic:"))
	s.WriteString("\n")
	s.WriteString(monitorBoxStyle.Width(m.width - 4).Render(m.viewport.View()))

	return s.String()
}

func runMonitor(cmd *cobra.Command, args []string) error {
	bus, connInfo, cleanup, err := openBus()
	if err != nil {
		return err
	}
	defer cleanup()

	var capWriter *capture.Writer
	if monitorCapturePath != "" {
		f, err := os.Create(monitorCapturePath)
		if err != nil {
			return fmt.Errorf("open capture file: %v", err)
		}
		defer f.Close()
		capWriter = capture.NewWriter(f)
	}

	p := tea.NewProgram(initialMonitorModel(connInfo))

	var tee *captureTee
	if capWriter != nil {
		tee = &captureTee{
			w:     capWriter,
			start: time.Now(),
			onFail: func(err error) {
				p.Send(monitorCaptureErrMsg{err: err})
			},
		}
	}

	go func() {
		asm := map[uint16]*agw.Reassembler{
			agw.SendCANID:    agw.NewReassembler(),
			agw.ReceiveCANID: agw.NewReassembler(),
		}
		for {
			frames, err := bus.ReadFrames()
			if err != nil {
				p.Send(monitorReadErrMsg{err: err})
				return
			}
			for _, f := range frames {
				tee.record(f)
				r, ok := asm[f.ID]
				if !ok {
					continue
				}
				p.Send(monitorFrameMsg{frame: f})
				payload, err := r.Feed(f)
				if err != nil {
					p.Send(monitorPayloadMsg{id: f.ID, err: err})
					continue
				}
				if payload != nil {
					p.Send(monitorPayloadMsg{id: f.ID, payload: payload})
				}
			}
		}
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %v", err)
	}
	return nil
}
