/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	rfc2217 "github.com/allbin/go-rfc2217"
	"github.com/allbin/go-rfc2217/internal/tui/components"
	"github.com/allbin/go-rfc2217/internal/tui/keys"
	"github.com/allbin/go-rfc2217/internal/tui/models"
	"github.com/allbin/go-rfc2217/internal/tui/styles"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// connectCmd represents the connect command
var connectCmd = &cobra.Command{
	Use:   "connect <host:port>",
	Short: "Open an interactive terminal on a remote serial port",
	Long: `Connect to a remote serial port with a bidirectional terminal interface.

Features include:
- Real-time data display with timestamps, hex and ASCII views
- Input line with history and a hex sending mode
- Status bar with the line settings and live modem signals
- DTR, RTS and break control from the keyboard

Press i to type, Enter to send, Esc to leave insert mode and ? for help.

Example usage:
  rfc2217 connect ts1.example.net:4001
  rfc2217 connect ts1.example.net:4001 --baud 115200 --flow-control rts/cts
  rfc2217 connect 10.0.0.7:2217 --line-ending crlf`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ending, _ := cmd.Flags().GetString("line-ending")
		lineEnding, err := parseLineEnding(ending)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if err := runConnectTUI(args[0], lineEnding); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(connectCmd)

	connectCmd.Flags().StringP("line-ending", "l", "lf", "Appended to text input: none, lf, cr, crlf")
}

func parseLineEnding(s string) (string, error) {
	switch s {
	case "none":
		return "", nil
	case "lf":
		return "\n", nil
	case "cr":
		return "\r", nil
	case "crlf":
		return "\r\n", nil
	}
	return "", fmt.Errorf("unknown line ending %q (use none, lf, cr or crlf)", s)
}

// writeResultMsg completes a pending TX line.
type writeResultMsg struct {
	id  int
	err error
}

// controlResultMsg reports a failed line control request.
type controlResultMsg struct {
	what string
	err  error
}

// connectModel represents the Bubble Tea model for the connect command
type connectModel struct {
	*models.SerialModel
	terminal   *components.Terminal
	statusBar  *components.StatusBar
	input      *components.Input
	help       help.Model
	keys       keys.ConnectKeys
	lineEnding string
}

func runConnectTUI(addr string, lineEnding string) error {
	port, settings, logger, err := preparePort(addr, true)
	if err != nil {
		return err
	}
	defer logger.Sync()

	m := &connectModel{
		SerialModel: models.NewSerialModel(port.PortName()),
		terminal:    components.NewTerminal(0, 0), // Will be properly sized by WindowSizeMsg
		statusBar:   components.NewStatusBar(port.PortName()),
		input:       components.NewInput(),
		help:        help.New(),
		keys:        keys.NewConnectKeys(),
		lineEnding:  lineEnding,
	}
	m.statusBar.SetConnecting()
	m.statusBar.SetConnectionInfo(&components.ConnectionInfo{Settings: settings})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())

	// Connect in background so the UI shows the negotiation progress
	go func() {
		conn, err := port.Open(settings)
		if err != nil {
			p.Send(models.ConnectionStatusMsg{Connected: false, Error: err})
			return
		}
		if !m.SetConnection(conn) {
			return
		}
		p.Send(models.ConnectionStatusMsg{Connected: true})

		if err := conn.MonitorSignals(rfc2217.SignalAll); err != nil {
			p.Send(controlResultMsg{what: "modem state mask", err: err})
		}

		go watchConnectSignals(m.GetContext(), conn, p)
		readConnectData(m.GetContext(), conn, p)
	}()

	_, err = p.Run()

	m.Cleanup()
	return err
}

// readConnectData forwards received data until the connection ends.
func readConnectData(ctx context.Context, conn *rfc2217.Connection, p *tea.Program) {
	for {
		data, err := conn.ReadAvailable()
		if len(data) > 0 {
			p.Send(components.DataReceivedMsg{
				Timestamp: time.Now(),
				Data:      data,
				Kind:      components.EventRX,
			})
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, io.EOF) {
				err = rfc2217.ErrConnectionLost
			}
			p.Send(models.ConnectionStatusMsg{Connected: false, Error: err})
			return
		}
	}
}

func watchConnectSignals(ctx context.Context, conn *rfc2217.Connection, p *tea.Program) {
	for {
		signals, changed, err := conn.WaitForSignalChangeContext(ctx, rfc2217.SignalAll)
		if err != nil {
			return
		}
		p.Send(models.SignalChangeMsg{Signals: signals, Changed: changed})
	}
}

func (m *connectModel) Init() tea.Cmd {
	return nil
}

func (m *connectModel) addEvent(kind components.EventKind, text string) {
	m.terminal.AddMessage(components.DataReceivedMsg{
		Timestamp: time.Now(),
		Data:      []byte(text),
		Kind:      kind,
	})
}

// transmit queues the input line and returns the command that writes it.
func (m *connectModel) transmit() tea.Cmd {
	conn := m.GetConnection()
	if conn == nil || m.input.Value() == "" {
		return nil
	}

	payload, err := m.input.Payload(m.lineEnding)
	if err != nil {
		m.addEvent(components.EventError, fmt.Sprintf("Invalid hex input: %v", err))
		return nil
	}

	id := m.NextTxID()
	m.terminal.AddMessage(components.DataReceivedMsg{
		ID:        id,
		Timestamp: time.Now(),
		Data:      payload,
		Kind:      components.EventTX,
		Status:    components.TxPending,
	})
	m.input.Remember(m.input.Value())
	m.input.SetValue("")

	return func() tea.Msg {
		_, err := conn.Write(payload)
		return writeResultMsg{id: id, err: err}
	}
}

// control runs a line control request off the UI goroutine.
func (m *connectModel) control(what string, fn func(*rfc2217.Connection) error) tea.Cmd {
	conn := m.GetConnection()
	if conn == nil {
		return nil
	}
	return func() tea.Msg {
		return controlResultMsg{what: what, err: fn(conn)}
	}
}

func (m *connectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// Input area height (includes border) plus the status bar line
		verticalMarginHeight := 3 + 1

		m.terminal.SetSize(msg.Width, msg.Height-verticalMarginHeight)
		m.input.SetWidth(msg.Width)
		m.statusBar.SetWidth(msg.Width)
		m.SetReady(true)

	case models.ConnectionStatusMsg:
		m.SetConnected(msg.Connected)
		if msg.Error != nil {
			m.SetError(msg.Error)
			m.statusBar.SetDisconnected(msg.Error)
			m.addEvent(components.EventError, msg.Error.Error())
		} else if msg.Connected {
			m.statusBar.SetConnected()
			if conn := m.GetConnection(); conn != nil {
				m.statusBar.UpdateSignals(conn.ModemSignals())
				m.addEvent(components.EventSignal, "Connected via "+conn.Description())
			}
		}

	case models.SignalChangeMsg:
		m.statusBar.UpdateSignals(msg.Signals)
		m.addEvent(components.EventSignal, describeSignalChange(msg.Signals, msg.Changed))

	case components.DataReceivedMsg:
		m.terminal.AddMessage(msg)

	case writeResultMsg:
		status := components.TxWritten
		if msg.err != nil {
			status = components.TxError
			m.addEvent(components.EventError, fmt.Sprintf("write failed: %v", msg.err))
		}
		m.terminal.AddMessage(components.DataReceivedMsg{ID: msg.id, Kind: components.EventTX, Status: status})

	case controlResultMsg:
		if msg.err != nil {
			m.addEvent(components.EventError, fmt.Sprintf("%s: %v", msg.what, msg.err))
		} else if conn := m.GetConnection(); conn != nil {
			signals := conn.ModemSignals()
			m.statusBar.UpdateSignals(signals)
			m.addEvent(components.EventSignal, fmt.Sprintf("%s done (RTS %s, DTR %s)",
				msg.what, formatSignalState(signals.RTS), formatSignalState(signals.DTR)))
		}

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.Cleanup()
			return m, tea.Quit
		}

		if m.IsInInsertMode() {
			switch {
			case key.Matches(msg, m.keys.Escape):
				m.SetInputMode(models.InputModeNormal)
				m.input.Blur()
				return m, nil
			case key.Matches(msg, m.keys.Enter):
				return m, m.transmit()
			case msg.String() == "up":
				m.input.Recall(true)
				return m, nil
			case msg.String() == "down":
				m.input.Recall(false)
				return m, nil
			case key.Matches(msg, m.keys.ToggleSendMode):
				m.input.ToggleMode()
				return m, nil
			}

			return m, m.input.Update(msg)
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			m.Cleanup()
			return m, tea.Quit

		case key.Matches(msg, m.keys.InsertMode):
			m.SetInputMode(models.InputModeInsert)
			m.input.Focus()

		case key.Matches(msg, m.keys.Clear):
			m.terminal.Clear()

		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll

		case key.Matches(msg, m.keys.ToggleHex):
			m.terminal.ToggleHex()

		case key.Matches(msg, m.keys.ToggleASCII):
			m.terminal.ToggleASCII()

		case key.Matches(msg, m.keys.ToggleTimestamps):
			m.terminal.ToggleTimestamps()

		case key.Matches(msg, m.keys.ToggleSendMode):
			m.input.ToggleMode()

		case key.Matches(msg, m.keys.Up):
			m.terminal.ScrollUp()

		case key.Matches(msg, m.keys.Down):
			m.terminal.ScrollDown()

		case key.Matches(msg, m.keys.GotoTop):
			m.terminal.GotoTop()

		case key.Matches(msg, m.keys.GotoBottom):
			m.terminal.GotoBottom()

		case key.Matches(msg, m.keys.ToggleDTR):
			cmds = append(cmds, m.control("DTR", func(c *rfc2217.Connection) error {
				return c.SetDTR(!c.ModemSignals().DTR)
			}))

		case key.Matches(msg, m.keys.ToggleRTS):
			cmds = append(cmds, m.control("RTS", func(c *rfc2217.Connection) error {
				return c.SetRTS(!c.ModemSignals().RTS)
			}))

		case key.Matches(msg, m.keys.SendBreak):
			cmds = append(cmds, m.control("break", func(c *rfc2217.Connection) error {
				if err := c.SetBreak(true); err != nil {
					return err
				}
				time.Sleep(250 * time.Millisecond)
				return c.SetBreak(false)
			}))
		}
	}

	// Update terminal viewport for window resize messages
	if _, ok := msg.(tea.WindowSizeMsg); ok {
		_, cmd := m.terminal.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func describeSignalChange(signals rfc2217.ModemSignals, changed rfc2217.SignalMask) string {
	states := map[rfc2217.SignalMask]bool{
		rfc2217.SignalCTS: signals.CTS,
		rfc2217.SignalDSR: signals.DSR,
		rfc2217.SignalRI:  signals.RI,
		rfc2217.SignalDCD: signals.DCD,
	}
	text := "Signal change:"
	for _, bit := range []rfc2217.SignalMask{rfc2217.SignalCTS, rfc2217.SignalDSR, rfc2217.SignalRI, rfc2217.SignalDCD} {
		if changed&bit != 0 {
			text += fmt.Sprintf(" %s=%s", bit, formatSignalState(states[bit]))
		}
	}
	return text
}

func (m *connectModel) View() string {
	content := "Initializing..."
	if m.IsReady() {
		content = m.terminal.View()
	}

	inputMode := m.GetInputMode().String()
	input := m.input.View(m.IsInInsertMode())

	viewMode := "SCROLL"
	if m.terminal.Following() {
		viewMode = "FOLLOW"
	}
	statusBar := m.statusBar.ComprehensiveStatusBar(inputMode, m.input.Mode().String(), viewMode, time.Now().Format("15:04:05"))

	parts := []string{styles.ContentBorderStyle.Render(content), input}
	if m.help.ShowAll {
		parts = append(parts, styles.HelpStyle.Render(m.help.View(m.keys)))
	}
	parts = append(parts, statusBar)

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
