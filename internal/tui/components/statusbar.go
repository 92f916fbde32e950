package components

import (
	"fmt"
	"strings"

	rfc2217 "github.com/allbin/go-rfc2217"
	"github.com/allbin/go-rfc2217/internal/tui/styles"
	"github.com/charmbracelet/lipgloss"
)

// ConnectionInfo is what the status bar knows about the remote port.
type ConnectionInfo struct {
	Settings *rfc2217.PortSettings
	Signals  rfc2217.ModemSignals
}

type StatusBar struct {
	portName       string
	status         styles.StatusType
	err            error
	width          int
	connectionInfo *ConnectionInfo
}

func NewStatusBar(portName string) *StatusBar {
	return &StatusBar{
		portName: portName,
		status:   styles.StatusConnecting,
	}
}

func (sb *StatusBar) SetWidth(width int) {
	sb.width = width
}

func (sb *StatusBar) SetConnectionInfo(info *ConnectionInfo) {
	sb.connectionInfo = info
}

// UpdateSignals records the latest modem lines.
func (sb *StatusBar) UpdateSignals(signals rfc2217.ModemSignals) {
	if sb.connectionInfo != nil {
		sb.connectionInfo.Signals = signals
	}
}

func (sb *StatusBar) SetConnecting() {
	sb.status = styles.StatusConnecting
	sb.err = nil
}

func (sb *StatusBar) SetConnected() {
	sb.status = styles.StatusConnected
	sb.err = nil
}

func (sb *StatusBar) SetDisconnected(err error) {
	sb.err = err
	if err != nil {
		sb.status = styles.StatusError
	} else {
		sb.status = styles.StatusDisconnected
	}
}

// Err returns the error that ended the connection, if any.
func (sb *StatusBar) Err() error {
	return sb.err
}

func (sb *StatusBar) connectionIndicator() string {
	symbol := "○"
	switch sb.status {
	case styles.StatusConnected:
		symbol = "●"
	case styles.StatusError:
		symbol = "✗"
	}
	return styles.GetStatusStyle(sb.status).UnsetBold().Render(symbol)
}

// signalSummary renders the modem lines as e.g. "CTS● DSR○ DCD● RI○".
func signalSummary(signals rfc2217.ModemSignals) string {
	lines := []struct {
		name  string
		state bool
	}{
		{"CTS", signals.CTS}, {"DSR", signals.DSR}, {"DCD", signals.DCD}, {"RI", signals.RI},
		{"RTS", signals.RTS}, {"DTR", signals.DTR},
	}
	parts := make([]string, len(lines))
	for i, l := range lines {
		if l.state {
			parts[i] = l.name + "●"
		} else {
			parts[i] = l.name + "○"
		}
	}
	return strings.Join(parts, " ")
}

// ComprehensiveStatusBar renders a comprehensive status bar with all connection info
func (sb *StatusBar) ComprehensiveStatusBar(inputMode, sendingMode, viewMode string, timestamp string) string {
	terminalWidth := sb.width
	if terminalWidth <= 0 {
		terminalWidth = 80
	}

	// Section 1: Mode indicator (like NORMAL in nvim)
	modeColor := styles.Blue
	if inputMode == "INSERT" {
		modeColor = styles.Green
	}
	mode := lipgloss.NewStyle().
		Foreground(styles.Base).
		Background(modeColor).
		Bold(true).
		Padding(0, 1).
		Render(inputMode)

	port := lipgloss.NewStyle().
		Foreground(styles.Mauve).
		Bold(true).
		Padding(0, 1).
		Render(sb.portName)

	divider := lipgloss.NewStyle().
		Foreground(styles.Surface2).
		Padding(0, 1).
		Render("│")

	var sendingModeInfo string
	if inputMode == "INSERT" {
		sendingModeInfo = lipgloss.NewStyle().
			Foreground(styles.Peach).
			Bold(true).
			Padding(0, 1).
			Render(fmt.Sprintf("[%s] Tab to toggle", sendingMode))
	}

	leftSide := lipgloss.JoinHorizontal(lipgloss.Left, mode, port, sb.connectionIndicator(), sendingModeInfo, divider)

	// Section 2: line settings and modem lines
	var connInfo string
	switch {
	case sb.err != nil:
		connInfo = "✗ " + sb.err.Error()
	case sb.connectionInfo != nil && sb.connectionInfo.Settings != nil:
		connInfo = fmt.Sprintf("⚡ %s  %s", sb.connectionInfo.Settings, signalSummary(sb.connectionInfo.Signals))
	default:
		connInfo = "⚡ rfc2217"
	}
	connectionDetails := lipgloss.NewStyle().
		Foreground(styles.Subtext0).
		Padding(0, 1).
		Render(connInfo)

	view := lipgloss.NewStyle().
		Foreground(styles.Overlay0).
		Padding(0, 1).
		Render(viewMode)

	clock := lipgloss.NewStyle().
		Foreground(styles.Subtext1).
		Padding(0, 1).
		Render(timestamp)

	rightSide := lipgloss.JoinHorizontal(lipgloss.Left, connectionDetails, divider, view, divider, clock)

	spacerWidth := terminalWidth - lipgloss.Width(leftSide) - lipgloss.Width(rightSide)
	if spacerWidth < 1 {
		spacerWidth = 1
	}
	spacer := lipgloss.NewStyle().Width(spacerWidth).Render("")

	return lipgloss.NewStyle().
		Foreground(styles.Text).
		Background(styles.Surface0).
		Width(terminalWidth).
		Render(lipgloss.JoinHorizontal(lipgloss.Left, leftSide, spacer, rightSide))
}
