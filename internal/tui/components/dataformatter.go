package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/allbin/go-rfc2217/internal/tui/styles"
	"github.com/charmbracelet/lipgloss"
)

// EventKind tells what a terminal line is about.
type EventKind int

const (
	EventRX EventKind = iota
	EventTX
	EventSignal // modem line change
	EventError
)

// TxStatus tracks a transmitted chunk until the write returns.
type TxStatus int

const (
	TxPending TxStatus = iota
	TxWritten
	TxError
)

func (s TxStatus) String() string {
	switch s {
	case TxPending:
		return "PENDING"
	case TxWritten:
		return "WRITTEN"
	case TxError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// DataReceivedMsg is one terminal line. TX lines carry an ID so a later
// status update replaces the pending line instead of adding a new one.
type DataReceivedMsg struct {
	ID        int
	Timestamp time.Time
	Data      []byte
	Kind      EventKind
	Status    TxStatus
}

type DisplayMode struct {
	ShowHex        bool
	ShowASCII      bool
	ShowTimestamps bool
}

type DataFormatter struct {
	mode DisplayMode
}

func NewDataFormatter(showHex, showASCII bool) *DataFormatter {
	return &DataFormatter{
		mode: DisplayMode{
			ShowHex:        showHex,
			ShowASCII:      showASCII,
			ShowTimestamps: true,
		},
	}
}

func (df *DataFormatter) SetDisplayMode(mode DisplayMode) {
	df.mode = mode
}

func (df *DataFormatter) GetDisplayMode() DisplayMode {
	return df.mode
}

func (df *DataFormatter) indicator(msg DataReceivedMsg) string {
	var color lipgloss.Color
	var text string

	switch msg.Kind {
	case EventTX:
		switch msg.Status {
		case TxPending:
			color, text = styles.Yellow, "↗ TX ○"
		case TxWritten:
			color, text = styles.Green, "↗ TX ✓"
		default:
			color, text = styles.Red, "↗ TX ✗"
		}
	case EventSignal:
		color, text = styles.Teal, "≈ SIG"
	case EventError:
		color, text = styles.Red, "! ERR"
	default:
		color, text = styles.Sky, "↙ RX"
	}

	return lipgloss.NewStyle().Foreground(color).Bold(true).Render(text)
}

func (df *DataFormatter) FormatMessage(msg DataReceivedMsg) string {
	var parts []string

	// signal and error lines are text, whatever the display mode
	if msg.Kind == EventSignal || msg.Kind == EventError {
		parts = append(parts, string(msg.Data))
	} else {
		if df.mode.ShowHex {
			parts = append(parts, fmt.Sprintf("HEX: % X", msg.Data))
		}
		if df.mode.ShowASCII {
			parts = append(parts, "ASCII: "+printable(msg.Data))
		}
		if !df.mode.ShowHex && !df.mode.ShowASCII {
			parts = append(parts, fmt.Sprintf("BYTES: %d", len(msg.Data)))
		}
	}

	line := fmt.Sprintf("%s: %s", df.indicator(msg), strings.Join(parts, "  "))
	if !df.mode.ShowTimestamps {
		return line
	}

	timestamp := lipgloss.NewStyle().
		Foreground(styles.Subtext0).
		Render(fmt.Sprintf("[%s]", msg.Timestamp.Format("15:04:05.000")))
	return timestamp + " " + line
}

func (df *DataFormatter) FormatMessages(messages []DataReceivedMsg) []string {
	formatted := make([]string, len(messages))
	for i, msg := range messages {
		formatted[i] = df.FormatMessage(msg)
	}
	return formatted
}

func (df *DataFormatter) ToggleHex() {
	df.mode.ShowHex = !df.mode.ShowHex
}

func (df *DataFormatter) ToggleASCII() {
	df.mode.ShowASCII = !df.mode.ShowASCII
}

func (df *DataFormatter) ToggleTimestamps() {
	df.mode.ShowTimestamps = !df.mode.ShowTimestamps
}

// printable replaces everything outside printable ASCII with dots, which
// also keeps terminal control sequences out of the view.
func printable(data []byte) string {
	var b strings.Builder
	b.Grow(len(data))
	for _, c := range data {
		if c >= 32 && c <= 126 {
			b.WriteByte(c)
		} else {
			b.WriteByte('.')
		}
	}
	return b.String()
}
