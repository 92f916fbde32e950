package components

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/allbin/go-rfc2217/internal/tui/styles"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SendingMode selects how the input line is turned into bytes.
type SendingMode int

const (
	SendingModeASCII SendingMode = iota
	SendingModeHex
)

func (s SendingMode) String() string {
	if s == SendingModeHex {
		return "HEX"
	}
	return "ASCII"
}

var placeholders = map[SendingMode]string{
	SendingModeASCII: "Type message and press Enter to send...",
	SendingModeHex:   "Enter hex (e.g. 48656C6C6F or 0x48 0x65)...",
}

const historyLimit = 100

// Input is the transmit line of the connect view.
type Input struct {
	field textinput.Model
	mode  SendingMode
	width int

	history []string
	cursor  int    // index into history while recalling, len(history) otherwise
	draft   string // unsent text saved when recall starts
}

func NewInput() *Input {
	field := textinput.New()
	field.Placeholder = placeholders[SendingModeASCII]
	field.CharLimit = 256
	field.Prompt = ""
	return &Input{field: field}
}

// SetWidth sizes the field to the terminal; the border, padding and prompt
// take six columns.
func (i *Input) SetWidth(width int) {
	i.width = width
	i.field.Width = max(width-6, 20)
}

func (i *Input) Focus()            { i.field.Focus() }
func (i *Input) Blur()             { i.field.Blur() }
func (i *Input) Value() string     { return i.field.Value() }
func (i *Input) SetValue(v string) { i.field.SetValue(v) }
func (i *Input) Mode() SendingMode { return i.mode }

func (i *Input) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	i.field, cmd = i.field.Update(msg)
	return cmd
}

// ToggleMode switches between ASCII and hex entry.
func (i *Input) ToggleMode() {
	i.mode = 1 - i.mode
	i.field.Placeholder = placeholders[i.mode]
}

// Payload turns the current value into the bytes to transmit. ASCII input
// gets lineEnding appended; hex input is sent exactly as typed.
func (i *Input) Payload(lineEnding string) ([]byte, error) {
	if i.mode == SendingModeHex {
		return ParseHex(i.field.Value())
	}
	return []byte(i.field.Value() + lineEnding), nil
}

// Remember records a sent line. Blank lines and repeats of the newest entry
// are skipped.
func (i *Input) Remember(line string) {
	line = strings.TrimSpace(line)
	if line != "" && (len(i.history) == 0 || i.history[len(i.history)-1] != line) {
		i.history = append(i.history, line)
		if len(i.history) > historyLimit {
			i.history = i.history[1:]
		}
	}
	i.cursor = len(i.history)
	i.draft = ""
}

// Recall steps through history, older or newer. Stepping past the newest
// entry restores the text that was being typed.
func (i *Input) Recall(older bool) {
	if len(i.history) == 0 {
		return
	}
	if i.cursor >= len(i.history) {
		if !older {
			return
		}
		i.draft = i.field.Value()
	}

	if older {
		i.cursor = max(i.cursor-1, 0)
	} else {
		i.cursor++
	}

	if i.cursor >= len(i.history) {
		i.cursor = len(i.history)
		i.field.SetValue(i.draft)
		return
	}
	i.field.SetValue(i.history[i.cursor])
}

// View renders the field in insert mode and a hint otherwise. The prompt
// shows the sending mode.
func (i *Input) View(insert bool) string {
	prompt := lipgloss.NewStyle().Foreground(styles.Green).Bold(true).Render(">")
	if i.mode == SendingModeHex {
		prompt = lipgloss.NewStyle().Foreground(styles.Yellow).Bold(true).Render("#")
	}

	body := lipgloss.NewStyle().Foreground(styles.Overlay0).Render("Press 'i' to enter insert mode")
	style := styles.InputStyle.Width(max(i.width-4, 10)).AlignHorizontal(lipgloss.Left)
	if insert {
		body = i.field.View()
		style = style.BorderForeground(styles.Green)
	}
	return style.Render(lipgloss.JoinHorizontal(lipgloss.Left, prompt, " ", body))
}

// ParseHex decodes "48656C6C6F", "48 65 6C" or "0x48 0x65" into bytes.
func ParseHex(s string) ([]byte, error) {
	var digits strings.Builder
	for _, field := range strings.Fields(s) {
		field = strings.TrimPrefix(strings.TrimPrefix(field, "0x"), "0X")
		digits.WriteString(field)
	}
	if digits.Len() == 0 {
		return nil, errors.New("empty input")
	}

	data, err := hex.DecodeString(digits.String())
	if err != nil {
		return nil, fmt.Errorf("invalid hex %q: %w", s, err)
	}
	return data, nil
}
