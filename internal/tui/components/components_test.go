package components

import (
	"bytes"
	"strings"
	"testing"
	"time"

	rfc2217 "github.com/allbin/go-rfc2217"
)

func TestFormatMessage(t *testing.T) {
	msg := DataReceivedMsg{
		Timestamp: time.Date(2025, 1, 2, 13, 4, 5, 0, time.UTC),
		Data:      []byte{'O', 'K', 0x0d},
		Kind:      EventRX,
	}

	tests := []struct {
		name    string
		mode    DisplayMode
		want    []string
		notWant []string
	}{
		{
			name: "hex and ascii",
			mode: DisplayMode{ShowHex: true, ShowASCII: true, ShowTimestamps: true},
			want: []string{"13:04:05.000", "HEX: 4F 4B 0D", "ASCII: OK."},
		},
		{
			name:    "ascii without timestamps",
			mode:    DisplayMode{ShowASCII: true},
			want:    []string{"ASCII: OK."},
			notWant: []string{"HEX:", "13:04:05"},
		},
		{
			name:    "neither",
			mode:    DisplayMode{},
			want:    []string{"BYTES: 3"},
			notWant: []string{"HEX:", "ASCII:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			df := NewDataFormatter(false, false)
			df.SetDisplayMode(tt.mode)
			line := df.FormatMessage(msg)
			for _, s := range tt.want {
				if !strings.Contains(line, s) {
					t.Errorf("FormatMessage() = %q, missing %q", line, s)
				}
			}
			for _, s := range tt.notWant {
				if strings.Contains(line, s) {
					t.Errorf("FormatMessage() = %q, unexpected %q", line, s)
				}
			}
		})
	}
}

func TestFormatSignalEventIgnoresDisplayMode(t *testing.T) {
	df := NewDataFormatter(true, false)
	line := df.FormatMessage(DataReceivedMsg{Data: []byte("Signal change: CTS=HIGH"), Kind: EventSignal})
	if !strings.Contains(line, "Signal change: CTS=HIGH") || strings.Contains(line, "HEX:") {
		t.Errorf("FormatMessage() = %q", line)
	}
}

func TestDisplayToggles(t *testing.T) {
	df := NewDataFormatter(true, true)
	df.ToggleHex()
	df.ToggleTimestamps()
	if mode := df.GetDisplayMode(); mode.ShowHex || !mode.ShowASCII || mode.ShowTimestamps {
		t.Errorf("mode after toggles = %+v", mode)
	}
}

func TestTerminalReplacesTxStatus(t *testing.T) {
	term := NewTerminal(80, 10)
	term.AddMessage(DataReceivedMsg{ID: 1, Data: []byte("AT"), Kind: EventTX, Status: TxPending})
	term.AddMessage(DataReceivedMsg{Data: []byte("OK"), Kind: EventRX})
	term.AddMessage(DataReceivedMsg{ID: 1, Kind: EventTX, Status: TxWritten})

	msgs := term.Messages()
	if len(msgs) != 2 {
		t.Fatalf("len(Messages()) = %d, want 2", len(msgs))
	}
	if msgs[0].Status != TxWritten || !bytes.Equal(msgs[0].Data, []byte("AT")) {
		t.Errorf("TX line = %+v", msgs[0])
	}

	term.Clear()
	if len(term.Messages()) != 0 {
		t.Error("Clear() kept messages")
	}
}

func TestTerminalFollow(t *testing.T) {
	term := NewTerminal(80, 2)
	if !term.Following() {
		t.Fatal("new terminal not following")
	}
	term.GotoTop()
	if term.Following() {
		t.Error("GotoTop() kept following")
	}
	term.GotoBottom()
	if !term.Following() {
		t.Error("GotoBottom() did not resume following")
	}
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		input   string
		want    []byte
		wantErr bool
	}{
		{"48656C6C6F", []byte("Hello"), false},
		{"48 65 6c", []byte("Hel"), false},
		{" ff ", []byte{0xff}, false},
		{"0x48 0x69", []byte("Hi"), false},
		{"ff 00", []byte{0xff, 0x00}, false},
		{"", nil, true},
		{"4", nil, true},
		{"4g", nil, true},
		{"abc", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseHex(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseHex(%q) error = %v", tt.input, err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("ParseHex(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestInputPayload(t *testing.T) {
	in := NewInput()
	in.SetValue("ATI")
	got, err := in.Payload("\r\n")
	if err != nil || string(got) != "ATI\r\n" {
		t.Errorf("ASCII Payload() = %q, %v", got, err)
	}

	in.ToggleMode()
	if in.Mode() != SendingModeHex {
		t.Fatalf("sending mode = %v, want HEX", in.Mode())
	}
	in.SetValue("01 ff")
	got, err = in.Payload("\r\n")
	if err != nil || !bytes.Equal(got, []byte{0x01, 0xff}) {
		t.Errorf("hex Payload() = %v, %v", got, err)
	}
}

func TestInputHistory(t *testing.T) {
	in := NewInput()
	in.Remember("one")
	in.Remember("two")
	in.Remember("two")
	in.Remember("   ")

	in.SetValue("draft")
	in.Recall(true)
	if in.Value() != "two" {
		t.Errorf("first up = %q, want two", in.Value())
	}
	in.Recall(true)
	in.Recall(true)
	if in.Value() != "one" {
		t.Errorf("oldest = %q, want one", in.Value())
	}
	in.Recall(false)
	in.Recall(false)
	if in.Value() != "draft" {
		t.Errorf("back to draft = %q", in.Value())
	}
}

func TestStatusBar(t *testing.T) {
	settings := rfc2217.MustPortSettings(rfc2217.WithBaudRate(19200))
	sb := NewStatusBar("RFC2217@ts1:4001")
	sb.SetWidth(200)
	sb.SetConnectionInfo(&ConnectionInfo{Settings: settings})
	sb.SetConnected()
	sb.UpdateSignals(rfc2217.ModemSignals{CTS: true, DTR: true})

	view := sb.ComprehensiveStatusBar("NORMAL", "ASCII", "FOLLOW", "12:00:00")
	for _, want := range []string{"RFC2217@ts1:4001", "19200 8N1", "CTS●", "DSR○", "DTR●", "FOLLOW"} {
		if !strings.Contains(view, want) {
			t.Errorf("status bar %q missing %q", view, want)
		}
	}

	sb.SetDisconnected(rfc2217.ErrConnectionLost)
	if sb.Err() == nil {
		t.Fatal("Err() = nil after SetDisconnected")
	}
	if view := sb.ComprehensiveStatusBar("NORMAL", "ASCII", "FOLLOW", "12:00:00"); !strings.Contains(view, "✗") {
		t.Errorf("disconnected status bar %q has no error marker", view)
	}
}
