package rfc2217

import (
	"bytes"
	"errors"
	"testing"
)

func TestDataBitsRoundTrip(t *testing.T) {
	for _, bits := range []DataBits{DataBits5, DataBits6, DataBits7, DataBits8} {
		msg, err := Decode(Encode(SetDataSize{DataBits: bits}))
		if err != nil {
			t.Fatalf("Decode(Encode(%v)) error = %v", bits, err)
		}
		if got := msg.Command.(SetDataSize).DataBits; got != bits {
			t.Errorf("round trip of %v = %v", bits, got)
		}
	}
}

func TestDecodeDataBits(t *testing.T) {
	tests := []struct {
		name    string
		code    byte
		want    DataBits
		wantErr int64
	}{
		{"5", 5, DataBits5, 0},
		{"8", 8, DataBits8, 0},
		{"-3", 0xfd, 0, -3},
		{"4", 4, 0, 4},
		{"9", 9, 0, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Decode([]byte{byte(CmdSetDataSize), tt.code})
			if tt.wantErr == 0 {
				if err != nil {
					t.Fatalf("Decode() error = %v", err)
				}
				if got := msg.Command.(SetDataSize).DataBits; got != tt.want {
					t.Errorf("DataBits = %v, want %v", got, tt.want)
				}
				return
			}

			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) {
				t.Fatalf("Decode() error = %v, want *DecodeError", err)
			}
			if decodeErr.Value != tt.wantErr {
				t.Errorf("DecodeError.Value = %d, want %d", decodeErr.Value, tt.wantErr)
			}
			if !errors.Is(err, ErrProtocolDecode) {
				t.Error("errors.Is(err, ErrProtocolDecode) = false")
			}
		})
	}
}

func TestDecodeErrorMessage(t *testing.T) {
	_, err := Decode([]byte{byte(CmdSetDataSize), 0xfd})
	if err == nil || err.Error() != "unexpected data bits value: -3" {
		t.Errorf("Decode() error = %v", err)
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want []byte
	}{
		{"baud 9600", SetBaudRate{Baud: 9600}, []byte{1, 0x00, 0x00, 0x25, 0x80}},
		{"baud 115200", SetBaudRate{Baud: 115200}, []byte{1, 0x00, 0x01, 0xc2, 0x00}},
		{"data bits 7", SetDataSize{DataBits: DataBits7}, []byte{2, 7}},
		{"parity none", SetParity{Parity: ParityNone}, []byte{3, 1}},
		{"parity odd", SetParity{Parity: ParityOdd}, []byte{3, 2}},
		{"parity even", SetParity{Parity: ParityEven}, []byte{3, 3}},
		{"parity mark", SetParity{Parity: ParityMark}, []byte{3, 4}},
		{"parity space", SetParity{Parity: ParitySpace}, []byte{3, 5}},
		{"stop bits 1", SetStopSize{StopBits: StopBits1}, []byte{4, 1}},
		{"stop bits 2", SetStopSize{StopBits: StopBits2}, []byte{4, 2}},
		{"stop bits 1.5", SetStopSize{StopBits: StopBits1Half}, []byte{4, 3}},
		{"control DTR on", SetControl{Value: ControlDTROn}, []byte{5, 8}},
		{"signature", Signature{Text: "go"}, []byte{0, 'g', 'o'}},
		{"suspend", FlowControlSuspend{}, []byte{8}},
		{"resume", FlowControlResume{}, []byte{9}},
		{"line mask", SetLineStateMask{Mask: LineBreakDetect}, []byte{10, 0x10}},
		{"modem mask", SetModemStateMask{Mask: ModemDCD}, []byte{11, 0x80}},
		{"purge", PurgeData{Target: PurgeTransmit}, []byte{12, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Encode(tt.cmd)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Encode(%#v) = %v, want %v", tt.cmd, got, tt.want)
			}

			msg, err := Decode(got)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if msg.Reply || msg.Command != tt.cmd {
				t.Errorf("Decode() = %#v, want %#v", msg, tt.cmd)
			}

			reply := EncodeReply(tt.cmd)
			if reply[0] != tt.want[0]+100 {
				t.Errorf("EncodeReply() id = %d, want %d", reply[0], tt.want[0]+100)
			}
			msg, err = Decode(reply)
			if err != nil || !msg.Reply || msg.Command != tt.cmd {
				t.Errorf("Decode(reply) = %#v, %v", msg, err)
			}
		})
	}
}

func TestFlowControlValues(t *testing.T) {
	tests := []struct {
		fc   FlowControl
		want ControlValue
	}{
		{FlowControlNone, 1},
		{FlowControlSoftware, 2},
		{FlowControlHardware, 3},
		{FlowControlRTSCTS, 16},
		{FlowControlDTRDSR, 19},
	}

	for _, tt := range tests {
		t.Run(tt.fc.String(), func(t *testing.T) {
			if got := flowControlValue(tt.fc); got != tt.want {
				t.Errorf("flowControlValue(%v) = %d, want %d", tt.fc, got, tt.want)
			}
			fc, ok := FlowControlOf(tt.want)
			if !ok || fc != tt.fc {
				t.Errorf("FlowControlOf(%d) = %v, %v", tt.want, fc, ok)
			}
		})
	}

	if _, ok := FlowControlOf(ControlDTROn); ok {
		t.Error("FlowControlOf(DTR on) reported a flow control mode")
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
	}{
		{"empty", nil},
		{"unknown id", []byte{42, 1}},
		{"unknown reply id", []byte{150}},
		{"short baud", []byte{1, 0, 0, 0x25}},
		{"long baud", []byte{1, 0, 0, 0x25, 0x80, 0}},
		{"missing parameter", []byte{3}},
		{"extra parameter", []byte{3, 1, 1}},
		{"data size 0", []byte{2, 0}},
		{"data size reply 0", []byte{102, 0}},
		{"parity 0", []byte{3, 0}},
		{"parity 6", []byte{3, 6}},
		{"stop bits 0", []byte{4, 0}},
		{"stop bits 4", []byte{4, 4}},
		{"control 20", []byte{5, 20}},
		{"purge 0", []byte{12, 0}},
		{"suspend with data", []byte{8, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.payload)
			if !errors.Is(err, ErrProtocolDecode) {
				t.Errorf("Decode(%v) error = %v, want ErrProtocolDecode", tt.payload, err)
			}
		})
	}
}

func TestDecodeNotifications(t *testing.T) {
	msg, err := Decode([]byte{107, byte(ModemCTS | ModemDSR)})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !msg.Reply {
		t.Error("NOTIFY-MODEMSTATE from server not flagged as reply")
	}
	if got := msg.Command.(NotifyModemState).State; got != ModemCTS|ModemDSR {
		t.Errorf("State = %08b", got)
	}

	msg, err = Decode([]byte{106, 0xff})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got := msg.Command.(NotifyLineState).State; got != 0xff {
		t.Errorf("State = %08b", got)
	}
}

func TestCommandIDString(t *testing.T) {
	if got := CmdSetBaudRate.String(); got != "SET-BAUDRATE" {
		t.Errorf("String() = %q", got)
	}
	if got := CmdPurgeData.String(); got != "PURGE-DATA" {
		t.Errorf("String() = %q", got)
	}
	if got := CommandID(99).String(); got != "CommandID(99)" {
		t.Errorf("String() = %q", got)
	}
}

func TestLineStateString(t *testing.T) {
	tests := []struct {
		state LineState
		want  string
	}{
		{0, "none"},
		{LineBreakDetect, "break"},
		{LineDataReady | LineFramingError, "data-ready|framing-error"},
		{LineTimeoutError, "timeout"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("LineState(%08b).String() = %q, want %q", byte(tt.state), got, tt.want)
		}
	}
}
