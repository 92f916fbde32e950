package rfc2217

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// CommandID is an RFC2217 COM-PORT-OPTION command code as sent by the
// client. Server replies carry the same id plus serverOffset.
type CommandID byte

const (
	CmdSignature CommandID = iota
	CmdSetBaudRate
	CmdSetDataSize
	CmdSetParity
	CmdSetStopSize
	CmdSetControl
	CmdNotifyLineState
	CmdNotifyModemState
	CmdFlowControlSuspend
	CmdFlowControlResume
	CmdSetLineStateMask
	CmdSetModemStateMask
	CmdPurgeData
)

const serverOffset = 100

var commandNames = [...]string{
	CmdSignature:          "SIGNATURE",
	CmdSetBaudRate:        "SET-BAUDRATE",
	CmdSetDataSize:        "SET-DATASIZE",
	CmdSetParity:          "SET-PARITY",
	CmdSetStopSize:        "SET-STOPSIZE",
	CmdSetControl:         "SET-CONTROL",
	CmdNotifyLineState:    "NOTIFY-LINESTATE",
	CmdNotifyModemState:   "NOTIFY-MODEMSTATE",
	CmdFlowControlSuspend: "FLOWCONTROL-SUSPEND",
	CmdFlowControlResume:  "FLOWCONTROL-RESUME",
	CmdSetLineStateMask:   "SET-LINESTATE-MASK",
	CmdSetModemStateMask:  "SET-MODEMSTATE-MASK",
	CmdPurgeData:          "PURGE-DATA",
}

func (c CommandID) known() bool {
	return c <= CmdPurgeData
}

func (c CommandID) String() string {
	if !c.known() {
		return fmt.Sprintf("CommandID(%d)", byte(c))
	}
	return commandNames[c]
}

// parameterName is used in decode errors.
func (c CommandID) parameterName() string {
	switch c {
	case CmdSetBaudRate:
		return "baud rate"
	case CmdSetDataSize:
		return "data bits"
	case CmdSetParity:
		return "parity"
	case CmdSetStopSize:
		return "stop bits"
	case CmdSetControl:
		return "control"
	case CmdPurgeData:
		return "purge"
	default:
		return c.String() + " parameter"
	}
}

// Command is one typed RFC2217 sub-negotiation message. The set of
// implementations is closed.
type Command interface {
	ID() CommandID
	appendParams(b []byte) []byte
}

// ControlValue is the parameter of SET-CONTROL.
type ControlValue byte

const (
	ControlRequestFlow ControlValue = iota
	ControlFlowNone
	ControlFlowXonXoff
	ControlFlowHardware
	ControlRequestBreak
	ControlBreakOn
	ControlBreakOff
	ControlRequestDTR
	ControlDTROn
	ControlDTROff
	ControlRequestRTS
	ControlRTSOn
	ControlRTSOff
	ControlRequestInboundFlow
	ControlInboundFlowNone
	ControlInboundFlowXonXoff
	ControlInboundFlowHardware
	ControlFlowDCD
	ControlInboundFlowDTR
	ControlFlowDSR
)

// PurgeTarget selects the access server buffer PURGE-DATA clears.
type PurgeTarget byte

const (
	PurgeReceive PurgeTarget = iota + 1
	PurgeTransmit
	PurgeBoth
)

// LineState is the NOTIFY-LINESTATE bit mask.
type LineState byte

const (
	LineDataReady LineState = 1 << iota
	LineOverrunError
	LineParityError
	LineFramingError
	LineBreakDetect
	LineTransferHoldingEmpty
	LineTransferShiftEmpty
	LineTimeoutError
)

var lineStateNames = []string{
	"data-ready", "overrun", "parity-error", "framing-error",
	"break", "thr-empty", "tsr-empty", "timeout",
}

func (l LineState) String() string {
	if l == 0 {
		return "none"
	}
	var names []string
	for i, name := range lineStateNames {
		if l&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	return strings.Join(names, "|")
}

// ModemState is the NOTIFY-MODEMSTATE bit mask.
type ModemState byte

const (
	ModemDeltaCTS ModemState = 1 << iota
	ModemDeltaDSR
	ModemTrailingEdgeRI
	ModemDeltaDCD
	ModemCTS
	ModemDSR
	ModemRI
	ModemDCD
)

type (
	// Signature carries the client or server identification text.
	Signature struct{ Text string }
	// SetBaudRate requests a line speed; 0 asks for the current value.
	SetBaudRate struct{ Baud uint32 }
	SetDataSize struct{ DataBits DataBits }
	SetParity   struct{ Parity Parity }
	SetStopSize struct{ StopBits StopBits }
	SetControl  struct{ Value ControlValue }

	NotifyLineState    struct{ State LineState }
	NotifyModemState   struct{ State ModemState }
	FlowControlSuspend struct{}
	FlowControlResume  struct{}
	SetLineStateMask   struct{ Mask LineState }
	SetModemStateMask  struct{ Mask ModemState }
	PurgeData          struct{ Target PurgeTarget }
)

func (Signature) ID() CommandID          { return CmdSignature }
func (SetBaudRate) ID() CommandID        { return CmdSetBaudRate }
func (SetDataSize) ID() CommandID        { return CmdSetDataSize }
func (SetParity) ID() CommandID          { return CmdSetParity }
func (SetStopSize) ID() CommandID        { return CmdSetStopSize }
func (SetControl) ID() CommandID         { return CmdSetControl }
func (NotifyLineState) ID() CommandID    { return CmdNotifyLineState }
func (NotifyModemState) ID() CommandID   { return CmdNotifyModemState }
func (FlowControlSuspend) ID() CommandID { return CmdFlowControlSuspend }
func (FlowControlResume) ID() CommandID  { return CmdFlowControlResume }
func (SetLineStateMask) ID() CommandID   { return CmdSetLineStateMask }
func (SetModemStateMask) ID() CommandID  { return CmdSetModemStateMask }
func (PurgeData) ID() CommandID          { return CmdPurgeData }

func (c Signature) appendParams(b []byte) []byte { return append(b, c.Text...) }
func (c SetBaudRate) appendParams(b []byte) []byte {
	return binary.BigEndian.AppendUint32(b, c.Baud)
}
func (c SetDataSize) appendParams(b []byte) []byte {
	return append(b, dataBitsCodes.mustEncode(c.DataBits))
}
func (c SetParity) appendParams(b []byte) []byte {
	return append(b, parityCodes.mustEncode(c.Parity))
}
func (c SetStopSize) appendParams(b []byte) []byte {
	return append(b, stopBitsCodes.mustEncode(c.StopBits))
}
func (c SetControl) appendParams(b []byte) []byte        { return append(b, byte(c.Value)) }
func (c NotifyLineState) appendParams(b []byte) []byte   { return append(b, byte(c.State)) }
func (c NotifyModemState) appendParams(b []byte) []byte  { return append(b, byte(c.State)) }
func (FlowControlSuspend) appendParams(b []byte) []byte  { return b }
func (FlowControlResume) appendParams(b []byte) []byte   { return b }
func (c SetLineStateMask) appendParams(b []byte) []byte  { return append(b, byte(c.Mask)) }
func (c SetModemStateMask) appendParams(b []byte) []byte { return append(b, byte(c.Mask)) }
func (c PurgeData) appendParams(b []byte) []byte         { return append(b, byte(c.Target)) }

// codeTable is a fixed bidirectional mapping between an enum and its wire
// code.
type codeTable[T comparable] []struct {
	value T
	code  byte
}

func (t codeTable[T]) encode(v T) (byte, bool) {
	for _, e := range t {
		if e.value == v {
			return e.code, true
		}
	}
	return 0, false
}

// mustEncode is only reached with values validated by PortSettings or typed
// constants; anything else is a programming error.
func (t codeTable[T]) mustEncode(v T) byte {
	code, ok := t.encode(v)
	if !ok {
		panic(fmt.Sprintf("rfc2217: no wire code for %v", v))
	}
	return code
}

func (t codeTable[T]) decode(code byte) (T, bool) {
	for _, e := range t {
		if e.code == code {
			return e.value, true
		}
	}
	var zero T
	return zero, false
}

var dataBitsCodes = codeTable[DataBits]{
	{DataBits5, 5},
	{DataBits6, 6},
	{DataBits7, 7},
	{DataBits8, 8},
}

var parityCodes = codeTable[Parity]{
	{ParityNone, 1},
	{ParityOdd, 2},
	{ParityEven, 3},
	{ParityMark, 4},
	{ParitySpace, 5},
}

var stopBitsCodes = codeTable[StopBits]{
	{StopBits1, 1},
	{StopBits2, 2},
	{StopBits1Half, 3},
}

var flowControlCodes = codeTable[FlowControl]{
	{FlowControlNone, byte(ControlFlowNone)},
	{FlowControlSoftware, byte(ControlFlowXonXoff)},
	{FlowControlHardware, byte(ControlFlowHardware)},
	{FlowControlRTSCTS, byte(ControlInboundFlowHardware)},
	{FlowControlDTRDSR, byte(ControlFlowDSR)},
}

func flowControlValue(fc FlowControl) ControlValue {
	return ControlValue(flowControlCodes.mustEncode(fc))
}

// FlowControlOf reports which flow control mode a SET-CONTROL value selects.
func FlowControlOf(v ControlValue) (FlowControl, bool) {
	return flowControlCodes.decode(byte(v))
}

// Encode returns the client-to-server payload for cmd:
// [command-id][parameters].
func Encode(cmd Command) []byte {
	return cmd.appendParams([]byte{byte(cmd.ID())})
}

// EncodeReply returns the server-to-client payload for cmd.
func EncodeReply(cmd Command) []byte {
	return cmd.appendParams([]byte{byte(cmd.ID()) + serverOffset})
}

// Message is a decoded sub-negotiation payload.
type Message struct {
	Command Command
	// Reply is true when the payload used a server command id.
	Reply bool
}

// Decode parses a COM-PORT-OPTION sub-negotiation payload. Parameters
// outside their domain fail with a *DecodeError naming the offending value.
// Single-byte parameters are read as signed octets.
func Decode(payload []byte) (Message, error) {
	if len(payload) == 0 {
		return Message{}, fmt.Errorf("%w: empty sub-negotiation payload", ErrProtocolDecode)
	}

	var msg Message
	id := CommandID(payload[0])
	if id >= serverOffset {
		id -= serverOffset
		msg.Reply = true
	}
	if !id.known() {
		return Message{}, &DecodeError{Command: CommandID(payload[0]), Value: int64(payload[0]), Reason: "unknown command id"}
	}
	params := payload[1:]

	switch id {
	case CmdSignature:
		msg.Command = Signature{Text: string(params)}
		return msg, nil
	case CmdFlowControlSuspend, CmdFlowControlResume:
		if len(params) != 0 {
			return Message{}, &DecodeError{Command: id, Value: int64(len(params)), Reason: fmt.Sprintf("unexpected %d parameter bytes", len(params))}
		}
		if id == CmdFlowControlSuspend {
			msg.Command = FlowControlSuspend{}
		} else {
			msg.Command = FlowControlResume{}
		}
		return msg, nil
	case CmdSetBaudRate:
		if len(params) != 4 {
			return Message{}, &DecodeError{Command: id, Value: int64(len(params)), Reason: fmt.Sprintf("expected 4 parameter bytes, got %d", len(params))}
		}
		msg.Command = SetBaudRate{Baud: binary.BigEndian.Uint32(params)}
		return msg, nil
	}

	if len(params) != 1 {
		return Message{}, &DecodeError{Command: id, Value: int64(len(params)), Reason: fmt.Sprintf("expected 1 parameter byte, got %d", len(params))}
	}
	code := params[0]
	invalid := &DecodeError{Command: id, Value: int64(int8(code))}

	switch id {
	case CmdSetDataSize:
		bits, ok := dataBitsCodes.decode(code)
		if !ok {
			return Message{}, invalid
		}
		msg.Command = SetDataSize{DataBits: bits}
	case CmdSetParity:
		parity, ok := parityCodes.decode(code)
		if !ok {
			return Message{}, invalid
		}
		msg.Command = SetParity{Parity: parity}
	case CmdSetStopSize:
		stop, ok := stopBitsCodes.decode(code)
		if !ok {
			return Message{}, invalid
		}
		msg.Command = SetStopSize{StopBits: stop}
	case CmdSetControl:
		if ControlValue(code) > ControlFlowDSR {
			return Message{}, invalid
		}
		msg.Command = SetControl{Value: ControlValue(code)}
	case CmdPurgeData:
		if PurgeTarget(code) < PurgeReceive || PurgeTarget(code) > PurgeBoth {
			return Message{}, invalid
		}
		msg.Command = PurgeData{Target: PurgeTarget(code)}
	case CmdNotifyLineState:
		msg.Command = NotifyLineState{State: LineState(code)}
	case CmdNotifyModemState:
		msg.Command = NotifyModemState{State: ModemState(code)}
	case CmdSetLineStateMask:
		msg.Command = SetLineStateMask{Mask: LineState(code)}
	case CmdSetModemStateMask:
		msg.Command = SetModemStateMask{Mask: ModemState(code)}
	}
	return msg, nil
}
