package rfc2217

import "fmt"

// DataBits is the number of data bits per character
type DataBits int

const (
	DataBits5 DataBits = 5
	DataBits6 DataBits = 6
	DataBits7 DataBits = 7
	DataBits8 DataBits = 8
)

func (d DataBits) valid() bool {
	return d >= DataBits5 && d <= DataBits8
}

func (d DataBits) String() string {
	if !d.valid() {
		return fmt.Sprintf("DataBits(%d)", int(d))
	}
	return fmt.Sprintf("%d", int(d))
}

// StopBits represents the number of stop bits
type StopBits int

const (
	StopBits1 StopBits = iota + 1
	StopBits1Half
	StopBits2
)

func (s StopBits) String() string {
	switch s {
	case StopBits1:
		return "1"
	case StopBits1Half:
		return "1.5"
	case StopBits2:
		return "2"
	default:
		return fmt.Sprintf("StopBits(%d)", int(s))
	}
}

// Parity represents the parity mode
type Parity int

const (
	ParityNone Parity = iota + 1
	ParityOdd
	ParityEven
	ParityMark
	ParitySpace
)

func (p Parity) String() string {
	switch p {
	case ParityNone:
		return "N"
	case ParityOdd:
		return "O"
	case ParityEven:
		return "E"
	case ParityMark:
		return "M"
	case ParitySpace:
		return "S"
	default:
		return fmt.Sprintf("Parity(%d)", int(p))
	}
}

// FlowControl represents the flow control mode requested from the access server
type FlowControl int

const (
	FlowControlNone     FlowControl = iota + 1
	FlowControlSoftware             // XON/XOFF
	FlowControlHardware             // outbound hardware handshake
	FlowControlDTRDSR
	FlowControlRTSCTS
)

func (f FlowControl) String() string {
	switch f {
	case FlowControlNone:
		return "none"
	case FlowControlSoftware:
		return "xon/xoff"
	case FlowControlHardware:
		return "hardware"
	case FlowControlDTRDSR:
		return "dtr/dsr"
	case FlowControlRTSCTS:
		return "rts/cts"
	default:
		return fmt.Sprintf("FlowControl(%d)", int(f))
	}
}

// PortSettings is an immutable set of serial line parameters. Build it with
// NewPortSettings; the zero value is not valid.
type PortSettings struct {
	baudRate    int
	dataBits    DataBits
	stopBits    StopBits
	parity      Parity
	flowControl FlowControl
}

// SettingsOption is a functional option for building PortSettings
type SettingsOption func(*PortSettings) error

// NewPortSettings builds settings starting from 9600 8N1 without flow
// control. Every option is validated before the value is returned.
func NewPortSettings(opts ...SettingsOption) (*PortSettings, error) {
	s := &PortSettings{
		baudRate:    9600,
		dataBits:    DataBits8,
		stopBits:    StopBits1,
		parity:      ParityNone,
		flowControl: FlowControlNone,
	}
	for _, opt := range opts {
		if opt == nil {
			return nil, invalidArgument("opt", "must not be nil")
		}
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// MustPortSettings is like NewPortSettings but panics on invalid options.
func MustPortSettings(opts ...SettingsOption) *PortSettings {
	s, err := NewPortSettings(opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// WithBaudRate sets the baud rate. Any positive rate the access server
// accepts can be requested.
func WithBaudRate(rate int) SettingsOption {
	return func(s *PortSettings) error {
		if rate <= 0 || int64(rate) > int64(^uint32(0)) {
			return invalidArgument("baudRate", "must be a positive 32-bit value, got %d", rate)
		}
		s.baudRate = rate
		return nil
	}
}

// WithDataBits sets the number of data bits (5, 6, 7, or 8)
func WithDataBits(bits DataBits) SettingsOption {
	return func(s *PortSettings) error {
		if !bits.valid() {
			return invalidArgument("dataBits", "must be 5, 6, 7 or 8, got %d", int(bits))
		}
		s.dataBits = bits
		return nil
	}
}

// WithStopBits sets the number of stop bits
func WithStopBits(bits StopBits) SettingsOption {
	return func(s *PortSettings) error {
		if bits < StopBits1 || bits > StopBits2 {
			return invalidArgument("stopBits", "unknown value %d", int(bits))
		}
		s.stopBits = bits
		return nil
	}
}

// WithParity sets the parity mode
func WithParity(parity Parity) SettingsOption {
	return func(s *PortSettings) error {
		if parity < ParityNone || parity > ParitySpace {
			return invalidArgument("parity", "unknown value %d", int(parity))
		}
		s.parity = parity
		return nil
	}
}

// WithFlowControl sets the flow control mode
func WithFlowControl(fc FlowControl) SettingsOption {
	return func(s *PortSettings) error {
		if fc < FlowControlNone || fc > FlowControlRTSCTS {
			return invalidArgument("flowControl", "unknown value %d", int(fc))
		}
		s.flowControl = fc
		return nil
	}
}

func (s *PortSettings) BaudRate() int            { return s.baudRate }
func (s *PortSettings) DataBits() DataBits       { return s.dataBits }
func (s *PortSettings) StopBits() StopBits       { return s.stopBits }
func (s *PortSettings) Parity() Parity           { return s.parity }
func (s *PortSettings) FlowControl() FlowControl { return s.flowControl }

// validate rejects settings that did not come from NewPortSettings, such as
// a zero value.
func (s *PortSettings) validate() error {
	switch {
	case s.baudRate <= 0:
		return invalidArgument("settings", "baud rate %d is not positive", s.baudRate)
	case !s.dataBits.valid():
		return invalidArgument("settings", "data bits %d out of range", int(s.dataBits))
	case s.stopBits < StopBits1 || s.stopBits > StopBits2:
		return invalidArgument("settings", "unknown stop bits %d", int(s.stopBits))
	case s.parity < ParityNone || s.parity > ParitySpace:
		return invalidArgument("settings", "unknown parity %d", int(s.parity))
	case s.flowControl < FlowControlNone || s.flowControl > FlowControlRTSCTS:
		return invalidArgument("settings", "unknown flow control %d", int(s.flowControl))
	}
	return nil
}

// String renders the settings in the usual "9600 8N1" notation.
func (s *PortSettings) String() string {
	return fmt.Sprintf("%d %s%s%s flow:%s", s.baudRate, s.dataBits, s.parity, s.stopBits, s.flowControl)
}

// commands returns the SET-* commands that apply s on the access server,
// in transmission order.
func (s *PortSettings) commands() []Command {
	return []Command{
		SetBaudRate{Baud: uint32(s.baudRate)},
		SetDataSize{DataBits: s.dataBits},
		SetParity{Parity: s.parity},
		SetStopSize{StopBits: s.stopBits},
		SetControl{Value: flowControlValue(s.flowControl)},
	}
}
