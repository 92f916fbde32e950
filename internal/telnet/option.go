package telnet

import "fmt"

// Usage says which sides of an option the client will enable and which it
// asks for as soon as the connection starts.
type Usage byte

const (
	// AllowLocal accepts DO from the remote.
	AllowLocal Usage = 1 << iota
	// AllowRemote accepts WILL from the remote.
	AllowRemote
	// RequestLocal sends WILL on connect. Implies AllowLocal.
	RequestLocal
	// RequestRemote sends DO on connect. Implies AllowRemote.
	RequestRemote
)

func (u Usage) allowsLocal() bool  { return u&(AllowLocal|RequestLocal) != 0 }
func (u Usage) allowsRemote() bool { return u&(AllowRemote|RequestRemote) != 0 }

// State is one side of an option's negotiation.
type State byte

const (
	Inactive State = iota
	// Requested means we sent WILL (local) or DO (remote) and have no answer yet.
	Requested
	Active
)

func (s State) String() string {
	switch s {
	case Inactive:
		return "inactive"
	case Requested:
		return "requested"
	case Active:
		return "active"
	default:
		return fmt.Sprintf("State(%d)", byte(s))
	}
}

// Option handles one TELNET option. The client answers DO/DONT/WILL/WONT
// itself according to Usage and then reports the verb; sub-negotiations
// for Code are handed to Subnegotiate. Both callbacks run on the client's
// reader goroutine and must not block.
type Option interface {
	Code() byte
	Usage() Usage
	Negotiated(verb byte, local, remote State)
	Subnegotiate(payload []byte)
}

// BasicOption is an Option with no sub-negotiation, such as BINARY.
type BasicOption struct {
	OptCode  byte
	OptUsage Usage
}

func (o BasicOption) Code() byte                    { return o.OptCode }
func (o BasicOption) Usage() Usage                  { return o.OptUsage }
func (o BasicOption) Negotiated(byte, State, State) {}
func (o BasicOption) Subnegotiate([]byte)           {}

// optionState is the client's bookkeeping for one registered option.
type optionState struct {
	opt    Option
	local  State
	remote State
}

// receive applies verb to the state and returns the reply to send, if any.
// Answers to our own requests are not answered again, and a refusal of
// something we only requested needs no acknowledgement.
func (s *optionState) receive(verb byte) []byte {
	code := s.opt.Code()
	usage := s.opt.Usage()

	switch verb {
	case DO:
		if !usage.allowsLocal() {
			return []byte{IAC, WONT, code}
		}
		prev := s.local
		s.local = Active
		if prev == Inactive {
			return []byte{IAC, WILL, code}
		}
	case DONT:
		prev := s.local
		s.local = Inactive
		if prev == Active {
			return []byte{IAC, WONT, code}
		}
	case WILL:
		if !usage.allowsRemote() {
			return []byte{IAC, DONT, code}
		}
		prev := s.remote
		s.remote = Active
		if prev == Inactive {
			return []byte{IAC, DO, code}
		}
	case WONT:
		prev := s.remote
		s.remote = Inactive
		if prev == Active {
			return []byte{IAC, DONT, code}
		}
	}
	return nil
}

// refusal is the answer to a request for an option nobody registered.
func refusal(verb, code byte) []byte {
	switch verb {
	case DO:
		return []byte{IAC, WONT, code}
	case WILL:
		return []byte{IAC, DONT, code}
	}
	return nil
}
