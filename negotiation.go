package rfc2217

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TelnetOption is a Telnet option code relevant to RFC2217.
type TelnetOption byte

const (
	OptionBinary  TelnetOption = 0
	OptionComPort TelnetOption = 44
)

func (o TelnetOption) String() string {
	switch o {
	case OptionBinary:
		return "BINARY"
	case OptionComPort:
		return "COM-PORT-OPTION"
	default:
		return fmt.Sprintf("option %d", byte(o))
	}
}

// NegotiationKind is the verb of a received option negotiation.
type NegotiationKind int

const (
	ReceivedDo NegotiationKind = iota + 1
	ReceivedDont
	ReceivedWill
	ReceivedWont
)

func (k NegotiationKind) String() string {
	switch k {
	case ReceivedDo:
		return "DO"
	case ReceivedDont:
		return "DONT"
	case ReceivedWill:
		return "WILL"
	case ReceivedWont:
		return "WONT"
	default:
		return fmt.Sprintf("NegotiationKind(%d)", int(k))
	}
}

// NegotiationEvent is delivered by the transport for every negotiation it
// receives.
type NegotiationEvent struct {
	Kind   NegotiationKind
	Option TelnetOption
}

func (e NegotiationEvent) String() string {
	return fmt.Sprintf("%s %s", e.Kind, e.Option)
}

// negotiation tracks one Open attempt. handle runs on the transport's
// reader goroutine; await runs on the goroutine inside Open. The outcome is
// written once, under mu, before done is closed.
type negotiation struct {
	logger *zap.Logger

	mu          sync.Mutex
	comPortDo   bool
	binaryDo    bool
	binaryWill  bool
	refused     TelnetOption
	terminal    bool
	cause       error
	done        chan struct{}
	resolveOnce sync.Once
}

func newNegotiation(logger *zap.Logger) *negotiation {
	return &negotiation{
		logger: logger,
		done:   make(chan struct{}),
	}
}

// handle consumes one negotiation event.
func (n *negotiation) handle(ev NegotiationEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.terminal {
		return
	}
	n.logger.Debug("received negotiation", zap.Stringer("event", ev))

	switch ev.Option {
	case OptionComPort:
		switch ev.Kind {
		case ReceivedDo:
			n.comPortDo = true
		case ReceivedDont:
			n.resolveLocked(&NegotiationRefusedError{Option: ev.Option})
			return
		}
		// WILL/WONT COM-PORT-OPTION concern the server side of the option,
		// which a client never uses. Only DONT refuses.
	case OptionBinary:
		switch ev.Kind {
		case ReceivedDo:
			n.binaryDo = true
		case ReceivedWill:
			n.binaryWill = true
		case ReceivedDont, ReceivedWont:
			n.resolveLocked(&NegotiationRefusedError{Option: ev.Option})
			return
		}
	default:
		return
	}

	if n.comPortDo && n.binaryDo && n.binaryWill {
		n.resolveLocked(nil)
	}
}

func (n *negotiation) resolveLocked(cause error) {
	n.resolveOnce.Do(func() {
		n.terminal = true
		n.cause = cause
		var refused *NegotiationRefusedError
		if errors.As(cause, &refused) {
			n.refused = refused.Option
		}
		close(n.done)
	})
}

// await blocks until the negotiation resolves, the budget elapses or lost
// is closed, whichever happens first.
func (n *negotiation) await(budget time.Duration, lost <-chan struct{}) error {
	timer := time.NewTimer(budget)
	defer timer.Stop()

	select {
	case <-n.done:
	case <-timer.C:
		n.mu.Lock()
		n.resolveLocked(&NegotiationTimeoutError{Budget: budget})
		n.mu.Unlock()
	case <-lost:
		n.mu.Lock()
		n.resolveLocked(ErrConnectionLost)
		n.mu.Unlock()
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	return n.cause
}
