package rfc2217

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// DefaultNegotiationTimeout bounds option negotiation unless overridden.
const DefaultNegotiationTimeout = time.Second

// State is the lifecycle state of a Port.
type State int

const (
	StateUnopened State = iota
	StateConnecting
	StateNegotiating
	StateOpen
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnopened:
		return "unopened"
	case StateConnecting:
		return "connecting"
	case StateNegotiating:
		return "negotiating"
	case StateOpen:
		return "open"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Port is a serial port on a remote access server, reached through Telnet
// and RFC2217. A Port hands out at most one open Connection at a time.
type Port struct {
	server       AccessServer
	newTransport TransportFactory
	logger       *zap.Logger

	opening *atomic.Bool

	mu          sync.RWMutex
	state       State
	timeout     time.Duration
	description string
	lastErr     error
}

// PortOption is a functional option for configuring a Port
type PortOption func(*Port) error

// WithTransportFactory replaces the default Telnet transport.
func WithTransportFactory(factory TransportFactory) PortOption {
	return func(p *Port) error {
		if factory == nil {
			return invalidArgument("factory", "must not be nil")
		}
		p.newTransport = factory
		return nil
	}
}

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(logger *zap.Logger) PortOption {
	return func(p *Port) error {
		if logger == nil {
			return invalidArgument("logger", "must not be nil")
		}
		p.logger = logger
		return nil
	}
}

// WithNegotiationTimeout sets the initial negotiation budget.
func WithNegotiationTimeout(timeout time.Duration) PortOption {
	return func(p *Port) error {
		if timeout <= 0 {
			return invalidArgument("timeout", "must be positive, got %v", timeout)
		}
		p.timeout = timeout
		return nil
	}
}

// NewPort creates a port for the given access server. Nothing is dialed
// until Open.
func NewPort(server AccessServer, opts ...PortOption) (*Port, error) {
	if server.host == "" {
		return nil, invalidArgument("accessServer", "must not be empty")
	}

	p := &Port{
		server:       server,
		newTransport: NewTelnetTransport,
		logger:       zap.NewNop(),
		opening:      atomic.NewBool(false),
		state:        StateUnopened,
		timeout:      DefaultNegotiationTimeout,
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.logger = p.logger.With(zap.String("port", server.PortName()))
	return p, nil
}

// PortName returns RFC2217@host:port. It never changes.
func (p *Port) PortName() string {
	return p.server.PortName()
}

// Description is empty until the first successful Open; afterwards it
// describes the Telnet session that Open established.
func (p *Port) Description() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.description
}

// State reports the current lifecycle state.
func (p *Port) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Err returns the cause of the last failed Open, if the port is in
// StateFailed.
func (p *Port) Err() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.state != StateFailed {
		return nil
	}
	return p.lastErr
}

// NegotiationTimeout returns the budget the next Open will use.
func (p *Port) NegotiationTimeout() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.timeout
}

// SetNegotiationTimeout changes the negotiation budget for subsequent Opens.
// Non-positive values are rejected and the current value is kept.
func (p *Port) SetNegotiationTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return invalidArgument("timeout", "must be positive, got %v", timeout)
	}
	p.mu.Lock()
	p.timeout = timeout
	p.mu.Unlock()
	return nil
}

// Open connects to the access server, negotiates COM-PORT-OPTION and BINARY,
// applies settings and returns the live connection. Settings not built by
// NewPortSettings are rejected before anything is dialed. Any failure
// disconnects the transport before the error is returned. A concurrent Open on the same
// Port fails with ErrOpenInProgress.
func (p *Port) Open(settings *PortSettings) (*Connection, error) {
	if settings == nil {
		return nil, invalidArgument("settings", "must not be nil")
	}
	if err := settings.validate(); err != nil {
		return nil, err
	}
	if !p.opening.CompareAndSwap(false, true) {
		return nil, ErrOpenInProgress
	}
	defer p.opening.Store(false)

	p.mu.Lock()
	if p.state == StateOpen {
		p.mu.Unlock()
		return nil, ErrPortAlreadyOpen
	}
	timeout := p.timeout
	p.mu.Unlock()

	started := time.Now()
	transport := p.newTransport()
	neg := newNegotiation(p.logger)
	conn := newConnection(p.server.PortName(), transport, p.logger, p.connectionClosed)
	transport.RegisterNegotiationListener(neg.handle)
	transport.RegisterSubnegotiationListener(conn.handleSubnegotiation)

	p.setState(StateConnecting)
	if err := transport.Connect(p.server.host, p.server.port); err != nil {
		return nil, p.fail(transport, &ConnectError{Addr: p.server.Addr(), Err: err})
	}

	p.setState(StateNegotiating)
	if err := neg.await(timeout, transport.Done()); err != nil {
		return nil, p.fail(transport, err)
	}

	for _, cmd := range settings.commands() {
		if err := transport.SendSubnegotiation(Encode(cmd)); err != nil {
			return nil, p.fail(transport, fmt.Errorf("failed to send %s: %w", cmd.ID(), err))
		}
	}

	description := transport.Description()
	conn.description = description

	p.mu.Lock()
	p.state = StateOpen
	p.description = description
	p.lastErr = nil
	p.mu.Unlock()

	p.logger.Info("port opened",
		zap.Stringer("settings", settings),
		zap.String("description", description),
		zap.Duration("duration", time.Since(started)),
	)
	return conn, nil
}

func (p *Port) setState(state State) {
	p.mu.Lock()
	p.state = state
	p.mu.Unlock()
	p.logger.Debug("state changed", zap.Stringer("state", state))
}

// fail disconnects the transport, then records err.
func (p *Port) fail(transport Transport, err error) error {
	if derr := transport.Disconnect(); derr != nil {
		p.logger.Debug("disconnect after failure", zap.Error(derr))
	}

	p.mu.Lock()
	p.state = StateFailed
	p.lastErr = err
	p.mu.Unlock()

	p.logger.Warn("open failed", zap.Error(err))
	return err
}

// connectionClosed lets the port be opened again once its connection is
// closed.
func (p *Port) connectionClosed() {
	p.mu.Lock()
	if p.state == StateOpen {
		p.state = StateUnopened
	}
	p.mu.Unlock()
	p.logger.Info("port closed")
}
