package rfc2217

import (
	"io"
	"sync"

	oi "github.com/reiver/go-oi"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

const readChunkSize = 1024

// Connection is an open RFC2217 serial connection. It owns the underlying
// transport. Read, Write and Close may be called from different goroutines.
type Connection struct {
	name        string
	description string
	transport   Transport
	logger      *zap.Logger
	onClose     func()

	closed *atomic.Bool

	mu    sync.RWMutex
	modem ModemState
	line  LineState
	rts   bool
	dtr   bool
	// modemChanged is closed and replaced on every modem notification
	// and on Close.
	modemChanged chan struct{}
}

var _ io.ReadWriteCloser = (*Connection)(nil)

func newConnection(name string, transport Transport, logger *zap.Logger, onClose func()) *Connection {
	return &Connection{
		name:      name,
		transport: transport,
		logger:    logger,
		onClose:   onClose,
		closed:    atomic.NewBool(false),

		modemChanged: make(chan struct{}),
	}
}

// Name returns the port identifier RFC2217@host:port.
func (c *Connection) Name() string {
	return c.name
}

// Description describes the Telnet session behind the connection.
func (c *Connection) Description() string {
	return c.description
}

// IsClosed reports whether Close has been called.
func (c *Connection) IsClosed() bool {
	return c.closed.Load()
}

func (c *Connection) closedError() error {
	return &ClosedError{Port: c.name}
}

// Read blocks until at least one byte has arrived. It never returns (0, nil)
// for a non-empty p.
func (c *Connection) Read(p []byte) (int, error) {
	if c.closed.Load() {
		return 0, c.closedError()
	}
	if len(p) == 0 {
		return 0, nil
	}

	for {
		n, err := c.transport.Reader().Read(p)
		if err != nil && c.closed.Load() {
			return n, c.closedError()
		}
		if n > 0 || err != nil {
			return n, err
		}
	}
}

// ReadAvailable blocks until data is available and returns it.
func (c *Connection) ReadAvailable() ([]byte, error) {
	buf := make([]byte, readChunkSize)
	n, err := c.Read(buf)
	if n > 0 {
		return buf[:n], nil
	}
	return nil, err
}

// Write transmits all of p or returns an error.
func (c *Connection) Write(p []byte) (int, error) {
	if c.closed.Load() {
		return 0, c.closedError()
	}

	n, err := oi.LongWrite(c.transport.Writer(), p)
	if err != nil && c.closed.Load() {
		return int(n), c.closedError()
	}
	return int(n), err
}

// Close releases the transport. Closing an already closed connection
// returns a *ClosedError.
func (c *Connection) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return c.closedError()
	}

	err := c.transport.Disconnect()
	c.wakeSignalWaiters()
	if c.onClose != nil {
		c.onClose()
	}
	return err
}

func (c *Connection) send(cmd Command) error {
	if c.closed.Load() {
		return c.closedError()
	}
	if err := c.transport.SendSubnegotiation(Encode(cmd)); err != nil {
		if c.closed.Load() {
			return c.closedError()
		}
		return err
	}
	c.logger.Debug("sent command", zap.Stringer("command", cmd.ID()))
	return nil
}

// SetRTS asks the access server to raise or drop RTS.
func (c *Connection) SetRTS(state bool) error {
	value := ControlRTSOff
	if state {
		value = ControlRTSOn
	}
	if err := c.send(SetControl{Value: value}); err != nil {
		return err
	}
	c.mu.Lock()
	c.rts = state
	c.mu.Unlock()
	return nil
}

// SetDTR asks the access server to raise or drop DTR.
func (c *Connection) SetDTR(state bool) error {
	value := ControlDTROff
	if state {
		value = ControlDTROn
	}
	if err := c.send(SetControl{Value: value}); err != nil {
		return err
	}
	c.mu.Lock()
	c.dtr = state
	c.mu.Unlock()
	return nil
}

// SetBreak starts or stops a break condition on the remote line.
func (c *Connection) SetBreak(state bool) error {
	value := ControlBreakOff
	if state {
		value = ControlBreakOn
	}
	return c.send(SetControl{Value: value})
}

// Purge discards data buffered on the access server.
func (c *Connection) Purge(target PurgeTarget) error {
	if target < PurgeReceive || target > PurgeBoth {
		return invalidArgument("target", "unknown value %d", int(target))
	}
	return c.send(PurgeData{Target: target})
}

// SetModemStateMask selects which modem lines the access server reports.
func (c *Connection) SetModemStateMask(mask ModemState) error {
	return c.send(SetModemStateMask{Mask: mask})
}

// SetLineStateMask selects which line conditions the access server reports.
func (c *Connection) SetLineStateMask(mask LineState) error {
	return c.send(SetLineStateMask{Mask: mask})
}

// LineState returns the last line state the access server notified.
func (c *Connection) LineState() LineState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.line
}

// handleSubnegotiation runs on the transport's reader goroutine.
func (c *Connection) handleSubnegotiation(payload []byte) {
	msg, err := Decode(payload)
	if err != nil {
		c.logger.Warn("discarding malformed sub-negotiation", zap.Error(err), zap.Binary("payload", payload))
		return
	}

	switch cmd := msg.Command.(type) {
	case NotifyModemState:
		c.updateModemState(cmd.State)
	case NotifyLineState:
		c.mu.Lock()
		c.line = cmd.State
		c.mu.Unlock()
	case SetBaudRate:
		c.logger.Debug("access server baud rate", zap.Uint32("baud", cmd.Baud), zap.Bool("reply", msg.Reply))
	case Signature:
		c.logger.Debug("access server signature", zap.String("signature", cmd.Text))
	default:
		c.logger.Debug("received command", zap.Stringer("command", cmd.ID()), zap.Bool("reply", msg.Reply))
	}
}
