// Package telnet implements the part of the TELNET protocol (RFC 854,
// RFC 855, RFC 856) that a serial line needs: per-option negotiation state
// with pluggable option handlers, sub-negotiation framing and IAC escaping
// of the data stream.
package telnet

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	oi "github.com/reiver/go-oi"
)

// Command bytes
const (
	SE   byte = 240 // Subnegotiation End
	NOP  byte = 241
	SB   byte = 250 // Subnegotiation Begin
	WILL byte = 251
	WONT byte = 252
	DO   byte = 253
	DONT byte = 254
	IAC  byte = 255 // Interpret As Command
)

// Option codes
const (
	OptBinary  byte = 0
	OptComPort byte = 44
)

var ErrNotConnected = errors.New("telnet: not connected")

// Config controls dialing and which options the client negotiates.
type Config struct {
	DialTimeout time.Duration
	KeepAlive   time.Duration
	// UserTimeout bounds how long unacknowledged data may stay in flight
	// before the kernel drops the connection (Linux only).
	UserTimeout time.Duration

	// Options are the TELNET options the client takes part in. Requests
	// for any other option are refused.
	Options []Option
}

// DefaultConfig dials with keepalive and negotiates BINARY in both
// directions. Callers add the options they serve.
func DefaultConfig() Config {
	return Config{
		DialTimeout: 10 * time.Second,
		KeepAlive:   30 * time.Second,
		UserTimeout: 30 * time.Second,
		Options: []Option{
			BasicOption{OptCode: OptBinary, OptUsage: RequestLocal | RequestRemote},
		},
	}
}

// Client is a TELNET client connection. Option callbacks run on the
// client's reader goroutine.
type Client struct {
	cfg Config

	conn    net.Conn
	writeMu sync.Mutex
	data    *dataQueue

	stateMu sync.Mutex
	options map[byte]*optionState

	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(cfg Config) *Client {
	c := &Client{
		cfg:     cfg,
		data:    newDataQueue(),
		options: make(map[byte]*optionState, len(cfg.Options)),
		done:    make(chan struct{}),
	}
	for _, opt := range cfg.Options {
		c.options[opt.Code()] = &optionState{opt: opt}
	}
	return c
}

// LocalState reports whether we perform option code.
func (c *Client) LocalState(code byte) State {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	if s, ok := c.options[code]; ok {
		return s.local
	}
	return Inactive
}

// RemoteState reports whether the remote performs option code.
func (c *Client) RemoteState(code byte) State {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	if s, ok := c.options[code]; ok {
		return s.remote
	}
	return Inactive
}

// Dial connects to addr and starts negotiating.
func (c *Client) Dial(addr string) error {
	dialer := net.Dialer{
		Timeout:   c.cfg.DialTimeout,
		KeepAlive: c.cfg.KeepAlive,
		Control:   socketControl(c.cfg.UserTimeout),
	}
	conn, err := dialer.Dial("tcp", addr)
	if err != nil {
		return err
	}
	if err := c.Start(conn); err != nil {
		conn.Close()
		return err
	}
	return nil
}

// Start runs the protocol over an established connection. The opening
// requests are recorded before the reader starts, so an early DO or WILL
// from the remote counts as their answer.
func (c *Client) Start(conn net.Conn) error {
	if c.conn != nil {
		return fmt.Errorf("telnet: already started")
	}
	c.conn = conn

	c.stateMu.Lock()
	var offer []byte
	for _, opt := range c.cfg.Options {
		s := c.options[opt.Code()]
		if opt.Usage()&RequestLocal != 0 && s.local == Inactive {
			s.local = Requested
			offer = append(offer, IAC, WILL, opt.Code())
		}
	}
	for _, opt := range c.cfg.Options {
		s := c.options[opt.Code()]
		if opt.Usage()&RequestRemote != 0 && s.remote == Inactive {
			s.remote = Requested
			offer = append(offer, IAC, DO, opt.Code())
		}
	}
	c.stateMu.Unlock()

	go c.readLoop()
	return c.writeRaw(offer)
}

// Close tears the connection down. It is safe to call more than once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		// pending readers see io.EOF rather than the socket error
		c.data.close(io.EOF)
		if c.conn != nil {
			err = c.conn.Close()
		}
		close(c.done)
	})
	return err
}

// Done is closed once the connection has ended for any reason.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Read returns received data bytes with TELNET commands removed.
func (c *Client) Read(p []byte) (int, error) {
	return c.data.read(p)
}

// Write sends data bytes, doubling any IAC.
func (c *Client) Write(p []byte) (int, error) {
	if c.conn == nil {
		return 0, ErrNotConnected
	}
	if err := c.writeRaw(escapeIAC(p)); err != nil {
		return 0, err
	}
	return len(p), nil
}

// SendSubnegotiation frames payload as IAC SB option payload IAC SE.
func (c *Client) SendSubnegotiation(option byte, payload []byte) error {
	frame := make([]byte, 0, len(payload)+5)
	frame = append(frame, IAC, SB, option)
	frame = append(frame, escapeIAC(payload)...)
	frame = append(frame, IAC, SE)
	return c.writeRaw(frame)
}

func (c *Client) LocalAddr() net.Addr {
	if c.conn == nil {
		return nil
	}
	return c.conn.LocalAddr()
}

func (c *Client) RemoteAddr() net.Addr {
	if c.conn == nil {
		return nil
	}
	return c.conn.RemoteAddr()
}

func (c *Client) writeRaw(p []byte) error {
	if c.conn == nil {
		return ErrNotConnected
	}
	if len(p) == 0 {
		return nil
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err := oi.LongWrite(c.conn, p)
	return err
}

func escapeIAC(p []byte) []byte {
	out := make([]byte, 0, len(p))
	for _, b := range p {
		if b == IAC {
			out = append(out, IAC, IAC)
			continue
		}
		out = append(out, b)
	}
	return out
}

// parser states
const (
	stateData = iota
	stateIAC
	stateVerb
	stateSBOption
	stateSB
	stateSBIAC
)

func (c *Client) readLoop() {
	defer c.Close()

	var (
		state    = stateData
		verb     byte
		sbOption byte
		sbBuf    []byte
		buf      = make([]byte, 4096)
	)

	for {
		n, err := c.conn.Read(buf)
		var data []byte
		for _, b := range buf[:n] {
			switch state {
			case stateData:
				if b == IAC {
					state = stateIAC
					continue
				}
				data = append(data, b)
			case stateIAC:
				switch b {
				case IAC:
					data = append(data, IAC)
					state = stateData
				case DO, DONT, WILL, WONT:
					verb = b
					state = stateVerb
				case SB:
					state = stateSBOption
				default:
					// NOP, GA, DM and friends carry nothing for a serial line
					state = stateData
				}
			case stateVerb:
				c.handleNegotiation(verb, b)
				state = stateData
			case stateSBOption:
				sbOption = b
				sbBuf = sbBuf[:0]
				state = stateSB
			case stateSB:
				if b == IAC {
					state = stateSBIAC
					continue
				}
				sbBuf = append(sbBuf, b)
			case stateSBIAC:
				switch b {
				case IAC:
					sbBuf = append(sbBuf, IAC)
					state = stateSB
				case SE:
					c.handleSubnegotiation(sbOption, sbBuf)
					state = stateData
				default:
					// malformed frame, drop it
					state = stateData
				}
			}
		}
		if len(data) > 0 {
			c.data.write(data)
		}
		if err != nil {
			if errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
				err = io.EOF
			}
			c.data.close(err)
			return
		}
	}
}

// handleNegotiation answers the remote the way RFC 854 requires, then
// reports the verb to the option's handler.
func (c *Client) handleNegotiation(verb, code byte) {
	c.stateMu.Lock()
	s, ok := c.options[code]
	if !ok {
		c.stateMu.Unlock()
		if reply := refusal(verb, code); reply != nil {
			c.writeRaw(reply)
		}
		return
	}
	reply := s.receive(verb)
	local, remote := s.local, s.remote
	c.stateMu.Unlock()

	if reply != nil {
		c.writeRaw(reply)
	}
	s.opt.Negotiated(verb, local, remote)
}

func (c *Client) handleSubnegotiation(code byte, buf []byte) {
	c.stateMu.Lock()
	s, ok := c.options[code]
	c.stateMu.Unlock()
	if !ok {
		return
	}
	payload := make([]byte, len(buf))
	copy(payload, buf)
	s.opt.Subnegotiate(payload)
}
