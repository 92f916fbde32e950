package models

import (
	"context"
	"sync"

	rfc2217 "github.com/allbin/go-rfc2217"
)

// InputMode represents the current input mode (vim-like)
type InputMode int

const (
	InputModeNormal InputMode = iota
	InputModeInsert
)

func (m InputMode) String() string {
	switch m {
	case InputModeInsert:
		return "INSERT"
	default:
		return "NORMAL"
	}
}

// ConnectionStatusMsg reports the outcome of opening the port, or its loss.
type ConnectionStatusMsg struct {
	Connected bool
	Error     error
}

// SignalChangeMsg carries a NOTIFY-MODEMSTATE driven change.
type SignalChangeMsg struct {
	Signals rfc2217.ModemSignals
	Changed rfc2217.SignalMask
}

// SerialModel is the state shared by the interactive commands: the
// connection, its lifetime context and the vim-like input mode.
type SerialModel struct {
	conn     *rfc2217.Connection
	portName string

	connected bool
	err       error
	ready     bool

	inputMode InputMode
	nextTxID  int

	cancel context.CancelFunc
	ctx    context.Context
	mu     sync.RWMutex
}

func NewSerialModel(portName string) *SerialModel {
	ctx, cancel := context.WithCancel(context.Background())

	return &SerialModel{
		portName:  portName,
		inputMode: InputModeNormal,
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (m *SerialModel) GetConnection() *rfc2217.Connection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.conn
}

// SetConnection stores conn. If the model was already cleaned up the
// connection is closed right away and false is returned.
func (m *SerialModel) SetConnection(conn *rfc2217.Connection) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ctx.Err() != nil {
		conn.Close()
		return false
	}
	m.conn = conn
	return true
}

func (m *SerialModel) GetPortName() string {
	return m.portName
}

func (m *SerialModel) IsConnected() bool {
	return m.connected
}

func (m *SerialModel) SetConnected(connected bool) {
	m.connected = connected
}

func (m *SerialModel) GetError() error {
	return m.err
}

func (m *SerialModel) SetError(err error) {
	m.err = err
}

func (m *SerialModel) IsReady() bool {
	return m.ready
}

func (m *SerialModel) SetReady(ready bool) {
	m.ready = ready
}

// NextTxID numbers transmitted chunks so their status can be updated.
func (m *SerialModel) NextTxID() int {
	m.nextTxID++
	return m.nextTxID
}

func (m *SerialModel) GetInputMode() InputMode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.inputMode
}

func (m *SerialModel) SetInputMode(mode InputMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputMode = mode
}

func (m *SerialModel) ToggleInputMode() InputMode {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.inputMode {
	case InputModeNormal:
		m.inputMode = InputModeInsert
	case InputModeInsert:
		m.inputMode = InputModeNormal
	}
	return m.inputMode
}

func (m *SerialModel) IsInInsertMode() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.inputMode == InputModeInsert
}

func (m *SerialModel) GetContext() context.Context {
	return m.ctx
}

// Cleanup stops background goroutines and closes the connection.
func (m *SerialModel) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cancel()
	if m.conn != nil {
		m.conn.Close()
		m.conn = nil
	}
}
