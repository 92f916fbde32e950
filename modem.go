package rfc2217

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// ModemSignals represents modem control signal states. CTS, DSR, RI and DCD
// come from the access server's last NOTIFY-MODEMSTATE; RTS and DTR reflect
// what this connection last requested.
type ModemSignals struct {
	CTS bool // Clear To Send
	DSR bool // Data Set Ready
	RI  bool // Ring Indicator
	DCD bool // Data Carrier Detect
	RTS bool // Request To Send
	DTR bool // Data Terminal Ready
}

// SignalMask identifies which signals to monitor
type SignalMask int

const (
	SignalCTS SignalMask = 1 << iota
	SignalDSR
	SignalRI
	SignalDCD

	SignalAll = SignalCTS | SignalDSR | SignalRI | SignalDCD
)

func (m SignalMask) String() string {
	if m == 0 {
		return "none"
	}
	var s string
	for _, e := range []struct {
		bit  SignalMask
		name string
	}{{SignalCTS, "CTS"}, {SignalDSR, "DSR"}, {SignalRI, "RI"}, {SignalDCD, "DCD"}} {
		if m&e.bit != 0 {
			if s != "" {
				s += "|"
			}
			s += e.name
		}
	}
	return s
}

// signalMaskToModemState converts a SignalMask to the NOTIFY-MODEMSTATE bits
// that report those lines, level and delta.
func signalMaskToModemState(mask SignalMask) ModemState {
	var state ModemState
	if mask&SignalCTS != 0 {
		state |= ModemCTS | ModemDeltaCTS
	}
	if mask&SignalDSR != 0 {
		state |= ModemDSR | ModemDeltaDSR
	}
	if mask&SignalRI != 0 {
		state |= ModemRI | ModemTrailingEdgeRI
	}
	if mask&SignalDCD != 0 {
		state |= ModemDCD | ModemDeltaDCD
	}
	return state
}

// detectSignalChanges compares two modem states. A line counts as changed if
// its level differs or the access server flagged a transition in newState.
func detectSignalChanges(oldState, newState ModemState) SignalMask {
	var changed SignalMask
	if (oldState^newState)&ModemCTS != 0 || newState&ModemDeltaCTS != 0 {
		changed |= SignalCTS
	}
	if (oldState^newState)&ModemDSR != 0 || newState&ModemDeltaDSR != 0 {
		changed |= SignalDSR
	}
	if (oldState^newState)&ModemRI != 0 || newState&ModemTrailingEdgeRI != 0 {
		changed |= SignalRI
	}
	if (oldState^newState)&ModemDCD != 0 || newState&ModemDeltaDCD != 0 {
		changed |= SignalDCD
	}
	return changed
}

// ModemSignals returns the last known state of the modem lines.
func (c *Connection) ModemSignals() ModemSignals {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.signalsLocked()
}

func (c *Connection) signalsLocked() ModemSignals {
	return ModemSignals{
		CTS: c.modem&ModemCTS != 0,
		DSR: c.modem&ModemDSR != 0,
		RI:  c.modem&ModemRI != 0,
		DCD: c.modem&ModemDCD != 0,
		RTS: c.rts,
		DTR: c.dtr,
	}
}

// MonitorSignals asks the access server to report changes of the lines in
// mask through NOTIFY-MODEMSTATE.
func (c *Connection) MonitorSignals(mask SignalMask) error {
	if mask == 0 || mask&^SignalAll != 0 {
		return ErrInvalidSignalMask
	}
	return c.SetModemStateMask(signalMaskToModemState(mask))
}

// WaitForSignalChange blocks until any monitored signal changes state
// Returns new signal states and which signal(s) changed
func (c *Connection) WaitForSignalChange(mask SignalMask, timeout time.Duration) (ModemSignals, SignalMask, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	signals, changed, err := c.WaitForSignalChangeContext(ctx, mask)
	if errors.Is(err, context.DeadlineExceeded) {
		return ModemSignals{}, 0, ErrSignalTimeout
	}
	return signals, changed, err
}

// WaitForSignalChangeContext waits with context cancellation support.
// Changes are only seen if the access server notifies them; see
// MonitorSignals.
func (c *Connection) WaitForSignalChangeContext(ctx context.Context, mask SignalMask) (ModemSignals, SignalMask, error) {
	if mask == 0 || mask&^SignalAll != 0 {
		return ModemSignals{}, 0, ErrInvalidSignalMask
	}
	if c.closed.Load() {
		return ModemSignals{}, 0, c.closedError()
	}

	c.mu.RLock()
	last := c.modem
	wake := c.modemChanged
	c.mu.RUnlock()

	for {
		select {
		case <-ctx.Done():
			return ModemSignals{}, 0, ctx.Err()
		case <-wake:
		}

		if c.closed.Load() {
			return ModemSignals{}, 0, c.closedError()
		}

		c.mu.RLock()
		current := c.modem
		wake = c.modemChanged
		signals := c.signalsLocked()
		c.mu.RUnlock()

		if changed := detectSignalChanges(last, current) & mask; changed != 0 {
			return signals, changed, nil
		}
		last = current
	}
}

func (c *Connection) updateModemState(state ModemState) {
	c.mu.Lock()
	previous := c.modem
	c.modem = state
	close(c.modemChanged)
	c.modemChanged = make(chan struct{})
	c.mu.Unlock()

	if changed := detectSignalChanges(previous, state); changed != 0 {
		c.logger.Debug("modem state changed", zap.Stringer("changed", changed), zap.Uint8("state", uint8(state)))
	}
}

func (c *Connection) wakeSignalWaiters() {
	c.mu.Lock()
	close(c.modemChanged)
	c.modemChanged = make(chan struct{})
	c.mu.Unlock()
}
