package rfc2217

import (
	"context"
	"errors"
	"testing"
	"time"
)

// TestSignalMaskToModemState tests the signal mask conversion
func TestSignalMaskToModemState(t *testing.T) {
	tests := []struct {
		name     string
		mask     SignalMask
		expected ModemState
	}{
		{
			name:     "CTS only",
			mask:     SignalCTS,
			expected: ModemCTS | ModemDeltaCTS,
		},
		{
			name:     "DSR only",
			mask:     SignalDSR,
			expected: ModemDSR | ModemDeltaDSR,
		},
		{
			name:     "RI only",
			mask:     SignalRI,
			expected: ModemRI | ModemTrailingEdgeRI,
		},
		{
			name:     "DCD only",
			mask:     SignalDCD,
			expected: ModemDCD | ModemDeltaDCD,
		},
		{
			name:     "All signals",
			mask:     SignalAll,
			expected: 0xff,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := signalMaskToModemState(tt.mask)
			if result != tt.expected {
				t.Errorf("signalMaskToModemState(%v) = %08b, want %08b", tt.mask, result, tt.expected)
			}
		})
	}
}

// TestDetectSignalChanges tests signal change detection
func TestDetectSignalChanges(t *testing.T) {
	tests := []struct {
		name     string
		oldState ModemState
		newState ModemState
		expected SignalMask
	}{
		{
			name:     "No change",
			oldState: ModemCTS | ModemDSR,
			newState: ModemCTS | ModemDSR,
			expected: 0,
		},
		{
			name:     "CTS changed",
			oldState: 0,
			newState: ModemCTS,
			expected: SignalCTS,
		},
		{
			name:     "DCD went low",
			oldState: ModemDCD,
			newState: 0,
			expected: SignalDCD,
		},
		{
			name:     "Multiple signals changed",
			oldState: 0,
			newState: ModemCTS | ModemDSR,
			expected: SignalCTS | SignalDSR,
		},
		{
			name:     "Delta flagged without level change",
			oldState: ModemDSR,
			newState: ModemDSR | ModemDeltaDSR,
			expected: SignalDSR,
		},
		{
			name:     "Ring trailing edge",
			oldState: 0,
			newState: ModemTrailingEdgeRI,
			expected: SignalRI,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := detectSignalChanges(tt.oldState, tt.newState)
			if result != tt.expected {
				t.Errorf("detectSignalChanges(%08b, %08b) = %v, want %v", tt.oldState, tt.newState, result, tt.expected)
			}
		})
	}
}

func TestSignalMaskString(t *testing.T) {
	tests := []struct {
		mask SignalMask
		want string
	}{
		{0, "none"},
		{SignalCTS, "CTS"},
		{SignalCTS | SignalDCD, "CTS|DCD"},
		{SignalAll, "CTS|DSR|RI|DCD"},
	}
	for _, tt := range tests {
		if got := tt.mask.String(); got != tt.want {
			t.Errorf("SignalMask(%d).String() = %q, want %q", int(tt.mask), got, tt.want)
		}
	}
}

// TestWaitForSignalChangeInvalidMask tests error handling for invalid signal masks
func TestWaitForSignalChangeInvalidMask(t *testing.T) {
	conn := newTestConnection(newFakeTransport())

	for _, mask := range []SignalMask{0, SignalAll + 1, 1 << 8} {
		_, _, err := conn.WaitForSignalChange(mask, time.Second)
		if err != ErrInvalidSignalMask {
			t.Errorf("WaitForSignalChange(%d, ...) error = %v, want %v", int(mask), err, ErrInvalidSignalMask)
		}
		if err := conn.MonitorSignals(mask); err != ErrInvalidSignalMask {
			t.Errorf("MonitorSignals(%d) error = %v, want %v", int(mask), err, ErrInvalidSignalMask)
		}
	}

	ctx := context.Background()
	_, _, err := conn.WaitForSignalChangeContext(ctx, 0)
	if err != ErrInvalidSignalMask {
		t.Errorf("WaitForSignalChangeContext(ctx, 0) error = %v, want %v", err, ErrInvalidSignalMask)
	}
}

func TestWaitForSignalChange(t *testing.T) {
	conn := newTestConnection(newFakeTransport())

	go func() {
		time.Sleep(5 * time.Millisecond)
		// CTS is not monitored and must not end the wait
		conn.handleSubnegotiation(EncodeReply(NotifyModemState{State: ModemCTS | ModemDeltaCTS}))
		time.Sleep(5 * time.Millisecond)
		conn.handleSubnegotiation(EncodeReply(NotifyModemState{State: ModemCTS | ModemDSR | ModemDeltaDSR}))
	}()

	signals, changed, err := conn.WaitForSignalChange(SignalDSR|SignalDCD, time.Second)
	if err != nil {
		t.Fatalf("WaitForSignalChange() error = %v", err)
	}
	if changed != SignalDSR {
		t.Errorf("changed = %v, want %v", changed, SignalDSR)
	}
	if !signals.DSR || !signals.CTS {
		t.Errorf("signals = %+v, want CTS and DSR", signals)
	}
}

func TestWaitForSignalChangeTimeout(t *testing.T) {
	conn := newTestConnection(newFakeTransport())

	_, _, err := conn.WaitForSignalChange(SignalCTS, 10*time.Millisecond)
	if err != ErrSignalTimeout {
		t.Errorf("WaitForSignalChange() error = %v, want %v", err, ErrSignalTimeout)
	}
}

// TestWaitForSignalChangeContextCancellation tests context cancellation
func TestWaitForSignalChangeContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	conn := newTestConnection(newFakeTransport())
	_, _, err := conn.WaitForSignalChangeContext(ctx, SignalCTS)
	if err != context.Canceled {
		t.Errorf("WaitForSignalChangeContext() with cancelled context error = %v, want %v", err, context.Canceled)
	}
}

// TestModemSignalsOnClosedPort tests that waiters are released by Close
func TestModemSignalsOnClosedPort(t *testing.T) {
	conn := newTestConnection(newFakeTransport())

	errCh := make(chan error, 1)
	go func() {
		_, _, err := conn.WaitForSignalChange(SignalCTS, 5*time.Second)
		errCh <- err
	}()

	time.Sleep(10 * time.Millisecond)
	conn.Close()

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrPortClosed) {
			t.Errorf("WaitForSignalChange() after Close error = %v, want ErrPortClosed", err)
		}
	case <-time.After(time.Second):
		t.Fatal("waiter not released by Close")
	}

	_, _, err := conn.WaitForSignalChange(SignalCTS, time.Second)
	if !errors.Is(err, ErrPortClosed) {
		t.Errorf("WaitForSignalChange() on closed connection error = %v, want ErrPortClosed", err)
	}
}
