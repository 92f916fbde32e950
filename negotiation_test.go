package rfc2217

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestNegotiation(t *testing.T) {
	tests := []struct {
		name    string
		events  []NegotiationEvent
		refused TelnetOption
		wantErr error
	}{
		{
			name:   "all confirmed",
			events: acceptAll,
		},
		{
			name: "confirmed in another order",
			events: []NegotiationEvent{
				{ReceivedWill, OptionBinary},
				{ReceivedDo, OptionBinary},
				{ReceivedDo, OptionComPort},
			},
		},
		{
			name: "unrelated options ignored",
			events: []NegotiationEvent{
				{ReceivedDont, TelnetOption(3)},
				{ReceivedWill, TelnetOption(1)},
				{ReceivedDo, OptionComPort},
				{ReceivedDo, OptionBinary},
				{ReceivedWill, OptionBinary},
			},
		},
		{
			name:    "DONT COM-PORT",
			events:  []NegotiationEvent{{ReceivedDont, OptionComPort}},
			refused: OptionComPort,
			wantErr: ErrNegotiationRefused,
		},
		{
			name:    "WONT BINARY",
			events:  []NegotiationEvent{{ReceivedDo, OptionComPort}, {ReceivedWont, OptionBinary}},
			refused: OptionBinary,
			wantErr: ErrNegotiationRefused,
		},
		{
			name:    "refusal after success is ignored",
			events:  append(append([]NegotiationEvent(nil), acceptAll...), NegotiationEvent{ReceivedDont, OptionComPort}),
			wantErr: nil,
		},
		{
			name:    "WONT COM-PORT is not a refusal",
			events:  []NegotiationEvent{{ReceivedWont, OptionComPort}},
			wantErr: ErrNegotiationTimeout,
		},
		{
			name:    "incomplete",
			events:  []NegotiationEvent{{ReceivedDo, OptionComPort}, {ReceivedDo, OptionBinary}},
			wantErr: ErrNegotiationTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := newNegotiation(zap.NewNop())
			for _, ev := range tt.events {
				n.handle(ev)
			}

			err := n.await(10*time.Millisecond, nil)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("await() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("await() error = %v, want %v", err, tt.wantErr)
			}
			if tt.refused != 0 || errors.Is(err, ErrNegotiationRefused) {
				var refused *NegotiationRefusedError
				if !errors.As(err, &refused) || refused.Option != tt.refused {
					t.Errorf("await() error = %v, want refusal of %v", err, tt.refused)
				}
			}
		})
	}
}

func TestNegotiationResolvesWithoutWaiting(t *testing.T) {
	n := newNegotiation(zap.NewNop())
	go func() {
		time.Sleep(5 * time.Millisecond)
		n.handle(NegotiationEvent{ReceivedDo, OptionComPort})
		n.handle(NegotiationEvent{ReceivedDo, OptionBinary})
		n.handle(NegotiationEvent{ReceivedWill, OptionBinary})
	}()

	start := time.Now()
	if err := n.await(10*time.Second, nil); err != nil {
		t.Fatalf("await() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("await() took %v", elapsed)
	}
}

func TestNegotiationEventsAfterTimeout(t *testing.T) {
	n := newNegotiation(zap.NewNop())
	err := n.await(time.Millisecond, nil)
	if !errors.Is(err, ErrNegotiationTimeout) {
		t.Fatalf("await() error = %v, want timeout", err)
	}

	// late events must neither panic nor change the outcome
	for _, ev := range acceptAll {
		n.handle(ev)
	}
	if !errors.Is(n.cause, ErrNegotiationTimeout) {
		t.Errorf("cause changed to %v", n.cause)
	}
}

func TestTelnetOptionString(t *testing.T) {
	tests := []struct {
		opt  TelnetOption
		want string
	}{
		{OptionBinary, "BINARY"},
		{OptionComPort, "COM-PORT-OPTION"},
		{TelnetOption(24), "option 24"},
	}
	for _, tt := range tests {
		if got := tt.opt.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
