package rfc2217

import (
	"bytes"
	"io"
	"sync"
	"testing"
)

// fakeTransport is a scripted Transport. onConnect runs inside Connect and
// usually emits the negotiation the test wants the access server to send.
type fakeTransport struct {
	mu    sync.Mutex
	calls []string
	sent  [][]byte

	onNeg func(NegotiationEvent)
	onSub func([]byte)

	connectErr  error
	onConnect   func(f *fakeTransport)
	description string

	in  io.Reader
	out bytes.Buffer

	done     chan struct{}
	doneOnce sync.Once
}

var _ Transport = (*fakeTransport)(nil)

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		description: "fake telnet session",
		in:          bytes.NewReader(nil),
		done:        make(chan struct{}),
	}
}

var acceptAll = []NegotiationEvent{
	{Kind: ReceivedDo, Option: OptionComPort},
	{Kind: ReceivedDo, Option: OptionBinary},
	{Kind: ReceivedWill, Option: OptionBinary},
}

func accepting() *fakeTransport {
	f := newFakeTransport()
	f.onConnect = func(f *fakeTransport) { f.emit(acceptAll...) }
	return f
}

func (f *fakeTransport) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeTransport) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeTransport) Sent() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.sent...)
}

func (f *fakeTransport) disconnected() bool {
	for _, c := range f.Calls() {
		if c == "disconnect" {
			return true
		}
	}
	return false
}

func (f *fakeTransport) emit(events ...NegotiationEvent) {
	for _, ev := range events {
		f.onNeg(ev)
	}
}

// lose simulates the access server dropping the TCP connection.
func (f *fakeTransport) lose() {
	f.doneOnce.Do(func() { close(f.done) })
}

func (f *fakeTransport) Connect(host string, port int) error {
	f.record("connect")
	if f.connectErr != nil {
		return f.connectErr
	}
	if f.onConnect != nil {
		f.onConnect(f)
	}
	return nil
}

func (f *fakeTransport) Disconnect() error {
	f.record("disconnect")
	f.lose()
	return nil
}

func (f *fakeTransport) RegisterNegotiationListener(fn func(NegotiationEvent)) {
	f.onNeg = fn
}

func (f *fakeTransport) RegisterSubnegotiationListener(fn func([]byte)) {
	f.onSub = fn
}

func (f *fakeTransport) SendSubnegotiation(payload []byte) error {
	f.mu.Lock()
	f.sent = append(f.sent, append([]byte(nil), payload...))
	f.mu.Unlock()
	return nil
}

func (f *fakeTransport) Reader() io.Reader     { return f.in }
func (f *fakeTransport) Writer() io.Writer     { return &f.out }
func (f *fakeTransport) Description() string   { return f.description }
func (f *fakeTransport) Done() <-chan struct{} { return f.done }

// newTestPort returns a port whose successive Opens use transports in order.
func newTestPort(t *testing.T, transports []*fakeTransport, opts ...PortOption) *Port {
	t.Helper()

	server, err := NewAccessServer("localhost", 2217)
	if err != nil {
		t.Fatalf("NewAccessServer() error = %v", err)
	}

	var mu sync.Mutex
	next := 0
	factory := func() Transport {
		mu.Lock()
		defer mu.Unlock()
		if next >= len(transports) {
			t.Errorf("unexpected Open #%d", next+1)
			return newFakeTransport()
		}
		f := transports[next]
		next++
		return f
	}

	p, err := NewPort(server, append([]PortOption{WithTransportFactory(factory)}, opts...)...)
	if err != nil {
		t.Fatalf("NewPort() error = %v", err)
	}
	return p
}
