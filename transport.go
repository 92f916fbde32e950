package rfc2217

import (
	"fmt"
	"io"

	"github.com/allbin/go-rfc2217/internal/telnet"
)

// Transport is the Telnet connection a Port negotiates over. Listeners must
// be registered before Connect and are invoked from the transport's own
// reader goroutine.
type Transport interface {
	Connect(host string, port int) error
	Disconnect() error
	RegisterNegotiationListener(fn func(NegotiationEvent))
	RegisterSubnegotiationListener(fn func(payload []byte))
	// SendSubnegotiation sends payload on the COM-PORT-OPTION channel.
	SendSubnegotiation(payload []byte) error
	Reader() io.Reader
	Writer() io.Writer
	// Description is available once Connect has succeeded.
	Description() string
	// Done is closed when the connection is lost or disconnected.
	Done() <-chan struct{}
}

// TransportFactory creates a fresh, unconnected Transport for each Open.
type TransportFactory func() Transport

// NewTelnetTransport returns the default TCP Telnet transport.
func NewTelnetTransport() Transport {
	t := &telnetTransport{}
	cfg := telnet.DefaultConfig()
	cfg.Options = []telnet.Option{
		&transportOption{transport: t, code: byte(OptionComPort), usage: telnet.RequestLocal},
		&transportOption{transport: t, code: byte(OptionBinary), usage: telnet.RequestLocal | telnet.RequestRemote},
	}
	t.client = telnet.NewClient(cfg)
	return t
}

type telnetTransport struct {
	client *telnet.Client

	onNegotiation    func(NegotiationEvent)
	onSubnegotiation func(payload []byte)
}

var _ Transport = (*telnetTransport)(nil)

func (t *telnetTransport) Connect(host string, port int) error {
	return t.client.Dial(AccessServer{host: host, port: port}.Addr())
}

func (t *telnetTransport) Disconnect() error {
	return t.client.Close()
}

func (t *telnetTransport) RegisterNegotiationListener(fn func(NegotiationEvent)) {
	t.onNegotiation = fn
}

func (t *telnetTransport) RegisterSubnegotiationListener(fn func(payload []byte)) {
	t.onSubnegotiation = fn
}

func (t *telnetTransport) SendSubnegotiation(payload []byte) error {
	return t.client.SendSubnegotiation(byte(OptionComPort), payload)
}

func (t *telnetTransport) Reader() io.Reader { return t.client }
func (t *telnetTransport) Writer() io.Writer { return t.client }

func (t *telnetTransport) Description() string {
	remote, local := t.client.RemoteAddr(), t.client.LocalAddr()
	if remote == nil {
		return ""
	}
	return fmt.Sprintf("RFC2217 telnet session %s -> %s", local, remote)
}

func (t *telnetTransport) Done() <-chan struct{} {
	return t.client.Done()
}

// transportOption feeds one telnet option's traffic to the transport's
// listeners. Only COM-PORT-OPTION carries sub-negotiations.
type transportOption struct {
	transport *telnetTransport
	code      byte
	usage     telnet.Usage
}

func (o *transportOption) Code() byte          { return o.code }
func (o *transportOption) Usage() telnet.Usage { return o.usage }

func (o *transportOption) Negotiated(verb byte, _, _ telnet.State) {
	kind, ok := negotiationKinds[verb]
	if !ok || o.transport.onNegotiation == nil {
		return
	}
	o.transport.onNegotiation(NegotiationEvent{Kind: kind, Option: TelnetOption(o.code)})
}

func (o *transportOption) Subnegotiate(payload []byte) {
	if o.code != byte(OptionComPort) || o.transport.onSubnegotiation == nil {
		return
	}
	o.transport.onSubnegotiation(payload)
}

var negotiationKinds = map[byte]NegotiationKind{
	telnet.DO:   ReceivedDo,
	telnet.DONT: ReceivedDont,
	telnet.WILL: ReceivedWill,
	telnet.WONT: ReceivedWont,
}
