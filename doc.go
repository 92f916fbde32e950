// Package rfc2217 provides a virtual serial port backed by a remote access
// server that speaks the Telnet COM-PORT-OPTION (RFC 2217).
//
// The port is reached over TCP. Opening it negotiates the COM-PORT-OPTION
// and BINARY Telnet options, applies the line settings on the access server
// and returns a Connection that reads and writes the raw serial byte stream.
//
// # Basic Usage
//
// Open a port with default settings (9600 8N1, no flow control):
//
//	server, err := rfc2217.ParseAccessServer("terminal-server.local:4001")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	port, err := rfc2217.NewPort(server)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	conn, err := port.Open(rfc2217.MustPortSettings())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conn.Close()
//
//	n, err := conn.Write([]byte("Hello"))
//	data, err := conn.ReadAvailable()
//
// # Line Settings
//
// Settings are built with functional options and validated up front:
//
//	settings, err := rfc2217.NewPortSettings(
//	    rfc2217.WithBaudRate(115200),
//	    rfc2217.WithParity(rfc2217.ParityEven),
//	    rfc2217.WithStopBits(rfc2217.StopBits2),
//	    rfc2217.WithFlowControl(rfc2217.FlowControlRTSCTS),
//	)
//
// # Negotiation
//
// Open waits at most NegotiationTimeout (one second by default) for the
// access server to accept both options. A refusal, a timeout or a lost
// connection disconnects the transport before Open returns.
//
//	port, err := rfc2217.NewPort(server,
//	    rfc2217.WithNegotiationTimeout(3*time.Second),
//	    rfc2217.WithLogger(logger),
//	)
//
// # Modem Control
//
//	err = conn.SetDTR(true)
//	err = conn.SetRTS(false)
//	signals := conn.ModemSignals() // as last notified by the access server
//
// # Error Handling
//
// Failures carry typed errors that unwrap to sentinels:
//
//	var (
//	    ErrInvalidArgument    // rejected setting or parameter
//	    ErrConnect            // TCP connect failed
//	    ErrNegotiationRefused // DONT/WONT for a required option
//	    ErrNegotiationTimeout // no decision within the budget
//	    ErrProtocolDecode     // malformed COM-PORT-OPTION payload
//	    ErrPortClosed         // I/O on a closed connection
//	)
//
// Use errors.Is() for error type checking:
//
//	if errors.Is(err, rfc2217.ErrNegotiationTimeout) {
//	    // Retry with a larger budget
//	}
package rfc2217
