package rfc2217

import (
	"fmt"
	"net"
	"strconv"
)

// AccessServer identifies the remote endpoint that owns the physical serial
// port.
type AccessServer struct {
	host string
	port int
}

// NewAccessServer validates host and port.
func NewAccessServer(host string, port int) (AccessServer, error) {
	if host == "" {
		return AccessServer{}, invalidArgument("host", "must not be empty")
	}
	if port < 1 || port > 65535 {
		return AccessServer{}, invalidArgument("port", "must be within 1..65535, got %d", port)
	}
	return AccessServer{host: host, port: port}, nil
}

// ParseAccessServer parses "host:port".
func ParseAccessServer(addr string) (AccessServer, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return AccessServer{}, invalidArgument("accessServer", "%v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return AccessServer{}, invalidArgument("accessServer", "invalid port %q", portStr)
	}
	return NewAccessServer(host, port)
}

func (a AccessServer) Host() string { return a.host }
func (a AccessServer) Port() int    { return a.port }

// Addr returns the dialable "host:port" form.
func (a AccessServer) Addr() string {
	return net.JoinHostPort(a.host, strconv.Itoa(a.port))
}

// PortName returns the stable identifier RFC2217@host:port.
func (a AccessServer) PortName() string {
	return fmt.Sprintf("RFC2217@%s:%d", a.host, a.port)
}

func (a AccessServer) String() string {
	return a.PortName()
}
