package rfc2217

import (
	"errors"
	"fmt"
	"time"
)

// Predefined error types for robust error handling
var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrConnect            = errors.New("failed to connect to access server")
	ErrNegotiationRefused = errors.New("access server refused telnet option")
	ErrNegotiationTimeout = errors.New("telnet option negotiation timed out")
	ErrProtocolDecode     = errors.New("malformed RFC2217 message")
	ErrPortClosed         = errors.New("port is closed")
	ErrPortAlreadyOpen    = errors.New("port is already open")
	ErrOpenInProgress     = errors.New("open already in progress")

	// Transport errors
	ErrConnectionLost = errors.New("connection to access server lost")

	// Signal monitoring errors
	ErrSignalTimeout     = errors.New("timeout waiting for signal change")
	ErrInvalidSignalMask = errors.New("invalid signal mask")
)

// invalidArgument wraps ErrInvalidArgument with the offending parameter.
func invalidArgument(param string, format string, args ...any) error {
	return fmt.Errorf("%w: parameter >%s< %s", ErrInvalidArgument, param, fmt.Sprintf(format, args...))
}

// ConnectError reports a failure to reach the access server.
type ConnectError struct {
	Addr string
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("failed to connect to access server %s: %v", e.Addr, e.Err)
}

func (e *ConnectError) Unwrap() []error { return []error{ErrConnect, e.Err} }

// NegotiationRefusedError names the required option the access server declined.
type NegotiationRefusedError struct {
	Option TelnetOption
}

func (e *NegotiationRefusedError) Error() string {
	return fmt.Sprintf("the access server refused to accept option: %d (%s)", byte(e.Option), e.Option)
}

func (e *NegotiationRefusedError) Unwrap() error { return ErrNegotiationRefused }

// NegotiationTimeoutError carries the budget that elapsed without a decision.
type NegotiationTimeoutError struct {
	Budget time.Duration
}

func (e *NegotiationTimeoutError) Error() string {
	return fmt.Sprintf("the access server timed out to negotiate option(s) within %v", e.Budget)
}

func (e *NegotiationTimeoutError) Unwrap() error { return ErrNegotiationTimeout }

// DecodeError reports an inbound parameter outside its valid domain.
type DecodeError struct {
	Command CommandID
	Value   int64
	Reason  string
}

func (e *DecodeError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s", e.Command, e.Reason)
	}
	return fmt.Sprintf("unexpected %s value: %d", e.Command.parameterName(), e.Value)
}

func (e *DecodeError) Unwrap() error { return ErrProtocolDecode }

// ClosedError is returned by I/O on a closed connection.
type ClosedError struct {
	Port string
}

func (e *ClosedError) Error() string {
	return fmt.Sprintf("port %s was closed", e.Port)
}

func (e *ClosedError) Unwrap() error { return ErrPortClosed }
