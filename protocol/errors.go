package protocol

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"syscall"
)

// Kind classifies the outcome of a query.
type Kind int

const (
	KindOnline    Kind = iota // query succeeded
	KindOffline               // refused, timed out or dropped: the server is not answering
	KindProtocol              // something answered but not with a valid status response
	KindTransport             // any other socket level failure (DNS, unreachable network...)
)

func (k Kind) String() string {
	switch k {
	case KindOnline:
		return "online"
	case KindOffline:
		return "offline"
	case KindProtocol:
		return "protocol"
	case KindTransport:
		return "transport"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Sentinels for errors.Is. Every error returned by a query matches exactly one of them.
var (
	ErrOffline   = errors.New("server offline")
	ErrProtocol  = errors.New("protocol error")
	ErrTransport = errors.New("transport error")
)

// Error is returned by every query in this package.
type Error struct {
	Kind Kind
	Op   string // failing step: dial, write, read, decode, latency...
	Addr string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Addr != "" {
		msg = e.Addr + " " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel of the error kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrOffline:
		return e.Kind == KindOffline
	case ErrProtocol:
		return e.Kind == KindProtocol
	case ErrTransport:
		return e.Kind == KindTransport
	}
	return false
}

// KindOf returns the outcome kind of a query error; nil is KindOnline.
// Errors not produced by this package are reported as KindTransport.
func KindOf(err error) Kind {
	if err == nil {
		return KindOnline
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindTransport
}

func protocolErrorf(op, format string, args ...interface{}) *Error {
	return &Error{Kind: KindProtocol, Op: op, Err: fmt.Errorf(format, args...)}
}

// classify maps a low level error to the error taxonomy.
// Errors that are already classified keep their kind.
func classify(op, addr string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Addr == "" {
			e.Addr = addr
		}
		if e.Op == "" {
			e.Op = op
		}
		return e
	}
	return &Error{Kind: socketKind(err), Op: op, Addr: addr, Err: err}
}

func socketKind(err error) Kind {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindTransport
	}
	if isTimeout(err) {
		return KindOffline
	}
	switch {
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNABORTED),
		errors.Is(err, syscall.EPIPE),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF):
		return KindOffline
	}
	return KindTransport
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
