// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package nal

import "errors"

// Transport errors. Fatal to the operation that returned them.
var (
	ErrConnectionRefused = errors.New("connection refused")
	ErrConnectionReset   = errors.New("connection reset by peer")
	ErrHostUnreachable   = errors.New("host unreachable")
	ErrAddrInUse         = errors.New("address already in use")
	ErrNoSockets         = errors.New("no sockets available")
	ErrMessageTooLong    = errors.New("message too long")
)

// Protocol misuse errors. The caller violated a socket state precondition.
var (
	ErrClosed           = errors.New("use of closed socket")
	ErrForeignSocket    = errors.New("socket belongs to another stack")
	ErrNotBound         = errors.New("socket not bound")
	ErrNotListening     = errors.New("socket not listening")
	ErrNotConnected     = errors.New("socket not connected")
	ErrAlreadyConnected = errors.New("socket already connected")
	ErrInvalidState     = errors.New("invalid socket state")
)

// ErrStackBusy reports that a shared stack is already borrowed.
var ErrStackBusy = errors.New("stack busy")

var misuseErrors = [...]error{
	ErrClosed,
	ErrForeignSocket,
	ErrNotBound,
	ErrNotListening,
	ErrNotConnected,
	ErrAlreadyConnected,
	ErrInvalidState,
}

// Kind classifies an operation result.
type Kind uint8

const (
	// KindNone is the kind of a nil error.
	KindNone Kind = iota
	// KindWouldBlock is transient; retry later.
	KindWouldBlock
	// KindTransport is a driver-defined failure of the operation.
	KindTransport
	// KindMisuse is a programming error by the caller.
	KindMisuse
	// KindContention is a shared-stack borrow collision.
	KindContention
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindWouldBlock:
		return "would block"
	case KindTransport:
		return "transport"
	case KindMisuse:
		return "misuse"
	case KindContention:
		return "contention"
	}
	return "unknown"
}

// OpError records the operation that failed and the kind of failure.
type OpError struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *OpError) Error() string {
	return "nal: " + e.Op + ": " + e.Err.Error()
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// Misuse wraps err as a protocol misuse error of op.
func Misuse(op string, err error) error {
	return &OpError{Op: op, Kind: KindMisuse, Err: err}
}

// Transport wraps err as a transport error of op.
func Transport(op string, err error) error {
	return &OpError{Op: op, Kind: KindTransport, Err: err}
}

// KindOf classifies err.
// Errors that carry no classification are transport errors.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	if IsWouldBlock(err) {
		return KindWouldBlock
	}
	var oe *OpError
	if errors.As(err, &oe) && oe.Kind != KindNone {
		return oe.Kind
	}
	if errors.Is(err, ErrStackBusy) {
		return KindContention
	}
	for _, m := range misuseErrors {
		if errors.Is(err, m) {
			return KindMisuse
		}
	}
	return KindTransport
}
