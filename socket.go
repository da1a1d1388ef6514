// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package nal

import (
	"io"
	"net/netip"

	"code.hybscloud.com/iox"
)

var (
	_ io.Writer       = StackSocket[int]{}
	_ io.StringWriter = StackSocket[int]{}
	_ io.Reader       = StackSocket[int]{}
)

// StackSocket binds a stack and one of its sockets into a single value for
// streaming I/O. It is an ephemeral view: it owns neither.
type StackSocket[S any] struct {
	stack TCPClientStack[S]
	sock  *S
}

// WithSocket returns a StackSocket for sock on stack.
func WithSocket[S any](stack TCPClientStack[S], sock *S) StackSocket[S] {
	return StackSocket[S]{stack: stack, sock: sock}
}

// Socket returns the bound socket handle.
func (ss StackSocket[S]) Socket() *S {
	return ss.sock
}

// Connect performs one non-blocking connect attempt.
func (ss StackSocket[S]) Connect(remote netip.AddrPort) error {
	return ss.stack.Connect(ss.sock, remote)
}

// IsConnected reports whether the socket is connected.
func (ss StackSocket[S]) IsConnected() (bool, error) {
	return ss.stack.IsConnected(ss.sock)
}

// Send performs one non-blocking send; it may write fewer than len(b) bytes.
func (ss StackSocket[S]) Send(b []byte) (int, error) {
	return ss.stack.Send(ss.sock, b)
}

// Receive performs one non-blocking receive.
func (ss StackSocket[S]) Receive(b []byte) (int, error) {
	return ss.stack.Receive(ss.sock, b)
}

// Close closes the bound socket on its stack.
func (ss StackSocket[S]) Close() error {
	return ss.stack.CloseTCP(*ss.sock)
}

// Write sends all of p, in order, re-invoking Send on the unsent remainder.
// Backs off with iox.Backoff while Send reports would-block or makes no
// progress. Stops at the first error; n counts every byte Send accepted,
// including bytes accepted by the failing call.
func (ss StackSocket[S]) Write(p []byte) (n int, err error) {
	var bo iox.Backoff
	for n < len(p) {
		m, err := ss.stack.Send(ss.sock, p[n:])
		if IsWouldBlock(err) || (err == nil && m <= 0) {
			bo.Wait()
			continue
		}
		if m > 0 {
			n += min(m, len(p)-n)
		}
		if err != nil {
			return n, err
		}
		bo.Reset()
	}
	return n, nil
}

// WriteString is Write for strings. It makes StackSocket a target for
// fmt.Fprintf.
func (ss StackSocket[S]) WriteString(s string) (int, error) {
	return ss.Write([]byte(s))
}

// Read receives into p, backing off while Receive reports would-block.
func (ss StackSocket[S]) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	return BlockValue(func() (int, error) {
		return ss.stack.Receive(ss.sock, p)
	})
}
