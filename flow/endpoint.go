// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flow

import (
	"net/netip"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
)

// Conn is one socket bound to its stack. Every method is non-blocking.
// nal.StackSocket implements Conn.
type Conn interface {
	Connect(remote netip.AddrPort) error
	Send(b []byte) (int, error)
	Receive(b []byte) (int, error)
	Close() error
}

// socketContext holds the connection and receive scratch of an endpoint.
type socketContext struct {
	conn Conn
	buf  []byte
}

// scratch returns a buffer of n bytes, reused across receives.
func (ctx *socketContext) scratch(n int) []byte {
	if n <= 0 {
		n = defaultRecvSize
	}
	if cap(ctx.buf) < n {
		ctx.buf = make([]byte, n)
	}
	return ctx.buf[:n]
}

// socketDispatcher is the structural interface for socket operations.
// DispatchSocket is non-blocking: it returns iox.ErrWouldBlock when the
// stack cannot make progress.
type socketDispatcher interface {
	DispatchSocket(ctx *socketContext) (kont.Resumed, error)
}

// socketHandler implements kont.Handler for socket effects.
// Waits on iox.ErrWouldBlock and short-circuits with Left on any other error.
// Value type: passed to evalFrames on the stack, avoiding heap allocation.
type socketHandler[R any] struct {
	ctx *socketContext
}

// Dispatch implements kont.Handler via structural interface assertion.
func (h socketHandler[R]) Dispatch(op kont.Operation) (kont.Resumed, bool) {
	sop, ok := op.(socketDispatcher)
	if !ok {
		panic("flow: unhandled effect in socketHandler")
	}
	v, err := dispatchWait(h.ctx, sop)
	if err != nil {
		return kont.Left[error, R](err), false
	}
	return v, true
}

// dispatchWait retries DispatchSocket until it stops reporting
// iox.ErrWouldBlock, backing off with iox.Backoff in between.
func dispatchWait(ctx *socketContext, sop socketDispatcher) (kont.Resumed, error) {
	var bo iox.Backoff
	for {
		v, err := sop.DispatchSocket(ctx)
		if !iox.IsWouldBlock(err) {
			return v, err
		}
		bo.Wait()
	}
}

// Endpoint is the effect target of one conversation.
type Endpoint struct {
	ctx socketContext
}

// NewEndpoint returns an endpoint performing operations on c.
func NewEndpoint(c Conn) *Endpoint {
	return &Endpoint{ctx: socketContext{conn: c}}
}

// Conn returns the endpoint's connection.
func (ep *Endpoint) Conn() Conn {
	return ep.ctx.conn
}
