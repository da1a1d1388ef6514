// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flow

import (
	"bytes"
	"net/netip"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
)

// defaultRecvSize is the receive size of a Recv with no Max.
const defaultRecvSize = 512

// Dial is the effect operation for connecting the endpoint's socket.
// Perform(Dial{Remote: r}) resumes once the connection is established.
type Dial struct {
	kont.Phantom[struct{}]
	Remote netip.AddrPort
}

// DispatchSocket makes one connect attempt.
func (d Dial) DispatchSocket(ctx *socketContext) (kont.Resumed, error) {
	if err := ctx.conn.Connect(d.Remote); err != nil {
		return nil, err
	}
	return struct{}{}, nil
}

// Send is the effect operation for one send attempt.
// Perform(Send{Data: b}) resumes with the number of bytes written, which may
// be less than len(b).
type Send struct {
	kont.Phantom[int]
	Data []byte
}

// DispatchSocket makes one send attempt.
// A send that writes nothing is reported as iox.ErrWouldBlock.
func (s Send) DispatchSocket(ctx *socketContext) (kont.Resumed, error) {
	n, err := ctx.conn.Send(s.Data)
	if err != nil {
		return nil, err
	}
	if n == 0 && len(s.Data) > 0 {
		return nil, iox.ErrWouldBlock
	}
	return n, nil
}

// Recv is the effect operation for one receive attempt of at most Max bytes.
// Perform(Recv{Max: n}) resumes with a copy of the received bytes.
type Recv struct {
	kont.Phantom[[]byte]
	Max int
}

// DispatchSocket makes one receive attempt into the endpoint's scratch buffer.
func (r Recv) DispatchSocket(ctx *socketContext) (kont.Resumed, error) {
	buf := ctx.scratch(r.Max)
	n, err := ctx.conn.Receive(buf)
	if err != nil {
		return nil, err
	}
	return bytes.Clone(buf[:n]), nil
}

// Close is the effect operation for closing the endpoint's socket.
type Close struct {
	kont.Phantom[struct{}]
}

// DispatchSocket closes the socket. Never would-blocks.
func (Close) DispatchSocket(ctx *socketContext) (kont.Resumed, error) {
	if err := ctx.conn.Close(); err != nil {
		return nil, err
	}
	return struct{}{}, nil
}
