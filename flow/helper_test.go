// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flow_test

import (
	"io"
	"net/netip"
	"testing"

	"code.hybscloud.com/kont"
	"code.hybscloud.com/nal"
	"code.hybscloud.com/nal/flow"
	"code.hybscloud.com/nal/loopback"
)

// link is a client socket mid-handshake and its accepted peer on one
// loopback stack. The client endpoint still has to Dial remote.
type link struct {
	st     *loopback.Stack
	remote netip.AddrPort
	client *flow.Endpoint
	server *flow.Endpoint
}

func newLink(t testing.TB, cfg loopback.Config) link {
	t.Helper()
	st, err := loopback.New(cfg)
	if err != nil {
		t.Fatalf("loopback.New: %v", err)
	}
	lis, err := st.TCPSocket()
	if err != nil {
		t.Fatalf("TCPSocket: %v", err)
	}
	if err := st.BindTCP(&lis, 80); err != nil {
		t.Fatalf("BindTCP: %v", err)
	}
	if err := st.Listen(&lis); err != nil {
		t.Fatalf("Listen: %v", err)
	}
	remote := netip.AddrPortFrom(st.Addr(), 80)

	client := new(loopback.TCPHandle)
	if *client, err = st.TCPSocket(); err != nil {
		t.Fatalf("TCPSocket: %v", err)
	}
	if err := st.Connect(client, remote); err != nil && !nal.IsWouldBlock(err) {
		t.Fatalf("Connect: %v", err)
	}
	server := new(loopback.TCPHandle)
	if *server, _, err = st.Accept(&lis); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	return link{
		st:     st,
		remote: remote,
		client: flow.NewEndpoint(nal.WithSocket[loopback.TCPHandle](st, client)),
		server: flow.NewEndpoint(nal.WithSocket[loopback.TCPHandle](st, server)),
	}
}

// stepAll drives a conversation to completion on ep via Step+Advance,
// retrying on would-block. Fails the test on any other error.
func stepAll[R any](t testing.TB, ep *flow.Endpoint, protocol kont.Eff[R]) R {
	t.Helper()
	result, susp := flow.Step[R](protocol)
	for susp != nil {
		var err error
		result, susp, err = flow.Advance(ep, susp)
		if err != nil && !nal.IsWouldBlock(err) {
			t.Fatalf("Advance: %v", err)
		}
	}
	return result
}

// scriptConn is a Conn that accepts at most max bytes per Send and, with
// stall set, reports every other Send as (0, nil). Receive serves recv and
// then io.EOF.
type scriptConn struct {
	max        int
	stall      bool
	connectErr error

	sends  int
	sent   []byte
	recv   []byte
	closed bool
}

func (c *scriptConn) Connect(netip.AddrPort) error { return c.connectErr }

func (c *scriptConn) Send(b []byte) (int, error) {
	if c.closed {
		return 0, nal.ErrClosed
	}
	c.sends++
	if c.stall && c.sends%2 == 1 {
		return 0, nil
	}
	n := min(len(b), c.max)
	c.sent = append(c.sent, b[:n]...)
	return n, nil
}

func (c *scriptConn) Receive(b []byte) (int, error) {
	if c.closed {
		return 0, nal.ErrClosed
	}
	if len(c.recv) == 0 {
		return 0, io.EOF
	}
	n := copy(b, c.recv)
	c.recv = c.recv[n:]
	return n, nil
}

func (c *scriptConn) Close() error {
	if c.closed {
		return nal.ErrClosed
	}
	c.closed = true
	return nil
}
