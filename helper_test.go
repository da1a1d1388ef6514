// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package nal_test

import (
	"errors"
	"net/netip"
	"testing"

	"code.hybscloud.com/nal"
	"code.hybscloud.com/nal/loopback"
)

var errInjected = errors.New("injected fault")

// chunkStack is a TCP client stack that accepts at most k bytes per Send.
// With block set, every odd Send reports would-block first.
// failAt makes the failAt-th accepted Send fail instead; with failTaken
// set, that Send still accepts its bytes.
type chunkStack struct {
	k         int
	block     bool
	failAt    int
	failTaken bool

	tick   int
	calls  []int
	got    []byte
	closed bool
}

func (c *chunkStack) TCPSocket() (int, error) { return 1, nil }

func (c *chunkStack) Connect(*int, netip.AddrPort) error { return nil }

func (c *chunkStack) IsConnected(*int) (bool, error) { return !c.closed, nil }

func (c *chunkStack) Send(_ *int, b []byte) (int, error) {
	if c.closed {
		return 0, nal.Misuse("send", nal.ErrClosed)
	}
	c.tick++
	if c.block && c.tick%2 == 1 {
		return 0, nal.ErrWouldBlock
	}
	fail := c.failAt != 0 && len(c.calls)+1 == c.failAt
	if fail && !c.failTaken {
		return 0, errInjected
	}
	n := min(len(b), c.k)
	c.calls = append(c.calls, n)
	c.got = append(c.got, b[:n]...)
	if fail {
		return n, errInjected
	}
	return n, nil
}

func (c *chunkStack) Receive(*int, []byte) (int, error) {
	if c.closed {
		return 0, nal.Misuse("receive", nal.ErrClosed)
	}
	return 0, nal.ErrWouldBlock
}

func (c *chunkStack) CloseTCP(int) error {
	if c.closed {
		return nal.Misuse("close", nal.ErrClosed)
	}
	c.closed = true
	return nil
}

// pair returns a loopback stack with a connected client socket and the
// accepted server socket.
func pair(t *testing.T, cfg loopback.Config) (st *loopback.Stack, client, server loopback.TCPHandle) {
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
	client, err = st.TCPSocket()
	if err != nil {
		t.Fatalf("TCPSocket: %v", err)
	}
	remote := netip.AddrPortFrom(st.Addr(), 80)
	if err := nal.Block(func() error { return st.Connect(&client, remote) }); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	server, _, err = st.Accept(&lis)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	return st, client, server
}

// drain reads everything currently buffered on sock.
func drain(t *testing.T, st *loopback.Stack, sock *loopback.TCPHandle) []byte {
	t.Helper()
	var out []byte
	buf := make([]byte, 64)
	for {
		n, err := st.Receive(sock, buf)
		if nal.IsWouldBlock(err) {
			return out
		}
		if err != nil {
			t.Fatalf("Receive: %v", err)
		}
		out = append(out, buf[:n]...)
	}
}

func netip80(st *loopback.Stack) netip.AddrPort {
	return netip.AddrPortFrom(st.Addr(), 80)
}
