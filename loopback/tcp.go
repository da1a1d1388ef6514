// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package loopback

import (
	"io"
	"log/slog"
	"net/netip"

	"code.hybscloud.com/lfq"
	"code.hybscloud.com/nal"
)

type tcpState uint8

const (
	tcpAllocated tcpState = iota
	tcpBound
	tcpListening
	tcpConnecting
	tcpConnected
)

// conn is the state shared by both ends of a connection.
// Side 0 is the connecting end, side 1 the accepted end.
type conn struct {
	rx     [2]ring
	closed [2]bool
}

type tcpSocket struct {
	id     uint32
	state  tcpState
	port   uint16
	remote netip.AddrPort
	polls  int
	conn   *conn
	side   int
	// backlog holds accepted-side sockets of a listener until Accept.
	backlog *lfq.SPSC[*tcpSocket]
	// err is the sticky connection-level error.
	err error
}

func (t *tcpSocket) peerClosed() bool {
	return t.conn.closed[1-t.side]
}

func (s *Stack) tcpLookup(op string, h *TCPHandle) (*tcpSocket, error) {
	if h.stack != s.serial {
		return nil, nal.Misuse(op, nal.ErrForeignSocket)
	}
	t, ok := s.tcp[h.id]
	if !ok {
		return nil, nal.Misuse(op, nal.ErrClosed)
	}
	return t, nil
}

func (s *Stack) tcpInUse(port uint16) bool {
	_, ok := s.tcpPorts[port]
	return ok
}

func (s *Stack) fail(t *tcpSocket, err error) error {
	t.err = err
	s.trace("loopback:tcp-fail", slog.Uint64("id", uint64(t.id)), slog.String("err", err.Error()))
	return err
}

// TCPSocket allocates a TCP socket.
// Fails with nal.ErrNoSockets once MaxTCPSockets are open or pending.
func (s *Stack) TCPSocket() (TCPHandle, error) {
	if len(s.tcp)+s.pending >= s.cfg.MaxTCPSockets {
		return TCPHandle{}, nal.Transport("socket", nal.ErrNoSockets)
	}
	id := s.nextID()
	s.tcp[id] = &tcpSocket{id: id}
	s.trace("loopback:tcp-socket", slog.Uint64("id", uint64(id)))
	return TCPHandle{stack: s.serial, id: id}, nil
}

// Connect connects an allocated or bound socket to remote.
// The first call enqueues the connection at the remote listener; Connect then
// reports would-block Config.HandshakePolls times before it succeeds.
// The accepted end is connected as soon as Accept returns it and may Send
// while this side is still polling; the data waits in this side's receive
// buffer.
func (s *Stack) Connect(sock *TCPHandle, remote netip.AddrPort) error {
	t, err := s.tcpLookup("connect", sock)
	if err != nil {
		return err
	}
	if t.err != nil {
		return t.err
	}
	switch t.state {
	case tcpConnected:
		return nal.Misuse("connect", nal.ErrAlreadyConnected)
	case tcpListening:
		return nal.Misuse("connect", nal.ErrInvalidState)
	case tcpConnecting:
		if remote != t.remote {
			return nal.Misuse("connect", nal.ErrInvalidState)
		}
		return s.handshake(t)
	}

	peer := s.net.Stack(remote.Addr())
	if peer == nil {
		return s.fail(t, nal.Transport("connect", nal.ErrHostUnreachable))
	}
	l, ok := peer.tcpPorts[remote.Port()]
	if !ok || l.state != tcpListening {
		return s.fail(t, nal.Transport("connect", nal.ErrConnectionRefused))
	}
	if len(peer.tcp)+peer.pending >= peer.cfg.MaxTCPSockets {
		return s.fail(t, nal.Transport("connect", nal.ErrConnectionRefused))
	}
	if t.port == 0 {
		port, ok := s.ephemeral(s.tcpInUse)
		if !ok {
			return nal.Transport("connect", nal.ErrAddrInUse)
		}
		t.port = port
		s.tcpPorts[port] = t
	}

	c := &conn{rx: [2]ring{newRing(s.cfg.RxBufferSize), newRing(peer.cfg.RxBufferSize)}}
	accepted := &tcpSocket{
		state:  tcpConnected,
		port:   remote.Port(),
		remote: netip.AddrPortFrom(s.addr, t.port),
		conn:   c,
		side:   1,
	}
	if err := l.backlog.Enqueue(&accepted); err != nil {
		// Backlog full: the SYN is dropped and the caller retries.
		return nal.ErrWouldBlock
	}
	peer.pending++

	t.state = tcpConnecting
	t.remote = remote
	t.conn = c
	t.side = 0
	t.polls = s.cfg.HandshakePolls
	s.trace("loopback:tcp-connect", slog.Uint64("id", uint64(t.id)), slog.String("remote", remote.String()))
	return s.handshake(t)
}

func (s *Stack) handshake(t *tcpSocket) error {
	if t.peerClosed() {
		return s.fail(t, nal.Transport("connect", nal.ErrConnectionReset))
	}
	if t.polls > 0 {
		t.polls--
		return nal.ErrWouldBlock
	}
	t.state = tcpConnected
	s.trace("loopback:tcp-established", slog.Uint64("id", uint64(t.id)))
	return nil
}

// IsConnected reports whether the connection is established and the peer has
// not closed it.
func (s *Stack) IsConnected(sock *TCPHandle) (bool, error) {
	t, err := s.tcpLookup("is-connected", sock)
	if err != nil {
		return false, err
	}
	if t.err != nil {
		return false, t.err
	}
	return t.state == tcpConnected && !t.peerClosed(), nil
}

// Send writes at most Config.MaxSegment bytes, limited by the free space in
// the peer's receive buffer.
func (s *Stack) Send(sock *TCPHandle, b []byte) (int, error) {
	t, err := s.tcpLookup("send", sock)
	if err != nil {
		return 0, err
	}
	if t.err != nil {
		return 0, t.err
	}
	if t.state != tcpConnected {
		return 0, nal.Misuse("send", nal.ErrNotConnected)
	}
	if t.peerClosed() {
		return 0, s.fail(t, nal.Transport("send", nal.ErrConnectionReset))
	}
	if len(b) == 0 {
		return 0, nil
	}
	if len(b) > s.cfg.MaxSegment {
		b = b[:s.cfg.MaxSegment]
	}
	n := t.conn.rx[1-t.side].Write(b)
	if n == 0 {
		return 0, nal.ErrWouldBlock
	}
	return n, nil
}

// Receive drains the socket's receive buffer into b.
// Returns io.EOF once the buffer is empty and the peer has closed. After a
// sticky error, buffered data is drained first and the error follows.
func (s *Stack) Receive(sock *TCPHandle, b []byte) (int, error) {
	t, err := s.tcpLookup("receive", sock)
	if err != nil {
		return 0, err
	}
	if t.err != nil {
		// Data that arrived before the failure is still delivered.
		if t.conn != nil && len(b) > 0 {
			if n := t.conn.rx[t.side].Read(b); n > 0 {
				return n, nil
			}
		}
		return 0, t.err
	}
	if t.state != tcpConnected {
		return 0, nal.Misuse("receive", nal.ErrNotConnected)
	}
	if len(b) == 0 {
		return 0, nil
	}
	if n := t.conn.rx[t.side].Read(b); n > 0 {
		return n, nil
	}
	if t.peerClosed() {
		return 0, io.EOF
	}
	return 0, nal.ErrWouldBlock
}

// CloseTCP releases the socket. Connections still waiting in a listener's
// backlog are reset.
func (s *Stack) CloseTCP(sock TCPHandle) error {
	t, err := s.tcpLookup("close", &sock)
	if err != nil {
		return err
	}
	delete(s.tcp, t.id)
	if t.port != 0 && s.tcpPorts[t.port] == t {
		delete(s.tcpPorts, t.port)
	}
	if t.conn != nil {
		t.conn.closed[t.side] = true
	}
	if t.backlog != nil {
		for {
			p, err := t.backlog.Dequeue()
			if err != nil {
				break
			}
			p.conn.closed[p.side] = true
			s.pending--
		}
	}
	s.trace("loopback:tcp-close", slog.Uint64("id", uint64(t.id)))
	return nil
}

// BindTCP binds an allocated socket to localPort; port 0 picks an
// ephemeral port.
func (s *Stack) BindTCP(sock *TCPHandle, localPort uint16) error {
	t, err := s.tcpLookup("bind", sock)
	if err != nil {
		return err
	}
	if t.err != nil {
		return t.err
	}
	if t.state != tcpAllocated || t.port != 0 {
		return nal.Misuse("bind", nal.ErrInvalidState)
	}
	if localPort == 0 {
		p, ok := s.ephemeral(s.tcpInUse)
		if !ok {
			return nal.Transport("bind", nal.ErrAddrInUse)
		}
		localPort = p
	} else if s.tcpInUse(localPort) {
		return nal.Transport("bind", nal.ErrAddrInUse)
	}
	t.port = localPort
	t.state = tcpBound
	s.tcpPorts[localPort] = t
	s.trace("loopback:tcp-bind", slog.Uint64("id", uint64(t.id)), slog.Int("port", int(localPort)))
	return nil
}

// Listen moves a bound socket into the listening state with a backlog of
// Config.Backlog connections.
func (s *Stack) Listen(sock *TCPHandle) error {
	t, err := s.tcpLookup("listen", sock)
	if err != nil {
		return err
	}
	if t.err != nil {
		return t.err
	}
	switch t.state {
	case tcpBound:
	case tcpAllocated:
		return nal.Misuse("listen", nal.ErrNotBound)
	default:
		return nal.Misuse("listen", nal.ErrInvalidState)
	}
	t.backlog = new(lfq.SPSC[*tcpSocket])
	t.backlog.Init(pow2(s.cfg.Backlog))
	t.state = tcpListening
	s.trace("loopback:tcp-listen", slog.Uint64("id", uint64(t.id)), slog.Int("port", int(t.port)))
	return nil
}

// Accept hands out the oldest pending connection.
func (s *Stack) Accept(sock *TCPHandle) (TCPHandle, netip.AddrPort, error) {
	t, err := s.tcpLookup("accept", sock)
	if err != nil {
		return TCPHandle{}, netip.AddrPort{}, err
	}
	if t.err != nil {
		return TCPHandle{}, netip.AddrPort{}, t.err
	}
	if t.state != tcpListening {
		return TCPHandle{}, netip.AddrPort{}, nal.Misuse("accept", nal.ErrNotListening)
	}
	p, err := t.backlog.Dequeue()
	if err != nil {
		return TCPHandle{}, netip.AddrPort{}, nal.ErrWouldBlock
	}
	s.pending--
	p.id = s.nextID()
	s.tcp[p.id] = p
	s.trace("loopback:tcp-accept", slog.Uint64("id", uint64(p.id)), slog.String("remote", p.remote.String()))
	return TCPHandle{stack: s.serial, id: p.id}, p.remote, nil
}
