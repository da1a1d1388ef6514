// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package loopback

import (
	"bytes"
	"log/slog"
	"net/netip"

	"code.hybscloud.com/lfq"
	"code.hybscloud.com/nal"
)

type datagram struct {
	from netip.AddrPort
	data []byte
}

type udpSocket struct {
	id    uint32
	port  uint16
	queue lfq.SPSC[datagram]
}

func (s *Stack) udpLookup(op string, h *UDPHandle) (*udpSocket, error) {
	if h.stack != s.serial {
		return nil, nal.Misuse(op, nal.ErrForeignSocket)
	}
	u, ok := s.udp[h.id]
	if !ok {
		return nil, nal.Misuse(op, nal.ErrClosed)
	}
	return u, nil
}

func (s *Stack) udpInUse(port uint16) bool {
	_, ok := s.udpPorts[port]
	return ok
}

// UDPSocket allocates a UDP socket with a receive queue of
// Config.DatagramQueue datagrams.
func (s *Stack) UDPSocket() (UDPHandle, error) {
	if len(s.udp) >= s.cfg.MaxUDPSockets {
		return UDPHandle{}, nal.Transport("socket", nal.ErrNoSockets)
	}
	id := s.nextID()
	u := &udpSocket{id: id}
	u.queue.Init(pow2(s.cfg.DatagramQueue))
	s.udp[id] = u
	s.trace("loopback:udp-socket", slog.Uint64("id", uint64(id)))
	return UDPHandle{stack: s.serial, id: id}, nil
}

// BindUDP binds sock to localPort; port 0 picks an ephemeral port.
func (s *Stack) BindUDP(sock *UDPHandle, localPort uint16) error {
	u, err := s.udpLookup("bind", sock)
	if err != nil {
		return err
	}
	if u.port != 0 {
		return nal.Misuse("bind", nal.ErrInvalidState)
	}
	return s.udpBind(u, localPort)
}

func (s *Stack) udpBind(u *udpSocket, port uint16) error {
	if port == 0 {
		p, ok := s.ephemeral(s.udpInUse)
		if !ok {
			return nal.Transport("bind", nal.ErrAddrInUse)
		}
		port = p
	} else if s.udpInUse(port) {
		return nal.Transport("bind", nal.ErrAddrInUse)
	}
	u.port = port
	s.udpPorts[port] = u
	s.trace("loopback:udp-bind", slog.Uint64("id", uint64(u.id)), slog.Int("port", int(port)))
	return nil
}

// SendTo queues a copy of b at the socket bound to remote. An unbound sender
// is bound to an ephemeral port first. Datagrams to an unknown host or an
// unbound port are dropped and reported as sent.
// Returns would-block while the destination queue is full.
func (s *Stack) SendTo(sock *UDPHandle, remote netip.AddrPort, b []byte) (int, error) {
	u, err := s.udpLookup("send-to", sock)
	if err != nil {
		return 0, err
	}
	if len(b) > s.cfg.MaxDatagram {
		return 0, nal.Transport("send-to", nal.ErrMessageTooLong)
	}
	if u.port == 0 {
		if err := s.udpBind(u, 0); err != nil {
			return 0, err
		}
	}
	var dst *udpSocket
	if peer := s.net.Stack(remote.Addr()); peer != nil {
		dst = peer.udpPorts[remote.Port()]
	}
	if dst == nil {
		s.trace("loopback:udp-drop", slog.String("remote", remote.String()), slog.Int("len", len(b)))
		return len(b), nil
	}
	d := datagram{from: netip.AddrPortFrom(s.addr, u.port), data: bytes.Clone(b)}
	if err := dst.queue.Enqueue(&d); err != nil {
		return 0, nal.ErrWouldBlock
	}
	return len(b), nil
}

// ReceiveFrom dequeues one datagram. A datagram longer than b is truncated.
func (s *Stack) ReceiveFrom(sock *UDPHandle, b []byte) (int, netip.AddrPort, error) {
	u, err := s.udpLookup("receive-from", sock)
	if err != nil {
		return 0, netip.AddrPort{}, err
	}
	d, err := u.queue.Dequeue()
	if err != nil {
		return 0, netip.AddrPort{}, nal.ErrWouldBlock
	}
	return copy(b, d.data), d.from, nil
}

// CloseUDP releases the socket and drops its queued datagrams.
func (s *Stack) CloseUDP(sock UDPHandle) error {
	u, err := s.udpLookup("close", &sock)
	if err != nil {
		return err
	}
	delete(s.udp, u.id)
	if u.port != 0 && s.udpPorts[u.port] == u {
		delete(s.udpPorts, u.port)
	}
	s.trace("loopback:udp-close", slog.Uint64("id", uint64(u.id)))
	return nil
}
