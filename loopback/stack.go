// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package loopback is an in-memory network stack implementing every nal
// capability. It moves bytes between stacks attached to one Network without
// touching a real network, which makes application code that is written
// against nal testable with deterministic short writes, would-block results
// and resource exhaustion.
//
// Socket policy, enforced uniformly:
//   - Close is not idempotent. Any use of a closed handle, including a second
//     close, fails with nal.ErrClosed.
//   - A connection-level transport error (refused, reset, unreachable) is
//     sticky: every later call on the handle except close returns it, once
//     Receive has drained data that arrived before the failure.
//     The handle must still be closed.
//   - Receive never returns zero bytes with a nil error for a non-empty buffer.
//
// A Network and its stacks are not safe for concurrent use. Wrap a stack in
// nal.Sharable to detect overlapping access.
package loopback

import (
	"context"
	"log/slog"
	"net/netip"

	"code.hybscloud.com/nal"
	"github.com/hashicorp/go-multierror"
)

var (
	_ nal.TCPFullStack[TCPHandle] = (*Stack)(nil)
	_ nal.UDPFullStack[UDPHandle] = (*Stack)(nil)
)

// TCPHandle identifies a TCP socket of one Stack.
type TCPHandle struct {
	stack uint32
	id    uint32
}

// UDPHandle identifies a UDP socket of one Stack.
type UDPHandle struct {
	stack uint32
	id    uint32
}

// Stack is one host on a Network.
type Stack struct {
	net    *Network
	addr   netip.Addr
	cfg    Config
	logger *slog.Logger
	serial uint32
	lastID uint32
	port   uint16

	tcp      map[uint32]*tcpSocket
	tcpPorts map[uint16]*tcpSocket
	// pending counts accepted-side sockets waiting in listener backlogs.
	pending int

	udp      map[uint32]*udpSocket
	udpPorts map[uint16]*udpSocket
}

// New creates a stack at 127.0.0.1 on a network of its own.
func New(cfg Config) (*Stack, error) {
	return NewNetwork().NewStack(netip.AddrFrom4([4]byte{127, 0, 0, 1}), cfg)
}

func newStack(nw *Network, addr netip.Addr, cfg Config) *Stack {
	return &Stack{
		net:      nw,
		addr:     addr,
		cfg:      cfg,
		logger:   cfg.Logger,
		serial:   nextSerial(),
		port:     cfg.EphemeralPort,
		tcp:      make(map[uint32]*tcpSocket),
		tcpPorts: make(map[uint16]*tcpSocket),
		udp:      make(map[uint32]*udpSocket),
		udpPorts: make(map[uint16]*udpSocket),
	}
}

// Addr returns the stack's address on its network.
func (s *Stack) Addr() netip.Addr { return s.addr }

// Network returns the network the stack is attached to.
func (s *Stack) Network() *Network { return s.net }

// OpenSockets returns the number of open TCP and UDP sockets.
func (s *Stack) OpenSockets() (tcp, udp int) {
	return len(s.tcp), len(s.udp)
}

// Close closes every open socket of the stack.
func (s *Stack) Close() (errs error) {
	for id := range s.tcp {
		if err := s.CloseTCP(TCPHandle{stack: s.serial, id: id}); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	for id := range s.udp {
		if err := s.CloseUDP(UDPHandle{stack: s.serial, id: id}); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs
}

func (s *Stack) nextID() uint32 {
	s.lastID++
	if s.lastID == 0 {
		s.lastID++
	}
	return s.lastID
}

// ephemeral returns the next port for which inUse reports false.
func (s *Stack) ephemeral(inUse func(uint16) bool) (uint16, bool) {
	span := 65536 - int(s.cfg.EphemeralPort)
	for range span {
		p := s.port
		if s.port == 65535 {
			s.port = s.cfg.EphemeralPort
		} else {
			s.port++
		}
		if !inUse(p) {
			return p, true
		}
	}
	return 0, false
}

func (s *Stack) trace(msg string, attrs ...slog.Attr) {
	if s.logger != nil {
		s.logger.LogAttrs(context.Background(), slog.LevelDebug, msg, attrs...)
	}
}

// pow2 rounds n up to a power of two for queue capacities.
func pow2(n int) int {
	c := 1
	for c < n {
		c <<= 1
	}
	return c
}
