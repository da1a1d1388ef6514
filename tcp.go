// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package nal

import "net/netip"

// TCPClientStack is implemented by stacks that open outbound TCP connections.
// One implementation might drive a WiFi co-processor over SPI, another the
// host operating system; a portable HTTP client works with either.
//
// S is the driver's opaque socket handle. A handle belongs to the stack that
// created it and must not be used after CloseTCP.
type TCPClientStack[S any] interface {
	// TCPSocket allocates an unconnected socket.
	TCPSocket() (S, error)

	// Connect initiates a connection to remote.
	// Returns nil once established and ErrWouldBlock while in progress;
	// the caller re-invokes Connect until it stops reporting would-block.
	// On failure the socket stays allocated and must still be closed.
	Connect(sock *S, remote netip.AddrPort) error

	// IsConnected reports cached connection state. It never would-blocks and
	// never reports true before Connect has returned nil.
	IsConnected(sock *S) (bool, error)

	// Send writes a prefix of b and returns its length, which may be less than
	// len(b). The caller re-invokes Send with the remainder.
	// Returns ErrWouldBlock if no byte could be written now.
	Send(sock *S, b []byte) (int, error)

	// Receive places received bytes at b[0:n].
	// Returns ErrWouldBlock if no data is available now.
	Receive(sock *S, b []byte) (int, error)

	// CloseTCP releases the socket. The handle is invalid afterwards and a
	// second close is an error.
	CloseTCP(sock S) error
}

// TCPFullStack is implemented by stacks that also accept inbound connections.
//
// A server socket moves Allocated → Bound → Listening and stays Listening
// while Accept yields new connected sockets.
type TCPFullStack[S any] interface {
	TCPClientStack[S]

	// BindTCP associates an allocated, unconnected socket with localPort.
	BindTCP(sock *S, localPort uint16) error

	// Listen moves a bound socket into the listening state.
	// Returns ErrNotBound if BindTCP was not called first.
	Listen(sock *S) error

	// Accept returns a pending connection as a new, independently owned
	// socket and the remote address. Returns ErrWouldBlock if nothing is
	// pending. The listening socket keeps listening.
	Accept(sock *S) (S, netip.AddrPort, error)
}
