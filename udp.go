// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package nal

import "net/netip"

// UDPClientStack is implemented by stacks that exchange datagrams.
// There is no connection state.
type UDPClientStack[S any] interface {
	// UDPSocket allocates a datagram socket.
	UDPSocket() (S, error)

	// SendTo sends b to remote and returns the number of bytes sent.
	// Returns ErrWouldBlock if the datagram cannot be queued now.
	SendTo(sock *S, remote netip.AddrPort, b []byte) (int, error)

	// ReceiveFrom places one datagram at b[0:n] and returns its sender.
	// Returns ErrWouldBlock if no datagram is available.
	ReceiveFrom(sock *S, b []byte) (int, netip.AddrPort, error)

	// CloseUDP releases the socket. The handle is invalid afterwards.
	CloseUDP(sock S) error
}

// UDPFullStack is implemented by stacks that receive on a fixed local port.
type UDPFullStack[S any] interface {
	UDPClientStack[S]

	// BindUDP associates sock with localPort.
	BindUDP(sock *S, localPort uint16) error
}
