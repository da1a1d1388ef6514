// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package nal defines the capability boundary between application code and
// network-stack drivers (cellular modem AT-command drivers, WiFi co-processor
// drivers, native sockets) for resource-constrained environments.
//
// Nothing here talks to a network. Every operation is a contract a driver
// fulfills; application code is written against the smallest capability it
// needs.
//
// # Capabilities
//
//   - TCP: [TCPClientStack] (outbound connections) and [TCPFullStack], which
//     adds [TCPFullStack.BindTCP], [TCPFullStack.Listen] and [TCPFullStack.Accept].
//   - UDP: [UDPClientStack] (send-to/receive-from) and [UDPFullStack], which adds
//     [UDPFullStack.BindUDP].
//
// Each capability is generic over the driver's opaque socket handle type S.
// Remote endpoints are [netip.AddrPort] values.
//
// # Non-blocking
//
// Every operation that can fail to complete synchronously returns
// [ErrWouldBlock] ([code.hybscloud.com/iox.ErrWouldBlock]) instead of waiting.
// Nothing is suspended and no scheduler is involved: the caller polls again
// when it chooses. [Block], [BlockValue] and [StackSocket.Write] are the
// caller-side retry loops, waiting between polls with [code.hybscloud.com/iox.Backoff].
//
// # Sharing
//
// [Sharable] lets several independent borrowers issue I/O against one stack
// instance. Each [Shared] handle borrows the stack for exactly one operation;
// a concurrent or re-entrant borrow fails immediately with [ErrStackBusy].
//
// # Example
//
//	sock, _ := stack.TCPSocket()
//	_ = nal.Block(func() error { return stack.Connect(&sock, remote) })
//	ss := nal.WithSocket(stack, &sock)
//	fmt.Fprintf(ss, "GET / HTTP/1.0\r\n\r\n")
//	_ = ss.Close()
package nal
