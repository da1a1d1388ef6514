// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package nal

import (
	"net/netip"

	"code.hybscloud.com/atomix"
)

// errBusy is pre-allocated: contention is reported on a hot path.
var errBusy error = &OpError{Op: "borrow", Kind: KindContention, Err: ErrStackBusy}

// Sharable owns one stack instance and lends it to borrowers one operation
// at a time.
//
// The holder word is 0 when the stack is free and the borrower id otherwise.
// Acquisition is a single compare-and-swap: there is no waiting, queueing,
// fairness or re-entrancy. A borrow that finds the stack held fails with
// ErrStackBusy, including a nested borrow by the current holder.
type Sharable[T any] struct {
	stack  T
	holder atomix.Uint32
	ids    atomix.Uint32
}

// NewSharable wraps stack for sharing.
// The stack must not be used directly while shared handles exist.
func NewSharable[T any](stack T) *Sharable[T] {
	return &Sharable[T]{stack: stack}
}

// Share returns a new borrower handle with a distinct id.
func (s *Sharable[T]) Share() Shared[T] {
	id := s.ids.Add(1)
	if id == 0 {
		id = s.ids.Add(1)
	}
	return Shared[T]{cell: s, id: id}
}

// Holder returns the id of the borrower currently holding the stack,
// or 0 if it is free.
func (s *Sharable[T]) Holder() uint32 {
	return s.holder.Load()
}

// Shared is one borrower's handle on a Sharable stack.
// Copies share the borrower id.
type Shared[T any] struct {
	cell *Sharable[T]
	id   uint32
}

// ID returns the borrower id.
func (h Shared[T]) ID() uint32 {
	return h.id
}

// Borrow runs f with exclusive access to the stack and releases it when f
// returns or panics. Returns ErrStackBusy without calling f if the stack is
// already borrowed. f must not retain the stack.
func (h Shared[T]) Borrow(f func(stack T) error) error {
	c := h.cell
	if !c.holder.CompareAndSwap(0, h.id) {
		return errBusy
	}
	defer c.holder.Store(0)
	return f(c.stack)
}

// SharedTCP forwards TCPClientStack calls through a Shared borrow.
type SharedTCP[S any, T TCPClientStack[S]] struct {
	Shared[T]
}

// ShareTCP returns a new TCP client borrower of s.
func ShareTCP[S any, T TCPClientStack[S]](s *Sharable[T]) SharedTCP[S, T] {
	return SharedTCP[S, T]{s.Share()}
}

func (v SharedTCP[S, T]) TCPSocket() (S, error) {
	var sock S
	err := v.Borrow(func(st T) error {
		var err error
		sock, err = st.TCPSocket()
		return err
	})
	return sock, err
}

func (v SharedTCP[S, T]) Connect(sock *S, remote netip.AddrPort) error {
	return v.Borrow(func(st T) error {
		return st.Connect(sock, remote)
	})
}

func (v SharedTCP[S, T]) IsConnected(sock *S) (bool, error) {
	var ok bool
	err := v.Borrow(func(st T) error {
		var err error
		ok, err = st.IsConnected(sock)
		return err
	})
	return ok, err
}

func (v SharedTCP[S, T]) Send(sock *S, b []byte) (int, error) {
	var n int
	err := v.Borrow(func(st T) error {
		var err error
		n, err = st.Send(sock, b)
		return err
	})
	return n, err
}

func (v SharedTCP[S, T]) Receive(sock *S, b []byte) (int, error) {
	var n int
	err := v.Borrow(func(st T) error {
		var err error
		n, err = st.Receive(sock, b)
		return err
	})
	return n, err
}

func (v SharedTCP[S, T]) CloseTCP(sock S) error {
	return v.Borrow(func(st T) error {
		return st.CloseTCP(sock)
	})
}

// SharedTCPFull forwards TCPFullStack calls through a Shared borrow.
type SharedTCPFull[S any, T TCPFullStack[S]] struct {
	SharedTCP[S, T]
}

// ShareTCPFull returns a new TCP server borrower of s.
func ShareTCPFull[S any, T TCPFullStack[S]](s *Sharable[T]) SharedTCPFull[S, T] {
	return SharedTCPFull[S, T]{SharedTCP[S, T]{s.Share()}}
}

func (v SharedTCPFull[S, T]) BindTCP(sock *S, localPort uint16) error {
	return v.Borrow(func(st T) error {
		return st.BindTCP(sock, localPort)
	})
}

func (v SharedTCPFull[S, T]) Listen(sock *S) error {
	return v.Borrow(func(st T) error {
		return st.Listen(sock)
	})
}

func (v SharedTCPFull[S, T]) Accept(sock *S) (S, netip.AddrPort, error) {
	var conn S
	var remote netip.AddrPort
	err := v.Borrow(func(st T) error {
		var err error
		conn, remote, err = st.Accept(sock)
		return err
	})
	return conn, remote, err
}

// SharedUDP forwards UDPClientStack calls through a Shared borrow.
type SharedUDP[S any, T UDPClientStack[S]] struct {
	Shared[T]
}

// ShareUDP returns a new UDP client borrower of s.
func ShareUDP[S any, T UDPClientStack[S]](s *Sharable[T]) SharedUDP[S, T] {
	return SharedUDP[S, T]{s.Share()}
}

func (v SharedUDP[S, T]) UDPSocket() (S, error) {
	var sock S
	err := v.Borrow(func(st T) error {
		var err error
		sock, err = st.UDPSocket()
		return err
	})
	return sock, err
}

func (v SharedUDP[S, T]) SendTo(sock *S, remote netip.AddrPort, b []byte) (int, error) {
	var n int
	err := v.Borrow(func(st T) error {
		var err error
		n, err = st.SendTo(sock, remote, b)
		return err
	})
	return n, err
}

func (v SharedUDP[S, T]) ReceiveFrom(sock *S, b []byte) (int, netip.AddrPort, error) {
	var n int
	var from netip.AddrPort
	err := v.Borrow(func(st T) error {
		var err error
		n, from, err = st.ReceiveFrom(sock, b)
		return err
	})
	return n, from, err
}

func (v SharedUDP[S, T]) CloseUDP(sock S) error {
	return v.Borrow(func(st T) error {
		return st.CloseUDP(sock)
	})
}

// SharedUDPFull forwards UDPFullStack calls through a Shared borrow.
type SharedUDPFull[S any, T UDPFullStack[S]] struct {
	SharedUDP[S, T]
}

// ShareUDPFull returns a new UDP server borrower of s.
func ShareUDPFull[S any, T UDPFullStack[S]](s *Sharable[T]) SharedUDPFull[S, T] {
	return SharedUDPFull[S, T]{SharedUDP[S, T]{s.Share()}}
}

func (v SharedUDPFull[S, T]) BindUDP(sock *S, localPort uint16) error {
	return v.Borrow(func(st T) error {
		return st.BindUDP(sock, localPort)
	})
}
