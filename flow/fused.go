// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flow

import (
	"net/netip"

	"code.hybscloud.com/kont"
)

// DialThen connects to remote and then continues with next.
// Fuses Perform(Dial{Remote: remote}) + Then.
func DialThen[B any](remote netip.AddrPort, next kont.Eff[B]) kont.Eff[B] {
	return kont.Then(kont.Perform(Dial{Remote: remote}), next)
}

// SendThen sends all of data, in order, and then continues with next.
// Short writes perform another Send on the remainder.
func SendThen[B any](data []byte, next kont.Eff[B]) kont.Eff[B] {
	if len(data) == 0 {
		return next
	}
	return kont.Bind(kont.Perform(Send{Data: data}), func(n int) kont.Eff[B] {
		return SendThen(data[n:], next)
	})
}

// RecvBind receives at most max bytes and passes them to f.
// Fuses Perform(Recv{Max: max}) + Bind.
func RecvBind[B any](max int, f func([]byte) kont.Eff[B]) kont.Eff[B] {
	return kont.Bind(kont.Perform(Recv{Max: max}), f)
}

// RecvFullBind receives exactly n bytes, across as many receives as it
// takes, and passes them to f.
func RecvFullBind[B any](n int, f func([]byte) kont.Eff[B]) kont.Eff[B] {
	return recvFull(make([]byte, 0, n), n, f)
}

func recvFull[B any](acc []byte, n int, f func([]byte) kont.Eff[B]) kont.Eff[B] {
	if len(acc) >= n {
		return f(acc)
	}
	return kont.Bind(kont.Perform(Recv{Max: n - len(acc)}), func(b []byte) kont.Eff[B] {
		return recvFull(append(acc, b...), n, f)
	})
}

// CloseDone closes the socket and returns a.
// Fuses Perform(Close{}) + Then + Pure.
func CloseDone[A any](a A) kont.Eff[A] {
	return kont.Then(kont.Perform(Close{}), kont.Pure(a))
}

// Loop runs a recursive conversation, such as a request/response loop.
// step returns Left(nextState) to continue or Right(result) to finish.
func Loop[S, A any](initial S, step func(S) kont.Eff[kont.Either[S, A]]) kont.Eff[A] {
	return kont.Bind(step(initial), func(e kont.Either[S, A]) kont.Eff[A] {
		if next, ok := e.GetLeft(); ok {
			return Loop(next, step)
		}
		result, _ := e.GetRight()
		return kont.Pure(result)
	})
}
