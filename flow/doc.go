// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package flow writes socket conversations as algebraic effects on
// [code.hybscloud.com/kont] and drives them against a non-blocking stack.
//
// A conversation is a kont computation performing [Dial], [Send], [Recv] and
// [Close] on an [Endpoint]. Each operation dispatches exactly one
// non-blocking call on the endpoint's [Conn], usually a [code.hybscloud.com/nal.StackSocket].
//
// # Driving
//
//   - Polling: [Step] and [Advance] evaluate one operation per call. Advance
//     returns [code.hybscloud.com/iox.ErrWouldBlock] with the suspension
//     unconsumed, which fits a cooperative main loop that polls several
//     conversations in turn.
//   - Blocking: [Exec] and [Run] wait past would-block with adaptive backoff
//     ([code.hybscloud.com/iox.Backoff]) on the calling goroutine.
//
// Any other error ends the conversation and is returned to the caller.
//
// # Example
//
//	ss := nal.WithSocket[loopback.TCPHandle](stack, &sock)
//	ep := flow.NewEndpoint(ss)
//	reply, err := flow.Exec(ep, flow.DialThen(remote,
//		flow.SendThen([]byte("ping"),
//			flow.RecvFullBind(4, func(b []byte) kont.Eff[string] {
//				return flow.CloseDone(string(b))
//			}),
//		),
//	))
package flow
