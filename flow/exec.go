// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flow

import (
	"code.hybscloud.com/kont"
)

// Exec runs a conversation on ep to completion.
// Waits on iox.ErrWouldBlock via adaptive backoff (iox.Backoff), without
// spawning goroutines or creating channels. Returns the first error that is
// not would-block.
func Exec[R any](ep *Endpoint, protocol kont.Eff[R]) (R, error) {
	wrapped := kont.Map[kont.Resumed, R, kont.Either[error, R]](protocol, func(r R) kont.Either[error, R] {
		return kont.Right[error, R](r)
	})
	h := socketHandler[R]{ctx: &ep.ctx}
	return unwrap(kont.Handle(wrapped, h))
}

func unwrap[R any](e kont.Either[error, R]) (R, error) {
	if err, ok := e.GetLeft(); ok {
		var zero R
		return zero, err
	}
	r, _ := e.GetRight()
	return r, nil
}
