// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flow

import (
	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
)

// Step evaluates a conversation until its first socket operation.
// Returns (result, nil) on completion, or (zero, suspension) if pending.
func Step[R any](protocol kont.Eff[R]) (R, *kont.Suspension[R]) {
	return kont.StepExpr(kont.Reify(protocol))
}

// Advance dispatches the suspended operation on ep with exactly one
// non-blocking call.
//
// On success (nil error) the suspension is consumed and the conversation
// advances to its next operation or completes.
// On iox.ErrWouldBlock the suspension is returned unconsumed for a later retry.
// On any other error the suspension is discarded and a nil suspension returned.
func Advance[R any](ep *Endpoint, susp *kont.Suspension[R]) (R, *kont.Suspension[R], error) {
	sop, ok := susp.Op().(socketDispatcher)
	if !ok {
		panic("flow: unhandled effect in Advance")
	}
	v, err := sop.DispatchSocket(&ep.ctx)
	if err != nil {
		var zero R
		if iox.IsWouldBlock(err) {
			return zero, susp, err
		}
		susp.Discard()
		return zero, nil, err
	}
	result, next := susp.Resume(v)
	return result, next, nil
}
