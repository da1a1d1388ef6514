// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flow

import (
	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
	"github.com/hashicorp/go-multierror"
)

// Run drives two conversations, a on epA and b on epB, to completion.
// Interleaves both on the calling goroutine, one operation per side per
// round, using adaptive backoff (iox.Backoff) when neither side makes
// progress. Does not spawn goroutines or create channels.
//
// A fatal error on either side ends both conversations: the other side's
// pending suspension is discarded and the errors of that round are returned.
func Run[A, B any](epA *Endpoint, a kont.Eff[A], epB *Endpoint, b kont.Eff[B]) (A, B, error) {
	resultA, suspA := Step(a)
	resultB, suspB := Step(b)
	var bo iox.Backoff
	for suspA != nil || suspB != nil {
		var errs error
		progress := false
		if suspA != nil {
			var err error
			resultA, suspA, err = Advance(epA, suspA)
			if err == nil {
				progress = true
			} else if !iox.IsWouldBlock(err) {
				errs = multierror.Append(errs, err)
			}
		}
		if suspB != nil {
			var err error
			resultB, suspB, err = Advance(epB, suspB)
			if err == nil {
				progress = true
			} else if !iox.IsWouldBlock(err) {
				errs = multierror.Append(errs, err)
			}
		}
		if errs != nil {
			if suspA != nil {
				suspA.Discard()
			}
			if suspB != nil {
				suspB.Discard()
			}
			var za A
			var zb B
			return za, zb, errs
		}
		if !progress {
			bo.Wait()
		} else {
			bo.Reset()
		}
	}
	return resultA, resultB, nil
}
