// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package nal

import "code.hybscloud.com/iox"

// ErrWouldBlock reports that an operation could not make progress now.
// It is not a failure: no state changed beyond documented short writes and
// partial reads, and the caller may retry.
// Drivers return it unwrapped.
var ErrWouldBlock = iox.ErrWouldBlock

// IsWouldBlock reports whether err is the would-block result.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}

// Block re-invokes f until it returns something other than ErrWouldBlock.
// Waits between attempts with adaptive backoff (iox.Backoff).
// There is no timeout: a caller that needs one polls f itself.
func Block(f func() error) error {
	var bo iox.Backoff
	for {
		err := f()
		if !IsWouldBlock(err) {
			return err
		}
		bo.Wait()
	}
}

// BlockValue is Block for operations that produce a value.
func BlockValue[T any](f func() (T, error)) (T, error) {
	var bo iox.Backoff
	for {
		v, err := f()
		if !IsWouldBlock(err) {
			return v, err
		}
		bo.Wait()
	}
}
