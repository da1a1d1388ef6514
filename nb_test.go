// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package nal_test

import (
	"testing"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/nal"
)

func TestErrWouldBlockIsIox(t *testing.T) {
	if nal.ErrWouldBlock != iox.ErrWouldBlock {
		t.Fatal("nal.ErrWouldBlock is not iox.ErrWouldBlock")
	}
	if !nal.IsWouldBlock(iox.ErrWouldBlock) {
		t.Fatal("IsWouldBlock(iox.ErrWouldBlock) = false")
	}
	if nal.IsWouldBlock(nil) || nal.IsWouldBlock(errInjected) {
		t.Fatal("IsWouldBlock reports true for a non would-block result")
	}
}

func TestBlockRetriesUntilReady(t *testing.T) {
	calls := 0
	err := nal.Block(func() error {
		calls++
		if calls < 4 {
			return nal.ErrWouldBlock
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Block: %v", err)
	}
	if calls != 4 {
		t.Fatalf("calls got %d, want 4", calls)
	}
}

func TestBlockReturnsError(t *testing.T) {
	calls := 0
	err := nal.Block(func() error {
		calls++
		if calls < 2 {
			return nal.ErrWouldBlock
		}
		return errInjected
	})
	if err != errInjected {
		t.Fatalf("Block got %v, want %v", err, errInjected)
	}
	if calls != 2 {
		t.Fatalf("calls got %d, want 2", calls)
	}
}

func TestBlockValue(t *testing.T) {
	calls := 0
	v, err := nal.BlockValue(func() (string, error) {
		calls++
		if calls < 3 {
			return "", nal.ErrWouldBlock
		}
		return "ready", nil
	})
	if err != nil {
		t.Fatalf("BlockValue: %v", err)
	}
	if v != "ready" {
		t.Fatalf("BlockValue got %q, want %q", v, "ready")
	}
}
