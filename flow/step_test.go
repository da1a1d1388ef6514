// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flow_test

import (
	"errors"
	"net/netip"
	"testing"

	"code.hybscloud.com/kont"
	"code.hybscloud.com/nal"
	"code.hybscloud.com/nal/flow"
	"code.hybscloud.com/nal/loopback"
)

func TestStepInspectOperations(t *testing.T) {
	l := newLink(t, loopback.DefaultConfig())
	protocol := flow.DialThen(l.remote, flow.CloseDone("done"))

	_, susp := flow.Step[string](protocol)
	if susp == nil {
		t.Fatal("expected suspension for Dial")
	}
	dial, ok := susp.Op().(flow.Dial)
	if !ok {
		t.Fatalf("expected Dial, got %T", susp.Op())
	}
	if dial.Remote != l.remote {
		t.Fatalf("Dial remote got %v, want %v", dial.Remote, l.remote)
	}

	_, susp, err := flow.Advance(l.client, susp)
	if err != nil {
		t.Fatalf("Advance Dial: %v", err)
	}
	if _, ok := susp.Op().(flow.Close); !ok {
		t.Fatalf("expected Close, got %T", susp.Op())
	}
	result, susp, err := flow.Advance(l.client, susp)
	if err != nil {
		t.Fatalf("Advance Close: %v", err)
	}
	if susp != nil {
		t.Fatal("expected nil suspension after Close")
	}
	if result != "done" {
		t.Fatalf("result got %q, want %q", result, "done")
	}
}

func TestAdvanceWouldBlockKeepsSuspension(t *testing.T) {
	l := newLink(t, loopback.DefaultConfig())
	server := flow.RecvBind(16, func(b []byte) kont.Eff[string] {
		return kont.Pure(string(b))
	})

	_, susp := flow.Step[string](server)
	for range 3 {
		var err error
		var next *kont.Suspension[string]
		_, next, err = flow.Advance(l.server, susp)
		if !nal.IsWouldBlock(err) {
			t.Fatalf("Advance on empty socket got %v, want would-block", err)
		}
		if next != susp {
			t.Fatal("would-block must return the same suspension")
		}
	}

	stepAll(t, l.client, flow.DialThen(l.remote, flow.SendThen([]byte("late"), kont.Pure(struct{}{}))))

	result, next, err := flow.Advance(l.server, susp)
	if err != nil || next != nil {
		t.Fatalf("Advance got (%v, %v)", next, err)
	}
	if result != "late" {
		t.Fatalf("result got %q, want %q", result, "late")
	}
}

func TestAdvanceFatalDiscardsSuspension(t *testing.T) {
	l := newLink(t, loopback.DefaultConfig())
	refused := netip.AddrPortFrom(l.remote.Addr(), 81)
	sock, err := l.st.TCPSocket()
	if err != nil {
		t.Fatalf("TCPSocket: %v", err)
	}
	ep := flow.NewEndpoint(nal.WithSocket[loopback.TCPHandle](l.st, &sock))

	_, susp := flow.Step[int](flow.DialThen(refused, flow.CloseDone(1)))
	result, next, err := flow.Advance(ep, susp)
	if !errors.Is(err, nal.ErrConnectionRefused) {
		t.Fatalf("Advance got %v, want %v", err, nal.ErrConnectionRefused)
	}
	if next != nil || result != 0 {
		t.Fatalf("fatal Advance got (%d, %v), want (0, nil)", result, next)
	}
	if err := ep.Conn().Close(); err != nil {
		t.Fatalf("Close after failed Dial: %v", err)
	}
}

func TestStepPureCompletes(t *testing.T) {
	result, susp := flow.Step[int](kont.Pure(7))
	if susp != nil || result != 7 {
		t.Fatalf("Step got (%d, %v), want (7, nil)", result, susp)
	}
}

func TestStepAdvanceConversation(t *testing.T) {
	l := newLink(t, loopback.DefaultConfig())
	client := flow.DialThen(l.remote, flow.SendThen([]byte("hello"), flow.CloseDone(struct{}{})))
	stepAll(t, l.client, client)

	server := flow.RecvFullBind(5, func(b []byte) kont.Eff[string] {
		return flow.CloseDone(string(b))
	})
	if got := stepAll(t, l.server, server); got != "hello" {
		t.Fatalf("server got %q, want %q", got, "hello")
	}
}
