// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package loopback

import (
	"fmt"
	"net/netip"

	"code.hybscloud.com/nal"
	"github.com/hashicorp/go-multierror"
)

// Network connects stacks by address.
type Network struct {
	stacks map[netip.Addr]*Stack
}

// NewNetwork returns an empty network.
func NewNetwork() *Network {
	return &Network{stacks: make(map[netip.Addr]*Stack)}
}

// NewStack attaches a stack at addr.
func (nw *Network) NewStack(addr netip.Addr, cfg Config) (*Stack, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !addr.IsValid() {
		return nil, fmt.Errorf("loopback: invalid address %v", addr)
	}
	if _, ok := nw.stacks[addr]; ok {
		return nil, fmt.Errorf("loopback: %v: %w", addr, nal.ErrAddrInUse)
	}
	s := newStack(nw, addr, cfg)
	nw.stacks[addr] = s
	return s, nil
}

// Stack returns the stack at addr, or nil.
func (nw *Network) Stack(addr netip.Addr) *Stack {
	return nw.stacks[addr]
}

// Close closes every socket on every stack.
func (nw *Network) Close() (errs error) {
	for _, s := range nw.stacks {
		if err := s.Close(); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs
}
