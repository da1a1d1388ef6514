// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package loopback

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-multierror"
)

// Config sets the resource limits and pacing of a Stack.
type Config struct {
	// MaxTCPSockets bounds open TCP sockets, including accepted connections
	// still waiting in a backlog.
	MaxTCPSockets int `toml:"max_tcp_sockets"`
	// MaxUDPSockets bounds open UDP sockets.
	MaxUDPSockets int `toml:"max_udp_sockets"`
	// RxBufferSize is the receive buffer of each TCP connection end.
	RxBufferSize int `toml:"rx_buffer_size"`
	// MaxSegment is the most bytes a single Send accepts.
	MaxSegment int `toml:"max_segment"`
	// Backlog is the pending-connection queue of a listening socket.
	Backlog int `toml:"backlog"`
	// DatagramQueue is the receive queue of each UDP socket, in datagrams.
	DatagramQueue int `toml:"datagram_queue"`
	// MaxDatagram is the largest datagram SendTo accepts.
	MaxDatagram int `toml:"max_datagram"`
	// HandshakePolls is how many times Connect reports would-block before
	// the connection is established.
	HandshakePolls int `toml:"handshake_polls"`
	// EphemeralPort is the first port assigned to sockets that were not bound.
	EphemeralPort uint16 `toml:"ephemeral_port"`

	// Logger receives debug traces of socket lifecycle events.
	Logger *slog.Logger `toml:"-"`
}

// DefaultConfig returns a small configuration resembling a WiFi
// co-processor with a handful of sockets.
func DefaultConfig() Config {
	return Config{
		MaxTCPSockets:  8,
		MaxUDPSockets:  4,
		RxBufferSize:   2048,
		MaxSegment:     1460,
		Backlog:        4,
		DatagramQueue:  8,
		MaxDatagram:    1472,
		HandshakePolls: 1,
		EphemeralPort:  49152,
	}
}

// Validate reports every invalid field.
func (cfg Config) Validate() (errs error) {
	positive := []struct {
		name string
		v    int
	}{
		{"max_tcp_sockets", cfg.MaxTCPSockets},
		{"max_udp_sockets", cfg.MaxUDPSockets},
		{"rx_buffer_size", cfg.RxBufferSize},
		{"max_segment", cfg.MaxSegment},
		{"backlog", cfg.Backlog},
		{"datagram_queue", cfg.DatagramQueue},
		{"max_datagram", cfg.MaxDatagram},
	}
	for _, f := range positive {
		if f.v <= 0 {
			errs = multierror.Append(errs, fmt.Errorf("loopback: %s must be positive, got %d", f.name, f.v))
		}
	}
	if cfg.HandshakePolls < 0 {
		errs = multierror.Append(errs, fmt.Errorf("loopback: handshake_polls must not be negative, got %d", cfg.HandshakePolls))
	}
	if cfg.EphemeralPort == 0 {
		errs = multierror.Append(errs, errors.New("loopback: ephemeral_port must not be zero"))
	}
	return errs
}

// ParseConfig decodes a TOML document over DefaultConfig and validates it.
func ParseConfig(data string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.Decode(data, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig is ParseConfig for a file.
func LoadConfig(filename string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(filename, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
