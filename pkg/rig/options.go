package rig

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/civ-protocol/civ-go/pkg/caps"
	"github.com/civ-protocol/civ-go/pkg/log"
	"github.com/civ-protocol/civ-go/pkg/persistence"
	"github.com/civ-protocol/civ-go/pkg/transport"
)

// TransceivePolicy says how unsolicited rig frames are picked up.
type TransceivePolicy int

const (
	// TransceiveOff only sees frames that arrive during transactions.
	TransceiveOff TransceivePolicy = iota
	// TransceiveManual expects the caller to call Rig.Poll.
	TransceiveManual
	// TransceivePeriodic runs a background poller between transactions.
	TransceivePeriodic
)

// String returns the policy name.
func (p TransceivePolicy) String() string {
	switch p {
	case TransceiveOff:
		return "off"
	case TransceiveManual:
		return "manual"
	case TransceivePeriodic:
		return "periodic"
	default:
		return "unknown"
	}
}

// ParseTransceivePolicy parses "off", "manual" or "periodic".
func ParseTransceivePolicy(s string) (TransceivePolicy, error) {
	switch s {
	case "", "off":
		return TransceiveOff, nil
	case "manual":
		return TransceiveManual, nil
	case "periodic":
		return TransceivePeriodic, nil
	}
	return TransceiveOff, fmt.Errorf("unknown transceive policy %q", s)
}

// Options configures a Rig.
type Options struct {
	// Path is the serial device.
	Path string

	// Rate is the requested baud rate. 0 selects the model's maximum.
	Rate int

	// Address overrides the descriptor's CI-V address.
	Address byte

	// Timeout and Retry override the descriptor's timing when non-zero.
	Timeout time.Duration
	Retry   int

	// Transceive selects how unsolicited frames are read.
	Transceive TransceivePolicy

	// PollInterval and PollWindow configure the background poller.
	PollInterval time.Duration
	PollWindow   time.Duration

	// Opener opens the serial port. Nil opens a real device.
	Opener transport.Opener

	// OpenAttempts > 1 retries Open with backoff, for USB adapters that
	// appear late.
	OpenAttempts int

	// ProtocolLogger receives protocol events of all layers. Nil disables.
	ProtocolLogger log.Logger

	// StateStore, if set, receives a snapshot of the cache on Close.
	StateStore *persistence.StateStore

	// OnFreqEvent and OnModeEvent are called for transceive updates.
	OnFreqEvent func(hz uint64)
	OnModeEvent func(mode caps.Mode, width caps.Width)

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger
}
