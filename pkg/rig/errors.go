package rig

import (
	"errors"

	"github.com/civ-protocol/civ-go/pkg/rig/driver"
)

// Rig errors.
var (
	// ErrNotOpen indicates an operation outside Open/Close.
	ErrNotOpen = errors.New("rig not open")

	// ErrAlreadyOpen indicates Open on an open rig.
	ErrAlreadyOpen = errors.New("rig already open")

	// ErrCleanedUp indicates use of a rig after Cleanup.
	ErrCleanedUp = errors.New("rig cleaned up")

	// ErrNotImplemented indicates an operation the protocol cannot express.
	ErrNotImplemented = driver.ErrNotImplemented
)
