// Package rigsim simulates a CI-V receiver on the far side of a serial
// port.
//
// A Sim implements transport.Port. Bytes written to it are echoed back the
// way a CI-V bus echoes them, and frames addressed to the simulated rig are
// answered from an in-memory receiver state (VFOs, memories, levels,
// functions and meters). Front panel changes made through Tune and
// SetLocalMode are announced as transceive broadcasts. Fault injection
// (silence, rejected commands, line noise) drives the engine's retry and
// error paths in tests and in `civctl -simulate`.
package rigsim
