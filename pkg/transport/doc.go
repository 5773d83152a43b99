// Package transport provides the serial line under the CI-V engine.
//
// The transport layer handles:
//   - Opening the serial device with negotiated line parameters
//   - Write pacing (inter-byte and post-frame delays)
//   - Splitting the received byte stream into CI-V frames
//   - Reopening devices that appear late, with exponential backoff
//
// # Protocol Stack
//
//	┌────────────────────────────────┐
//	│      CI-V frames               │
//	├────────────────────────────────┤
//	│   FE FE ... FD framing         │
//	├────────────────────────────────┤
//	│   Serial line (8N1, 300-19200) │
//	└────────────────────────────────┘
//
// CI-V is a shared bus: every byte written is also received back, and other
// stations may talk at any time. The transport does not filter anything; it
// returns every complete frame and leaves echo and address handling to the
// engine.
//
// # Line Parameters
//
// The baud rate is negotiated against the model's rate range. Hardware
// handshake is approximated by asserting RTS and DTR, which powers the
// level converter on common CT-17 style interfaces.
package transport
