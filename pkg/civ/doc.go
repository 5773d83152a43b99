// Package civ implements the CI-V frame format used by Icom radios.
//
// A CI-V frame is a short byte sequence on a shared serial bus:
//
//	┌──────┬──────┬────┬──────┬─────┬───────┬──────────┬────┐
//	│  FE  │  FE  │ to │ from │ cmd │ [sub] │ [data..] │ FD │
//	└──────┴──────┴────┴──────┴─────┴───────┴──────────┴────┘
//
// The controller (usually 0xE0) addresses the rig by its device address;
// the rig answers with the addresses reversed. Address 0x00 is broadcast
// and is used by rigs in transceive mode to announce frequency and mode
// changes made on the front panel.
//
// Replies to set operations carry no data; their command byte is the
// status itself: OK (0xFB) or NG (0xFA).
//
// # Payload Encoding
//
// Frequencies are packed BCD, least significant digit pair first
// (5 bytes, or 4 bytes on rigs using the IC-731 dialect). Levels and
// channel numbers are packed BCD, most significant pair first.
//
// The codec is format-agnostic about legality: it checks structure,
// lengths and BCD digits, never whether a frequency is tunable.
package civ
