// Package rig is the generic rig API.
//
// A Rig binds a capability descriptor to a serial connection, a
// transaction engine and the protocol implementation named by the
// descriptor. Every operation follows the same path:
//
//	check lifecycle -> validate against caps -> driver (encode, transact,
//	decode) -> update cache -> return
//
// Requests that the model cannot honour fail with an error matching
// caps.ErrCapabilityViolation before any byte is written. SetFreq and
// SetMode are skipped when the cache shows the value is already set.
//
// Lifecycle:
//
//	Init -> Open -> (operations) -> Close -> Cleanup
//
// A closed rig may be opened again. Operations outside Open/Close fail
// with ErrNotOpen.
//
// Transceive frames announced by the rig update the cache and fire the
// OnFreqEvent and OnModeEvent callbacks. They are read either while a
// transaction is running, by Rig.Poll, or by a background poller,
// depending on Options.Transceive.
package rig
