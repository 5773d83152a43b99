// Package engine runs CI-V transactions over a shared bus.
//
// A transaction writes one command frame and waits for the matching reply:
//
//	IDLE -> SENT -> AWAITING_REPLY -> MATCHED
//	                              \-> ECHO_ONLY -> AWAITING_REPLY
//	                              \-> TIMED_OUT -> SENT (next attempt) | error
//
// Because the bus is shared, the controller receives its own bytes back.
// A byte-exact copy of the outgoing frame is discarded. Frames the rig sends
// on its own (transceive broadcasts to address 00, or rig frames that do not
// answer the pending request) are queued and handed to the event handler
// once the transaction has released the bus. Frames between other stations
// are ignored. Malformed frames are counted and skipped.
//
// An engine runs one transaction at a time.
package engine
