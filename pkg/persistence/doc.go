// Package persistence stores the last known state of a rig in a JSON file.
//
// A rig handle saves its cached VFO, frequency, mode and the levels and
// functions it has set when it is closed, so that tools can report or
// restore the receiver state on the next run.
package persistence
