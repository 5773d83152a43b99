// Package caps describes what a rig model can do.
//
// A Descriptor is a static, immutable table per model: frequency ranges,
// tuning steps, filters, supported modes, levels and functions, serial
// parameters and timing. The dispatch layer consults it before any byte is
// written so that requests the rig cannot honour fail early with
// ErrCapabilityViolation.
//
// Range, tuning step and filter lists end at a sentinel entry (RangeEnd,
// TSEnd, FilterEnd). Lookups stop at the first sentinel even if entries
// follow it. Filter order matters: the first entry that lists a mode is that
// mode's normal passband.
package caps
