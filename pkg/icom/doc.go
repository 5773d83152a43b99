// Package icom implements the CI-V command set on top of the transaction
// engine.
//
// Backend translates the generic rig operations into CI-V frames and
// decodes the replies. It performs no capability checks of its own: the
// rig package validates requests against the model descriptor before they
// get here.
package icom
