// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package track

import (
	"github.com/juju/errors"
)

// Status describes how far a track request has progressed through its
// lifecycle. A request is created pending, is resolved by the receiver to
// accepted or declined, and an accepted request is eventually terminated.
type Status string

const (
	// Pending indicates the receiver has not yet responded.
	Pending Status = "pending"

	// Accepted indicates the receiver agreed to be tracked.
	Accepted Status = "accepted"

	// Declined indicates the receiver refused the request.
	Declined Status = "declined"

	// Terminated indicates an accepted request whose tracking window
	// was ended by the receiver.
	Terminated Status = "terminated"
)

// String is deliberately the only way Status converts to a string used
// in wire payloads; handlers must not invent their own literals.
func (s Status) String() string {
	return string(s)
}

// Validate returns an error if the status is not a known value.
func (s Status) Validate() error {
	switch s {
	case Pending, Accepted, Declined, Terminated:
		return nil
	}
	return errors.NotValidf("status %q", string(s))
}

// ValidTransition reports whether a request may move directly from one
// status to another. Only three edges exist:
//
//	pending -> accepted
//	pending -> declined
//	accepted -> terminated
//
// Anything else, including a self transition, must be ignored by callers
// rather than applied.
func ValidTransition(from, to Status) bool {
	switch from {
	case Pending:
		return to == Accepted || to == Declined
	case Accepted:
		return to == Terminated
	}
	return false
}
