// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package track

import (
	"fmt"
)

// TransitionEvent describes the notification owed for a single valid
// status transition. The push and record faces of the title and type
// can differ; see NotificationType.
type TransitionEvent struct {
	// To is the status the request arrived at.
	To Status

	// RecipientID is the user owed the notification. For every valid
	// transition today this is the sender.
	RecipientID string

	PushType   NotificationType
	RecordType NotificationType

	PushTitle   string
	RecordTitle string
	Body        string

	// FreshCorrelationID is true when the push correlation id must be
	// the pre-allocated id of the notification record itself rather
	// than the request id.
	FreshCorrelationID bool
}

// Transition classifies a before/after pair of request snapshots,
// returning the notification event owed and true for a valid
// transition, or false for anything that must be a no-op: an unchanged
// status, or an edge outside ValidTransition.
//
// Transitions are detected purely from the snapshot diff. If the
// hosting runtime re-delivers the same update event, the same
// TransitionEvent is derived again and the push is re-sent; that
// duplicate risk is accepted rather than papered over with a guessed
// idempotency key. Record persistence remains the durability boundary.
func Transition(before, after TrackRequest) (TransitionEvent, bool) {
	if before.Status == after.Status {
		return TransitionEvent{}, false
	}
	if !ValidTransition(before.Status, after.Status) {
		return TransitionEvent{}, false
	}
	if after.SenderID == "" {
		return TransitionEvent{}, false
	}

	receiver := after.ReceiverDisplayName()
	event := TransitionEvent{
		To:          after.Status,
		RecipientID: after.SenderID,
	}
	switch after.Status {
	case Accepted:
		event.PushType = TypeTrackAccepted
		event.RecordType = TypeTrackAccepted
		event.PushTitle = "Tracking Request Accepted"
		event.RecordTitle = "Track Request Accepted"
		event.Body = fmt.Sprintf("%s accepted your tracking request", receiver)
	case Declined:
		event.PushType = TypeTrackDeclined
		event.RecordType = TypeTrackRejected
		event.PushTitle = "Tracking Request Declined"
		event.RecordTitle = "Track Request Declined"
		event.Body = fmt.Sprintf("%s declined your tracking request", receiver)
	case Terminated:
		event.PushType = TypeTrackTerminated
		event.RecordType = TypeTrackTerminated
		event.PushTitle = "Tracking Request Terminated"
		event.RecordTitle = "Tracking Request Terminated"
		event.Body = fmt.Sprintf("%s stopped sharing the location with you", receiver)
		event.FreshCorrelationID = true
	}
	return event, true
}
