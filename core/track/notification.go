// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package track

import (
	"time"
)

// NotificationType identifies the kind of notification an event
// produced. For historical reasons the mobile clients expect slightly
// different discriminators in push payloads and in persisted records
// (declines are pushed as trackDeclined but stored as trackRejected,
// and creation records use snake case). Both faces are defined here;
// nothing outside this package may invent a type string.
type NotificationType string

const (
	// TypeTrackRequest is the push payload type for a newly created
	// request; TypeTrackRequestRecord its persisted counterpart.
	TypeTrackRequest       NotificationType = "trackRequest"
	TypeTrackRequestRecord NotificationType = "track_request"

	// TypeTrackAccepted is used for both the push payload and the
	// persisted record of an accepted request.
	TypeTrackAccepted NotificationType = "trackAccepted"

	// TypeTrackDeclined is the push payload type for a declined
	// request; TypeTrackRejected its persisted counterpart.
	TypeTrackDeclined NotificationType = "trackDeclined"
	TypeTrackRejected NotificationType = "trackRejected"

	// TypeTrackTerminated is used when an accepted request's tracking
	// window is ended.
	TypeTrackTerminated NotificationType = "trackTerminated"

	// TypeTrackStarted is used for both receiver and sender facing
	// notifications when a tracking window begins.
	TypeTrackStarted NotificationType = "trackStarted"
)

// Notification is an append-only in-app notification record. Records
// are created unread; only the (external) read-state toggle ever
// mutates one afterwards.
type Notification struct {
	// ID is the record identifier. It is usually store-assigned, but
	// terminated and start events pre-allocate it so the push payload
	// can carry it as a correlation id before the record commits.
	ID string

	// UserID is the recipient.
	UserID string

	Type NotificationType

	// RequiresAction is true only for actionable inbound requests and
	// start events directed at a receiver; the client UI uses it to
	// show action buttons.
	RequiresAction bool

	Title string
	Body  string

	// Data is an opaque payload carrying correlation ids back to the
	// originating request or batch.
	Data map[string]interface{}

	IsRead    bool
	CreatedAt time.Time
}
