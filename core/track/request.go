// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package track

import (
	"strings"
	"time"
)

// TrackRequest is a consent record letting one user's location be
// visible to another. The record is created externally in pending
// state; this engine only ever advances its status and its start
// notification dedup flags.
type TrackRequest struct {
	// ID is the store-assigned document identifier.
	ID string

	// SenderID identifies the user asking to track; ReceiverID the
	// user whose location would be shared.
	SenderID   string
	ReceiverID string

	// Display fields. The receiver fields are optional.
	SenderName    string
	ReceiverName  string
	ReceiverPhone string

	// VenueID optionally scopes the request to a venue. It is carried
	// opaquely in notification payloads.
	VenueID string

	Status Status

	// StartAt and EndAt bound the effective tracking window. StartAt
	// is only meaningful once the request has been accepted.
	StartAt *time.Time
	EndAt   *time.Time

	// BatchID groups requests issued together by one sender so that
	// sender-facing start notifications can be aggregated.
	BatchID string

	// StartNotifiedUsers lists receiver ids already notified that
	// tracking started. The set only ever grows.
	StartNotifiedUsers []string

	// StartNotifiedSender records that the sender has received the one
	// aggregated start notification for this request's batch.
	StartNotifiedSender bool
}

// Batch returns the identifier grouping this request with others issued
// together by the same sender, defaulting to the request's own id.
func (r TrackRequest) Batch() string {
	if r.BatchID != "" {
		return r.BatchID
	}
	return r.ID
}

// ReceiverStartNotified reports whether this request's receiver was
// already told that tracking started.
func (r TrackRequest) ReceiverStartNotified() bool {
	for _, id := range r.StartNotifiedUsers {
		if id == r.ReceiverID {
			return true
		}
	}
	return false
}

// ReceiverDisplayName returns the receiver's display name, falling back
// to "Someone" when blank after trimming.
func (r TrackRequest) ReceiverDisplayName() string {
	if name := strings.TrimSpace(r.ReceiverName); name != "" {
		return name
	}
	return "Someone"
}

// AggregateName returns the name this request's receiver contributes to
// the sender's aggregated start notification: the display name, else the
// phone number, else nothing.
func (r TrackRequest) AggregateName() string {
	if name := strings.TrimSpace(r.ReceiverName); name != "" {
		return name
	}
	return strings.TrimSpace(r.ReceiverPhone)
}
