// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package tracker defines the hub topics and message structures used
// to tell the dispatch engine about track request document mutations.
// The ingest layer that actually writes the documents publishes these;
// the dispatcher worker subscribes. One event is published per
// mutation, and the hosting process may re-deliver an event after a
// handler failure, so subscribers must treat delivery as at least once.
package tracker

import (
	"github.com/juju/tracknotify/core/track"
)

const (
	// RequestCreatedTopic carries a RequestCreated for every new
	// track request document.
	RequestCreatedTopic = "trackrequest.created"

	// RequestChangedTopic carries a RequestChanged for every update
	// to an existing track request document.
	RequestChangedTopic = "trackrequest.changed"
)

// RequestCreated announces a newly created track request.
type RequestCreated struct {
	Request track.TrackRequest
}

// RequestChanged announces an update to a track request, carrying the
// full before and after snapshots so subscribers can classify the
// change from the diff alone.
type RequestChanged struct {
	Before track.TrackRequest
	After  track.TrackRequest
}
