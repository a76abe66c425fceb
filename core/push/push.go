// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package push defines the push-delivery capability consumed by the
// notification handlers. The transport behind it (FCM or otherwise) is
// not this module's concern.
package push

import (
	"context"
)

// Message is a single notification to multicast to a set of device
// targets. Data carries the opaque correlation payload the client apps
// route on.
type Message struct {
	Title string
	Body  string
	Data  map[string]string
}

// Result reports per-target delivery counts for one multicast send.
type Result struct {
	Success int
	Failure int
}

// Notifier delivers a message to a set of device targets, best effort.
// Partial failure is reported through Result counts, never through the
// error; the error is reserved for the whole call failing. A call
// sends at most once per target.
type Notifier interface {
	SendMulticast(ctx context.Context, msg Message, targets []string) (Result, error)
}
