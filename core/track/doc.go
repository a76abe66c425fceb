// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package track holds the pure domain model of the track request
// lifecycle: the closed status enumeration and its valid transitions,
// the notification record shape, and the derivation of all
// notification content. It is the single authority for type
// discriminators and message wording; it performs no I/O.
package track
