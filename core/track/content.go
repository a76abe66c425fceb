// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package track

import (
	"fmt"
	"strings"

	"github.com/juju/collections/set"
)

// Titles shared by more than one producer.
const (
	CreationTitle = "New Track Request"
	StartedTitle  = "Tracking Started"
)

// CreationBody returns the body of the notification sent to a receiver
// when a new pending request names them.
func CreationBody(r TrackRequest) string {
	return fmt.Sprintf("%s wants to track your location", r.SenderName)
}

// ReceiverStartBody returns the body of the notification sent to a
// receiver when their accepted request's tracking window begins.
func ReceiverStartBody(r TrackRequest) string {
	return fmt.Sprintf("%s can now track your location", r.SenderName)
}

// SenderStartBody aggregates the receiver names of a batch into the
// single body the sender sees when tracking starts. Names are trimmed,
// blanks dropped and duplicates collapsed, preserving first-seen order:
//
//	none:        You can now track your friends
//	A:           You can now track A
//	A, B:        You can now track A and B
//	A, B, C...:  You can now track A and N-1 others
func SenderStartBody(names []string) string {
	seen := set.NewStrings()
	var unique []string
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen.Contains(name) {
			continue
		}
		seen.Add(name)
		unique = append(unique, name)
	}
	switch len(unique) {
	case 0:
		return "You can now track your friends"
	case 1:
		return fmt.Sprintf("You can now track %s", unique[0])
	case 2:
		return fmt.Sprintf("You can now track %s and %s", unique[0], unique[1])
	}
	return fmt.Sprintf("You can now track %s and %d others", unique[0], len(unique)-1)
}
