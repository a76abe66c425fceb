// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package state

import (
	"github.com/juju/errors"
	"github.com/juju/mgo/v3/bson"
	"github.com/juju/mgo/v3/txn"
	jujutxn "github.com/juju/txn/v3"

	"github.com/juju/tracknotify/core/track"
)

// ReceiverStart stages the side effects of telling one receiver that
// tracking started: the notification record, and the receiver's entry
// in the request's dedup ledger.
type ReceiverStart struct {
	RequestID    string
	UserID       string
	Notification track.Notification
}

// SenderStart stages the side effects of one aggregated sender
// notification: the record, and the sender-notified flag on every
// request of the batch that contributed to it.
type SenderStart struct {
	RequestIDs   []string
	Notification track.Notification
}

// SweepChanges holds everything one sweep invocation staged. The whole
// lot commits in a single transaction or not at all.
type SweepChanges struct {
	Receivers []ReceiverStart
	Senders   []SenderStart
}

// Empty reports whether there is nothing to commit.
func (c SweepChanges) Empty() bool {
	return len(c.Receivers) == 0 && len(c.Senders) == 0
}

// requestFlagUpdates accumulates the dedup flag changes owed to a
// single request document, so the transaction carries at most one op
// per document.
type requestFlagUpdates struct {
	addUser    string
	markSender bool
}

func (u requestFlagUpdates) op(requestID string) txn.Op {
	var assert bson.D
	var update bson.D
	if u.addUser != "" {
		assert = append(assert, bson.DocElem{
			Name: "start-notified-users", Value: bson.D{{Name: "$ne", Value: u.addUser}},
		})
		update = append(update, bson.DocElem{
			Name: "$addToSet", Value: bson.D{{Name: "start-notified-users", Value: u.addUser}},
		})
	}
	if u.markSender {
		assert = append(assert, bson.DocElem{
			Name: "start-notified-sender", Value: bson.D{{Name: "$ne", Value: true}},
		})
		update = append(update, bson.DocElem{
			Name: "$set", Value: bson.D{{Name: "start-notified-sender", Value: true}},
		})
	}
	return txn.Op{
		C:      trackRequestsC,
		Id:     requestID,
		Assert: assert,
		Update: update,
	}
}

// CommitSweep applies a sweep invocation's staged notification inserts
// and dedup flag updates as one atomic transaction.
//
// The flag updates are conditional at commit time: each op asserts the
// flag has not already advanced, so a concurrent invocation that got
// there first aborts the transaction rather than silently re-winning.
// On retry the staged units are rebuilt against fresh reads and any
// unit whose flags advanced is dropped together with its paired
// notification insert. If every unit has been overtaken the commit
// degenerates to a no-op and succeeds.
func (st *State) CommitSweep(changes SweepChanges) error {
	if changes.Empty() {
		return nil
	}
	buildTxn := func(attempt int) ([]txn.Op, error) {
		var fresh map[string]track.TrackRequest
		if attempt > 0 {
			var err error
			if fresh, err = st.refreshSweepRequests(changes); err != nil {
				return nil, errors.Trace(err)
			}
		}

		var inserts []txn.Op
		flags := make(map[string]*requestFlagUpdates)
		var flagOrder []string
		flagsFor := func(requestID string) *requestFlagUpdates {
			u, ok := flags[requestID]
			if !ok {
				u = &requestFlagUpdates{}
				flags[requestID] = u
				flagOrder = append(flagOrder, requestID)
			}
			return u
		}

		for _, r := range changes.Receivers {
			if fresh != nil {
				req, ok := fresh[r.RequestID]
				if !ok || req.ReceiverStartNotified() {
					continue
				}
			}
			inserts = append(inserts, insertNotificationOp(st.notificationDoc(r.Notification)))
			flagsFor(r.RequestID).addUser = r.UserID
		}

		for _, s := range changes.Senders {
			requestIDs := s.RequestIDs
			if fresh != nil {
				var remaining []string
				for _, id := range requestIDs {
					req, ok := fresh[id]
					if !ok || req.StartNotifiedSender {
						continue
					}
					remaining = append(remaining, id)
				}
				requestIDs = remaining
			}
			if len(requestIDs) == 0 {
				continue
			}
			inserts = append(inserts, insertNotificationOp(st.notificationDoc(s.Notification)))
			for _, id := range requestIDs {
				flagsFor(id).markSender = true
			}
		}

		if len(inserts) == 0 {
			return nil, jujutxn.ErrNoOperations
		}
		ops := inserts
		for _, id := range flagOrder {
			ops = append(ops, flags[id].op(id))
		}
		return ops, nil
	}
	return errors.Annotate(st.run(buildTxn), "committing sweep changes")
}

// refreshSweepRequests rereads every request a staged sweep touches,
// omitting requests that have been removed.
func (st *State) refreshSweepRequests(changes SweepChanges) (map[string]track.TrackRequest, error) {
	fresh := make(map[string]track.TrackRequest)
	read := func(id string) error {
		if _, ok := fresh[id]; ok {
			return nil
		}
		req, err := st.TrackRequest(id)
		if errors.Is(err, errors.NotFound) {
			return nil
		}
		if err != nil {
			return errors.Trace(err)
		}
		fresh[id] = req
		return nil
	}
	for _, r := range changes.Receivers {
		if err := read(r.RequestID); err != nil {
			return nil, err
		}
	}
	for _, s := range changes.Senders {
		for _, id := range s.RequestIDs {
			if err := read(id); err != nil {
				return nil, err
			}
		}
	}
	return fresh, nil
}
