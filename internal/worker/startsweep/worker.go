// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package startsweep runs the periodic sweep that notifies receivers
// and senders when an accepted track request's tracking window begins.
package startsweep

import (
	"context"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/worker/v4"
	"gopkg.in/tomb.v2"

	"github.com/juju/tracknotify/core/push"
	"github.com/juju/tracknotify/core/track"
	"github.com/juju/tracknotify/internal/tokens"
	"github.com/juju/tracknotify/state"
)

// DefaultPeriod is how often the sweep runs unless configured
// otherwise, matching the one minute granularity tracking windows are
// expressed in.
const DefaultPeriod = time.Minute

// Logger represents the methods used by the worker to log information.
type Logger interface {
	Tracef(string, ...interface{})
	Debugf(string, ...interface{})
	Infof(string, ...interface{})
	Warningf(string, ...interface{})
	Errorf(string, ...interface{})
}

// RequestStore provides the slice of the state the sweep needs.
type RequestStore interface {
	StartedRequests(now time.Time) ([]track.TrackRequest, error)
	NewNotificationID() string
	CommitSweep(state.SweepChanges) error
}

// Config defines the operation of the sweep worker.
type Config struct {
	Store    RequestStore
	Resolver tokens.Resolver
	Notifier push.Notifier
	Clock    clock.Clock
	Logger   Logger

	// Period is the sweep interval; DefaultPeriod when zero.
	Period time.Duration
}

// Validate returns an error if config cannot drive the worker.
func (config Config) Validate() error {
	if config.Store == nil {
		return errors.NotValidf("nil Store")
	}
	if config.Resolver == nil {
		return errors.NotValidf("nil Resolver")
	}
	if config.Notifier == nil {
		return errors.NotValidf("nil Notifier")
	}
	if config.Clock == nil {
		return errors.NotValidf("nil Clock")
	}
	if config.Logger == nil {
		return errors.NotValidf("nil Logger")
	}
	if config.Period < 0 {
		return errors.NotValidf("negative Period")
	}
	return nil
}

// Worker periodically scans for accepted requests whose start time has
// elapsed and dispatches the start notifications owed for them.
//
// Correctness under overlapping invocations rests on the persisted
// dedup flags and the atomic commit, not on mutual exclusion: flags
// are read fresh each invocation and advanced conditionally at commit
// time. Pushes are sent before the commit, so a true overlap can still
// double-send a push; the record store never duplicates.
type Worker struct {
	tomb   tomb.Tomb
	config Config
}

// NewWorker returns a started sweep worker.
func NewWorker(config Config) (worker.Worker, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	if config.Period == 0 {
		config.Period = DefaultPeriod
	}
	w := &Worker{config: config}
	w.tomb.Go(w.loop)
	return w, nil
}

// Kill is part of the worker.Worker interface.
func (w *Worker) Kill() {
	w.tomb.Kill(nil)
}

// Wait is part of the worker.Worker interface.
func (w *Worker) Wait() error {
	return w.tomb.Wait()
}

func (w *Worker) loop() error {
	timer := w.config.Clock.NewTimer(w.config.Period)
	defer timer.Stop()
	for {
		select {
		case <-w.tomb.Dying():
			return tomb.ErrDying
		case <-timer.Chan():
			// A failed invocation leaves all flags unadvanced; the
			// next tick retries the same candidates, so failure here
			// is logged rather than fatal.
			if err := w.sweep(); err != nil {
				w.config.Logger.Errorf("start sweep failed: %v", err)
			}
			timer.Reset(w.config.Period)
		}
	}
}

// sweep performs one invocation: query, stage, push, commit.
func (w *Worker) sweep() error {
	ctx := w.tomb.Context(context.Background())
	now := w.config.Clock.Now()

	requests, err := w.config.Store.StartedRequests(now)
	if err != nil {
		return errors.Trace(err)
	}
	if len(requests) == 0 {
		w.config.Logger.Tracef("no started requests at %s", now)
		return nil
	}

	// The cache lives for exactly one invocation so repeated senders
	// and receivers cost one lookup each.
	cache := tokens.NewCache(w.config.Resolver)

	var changes state.SweepChanges
	for _, req := range requests {
		if req.ReceiverStartNotified() {
			continue
		}
		changes.Receivers = append(changes.Receivers, w.stageReceiver(ctx, cache, req))
	}
	for _, group := range batchGroups(requests) {
		if len(group.requestIDs) == 0 {
			continue
		}
		changes.Senders = append(changes.Senders, w.stageSender(ctx, cache, group))
	}

	if changes.Empty() {
		return nil
	}
	if err := w.config.Store.CommitSweep(changes); err != nil {
		return errors.Trace(err)
	}
	w.config.Logger.Debugf("sweep committed %d receiver and %d sender notifications",
		len(changes.Receivers), len(changes.Senders))
	return nil
}

// stageReceiver sends the receiver's individual start push, best
// effort, and stages the record plus dedup ledger entry. The record is
// staged even when the receiver has no push targets; the in-app feed
// must reflect the event regardless.
func (w *Worker) stageReceiver(ctx context.Context, cache *tokens.Cache, req track.TrackRequest) state.ReceiverStart {
	notificationID := w.config.Store.NewNotificationID()
	body := track.ReceiverStartBody(req)
	w.send(ctx, cache, req.ReceiverID, push.Message{
		Title: track.StartedTitle,
		Body:  body,
		Data: map[string]string{
			"type":           string(track.TypeTrackStarted),
			"requestId":      notificationID,
			"trackRequestId": req.ID,
		},
	})
	data := map[string]interface{}{
		"requestId":      notificationID,
		"trackRequestId": req.ID,
	}
	if req.EndAt != nil {
		data["endAt"] = *req.EndAt
	}
	return state.ReceiverStart{
		RequestID: req.ID,
		UserID:    req.ReceiverID,
		Notification: track.Notification{
			ID:             notificationID,
			UserID:         req.ReceiverID,
			Type:           track.TypeTrackStarted,
			RequiresAction: true,
			Title:          track.StartedTitle,
			Body:           body,
			Data:           data,
		},
	}
}

// stageSender sends the one aggregated start push a batch owes its
// sender and stages the record plus the sender-notified flag for every
// contributing request.
func (w *Worker) stageSender(ctx context.Context, cache *tokens.Cache, group batchGroup) state.SenderStart {
	notificationID := w.config.Store.NewNotificationID()
	body := track.SenderStartBody(group.names)
	w.send(ctx, cache, group.senderID, push.Message{
		Title: track.StartedTitle,
		Body:  body,
		Data: map[string]string{
			"type":      string(track.TypeTrackStarted),
			"requestId": notificationID,
			"batchId":   group.batchID,
		},
	})
	data := map[string]interface{}{
		"requestId":     notificationID,
		"batchId":       group.batchID,
		"receiverNames": group.names,
	}
	if group.endAt != nil {
		data["endAt"] = *group.endAt
	}
	return state.SenderStart{
		RequestIDs: group.requestIDs,
		Notification: track.Notification{
			ID:             notificationID,
			UserID:         group.senderID,
			Type:           track.TypeTrackStarted,
			RequiresAction: false,
			Title:          track.StartedTitle,
			Body:           body,
			Data:           data,
		},
	}
}

// send multicasts a message to a user's push targets. Resolution
// failures and empty target sets are skip conditions; partial delivery
// failure is logged with counts and never escalated.
func (w *Worker) send(ctx context.Context, cache *tokens.Cache, userID string, msg push.Message) {
	targets, err := cache.PushTargets(userID)
	if err != nil {
		w.config.Logger.Warningf("resolving push targets for user %q: %v", userID, err)
		return
	}
	if len(targets) == 0 {
		w.config.Logger.Debugf("no push targets for user %q", userID)
		return
	}
	result, err := w.config.Notifier.SendMulticast(ctx, msg, targets)
	if err != nil {
		w.config.Logger.Warningf("sending start push to user %q: %v", userID, err)
		return
	}
	if result.Failure > 0 {
		w.config.Logger.Warningf("start push to user %q: %d sent, %d failed", userID, result.Success, result.Failure)
	} else {
		w.config.Logger.Debugf("start push to user %q: %d sent", userID, result.Success)
	}
}

// batchGroup collects what one batch owes its sender.
type batchGroup struct {
	batchID    string
	senderID   string
	names      []string
	requestIDs []string
	endAt      *time.Time
}

// batchGroups groups candidate requests by batch id, in first-seen
// order. Only requests not yet sender-notified contribute names and
// flag updates; a batch where every request was already notified ends
// up with no request ids and is skipped by the caller.
func batchGroups(requests []track.TrackRequest) []batchGroup {
	index := make(map[string]int)
	var groups []batchGroup
	for _, req := range requests {
		batchID := req.Batch()
		i, ok := index[batchID]
		if !ok {
			i = len(groups)
			index[batchID] = i
			groups = append(groups, batchGroup{
				batchID:  batchID,
				senderID: req.SenderID,
				endAt:    req.EndAt,
			})
		}
		if req.StartNotifiedSender {
			continue
		}
		if name := req.AggregateName(); name != "" {
			groups[i].names = append(groups[i].names, name)
		}
		groups[i].requestIDs = append(groups[i].requestIDs, req.ID)
	}
	return groups
}
