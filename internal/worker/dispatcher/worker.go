// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package dispatcher reacts to track request document mutations
// published on the hub: it notifies the receiver of a newly created
// pending request, and the sender when the receiver accepts, declines
// or terminates one.
package dispatcher

import (
	"context"

	"github.com/juju/errors"
	"github.com/juju/pubsub/v2"
	"github.com/juju/worker/v4"
	"github.com/juju/worker/v4/catacomb"

	"github.com/juju/tracknotify/core/push"
	"github.com/juju/tracknotify/core/track"
	"github.com/juju/tracknotify/internal/tokens"
	"github.com/juju/tracknotify/pubsub/tracker"
)

// Logger represents the methods used by the worker to log information.
type Logger interface {
	Debugf(string, ...interface{})
	Infof(string, ...interface{})
	Warningf(string, ...interface{})
	Errorf(string, ...interface{})
	Criticalf(string, ...interface{})
}

// NotificationStore persists notification records.
type NotificationStore interface {
	AddNotification(track.Notification) (track.Notification, error)
	NewNotificationID() string
}

// Config defines the operation of the dispatcher worker.
type Config struct {
	Hub      *pubsub.SimpleHub
	Store    NotificationStore
	Resolver tokens.Resolver
	Notifier push.Notifier
	Logger   Logger
}

// Validate returns an error if config cannot drive the worker.
func (config Config) Validate() error {
	if config.Hub == nil {
		return errors.NotValidf("nil Hub")
	}
	if config.Store == nil {
		return errors.NotValidf("nil Store")
	}
	if config.Resolver == nil {
		return errors.NotValidf("nil Resolver")
	}
	if config.Notifier == nil {
		return errors.NotValidf("nil Notifier")
	}
	if config.Logger == nil {
		return errors.NotValidf("nil Logger")
	}
	return nil
}

// Worker subscribes to track request change topics and runs the
// creation and transition handlers. Handler failures are logged and
// swallowed: the hosting process may re-deliver an event after a
// failure, and record persistence, not push delivery, is the
// durability boundary, so re-running a handler is safe apart from the
// documented duplicate push risk.
type Worker struct {
	catacomb catacomb.Catacomb
	config   Config

	created chan tracker.RequestCreated
	changed chan tracker.RequestChanged
}

// NewWorker returns a started dispatcher worker.
func NewWorker(config Config) (worker.Worker, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	w := &Worker{
		config:  config,
		created: make(chan tracker.RequestCreated),
		changed: make(chan tracker.RequestChanged),
	}
	if err := catacomb.Invoke(catacomb.Plan{
		Site: &w.catacomb,
		Work: w.loop,
	}); err != nil {
		return nil, errors.Trace(err)
	}
	return w, nil
}

// Kill is part of the worker.Worker interface.
func (w *Worker) Kill() {
	w.catacomb.Kill(nil)
}

// Wait is part of the worker.Worker interface.
func (w *Worker) Wait() error {
	return w.catacomb.Wait()
}

func (w *Worker) loop() error {
	unsubCreated := w.config.Hub.Subscribe(tracker.RequestCreatedTopic, w.onCreated)
	defer unsubCreated()
	unsubChanged := w.config.Hub.Subscribe(tracker.RequestChangedTopic, w.onChanged)
	defer unsubChanged()

	ctx := w.catacomb.Context(context.Background())
	for {
		select {
		case <-w.catacomb.Dying():
			return w.catacomb.ErrDying()
		case event := <-w.created:
			w.handleCreated(ctx, event.Request)
		case event := <-w.changed:
			w.handleChanged(ctx, event.Before, event.After)
		}
	}
}

// onCreated and onChanged run on hub goroutines; they only forward
// into the worker loop so handling stays single threaded.
func (w *Worker) onCreated(topic string, data interface{}) {
	event, ok := data.(tracker.RequestCreated)
	if !ok {
		w.config.Logger.Criticalf("programming error: %s data expected tracker.RequestCreated, got %T", topic, data)
		return
	}
	select {
	case w.created <- event:
	case <-w.catacomb.Dying():
	}
}

func (w *Worker) onChanged(topic string, data interface{}) {
	event, ok := data.(tracker.RequestChanged)
	if !ok {
		w.config.Logger.Criticalf("programming error: %s data expected tracker.RequestChanged, got %T", topic, data)
		return
	}
	select {
	case w.changed <- event:
	case <-w.catacomb.Dying():
	}
}

// handleCreated notifies the receiver of a new pending request. A
// receiver with no push targets gets nothing at all: there is no
// device to act on the request from, and the request itself is already
// visible in the app.
func (w *Worker) handleCreated(ctx context.Context, req track.TrackRequest) {
	if req.Status != track.Pending {
		w.config.Logger.Debugf("track request %q created as %q, skipping", req.ID, req.Status)
		return
	}
	if req.ReceiverID == "" {
		w.config.Logger.Debugf("track request %q has no receiver, skipping", req.ID)
		return
	}
	targets, err := w.config.Resolver.PushTargets(req.ReceiverID)
	if err != nil {
		w.config.Logger.Warningf("resolving push targets for receiver %q: %v", req.ReceiverID, err)
		return
	}
	if len(targets) == 0 {
		w.config.Logger.Debugf("no push targets for receiver %q, skipping", req.ReceiverID)
		return
	}

	body := track.CreationBody(req)
	w.sendMulticast(ctx, req.ReceiverID, push.Message{
		Title: track.CreationTitle,
		Body:  body,
		Data: map[string]string{
			"type":      string(track.TypeTrackRequest),
			"requestId": req.ID,
		},
	}, targets)

	// The push is best effort; the record is the authoritative state
	// and is written regardless of how the send went.
	var venueID interface{}
	if req.VenueID != "" {
		venueID = req.VenueID
	}
	_, err = w.config.Store.AddNotification(track.Notification{
		UserID:         req.ReceiverID,
		Type:           track.TypeTrackRequestRecord,
		RequiresAction: true,
		Title:          track.CreationTitle,
		Body:           body,
		Data: map[string]interface{}{
			"requestId": req.ID,
			"senderId":  req.SenderID,
			"venueId":   venueID,
		},
	})
	if err != nil {
		w.config.Logger.Errorf("persisting creation notification for request %q: %v", req.ID, err)
	}
}

// handleChanged notifies the sender of a status transition. Unlike
// creation, the record is persisted even when the sender has no push
// targets; the in-app feed must reflect the event.
func (w *Worker) handleChanged(ctx context.Context, before, after track.TrackRequest) {
	event, ok := track.Transition(before, after)
	if !ok {
		w.config.Logger.Debugf("change on track request %q (%s -> %s) needs no notification",
			after.ID, before.Status, after.Status)
		return
	}

	// Terminated events correlate on the notification record itself,
	// so its id must exist before the push goes out.
	correlationID := after.ID
	var notificationID string
	if event.FreshCorrelationID {
		notificationID = w.config.Store.NewNotificationID()
		correlationID = notificationID
	}

	targets, err := w.config.Resolver.PushTargets(event.RecipientID)
	if err != nil {
		w.config.Logger.Warningf("resolving push targets for user %q: %v", event.RecipientID, err)
		targets = nil
	}
	if len(targets) == 0 {
		w.config.Logger.Debugf("no push targets for user %q, persisting notification only", event.RecipientID)
	} else {
		w.sendMulticast(ctx, event.RecipientID, push.Message{
			Title: event.PushTitle,
			Body:  event.Body,
			Data: map[string]string{
				"type":      string(event.PushType),
				"requestId": correlationID,
			},
		}, targets)
	}

	data := map[string]interface{}{"requestId": after.ID}
	if event.FreshCorrelationID {
		data = map[string]interface{}{
			"requestId":      notificationID,
			"trackRequestId": after.ID,
		}
	}
	_, err = w.config.Store.AddNotification(track.Notification{
		ID:             notificationID,
		UserID:         event.RecipientID,
		Type:           event.RecordType,
		RequiresAction: false,
		Title:          event.RecordTitle,
		Body:           event.Body,
		Data:           data,
	})
	if err != nil {
		w.config.Logger.Errorf("persisting %s notification for request %q: %v", event.RecordType, after.ID, err)
	}
}

func (w *Worker) sendMulticast(ctx context.Context, userID string, msg push.Message, targets []string) {
	result, err := w.config.Notifier.SendMulticast(ctx, msg, targets)
	if err != nil {
		w.config.Logger.Warningf("sending %s push to user %q: %v", msg.Data["type"], userID, err)
		return
	}
	if result.Failure > 0 {
		w.config.Logger.Warningf("%s push to user %q: %d sent, %d failed", msg.Data["type"], userID, result.Success, result.Failure)
	} else {
		w.config.Logger.Debugf("%s push to user %q: %d sent", msg.Data["type"], userID, result.Success)
	}
}
