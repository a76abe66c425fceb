// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package state

import (
	"time"

	"github.com/juju/errors"
	"github.com/juju/mgo/v3/bson"
	"github.com/juju/mgo/v3/txn"

	"github.com/juju/tracknotify/core/track"
)

type notificationDoc struct {
	DocID          string                 `bson:"_id"`
	UserID         string                 `bson:"user-id"`
	Type           string                 `bson:"type"`
	RequiresAction bool                   `bson:"requires-action"`
	Title          string                 `bson:"title"`
	Body           string                 `bson:"body"`
	Data           map[string]interface{} `bson:"data,omitempty"`
	IsRead         bool                   `bson:"is-read"`
	CreatedAt      time.Time              `bson:"created-at"`
}

func (doc notificationDoc) value() track.Notification {
	return track.Notification{
		ID:             doc.DocID,
		UserID:         doc.UserID,
		Type:           track.NotificationType(doc.Type),
		RequiresAction: doc.RequiresAction,
		Title:          doc.Title,
		Body:           doc.Body,
		Data:           doc.Data,
		IsRead:         doc.IsRead,
		CreatedAt:      doc.CreatedAt,
	}
}

// NewNotificationID allocates an identifier for a notification record
// before the record itself is written, so push payloads can carry it
// as a correlation id.
func (st *State) NewNotificationID() string {
	return bson.NewObjectId().Hex()
}

func (st *State) notificationDoc(n track.Notification) notificationDoc {
	id := n.ID
	if id == "" {
		id = st.NewNotificationID()
	}
	return notificationDoc{
		DocID:          id,
		UserID:         n.UserID,
		Type:           string(n.Type),
		RequiresAction: n.RequiresAction,
		Title:          n.Title,
		Body:           n.Body,
		Data:           n.Data,
		IsRead:         false,
		CreatedAt:      st.clock.Now().UTC(),
	}
}

func insertNotificationOp(doc notificationDoc) txn.Op {
	return txn.Op{
		C:      notificationsC,
		Id:     doc.DocID,
		Assert: txn.DocMissing,
		Insert: doc,
	}
}

// AddNotification persists a single notification record, assigning the
// id and creation time unless the id was pre-allocated. Records are
// created unread.
func (st *State) AddNotification(n track.Notification) (track.Notification, error) {
	doc := st.notificationDoc(n)
	buildTxn := func(attempt int) ([]txn.Op, error) {
		if attempt > 0 {
			return nil, errors.AlreadyExistsf("notification %q", doc.DocID)
		}
		return []txn.Op{insertNotificationOp(doc)}, nil
	}
	if err := st.run(buildTxn); err != nil {
		return track.Notification{}, errors.Annotatef(err, "adding notification for user %q", n.UserID)
	}
	return doc.value(), nil
}

// Notifications returns a user's notification records, oldest first.
func (st *State) Notifications(userID string) ([]track.Notification, error) {
	var docs []notificationDoc
	err := st.db.C(notificationsC).
		Find(bson.D{{Name: "user-id", Value: userID}}).
		Sort("created-at", "_id").
		All(&docs)
	if err != nil {
		return nil, errors.Annotatef(err, "reading notifications for user %q", userID)
	}
	notifications := make([]track.Notification, len(docs))
	for i, doc := range docs {
		notifications[i] = doc.value()
	}
	return notifications, nil
}
