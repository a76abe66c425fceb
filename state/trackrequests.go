// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package state

import (
	"time"

	"github.com/juju/errors"
	"github.com/juju/mgo/v3"
	"github.com/juju/mgo/v3/bson"

	"github.com/juju/tracknotify/core/track"
)

// trackRequestDoc is the mongo shape of a track request. The engine
// never inserts these; the ingest layer does. The legacy
// start-notified field predates the per-batch start-notified-sender
// flag and is still honoured when reading.
type trackRequestDoc struct {
	DocID               string     `bson:"_id"`
	SenderID            string     `bson:"sender-id"`
	ReceiverID          string     `bson:"receiver-id"`
	SenderName          string     `bson:"sender-name,omitempty"`
	ReceiverName        string     `bson:"receiver-name,omitempty"`
	ReceiverPhone       string     `bson:"receiver-phone,omitempty"`
	VenueID             string     `bson:"venue-id,omitempty"`
	Status              string     `bson:"status"`
	StartAt             *time.Time `bson:"start-at,omitempty"`
	EndAt               *time.Time `bson:"end-at,omitempty"`
	BatchID             string     `bson:"batch-id,omitempty"`
	StartNotifiedUsers  []string   `bson:"start-notified-users,omitempty"`
	StartNotifiedSender bool       `bson:"start-notified-sender,omitempty"`
	LegacyStartNotified bool       `bson:"start-notified,omitempty"`
}

func (doc trackRequestDoc) value() track.TrackRequest {
	return track.TrackRequest{
		ID:                  doc.DocID,
		SenderID:            doc.SenderID,
		ReceiverID:          doc.ReceiverID,
		SenderName:          doc.SenderName,
		ReceiverName:        doc.ReceiverName,
		ReceiverPhone:       doc.ReceiverPhone,
		VenueID:             doc.VenueID,
		Status:              track.Status(doc.Status),
		StartAt:             doc.StartAt,
		EndAt:               doc.EndAt,
		BatchID:             doc.BatchID,
		StartNotifiedUsers:  doc.StartNotifiedUsers,
		StartNotifiedSender: doc.StartNotifiedSender || doc.LegacyStartNotified,
	}
}

// TrackRequest returns the request with the given id.
func (st *State) TrackRequest(id string) (track.TrackRequest, error) {
	var doc trackRequestDoc
	err := st.db.C(trackRequestsC).FindId(id).One(&doc)
	if err == mgo.ErrNotFound {
		return track.TrackRequest{}, errors.NotFoundf("track request %q", id)
	}
	if err != nil {
		return track.TrackRequest{}, errors.Annotatef(err, "reading track request %q", id)
	}
	return doc.value(), nil
}

// StartedRequests returns every accepted request whose start time has
// elapsed, in document id order. Requests missing a sender or receiver
// id are malformed and skipped.
func (st *State) StartedRequests(now time.Time) ([]track.TrackRequest, error) {
	query := bson.D{
		{Name: "status", Value: track.Accepted.String()},
		{Name: "start-at", Value: bson.D{{Name: "$lte", Value: now}}},
	}
	var docs []trackRequestDoc
	err := st.db.C(trackRequestsC).Find(query).Sort("_id").All(&docs)
	if err != nil {
		return nil, errors.Annotate(err, "querying started requests")
	}
	requests := make([]track.TrackRequest, 0, len(docs))
	for _, doc := range docs {
		if doc.SenderID == "" || doc.ReceiverID == "" {
			logger.Debugf("skipping malformed track request %q", doc.DocID)
			continue
		}
		requests = append(requests, doc.value())
	}
	return requests, nil
}
