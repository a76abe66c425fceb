// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package state_test

import (
	"time"

	"github.com/juju/clock/testclock"
	"github.com/juju/errors"
	"github.com/juju/mgo/v3/bson"
	mgotesting "github.com/juju/mgo/v3/testing"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/juju/tracknotify/core/track"
	"github.com/juju/tracknotify/state"
)

const database = "tracknotify"

// baseSuite wires a State to the test mongo server. It is embedded by
// the registered suites rather than registered itself.
type baseSuite struct {
	testing.IsolationSuite
	mgotesting.MgoSuite

	clock *testclock.Clock
	st    *state.State
}

type StateSuite struct {
	baseSuite
}

var _ = gc.Suite(&StateSuite{})

func (s *baseSuite) SetUpSuite(c *gc.C) {
	s.IsolationSuite.SetUpSuite(c)
	s.MgoSuite.SetUpSuite(c)
}

func (s *baseSuite) TearDownSuite(c *gc.C) {
	s.MgoSuite.TearDownSuite(c)
	s.IsolationSuite.TearDownSuite(c)
}

func (s *baseSuite) SetUpTest(c *gc.C) {
	s.IsolationSuite.SetUpTest(c)
	s.MgoSuite.SetUpTest(c)
	// A whole-second epoch keeps timestamps stable across the
	// millisecond precision of bson datetimes.
	s.clock = testclock.NewClock(time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC))
	st, err := state.New(state.Params{
		Session:  s.Session,
		Database: database,
		Clock:    s.clock,
	})
	c.Assert(err, jc.ErrorIsNil)
	s.st = st
	s.AddCleanup(func(c *gc.C) { s.st.Close() })
}

func (s *baseSuite) TearDownTest(c *gc.C) {
	s.MgoSuite.TearDownTest(c)
	s.IsolationSuite.TearDownTest(c)
}

func (s *StateSuite) TestNewValidatesParams(c *gc.C) {
	_, err := state.New(state.Params{Database: database, Clock: s.clock})
	c.Check(err, gc.ErrorMatches, `nil Session not valid`)
	_, err = state.New(state.Params{Session: s.Session, Clock: s.clock})
	c.Check(err, gc.ErrorMatches, `empty Database not valid`)
	_, err = state.New(state.Params{Session: s.Session, Database: database})
	c.Check(err, gc.ErrorMatches, `nil Clock not valid`)
}

func (s *baseSuite) addRequestDoc(c *gc.C, doc bson.M) {
	err := s.Session.DB(database).C("trackrequests").Insert(doc)
	c.Assert(err, jc.ErrorIsNil)
}

func (s *StateSuite) TestTrackRequestNotFound(c *gc.C) {
	_, err := s.st.TrackRequest("nope")
	c.Check(err, jc.ErrorIs, errors.NotFound)
	c.Check(err, gc.ErrorMatches, `track request "nope" not found`)
}

func (s *StateSuite) TestTrackRequestRoundTrip(c *gc.C) {
	startAt := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)
	endAt := startAt.Add(2 * time.Hour)
	s.addRequestDoc(c, bson.M{
		"_id":                  "req-1",
		"sender-id":            "sender-1",
		"receiver-id":          "lina-id",
		"sender-name":          "Nadia",
		"receiver-name":        "Lina",
		"venue-id":             "venue-9",
		"status":               "accepted",
		"start-at":             startAt,
		"end-at":               endAt,
		"batch-id":             "batch-1",
		"start-notified-users": []string{"lina-id"},
	})

	req, err := s.st.TrackRequest("req-1")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(req.ID, gc.Equals, "req-1")
	c.Check(req.SenderID, gc.Equals, "sender-1")
	c.Check(req.ReceiverID, gc.Equals, "lina-id")
	c.Check(req.VenueID, gc.Equals, "venue-9")
	c.Check(req.Status, gc.Equals, track.Accepted)
	c.Check(req.StartAt.Equal(startAt), jc.IsTrue)
	c.Check(req.EndAt.Equal(endAt), jc.IsTrue)
	c.Check(req.BatchID, gc.Equals, "batch-1")
	c.Check(req.StartNotifiedUsers, jc.DeepEquals, []string{"lina-id"})
	c.Check(req.StartNotifiedSender, jc.IsFalse)
	c.Check(req.ReceiverStartNotified(), jc.IsTrue)
}

func (s *StateSuite) TestLegacyStartNotifiedHonoured(c *gc.C) {
	s.addRequestDoc(c, bson.M{
		"_id":            "req-1",
		"sender-id":      "sender-1",
		"receiver-id":    "lina-id",
		"status":         "accepted",
		"start-notified": true,
	})
	req, err := s.st.TrackRequest("req-1")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(req.StartNotifiedSender, jc.IsTrue)
}

func (s *StateSuite) TestStartedRequests(c *gc.C) {
	now := s.clock.Now()
	s.addRequestDoc(c, bson.M{
		"_id": "req-a", "sender-id": "s", "receiver-id": "r",
		"status": "accepted", "start-at": now.Add(-time.Minute),
	})
	s.addRequestDoc(c, bson.M{
		"_id": "req-b", "sender-id": "s", "receiver-id": "r",
		"status": "accepted", "start-at": now.Add(time.Hour),
	})
	s.addRequestDoc(c, bson.M{
		"_id": "req-c", "sender-id": "s", "receiver-id": "r",
		"status": "pending", "start-at": now.Add(-time.Minute),
	})
	// Malformed: no receiver.
	s.addRequestDoc(c, bson.M{
		"_id": "req-d", "sender-id": "s",
		"status": "accepted", "start-at": now.Add(-time.Minute),
	})
	s.addRequestDoc(c, bson.M{
		"_id": "req-e", "sender-id": "s", "receiver-id": "r",
		"status": "accepted", "start-at": now,
	})

	requests, err := s.st.StartedRequests(now)
	c.Assert(err, jc.ErrorIsNil)
	ids := make([]string, len(requests))
	for i, req := range requests {
		ids[i] = req.ID
	}
	c.Check(ids, jc.DeepEquals, []string{"req-a", "req-e"})
}

func (s *StateSuite) TestAddNotificationAssignsIDAndTime(c *gc.C) {
	added, err := s.st.AddNotification(track.Notification{
		UserID: "lina-id",
		Type:   track.TypeTrackRequestRecord,
		Title:  "New Track Request",
		Body:   "Nadia wants to track your location",
	})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(added.ID, gc.Not(gc.Equals), "")
	c.Check(added.CreatedAt.Equal(s.clock.Now().UTC()), jc.IsTrue)
	c.Check(added.IsRead, jc.IsFalse)

	stored, err := s.st.Notifications("lina-id")
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(stored, gc.HasLen, 1)
	c.Check(stored[0].ID, gc.Equals, added.ID)
	c.Check(stored[0].Title, gc.Equals, "New Track Request")
	c.Check(stored[0].CreatedAt.Equal(added.CreatedAt), jc.IsTrue)
}

func (s *StateSuite) TestAddNotificationPreallocatedID(c *gc.C) {
	id := s.st.NewNotificationID()
	added, err := s.st.AddNotification(track.Notification{
		ID:     id,
		UserID: "sender-1",
		Type:   track.TypeTrackTerminated,
	})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(added.ID, gc.Equals, id)

	_, err = s.st.AddNotification(track.Notification{
		ID:     id,
		UserID: "sender-1",
		Type:   track.TypeTrackTerminated,
	})
	c.Check(err, jc.ErrorIs, errors.AlreadyExists)
}

func (s *StateSuite) TestNotificationsOldestFirst(c *gc.C) {
	first, err := s.st.AddNotification(track.Notification{UserID: "u", Type: track.TypeTrackStarted})
	c.Assert(err, jc.ErrorIsNil)
	s.clock.Advance(time.Minute)
	second, err := s.st.AddNotification(track.Notification{UserID: "u", Type: track.TypeTrackStarted})
	c.Assert(err, jc.ErrorIsNil)

	stored, err := s.st.Notifications("u")
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(stored, gc.HasLen, 2)
	c.Check(stored[0].ID, gc.Equals, first.ID)
	c.Check(stored[1].ID, gc.Equals, second.ID)
}

func (s *StateSuite) TestPushTargets(c *gc.C) {
	users := s.Session.DB(database).C("users")
	err := users.Insert(bson.M{"_id": "lina-id", "push-tokens": []string{"t1", "t2"}})
	c.Assert(err, jc.ErrorIsNil)
	err = users.Insert(bson.M{"_id": "tokenless"})
	c.Assert(err, jc.ErrorIsNil)

	targets, err := s.st.PushTargets("lina-id")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(targets, jc.DeepEquals, []string{"t1", "t2"})

	targets, err = s.st.PushTargets("tokenless")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(targets, gc.HasLen, 0)

	targets, err = s.st.PushTargets("missing")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(targets, gc.HasLen, 0)
}
