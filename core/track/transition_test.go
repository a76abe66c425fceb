// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package track_test

import (
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/juju/tracknotify/core/track"
)

type TransitionSuite struct{}

var _ = gc.Suite(&TransitionSuite{})

func request(status track.Status) track.TrackRequest {
	return track.TrackRequest{
		ID:           "req-1",
		SenderID:     "sender-1",
		ReceiverID:   "receiver-1",
		SenderName:   "Nadia",
		ReceiverName: "Lina",
		Status:       status,
	}
}

func (*TransitionSuite) TestAccepted(c *gc.C) {
	event, ok := track.Transition(request(track.Pending), request(track.Accepted))
	c.Assert(ok, jc.IsTrue)
	c.Check(event, jc.DeepEquals, track.TransitionEvent{
		To:          track.Accepted,
		RecipientID: "sender-1",
		PushType:    track.TypeTrackAccepted,
		RecordType:  track.TypeTrackAccepted,
		PushTitle:   "Tracking Request Accepted",
		RecordTitle: "Track Request Accepted",
		Body:        "Lina accepted your tracking request",
	})
}

func (*TransitionSuite) TestDeclined(c *gc.C) {
	event, ok := track.Transition(request(track.Pending), request(track.Declined))
	c.Assert(ok, jc.IsTrue)
	c.Check(event.PushType, gc.Equals, track.TypeTrackDeclined)
	c.Check(event.RecordType, gc.Equals, track.TypeTrackRejected)
	c.Check(event.PushTitle, gc.Equals, "Tracking Request Declined")
	c.Check(event.RecordTitle, gc.Equals, "Track Request Declined")
	c.Check(event.Body, gc.Equals, "Lina declined your tracking request")
	c.Check(event.FreshCorrelationID, jc.IsFalse)
}

func (*TransitionSuite) TestTerminated(c *gc.C) {
	event, ok := track.Transition(request(track.Accepted), request(track.Terminated))
	c.Assert(ok, jc.IsTrue)
	c.Check(event.PushType, gc.Equals, track.TypeTrackTerminated)
	c.Check(event.RecordType, gc.Equals, track.TypeTrackTerminated)
	c.Check(event.PushTitle, gc.Equals, "Tracking Request Terminated")
	c.Check(event.RecordTitle, gc.Equals, "Tracking Request Terminated")
	c.Check(event.Body, gc.Equals, "Lina stopped sharing the location with you")
	c.Check(event.FreshCorrelationID, jc.IsTrue)
}

func (*TransitionSuite) TestUnchangedStatusIsNoop(c *gc.C) {
	for i, status := range []track.Status{
		track.Pending, track.Accepted, track.Declined, track.Terminated,
	} {
		c.Logf("test %d: %s", i, status)
		_, ok := track.Transition(request(status), request(status))
		c.Check(ok, jc.IsFalse)
	}
}

func (*TransitionSuite) TestInvalidEdgesAreNoops(c *gc.C) {
	for i, t := range []struct {
		from, to track.Status
	}{
		{track.Pending, track.Terminated},
		{track.Accepted, track.Pending},
		{track.Accepted, track.Declined},
		{track.Declined, track.Accepted},
		{track.Terminated, track.Pending},
	} {
		c.Logf("test %d: %s -> %s", i, t.from, t.to)
		_, ok := track.Transition(request(t.from), request(t.to))
		c.Check(ok, jc.IsFalse)
	}
}

func (*TransitionSuite) TestMissingSenderIsNoop(c *gc.C) {
	before := request(track.Pending)
	after := request(track.Accepted)
	before.SenderID = ""
	after.SenderID = ""
	_, ok := track.Transition(before, after)
	c.Check(ok, jc.IsFalse)
}

func (*TransitionSuite) TestBlankReceiverNameFallsBack(c *gc.C) {
	before := request(track.Pending)
	after := request(track.Accepted)
	before.ReceiverName = "   "
	after.ReceiverName = "   "
	event, ok := track.Transition(before, after)
	c.Assert(ok, jc.IsTrue)
	c.Check(event.Body, gc.Equals, "Someone accepted your tracking request")
}
