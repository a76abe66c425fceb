// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package track_test

import (
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/juju/tracknotify/core/track"
)

type StatusSuite struct{}

var _ = gc.Suite(&StatusSuite{})

func (*StatusSuite) TestValidateValid(c *gc.C) {
	for i, status := range []track.Status{
		track.Pending, track.Accepted, track.Declined, track.Terminated,
	} {
		c.Logf("test %d: %s", i, status)
		c.Check(status.Validate(), jc.ErrorIsNil)
	}
}

func (*StatusSuite) TestValidateInvalid(c *gc.C) {
	for i, status := range []track.Status{
		"", "bad", "Pending", " accepted", "accepted ",
	} {
		c.Logf("test %d: %q", i, status)
		c.Check(status.Validate(), gc.ErrorMatches, `status ".*" not valid`)
	}
}

func (*StatusSuite) TestValidTransitions(c *gc.C) {
	for i, t := range []struct {
		from, to track.Status
	}{
		{track.Pending, track.Accepted},
		{track.Pending, track.Declined},
		{track.Accepted, track.Terminated},
	} {
		c.Logf("test %d: %s -> %s", i, t.from, t.to)
		c.Check(track.ValidTransition(t.from, t.to), jc.IsTrue)
	}
}

func (*StatusSuite) TestInvalidTransitions(c *gc.C) {
	for i, t := range []struct {
		from, to track.Status
	}{
		{track.Pending, track.Pending},
		{track.Pending, track.Terminated},
		{track.Accepted, track.Accepted},
		{track.Accepted, track.Pending},
		{track.Accepted, track.Declined},
		{track.Declined, track.Accepted},
		{track.Declined, track.Terminated},
		{track.Terminated, track.Accepted},
		{track.Terminated, track.Pending},
		{"", track.Accepted},
		{track.Pending, ""},
	} {
		c.Logf("test %d: %s -> %s", i, t.from, t.to)
		c.Check(track.ValidTransition(t.from, t.to), jc.IsFalse)
	}
}
