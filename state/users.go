// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package state

import (
	"github.com/juju/errors"
	"github.com/juju/mgo/v3"
)

// userDoc carries the only user fields the engine reads: the device
// tokens a push message is multicast to.
type userDoc struct {
	DocID      string   `bson:"_id"`
	PushTokens []string `bson:"push-tokens,omitempty"`
}

// PushTargets returns the user's current push targets. A missing user
// or a user with no registered devices resolves to no targets, which
// is a skip condition for callers, not an error.
func (st *State) PushTargets(userID string) ([]string, error) {
	var doc userDoc
	err := st.db.C(usersC).FindId(userID).One(&doc)
	if err == mgo.ErrNotFound {
		logger.Debugf("no user document for %q", userID)
		return nil, nil
	}
	if err != nil {
		return nil, errors.Annotatef(err, "reading push targets for user %q", userID)
	}
	return doc.PushTokens, nil
}
