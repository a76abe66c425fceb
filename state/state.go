// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package state persists track requests and notifications in MongoDB.
// All multi-record writes go through a transaction runner so that an
// invocation's staged side effects commit atomically or not at all.
package state

import (
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"github.com/juju/mgo/v3"
	jujutxn "github.com/juju/txn/v3"
)

var logger = loggo.GetLogger("tracknotify.state")

const (
	trackRequestsC = "trackrequests"
	notificationsC = "notifications"
	usersC         = "users"
)

// Params holds everything needed to construct a State.
type Params struct {
	// Session is an established mongo session; State copies it and
	// owns the copy.
	Session *mgo.Session

	// Database names the database holding the collections.
	Database string

	// Clock supplies creation timestamps for notification records.
	Clock clock.Clock
}

// Validate returns an error if the params cannot produce a State.
func (p Params) Validate() error {
	if p.Session == nil {
		return errors.NotValidf("nil Session")
	}
	if p.Database == "" {
		return errors.NotValidf("empty Database")
	}
	if p.Clock == nil {
		return errors.NotValidf("nil Clock")
	}
	return nil
}

// State exposes the track request and notification collections.
type State struct {
	session *mgo.Session
	db      *mgo.Database
	runner  jujutxn.Runner
	clock   clock.Clock
}

// New returns a State backed by the given session, ensuring the
// indexes the sweep query depends on.
func New(p Params) (*State, error) {
	if err := p.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	session := p.Session.Copy()
	db := session.DB(p.Database)
	st := &State{
		session: session,
		db:      db,
		runner:  jujutxn.NewRunner(jujutxn.RunnerParams{Database: db}),
		clock:   p.Clock,
	}
	if err := st.ensureIndexes(); err != nil {
		session.Close()
		return nil, errors.Annotate(err, "ensuring indexes")
	}
	return st, nil
}

// Close releases the mongo session.
func (st *State) Close() error {
	st.session.Close()
	return nil
}

func (st *State) ensureIndexes() error {
	indexes := []struct {
		collection string
		index      mgo.Index
	}{{
		trackRequestsC, mgo.Index{Key: []string{"status", "start-at"}},
	}, {
		notificationsC, mgo.Index{Key: []string{"user-id", "created-at"}},
	}}
	for _, idx := range indexes {
		if err := st.db.C(idx.collection).EnsureIndex(idx.index); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// run executes a transaction source against the store's runner.
func (st *State) run(buildTxn jujutxn.TransactionSource) error {
	return st.runner.Run(buildTxn)
}
