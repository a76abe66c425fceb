// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// tracknotifyd hosts the track request notification dispatch engine:
// the event-driven creation/transition dispatcher and the periodic
// start sweep, sharing one mongo-backed state and one push gateway
// client. The ingest layer that writes request documents runs
// elsewhere and publishes change events on this process's hub.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"github.com/juju/loggo/v2"
	"github.com/juju/mgo/v3"
	"github.com/juju/pubsub/v2"
	"github.com/juju/worker/v4"

	"github.com/juju/tracknotify/internal/pushgateway"
	"github.com/juju/tracknotify/internal/worker/dispatcher"
	"github.com/juju/tracknotify/internal/worker/startsweep"
	"github.com/juju/tracknotify/state"
)

var logger = loggo.GetLogger("tracknotify.cmd")

const dialTimeout = 30 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "tracknotifyd: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var (
		mongoURL       string
		database       string
		pushGatewayURL string
		sweepInterval  time.Duration
		loggingConfig  string
	)
	flags := gnuflag.NewFlagSet("tracknotifyd", gnuflag.ExitOnError)
	flags.StringVar(&mongoURL, "mongo-url", "localhost:27017", "address of the mongo server")
	flags.StringVar(&database, "database", "tracknotify", "mongo database name")
	flags.StringVar(&pushGatewayURL, "push-gateway-url", "http://localhost:8800", "base URL of the push delivery gateway")
	flags.DurationVar(&sweepInterval, "sweep-interval", startsweep.DefaultPeriod, "how often the start sweep runs")
	flags.StringVar(&loggingConfig, "logging-config", "<root>=INFO", "loggo configuration string")
	if err := flags.Parse(true, args); err != nil {
		return errors.Trace(err)
	}
	if err := loggo.ConfigureLoggers(loggingConfig); err != nil {
		return errors.Annotate(err, "configuring logging")
	}

	session, err := mgo.DialWithTimeout(mongoURL, dialTimeout)
	if err != nil {
		return errors.Annotatef(err, "dialing mongo at %q", mongoURL)
	}
	defer session.Close()

	st, err := state.New(state.Params{
		Session:  session,
		Database: database,
		Clock:    clock.WallClock,
	})
	if err != nil {
		return errors.Trace(err)
	}
	defer func() { _ = st.Close() }()

	notifier := pushgateway.NewClient(pushGatewayURL)
	hub := pubsub.NewSimpleHub(&pubsub.SimpleHubConfig{
		Logger: loggo.GetLogger("tracknotify.hub"),
	})

	dispatchWorker, err := dispatcher.NewWorker(dispatcher.Config{
		Hub:      hub,
		Store:    st,
		Resolver: st,
		Notifier: notifier,
		Logger:   loggo.GetLogger("tracknotify.dispatcher"),
	})
	if err != nil {
		return errors.Annotate(err, "starting dispatcher")
	}
	sweepWorker, err := startsweep.NewWorker(startsweep.Config{
		Store:    st,
		Resolver: st,
		Notifier: notifier,
		Clock:    clock.WallClock,
		Logger:   loggo.GetLogger("tracknotify.startsweep"),
		Period:   sweepInterval,
	})
	if err != nil {
		dispatchWorker.Kill()
		_ = dispatchWorker.Wait()
		return errors.Annotate(err, "starting start sweep")
	}

	logger.Infof("tracknotifyd started; sweeping every %s", sweepInterval)
	return waitAny(dispatchWorker, sweepWorker)
}

// waitAny blocks until a signal arrives or a worker dies, then stops
// everything and reports the first failure.
func waitAny(workers ...worker.Worker) error {
	done := make(chan error, len(workers))
	for _, w := range workers {
		w := w
		go func() { done <- w.Wait() }()
	}
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	var first error
	remaining := len(workers)
	select {
	case sig := <-signals:
		logger.Infof("received %s, shutting down", sig)
	case first = <-done:
		remaining--
	}
	for _, w := range workers {
		w.Kill()
	}
	for ; remaining > 0; remaining-- {
		if err := <-done; err != nil && first == nil {
			first = err
		}
	}
	return errors.Trace(first)
}
