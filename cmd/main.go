// Package main starts the items service. It reads the config, initializes all the
// dependencies (Postgres, Kafka, APM) and starts the HTTP server & Kafka subscriber.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/naughtygopher/errors"
	"github.com/naughtygopher/proberesponder"

	"github.com/prashantkr001/items-crud/internal/config"
	"github.com/prashantkr001/items-crud/internal/pkg/apm"
	"github.com/prashantkr001/items-crud/internal/pkg/logger"
	"github.com/prashantkr001/items-crud/internal/pkg/sysignals"
)

// recoverer is used for panic recovery of the application (note: this is not for the HTTP server).
// So that even if the main function panics we can produce required logs for troubleshooting.
var errExit error

func recoverer() {
	exitCode := 0
	var exitInfo any
	rec := recover()
	err, _ := rec.(error)
	switch {
	case err != nil:
		exitCode = 1
		exitInfo = err
	case rec != nil:
		exitCode = 2
		exitInfo = rec
	case errExit != nil:
		exitCode = 3
		exitInfo = errExit
	default:
		break
	}

	// exiting after receiving a quit signal can be considered a *clean/successful* exit
	if errors.Is(errExit, sysignals.ErrSigQuit) {
		exitCode = 0
	}

	// the "listening on" logs say when servers start, this says when the app stops
	if exitCode == 0 {
		logger.Info(fmt.Sprintf("shutdown complete: %+v", exitInfo))
	} else {
		logger.Error(fmt.Sprintf("shutdown complete (exit: %d): %+v", exitCode, exitInfo))
	}

	os.Exit(exitCode)
}

func main() {
	defer recoverer()

	var (
		ctx      = context.Background()
		fatalErr = make(chan error, 1)
		// by default all probe responses are negative.
		probestatus = proberesponder.New()
	)

	go sysignals.NotifyErrorOnQuit(fatalErr)

	cfg, err := config.Load(".", "config")
	if err != nil {
		panic(err)
	}

	healthResponder, err := startHealthResponder(ctx, probestatus, fatalErr, cfg.HealthPort)
	if err != nil {
		panic(err)
	}
	ctx = context.WithValue(ctx, CtxKeyEnv, cfg.Environment)

	probestatus.AppendHealthResponse("app->version", cfg.AppFullname())
	probestatus.AppendHealthResponse("app->built", cfg.AppBuildDate)

	initLogger(cfg)

	deps, hserver, ksub := start(ctx, cfg, probestatus, fatalErr)

	const probeInterval = time.Second * 30
	var depProbeStopper = healthStatus(
		probeInterval,
		probestatus,
		deps.pool,
		deps.kafkaProducer,
	)

	defer func() {
		// probestatus update should be done as soon as the service is shutting down for any reason.
		// set the service as Not ready as soon as it's exiting main
		probestatus.SetNotReady(true)
		probestatus.SetNotStarted(true)
		probestatus.SetNotLive(true)

		depProbeStopper.Stop()

		probestatus.AppendHealthResponse(
			"shutdown",
			fmt.Sprintf("initiated: %s", time.Now().Format(time.RFC3339)),
		)

		/*
			Readiness is set to "not ready" before anything is shut down, so the orchestrator stops
			routing new traffic here. The pause has to be longer than the readiness probe interval,
			otherwise requests routed before the probe notices would be rejected.
		*/
		time.Sleep(cfg.ShutdownDelay)

		logger.Info("initiating shutdown")
		shutdown(
			probestatus,
			healthResponder,
			hserver,
			ksub,
			deps,
			apm.Global(),
		)
	}()

	// by now all the intended servers, subscribers etc. are up and running.
	probestatus.SetNotStarted(false)
	probestatus.SetNotReady(false)
	probestatus.SetNotLive(false)

	errExit = <-fatalErr
}
