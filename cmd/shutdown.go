package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/naughtygopher/proberesponder"
	"golang.org/x/sync/errgroup"

	xhttp "github.com/prashantkr001/items-crud/cmd/server/http"
	kafkaSubs "github.com/prashantkr001/items-crud/cmd/subscriber/kafka"
	"github.com/prashantkr001/items-crud/internal/pkg/apm"
	"github.com/prashantkr001/items-crud/internal/pkg/logger"
)

// shutdownStep runs fn, recording on the health response when it started and completed.
// Errors are only logged, so that one failing step does not prevent the rest from running.
func shutdownStep(
	egroup *errgroup.Group,
	pResp *proberesponder.ProbeResponder,
	name string,
	fn func() error,
) {
	key := fmt.Sprintf("shutdown/%s", name)
	egroup.Go(func() error {
		pResp.AppendHealthResponse(key, fmt.Sprintf("initiated %s", time.Now().Format(time.RFC3339)))
		defer func() {
			pResp.AppendHealthResponse(key, fmt.Sprintf("completed %s", time.Now().Format(time.RFC3339)))
		}()

		err := fn()
		if err != nil {
			logger.ErrWithStacktrace(err)
		}
		return nil
	})
}

func shutdown(
	pResp *proberesponder.ProbeResponder,
	healthResp *http.Server,
	httpServer *xhttp.HTTP,
	ksub *kafkaSubs.Kafka,
	deps *dependencies,
	apmHandler *apm.APM,
) {
	// the time should be decided based on the grace period allowed for shutdown
	// ref: terminationGracePeriodSeconds, https://kubernetes.io/docs/concepts/containers/container-lifecycle-hooks/
	const shutdownTimeout = time.Second * 60
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	/*
		The health endpoint is kept available till the very end, so the probes have as much
		context as possible during the graceful shutdown period. It's an independent server
		for this reason.
	*/
	defer func() {
		_ = healthResp.Shutdown(ctx)
	}()

	shutdownAPIs(ctx, pResp, httpServer, ksub)

	// dependencies are closed only after all the APIs are completely shutdown, since
	// in-flight requests would still be using them
	shutdownDependencies(ctx, pResp, deps, apmHandler)
}

func shutdownAPIs(
	ctx context.Context,
	pResp *proberesponder.ProbeResponder,
	httpServer *xhttp.HTTP,
	ksub *kafkaSubs.Kafka,
) {
	egroup := &errgroup.Group{}

	shutdownStep(egroup, pResp, "http-itemserver", func() error {
		return httpServer.Shutdown(ctx)
	})

	if ksub != nil {
		shutdownStep(egroup, pResp, "kafka-subscriber", func() error {
			return ksub.Shutdown(ctx)
		})
	}

	_ = egroup.Wait()
}

func shutdownDependencies(
	ctx context.Context,
	pResp *proberesponder.ProbeResponder,
	deps *dependencies,
	apmHandler *apm.APM,
) {
	egroup := &errgroup.Group{}

	shutdownStep(egroup, pResp, "postgres", func() error {
		deps.pool.Close()
		return nil
	})

	if deps.kafkaProducer != nil {
		shutdownStep(egroup, pResp, "kafka-producer", func() error {
			return deps.kafkaProducer.Shutdown(ctx)
		})
	}

	shutdownStep(egroup, pResp, "apm-server", func() error {
		return apmHandler.Shutdown(ctx)
	})

	_ = egroup.Wait()
}
