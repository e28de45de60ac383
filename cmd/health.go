package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/naughtygopher/proberesponder"
	"github.com/naughtygopher/proberesponder/extensions/depprober"

	"github.com/prashantkr001/items-crud/internal/pkg/kafka"
)

const (
	dependencyIDKafka    = "kafka"
	dependencyIDPostgres = "postgres"
)

func healthStatus( //nolint:ireturn // returning interface because that's what's exposed by the package
	delay time.Duration,
	pstatus *proberesponder.ProbeResponder,
	pool *pgxpool.Pool,
	kafkaCli *kafka.Kafka,
) depprober.Stopper {
	/*
		Regular pings keep one connection of the pool busy every interval, idle connections
		beyond MinConns are still released by the pool.
	*/
	probes := []depprober.Prober{
		&depprober.Probe{
			ID:               dependencyIDPostgres,
			AffectedStatuses: []proberesponder.Statuskey{proberesponder.StatusReady},
			Checker: depprober.CheckerFunc(func(ctx context.Context) error {
				return pool.Ping(ctx)
			}),
		},
	}

	// kafka is optional, the app is ready without it when it's disabled
	if kafkaCli != nil {
		probes = append(probes, &depprober.Probe{
			ID:               dependencyIDKafka,
			AffectedStatuses: []proberesponder.Statuskey{proberesponder.StatusReady},
			Checker: depprober.CheckerFunc(func(ctx context.Context) error {
				return kafkaCli.Ping(ctx)
			}),
		})
	}

	return depprober.Start(delay, pstatus, probes...)
}
