package main

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/naughtygopher/proberesponder"
	proberespHTTP "github.com/naughtygopher/proberesponder/extensions/http"

	xhttp "github.com/prashantkr001/items-crud/cmd/server/http"
	kafkaSubs "github.com/prashantkr001/items-crud/cmd/subscriber/kafka"
	"github.com/prashantkr001/items-crud/internal/api"
	"github.com/prashantkr001/items-crud/internal/config"
	"github.com/prashantkr001/items-crud/internal/item"
	"github.com/prashantkr001/items-crud/internal/pkg/kafka"
	"github.com/prashantkr001/items-crud/internal/pkg/logger"
)

func startItemHTTPServer(
	ctx context.Context,
	pResp *proberesponder.ProbeResponder,
	fatalErr chan<- error,
	apis *api.API,
	cfg *xhttp.Config,
) (*xhttp.HTTP, error) { //nolint:unparam,nolintlint
	itemServer := xhttp.New(apis, cfg)
	go func() {
		defer logger.InfoCtx(ctx, fmt.Sprintf("[http] %s:%d shutdown complete", cfg.Host, cfg.Port))
		logger.InfoCtx(ctx, fmt.Sprintf("[http] listening on %s:%d", cfg.Host, cfg.Port))
		pResp.AppendHealthResponse(
			"http/itemserver",
			fmt.Sprintf("OK: %s", time.Now().Format(time.RFC3339)),
		)
		fatalErr <- itemServer.Start()
	}()

	return itemServer, nil
}

func startHealthResponder(
	ctx context.Context,
	ps *proberesponder.ProbeResponder,
	fatalErr chan<- error,
	port uint16,
) (*http.Server, error) { //nolint:unparam,nolintlint
	const defaultPort = uint16(2000)
	if port == 0 {
		port = defaultPort
	}

	srv := proberespHTTP.Server(ps, "", port)
	go func() {
		defer logger.InfoCtx(ctx, fmt.Sprintf("[http/healthresponder] :%d shutdown complete", port))
		logger.InfoCtx(ctx, fmt.Sprintf("[http/healthresponder] listening on :%d", port))
		fatalErr <- srv.ListenAndServe()
	}()
	return srv, nil
}

func startItemSubscriber(
	ctx context.Context,
	pResp *proberesponder.ProbeResponder,
	fatalErr chan<- error,
	kafkaClient *kafka.Kafka,
	apiService *api.API,
	cfg *kafkaSubs.Config,
) (*kafkaSubs.Kafka, error) {
	ksub, err := kafkaSubs.NewService(kafkaClient, apiService, cfg)
	if err != nil {
		return nil, err
	}

	go func() {
		logger.InfoCtx(
			ctx,
			fmt.Sprintf("[kafka] subscribing to topic(s): '%s'", cfg.TopicItemCreate),
		)
		pResp.AppendHealthResponse(
			"kafka/subscriber",
			fmt.Sprintf("OK: %s", time.Now().Format(time.RFC3339)),
		)
		fatalErr <- ksub.Subscribe(context.Background())
	}()

	return ksub, nil
}

func startServices(
	ctx context.Context,
	pResp *proberesponder.ProbeResponder,
	fatalErr chan<- error,
	cfg *config.Config,
	kafkaClient *kafka.Kafka,
	apiService *api.API,
) (ksub *kafkaSubs.Kafka, hserver *xhttp.HTTP, err error) {
	// the subscriber is started only if there's a consumer, i.e. kafka is enabled with topics
	if kafkaClient != nil {
		ksub, err = startItemSubscriber(
			ctx,
			pResp,
			fatalErr,
			kafkaClient,
			apiService,
			&kafkaSubs.Config{TopicItemCreate: cfg.Kafka.Topics[0]},
		)
		if err != nil {
			return nil, nil, err
		}
	}

	hConfig := xhttp.Config(cfg.HTTP)
	hConfig.EnableAccesslog = slices.Contains(
		[]string{config.EnvDevelopment, config.EnvCI},
		cfg.Environment,
	)
	hserver, err = startItemHTTPServer(ctx, pResp, fatalErr, apiService, &hConfig)
	if err != nil {
		return nil, nil, err
	}

	return ksub, hserver, nil
}

func start(
	ctx context.Context,
	cfg *config.Config,
	probestatus *proberesponder.ProbeResponder,
	fatalErr chan<- error,
) (
	deps *dependencies,
	hserver *xhttp.HTTP,
	ksub *kafkaSubs.Kafka,
) {
	err := initAPM(ctx, cfg)
	if err != nil {
		panic(err)
	}

	deps, err = initDependencies(ctx, cfg)
	if err != nil {
		panic(err)
	}

	itemPersistence, err := item.NewPostgresPersistentStore(deps.pool)
	if err != nil {
		panic(err)
	}

	// with a nil publisher, item events are discarded
	var itemPublisher interface {
		Publish(ctx context.Context, evt *item.Event) error
	}
	if deps.kafkaProducer != nil {
		itemPublisher, err = item.NewKafkaItemPublisher(deps.kafkaProducer, cfg.Kafka.PublishTopic)
		if err != nil {
			panic(err)
		}
		logger.InfoCtx(ctx, fmt.Sprintf("[kafka] publishing item events to '%s'", cfg.Kafka.PublishTopic))
	}

	itemService, err := item.NewService(itemPersistence, itemPublisher)
	if err != nil {
		panic(err)
	}

	apiService := api.NewService(itemService)

	ksub, hserver, err = startServices(
		ctx,
		probestatus,
		fatalErr,
		cfg,
		deps.kafkaConsumer,
		apiService,
	)
	if err != nil {
		panic(err)
	}

	return deps, hserver, ksub
}
