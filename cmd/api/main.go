package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"backend-dtg/internal/config"
	"backend-dtg/internal/dataset"
	"backend-dtg/internal/db"
	"backend-dtg/internal/server"
	"backend-dtg/internal/sink"
	"backend-dtg/internal/stream"
	"backend-dtg/internal/tracking"
	"backend-dtg/internal/trip"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gofiber/fiber/v2"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

var mainDepsProvider = defaultDeps
var mainRunner = realMain

func main() {
	mainRunner(mainDepsProvider())
}

type mainDeps struct {
	loadConfig   func() config.Config
	connectRedis func(config.Config) *redis.Client
	connectMQTT  func(config.Config) (mqtt.Client, error)
	connectAMQP  func(config.Config) (*amqp.Connection, error)
	notify       func(chan<- os.Signal, ...os.Signal)
	run          func(context.Context, config.Config, *redis.Client, mqtt.Client, *amqp.Connection, <-chan os.Signal, ListenFunc) error
}

func defaultDeps() mainDeps {
	return mainDeps{
		loadConfig:   config.Load,
		connectRedis: db.ConnectRedis,
		connectMQTT:  connectMQTT,
		connectAMQP:  connectAMQP,
		notify:       signal.Notify,
		run:          Run,
	}
}

func connectMQTT(cfg config.Config) (mqtt.Client, error) {
	if cfg.MQTTBroker == "" {
		return nil, nil
	}
	return sink.ConnectMQTT(cfg.MQTTBroker, cfg.MQTTClientID)
}

func connectAMQP(cfg config.Config) (*amqp.Connection, error) {
	if cfg.RabbitMQURL == "" {
		return nil, nil
	}
	return sink.ConnectAMQP(cfg.RabbitMQURL)
}

func realMain(deps mainDeps) {
	cfg := deps.loadConfig()

	rdb := deps.connectRedis(cfg)

	mqttClient, err := deps.connectMQTT(cfg)
	if err != nil {
		log.Printf("mqtt connection failed, telemetry feed disabled: %v", err)
	}
	amqpConn, err := deps.connectAMQP(cfg)
	if err != nil {
		log.Printf("rabbitmq connection failed, analytics feed disabled: %v", err)
	}

	signals := make(chan os.Signal, 1)
	deps.notify(signals, syscall.SIGINT, syscall.SIGTERM)

	if err := deps.run(context.Background(), cfg, rdb, mqttClient, amqpConn, signals, nil); err != nil {
		log.Printf("server exited with error: %v", err)
	}
}

type ListenFunc func(app *fiber.App, addr string) error

var defaultListen ListenFunc = func(app *fiber.App, addr string) error {
	return app.Listen(addr)
}

var shutdownFn = func(app *fiber.App, ctx context.Context) error {
	return app.ShutdownWithContext(ctx)
}

// Run wires the simulator together, starts the playback engine and the HTTP
// server, and waits for termination signals.
func Run(ctx context.Context, cfg config.Config, rdb *redis.Client, mqttClient mqtt.Client, amqpConn *amqp.Connection, signals <-chan os.Signal, listen ListenFunc) error {
	store := dataset.NewStore()
	reload := func() int { return dataset.LoadDir(store, cfg.CSVDir) }
	if cfg.CSVEnabled {
		reload()
	} else {
		log.Printf("csv replay disabled, running on synthetic data only")
	}

	sinkTimeout := time.Duration(cfg.SinkTimeoutMs) * time.Millisecond
	trackingClient := sink.NewTrackingClient(cfg.TrackingServiceURL, sinkTimeout)

	sinks := []sink.TelemetrySink{trackingClient}
	if mqttClient != nil {
		sinks = append(sinks, sink.NewMQTTPublisher(mqttClient, sinkTimeout))
	}

	var recorder sink.TripRecorder
	if amqpConn != nil {
		pub, err := sink.NewAnalyticsPublisher(amqpConn)
		if err != nil {
			log.Printf("analytics publisher unavailable: %v", err)
		} else {
			recorder = pub
		}
	}

	hub := stream.NewHub(rdb)
	registry := trip.NewRegistry()
	engine := tracking.NewEngine(registry, store, hub, trackingClient, sinks, recorder, tracking.Options{
		ReplayEnabled: cfg.CSVEnabled,
		TickInterval:  time.Duration(cfg.TickIntervalMs) * time.Millisecond,
		SinkTimeout:   sinkTimeout,
	})

	srv := server.NewServer(cfg, engine, store, hub, reload)

	engineCtx, stopEngine := context.WithCancel(ctx)
	defer stopEngine()
	go engine.Run(engineCtx)

	if listen == nil {
		listen = defaultListen
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- listen(srv.App, cfg.ServerPort)
	}()

	select {
	case <-signals:
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	stopEngine()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := shutdownFn(srv.App, shutdownCtx); err != nil {
		return err
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if mqttClient != nil {
		mqttClient.Disconnect(250)
	}
	if amqpConn != nil {
		_ = amqpConn.Close()
	}
	return nil
}
