package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"airwatch-server/internal/config"
	"airwatch-server/internal/db"
	"airwatch-server/internal/httpapi"
	"airwatch-server/internal/location"
	"airwatch-server/internal/migrate"
	"airwatch-server/internal/modules/airquality"
	"airwatch-server/internal/modules/airquality/controller"
	"airwatch-server/internal/modules/airquality/repository"
	"airwatch-server/internal/modules/airquality/service"
	"airwatch-server/internal/modules/airquality/views"
	"airwatch-server/internal/mqtt"
	"airwatch-server/internal/render/projection"
	"airwatch-server/internal/scheduler"
)

func Run(ctx context.Context, cfg config.Config) error {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"staticDir", cfg.StaticDir,
		"dbDriver", cfg.Driver,
		"sqlitePath", cfg.Path,
		"dbMaxOpenConns", cfg.MaxOpenConns,
		"dbLogSQL", cfg.LogSQL,
		"mqttBroker", cfg.MQTTBroker,
		"mqttPort", cfg.MQTTPort,
		"mqttTopic", cfg.MQTTTopic,
		"mqttPublishTopic", cfg.MQTTPublishTopic,
		"fetchInterval", cfg.FetchInterval,
		"historySize", cfg.HistorySize,
		"scheduling", cfg.Scheduling,
	)

	dbConn, err := db.Open(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(dbConn); closeErr != nil {
			slog.Error("db close", "error", closeErr)
		}
	}()

	applied, err := migrate.Run(ctx, dbConn)
	if err != nil {
		return err
	}
	slog.Info("database ready", "migrations_applied", applied)

	if err := views.LoadTemplates(); err != nil {
		return err
	}

	strategy, err := scheduler.DetectRuntime(cfg.Scheduling)
	if err != nil {
		return err
	}
	sched := scheduler.New(strategy, slog.Default())
	defer sched.Close()
	slog.Info("scheduling strategy selected", "strategy", strategy.String())

	tracker := location.NewTracker(projection.GeoPoint{Lat: cfg.DefaultLat, Lng: cfg.DefaultLng}, cfg.LocationThrottle)
	svc := service.NewService(
		repository.NewRepository(dbConn),
		service.NewSimulator(cfg.SimSeed, cfg.StationCount),
		tracker,
		sched,
		service.Options{
			HistorySize:    cfg.HistorySize,
			NearbyRadiusKm: cfg.NearbyRadiusKm,
			Logger:         slog.Default(),
		},
	)
	if err := svc.Load(ctx); err != nil {
		return err
	}

	var subscriber *mqtt.Subscriber
	var publisher *mqtt.Publisher
	var checks []httpapi.Check
	if cfg.MQTTEnabled() {
		subscriber = mqtt.NewSubscriber(cfg, slog.Default())
		checks = append(checks, httpapi.Check{Name: "mqtt", Healthy: subscriber.IsConnected})
	}

	mux := httpapi.NewMux(dbConn, cfg.StaticDir, checks...)
	frames := controller.FrameOptions{
		MapWidth:    cfg.MapWidth,
		MapHeight:   cfg.MapHeight,
		ChartWidth:  cfg.ChartWidth,
		ChartHeight: cfg.ChartHeight,
		HistorySize: cfg.HistorySize,
	}

	// The handler is attached before Connect so messages queued by the broker
	// right after CONNACK are not dropped.
	if subscriber != nil {
		airquality.RegisterFeature(mux, svc, frames, subscriber)

		connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
		if err := subscriber.Connect(connectCtx); err != nil {
			slog.Warn("mqtt connection failed (continuing without mqtt)", "error", err)
		}
		connectCancel()

		if cfg.MQTTPublishTopic != "" {
			publisher = mqtt.NewPublisher(cfg, slog.Default())
			connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
			if err := publisher.Connect(connectCtx); err != nil {
				slog.Warn("mqtt publisher connection failed (readings will not be published)", "error", err)
			}
			connectCancel()
			svc.SetPublisher(publisher)
		}
	} else {
		airquality.RegisterFeature(mux, svc, frames, nil)
		slog.Info("mqtt disabled (MQTT_BROKER not set)")
	}

	loopCtx, stopLoop := context.WithCancel(ctx)
	defer stopLoop()
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		if err := svc.Run(loopCtx, cfg.FetchInterval); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("acquisition loop stopped", "error", err)
		}
	}()

	srv := httpapi.NewServer(cfg, mux, slog.Default())

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		stopLoop()
		<-loopDone
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stopLoop()
	<-loopDone

	if subscriber != nil {
		slog.Info("mqtt disconnecting")
		subscriber.Disconnect()
	}
	if publisher != nil {
		publisher.Disconnect()
	}

	slog.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}
