package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"github.com/ukydev/fleet-compliance/internal/config"
	"github.com/ukydev/fleet-compliance/internal/db"
	"github.com/ukydev/fleet-compliance/internal/fleet"
	"github.com/ukydev/fleet-compliance/internal/handlers"
	"github.com/ukydev/fleet-compliance/internal/middleware"
	"github.com/ukydev/fleet-compliance/internal/notify"
)

const shutdownTimeout = 5 * time.Second

func configureLogging(cfg config.LogConfig) error {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	log.SetLevel(level)
	switch cfg.Format {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	case "", "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("log.format must be text or json, got %q", cfg.Format)
	}
	return nil
}

// buildService wires persistence and event publishing according to cfg and
// restores persisted state. The returned cleanup releases both.
func buildService(ctx context.Context, cfg config.Config) (*fleet.Service, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	opts := []fleet.Option{
		fleet.WithHeuristics(cfg.Heuristics),
		fleet.WithCacheTTL(cfg.Cache.TTL),
	}

	if cfg.Mongo.URI != "" {
		client, err := db.ConnectMongo(ctx, cfg.Mongo.URI)
		if err != nil {
			return nil, cleanup, fmt.Errorf("connect mongo: %w", err)
		}
		cleanups = append(cleanups, func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.WithError(err).Warn("Failed to disconnect from MongoDB")
			}
		})
		opts = append(opts, fleet.WithStore(db.NewMongoStore(client, cfg.Mongo.DBName)))
		log.WithField("db", cfg.Mongo.DBName).Info("Connected to MongoDB")
	} else {
		log.Warn("mongo.uri not set, state is kept in memory only")
	}

	var publisher notify.Publisher = notify.NopPublisher{}
	if cfg.MQTT.Broker != "" {
		p, err := notify.NewMQTTPublisher(notify.MQTTConfig{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
			QoS:      byte(cfg.MQTT.QoS),
		})
		if err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("connect mqtt: %w", err)
		}
		cleanups = append(cleanups, p.Close)
		publisher = p
	} else {
		log.Warn("mqtt.broker not set, events are dropped")
	}
	opts = append(opts, fleet.WithPublisher(publisher, notify.Topics{Prefix: cfg.MQTT.TopicPrefix}))

	svc := fleet.NewService(opts...)
	if err := svc.Restore(ctx); err != nil {
		cleanup()
		return nil, func() {}, fmt.Errorf("restore state: %w", err)
	}
	return svc, cleanup, nil
}

func newServer(cfg config.Config, svc *fleet.Service, limiter *middleware.RateLimitMiddleware) *http.Server {
	router := handlers.NewRouter(svc, handlers.RouterOptions{
		RateLimit: limiter.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window()),
	})
	return &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// sweepLoop drops idle rate limit entries once per window until ctx ends.
func sweepLoop(ctx context.Context, limiter *middleware.RateLimitMiddleware, window time.Duration) {
	ticker := time.NewTicker(window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := limiter.Sweep(window); n > 0 {
				log.WithField("clients", n).Debug("Rate limit entries swept")
			}
		}
	}
}

// serve runs srv until ctx is cancelled, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	svc, cleanup, err := buildService(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	limiter := middleware.NewRateLimitMiddleware()
	go sweepLoop(ctx, limiter, cfg.RateLimit.Window())

	srv := newServer(cfg, svc, limiter)
	log.WithFields(log.Fields{
		"addr":       srv.Addr,
		"rate_limit": cfg.RateLimit.Requests,
		"window":     cfg.RateLimit.Window(),
	}).Info("HTTP server listening")
	return serve(ctx, srv)
}

func main() {
	configPath := flag.String("config", ".", "directory holding config.yaml and .env")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg.Log); err != nil {
		log.WithError(err).Fatal("Invalid logging configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.WithError(err).Fatal("Server stopped")
	}
	log.Info("Server stopped")
}
