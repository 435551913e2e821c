package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/robfig/cron/v3"

	areahandler "parkease/internal/areas/handler"
	arearepository "parkease/internal/areas/repository"
	areaservice "parkease/internal/areas/service"
	availabilityhandler "parkease/internal/availability/handler"
	availabilityservice "parkease/internal/availability/service"
	bookinghandler "parkease/internal/bookings/handler"
	bookingrepository "parkease/internal/bookings/repository"
	bookingservice "parkease/internal/bookings/service"
	"parkease/internal/events"
	eventhandler "parkease/internal/events/handler"
	lockhandler "parkease/internal/locks/handler"
	lockrepository "parkease/internal/locks/repository"
	lockservice "parkease/internal/locks/service"
	notificationhandler "parkease/internal/notifications/handler"
	notificationrepository "parkease/internal/notifications/repository"
	notificationservice "parkease/internal/notifications/service"
	"parkease/internal/pricing"
	"parkease/internal/sweeper"
	sweephandler "parkease/internal/sweeper/handler"
	"parkease/internal/timepolicy"
	"parkease/pkg/config"
	dbmongo "parkease/pkg/db/mongo"
	httpresponse "parkease/pkg/http"
	"parkease/pkg/kafka"
	kafka_config "parkease/pkg/kafka/config"
	"parkease/pkg/middleware"
)

// Application wires the reservation engine: repositories, services,
// handlers, the Kafka producer/relay pair, and the reconciliation cron.
type Application struct {
	cfg      *config.Config
	server   *http.Server
	cron     *cron.Cron
	producer *kafka.Producer
	consumer *kafka.Consumer
	hub      *events.Hub
}

func NewApplication(cfg *config.Config) (*Application, error) {
	log := cfg.Log
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading kafka config: %w", err)
	}
	producer, err := kafka.NewProducer(kafkaCfg, kafkaCfg.EventsTopic)
	if err != nil {
		return nil, fmt.Errorf("creating kafka producer: %w", err)
	}

	hub := events.NewHub()
	relay := events.NewRelay(hub, log)
	consumer, err := kafka.NewConsumer(kafkaCfg, kafkaCfg.EventsTopic, kafkaCfg.ConsumerGroup, relay.Handle)
	if err != nil {
		return nil, fmt.Errorf("creating kafka consumer: %w", err)
	}

	timePolicy := timepolicy.FromConfig(cfg)
	pricingPolicy := pricing.FromConfig(cfg)
	publisher := events.NewKafkaPublisher(producer, log)

	areaRepo := arearepository.NewAreaRepository(db)
	lockRepo := lockrepository.NewLockRepository(db)
	bookingRepo := bookingrepository.NewBookingRepository(db)
	notificationRepo := notificationrepository.NewNotificationRepository(db)

	txn := dbmongo.NewTransactionManager(cfg.Client.Mongo)
	areaSvc := areaservice.NewAreaService(areaRepo, txn, log)
	lockSvc := lockservice.NewLockService(lockRepo, timePolicy, log)
	notificationSvc := notificationservice.NewNotificationService(notificationRepo, publisher, log)
	availabilitySvc := availabilityservice.NewAvailabilityService(areaSvc, bookingRepo, lockSvc, log)
	bookingSvc := bookingservice.NewBookingService(
		bookingRepo, areaSvc, lockSvc, publisher, notificationSvc,
		pricingPolicy, timePolicy, log)

	router := httprouter.New()
	areahandler.NewAreaHandler(areaSvc, log).RegisterRoutes(router)
	lockhandler.NewLockHandler(lockSvc, log).RegisterRoutes(router)
	availabilityhandler.NewAvailabilityHandler(availabilitySvc, timePolicy, log).RegisterRoutes(router)
	bookinghandler.NewBookingHandler(bookingSvc, log).RegisterRoutes(router)
	notificationhandler.NewNotificationHandler(notificationSvc, log).RegisterRoutes(router)
	eventhandler.NewStreamHandler(hub, log).RegisterRoutes(router)
	router.HandlerFunc(http.MethodGet, "/health", healthCheck)

	sweep := sweeper.New(bookingRepo, areaSvc, lockSvc, notificationSvc, publisher,
		pricingPolicy, timePolicy, log)
	sweephandler.NewSweepHandler(sweep, log).RegisterRoutes(router)
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(fmt.Sprintf("@every %s", cfg.SweepInterval), func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
		defer cancel()
		sweep.Run(ctx)
	}); err != nil {
		return nil, fmt.Errorf("scheduling sweeper: %w", err)
	}

	handler := buildMiddleware(cfg, router)
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: cfg.ReadTimeout,
		IdleTimeout: cfg.IdleTimeout,
		// No WriteTimeout: event stream connections stay open for as long
		// as the client listens.
	}

	return &Application{
		cfg:      cfg,
		server:   server,
		cron:     scheduler,
		producer: producer,
		consumer: consumer,
		hub:      hub,
	}, nil
}

// buildMiddleware assembles the request pipeline. The health endpoint
// skips authentication, and the event stream skips the request timeout so
// long-lived connections survive.
func buildMiddleware(cfg *config.Config, router http.Handler) http.Handler {
	log := cfg.Log
	authenticate := middleware.Authenticate(cfg.JWTSecret, log)
	timeout := middleware.RequestTimeout(cfg.RequestTimeout)

	timed := timeout(router)
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/stream" {
			router.ServeHTTP(w, r)
			return
		}
		timed.ServeHTTP(w, r)
	})

	authed := authenticate(inner)
	withAuth := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			inner.ServeHTTP(w, r)
			return
		}
		authed.ServeHTTP(w, r)
	})

	return middleware.Recovery(log)(middleware.RequestLogging(log)(withAuth))
}

// Start runs the relay consumer, the sweeper schedule, and the HTTP
// server. It blocks until the server stops.
func (a *Application) Start(ctx context.Context) error {
	log := a.cfg.Log

	go func() {
		if err := a.consumer.Start(ctx); err != nil {
			log.Error("event relay consumer stopped", "error", err)
		}
	}()
	a.cron.Start()

	log.Info("server listening", "addr", a.server.Addr)
	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the intake surfaces first, then the background workers,
// then the broker connections.
func (a *Application) Shutdown(ctx context.Context) {
	log := a.cfg.Log

	if err := a.server.Shutdown(ctx); err != nil {
		log.Error("http server shutdown failed", "error", err)
	}
	<-a.cron.Stop().Done()

	if err := a.consumer.Close(); err != nil {
		log.Error("kafka consumer close failed", "error", err)
	}
	if err := a.producer.Close(); err != nil {
		log.Error("kafka producer close failed", "error", err)
	}
	a.cfg.GracefulShutdown()
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	httpresponse.WriteSuccess(w, map[string]string{"status": "ok"})
}
