package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/YelzhanWeb/pos/internal/adapter/logger"
	"github.com/YelzhanWeb/pos/internal/adapter/memory"
	"github.com/YelzhanWeb/pos/internal/adapter/postgres"
	"github.com/YelzhanWeb/pos/internal/adapter/rabbitmq"
	"github.com/YelzhanWeb/pos/internal/adapter/realtime"
	"github.com/YelzhanWeb/pos/internal/app/auth"
	"github.com/YelzhanWeb/pos/internal/app/catalog"
	"github.com/YelzhanWeb/pos/internal/app/order"
	"github.com/YelzhanWeb/pos/internal/app/outbox"
	"github.com/YelzhanWeb/pos/internal/app/temporder"
	"github.com/YelzhanWeb/pos/internal/config"
	"github.com/YelzhanWeb/pos/internal/interfaces"

	amqpAdapter "github.com/YelzhanWeb/pos/internal/adapter/amqp"
	httpAdapter "github.com/YelzhanWeb/pos/internal/adapter/http"

	"github.com/spf13/pflag"
)

const modes = "api-server, outbox-dispatcher, notification-subscriber, migrate, create-user"

// backend is the opened store plus what is needed to release it.
type backend struct {
	store  interfaces.Store
	health func(ctx context.Context) error
	close  func()
}

func main() {
	flags := pflag.NewFlagSet("pos", pflag.ExitOnError)
	mode := flags.String("mode", "", "Service mode: "+modes)
	configPath := flags.String("config", "config.yaml", "Path to the YAML configuration file")
	port := flags.Int("port", 0, "HTTP port (overrides server.port)")
	username := flags.String("username", "", "Username (for create-user)")
	password := flags.String("password", "", "Password (for create-user)")
	flags.Parse(os.Args[1:])

	if *mode == "" {
		log.Fatalf("--mode flag is required (%s)", modes)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}

	ctx := context.Background()
	lgr := logger.New(*mode)

	switch *mode {
	case "api-server":
		runAPIServer(ctx, cfg, lgr, *username, *password)

	case "outbox-dispatcher":
		runOutboxDispatcher(ctx, cfg, lgr)

	case "notification-subscriber":
		runNotificationSubscriber(ctx, cfg, lgr)

	case "migrate":
		runMigrate(ctx, cfg, lgr)

	case "create-user":
		if *username == "" || *password == "" {
			log.Fatal("--username and --password are required for create-user mode")
		}
		runCreateUser(ctx, cfg, lgr, *username, *password)

	default:
		log.Fatalf("Invalid mode: %s", *mode)
	}
}

func openBackend(ctx context.Context, cfg *config.Config, lgr logger.Logger) backend {
	if cfg.Database.Driver == "memory" {
		lgr.Info("store_selected", "Using in-memory store", "startup", nil)
		return backend{store: memory.NewStore().Repositories(), close: func() {}}
	}

	db, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}

	lgr.Info("db_connected", "Connected to PostgreSQL database", "startup", map[string]interface{}{
		"host": cfg.Database.Host,
		"db":   cfg.Database.Database,
	})

	if cfg.Database.Migrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			log.Fatalf("Failed to apply schema: %v", err)
		}
		lgr.Info("schema_applied", "Database schema is up to date", "startup", nil)
	}

	return backend{store: postgres.NewStore(db), health: db.Ping, close: db.Close}
}

func connectRabbitMQ(cfg *config.Config, lgr logger.Logger) rabbitmq.Connection {
	mqConn, err := rabbitmq.Connect(cfg.RabbitMQ)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}

	lgr.Info("rabbitmq_connected", "Connected to RabbitMQ", "startup", map[string]interface{}{
		"host":     cfg.RabbitMQ.Host,
		"exchange": cfg.RabbitMQ.Exchange,
	})
	return mqConn
}

// waitForSignal blocks until SIGINT or SIGTERM.
func waitForSignal() {
	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
	<-sigint
}

func runAPIServer(ctx context.Context, cfg *config.Config, lgr logger.Logger, username, password string) {
	if cfg.Auth.JWTSecret == "" {
		log.Fatal("auth.jwt_secret (or JWT_SECRET) is required for api-server mode")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	be := openBackend(ctx, cfg, lgr)
	defer be.close()

	hub := realtime.NewHub(realtime.NewRegistry(), lgr)

	// Without the backplane the hub is the only delivery target. With it,
	// every instance relays the fanout exchange into its own hub.
	var publisher interfaces.EventPublisher = hub
	if cfg.RabbitMQ.Enabled {
		mqConn := connectRabbitMQ(cfg, lgr)
		defer mqConn.Close()

		publisher = rabbitmq.NewPublisher(mqConn, cfg.RabbitMQ.Exchange)
		consumer := rabbitmq.NewConsumer(mqConn, cfg.RabbitMQ.Exchange, lgr)
		relay := amqpAdapter.NewEventHandler(hub, lgr)
		go func() {
			if err := consumer.ConsumeEvents(ctx, relay.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
				lgr.Error("consumer_error", "Error consuming events", "runtime", nil, err)
			}
		}()
	}

	dispatcher := outbox.NewDispatcher(be.store, publisher, lgr, cfg.Outbox.BatchSize, cfg.Outbox.PollInterval)
	go dispatcher.Run(ctx)

	clock := interfaces.SystemClock{}
	authService := auth.NewService(be.store.Users, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, clock)
	if cfg.Database.Driver == "memory" && username != "" && password != "" {
		if _, err := authService.CreateUser(ctx, username, password); err != nil {
			log.Fatalf("Failed to seed user: %v", err)
		}
	}

	limiter := httpAdapter.NewRateLimiter(cfg.Intake.RatePerSecond, cfg.Intake.Burst)
	go limiter.Cleanup(ctx, 5*time.Minute, 30*time.Minute)

	handler := httpAdapter.NewRouter(httpAdapter.RouterDeps{
		Auth:          authService,
		Catalog:       catalog.NewService(be.store, dispatcher, clock, lgr),
		Orders:        order.NewService(be.store, dispatcher, clock, lgr, cfg.Workflow.DeliveryTableID),
		TempOrders:    temporder.NewService(be.store, dispatcher, clock, lgr, cfg.Workflow.DeliveryTableID),
		Realtime:      realtime.NewHandler(hub, cfg.Realtime, lgr),
		IntakeLimiter: limiter,
		StrictRoutes:  cfg.Auth.StrictRoutes,
		Health:        be.health,
		Logger:        lgr,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	lgr.Info("service_started", fmt.Sprintf("API server started on port %d", cfg.Server.Port), "startup", map[string]interface{}{
		"port":          cfg.Server.Port,
		"driver":        cfg.Database.Driver,
		"backplane":     cfg.RabbitMQ.Enabled,
		"strict_routes": cfg.Auth.StrictRoutes,
	})

	// Graceful shutdown
	go func() {
		waitForSignal()

		lgr.Info("shutdown_initiated", "Shutting down API server", "shutdown", nil)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			lgr.Error("shutdown_error", "Error during shutdown", "shutdown", nil, err)
		}
		cancel()
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		lgr.Error("server_error", "Server error", "runtime", nil, err)
	}
}

// runOutboxDispatcher drains the outbox into the backplane without serving
// HTTP. It relies on polling since no local commit can wake it.
func runOutboxDispatcher(ctx context.Context, cfg *config.Config, lgr logger.Logger) {
	if cfg.Database.Driver == "memory" || !cfg.RabbitMQ.Enabled {
		log.Fatal("outbox-dispatcher mode needs the postgres driver and rabbitmq.enabled")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	be := openBackend(ctx, cfg, lgr)
	defer be.close()

	mqConn := connectRabbitMQ(cfg, lgr)
	defer mqConn.Close()

	dispatcher := outbox.NewDispatcher(be.store, rabbitmq.NewPublisher(mqConn, cfg.RabbitMQ.Exchange), lgr,
		cfg.Outbox.BatchSize, cfg.Outbox.PollInterval)

	lgr.Info("service_started", "Outbox dispatcher started", "startup", map[string]interface{}{
		"batch_size":    cfg.Outbox.BatchSize,
		"poll_interval": cfg.Outbox.PollInterval.String(),
	})

	go dispatcher.Run(ctx)

	waitForSignal()
	lgr.Info("shutdown_initiated", "Shutting down outbox dispatcher", "shutdown", nil)
}

func runNotificationSubscriber(ctx context.Context, cfg *config.Config, lgr logger.Logger) {
	if !cfg.RabbitMQ.Enabled {
		log.Fatal("notification-subscriber mode needs rabbitmq.enabled")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	mqConn := connectRabbitMQ(cfg, lgr)
	defer mqConn.Close()

	consumer := rabbitmq.NewConsumer(mqConn, cfg.RabbitMQ.Exchange, lgr)
	notificationHandler := amqpAdapter.NewNotificationHandler(os.Stdout, lgr)

	lgr.Info("service_started", "Notification Subscriber started", "startup", nil)

	go func() {
		if err := consumer.ConsumeEvents(ctx, notificationHandler.HandleNotification); err != nil && !errors.Is(err, context.Canceled) {
			lgr.Error("consumer_error", "Error consuming notifications", "runtime", nil, err)
		}
	}()

	waitForSignal()
	lgr.Info("shutdown_initiated", "Shutting down Notification Subscriber", "shutdown", nil)
}

func runMigrate(ctx context.Context, cfg *config.Config, lgr logger.Logger) {
	if cfg.Database.Driver == "memory" {
		log.Fatal("migrate mode needs the postgres driver")
	}

	db, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}
	lgr.Info("schema_applied", "Database schema is up to date", "migrate", nil)
}

func runCreateUser(ctx context.Context, cfg *config.Config, lgr logger.Logger, username, password string) {
	if cfg.Database.Driver == "memory" {
		log.Fatal("create-user mode needs the postgres driver")
	}

	be := openBackend(ctx, cfg, lgr)
	defer be.close()

	authService := auth.NewService(be.store.Users, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, interfaces.SystemClock{})
	user, err := authService.CreateUser(ctx, username, password)
	if err != nil {
		lgr.Error("user_create_failed", "Failed to create user", "create-user", nil, err)
		os.Exit(1)
	}

	lgr.Info("user_created", fmt.Sprintf("User %s created", user.Username), "create-user", map[string]interface{}{
		"user_id": user.ID,
	})
}
