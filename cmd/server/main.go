package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Niv-Kor/PlayerTwoServer/internal/catalog"
	"github.com/Niv-Kor/PlayerTwoServer/internal/config"
	"github.com/Niv-Kor/PlayerTwoServer/internal/console"
	"github.com/Niv-Kor/PlayerTwoServer/internal/events"
	"github.com/Niv-Kor/PlayerTwoServer/internal/matchmaking"
	"github.com/Niv-Kor/PlayerTwoServer/internal/server"
	"github.com/Niv-Kor/PlayerTwoServer/internal/transport"
	"github.com/rabbitmq/amqp091-go"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	if cfg.LogLevel == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))

	// Connect to RabbitMQ when a broker URL is configured

	var publisher server.Publisher = events.NoopPublisher{}
	if cfg.AMQPURL != "" {
		conn, err := amqp091.Dial(cfg.AMQPURL)
		if err != nil {
			logger.Error("Failed to connect to RabbitMQ", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer conn.Close()

		logger.Info("Connected to RabbitMQ", slog.String("url", cfg.AMQPURL))

		ch, err := conn.Channel()
		if err != nil {
			logger.Error("Failed to open the queue channel", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer ch.Close()

		pub, err := events.NewPublisher(ch)
		if err != nil {
			logger.Error("Failed to create event publisher", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if err := events.SetupMonitoringQueueBindings(ch); err != nil {
			logger.Error("Failed to set up monitoring queues", slog.String("error", err.Error()))
			os.Exit(1)
		}

		logger.Debug("Monitoring queues set up successfully")
		publisher = pub
	}

	listener, err := transport.Listen(cfg.ListenAddr)
	if err != nil {
		logger.Error("Failed to bind lobby listener", slog.String("error", err.Error()))
		os.Exit(1)
	}

	service := matchmaking.New(logger, catalog.Default())
	controller := server.NewController(logger, service, publisher, cfg.MaxClients, cfg.StartDelay)
	srv := server.New(logger, listener, controller)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := console.New(logger, os.Stdin, srv.Control()).Run(); err != nil {
			logger.Error("Console failed", slog.String("error", err.Error()))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("Received signal, shutting down...", slog.String("signal", sig.String()))
		cancel()
	}()

	logger.Info(
		"Starting game server...",
		slog.String("listen_addr", cfg.ListenAddr),
		slog.Int("max_clients", cfg.MaxClients),
	)
	if err := srv.Run(ctx); err != nil {
		logger.Error("Server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Service shutdown complete")
}
