package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/devconnect/devconnect/internal/config"
	"github.com/devconnect/devconnect/internal/worker"
	"github.com/devconnect/devconnect/pkg/database"
	"github.com/devconnect/devconnect/pkg/kafka"
)

func main() {
	cfg := config.LoadConfig()

	db, err := database.NewClients(cfg.Database.URL, cfg.Redis.Addr)
	if err != nil {
		slog.Error("Failed to initialize database clients", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("✅ Connected to databases")

	if err := db.CreateProfileTables(); err != nil {
		slog.Error("Failed to prepare schema", "error", err)
		os.Exit(1)
	}

	consumer, err := kafka.NewConsumer(cfg.Kafka.Broker, cfg.Kafka.Group)
	if err != nil {
		slog.Error("Failed to create Kafka consumer", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()
	slog.Info("✅ Connected to Kafka")

	w := worker.NewWorker(cfg, db, consumer)

	if err := w.Start(context.Background()); err != nil {
		slog.Error("Worker error", "error", err)
		os.Exit(1)
	}
}
