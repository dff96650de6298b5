package main

import (
	"log/slog"
	"os"

	"github.com/devconnect/devconnect/internal/api"
	"github.com/devconnect/devconnect/internal/config"
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

	producer, err := kafka.NewProducer(cfg.Kafka.Broker, cfg.Kafka.RetryMax, cfg.Kafka.RetryBackoff)
	if err != nil {
		slog.Error("Failed to create Kafka producer", "error", err)
		os.Exit(1)
	}
	defer producer.Close()
	slog.Info("✅ Connected to Kafka")

	server := api.NewServer(cfg, db, producer)
	if err := server.Start(); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
}
