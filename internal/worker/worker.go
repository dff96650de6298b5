package worker

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/IBM/sarama"

	"github.com/devconnect/devconnect/internal/config"
	"github.com/devconnect/devconnect/internal/models"
	"github.com/devconnect/devconnect/pkg/database"
)

// Worker consumes profile change events and appends them to the audit table.
// It is decoupled from the API: the audit trail lagging or the worker crash
// looping never affects profile correctness.
type Worker struct {
	cfg      *config.Config
	db       *database.Clients
	consumer sarama.ConsumerGroup
	ready    chan bool
}

func NewWorker(cfg *config.Config, db *database.Clients, consumer sarama.ConsumerGroup) *Worker {
	return &Worker{
		cfg:      cfg,
		db:       db,
		consumer: consumer,
		ready:    make(chan bool),
	}
}

func (w *Worker) Start(ctx context.Context) error {
	topics := []string{w.cfg.Kafka.Topic}
	slog.Info("Starting audit worker", "topics", topics)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		for err := range w.consumer.Errors() {
			slog.Error("Kafka consumer error", "error", err)
		}
	}()

	go func() {
		for {
			if err := w.consumer.Consume(ctx, topics, w); err != nil {
				slog.Error("Consumer session failed", "error", err)
			}
			if ctx.Err() != nil {
				return
			}
			// New session after a rebalance; reset readiness.
			w.ready = make(chan bool)
		}
	}()

	<-w.ready
	slog.Info("Audit worker ready")

	select {
	case sig := <-sigChan:
		slog.Info("Received shutdown signal", "signal", sig)
	case <-ctx.Done():
		slog.Info("Context cancelled; shutting down worker")
	}

	return nil
}

// Setup is run at the beginning of a new consumer group session.
func (w *Worker) Setup(sarama.ConsumerGroupSession) error {
	close(w.ready)
	return nil
}

// Cleanup is run at the end of a session.
func (w *Worker) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim records every change event; a bad message is logged and
// skipped so one malformed payload cannot wedge the partition.
func (w *Worker) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		if err := w.recordEvent(message.Value); err != nil {
			slog.Error("Failed to record change event", "offset", message.Offset, "error", err)
		}
		session.MarkMessage(message, "")
	}
	return nil
}

func (w *Worker) recordEvent(payload []byte) error {
	var evt models.ChangeEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return fmt.Errorf("failed to decode change event: %w", err)
	}

	var profileID sql.NullString
	if evt.ProfileID != "" {
		profileID = sql.NullString{String: evt.ProfileID, Valid: true}
	}

	_, err := w.db.DB.Exec(
		`INSERT INTO profile_audit (event_type, user_id, profile_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		evt.Type, evt.UserID, profileID, payload, evt.At,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit row: %w", err)
	}
	return nil
}
