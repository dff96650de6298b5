package worker

import (
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devconnect/devconnect/internal/config"
	"github.com/devconnect/devconnect/internal/models"
	"github.com/devconnect/devconnect/pkg/database"
)

func setupTestWorker(t *testing.T) (*Worker, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db := sqlx.NewDb(mockDB, "sqlmock")
	clients := &database.Clients{DB: db}

	cfg := &config.Config{
		Kafka: config.KafkaConfig{Topic: "profile-events", Group: "profile-audit"},
	}

	return NewWorker(cfg, clients, nil), mock
}

func TestRecordEvent(t *testing.T) {
	w, mock := setupTestWorker(t)

	evt := models.ChangeEvent{
		Type:      models.EventProfileUpdated,
		UserID:    "b7ca94b4-28dc-4b35-86b0-0c937514b1f1",
		ProfileID: "5e54b214-8c8a-4a41-9c53-7d70f33a5a87",
		At:        time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	payload, err := json.Marshal(evt)
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO profile_audit")).
		WithArgs(evt.Type, evt.UserID, sqlmock.AnyArg(), payload, evt.At).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, w.recordEvent(payload))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordEventMalformedPayload(t *testing.T) {
	w, mock := setupTestWorker(t)

	// No INSERT expected: a bad payload is rejected before the database.
	err := w.recordEvent([]byte(`{not json`))
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordEventWithoutProfileID(t *testing.T) {
	w, mock := setupTestWorker(t)

	evt := models.ChangeEvent{
		Type:   models.EventAccountDeleted,
		UserID: "b7ca94b4-28dc-4b35-86b0-0c937514b1f1",
		At:     time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	payload, err := json.Marshal(evt)
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO profile_audit")).
		WithArgs(evt.Type, evt.UserID, sqlmock.AnyArg(), payload, evt.At).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, w.recordEvent(payload))
	assert.NoError(t, mock.ExpectationsWereMet())
}
