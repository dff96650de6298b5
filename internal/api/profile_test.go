package api

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/IBM/sarama"
	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devconnect/devconnect/internal/config"
	"github.com/devconnect/devconnect/internal/models"
	"github.com/devconnect/devconnect/pkg/database"
)

const (
	testSecret = "test-secret"
	testUserID = "b7ca94b4-28dc-4b35-86b0-0c937514b1f1"
)

// getByUserPattern and listPattern match the store's joined queries.
const (
	getByUserPattern = `WHERE p\.user_id`
	listPattern      = `ORDER BY p\.created_at`
)

var profileCols = []string{
	"id", "user.id", "user.name", "user.avatar",
	"company", "website", "location", "bio", "githubusername", "status",
	"skills", "social", "experience", "education", "created_at",
}

// MockProducer records messages instead of talking to Kafka.
type MockProducer struct {
	sarama.SyncProducer
	messages []*sarama.ProducerMessage
}

func (m *MockProducer) SendMessage(msg *sarama.ProducerMessage) (partition int32, offset int64, err error) {
	m.messages = append(m.messages, msg)
	return 0, 0, nil
}

func (m *MockProducer) Close() error { return nil }

// setupTestServer initializes a test instance of the API server with mocked
// Postgres, Redis and Kafka.
func setupTestServer(t *testing.T) (*Server, sqlmock.Sqlmock, *miniredis.Miniredis) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db := sqlx.NewDb(mockDB, "sqlmock")

	miniRedis, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(miniRedis.Close)

	redisClient := redis.NewClient(&redis.Options{Addr: miniRedis.Addr()})

	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:           ":8080",
			MaxRequests:    100,
			RequestTimeout: 60 * time.Second,
			Environment:    "development",
		},
		JWT:   config.JWTConfig{Secret: testSecret},
		Kafka: config.KafkaConfig{Topic: "profile-events"},
		Redis: config.RedisConfig{ListTTL: 30 * time.Second},
	}

	clients := &database.Clients{DB: db, Redis: redisClient}
	server := NewServer(cfg, clients, &MockProducer{})

	return server, mock, miniRedis
}

// signToken mints a bearer token carrying the sub claim the owner-scoped
// routes derive their target user from.
func signToken(t *testing.T, sub string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(time.Hour).Unix(),
		"iat": time.Now().Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func mustJSON(t *testing.T, v interface{}) []byte {
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func addProfileRow(t *testing.T, rows *sqlmock.Rows, status string, skills models.SkillList, experience models.ExperienceList) *sqlmock.Rows {
	t.Helper()
	return rows.AddRow(
		"5e54b214-8c8a-4a41-9c53-7d70f33a5a87", testUserID, "Jane Doe", "//gravatar/jane",
		"", "", "", "", "", status,
		mustJSON(t, skills), []byte(`{}`), mustJSON(t, experience), []byte(`[]`), time.Now().UTC(),
	)
}

func TestGetProfileByUserNotFound(t *testing.T) {
	tests := []struct {
		name      string
		userID    string
		expectsDB bool
	}{
		{name: "malformed id short-circuits before the store", userID: "not-a-uuid", expectsDB: false},
		{name: "well-formed but unknown id", userID: "0b0e7a5c-9f5d-4a2b-bb6e-0d8e1f15c001", expectsDB: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, mock, _ := setupTestServer(t)

			if tt.expectsDB {
				mock.ExpectQuery(getByUserPattern).
					WithArgs(tt.userID).
					WillReturnRows(sqlmock.NewRows(profileCols))
			}

			req := httptest.NewRequest("GET", "/api/profile/user/"+tt.userID, nil)
			resp, err := server.app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, "Profile not found", body["msg"])
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGetMyProfileAbsent(t *testing.T) {
	server, mock, _ := setupTestServer(t)

	mock.ExpectQuery(getByUserPattern).
		WithArgs(testUserID).
		WillReturnRows(sqlmock.NewRows(profileCols))

	req := httptest.NewRequest("GET", "/api/profile/me", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testUserID))

	resp, err := server.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "There is no profile for this user", body["msg"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOwnerRoutesRequireToken(t *testing.T) {
	server, _, _ := setupTestServer(t)

	req := httptest.NewRequest("POST", "/api/profile", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")

	resp, err := server.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestCreateProfileValidation(t *testing.T) {
	server, mock, _ := setupTestServer(t)

	// Neither status nor skills: both violations come back at once.
	req := httptest.NewRequest("POST", "/api/profile", bytes.NewReader([]byte(`{"bio":"hi"}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signToken(t, testUserID))

	resp, err := server.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var body struct {
		Errors []ValidationError `json:"errors"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Errors, 2)
	assert.Equal(t, "Status is required", body.Errors[0].Msg)
	assert.Equal(t, "Please provide your skills", body.Errors[1].Msg)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateProfileThenList(t *testing.T) {
	server, mock, _ := setupTestServer(t)

	// Zero stored profiles: the public list is an empty sequence.
	mock.ExpectQuery(listPattern).WillReturnRows(sqlmock.NewRows(profileCols))

	req := httptest.NewRequest("GET", "/api/profile", nil)
	resp, err := server.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var list []json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.Empty(t, list)

	// First save creates the profile.
	mock.ExpectQuery(getByUserPattern).
		WithArgs(testUserID).
		WillReturnRows(sqlmock.NewRows(profileCols))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO profiles")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(getByUserPattern).
		WithArgs(testUserID).
		WillReturnRows(addProfileRow(t, sqlmock.NewRows(profileCols),
			"Developer", models.SkillList{"go", "ts"}, models.ExperienceList{}))

	body := []byte(`{"status":"Developer","skills":"go,ts"}`)
	req = httptest.NewRequest("POST", "/api/profile", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signToken(t, testUserID))

	resp, err = server.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var created map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, []interface{}{"go", "ts"}, created["skills"])

	// The mutation invalidated the cached empty list, so the next read goes
	// back to Postgres and sees the new profile.
	mock.ExpectQuery(listPattern).
		WillReturnRows(addProfileRow(t, sqlmock.NewRows(profileCols),
			"Developer", models.SkillList{"go", "ts"}, models.ExperienceList{}))

	req = httptest.NewRequest("GET", "/api/profile", nil)
	resp, err = server.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var profiles []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&profiles))
	require.Len(t, profiles, 1)
	assert.Equal(t, []interface{}{"go", "ts"}, profiles[0]["skills"])

	// One change event went to Kafka.
	producer := server.producer.(*MockProducer)
	require.Len(t, producer.messages, 1)
	value, err := producer.messages[0].Value.Encode()
	require.NoError(t, err)
	assert.Contains(t, string(value), models.EventProfileUpdated)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddExperience(t *testing.T) {
	server, mock, _ := setupTestServer(t)

	mock.ExpectQuery(getByUserPattern).
		WithArgs(testUserID).
		WillReturnRows(addProfileRow(t, sqlmock.NewRows(profileCols),
			"Developer", models.SkillList{"go"}, models.ExperienceList{}))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE profiles SET experience")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	body := []byte(`{"title":"Senior Dev","company":"Globex","from":"2022-03-01","current":true}`)
	req := httptest.NewRequest("PUT", "/api/profile/experience", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signToken(t, testUserID))

	resp, err := server.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var p map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&p))
	experience := p["experience"].([]interface{})
	require.Len(t, experience, 1)
	entry := experience[0].(map[string]interface{})
	assert.Equal(t, "Senior Dev", entry["title"])
	assert.NotEmpty(t, entry["id"])
	assert.Nil(t, entry["to"])

	producer := server.producer.(*MockProducer)
	require.Len(t, producer.messages, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddExperienceValidation(t *testing.T) {
	server, _, _ := setupTestServer(t)

	req := httptest.NewRequest("PUT", "/api/profile/experience", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signToken(t, testUserID))

	resp, err := server.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var body struct {
		Errors []ValidationError `json:"errors"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Len(t, body.Errors, 3) // title, company, from
}

func TestDeleteAccount(t *testing.T) {
	server, mock, _ := setupTestServer(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM profiles WHERE user_id = $1")).
		WithArgs(testUserID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = $1")).
		WithArgs(testUserID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := httptest.NewRequest("DELETE", "/api/profile", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testUserID))

	resp, err := server.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "User deleted", body["msg"])

	producer := server.producer.(*MockProducer)
	require.Len(t, producer.messages, 1)
	value, err := producer.messages[0].Value.Encode()
	require.NoError(t, err)
	assert.Contains(t, string(value), models.EventAccountDeleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
