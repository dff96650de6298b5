package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"

	"github.com/devconnect/devconnect/internal/config"
	"github.com/devconnect/devconnect/internal/models"
	"github.com/devconnect/devconnect/internal/store"
	"github.com/devconnect/devconnect/pkg/database"
)

type Server struct {
	app      *fiber.App
	cfg      *config.Config
	db       *database.Clients
	store    *store.Store
	producer sarama.SyncProducer
	logger   *slog.Logger
}

func NewServer(cfg *config.Config, db *database.Clients, producer sarama.SyncProducer) *Server {
	app := fiber.New()

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status}\n",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.Server.MaxRequests,
		Expiration: cfg.Server.RequestTimeout,
	}))

	server := &Server{
		app:      app,
		cfg:      cfg,
		db:       db,
		store:    store.New(db, cfg.Redis.ListTTL),
		producer: producer,
		logger:   slog.Default(),
	}

	server.setupRoutes()

	return server
}

func (s *Server) setupRoutes() {
	auth := jwtware.New(jwtware.Config{
		SigningKey: []byte(s.cfg.JWT.Secret),
	})

	profile := s.app.Group("/api/profile")

	// Public routes
	profile.Get("/user/:userID", s.handleGetProfileByUser)
	profile.Get("/", s.handleListProfiles)

	// Owner-scoped routes; the target user always comes from the token.
	profile.Get("/me", auth, s.handleGetMyProfile)
	profile.Post("/", auth, s.handleUpsertProfile)
	profile.Put("/experience", auth, s.handleAddExperience)
	profile.Put("/education", auth, s.handleAddEducation)
	profile.Delete("/experience/:id", auth, s.handleRemoveExperience)
	profile.Delete("/education/:id", auth, s.handleRemoveEducation)
	profile.Delete("/", auth, s.handleDeleteAccount)
}

func (s *Server) Start() error {
	return s.app.Listen(s.cfg.Server.Port)
}

// authUserID extracts the authenticated user id from the verified JWT. A
// client-supplied user id is never accepted on owner-scoped routes.
func authUserID(c *fiber.Ctx) (string, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return "", errors.New("missing auth token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("unexpected claims type")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", errors.New("token has no sub claim")
	}
	return sub, nil
}

// publish emits a profile change event to Kafka. Failures are logged and
// never fail the request that triggered them.
func (s *Server) publish(eventType, userID, profileID string) {
	evt := models.ChangeEvent{
		Type:      eventType,
		UserID:    userID,
		ProfileID: profileID,
		At:        time.Now().UTC(),
	}
	b, err := json.Marshal(evt)
	if err != nil {
		s.logger.Error("Failed to encode change event", "error", err)
		return
	}

	msg := &sarama.ProducerMessage{
		Topic: s.cfg.Kafka.Topic,
		Key:   sarama.StringEncoder(userID),
		Value: sarama.ByteEncoder(b),
	}
	if _, _, err := s.producer.SendMessage(msg); err != nil {
		s.logger.Error("Failed to publish change event", "type", eventType, "error", err)
	}
}
