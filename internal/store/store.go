package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/devconnect/devconnect/internal/models"
	"github.com/devconnect/devconnect/pkg/database"
)

// ErrNotFound is returned when no profile exists for the requested user.
var ErrNotFound = errors.New("profile not found")

const listCacheKey = "profiles:all"

const profileColumns = `p.id, p.user_id AS "user.id", u.name AS "user.name", u.avatar AS "user.avatar",
	p.company, p.website, p.location, p.bio, p.githubusername, p.status,
	p.skills, p.social, p.experience, p.education, p.created_at`

var (
	getByUserQuery = fmt.Sprintf(`SELECT %s FROM profiles p JOIN users u ON u.id = p.user_id WHERE p.user_id = $1`, profileColumns)
	listAllQuery   = fmt.Sprintf(`SELECT %s FROM profiles p JOIN users u ON u.id = p.user_id ORDER BY p.created_at DESC`, profileColumns)
)

// Store owns the canonical profile records. It is explicitly constructed and
// injected; its connections are owned by the caller via database.Clients.
type Store struct {
	db      *sqlx.DB
	redis   *redis.Client
	listTTL time.Duration
}

func New(clients *database.Clients, listTTL time.Duration) *Store {
	return &Store{db: clients.DB, redis: clients.Redis, listTTL: listTTL}
}

// GetByUser fetches the profile owned by userID, joined with the owning
// user's public fields.
func (s *Store) GetByUser(ctx context.Context, userID string) (*models.Profile, error) {
	var p models.Profile
	err := s.db.GetContext(ctx, &p, getByUserQuery, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	return &p, nil
}

// ListAll returns every profile, most recently created first. Results are
// served from Redis when a fresh cached copy exists.
func (s *Store) ListAll(ctx context.Context) ([]models.Profile, error) {
	if b, err := s.redis.Get(ctx, listCacheKey).Bytes(); err == nil {
		var profiles []models.Profile
		if err := json.Unmarshal(b, &profiles); err == nil {
			return profiles, nil
		}
	}

	profiles := []models.Profile{}
	if err := s.db.SelectContext(ctx, &profiles, listAllQuery); err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	if b, err := json.Marshal(profiles); err == nil {
		if err := s.redis.Set(ctx, listCacheKey, b, s.listTTL).Err(); err != nil {
			slog.Warn("Failed to cache profile list", "error", err)
		}
	}
	return profiles, nil
}

// Upsert creates the profile for userID if none exists, otherwise applies a
// partial merge: only fields present in the form overwrite stored values.
// Repeated saves never duplicate the profile and never erase omitted fields.
func (s *Store) Upsert(ctx context.Context, userID string, form models.ProfileForm) (*models.Profile, error) {
	p, err := s.GetByUser(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return s.create(ctx, userID, form)
	}
	if err != nil {
		return nil, err
	}

	form.Apply(p)
	_, err = s.db.ExecContext(ctx,
		`UPDATE profiles SET company = $1, website = $2, location = $3, bio = $4,
			githubusername = $5, status = $6, skills = $7, social = $8
		WHERE user_id = $9`,
		p.Company, p.Website, p.Location, p.Bio,
		p.GithubUsername, p.Status, p.Skills, p.Social, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	s.invalidate(ctx)
	return p, nil
}

func (s *Store) create(ctx context.Context, userID string, form models.ProfileForm) (*models.Profile, error) {
	p := &models.Profile{
		ID:         uuid.NewString(),
		User:       models.ProfileUser{ID: userID},
		Skills:     models.SkillList{},
		Experience: models.ExperienceList{},
		Education:  models.EducationList{},
		CreatedAt:  time.Now().UTC(),
	}
	form.Apply(p)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (id, user_id, company, website, location, bio,
			githubusername, status, skills, social, experience, education, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		p.ID, userID, p.Company, p.Website, p.Location, p.Bio,
		p.GithubUsername, p.Status, p.Skills, p.Social, p.Experience, p.Education, p.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	s.invalidate(ctx)

	// Refetch to pick up the joined user fields.
	return s.GetByUser(ctx, userID)
}

// AddExperience assigns the entry a new id, prepends it (most recent first),
// persists and returns the updated profile.
func (s *Store) AddExperience(ctx context.Context, userID string, e models.Experience) (*models.Profile, error) {
	p, err := s.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	e.ID = uuid.NewString()
	if e.Current {
		e.To = nil
	}
	p.Experience = append(models.ExperienceList{e}, p.Experience...)

	if err := s.saveColumn(ctx, userID, "experience", p.Experience); err != nil {
		return nil, err
	}
	return p, nil
}

// RemoveExperience removes the entry with entryID. Removing an unknown id is
// a no-op that returns the unchanged profile.
func (s *Store) RemoveExperience(ctx context.Context, userID, entryID string) (*models.Profile, error) {
	p, err := s.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	kept := p.Experience[:0:0]
	for _, e := range p.Experience {
		if e.ID != entryID {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(p.Experience) {
		return p, nil
	}
	p.Experience = kept

	if err := s.saveColumn(ctx, userID, "experience", p.Experience); err != nil {
		return nil, err
	}
	return p, nil
}

// AddEducation mirrors AddExperience for education entries.
func (s *Store) AddEducation(ctx context.Context, userID string, e models.Education) (*models.Profile, error) {
	p, err := s.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	e.ID = uuid.NewString()
	if e.Current {
		e.To = nil
	}
	p.Education = append(models.EducationList{e}, p.Education...)

	if err := s.saveColumn(ctx, userID, "education", p.Education); err != nil {
		return nil, err
	}
	return p, nil
}

// RemoveEducation mirrors RemoveExperience for education entries.
func (s *Store) RemoveEducation(ctx context.Context, userID, entryID string) (*models.Profile, error) {
	p, err := s.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	kept := p.Education[:0:0]
	for _, e := range p.Education {
		if e.ID != entryID {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(p.Education) {
		return p, nil
	}
	p.Education = kept

	if err := s.saveColumn(ctx, userID, "education", p.Education); err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteByUser removes the profile owned by userID. Deleting an absent
// profile is not an error.
func (s *Store) DeleteByUser(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM profiles WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	s.invalidate(ctx)
	return nil
}

// DeleteUser removes the owning user record. The API layer calls this as a
// second, independent step after DeleteByUser; the two are not atomic.
func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (s *Store) saveColumn(ctx context.Context, userID, column string, value interface{}) error {
	query := fmt.Sprintf(`UPDATE profiles SET %s = $1 WHERE user_id = $2`, column)
	if _, err := s.db.ExecContext(ctx, query, value, userID); err != nil {
		return fmt.Errorf("failed to update %s: %w", column, err)
	}
	s.invalidate(ctx)
	return nil
}

func (s *Store) invalidate(ctx context.Context) {
	if err := s.redis.Del(ctx, listCacheKey).Err(); err != nil {
		slog.Warn("Failed to invalidate profile list cache", "error", err)
	}
}
