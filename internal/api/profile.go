package api

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/devconnect/devconnect/internal/models"
	"github.com/devconnect/devconnect/internal/store"
)

// ValidationError is one entry of the structured validation failure list.
// All violations are collected and returned at once.
type ValidationError struct {
	Msg   string `json:"msg"`
	Param string `json:"param"`
}

const (
	msgProfileNotFound = "Profile not found"
	msgNoOwnProfile    = "There is no profile for this user"
	msgServerError     = "Server error"
)

// handleGetMyProfile returns the authenticated user's own profile.
func (s *Server) handleGetMyProfile(c *fiber.Ctx) error {
	userID, err := authUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"msg": "Authorization required"})
	}

	p, err := s.store.GetByUser(c.Context(), userID)
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": msgNoOwnProfile})
	}
	if err != nil {
		s.logger.Error("Failed to fetch own profile", "user_id", userID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"msg": msgServerError})
	}

	return c.JSON(p)
}

// handleGetProfileByUser returns a profile by the owning user's id. Malformed
// and unknown ids collapse to the same client-facing outcome but are logged
// with distinct causes.
func (s *Server) handleGetProfileByUser(c *fiber.Ctx) error {
	raw := c.Params("userID")
	if _, err := uuid.Parse(raw); err != nil {
		s.logger.Info("Profile lookup with malformed user id", "user_id", raw)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": msgProfileNotFound})
	}

	p, err := s.store.GetByUser(c.Context(), raw)
	if errors.Is(err, store.ErrNotFound) {
		s.logger.Info("No profile for user", "user_id", raw)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": msgProfileNotFound})
	}
	if err != nil {
		s.logger.Error("Failed to fetch profile", "user_id", raw, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"msg": msgServerError})
	}

	return c.JSON(p)
}

func (s *Server) handleListProfiles(c *fiber.Ctx) error {
	profiles, err := s.store.ListAll(c.Context())
	if err != nil {
		s.logger.Error("Failed to list profiles", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"msg": msgServerError})
	}
	return c.JSON(profiles)
}

// handleUpsertProfile creates the caller's profile on first save and applies
// a partial merge on every save after that.
func (s *Server) handleUpsertProfile(c *fiber.Ctx) error {
	userID, err := authUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"msg": "Authorization required"})
	}

	var form models.ProfileForm
	if err := c.BodyParser(&form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": "Invalid request body"})
	}

	var errs []ValidationError
	if form.Status == nil || strings.TrimSpace(*form.Status) == "" {
		errs = append(errs, ValidationError{Msg: "Status is required", Param: "status"})
	}
	if len(form.SkillList()) == 0 {
		errs = append(errs, ValidationError{Msg: "Please provide your skills", Param: "skills"})
	}
	if len(errs) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": errs})
	}

	p, err := s.store.Upsert(c.Context(), userID, form)
	if err != nil {
		s.logger.Error("Failed to upsert profile", "user_id", userID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"msg": msgServerError})
	}

	s.publish(models.EventProfileUpdated, userID, p.ID)
	return c.JSON(p)
}

func (s *Server) handleAddExperience(c *fiber.Ctx) error {
	userID, err := authUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"msg": "Authorization required"})
	}

	var form models.ExperienceForm
	if err := c.BodyParser(&form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": "Invalid request body"})
	}

	var errs []ValidationError
	if strings.TrimSpace(form.Title) == "" {
		errs = append(errs, ValidationError{Msg: "Title is required", Param: "title"})
	}
	if strings.TrimSpace(form.Company) == "" {
		errs = append(errs, ValidationError{Msg: "Company is required", Param: "company"})
	}
	from, to, dateErrs := parseEntryDates(form.From, form.To, form.Current)
	errs = append(errs, dateErrs...)
	if len(errs) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": errs})
	}

	entry := models.Experience{
		Title:       form.Title,
		Company:     form.Company,
		Location:    form.Location,
		From:        from,
		To:          to,
		Current:     form.Current,
		Description: form.Description,
	}

	p, err := s.store.AddExperience(c.Context(), userID, entry)
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": msgNoOwnProfile})
	}
	if err != nil {
		s.logger.Error("Failed to add experience", "user_id", userID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"msg": msgServerError})
	}

	s.publish(models.EventExperienceAdded, userID, p.ID)
	return c.JSON(p)
}

func (s *Server) handleAddEducation(c *fiber.Ctx) error {
	userID, err := authUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"msg": "Authorization required"})
	}

	var form models.EducationForm
	if err := c.BodyParser(&form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": "Invalid request body"})
	}

	var errs []ValidationError
	if strings.TrimSpace(form.School) == "" {
		errs = append(errs, ValidationError{Msg: "School is required", Param: "school"})
	}
	if strings.TrimSpace(form.Degree) == "" {
		errs = append(errs, ValidationError{Msg: "Degree is required", Param: "degree"})
	}
	if strings.TrimSpace(form.FieldOfStudy) == "" {
		errs = append(errs, ValidationError{Msg: "Field of study is required", Param: "fieldofstudy"})
	}
	from, to, dateErrs := parseEntryDates(form.From, form.To, form.Current)
	errs = append(errs, dateErrs...)
	if len(errs) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": errs})
	}

	entry := models.Education{
		School:       form.School,
		Degree:       form.Degree,
		FieldOfStudy: form.FieldOfStudy,
		From:         from,
		To:           to,
		Current:      form.Current,
		Description:  form.Description,
	}

	p, err := s.store.AddEducation(c.Context(), userID, entry)
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": msgNoOwnProfile})
	}
	if err != nil {
		s.logger.Error("Failed to add education", "user_id", userID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"msg": msgServerError})
	}

	s.publish(models.EventEducationAdded, userID, p.ID)
	return c.JSON(p)
}

func (s *Server) handleRemoveExperience(c *fiber.Ctx) error {
	userID, err := authUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"msg": "Authorization required"})
	}

	p, err := s.store.RemoveExperience(c.Context(), userID, c.Params("id"))
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": msgNoOwnProfile})
	}
	if err != nil {
		s.logger.Error("Failed to remove experience", "user_id", userID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"msg": msgServerError})
	}

	s.publish(models.EventExperienceRemoved, userID, p.ID)
	return c.JSON(p)
}

func (s *Server) handleRemoveEducation(c *fiber.Ctx) error {
	userID, err := authUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"msg": "Authorization required"})
	}

	p, err := s.store.RemoveEducation(c.Context(), userID, c.Params("id"))
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": msgNoOwnProfile})
	}
	if err != nil {
		s.logger.Error("Failed to remove education", "user_id", userID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"msg": msgServerError})
	}

	s.publish(models.EventEducationRemoved, userID, p.ID)
	return c.JSON(p)
}

// handleDeleteAccount removes the profile and then the owning user as two
// independent steps. A crash between them orphans the user record; the gap
// is accepted and logged rather than papered over.
func (s *Server) handleDeleteAccount(c *fiber.Ctx) error {
	userID, err := authUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"msg": "Authorization required"})
	}

	if err := s.store.DeleteByUser(c.Context(), userID); err != nil {
		s.logger.Error("Failed to delete profile", "user_id", userID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"msg": msgServerError})
	}
	if err := s.store.DeleteUser(c.Context(), userID); err != nil {
		s.logger.Error("Profile deleted but user removal failed", "user_id", userID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"msg": msgServerError})
	}

	s.publish(models.EventAccountDeleted, userID, "")
	return c.JSON(fiber.Map{"msg": "User deleted"})
}

// parseEntryDates validates the from/to dates shared by experience and
// education entries. current=true forces the to date to be unset.
func parseEntryDates(fromRaw, toRaw string, current bool) (time.Time, *time.Time, []ValidationError) {
	var errs []ValidationError
	var from time.Time
	var to *time.Time

	if strings.TrimSpace(fromRaw) == "" {
		errs = append(errs, ValidationError{Msg: "From date is required", Param: "from"})
	} else {
		parsed, err := models.ParseDate(fromRaw)
		if err != nil {
			errs = append(errs, ValidationError{Msg: "From date is invalid", Param: "from"})
		}
		from = parsed
	}

	if !current && strings.TrimSpace(toRaw) != "" {
		parsed, err := models.ParseDate(toRaw)
		if err != nil {
			errs = append(errs, ValidationError{Msg: "To date is invalid", Param: "to"})
		} else {
			to = &parsed
		}
	}

	return from, to, errs
}
