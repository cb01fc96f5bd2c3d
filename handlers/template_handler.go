package handlers

import (
	"errors"
	"fmt"
	"log"
	"time"

	config "github.com/courtsidehq/padel_community/configs"
	"github.com/courtsidehq/padel_community/database"
	"github.com/courtsidehq/padel_community/models"
	"github.com/courtsidehq/padel_community/notifications"
	"github.com/courtsidehq/padel_community/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateTemplateRequest struct {
	Title                        string  `json:"title" validate:"required,min=3"`
	Description                  string  `json:"description"`
	Location                     string  `json:"location"`
	DayOfWeek                    *int    `json:"day_of_week" validate:"required,min=0,max=6"`
	TimeOfDay                    string  `json:"time_of_day" validate:"required"`
	DurationMinutes              int     `json:"duration_minutes" validate:"omitempty,min=30,max=240"`
	Price                        float64 `json:"price" validate:"gte=0"`
	MaxPlayers                   int     `json:"max_players" validate:"required,min=1"`
	FreeCancellationHours        int     `json:"free_cancellation_hours" validate:"gte=0"`
	AllowConditionalCancellation bool    `json:"allow_conditional_cancellation"`
	SubCommunityID               *string `json:"sub_community_id"`
}

func CreateTemplate(c *fiber.Ctx) error {
	community, ok := managedCommunity(c)
	if !ok {
		return nil
	}

	var req CreateTemplateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if _, _, _, err := services.ParseTimeOfDay(req.TimeOfDay); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid time of day, expected HH:MM:SS"})
	}

	duration := req.DurationMinutes
	if duration == 0 {
		duration = 90
	}

	template := models.SessionTemplate{
		CommunityID:                  community.ID,
		Title:                        req.Title,
		Description:                  req.Description,
		Location:                     req.Location,
		DayOfWeek:                    *req.DayOfWeek,
		TimeOfDay:                    req.TimeOfDay,
		DurationMinutes:              duration,
		Price:                        req.Price,
		MaxPlayers:                   req.MaxPlayers,
		FreeCancellationHours:        req.FreeCancellationHours,
		AllowConditionalCancellation: req.AllowConditionalCancellation,
		IsActive:                     true,
	}
	if req.SubCommunityID != nil {
		subID, err := uuid.Parse(*req.SubCommunityID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid sub-community ID"})
		}
		template.SubCommunityID = &subID
	}

	if err := database.DB.Create(&template).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create template"})
	}

	return c.Status(fiber.StatusCreated).JSON(template)
}

type UpdateTemplateRequest struct {
	Title                        *string  `json:"title"`
	Description                  *string  `json:"description"`
	Location                     *string  `json:"location"`
	DayOfWeek                    *int     `json:"day_of_week"`
	TimeOfDay                    *string  `json:"time_of_day"`
	DurationMinutes              *int     `json:"duration_minutes"`
	Price                        *float64 `json:"price"`
	MaxPlayers                   *int     `json:"max_players"`
	FreeCancellationHours        *int     `json:"free_cancellation_hours"`
	AllowConditionalCancellation *bool    `json:"allow_conditional_cancellation"`
	IsActive                     *bool    `json:"is_active"`
}

// UpdateTemplate applies a partial update. Sessions already materialized from
// this template are not touched; they own their policy fields.
func UpdateTemplate(c *fiber.Ctx) error {
	community, ok := managedCommunity(c)
	if !ok {
		return nil
	}
	templateID := c.Params("templateId")

	var template models.SessionTemplate
	if err := database.DB.First(&template, "id = ? AND community_id = ?", templateID, community.ID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Template not found"})
	}

	var req UpdateTemplateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	if req.DayOfWeek != nil && (*req.DayOfWeek < 0 || *req.DayOfWeek > 6) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Day of week must be between 0 (Sunday) and 6 (Saturday)"})
	}
	if req.TimeOfDay != nil {
		if _, _, _, err := services.ParseTimeOfDay(*req.TimeOfDay); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid time of day, expected HH:MM:SS"})
		}
		template.TimeOfDay = *req.TimeOfDay
	}
	if req.Price != nil && *req.Price < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Price cannot be negative"})
	}

	if req.Title != nil {
		template.Title = *req.Title
	}
	if req.Description != nil {
		template.Description = *req.Description
	}
	if req.Location != nil {
		template.Location = *req.Location
	}
	if req.DayOfWeek != nil {
		template.DayOfWeek = *req.DayOfWeek
	}
	if req.DurationMinutes != nil {
		template.DurationMinutes = *req.DurationMinutes
	}
	if req.Price != nil {
		template.Price = *req.Price
	}
	if req.MaxPlayers != nil {
		if *req.MaxPlayers < 1 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Max players must be at least 1"})
		}
		template.MaxPlayers = *req.MaxPlayers
	}
	if req.FreeCancellationHours != nil {
		template.FreeCancellationHours = *req.FreeCancellationHours
	}
	if req.AllowConditionalCancellation != nil {
		template.AllowConditionalCancellation = *req.AllowConditionalCancellation
	}
	if req.IsActive != nil {
		template.IsActive = *req.IsActive
	}

	if err := database.DB.Save(&template).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update template"})
	}

	return c.JSON(template)
}

// DeleteTemplate removes the recurrence definition. Sessions already
// materialized from it stay as they are.
func DeleteTemplate(c *fiber.Ctx) error {
	community, ok := managedCommunity(c)
	if !ok {
		return nil
	}
	templateID := c.Params("templateId")

	result := database.DB.Where("id = ? AND community_id = ?", templateID, community.ID).Delete(&models.SessionTemplate{})
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Template not found"})
	}

	return c.JSON(fiber.Map{"message": "Template deleted."})
}

func ListTemplates(c *fiber.Ctx) error {
	community, ok := managedCommunity(c)
	if !ok {
		return nil
	}

	query := database.DB.Where("community_id = ?", community.ID)
	if c.Query("include_inactive") != "true" {
		query = query.Where("is_active = ?", true)
	}

	var templates []models.SessionTemplate
	query.Order("day_of_week asc, time_of_day asc").Find(&templates)

	return c.JSON(templates)
}

type BulkPublishRequest struct {
	TemplateIDs []string `json:"template_ids" validate:"required,min=1,dive,uuid"`
	WeeksAhead  int      `json:"weeks_ahead" validate:"required,min=1,max=12"`
}

type BulkPublishError struct {
	TemplateID string    `json:"template_id"`
	Datetime   time.Time `json:"datetime"`
	Error      string    `json:"error"`
}

// PreviewBulkPublish returns the instance count the manager confirms before
// publishing.
func PreviewBulkPublish(c *fiber.Ctx) error {
	if _, ok := managedCommunity(c); !ok {
		return nil
	}

	var req BulkPublishRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"total": len(req.TemplateIDs) * req.WeeksAhead})
}

// BulkPublishSessions expands the selected templates over the requested
// horizon. Each instance is attempted independently; the batch reports
// partial success rather than aborting.
func BulkPublishSessions(c *fiber.Ctx) error {
	community, ok := managedCommunity(c)
	if !ok {
		return nil
	}

	var req BulkPublishRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var templates []models.SessionTemplate
	if err := database.DB.Where("id IN ? AND community_id = ?", req.TemplateIDs, community.ID).Find(&templates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load templates"})
	}
	if len(templates) != len(req.TemplateIDs) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "One or more selected templates were not found"})
	}

	planned, err := services.ExpandTemplates(templates, req.WeeksAhead, time.Now(), venueLocation())
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	created := 0
	publishErrors := []BulkPublishError{}
	for _, plan := range planned {
		session := services.SessionFromPlan(plan)
		if err := database.DB.Create(&session).Error; err != nil {
			publishErrors = append(publishErrors, BulkPublishError{
				TemplateID: plan.Template.ID.String(),
				Datetime:   plan.Datetime,
				Error:      publishErrorMessage(err),
			})
			continue
		}
		created++

		go notifications.FanOutToCommunity(community.ID, session.SubCommunityID, "session",
			"New Session Published",
			fmt.Sprintf("%s on %s: %d spots, AED %.2f. Book yours now!",
				session.Title, session.Datetime.Format("Mon, Jan 2 at 3:04 PM"), session.MaxPlayers, session.Price),
			&session.ID)
	}

	log.Printf("✅ Bulk publish for community %s: %d created, %d failed", community.ID, created, len(publishErrors))

	return c.JSON(fiber.Map{
		"created": created,
		"errors":  publishErrors,
	})
}

func publishErrorMessage(err error) string {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return "a session for this template and datetime already exists"
	}
	return err.Error()
}

func venueLocation() *time.Location {
	tz := config.Config("VENUE_TIMEZONE")
	if tz == "" {
		tz = "Asia/Dubai"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("⚠️ Invalid VENUE_TIMEZONE %q, falling back to UTC", tz)
		return time.UTC
	}
	return loc
}
