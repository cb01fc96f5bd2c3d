package handlers

import (
	"fmt"
	"time"

	"github.com/courtsidehq/padel_community/database"
	"github.com/courtsidehq/padel_community/models"
	"github.com/courtsidehq/padel_community/notifications"
	"github.com/courtsidehq/padel_community/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CreateSessionRequest struct {
	Title                        string  `json:"title" validate:"required,min=3"`
	Description                  string  `json:"description"`
	Location                     string  `json:"location"`
	GoogleMapsURL                string  `json:"google_maps_url"`
	Datetime                     string  `json:"datetime" validate:"required"`
	DurationMinutes              int     `json:"duration_minutes" validate:"omitempty,min=30,max=240"`
	Price                        float64 `json:"price" validate:"gte=0"`
	MaxPlayers                   int     `json:"max_players" validate:"required,min=1"`
	FreeCancellationHours        int     `json:"free_cancellation_hours" validate:"gte=0"`
	AllowConditionalCancellation bool    `json:"allow_conditional_cancellation"`
	SubCommunityID               *string `json:"sub_community_id"`
}

func CreateSession(c *fiber.Ctx) error {
	community, ok := managedCommunity(c)
	if !ok {
		return nil
	}

	var req CreateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	datetime, err := utils.ParseUTC(req.Datetime)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session datetime"})
	}
	if datetime.Before(time.Now()) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Session datetime cannot be in the past"})
	}

	duration := req.DurationMinutes
	if duration == 0 {
		duration = 90
	}

	session := models.Session{
		CommunityID:                  community.ID,
		Title:                        req.Title,
		Description:                  req.Description,
		Location:                     req.Location,
		GoogleMapsURL:                req.GoogleMapsURL,
		Datetime:                     datetime,
		DurationMinutes:              duration,
		Price:                        req.Price,
		MaxPlayers:                   req.MaxPlayers,
		Status:                       "active",
		FreeCancellationHours:        req.FreeCancellationHours,
		AllowConditionalCancellation: req.AllowConditionalCancellation,
	}
	if req.SubCommunityID != nil {
		subID, err := uuid.Parse(*req.SubCommunityID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid sub-community ID"})
		}
		session.SubCommunityID = &subID
	}

	if err := database.DB.Create(&session).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create session"})
	}

	go notifications.FanOutToCommunity(community.ID, session.SubCommunityID, "session",
		"New Session Published",
		fmt.Sprintf("%s on %s: %d spots, AED %.2f. Book yours now!",
			session.Title, session.Datetime.Format("Mon, Jan 2 at 3:04 PM"), session.MaxPlayers, session.Price),
		&session.ID)

	return c.Status(fiber.StatusCreated).JSON(session)
}

type UpdateSessionRequest struct {
	Title                        *string  `json:"title"`
	Description                  *string  `json:"description"`
	Location                     *string  `json:"location"`
	GoogleMapsURL                *string  `json:"google_maps_url"`
	Datetime                     *string  `json:"datetime"`
	DurationMinutes              *int     `json:"duration_minutes"`
	Price                        *float64 `json:"price"`
	MaxPlayers                   *int     `json:"max_players"`
	FreeCancellationHours        *int     `json:"free_cancellation_hours"`
	AllowConditionalCancellation *bool    `json:"allow_conditional_cancellation"`
}

func UpdateSession(c *fiber.Ctx) error {
	community, ok := managedCommunity(c)
	if !ok {
		return nil
	}
	sessionID := c.Params("sessionId")

	var req UpdateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if req.Price != nil && *req.Price < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Price cannot be negative"})
	}

	var session models.Session
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&session, "id = ? AND community_id = ?", sessionID, community.ID).Error; err != nil {
			return fmt.Errorf("session not found")
		}

		// Capacity may never drop below the spots already booked.
		if req.MaxPlayers != nil && *req.MaxPlayers < session.BookedCount {
			return fmt.Errorf("cannot reduce capacity to %d: %d players have already booked (minimum allowed is %d)",
				*req.MaxPlayers, session.BookedCount, session.BookedCount)
		}

		if req.Title != nil {
			session.Title = *req.Title
		}
		if req.Description != nil {
			session.Description = *req.Description
		}
		if req.Location != nil {
			session.Location = *req.Location
		}
		if req.GoogleMapsURL != nil {
			session.GoogleMapsURL = *req.GoogleMapsURL
		}
		if req.Datetime != nil {
			datetime, err := utils.ParseUTC(*req.Datetime)
			if err != nil {
				return fmt.Errorf("invalid session datetime")
			}
			session.Datetime = datetime
		}
		if req.DurationMinutes != nil {
			session.DurationMinutes = *req.DurationMinutes
		}
		if req.Price != nil {
			session.Price = *req.Price
		}
		if req.MaxPlayers != nil {
			session.MaxPlayers = *req.MaxPlayers
		}
		if req.FreeCancellationHours != nil {
			session.FreeCancellationHours = *req.FreeCancellationHours
		}
		if req.AllowConditionalCancellation != nil {
			session.AllowConditionalCancellation = *req.AllowConditionalCancellation
		}

		return tx.Save(&session).Error
	})
	if err != nil {
		if err.Error() == "session not found" {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(session)
}

func CancelSession(c *fiber.Ctx) error {
	community, ok := managedCommunity(c)
	if !ok {
		return nil
	}
	sessionID := c.Params("sessionId")

	var session models.Session
	if err := database.DB.First(&session, "id = ? AND community_id = ?", sessionID, community.ID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
	}
	if session.Status != "active" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Only active sessions can be cancelled"})
	}

	session.Status = "cancelled"
	if err := database.DB.Save(&session).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to cancel session"})
	}

	var bookings []models.Booking
	database.DB.Where("session_id = ? AND cancelled_at IS NULL", session.ID).Find(&bookings)
	for _, booking := range bookings {
		// Refunds for community cancellations are processed by the admin
		// refund queue rather than automatically.
		requested := "requested"
		reason := "session cancelled by community"
		database.DB.Model(&models.Payment{}).
			Where("booking_id = ? AND status = ?", booking.ID, "succeeded").
			Updates(map[string]interface{}{"refund_status": requested, "refund_reason": reason})

		go notifications.NotifyUser(booking.UserID, "session",
			"Session Cancelled",
			fmt.Sprintf("%s on %s has been cancelled by the community. Your payment will be refunded.",
				session.Title, session.Datetime.Format("Mon, Jan 2 at 3:04 PM")),
			&community.ID, &session.ID)
	}

	return c.JSON(fiber.Map{"message": "Session cancelled. Booked members have been notified."})
}

func DeleteSession(c *fiber.Ctx) error {
	community, ok := managedCommunity(c)
	if !ok {
		return nil
	}
	sessionID := c.Params("sessionId")

	var session models.Session
	if err := database.DB.First(&session, "id = ? AND community_id = ?", sessionID, community.ID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
	}
	if session.BookedCount > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Sessions with bookings cannot be deleted; cancel the session instead"})
	}

	database.DB.Delete(&session)
	return c.JSON(fiber.Map{"message": "Session deleted."})
}

func ListCommunitySessions(c *fiber.Ctx) error {
	communityID := c.Params("communityId")

	query := database.DB.Where("community_id = ?", communityID)
	if c.Query("include_past") != "true" {
		query = query.Where("datetime >= ? AND status = ?", time.Now(), "active")
	}

	var sessions []models.Session
	query.Order("datetime asc").Find(&sessions)

	return c.JSON(sessions)
}

func GetSession(c *fiber.Ctx) error {
	sessionID := c.Params("sessionId")

	var session models.Session
	if err := database.DB.
		Preload("Community").
		Preload("SubCommunity").
		First(&session, "id = ?", sessionID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
	}

	return c.JSON(fiber.Map{
		"session":    session,
		"spots_left": session.SpotsLeft(),
	})
}
