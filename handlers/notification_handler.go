package handlers

import (
	"strconv"
	"time"

	"github.com/courtsidehq/padel_community/database"
	"github.com/courtsidehq/padel_community/models"
	"github.com/courtsidehq/padel_community/notifications"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

func GetMyNotifications(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	userID, _ := uuid.Parse(claims["user_id"].(string))

	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "20"))
	offset := (page - 1) * pageSize

	query := database.DB.Where("user_id = ?", userID)
	if c.Query("unread") == "true" {
		query = query.Where("read_at IS NULL")
	}

	var notificationRows []models.Notification
	query.Order("created_at desc").Limit(pageSize).Offset(offset).Find(&notificationRows)

	var unreadCount int64
	database.DB.Model(&models.Notification{}).Where("user_id = ? AND read_at IS NULL", userID).Count(&unreadCount)

	return c.JSON(fiber.Map{
		"notifications": notificationRows,
		"unread_count":  unreadCount,
	})
}

func MarkNotificationRead(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	userID, _ := uuid.Parse(claims["user_id"].(string))
	notificationID := c.Params("notificationId")

	now := time.Now()
	result := database.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ? AND read_at IS NULL", notificationID, userID).
		Update("read_at", now)
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Notification not found or already read"})
	}

	return c.JSON(fiber.Map{"message": "Notification marked as read."})
}

func MarkAllNotificationsRead(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	userID, _ := uuid.Parse(claims["user_id"].(string))

	now := time.Now()
	database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Update("read_at", now)

	return c.JSON(fiber.Map{"message": "All notifications marked as read."})
}

type BroadcastRequest struct {
	Title          string  `json:"title" validate:"required,min=3"`
	Message        string  `json:"message" validate:"required,min=3"`
	SubCommunityID *string `json:"sub_community_id"`
	SessionID      *string `json:"session_id"`
}

// BroadcastToCommunity sends a manager announcement to every approved member,
// optionally scoped to a sub-community. When a session_id is given only the
// session's booked members are notified.
func BroadcastToCommunity(c *fiber.Ctx) error {
	community, ok := managedCommunity(c)
	if !ok {
		return nil
	}

	var req BroadcastRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if req.SessionID != nil {
		sessionID, err := uuid.Parse(*req.SessionID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session ID"})
		}

		var session models.Session
		if err := database.DB.First(&session, "id = ? AND community_id = ?", sessionID, community.ID).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
		}

		var bookings []models.Booking
		database.DB.Where("session_id = ? AND cancelled_at IS NULL", session.ID).Find(&bookings)
		for _, booking := range bookings {
			go notifications.NotifyUser(booking.UserID, "session", req.Title, req.Message, &community.ID, &session.ID)
		}

		return c.JSON(fiber.Map{"message": "Notification sent to session attendees.", "recipients": len(bookings)})
	}

	var subCommunityID *uuid.UUID
	if req.SubCommunityID != nil {
		subID, err := uuid.Parse(*req.SubCommunityID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid sub-community ID"})
		}
		subCommunityID = &subID
	}

	go notifications.FanOutToCommunity(community.ID, subCommunityID, "community", req.Title, req.Message, nil)

	return c.JSON(fiber.Map{"message": "Notification sent to community members."})
}
