package handlers

import (
	"github.com/courtsidehq/padel_community/database"
	"github.com/courtsidehq/padel_community/models"
	"github.com/courtsidehq/padel_community/notifications"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

type FriendRequestRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
}

func SendFriendRequest(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	requesterID, _ := uuid.Parse(claims["user_id"].(string))

	var req FriendRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	addresseeID, _ := uuid.Parse(req.UserID)

	if addresseeID == requesterID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "You cannot add yourself as a friend"})
	}

	var addressee models.User
	if err := database.DB.First(&addressee, "id = ?", addresseeID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	var existing models.Friendship
	if err := database.DB.
		Where("(requester_id = ? AND addressee_id = ?) OR (requester_id = ? AND addressee_id = ?)",
			requesterID, addresseeID, addresseeID, requesterID).
		First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "A friend request already exists between you"})
	}

	friendship := models.Friendship{
		RequesterID: requesterID,
		AddresseeID: addresseeID,
	}
	if err := database.DB.Create(&friendship).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to send friend request"})
	}

	go notifications.NotifyUser(addresseeID, "friend",
		"New Friend Request",
		"You have a new friend request. Open the app to respond.",
		nil, nil)

	return c.Status(fiber.StatusCreated).JSON(friendship)
}

type RespondFriendRequest struct {
	Action string `json:"action" validate:"required,oneof=accept decline"`
}

func RespondToFriendRequest(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	userID, _ := uuid.Parse(claims["user_id"].(string))
	friendshipID := c.Params("friendshipId")

	var req RespondFriendRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var friendship models.Friendship
	if err := database.DB.Preload("Requester").First(&friendship, "id = ?", friendshipID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Friend request not found"})
	}
	if friendship.AddresseeID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "This friend request is not addressed to you"})
	}
	if friendship.Status != "pending" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "This friend request has already been processed"})
	}

	if req.Action == "accept" {
		friendship.Status = "accepted"
	} else {
		friendship.Status = "declined"
	}
	if err := database.DB.Save(&friendship).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update friend request"})
	}

	if req.Action == "accept" {
		go notifications.NotifyUser(friendship.RequesterID, "friend",
			"Friend Request Accepted",
			"Your friend request was accepted.",
			nil, nil)
	}

	return c.JSON(friendship)
}

func ListFriends(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	userID, _ := uuid.Parse(claims["user_id"].(string))

	var friendships []models.Friendship
	database.DB.
		Preload("Requester").
		Preload("Addressee").
		Where("(requester_id = ? OR addressee_id = ?) AND status = ?", userID, userID, "accepted").
		Find(&friendships)

	return c.JSON(friendships)
}

func ListPendingFriendRequests(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	userID, _ := uuid.Parse(claims["user_id"].(string))

	var friendships []models.Friendship
	database.DB.
		Preload("Requester").
		Where("addressee_id = ? AND status = ?", userID, "pending").
		Find(&friendships)

	return c.JSON(friendships)
}

func RemoveFriend(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	userID, _ := uuid.Parse(claims["user_id"].(string))
	friendshipID := c.Params("friendshipId")

	result := database.DB.
		Where("id = ? AND (requester_id = ? OR addressee_id = ?)", friendshipID, userID, userID).
		Delete(&models.Friendship{})
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Friendship not found"})
	}

	return c.JSON(fiber.Map{"message": "Friend removed."})
}
