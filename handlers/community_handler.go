package handlers

import (
	"errors"

	"github.com/courtsidehq/padel_community/database"
	"github.com/courtsidehq/padel_community/models"
	"github.com/courtsidehq/padel_community/notifications"
	"github.com/courtsidehq/padel_community/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateCommunityRequest struct {
	Name        string  `json:"name" validate:"required,min=3"`
	Description string  `json:"description"`
	Location    string  `json:"location"`
	ImageURL    *string `json:"image_url"`
}

func CreateCommunity(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	managerID, _ := uuid.Parse(claims["user_id"].(string))

	var req CreateCommunityRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var community models.Community
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		inviteCode, err := utils.GenerateUniqueInviteCode(tx)
		if err != nil {
			return errors.New("failed to generate invite code")
		}

		community = models.Community{
			Name:        req.Name,
			Description: req.Description,
			Location:    req.Location,
			ImageURL:    req.ImageURL,
			InviteCode:  &inviteCode,
			ManagerID:   managerID,
		}
		if err := tx.Create(&community).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errors.New("a community with this name already exists")
			}
			return err
		}

		membership := models.CommunityMember{
			CommunityID: community.ID,
			UserID:      managerID,
			Status:      "approved",
			Role:        "manager",
		}
		return tx.Create(&membership).Error
	})
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(community)
}

type UpdateCommunityRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Location    *string `json:"location"`
	ImageURL    *string `json:"image_url"`
}

func UpdateCommunity(c *fiber.Ctx) error {
	community, ok := managedCommunity(c)
	if !ok {
		return nil
	}

	var req UpdateCommunityRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	if req.Name != nil {
		community.Name = *req.Name
	}
	if req.Description != nil {
		community.Description = *req.Description
	}
	if req.Location != nil {
		community.Location = *req.Location
	}
	if req.ImageURL != nil {
		community.ImageURL = req.ImageURL
	}

	if err := database.DB.Save(community).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update community"})
	}
	return c.JSON(community)
}

func ListCommunities(c *fiber.Ctx) error {
	var communities []models.Community
	database.DB.
		Preload("SubCommunities").
		Where("is_active = ?", true).
		Order("name asc").
		Find(&communities)

	return c.JSON(communities)
}

func GetCommunity(c *fiber.Ctx) error {
	communityID := c.Params("communityId")

	var community models.Community
	if err := database.DB.
		Preload("SubCommunities").
		Preload("Manager").
		First(&community, "id = ?", communityID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Community not found"})
	}

	var memberCount int64
	database.DB.Model(&models.CommunityMember{}).
		Where("community_id = ? AND status = ?", community.ID, "approved").
		Count(&memberCount)

	return c.JSON(fiber.Map{
		"community":    community,
		"member_count": memberCount,
	})
}

type JoinCommunityRequest struct {
	InviteCode     *string `json:"invite_code"`
	SubCommunityID *string `json:"sub_community_id"`
}

func JoinCommunity(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	userID, _ := uuid.Parse(claims["user_id"].(string))
	communityID := c.Params("communityId")

	var req JoinCommunityRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	var community models.Community
	if err := database.DB.First(&community, "id = ? AND is_active = ?", communityID, true).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Community not found"})
	}

	var existing models.CommunityMember
	if err := database.DB.Where("community_id = ? AND user_id = ?", community.ID, userID).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "You have already requested to join this community"})
	}

	// A valid invite code skips manager approval.
	status := "pending"
	if req.InviteCode != nil && community.InviteCode != nil && *req.InviteCode == *community.InviteCode {
		status = "approved"
	}

	membership := models.CommunityMember{
		CommunityID: community.ID,
		UserID:      userID,
		Status:      status,
	}
	if req.SubCommunityID != nil {
		subID, err := uuid.Parse(*req.SubCommunityID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid sub-community ID"})
		}
		membership.SubCommunityID = &subID
	}

	if err := database.DB.Create(&membership).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to join community"})
	}

	if status == "pending" {
		go notifications.NotifyUser(community.ManagerID, "community",
			"New Join Request",
			"A player has requested to join "+community.Name+". Review the request in your manager dashboard.",
			&community.ID, nil)
	}

	return c.Status(fiber.StatusCreated).JSON(membership)
}

func LeaveCommunity(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	userID, _ := uuid.Parse(claims["user_id"].(string))
	communityID := c.Params("communityId")

	result := database.DB.Where("community_id = ? AND user_id = ?", communityID, userID).Delete(&models.CommunityMember{})
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "You are not a member of this community"})
	}

	return c.JSON(fiber.Map{"message": "You have left the community."})
}

func ListCommunityMembers(c *fiber.Ctx) error {
	community, ok := managedCommunity(c)
	if !ok {
		return nil
	}

	status := c.Query("status", "approved")

	var members []models.CommunityMember
	database.DB.
		Preload("User").
		Preload("SubCommunity").
		Where("community_id = ? AND status = ?", community.ID, status).
		Find(&members)

	return c.JSON(members)
}

type ManageMemberRequest struct {
	Action         string  `json:"action" validate:"required,oneof=approve reject"`
	SubCommunityID *string `json:"sub_community_id"`
}

func ProcessMemberRequest(c *fiber.Ctx) error {
	community, ok := managedCommunity(c)
	if !ok {
		return nil
	}
	memberID := c.Params("memberId")

	var req ManageMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var membership models.CommunityMember
	if err := database.DB.First(&membership, "id = ? AND community_id = ?", memberID, community.ID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Membership request not found"})
	}
	if membership.Status != "pending" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "This request has already been processed"})
	}

	if req.Action == "approve" {
		membership.Status = "approved"
		if req.SubCommunityID != nil {
			subID, err := uuid.Parse(*req.SubCommunityID)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid sub-community ID"})
			}
			membership.SubCommunityID = &subID
		}
	} else {
		membership.Status = "rejected"
	}

	if err := database.DB.Save(&membership).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update membership"})
	}

	title := "Join Request Approved"
	message := "Your request to join " + community.Name + " has been approved. Welcome!"
	if req.Action == "reject" {
		title = "Join Request Declined"
		message = "Your request to join " + community.Name + " was declined."
	}
	go notifications.NotifyUser(membership.UserID, "community", title, message, &community.ID, nil)

	return c.JSON(membership)
}

type CreateSubCommunityRequest struct {
	Name        string `json:"name" validate:"required,min=2"`
	Description string `json:"description"`
}

func CreateSubCommunity(c *fiber.Ctx) error {
	community, ok := managedCommunity(c)
	if !ok {
		return nil
	}

	var req CreateSubCommunityRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	subCommunity := models.SubCommunity{
		CommunityID: community.ID,
		Name:        req.Name,
		Description: req.Description,
	}
	if err := database.DB.Create(&subCommunity).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create sub-community"})
	}

	return c.Status(fiber.StatusCreated).JSON(subCommunity)
}

// managedCommunity loads the :communityId community and verifies the caller
// manages it. Super admins manage every community. On failure the response is
// already written and ok is false.
func managedCommunity(c *fiber.Ctx) (*models.Community, bool) {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	userID, _ := uuid.Parse(claims["user_id"].(string))
	role := claims["role"].(string)
	communityID := c.Params("communityId")

	var community models.Community
	if err := database.DB.First(&community, "id = ?", communityID).Error; err != nil {
		_ = c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Community not found"})
		return nil, false
	}
	if community.ManagerID != userID && role != "superadmin" {
		_ = c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You do not manage this community"})
		return nil, false
	}
	return &community, true
}
