package handlers

import (
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/courtsidehq/padel_community/database"
	"github.com/courtsidehq/padel_community/models"
	"github.com/courtsidehq/padel_community/notifications"
	"github.com/courtsidehq/padel_community/payments"
	"github.com/gofiber/fiber/v2"
)

type DashboardAnalyticsResponse struct {
	TotalMembers       int64            `json:"total_members"`
	TotalCommunities   int64            `json:"total_communities"`
	UpcomingSessions   int64            `json:"upcoming_sessions"`
	BookingsLast30Days int64            `json:"bookings_last_30_days"`
	TotalRevenue       float64          `json:"total_revenue"`
	RecentBookings     []models.Booking `json:"recent_bookings"`
}

func GetDashboardAnalytics(c *fiber.Ctx) error {
	var response DashboardAnalyticsResponse
	var totalRevenue float64

	database.DB.Model(&models.User{}).Where("role = ?", "member").Count(&response.TotalMembers)

	database.DB.Model(&models.Community{}).Where("is_active = ?", true).Count(&response.TotalCommunities)

	database.DB.Model(&models.Session{}).Where("status = ? AND datetime > ?", "active", time.Now()).Count(&response.UpcomingSessions)

	database.DB.Model(&models.Payment{}).Where("status = ?", "succeeded").Select("COALESCE(SUM(amount), 0)").Row().Scan(&totalRevenue)
	response.TotalRevenue = totalRevenue

	thirtyDaysAgo := time.Now().AddDate(0, 0, -30)
	database.DB.Model(&models.Booking{}).Where("created_at > ?", thirtyDaysAgo).Count(&response.BookingsLast30Days)

	database.DB.Order("created_at desc").Limit(5).Preload("User").Preload("Session").Find(&response.RecentBookings)

	return c.JSON(response)
}

func GetAllUsers(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	search := strings.TrimSpace(c.Query("search"))
	offset := (page - 1) * limit

	var users []models.User
	var totalUsers int64

	query := database.DB.Model(&models.User{})
	countQuery := database.DB.Model(&models.User{})

	if search != "" {
		searchTerm := "%" + search + "%"
		query = query.Where("full_name ILIKE ? OR email ILIKE ?", searchTerm, searchTerm)
		countQuery = countQuery.Where("full_name ILIKE ? OR email ILIKE ?", searchTerm, searchTerm)
	}

	countQuery.Count(&totalUsers)
	query.Offset(offset).Limit(limit).Find(&users)

	return c.JSON(fiber.Map{
		"data": users,
		"meta": fiber.Map{
			"total_users":  totalUsers,
			"total_pages":  int(math.Ceil(float64(totalUsers) / float64(limit))),
			"current_page": page,
		},
	})
}

func ToggleUserStatus(c *fiber.Ctx) error {
	userID := c.Params("userId")
	type Request struct {
		IsActive bool `json:"is_active"`
	}
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	if err := database.DB.Model(&models.User{}).Where("id = ?", userID).Update("is_active", req.IsActive).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	return c.JSON(fiber.Map{"message": "User status updated successfully."})
}

type PromoteUserRequest struct {
	Role string `json:"role" validate:"required,oneof=member manager superadmin"`
}

func SetUserRole(c *fiber.Ctx) error {
	userID := c.Params("userId")

	var req PromoteUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := database.DB.Model(&models.User{}).Where("id = ?", userID).Update("role", req.Role).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	return c.JSON(fiber.Map{"message": "User role updated successfully."})
}

func AdminListCommunities(c *fiber.Ctx) error {
	var communities []models.Community
	database.DB.Preload("Manager").Order("created_at desc").Find(&communities)
	return c.JSON(communities)
}

func ToggleCommunityStatus(c *fiber.Ctx) error {
	communityID := c.Params("communityId")
	type Request struct {
		IsActive bool `json:"is_active"`
	}
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	if err := database.DB.Model(&models.Community{}).Where("id = ?", communityID).Update("is_active", req.IsActive).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Community not found"})
	}

	return c.JSON(fiber.Map{"message": "Community status updated successfully."})
}

func ListRefundRequests(c *fiber.Ctx) error {
	var refundPayments []models.Payment
	database.DB.Preload("Booking.User").Where("refund_status = ?", "requested").Find(&refundPayments)
	return c.JSON(refundPayments)
}

// ProcessRefund handles refunds that could not be settled automatically,
// e.g. session cancellations by the community.
func ProcessRefund(c *fiber.Ctx) error {
	paymentID := c.Params("paymentId")

	type ProcessRequest struct {
		Decision string `json:"decision" validate:"required,oneof=approve reject"`
	}
	var req ProcessRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var payment models.Payment
	if err := database.DB.Preload("Booking.User").First(&payment, "id = ?", paymentID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payment record not found"})
	}

	if req.Decision == "approve" {
		if payment.ProviderTxnID != nil {
			if err := payments.RefundGatewayPayment(*payment.ProviderTxnID, payment.Amount); err != nil {
				log.Printf("🔥 Gateway refund failed for payment %s: %v", payment.ID, err)
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Gateway refund failed"})
			}
		}

		refundedStatus := "refunded"
		payment.RefundStatus = &refundedStatus
		database.DB.Save(&payment)

		go notifications.SendEmail(payment.Booking.User.FullName, payment.Booking.User.Email,
			"Your Refund has been Processed",
			"<h1>Refund Processed</h1><p>Your refund request has been approved and processed by our team.</p>")
	} else {
		rejectedStatus := "rejected"
		payment.RefundStatus = &rejectedStatus
		database.DB.Save(&payment)

		go notifications.SendEmail(payment.Booking.User.FullName, payment.Booking.User.Email,
			"Update on Your Refund Request",
			"<h1>Refund Request Update</h1><p>Your refund request has been reviewed and was not approved.</p>")
	}

	return c.JSON(fiber.Map{"message": "Refund request processed successfully"})
}
