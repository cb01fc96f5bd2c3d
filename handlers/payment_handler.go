package handlers

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/courtsidehq/padel_community/database"
	"github.com/courtsidehq/padel_community/models"
	"github.com/courtsidehq/padel_community/notifications"
	"github.com/courtsidehq/padel_community/payments"
	"github.com/courtsidehq/padel_community/services"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GatewayWebhookRequest struct {
	OrderRef string `json:"order_ref" validate:"required"`
}

// HandleGatewayWebhook confirms or fails a pending payment. The gateway's
// check endpoint is the authority; the webhook body only names the order.
func HandleGatewayWebhook(c *fiber.Ctx) error {
	var req GatewayWebhookRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var payment models.Payment
	if err := database.DB.First(&payment, "provider_order_id = ?", req.OrderRef).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payment not found"})
	}
	if payment.Status != "pending" {
		return c.JSON(fiber.Map{"message": "Payment already processed"})
	}

	order, err := payments.CheckGatewayOrder(req.OrderRef)
	if err != nil {
		log.Printf("🔥 Gateway order check failed for %s: %v", req.OrderRef, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to verify payment status"})
	}

	var booking models.Booking
	if err := database.DB.Preload("User").Preload("Session").First(&booking, "id = ?", *payment.BookingID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Booking not found"})
	}

	switch strings.ToLower(order.Status) {
	case "paid", "authorised", "succeeded":
		// The replacement only counts once its payment is confirmed, so the
		// waiting conditional cancellation is resolved here, not at booking
		// creation.
		var replacedBooking *models.Booking
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			payment.Status = "succeeded"
			if order.TxnRef != "" {
				payment.ProviderTxnID = &order.TxnRef
			}
			booking.PaymentStatus = "paid"
			if err := tx.Save(&payment).Error; err != nil {
				return err
			}
			if err := tx.Save(&booking).Error; err != nil {
				return err
			}

			replaced, err := resolvePendingReplacement(tx, booking.SessionID)
			if err != nil {
				return err
			}
			replacedBooking = replaced
			return nil
		})
		if err != nil {
			log.Printf("🔥 Failed to confirm payment %s: %v", payment.ID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to confirm payment"})
		}

		if replacedBooking != nil {
			go settleReplacedBooking(*replacedBooking, booking.Session)
		}

		go services.GenerateBookingReceipt(booking)
		go notifications.NotifyUser(booking.UserID, "booking",
			"Booking Confirmed",
			fmt.Sprintf("Payment received. You are booked for %s on %s.",
				booking.Session.Title, booking.Session.Datetime.Format("Mon, Jan 2 at 3:04 PM")),
			&booking.Session.CommunityID, &booking.SessionID)

		return c.JSON(fiber.Map{"message": "Payment confirmed"})

	case "cancelled", "declined", "expired":
		payment.Status = "failed"
		database.DB.Save(&payment)
		releaseUnpaidBooking(&booking)
		return c.JSON(fiber.Map{"message": "Payment failed, booking released"})

	default:
		log.Printf("⚠️ Unhandled gateway status %q for order %s", order.Status, req.OrderRef)
		return c.JSON(fiber.Map{"message": "Payment still pending"})
	}
}

// releaseUnpaidBooking frees the reserved spot when a payment fails.
func releaseUnpaidBooking(booking *models.Booking) {
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var session models.Session
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&session, "id = ?", booking.SessionID).Error; err != nil {
			return err
		}
		if session.BookedCount > 0 {
			session.BookedCount--
			if err := tx.Save(&session).Error; err != nil {
				return err
			}
		}

		now := time.Now()
		booking.CancelledAt = &now
		booking.PaymentStatus = "failed"
		return tx.Save(booking).Error
	})
	if err != nil {
		log.Printf("🔥 Failed to release unpaid booking %s: %v", booking.ID, err)
	}
}

func GetMyReceipts(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	userID, _ := uuid.Parse(claims["user_id"].(string))

	var receipts []models.Receipt
	database.DB.
		Where("user_id = ?", userID).
		Order("issued_at desc").
		Find(&receipts)

	return c.JSON(receipts)
}
