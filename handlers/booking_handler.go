package handlers

import (
	"errors"
	"fmt"
	"log"
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

type CreateBookingRequest struct {
	SessionID string `json:"session_id" validate:"required,uuid"`
}

func CreateBooking(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	userID, _ := uuid.Parse(claims["user_id"].(string))

	var req CreateBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	sessionID, _ := uuid.Parse(req.SessionID)

	var session models.Session
	var booking models.Booking
	var payment models.Payment
	var resolvedBooking *models.Booking

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&session, "id = ?", sessionID).Error; err != nil {
			return errors.New("session not found")
		}
		if session.Status != "active" {
			return errors.New("this session is not open for booking")
		}
		if session.Datetime.Before(time.Now()) {
			return errors.New("this session has already started")
		}
		if session.BookedCount >= session.MaxPlayers {
			return errors.New("this session is full")
		}

		var membership models.CommunityMember
		if err := tx.Where("community_id = ? AND user_id = ? AND status = ?", session.CommunityID, userID, "approved").
			First(&membership).Error; err != nil {
			return errors.New("you must be an approved member of this community to book")
		}

		var existing models.Booking
		if err := tx.Where("session_id = ? AND user_id = ? AND cancelled_at IS NULL", session.ID, userID).
			First(&existing).Error; err == nil {
			return errors.New("you already have a booking for this session")
		}

		session.BookedCount++
		if err := tx.Save(&session).Error; err != nil {
			return err
		}

		booking = models.Booking{
			UserID:        userID,
			SessionID:     session.ID,
			PaymentStatus: "pending",
		}
		if session.Price == 0 {
			booking.PaymentStatus = "paid"
		}
		if err := tx.Create(&booking).Error; err != nil {
			return err
		}

		payment = models.Payment{
			BookingID: &booking.ID,
			Amount:    session.Price,
			Currency:  "AED",
			Provider:  "telr",
			Status:    "pending",
		}
		if session.Price == 0 {
			payment.Provider = "free"
			payment.Status = "succeeded"
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}

		// A free booking is confirmed on the spot, so it replaces a waiting
		// conditional cancellation right away. A paid booking only counts as
		// a replacement once the gateway confirms its payment.
		if session.Price == 0 {
			replaced, err := resolvePendingReplacement(tx, session.ID)
			if err != nil {
				return err
			}
			resolvedBooking = replaced
		}

		return nil
	})
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if resolvedBooking != nil {
		go settleReplacedBooking(*resolvedBooking, session)
	}

	if session.Price == 0 {
		go notifications.NotifyUser(userID, "booking",
			"Booking Confirmed",
			fmt.Sprintf("You are booked for %s on %s.", session.Title, session.Datetime.Format("Mon, Jan 2 at 3:04 PM")),
			&session.CommunityID, &session.ID)
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": "Booking confirmed.",
			"booking": booking,
		})
	}

	gatewayOrder, err := payments.CreateGatewayOrder(session.Price, "AED", payment.ID.String(),
		fmt.Sprintf("Padel session: %s", session.Title))
	if err != nil {
		log.Printf("🔥 CRITICAL: CreateGatewayOrder failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Payment could not be initiated, please try again."})
	}

	payment.ProviderOrderID = &gatewayOrder.OrderRef
	database.DB.Save(&payment)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"booking": booking,
		"pay_url": gatewayOrder.PayURL,
	})
}

// resolvePendingReplacement flips the oldest conditional cancellation still
// waiting on a replacement into a final cancellation. Returns nil when no
// booking is waiting.
func resolvePendingReplacement(tx *gorm.DB, sessionID uuid.UUID) (*models.Booking, error) {
	var pending models.Booking
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("session_id = ? AND cancellation_status = ? AND cancelled_at IS NULL",
			sessionID, services.CancellationStatusPendingReplacement).
		Order("updated_at asc").
		First(&pending).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	now := time.Now()
	pending.CancelledAt = &now
	if err := tx.Save(&pending).Error; err != nil {
		return nil, err
	}
	return &pending, nil
}

// settleReplacedBooking issues the contingent refund once a replacement
// booking has taken the vacated spot.
func settleReplacedBooking(booking models.Booking, session models.Session) {
	// refund_status IS NULL keeps a repeated settlement from refunding twice.
	var payment models.Payment
	if err := database.DB.First(&payment, "booking_id = ? AND status = ? AND refund_status IS NULL", booking.ID, "succeeded").Error; err != nil {
		log.Printf("🔥 No refundable payment found for replaced booking %s: %v", booking.ID, err)
		return
	}

	if payment.ProviderTxnID != nil {
		if err := payments.RefundGatewayPayment(*payment.ProviderTxnID, payment.Amount); err != nil {
			log.Printf("🔥 Failed to refund replaced booking %s: %v", booking.ID, err)
			return
		}
	}

	refunded := "refunded"
	payment.RefundStatus = &refunded
	database.DB.Save(&payment)

	notifications.NotifyUser(booking.UserID, "booking",
		"Your Spot Was Filled, Refund Issued",
		fmt.Sprintf("Another player took your spot in %s. AED %.2f has been refunded to you.", session.Title, payment.Amount),
		&session.CommunityID, &session.ID)

	log.Printf("✅ Replaced booking %s refunded AED %.2f", booking.ID, payment.Amount)
}

func CancelBooking(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	userID, _ := uuid.Parse(claims["user_id"].(string))
	bookingID := c.Params("bookingId")

	var booking models.Booking
	if err := database.DB.Preload("Session").First(&booking, "id = ?", bookingID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Booking not found"})
	}
	if booking.UserID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "This is not your booking"})
	}

	outcome, err := services.EvaluateCancellation(&booking, &booking.Session, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBookingNotCancellable):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		var session models.Session
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&session, "id = ?", booking.SessionID).Error; err != nil {
			return err
		}

		// Re-read the booking under lock so concurrent cancel requests
		// serialize here instead of acting on the same stale row.
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&booking, "id = ?", booking.ID).Error; err != nil {
			return err
		}
		if booking.IsCancelled() {
			return services.ErrBookingNotCancellable
		}
		heldSpot := booking.CancellationStatus == nil

		if outcome.Kind == services.CancellationImmediate {
			now := time.Now()
			booking.CancelledAt = &now
			booking.CancellationStatus = nil
		} else {
			status := services.CancellationStatusPendingReplacement
			booking.CancellationStatus = &status
		}
		if err := tx.Save(&booking).Error; err != nil {
			return err
		}

		// The spot is vacated once, on the first accepted request.
		if heldSpot && session.BookedCount > 0 {
			session.BookedCount--
			if err := tx.Save(&session).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, services.ErrBookingNotCancellable) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to cancel booking"})
	}

	if outcome.Kind == services.CancellationImmediate {
		go issueImmediateRefund(booking, booking.Session)
		return c.JSON(fiber.Map{
			"type":    "immediate",
			"message": fmt.Sprintf("Your booking has been cancelled. AED %.2f will be refunded to you.", outcome.RefundAmount),
		})
	}

	go notifications.NotifyUser(booking.UserID, "booking",
		"Cancellation Request Received",
		fmt.Sprintf("Your cancellation request for %s was received. You will be refunded if another player takes your spot.", booking.Session.Title),
		&booking.Session.CommunityID, &booking.SessionID)

	return c.JSON(fiber.Map{
		"type":    "pending",
		"message": "Your cancellation request was received. You will be refunded if another player takes your spot.",
	})
}

func issueImmediateRefund(booking models.Booking, session models.Session) {
	// refund_status IS NULL keeps a retried cancellation from refunding twice.
	var payment models.Payment
	if err := database.DB.First(&payment, "booking_id = ? AND status = ? AND refund_status IS NULL", booking.ID, "succeeded").Error; err != nil {
		log.Printf("🔥 No refundable payment found for cancelled booking %s: %v", booking.ID, err)
		return
	}

	if payment.ProviderTxnID != nil {
		if err := payments.RefundGatewayPayment(*payment.ProviderTxnID, payment.Amount); err != nil {
			log.Printf("🔥 Failed to refund booking %s: %v", booking.ID, err)
			return
		}
	}

	refunded := "refunded"
	payment.RefundStatus = &refunded
	database.DB.Save(&payment)

	notifications.NotifyUser(booking.UserID, "booking",
		"Booking Cancelled, Refund Issued",
		fmt.Sprintf("Your booking for %s was cancelled within the free window. AED %.2f has been refunded.", session.Title, payment.Amount),
		&session.CommunityID, &session.ID)
}

func GetMyBookings(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	userID, _ := uuid.Parse(claims["user_id"].(string))

	var bookings []models.Booking
	database.DB.
		Preload("Session.Community").
		Where("user_id = ?", userID).
		Order("sessions.datetime desc").
		Joins("JOIN sessions on bookings.session_id = sessions.id").
		Find(&bookings)

	return c.JSON(bookings)
}

func GetSessionBookings(c *fiber.Ctx) error {
	community, ok := managedCommunity(c)
	if !ok {
		return nil
	}
	sessionID := c.Params("sessionId")

	var session models.Session
	if err := database.DB.First(&session, "id = ? AND community_id = ?", sessionID, community.ID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
	}

	var bookings []models.Booking
	database.DB.
		Preload("User").
		Where("session_id = ?", session.ID).
		Order("created_at asc").
		Find(&bookings)

	return c.JSON(bookings)
}
