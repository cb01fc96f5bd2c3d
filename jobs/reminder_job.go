package jobs

import (
	"fmt"
	"log"
	"time"

	"github.com/courtsidehq/padel_community/database"
	"github.com/courtsidehq/padel_community/models"
	"github.com/courtsidehq/padel_community/notifications"
)

func SendSessionReminders() {
	log.Println("Running job: SendSessionReminders...")

	now := time.Now()
	lowerBound := now.Add(60 * time.Minute)
	upperBound := now.Add(65 * time.Minute)

	var upcomingBookings []models.Booking

	err := database.DB.
		Preload("User").
		Preload("Session").
		Joins("JOIN sessions on bookings.session_id = sessions.id").
		Where("bookings.cancelled_at IS NULL AND sessions.status = ? AND sessions.datetime BETWEEN ? AND ?", "active", lowerBound, upperBound).
		Find(&upcomingBookings).Error

	if err != nil {
		log.Printf("Error checking for upcoming sessions: %v", err)
		return
	}

	if len(upcomingBookings) == 0 {
		return
	}

	for _, booking := range upcomingBookings {
		log.Printf("Sending reminder for booking ID: %s", booking.ID)

		emailSubject := "Reminder: Your Padel Session Starts in 1 Hour!"
		emailBody := fmt.Sprintf(
			"<h1>Session Reminder</h1><p>Hi there,</p><p>This is a friendly reminder that <b>%s</b> is scheduled to start in one hour at %s.</p><p>Venue: %s</p>",
			booking.Session.Title,
			booking.Session.Datetime.Format(time.Kitchen),
			booking.Session.Location,
		)

		go notifications.SendEmail(booking.User.FullName, booking.User.Email, emailSubject, emailBody)
	}
}
