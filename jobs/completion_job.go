package jobs

import (
	"log"
	"time"

	"github.com/courtsidehq/padel_community/database"
	"github.com/courtsidehq/padel_community/models"
	"github.com/google/uuid"
)

func CompletePastSessions() {
	log.Println("Running job: CompletePastSessions...")

	now := time.Now()

	var pastSessions []models.Session

	err := database.DB.
		Where("status = ? AND datetime + (duration_minutes * interval '1 minute') < ?", "active", now).
		Find(&pastSessions).Error

	if err != nil {
		log.Printf("Error checking for past sessions: %v", err)
		return
	}

	if len(pastSessions) == 0 {
		return
	}

	for _, session := range pastSessions {
		session.Status = "completed"
		database.DB.Save(&session)

		finalizePendingCancellations(session.ID, now)
	}

	log.Printf("Marked %d session(s) as completed.", len(pastSessions))
}

// Conditional cancellations that never found a replacement are closed out
// without a refund once the session is over.
func finalizePendingCancellations(sessionID uuid.UUID, now time.Time) {
	result := database.DB.Model(&models.Booking{}).
		Where("session_id = ? AND cancellation_status = ? AND cancelled_at IS NULL", sessionID, "pending_replacement").
		Update("cancelled_at", now)

	if result.Error != nil {
		log.Printf("Error finalizing pending cancellations for session %v: %v", sessionID, result.Error)
		return
	}

	if result.RowsAffected > 0 {
		log.Printf("Closed %d pending cancellation(s) for session %v without a refund.", result.RowsAffected, sessionID)
	}
}
