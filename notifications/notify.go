package notifications

import (
	"fmt"
	"log"

	"github.com/courtsidehq/padel_community/database"
	"github.com/courtsidehq/padel_community/models"
	"github.com/google/uuid"
)

// NotifyUser writes an in-app notification row and sends a best-effort email.
func NotifyUser(userID uuid.UUID, kind, title, message string, communityID, sessionID *uuid.UUID) {
	notification := models.Notification{
		UserID:      userID,
		Title:       title,
		Message:     message,
		Kind:        kind,
		CommunityID: communityID,
		SessionID:   sessionID,
	}
	if err := database.DB.Create(&notification).Error; err != nil {
		log.Printf("🔥 Failed to create notification for user %s: %v", userID, err)
		return
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err == nil {
		go SendEmail(user.FullName, user.Email, title, fmt.Sprintf("<p>%s</p>", message))
	}
}

// FanOutToCommunity notifies every approved member of a community, optionally
// scoped to a single sub-community. Failures for individual members are
// logged and skipped.
func FanOutToCommunity(communityID uuid.UUID, subCommunityID *uuid.UUID, kind, title, message string, sessionID *uuid.UUID) {
	query := database.DB.Preload("User").
		Where("community_id = ? AND status = ?", communityID, "approved")
	if subCommunityID != nil {
		query = query.Where("sub_community_id = ?", *subCommunityID)
	}

	var members []models.CommunityMember
	if err := query.Find(&members).Error; err != nil {
		log.Printf("🔥 Failed to load members for community %s fan-out: %v", communityID, err)
		return
	}

	cid := communityID
	for _, member := range members {
		notification := models.Notification{
			UserID:      member.UserID,
			Title:       title,
			Message:     message,
			Kind:        kind,
			CommunityID: &cid,
			SessionID:   sessionID,
		}
		if err := database.DB.Create(&notification).Error; err != nil {
			log.Printf("🔥 Failed to notify member %s: %v", member.UserID, err)
			continue
		}
		go SendEmail(member.User.FullName, member.User.Email, title, fmt.Sprintf("<p>%s</p>", message))
	}

	log.Printf("✅ Fan-out complete: notified %d member(s) of community %s", len(members), communityID)
}
