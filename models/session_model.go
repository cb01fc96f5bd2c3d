package models

import (
	"time"

	"github.com/google/uuid"
)

type Session struct {
	ID                uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CommunityID       uuid.UUID  `gorm:"not null" json:"community_id"`
	SubCommunityID    *uuid.UUID `json:"sub_community_id"`
	SessionTemplateID *uuid.UUID `gorm:"uniqueIndex:idx_sessions_template_datetime" json:"session_template_id"`

	Title         string `gorm:"size:255;not null" json:"title"`
	Description   string `gorm:"type:text" json:"description"`
	Location      string `gorm:"size:255" json:"location"`
	GoogleMapsURL string `gorm:"size:255" json:"google_maps_url"`

	Datetime        time.Time `gorm:"not null;uniqueIndex:idx_sessions_template_datetime" json:"datetime"`
	DurationMinutes int       `gorm:"not null;default:90" json:"duration_minutes"`
	Price           float64   `gorm:"type:numeric(10,2);not null" json:"price"`
	MaxPlayers      int       `gorm:"not null" json:"max_players"`
	BookedCount     int       `gorm:"not null;default:0" json:"booked_count"`
	Status          string    `gorm:"size:20;not null;default:'active'" json:"status"`

	FreeCancellationHours        int  `gorm:"not null;default:24" json:"free_cancellation_hours"`
	AllowConditionalCancellation bool `gorm:"not null;default:false" json:"allow_conditional_cancellation"`

	Community    Community    `gorm:"foreignkey:CommunityID" json:"community,omitempty"`
	SubCommunity SubCommunity `gorm:"foreignkey:SubCommunityID" json:"sub_community,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Session) SpotsLeft() int {
	return s.MaxPlayers - s.BookedCount
}
