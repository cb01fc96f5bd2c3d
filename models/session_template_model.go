package models

import (
	"time"

	"github.com/google/uuid"
)

type SessionTemplate struct {
	ID             uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CommunityID    uuid.UUID  `gorm:"not null" json:"community_id"`
	SubCommunityID *uuid.UUID `json:"sub_community_id"`

	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Location    string `gorm:"size:255" json:"location"`

	DayOfWeek       int    `gorm:"not null" json:"day_of_week"`
	TimeOfDay       string `gorm:"size:8;not null" json:"time_of_day"`
	DurationMinutes int    `gorm:"not null;default:90" json:"duration_minutes"`

	Price      float64 `gorm:"type:numeric(10,2);not null" json:"price"`
	MaxPlayers int     `gorm:"not null" json:"max_players"`

	FreeCancellationHours        int  `gorm:"not null;default:24" json:"free_cancellation_hours"`
	AllowConditionalCancellation bool `gorm:"not null;default:false" json:"allow_conditional_cancellation"`
	IsActive                     bool `gorm:"not null;default:true" json:"is_active"`

	Community Community `gorm:"foreignkey:CommunityID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
