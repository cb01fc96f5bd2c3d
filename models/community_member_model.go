package models

import (
	"time"

	"github.com/google/uuid"
)

type CommunityMember struct {
	ID             uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CommunityID    uuid.UUID  `gorm:"not null;uniqueIndex:idx_community_members_pair" json:"community_id"`
	UserID         uuid.UUID  `gorm:"not null;uniqueIndex:idx_community_members_pair" json:"user_id"`
	SubCommunityID *uuid.UUID `json:"sub_community_id"`
	Status         string     `gorm:"size:20;not null;default:'pending'" json:"status"`
	Role           string     `gorm:"size:20;not null;default:'member'" json:"role"`

	Community    Community    `gorm:"foreignkey:CommunityID" json:"community,omitempty"`
	User         User         `gorm:"foreignkey:UserID" json:"user,omitempty"`
	SubCommunity SubCommunity `gorm:"foreignkey:SubCommunityID" json:"sub_community,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
