package models

import (
	"time"

	"github.com/google/uuid"
)

type Conversation struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Kind        string     `gorm:"size:20;not null;default:'direct'"`
	CommunityID *uuid.UUID `gorm:"unique"`

	Participants []*User `gorm:"many2many:conversation_participants;"`
	Messages     []Message

	CreatedAt time.Time
	UpdatedAt time.Time
}
