package models

import (
	"time"

	"github.com/google/uuid"
)

type Friendship struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	RequesterID uuid.UUID `gorm:"not null;uniqueIndex:idx_friendships_pair" json:"requester_id"`
	AddresseeID uuid.UUID `gorm:"not null;uniqueIndex:idx_friendships_pair" json:"addressee_id"`
	Status      string    `gorm:"size:20;not null;default:'pending'" json:"status"`

	Requester User `gorm:"foreignkey:RequesterID" json:"requester,omitempty"`
	Addressee User `gorm:"foreignkey:AddresseeID" json:"addressee,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
