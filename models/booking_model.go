package models

import (
	"time"

	"github.com/google/uuid"
)

type Booking struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID    uuid.UUID `gorm:"not null"`
	SessionID uuid.UUID `gorm:"not null"`

	PaymentStatus string `gorm:"size:20;not null;default:'pending'"`

	CancelledAt        *time.Time
	CancellationStatus *string `gorm:"size:30"`

	User    User    `gorm:"foreignkey:UserID"`
	Session Session `gorm:"foreignkey:SessionID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (b *Booking) IsCancelled() bool {
	return b.CancelledAt != nil
}
