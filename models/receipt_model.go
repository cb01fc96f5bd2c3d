package models

import (
	"time"

	"github.com/google/uuid"
)

type Receipt struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	BookingID     uuid.UUID `gorm:"not null;unique" json:"booking_id"`
	UserID        uuid.UUID `gorm:"not null" json:"user_id"`
	ReceiptNumber string    `gorm:"size:30;not null;unique" json:"receipt_number"`
	Amount        float64   `gorm:"type:numeric(10,2);not null" json:"amount"`
	Currency      string    `gorm:"size:3;not null;default:'AED'" json:"currency"`
	ReceiptURL    string    `gorm:"type:text;not null" json:"receipt_url"`
	IssuedAt      time.Time `gorm:"not null" json:"issued_at"`

	Booking Booking `gorm:"foreignkey:BookingID" json:"-"`
	User    User    `gorm:"foreignkey:UserID" json:"-"`
}
