package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Subscriber struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BarbershopID uint      `gorm:"index;not null" json:"barbershop_id"`

	Name        string `gorm:"size:100;not null" json:"name"`
	Email       string `gorm:"size:100;index" json:"email"`
	Phone       string `gorm:"size:20" json:"phone"`
	DeviceToken string `gorm:"size:255" json:"device_token"`
	Plan        string `gorm:"size:50" json:"plan"`
	Active      bool   `gorm:"default:true" json:"active"`

	BillingID     string  `gorm:"size:64" json:"billing_id"`
	BillingStatus string  `gorm:"size:30" json:"billing_status"`
	MonthlyFee    float64 `gorm:"type:numeric(12,2)" json:"monthly_fee"`

	SubscribedAt time.Time `json:"subscribed_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (s *Subscriber) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.SubscribedAt.IsZero() {
		s.SubscribedAt = time.Now()
	}
	return nil
}
