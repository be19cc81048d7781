package models

import "time"

type Item struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	BarbershopID uint   `gorm:"uniqueIndex:idx_items_shop_business_id;not null" json:"barbershop_id"`
	BusinessID   string `gorm:"size:32;uniqueIndex:idx_items_shop_business_id;not null" json:"item_id"`

	Name     string `gorm:"size:100;not null" json:"name"`
	Category string `gorm:"size:50" json:"category"`
	Supplier string `gorm:"size:100" json:"supplier"`
	Unit     string `gorm:"size:20;not null" json:"unit"`

	Quantity     int      `gorm:"not null;default:0" json:"quantity"`
	ReorderLevel int      `gorm:"default:0" json:"reorder_level"`
	UnitPrice    *float64 `gorm:"type:numeric(12,2)" json:"unit_price"`

	ExpirationDate *time.Time `gorm:"type:date" json:"expiration_date"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (i *Item) LowStock() bool {
	return i.Quantity <= i.ReorderLevel
}
