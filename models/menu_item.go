package models

import (
	"time"

	"gorm.io/gorm"
)

// MenuItem dikelola oleh modul menu; core hanya membaca harga, nama dan ketersediaan.
type MenuItem struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	ShopID      uint           `gorm:"not null;index" json:"shop_id"`
	Name        string         `gorm:"type:varchar(255);not null" json:"name"`
	Price       float64        `gorm:"type:decimal(12,3);not null" json:"price"`
	IsAvailable bool           `gorm:"not null" json:"is_available"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}
