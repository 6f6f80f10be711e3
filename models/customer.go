package models

import (
	"time"
)

// Customer -> direktori customer per toko, dicocokkan lewat nomor telepon
type Customer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ShopID    uint      `gorm:"not null;uniqueIndex:idx_customers_shop_phone" json:"shop_id"`
	Phone     string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_customers_shop_phone" json:"phone"`
	Name      string    `gorm:"type:varchar(100)" json:"name"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
