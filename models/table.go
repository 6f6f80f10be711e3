package models

import (
	"time"

	"gorm.io/datatypes"
)

// Status meja
const (
	TableStatusEmpty    = "empty"
	TableStatusOccupied = "occupied"
	TableStatusBilled   = "billed"
)

// ActiveCustomer adalah satu sesi customer yang sudah join ke meja.
type ActiveCustomer struct {
	SessionID string    `json:"session_id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	JoinedAt  time.Time `json:"joined_at"`
}

type Table struct {
	ID              uint                                `gorm:"primaryKey" json:"id"`
	ShopID          uint                                `gorm:"not null;uniqueIndex:idx_tables_shop_label" json:"shop_id"`
	Label           string                              `gorm:"type:varchar(50);not null;uniqueIndex:idx_tables_shop_label" json:"label"`
	Seats           int                                 `gorm:"not null" json:"seats"`
	PosX            float64                             `json:"pos_x"`
	PosY            float64                             `json:"pos_y"`
	Status          string                              `gorm:"type:varchar(20);not null;index" json:"status"`
	ActiveCustomers datatypes.JSONSlice[ActiveCustomer] `json:"active_customers"`
	CreatedAt       time.Time                           `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time                           `gorm:"not null" json:"updated_at"`
}

// HasSession -> true jika session id ada di daftar active_customers
func (t *Table) HasSession(sessionID string) bool {
	if sessionID == "" {
		return false
	}
	for _, c := range t.ActiveCustomers {
		if c.SessionID == sessionID {
			return true
		}
	}
	return false
}

// TableOTP menyimpan kode OTP meja. Dipisah dari Table supaya listing publik tidak membawa OTP.
type TableOTP struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ShopID    uint      `gorm:"not null;index" json:"shop_id"`
	TableID   uint      `gorm:"not null;uniqueIndex" json:"table_id"`
	Code      string    `gorm:"type:varchar(12);not null" json:"code"`
	RotatedAt time.Time `gorm:"not null" json:"rotated_at"`
}
