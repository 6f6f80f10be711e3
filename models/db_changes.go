package models

import (
	"time"
)

// Action types
const (
	ActionInsert = "INSERT"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
)

// DBChange adalah baris outbox. Ditulis di transaksi yang sama dengan perubahan datanya,
// lalu dipublikasikan oleh ChangeMonitor.
type DBChange struct {
	ID         uint      `gorm:"primaryKey"`
	ShopID     uint      `gorm:"not null;index"`
	Entity     string    `gorm:"type:varchar(30);not null;index:idx_entity_action"`
	RecordID   uint      `gorm:"not null"`
	ActionType string    `gorm:"type:varchar(10);not null;index:idx_entity_action"`
	ChangedAt  time.Time `gorm:"not null"`
	Processed  bool      `gorm:"not null;index:idx_processed"`
}
