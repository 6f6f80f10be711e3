package services

import (
	"fmt"
	"time"

	"github.com/foodcafeshop/food-cafe/models"
	"gorm.io/gorm"
)

// Entity names untuk baris outbox
const (
	EntityTable = "tables"
	EntityOrder = "orders"
	EntityBill  = "bills"
)

// recordChange menulis baris db_changes di transaksi yang sama dengan perubahannya.
func recordChange(tx *gorm.DB, shopID uint, entity string, recordID uint, action string) error {
	change := models.DBChange{
		ShopID:     shopID,
		Entity:     entity,
		RecordID:   recordID,
		ActionType: action,
		ChangedAt:  time.Now(),
	}
	if err := tx.Create(&change).Error; err != nil {
		return fmt.Errorf("record %s change: %w", entity, err)
	}
	return nil
}
