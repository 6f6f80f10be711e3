package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/foodcafeshop/food-cafe/broker"
	"github.com/foodcafeshop/food-cafe/models"
	"github.com/foodcafeshop/food-cafe/realtime"
	"github.com/foodcafeshop/food-cafe/utils"
	"gorm.io/gorm"
)

// EventPublisher mengirim event perubahan ke broker eksternal (RabbitMQ).
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload interface{}) error
}

// ChangeEvent adalah payload yang dikirim ke broker.
type ChangeEvent struct {
	Entity    string      `json:"entity"`
	Action    string      `json:"action"`
	ShopID    uint        `json:"shop_id"`
	RecordID  uint        `json:"record_id"`
	ChangedAt time.Time   `json:"changed_at"`
	Data      interface{} `json:"data"`
}

// ChangeMonitor membaca baris db_changes yang belum diproses, memuat snapshot baris terkait,
// lalu mempublikasikannya ke hub realtime (dan broker jika ada).
type ChangeMonitor struct {
	DB        *gorm.DB
	Hub       *realtime.Hub
	Publisher EventPublisher
	Interval  time.Duration
	BatchSize int
}

func NewChangeMonitor(db *gorm.DB, hub *realtime.Hub, publisher EventPublisher, interval time.Duration) *ChangeMonitor {
	if interval <= 0 {
		interval = time.Second
	}
	return &ChangeMonitor{
		DB:        db,
		Hub:       hub,
		Publisher: publisher,
		Interval:  interval,
		BatchSize: 100,
	}
}

// Run memproses perubahan setiap Interval sampai ctx selesai.
func (cm *ChangeMonitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(cm.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := cm.ProcessPending(ctx); err != nil {
				utils.ErrorLogger.Errorf("change monitor: %v", err)
			}
		}
	}
}

// ProcessPending memproses satu batch dan mengembalikan jumlah baris yang diproses.
func (cm *ChangeMonitor) ProcessPending(ctx context.Context) (int, error) {
	processed := 0
	err := cm.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var changes []models.DBChange
		if err := tx.Where("processed = ?", false).
			Order("id ASC").
			Limit(cm.BatchSize).
			Find(&changes).Error; err != nil {
			return fmt.Errorf("fetch changes: %w", err)
		}
		if len(changes) == 0 {
			return nil
		}

		ids := make([]uint, 0, len(changes))
		for _, change := range changes {
			cm.dispatch(ctx, tx, change)
			ids = append(ids, change.ID)
		}

		if err := tx.Model(&models.DBChange{}).Where("id IN ?", ids).Update("processed", true).Error; err != nil {
			return fmt.Errorf("mark changes processed: %w", err)
		}
		processed = len(ids)
		return nil
	})
	if err != nil {
		return 0, err
	}

	if processed > 0 {
		utils.InfoLogger.Debugf("Successfully processed %d changes", processed)
	}
	return processed, nil
}

func (cm *ChangeMonitor) dispatch(ctx context.Context, tx *gorm.DB, change models.DBChange) {
	data, tableID, err := cm.load(tx, change)
	if err != nil {
		utils.ErrorLogger.Errorf("change monitor: load %s #%d: %v", change.Entity, change.RecordID, err)
		return
	}

	event := eventName(change.Entity, change.ActionType)
	if cm.Hub != nil {
		cm.Hub.Publish(realtime.Message{Topic: realtime.ShopTopic(change.ShopID), Event: event, Data: data})
		if tableID != nil {
			cm.Hub.Publish(realtime.Message{Topic: realtime.TableTopic(*tableID), Event: event, Data: data})
		}
	}

	if cm.Publisher != nil {
		payload := ChangeEvent{
			Entity:    change.Entity,
			Action:    change.ActionType,
			ShopID:    change.ShopID,
			RecordID:  change.RecordID,
			ChangedAt: change.ChangedAt,
			Data:      data,
		}
		key := broker.RoutingKey(change.Entity, change.ActionType, change.ShopID)
		// broker best-effort: hub tetap menerima event walau broker gagal
		if err := cm.Publisher.Publish(ctx, key, payload); err != nil {
			utils.ErrorLogger.Errorf("change monitor: publish %s: %v", key, err)
		}
	}
}

// load mengambil snapshot baris terbaru; untuk DELETE hanya id yang dikirim.
func (cm *ChangeMonitor) load(tx *gorm.DB, change models.DBChange) (interface{}, *uint, error) {
	if change.ActionType == models.ActionDelete {
		data := map[string]uint{"id": change.RecordID}
		if change.Entity == EntityTable {
			id := change.RecordID
			return data, &id, nil
		}
		return data, nil, nil
	}

	switch change.Entity {
	case EntityTable:
		var table models.Table
		if err := tx.First(&table, change.RecordID).Error; err != nil {
			return nil, nil, err
		}
		return table, &table.ID, nil
	case EntityOrder:
		var order models.Order
		if err := tx.Preload("OrderItems").First(&order, change.RecordID).Error; err != nil {
			return nil, nil, err
		}
		return order, order.TableID, nil
	case EntityBill:
		var bill models.Bill
		if err := tx.First(&bill, change.RecordID).Error; err != nil {
			return nil, nil, err
		}
		return bill, bill.TableID, nil
	}
	return nil, nil, errors.New("unknown entity " + change.Entity)
}

func eventName(entity, action string) string {
	switch entity {
	case EntityTable:
		switch action {
		case models.ActionInsert:
			return realtime.EventTableCreate
		case models.ActionDelete:
			return realtime.EventTableDelete
		}
		return realtime.EventTableUpdate
	case EntityOrder:
		if action == models.ActionInsert {
			return realtime.EventOrderCreate
		}
		return realtime.EventOrderUpdate
	case EntityBill:
		return realtime.EventBillCreate
	}
	return entity + "_" + action
}
