package services

import (
	"context"
	"fmt"

	"github.com/foodcafeshop/food-cafe/models"
	"gorm.io/gorm"
)

// LineRef adalah satu baris keranjang yang dicek: id menu item dan nama yang dilihat customer.
type LineRef struct {
	MenuItemID uint   `json:"id" binding:"required"`
	Name       string `json:"name"`
}

// AvailabilityValidator mengecek ulang apakah item keranjang masih bisa dijual.
type AvailabilityValidator struct {
	db *gorm.DB
}

func NewAvailabilityValidator(db *gorm.DB) *AvailabilityValidator {
	return &AvailabilityValidator{db: db}
}

// Check mengembalikan nama item yang tidak tersedia (tidak ada, terhapus, atau is_available=false).
// Tidak pernah gagal per item; hasilnya dikumpulkan lalu dilaporkan sekaligus.
func (v *AvailabilityValidator) Check(ctx context.Context, shopID uint, lines []LineRef) ([]string, error) {
	unavailable, _, err := v.resolve(ctx, shopID, lines)
	return unavailable, err
}

// resolve juga mengembalikan menu item yang tersedia, dipakai untuk snapshot harga saat order.
func (v *AvailabilityValidator) resolve(ctx context.Context, shopID uint, lines []LineRef) ([]string, map[uint]models.MenuItem, error) {
	ids := make([]uint, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.MenuItemID)
	}

	items := make(map[uint]models.MenuItem, len(ids))
	if len(ids) > 0 {
		var found []models.MenuItem
		err := v.db.WithContext(ctx).
			Where("shop_id = ? AND id IN ?", shopID, ids).
			Find(&found).Error
		if err != nil {
			return nil, nil, fmt.Errorf("load menu items: %w", err)
		}
		for _, it := range found {
			items[it.ID] = it
		}
	}

	var unavailable []string
	seen := make(map[uint]bool, len(lines))
	for _, l := range lines {
		if seen[l.MenuItemID] {
			continue
		}
		seen[l.MenuItemID] = true

		item, ok := items[l.MenuItemID]
		if ok && item.IsAvailable {
			continue
		}
		name := l.Name
		if name == "" && ok {
			name = item.Name
		}
		if name == "" {
			name = fmt.Sprintf("item #%d", l.MenuItemID)
		}
		unavailable = append(unavailable, name)
	}
	return unavailable, items, nil
}
