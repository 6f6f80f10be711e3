package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/foodcafeshop/food-cafe/models"
	"gorm.io/gorm"
)

// CustomerDirectory menyimpan customer per toko, dicocokkan berdasarkan nomor telepon.
type CustomerDirectory struct {
	db *gorm.DB
}

func NewCustomerDirectory(db *gorm.DB) *CustomerDirectory {
	return &CustomerDirectory{db: db}
}

// Upsert mencari customer (shop+phone); update nama jika berubah, insert jika belum ada.
func (d *CustomerDirectory) Upsert(ctx context.Context, shopID uint, name, phone string) (uint, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return 0, ErrPhoneRequired
	}
	db := d.db.WithContext(ctx)

	var existing models.Customer
	err := db.Where("shop_id = ? AND phone = ?", shopID, phone).First(&existing).Error
	switch {
	case err == nil:
		if name != "" && existing.Name != name {
			if err := db.Model(&existing).Update("name", name).Error; err != nil {
				return 0, fmt.Errorf("update customer: %w", err)
			}
		}
		return existing.ID, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return 0, fmt.Errorf("find customer: %w", err)
	}

	customer := models.Customer{ShopID: shopID, Phone: phone, Name: name}
	if err := db.Create(&customer).Error; err != nil {
		if !isUniqueViolation(err) {
			return 0, fmt.Errorf("create customer: %w", err)
		}
		// request lain baru saja insert nomor yang sama
		if err := db.Where("shop_id = ? AND phone = ?", shopID, phone).First(&existing).Error; err != nil {
			return 0, fmt.Errorf("find customer: %w", err)
		}
		return existing.ID, nil
	}
	return customer.ID, nil
}

// List mengembalikan customer toko, filter prefix nomor telepon opsional.
func (d *CustomerDirectory) List(ctx context.Context, shopID uint, phone string, page Page) ([]models.Customer, int64, error) {
	q := d.db.WithContext(ctx).Model(&models.Customer{}).Where("shop_id = ?", shopID)
	if phone != "" {
		q = q.Where("phone LIKE ?", strings.TrimSpace(phone)+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}

	var customers []models.Customer
	if err := page.apply(q).Order("updated_at DESC").Find(&customers).Error; err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	return customers, total, nil
}
