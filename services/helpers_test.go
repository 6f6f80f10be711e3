package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/foodcafeshop/food-cafe/config"
	"github.com/foodcafeshop/food-cafe/database"
	"github.com/foodcafeshop/food-cafe/models"
	"github.com/foodcafeshop/food-cafe/realtime"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testShop uint = 1

type fixture struct {
	db        *gorm.DB
	ctx       context.Context
	settings  *SettingsProvider
	otp       *OTPService
	customers *CustomerDirectory
	avail     *AvailabilityValidator
	tables    *TableService
	orders    *OrderService
	billing   *BillingService
	hub       *realtime.Hub
	guard     *SessionGuard
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(database.Models()...))
	return db
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := setupTestDB(t)

	defaults := config.Default().Defaults
	defaults.Currency = "USD"
	defaults.TaxRate = 10
	defaults.EnableOtp = true
	defaults.MaxItemQuantity = 10

	f := &fixture{db: db, ctx: context.Background(), hub: realtime.NewHub()}
	f.settings = NewSettingsProvider(db, defaults)
	f.otp = NewOTPService(db, f.settings)
	f.otp.newCode = func() (string, error) { return "1234", nil }
	f.customers = NewCustomerDirectory(db)
	f.avail = NewAvailabilityValidator(db)
	f.tables = NewTableService(db, f.otp, f.settings)
	f.orders = NewOrderService(db, f.settings, f.otp, f.customers, f.avail)
	f.billing = NewBillingService(db, f.settings)
	f.guard = NewSessionGuard(db, f.hub)
	return f
}

func (f *fixture) menuItem(t *testing.T, name string, price float64, available bool) models.MenuItem {
	t.Helper()
	item := models.MenuItem{ShopID: testShop, Name: name, Price: price, IsAvailable: available}
	require.NoError(t, f.db.Create(&item).Error)
	return item
}

func (f *fixture) table(t *testing.T, label string) *TableView {
	t.Helper()
	tv, err := f.tables.Create(f.ctx, testShop, TableInput{Label: label, Seats: 4})
	require.NoError(t, err)
	return tv
}

func (f *fixture) reloadTable(t *testing.T, id uint) models.Table {
	t.Helper()
	var table models.Table
	require.NoError(t, f.db.First(&table, id).Error)
	return table
}

func (f *fixture) setSettings(t *testing.T, mutate func(s *models.ShopSettings)) {
	t.Helper()
	s, err := f.settings.Get(f.ctx, testShop)
	require.NoError(t, err)
	mutate(s)
	_, err = f.settings.Update(f.ctx, testShop, *s)
	require.NoError(t, err)
}

// dineIn menempatkan order dine-in oleh staff (tanpa OTP).
func (f *fixture) dineIn(t *testing.T, tableID uint, items ...OrderItemInput) *models.Order {
	t.Helper()
	order, err := f.orders.Place(f.ctx, testShop, PlaceOrderRequest{
		TableID: &tableID,
		Items:   items,
		ByStaff: true,
	})
	require.NoError(t, err)
	return order
}

func (f *fixture) serve(t *testing.T, orderID uint) {
	t.Helper()
	_, err := f.orders.UpdateStatus(f.ctx, testShop, orderID, models.OrderStatusServed)
	require.NoError(t, err)
}

func (f *fixture) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Count(&n).Error)
	return n
}

// sequenceCodes mengembalikan kode dari daftar secara berurutan.
func sequenceCodes(codes ...string) CodeGenerator {
	var mu sync.Mutex
	i := 0
	return func(length int) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if i >= len(codes) {
			return fmt.Sprintf("Z%0*d", length-1, i), nil
		}
		c := codes[i]
		i++
		return c, nil
	}
}
