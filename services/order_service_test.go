package services

import (
	"testing"

	"github.com/foodcafeshop/food-cafe/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{models.OrderStatusQueued, models.OrderStatusPreparing, true},
		{models.OrderStatusQueued, models.OrderStatusServed, true},
		{models.OrderStatusPreparing, models.OrderStatusReady, true},
		{models.OrderStatusReady, models.OrderStatusServed, true},
		{models.OrderStatusServed, models.OrderStatusReady, false},
		{models.OrderStatusReady, models.OrderStatusQueued, false},
		{models.OrderStatusQueued, models.OrderStatusQueued, false},
		{models.OrderStatusQueued, models.OrderStatusCancelled, true},
		{models.OrderStatusPreparing, models.OrderStatusCancelled, true},
		{models.OrderStatusReady, models.OrderStatusCancelled, false},
		{models.OrderStatusServed, models.OrderStatusCancelled, false},
		{models.OrderStatusServed, models.OrderStatusBilled, false},
		{models.OrderStatusCancelled, models.OrderStatusQueued, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

// Scenario: meja kosong, 2 x 100 dengan pajak 10% eksklusif -> total 220.
func TestPlaceOrderOccupiesTableAndComputesTotal(t *testing.T) {
	f := newFixture(t)
	item := f.menuItem(t, "Nasi Goreng", 100, true)
	tv := f.table(t, "A1")

	order := f.dineIn(t, tv.ID, OrderItemInput{MenuItemID: item.ID, Quantity: 2, Note: " pedas "})

	assert.Equal(t, 220.0, order.TotalAmount)
	assert.Equal(t, models.OrderStatusQueued, order.Status)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, models.ServiceDineIn, order.ServiceType)
	assert.Len(t, order.OrderNumber, OrderNumberLength)
	require.Len(t, order.OrderItems, 1)
	assert.Equal(t, "Nasi Goreng", order.OrderItems[0].Name)
	assert.Equal(t, "pedas", order.OrderItems[0].Note)

	assert.Equal(t, models.TableStatusOccupied, f.reloadTable(t, tv.ID).Status)

	var changes []models.DBChange
	require.NoError(t, f.db.Where("entity = ?", EntityOrder).Find(&changes).Error)
	require.Len(t, changes, 1)
	assert.Equal(t, models.ActionInsert, changes[0].ActionType)
}

func TestPlaceOrderSnapshotsMenuPrice(t *testing.T) {
	f := newFixture(t)
	item := f.menuItem(t, "Tea", 10, true)
	tv := f.table(t, "A1")

	order := f.dineIn(t, tv.ID, OrderItemInput{MenuItemID: item.ID, Name: "client name", Quantity: 1})

	require.NoError(t, f.db.Model(&item).Updates(map[string]interface{}{"price": 99, "name": "Tea XL"}).Error)

	reloaded, err := f.orders.Get(f.ctx, testShop, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 10.0, reloaded.OrderItems[0].Price)
	assert.Equal(t, "Tea", reloaded.OrderItems[0].Name)
}

func TestPlaceOrderRejectsUnavailableItems(t *testing.T) {
	f := newFixture(t)
	ok := f.menuItem(t, "Tea", 10, true)
	gone := f.menuItem(t, "X", 10, false)
	deleted := f.menuItem(t, "Old Special", 10, true)
	require.NoError(t, f.db.Delete(&deleted).Error)
	tv := f.table(t, "A1")

	_, err := f.orders.Place(f.ctx, testShop, PlaceOrderRequest{
		TableID: &tv.ID,
		ByStaff: true,
		Items: []OrderItemInput{
			{MenuItemID: ok.ID, Quantity: 1},
			{MenuItemID: gone.ID, Name: "X", Quantity: 1},
			{MenuItemID: deleted.ID, Name: "Old Special", Quantity: 1},
		},
	})

	var availErr *AvailabilityError
	require.ErrorAs(t, err, &availErr)
	assert.Equal(t, []string{"X", "Old Special"}, availErr.Items)
	assert.Equal(t, KindAvailability, KindOf(err))
	assert.Zero(t, f.count(t, &models.Order{}))
	assert.Equal(t, models.TableStatusEmpty, f.reloadTable(t, tv.ID).Status)
}

func TestPlaceOrderOnBilledTableFails(t *testing.T) {
	f := newFixture(t)
	item := f.menuItem(t, "Tea", 10, true)
	tv := f.table(t, "A1")
	require.NoError(t, f.db.Model(&models.Table{}).Where("id = ?", tv.ID).Update("status", models.TableStatusBilled).Error)

	changesBefore := f.count(t, &models.DBChange{})
	_, err := f.orders.Place(f.ctx, testShop, PlaceOrderRequest{
		TableID: &tv.ID,
		ByStaff: true,
		Items:   []OrderItemInput{{MenuItemID: item.ID, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrTableBilled)
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Zero(t, f.count(t, &models.Order{}))
	assert.Equal(t, changesBefore, f.count(t, &models.DBChange{}))
}

func TestPlaceOrderValidation(t *testing.T) {
	f := newFixture(t)
	item := f.menuItem(t, "Tea", 10, true)
	tv := f.table(t, "A1")

	_, err := f.orders.Place(f.ctx, testShop, PlaceOrderRequest{TableID: &tv.ID, ByStaff: true})
	assert.ErrorIs(t, err, ErrEmptyOrder)

	_, err = f.orders.Place(f.ctx, testShop, PlaceOrderRequest{
		TableID: &tv.ID, ByStaff: true,
		Items: []OrderItemInput{{MenuItemID: item.ID, Quantity: 11}},
	})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = f.orders.Place(f.ctx, testShop, PlaceOrderRequest{
		ServiceType: models.ServiceDineIn, ByStaff: true,
		Items: []OrderItemInput{{MenuItemID: item.ID, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrTableRequired)

	_, err = f.orders.Place(f.ctx, testShop, PlaceOrderRequest{
		TableID: &tv.ID, ByStaff: true, CustomerPhone: "call me",
		Items: []OrderItemInput{{MenuItemID: item.ID, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrInvalidPhone)

	f.setSettings(t, func(s *models.ShopSettings) { s.IsPhoneMandatory = true })
	_, err = f.orders.Place(f.ctx, testShop, PlaceOrderRequest{
		TableID: &tv.ID, OTP: "1234",
		Items: []OrderItemInput{{MenuItemID: item.ID, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrPhoneRequired)
	assert.Zero(t, f.count(t, &models.Order{}))
}

func TestCustomerDineInOrderNeedsSessionOrOTP(t *testing.T) {
	f := newFixture(t)
	item := f.menuItem(t, "Tea", 10, true)
	tv := f.table(t, "A1")
	items := []OrderItemInput{{MenuItemID: item.ID, Quantity: 1}}

	_, err := f.orders.Place(f.ctx, testShop, PlaceOrderRequest{TableID: &tv.ID, OTP: "0000", Items: items})
	assert.ErrorIs(t, err, ErrInvalidOTP)

	// OTP benar tanpa join
	_, err = f.orders.Place(f.ctx, testShop, PlaceOrderRequest{TableID: &tv.ID, OTP: "1234", Items: items})
	require.NoError(t, err)

	// sesi yang sudah join tidak perlu OTP lagi
	ok, err := f.tables.Join(f.ctx, testShop, tv.ID, join("s1", "Ana", ""))
	require.NoError(t, err)
	require.True(t, ok)
	_, err = f.orders.Place(f.ctx, testShop, PlaceOrderRequest{TableID: &tv.ID, SessionID: "s1", Items: items})
	require.NoError(t, err)
}

func TestTakeawayOrderUsesShopOTPAndCharges(t *testing.T) {
	f := newFixture(t)
	item := f.menuItem(t, "Burger", 50, true)
	f.setSettings(t, func(s *models.ShopSettings) {
		s.TaxRate = 0
		s.PackagingChargeType = models.ChargeTypeFixed
		s.PackagingChargeAmount = 3
	})
	code, err := f.otp.RotateTakeaway(f.ctx, testShop)
	require.NoError(t, err)

	req := PlaceOrderRequest{
		ServiceType:   models.ServiceTakeaway,
		CustomerName:  "Ana",
		CustomerPhone: "0811 111 111",
		Items:         []OrderItemInput{{MenuItemID: item.ID, Quantity: 2}},
	}
	_, err = f.orders.Place(f.ctx, testShop, req)
	assert.ErrorIs(t, err, ErrInvalidOTP)

	req.OTP = code
	order, err := f.orders.Place(f.ctx, testShop, req)
	require.NoError(t, err)
	assert.Nil(t, order.TableID)
	assert.Equal(t, 103.0, order.TotalAmount)
	assert.Equal(t, "0811111111", order.CustomerPhone)
	require.NotNil(t, order.CustomerID)

	var customer models.Customer
	require.NoError(t, f.db.First(&customer, *order.CustomerID).Error)
	assert.Equal(t, "Ana", customer.Name)
}

func TestTakeawayWithOTPDisabledNeedsSentinel(t *testing.T) {
	f := newFixture(t)
	item := f.menuItem(t, "Burger", 50, true)
	f.setSettings(t, func(s *models.ShopSettings) { s.EnableOtp = false })

	req := PlaceOrderRequest{
		ServiceType: models.ServiceTakeaway,
		OTP:         "garbage",
		Items:       []OrderItemInput{{MenuItemID: item.ID, Quantity: 1}},
	}
	_, err := f.orders.Place(f.ctx, testShop, req)
	assert.ErrorIs(t, err, ErrInvalidOTP)
	assert.Zero(t, f.count(t, &models.Order{}))

	req.OTP = OTPDisabledCode
	_, err = f.orders.Place(f.ctx, testShop, req)
	require.NoError(t, err)

	ok, err := f.otp.VerifyTakeaway(f.ctx, testShop, "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUnknownTableLooksLikeWrongOTPForCustomers(t *testing.T) {
	f := newFixture(t)
	item := f.menuItem(t, "Tea", 10, true)
	missing := uint(999999)
	items := []OrderItemInput{{MenuItemID: item.ID, Quantity: 1}}

	_, err := f.orders.Place(f.ctx, testShop, PlaceOrderRequest{TableID: &missing, OTP: "1234", Items: items})
	assert.ErrorIs(t, err, ErrInvalidOTP)

	// staff tetap mendapat not found
	_, err = f.orders.Place(f.ctx, testShop, PlaceOrderRequest{TableID: &missing, ByStaff: true, Items: items})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrderNumberCollisionIsRetried(t *testing.T) {
	f := newFixture(t)
	f.orders.WithCodeGenerator(sequenceCodes("AAAAAA", "AAAAAA", "AAAAAA", "CCCCCC"))
	item := f.menuItem(t, "Tea", 10, true)
	tv := f.table(t, "A1")

	first := f.dineIn(t, tv.ID, OrderItemInput{MenuItemID: item.ID, Quantity: 1})
	second := f.dineIn(t, tv.ID, OrderItemInput{MenuItemID: item.ID, Quantity: 1})

	assert.Equal(t, "AAAAAA", first.OrderNumber)
	assert.Equal(t, "CCCCCC", second.OrderNumber)
	assert.Equal(t, int64(2), f.count(t, &models.OrderItem{}))
}

func TestOrderNumberExhaustionFailsWithoutWrites(t *testing.T) {
	f := newFixture(t)
	f.orders.WithCodeGenerator(sequenceCodes("AAAAAA", "AAAAAA", "AAAAAA", "AAAAAA", "AAAAAA", "AAAAAA"))
	item := f.menuItem(t, "Tea", 10, true)
	tv := f.table(t, "A1")
	f.dineIn(t, tv.ID, OrderItemInput{MenuItemID: item.ID, Quantity: 1})

	_, err := f.orders.Place(f.ctx, testShop, PlaceOrderRequest{
		TableID: &tv.ID, ByStaff: true,
		Items: []OrderItemInput{{MenuItemID: item.ID, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrExhaustedRetries)
	assert.Equal(t, int64(1), f.count(t, &models.Order{}))
	assert.Equal(t, int64(1), f.count(t, &models.OrderItem{}))
}

// Scenario: order preparing tidak bisa di-cancel.
func TestCancelOnlyWhileQueued(t *testing.T) {
	f := newFixture(t)
	item := f.menuItem(t, "Tea", 10, true)
	tv := f.table(t, "A1")
	order := f.dineIn(t, tv.ID, OrderItemInput{MenuItemID: item.ID, Quantity: 1})

	_, err := f.orders.UpdateStatus(f.ctx, testShop, order.ID, models.OrderStatusPreparing)
	require.NoError(t, err)

	_, err = f.orders.Cancel(f.ctx, testShop, order.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	reloaded, err := f.orders.Get(f.ctx, testShop, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPreparing, reloaded.Status)

	queued := f.dineIn(t, tv.ID, OrderItemInput{MenuItemID: item.ID, Quantity: 1})
	cancelled, err := f.orders.Cancel(f.ctx, testShop, queued.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)

	_, err = f.orders.Cancel(f.ctx, testShop, queued.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestUpdateStatusRules(t *testing.T) {
	f := newFixture(t)
	item := f.menuItem(t, "Tea", 10, true)
	tv := f.table(t, "A1")
	order := f.dineIn(t, tv.ID, OrderItemInput{MenuItemID: item.ID, Quantity: 1})

	_, err := f.orders.UpdateStatus(f.ctx, testShop, order.ID, models.OrderStatusBilled)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.orders.UpdateStatus(f.ctx, testShop, order.ID, models.OrderStatusReady)
	require.NoError(t, err)
	_, err = f.orders.UpdateStatus(f.ctx, testShop, order.ID, models.OrderStatusPreparing)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = f.orders.UpdateStatus(f.ctx, testShop, order.ID, models.OrderStatusCancelled)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.orders.UpdateStatus(f.ctx, 2, order.ID, models.OrderStatusServed)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReplaceItemsUsesRawTotal(t *testing.T) {
	f := newFixture(t)
	tea := f.menuItem(t, "Tea", 10, true)
	cake := f.menuItem(t, "Cake", 25, true)
	tv := f.table(t, "A1")
	order := f.dineIn(t, tv.ID, OrderItemInput{MenuItemID: tea.ID, Quantity: 1})
	assert.Equal(t, 11.0, order.TotalAmount)

	// harga tea berubah setelah order; item lama tetap pakai snapshot
	require.NoError(t, f.db.Model(&tea).Update("price", 12).Error)
	// tea sudah di order, jadi tetap boleh walau sekarang habis
	require.NoError(t, f.db.Model(&tea).Update("is_available", false).Error)

	updated, err := f.orders.ReplaceItems(f.ctx, testShop, order.ID, []OrderItemInput{
		{MenuItemID: tea.ID, Quantity: 3},
		{MenuItemID: cake.ID, Quantity: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, 80.0, updated.TotalAmount)
	assert.Equal(t, int64(2), f.count(t, &models.OrderItem{}))

	require.NoError(t, f.db.Model(&cake).Update("is_available", false).Error)
	donut := f.menuItem(t, "Donut", 5, false)
	_, err = f.orders.ReplaceItems(f.ctx, testShop, order.ID, []OrderItemInput{{MenuItemID: donut.ID, Name: "Donut", Quantity: 1}})
	var availErr *AvailabilityError
	require.ErrorAs(t, err, &availErr)
	assert.Equal(t, []string{"Donut"}, availErr.Items)
}

func TestReplaceItemsRejectedAfterCancel(t *testing.T) {
	f := newFixture(t)
	tea := f.menuItem(t, "Tea", 10, true)
	tv := f.table(t, "A1")
	order := f.dineIn(t, tv.ID, OrderItemInput{MenuItemID: tea.ID, Quantity: 1})
	_, err := f.orders.Cancel(f.ctx, testShop, order.ID)
	require.NoError(t, err)

	_, err = f.orders.ReplaceItems(f.ctx, testShop, order.ID, []OrderItemInput{{MenuItemID: tea.ID, Quantity: 2}})
	assert.ErrorIs(t, err, ErrOrderLocked)
}

func TestListOrdersFilters(t *testing.T) {
	f := newFixture(t)
	tea := f.menuItem(t, "Tea", 10, true)
	a1 := f.table(t, "A1")
	a2 := f.table(t, "A2")

	o1 := f.dineIn(t, a1.ID, OrderItemInput{MenuItemID: tea.ID, Quantity: 1})
	f.dineIn(t, a2.ID, OrderItemInput{MenuItemID: tea.ID, Quantity: 1})
	f.serve(t, o1.ID)

	all, total, err := f.orders.List(f.ctx, testShop, OrderFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, all, 2)

	served, total, err := f.orders.List(f.ctx, testShop, OrderFilter{Status: models.OrderStatusServed})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, o1.ID, served[0].ID)

	byTable, _, err := f.orders.List(f.ctx, testShop, OrderFilter{TableID: &a2.ID})
	require.NoError(t, err)
	require.Len(t, byTable, 1)
	assert.Len(t, byTable[0].OrderItems, 1)

	paged, total, err := f.orders.List(f.ctx, testShop, OrderFilter{Sort: "asc", Page: Page{Limit: 1}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, paged, 1)
	assert.Equal(t, o1.ID, paged[0].ID)

	other, total, err := f.orders.List(f.ctx, 2, OrderFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, other)
}
