package services

import (
	"encoding/json"
	"testing"

	"github.com/foodcafeshop/food-cafe/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Scenario: happy path dari meja kosong sampai billed.
func TestSettleTableHappyPath(t *testing.T) {
	f := newFixture(t)
	item := f.menuItem(t, "Nasi Goreng", 100, true)
	tv := f.table(t, "A1")

	order := f.dineIn(t, tv.ID, OrderItemInput{MenuItemID: item.ID, Quantity: 2})
	require.Equal(t, 220.0, order.TotalAmount)
	f.serve(t, order.ID)

	bill, err := f.billing.SettleTable(f.ctx, testShop, tv.ID, SettleRequest{PaymentMethod: "cash"})
	require.NoError(t, err)

	bd := bill.Breakdown.Data()
	assert.Equal(t, 200.0, bd.Subtotal)
	assert.Equal(t, 20.0, bd.Tax)
	assert.Equal(t, 0.0, bd.ServiceCharge)
	assert.Equal(t, 220.0, bd.GrandTotal)
	assert.Equal(t, 220.0, bill.TotalAmount)
	assert.Len(t, bill.BillNumber, BillNumberLength)
	assert.Equal(t, "A1", bill.TableLabel)
	assert.Equal(t, []uint{order.ID}, []uint(bill.OrderIDs))
	require.Len(t, bill.Items, 1)
	assert.Equal(t, 2, bill.Items[0].Quantity)
	assert.Equal(t, order.OrderNumber, bill.Items[0].OrderNumber)

	assert.Equal(t, models.TableStatusBilled, f.reloadTable(t, tv.ID).Status)

	settled, err := f.orders.Get(f.ctx, testShop, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusBilled, settled.Status)
	assert.Equal(t, models.PaymentStatusPaid, settled.PaymentStatus)
	assert.Equal(t, "cash", settled.PaymentMethod)
	require.NotNil(t, settled.BillID)
	assert.Equal(t, bill.ID, *settled.BillID)
}

// Scenario: pajak inklusif 10%, harga 110.
func TestSettleTableInclusiveTax(t *testing.T) {
	f := newFixture(t)
	f.setSettings(t, func(s *models.ShopSettings) { s.TaxIncludedInPrice = true })
	item := f.menuItem(t, "Steak", 110, true)
	tv := f.table(t, "A1")

	order := f.dineIn(t, tv.ID, OrderItemInput{MenuItemID: item.ID, Quantity: 1})
	assert.Equal(t, 110.0, order.TotalAmount)
	f.serve(t, order.ID)

	bill, err := f.billing.SettleTable(f.ctx, testShop, tv.ID, SettleRequest{PaymentMethod: "card"})
	require.NoError(t, err)
	bd := bill.Breakdown.Data()
	assert.Equal(t, 110.0, bd.ItemTotal)
	assert.Equal(t, 100.0, bd.Subtotal)
	assert.Equal(t, 10.0, bd.Tax)
	assert.Equal(t, 110.0, bd.GrandTotal)
	assert.True(t, bd.TaxIncluded)
}

func TestSettleRefusesActiveOrdersAndWritesNothing(t *testing.T) {
	f := newFixture(t)
	item := f.menuItem(t, "Tea", 10, true)
	tv := f.table(t, "A1")

	served := f.dineIn(t, tv.ID, OrderItemInput{MenuItemID: item.ID, Quantity: 1})
	f.serve(t, served.ID)
	cooking := f.dineIn(t, tv.ID, OrderItemInput{MenuItemID: item.ID, Quantity: 1})
	_, err := f.orders.UpdateStatus(f.ctx, testShop, cooking.ID, models.OrderStatusPreparing)
	require.NoError(t, err)

	_, err = f.billing.SettleTable(f.ctx, testShop, tv.ID, SettleRequest{PaymentMethod: "cash"})
	assert.ErrorIs(t, err, ErrOrdersStillActive)
	assert.Contains(t, err.Error(), cooking.OrderNumber)

	assert.Zero(t, f.count(t, &models.Bill{}))
	assert.Equal(t, models.TableStatusOccupied, f.reloadTable(t, tv.ID).Status)
	reloaded, err := f.orders.Get(f.ctx, testShop, served.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusServed, reloaded.Status)
	assert.Nil(t, reloaded.BillID)
}

func TestSettleWithNothingToSettle(t *testing.T) {
	f := newFixture(t)
	item := f.menuItem(t, "Tea", 10, true)
	tv := f.table(t, "A1")
	ok, err := f.tables.Join(f.ctx, testShop, tv.ID, join("s1", "Ana", ""))
	require.NoError(t, err)
	require.True(t, ok)

	// order cancelled tidak ikut di-settle
	o := f.dineIn(t, tv.ID, OrderItemInput{MenuItemID: item.ID, Quantity: 1})
	_, err = f.orders.Cancel(f.ctx, testShop, o.ID)
	require.NoError(t, err)

	changesBefore := f.count(t, &models.DBChange{})
	_, err = f.billing.SettleTable(f.ctx, testShop, tv.ID, SettleRequest{PaymentMethod: "cash"})
	assert.ErrorIs(t, err, ErrNothingToSettle)
	assert.Zero(t, f.count(t, &models.Bill{}))
	assert.Equal(t, changesBefore, f.count(t, &models.DBChange{}))
	assert.Equal(t, models.TableStatusOccupied, f.reloadTable(t, tv.ID).Status)
}

func TestSettleEmptyTableIsRefused(t *testing.T) {
	f := newFixture(t)
	tv := f.table(t, "A1")

	_, err := f.billing.SettleTable(f.ctx, testShop, tv.ID, SettleRequest{PaymentMethod: "cash"})
	assert.ErrorIs(t, err, ErrTableEmpty)

	_, err = f.billing.SettleTable(f.ctx, testShop, tv.ID, SettleRequest{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSettleTwiceDoesNotDoubleBill(t *testing.T) {
	f := newFixture(t)
	item := f.menuItem(t, "Tea", 10, true)
	tv := f.table(t, "A1")
	o := f.dineIn(t, tv.ID, OrderItemInput{MenuItemID: item.ID, Quantity: 1})
	f.serve(t, o.ID)

	_, err := f.billing.SettleTable(f.ctx, testShop, tv.ID, SettleRequest{PaymentMethod: "cash"})
	require.NoError(t, err)
	_, err = f.billing.SettleTable(f.ctx, testShop, tv.ID, SettleRequest{PaymentMethod: "cash"})
	assert.ErrorIs(t, err, ErrNothingToSettle)
	assert.Equal(t, int64(1), f.count(t, &models.Bill{}))
}

func TestWriteBillAbortsWhenOrderAlreadyClaimed(t *testing.T) {
	f := newFixture(t)
	item := f.menuItem(t, "Tea", 10, true)
	tv := f.table(t, "A1")
	o := f.dineIn(t, tv.ID, OrderItemInput{MenuItemID: item.ID, Quantity: 1})
	f.serve(t, o.ID)

	_, err := f.billing.SettleTable(f.ctx, testShop, tv.ID, SettleRequest{PaymentMethod: "cash"})
	require.NoError(t, err)

	// klaim ulang order yang sudah punya bill harus gagal
	other := &models.Bill{ShopID: testShop, ServiceType: models.ServiceDineIn, PaymentMethod: "cash"}
	err = f.db.Transaction(func(tx *gorm.DB) error {
		return f.billing.writeBill(tx, other, []uint{o.ID})
	})
	assert.ErrorIs(t, err, ErrAlreadySettled)
	assert.Equal(t, int64(1), f.count(t, &models.Bill{}))
}

func TestSettleWithServiceChargeDiscountAndPreview(t *testing.T) {
	f := newFixture(t)
	f.setSettings(t, func(s *models.ShopSettings) { s.ServiceChargeRate = 5 })
	item := f.menuItem(t, "Tea", 100, true)
	tv := f.table(t, "A1")
	o := f.dineIn(t, tv.ID, OrderItemInput{MenuItemID: item.ID, Quantity: 2})
	f.serve(t, o.ID)

	req := SettleRequest{PaymentMethod: "qris", ApplyServiceCharge: true, DiscountAmount: 30, DiscountReason: "member"}
	preview, err := f.billing.PreviewTable(f.ctx, testShop, tv.ID, req)
	require.NoError(t, err)
	// 200 + 20 tax + 10 service - 30 discount
	assert.Equal(t, 200.0, preview.Breakdown.GrandTotal)
	assert.Equal(t, "USD 200.00", preview.Display)
	assert.Zero(t, f.count(t, &models.Bill{}))

	stale := 190.0
	req.ExpectedTotal = &stale
	_, err = f.billing.SettleTable(f.ctx, testShop, tv.ID, req)
	assert.ErrorIs(t, err, ErrStalePreview)
	assert.Zero(t, f.count(t, &models.Bill{}))

	req.ExpectedTotal = &preview.Breakdown.GrandTotal
	bill, err := f.billing.SettleTable(f.ctx, testShop, tv.ID, req)
	require.NoError(t, err)
	assert.Equal(t, preview.Breakdown, bill.Breakdown.Data())
	assert.Equal(t, "member", bill.Breakdown.Data().DiscountReason)
}

func TestSettleRejectsDiscountAboveSubtotal(t *testing.T) {
	f := newFixture(t)
	item := f.menuItem(t, "Tea", 10, true)
	tv := f.table(t, "A1")
	o := f.dineIn(t, tv.ID, OrderItemInput{MenuItemID: item.ID, Quantity: 1})
	f.serve(t, o.ID)

	_, err := f.billing.SettleTable(f.ctx, testShop, tv.ID, SettleRequest{PaymentMethod: "cash", DiscountAmount: 11})
	assert.ErrorIs(t, err, ErrInvalidDiscount)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestSettleStandaloneOrder(t *testing.T) {
	f := newFixture(t)
	f.setSettings(t, func(s *models.ShopSettings) {
		s.EnableOtp = false
		s.DeliveryChargeType = models.ChargeTypeFixed
		s.DeliveryChargeAmount = 5
	})
	item := f.menuItem(t, "Pizza", 80, true)
	tv := f.table(t, "A1")

	delivery, err := f.orders.Place(f.ctx, testShop, PlaceOrderRequest{
		ServiceType: models.ServiceDelivery,
		OTP:         OTPDisabledCode,
		Items:       []OrderItemInput{{MenuItemID: item.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	// 80 + 8 tax + 5 delivery
	assert.Equal(t, 93.0, delivery.TotalAmount)

	_, err = f.billing.SettleOrder(f.ctx, testShop, delivery.ID, SettleRequest{PaymentMethod: "cash"})
	assert.ErrorIs(t, err, ErrOrdersStillActive)

	f.serve(t, delivery.ID)
	bill, err := f.billing.SettleOrder(f.ctx, testShop, delivery.ID, SettleRequest{PaymentMethod: "cash"})
	require.NoError(t, err)
	assert.Nil(t, bill.TableID)
	assert.Equal(t, models.ServiceDelivery, bill.ServiceType)
	assert.Equal(t, 93.0, bill.TotalAmount)
	assert.Equal(t, 5.0, bill.Breakdown.Data().DeliveryTotal)

	_, err = f.billing.SettleOrder(f.ctx, testShop, delivery.ID, SettleRequest{PaymentMethod: "cash"})
	assert.ErrorIs(t, err, ErrAlreadySettled)

	dine := f.dineIn(t, tv.ID, OrderItemInput{MenuItemID: item.ID, Quantity: 1})
	_, err = f.billing.SettleOrder(f.ctx, testShop, dine.ID, SettleRequest{PaymentMethod: "cash"})
	assert.ErrorIs(t, err, ErrOrderHasTable)
}

func TestBillIsImmutableAndReadsAreStable(t *testing.T) {
	f := newFixture(t)
	item := f.menuItem(t, "Tea", 10, true)
	tv := f.table(t, "A1")
	o := f.dineIn(t, tv.ID, OrderItemInput{MenuItemID: item.ID, Quantity: 3})
	f.serve(t, o.ID)
	bill, err := f.billing.SettleTable(f.ctx, testShop, tv.ID, SettleRequest{PaymentMethod: "cash"})
	require.NoError(t, err)

	err = f.db.Model(bill).Update("total_amount", 1).Error
	assert.ErrorIs(t, err, models.ErrBillImmutable)
	err = f.db.Delete(bill).Error
	assert.ErrorIs(t, err, models.ErrBillImmutable)

	first, err := f.billing.GetBill(f.ctx, testShop, bill.ID)
	require.NoError(t, err)
	second, err := f.billing.GetBill(f.ctx, testShop, bill.ID)
	require.NoError(t, err)

	a, err := json.Marshal(first.Breakdown)
	require.NoError(t, err)
	b, err := json.Marshal(second.Breakdown)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, 33.0, first.TotalAmount)
	require.Len(t, first.Orders, 1)
	assert.Equal(t, o.ID, first.Orders[0].ID)

	// bill tetap utuh walau order diubah setelahnya
	require.NoError(t, f.db.Where("order_id = ?", o.ID).Delete(&models.OrderItem{}).Error)
	third, err := f.billing.GetBill(f.ctx, testShop, bill.ID)
	require.NoError(t, err)
	require.Len(t, third.Items, 1)
	assert.Equal(t, 3, third.Items[0].Quantity)

	_, err = f.billing.GetBill(f.ctx, 2, bill.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBillNumberCollisionIsRetried(t *testing.T) {
	f := newFixture(t)
	f.billing.WithCodeGenerator(sequenceCodes("BILL0001", "BILL0001", "BILL0002"))
	item := f.menuItem(t, "Tea", 10, true)

	for _, label := range []string{"A1", "A2"} {
		tv := f.table(t, label)
		o := f.dineIn(t, tv.ID, OrderItemInput{MenuItemID: item.ID, Quantity: 1})
		f.serve(t, o.ID)
		_, err := f.billing.SettleTable(f.ctx, testShop, tv.ID, SettleRequest{PaymentMethod: "cash"})
		require.NoError(t, err)
	}

	bills, total, err := f.billing.ListBills(f.ctx, testShop, BillFilter{Sort: "asc"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, "BILL0001", bills[0].BillNumber)
	assert.Equal(t, "BILL0002", bills[1].BillNumber)

	card, _, err := f.billing.ListBills(f.ctx, testShop, BillFilter{PaymentMethod: "card"})
	require.NoError(t, err)
	assert.Empty(t, card)
}

func TestFullCycleClearAfterSettle(t *testing.T) {
	f := newFixture(t)
	item := f.menuItem(t, "Tea", 10, true)
	tv := f.table(t, "A1")
	ok, err := f.tables.Join(f.ctx, testShop, tv.ID, join("s1", "Ana", ""))
	require.NoError(t, err)
	require.True(t, ok)

	o := f.dineIn(t, tv.ID, OrderItemInput{MenuItemID: item.ID, Quantity: 1})
	f.serve(t, o.ID)
	_, err = f.billing.SettleTable(f.ctx, testShop, tv.ID, SettleRequest{PaymentMethod: "cash"})
	require.NoError(t, err)

	// meja billed menolak order baru sampai staff clear
	_, err = f.orders.Place(f.ctx, testShop, PlaceOrderRequest{TableID: &tv.ID, ByStaff: true,
		Items: []OrderItemInput{{MenuItemID: item.ID, Quantity: 1}}})
	assert.ErrorIs(t, err, ErrTableBilled)

	cleared, err := f.tables.Clear(f.ctx, testShop, tv.ID, false)
	require.NoError(t, err)
	assert.Equal(t, models.TableStatusEmpty, cleared.Status)
	assert.Empty(t, cleared.ActiveCustomers)

	next := f.dineIn(t, tv.ID, OrderItemInput{MenuItemID: item.ID, Quantity: 1})
	assert.Equal(t, models.OrderStatusQueued, next.Status)
	assert.Equal(t, models.TableStatusOccupied, f.reloadTable(t, tv.ID).Status)
}
