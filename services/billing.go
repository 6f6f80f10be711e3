package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/foodcafeshop/food-cafe/models"
	"github.com/foodcafeshop/food-cafe/utils"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SettleRequest adalah input staff saat menutup bill.
type SettleRequest struct {
	PaymentMethod      string   `json:"payment_method" binding:"required,max=30"`
	ApplyServiceCharge bool     `json:"apply_service_charge"`
	DiscountAmount     float64  `json:"discount_amount" binding:"gte=0"`
	DiscountReason     string   `json:"discount_reason" binding:"max=255"`
	ExpectedTotal      *float64 `json:"expected_total"`
	StaffID            *uint    `json:"-"`
}

func (r SettleRequest) options() BreakdownOptions {
	return BreakdownOptions{
		ApplyServiceCharge: r.ApplyServiceCharge,
		DiscountAmount:     r.DiscountAmount,
		DiscountReason:     strings.TrimSpace(r.DiscountReason),
	}
}

// BillPreview adalah hasil hitung bill tanpa menulis apa pun.
type BillPreview struct {
	TableID     *uint             `json:"table_id,omitempty"`
	TableLabel  string            `json:"table_label,omitempty"`
	ServiceType string            `json:"service_type"`
	Currency    string            `json:"currency"`
	OrderIDs    []uint            `json:"order_ids"`
	Items       []models.BillItem `json:"items"`
	Breakdown   models.Breakdown  `json:"breakdown"`
	Display     string            `json:"display_total"`
}

// BillDetail -> bill beserta order yang di-settle, untuk tampilan / cetak ulang.
type BillDetail struct {
	models.Bill
	Orders []models.Order `json:"orders"`
}

type BillFilter struct {
	PaymentMethod string
	TableID       *uint
	From          *time.Time
	To            *time.Time
	Sort          string
	Page
}

// BillingService mengubah sekumpulan order menjadi satu bill yang immutable.
type BillingService struct {
	db       *gorm.DB
	settings *SettingsProvider
	codes    CodeGenerator
	validate *validator.Validate
}

func NewBillingService(db *gorm.DB, settings *SettingsProvider) *BillingService {
	return &BillingService{
		db:       db,
		settings: settings,
		codes:    RandomCode,
		validate: validator.New(),
	}
}

// WithCodeGenerator mengganti generator nomor bill (dipakai test).
func (s *BillingService) WithCodeGenerator(gen CodeGenerator) *BillingService {
	s.codes = gen
	return s
}

// eligibleTableOrders memuat order meja yang belum dibayar dan belum punya bill.
// Order cancelled selalu dikecualikan. Order yang masih aktif di dapur membuat settlement ditolak.
func eligibleTableOrders(tx *gorm.DB, shopID, tableID uint) ([]models.Order, error) {
	var orders []models.Order
	err := tx.Preload("OrderItems").
		Where("shop_id = ? AND table_id = ? AND status <> ? AND payment_status = ? AND bill_id IS NULL",
			shopID, tableID, models.OrderStatusCancelled, models.PaymentStatusPending).
		Order("id ASC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("load table orders: %w", err)
	}
	if err := checkSettleable(orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func checkSettleable(orders []models.Order) error {
	var active []string
	for i := range orders {
		if orders[i].IsActive() {
			active = append(active, orders[i].OrderNumber)
		}
	}
	if len(active) > 0 {
		return ErrOrdersStillActive.WithMessage("orders still being prepared: %s", strings.Join(active, ", "))
	}
	if len(orders) == 0 {
		return ErrNothingToSettle
	}
	return nil
}

// snapshot menyalin semua item order ke bentuk bill dan menghitung total item mentah.
func snapshot(orders []models.Order) ([]uint, []models.BillItem, float64) {
	ids := make([]uint, 0, len(orders))
	var items []models.BillItem
	var all []models.OrderItem
	for _, o := range orders {
		ids = append(ids, o.ID)
		for _, it := range o.OrderItems {
			items = append(items, models.BillItem{
				OrderID:     o.ID,
				OrderNumber: o.OrderNumber,
				MenuItemID:  it.MenuItemID,
				Name:        it.Name,
				Price:       it.Price,
				Quantity:    it.Quantity,
				Note:        it.Note,
			})
		}
		all = append(all, o.OrderItems...)
	}
	return ids, items, rawItemTotal(all).InexactFloat64()
}

func (s *BillingService) breakdown(itemTotal float64, settings *models.ShopSettings, serviceType string, req SettleRequest) (models.Breakdown, error) {
	bd, err := ComputeBreakdown(itemTotal, settings, serviceType, req.options())
	if err != nil {
		return bd, err
	}
	if err := s.validate.Struct(bd); err != nil {
		return bd, ErrValidation.WithMessage("invalid breakdown: %v", err)
	}
	return bd, nil
}

// PreviewTable menghitung bill meja tanpa menulis apa pun.
func (s *BillingService) PreviewTable(ctx context.Context, shopID, tableID uint, req SettleRequest) (*BillPreview, error) {
	settings, err := s.settings.Get(ctx, shopID)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var table models.Table
	err = db.Where("id = ? AND shop_id = ?", tableID, shopID).First(&table).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound.WithMessage("table not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load table: %w", err)
	}

	orders, err := eligibleTableOrders(db, shopID, tableID)
	if err != nil {
		return nil, err
	}
	ids, items, itemTotal := snapshot(orders)
	bd, err := s.breakdown(itemTotal, settings, models.ServiceDineIn, req)
	if err != nil {
		return nil, err
	}

	return &BillPreview{
		TableID:     &table.ID,
		TableLabel:  table.Label,
		ServiceType: models.ServiceDineIn,
		Currency:    settings.Currency,
		OrderIDs:    ids,
		Items:       items,
		Breakdown:   bd,
		Display:     utils.FormatMoney(settings.Currency, bd.GrandTotal),
	}, nil
}

// checkExpected menolak settlement jika total berbeda dari preview yang dilihat staff.
func checkExpected(req SettleRequest, bd models.Breakdown) error {
	if req.ExpectedTotal == nil {
		return nil
	}
	if math.Abs(utils.Round3(*req.ExpectedTotal)-bd.GrandTotal) > 0.0005 {
		return ErrStalePreview
	}
	return nil
}

// SettleTable menjalankan settlement meja dalam satu transaksi:
// insert bill, klaim order (bill_id IS NULL), flip order ke billed/paid, flip meja ke billed.
func (s *BillingService) SettleTable(ctx context.Context, shopID, tableID uint, req SettleRequest) (*models.Bill, error) {
	if strings.TrimSpace(req.PaymentMethod) == "" {
		return nil, ErrValidation.WithMessage("payment method is required")
	}
	settings, err := s.settings.Get(ctx, shopID)
	if err != nil {
		return nil, err
	}

	var bill *models.Bill
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		table, err := lockTable(tx, shopID, tableID)
		if err != nil {
			return err
		}
		if table.Status == models.TableStatusEmpty {
			return ErrTableEmpty
		}

		orders, err := eligibleTableOrders(tx, shopID, tableID)
		if err != nil {
			return err
		}
		ids, items, itemTotal := snapshot(orders)
		bd, err := s.breakdown(itemTotal, settings, models.ServiceDineIn, req)
		if err != nil {
			return err
		}
		if err := checkExpected(req, bd); err != nil {
			return err
		}

		bill = &models.Bill{
			ShopID:        shopID,
			TableID:       &table.ID,
			TableLabel:    table.Label,
			ServiceType:   models.ServiceDineIn,
			TotalAmount:   bd.GrandTotal,
			PaymentMethod: req.PaymentMethod,
			OrderIDs:      datatypes.JSONSlice[uint](ids),
			Items:         datatypes.JSONSlice[models.BillItem](items),
			Breakdown:     datatypes.NewJSONType(bd),
			StaffID:       req.StaffID,
		}
		if err := s.writeBill(tx, bill, ids); err != nil {
			return err
		}

		if err := tx.Model(table).Update("status", models.TableStatusBilled).Error; err != nil {
			return fmt.Errorf("mark table billed: %w", err)
		}
		return recordChange(tx, shopID, EntityTable, table.ID, models.ActionUpdate)
	})
	if err != nil {
		return nil, err
	}

	billLog(bill).WithField("table_id", tableID).Info("table settled")
	return bill, nil
}

// SettleOrder menutup satu order takeaway/delivery tanpa meja.
func (s *BillingService) SettleOrder(ctx context.Context, shopID, orderID uint, req SettleRequest) (*models.Bill, error) {
	if strings.TrimSpace(req.PaymentMethod) == "" {
		return nil, ErrValidation.WithMessage("payment method is required")
	}
	settings, err := s.settings.Get(ctx, shopID)
	if err != nil {
		return nil, err
	}

	var bill *models.Bill
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := lockOrder(tx, shopID, orderID)
		if err != nil {
			return err
		}
		if order.TableID != nil {
			return ErrOrderHasTable
		}
		if order.BillID != nil || order.PaymentStatus == models.PaymentStatusPaid {
			return ErrAlreadySettled
		}
		if order.Status == models.OrderStatusCancelled {
			return ErrNothingToSettle
		}
		if err := tx.Where("order_id = ?", order.ID).Find(&order.OrderItems).Error; err != nil {
			return fmt.Errorf("load order items: %w", err)
		}
		if err := checkSettleable([]models.Order{*order}); err != nil {
			return err
		}

		ids, items, itemTotal := snapshot([]models.Order{*order})
		bd, err := s.breakdown(itemTotal, settings, order.ServiceType, req)
		if err != nil {
			return err
		}
		if err := checkExpected(req, bd); err != nil {
			return err
		}

		bill = &models.Bill{
			ShopID:        shopID,
			ServiceType:   order.ServiceType,
			TotalAmount:   bd.GrandTotal,
			PaymentMethod: req.PaymentMethod,
			OrderIDs:      datatypes.JSONSlice[uint](ids),
			Items:         datatypes.JSONSlice[models.BillItem](items),
			Breakdown:     datatypes.NewJSONType(bd),
			StaffID:       req.StaffID,
		}
		return s.writeBill(tx, bill, ids)
	})
	if err != nil {
		return nil, err
	}

	billLog(bill).WithField("order_id", orderID).Info("order settled")
	return bill, nil
}

// PreviewOrder menghitung bill order takeaway/delivery tanpa menulis.
func (s *BillingService) PreviewOrder(ctx context.Context, shopID, orderID uint, req SettleRequest) (*BillPreview, error) {
	settings, err := s.settings.Get(ctx, shopID)
	if err != nil {
		return nil, err
	}
	var order models.Order
	err = s.db.WithContext(ctx).Preload("OrderItems").Where("id = ? AND shop_id = ?", orderID, shopID).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound.WithMessage("order not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	if order.TableID != nil {
		return nil, ErrOrderHasTable
	}
	if order.BillID != nil {
		return nil, ErrAlreadySettled
	}
	if order.Status == models.OrderStatusCancelled {
		return nil, ErrNothingToSettle
	}
	if err := checkSettleable([]models.Order{order}); err != nil {
		return nil, err
	}

	ids, items, itemTotal := snapshot([]models.Order{order})
	bd, err := s.breakdown(itemTotal, settings, order.ServiceType, req)
	if err != nil {
		return nil, err
	}
	return &BillPreview{
		ServiceType: order.ServiceType,
		Currency:    settings.Currency,
		OrderIDs:    ids,
		Items:       items,
		Breakdown:   bd,
		Display:     utils.FormatMoney(settings.Currency, bd.GrandTotal),
	}, nil
}

// writeBill insert bill (nomor di-retry saat bentrok) lalu mengklaim order.
// Jika ada order yang sudah diklaim bill lain, seluruh transaksi dibatalkan.
func (s *BillingService) writeBill(tx *gorm.DB, bill *models.Bill, orderIDs []uint) error {
	_, err := insertWithCode(tx, s.codes, BillNumberLength, func(sp *gorm.DB, code string) error {
		bill.ID = 0
		bill.BillNumber = code
		return sp.Create(bill).Error
	})
	if err != nil {
		return err
	}

	res := tx.Model(&models.Order{}).
		Where("id IN ? AND bill_id IS NULL", orderIDs).
		Updates(map[string]interface{}{
			"status":         models.OrderStatusBilled,
			"payment_status": models.PaymentStatusPaid,
			"payment_method": bill.PaymentMethod,
			"bill_id":        bill.ID,
			"updated_at":     time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("mark orders billed: %w", res.Error)
	}
	if res.RowsAffected != int64(len(orderIDs)) {
		return ErrAlreadySettled
	}

	for _, id := range orderIDs {
		if err := recordChange(tx, bill.ShopID, EntityOrder, id, models.ActionUpdate); err != nil {
			return err
		}
	}
	return recordChange(tx, bill.ShopID, EntityBill, bill.ID, models.ActionInsert)
}

func billLog(bill *models.Bill) *logrus.Entry {
	return utils.InfoLogger.WithFields(logrus.Fields{
		"shop_id":     bill.ShopID,
		"bill_number": bill.BillNumber,
		"total":       bill.TotalAmount,
	})
}

// ListBills mengembalikan bill toko dengan filter tanggal / metode bayar / meja.
func (s *BillingService) ListBills(ctx context.Context, shopID uint, f BillFilter) ([]models.Bill, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Bill{}).Where("shop_id = ?", shopID)
	if f.PaymentMethod != "" {
		q = q.Where("payment_method = ?", f.PaymentMethod)
	}
	if f.TableID != nil {
		q = q.Where("table_id = ?", *f.TableID)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count bills: %w", err)
	}

	var bills []models.Bill
	err := f.Page.apply(q).
		Order("created_at " + sortDirection(f.Sort)).
		Order("id " + sortDirection(f.Sort)).
		Find(&bills).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list bills: %w", err)
	}
	return bills, total, nil
}

// GetBill mengembalikan bill dan order yang di-settle-nya.
func (s *BillingService) GetBill(ctx context.Context, shopID, billID uint) (*BillDetail, error) {
	db := s.db.WithContext(ctx)

	var bill models.Bill
	err := db.Where("id = ? AND shop_id = ?", billID, shopID).First(&bill).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound.WithMessage("bill not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get bill: %w", err)
	}

	detail := &BillDetail{Bill: bill, Orders: []models.Order{}}
	if len(bill.OrderIDs) > 0 {
		err = db.Preload("OrderItems").
			Where("shop_id = ? AND id IN ?", shopID, []uint(bill.OrderIDs)).
			Order("id ASC").
			Find(&detail.Orders).Error
		if err != nil {
			return nil, fmt.Errorf("load bill orders: %w", err)
		}
	}
	return detail, nil
}
