package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/foodcafeshop/food-cafe/models"
	"github.com/foodcafeshop/food-cafe/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderItemInput struct {
	MenuItemID uint   `json:"menu_item_id" binding:"required"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity" binding:"required"`
	Note       string `json:"note"`
}

// PlaceOrderRequest adalah konteks sesi + isi keranjang saat order dibuat.
type PlaceOrderRequest struct {
	TableID       *uint
	ServiceType   string
	SessionID     string
	CustomerName  string
	CustomerPhone string
	OTP           string
	PaymentMethod string
	Items         []OrderItemInput

	ByStaff bool
	StaffID *uint
}

// OrderFilter untuk listing order.
type OrderFilter struct {
	Status      string
	ServiceType string
	TableID     *uint
	From        *time.Time
	To          *time.Time
	Sort        string
	Page
}

// urutan pipeline dapur; perpindahan status hanya boleh maju
var kitchenRank = map[string]int{
	models.OrderStatusQueued:    1,
	models.OrderStatusPreparing: 2,
	models.OrderStatusReady:     3,
	models.OrderStatusServed:    4,
}

// CanTransition -> aturan perpindahan status yang dipicu staff (billed hanya lewat settlement).
func CanTransition(from, to string) bool {
	switch to {
	case models.OrderStatusCancelled:
		return from == models.OrderStatusQueued || from == models.OrderStatusPreparing
	case models.OrderStatusBilled:
		return false
	}
	fromRank, okFrom := kitchenRank[from]
	toRank, okTo := kitchenRank[to]
	return okFrom && okTo && toRank > fromRank
}

// OrderService memegang lifecycle order.
type OrderService struct {
	db           *gorm.DB
	settings     *SettingsProvider
	otp          *OTPService
	customers    *CustomerDirectory
	availability *AvailabilityValidator
	codes        CodeGenerator
}

func NewOrderService(db *gorm.DB, settings *SettingsProvider, otp *OTPService, customers *CustomerDirectory, availability *AvailabilityValidator) *OrderService {
	return &OrderService{
		db:           db,
		settings:     settings,
		otp:          otp,
		customers:    customers,
		availability: availability,
		codes:        RandomCode,
	}
}

// WithCodeGenerator mengganti generator nomor order (dipakai test).
func (s *OrderService) WithCodeGenerator(gen CodeGenerator) *OrderService {
	s.codes = gen
	return s
}

func orderLog(order *models.Order) *logrus.Entry {
	fields := logrus.Fields{"shop_id": order.ShopID, "order_id": order.ID, "order_number": order.OrderNumber}
	if order.TableID != nil {
		fields["table_id"] = *order.TableID
	}
	return utils.InfoLogger.WithFields(fields)
}

func validateItems(items []OrderItemInput, maxQty int) error {
	if len(items) == 0 {
		return ErrEmptyOrder
	}
	for _, it := range items {
		if it.MenuItemID == 0 {
			return ErrValidation.WithMessage("menu item is required")
		}
		if it.Quantity < 1 || it.Quantity > maxQty {
			return ErrInvalidQuantity.WithMessage("quantity must be between 1 and %d", maxQty)
		}
	}
	return nil
}

func lineRefs(items []OrderItemInput) []LineRef {
	refs := make([]LineRef, 0, len(items))
	for _, it := range items {
		refs = append(refs, LineRef{MenuItemID: it.MenuItemID, Name: it.Name})
	}
	return refs
}

// Place membuat order baru. Urutan: validasi, cek ketersediaan, cek status meja & OTP,
// upsert customer (best-effort), lalu satu transaksi untuk meja + order + item.
func (s *OrderService) Place(ctx context.Context, shopID uint, req PlaceOrderRequest) (*models.Order, error) {
	settings, err := s.settings.Get(ctx, shopID)
	if err != nil {
		return nil, err
	}

	if req.ServiceType == "" {
		req.ServiceType = models.ServiceTakeaway
		if req.TableID != nil {
			req.ServiceType = models.ServiceDineIn
		}
	}
	switch req.ServiceType {
	case models.ServiceDineIn:
		if req.TableID == nil {
			return nil, ErrTableRequired
		}
	case models.ServiceTakeaway, models.ServiceDelivery:
		req.TableID = nil
	default:
		return nil, ErrValidation.WithMessage("unknown service type %q", req.ServiceType)
	}

	phone, err := normalizePhone(req.CustomerPhone)
	if err != nil {
		return nil, err
	}
	if !req.ByStaff && settings.IsPhoneMandatory && phone == "" {
		return nil, ErrPhoneRequired
	}
	if err := validateItems(req.Items, settings.MaxItemQuantity); err != nil {
		return nil, err
	}

	unavailable, menu, err := s.availability.resolve(ctx, shopID, lineRefs(req.Items))
	if err != nil {
		return nil, err
	}
	if len(unavailable) > 0 {
		return nil, &AvailabilityError{Items: unavailable}
	}

	if req.TableID != nil {
		table, err := s.loadTable(ctx, shopID, *req.TableID)
		if err != nil {
			// customer tidak boleh bisa menebak id meja
			if !req.ByStaff && errors.Is(err, ErrNotFound) {
				return nil, ErrInvalidOTP
			}
			return nil, err
		}
		if table.Status == models.TableStatusBilled {
			return nil, ErrTableBilled
		}
		if !req.ByStaff && !table.HasSession(req.SessionID) {
			ok, err := s.otp.VerifyTable(ctx, shopID, table.ID, req.OTP)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, ErrInvalidOTP
			}
		}
	} else if !req.ByStaff {
		ok, err := s.otp.VerifyTakeaway(ctx, shopID, req.OTP)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrInvalidOTP
		}
	}

	var customerID *uint
	if phone != "" {
		id, err := s.customers.Upsert(ctx, shopID, strings.TrimSpace(req.CustomerName), phone)
		if err != nil {
			utils.ErrorLogger.WithFields(logrus.Fields{"shop_id": shopID}).Errorf("customer upsert failed: %v", err)
		} else {
			customerID = &id
		}
	}

	items := snapshotItems(req.Items, menu, nil)
	order := &models.Order{
		ShopID:        shopID,
		TableID:       req.TableID,
		Status:        models.OrderStatusQueued,
		PaymentStatus: models.PaymentStatusPending,
		PaymentMethod: req.PaymentMethod,
		ServiceType:   req.ServiceType,
		CustomerID:    customerID,
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CustomerPhone: phone,
		SessionID:     req.SessionID,
		ByStaff:       req.ByStaff,
		StaffID:       req.StaffID,
		TotalAmount:   orderTotal(rawItemTotal(items).InexactFloat64(), settings, req.ServiceType),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if order.TableID != nil {
			table, err := lockTable(tx, shopID, *order.TableID)
			if err != nil {
				return err
			}
			// status bisa berubah sejak dicek di atas
			if table.Status == models.TableStatusBilled {
				return ErrTableBilled
			}
			if table.Status == models.TableStatusEmpty {
				if err := tx.Model(table).Update("status", models.TableStatusOccupied).Error; err != nil {
					return fmt.Errorf("occupy table: %w", err)
				}
				if err := recordChange(tx, shopID, EntityTable, table.ID, models.ActionUpdate); err != nil {
					return err
				}
			}
		}

		number, err := insertWithCode(tx, s.codes, OrderNumberLength, func(sp *gorm.DB, code string) error {
			order.ID = 0
			order.OrderNumber = code
			return sp.Omit(clause.Associations).Create(order).Error
		})
		if err != nil {
			return err
		}
		order.OrderNumber = number

		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := tx.Create(&items).Error; err != nil {
			return fmt.Errorf("create order items: %w", err)
		}
		order.OrderItems = items
		return recordChange(tx, shopID, EntityOrder, order.ID, models.ActionInsert)
	})
	if err != nil {
		return nil, err
	}

	orderLog(order).WithField("total", order.TotalAmount).Info("order placed")
	return order, nil
}

// snapshotItems menyalin nama/harga menu ke item order. Item yang sudah ada di order lama
// (previous) mempertahankan harga snapshot lamanya.
func snapshotItems(in []OrderItemInput, menu map[uint]models.MenuItem, previous map[uint]models.OrderItem) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(in))
	for _, it := range in {
		item := models.OrderItem{
			MenuItemID: it.MenuItemID,
			Quantity:   it.Quantity,
			Note:       strings.TrimSpace(it.Note),
		}
		if prev, ok := previous[it.MenuItemID]; ok {
			item.Name = prev.Name
			item.Price = prev.Price
		} else {
			m := menu[it.MenuItemID]
			item.Name = m.Name
			item.Price = m.Price
		}
		items = append(items, item)
	}
	return items
}

func (s *OrderService) loadTable(ctx context.Context, shopID, tableID uint) (*models.Table, error) {
	var table models.Table
	err := s.db.WithContext(ctx).Where("id = ? AND shop_id = ?", tableID, shopID).First(&table).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound.WithMessage("table not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load table: %w", err)
	}
	return &table, nil
}

func lockOrder(tx *gorm.DB, shopID, orderID uint) (*models.Order, error) {
	var order models.Order
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND shop_id = ?", orderID, shopID).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound.WithMessage("order not found")
	}
	if err != nil {
		return nil, fmt.Errorf("lock order: %w", err)
	}
	return &order, nil
}

func isLocked(order *models.Order) bool {
	return order.Status == models.OrderStatusBilled ||
		order.Status == models.OrderStatusCancelled ||
		order.BillID != nil
}

// ReplaceItems mengganti seluruh item order (hapus semua lalu insert ulang).
// Total dihitung ulang sebagai jumlah price x quantity saja, tanpa pajak.
func (s *OrderService) ReplaceItems(ctx context.Context, shopID, orderID uint, in []OrderItemInput) (*models.Order, error) {
	settings, err := s.settings.Get(ctx, shopID)
	if err != nil {
		return nil, err
	}
	if err := validateItems(in, settings.MaxItemQuantity); err != nil {
		return nil, err
	}

	current, err := s.Get(ctx, shopID, orderID)
	if err != nil {
		return nil, err
	}
	if isLocked(current) {
		return nil, ErrOrderLocked
	}
	previous := make(map[uint]models.OrderItem, len(current.OrderItems))
	for _, it := range current.OrderItems {
		previous[it.MenuItemID] = it
	}

	// hanya item baru yang dicek ketersediaannya
	var added []LineRef
	for _, ref := range lineRefs(in) {
		if _, ok := previous[ref.MenuItemID]; !ok {
			added = append(added, ref)
		}
	}
	unavailable, menu, err := s.availability.resolve(ctx, shopID, added)
	if err != nil {
		return nil, err
	}
	if len(unavailable) > 0 {
		return nil, &AvailabilityError{Items: unavailable}
	}

	items := snapshotItems(in, menu, previous)
	var order *models.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if order, err = lockOrder(tx, shopID, orderID); err != nil {
			return err
		}
		if isLocked(order) {
			return ErrOrderLocked
		}

		if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
			return fmt.Errorf("delete order items: %w", err)
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := tx.Create(&items).Error; err != nil {
			return fmt.Errorf("create order items: %w", err)
		}

		order.TotalAmount = utils.RoundDecimal(rawItemTotal(items))
		if err := tx.Model(order).Update("total_amount", order.TotalAmount).Error; err != nil {
			return fmt.Errorf("update order total: %w", err)
		}
		order.OrderItems = items
		return recordChange(tx, shopID, EntityOrder, order.ID, models.ActionUpdate)
	})
	if err != nil {
		return nil, err
	}

	orderLog(order).WithField("items", len(items)).Info("order items replaced")
	return order, nil
}

// UpdateStatus memindahkan status order. Update dijaga dengan WHERE status = status lama,
// sehingga dua staff yang mengubah bersamaan tidak saling menimpa.
func (s *OrderService) UpdateStatus(ctx context.Context, shopID, orderID uint, status string) (*models.Order, error) {
	order, err := s.Get(ctx, shopID, orderID)
	if err != nil {
		return nil, err
	}
	if isLocked(order) {
		return nil, ErrOrderLocked
	}
	if !CanTransition(order.Status, status) {
		return nil, ErrInvalidTransition.WithMessage("cannot move order from %s to %s", order.Status, status)
	}
	if err := s.guardedStatusUpdate(ctx, order, status); err != nil {
		return nil, err
	}

	orderLog(order).WithField("status", status).Info("order status updated")
	return order, nil
}

// Cancel hanya boleh saat order masih queued.
func (s *OrderService) Cancel(ctx context.Context, shopID, orderID uint) (*models.Order, error) {
	order, err := s.Get(ctx, shopID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusQueued || order.BillID != nil {
		return nil, ErrInvalidState
	}
	if err := s.guardedStatusUpdate(ctx, order, models.OrderStatusCancelled); err != nil {
		if errors.Is(err, ErrStatusChanged) {
			return nil, ErrInvalidState
		}
		return nil, err
	}

	orderLog(order).Info("order cancelled")
	return order, nil
}

func (s *OrderService) guardedStatusUpdate(ctx context.Context, order *models.Order, status string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND shop_id = ? AND status = ? AND bill_id IS NULL", order.ID, order.ShopID, order.Status).
			Updates(map[string]interface{}{"status": status, "updated_at": time.Now()})
		if res.Error != nil {
			return fmt.Errorf("update order status: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrStatusChanged
		}
		order.Status = status
		return recordChange(tx, order.ShopID, EntityOrder, order.ID, models.ActionUpdate)
	})
}

func (s *OrderService) Get(ctx context.Context, shopID, orderID uint) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("OrderItems").
		Where("id = ? AND shop_id = ?", orderID, shopID).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound.WithMessage("order not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return &order, nil
}

// TrackedOrder adalah tampilan order untuk customer tanpa data kontak dan atribusi staff.
type TrackedOrder struct {
	ID            uint               `json:"id"`
	OrderNumber   string             `json:"order_number"`
	TableID       *uint              `json:"table_id"`
	Status        string             `json:"status"`
	PaymentStatus string             `json:"payment_status"`
	ServiceType   string             `json:"service_type"`
	CustomerName  string             `json:"customer_name"`
	TotalAmount   float64            `json:"total_amount"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
	OrderItems    []models.OrderItem `json:"order_items"`
}

// Track -> order untuk customer. Caller harus membawa session id pemesan atau nomor order;
// selain itu hasilnya sama dengan order yang tidak ada.
func (s *OrderService) Track(ctx context.Context, shopID, orderID uint, sessionID, orderNumber string) (*TrackedOrder, error) {
	order, err := s.Get(ctx, shopID, orderID)
	if err != nil {
		return nil, err
	}
	sessionOK := order.SessionID != "" && codesEqual(order.SessionID, sessionID)
	numberOK := codesEqual(order.OrderNumber, strings.ToUpper(strings.TrimSpace(orderNumber)))
	if !sessionOK && !numberOK {
		return nil, ErrNotFound.WithMessage("order not found")
	}
	return &TrackedOrder{
		ID:            order.ID,
		OrderNumber:   order.OrderNumber,
		TableID:       order.TableID,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		ServiceType:   order.ServiceType,
		CustomerName:  order.CustomerName,
		TotalAmount:   order.TotalAmount,
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
		OrderItems:    order.OrderItems,
	}, nil
}

// List mengembalikan order toko dengan filter status / service type / meja / rentang tanggal.
func (s *OrderService) List(ctx context.Context, shopID uint, f OrderFilter) ([]models.Order, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Order{}).Where("shop_id = ?", shopID)
	if f.Status != "" {
		q = q.Where("status IN ?", strings.Split(f.Status, ","))
	}
	if f.ServiceType != "" {
		q = q.Where("service_type = ?", f.ServiceType)
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
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	var orders []models.Order
	err := f.Page.apply(q).
		Preload("OrderItems").
		Order("created_at " + sortDirection(f.Sort)).
		Order("id " + sortDirection(f.Sort)).
		Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	return orders, total, nil
}
