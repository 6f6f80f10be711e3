package models

import (
	"time"
)

// Status order
const (
	OrderStatusQueued    = "queued"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusServed    = "served"
	OrderStatusBilled    = "billed"
	OrderStatusCancelled = "cancelled"
)

// Status pembayaran order
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
)

// Service type
const (
	ServiceDineIn   = "dine_in"
	ServiceTakeaway = "takeaway"
	ServiceDelivery = "delivery"
)

type Order struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	ShopID        uint        `gorm:"not null;uniqueIndex:idx_orders_shop_number" json:"shop_id"`
	OrderNumber   string      `gorm:"type:varchar(16);not null;uniqueIndex:idx_orders_shop_number" json:"order_number"`
	TableID       *uint       `gorm:"index" json:"table_id"`
	Status        string      `gorm:"type:varchar(20);not null;index" json:"status"`
	PaymentStatus string      `gorm:"type:varchar(20);not null" json:"payment_status"`
	PaymentMethod string      `gorm:"type:varchar(30)" json:"payment_method"`
	ServiceType   string      `gorm:"type:varchar(20);not null" json:"service_type"`
	CustomerID    *uint       `gorm:"index" json:"customer_id,omitempty"`
	CustomerName  string      `gorm:"type:varchar(100)" json:"customer_name"`
	CustomerPhone string      `gorm:"type:varchar(20)" json:"customer_phone"`
	SessionID     string      `gorm:"type:varchar(64)" json:"-"`
	ByStaff       bool        `gorm:"not null" json:"by_staff"`
	StaffID       *uint       `json:"staff_id,omitempty"`
	TotalAmount   float64     `gorm:"type:decimal(12,3);not null" json:"total_amount"`
	BillID        *uint       `gorm:"index" json:"bill_id,omitempty"`
	CreatedAt     time.Time   `gorm:"not null;index" json:"created_at"`
	UpdatedAt     time.Time   `gorm:"not null" json:"updated_at"`
	OrderItems    []OrderItem `gorm:"foreignKey:OrderID" json:"order_items"`
}

// IsActive -> order masih di pipeline dapur
func (o *Order) IsActive() bool {
	switch o.Status {
	case OrderStatusQueued, OrderStatusPreparing, OrderStatusReady:
		return true
	}
	return false
}

type OrderItem struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	OrderID    uint      `gorm:"not null;index" json:"order_id"`
	MenuItemID uint      `gorm:"not null" json:"menu_item_id"`
	Name       string    `gorm:"type:varchar(255);not null" json:"name"`
	Price      float64   `gorm:"type:decimal(12,3);not null" json:"price"`
	Quantity   int       `gorm:"not null" json:"quantity"`
	Note       string    `gorm:"type:text" json:"note"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}
