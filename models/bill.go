package models

import (
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrBillImmutable dikembalikan hook saat ada yang mencoba mengubah bill.
var ErrBillImmutable = errors.New("bill is immutable once created")

// BillItem adalah salinan item order saat settlement.
type BillItem struct {
	OrderID     uint    `json:"order_id"`
	OrderNumber string  `json:"order_number"`
	MenuItemID  uint    `json:"menu_item_id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
	Note        string  `json:"note,omitempty"`
}

// Breakdown is the tax / service charge / discount / packaging / delivery decomposition of a bill.
type Breakdown struct {
	ItemTotal         float64 `json:"item_total" validate:"gte=0"`
	Subtotal          float64 `json:"subtotal" validate:"gte=0"`
	Tax               float64 `json:"tax" validate:"gte=0"`
	TaxRate           float64 `json:"tax_rate" validate:"gte=0,lte=100"`
	TaxIncluded       bool    `json:"tax_included"`
	ServiceCharge     float64 `json:"service_charge" validate:"gte=0"`
	ServiceChargeRate float64 `json:"service_charge_rate" validate:"gte=0,lte=100"`
	DiscountAmount    float64 `json:"discount_amount" validate:"gte=0"`
	DiscountReason    string  `json:"discount_reason,omitempty" validate:"max=255"`
	PackagingTotal    float64 `json:"packaging_total" validate:"gte=0"`
	DeliveryTotal     float64 `json:"delivery_total" validate:"gte=0"`
	GrandTotal        float64 `json:"grand_total" validate:"gte=0"`
}

type Bill struct {
	ID            uint                          `gorm:"primaryKey" json:"id"`
	ShopID        uint                          `gorm:"not null;uniqueIndex:idx_bills_shop_number" json:"shop_id"`
	BillNumber    string                        `gorm:"type:varchar(16);not null;uniqueIndex:idx_bills_shop_number" json:"bill_number"`
	TableID       *uint                         `gorm:"index" json:"table_id"`
	TableLabel    string                        `gorm:"type:varchar(50)" json:"table_label,omitempty"`
	ServiceType   string                        `gorm:"type:varchar(20);not null" json:"service_type"`
	TotalAmount   float64                       `gorm:"type:decimal(12,3);not null" json:"total_amount"`
	PaymentMethod string                        `gorm:"type:varchar(30);not null;index" json:"payment_method"`
	OrderIDs      datatypes.JSONSlice[uint]     `json:"order_ids"`
	Items         datatypes.JSONSlice[BillItem] `json:"items"`
	Breakdown     datatypes.JSONType[Breakdown] `json:"breakdown"`
	StaffID       *uint                         `json:"staff_id,omitempty"`
	CreatedAt     time.Time                     `gorm:"not null;index" json:"created_at"`
}

func (b *Bill) BeforeUpdate(tx *gorm.DB) error {
	return ErrBillImmutable
}

func (b *Bill) BeforeDelete(tx *gorm.DB) error {
	return ErrBillImmutable
}
