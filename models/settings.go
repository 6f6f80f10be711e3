package models

import "time"

// Tipe biaya kemasan / antar
const (
	ChargeTypeNone       = "none"
	ChargeTypeFixed      = "fixed"
	ChargeTypePercentage = "percentage"
)

// ShopSettings -> konfigurasi per toko yang dibaca oleh core (pajak, service charge, OTP, dll).
type ShopSettings struct {
	ID                    uint      `gorm:"primaryKey" json:"id"`
	ShopID                uint      `gorm:"not null;uniqueIndex" json:"shop_id"`
	Currency              string    `gorm:"type:varchar(8);not null" json:"currency" validate:"required,max=8"`
	TaxRate               float64   `gorm:"type:decimal(6,3);not null" json:"tax_rate" validate:"gte=0,lte=100"`
	TaxIncludedInPrice    bool      `gorm:"not null" json:"tax_included_in_price"`
	ServiceChargeRate     float64   `gorm:"type:decimal(6,3);not null" json:"service_charge_rate" validate:"gte=0,lte=100"`
	EnableOtp             bool      `gorm:"not null" json:"enable_otp"`
	IsPhoneMandatory      bool      `gorm:"not null" json:"is_phone_mandatory"`
	MaxItemQuantity       int       `gorm:"not null" json:"max_item_quantity" validate:"gte=1"`
	PackagingChargeType   string    `gorm:"type:varchar(12);not null" json:"packaging_charge_type" validate:"oneof=none fixed"`
	PackagingChargeAmount float64   `gorm:"type:decimal(12,3);not null" json:"packaging_charge_amount" validate:"gte=0"`
	DeliveryChargeType    string    `gorm:"type:varchar(12);not null" json:"delivery_charge_type" validate:"oneof=none fixed percentage"`
	DeliveryChargeAmount  float64   `gorm:"type:decimal(12,3);not null" json:"delivery_charge_amount" validate:"gte=0"`
	TakeawayOTP           string    `gorm:"type:varchar(12)" json:"-"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}
