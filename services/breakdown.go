package services

import (
	"github.com/foodcafeshop/food-cafe/models"
	"github.com/foodcafeshop/food-cafe/utils"
	"github.com/shopspring/decimal"
)

// BreakdownOptions adalah pilihan staff per settlement.
type BreakdownOptions struct {
	ApplyServiceCharge bool
	DiscountAmount     float64
	DiscountReason     string
}

var hundred = decimal.NewFromInt(100)

func round(d decimal.Decimal) decimal.Decimal {
	return d.Round(utils.MoneyPlaces)
}

// ComputeBreakdown menghitung rincian bill dari total item mentah.
//
// Pajak inklusif: subtotal = itemTotal / (1 + rate/100), tax = itemTotal - subtotal.
// Pajak eksklusif: subtotal = itemTotal, tax = subtotal * rate/100.
// Service charge hanya jika dipilih staff. Diskon flat (0..subtotal) mengurangi grand total saja;
// pajak tetap dihitung dari subtotal sebelum diskon. Packaging berlaku untuk takeaway dan delivery,
// delivery charge hanya untuk delivery. Semua nilai dibulatkan 3 desimal.
func ComputeBreakdown(itemTotal float64, s *models.ShopSettings, serviceType string, opts BreakdownOptions) (models.Breakdown, error) {
	total := round(decimal.NewFromFloat(itemTotal))
	rate := decimal.NewFromFloat(s.TaxRate)

	var subtotal, tax decimal.Decimal
	if s.TaxIncludedInPrice {
		subtotal = round(total.Div(decimal.NewFromInt(1).Add(rate.Div(hundred))))
		tax = total.Sub(subtotal)
	} else {
		subtotal = total
		tax = round(subtotal.Mul(rate).Div(hundred))
	}

	serviceCharge := decimal.Zero
	if opts.ApplyServiceCharge {
		serviceCharge = round(subtotal.Mul(decimal.NewFromFloat(s.ServiceChargeRate)).Div(hundred))
	}

	discount := round(decimal.NewFromFloat(opts.DiscountAmount))
	if discount.IsNegative() || discount.GreaterThan(subtotal) {
		return models.Breakdown{}, ErrInvalidDiscount
	}

	packaging := decimal.Zero
	delivery := decimal.Zero
	if serviceType != models.ServiceDineIn {
		if s.PackagingChargeType == models.ChargeTypeFixed {
			packaging = round(decimal.NewFromFloat(s.PackagingChargeAmount))
		}
		if serviceType == models.ServiceDelivery {
			switch s.DeliveryChargeType {
			case models.ChargeTypeFixed:
				delivery = round(decimal.NewFromFloat(s.DeliveryChargeAmount))
			case models.ChargeTypePercentage:
				delivery = round(subtotal.Mul(decimal.NewFromFloat(s.DeliveryChargeAmount)).Div(hundred))
			}
		}
	}

	grand := subtotal.Add(tax).Add(serviceCharge).Add(packaging).Add(delivery).Sub(discount)

	bd := models.Breakdown{
		ItemTotal:      utils.RoundDecimal(total),
		Subtotal:       utils.RoundDecimal(subtotal),
		Tax:            utils.RoundDecimal(tax),
		TaxRate:        s.TaxRate,
		TaxIncluded:    s.TaxIncludedInPrice,
		ServiceCharge:  utils.RoundDecimal(serviceCharge),
		DiscountAmount: utils.RoundDecimal(discount),
		DiscountReason: opts.DiscountReason,
		PackagingTotal: utils.RoundDecimal(packaging),
		DeliveryTotal:  utils.RoundDecimal(delivery),
		GrandTotal:     utils.RoundDecimal(grand),
	}
	if opts.ApplyServiceCharge {
		bd.ServiceChargeRate = s.ServiceChargeRate
	}
	return bd, nil
}

// orderTotal -> total yang disimpan saat order dibuat: item + pajak (+ packaging/delivery).
func orderTotal(itemTotal float64, s *models.ShopSettings, serviceType string) float64 {
	bd, err := ComputeBreakdown(itemTotal, s, serviceType, BreakdownOptions{})
	if err != nil {
		return utils.Round3(itemTotal)
	}
	return bd.GrandTotal
}

// rawItemTotal menjumlahkan price x quantity dengan decimal.
func rawItemTotal(items []models.OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return round(total)
}
