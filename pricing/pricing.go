// Package pricing computes cart totals with exact decimal money arithmetic.
package pricing

import (
	"github.com/shopspring/decimal"

	"storefront-api/models"
)

// DeliveryFeeLineName is the snapshot name of the synthetic fee line.
const DeliveryFeeLineName = "Delivery fee"

// CartLine is one priced position before persistence.
type CartLine struct {
	ProductID      *uint
	Name           string
	UnitPrice      float64
	Quantity       int
	SpecialRequest string
	Extras         []byte
}

// Quote is the priced cart: persisted-ready order lines plus the totals.
type Quote struct {
	Lines       []models.OrderItem
	Subtotal    float64
	DeliveryFee float64
	Total       float64
}

// Build prices every cart line, appends a synthetic delivery-fee line when
// fee > 0 and guarantees total == subtotal + fee to the cent.
func Build(lines []CartLine, deliveryFee float64) Quote {
	subtotal := decimal.Zero
	items := make([]models.OrderItem, 0, len(lines)+1)

	for _, l := range lines {
		unit := decimal.NewFromFloat(l.UnitPrice)
		lineTotal := unit.Mul(decimal.NewFromInt(int64(l.Quantity))).Round(2)
		subtotal = subtotal.Add(lineTotal)

		items = append(items, models.OrderItem{
			ProductID:      l.ProductID,
			Name:           l.Name,
			Price:          unit.InexactFloat64(),
			Quantity:       l.Quantity,
			Subtotal:       lineTotal.InexactFloat64(),
			SpecialRequest: l.SpecialRequest,
			Extras:         l.Extras,
		})
	}

	fee := decimal.NewFromFloat(deliveryFee).Round(2)
	if fee.IsPositive() {
		items = append(items, models.OrderItem{
			Name:     DeliveryFeeLineName,
			Price:    fee.InexactFloat64(),
			Quantity: 1,
			Subtotal: fee.InexactFloat64(),
		})
	} else {
		fee = decimal.Zero
	}

	subtotal = subtotal.Round(2)
	return Quote{
		Lines:       items,
		Subtotal:    subtotal.InexactFloat64(),
		DeliveryFee: fee.InexactFloat64(),
		Total:       subtotal.Add(fee).InexactFloat64(),
	}
}

// MinorUnits converts a float amount to integer minor currency units
// (cents), as external checkout providers expect.
func MinorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
