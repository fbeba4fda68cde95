// Package pricing holds the tax and total arithmetic shared by the sale,
// return and order-edit paths. Unit prices are tax-inclusive.
package pricing

import (
	"github.com/machinetrade/pos-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Round2 rounds half away from zero to two decimal places
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ValidPercentage reports whether p lies in [0, 100]
func ValidPercentage(p decimal.Decimal) bool {
	return !p.IsNegative() && p.LessThanOrEqual(hundred)
}

// LineAmounts is the tax breakdown of one order line
type LineAmounts struct {
	VATPerUnit   decimal.Decimal
	BasePerUnit  decimal.Decimal
	Subtotal     decimal.Decimal
	VATAmount    decimal.Decimal
	TotalWithVAT decimal.Decimal
}

// ComputeLine splits a tax-inclusive unit price into base and VAT.
// BasePerUnit + VATPerUnit always equals unitPrice exactly.
func ComputeLine(unitPrice, vatPercentage decimal.Decimal, quantity int) LineAmounts {
	qty := decimal.NewFromInt(int64(quantity))
	vatPerUnit := Round2(vatPercentage.Div(hundred).Mul(unitPrice))
	basePerUnit := unitPrice.Sub(vatPerUnit)
	return LineAmounts{
		VATPerUnit:   vatPerUnit,
		BasePerUnit:  basePerUnit,
		Subtotal:     basePerUnit.Mul(qty),
		VATAmount:    vatPerUnit.Mul(qty),
		TotalWithVAT: unitPrice.Mul(qty),
	}
}

// ApplyLine fills the derived money fields of item from its price, rate and quantity
func ApplyLine(item *entity.OrderItem) {
	amounts := ComputeLine(item.UnitPrice, item.VATPercentage, item.Quantity)
	item.BasePrice = amounts.BasePerUnit
	item.VATAmount = amounts.VATPerUnit
	item.Subtotal = amounts.Subtotal
	item.TotalWithVAT = amounts.TotalWithVAT
}

// Totals are the order-level money fields
type Totals struct {
	Subtotal            decimal.Decimal
	VATAmount           decimal.Decimal
	TotalBeforeDiscount decimal.Decimal
	DiscountAmount      decimal.Decimal
	ExtrasTotal         decimal.Decimal
	FinalTotal          decimal.Decimal
	Total               decimal.Decimal
}

// ComputeTotals aggregates lines and extras. Returned units are excluded,
// so a partially returned order totals only what the customer kept.
func ComputeTotals(items []entity.OrderItem, extras []entity.OrderExtra, discountPercentage decimal.Decimal) Totals {
	var t Totals
	for _, item := range items {
		kept := item.Quantity - item.ReturnedQuantity
		if kept <= 0 {
			continue
		}
		amounts := ComputeLine(item.UnitPrice, item.VATPercentage, kept)
		t.Subtotal = t.Subtotal.Add(amounts.Subtotal)
		t.VATAmount = t.VATAmount.Add(amounts.VATAmount)
	}
	for _, extra := range extras {
		t.ExtrasTotal = t.ExtrasTotal.Add(extra.Amount)
	}
	t.TotalBeforeDiscount = t.Subtotal.Add(t.VATAmount)
	t.DiscountAmount = Round2(t.TotalBeforeDiscount.Mul(discountPercentage).Div(hundred))
	t.FinalTotal = t.TotalBeforeDiscount.Sub(t.DiscountAmount).Add(t.ExtrasTotal)
	t.Total = t.Subtotal.Add(t.ExtrasTotal)
	return t
}

// RecomputeTotals rederives every line and order total of o in place.
// It is the only writer of these fields.
func RecomputeTotals(o *entity.Order) {
	for i := range o.Items {
		ApplyLine(&o.Items[i])
	}
	t := ComputeTotals(o.Items, o.Extras, o.DiscountPercentage)
	o.Subtotal = t.Subtotal
	o.VATAmount = t.VATAmount
	o.TotalBeforeDiscount = t.TotalBeforeDiscount
	o.DiscountAmount = t.DiscountAmount
	o.ExtrasTotal = t.ExtrasTotal
	o.FinalTotal = t.FinalTotal
	o.Total = t.Total
}
