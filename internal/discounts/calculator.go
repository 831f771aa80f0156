package discounts

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-promotions/pkg/db/models"
	"github.com/angelmondragon/storefront-promotions/pkg/enums"
)

const moneyPlaces = 2

var hundred = decimal.NewFromInt(100)

// QuoteInput is the cart context a rule is priced against.
type QuoteInput struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
}

// Savings is the nominal amount a rule takes off merchandise and shipping.
type Savings struct {
	Merchandise decimal.Decimal
	Shipping    decimal.Decimal
	Total       decimal.Decimal
	Reasons     []string
}

// Calculate prices a standard rule. Negative inputs count as zero and merchandise
// savings never exceed the subtotal.
func Calculate(d *models.Discount, in QuoteInput) Savings {
	subtotal := nonNegative(in.Subtotal)
	shipping := nonNegative(in.Shipping)
	out := Savings{
		Merchandise: decimal.Zero,
		Shipping:    decimal.Zero,
		Total:       decimal.Zero,
		Reasons:     []string{},
	}

	if d.MinSubtotal != nil && subtotal.LessThan(*d.MinSubtotal) {
		out.Reasons = append(out.Reasons, ReasonBelowMinSubtotal)
		return out
	}

	switch d.Type {
	case enums.DiscountTypePercentage:
		out.Merchandise = decimal.Min(subtotal.Mul(d.Value).Div(hundred), subtotal)
	case enums.DiscountTypeFixedAmount:
		out.Merchandise = decimal.Min(nonNegative(d.Value), subtotal)
	case enums.DiscountTypeFreeShipping:
		out.Shipping = shipping
	}

	out.Merchandise = nonNegative(out.Merchandise).Round(moneyPlaces)
	out.Shipping = out.Shipping.Round(moneyPlaces)
	out.Total = out.Merchandise.Add(out.Shipping)
	return out
}

func nonNegative(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}
