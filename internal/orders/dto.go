package orders

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemPrice is an order line joined to its current catalog base price.
type ItemPrice struct {
	OrderID     uuid.UUID           `gorm:"column:order_id"`
	OrderItemID uuid.UUID           `gorm:"column:order_item_id"`
	ProductID   uuid.UUID           `gorm:"column:product_id"`
	VariantID   *uuid.UUID          `gorm:"column:variant_id"`
	Quantity    int                 `gorm:"column:quantity"`
	UnitPrice   decimal.Decimal     `gorm:"column:unit_price"`
	TotalPrice  decimal.Decimal     `gorm:"column:total_price"`
	BasePrice   decimal.NullDecimal `gorm:"column:base_price"`
}

// IsGift reports whether the line was granted for free.
func (i ItemPrice) IsGift() bool {
	return i.UnitPrice.IsZero() && i.TotalPrice.IsZero()
}
