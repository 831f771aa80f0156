package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderDiscount is the order-level usage ledger row written at checkout.
// Amount is zero when the discount only altered item prices.
type OrderDiscount struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID    uuid.UUID       `gorm:"column:order_id;type:uuid;not null"`
	DiscountID uuid.UUID       `gorm:"column:discount_id;type:uuid;not null"`
	Code       *string         `gorm:"column:code"`
	Amount     decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null;default:0"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (o *OrderDiscount) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrderItemDiscount attributes a discount amount to a single order item.
type OrderItemDiscount struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID       `gorm:"column:order_id;type:uuid;not null"`
	OrderItemID uuid.UUID       `gorm:"column:order_item_id;type:uuid;not null"`
	DiscountID  uuid.UUID       `gorm:"column:discount_id;type:uuid;not null"`
	Code        *string         `gorm:"column:code"`
	Amount      decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null;default:0"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (o *OrderItemDiscount) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
