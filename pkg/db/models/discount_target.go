package models

import (
	"time"

	"github.com/google/uuid"
)

// DiscountProduct materializes scope=products targeting.
type DiscountProduct struct {
	DiscountID uuid.UUID `gorm:"column:discount_id;type:uuid;primaryKey"`
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

// DiscountCategory materializes scope=categories targeting.
type DiscountCategory struct {
	DiscountID uuid.UUID `gorm:"column:discount_id;type:uuid;primaryKey"`
	CategoryID uuid.UUID `gorm:"column:category_id;type:uuid;primaryKey"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
