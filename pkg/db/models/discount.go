package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-promotions/pkg/enums"
	"github.com/angelmondragon/storefront-promotions/pkg/types"
)

// Discount is a promotion rule: a coupon when IsAutomatic is false, an offer or deal otherwise.
type Discount struct {
	ID            uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	Name          string                  `gorm:"column:name;not null"`
	Code          *string                 `gorm:"column:code"`
	Type          enums.DiscountType      `gorm:"column:type;not null"`
	Value         decimal.Decimal         `gorm:"column:value;type:numeric(12,2);not null;default:0"`
	Scope         enums.DiscountScope     `gorm:"column:scope;not null;default:'all'"`
	IsAutomatic   bool                    `gorm:"column:is_automatic;not null;default:false"`
	Status        enums.DiscountStatus    `gorm:"column:status;not null;default:'draft'"`
	UsageLimit    *int                    `gorm:"column:usage_limit"`
	UsageCount    int                     `gorm:"column:usage_count;not null;default:0"`
	StartsAt      *time.Time              `gorm:"column:starts_at"`
	EndsAt        *time.Time              `gorm:"column:ends_at"`
	MinSubtotal   *decimal.Decimal        `gorm:"column:min_subtotal;type:numeric(12,2)"`
	Metadata      types.PromotionMetadata `gorm:"column:metadata;type:jsonb;serializer:json;not null"`
	PromotionKind enums.PromotionKind     `gorm:"column:promotion_kind;not null"`
	CreatedAt     time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns an id when the caller did not.
func (d *Discount) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
