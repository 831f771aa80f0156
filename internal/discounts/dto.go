package discounts

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-promotions/pkg/db/models"
	"github.com/angelmondragon/storefront-promotions/pkg/enums"
	"github.com/angelmondragon/storefront-promotions/pkg/types"
)

// DiscountDTO is the discount payload returned to admin clients.
type DiscountDTO struct {
	ID             uuid.UUID               `json:"id"`
	Name           string                  `json:"name"`
	Code           *string                 `json:"code"`
	Type           enums.DiscountType      `json:"type"`
	Value          string                  `json:"value"`
	Scope          enums.DiscountScope     `json:"scope"`
	IsAutomatic    bool                    `json:"isAutomatic"`
	Status         enums.DiscountStatus    `json:"status"`
	Kind           enums.PromotionKind     `json:"kind"`
	UsageLimit     *int                    `json:"usageLimit"`
	UsageCount     int                     `json:"usageCount"`
	UsageRemaining *int                    `json:"usageRemaining"`
	StartsAt       *time.Time              `json:"startsAt"`
	EndsAt         *time.Time              `json:"endsAt"`
	MinSubtotal    *string                 `json:"minSubtotal"`
	Metadata       types.PromotionMetadata `json:"metadata"`
	ActiveNow      bool                    `json:"activeNow"`
	ProductIDs     []uuid.UUID             `json:"productIds"`
	CategoryIDs    []uuid.UUID             `json:"categoryIds"`
	CreatedAt      time.Time               `json:"createdAt"`
	UpdatedAt      time.Time               `json:"updatedAt"`
}

// NewDiscountDTO maps a discount and its targets, computing activeNow at now.
func NewDiscountDTO(d *models.Discount, targets Targets, now time.Time) *DiscountDTO {
	dto := &DiscountDTO{
		ID:          d.ID,
		Name:        d.Name,
		Code:        d.Code,
		Type:        d.Type,
		Value:       formatMoney(d.Value),
		Scope:       d.Scope,
		IsAutomatic: d.IsAutomatic,
		Status:      d.Status,
		Kind:        d.PromotionKind,
		UsageLimit:  d.UsageLimit,
		UsageCount:  d.UsageCount,
		StartsAt:    d.StartsAt,
		EndsAt:      d.EndsAt,
		Metadata:    d.Metadata,
		ActiveNow:   IsActiveAt(d, now),
		ProductIDs:  targets.ProductIDs,
		CategoryIDs: targets.CategoryIDs,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if remaining, limited := UsageRemaining(d); limited {
		dto.UsageRemaining = &remaining
	}
	if d.MinSubtotal != nil {
		value := formatMoney(*d.MinSubtotal)
		dto.MinSubtotal = &value
	}
	if dto.ProductIDs == nil {
		dto.ProductIDs = []uuid.UUID{}
	}
	if dto.CategoryIDs == nil {
		dto.CategoryIDs = []uuid.UUID{}
	}
	return dto
}

// DiscountListResult is one page of the catalog.
type DiscountListResult struct {
	Items []DiscountDTO `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// UsageDTO is a ledger row as shown in the usage listing.
type UsageDTO struct {
	ID            uuid.UUID `json:"id"`
	OrderID       uuid.UUID `json:"orderId"`
	OrderNumber   *string   `json:"orderNumber"`
	CustomerEmail *string   `json:"customerEmail"`
	OrderTotal    *string   `json:"orderTotal"`
	Currency      *string   `json:"currency"`
	Code          *string   `json:"code"`
	Amount        string    `json:"amount"`
	StoredAmount  string    `json:"storedAmount"`
	Reconstructed bool      `json:"reconstructed"`
	CreatedAt     time.Time `json:"createdAt"`
}

// NewUsageDTO maps a reconstructed ledger record.
func NewUsageDTO(r UsageRecord) UsageDTO {
	dto := UsageDTO{
		ID:            r.ID,
		OrderID:       r.OrderID,
		OrderNumber:   r.OrderNumber,
		CustomerEmail: r.CustomerEmail,
		Currency:      r.Currency,
		Code:          r.Code,
		Amount:        formatMoney(r.EffectiveAmount),
		StoredAmount:  formatMoney(r.Amount),
		Reconstructed: r.Reconstructed,
		CreatedAt:     r.CreatedAt,
	}
	if r.OrderTotal.Valid {
		total := formatMoney(r.OrderTotal.Decimal)
		dto.OrderTotal = &total
	}
	return dto
}

// UsageListResult is one page of a discount's usage ledger.
type UsageListResult struct {
	Items []UsageDTO `json:"items"`
	Total int64      `json:"total"`
	Page  int        `json:"page"`
	Limit int        `json:"limit"`
}

// MetricsResult is the dashboard rollup over discounts matching a filter set.
type MetricsResult struct {
	DraftCount            int64                         `json:"draftCount"`
	ActiveCount           int64                         `json:"activeCount"`
	ExpiredCount          int64                         `json:"expiredCount"`
	ArchivedCount         int64                         `json:"archivedCount"`
	ActiveNowCount        int64                         `json:"activeNowCount"`
	TotalUsage            int64                         `json:"totalUsage"`
	TotalDiscountGiven    string                        `json:"totalDiscountGiven"`
	TotalDiscountGiven30d string                        `json:"totalDiscountGiven30d"`
	ByType                map[enums.DiscountType]int64  `json:"byType"`
	ByKind                map[enums.PromotionKind]int64 `json:"byKind"`
	Currency              string                        `json:"currency"`
}

// QuoteResult answers "what would this rule save on this cart right now".
type QuoteResult struct {
	DiscountID  uuid.UUID `json:"discountId"`
	Usable      bool      `json:"usable"`
	Reasons     []string  `json:"reasons"`
	Merchandise string    `json:"merchandiseSavings"`
	Shipping    string    `json:"shippingSavings"`
	Total       string    `json:"totalSavings"`
}

func formatMoney(v decimal.Decimal) string {
	return v.StringFixed(moneyPlaces)
}
