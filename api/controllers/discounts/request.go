package discounts

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-promotions/api/middleware"
	"github.com/angelmondragon/storefront-promotions/api/validators"
	"github.com/angelmondragon/storefront-promotions/internal/audit"
	discountsvc "github.com/angelmondragon/storefront-promotions/internal/discounts"
	"github.com/angelmondragon/storefront-promotions/pkg/enums"
	"github.com/angelmondragon/storefront-promotions/pkg/pagination"
	"github.com/angelmondragon/storefront-promotions/pkg/types"
)

const maxQueryLength = 120

type createDiscountRequest struct {
	Name        string                   `json:"name" validate:"required,max=200"`
	Code        *string                  `json:"code" validate:"omitempty,max=64"`
	Type        enums.DiscountType       `json:"type" validate:"required,enum"`
	Value       decimal.Decimal          `json:"value"`
	Scope       *enums.DiscountScope     `json:"scope" validate:"omitempty,enum"`
	IsAutomatic bool                     `json:"isAutomatic"`
	Status      *enums.DiscountStatus    `json:"status" validate:"omitempty,enum"`
	UsageLimit  *int                     `json:"usageLimit"`
	StartsAt    *time.Time               `json:"startsAt"`
	EndsAt      *time.Time               `json:"endsAt"`
	MinSubtotal *decimal.Decimal         `json:"minSubtotal"`
	Metadata    *types.PromotionMetadata `json:"metadata"`
	ProductIDs  []uuid.UUID              `json:"productIds"`
	CategoryIDs []uuid.UUID              `json:"categoryIds"`
}

func (r createDiscountRequest) toInput() discountsvc.CreateDiscountInput {
	input := discountsvc.CreateDiscountInput{
		Name:        r.Name,
		Code:        r.Code,
		Type:        r.Type,
		Value:       r.Value,
		IsAutomatic: r.IsAutomatic,
		UsageLimit:  r.UsageLimit,
		StartsAt:    r.StartsAt,
		EndsAt:      r.EndsAt,
		MinSubtotal: r.MinSubtotal,
		ProductIDs:  r.ProductIDs,
		CategoryIDs: r.CategoryIDs,
	}
	if r.Scope != nil {
		input.Scope = *r.Scope
	}
	if r.Status != nil {
		input.Status = *r.Status
	}
	if r.Metadata != nil {
		input.Metadata = *r.Metadata
	}
	return input
}

type updateDiscountRequest struct {
	Name        *string                                 `json:"name" validate:"omitempty,max=200"`
	Code        types.Nullable[string]                  `json:"code"`
	Type        *enums.DiscountType                     `json:"type" validate:"omitempty,enum"`
	Value       *decimal.Decimal                        `json:"value"`
	Scope       *enums.DiscountScope                    `json:"scope" validate:"omitempty,enum"`
	IsAutomatic *bool                                   `json:"isAutomatic"`
	Status      *enums.DiscountStatus                   `json:"status" validate:"omitempty,enum"`
	UsageLimit  types.Nullable[int]                     `json:"usageLimit"`
	StartsAt    types.Nullable[time.Time]               `json:"startsAt"`
	EndsAt      types.Nullable[time.Time]               `json:"endsAt"`
	MinSubtotal types.Nullable[decimal.Decimal]         `json:"minSubtotal"`
	Metadata    types.Nullable[types.PromotionMetadata] `json:"metadata"`
	ProductIDs  *[]uuid.UUID                            `json:"productIds"`
	CategoryIDs *[]uuid.UUID                            `json:"categoryIds"`
}

func (r updateDiscountRequest) toInput() discountsvc.UpdateDiscountInput {
	return discountsvc.UpdateDiscountInput{
		Name:        r.Name,
		Code:        r.Code,
		Type:        r.Type,
		Value:       r.Value,
		Scope:       r.Scope,
		IsAutomatic: r.IsAutomatic,
		Status:      r.Status,
		UsageLimit:  r.UsageLimit,
		StartsAt:    r.StartsAt,
		EndsAt:      r.EndsAt,
		MinSubtotal: r.MinSubtotal,
		Metadata:    r.Metadata,
		ProductIDs:  r.ProductIDs,
		CategoryIDs: r.CategoryIDs,
	}
}

type quoteRequest struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
}

// parseFilters reads the filter set shared by the list and metrics endpoints.
func parseFilters(r *http.Request) (discountsvc.Filters, error) {
	var (
		f   discountsvc.Filters
		err error
	)
	f.Query = validators.SanitizeString(r.URL.Query().Get("q"), maxQueryLength)
	if f.Status, err = validators.ParseQueryEnum(r, "status", enums.ParseDiscountStatus); err != nil {
		return f, err
	}
	if f.Type, err = validators.ParseQueryEnum(r, "type", enums.ParseDiscountType); err != nil {
		return f, err
	}
	if f.Scope, err = validators.ParseQueryEnum(r, "scope", enums.ParseDiscountScope); err != nil {
		return f, err
	}
	if f.Kind, err = validators.ParseQueryEnum(r, "kind", enums.ParsePromotionKind); err != nil {
		return f, err
	}
	if f.IsAutomatic, err = validators.ParseQueryBool(r, "isAutomatic"); err != nil {
		return f, err
	}
	if f.ActiveNow, err = validators.ParseQueryBool(r, "activeNow"); err != nil {
		return f, err
	}
	if f.DateFrom, err = validators.ParseQueryTime(r, "dateFrom", false); err != nil {
		return f, err
	}
	if f.DateTo, err = validators.ParseQueryTime(r, "dateTo", true); err != nil {
		return f, err
	}
	return f, nil
}

func parsePagination(r *http.Request) (pagination.Params, error) {
	page, err := validators.ParseQueryInt(r, "page", 1, 1, 1_000_000)
	if err != nil {
		return pagination.Params{}, err
	}
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{Page: page, Limit: limit}, nil
}

// actorFromRequest identifies who performed a mutation for the audit trail.
func actorFromRequest(r *http.Request) audit.Actor {
	return audit.Actor{
		ID:        middleware.ActorIDFromContext(r.Context()),
		UserAgent: r.UserAgent(),
		IP:        clientIP(r),
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first := strings.TrimSpace(strings.SplitN(forwarded, ",", 2)[0])
		if first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
