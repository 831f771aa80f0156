package discounts

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-promotions/pkg/db/models"
	"github.com/angelmondragon/storefront-promotions/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-promotions/pkg/errors"
)

const maxPercentage = 100

var errAutomaticWithCode = invalid("code", "automatic discounts cannot have a code")

func invalid(field, reason string) pkgerrors.FieldError {
	return pkgerrors.FieldError{Field: field, Reason: reason}
}

// normalizeCode uppercases and trims a coupon code; blank codes become nil.
func normalizeCode(code *string) *string {
	if code == nil {
		return nil
	}
	value := strings.ToUpper(strings.TrimSpace(*code))
	if value == "" {
		return nil
	}
	return &value
}

// prepare normalizes a discount in place, derives its promotion kind, and returns every
// rule-shape problem as one validation error.
func prepare(d *models.Discount) error {
	d.Name = strings.TrimSpace(d.Name)
	d.Code = normalizeCode(d.Code)
	d.Metadata = d.Metadata.Normalize()
	if d.Type == enums.DiscountTypeFreeShipping {
		d.Value = decimal.Zero
	}
	if d.StartsAt != nil {
		start := d.StartsAt.UTC()
		d.StartsAt = &start
	}
	if d.EndsAt != nil {
		end := d.EndsAt.UTC()
		d.EndsAt = &end
	}

	var errs error
	if d.Name == "" {
		errs = multierr.Append(errs, invalid("name", "name is required"))
	}
	if !d.Type.IsValid() {
		errs = multierr.Append(errs, invalid("type", fmt.Sprintf("invalid discount type %q", d.Type)))
	}
	if !d.Scope.IsValid() {
		errs = multierr.Append(errs, invalid("scope", fmt.Sprintf("invalid discount scope %q", d.Scope)))
	}
	if !d.Status.IsValid() {
		errs = multierr.Append(errs, invalid("status", fmt.Sprintf("invalid discount status %q", d.Status)))
	}

	switch d.Type {
	case enums.DiscountTypePercentage:
		if !d.Value.IsPositive() || d.Value.GreaterThan(hundred) {
			errs = multierr.Append(errs, invalid("value", fmt.Sprintf("percentage value must be greater than 0 and at most %d", maxPercentage)))
		}
	case enums.DiscountTypeFixedAmount:
		if !d.Value.IsPositive() {
			errs = multierr.Append(errs, invalid("value", "fixed amount value must be greater than 0"))
		}
	}

	if d.StartsAt != nil && d.EndsAt != nil && d.StartsAt.After(*d.EndsAt) {
		errs = multierr.Append(errs, invalid("endsAt", "startsAt must not be after endsAt"))
	}
	if d.UsageLimit != nil && *d.UsageLimit < 1 {
		errs = multierr.Append(errs, invalid("usageLimit", "usageLimit must be at least 1"))
	}
	if d.MinSubtotal != nil && d.MinSubtotal.IsNegative() {
		errs = multierr.Append(errs, invalid("minSubtotal", "minSubtotal must not be negative"))
	}

	if d.IsAutomatic && d.Code != nil {
		errs = multierr.Append(errs, errAutomaticWithCode)
	}

	kind, err := d.Metadata.ResolveKind(d.IsAutomatic)
	if err != nil {
		errs = multierr.Append(errs, invalid("metadata", err.Error()))
	} else {
		d.PromotionKind = kind
	}

	if errs == nil {
		return nil
	}
	return validationError(errs)
}

func validationError(errs error) error {
	list := multierr.Errors(errs)
	fields := make([]pkgerrors.FieldError, 0, len(list))
	for _, err := range list {
		var field pkgerrors.FieldError
		if !errors.As(err, &field) {
			field = pkgerrors.FieldError{Reason: err.Error()}
		}
		fields = append(fields, field)
	}
	return pkgerrors.Invalid(fields...)
}
