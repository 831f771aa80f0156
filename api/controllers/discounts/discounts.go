package discounts

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-promotions/api/responses"
	"github.com/angelmondragon/storefront-promotions/api/validators"
	discountsvc "github.com/angelmondragon/storefront-promotions/internal/discounts"
	"github.com/angelmondragon/storefront-promotions/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-promotions/pkg/errors"
	"github.com/angelmondragon/storefront-promotions/pkg/logger"
)

// List returns a filtered, sorted page of discounts.
func List(svc discountsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !serviceAvailable(svc, w, r, logg) {
			return
		}
		filters, err := parseFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := parsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sort, err := validators.ParseQueryEnum(r, "sort", enums.ParseDiscountSort)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := discountsvc.ListDiscountsInput{Filters: filters, Params: params}
		if sort != nil {
			input.Sort = *sort
		}
		result, err := svc.ListDiscounts(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// Metrics returns the dashboard rollup for discounts matching the query filters.
func Metrics(svc discountsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !serviceAvailable(svc, w, r, logg) {
			return
		}
		filters, err := parseFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Metrics(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func Get(svc discountsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !serviceAvailable(svc, w, r, logg) {
			return
		}
		id, err := parseDiscountID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.GetDiscount(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// Usage returns a page of the discount's redemption ledger.
func Usage(svc discountsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !serviceAvailable(svc, w, r, logg) {
			return
		}
		id, err := parseDiscountID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := parsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ListUsage(r.Context(), id, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func Create(svc discountsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !serviceAvailable(svc, w, r, logg) {
			return
		}
		var payload createDiscountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.CreateDiscount(r.Context(), actorFromRequest(r), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func Update(svc discountsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !serviceAvailable(svc, w, r, logg) {
			return
		}
		id, err := parseDiscountID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateDiscountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.UpdateDiscount(r.Context(), actorFromRequest(r), id, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func Delete(svc discountsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !serviceAvailable(svc, w, r, logg) {
			return
		}
		id, err := parseDiscountID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteDiscount(r.Context(), actorFromRequest(r), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// Quote prices the discount against a hypothetical cart. Counters are untouched.
func Quote(svc discountsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !serviceAvailable(svc, w, r, logg) {
			return
		}
		id, err := parseDiscountID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload quoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Quote(r.Context(), id, discountsvc.QuoteInput{Subtotal: payload.Subtotal, Shipping: payload.Shipping})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func serviceAvailable(svc discountsvc.Service, w http.ResponseWriter, r *http.Request, logg *logger.Logger) bool {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discount service unavailable"))
		return false
	}
	return true
}

func parseDiscountID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "discountId")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount id").
			WithDetails(map[string]any{"field": "discountId"})
	}
	return id, nil
}
