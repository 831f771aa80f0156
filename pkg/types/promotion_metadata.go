package types

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-promotions/pkg/enums"
)

const (
	MetadataKindOffer = "offer"
	MetadataKindDeal  = "deal"

	OfferKindStandard    = "standard"
	OfferKindBundle      = "bundle"
	OfferKindBxgyGeneric = "bxgy_generic"
	OfferKindBxgyBundle  = "bxgy_bundle"
)

// MinBundleQty is the smallest quantity a bundle offer may require.
const MinBundleQty = 2

// BundleRule carries the quantity threshold of a bundle promotion.
type BundleRule struct {
	RequiredQty int `json:"requiredQty"`
}

// PromotionMetadata is the JSON document stored in discounts.metadata.
type PromotionMetadata struct {
	Kind      string      `json:"kind,omitempty"`
	OfferKind string      `json:"offerKind,omitempty"`
	Bundle    *BundleRule `json:"bundle,omitempty"`
}

// Normalize trims and lowercases the discriminator fields.
func (m PromotionMetadata) Normalize() PromotionMetadata {
	m.Kind = strings.ToLower(strings.TrimSpace(m.Kind))
	m.OfferKind = strings.ToLower(strings.TrimSpace(m.OfferKind))
	return m
}

// IsZero reports whether no discriminator is set.
func (m PromotionMetadata) IsZero() bool {
	return m.Kind == "" && m.OfferKind == "" && m.Bundle == nil
}

// ResolveKind maps the automatic flag and metadata onto a PromotionKind.
func (m PromotionMetadata) ResolveKind(isAutomatic bool) (enums.PromotionKind, error) {
	m = m.Normalize()
	if !isAutomatic {
		if m.Kind != "" {
			return "", fmt.Errorf("metadata kind %q requires an automatic discount", m.Kind)
		}
		return enums.PromotionKindCoupon, nil
	}

	switch m.Kind {
	case "":
		if m.OfferKind != "" {
			return "", fmt.Errorf("metadata offerKind %q requires a kind", m.OfferKind)
		}
		return enums.PromotionKindScheduledOffer, nil
	case MetadataKindOffer:
		switch m.OfferKind {
		case "", OfferKindStandard:
			return enums.PromotionKindScheduledOffer, nil
		case OfferKindBundle:
			if m.Bundle == nil || m.Bundle.RequiredQty < MinBundleQty {
				return "", fmt.Errorf("bundle offers require bundle.requiredQty >= %d", MinBundleQty)
			}
			return enums.PromotionKindBundleOffer, nil
		}
	case MetadataKindDeal:
		switch m.OfferKind {
		case OfferKindBxgyGeneric:
			return enums.PromotionKindBxgyGeneric, nil
		case OfferKindBxgyBundle:
			return enums.PromotionKindBxgyBundle, nil
		}
	default:
		return "", fmt.Errorf("unknown metadata kind %q", m.Kind)
	}
	return "", fmt.Errorf("offerKind %q is not valid for kind %q", m.OfferKind, m.Kind)
}

// PriceSavingsSource reports where a zero-amount ledger row's savings hide, judged on the
// stored discriminators alone: reduced item prices for offer/standard, free units for
// deal/bxgy. Anything else, including missing fields, has no implied savings.
func (m PromotionMetadata) PriceSavingsSource() (SavingsSource, bool) {
	m = m.Normalize()
	switch {
	case m.Kind == MetadataKindOffer && m.OfferKind == OfferKindStandard:
		return SavingsFromReducedPrice, true
	case m.Kind == MetadataKindDeal && (m.OfferKind == OfferKindBxgyGeneric || m.OfferKind == OfferKindBxgyBundle):
		return SavingsFromGiftLines, true
	}
	return 0, false
}

// SavingsSource selects which order accumulator a reconstructed row draws from.
type SavingsSource int

const (
	SavingsFromReducedPrice SavingsSource = iota + 1
	SavingsFromGiftLines
)

// ForKind builds the canonical metadata for a kind, keeping the bundle rule when relevant.
func ForKind(kind enums.PromotionKind, requiredQty int) PromotionMetadata {
	switch kind {
	case enums.PromotionKindBundleOffer:
		return PromotionMetadata{Kind: MetadataKindOffer, OfferKind: OfferKindBundle, Bundle: &BundleRule{RequiredQty: requiredQty}}
	case enums.PromotionKindBxgyGeneric:
		return PromotionMetadata{Kind: MetadataKindDeal, OfferKind: OfferKindBxgyGeneric}
	case enums.PromotionKindBxgyBundle:
		return PromotionMetadata{Kind: MetadataKindDeal, OfferKind: OfferKindBxgyBundle}
	case enums.PromotionKindScheduledOffer:
		return PromotionMetadata{Kind: MetadataKindOffer, OfferKind: OfferKindStandard}
	default:
		return PromotionMetadata{}
	}
}
