package types

import (
	"encoding/json"
	"testing"

	"github.com/angelmondragon/storefront-promotions/pkg/enums"
)

func TestPromotionMetadataResolveKind(t *testing.T) {
	cases := []struct {
		name      string
		meta      PromotionMetadata
		automatic bool
		want      enums.PromotionKind
		wantErr   bool
	}{
		{name: "coupon", meta: PromotionMetadata{}, automatic: false, want: enums.PromotionKindCoupon},
		{name: "coupon with kind", meta: PromotionMetadata{Kind: "offer"}, automatic: false, wantErr: true},
		{name: "automatic without metadata", meta: PromotionMetadata{}, automatic: true, want: enums.PromotionKindScheduledOffer},
		{name: "offer standard", meta: PromotionMetadata{Kind: "offer", OfferKind: "standard"}, automatic: true, want: enums.PromotionKindScheduledOffer},
		{name: "offer mixed case", meta: PromotionMetadata{Kind: " Offer ", OfferKind: "STANDARD"}, automatic: true, want: enums.PromotionKindScheduledOffer},
		{name: "bundle", meta: PromotionMetadata{Kind: "offer", OfferKind: "bundle", Bundle: &BundleRule{RequiredQty: 3}}, automatic: true, want: enums.PromotionKindBundleOffer},
		{name: "bundle qty too low", meta: PromotionMetadata{Kind: "offer", OfferKind: "bundle", Bundle: &BundleRule{RequiredQty: 1}}, automatic: true, wantErr: true},
		{name: "bundle missing rule", meta: PromotionMetadata{Kind: "offer", OfferKind: "bundle"}, automatic: true, wantErr: true},
		{name: "bxgy generic", meta: PromotionMetadata{Kind: "deal", OfferKind: "bxgy_generic"}, automatic: true, want: enums.PromotionKindBxgyGeneric},
		{name: "bxgy bundle", meta: PromotionMetadata{Kind: "deal", OfferKind: "bxgy_bundle"}, automatic: true, want: enums.PromotionKindBxgyBundle},
		{name: "deal without offer kind", meta: PromotionMetadata{Kind: "deal"}, automatic: true, wantErr: true},
		{name: "deal with offer kind", meta: PromotionMetadata{Kind: "deal", OfferKind: "standard"}, automatic: true, wantErr: true},
		{name: "unknown kind", meta: PromotionMetadata{Kind: "flash"}, automatic: true, wantErr: true},
		{name: "offer kind without kind", meta: PromotionMetadata{OfferKind: "bundle"}, automatic: true, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.meta.ResolveKind(tc.automatic)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got kind %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestForKindRoundTrips(t *testing.T) {
	for _, kind := range enums.PromotionKinds() {
		meta := ForKind(kind, 2)
		got, err := meta.ResolveKind(kind.IsAutomatic())
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", kind, err)
		}
		if got != kind {
			t.Fatalf("%s: resolved to %q", kind, got)
		}
	}
}

func TestPromotionMetadataJSONShape(t *testing.T) {
	raw := []byte(`{"kind":"offer","offerKind":"bundle","bundle":{"requiredQty":4}}`)
	var meta PromotionMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if meta.Bundle == nil || meta.Bundle.RequiredQty != 4 {
		t.Fatalf("expected bundle qty 4, got %+v", meta.Bundle)
	}

	out, err := json.Marshal(PromotionMetadata{})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != "{}" {
		t.Fatalf("expected empty object, got %s", out)
	}
}
