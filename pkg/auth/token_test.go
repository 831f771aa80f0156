package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-promotions/pkg/config"
)

func newTestSigner(t *testing.T) *Signer {
	t.Helper()
	signer, err := NewSigner(config.JWTConfig{Secret: "secret", Issuer: "storefront", ExpirationMinutes: 30})
	require.NoError(t, err)
	return signer
}

func TestNewSignerValidatesConfig(t *testing.T) {
	for name, cfg := range map[string]config.JWTConfig{
		"secret": {Issuer: "storefront", ExpirationMinutes: 30},
		"issuer": {Secret: "secret", ExpirationMinutes: 30},
		"ttl":    {Secret: "secret", Issuer: "storefront"},
	} {
		_, err := NewSigner(cfg)
		assert.Error(t, err, name)
	}
}

func TestMintAndVerify(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	signer := newTestSigner(t).WithClock(func() time.Time { return now })
	userID := uuid.New()

	token, err := signer.Mint(AccessTokenPayload{
		UserID:      userID,
		Permissions: []string{PermissionDiscountsView, " "},
	})
	require.NoError(t, err)

	claims, err := signer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, []string{PermissionDiscountsView}, claims.Permissions)
	assert.Equal(t, "storefront", claims.Issuer)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.NotEmpty(t, claims.ID)
	assert.True(t, claims.ExpiresAt.Time.Equal(now.Add(30*time.Minute)))
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	signer := newTestSigner(t)
	token, err := signer.Mint(AccessTokenPayload{UserID: uuid.New()})
	require.NoError(t, err)

	_, err = signer.Verify(token + "x")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyRejectsOtherIssuer(t *testing.T) {
	token, err := newTestSigner(t).Mint(AccessTokenPayload{UserID: uuid.New()})
	require.NoError(t, err)

	other, err := NewSigner(config.JWTConfig{Secret: "secret", Issuer: "someone-else", ExpirationMinutes: 30})
	require.NoError(t, err)
	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyReportsExpiry(t *testing.T) {
	signer := newTestSigner(t)
	past := signer.WithClock(func() time.Time { return time.Now().Add(-time.Hour) })
	token, err := past.Mint(AccessTokenPayload{UserID: uuid.New()})
	require.NoError(t, err)

	_, err = signer.Verify(token)
	assert.True(t, errors.Is(err, ErrTokenExpired), "got %v", err)
}

func TestMintRequiresUser(t *testing.T) {
	_, err := newTestSigner(t).Mint(AccessTokenPayload{})
	assert.Error(t, err)
}

func TestBearerToken(t *testing.T) {
	cases := map[string]struct {
		header string
		want   string
		ok     bool
	}{
		"bearer":      {header: "Bearer abc", want: "abc", ok: true},
		"lowercase":   {header: "bearer  abc ", want: "abc", ok: true},
		"bare token":  {header: "abc", want: "abc", ok: true},
		"empty":       {header: "  ", ok: false},
		"scheme only": {header: "Bearer ", ok: false},
	}
	for name, tc := range cases {
		got, ok := BearerToken(tc.header)
		assert.Equal(t, tc.ok, ok, name)
		assert.Equal(t, tc.want, got, name)
	}
}

func TestHasPermission(t *testing.T) {
	viewer := &AccessTokenClaims{Permissions: []string{PermissionDiscountsView}}
	manager := &AccessTokenClaims{Permissions: []string{PermissionDiscountsManage}}

	assert.True(t, viewer.HasPermission(PermissionDiscountsView))
	assert.False(t, viewer.HasPermission(PermissionDiscountsManage))
	assert.True(t, manager.HasPermission(PermissionDiscountsView), "manage implies view")

	var missing *AccessTokenClaims
	assert.False(t, missing.HasPermission(PermissionDiscountsView))
}
