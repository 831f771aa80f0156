package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	PermissionDiscountsView   = "discounts.view"
	PermissionDiscountsManage = "discounts.manage"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID      uuid.UUID
	Permissions []string
	JTI         string
}

// AccessTokenClaims represents the typed JWT presented by admin clients.
type AccessTokenClaims struct {
	UserID      uuid.UUID `json:"user_id"`
	Permissions []string  `json:"permissions"`
	jwt.RegisteredClaims
}

// HasPermission reports whether the token grants perm. discounts.manage implies
// discounts.view.
func (c *AccessTokenClaims) HasPermission(perm string) bool {
	if c == nil {
		return false
	}
	for _, granted := range c.Permissions {
		if granted == perm {
			return true
		}
		if perm == PermissionDiscountsView && granted == PermissionDiscountsManage {
			return true
		}
	}
	return false
}
