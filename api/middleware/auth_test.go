package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-promotions/pkg/auth"
	"github.com/angelmondragon/storefront-promotions/pkg/config"
)

var testSigner = mustSigner(config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60})

func mustSigner(cfg config.JWTConfig) *auth.Signer {
	signer, err := auth.NewSigner(cfg)
	if err != nil {
		panic(err)
	}
	return signer
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func mintTestToken(t *testing.T, userID uuid.UUID, permissions ...string) string {
	t.Helper()
	token, err := testSigner.Mint(auth.AccessTokenPayload{
		UserID:      userID,
		Permissions: permissions,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestAuthRejectsMissingToken(t *testing.T) {
	handler := Auth(testSigner, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	handler := Auth(testSigner, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthReportsExpiredToken(t *testing.T) {
	stale := testSigner.WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })
	token, err := stale.Mint(auth.AccessTokenPayload{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	Auth(testSigner, nil)(okHandler()).ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "token expired") {
		t.Fatalf("expected expiry message, got %s", resp.Body.String())
	}
}

func TestAuthAllowsValidToken(t *testing.T) {
	userID := uuid.New()
	token := mintTestToken(t, userID, auth.PermissionDiscountsView)

	var captured string
	var claims *auth.AccessTokenClaims
	handler := Auth(testSigner, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = UserIDFromContext(r.Context())
		claims = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if captured != userID.String() {
		t.Fatalf("expected user %s got %s", userID, captured)
	}
	if claims == nil || !claims.HasPermission(auth.PermissionDiscountsView) {
		t.Fatal("expected claims with view permission in context")
	}
}

func TestRequirePermission(t *testing.T) {
	userID := uuid.New()
	cases := []struct {
		name  string
		token string
		want  int
	}{
		{name: "anonymous", want: http.StatusUnauthorized},
		{name: "viewer", token: mintTestToken(t, userID, auth.PermissionDiscountsView), want: http.StatusForbidden},
		{name: "manager", token: mintTestToken(t, userID, auth.PermissionDiscountsManage), want: http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := RequirePermission(auth.PermissionDiscountsManage, nil)(okHandler())
			if tc.token != "" {
				handler = Auth(testSigner, nil)(handler)
			}

			req := httptest.NewRequest(http.MethodDelete, "/", nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			resp := httptest.NewRecorder()
			handler.ServeHTTP(resp, req)
			if resp.Code != tc.want {
				t.Fatalf("expected %d got %d", tc.want, resp.Code)
			}
		})
	}
}
