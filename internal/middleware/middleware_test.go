package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/DentistProject66/backend-dentist/internal/model"
	"github.com/DentistProject66/backend-dentist/internal/utils"
)

func newTestContext(t *testing.T) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func okHandler(c echo.Context) error { return c.String(http.StatusOK, "ok") }

func TestRequireRoleAllows(t *testing.T) {
	c, rec := newTestContext(t)
	c.Set(CtxRole, model.RoleDentist)

	h := RequireRole(model.RoleDentist, model.RoleAssistant)(okHandler)
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestRequireRoleRejects(t *testing.T) {
	cases := []struct {
		name string
		role interface{}
	}{
		{"wrong role", model.RoleAssistant},
		{"missing role", nil},
		{"non-string role", 42},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newTestContext(t)
			if tc.role != nil {
				c.Set(CtxRole, tc.role)
			}
			h := RequireRole(model.RoleSuperAdmin)(okHandler)
			if err := h(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Code != http.StatusForbidden {
				t.Errorf("status = %d, want 403", rec.Code)
			}
			var body map[string]interface{}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("response is not JSON: %v", err)
			}
			if body["success"] != false {
				t.Errorf("success = %v, want false", body["success"])
			}
		})
	}
}

func TestBlockAssistants(t *testing.T) {
	c, rec := newTestContext(t)
	c.Set(CtxRole, model.RoleAssistant)
	if err := BlockAssistants()(okHandler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("assistant not blocked, status = %d", rec.Code)
	}

	c, rec = newTestContext(t)
	c.Set(CtxRole, model.RoleDentist)
	if err := BlockAssistants()(okHandler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("dentist blocked, status = %d", rec.Code)
	}
}

type stubAccounts struct {
	user model.User
	err  error
}

func (s stubAccounts) GetByID(context.Context, uint64) (model.User, error) {
	return s.user, s.err
}

func bearerContext(t *testing.T, secret string, userID uint64, role string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, userID, role, 5)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestJWTAuthApproved(t *testing.T) {
	const secret = "test-secret"
	c, rec := bearerContext(t, secret, 7, model.RoleDentist)
	users := stubAccounts{user: model.User{ID: 7, Role: model.RoleDentist, Status: model.StatusApproved}}

	h := JWTAuth(secret, users)(func(c echo.Context) error {
		u, ok := CurrentUser(c)
		if !ok || u.ID != 7 {
			t.Errorf("context user = %+v, ok = %v", u, ok)
		}
		return c.String(http.StatusOK, "ok")
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestJWTAuthUnapprovedAccount(t *testing.T) {
	const secret = "test-secret"
	for _, status := range []string{model.StatusPending, model.StatusRejected} {
		t.Run(status, func(t *testing.T) {
			c, rec := bearerContext(t, secret, 7, model.RoleDentist)
			users := stubAccounts{user: model.User{ID: 7, Role: model.RoleDentist, Status: status}}

			if err := JWTAuth(secret, users)(okHandler)(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestJWTAuthRejectsBadToken(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := JWTAuth("test-secret", stubAccounts{})(okHandler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequestIDGeneratesNew(t *testing.T) {
	c, rec := newTestContext(t)
	h := RequestID()(func(c echo.Context) error {
		if rid, _ := c.Get("request_id").(string); rid == "" {
			t.Error("request_id missing from context")
		}
		return c.String(http.StatusOK, "ok")
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Header().Get(HeaderRequestID) == "" {
		t.Error("X-Request-ID response header missing")
	}
}

func TestRequestIDPreservesExisting(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "trace-123")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := RequestID()(okHandler)
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := rec.Header().Get(HeaderRequestID); got != "trace-123" {
		t.Errorf("X-Request-ID = %q, want trace-123", got)
	}
}

func TestPracticeScopeDentist(t *testing.T) {
	c, _ := newTestContext(t)
	u := model.User{ID: 9, Role: model.RoleDentist, Status: model.StatusApproved}
	c.Set(CtxUser, u)
	c.Set(CtxRole, u.Role)

	h := PracticeScope(nil)(func(c echo.Context) error {
		if got := ScopeDentistID(c); got != 9 {
			t.Errorf("scope = %d, want 9", got)
		}
		return c.String(http.StatusOK, "ok")
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPracticeScopeRejectsSuperAdmin(t *testing.T) {
	c, rec := newTestContext(t)
	u := model.User{ID: 1, Role: model.RoleSuperAdmin, Status: model.StatusApproved}
	c.Set(CtxUser, u)
	c.Set(CtxRole, u.Role)

	if err := PracticeScope(nil)(okHandler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestPracticeScopeRequiresUser(t *testing.T) {
	c, rec := newTestContext(t)
	if err := PracticeScope(nil)(okHandler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
