package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/DentistProject66/backend-dentist/internal/model"
	"github.com/DentistProject66/backend-dentist/internal/utils"
)

// Context keys set by the auth chain. Handlers read the resolved
// values instead of re-parsing anything.
const (
	CtxUser      = "user"
	CtxUserID    = "user_id"
	CtxRole      = "role"
	CtxDentistID = "dentist_id"
)

// accountSource loads the account behind a token's subject.
// Satisfied by repository.UserRepo.
type accountSource interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// JWTAuth validates the Bearer token, loads the account behind it
// and injects it into the request context. Tokens of deleted or
// no-longer-approved accounts are rejected even when the signature
// is still valid.
func JWTAuth(secret string, users accountSource) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"success": false, "message": "missing bearer token",
				})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			userID, _, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"success": false, "message": "invalid or expired token",
				})
			}

			u, err := users.GetByID(c.Request().Context(), userID)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"success": false, "message": "account not found",
				})
			}
			if u.Status != model.StatusApproved {
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"success": false, "message": "account is not approved",
				})
			}

			c.Set(CtxUser, u)
			c.Set(CtxUserID, u.ID)
			c.Set(CtxRole, u.Role)
			return next(c)
		}
	}
}

// CurrentUser returns the authenticated account placed in the
// context by JWTAuth.
func CurrentUser(c echo.Context) (model.User, bool) {
	u, ok := c.Get(CtxUser).(model.User)
	return u, ok
}
