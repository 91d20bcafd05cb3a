package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/DentistProject66/backend-dentist/internal/model"
)

// RequireRole limits a route group to the given roles. It assumes
// JWTAuth already placed the role in the context.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(CtxRole).(string)
			if !ok || !allowed[role] {
				return c.JSON(http.StatusForbidden, echo.Map{
					"success": false, "message": "access denied for this role",
				})
			}
			return next(c)
		}
	}
}

// BlockAssistants guards payment-amount-bearing endpoints.
// Assistants keep full access to the rest of the practice data but
// never see or mutate money records.
func BlockAssistants() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if role, _ := c.Get(CtxRole).(string); role == model.RoleAssistant {
				return c.JSON(http.StatusForbidden, echo.Map{
					"success": false, "message": "assistants cannot access payment information",
				})
			}
			return next(c)
		}
	}
}
