package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/DentistProject66/backend-dentist/internal/model"
	"github.com/DentistProject66/backend-dentist/internal/repository"
)

// PracticeScope resolves which dentist's data the request may
// touch and stores it under CtxDentistID, once per request.
// Dentists operate on their own practice; assistants operate on
// their assigned dentist's practice and get 403 while unassigned.
// Every handler behind this middleware filters by the resolved id
// and nothing else.
func PracticeScope(assignments *repository.AssignmentRepo) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, ok := CurrentUser(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"success": false, "message": "authentication required",
				})
			}
			switch u.Role {
			case model.RoleDentist:
				c.Set(CtxDentistID, u.ID)
			case model.RoleAssistant:
				dentistID, err := assignments.DentistFor(c.Request().Context(), u.ID)
				if err == repository.ErrNotAssigned {
					return c.JSON(http.StatusForbidden, echo.Map{
						"success": false, "message": "no dentist assigned to this account yet",
					})
				}
				if err != nil {
					return c.JSON(http.StatusInternalServerError, echo.Map{
						"success": false, "message": "could not resolve practice scope",
					})
				}
				c.Set(CtxDentistID, dentistID)
			default:
				return c.JSON(http.StatusForbidden, echo.Map{
					"success": false, "message": "practice data requires a dentist or assistant account",
				})
			}
			return next(c)
		}
	}
}

// ScopeDentistID returns the practice scope resolved by
// PracticeScope.
func ScopeDentistID(c echo.Context) uint64 {
	id, _ := c.Get(CtxDentistID).(uint64)
	return id
}
