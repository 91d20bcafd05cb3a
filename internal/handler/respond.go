package handler

import (
	"context"
	"database/sql"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/DentistProject66/backend-dentist/internal/repository"
)

// dbTimeout bounds every repository call made from a handler.
const dbTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// envelope is the uniform response shape of every endpoint.
type envelope struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	Pagination *pageMeta   `json:"pagination,omitempty"`
}

type pageMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"pages"`
}

func respondData(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, envelope{Success: true, Data: data})
}

func respondMessage(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, envelope{Success: true, Message: message, Data: data})
}

func respondPage(c echo.Context, data interface{}, page, limit, total int) error {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return c.JSON(http.StatusOK, envelope{
		Success:    true,
		Data:       data,
		Pagination: &pageMeta{Page: page, Limit: limit, Total: total, TotalPages: pages},
	})
}

func respondError(c echo.Context, status int, message string) error {
	return c.JSON(status, envelope{Success: false, Message: message})
}

// respondErrorDetail includes the underlying error text; callers
// pass it only outside production.
func respondErrorDetail(c echo.Context, status int, message string, err error, dev bool) error {
	env := envelope{Success: false, Message: message}
	if dev && err != nil {
		env.Error = err.Error()
	}
	return c.JSON(status, env)
}

// repoError translates repository sentinels and sql.ErrNoRows into
// the response taxonomy. Unrecognized errors become a generic 500;
// dev controls whether their detail leaks into the body.
func repoError(c echo.Context, err error, dev bool) error {
	switch err {
	case sql.ErrNoRows:
		return respondError(c, http.StatusNotFound, "resource not found")
	case repository.ErrForbidden:
		// Out-of-scope rows are indistinguishable from absent ones so
		// callers cannot probe another practice's ids.
		return respondError(c, http.StatusNotFound, "resource not found")
	case repository.ErrNotAssigned:
		return respondError(c, http.StatusForbidden, "no dentist assigned to this account yet")
	case repository.ErrEmailExists:
		return respondError(c, http.StatusBadRequest, "email is already registered")
	case repository.ErrPhoneExists:
		return respondError(c, http.StatusBadRequest, "a patient with this phone number already exists")
	case repository.ErrSlotTaken:
		return respondError(c, http.StatusConflict, "this time slot is already booked")
	case repository.ErrBalanceExceeded:
		return respondError(c, http.StatusBadRequest, "payment exceeds the remaining balance")
	case repository.ErrConflict:
		return respondError(c, http.StatusConflict, "the operation conflicts with existing data")
	case repository.ErrCorruptArchive:
		return respondError(c, http.StatusBadRequest, "archived data is malformed")
	}
	return respondErrorDetail(c, http.StatusInternalServerError, "internal server error", err, dev)
}

// pagination clamps page/limit query parameters to sane bounds.
func pagination(c echo.Context) (page, limit, offset int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit, (page - 1) * limit
}

func pathID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

func validDate(s string) bool { return dateRe.MatchString(s) }
