package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/DentistProject66/backend-dentist/internal/repository"
)

func paginationContext(t *testing.T, query string) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestPaginationDefaults(t *testing.T) {
	page, limit, offset := pagination(paginationContext(t, ""))
	if page != 1 || limit != 10 || offset != 0 {
		t.Errorf("defaults = (%d, %d, %d), want (1, 10, 0)", page, limit, offset)
	}
}

func TestPaginationClamps(t *testing.T) {
	cases := []struct {
		query               string
		page, limit, offset int
	}{
		{"page=3&limit=20", 3, 20, 40},
		{"page=0&limit=0", 1, 10, 0},
		{"page=-5&limit=-1", 1, 10, 0},
		{"page=2&limit=500", 2, 100, 100},
		{"page=abc&limit=xyz", 1, 10, 0},
	}
	for _, c := range cases {
		page, limit, offset := pagination(paginationContext(t, c.query))
		if page != c.page || limit != c.limit || offset != c.offset {
			t.Errorf("pagination(%q) = (%d, %d, %d), want (%d, %d, %d)",
				c.query, page, limit, offset, c.page, c.limit, c.offset)
		}
	}
}

func TestValidDate(t *testing.T) {
	cases := map[string]bool{
		"2026-08-30": true,
		"1999-01-01": true,
		"2026-8-30":  false,
		"30-08-2026": false,
		"2026/08/30": false,
		"":           false,
		"2026-08-30T10:00:00Z": false,
	}
	for in, want := range cases {
		if got := validDate(in); got != want {
			t.Errorf("validDate(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestPeriodRange(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		period, from, to string
	}{
		{"today", "2026-08-30", "2026-08-30"},
		{"week", "2026-08-23", "2026-08-30"},
		{"month", "2026-07-30", "2026-08-30"},
		{"year", "2025-08-30", "2026-08-30"},
		{"", "2026-07-30", "2026-08-30"},
	}
	for _, c := range cases {
		from, to := periodRange(c.period, now)
		if from != c.from || to != c.to {
			t.Errorf("periodRange(%q) = (%s, %s), want (%s, %s)", c.period, from, to, c.from, c.to)
		}
	}
}

func TestRespondPageShape(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := respondPage(c, []int{1, 2, 3}, 2, 10, 25); err != nil {
		t.Fatalf("respondPage: %v", err)
	}
	body := rec.Body.String()
	for _, want := range []string{`"success":true`, `"page":2`, `"limit":10`, `"total":25`, `"pages":3`} {
		if !strings.Contains(body, want) {
			t.Errorf("response %s missing %s", body, want)
		}
	}
	if strings.Contains(body, `"total_pages"`) {
		t.Errorf("response %s uses total_pages, want pages", body)
	}
}

func TestRepoErrorStatuses(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"absent row", sql.ErrNoRows, http.StatusNotFound},
		{"out-of-scope row", repository.ErrForbidden, http.StatusNotFound},
		{"unassigned assistant", repository.ErrNotAssigned, http.StatusForbidden},
		{"slot collision", repository.ErrSlotTaken, http.StatusConflict},
		{"restore collision", repository.ErrConflict, http.StatusConflict},
		{"overpayment", repository.ErrBalanceExceeded, http.StatusBadRequest},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
			if err := repoError(c, tc.err, false); err != nil {
				t.Fatalf("repoError: %v", err)
			}
			if rec.Code != tc.status {
				t.Errorf("status = %d, want %d", rec.Code, tc.status)
			}
		})
	}
}
