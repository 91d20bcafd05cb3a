package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/DentistProject66/backend-dentist/internal/config"
	"github.com/DentistProject66/backend-dentist/internal/middleware"
	"github.com/DentistProject66/backend-dentist/internal/repository"
)

// ArchiveHandler serves the archive browser, restore and purge
// endpoints.
type ArchiveHandler struct {
	Cfg      config.Config
	Archives *repository.ArchiveRepo
}

func NewArchiveHandler(cfg config.Config, a *repository.ArchiveRepo) *ArchiveHandler {
	return &ArchiveHandler{Cfg: cfg, Archives: a}
}

// List returns the scoped archive entries with snapshot filters.
func (h *ArchiveHandler) List(c echo.Context) error {
	dentistID := middleware.ScopeDentistID(c)
	page, limit, offset := pagination(c)

	f := repository.ArchiveFilter{
		OriginalTable: c.QueryParam("original_table"),
		ArchiveType:   c.QueryParam("archive_type"),
		DateFrom:      c.QueryParam("date_from"),
		DateTo:        c.QueryParam("date_to"),
		Search:        c.QueryParam("search"),
		Treatment:     c.QueryParam("treatment"),
		Limit:         limit,
		Offset:        offset,
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	rows, total, err := h.Archives.List(ctx, dentistID, f)
	if err != nil {
		return repoError(c, err, h.Cfg.Dev())
	}
	return respondPage(c, rows, page, limit, total)
}

// Get returns one archive entry with its snapshot payload.
func (h *ArchiveHandler) Get(c echo.Context) error {
	dentistID := middleware.ScopeDentistID(c)
	id, err := pathID(c)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid archive id")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	a, err := h.Archives.GetByID(ctx, dentistID, id)
	if err != nil {
		return repoError(c, err, h.Cfg.Dev())
	}
	return respondData(c, http.StatusOK, a)
}

// Restore rebuilds the archived entity and consumes the entry.
func (h *ArchiveHandler) Restore(c echo.Context) error {
	dentistID := middleware.ScopeDentistID(c)
	id, err := pathID(c)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid archive id")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Archives.Restore(ctx, dentistID, id); err != nil {
		return repoError(c, err, h.Cfg.Dev())
	}
	return respondMessage(c, http.StatusOK, "archive restored", nil)
}

// Delete purges an archive entry permanently.
func (h *ArchiveHandler) Delete(c echo.Context) error {
	dentistID := middleware.ScopeDentistID(c)
	id, err := pathID(c)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid archive id")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Archives.Delete(ctx, dentistID, id); err != nil {
		return repoError(c, err, h.Cfg.Dev())
	}
	return respondMessage(c, http.StatusOK, "archive permanently deleted", nil)
}
