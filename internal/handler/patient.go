package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/DentistProject66/backend-dentist/internal/config"
	"github.com/DentistProject66/backend-dentist/internal/middleware"
	"github.com/DentistProject66/backend-dentist/internal/model"
	"github.com/DentistProject66/backend-dentist/internal/repository"
)

// PatientHandler serves the patient CRUD and archival endpoints.
type PatientHandler struct {
	Cfg      config.Config
	Patients *repository.PatientRepo
}

func NewPatientHandler(cfg config.Config, p *repository.PatientRepo) *PatientHandler {
	return &PatientHandler{Cfg: cfg, Patients: p}
}

func isAssistant(c echo.Context) bool {
	role, _ := c.Get(middleware.CtxRole).(string)
	return role == model.RoleAssistant
}

// List returns the scoped patients with their latest consultation
// summary. Money fields are stripped for assistants.
func (h *PatientHandler) List(c echo.Context) error {
	dentistID := middleware.ScopeDentistID(c)
	page, limit, offset := pagination(c)

	f := repository.PatientFilter{
		Search:   c.QueryParam("search"),
		Archived: c.QueryParam("archived") == "true",
		Limit:    limit,
		Offset:   offset,
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	rows, total, err := h.Patients.List(ctx, dentistID, f)
	if err != nil {
		return repoError(c, err, h.Cfg.Dev())
	}
	if isAssistant(c) {
		for i := range rows {
			rows[i].TotalPrice = nil
			rows[i].AmountPaid = nil
			rows[i].RemainingBalance = nil
			rows[i].PaymentStatus = nil
		}
	}
	return respondPage(c, rows, page, limit, total)
}

// Get returns one patient with their full history. Assistants do
// not receive the payments collection.
func (h *PatientHandler) Get(c echo.Context) error {
	dentistID := middleware.ScopeDentistID(c)
	id, err := pathID(c)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid patient id")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	d, err := h.Patients.Detail(ctx, dentistID, id)
	if err != nil {
		return repoError(c, err, h.Cfg.Dev())
	}
	if isAssistant(c) {
		d.Payments = nil
	}
	return respondData(c, http.StatusOK, d)
}

type patientReq struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Phone     *string `json:"phone"`
}

func (r patientReq) validate() string {
	if strings.TrimSpace(r.FirstName) == "" || strings.TrimSpace(r.LastName) == "" {
		return "first_name and last_name are required"
	}
	return ""
}

// Create registers a patient in the practice.
func (h *PatientHandler) Create(c echo.Context) error {
	dentistID := middleware.ScopeDentistID(c)
	u, _ := middleware.CurrentUser(c)

	var req patientReq
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}
	if msg := req.validate(); msg != "" {
		return respondError(c, http.StatusBadRequest, msg)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	p, err := h.Patients.Create(ctx, dentistID, u.ID, req.FirstName, req.LastName, req.Phone)
	if err != nil {
		return repoError(c, err, h.Cfg.Dev())
	}
	return respondMessage(c, http.StatusCreated, "patient created", p)
}

// Update edits a patient's demographic fields.
func (h *PatientHandler) Update(c echo.Context) error {
	dentistID := middleware.ScopeDentistID(c)
	id, err := pathID(c)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid patient id")
	}

	var req patientReq
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}
	if msg := req.validate(); msg != "" {
		return respondError(c, http.StatusBadRequest, msg)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	p, err := h.Patients.Update(ctx, dentistID, id, req.FirstName, req.LastName, req.Phone)
	if err != nil {
		return repoError(c, err, h.Cfg.Dev())
	}
	return respondMessage(c, http.StatusOK, "patient updated", p)
}

// Archive soft-deletes a patient and snapshots their history.
func (h *PatientHandler) Archive(c echo.Context) error {
	dentistID := middleware.ScopeDentistID(c)
	u, _ := middleware.CurrentUser(c)
	id, err := pathID(c)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid patient id")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Patients.Archive(ctx, dentistID, id, u.ID); err != nil {
		if err == repository.ErrConflict {
			return respondError(c, http.StatusConflict, "patient is already archived")
		}
		return repoError(c, err, h.Cfg.Dev())
	}
	return respondMessage(c, http.StatusOK, "patient archived", nil)
}

// Restore clears a patient's archive flag.
func (h *PatientHandler) Restore(c echo.Context) error {
	dentistID := middleware.ScopeDentistID(c)
	id, err := pathID(c)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid patient id")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	p, err := h.Patients.GetByID(ctx, dentistID, id)
	if err != nil {
		return repoError(c, err, h.Cfg.Dev())
	}
	if !p.IsArchived {
		return respondError(c, http.StatusConflict, "patient is not archived")
	}
	if err := h.Patients.Unarchive(ctx, h.Patients.DB(), id); err != nil {
		return repoError(c, err, h.Cfg.Dev())
	}
	return respondMessage(c, http.StatusOK, "patient restored", nil)
}
