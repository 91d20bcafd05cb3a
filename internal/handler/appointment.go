package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/DentistProject66/backend-dentist/internal/config"
	"github.com/DentistProject66/backend-dentist/internal/middleware"
	"github.com/DentistProject66/backend-dentist/internal/model"
	"github.com/DentistProject66/backend-dentist/internal/queue"
	"github.com/DentistProject66/backend-dentist/internal/repository"
	queue_publisher "github.com/DentistProject66/backend-dentist/internal/service"
	"github.com/DentistProject66/backend-dentist/internal/utils"
)

// AppointmentHandler serves the scheduling endpoints.
type AppointmentHandler struct {
	Cfg          config.Config
	Appointments *repository.AppointmentRepo
	Publisher    *queue_publisher.Publisher
	Log          zerolog.Logger
}

func NewAppointmentHandler(cfg config.Config, r *repository.AppointmentRepo, pub *queue_publisher.Publisher, log zerolog.Logger) *AppointmentHandler {
	return &AppointmentHandler{Cfg: cfg, Appointments: r, Publisher: pub, Log: log}
}

// List returns the scoped appointments with optional filters.
func (h *AppointmentHandler) List(c echo.Context) error {
	dentistID := middleware.ScopeDentistID(c)
	page, limit, offset := pagination(c)

	patientID, _ := strconv.ParseUint(c.QueryParam("patient_id"), 10, 64)
	f := repository.AppointmentFilter{
		Date:      c.QueryParam("date"),
		Status:    c.QueryParam("status"),
		PatientID: patientID,
		Search:    c.QueryParam("search"),
		Limit:     limit,
		Offset:    offset,
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	rows, total, err := h.Appointments.List(ctx, dentistID, f)
	if err != nil {
		return repoError(c, err, h.Cfg.Dev())
	}
	return respondPage(c, rows, page, limit, total)
}

// ByDate returns a day's calendar.
func (h *AppointmentHandler) ByDate(c echo.Context) error {
	dentistID := middleware.ScopeDentistID(c)
	date := c.Param("date")
	if !validDate(date) {
		return respondError(c, http.StatusBadRequest, "date must be YYYY-MM-DD")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	rows, err := h.Appointments.ByDate(ctx, dentistID, date)
	if err != nil {
		return repoError(c, err, h.Cfg.Dev())
	}
	return respondData(c, http.StatusOK, rows)
}

// Get returns one appointment.
func (h *AppointmentHandler) Get(c echo.Context) error {
	dentistID := middleware.ScopeDentistID(c)
	id, err := pathID(c)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid appointment id")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	a, err := h.Appointments.GetByID(ctx, dentistID, id)
	if err != nil {
		return repoError(c, err, h.Cfg.Dev())
	}
	return respondData(c, http.StatusOK, a)
}

type appointmentCreateReq struct {
	PatientID       uint64  `json:"patient_id"`
	ConsultationID  *uint64 `json:"consultation_id"`
	AppointmentDate string  `json:"appointment_date"`
	AppointmentTime string  `json:"appointment_time"`
	TreatmentType   *string `json:"treatment_type"`
	Status          string  `json:"status"`
	Notes           *string `json:"notes"`
}

// Create books a slot for an existing patient and publishes the
// booked event after commit.
func (h *AppointmentHandler) Create(c echo.Context) error {
	dentistID := middleware.ScopeDentistID(c)
	u, _ := middleware.CurrentUser(c)

	var req appointmentCreateReq
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}
	if req.PatientID == 0 {
		return respondError(c, http.StatusBadRequest, "patient_id is required")
	}
	if !validDate(req.AppointmentDate) {
		return respondError(c, http.StatusBadRequest, "appointment_date must be YYYY-MM-DD")
	}
	if !utils.ValidTime(req.AppointmentTime) {
		return respondError(c, http.StatusBadRequest, "appointment_time must be HH:MM")
	}
	if req.Status != "" && req.Status != model.AppointmentPending && req.Status != model.AppointmentConfirmed {
		return respondError(c, http.StatusBadRequest, "status must be pending or confirmed")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	a, err := h.Appointments.Create(ctx, dentistID, u.ID, repository.AppointmentInput{
		PatientID:       req.PatientID,
		ConsultationID:  req.ConsultationID,
		AppointmentDate: req.AppointmentDate,
		AppointmentTime: utils.NormalizeClock(req.AppointmentTime),
		TreatmentType:   req.TreatmentType,
		Status:          req.Status,
		Notes:           req.Notes,
	})
	if err != nil {
		return repoError(c, err, h.Cfg.Dev())
	}

	ev := queue.AppointmentBookedEvent{
		AppointmentID:   a.ID,
		DentistID:       dentistID,
		PatientID:       a.PatientID,
		PatientName:     a.PatientName,
		AppointmentDate: a.AppointmentDate,
		AppointmentTime: a.AppointmentTime,
		Status:          a.Status,
		BookedBy:        u.ID,
		BookedAt:        time.Now().UTC().Format(time.RFC3339),
	}
	if a.TreatmentType != nil {
		ev.TreatmentType = *a.TreatmentType
	}
	_ = h.Publisher.AppointmentBooked(ctx, ev)

	return respondMessage(c, http.StatusCreated, "appointment booked", a)
}

type appointmentUpdateReq struct {
	AppointmentDate *string `json:"appointment_date"`
	AppointmentTime *string `json:"appointment_time"`
	TreatmentType   *string `json:"treatment_type"`
	Status          *string `json:"status"`
	Notes           *string `json:"notes"`
}

// Update reschedules or edits an appointment.
func (h *AppointmentHandler) Update(c echo.Context) error {
	dentistID := middleware.ScopeDentistID(c)
	id, err := pathID(c)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid appointment id")
	}

	var req appointmentUpdateReq
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}
	if req.AppointmentDate != nil && !validDate(*req.AppointmentDate) {
		return respondError(c, http.StatusBadRequest, "appointment_date must be YYYY-MM-DD")
	}
	if req.AppointmentTime != nil {
		if !utils.ValidTime(*req.AppointmentTime) {
			return respondError(c, http.StatusBadRequest, "appointment_time must be HH:MM")
		}
		norm := utils.NormalizeClock(*req.AppointmentTime)
		req.AppointmentTime = &norm
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	a, err := h.Appointments.Update(ctx, dentistID, id, repository.AppointmentUpdate{
		AppointmentDate: req.AppointmentDate,
		AppointmentTime: req.AppointmentTime,
		TreatmentType:   req.TreatmentType,
		Status:          req.Status,
		Notes:           req.Notes,
	})
	if err != nil {
		return repoError(c, err, h.Cfg.Dev())
	}
	return respondMessage(c, http.StatusOK, "appointment updated", a)
}

type cancelReq struct {
	Reason *string `json:"reason"`
}

// Cancel releases a pending or confirmed slot.
func (h *AppointmentHandler) Cancel(c echo.Context) error {
	dentistID := middleware.ScopeDentistID(c)
	u, _ := middleware.CurrentUser(c)
	id, err := pathID(c)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid appointment id")
	}

	var req cancelReq
	_ = c.Bind(&req) // body is optional

	ctx, cancel := reqCtx(c)
	defer cancel()

	a, err := h.Appointments.Cancel(ctx, dentistID, id, u.ID, req.Reason)
	if err != nil {
		if err == repository.ErrConflict {
			return respondError(c, http.StatusConflict, "only pending or confirmed appointments can be cancelled")
		}
		return repoError(c, err, h.Cfg.Dev())
	}
	return respondMessage(c, http.StatusOK, "appointment cancelled", a)
}

// Complete marks a kept appointment as completed.
func (h *AppointmentHandler) Complete(c echo.Context) error {
	dentistID := middleware.ScopeDentistID(c)
	id, err := pathID(c)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid appointment id")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	a, err := h.Appointments.Complete(ctx, dentistID, id)
	if err != nil {
		if err == repository.ErrConflict {
			return respondError(c, http.StatusConflict, "only pending or confirmed appointments can be completed")
		}
		return repoError(c, err, h.Cfg.Dev())
	}
	return respondMessage(c, http.StatusOK, "appointment completed", a)
}

// AvailableSlots returns the free half-hour slots of a day.
func (h *AppointmentHandler) AvailableSlots(c echo.Context) error {
	dentistID := middleware.ScopeDentistID(c)
	date := c.QueryParam("date")
	if !validDate(date) {
		return respondError(c, http.StatusBadRequest, "date must be YYYY-MM-DD")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	booked, err := h.Appointments.BookedTimes(ctx, dentistID, date)
	if err != nil {
		return repoError(c, err, h.Cfg.Dev())
	}
	for i := range booked {
		booked[i] = utils.NormalizeClock(booked[i])
	}
	return respondData(c, http.StatusOK, echo.Map{
		"date":            date,
		"available_slots": utils.AvailableSlots(booked),
		"booked_slots":    booked,
	})
}

// Schedule returns a day's appointments with status statistics.
func (h *AppointmentHandler) Schedule(c echo.Context) error {
	dentistID := middleware.ScopeDentistID(c)
	date := c.QueryParam("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	if !validDate(date) {
		return respondError(c, http.StatusBadRequest, "date must be YYYY-MM-DD")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	rows, err := h.Appointments.ByDate(ctx, dentistID, date)
	if err != nil {
		return repoError(c, err, h.Cfg.Dev())
	}
	stats, err := h.Appointments.DailyStats(ctx, dentistID, date)
	if err != nil {
		return repoError(c, err, h.Cfg.Dev())
	}
	return respondData(c, http.StatusOK, echo.Map{
		"date":         date,
		"appointments": rows,
		"stats":        stats,
	})
}
