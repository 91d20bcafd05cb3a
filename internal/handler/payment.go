package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/DentistProject66/backend-dentist/internal/config"
	"github.com/DentistProject66/backend-dentist/internal/middleware"
	"github.com/DentistProject66/backend-dentist/internal/repository"
)

// PaymentHandler serves the money endpoints. The whole group sits
// behind the assistant block, so every caller here is a dentist.
type PaymentHandler struct {
	Cfg      config.Config
	Payments *repository.PaymentRepo
}

func NewPaymentHandler(cfg config.Config, p *repository.PaymentRepo) *PaymentHandler {
	return &PaymentHandler{Cfg: cfg, Payments: p}
}

// List returns the scoped payments with aggregate totals.
func (h *PaymentHandler) List(c echo.Context) error {
	dentistID := middleware.ScopeDentistID(c)
	page, limit, offset := pagination(c)

	patientID, _ := strconv.ParseUint(c.QueryParam("patient_id"), 10, 64)
	f := repository.PaymentFilter{
		DateFrom:  c.QueryParam("date_from"),
		DateTo:    c.QueryParam("date_to"),
		PatientID: patientID,
		Method:    c.QueryParam("method"),
		Search:    c.QueryParam("search"),
		Limit:     limit,
		Offset:    offset,
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	rows, total, totals, err := h.Payments.List(ctx, dentistID, f)
	if err != nil {
		return repoError(c, err, h.Cfg.Dev())
	}
	return c.JSON(http.StatusOK, envelope{
		Success: true,
		Data:    echo.Map{"payments": rows, "summary": totals},
		Pagination: &pageMeta{
			Page: page, Limit: limit, Total: total,
			TotalPages: (total + limit - 1) / limit,
		},
	})
}

// Get returns one payment.
func (h *PaymentHandler) Get(c echo.Context) error {
	dentistID := middleware.ScopeDentistID(c)
	id, err := pathID(c)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid payment id")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	p, err := h.Payments.GetByID(ctx, dentistID, id)
	if err != nil {
		return repoError(c, err, h.Cfg.Dev())
	}
	return respondData(c, http.StatusOK, p)
}

type paymentCreateReq struct {
	ConsultationID uint64  `json:"consultation_id"`
	PaymentDate    string  `json:"payment_date"`
	AmountPaid     float64 `json:"amount_paid"`
	PaymentMethod  string  `json:"payment_method"`
}

// Create records a payment against a consultation's balance.
func (h *PaymentHandler) Create(c echo.Context) error {
	dentistID := middleware.ScopeDentistID(c)
	u, _ := middleware.CurrentUser(c)

	var req paymentCreateReq
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}
	if req.ConsultationID == 0 {
		return respondError(c, http.StatusBadRequest, "consultation_id is required")
	}
	if req.AmountPaid <= 0 {
		return respondError(c, http.StatusBadRequest, "amount_paid must be positive")
	}
	if req.PaymentDate == "" {
		req.PaymentDate = time.Now().Format("2006-01-02")
	}
	if !validDate(req.PaymentDate) {
		return respondError(c, http.StatusBadRequest, "payment_date must be YYYY-MM-DD")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	p, err := h.Payments.Create(ctx, dentistID, u.ID, req.ConsultationID,
		req.PaymentDate, req.AmountPaid, req.PaymentMethod)
	if err != nil {
		return repoError(c, err, h.Cfg.Dev())
	}
	return respondMessage(c, http.StatusCreated, "payment recorded", p)
}

type paymentUpdateReq struct {
	PaymentDate   *string `json:"payment_date"`
	PaymentMethod *string `json:"payment_method"`
}

// Update edits a payment's date or method; the amount is fixed.
func (h *PaymentHandler) Update(c echo.Context) error {
	dentistID := middleware.ScopeDentistID(c)
	id, err := pathID(c)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid payment id")
	}

	var req paymentUpdateReq
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}
	if req.PaymentDate != nil && !validDate(*req.PaymentDate) {
		return respondError(c, http.StatusBadRequest, "payment_date must be YYYY-MM-DD")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	p, err := h.Payments.Update(ctx, dentistID, id, req.PaymentDate, req.PaymentMethod)
	if err != nil {
		return repoError(c, err, h.Cfg.Dev())
	}
	return respondMessage(c, http.StatusOK, "payment updated", p)
}

// Delete removes a payment and restores the consultation balance.
func (h *PaymentHandler) Delete(c echo.Context) error {
	dentistID := middleware.ScopeDentistID(c)
	id, err := pathID(c)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid payment id")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Payments.Delete(ctx, dentistID, id); err != nil {
		return repoError(c, err, h.Cfg.Dev())
	}
	return respondMessage(c, http.StatusOK, "payment deleted", nil)
}

// Reports serves the financial report. Explicit date_from/date_to
// win; otherwise the period preset picks the window.
func (h *PaymentHandler) Reports(c echo.Context) error {
	dentistID := middleware.ScopeDentistID(c)

	from, to := c.QueryParam("date_from"), c.QueryParam("date_to")
	if from == "" || to == "" {
		from, to = periodRange(c.QueryParam("period"), time.Now())
	}
	if !validDate(from) || !validDate(to) {
		return respondError(c, http.StatusBadRequest, "dates must be YYYY-MM-DD")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	rep, err := h.Payments.Report(ctx, dentistID, from, to)
	if err != nil {
		return repoError(c, err, h.Cfg.Dev())
	}
	return respondData(c, http.StatusOK, rep)
}

// periodRange maps a preset to an inclusive date window ending
// today.
func periodRange(period string, now time.Time) (string, string) {
	to := now.Format("2006-01-02")
	switch period {
	case "today":
		return to, to
	case "week":
		return now.AddDate(0, 0, -7).Format("2006-01-02"), to
	case "year":
		return now.AddDate(-1, 0, 0).Format("2006-01-02"), to
	default: // month
		return now.AddDate(0, -1, 0).Format("2006-01-02"), to
	}
}

// Receipt returns the printable receipt payload for a payment.
func (h *PaymentHandler) Receipt(c echo.Context) error {
	dentistID := middleware.ScopeDentistID(c)
	id, err := pathID(c)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid payment id")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	rc, err := h.Payments.ReceiptData(ctx, dentistID, id)
	if err != nil {
		return repoError(c, err, h.Cfg.Dev())
	}
	return respondData(c, http.StatusOK, rc)
}
