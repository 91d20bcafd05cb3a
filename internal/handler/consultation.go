package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/DentistProject66/backend-dentist/internal/config"
	"github.com/DentistProject66/backend-dentist/internal/middleware"
	"github.com/DentistProject66/backend-dentist/internal/queue"
	"github.com/DentistProject66/backend-dentist/internal/repository"
	queue_publisher "github.com/DentistProject66/backend-dentist/internal/service"
	"github.com/DentistProject66/backend-dentist/internal/utils"
)

// ConsultationHandler serves the consultation endpoints, including
// the composite creation flow.
type ConsultationHandler struct {
	Cfg           config.Config
	Consultations *repository.ConsultationRepo
	Publisher     *queue_publisher.Publisher
	Log           zerolog.Logger
}

func NewConsultationHandler(cfg config.Config, r *repository.ConsultationRepo, pub *queue_publisher.Publisher, log zerolog.Logger) *ConsultationHandler {
	return &ConsultationHandler{Cfg: cfg, Consultations: r, Publisher: pub, Log: log}
}

// List returns the scoped consultations joined with patient names.
func (h *ConsultationHandler) List(c echo.Context) error {
	dentistID := middleware.ScopeDentistID(c)
	page, limit, offset := pagination(c)

	patientID, _ := strconv.ParseUint(c.QueryParam("patient_id"), 10, 64)
	f := repository.ConsultationFilter{
		Search:    c.QueryParam("search"),
		PatientID: patientID,
		DateFrom:  c.QueryParam("date_from"),
		DateTo:    c.QueryParam("date_to"),
		Limit:     limit,
		Offset:    offset,
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	rows, total, err := h.Consultations.List(ctx, dentistID, f)
	if err != nil {
		return repoError(c, err, h.Cfg.Dev())
	}
	return respondPage(c, rows, page, limit, total)
}

// Get returns one consultation with its follow-up appointment.
func (h *ConsultationHandler) Get(c echo.Context) error {
	dentistID := middleware.ScopeDentistID(c)
	id, err := pathID(c)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid consultation id")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	d, err := h.Consultations.Detail(ctx, dentistID, id)
	if err != nil {
		return repoError(c, err, h.Cfg.Dev())
	}
	return respondData(c, http.StatusOK, d)
}

type consultationCreateReq struct {
	PatientID          uint64  `json:"patient_id"`
	FirstName          string  `json:"first_name"`
	LastName           string  `json:"last_name"`
	Phone              *string `json:"phone"`
	DateOfConsultation string  `json:"date_of_consultation"`
	TypeOfProsthesis   *string `json:"type_of_prosthesis"`
	TotalPrice         float64 `json:"total_price"`
	AmountPaid         float64 `json:"amount_paid"`
	PaymentMethod      string  `json:"payment_method"`
	NeedsFollowup      bool    `json:"needs_followup"`
	FollowupDate       string  `json:"followup_date"`
	FollowupTime       string  `json:"followup_time"`
}

// Create runs the composite transaction: patient, consultation,
// optional initial payment, optional follow-up appointment, all or
// nothing.
func (h *ConsultationHandler) Create(c echo.Context) error {
	dentistID := middleware.ScopeDentistID(c)
	u, _ := middleware.CurrentUser(c)

	var req consultationCreateReq
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}
	if req.PatientID == 0 && (req.FirstName == "" || req.LastName == "") {
		return respondError(c, http.StatusBadRequest, "patient_id or first_name/last_name are required")
	}
	if !validDate(req.DateOfConsultation) {
		return respondError(c, http.StatusBadRequest, "date_of_consultation must be YYYY-MM-DD")
	}
	if req.TotalPrice < 0 || req.AmountPaid < 0 {
		return respondError(c, http.StatusBadRequest, "prices cannot be negative")
	}
	if req.AmountPaid > req.TotalPrice {
		return respondError(c, http.StatusBadRequest, "amount_paid cannot exceed total_price")
	}
	if req.NeedsFollowup {
		if !validDate(req.FollowupDate) {
			return respondError(c, http.StatusBadRequest, "followup_date must be YYYY-MM-DD")
		}
		if !utils.ValidTime(req.FollowupTime) {
			return respondError(c, http.StatusBadRequest, "followup_time must be HH:MM")
		}
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	created, err := h.Consultations.Create(ctx, dentistID, u.ID, repository.ConsultationInput{
		PatientID:          req.PatientID,
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		Phone:              req.Phone,
		DateOfConsultation: req.DateOfConsultation,
		TypeOfProsthesis:   req.TypeOfProsthesis,
		TotalPrice:         req.TotalPrice,
		AmountPaid:         req.AmountPaid,
		PaymentMethod:      req.PaymentMethod,
		NeedsFollowup:      req.NeedsFollowup,
		FollowupDate:       req.FollowupDate,
		FollowupTime:       req.FollowupTime,
	})
	if err != nil {
		return repoError(c, err, h.Cfg.Dev())
	}

	if req.NeedsFollowup {
		if d, err := h.Consultations.Detail(ctx, dentistID, created.ID); err == nil && d.Followup != nil {
			_ = h.Publisher.AppointmentBooked(ctx, queue.AppointmentBookedEvent{
				AppointmentID:   d.Followup.ID,
				DentistID:       dentistID,
				PatientID:       d.Followup.PatientID,
				PatientName:     d.Followup.PatientName,
				AppointmentDate: d.Followup.AppointmentDate,
				AppointmentTime: d.Followup.AppointmentTime,
				TreatmentType:   "Follow-up",
				Status:          d.Followup.Status,
				BookedBy:        u.ID,
				BookedAt:        time.Now().UTC().Format(time.RFC3339),
			})
		}
	}

	return respondMessage(c, http.StatusCreated, "consultation created", created)
}

type consultationUpdateReq struct {
	DateOfConsultation *string  `json:"date_of_consultation"`
	TypeOfProsthesis   *string  `json:"type_of_prosthesis"`
	TotalPrice         *float64 `json:"total_price"`
	AmountPaid         *float64 `json:"amount_paid"`
	NeedsFollowup      *bool    `json:"needs_followup"`
	FollowupDate       string   `json:"followup_date"`
	FollowupTime       string   `json:"followup_time"`
}

// Update applies a partial edit; absent fields keep their value.
func (h *ConsultationHandler) Update(c echo.Context) error {
	dentistID := middleware.ScopeDentistID(c)
	u, _ := middleware.CurrentUser(c)
	id, err := pathID(c)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid consultation id")
	}

	var req consultationUpdateReq
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}
	if req.DateOfConsultation != nil && !validDate(*req.DateOfConsultation) {
		return respondError(c, http.StatusBadRequest, "date_of_consultation must be YYYY-MM-DD")
	}
	if req.TotalPrice != nil && *req.TotalPrice < 0 {
		return respondError(c, http.StatusBadRequest, "total_price cannot be negative")
	}
	if req.AmountPaid != nil && *req.AmountPaid < 0 {
		return respondError(c, http.StatusBadRequest, "amount_paid cannot be negative")
	}
	if req.NeedsFollowup != nil && *req.NeedsFollowup {
		if req.FollowupDate != "" && !validDate(req.FollowupDate) {
			return respondError(c, http.StatusBadRequest, "followup_date must be YYYY-MM-DD")
		}
		if req.FollowupTime != "" && !utils.ValidTime(req.FollowupTime) {
			return respondError(c, http.StatusBadRequest, "followup_time must be HH:MM")
		}
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	updated, err := h.Consultations.Update(ctx, dentistID, u.ID, id, repository.ConsultationUpdate{
		DateOfConsultation: req.DateOfConsultation,
		TypeOfProsthesis:   req.TypeOfProsthesis,
		TotalPrice:         req.TotalPrice,
		AmountPaid:         req.AmountPaid,
		NeedsFollowup:      req.NeedsFollowup,
		FollowupDate:       req.FollowupDate,
		FollowupTime:       req.FollowupTime,
	})
	if err != nil {
		return repoError(c, err, h.Cfg.Dev())
	}
	return respondMessage(c, http.StatusOK, "consultation updated", updated)
}

// Delete archives a consultation's snapshot and hard-deletes its
// rows.
func (h *ConsultationHandler) Delete(c echo.Context) error {
	dentistID := middleware.ScopeDentistID(c)
	u, _ := middleware.CurrentUser(c)
	id, err := pathID(c)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid consultation id")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Consultations.Delete(ctx, dentistID, id, u.ID); err != nil {
		return repoError(c, err, h.Cfg.Dev())
	}
	return respondMessage(c, http.StatusOK, "consultation archived and deleted", nil)
}

// Receipt returns the printable receipt payload.
func (h *ConsultationHandler) Receipt(c echo.Context) error {
	dentistID := middleware.ScopeDentistID(c)
	id, err := pathID(c)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid consultation id")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	rc, err := h.Consultations.ReceiptData(ctx, dentistID, id)
	if err != nil {
		return repoError(c, err, h.Cfg.Dev())
	}
	return respondData(c, http.StatusOK, rc)
}
