package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/DentistProject66/backend-dentist/internal/config"
	"github.com/DentistProject66/backend-dentist/internal/middleware"
	"github.com/DentistProject66/backend-dentist/internal/model"
	"github.com/DentistProject66/backend-dentist/internal/queue"
	"github.com/DentistProject66/backend-dentist/internal/repository"
	queue_publisher "github.com/DentistProject66/backend-dentist/internal/service"
)

// AdminHandler serves the super-admin approval workflow and the
// system dashboard.
type AdminHandler struct {
	Cfg         config.Config
	Users       *repository.UserRepo
	Assignments *repository.AssignmentRepo
	Admin       *repository.AdminRepo
	Publisher   *queue_publisher.Publisher
	Log         zerolog.Logger
}

func NewAdminHandler(cfg config.Config, u *repository.UserRepo, a *repository.AssignmentRepo, ad *repository.AdminRepo, pub *queue_publisher.Publisher, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{Cfg: cfg, Users: u, Assignments: a, Admin: ad, Publisher: pub, Log: log}
}

// Pending lists every registration awaiting a decision.
func (h *AdminHandler) Pending(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	users, err := h.Users.ListPending(ctx)
	if err != nil {
		return repoError(c, err, h.Cfg.Dev())
	}
	return respondData(c, http.StatusOK, users)
}

// ListUsers lists accounts with optional status and role filters.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	page, limit, offset := pagination(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	users, total, err := h.Users.List(ctx, c.QueryParam("status"), c.QueryParam("role"), limit, offset)
	if err != nil {
		return repoError(c, err, h.Cfg.Dev())
	}
	return respondPage(c, users, page, limit, total)
}

// Approve moves a pending account to approved, attempts the
// practice auto-assignment and publishes the approval event.
func (h *AdminHandler) Approve(c echo.Context) error {
	admin, _ := middleware.CurrentUser(c)
	id, err := pathID(c)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid user id")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.SetStatus(ctx, id, admin.ID, model.StatusApproved)
	if err != nil {
		return repoError(c, err, h.Cfg.Dev())
	}

	if err := h.Assignments.AutoAssign(ctx, u.ID, u.Role, u.PracticeName); err != nil {
		h.Log.Warn().Err(err).Uint64("user_id", u.ID).Msg("auto assignment failed")
	}

	ev := queue.UserApprovedEvent{
		UserID:     u.ID,
		Email:      u.Email,
		FullName:   u.FullName(),
		Role:       u.Role,
		ApprovedBy: admin.ID,
		ApprovedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if u.PracticeName != nil {
		ev.PracticeName = *u.PracticeName
	}
	_ = h.Publisher.UserApproved(ctx, ev)

	return respondMessage(c, http.StatusOK, "user approved", u)
}

// Reject moves a pending account to rejected, which is terminal.
func (h *AdminHandler) Reject(c echo.Context) error {
	admin, _ := middleware.CurrentUser(c)
	id, err := pathID(c)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid user id")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.SetStatus(ctx, id, admin.ID, model.StatusRejected)
	if err != nil {
		return repoError(c, err, h.Cfg.Dev())
	}
	return respondMessage(c, http.StatusOK, "user rejected", u)
}

// Stats serves the system-wide dashboard counters.
func (h *AdminHandler) Stats(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	s, err := h.Admin.Stats(ctx)
	if err != nil {
		return repoError(c, err, h.Cfg.Dev())
	}
	return respondData(c, http.StatusOK, s)
}

// DentistDetail shows one dentist with their assigned assistants
// and practice counters.
func (h *AdminHandler) DentistDetail(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid dentist id")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return repoError(c, err, h.Cfg.Dev())
	}
	if u.Role != model.RoleDentist {
		return respondError(c, http.StatusNotFound, "user is not a dentist")
	}

	assistants, err := h.Assignments.ListAssistants(ctx, id)
	if err != nil {
		return repoError(c, err, h.Cfg.Dev())
	}
	stats, err := h.Admin.PracticeStats(ctx, id)
	if err != nil {
		return repoError(c, err, h.Cfg.Dev())
	}

	return respondData(c, http.StatusOK, echo.Map{
		"dentist":    u,
		"assistants": assistants,
		"stats":      stats,
	})
}
