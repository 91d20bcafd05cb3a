package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/DentistProject66/backend-dentist/internal/config"
	"github.com/DentistProject66/backend-dentist/internal/middleware"
	"github.com/DentistProject66/backend-dentist/internal/model"
	"github.com/DentistProject66/backend-dentist/internal/repository"
	"github.com/DentistProject66/backend-dentist/internal/utils"
)

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Cfg         config.Config
	Users       *repository.UserRepo
	Assignments *repository.AssignmentRepo
	Log         zerolog.Logger
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, a *repository.AssignmentRepo, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Assignments: a, Log: log}
}

type registerReq struct {
	Email        string  `json:"email"`
	Password     string  `json:"password"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	Phone        *string `json:"phone"`
	Role         string  `json:"role"`
	PracticeName *string `json:"practice_name"`
}

// Register creates a pending account. Nobody can self-register as
// super_admin; the role silently defaults to dentist when absent
// or unknown.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" || strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		return respondError(c, http.StatusBadRequest, "email, password, first_name and last_name are required")
	}
	if len(req.Password) < 6 {
		return respondError(c, http.StatusBadRequest, "password must be at least 6 characters")
	}
	role := strings.ToLower(strings.TrimSpace(req.Role))
	if role != model.RoleDentist && role != model.RoleAssistant {
		role = model.RoleDentist
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	id, err := h.Users.Create(ctx, req.Email, req.Password,
		strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName),
		req.Phone, role, req.PracticeName, h.Cfg.BcryptCost)
	if err != nil {
		return repoError(c, err, h.Cfg.Dev())
	}

	// Pairing may already be possible when the counterpart was
	// approved first; a miss here is retried at approval time.
	if err := h.Assignments.AutoAssign(ctx, id, role, req.PracticeName); err != nil {
		h.Log.Warn().Err(err).Uint64("user_id", id).Msg("auto assignment failed")
	}

	return respondMessage(c, http.StatusCreated,
		"registration received, awaiting approval", echo.Map{"id": id})
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResp struct {
	User            model.User  `json:"user"`
	Token           string      `json:"token"`
	ExpiresAt       string      `json:"expires_at"`
	AssignedDentist *model.User `json:"assigned_dentist,omitempty"`
}

// Login verifies credentials and issues the bearer token. Pending
// and rejected accounts get a status-specific refusal so the user
// knows whether to wait or give up.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return respondError(c, http.StatusBadRequest, "email and password are required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		return respondError(c, http.StatusUnauthorized, "invalid email or password")
	}
	if err := utils.VerifyPassword(u.PasswordHash, req.Password); err != nil {
		return respondError(c, http.StatusUnauthorized, "invalid email or password")
	}
	switch u.Status {
	case model.StatusPending:
		return respondError(c, http.StatusUnauthorized, "account is awaiting approval")
	case model.StatusRejected:
		return respondError(c, http.StatusUnauthorized, "account registration was rejected")
	}

	tok, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.JWTTTLMin)
	if err != nil {
		return respondErrorDetail(c, http.StatusInternalServerError, "could not issue token", err, h.Cfg.Dev())
	}

	resp := loginResp{User: u, Token: tok.Token, ExpiresAt: tok.Exp.Format("2006-01-02T15:04:05Z07:00")}
	if u.Role == model.RoleAssistant {
		if d, err := h.Assignments.AssignedDentist(ctx, u.ID); err == nil {
			resp.AssignedDentist = &d
		}
	}
	return respondData(c, http.StatusOK, resp)
}

// Profile returns the authenticated account, with the assigned
// dentist attached for assistants.
func (h *AuthHandler) Profile(c echo.Context) error {
	u, _ := middleware.CurrentUser(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	out := echo.Map{"user": u}
	if u.Role == model.RoleAssistant {
		if d, err := h.Assignments.AssignedDentist(ctx, u.ID); err == nil {
			out["assigned_dentist"] = d
		}
	}
	return respondData(c, http.StatusOK, out)
}

type profileReq struct {
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	Phone        *string `json:"phone"`
	PracticeName *string `json:"practice_name"`
}

// UpdateProfile overwrites the caller's editable fields.
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	u, _ := middleware.CurrentUser(c)

	var req profileReq
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		return respondError(c, http.StatusBadRequest, "first_name and last_name are required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.UpdateProfile(ctx, u.ID,
		strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName),
		req.Phone, req.PracticeName); err != nil {
		return repoError(c, err, h.Cfg.Dev())
	}
	fresh, err := h.Users.GetByID(ctx, u.ID)
	if err != nil {
		return repoError(c, err, h.Cfg.Dev())
	}
	return respondMessage(c, http.StatusOK, "profile updated", fresh)
}

type changePasswordReq struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword verifies the current password before storing the
// new hash.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	u, _ := middleware.CurrentUser(c)

	var req changePasswordReq
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}
	if len(req.NewPassword) < 6 {
		return respondError(c, http.StatusBadRequest, "new password must be at least 6 characters")
	}
	if err := utils.VerifyPassword(u.PasswordHash, req.CurrentPassword); err != nil {
		return respondError(c, http.StatusUnauthorized, "current password is incorrect")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.UpdatePassword(ctx, u.ID, req.NewPassword, h.Cfg.BcryptCost); err != nil {
		return repoError(c, err, h.Cfg.Dev())
	}
	return respondMessage(c, http.StatusOK, "password changed", nil)
}
