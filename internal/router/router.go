// Package router wires the HTTP endpoints to their handlers and
// middleware chains.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/DentistProject66/backend-dentist/internal/handler"
	"github.com/DentistProject66/backend-dentist/internal/middleware"
	"github.com/DentistProject66/backend-dentist/internal/model"
	"github.com/DentistProject66/backend-dentist/internal/repository"
)

// Handlers carries every handler the router needs.
type Handlers struct {
	Health        *handler.HealthHandler
	Auth          *handler.AuthHandler
	Admin         *handler.AdminHandler
	Patients      *handler.PatientHandler
	Consultations *handler.ConsultationHandler
	Appointments  *handler.AppointmentHandler
	Payments      *handler.PaymentHandler
	Archives      *handler.ArchiveHandler
}

// Register mounts the full API under /api. Public routes are the
// health check and the register/login pair; everything else runs
// behind the JWT chain, and practice data additionally behind the
// role gate and the practice-scope resolver.
func Register(e *echo.Echo, h Handlers, jwtSecret string, users *repository.UserRepo, assignments *repository.AssignmentRepo) {
	api := e.Group("/api")

	api.GET("/health", h.Health.Check)

	auth := api.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)

	// Self-service endpoints: any approved account.
	me := api.Group("/auth", middleware.JWTAuth(jwtSecret, users))
	me.GET("/profile", h.Auth.Profile)
	me.PUT("/profile", h.Auth.UpdateProfile)
	me.PUT("/change-password", h.Auth.ChangePassword)

	admin := api.Group("/admin",
		middleware.JWTAuth(jwtSecret, users),
		middleware.RequireRole(model.RoleSuperAdmin))
	admin.GET("/pending", h.Admin.Pending)
	admin.GET("/users", h.Admin.ListUsers)
	admin.PUT("/users/:id/approve", h.Admin.Approve)
	admin.PUT("/users/:id/reject", h.Admin.Reject)
	admin.GET("/stats", h.Admin.Stats)
	admin.GET("/dentists/:id", h.Admin.DentistDetail)

	// Practice routes resolve the dentist scope once per request.
	practice := []echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret, users),
		middleware.RequireRole(model.RoleDentist, model.RoleAssistant),
		middleware.PracticeScope(assignments),
	}

	patients := api.Group("/patients", practice...)
	patients.GET("", h.Patients.List)
	patients.GET("/:id", h.Patients.Get)
	patients.POST("", h.Patients.Create)
	patients.PUT("/:id", h.Patients.Update)
	patients.POST("/archive/:id", h.Patients.Archive)
	patients.POST("/restore/:id", h.Patients.Restore)

	consultations := api.Group("/consultations", practice...)
	consultations.GET("", h.Consultations.List)
	consultations.GET("/:id", h.Consultations.Get)
	consultations.POST("", h.Consultations.Create)
	consultations.PUT("/:id", h.Consultations.Update)
	consultations.DELETE("/:id", h.Consultations.Delete)
	// Receipts expose amounts, so assistants are blocked.
	consultations.GET("/:id/receipt", h.Consultations.Receipt, middleware.BlockAssistants())

	appointments := api.Group("/appointments", practice...)
	appointments.GET("", h.Appointments.List)
	appointments.GET("/available-slots", h.Appointments.AvailableSlots)
	appointments.GET("/schedule", h.Appointments.Schedule)
	appointments.GET("/date/:date", h.Appointments.ByDate)
	appointments.GET("/:id", h.Appointments.Get)
	appointments.POST("", h.Appointments.Create)
	appointments.PUT("/:id", h.Appointments.Update)
	appointments.PUT("/:id/cancel", h.Appointments.Cancel)
	appointments.PUT("/:id/complete", h.Appointments.Complete)

	payments := api.Group("/payments", append(practice, middleware.BlockAssistants())...)
	payments.GET("", h.Payments.List)
	payments.GET("/reports", h.Payments.Reports)
	payments.GET("/:id", h.Payments.Get)
	payments.GET("/:id/receipt", h.Payments.Receipt)
	payments.POST("", h.Payments.Create)
	payments.PUT("/:id", h.Payments.Update)
	payments.DELETE("/:id", h.Payments.Delete)

	archives := api.Group("/archives", practice...)
	archives.GET("", h.Archives.List)
	archives.GET("/:id", h.Archives.Get)
	archives.POST("/restore/:id", h.Archives.Restore)
	archives.DELETE("/:id", h.Archives.Delete)
}
