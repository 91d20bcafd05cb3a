package model

import "time"

// Role values stored in users.role. A dentist owns a practice, an
// assistant works inside exactly one dentist's practice, and a
// super admin operates the approval layer across all practices.
const (
	RoleDentist    = "dentist"
	RoleAssistant  = "assistant"
	RoleSuperAdmin = "super_admin"
)

// Account lifecycle states stored in users.status. Registration
// creates a pending account; only a super admin moves it to
// approved or rejected, and rejected is terminal.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// User represents a row in the `users` table. PasswordHash is never
// serialized; PracticeName drives auto-assignment of assistants to
// dentists with the same practice.
type User struct {
	ID           uint64     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Phone        *string    `json:"phone"`
	Role         string     `json:"role"`
	PracticeName *string    `json:"practice_name"`
	Status       string     `json:"status"`
	ApprovedAt   *time.Time `json:"approved_at,omitempty"`
	ApprovedBy   *uint64    `json:"approved_by,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// FullName joins first and last name for display and snapshots.
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}
