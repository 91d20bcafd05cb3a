// Package queue defines message payloads exchanged over the message broker.
package queue

// Queue names used by the publisher and the consumer.
const (
	QueueUserApproved      = "user.approved"
	QueueAppointmentBooked = "appointment.booked"
)

// UserApprovedEvent is published when a super admin approves an
// account. Downstream consumers can notify the user or feed
// onboarding analytics without touching the primary database.
type UserApprovedEvent struct {
	UserID       uint64 `json:"user_id"`
	Email        string `json:"email"`
	FullName     string `json:"full_name"`
	Role         string `json:"role"`
	PracticeName string `json:"practice_name,omitempty"`
	ApprovedBy   uint64 `json:"approved_by"`
	ApprovedAt   string `json:"approved_at"`
}

// AppointmentBookedEvent is published after an appointment is
// committed, including follow-ups created by the composite
// consultation flow.
type AppointmentBookedEvent struct {
	AppointmentID   uint64 `json:"appointment_id"`
	DentistID       uint64 `json:"dentist_id"`
	PatientID       uint64 `json:"patient_id"`
	PatientName     string `json:"patient_name"`
	AppointmentDate string `json:"appointment_date"`
	AppointmentTime string `json:"appointment_time"`
	TreatmentType   string `json:"treatment_type,omitempty"`
	Status          string `json:"status"`
	BookedBy        uint64 `json:"booked_by"`
	BookedAt        string `json:"booked_at"`
}
