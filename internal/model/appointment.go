package model

import "time"

// Appointment states stored in appointments.status. Only pending
// and confirmed appointments occupy a time slot; cancelled and
// completed ones release it.
const (
	AppointmentPending   = "pending"
	AppointmentConfirmed = "confirmed"
	AppointmentCompleted = "completed"
	AppointmentCancelled = "cancelled"
)

// Appointment represents a row in the `appointments` table. The
// schema carries a stored generated column (active_slot) that is
// non-null only for pending/confirmed rows and unique per
// (dentist, date, time), so double booking is rejected by the
// database even when two requests race past the read check.
// AppointmentDate is YYYY-MM-DD and AppointmentTime is HH:MM;
// ConsultationID links follow-up bookings back to their visit.
type Appointment struct {
	ID                 uint64     `json:"id"`
	PatientID          uint64     `json:"patient_id"`
	DentistID          uint64     `json:"dentist_id"`
	ConsultationID     *uint64    `json:"consultation_id"`
	AppointmentDate    string     `json:"appointment_date"`
	AppointmentTime    string     `json:"appointment_time"`
	PatientName        string     `json:"patient_name"`
	PatientPhone       *string    `json:"patient_phone"`
	TreatmentType      *string    `json:"treatment_type"`
	Status             string     `json:"status"`
	Notes              *string    `json:"notes"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancelledBy        *uint64    `json:"cancelled_by,omitempty"`
	CancellationReason *string    `json:"cancellation_reason,omitempty"`
	CreatedBy          uint64     `json:"created_by"`
	CreatedAt          time.Time  `json:"created_at"`
}
