package model

import "time"

// Consultation represents a row in the `consultations` table.
// RemainingBalance is a stored generated column maintained by the
// database as total_price - amount_paid, so it can never diverge
// from the ledger no matter which code path mutates amount_paid.
// DateOfConsultation is formatted YYYY-MM-DD.
type Consultation struct {
	ID                 uint64    `json:"id"`
	PatientID          uint64    `json:"patient_id"`
	DentistID          uint64    `json:"dentist_id"`
	DateOfConsultation string    `json:"date_of_consultation"`
	TypeOfProsthesis   *string   `json:"type_of_prosthesis"`
	TotalPrice         float64   `json:"total_price"`
	AmountPaid         float64   `json:"amount_paid"`
	RemainingBalance   float64   `json:"remaining_balance"`
	NeedsFollowup      bool      `json:"needs_followup"`
	ReceiptNumber      string    `json:"receipt_number"`
	CreatedBy          uint64    `json:"created_by"`
	CreatedAt          time.Time `json:"created_at"`
}
