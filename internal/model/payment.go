package model

import "time"

// Payment represents a row in the `payments` table. A payment
// always references a consultation; creating one increases the
// consultation's amount_paid by the same amount and deleting one
// decreases it, both inside a single transaction. The amount is
// never edited after creation, only the date and method are.
// RemainingBalance records the consultation balance after this
// payment was applied.
type Payment struct {
	ID               uint64    `json:"id"`
	ConsultationID   uint64    `json:"consultation_id"`
	PatientID        uint64    `json:"patient_id"`
	DentistID        uint64    `json:"dentist_id"`
	PatientName      string    `json:"patient_name"`
	PaymentDate      string    `json:"payment_date"`
	AmountPaid       float64   `json:"amount_paid"`
	PaymentMethod    string    `json:"payment_method"`
	RemainingBalance float64   `json:"remaining_balance"`
	ReceiptNumber    string    `json:"receipt_number"`
	CreatedBy        uint64    `json:"created_by"`
	CreatedAt        time.Time `json:"created_at"`
}
