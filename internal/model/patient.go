package model

import "time"

// Patient represents a row in the `patients` table. A patient
// belongs to exactly one dentist. Archival is flag-based: the row
// stays in place with IsArchived set while a snapshot of the full
// subgraph is written to the archives table. Phone is unique among
// the practice's non-archived patients.
type Patient struct {
	ID         uint64     `json:"id"`
	DentistID  uint64     `json:"dentist_id"`
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	Phone      *string    `json:"phone"`
	IsArchived bool       `json:"is_archived"`
	ArchivedAt *time.Time `json:"archived_at,omitempty"`
	ArchivedBy *uint64    `json:"archived_by,omitempty"`
	CreatedBy  uint64     `json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// FullName joins first and last name the way appointment and
// payment rows denormalize it.
func (p Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}
