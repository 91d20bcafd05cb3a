package model

import (
	"encoding/json"
	"time"
)

// Archive table / type tags. OriginalTable names the live table a
// snapshot came from; ArchiveTypeDeleted marks snapshots produced
// by destructive operations.
const (
	TablePatients      = "patients"
	TableConsultations = "consultations"

	ArchiveTypeDeleted = "deleted"
)

// Archive represents a row in the append-only `archives` table.
// DataJSON holds a point-in-time serialization of the archived
// entity and its dependents; a successful restore consumes the row.
// Restore is scoped by DentistID.
type Archive struct {
	ID            uint64          `json:"id"`
	DentistID     uint64          `json:"dentist_id"`
	OriginalTable string          `json:"original_table"`
	OriginalID    uint64          `json:"original_id"`
	DataJSON      json.RawMessage `json:"data_json"`
	ArchiveType   string          `json:"archive_type"`
	ArchivedBy    uint64          `json:"archived_by"`
	ArchivedAt    time.Time       `json:"archived_at"`
}

// Snapshot is the wire shape stored in archives.data_json. The
// entity key matching OriginalTable is set (patient or
// consultation) and the dependent collections follow. Original
// primary keys are preserved so restore can rebuild rows in place.
type Snapshot struct {
	Patient       *Patient       `json:"patient,omitempty"`
	Consultation  *Consultation  `json:"consultation,omitempty"`
	Consultations []Consultation `json:"consultations,omitempty"`
	Payments      []Payment      `json:"payments,omitempty"`
	Appointments  []Appointment  `json:"appointments,omitempty"`
}
