package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/DentistProject66/backend-dentist/internal/model"
)

const archiveColumns = "id,dentist_id,original_table,original_id,data_json,archive_type,archived_by,archived_at"

// ArchiveRepo provides access to the append-only archives table
// and the restore flow that rebuilds live rows from snapshots.
type ArchiveRepo struct{ db *sql.DB }

func NewArchiveRepo(db *sql.DB) *ArchiveRepo { return &ArchiveRepo{db: db} }

func scanArchive(row interface{ Scan(...any) error }) (model.Archive, error) {
	var a model.Archive
	err := row.Scan(&a.ID, &a.DentistID, &a.OriginalTable, &a.OriginalID,
		&a.DataJSON, &a.ArchiveType, &a.ArchivedBy, &a.ArchivedAt)
	return a, err
}

// ArchiveFilter narrows List results. Search and Treatment match
// inside the JSON snapshot.
type ArchiveFilter struct {
	OriginalTable string
	ArchiveType   string
	DateFrom      string
	DateTo        string
	Search        string
	Treatment     string
	Limit         int
	Offset        int
}

// List returns the practice's archive entries, newest first.
// Patient-name search looks inside the snapshot at both possible
// roots since the name lives under a different key per source
// table.
func (r *ArchiveRepo) List(ctx context.Context, dentistID uint64, f ArchiveFilter) ([]model.Archive, int, error) {
	where := "WHERE dentist_id=?"
	args := []any{dentistID}
	if f.OriginalTable != "" {
		where += " AND original_table=?"
		args = append(args, f.OriginalTable)
	}
	if f.ArchiveType != "" {
		where += " AND archive_type=?"
		args = append(args, f.ArchiveType)
	}
	if f.DateFrom != "" {
		where += " AND archived_at >= ?"
		args = append(args, f.DateFrom)
	}
	if f.DateTo != "" {
		where += " AND archived_at < DATE_ADD(?, INTERVAL 1 DAY)"
		args = append(args, f.DateTo)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		where += ` AND (
			CONCAT(JSON_UNQUOTE(JSON_EXTRACT(data_json,'$.patient.first_name')),' ',
			       JSON_UNQUOTE(JSON_EXTRACT(data_json,'$.patient.last_name'))) LIKE ?
			OR JSON_SEARCH(data_json, 'one', ?, NULL, '$.payments[*].patient_name') IS NOT NULL
			OR JSON_SEARCH(data_json, 'one', ?, NULL, '$.appointments[*].patient_name') IS NOT NULL)`
		pat := "%" + s + "%"
		args = append(args, pat, pat, pat)
	}
	if t := strings.TrimSpace(f.Treatment); t != "" {
		where += " AND JSON_UNQUOTE(JSON_EXTRACT(data_json,'$.consultation.type_of_prosthesis')) LIKE ?"
		args = append(args, "%"+t+"%")
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM archives "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := "SELECT " + archiveColumns + " FROM archives " + where +
		" ORDER BY archived_at DESC, id DESC LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, q, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Archive, 0)
	for rows.Next() {
		a, err := scanArchive(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

// GetByID fetches one archive entry within the practice scope.
func (r *ArchiveRepo) GetByID(ctx context.Context, dentistID, id uint64) (model.Archive, error) {
	a, err := scanArchive(r.db.QueryRowContext(ctx,
		"SELECT "+archiveColumns+" FROM archives WHERE id=? LIMIT 1", id))
	if err != nil {
		return model.Archive{}, err
	}
	if a.DentistID != dentistID {
		return model.Archive{}, ErrForbidden
	}
	return a, nil
}

// Restore rebuilds the archived entity. Patient archives clear the
// soft-delete flag; consultation archives reinsert the
// consultation and its dependents with their original primary
// keys. A target id already held by a row of the same practice is
// skipped, which makes retrying a partially restored archive safe;
// an id held by another practice's row aborts with ErrConflict.
// The archive row is consumed on success.
func (r *ArchiveRepo) Restore(ctx context.Context, dentistID, id uint64) error {
	a, err := r.GetByID(ctx, dentistID, id)
	if err != nil {
		return err
	}
	var snap model.Snapshot
	if err := json.Unmarshal(a.DataJSON, &snap); err != nil {
		return ErrCorruptArchive
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	switch a.OriginalTable {
	case model.TablePatients:
		if snap.Patient == nil {
			return ErrCorruptArchive
		}
		if _, err = tx.ExecContext(ctx,
			"UPDATE patients SET is_archived=FALSE, archived_at=NULL, archived_by=NULL WHERE id=? AND dentist_id=?",
			snap.Patient.ID, dentistID); err != nil {
			return err
		}
	case model.TableConsultations:
		if snap.Consultation == nil {
			return ErrCorruptArchive
		}
		if err = r.restoreConsultation(ctx, tx, dentistID, snap); err != nil {
			return err
		}
	default:
		return ErrCorruptArchive
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM archives WHERE id=?", a.ID); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *ArchiveRepo) restoreConsultation(ctx context.Context, tx *sql.Tx, dentistID uint64, snap model.Snapshot) error {
	c := snap.Consultation
	ok, err := idAvailable(ctx, tx, "consultations", c.ID, dentistID)
	if err != nil {
		return err
	}
	if ok {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO consultations
			(id, patient_id, dentist_id, date_of_consultation, type_of_prosthesis, total_price, amount_paid, needs_followup, receipt_number, created_by, created_at)
			VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
			c.ID, c.PatientID, c.DentistID, c.DateOfConsultation, c.TypeOfProsthesis,
			c.TotalPrice, c.AmountPaid, c.NeedsFollowup, c.ReceiptNumber, c.CreatedBy, c.CreatedAt); err != nil {
			return err
		}
	}

	for i := range snap.Payments {
		p := snap.Payments[i]
		ok, err := idAvailable(ctx, tx, "payments", p.ID, dentistID)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO payments
			(id, consultation_id, patient_id, dentist_id, patient_name, payment_date, amount_paid, payment_method, remaining_balance, receipt_number, created_by, created_at)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
			p.ID, p.ConsultationID, p.PatientID, p.DentistID, p.PatientName, p.PaymentDate,
			p.AmountPaid, p.PaymentMethod, p.RemainingBalance, p.ReceiptNumber, p.CreatedBy, p.CreatedAt); err != nil {
			return err
		}
	}

	for i := range snap.Appointments {
		ap := snap.Appointments[i]
		ok, err := idAvailable(ctx, tx, "appointments", ap.ID, dentistID)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO appointments
			(id, patient_id, dentist_id, consultation_id, appointment_date, appointment_time, patient_name, patient_phone, treatment_type, status, notes, cancelled_at, cancelled_by, cancellation_reason, created_by, created_at)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			ap.ID, ap.PatientID, ap.DentistID, ap.ConsultationID, ap.AppointmentDate, ap.AppointmentTime,
			ap.PatientName, ap.PatientPhone, ap.TreatmentType, ap.Status, ap.Notes,
			ap.CancelledAt, ap.CancelledBy, ap.CancellationReason, ap.CreatedBy, ap.CreatedAt)
		if isDuplicateKey(err) {
			return ErrConflict
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// idAvailable reports whether a primary key can be reused for a
// restore insert. True when the id is free; false when a row of
// the same practice already holds it (skip, the restore is a
// retry); ErrConflict when another practice's row holds it.
func idAvailable(ctx context.Context, q querier, table string, id, dentistID uint64) (bool, error) {
	var owner uint64
	err := q.QueryRowContext(ctx,
		"SELECT dentist_id FROM "+table+" WHERE id=? LIMIT 1", id).Scan(&owner)
	if err == sql.ErrNoRows {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	if owner != dentistID {
		return false, ErrConflict
	}
	return false, nil
}

// Delete purges an archive entry. Payment rows that outlived their
// snapshotted consultation are removed too, so a purge cannot
// leave money records pointing at a consultation that will never
// come back.
func (r *ArchiveRepo) Delete(ctx context.Context, dentistID, id uint64) error {
	a, err := r.GetByID(ctx, dentistID, id)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if a.OriginalTable == model.TableConsultations {
		var snap model.Snapshot
		if err := json.Unmarshal(a.DataJSON, &snap); err == nil {
			for i := range snap.Payments {
				if _, err = tx.ExecContext(ctx,
					"DELETE FROM payments WHERE id=? AND dentist_id=?",
					snap.Payments[i].ID, dentistID); err != nil {
					return err
				}
			}
		}
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM archives WHERE id=?", a.ID); err != nil {
		return err
	}
	return tx.Commit()
}
