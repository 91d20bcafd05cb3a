package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/DentistProject66/backend-dentist/internal/model"
)

const patientColumns = "id,dentist_id,first_name,last_name,phone,is_archived,archived_at,archived_by,created_by,created_at,updated_at"

// PatientRepo provides access to the patients table and the
// archival snapshot flow around it.
type PatientRepo struct{ db *sql.DB }

func NewPatientRepo(db *sql.DB) *PatientRepo { return &PatientRepo{db: db} }

// DB exposes the underlying handle for flows that run outside a
// repository-owned transaction.
func (r *PatientRepo) DB() *sql.DB { return r.db }

func scanPatient(row interface{ Scan(...any) error }) (model.Patient, error) {
	var p model.Patient
	err := row.Scan(&p.ID, &p.DentistID, &p.FirstName, &p.LastName, &p.Phone,
		&p.IsArchived, &p.ArchivedAt, &p.ArchivedBy, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// PatientSummary is one row of the patient list: the patient plus
// the latest consultation's financial state and the next upcoming
// active appointment, both nullable when absent.
type PatientSummary struct {
	model.Patient
	LastConsultationDate *string  `json:"last_consultation_date"`
	TypeOfProsthesis     *string  `json:"type_of_prosthesis"`
	TotalPrice           *float64 `json:"total_price"`
	AmountPaid           *float64 `json:"amount_paid"`
	RemainingBalance     *float64 `json:"remaining_balance"`
	PaymentStatus        *string  `json:"payment_status"`
	NextAppointmentDate  *string  `json:"next_appointment_date"`
	NextAppointmentTime  *string  `json:"next_appointment_time"`
}

// PatientFilter narrows List results.
type PatientFilter struct {
	Search   string
	Archived bool
	Limit    int
	Offset   int
}

// List returns the dentist's patients with their latest
// consultation summary, newest first. Search matches name or
// phone. Payment status is derived from the latest consultation's
// balance: Paid when nothing remains, Pending when nothing was
// taken, Partial otherwise.
func (r *PatientRepo) List(ctx context.Context, dentistID uint64, f PatientFilter) ([]PatientSummary, int, error) {
	where := "WHERE p.dentist_id=? AND p.is_archived=?"
	args := []any{dentistID, f.Archived}
	if s := strings.TrimSpace(f.Search); s != "" {
		where += " AND (CONCAT(p.first_name,' ',p.last_name) LIKE ? OR p.phone LIKE ?)"
		pat := "%" + s + "%"
		args = append(args, pat, pat)
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM patients p "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := `
		SELECT p.id,p.dentist_id,p.first_name,p.last_name,p.phone,
		       p.is_archived,p.archived_at,p.archived_by,p.created_by,p.created_at,p.updated_at,
		       DATE_FORMAT(c.date_of_consultation,'%Y-%m-%d'), c.type_of_prosthesis, c.total_price, c.amount_paid, c.remaining_balance,
		       DATE_FORMAT(a.appointment_date,'%Y-%m-%d'), TIME_FORMAT(a.appointment_time,'%H:%i')
		FROM patients p
		LEFT JOIN consultations c ON c.id = (
			SELECT id FROM consultations
			WHERE patient_id = p.id
			ORDER BY date_of_consultation DESC, id DESC LIMIT 1)
		LEFT JOIN appointments a ON a.id = (
			SELECT id FROM appointments
			WHERE patient_id = p.id AND status IN ('pending','confirmed')
			  AND appointment_date >= CURDATE()
			ORDER BY appointment_date ASC, appointment_time ASC LIMIT 1)
		` + where + `
		ORDER BY p.created_at DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]PatientSummary, 0)
	for rows.Next() {
		var s PatientSummary
		if err := rows.Scan(&s.ID, &s.DentistID, &s.FirstName, &s.LastName, &s.Phone,
			&s.IsArchived, &s.ArchivedAt, &s.ArchivedBy, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt,
			&s.LastConsultationDate, &s.TypeOfProsthesis, &s.TotalPrice, &s.AmountPaid, &s.RemainingBalance,
			&s.NextAppointmentDate, &s.NextAppointmentTime); err != nil {
			return nil, 0, err
		}
		if s.RemainingBalance != nil {
			st := paymentStatus(*s.AmountPaid, *s.RemainingBalance)
			s.PaymentStatus = &st
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

func paymentStatus(amountPaid, remaining float64) string {
	switch {
	case remaining <= 0:
		return "Paid"
	case amountPaid == 0:
		return "Pending"
	default:
		return "Partial"
	}
}

// GetByID fetches one patient within the practice scope. Returns
// sql.ErrNoRows for unknown ids and ErrForbidden when the patient
// belongs to another practice.
func (r *PatientRepo) GetByID(ctx context.Context, dentistID, id uint64) (model.Patient, error) {
	p, err := scanPatient(r.db.QueryRowContext(ctx,
		"SELECT "+patientColumns+" FROM patients WHERE id=? LIMIT 1", id))
	if err != nil {
		return model.Patient{}, err
	}
	if p.DentistID != dentistID {
		return model.Patient{}, ErrForbidden
	}
	return p, nil
}

// PatientDetail is the full subgraph returned by the detail view.
type PatientDetail struct {
	model.Patient
	Consultations []model.Consultation `json:"consultations"`
	Appointments  []model.Appointment  `json:"appointments"`
	Payments      []model.Payment      `json:"payments"`
}

// Detail loads a patient with all of their consultations,
// appointments and payments.
func (r *PatientRepo) Detail(ctx context.Context, dentistID, id uint64) (PatientDetail, error) {
	p, err := r.GetByID(ctx, dentistID, id)
	if err != nil {
		return PatientDetail{}, err
	}
	d := PatientDetail{Patient: p}
	if d.Consultations, err = r.consultationsOf(ctx, r.db, id); err != nil {
		return PatientDetail{}, err
	}
	if d.Appointments, err = r.appointmentsOf(ctx, r.db, id); err != nil {
		return PatientDetail{}, err
	}
	if d.Payments, err = r.paymentsOf(ctx, r.db, id); err != nil {
		return PatientDetail{}, err
	}
	return d, nil
}

// querier abstracts *sql.DB and *sql.Tx so subgraph loads can run
// both standalone and inside the archive transaction.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *PatientRepo) consultationsOf(ctx context.Context, q querier, patientID uint64) ([]model.Consultation, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT "+consultationColumns+" FROM consultations WHERE patient_id=? ORDER BY date_of_consultation DESC, id DESC",
		patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Consultation, 0)
	for rows.Next() {
		c, err := scanConsultation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PatientRepo) appointmentsOf(ctx context.Context, q querier, patientID uint64) ([]model.Appointment, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT "+appointmentColumns+" FROM appointments WHERE patient_id=? ORDER BY appointment_date DESC, appointment_time DESC",
		patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PatientRepo) paymentsOf(ctx context.Context, q querier, patientID uint64) ([]model.Payment, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE patient_id=? ORDER BY payment_date DESC, id DESC",
		patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Create inserts a patient. A non-empty phone that collides with
// another non-archived patient of the same practice is rejected
// with ErrPhoneExists.
func (r *PatientRepo) Create(ctx context.Context, dentistID, createdBy uint64, firstName, lastName string, phone *string) (model.Patient, error) {
	if err := r.checkPhone(ctx, dentistID, phone, 0); err != nil {
		return model.Patient{}, err
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO patients (dentist_id, first_name, last_name, phone, created_by) VALUES (?,?,?,?,?)",
		dentistID, strings.TrimSpace(firstName), strings.TrimSpace(lastName), phone, createdBy)
	if err != nil {
		return model.Patient{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Patient{}, err
	}
	return r.GetByID(ctx, dentistID, uint64(id))
}

// Update overwrites the patient's editable fields.
func (r *PatientRepo) Update(ctx context.Context, dentistID, id uint64, firstName, lastName string, phone *string) (model.Patient, error) {
	if _, err := r.GetByID(ctx, dentistID, id); err != nil {
		return model.Patient{}, err
	}
	if err := r.checkPhone(ctx, dentistID, phone, id); err != nil {
		return model.Patient{}, err
	}
	_, err := r.db.ExecContext(ctx,
		"UPDATE patients SET first_name=?, last_name=?, phone=? WHERE id=?",
		strings.TrimSpace(firstName), strings.TrimSpace(lastName), phone, id)
	if err != nil {
		return model.Patient{}, err
	}
	return r.GetByID(ctx, dentistID, id)
}

func (r *PatientRepo) checkPhone(ctx context.Context, dentistID uint64, phone *string, selfID uint64) error {
	if phone == nil || strings.TrimSpace(*phone) == "" {
		return nil
	}
	var existing uint64
	err := r.db.QueryRowContext(ctx,
		"SELECT id FROM patients WHERE dentist_id=? AND phone=? AND is_archived=FALSE AND id<>? LIMIT 1",
		dentistID, strings.TrimSpace(*phone), selfID).Scan(&existing)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return err
	}
	return ErrPhoneExists
}

// Archive soft-deletes a patient: the row is flagged and a JSON
// snapshot of the patient with all consultations, appointments and
// payments is appended to the archives table, atomically.
func (r *PatientRepo) Archive(ctx context.Context, dentistID, id, archivedBy uint64) error {
	p, err := r.GetByID(ctx, dentistID, id)
	if err != nil {
		return err
	}
	if p.IsArchived {
		return ErrConflict
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	snap := model.Snapshot{Patient: &p}
	if snap.Consultations, err = r.consultationsOf(ctx, tx, id); err != nil {
		return err
	}
	if snap.Appointments, err = r.appointmentsOf(ctx, tx, id); err != nil {
		return err
	}
	if snap.Payments, err = r.paymentsOf(ctx, tx, id); err != nil {
		return err
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO archives (dentist_id, original_table, original_id, data_json, archive_type, archived_by)
		VALUES (?,?,?,?,?,?)`,
		dentistID, model.TablePatients, id, data, model.ArchiveTypeDeleted, archivedBy); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		"UPDATE patients SET is_archived=TRUE, archived_at=NOW(), archived_by=? WHERE id=?",
		archivedBy, id); err != nil {
		return err
	}
	return tx.Commit()
}

// Unarchive clears the soft-delete flag inside an existing
// transaction. Used by the archive restore flow.
func (r *PatientRepo) Unarchive(ctx context.Context, q querier, id uint64) error {
	_, err := q.ExecContext(ctx,
		"UPDATE patients SET is_archived=FALSE, archived_at=NULL, archived_by=NULL WHERE id=?", id)
	return err
}
