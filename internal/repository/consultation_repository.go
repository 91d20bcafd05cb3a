package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/DentistProject66/backend-dentist/internal/model"
	"github.com/DentistProject66/backend-dentist/internal/utils"
)

// Date columns are formatted in SQL so they scan into plain
// YYYY-MM-DD strings regardless of the driver's parseTime mode.
const consultationColumns = "id,patient_id,dentist_id,DATE_FORMAT(date_of_consultation,'%Y-%m-%d'),type_of_prosthesis,total_price,amount_paid,remaining_balance,needs_followup,receipt_number,created_by,created_at"

// ConsultationRepo provides access to the consultations table,
// including the composite creation flow that can touch patients,
// payments and appointments in one transaction.
type ConsultationRepo struct{ db *sql.DB }

func NewConsultationRepo(db *sql.DB) *ConsultationRepo { return &ConsultationRepo{db: db} }

func scanConsultation(row interface{ Scan(...any) error }) (model.Consultation, error) {
	var c model.Consultation
	err := row.Scan(&c.ID, &c.PatientID, &c.DentistID, &c.DateOfConsultation,
		&c.TypeOfProsthesis, &c.TotalPrice, &c.AmountPaid, &c.RemainingBalance,
		&c.NeedsFollowup, &c.ReceiptNumber, &c.CreatedBy, &c.CreatedAt)
	return c, err
}

// ConsultationRow is one list entry with the patient joined in.
type ConsultationRow struct {
	model.Consultation
	PatientName  string  `json:"patient_name"`
	PatientPhone *string `json:"patient_phone"`
}

// ConsultationFilter narrows List results.
type ConsultationFilter struct {
	Search    string
	PatientID uint64
	DateFrom  string
	DateTo    string
	Limit     int
	Offset    int
}

// List returns the practice's consultations joined with the
// patient's name and phone, newest first.
func (r *ConsultationRepo) List(ctx context.Context, dentistID uint64, f ConsultationFilter) ([]ConsultationRow, int, error) {
	where := "WHERE c.dentist_id=?"
	args := []any{dentistID}
	if s := strings.TrimSpace(f.Search); s != "" {
		where += " AND CONCAT(p.first_name,' ',p.last_name) LIKE ?"
		args = append(args, "%"+s+"%")
	}
	if f.PatientID != 0 {
		where += " AND c.patient_id=?"
		args = append(args, f.PatientID)
	}
	if f.DateFrom != "" {
		where += " AND c.date_of_consultation >= ?"
		args = append(args, f.DateFrom)
	}
	if f.DateTo != "" {
		where += " AND c.date_of_consultation <= ?"
		args = append(args, f.DateTo)
	}

	base := " FROM consultations c JOIN patients p ON p.id = c.patient_id " + where
	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*)"+base, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := `SELECT c.id,c.patient_id,c.dentist_id,DATE_FORMAT(c.date_of_consultation,'%Y-%m-%d'),c.type_of_prosthesis,
	             c.total_price,c.amount_paid,c.remaining_balance,c.needs_followup,c.receipt_number,
	             c.created_by,c.created_at, CONCAT(p.first_name,' ',p.last_name), p.phone` +
		base + " ORDER BY c.date_of_consultation DESC, c.id DESC LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, q, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]ConsultationRow, 0)
	for rows.Next() {
		var row ConsultationRow
		if err := rows.Scan(&row.ID, &row.PatientID, &row.DentistID, &row.DateOfConsultation,
			&row.TypeOfProsthesis, &row.TotalPrice, &row.AmountPaid, &row.RemainingBalance,
			&row.NeedsFollowup, &row.ReceiptNumber, &row.CreatedBy, &row.CreatedAt,
			&row.PatientName, &row.PatientPhone); err != nil {
			return nil, 0, err
		}
		out = append(out, row)
	}
	return out, total, rows.Err()
}

// GetByID fetches one consultation within the practice scope.
func (r *ConsultationRepo) GetByID(ctx context.Context, dentistID, id uint64) (model.Consultation, error) {
	return r.getByID(ctx, r.db, dentistID, id)
}

func (r *ConsultationRepo) getByID(ctx context.Context, q querier, dentistID, id uint64) (model.Consultation, error) {
	c, err := scanConsultation(q.QueryRowContext(ctx,
		"SELECT "+consultationColumns+" FROM consultations WHERE id=? LIMIT 1", id))
	if err != nil {
		return model.Consultation{}, err
	}
	if c.DentistID != dentistID {
		return model.Consultation{}, ErrForbidden
	}
	return c, nil
}

// ConsultationDetail is the detail view: the consultation, the
// patient, and the active follow-up appointment when one exists.
type ConsultationDetail struct {
	model.Consultation
	PatientName  string             `json:"patient_name"`
	PatientPhone *string            `json:"patient_phone"`
	Followup     *model.Appointment `json:"followup_appointment,omitempty"`
}

// Detail loads a consultation with its patient and any active
// follow-up appointment.
func (r *ConsultationRepo) Detail(ctx context.Context, dentistID, id uint64) (ConsultationDetail, error) {
	c, err := r.GetByID(ctx, dentistID, id)
	if err != nil {
		return ConsultationDetail{}, err
	}
	d := ConsultationDetail{Consultation: c}
	if err := r.db.QueryRowContext(ctx,
		"SELECT CONCAT(first_name,' ',last_name), phone FROM patients WHERE id=?",
		c.PatientID).Scan(&d.PatientName, &d.PatientPhone); err != nil {
		return ConsultationDetail{}, err
	}
	fu, err := r.activeFollowup(ctx, r.db, id)
	if err != nil && err != sql.ErrNoRows {
		return ConsultationDetail{}, err
	}
	if err == nil {
		d.Followup = &fu
	}
	return d, nil
}

func (r *ConsultationRepo) activeFollowup(ctx context.Context, q querier, consultationID uint64) (model.Appointment, error) {
	return scanAppointment(q.QueryRowContext(ctx,
		"SELECT "+appointmentColumns+" FROM appointments WHERE consultation_id=? AND status IN ('pending','confirmed') ORDER BY id DESC LIMIT 1",
		consultationID))
}

// ConsultationInput is the composite creation payload. Either
// PatientID references an existing patient of the practice, or
// FirstName/LastName describe a patient to create inline.
type ConsultationInput struct {
	PatientID          uint64
	FirstName          string
	LastName           string
	Phone              *string
	DateOfConsultation string
	TypeOfProsthesis   *string
	TotalPrice         float64
	AmountPaid         float64
	PaymentMethod      string
	NeedsFollowup      bool
	FollowupDate       string
	FollowupTime       string
}

// Create runs the composite creation transaction: resolve or
// create the patient, insert the consultation with a fresh CON
// receipt, record an initial payment when amount_paid is positive,
// and book a confirmed follow-up appointment when requested. Any
// failure, including a follow-up slot conflict, rolls the whole
// thing back.
func (r *ConsultationRepo) Create(ctx context.Context, dentistID, createdBy uint64, in ConsultationInput) (model.Consultation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Consultation{}, err
	}
	defer tx.Rollback()

	var patient model.Patient
	if in.PatientID != 0 {
		patient, err = scanPatient(tx.QueryRowContext(ctx,
			"SELECT "+patientColumns+" FROM patients WHERE id=? LIMIT 1", in.PatientID))
		if err != nil {
			return model.Consultation{}, err
		}
		if patient.DentistID != dentistID {
			return model.Consultation{}, ErrForbidden
		}
	} else {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO patients (dentist_id, first_name, last_name, phone, created_by) VALUES (?,?,?,?,?)",
			dentistID, strings.TrimSpace(in.FirstName), strings.TrimSpace(in.LastName), in.Phone, createdBy)
		if err != nil {
			return model.Consultation{}, err
		}
		pid, err := res.LastInsertId()
		if err != nil {
			return model.Consultation{}, err
		}
		patient = model.Patient{
			ID:        uint64(pid),
			DentistID: dentistID,
			FirstName: strings.TrimSpace(in.FirstName),
			LastName:  strings.TrimSpace(in.LastName),
			Phone:     in.Phone,
		}
	}

	receipt := utils.ReceiptNumber(utils.ReceiptConsultation, dentistID)
	res, err := tx.ExecContext(ctx, `
		INSERT INTO consultations
		(patient_id, dentist_id, date_of_consultation, type_of_prosthesis, total_price, amount_paid, needs_followup, receipt_number, created_by)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		patient.ID, dentistID, in.DateOfConsultation, in.TypeOfProsthesis,
		in.TotalPrice, in.AmountPaid, in.NeedsFollowup, receipt, createdBy)
	if err != nil {
		return model.Consultation{}, err
	}
	cid0, err := res.LastInsertId()
	if err != nil {
		return model.Consultation{}, err
	}
	cid := uint64(cid0)

	if in.AmountPaid > 0 {
		method := in.PaymentMethod
		if method == "" {
			method = "cash"
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO payments
			(consultation_id, patient_id, dentist_id, patient_name, payment_date, amount_paid, payment_method, remaining_balance, receipt_number, created_by)
			VALUES (?,?,?,?,?,?,?,?,?,?)`,
			cid, patient.ID, dentistID, patient.FullName(), in.DateOfConsultation,
			in.AmountPaid, method, in.TotalPrice-in.AmountPaid,
			utils.ReceiptNumber(utils.ReceiptPayment, dentistID), createdBy); err != nil {
			return model.Consultation{}, err
		}
	}

	if in.NeedsFollowup {
		if err = r.bookFollowup(ctx, tx, dentistID, createdBy, cid, patient, in.FollowupDate, in.FollowupTime); err != nil {
			return model.Consultation{}, err
		}
	}

	c, err := r.getByID(ctx, tx, dentistID, cid)
	if err != nil {
		return model.Consultation{}, err
	}
	return c, tx.Commit()
}

func (r *ConsultationRepo) bookFollowup(ctx context.Context, tx *sql.Tx, dentistID, createdBy, consultationID uint64, patient model.Patient, date, clock string) error {
	taken, err := slotTaken(ctx, tx, dentistID, date, clock, 0)
	if err != nil {
		return err
	}
	if taken {
		return ErrSlotTaken
	}
	treatment := "Follow-up"
	_, err = tx.ExecContext(ctx, `
		INSERT INTO appointments
		(patient_id, dentist_id, consultation_id, appointment_date, appointment_time, patient_name, patient_phone, treatment_type, status, created_by)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		patient.ID, dentistID, consultationID, date, clock,
		patient.FullName(), patient.Phone, treatment, model.AppointmentConfirmed, createdBy)
	if isDuplicateKey(err) {
		return ErrSlotTaken
	}
	return err
}

// ConsultationUpdate carries the partial update; nil means keep.
type ConsultationUpdate struct {
	DateOfConsultation *string
	TypeOfProsthesis   *string
	TotalPrice         *float64
	AmountPaid         *float64
	NeedsFollowup      *bool
	FollowupDate       string
	FollowupTime       string
}

// Update applies a partial update in one transaction. A changed
// amount_paid reconciles the initial payment row: updated in
// place, inserted when none exists, deleted when the new amount is
// zero. Toggling needs_followup books, reschedules or cancels the
// follow-up appointment.
func (r *ConsultationRepo) Update(ctx context.Context, dentistID, userID, id uint64, in ConsultationUpdate) (model.Consultation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Consultation{}, err
	}
	defer tx.Rollback()

	cur, err := r.getByID(ctx, tx, dentistID, id)
	if err != nil {
		return model.Consultation{}, err
	}
	var patient model.Patient
	if patient, err = scanPatient(tx.QueryRowContext(ctx,
		"SELECT "+patientColumns+" FROM patients WHERE id=? LIMIT 1", cur.PatientID)); err != nil {
		return model.Consultation{}, err
	}

	sets := []string{}
	args := []any{}
	if in.DateOfConsultation != nil {
		sets = append(sets, "date_of_consultation=?")
		args = append(args, *in.DateOfConsultation)
	}
	if in.TypeOfProsthesis != nil {
		sets = append(sets, "type_of_prosthesis=?")
		args = append(args, *in.TypeOfProsthesis)
	}
	if in.TotalPrice != nil {
		sets = append(sets, "total_price=?")
		args = append(args, *in.TotalPrice)
	}
	if in.AmountPaid != nil {
		sets = append(sets, "amount_paid=?")
		args = append(args, *in.AmountPaid)
	}
	if in.NeedsFollowup != nil {
		sets = append(sets, "needs_followup=?")
		args = append(args, *in.NeedsFollowup)
	}
	if len(sets) > 0 {
		args = append(args, id)
		if _, err = tx.ExecContext(ctx,
			"UPDATE consultations SET "+strings.Join(sets, ", ")+" WHERE id=?", args...); err != nil {
			return model.Consultation{}, err
		}
	}

	if in.AmountPaid != nil && *in.AmountPaid != cur.AmountPaid {
		total := cur.TotalPrice
		if in.TotalPrice != nil {
			total = *in.TotalPrice
		}
		if err = r.reconcilePayment(ctx, tx, cur, patient, total, *in.AmountPaid, userID); err != nil {
			return model.Consultation{}, err
		}
	}

	if in.NeedsFollowup != nil {
		if err = r.reconcileFollowup(ctx, tx, dentistID, userID, id, patient, *in.NeedsFollowup, in.FollowupDate, in.FollowupTime); err != nil {
			return model.Consultation{}, err
		}
	}

	c, err := r.getByID(ctx, tx, dentistID, id)
	if err != nil {
		return model.Consultation{}, err
	}
	return c, tx.Commit()
}

// reconcilePayment keeps the initial payment row consistent with
// the consultation's amount_paid after a direct edit. Only the
// oldest payment row is touched; later payments recorded through
// the payments API keep their own amounts. total is the
// consultation's price after the edit, which may differ from
// cur.TotalPrice when both fields change in one update.
func (r *ConsultationRepo) reconcilePayment(ctx context.Context, tx *sql.Tx, cur model.Consultation, patient model.Patient, total, newAmount float64, userID uint64) error {
	var payID uint64
	var payAmount float64
	err := tx.QueryRowContext(ctx,
		"SELECT id, amount_paid FROM payments WHERE consultation_id=? ORDER BY id ASC LIMIT 1",
		cur.ID).Scan(&payID, &payAmount)
	switch {
	case err == sql.ErrNoRows:
		if newAmount <= 0 {
			return nil
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO payments
			(consultation_id, patient_id, dentist_id, patient_name, payment_date, amount_paid, payment_method, remaining_balance, receipt_number, created_by)
			VALUES (?,?,?,?,?,?,?,?,?,?)`,
			cur.ID, cur.PatientID, cur.DentistID, patient.FullName(), cur.DateOfConsultation,
			newAmount, "cash", total-newAmount,
			utils.ReceiptNumber(utils.ReceiptPayment, cur.DentistID), userID)
		return err
	case err != nil:
		return err
	}

	adjusted := payAmount + (newAmount - cur.AmountPaid)
	if adjusted <= 0 {
		_, err = tx.ExecContext(ctx, "DELETE FROM payments WHERE id=?", payID)
		return err
	}
	_, err = tx.ExecContext(ctx, "UPDATE payments SET amount_paid=? WHERE id=?", adjusted, payID)
	return err
}

func (r *ConsultationRepo) reconcileFollowup(ctx context.Context, tx *sql.Tx, dentistID, userID, consultationID uint64, patient model.Patient, wanted bool, date, clock string) error {
	existing, err := r.activeFollowup(ctx, tx, consultationID)
	hasExisting := err == nil
	if err != nil && err != sql.ErrNoRows {
		return err
	}

	if !wanted {
		if !hasExisting {
			return nil
		}
		_, err = tx.ExecContext(ctx,
			"UPDATE appointments SET status=?, cancelled_at=NOW(), cancelled_by=?, cancellation_reason=? WHERE id=?",
			model.AppointmentCancelled, userID, "Follow-up no longer needed", existing.ID)
		return err
	}

	if date == "" || clock == "" {
		return nil // nothing to schedule with
	}
	if hasExisting {
		taken, err := slotTaken(ctx, tx, dentistID, date, clock, existing.ID)
		if err != nil {
			return err
		}
		if taken {
			return ErrSlotTaken
		}
		_, err = tx.ExecContext(ctx,
			"UPDATE appointments SET appointment_date=?, appointment_time=? WHERE id=?",
			date, clock, existing.ID)
		if isDuplicateKey(err) {
			return ErrSlotTaken
		}
		return err
	}
	return r.bookFollowup(ctx, tx, dentistID, userID, consultationID, patient, date, clock)
}

// Delete removes a consultation after snapshotting it together
// with its payments and appointments into the archives table.
// Children go first so the parent delete cannot orphan rows.
func (r *ConsultationRepo) Delete(ctx context.Context, dentistID, id, deletedBy uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	c, err := r.getByID(ctx, tx, dentistID, id)
	if err != nil {
		return err
	}

	snap := model.Snapshot{Consultation: &c}
	rows, err := tx.QueryContext(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE consultation_id=?", id)
	if err != nil {
		return err
	}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			rows.Close()
			return err
		}
		snap.Payments = append(snap.Payments, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	rows, err = tx.QueryContext(ctx,
		"SELECT "+appointmentColumns+" FROM appointments WHERE consultation_id=?", id)
	if err != nil {
		return err
	}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			rows.Close()
			return err
		}
		snap.Appointments = append(snap.Appointments, a)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO archives (dentist_id, original_table, original_id, data_json, archive_type, archived_by)
		VALUES (?,?,?,?,?,?)`,
		dentistID, model.TableConsultations, id, data, model.ArchiveTypeDeleted, deletedBy); err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM payments WHERE consultation_id=?", id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM appointments WHERE consultation_id=?", id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM consultations WHERE id=?", id); err != nil {
		return err
	}
	return tx.Commit()
}

// Receipt is the printable payload for a consultation receipt.
type Receipt struct {
	ReceiptNumber      string  `json:"receipt_number"`
	DateOfConsultation string  `json:"date_of_consultation"`
	PatientName        string  `json:"patient_name"`
	DentistName        string  `json:"dentist_name"`
	TypeOfProsthesis   *string `json:"type_of_prosthesis"`
	TotalPrice         float64 `json:"total_price"`
	AmountPaid         float64 `json:"amount_paid"`
	RemainingBalance   float64 `json:"remaining_balance"`
}

// ReceiptData assembles the receipt view for a consultation.
func (r *ConsultationRepo) ReceiptData(ctx context.Context, dentistID, id uint64) (Receipt, error) {
	c, err := r.GetByID(ctx, dentistID, id)
	if err != nil {
		return Receipt{}, err
	}
	rc := Receipt{
		ReceiptNumber:      c.ReceiptNumber,
		DateOfConsultation: c.DateOfConsultation,
		TypeOfProsthesis:   c.TypeOfProsthesis,
		TotalPrice:         c.TotalPrice,
		AmountPaid:         c.AmountPaid,
		RemainingBalance:   c.RemainingBalance,
	}
	if err := r.db.QueryRowContext(ctx,
		"SELECT CONCAT(first_name,' ',last_name) FROM patients WHERE id=?", c.PatientID).
		Scan(&rc.PatientName); err != nil {
		return Receipt{}, err
	}
	if err := r.db.QueryRowContext(ctx,
		"SELECT CONCAT(first_name,' ',last_name) FROM users WHERE id=?", c.DentistID).
		Scan(&rc.DentistName); err != nil {
		return Receipt{}, err
	}
	return rc, nil
}
