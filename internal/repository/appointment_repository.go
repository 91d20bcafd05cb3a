package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/DentistProject66/backend-dentist/internal/model"
)

// Date and time columns are formatted in SQL so they scan into the
// plain YYYY-MM-DD / HH:MM strings the API speaks.
const appointmentColumns = "id,patient_id,dentist_id,consultation_id,DATE_FORMAT(appointment_date,'%Y-%m-%d'),TIME_FORMAT(appointment_time,'%H:%i'),patient_name,patient_phone,treatment_type,status,notes,cancelled_at,cancelled_by,cancellation_reason,created_by,created_at"

// AppointmentRepo provides access to the appointments table. Slot
// exclusivity is enforced twice: a read check inside each booking
// transaction for a friendly error, and the active_slot unique
// index for the race where two bookings pass the check together.
type AppointmentRepo struct{ db *sql.DB }

func NewAppointmentRepo(db *sql.DB) *AppointmentRepo { return &AppointmentRepo{db: db} }

func scanAppointment(row interface{ Scan(...any) error }) (model.Appointment, error) {
	var a model.Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.DentistID, &a.ConsultationID,
		&a.AppointmentDate, &a.AppointmentTime, &a.PatientName, &a.PatientPhone,
		&a.TreatmentType, &a.Status, &a.Notes, &a.CancelledAt, &a.CancelledBy,
		&a.CancellationReason, &a.CreatedBy, &a.CreatedAt)
	return a, err
}

// slotTaken reports whether an active appointment already occupies
// the dentist's (date, time) slot, excluding excludeID when
// updating an existing appointment.
func slotTaken(ctx context.Context, q querier, dentistID uint64, date, clock string, excludeID uint64) (bool, error) {
	var id uint64
	err := q.QueryRowContext(ctx, `
		SELECT id FROM appointments
		WHERE dentist_id=? AND appointment_date=? AND appointment_time=?
		  AND status IN ('pending','confirmed') AND id<>? LIMIT 1`,
		dentistID, date, clock, excludeID).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// AppointmentFilter narrows List results.
type AppointmentFilter struct {
	Date      string
	Status    string
	PatientID uint64
	Search    string
	Limit     int
	Offset    int
}

// List returns the practice's appointments, soonest first.
func (r *AppointmentRepo) List(ctx context.Context, dentistID uint64, f AppointmentFilter) ([]model.Appointment, int, error) {
	where := "WHERE dentist_id=?"
	args := []any{dentistID}
	if f.Date != "" {
		where += " AND appointment_date=?"
		args = append(args, f.Date)
	}
	if f.Status != "" {
		where += " AND status=?"
		args = append(args, f.Status)
	}
	if f.PatientID != 0 {
		where += " AND patient_id=?"
		args = append(args, f.PatientID)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		where += " AND patient_name LIKE ?"
		args = append(args, "%"+s+"%")
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM appointments "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := "SELECT " + appointmentColumns + " FROM appointments " + where +
		" ORDER BY appointment_date ASC, appointment_time ASC LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, q, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

// ByDate returns all of a day's appointments for the calendar
// view, earliest first.
func (r *AppointmentRepo) ByDate(ctx context.Context, dentistID uint64, date string) ([]model.Appointment, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+appointmentColumns+" FROM appointments WHERE dentist_id=? AND appointment_date=? ORDER BY appointment_time ASC",
		dentistID, date)
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

// GetByID fetches one appointment within the practice scope.
func (r *AppointmentRepo) GetByID(ctx context.Context, dentistID, id uint64) (model.Appointment, error) {
	a, err := scanAppointment(r.db.QueryRowContext(ctx,
		"SELECT "+appointmentColumns+" FROM appointments WHERE id=? LIMIT 1", id))
	if err != nil {
		return model.Appointment{}, err
	}
	if a.DentistID != dentistID {
		return model.Appointment{}, ErrForbidden
	}
	return a, nil
}

// AppointmentInput is the booking payload.
type AppointmentInput struct {
	PatientID       uint64
	ConsultationID  *uint64
	AppointmentDate string
	AppointmentTime string
	TreatmentType   *string
	Status          string
	Notes           *string
}

// Create books an appointment for an existing patient of the
// practice. ErrSlotTaken when the slot is occupied, including the
// lost race detected by the unique index.
func (r *AppointmentRepo) Create(ctx context.Context, dentistID, createdBy uint64, in AppointmentInput) (model.Appointment, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Appointment{}, err
	}
	defer tx.Rollback()

	p, err := scanPatient(tx.QueryRowContext(ctx,
		"SELECT "+patientColumns+" FROM patients WHERE id=? LIMIT 1", in.PatientID))
	if err != nil {
		return model.Appointment{}, err
	}
	if p.DentistID != dentistID {
		return model.Appointment{}, ErrForbidden
	}

	taken, err := slotTaken(ctx, tx, dentistID, in.AppointmentDate, in.AppointmentTime, 0)
	if err != nil {
		return model.Appointment{}, err
	}
	if taken {
		return model.Appointment{}, ErrSlotTaken
	}

	status := in.Status
	if status == "" {
		status = model.AppointmentPending
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO appointments
		(patient_id, dentist_id, consultation_id, appointment_date, appointment_time, patient_name, patient_phone, treatment_type, status, notes, created_by)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		p.ID, dentistID, in.ConsultationID, in.AppointmentDate, in.AppointmentTime,
		p.FullName(), p.Phone, in.TreatmentType, status, in.Notes, createdBy)
	if isDuplicateKey(err) {
		return model.Appointment{}, ErrSlotTaken
	}
	if err != nil {
		return model.Appointment{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Appointment{}, err
	}
	a, err := scanAppointment(tx.QueryRowContext(ctx,
		"SELECT "+appointmentColumns+" FROM appointments WHERE id=?", id))
	if err != nil {
		return model.Appointment{}, err
	}
	return a, tx.Commit()
}

// AppointmentUpdate carries the partial update; nil means keep.
type AppointmentUpdate struct {
	AppointmentDate *string
	AppointmentTime *string
	TreatmentType   *string
	Status          *string
	Notes           *string
}

// Update reschedules or edits an appointment; a date or time
// change re-checks the slot excluding the appointment itself.
func (r *AppointmentRepo) Update(ctx context.Context, dentistID, id uint64, in AppointmentUpdate) (model.Appointment, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Appointment{}, err
	}
	defer tx.Rollback()

	cur, err := scanAppointment(tx.QueryRowContext(ctx,
		"SELECT "+appointmentColumns+" FROM appointments WHERE id=? LIMIT 1", id))
	if err != nil {
		return model.Appointment{}, err
	}
	if cur.DentistID != dentistID {
		return model.Appointment{}, ErrForbidden
	}

	date, clock := cur.AppointmentDate, cur.AppointmentTime
	if in.AppointmentDate != nil {
		date = *in.AppointmentDate
	}
	if in.AppointmentTime != nil {
		clock = *in.AppointmentTime
	}
	if date != cur.AppointmentDate || clock != cur.AppointmentTime {
		taken, err := slotTaken(ctx, tx, dentistID, date, clock, id)
		if err != nil {
			return model.Appointment{}, err
		}
		if taken {
			return model.Appointment{}, ErrSlotTaken
		}
	}

	sets := []string{"appointment_date=?", "appointment_time=?"}
	args := []any{date, clock}
	if in.TreatmentType != nil {
		sets = append(sets, "treatment_type=?")
		args = append(args, *in.TreatmentType)
	}
	if in.Status != nil {
		sets = append(sets, "status=?")
		args = append(args, *in.Status)
	}
	if in.Notes != nil {
		sets = append(sets, "notes=?")
		args = append(args, *in.Notes)
	}
	args = append(args, id)
	_, err = tx.ExecContext(ctx,
		"UPDATE appointments SET "+strings.Join(sets, ", ")+" WHERE id=?", args...)
	if isDuplicateKey(err) {
		return model.Appointment{}, ErrSlotTaken
	}
	if err != nil {
		return model.Appointment{}, err
	}
	a, err := scanAppointment(tx.QueryRowContext(ctx,
		"SELECT "+appointmentColumns+" FROM appointments WHERE id=?", id))
	if err != nil {
		return model.Appointment{}, err
	}
	return a, tx.Commit()
}

// Cancel moves a pending or confirmed appointment to cancelled,
// stamping who cancelled it and why. ErrConflict when the
// appointment is already terminal.
func (r *AppointmentRepo) Cancel(ctx context.Context, dentistID, id, cancelledBy uint64, reason *string) (model.Appointment, error) {
	return r.transition(ctx, dentistID, id, model.AppointmentCancelled, &cancelledBy, reason)
}

// Complete moves a pending or confirmed appointment to completed.
func (r *AppointmentRepo) Complete(ctx context.Context, dentistID, id uint64) (model.Appointment, error) {
	return r.transition(ctx, dentistID, id, model.AppointmentCompleted, nil, nil)
}

func (r *AppointmentRepo) transition(ctx context.Context, dentistID, id uint64, to string, by *uint64, reason *string) (model.Appointment, error) {
	cur, err := r.GetByID(ctx, dentistID, id)
	if err != nil {
		return model.Appointment{}, err
	}
	if cur.Status != model.AppointmentPending && cur.Status != model.AppointmentConfirmed {
		return model.Appointment{}, ErrConflict
	}
	if to == model.AppointmentCancelled {
		_, err = r.db.ExecContext(ctx,
			"UPDATE appointments SET status=?, cancelled_at=NOW(), cancelled_by=?, cancellation_reason=? WHERE id=?",
			to, by, reason, id)
	} else {
		_, err = r.db.ExecContext(ctx,
			"UPDATE appointments SET status=? WHERE id=?", to, id)
	}
	if err != nil {
		return model.Appointment{}, err
	}
	return r.GetByID(ctx, dentistID, id)
}

// BookedTimes returns the HH:MM times of a dentist's active
// appointments on a given day, for the available-slots view.
func (r *AppointmentRepo) BookedTimes(ctx context.Context, dentistID uint64, date string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT appointment_time FROM appointments
		WHERE dentist_id=? AND appointment_date=? AND status IN ('pending','confirmed')
		ORDER BY appointment_time ASC`, dentistID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]string, 0)
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// DayStats is the per-status breakdown of a day's schedule.
type DayStats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Confirmed int `json:"confirmed"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
}

// DailyStats counts a day's appointments by status.
func (r *AppointmentRepo) DailyStats(ctx context.Context, dentistID uint64, date string) (DayStats, error) {
	var s DayStats
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(status='pending'),0),
		       COALESCE(SUM(status='confirmed'),0),
		       COALESCE(SUM(status='completed'),0),
		       COALESCE(SUM(status='cancelled'),0)
		FROM appointments WHERE dentist_id=? AND appointment_date=?`,
		dentistID, date).Scan(&s.Total, &s.Pending, &s.Confirmed, &s.Completed, &s.Cancelled)
	return s, err
}
