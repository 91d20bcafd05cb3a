package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/DentistProject66/backend-dentist/internal/model"
	"github.com/DentistProject66/backend-dentist/internal/utils"
)

const paymentColumns = "id,consultation_id,patient_id,dentist_id,patient_name,DATE_FORMAT(payment_date,'%Y-%m-%d'),amount_paid,payment_method,remaining_balance,receipt_number,created_by,created_at"

// PaymentRepo provides access to the payments table. Creating and
// deleting a payment always adjusts the parent consultation's
// amount_paid in the same transaction, so the consultation ledger
// and the payment rows cannot drift apart.
type PaymentRepo struct{ db *sql.DB }

func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

func scanPayment(row interface{ Scan(...any) error }) (model.Payment, error) {
	var p model.Payment
	err := row.Scan(&p.ID, &p.ConsultationID, &p.PatientID, &p.DentistID,
		&p.PatientName, &p.PaymentDate, &p.AmountPaid, &p.PaymentMethod,
		&p.RemainingBalance, &p.ReceiptNumber, &p.CreatedBy, &p.CreatedAt)
	return p, err
}

// PaymentFilter narrows List results.
type PaymentFilter struct {
	DateFrom  string
	DateTo    string
	PatientID uint64
	Method    string
	Search    string
	Limit     int
	Offset    int
}

// PaymentTotals is the aggregate block returned with each list.
type PaymentTotals struct {
	Count       int     `json:"count"`
	TotalAmount float64 `json:"total_amount"`
}

// List returns the practice's payments, newest first, with
// aggregate totals over the same filter.
func (r *PaymentRepo) List(ctx context.Context, dentistID uint64, f PaymentFilter) ([]model.Payment, int, PaymentTotals, error) {
	where := "WHERE dentist_id=?"
	args := []any{dentistID}
	if f.DateFrom != "" {
		where += " AND payment_date >= ?"
		args = append(args, f.DateFrom)
	}
	if f.DateTo != "" {
		where += " AND payment_date <= ?"
		args = append(args, f.DateTo)
	}
	if f.PatientID != 0 {
		where += " AND patient_id=?"
		args = append(args, f.PatientID)
	}
	if f.Method != "" {
		where += " AND payment_method=?"
		args = append(args, f.Method)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		where += " AND patient_name LIKE ?"
		args = append(args, "%"+s+"%")
	}

	var totals PaymentTotals
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(amount_paid),0) FROM payments "+where, args...).
		Scan(&totals.Count, &totals.TotalAmount); err != nil {
		return nil, 0, PaymentTotals{}, err
	}

	q := "SELECT " + paymentColumns + " FROM payments " + where +
		" ORDER BY payment_date DESC, id DESC LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, q, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, PaymentTotals{}, err
	}
	defer rows.Close()

	out := make([]model.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, 0, PaymentTotals{}, err
		}
		out = append(out, p)
	}
	return out, totals.Count, totals, rows.Err()
}

// GetByID fetches one payment within the practice scope.
func (r *PaymentRepo) GetByID(ctx context.Context, dentistID, id uint64) (model.Payment, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE id=? LIMIT 1", id))
	if err != nil {
		return model.Payment{}, err
	}
	if p.DentistID != dentistID {
		return model.Payment{}, ErrForbidden
	}
	return p, nil
}

// Create records a payment against a consultation. The amount may
// not exceed the consultation's remaining balance
// (ErrBalanceExceeded); on success the consultation's amount_paid
// grows by the same amount, atomically.
func (r *PaymentRepo) Create(ctx context.Context, dentistID, createdBy, consultationID uint64, paymentDate string, amount float64, method string) (model.Payment, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Payment{}, err
	}
	defer tx.Rollback()

	c, err := scanConsultation(tx.QueryRowContext(ctx,
		"SELECT "+consultationColumns+" FROM consultations WHERE id=? LIMIT 1 FOR UPDATE", consultationID))
	if err != nil {
		return model.Payment{}, err
	}
	if c.DentistID != dentistID {
		return model.Payment{}, ErrForbidden
	}
	if amount > c.RemainingBalance {
		return model.Payment{}, ErrBalanceExceeded
	}

	var patientName string
	if err := tx.QueryRowContext(ctx,
		"SELECT CONCAT(first_name,' ',last_name) FROM patients WHERE id=?", c.PatientID).
		Scan(&patientName); err != nil {
		return model.Payment{}, err
	}

	if method == "" {
		method = "cash"
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO payments
		(consultation_id, patient_id, dentist_id, patient_name, payment_date, amount_paid, payment_method, remaining_balance, receipt_number, created_by)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		consultationID, c.PatientID, dentistID, patientName, paymentDate,
		amount, method, c.RemainingBalance-amount,
		utils.ReceiptNumber(utils.ReceiptPayment, dentistID), createdBy)
	if err != nil {
		return model.Payment{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Payment{}, err
	}

	if _, err = tx.ExecContext(ctx,
		"UPDATE consultations SET amount_paid = amount_paid + ? WHERE id=?",
		amount, consultationID); err != nil {
		return model.Payment{}, err
	}

	p, err := scanPayment(tx.QueryRowContext(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE id=?", id))
	if err != nil {
		return model.Payment{}, err
	}
	return p, tx.Commit()
}

// Update edits a payment's date and method. The amount is
// immutable after creation; correcting it means deleting and
// re-recording the payment.
func (r *PaymentRepo) Update(ctx context.Context, dentistID, id uint64, paymentDate, method *string) (model.Payment, error) {
	if _, err := r.GetByID(ctx, dentistID, id); err != nil {
		return model.Payment{}, err
	}
	sets := []string{}
	args := []any{}
	if paymentDate != nil {
		sets = append(sets, "payment_date=?")
		args = append(args, *paymentDate)
	}
	if method != nil {
		sets = append(sets, "payment_method=?")
		args = append(args, *method)
	}
	if len(sets) > 0 {
		args = append(args, id)
		if _, err := r.db.ExecContext(ctx,
			"UPDATE payments SET "+strings.Join(sets, ", ")+" WHERE id=?", args...); err != nil {
			return model.Payment{}, err
		}
	}
	return r.GetByID(ctx, dentistID, id)
}

// Delete removes a payment and gives its amount back to the
// consultation's balance, atomically. The consultation may already
// be gone when the payment survived a consultation hard delete; in
// that case only the payment row is removed.
func (r *PaymentRepo) Delete(ctx context.Context, dentistID, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	p, err := scanPayment(tx.QueryRowContext(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE id=? LIMIT 1 FOR UPDATE", id))
	if err != nil {
		return err
	}
	if p.DentistID != dentistID {
		return ErrForbidden
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM payments WHERE id=?", id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		"UPDATE consultations SET amount_paid = amount_paid - ? WHERE id=?",
		p.AmountPaid, p.ConsultationID); err != nil {
		return err
	}
	return tx.Commit()
}

// DailyIncome is one day's income in the financial report.
type DailyIncome struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
	Count  int     `json:"count"`
}

// MethodIncome is one payment method's share in the report.
type MethodIncome struct {
	Method string  `json:"method"`
	Amount float64 `json:"amount"`
	Count  int     `json:"count"`
}

// FinancialReport aggregates the practice's income over a period.
type FinancialReport struct {
	DateFrom           string         `json:"date_from"`
	DateTo             string         `json:"date_to"`
	TotalIncome        float64        `json:"total_income"`
	PaymentCount       int            `json:"payment_count"`
	OutstandingBalance float64        `json:"outstanding_balance"`
	DailyIncome        []DailyIncome  `json:"daily_income"`
	ByMethod           []MethodIncome `json:"by_method"`
}

// Report builds the financial report for [from, to].
func (r *PaymentRepo) Report(ctx context.Context, dentistID uint64, from, to string) (FinancialReport, error) {
	rep := FinancialReport{DateFrom: from, DateTo: to}

	if err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount_paid),0), COUNT(*)
		FROM payments WHERE dentist_id=? AND payment_date BETWEEN ? AND ?`,
		dentistID, from, to).Scan(&rep.TotalIncome, &rep.PaymentCount); err != nil {
		return FinancialReport{}, err
	}

	// Outstanding balance is a present-state figure, not bounded
	// by the report period.
	if err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(remaining_balance),0) FROM consultations WHERE dentist_id=?",
		dentistID).Scan(&rep.OutstandingBalance); err != nil {
		return FinancialReport{}, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT DATE_FORMAT(payment_date,'%Y-%m-%d'), SUM(amount_paid), COUNT(*)
		FROM payments WHERE dentist_id=? AND payment_date BETWEEN ? AND ?
		GROUP BY payment_date ORDER BY payment_date ASC`,
		dentistID, from, to)
	if err != nil {
		return FinancialReport{}, err
	}
	for rows.Next() {
		var d DailyIncome
		if err := rows.Scan(&d.Date, &d.Amount, &d.Count); err != nil {
			rows.Close()
			return FinancialReport{}, err
		}
		rep.DailyIncome = append(rep.DailyIncome, d)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return FinancialReport{}, err
	}
	rows.Close()

	rows, err = r.db.QueryContext(ctx, `
		SELECT payment_method, SUM(amount_paid), COUNT(*)
		FROM payments WHERE dentist_id=? AND payment_date BETWEEN ? AND ?
		GROUP BY payment_method ORDER BY SUM(amount_paid) DESC`,
		dentistID, from, to)
	if err != nil {
		return FinancialReport{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var m MethodIncome
		if err := rows.Scan(&m.Method, &m.Amount, &m.Count); err != nil {
			return FinancialReport{}, err
		}
		rep.ByMethod = append(rep.ByMethod, m)
	}
	return rep, rows.Err()
}

// ReceiptData assembles the printable receipt for a payment.
func (r *PaymentRepo) ReceiptData(ctx context.Context, dentistID, id uint64) (Receipt, error) {
	p, err := r.GetByID(ctx, dentistID, id)
	if err != nil {
		return Receipt{}, err
	}
	rc := Receipt{
		ReceiptNumber:      p.ReceiptNumber,
		DateOfConsultation: p.PaymentDate,
		PatientName:        p.PatientName,
		AmountPaid:         p.AmountPaid,
		RemainingBalance:   p.RemainingBalance,
	}
	if err := r.db.QueryRowContext(ctx,
		"SELECT CONCAT(first_name,' ',last_name) FROM users WHERE id=?", p.DentistID).
		Scan(&rc.DentistName); err != nil {
		return Receipt{}, err
	}
	if err := r.db.QueryRowContext(ctx,
		"SELECT total_price FROM consultations WHERE id=?", p.ConsultationID).
		Scan(&rc.TotalPrice); err != nil && err != sql.ErrNoRows {
		return Receipt{}, err
	}
	return rc, nil
}
