package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/DentistProject66/backend-dentist/internal/model"
)

func reconcileFixture(t *testing.T) (*ConsultationRepo, sqlmock.Sqlmock, *sql.Tx) {
	t.Helper()
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	return NewConsultationRepo(db), mock, tx
}

var reconcileCur = model.Consultation{
	ID: 10, PatientID: 3, DentistID: 5,
	DateOfConsultation: "2026-08-30",
	TotalPrice:         200, AmountPaid: 50,
}

var reconcilePatient = model.Patient{ID: 3, FirstName: "Amel", LastName: "Haddad"}

// A first recorded amount creates the payment row. The remaining
// balance comes from the price in effect after the edit, not the
// one loaded before it.
func TestReconcilePaymentInsertUsesEffectiveTotal(t *testing.T) {
	r, mock, tx := reconcileFixture(t)

	mock.ExpectQuery("SELECT id, amount_paid FROM payments").
		WithArgs(uint64(10)).WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO payments").
		WithArgs(uint64(10), uint64(3), uint64(5), "Amel Haddad", "2026-08-30",
			80.0, "cash", 220.0, sqlmock.AnyArg(), uint64(7)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	// price raised to 300 in the same update
	if err := r.reconcilePayment(context.Background(), tx, reconcileCur, reconcilePatient, 300, 80, 7); err != nil {
		t.Fatalf("reconcilePayment: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestReconcilePaymentAdjustsOldestRow(t *testing.T) {
	r, mock, tx := reconcileFixture(t)

	mock.ExpectQuery("SELECT id, amount_paid FROM payments").
		WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "amount_paid"}).AddRow(3, 50.0))
	mock.ExpectExec("UPDATE payments SET amount_paid").
		WithArgs(80.0, uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := r.reconcilePayment(context.Background(), tx, reconcileCur, reconcilePatient, 200, 80, 7); err != nil {
		t.Fatalf("reconcilePayment: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestReconcilePaymentDeletesAtZero(t *testing.T) {
	r, mock, tx := reconcileFixture(t)

	mock.ExpectQuery("SELECT id, amount_paid FROM payments").
		WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "amount_paid"}).AddRow(3, 50.0))
	mock.ExpectExec("DELETE FROM payments").
		WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := r.reconcilePayment(context.Background(), tx, reconcileCur, reconcilePatient, 200, 0, 7); err != nil {
		t.Fatalf("reconcilePayment: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestReconcilePaymentNoopWithoutRows(t *testing.T) {
	r, mock, tx := reconcileFixture(t)

	mock.ExpectQuery("SELECT id, amount_paid FROM payments").
		WithArgs(uint64(10)).WillReturnError(sql.ErrNoRows)

	if err := r.reconcilePayment(context.Background(), tx, reconcileCur, reconcilePatient, 200, 0, 7); err != nil {
		t.Fatalf("reconcilePayment: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
