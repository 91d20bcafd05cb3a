package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/DentistProject66/backend-dentist/internal/model"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestIDAvailable(t *testing.T) {
	const practice = uint64(5)
	ctx := context.Background()

	t.Run("free id", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("SELECT dentist_id FROM consultations").
			WithArgs(uint64(10)).WillReturnError(sql.ErrNoRows)

		ok, err := idAvailable(ctx, db, "consultations", 10, practice)
		if err != nil || !ok {
			t.Errorf("idAvailable = (%v, %v), want (true, nil)", ok, err)
		}
	})

	t.Run("same practice holds id", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("SELECT dentist_id FROM consultations").
			WithArgs(uint64(10)).
			WillReturnRows(sqlmock.NewRows([]string{"dentist_id"}).AddRow(practice))

		ok, err := idAvailable(ctx, db, "consultations", 10, practice)
		if err != nil || ok {
			t.Errorf("idAvailable = (%v, %v), want (false, nil)", ok, err)
		}
	})

	t.Run("foreign practice holds id", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("SELECT dentist_id FROM consultations").
			WithArgs(uint64(10)).
			WillReturnRows(sqlmock.NewRows([]string{"dentist_id"}).AddRow(practice + 1))

		if _, err := idAvailable(ctx, db, "consultations", 10, practice); err != ErrConflict {
			t.Errorf("err = %v, want ErrConflict", err)
		}
	})
}

func archiveRow(t *testing.T, id, dentistID uint64, table string, snap model.Snapshot) *sqlmock.Rows {
	t.Helper()
	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	return sqlmock.NewRows([]string{
		"id", "dentist_id", "original_table", "original_id",
		"data_json", "archive_type", "archived_by", "archived_at",
	}).AddRow(id, dentistID, table, 10, data, model.ArchiveTypeDeleted, dentistID, time.Now())
}

func TestRestorePatientArchive(t *testing.T) {
	const practice = uint64(5)
	db, mock := newMockDB(t)
	r := NewArchiveRepo(db)

	snap := model.Snapshot{Patient: &model.Patient{ID: 10, DentistID: practice}}
	mock.ExpectQuery("FROM archives").WithArgs(uint64(1)).
		WillReturnRows(archiveRow(t, 1, practice, model.TablePatients, snap))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE patients SET is_archived=FALSE").
		WithArgs(uint64(10), practice).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM archives").WithArgs(uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := r.Restore(context.Background(), practice, 1); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

// A retried restore finds the consultation already in place for the
// same practice. It skips the insert, restores what is still
// missing and consumes the archive row.
func TestRestoreConsultationRetrySkipsExisting(t *testing.T) {
	const practice = uint64(5)
	db, mock := newMockDB(t)
	r := NewArchiveRepo(db)

	snap := model.Snapshot{
		Consultation: &model.Consultation{ID: 10, PatientID: 3, DentistID: practice},
		Payments:     []model.Payment{{ID: 20, ConsultationID: 10, DentistID: practice}},
	}
	mock.ExpectQuery("FROM archives").WithArgs(uint64(1)).
		WillReturnRows(archiveRow(t, 1, practice, model.TableConsultations, snap))
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT dentist_id FROM consultations").WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"dentist_id"}).AddRow(practice))
	mock.ExpectQuery("SELECT dentist_id FROM payments").WithArgs(uint64(20)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO payments").
		WillReturnResult(sqlmock.NewResult(20, 1))
	mock.ExpectExec("DELETE FROM archives").WithArgs(uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := r.Restore(context.Background(), practice, 1); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestRestoreForeignIDConflict(t *testing.T) {
	const practice = uint64(5)
	db, mock := newMockDB(t)
	r := NewArchiveRepo(db)

	snap := model.Snapshot{
		Consultation: &model.Consultation{ID: 10, DentistID: practice},
	}
	mock.ExpectQuery("FROM archives").WithArgs(uint64(1)).
		WillReturnRows(archiveRow(t, 1, practice, model.TableConsultations, snap))
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT dentist_id FROM consultations").WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"dentist_id"}).AddRow(practice + 1))
	mock.ExpectRollback()

	if err := r.Restore(context.Background(), practice, 1); err != ErrConflict {
		t.Fatalf("Restore err = %v, want ErrConflict", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestRestoreOutOfScopeArchive(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewArchiveRepo(db)

	snap := model.Snapshot{Patient: &model.Patient{ID: 10}}
	mock.ExpectQuery("FROM archives").WithArgs(uint64(1)).
		WillReturnRows(archiveRow(t, 1, 9, model.TablePatients, snap))

	if err := r.Restore(context.Background(), 5, 1); err != ErrForbidden {
		t.Fatalf("Restore err = %v, want ErrForbidden", err)
	}
}

func TestRestoreCorruptSnapshot(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewArchiveRepo(db)

	rows := sqlmock.NewRows([]string{
		"id", "dentist_id", "original_table", "original_id",
		"data_json", "archive_type", "archived_by", "archived_at",
	}).AddRow(1, 5, model.TablePatients, 10, []byte("{not json"), model.ArchiveTypeDeleted, 5, time.Now())
	mock.ExpectQuery("FROM archives").WithArgs(uint64(1)).WillReturnRows(rows)

	if err := r.Restore(context.Background(), 5, 1); err != ErrCorruptArchive {
		t.Fatalf("Restore err = %v, want ErrCorruptArchive", err)
	}
}
