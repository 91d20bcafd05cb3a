package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/DentistProject66/backend-dentist/internal/model"
)

// AssignmentRepo manages the dentist/assistant pairings that drive
// the access-delegation model. An assistant's effective practice
// scope is always the dentist they are assigned to here.
type AssignmentRepo struct{ db *sql.DB }

func NewAssignmentRepo(db *sql.DB) *AssignmentRepo { return &AssignmentRepo{db: db} }

// DentistFor returns the dentist id the assistant is assigned to,
// or ErrNotAssigned when no assignment row exists.
func (r *AssignmentRepo) DentistFor(ctx context.Context, assistantID uint64) (uint64, error) {
	var dentistID uint64
	err := r.db.QueryRowContext(ctx,
		"SELECT dentist_id FROM user_assignments WHERE assistant_id=? LIMIT 1",
		assistantID).Scan(&dentistID)
	if err == sql.ErrNoRows {
		return 0, ErrNotAssigned
	}
	if err != nil {
		return 0, err
	}
	return dentistID, nil
}

// AssignedDentist loads the dentist a given assistant works for,
// for display in login/profile responses. Returns sql.ErrNoRows
// when the assistant has no assignment.
func (r *AssignmentRepo) AssignedDentist(ctx context.Context, assistantID uint64) (model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `
		SELECT `+qualifiedUserColumns("d")+`
		FROM user_assignments ua
		JOIN users d ON d.id = ua.dentist_id
		WHERE ua.assistant_id = ? LIMIT 1`, assistantID))
}

// AssistantInfo is one assigned staff row in the admin dentist view.
type AssistantInfo struct {
	ID         uint64    `json:"id"`
	Email      string    `json:"email"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Phone      *string   `json:"phone"`
	AssignedAt time.Time `json:"assigned_at"`
}

// ListAssistants returns the assistants assigned to a dentist.
func (r *AssignmentRepo) ListAssistants(ctx context.Context, dentistID uint64) ([]AssistantInfo, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT u.id, u.email, u.first_name, u.last_name, u.phone, ua.assigned_at
		FROM user_assignments ua
		JOIN users u ON u.id = ua.assistant_id
		WHERE ua.dentist_id = ?`, dentistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]AssistantInfo, 0)
	for rows.Next() {
		var a AssistantInfo
		if err := rows.Scan(&a.ID, &a.Email, &a.FirstName, &a.LastName, &a.Phone, &a.AssignedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// AutoAssign pairs a freshly approved dentist or assistant with the
// first approved counterpart of the opposite role sharing the same
// practice name (ascending id). Zero matches is not an error; the
// check runs again when the counterpart is approved. The unique
// key on assistant_id makes a duplicate attempt a no-op.
func (r *AssignmentRepo) AutoAssign(ctx context.Context, userID uint64, role string, practiceName *string) error {
	if practiceName == nil || *practiceName == "" {
		return nil
	}
	if role != model.RoleDentist && role != model.RoleAssistant {
		return nil
	}
	opposite := model.RoleDentist
	if role == model.RoleDentist {
		opposite = model.RoleAssistant
	}

	var counterpartID uint64
	err := r.db.QueryRowContext(ctx,
		"SELECT id FROM users WHERE role=? AND practice_name=? AND status='approved' ORDER BY id ASC LIMIT 1",
		opposite, *practiceName).Scan(&counterpartID)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return err
	}

	dentistID, assistantID := userID, counterpartID
	if role == model.RoleAssistant {
		dentistID, assistantID = counterpartID, userID
	}

	var existing uint64
	err = r.db.QueryRowContext(ctx,
		"SELECT id FROM user_assignments WHERE dentist_id=? AND assistant_id=? LIMIT 1",
		dentistID, assistantID).Scan(&existing)
	if err == nil {
		return nil // already paired
	}
	if err != sql.ErrNoRows {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		"INSERT INTO user_assignments (dentist_id, assistant_id) VALUES (?,?)",
		dentistID, assistantID)
	if isDuplicateKey(err) {
		return nil
	}
	return err
}

// qualifiedUserColumns prefixes the shared user column list with a
// table alias for joined queries.
func qualifiedUserColumns(alias string) string {
	return alias + ".id," + alias + ".email," + alias + ".password_hash," +
		alias + ".first_name," + alias + ".last_name," + alias + ".phone," +
		alias + ".role," + alias + ".practice_name," + alias + ".status," +
		alias + ".approved_at," + alias + ".approved_by," + alias + ".created_at," + alias + ".updated_at"
}
