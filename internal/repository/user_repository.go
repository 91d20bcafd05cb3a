package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/DentistProject66/backend-dentist/internal/model"
	"github.com/DentistProject66/backend-dentist/internal/utils"
)

const userColumns = "id,email,password_hash,first_name,last_name,phone,role,practice_name,status,approved_at,approved_by,created_at,updated_at"

// UserRepo provides access to the users table: registration,
// lookup, profile maintenance and the super-admin approval
// workflow.
type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// DB exposes the underlying handle so handlers can start
// transactions that span repositories.
func (r *UserRepo) DB() *sql.DB { return r.db }

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Phone, &u.Role, &u.PracticeName, &u.Status, &u.ApprovedAt, &u.ApprovedBy,
		&u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Create registers a new account in pending status and returns its
// id. The password is bcrypt-hashed here so callers never handle
// the hash themselves.
func (r *UserRepo) Create(ctx context.Context, email, password, firstName, lastName string, phone *string, role string, practiceName *string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, first_name, last_name, phone, role, practice_name, status) VALUES (?,?,?,?,?,?,?,'pending')",
		email, hash, firstName, lastName, phone, role, practiceName)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// UpdateProfile overwrites the caller-editable profile fields.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, firstName, lastName string, phone, practiceName *string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE users SET first_name=?, last_name=?, phone=?, practice_name=? WHERE id=?",
		firstName, lastName, phone, practiceName, id)
	return err
}

// UpdatePassword stores a new bcrypt hash for the user.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, password string, cost int) error {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, "UPDATE users SET password_hash=? WHERE id=?", hash, id)
	return err
}

// ListPending returns all pending registrations, oldest first.
func (r *UserRepo) ListPending(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE status='pending' ORDER BY created_at ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// List returns users filtered by optional status and role, newest
// first, with offset pagination. The second return value is the
// total row count for the filter.
func (r *UserRepo) List(ctx context.Context, status, role string, limit, offset int) ([]model.User, int, error) {
	where := ""
	args := []any{}
	switch {
	case status != "" && role != "":
		where = "WHERE status=? AND role=?"
		args = append(args, status, role)
	case status != "":
		where = "WHERE status=?"
		args = append(args, status)
	case role != "":
		where = "WHERE role=?"
		args = append(args, role)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := "SELECT " + userColumns + " FROM users " + where + " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, q, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	users := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

// SetStatus transitions a pending account to approved or rejected,
// stamping the acting admin. sql.ErrNoRows is returned when the
// user does not exist or has already been processed; rejected
// accounts are terminal by construction.
func (r *UserRepo) SetStatus(ctx context.Context, userID, adminID uint64, status string) (model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? AND status='pending' LIMIT 1", userID))
	if err != nil {
		return model.User{}, err
	}
	_, err = r.db.ExecContext(ctx,
		"UPDATE users SET status=?, approved_at=NOW(), approved_by=? WHERE id=?",
		status, adminID, userID)
	if err != nil {
		return model.User{}, err
	}
	u.Status = status
	return u, nil
}
