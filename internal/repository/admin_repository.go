package repository

import (
	"context"
	"database/sql"
)

// AdminRepo serves the super-admin dashboard with cross-table
// aggregates. It reads every practice's data and is only reachable
// behind the super_admin role gate.
type AdminRepo struct{ db *sql.DB }

func NewAdminRepo(db *sql.DB) *AdminRepo { return &AdminRepo{db: db} }

// RoleStatusCount is one cell of the user breakdown.
type RoleStatusCount struct {
	Role   string `json:"role"`
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// MonthCount is one month of the registration trend.
type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// SystemStats is the dashboard payload.
type SystemStats struct {
	Users                []RoleStatusCount `json:"users"`
	TotalPatients        int               `json:"total_patients"`
	TotalConsultations   int               `json:"total_consultations"`
	TotalRevenue         float64           `json:"total_revenue"`
	OutstandingBalance   float64           `json:"outstanding_balance"`
	MonthlyRegistrations []MonthCount      `json:"monthly_registrations"`
}

// Stats collects system-wide totals for the admin dashboard.
func (r *AdminRepo) Stats(ctx context.Context) (SystemStats, error) {
	var s SystemStats

	rows, err := r.db.QueryContext(ctx,
		"SELECT role, status, COUNT(*) FROM users GROUP BY role, status")
	if err != nil {
		return SystemStats{}, err
	}
	for rows.Next() {
		var c RoleStatusCount
		if err := rows.Scan(&c.Role, &c.Status, &c.Count); err != nil {
			rows.Close()
			return SystemStats{}, err
		}
		s.Users = append(s.Users, c)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return SystemStats{}, err
	}
	rows.Close()

	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM patients WHERE is_archived=FALSE").Scan(&s.TotalPatients); err != nil {
		return SystemStats{}, err
	}
	if err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(amount_paid),0), COALESCE(SUM(remaining_balance),0)
		FROM consultations`).Scan(&s.TotalConsultations, &s.TotalRevenue, &s.OutstandingBalance); err != nil {
		return SystemStats{}, err
	}

	rows, err = r.db.QueryContext(ctx, `
		SELECT DATE_FORMAT(created_at, '%Y-%m') AS m, COUNT(*)
		FROM users
		WHERE created_at >= DATE_SUB(CURDATE(), INTERVAL 12 MONTH)
		GROUP BY m ORDER BY m ASC`)
	if err != nil {
		return SystemStats{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var m MonthCount
		if err := rows.Scan(&m.Month, &m.Count); err != nil {
			return SystemStats{}, err
		}
		s.MonthlyRegistrations = append(s.MonthlyRegistrations, m)
	}
	return s, rows.Err()
}

// PracticeStats summarizes one dentist's practice for the admin
// dentist-detail view.
type PracticeStats struct {
	Patients           int     `json:"patients"`
	Consultations      int     `json:"consultations"`
	Appointments       int     `json:"appointments"`
	Revenue            float64 `json:"revenue"`
	OutstandingBalance float64 `json:"outstanding_balance"`
}

// PracticeStats aggregates one practice's counters.
func (r *AdminRepo) PracticeStats(ctx context.Context, dentistID uint64) (PracticeStats, error) {
	var s PracticeStats
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM patients WHERE dentist_id=? AND is_archived=FALSE",
		dentistID).Scan(&s.Patients); err != nil {
		return PracticeStats{}, err
	}
	if err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(amount_paid),0), COALESCE(SUM(remaining_balance),0)
		FROM consultations WHERE dentist_id=?`,
		dentistID).Scan(&s.Consultations, &s.Revenue, &s.OutstandingBalance); err != nil {
		return PracticeStats{}, err
	}
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM appointments WHERE dentist_id=?",
		dentistID).Scan(&s.Appointments); err != nil {
		return PracticeStats{}, err
	}
	return s, nil
}
