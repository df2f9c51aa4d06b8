package database

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"
)

// Storage is the minimal store contract the app wires through the router
type Storage interface {
	// Lifecycle methods
	Init() error
	Close() error
	HealthCheck() error

	// GORM DB access
	GetDB() interface{} // Returns *gorm.DB for GORMStore, *sql.DB for PostgreSQLStore
}

// PostgreSQLStore is a raw database/sql store used for reporting queries
// that do not justify ORM mapping (admin dashboard counters).
type PostgreSQLStore struct {
	db *sql.DB
}

// StartPostgres opens a plain database/sql connection via lib/pq
func StartPostgres() (*PostgreSQLStore, error) {
	connStr := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER_NAME"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSL_MODE"),
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &PostgreSQLStore{db: db}, nil
}

func (s *PostgreSQLStore) Init() error { return nil }

func (s *PostgreSQLStore) Close() error { return s.db.Close() }

func (s *PostgreSQLStore) HealthCheck() error { return s.db.Ping() }

func (s *PostgreSQLStore) GetDB() interface{} { return s.db }

// LibraryStats holds the admin dashboard counters
type LibraryStats struct {
	TotalUsers        int64 `json:"total_users"`
	TotalBooks        int64 `json:"total_books"`
	ActiveLoans       int64 `json:"active_loans"`
	OverdueLoans      int64 `json:"overdue_loans"`
	PendingFines      int64 `json:"pending_fines"`
	OpenReservations  int64 `json:"open_reservations"`
	BlacklistedTokens int64 `json:"blacklisted_tokens"`
}

// Stats runs the dashboard counter queries in one round trip each
func (s *PostgreSQLStore) Stats() (*LibraryStats, error) {
	stats := &LibraryStats{}

	queries := []struct {
		dest  *int64
		query string
	}{
		{&stats.TotalUsers, `SELECT COUNT(*) FROM users WHERE deleted_at IS NULL`},
		{&stats.TotalBooks, `SELECT COUNT(*) FROM books WHERE deleted_at IS NULL`},
		{&stats.ActiveLoans, `SELECT COUNT(*) FROM loans WHERE status = 'ACTIVE' AND deleted_at IS NULL`},
		{&stats.OverdueLoans, `SELECT COUNT(*) FROM loans WHERE status = 'OVERDUE' AND deleted_at IS NULL`},
		{&stats.PendingFines, `SELECT COUNT(*) FROM fines WHERE status = 'PENDING' AND deleted_at IS NULL`},
		{&stats.OpenReservations, `SELECT COUNT(*) FROM reservations WHERE status IN ('PENDING','APPROVED','ON_HOLD') AND deleted_at IS NULL`},
		{&stats.BlacklistedTokens, `SELECT COUNT(*) FROM token_blacklist WHERE expires_at > NOW() AND deleted_at IS NULL`},
	}

	for _, q := range queries {
		if err := s.db.QueryRow(q.query).Scan(q.dest); err != nil {
			return nil, fmt.Errorf("stats query failed: %w", err)
		}
	}

	return stats, nil
}
