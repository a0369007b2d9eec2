package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/franckalain/ecoscan/internal/models"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaFS embed.FS

// DB interface defines the methods our database should implement
type DB interface {
	FindUser(ctx context.Context, email string) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
	SaveSession(ctx context.Context, session *models.Session) error
	GetActiveSession(ctx context.Context, token string) (*models.Session, error)
	DeleteSession(ctx context.Context, token string) error
	SaveScan(ctx context.Context, scan *models.ScanRecord) error
	GetRecentScans(ctx context.Context, userID string, limit int) ([]*models.ScanRecord, error)
	SumFootprintSince(ctx context.Context, userID string, since time.Time) (map[string]float64, error)
	Close() error
}

// SQLiteDB implements the DB interface
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB creates a new SQLite database connection
func NewSQLiteDB(dbPath string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// Enable foreign keys and WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("error enabling foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("error enabling WAL mode: %w", err)
	}
	// foreign_keys is per connection
	db.SetMaxOpenConns(1)

	if err := initializeSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("error initializing schema: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

func initializeSchema(db *sql.DB) error {
	schemaBytes, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("error reading schema file: %w", err)
	}

	if _, err := db.Exec(string(schemaBytes)); err != nil {
		return fmt.Errorf("error executing schema: %w", err)
	}

	logrus.WithField("component", "database").Debug("Database schema initialized successfully")
	return nil
}

// fixed width so that text ordering matches time ordering
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// FindUser returns the user registered with email, or nil when there is none
func (s *SQLiteDB) FindUser(ctx context.Context, email string) (*models.User, error) {
	return s.queryUser(ctx, `SELECT id, name, email, password_hash, created_at FROM users WHERE email = ?`, email)
}

// GetUser returns the user with the given id, or nil when there is none
func (s *SQLiteDB) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.queryUser(ctx, `SELECT id, name, email, password_hash, created_at FROM users WHERE id = ?`, id)
}

func (s *SQLiteDB) queryUser(ctx context.Context, query string, arg string) (*models.User, error) {
	var user models.User
	var createdAt string
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	user.CreatedAt = parseTime(createdAt)
	return &user, nil
}

// SaveUser inserts or updates a user
func (s *SQLiteDB) SaveUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, name, email, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			password_hash = excluded.password_hash
	`

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash, formatTime(user.CreatedAt),
	)
	return err
}

// SaveSession stores an active session
func (s *SQLiteDB) SaveSession(ctx context.Context, session *models.Session) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO sessions (token, user_id, created_at) VALUES (?, ?, ?)`,
		session.Token, session.UserID, formatTime(session.CreatedAt),
	)
	return err
}

// GetActiveSession returns the session for token, or nil when it is not active
func (s *SQLiteDB) GetActiveSession(ctx context.Context, token string) (*models.Session, error) {
	var session models.Session
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT token, user_id, created_at FROM sessions WHERE token = ?`, token,
	).Scan(&session.Token, &session.UserID, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	session.CreatedAt = parseTime(createdAt)
	return &session, nil
}

// DeleteSession ends a session. Deleting an unknown token is not an error.
func (s *SQLiteDB) DeleteSession(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
	return err
}

// SaveScan saves an analysis to the history
func (s *SQLiteDB) SaveScan(ctx context.Context, scan *models.ScanRecord) error {
	query := `
		INSERT OR REPLACE INTO scans (
			id, user_id, object_name, material, estimated_weight_g, carbon_footprint,
			footprint_unit, alt_name, image_type, image_data, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	if scan.CreatedAt.IsZero() {
		scan.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, query,
		scan.ID, scan.UserID, scan.ObjectName, scan.Material, scan.EstimatedWeight,
		scan.CarbonFootprint, scan.FootprintUnit, scan.AltName, scan.ImageType,
		scan.ImageData, formatTime(scan.CreatedAt),
	)
	return err
}

// GetRecentScans retrieves the most recent scans of a user, newest first
func (s *SQLiteDB) GetRecentScans(ctx context.Context, userID string, limit int) ([]*models.ScanRecord, error) {
	query := `
		SELECT id, user_id, object_name, material, estimated_weight_g, carbon_footprint,
			footprint_unit, alt_name, image_type, created_at
		FROM scans
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*models.ScanRecord
	for rows.Next() {
		var scan models.ScanRecord
		var createdAt string

		err := rows.Scan(
			&scan.ID, &scan.UserID, &scan.ObjectName, &scan.Material, &scan.EstimatedWeight,
			&scan.CarbonFootprint, &scan.FootprintUnit, &scan.AltName, &scan.ImageType, &createdAt,
		)
		if err != nil {
			return nil, err
		}
		scan.CreatedAt = parseTime(createdAt)

		results = append(results, &scan)
	}

	return results, rows.Err()
}

// SumFootprintSince totals the footprint of a user's scans made at or after since,
// keyed by unit
func (s *SQLiteDB) SumFootprintSince(ctx context.Context, userID string, since time.Time) (map[string]float64, error) {
	query := `
		SELECT footprint_unit, SUM(carbon_footprint)
		FROM scans
		WHERE user_id = ? AND created_at >= ?
		GROUP BY footprint_unit
	`

	rows, err := s.db.QueryContext(ctx, query, userID, formatTime(since))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make(map[string]float64)
	for rows.Next() {
		var unit string
		var sum float64
		if err := rows.Scan(&unit, &sum); err != nil {
			return nil, err
		}
		totals[unit] += sum
	}
	return totals, rows.Err()
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}
