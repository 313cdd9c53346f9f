// Package sqlite records confirmed viewing appointments in an embedded SQLite
// database so they outlive sessions.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/propertytek/rentbot/internal/logging"
	"github.com/propertytek/rentbot/pkg/domain"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNotFound is returned for unknown appointment IDs.
var ErrNotFound = errors.New("appointment not found")

// Ledger implements ports.AppointmentSink on SQLite.
type Ledger struct {
	db     *sql.DB
	logger *slog.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(led *Ledger) {
		led.logger = l
	}
}

// Open opens (or creates) the ledger database at path and runs pending
// migrations. Pass ":memory:" for an in-memory database.
func Open(path string, opts ...Option) (*Ledger, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// One connection avoids "database is locked" and keeps :memory: a single database.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA busy_timeout = 5000", "PRAGMA journal_mode=WAL"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting %q: %w", pragma, err)
		}
	}

	l := &Ledger{db: db, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(l)
	}
	if err := l.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return l, nil
}

// Close closes the underlying database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) migrate() error {
	if _, err := l.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		var version int
		if _, err := fmt.Sscanf(entry.Name(), "%d_", &version); err != nil {
			return fmt.Errorf("parsing migration version from %q: %w", entry.Name(), err)
		}

		var exists int
		if err := l.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := l.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
		l.logger.Debug("applied migration", "version", version)
	}
	return nil
}

// Record stores a confirmed appointment. Recording the same ID twice is a no-op.
func (l *Ledger) Record(ctx context.Context, a domain.Appointment) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO appointments
			(id, user_id, property_id, address, slot_id, slot_display, slot_datetime, name, email, phone, pets, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.PropertyID, a.Address, a.Slot.ID, a.Slot.Display, a.Slot.DateTime,
		a.Contact.Name, a.Contact.Email, a.Contact.Phone, a.Contact.Pets,
		a.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("recording appointment %s: %w", a.ID, err)
	}
	return nil
}

const selectAppointment = `
	SELECT id, user_id, property_id, address, slot_id, slot_display, slot_datetime, name, email, phone, pets, created_at
	FROM appointments`

// Get returns one appointment.
func (l *Ledger) Get(ctx context.Context, id string) (domain.Appointment, error) {
	row := l.db.QueryRowContext(ctx, selectAppointment+" WHERE id = ?", id)
	a, err := scanAppointment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Appointment{}, ErrNotFound
	}
	return a, err
}

// List returns the newest appointments first, optionally for one user.
// A non-positive limit returns all.
func (l *Ledger) List(ctx context.Context, userID string, limit int) ([]domain.Appointment, error) {
	query := selectAppointment
	var args []any
	if userID != "" {
		query += " WHERE user_id = ?"
		args = append(args, userID)
	}
	query += " ORDER BY created_at DESC, id"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing appointments: %w", err)
	}
	defer rows.Close()

	var out []domain.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAppointment(s scanner) (domain.Appointment, error) {
	var a domain.Appointment
	var createdAt string
	err := s.Scan(&a.ID, &a.UserID, &a.PropertyID, &a.Address,
		&a.Slot.ID, &a.Slot.Display, &a.Slot.DateTime,
		&a.Contact.Name, &a.Contact.Email, &a.Contact.Phone, &a.Contact.Pets, &createdAt)
	if err != nil {
		return domain.Appointment{}, err
	}
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return domain.Appointment{}, fmt.Errorf("parsing created_at: %w", err)
	}
	a.CreatedAt = t
	a.Slot.Available = true
	return a, nil
}
