package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jusunglee/departures-go/internal/models"
)

//go:embed schema.sql
var schemaSQL string

// SQLite persists stop lists so refreshes survive a restart
type SQLite struct {
	conn    *sql.DB
	writeMu sync.Mutex
	now     func() time.Time
}

// OpenSQLite opens the database at path and ensures the schema exists.
// Use ":memory:" for a throwaway database.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// one writer at a time; a single connection also keeps :memory: alive
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := conn.ExecContext(ctx, schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	slog.Info("Opened stop cache", "path", path)
	return &SQLite{conn: conn, now: time.Now}, nil
}

// Close closes the database connection
func (s *SQLite) Close() error {
	return s.conn.Close()
}

// SaveStops replaces the stop list for device
func (s *SQLite) SaveStops(ctx context.Context, device string, stops []models.Stop) error {
	data, err := json.Marshal(stops)
	if err != nil {
		return fmt.Errorf("encoding stops: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO device_stops (device, stops_json, stop_count, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(device) DO UPDATE SET
			stops_json = excluded.stops_json,
			stop_count = excluded.stop_count,
			updated_at = excluded.updated_at`,
		deviceKey(device), string(data), len(stops), s.now().Unix())
	if err != nil {
		return fmt.Errorf("saving stops for %s: %w", device, err)
	}
	return nil
}

// LoadStops returns the stop list saved for device
func (s *SQLite) LoadStops(ctx context.Context, device string) ([]models.Stop, error) {
	var data string
	err := s.conn.QueryRowContext(ctx,
		`SELECT stops_json FROM device_stops WHERE device = ?`, deviceKey(device)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoStops
	}
	if err != nil {
		return nil, fmt.Errorf("loading stops for %s: %w", device, err)
	}

	var stops []models.Stop
	if err := json.Unmarshal([]byte(data), &stops); err != nil {
		return nil, fmt.Errorf("decoding stops for %s: %w", device, err)
	}
	if len(stops) == 0 {
		return nil, ErrNoStops
	}
	return stops, nil
}

// Devices lists every device with a saved stop list
func (s *SQLite) Devices() []string {
	rows, err := s.conn.Query(`SELECT device FROM device_stops WHERE stop_count > 0 ORDER BY device`)
	if err != nil {
		slog.Error("Failed to list devices", "error", err)
		return nil
	}
	defer rows.Close()

	var devices []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			slog.Error("Failed to scan device", "error", err)
			return devices
		}
		devices = append(devices, d)
	}
	return devices
}
