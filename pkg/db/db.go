// Package db pkg/db/db.go provides SQLite storage for the Tucan fleet API.
package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"go.uber.org/zap"

	"github.com/R0eii/Tucan/pkg/models"
)

const (
	// SQL statements for database initialization.
	createTablesSQL = `
	-- Device records, keyed by the human-readable id (DEV-NNNNN).
	-- History windows are stored as JSON documents; they are regenerated
	-- wholesale at creation time, never appended to.
	CREATE TABLE IF NOT EXISTS devices (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		ip TEXT NOT NULL,
		mac TEXT NOT NULL,
		company TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'ok',
		error_message TEXT,
		last_update TIMESTAMP NOT NULL,
		department TEXT NOT NULL,
		location TEXT NOT NULL,
		device_model TEXT NOT NULL,
		os TEXT NOT NULL,
		battery REAL NOT NULL,
		signal_strength REAL NOT NULL,
		uptime REAL NOT NULL,
		last_incident TIMESTAMP,
		recent_history TEXT NOT NULL DEFAULT '[]',
		long_term_history TEXT NOT NULL DEFAULT '[]'
	);

	-- Operator accounts
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'Administrator'
	);

	-- Indexes for better query performance
	CREATE INDEX IF NOT EXISTS idx_devices_company
		ON devices(company);
	CREATE INDEX IF NOT EXISTS idx_devices_last_update
		ON devices(last_update);

	PRAGMA foreign_keys=ON;
	`

	deviceColumns = `id, name, ip, mac, company, status, error_message, last_update,
		department, location, device_model, os, battery, signal_strength, uptime,
		last_incident, recent_history, long_term_history`
)

// DB represents the database connection and operations.
type DB struct {
	*sql.DB
}

// New creates a new database connection and initializes the schema.
func New(dbPath string) (Service, error) {
	sqlDB, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedOpenDB, err)
	}

	// Enable WAL mode for better concurrent access
	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToEnableWAL, err)
	}

	db := &DB{sqlDB}
	if err := db.initSchema(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToInit, err)
	}

	return db, nil
}

// initSchema creates the database tables if they don't exist.
func (db *DB) initSchema() error {
	_, err := db.Exec(createTablesSQL)

	return err
}

// ListDevices returns devices matching the filter, most recently updated
// first. Company "all" or "" means no company filter; search matches name,
// id or ip case-insensitively.
func (db *DB) ListDevices(filter models.DeviceFilter) ([]models.Device, error) {
	query := "SELECT " + deviceColumns + " FROM devices"

	var (
		conds []string
		args  []interface{}
	)

	if filter.Company != "" && filter.Company != "all" {
		conds = append(conds, "company = ?")
		args = append(args, filter.Company)
	}

	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		conds = append(conds, "(lower(name) LIKE ? OR lower(id) LIKE ? OR lower(ip) LIKE ?)")
		args = append(args, pattern, pattern, pattern)
	}

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	query += " ORDER BY last_update DESC"

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w devices: %w", ErrFailedToQuery, err)
	}
	defer closeRows(rows)

	var devices []models.Device

	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}

		devices = append(devices, *d)
	}

	return devices, rows.Err()
}

// GetDevice looks up a device by its human-readable id.
func (db *DB) GetDevice(id string) (*models.Device, error) {
	row := db.QueryRow("SELECT "+deviceColumns+" FROM devices WHERE id = ?", id)

	d, err := scanDevice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDeviceNotFound
	}

	if err != nil {
		return nil, err
	}

	return d, nil
}

func (db *DB) CountDevices() (int, error) {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM devices").Scan(&count); err != nil {
		return 0, fmt.Errorf("%w device count: %w", ErrFailedToQuery, err)
	}

	return count, nil
}

func (db *DB) CreateDevice(device *models.Device) error {
	args, err := deviceArgs(device)
	if err != nil {
		return err
	}

	const insertSQL = `
		INSERT INTO devices (` + deviceColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	if _, err := db.Exec(insertSQL, args...); err != nil {
		return fmt.Errorf("%w device: %w", ErrFailedToInsert, err)
	}

	return nil
}

// UpdateDevice writes the full device row (last-write-wins per record).
func (db *DB) UpdateDevice(device *models.Device) error {
	args, err := deviceArgs(device)
	if err != nil {
		return err
	}

	const updateSQL = `
		UPDATE devices SET
			name = ?, ip = ?, mac = ?, company = ?, status = ?, error_message = ?,
			last_update = ?, department = ?, location = ?, device_model = ?, os = ?,
			battery = ?, signal_strength = ?, uptime = ?, last_incident = ?,
			recent_history = ?, long_term_history = ?
		WHERE id = ?
	`

	// deviceArgs puts id first; rotate it to the WHERE position.
	result, err := db.Exec(updateSQL, append(args[1:], args[0])...)
	if err != nil {
		return fmt.Errorf("%w device: %w", ErrFailedToUpdate, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w device: %w", ErrFailedToUpdate, err)
	}

	if affected == 0 {
		return ErrDeviceNotFound
	}

	return nil
}

// DeleteDevice removes a device. Deleting an unknown id is not an error
// (idempotent delete, per the REST contract).
func (db *DB) DeleteDevice(id string) error {
	if _, err := db.Exec("DELETE FROM devices WHERE id = ?", id); err != nil {
		return fmt.Errorf("%w device: %w", ErrFailedToDelete, err)
	}

	return nil
}

// ReplaceDevices clears the collection and bulk-inserts the given devices.
// Used by the seed tool.
func (db *DB) ReplaceDevices(devices []models.Device) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFailedToBeginTx, err)
	}

	if _, err := tx.Exec("DELETE FROM devices"); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("%w devices: %w", ErrFailedToDelete, err)
	}

	const insertSQL = `
		INSERT INTO devices (` + deviceColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	for i := range devices {
		args, err := deviceArgs(&devices[i])
		if err != nil {
			_ = tx.Rollback()
			return err
		}

		if _, err := tx.Exec(insertSQL, args...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("%w device %s: %w", ErrFailedToInsert, devices[i].ID, err)
		}
	}

	return tx.Commit()
}

// CompanyCounts groups devices by company, largest fleet first.
func (db *DB) CompanyCounts() ([]models.CompanyStats, error) {
	const querySQL = `
		SELECT company, COUNT(*) AS device_count
		FROM devices
		GROUP BY company
		ORDER BY device_count DESC, company ASC
	`

	rows, err := db.Query(querySQL)
	if err != nil {
		return nil, fmt.Errorf("%w company stats: %w", ErrFailedToQuery, err)
	}
	defer closeRows(rows)

	var stats []models.CompanyStats

	for rows.Next() {
		var s models.CompanyStats
		if err := rows.Scan(&s.Name, &s.DeviceCount); err != nil {
			return nil, fmt.Errorf("%w company row: %w", ErrFailedToScan, err)
		}

		s.ID = len(stats) + 1
		stats = append(stats, s)
	}

	return stats, rows.Err()
}

func (db *DB) RenameCompany(oldName, newName string) (int64, error) {
	result, err := db.Exec("UPDATE devices SET company = ? WHERE company = ?", newName, oldName)
	if err != nil {
		return 0, fmt.Errorf("%w company: %w", ErrFailedToUpdate, err)
	}

	return result.RowsAffected()
}

func (db *DB) DeleteCompany(name string) (int64, error) {
	result, err := db.Exec("DELETE FROM devices WHERE company = ?", name)
	if err != nil {
		return 0, fmt.Errorf("%w company: %w", ErrFailedToDelete, err)
	}

	return result.RowsAffected()
}

// scanner lets scanDevice work with both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanDevice(row scanner) (*models.Device, error) {
	var (
		d            models.Device
		errMsg       sql.NullString
		lastIncident sql.NullTime
		recent       string
		longTerm     string
	)

	err := row.Scan(
		&d.ID, &d.Name, &d.IP, &d.MAC, &d.Company, &d.Status, &errMsg,
		&d.LastUpdate, &d.Department, &d.Location, &d.DeviceModel, &d.OS,
		&d.Battery, &d.SignalStrength, &d.Uptime, &lastIncident,
		&recent, &longTerm,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	if err != nil {
		return nil, fmt.Errorf("%w device row: %w", ErrFailedToScan, err)
	}

	if errMsg.Valid {
		d.ErrorMessage = &errMsg.String
	}

	if lastIncident.Valid {
		t := lastIncident.Time
		d.LastIncident = &t
	}

	if err := json.Unmarshal([]byte(recent), &d.RecentHistory); err != nil {
		return nil, fmt.Errorf("%w recent history: %w", ErrFailedToScan, err)
	}

	if err := json.Unmarshal([]byte(longTerm), &d.LongTermHistory); err != nil {
		return nil, fmt.Errorf("%w long term history: %w", ErrFailedToScan, err)
	}

	return &d, nil
}

func deviceArgs(d *models.Device) ([]interface{}, error) {
	recent, err := json.Marshal(d.RecentHistory)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToMarshal, err)
	}

	longTerm, err := json.Marshal(d.LongTermHistory)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToMarshal, err)
	}

	var errMsg sql.NullString
	if d.ErrorMessage != nil {
		errMsg = sql.NullString{String: *d.ErrorMessage, Valid: true}
	}

	var lastIncident sql.NullTime
	if d.LastIncident != nil {
		lastIncident = sql.NullTime{Time: *d.LastIncident, Valid: true}
	}

	return []interface{}{
		d.ID, d.Name, d.IP, d.MAC, d.Company, string(d.Status), errMsg,
		d.LastUpdate, d.Department, d.Location, d.DeviceModel, d.OS,
		d.Battery, d.SignalStrength, d.Uptime, lastIncident,
		string(recent), string(longTerm),
	}, nil
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		zap.L().Warn("failed to close rows", zap.Error(err))
	}
}
