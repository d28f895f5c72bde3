package repository

import (
	"context"
	"database/sql"
	"fmt"
)

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS rooms (
		id BIGINT UNSIGNED NOT NULL PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		capacity INT NOT NULL,
		active TINYINT(1) NOT NULL DEFAULT 1,
		lock_seq BIGINT NOT NULL DEFAULT 0,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS reservations (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id VARCHAR(64) NULL,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL,
		phone VARCHAR(32) NOT NULL,
		room_id BIGINT UNSIGNED NOT NULL,
		reservation_date CHAR(10) NOT NULL,
		start_time CHAR(5) NOT NULL,
		end_time CHAR(5) NOT NULL,
		persons INT NOT NULL,
		comment TEXT NULL,
		kind VARCHAR(32) NOT NULL,
		status VARCHAR(32) NOT NULL,
		total_cents BIGINT NULL,
		session_id VARCHAR(255) NULL,
		client_ip VARCHAR(64) NULL,
		slot_key VARCHAR(64) NULL,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		UNIQUE KEY uniq_reservations_slot_key (slot_key),
		KEY idx_reservations_room_date (room_id, reservation_date, status),
		KEY idx_reservations_user (user_id),
		KEY idx_reservations_session (session_id),
		CONSTRAINT fk_reservations_room FOREIGN KEY (room_id) REFERENCES rooms (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS payments (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		reservation_id BIGINT UNSIGNED NOT NULL,
		session_id VARCHAR(255) NOT NULL,
		intent_id VARCHAR(255) NULL,
		amount_cents BIGINT NOT NULL,
		currency CHAR(3) NOT NULL,
		customer_email VARCHAR(255) NOT NULL,
		status VARCHAR(32) NOT NULL,
		refunded_cents BIGINT NOT NULL DEFAULT 0,
		last_event_at DATETIME(6) NULL,
		settled_at DATETIME(6) NULL,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		UNIQUE KEY uniq_payments_session (session_id),
		KEY idx_payments_reservation (reservation_id),
		KEY idx_payments_intent (intent_id),
		KEY idx_payments_status_updated (status, updated_at),
		CONSTRAINT fk_payments_reservation FOREIGN KEY (reservation_id) REFERENCES reservations (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS payment_events (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		payment_id BIGINT UNSIGNED NOT NULL,
		event_type VARCHAR(64) NOT NULL,
		outcome VARCHAR(16) NOT NULL,
		old_status VARCHAR(32) NULL,
		new_status VARCHAR(32) NOT NULL,
		provider_event_id VARCHAR(255) NULL,
		payload_json MEDIUMTEXT NULL,
		occurred_at DATETIME(6) NOT NULL,
		created_at DATETIME(6) NOT NULL,
		UNIQUE KEY uniq_payment_events_provider_event (provider_event_id),
		KEY idx_payment_events_payment (payment_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS payment_callbacks (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		provider VARCHAR(32) NOT NULL,
		provider_event_id VARCHAR(255) NULL,
		event_type VARCHAR(64) NULL,
		signature VARCHAR(512) NOT NULL,
		payload_json MEDIUMTEXT NOT NULL,
		status VARCHAR(16) NOT NULL,
		error TEXT NULL,
		created_at DATETIME(6) NOT NULL,
		KEY idx_payment_callbacks_event (provider_event_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS rooms (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		capacity INTEGER NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		lock_seq INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS reservations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NULL,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT NOT NULL,
		room_id INTEGER NOT NULL REFERENCES rooms (id),
		reservation_date TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		persons INTEGER NOT NULL,
		comment TEXT NULL,
		kind TEXT NOT NULL,
		status TEXT NOT NULL,
		total_cents INTEGER NULL,
		session_id TEXT NULL,
		client_ip TEXT NULL,
		slot_key TEXT NULL UNIQUE,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reservations_room_date ON reservations (room_id, reservation_date, status)`,
	`CREATE INDEX IF NOT EXISTS idx_reservations_user ON reservations (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_reservations_session ON reservations (session_id)`,
	`CREATE TABLE IF NOT EXISTS payments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		reservation_id INTEGER NOT NULL REFERENCES reservations (id),
		session_id TEXT NOT NULL UNIQUE,
		intent_id TEXT NULL,
		amount_cents INTEGER NOT NULL,
		currency TEXT NOT NULL,
		customer_email TEXT NOT NULL,
		status TEXT NOT NULL,
		refunded_cents INTEGER NOT NULL DEFAULT 0,
		last_event_at DATETIME NULL,
		settled_at DATETIME NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_reservation ON payments (reservation_id)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_intent ON payments (intent_id)`,
	`CREATE TABLE IF NOT EXISTS payment_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		payment_id INTEGER NOT NULL,
		event_type TEXT NOT NULL,
		outcome TEXT NOT NULL,
		old_status TEXT NULL,
		new_status TEXT NOT NULL,
		provider_event_id TEXT NULL UNIQUE,
		payload_json TEXT NULL,
		occurred_at DATETIME NOT NULL,
		created_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_payment_events_payment ON payment_events (payment_id)`,
	`CREATE TABLE IF NOT EXISTS payment_callbacks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		provider TEXT NOT NULL,
		provider_event_id TEXT NULL,
		event_type TEXT NULL,
		signature TEXT NOT NULL,
		payload_json TEXT NOT NULL,
		status TEXT NOT NULL,
		error TEXT NULL,
		created_at DATETIME NOT NULL
	)`,
}

// Migrate creates the schema for driver. Statements are idempotent.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	var statements []string
	switch driver {
	case DriverMySQL:
		statements = mysqlSchema
	case DriverSQLite:
		statements = sqliteSchema
	default:
		return fmt.Errorf("unsupported database driver %q", driver)
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
