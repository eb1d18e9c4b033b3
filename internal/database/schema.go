package database

import (
	"context"
	"database/sql"
	"fmt"
)

// The reservations table belongs to the seat checkout.  Parking only reads
// it to check booking ownership, so the MySQL statements leave it alone.
var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS parking_lots (
        id                   BIGINT UNSIGNED NOT NULL PRIMARY KEY,
        cinema_id            BIGINT UNSIGNED NOT NULL,
        name                 VARCHAR(255)    NOT NULL,
        location             VARCHAR(255)    NOT NULL DEFAULT '',
        capacity             INT             NOT NULL,
        price_per_hour_cents BIGINT          NOT NULL,
        is_active            BOOLEAN         NOT NULL DEFAULT TRUE,
        created_at           DATETIME(3)     NOT NULL,
        updated_at           DATETIME(3)     NOT NULL,
        KEY idx_parking_lots_cinema (cinema_id, is_active)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS parking_reservations (
        id              CHAR(36)        NOT NULL PRIMARY KEY,
        booking_id      BIGINT UNSIGNED NOT NULL,
        owner_id        BIGINT UNSIGNED NOT NULL,
        lot_id          BIGINT UNSIGNED NOT NULL,
        lot_name        VARCHAR(255)    NOT NULL,
        location        VARCHAR(255)    NOT NULL DEFAULT '',
        start_time      DATETIME(3)     NOT NULL,
        end_time        DATETIME(3)     NOT NULL,
        status          VARCHAR(16)     NOT NULL,
        hold_expires_at DATETIME(3)     NOT NULL,
        price_cents     BIGINT          NOT NULL,
        created_at      DATETIME(3)     NOT NULL,
        updated_at      DATETIME(3)     NOT NULL,
        KEY idx_parking_res_lot_window (lot_id, status, start_time, end_time),
        KEY idx_parking_res_booking (booking_id, status),
        KEY idx_parking_res_owner (owner_id, created_at),
        KEY idx_parking_res_expiry (status, hold_expires_at),
        CONSTRAINT fk_parking_res_lot FOREIGN KEY (lot_id) REFERENCES parking_lots (id)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS reservations (
        id         INTEGER PRIMARY KEY,
        user_id    INTEGER NOT NULL,
        status     TEXT    NOT NULL DEFAULT 'PENDING'
    )`,
	`CREATE TABLE IF NOT EXISTS parking_lots (
        id                   INTEGER PRIMARY KEY,
        cinema_id            INTEGER  NOT NULL,
        name                 TEXT     NOT NULL,
        location             TEXT     NOT NULL DEFAULT '',
        capacity             INTEGER  NOT NULL,
        price_per_hour_cents INTEGER  NOT NULL,
        is_active            BOOLEAN  NOT NULL DEFAULT 1,
        created_at           DATETIME NOT NULL,
        updated_at           DATETIME NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS parking_reservations (
        id              TEXT PRIMARY KEY,
        booking_id      INTEGER  NOT NULL,
        owner_id        INTEGER  NOT NULL,
        lot_id          INTEGER  NOT NULL REFERENCES parking_lots (id),
        lot_name        TEXT     NOT NULL,
        location        TEXT     NOT NULL DEFAULT '',
        start_time      DATETIME NOT NULL,
        end_time        DATETIME NOT NULL,
        status          TEXT     NOT NULL,
        hold_expires_at DATETIME NOT NULL,
        price_cents     INTEGER  NOT NULL,
        created_at      DATETIME NOT NULL,
        updated_at      DATETIME NOT NULL
    )`,
	`CREATE INDEX IF NOT EXISTS idx_parking_res_lot_window ON parking_reservations (lot_id, status, start_time, end_time)`,
	`CREATE INDEX IF NOT EXISTS idx_parking_res_booking ON parking_reservations (booking_id, status)`,
}

// EnsureSchema creates the parking tables when they are missing.  It is
// idempotent and never alters existing tables.
func EnsureSchema(ctx context.Context, db *sql.DB, dialect string) error {
	var stmts []string
	switch dialect {
	case DialectMySQL:
		stmts = mysqlSchema
	case DialectSQLite:
		stmts = sqliteSchema
	default:
		return fmt.Errorf("ensure schema: unsupported dialect %q", dialect)
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
