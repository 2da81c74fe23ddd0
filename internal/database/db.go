package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/bookfair-stall-reservation/internal/config"
)

// Open connects to MySQL with the configured credentials and verifies the
// connection.
func Open(cfg config.Config) (*sql.DB, error) {
	mc := mysql.NewConfig()
	mc.User = cfg.DBUser
	mc.Passwd = cfg.DBPass
	mc.Net = "tcp"
	mc.Addr = cfg.DBHost + ":" + cfg.DBPort
	mc.DBName = cfg.DBName
	mc.ParseTime = true // DATETIME -> time.Time
	mc.Loc = time.UTC
	mc.ClientFoundRows = true // RowsAffected counts matched rows
	mc.Params = map[string]string{"charset": "utf8mb4"}

	db, err := sql.Open("mysql", mc.FormatDSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}

// schema is applied in order by Migrate.  Statements are idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(20) NOT NULL DEFAULT 'PUBLISHER',
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64) NOT NULL UNIQUE,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_refresh_user (user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS bookfair_layouts (
		book_fair_id VARCHAR(64) PRIMARY KEY,
		top_rows INT NOT NULL DEFAULT 0,
		top_cols INT NOT NULL DEFAULT 0,
		left_rows INT NOT NULL DEFAULT 0,
		left_cols INT NOT NULL DEFAULT 0,
		right_rows INT NOT NULL DEFAULT 0,
		right_cols INT NOT NULL DEFAULT 0,
		bottom_rows INT NOT NULL DEFAULT 0,
		bottom_cols INT NOT NULL DEFAULT 0,
		inner_ring INT NOT NULL DEFAULT 0,
		outer_ring INT NOT NULL DEFAULT 0,
		updated_by BIGINT UNSIGNED NULL,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS reservations (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		book_fair_id VARCHAR(64) NOT NULL,
		session_id CHAR(36) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'PROCESSING',
		subtotal BIGINT NOT NULL,
		vat BIGINT NOT NULL,
		service_fee BIGINT NOT NULL,
		total BIGINT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_reservations_fair (book_fair_id),
		KEY idx_reservations_user (user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS reservation_stalls (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		reservation_id BIGINT UNSIGNED NOT NULL,
		book_fair_id VARCHAR(64) NOT NULL,
		stall_id VARCHAR(32) NOT NULL,
		size VARCHAR(10) NOT NULL,
		hall VARCHAR(64) NOT NULL,
		unit_price BIGINT NOT NULL,
		UNIQUE KEY uq_fair_stall (book_fair_id, stall_id),
		KEY idx_stalls_reservation (reservation_id)
	)`,
}

// Migrate creates the tables the service needs.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}
