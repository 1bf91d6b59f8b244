package database

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ummahconnect/community-backend/config"
	"github.com/ummahconnect/community-backend/internal/attendance"
	"github.com/ummahconnect/community-backend/internal/auditlog"
	"github.com/ummahconnect/community-backend/internal/auth"
	"github.com/ummahconnect/community-backend/internal/event"
	"github.com/ummahconnect/community-backend/internal/invitation"
	"github.com/ummahconnect/community-backend/internal/qrcode"
	"github.com/ummahconnect/community-backend/internal/registration"
)

// Connect opens the postgres pool described by cfg.
func Connect(cfg *config.Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	log.Info().Str("host", cfg.DBHost).Str("db", cfg.DBName).Msg("database connected")
	return db, nil
}

// Models lists every table owned by this service, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&auth.User{},
		&event.Event{},
		&registration.Registration{},
		&attendance.Attendance{},
		&qrcode.QRCode{},
		&invitation.Invitation{},
		&auditlog.AuditLog{},
	}
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	if err := migrateCapacityCheck(db); err != nil {
		return fmt.Errorf("capacity check: %w", err)
	}
	if err := migrateActiveTokenIndex(db); err != nil {
		return fmt.Errorf("active token index: %w", err)
	}
	return nil
}

// migrateCapacityCheck adds the row-level guard for the attendee counter.
// Postgres only; other dialects rely on the conditional update in the ledger.
func migrateCapacityCheck(db *gorm.DB) error {
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	return db.Exec(`
		DO $$
		BEGIN
			IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_events_attendee_capacity') THEN
				ALTER TABLE events ADD CONSTRAINT chk_events_attendee_capacity
				CHECK (current_attendees >= 0 AND (max_attendees IS NULL OR current_attendees <= max_attendees));
			END IF;
		END $$;
	`).Error
}

// migrateActiveTokenIndex allows at most one active check-in token per event.
// SQLite understands partial indexes too, so this runs on every dialect.
func migrateActiveTokenIndex(db *gorm.DB) error {
	cond := "is_active"
	if db.Dialector.Name() == "sqlite" {
		cond = "is_active = 1"
	}
	return db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS uq_qr_codes_active_event ON qr_codes (event_id) WHERE " + cond).Error
}
