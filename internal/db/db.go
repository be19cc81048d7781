package db

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-manager/internal/models"
	"github.com/BruksfildServices01/barber-manager/internal/timezone"
)

func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		PrepareStmt: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Barbershop{},
		&models.User{},
		&models.Employee{},
		&models.Item{},
		&models.Appointment{},
		&models.Subscriber{},
		&models.PayrollEntry{},
		&models.AuditLog{},
	); err != nil {
		return err
	}

	if err := migrateAppointmentOverlap(db); err != nil {
		return fmt.Errorf("appointment overlap constraint: %w", err)
	}

	return db.Exec(`
        UPDATE barbershops
        SET timezone = ?
        WHERE timezone IS NULL OR timezone = ''
    `, timezone.Default()).Error
}

// migrateAppointmentOverlap forbids two open appointments of the same
// barber from overlapping, whatever path wrote them.
func migrateAppointmentOverlap(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS btree_gist`).Error; err != nil {
		return err
	}

	var exists bool
	if err := db.Raw(`
        SELECT EXISTS (
            SELECT 1 FROM pg_constraint WHERE conname = 'appointments_no_overlap'
        )
    `).Scan(&exists).Error; err != nil {
		return err
	}
	if exists {
		return nil
	}

	return db.Exec(`
        ALTER TABLE appointments
        ADD CONSTRAINT appointments_no_overlap
        EXCLUDE USING gist (
            barbershop_id WITH =,
            barber_id WITH =,
            tstzrange(start_time, end_time, '[)') WITH &&
        )
        WHERE (status IN ('pending', 'confirmed'))
    `).Error
}
