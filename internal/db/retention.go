package db

import (
	"log"
	"time"

	"gorm.io/gorm"
)

// runRetentionOnce performs a single pass of retention cleanup,
// deleting connection-log rows older than the retention window.
// Detection rows are append-only and never touched here.
func runRetentionOnce(db *gorm.DB, retencionDias int) error {
	if retencionDias <= 0 {
		return nil
	}
	corte := time.Now().Add(-time.Duration(retencionDias) * 24 * time.Hour)
	return db.Where("fecha_conexion < ?", corte).Delete(&Conexion{}).Error
}

// StartRetentionWorker launches a background goroutine that runs the
// retention cleanup once at startup and then once per day.
func StartRetentionWorker(db *gorm.DB, retencionDias int) {
	go func() {
		if err := runRetentionOnce(db, retencionDias); err != nil {
			log.Printf("retention cleanup error (startup): %v", err)
		}

		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for range ticker.C {
			if err := runRetentionOnce(db, retencionDias); err != nil {
				log.Printf("retention cleanup error: %v", err)
			}
		}
	}()
}
