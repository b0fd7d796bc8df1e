package db

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"separapp/internal/config"
)

// Connect opens a GORM database connection using APP_DATABASE_URL (PostgreSQL URL).
func Connect(cfg *config.Config) (*gorm.DB, error) {
	dsn := strings.TrimSpace(cfg.DatabaseURL)
	if dsn == "" {
		return nil, errors.New("APP_DATABASE_URL is required (PostgreSQL URL)")
	}
	if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		return nil, errors.New("APP_DATABASE_URL must be a postgres:// or postgresql:// URL")
	}

	// PrepareStmt: true prevents the GORM postgres migrator from forcing simple protocol
	// for "SELECT * FROM table LIMIT 1", which would otherwise trigger "insufficient arguments".
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{PrepareStmt: true})
	if err != nil {
		return nil, err
	}

	// Auto-migrate the core tables.
	if err := db.AutoMigrate(&Usuario{}, &Categoria{}, &Basurero{}, &Deteccion{}, &Conexion{}, &UsuarioBasurero{}); err != nil {
		return nil, err
	}

	return db, nil
}

// EnsureCategorias seeds the fixed waste-category rows. Ids are stable
// and referenced by firmware, so existing rows are never renumbered.
func EnsureCategorias(db *gorm.DB) error {
	fijas := []Categoria{
		{ID: 1, Nombre: "reciclable"},
		{ID: 2, Nombre: "organico"},
		{ID: 3, Nombre: "inorganico"},
		{ID: 4, Nombre: "peligroso"},
	}
	for _, c := range fijas {
		var count int64
		if err := db.Model(&Categoria{}).Where("id_categoria = ?", c.ID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		if err := db.Create(&c).Error; err != nil {
			return err
		}
	}
	return nil
}

// EnsureBootstrapAdmin makes sure there is at least one administrator
// account corresponding to the bootstrap credentials in config. If a
// user with that email already exists, it is left as-is.
func EnsureBootstrapAdmin(db *gorm.DB, cfg *config.Config) error {
	if cfg.AdminCorreo == "" || cfg.AdminContrasena == "" {
		return nil
	}

	var count int64
	if err := db.Model(&Usuario{}).Where("correo = ?", cfg.AdminCorreo).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminContrasena), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := &Usuario{
		Nombre:     "Admin",
		Apellido:   "SeparAPP",
		Correo:     cfg.AdminCorreo,
		Contrasena: string(hash),
		IDRol:      2,
		IDEstado:   1,
	}

	return db.Create(admin).Error
}
