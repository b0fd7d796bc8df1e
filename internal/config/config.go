package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the core runtime configuration for the service.
// Values are primarily sourced from environment variables, with
// sensible defaults where appropriate. See .env.example.
type Config struct {
	ListenAddr string

	DatabaseURL string

	// JWT signing material for the login/refresh token pair.
	JWTAccessSecret  string
	JWTRefreshSecret string
	AccessExpires    time.Duration
	RefreshExpires   time.Duration

	// AdminCorreo / AdminContrasena bootstrap an administrator account
	// on startup so the users endpoint is reachable on a fresh database.
	AdminCorreo     string
	AdminContrasena string

	// CapacidadDefectoKg is the rated capacity assumed for bins that
	// were registered without one. Split evenly across the three
	// primary-category compartments.
	CapacidadDefectoKg float64

	// ConexionRetencionDias bounds how long connection-log rows are
	// kept before the retention worker deletes them.
	ConexionRetencionDias int

	// RecuperacionTTL is how long a password-recovery code stays valid.
	RecuperacionTTL time.Duration
}

// Load reads configuration from environment variables and applies defaults.
func Load() *Config {
	cfg := &Config{
		ListenAddr:            getenv("APP_LISTEN_ADDR", ":3000"),
		DatabaseURL:           os.Getenv("APP_DATABASE_URL"),
		JWTAccessSecret:       getenv("JWT_ACCESS_SECRET", "separapp-access-dev"),
		JWTRefreshSecret:      getenv("JWT_REFRESH_SECRET", "separapp-refresh-dev"),
		AccessExpires:         15 * time.Minute,
		RefreshExpires:        7 * 24 * time.Hour,
		AdminCorreo:           getenv("APP_ADMIN_CORREO", "admin@separapp.local"),
		AdminContrasena:       getenv("APP_ADMIN_CONTRASENA", "changeme"),
		CapacidadDefectoKg:    1000,
		ConexionRetencionDias: 90,
		RecuperacionTTL:       15 * time.Minute,
	}

	if v := os.Getenv("ACCESS_EXPIRES"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.AccessExpires = d
		}
	}
	if v := os.Getenv("REFRESH_EXPIRES"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.RefreshExpires = d
		}
	}
	if v := os.Getenv("APP_CAPACIDAD_DEFECTO_KG"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.CapacidadDefectoKg = f
		}
	}
	if v := os.Getenv("APP_CONEXION_RETENCION_DIAS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil && days > 0 {
			cfg.ConexionRetencionDias = days
		}
	}
	if v := os.Getenv("APP_RECUPERACION_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.RecuperacionTTL = d
		}
	}

	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
