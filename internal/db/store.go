package db

import (
	"errors"

	"gorm.io/gorm"
)

// ErrBasureroNoEncontrado is returned by Bin when the referenced bin
// does not exist. Callers treat it as NotFound, distinct from a bin
// that merely has no detections yet.
var ErrBasureroNoEncontrado = errors.New("basurero no encontrado")

// StatsStore is the GORM-backed implementation of the aggregation
// engine's read contracts. Every method is a plain read; consistency
// across the sub-queries composing one view is per-query, which is
// tolerable for these dashboards.
type StatsStore struct {
	DB *gorm.DB
}

func (s *StatsStore) EventsByUser(idUsuario uint) ([]Deteccion, error) {
	var eventos []Deteccion
	err := s.DB.Where("id_usuario = ?", idUsuario).
		Order("fecha_deteccion").
		Find(&eventos).Error
	return eventos, err
}

func (s *StatsStore) EventsByBin(idBasurero uint) ([]Deteccion, error) {
	var eventos []Deteccion
	err := s.DB.Where("id_basurero = ?", idBasurero).
		Order("fecha_deteccion").
		Find(&eventos).Error
	return eventos, err
}

func (s *StatsStore) EventsByUserAndBin(idUsuario, idBasurero uint) ([]Deteccion, error) {
	var eventos []Deteccion
	err := s.DB.Where("id_usuario = ? AND id_basurero = ?", idUsuario, idBasurero).
		Order("fecha_deteccion").
		Find(&eventos).Error
	return eventos, err
}

func (s *StatsStore) Bin(idBasurero uint) (*Basurero, error) {
	var bin Basurero
	if err := s.DB.First(&bin, idBasurero).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBasureroNoEncontrado
		}
		return nil, err
	}
	return &bin, nil
}

// LeaderboardRow is one user joined with their detection aggregates.
type LeaderboardRow struct {
	IDUsuario         uint    `gorm:"column:id_usuario"`
	Nombre            string  `gorm:"column:nombre"`
	Apellido          string  `gorm:"column:apellido"`
	Clasificaciones   int64   `gorm:"column:clasificaciones"`
	PuntosTotales     int64   `gorm:"column:puntos_totales"`
	ConfianzaPromedio float64 `gorm:"column:confianza_promedio"`
}

// LeaderboardRows joins all users against their detections. Users with
// no detections come back with zero counts; the engine filters them.
func (s *StatsStore) LeaderboardRows() ([]LeaderboardRow, error) {
	var rows []LeaderboardRow
	err := s.DB.Raw(`
		SELECT
			u.id_usuario AS id_usuario,
			u.nombre AS nombre,
			u.apellido AS apellido,
			COUNT(d.id_deteccion) AS clasificaciones,
			COALESCE(SUM(d.puntos_ganados), 0) AS puntos_totales,
			COALESCE(AVG(d.confianza), 0) AS confianza_promedio
		FROM usuarios u
		LEFT JOIN detecciones d ON d.id_usuario = u.id_usuario
		GROUP BY u.id_usuario, u.nombre, u.apellido`).
		Scan(&rows).Error
	return rows, err
}
