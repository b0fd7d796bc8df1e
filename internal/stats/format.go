package stats

import (
	"math"
	"time"
)

// Fill-state labels shared by the count-threshold and weight-threshold
// policies.
const (
	LlenadoVacio   = "Vacío"
	LlenadoBajo    = "Bajo"
	LlenadoMedio   = "Medio"
	LlenadoAlto    = "Alto"
	LlenadoCritico = "Crítico"
)

// LlenadoPorCantidad derives the qualitative fullness label used by
// the history summaries from an event count.
func LlenadoPorCantidad(cantidad int64) string {
	switch {
	case cantidad == 0:
		return LlenadoVacio
	case cantidad < 10:
		return LlenadoBajo
	case cantidad < 20:
		return LlenadoMedio
	default:
		return LlenadoAlto
	}
}

// EstadoPorPeso derives the bin-level fill state from recorded weight
// against rated capacity. Thresholds are checked highest first.
func EstadoPorPeso(pesoKg, capacidadKg float64) string {
	if capacidadKg <= 0 {
		return LlenadoBajo
	}
	switch {
	case pesoKg >= 0.9*capacidadKg:
		return LlenadoCritico
	case pesoKg >= 0.7*capacidadKg:
		return LlenadoAlto
	case pesoKg >= 0.4*capacidadKg:
		return LlenadoMedio
	default:
		return LlenadoBajo
	}
}

// Porcentaje converts a part/whole ratio into a rounded percentage
// clamped to [0, 100]. A non-positive whole yields 0, never NaN.
func Porcentaje(parte, total float64) int {
	if total <= 0 {
		return 0
	}
	p := int(math.Round(parte / total * 100))
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	return p
}

// redondear rounds an average to the nearest integer, mapping the
// no-data case to 0 instead of NaN.
func redondear(suma float64, n int64) int {
	if n == 0 {
		return 0
	}
	return int(math.Round(suma / float64(n)))
}

func redondearValor(v float64) int {
	return int(math.Round(v))
}

// FormatHora12 renders an event timestamp as the 12-hour "HH:MM AM/PM"
// string the mobile history screen expects, or nil when there is no
// event at all.
func FormatHora12(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("03:04 PM")
	return &s
}
