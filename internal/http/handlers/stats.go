package handlers

import (
	"errors"
	"strconv"

	"github.com/valyala/fasthttp"

	dbpkg "separapp/internal/db"
	"separapp/internal/stats"
)

func engineError(ctx *fasthttp.RequestCtx, err error, msg string) {
	if errors.Is(err, dbpkg.ErrBasureroNoEncontrado) {
		errResponse(ctx, fasthttp.StatusNotFound, "Basurero no encontrado")
		return
	}
	errResponse(ctx, fasthttp.StatusInternalServerError, msg)
}

// EstadisticasUsuario serves the per-user totals view.
func EstadisticasUsuario(engine *stats.Engine) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		idUsuario, ok := routeID(ctx, "id_usuario")
		if !ok {
			return
		}

		totales, err := engine.UserTotals(idUsuario)
		if err != nil {
			engineError(ctx, err, "Error al obtener estadísticas")
			return
		}

		jsonResponse(ctx, map[string]any{
			"data": map[string]any{
				"total_detecciones":  totales.TotalDetecciones,
				"puntos_totales":     totales.PuntosTotales,
				"confianza_promedio": totales.ConfianzaPromedio,
				"por_categoria":      totales.PorCategoria,
				"por_tipo":           totales.PorTipo,
			},
		})
	}
}

// NivelLlenadoBasurero serves the weight-based fill view of one bin.
func NivelLlenadoBasurero(engine *stats.Engine) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		idBasurero, ok := routeID(ctx, "id_basurero")
		if !ok {
			return
		}

		nivel, err := engine.BinFillLevel(idBasurero)
		if err != nil {
			engineError(ctx, err, "Error al obtener nivel de llenado")
			return
		}

		jsonResponse(ctx, map[string]any{"data": nivel})
	}
}

// ResumenHistorial serves the per-category summary of a user's history.
func ResumenHistorial(engine *stats.Engine) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		idUsuario, ok := routeID(ctx, "id_usuario")
		if !ok {
			return
		}

		resumen, err := engine.HistorySummary(idUsuario)
		if err != nil {
			engineError(ctx, err, "Error al obtener resumen de historial")
			return
		}

		jsonResponse(ctx, map[string]any{"data": resumen})
	}
}

// ResumenHistorialBasurero is ResumenHistorial over one bin's stream.
func ResumenHistorialBasurero(engine *stats.Engine) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		idBasurero, ok := routeID(ctx, "id_basurero")
		if !ok {
			return
		}

		resumen, err := engine.BinHistorySummary(idBasurero)
		if err != nil {
			engineError(ctx, err, "Error al obtener resumen de historial")
			return
		}

		jsonResponse(ctx, map[string]any{"data": resumen})
	}
}

// Ranking serves the points leaderboard.
func Ranking(engine *stats.Engine) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		limit := 0
		if s := string(ctx.QueryArgs().Peek("limit")); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil {
				errResponse(ctx, fasthttp.StatusBadRequest, "limit inválido")
				return
			}
			limit = n
		}

		posiciones, err := engine.Ranking(limit)
		if err != nil {
			engineError(ctx, err, "Error al obtener ranking")
			return
		}

		jsonResponse(ctx, map[string]any{
			"total": len(posiciones),
			"data":  posiciones,
		})
	}
}

// PanelCompleto serves the combined user + optional bin panel. An
// unknown id_basurero query just omits the bin section.
func PanelCompleto(engine *stats.Engine) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		idUsuario, ok := routeID(ctx, "id_usuario")
		if !ok {
			return
		}

		var idBasurero *uint
		if s := string(ctx.QueryArgs().Peek("id_basurero")); s != "" {
			n, err := strconv.ParseUint(s, 10, 32)
			if err != nil {
				errResponse(ctx, fasthttp.StatusBadRequest, "id_basurero inválido")
				return
			}
			id := uint(n)
			idBasurero = &id
		}

		panel, err := engine.CombinedPanel(idUsuario, idBasurero)
		if err != nil {
			engineError(ctx, err, "Error al obtener panel")
			return
		}

		jsonResponse(ctx, map[string]any{"data": panel})
	}
}

// PanelEstado serves the quick status panel.
func PanelEstado(engine *stats.Engine) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		idUsuario, ok := routeID(ctx, "id_usuario")
		if !ok {
			return
		}

		panel, err := engine.StatusPanel(idUsuario)
		if err != nil {
			engineError(ctx, err, "Error al obtener panel de estado")
			return
		}

		jsonResponse(ctx, map[string]any{
			"data": map[string]any{
				"cantidades":         panel.Cantidades,
				"ultima_accion":      panel.UltimaAccion,
				"porcentaje_acierto": panel.PorcentajeAcierto,
			},
		})
	}
}

// DeteccionesHoy serves today's detections, newest first.
func DeteccionesHoy(engine *stats.Engine) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		idUsuario, ok := routeID(ctx, "id_usuario")
		if !ok {
			return
		}

		eventos, err := engine.TodayEvents(idUsuario)
		if err != nil {
			engineError(ctx, err, "Error al obtener detecciones de hoy")
			return
		}

		jsonResponse(ctx, map[string]any{
			"total": len(eventos),
			"data":  eventos,
		})
	}
}
