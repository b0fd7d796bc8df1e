package handlers

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/valyala/fasthttp"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	dbpkg "separapp/internal/db"
	"separapp/internal/stats"
)

var (
	deteccionesTotal  *prometheus.CounterVec
	pesoGramosBuckets *prometheus.HistogramVec
)

func InitPrometheusMetrics() {
	deteccionesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "separapp",
			Name:      "detecciones_total",
			Help:      "Total number of ingested waste detections.",
		},
		[]string{"categoria"},
	)
	pesoGramosBuckets = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "separapp",
			Name:      "deteccion_peso_gramos",
			Help:      "Histogram of detected object weights in grams.",
			Buckets:   []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
		[]string{"categoria"},
	)
	prometheus.MustRegister(deteccionesTotal, pesoGramosBuckets)
}

type deteccionRequest struct {
	IDUsuario     uint           `json:"id_usuario"`
	IDBasurero    *uint          `json:"id_basurero"`
	IDCategoria   uint           `json:"id_categoria"`
	TipoResiduo   string         `json:"tipo_residuo"`
	NombreObjeto  string         `json:"nombre_objeto"`
	Confianza     *float64       `json:"confianza"`
	PesoGramos    *float64       `json:"peso_gramos"`
	PuntosGanados *int           `json:"puntos_ganados"`
	Foto          string         `json:"foto"`
	Latitud       *float64       `json:"latitud"`
	Longitud      *float64       `json:"longitud"`
	Atributos     map[string]any `json:"atributos"`
}

const puntosPorDefecto = 10

// GuardarDeteccion persists one classification result from the ML/IoT
// process. Rows are append-only from here on.
func GuardarDeteccion(db *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		var req deteccionRequest
		if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, "Cuerpo JSON inválido")
			return
		}
		if req.IDUsuario == 0 {
			errResponse(ctx, fasthttp.StatusBadRequest, "id_usuario es obligatorio")
			return
		}
		if req.IDCategoria == 0 {
			errResponse(ctx, fasthttp.StatusBadRequest, "id_categoria es obligatoria")
			return
		}
		if req.NombreObjeto == "" {
			errResponse(ctx, fasthttp.StatusBadRequest, "nombre_objeto es obligatorio")
			return
		}
		if req.PesoGramos != nil && *req.PesoGramos < 0 {
			errResponse(ctx, fasthttp.StatusBadRequest, "peso_gramos no puede ser negativo")
			return
		}

		puntos := puntosPorDefecto
		if req.PuntosGanados != nil {
			puntos = *req.PuntosGanados
		}

		atributos := datatypes.JSONMap{}
		for k, v := range req.Atributos {
			atributos[k] = v
		}

		deteccion := dbpkg.Deteccion{
			IDUsuario:     req.IDUsuario,
			IDBasurero:    req.IDBasurero,
			IDCategoria:   req.IDCategoria,
			TipoResiduo:   strings.ToLower(req.TipoResiduo),
			NombreObjeto:  req.NombreObjeto,
			Confianza:     req.Confianza,
			PesoGramos:    req.PesoGramos,
			PuntosGanados: puntos,
			Foto:          req.Foto,
			Latitud:       req.Latitud,
			Longitud:      req.Longitud,
			Atributos:     atributos,
		}
		if err := db.Create(&deteccion).Error; err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "Error al guardar detección")
			return
		}

		categoria := stats.NombreCategoria(req.IDCategoria)
		deteccionesTotal.WithLabelValues(categoria).Inc()
		if req.PesoGramos != nil {
			pesoGramosBuckets.WithLabelValues(categoria).Observe(*req.PesoGramos)
		}

		jsonStatus(ctx, fasthttp.StatusCreated, map[string]any{
			"message": "Detección guardada exitosamente",
			"data": map[string]any{
				"id_deteccion":    deteccion.ID,
				"fecha_deteccion": deteccion.CreatedAt,
				"puntos_ganados":  puntos,
			},
		})
	}
}

type deteccionRow struct {
	IDDeteccion    uint      `json:"id_deteccion"`
	TipoResiduo    string    `json:"tipo_residuo"`
	NombreObjeto   string    `json:"nombre_objeto"`
	Confianza      *float64  `json:"confianza"`
	PesoGramos     *float64  `json:"peso_gramos"`
	PuntosGanados  int       `json:"puntos_ganados"`
	Foto           string    `json:"foto"`
	Latitud        *float64  `json:"latitud"`
	Longitud       *float64  `json:"longitud"`
	FechaDeteccion time.Time `json:"fecha_deteccion"`
}

var tiposResiduoValidos = map[string]bool{
	"organico": true, "inorganico": true, "reciclable": true,
}

// DeteccionesUsuario lists a user's detections newest first, optionally
// filtered by legacy residue type.
func DeteccionesUsuario(db *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		idUsuario, ok := routeID(ctx, "id_usuario")
		if !ok {
			return
		}

		limit := 50
		if s := string(ctx.QueryArgs().Peek("limit")); s != "" {
			if n, err := strconv.Atoi(s); err == nil && n > 0 {
				if n > 200 {
					n = 200
				}
				limit = n
			}
		}

		q := db.Model(&dbpkg.Deteccion{}).Where("id_usuario = ?", idUsuario)
		if tipo := strings.ToLower(string(ctx.QueryArgs().Peek("tipo"))); tipo != "" && tiposResiduoValidos[tipo] {
			q = q.Where("tipo_residuo = ?", tipo)
		}

		var eventos []dbpkg.Deteccion
		if err := q.Order("fecha_deteccion DESC").Limit(limit).Find(&eventos).Error; err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "Error al obtener historial de detecciones")
			return
		}

		rows := make([]deteccionRow, 0, len(eventos))
		for _, ev := range eventos {
			rows = append(rows, deteccionRow{
				IDDeteccion:    ev.ID,
				TipoResiduo:    ev.TipoResiduo,
				NombreObjeto:   ev.NombreObjeto,
				Confianza:      ev.Confianza,
				PesoGramos:     ev.PesoGramos,
				PuntosGanados:  ev.PuntosGanados,
				Foto:           ev.Foto,
				Latitud:        ev.Latitud,
				Longitud:       ev.Longitud,
				FechaDeteccion: ev.CreatedAt,
			})
		}

		jsonResponse(ctx, map[string]any{
			"total": len(rows),
			"data":  rows,
		})
	}
}

// DeteccionDetalle returns one detection by id.
func DeteccionDetalle(db *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		id, ok := routeID(ctx, "id")
		if !ok {
			return
		}

		var ev dbpkg.Deteccion
		if err := db.First(&ev, id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				errResponse(ctx, fasthttp.StatusNotFound, "Detección no encontrada")
				return
			}
			errResponse(ctx, fasthttp.StatusInternalServerError, "Error al obtener detección")
			return
		}

		jsonResponse(ctx, map[string]any{
			"data": map[string]any{
				"id_deteccion":    ev.ID,
				"id_usuario":      ev.IDUsuario,
				"id_basurero":     ev.IDBasurero,
				"id_categoria":    ev.IDCategoria,
				"categoria":       stats.NombreCategoria(ev.IDCategoria),
				"tipo_residuo":    ev.TipoResiduo,
				"nombre_objeto":   ev.NombreObjeto,
				"confianza":       ev.Confianza,
				"peso_gramos":     ev.PesoGramos,
				"puntos_ganados":  ev.PuntosGanados,
				"foto":            ev.Foto,
				"latitud":         ev.Latitud,
				"longitud":        ev.Longitud,
				"atributos":       ev.Atributos,
				"fecha_deteccion": ev.CreatedAt,
			},
		})
	}
}
