package stats

import (
	"errors"
	"sort"
	"time"

	dbpkg "separapp/internal/db"
)

// Store is the read contract the engine computes over. The GORM
// implementation lives in internal/db; tests use an in-memory fake.
// None of the methods mutate anything: every view is recomputed from
// the detection stream on each call.
type Store interface {
	EventsByUser(idUsuario uint) ([]dbpkg.Deteccion, error)
	EventsByBin(idBasurero uint) ([]dbpkg.Deteccion, error)
	EventsByUserAndBin(idUsuario, idBasurero uint) ([]dbpkg.Deteccion, error)
	Bin(idBasurero uint) (*dbpkg.Basurero, error)
	LeaderboardRows() ([]dbpkg.LeaderboardRow, error)
}

// Engine computes aggregated, time-windowed and categorized views over
// the detection stream. It is stateless between calls and holds no
// locks; concurrent requests each get an independently consistent read.
type Engine struct {
	Store Store

	// CapacidadDefectoKg is assumed for bins registered without a
	// rated capacity.
	CapacidadDefectoKg float64

	// Now is the clock for calendar-day windows. Nil means time.Now.
	Now func() time.Time
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

const capacidadFallbackKg = 1000

func (e *Engine) capacidad(b *dbpkg.Basurero) float64 {
	if b.CapacidadKg > 0 {
		return b.CapacidadKg
	}
	if e.CapacidadDefectoKg > 0 {
		return e.CapacidadDefectoKg
	}
	return capacidadFallbackKg
}

// TotalesCategoria is the per-category slice of a user aggregate.
type TotalesCategoria struct {
	Cantidad      int64 `json:"cantidad"`
	PuntosTotales int64 `json:"puntos_totales"`
}

// TotalesTipo is one row of the legacy por-tipo view, grouped by the
// free-text tipo_residuo field older firmware still writes.
type TotalesTipo struct {
	TipoResiduo   string `json:"tipo_residuo"`
	Cantidad      int64  `json:"cantidad"`
	PuntosTotales int64  `json:"puntos_totales"`
}

// EstadisticasUsuario is the user-totals view.
type EstadisticasUsuario struct {
	TotalDetecciones  int64                       `json:"total_detecciones"`
	PuntosTotales     int64                       `json:"puntos_totales"`
	ConfianzaPromedio int                         `json:"confianza_promedio"`
	PorCategoria      map[string]TotalesCategoria `json:"por_categoria"`
	PorTipo           []TotalesTipo               `json:"por_tipo"`
}

// UserTotals scans every detection for the user and returns totals,
// the rounded average confidence and the per-category breakdown. A
// user with no events yields all zeroes, never null.
func (e *Engine) UserTotals(idUsuario uint) (*EstadisticasUsuario, error) {
	eventos, err := e.Store.EventsByUser(idUsuario)
	if err != nil {
		return nil, err
	}

	res := &EstadisticasUsuario{
		PorCategoria: categoriasPorDefecto(categoriasCanonicas),
		PorTipo:      []TotalesTipo{},
	}

	var sumaConf float64
	var nConf int64
	porTipo := make(map[string]*TotalesTipo)
	for _, ev := range eventos {
		res.TotalDetecciones++
		res.PuntosTotales += int64(ev.PuntosGanados)
		if ev.Confianza != nil {
			sumaConf += *ev.Confianza
			nConf++
		}

		nombre := NombreCategoria(ev.IDCategoria)
		tc := res.PorCategoria[nombre]
		tc.Cantidad++
		tc.PuntosTotales += int64(ev.PuntosGanados)
		res.PorCategoria[nombre] = tc

		if ev.TipoResiduo != "" {
			row, ok := porTipo[ev.TipoResiduo]
			if !ok {
				row = &TotalesTipo{TipoResiduo: ev.TipoResiduo}
				porTipo[ev.TipoResiduo] = row
			}
			row.Cantidad++
			row.PuntosTotales += int64(ev.PuntosGanados)
		}
	}
	res.ConfianzaPromedio = redondear(sumaConf, nConf)

	for _, row := range porTipo {
		res.PorTipo = append(res.PorTipo, *row)
	}
	sort.Slice(res.PorTipo, func(i, j int) bool {
		return res.PorTipo[i].TipoResiduo < res.PorTipo[j].TipoResiduo
	})

	return res, nil
}

// LlenadoCompartimiento is the fill estimate for one compartment.
type LlenadoCompartimiento struct {
	PesoKg      float64 `json:"peso_kg"`
	CapacidadKg float64 `json:"capacidad_kg"`
	Porcentaje  int     `json:"porcentaje"`
}

// NivelLlenado is the weight-based fill view of one bin.
type NivelLlenado struct {
	IDBasurero      uint                             `json:"id_basurero"`
	Codigo          string                           `json:"codigo"`
	CapacidadKg     float64                          `json:"capacidad_total_kg"`
	PesoTotalKg     float64                          `json:"peso_total_kg"`
	PorcentajeTotal int                              `json:"porcentaje_total"`
	Estado          string                           `json:"estado"`
	PorCategoria    map[string]LlenadoCompartimiento `json:"por_categoria"`
}

// BinFillLevel estimates compartment and overall fullness for an
// existing bin. Weights are stored in grams; capacity is split evenly
// across the three primary compartments. Percentages are rounded and
// clamped to [0, 100]. A bin id that does not resolve returns the
// store's not-found error, distinct from a bin with no detections.
func (e *Engine) BinFillLevel(idBasurero uint) (*NivelLlenado, error) {
	bin, err := e.Store.Bin(idBasurero)
	if err != nil {
		return nil, err
	}
	eventos, err := e.Store.EventsByBin(idBasurero)
	if err != nil {
		return nil, err
	}

	capacidadTotal := e.capacidad(bin)
	capacidadComp := capacidadTotal / 3

	pesos := make(map[string]float64, len(categoriasPrimarias))
	for _, ev := range eventos {
		if ev.PesoGramos == nil {
			continue
		}
		nombre := NombreCategoria(ev.IDCategoria)
		if !EsPrimaria(nombre) {
			continue
		}
		pesos[nombre] += *ev.PesoGramos / 1000
	}

	res := &NivelLlenado{
		IDBasurero:   bin.ID,
		Codigo:       bin.Codigo,
		CapacidadKg:  capacidadTotal,
		PorCategoria: make(map[string]LlenadoCompartimiento, len(categoriasPrimarias)),
	}
	for _, nombre := range categoriasPrimarias {
		peso := pesos[nombre]
		res.PesoTotalKg += peso
		res.PorCategoria[nombre] = LlenadoCompartimiento{
			PesoKg:      peso,
			CapacidadKg: capacidadComp,
			Porcentaje:  Porcentaje(peso, capacidadComp),
		}
	}
	res.PorcentajeTotal = Porcentaje(res.PesoTotalKg, capacidadTotal)
	res.Estado = EstadoPorPeso(res.PesoTotalKg, capacidadTotal)

	return res, nil
}

// ResumenCategoria is one category's slice of a history summary.
// Field names follow the mobile client contract.
type ResumenCategoria struct {
	Cantidad      int64   `json:"cantidad"`
	Llenado       string  `json:"llenado"`
	Clasificacion int     `json:"clasificacion"`
	UltimaAccion  *string `json:"ultimaAccion"`
}

// HistorySummary groups a user's detections by canonical category and
// returns, for each primary category, the count, a count-threshold
// fullness label, the rounded average confidence and the last event
// time. The three primary keys are always present.
func (e *Engine) HistorySummary(idUsuario uint) (map[string]ResumenCategoria, error) {
	eventos, err := e.Store.EventsByUser(idUsuario)
	if err != nil {
		return nil, err
	}
	return resumenPorCategoria(eventos), nil
}

// BinHistorySummary is HistorySummary over one bin's detections.
func (e *Engine) BinHistorySummary(idBasurero uint) (map[string]ResumenCategoria, error) {
	if _, err := e.Store.Bin(idBasurero); err != nil {
		return nil, err
	}
	eventos, err := e.Store.EventsByBin(idBasurero)
	if err != nil {
		return nil, err
	}
	return resumenPorCategoria(eventos), nil
}

func resumenPorCategoria(eventos []dbpkg.Deteccion) map[string]ResumenCategoria {
	type acum struct {
		cantidad int64
		sumaConf float64
		nConf    int64
		ultima   *time.Time
	}
	grupos := make(map[string]*acum)
	for _, ev := range eventos {
		nombre := NombreCategoria(ev.IDCategoria)
		if !EsPrimaria(nombre) {
			continue
		}
		g, ok := grupos[nombre]
		if !ok {
			g = &acum{}
			grupos[nombre] = g
		}
		g.cantidad++
		if ev.Confianza != nil {
			g.sumaConf += *ev.Confianza
			g.nConf++
		}
		if g.ultima == nil || ev.CreatedAt.After(*g.ultima) {
			t := ev.CreatedAt
			g.ultima = &t
		}
	}

	// Default every expected key first, then overwrite from the
	// grouped data, so sparse stores still yield the full shape.
	res := make(map[string]ResumenCategoria, len(categoriasPrimarias))
	for _, nombre := range categoriasPrimarias {
		res[nombre] = ResumenCategoria{Llenado: LlenadoVacio}
	}
	for nombre, g := range grupos {
		res[nombre] = ResumenCategoria{
			Cantidad:      g.cantidad,
			Llenado:       LlenadoPorCantidad(g.cantidad),
			Clasificacion: redondear(g.sumaConf, g.nConf),
			UltimaAccion:  FormatHora12(g.ultima),
		}
	}
	return res
}

// PosicionRanking is one row of the points leaderboard.
type PosicionRanking struct {
	Posicion          int    `json:"posicion"`
	IDUsuario         uint   `json:"id_usuario"`
	Nombre            string `json:"nombre"`
	Apellido          string `json:"apellido"`
	Clasificaciones   int64  `json:"clasificaciones"`
	PuntosTotales     int64  `json:"puntos_totales"`
	ConfianzaPromedio int    `json:"confianza_promedio"`
}

// RankingDefaultLimit bounds the leaderboard when the caller passes no
// usable limit.
const (
	RankingDefaultLimit = 10
	RankingMaxLimit     = 100
)

// Ranking returns the top users by total points. Users without any
// classification are excluded; ties break on ascending user id so the
// output is deterministic. Positions are assigned 1..len after
// truncation.
func (e *Engine) Ranking(limit int) ([]PosicionRanking, error) {
	if limit <= 0 {
		limit = RankingDefaultLimit
	}
	if limit > RankingMaxLimit {
		limit = RankingMaxLimit
	}

	rows, err := e.Store.LeaderboardRows()
	if err != nil {
		return nil, err
	}

	filtradas := make([]dbpkg.LeaderboardRow, 0, len(rows))
	for _, r := range rows {
		if r.Clasificaciones == 0 {
			continue
		}
		filtradas = append(filtradas, r)
	}
	sort.SliceStable(filtradas, func(i, j int) bool {
		if filtradas[i].PuntosTotales != filtradas[j].PuntosTotales {
			return filtradas[i].PuntosTotales > filtradas[j].PuntosTotales
		}
		return filtradas[i].IDUsuario < filtradas[j].IDUsuario
	})
	if len(filtradas) > limit {
		filtradas = filtradas[:limit]
	}

	res := make([]PosicionRanking, 0, len(filtradas))
	for i, r := range filtradas {
		res = append(res, PosicionRanking{
			Posicion:          i + 1,
			IDUsuario:         r.IDUsuario,
			Nombre:            r.Nombre,
			Apellido:          r.Apellido,
			Clasificaciones:   r.Clasificaciones,
			PuntosTotales:     r.PuntosTotales,
			ConfianzaPromedio: redondearValor(r.ConfianzaPromedio),
		})
	}
	return res, nil
}

// PanelUsuario is the user half of the combined panel, over the
// canonical 4-category mapping.
type PanelUsuario struct {
	TotalDetecciones  int64                       `json:"total_detecciones"`
	PuntosTotales     int64                       `json:"puntos_totales"`
	ConfianzaPromedio int                         `json:"confianza_promedio"`
	PorCategoria      map[string]TotalesCategoria `json:"por_categoria"`
}

// PanelBasurero is the optional bin half of the combined panel.
// AportesUsuario counts the panel user's own detections in this bin.
type PanelBasurero struct {
	IDBasurero      uint                             `json:"id_basurero"`
	Codigo          string                           `json:"codigo"`
	Estado          string                           `json:"estado"`
	PorcentajeTotal int                              `json:"porcentaje_total"`
	AportesUsuario  int64                            `json:"aportes_usuario"`
	PorCategoria    map[string]LlenadoCompartimiento `json:"por_categoria"`
}

// PanelCompleto combines the user aggregate with an optional bin fill
// breakdown.
type PanelCompleto struct {
	Usuario  PanelUsuario   `json:"usuario"`
	Basurero *PanelBasurero `json:"basurero,omitempty"`
}

// CombinedPanel always returns the user aggregate. When idBasurero is
// non-nil and resolves, the bin's fill breakdown is attached with a
// static "Operativo" marker; an unknown bin id just omits the section.
func (e *Engine) CombinedPanel(idUsuario uint, idBasurero *uint) (*PanelCompleto, error) {
	totales, err := e.UserTotals(idUsuario)
	if err != nil {
		return nil, err
	}

	res := &PanelCompleto{
		Usuario: PanelUsuario{
			TotalDetecciones:  totales.TotalDetecciones,
			PuntosTotales:     totales.PuntosTotales,
			ConfianzaPromedio: totales.ConfianzaPromedio,
			PorCategoria:      totales.PorCategoria,
		},
	}

	if idBasurero != nil {
		nivel, err := e.BinFillLevel(*idBasurero)
		switch {
		case err == nil:
			propios, err := e.Store.EventsByUserAndBin(idUsuario, *idBasurero)
			if err != nil {
				return nil, err
			}
			res.Basurero = &PanelBasurero{
				IDBasurero:      nivel.IDBasurero,
				Codigo:          nivel.Codigo,
				Estado:          "Operativo",
				PorcentajeTotal: nivel.PorcentajeTotal,
				AportesUsuario:  int64(len(propios)),
				PorCategoria:    nivel.PorCategoria,
			}
		case errorEsNoEncontrado(err):
			// Unknown bin: section omitted, never a failure.
		default:
			return nil, err
		}
	}

	return res, nil
}

// DeteccionHoy is one of today's detections, newest first.
type DeteccionHoy struct {
	IDDeteccion    uint      `json:"id_deteccion"`
	TipoResiduo    string    `json:"tipo_residuo"`
	NombreObjeto   string    `json:"nombre_objeto"`
	Confianza      *float64  `json:"confianza"`
	PuntosGanados  int       `json:"puntos_ganados"`
	FechaDeteccion time.Time `json:"fecha_deteccion"`
}

// TodayEvents filters the user's detections to the current server-local
// calendar day and returns them newest first, unfiltered by category.
func (e *Engine) TodayEvents(idUsuario uint) ([]DeteccionHoy, error) {
	eventos, err := e.Store.EventsByUser(idUsuario)
	if err != nil {
		return nil, err
	}

	hoyY, hoyM, hoyD := e.now().Date()
	res := make([]DeteccionHoy, 0)
	for _, ev := range eventos {
		y, m, d := ev.CreatedAt.Date()
		if y != hoyY || m != hoyM || d != hoyD {
			continue
		}
		res = append(res, DeteccionHoy{
			IDDeteccion:    ev.ID,
			TipoResiduo:    ev.TipoResiduo,
			NombreObjeto:   ev.NombreObjeto,
			Confianza:      ev.Confianza,
			PuntosGanados:  ev.PuntosGanados,
			FechaDeteccion: ev.CreatedAt,
		})
	}
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].FechaDeteccion.After(res[j].FechaDeteccion)
	})
	return res, nil
}

// UltimaAccion is the most recent detection shown on the status panel.
type UltimaAccion struct {
	TipoResiduo    string    `json:"tipo_residuo"`
	NombreObjeto   string    `json:"nombre_objeto"`
	FechaDeteccion time.Time `json:"fecha_deteccion"`
}

// PanelEstado is the quick status-panel view.
type PanelEstado struct {
	Cantidades        map[string]int64 `json:"cantidades"`
	UltimaAccion      *UltimaAccion    `json:"ultima_accion"`
	PorcentajeAcierto int              `json:"porcentaje_acierto"`
}

// StatusPanel returns per-category counts (the three primary keys are
// always present), the most recent detection if any, and the rounded
// average confidence.
func (e *Engine) StatusPanel(idUsuario uint) (*PanelEstado, error) {
	eventos, err := e.Store.EventsByUser(idUsuario)
	if err != nil {
		return nil, err
	}

	res := &PanelEstado{Cantidades: make(map[string]int64, len(categoriasPrimarias))}
	for _, nombre := range categoriasPrimarias {
		res.Cantidades[nombre] = 0
	}

	var sumaConf float64
	var nConf int64
	for _, ev := range eventos {
		res.Cantidades[NombreCategoria(ev.IDCategoria)]++
		if ev.Confianza != nil {
			sumaConf += *ev.Confianza
			nConf++
		}
		if res.UltimaAccion == nil || ev.CreatedAt.After(res.UltimaAccion.FechaDeteccion) {
			res.UltimaAccion = &UltimaAccion{
				TipoResiduo:    ev.TipoResiduo,
				NombreObjeto:   ev.NombreObjeto,
				FechaDeteccion: ev.CreatedAt,
			}
		}
	}
	res.PorcentajeAcierto = redondear(sumaConf, nConf)

	return res, nil
}

func categoriasPorDefecto(nombres []string) map[string]TotalesCategoria {
	m := make(map[string]TotalesCategoria, len(nombres))
	for _, n := range nombres {
		m[n] = TotalesCategoria{}
	}
	return m
}

func errorEsNoEncontrado(err error) bool {
	return errors.Is(err, dbpkg.ErrBasureroNoEncontrado)
}
