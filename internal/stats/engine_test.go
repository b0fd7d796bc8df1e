package stats

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbpkg "separapp/internal/db"
)

type fakeStore struct {
	porUsuario map[uint][]dbpkg.Deteccion
	porBin     map[uint][]dbpkg.Deteccion
	bins       map[uint]*dbpkg.Basurero
	rows       []dbpkg.LeaderboardRow
	err        error
}

func (f *fakeStore) EventsByUser(id uint) ([]dbpkg.Deteccion, error) {
	return f.porUsuario[id], f.err
}

func (f *fakeStore) EventsByBin(id uint) ([]dbpkg.Deteccion, error) {
	return f.porBin[id], f.err
}

func (f *fakeStore) EventsByUserAndBin(idUsuario, idBasurero uint) ([]dbpkg.Deteccion, error) {
	var out []dbpkg.Deteccion
	for _, ev := range f.porUsuario[idUsuario] {
		if ev.IDBasurero != nil && *ev.IDBasurero == idBasurero {
			out = append(out, ev)
		}
	}
	return out, f.err
}

func (f *fakeStore) Bin(id uint) (*dbpkg.Basurero, error) {
	if f.err != nil {
		return nil, f.err
	}
	b, ok := f.bins[id]
	if !ok {
		return nil, dbpkg.ErrBasureroNoEncontrado
	}
	return b, nil
}

func (f *fakeStore) LeaderboardRows() ([]dbpkg.LeaderboardRow, error) {
	return f.rows, f.err
}

func f64(v float64) *float64 { return &v }

func deteccion(categoria uint, conf, pesoGramos *float64, puntos int, t time.Time) dbpkg.Deteccion {
	return dbpkg.Deteccion{
		IDCategoria:   categoria,
		Confianza:     conf,
		PesoGramos:    pesoGramos,
		PuntosGanados: puntos,
		CreatedAt:     t,
	}
}

func newEngine(store Store) *Engine {
	return &Engine{Store: store, CapacidadDefectoKg: 1000}
}

func TestUserTotalsSinEventos(t *testing.T) {
	e := newEngine(&fakeStore{})

	res, err := e.UserTotals(42)
	require.NoError(t, err)

	assert.Equal(t, int64(0), res.TotalDetecciones)
	assert.Equal(t, int64(0), res.PuntosTotales)
	assert.Equal(t, 0, res.ConfianzaPromedio)
	assert.Empty(t, res.PorTipo)
	require.Len(t, res.PorCategoria, 4)
	for _, nombre := range []string{"reciclable", "organico", "inorganico", "peligroso"} {
		tc, ok := res.PorCategoria[nombre]
		require.True(t, ok, "missing category %s", nombre)
		assert.Equal(t, int64(0), tc.Cantidad)
		assert.Equal(t, int64(0), tc.PuntosTotales)
	}
}

func TestUserTotalsPromedioYCategorias(t *testing.T) {
	ahora := time.Now()
	store := &fakeStore{porUsuario: map[uint][]dbpkg.Deteccion{
		5: {
			deteccion(CategoriaOrganico, f64(80), nil, 10, ahora),
			deteccion(CategoriaOrganico, f64(90), nil, 10, ahora),
			deteccion(CategoriaOrganico, f64(70), nil, 10, ahora),
		},
	}}
	e := newEngine(store)

	res, err := e.UserTotals(5)
	require.NoError(t, err)

	assert.Equal(t, int64(3), res.TotalDetecciones)
	assert.Equal(t, int64(30), res.PuntosTotales)
	assert.Equal(t, 80, res.ConfianzaPromedio)
	assert.Equal(t, int64(3), res.PorCategoria["organico"].Cantidad)
	assert.Equal(t, int64(30), res.PorCategoria["organico"].PuntosTotales)
	assert.Equal(t, int64(0), res.PorCategoria["reciclable"].Cantidad)
}

func TestUserTotalsPorTipoLegado(t *testing.T) {
	ahora := time.Now()
	evs := []dbpkg.Deteccion{
		deteccion(CategoriaOrganico, nil, nil, 10, ahora),
		deteccion(CategoriaReciclable, nil, nil, 15, ahora),
	}
	evs[0].TipoResiduo = "organico"
	evs[1].TipoResiduo = "reciclable"
	e := newEngine(&fakeStore{porUsuario: map[uint][]dbpkg.Deteccion{1: evs}})

	res, err := e.UserTotals(1)
	require.NoError(t, err)

	require.Len(t, res.PorTipo, 2)
	assert.Equal(t, "organico", res.PorTipo[0].TipoResiduo)
	assert.Equal(t, "reciclable", res.PorTipo[1].TipoResiduo)
	assert.Equal(t, int64(15), res.PorTipo[1].PuntosTotales)
}

func TestUserTotalsCategoriaDesconocidaEsOtro(t *testing.T) {
	e := newEngine(&fakeStore{porUsuario: map[uint][]dbpkg.Deteccion{
		1: {deteccion(9, nil, nil, 10, time.Now())},
	}})

	res, err := e.UserTotals(1)
	require.NoError(t, err)

	assert.Equal(t, int64(1), res.PorCategoria["otro"].Cantidad)
	assert.Equal(t, int64(0), res.PorCategoria["reciclable"].Cantidad)
}

func TestBinFillLevelClampYEstado(t *testing.T) {
	// 300 kg bin, 100 kg of reciclable: compartment (100 kg) full and
	// clamped at 100, overall a third full.
	ahora := time.Now()
	store := &fakeStore{
		bins: map[uint]*dbpkg.Basurero{7: {ID: 7, Codigo: "BAS-7", CapacidadKg: 300}},
		porBin: map[uint][]dbpkg.Deteccion{7: {
			deteccion(CategoriaReciclable, nil, f64(60000), 10, ahora),
			deteccion(CategoriaReciclable, nil, f64(40000), 10, ahora),
		}},
	}
	e := newEngine(store)

	nivel, err := e.BinFillLevel(7)
	require.NoError(t, err)

	assert.Equal(t, 100, nivel.PorCategoria["reciclable"].Porcentaje)
	assert.Equal(t, float64(100), nivel.PorCategoria["reciclable"].PesoKg)
	assert.Equal(t, float64(100), nivel.PorCategoria["reciclable"].CapacidadKg)
	assert.Equal(t, 0, nivel.PorCategoria["organico"].Porcentaje)
	assert.Equal(t, 33, nivel.PorcentajeTotal)
	assert.Equal(t, LlenadoBajo, nivel.Estado)
}

func TestBinFillLevelNuncaExcedeCien(t *testing.T) {
	store := &fakeStore{
		bins: map[uint]*dbpkg.Basurero{1: {ID: 1, Codigo: "X", CapacidadKg: 30}},
		porBin: map[uint][]dbpkg.Deteccion{1: {
			deteccion(CategoriaOrganico, nil, f64(500000), 10, time.Now()),
		}},
	}
	e := newEngine(store)

	nivel, err := e.BinFillLevel(1)
	require.NoError(t, err)

	assert.Equal(t, 100, nivel.PorCategoria["organico"].Porcentaje)
	assert.Equal(t, 100, nivel.PorcentajeTotal)
	assert.Equal(t, LlenadoCritico, nivel.Estado)
}

func TestBinFillLevelCapacidadPorDefecto(t *testing.T) {
	store := &fakeStore{bins: map[uint]*dbpkg.Basurero{3: {ID: 3, Codigo: "SIN-CAP"}}}
	e := newEngine(store)

	nivel, err := e.BinFillLevel(3)
	require.NoError(t, err)

	assert.Equal(t, float64(1000), nivel.CapacidadKg)
	assert.InDelta(t, 1000.0/3, nivel.PorCategoria["organico"].CapacidadKg, 0.001)
}

func TestBinFillLevelNoEncontrado(t *testing.T) {
	e := newEngine(&fakeStore{})

	_, err := e.BinFillLevel(999)
	require.Error(t, err)
	assert.True(t, errors.Is(err, dbpkg.ErrBasureroNoEncontrado))
}

func TestBinFillLevelIgnoraCategoriasNoPrimarias(t *testing.T) {
	store := &fakeStore{
		bins: map[uint]*dbpkg.Basurero{1: {ID: 1, Codigo: "X", CapacidadKg: 300}},
		porBin: map[uint][]dbpkg.Deteccion{1: {
			deteccion(CategoriaPeligroso, nil, f64(50000), 10, time.Now()),
			deteccion(9, nil, f64(50000), 10, time.Now()),
		}},
	}
	e := newEngine(store)

	nivel, err := e.BinFillLevel(1)
	require.NoError(t, err)

	assert.Equal(t, float64(0), nivel.PesoTotalKg)
	assert.Equal(t, 0, nivel.PorcentajeTotal)
}

func TestHistorySummarySiempreTresClaves(t *testing.T) {
	e := newEngine(&fakeStore{})

	resumen, err := e.HistorySummary(1)
	require.NoError(t, err)

	require.Len(t, resumen, 3)
	for _, nombre := range []string{"organico", "reciclable", "inorganico"} {
		rc, ok := resumen[nombre]
		require.True(t, ok, "missing key %s", nombre)
		assert.Equal(t, int64(0), rc.Cantidad)
		assert.Equal(t, LlenadoVacio, rc.Llenado)
		assert.Equal(t, 0, rc.Clasificacion)
		assert.Nil(t, rc.UltimaAccion)
	}
}

func TestHistorySummaryAgrupaYFormatea(t *testing.T) {
	base := time.Date(2026, 3, 14, 15, 9, 0, 0, time.Local)
	evs := []dbpkg.Deteccion{
		deteccion(CategoriaOrganico, f64(80), nil, 10, base.Add(-2*time.Hour)),
		deteccion(CategoriaOrganico, f64(90), nil, 10, base),
		deteccion(CategoriaOrganico, f64(70), nil, 10, base.Add(-time.Hour)),
	}
	e := newEngine(&fakeStore{porUsuario: map[uint][]dbpkg.Deteccion{2: evs}})

	resumen, err := e.HistorySummary(2)
	require.NoError(t, err)

	organico := resumen["organico"]
	assert.Equal(t, int64(3), organico.Cantidad)
	assert.Equal(t, LlenadoBajo, organico.Llenado)
	assert.Equal(t, 80, organico.Clasificacion)
	require.NotNil(t, organico.UltimaAccion)
	assert.Equal(t, "03:09 PM", *organico.UltimaAccion)
}

func TestBinHistorySummaryNoEncontrado(t *testing.T) {
	e := newEngine(&fakeStore{})

	_, err := e.BinHistorySummary(1)
	assert.True(t, errors.Is(err, dbpkg.ErrBasureroNoEncontrado))
}

func TestRankingExcluyeSinClasificaciones(t *testing.T) {
	store := &fakeStore{rows: []dbpkg.LeaderboardRow{
		{IDUsuario: 1, Nombre: "Ana", Clasificaciones: 5, PuntosTotales: 50, ConfianzaPromedio: 81.4},
		{IDUsuario: 2, Nombre: "Beto", Clasificaciones: 0, PuntosTotales: 0},
		{IDUsuario: 3, Nombre: "Carla", Clasificaciones: 9, PuntosTotales: 90, ConfianzaPromedio: 75.5},
	}}
	e := newEngine(store)

	res, err := e.Ranking(10)
	require.NoError(t, err)

	require.Len(t, res, 2)
	assert.Equal(t, uint(3), res[0].IDUsuario)
	assert.Equal(t, 1, res[0].Posicion)
	assert.Equal(t, 76, res[0].ConfianzaPromedio)
	assert.Equal(t, uint(1), res[1].IDUsuario)
	assert.Equal(t, 2, res[1].Posicion)
	for _, r := range res {
		assert.NotZero(t, r.Clasificaciones)
	}
}

func TestRankingLimiteYPosiciones(t *testing.T) {
	rows := make([]dbpkg.LeaderboardRow, 0, 20)
	for i := 1; i <= 20; i++ {
		rows = append(rows, dbpkg.LeaderboardRow{
			IDUsuario:       uint(i),
			Clasificaciones: int64(i),
			PuntosTotales:   int64(i * 10),
		})
	}
	e := newEngine(&fakeStore{rows: rows})

	res, err := e.Ranking(5)
	require.NoError(t, err)

	require.Len(t, res, 5)
	for i, r := range res {
		assert.Equal(t, i+1, r.Posicion)
	}
	assert.Equal(t, int64(200), res[0].PuntosTotales)
}

func TestRankingDesempatePorID(t *testing.T) {
	store := &fakeStore{rows: []dbpkg.LeaderboardRow{
		{IDUsuario: 9, Clasificaciones: 1, PuntosTotales: 10},
		{IDUsuario: 4, Clasificaciones: 1, PuntosTotales: 10},
	}}
	e := newEngine(store)

	res, err := e.Ranking(0)
	require.NoError(t, err)

	require.Len(t, res, 2)
	assert.Equal(t, uint(4), res[0].IDUsuario)
	assert.Equal(t, uint(9), res[1].IDUsuario)
}

func TestCombinedPanelSinBasurero(t *testing.T) {
	e := newEngine(&fakeStore{porUsuario: map[uint][]dbpkg.Deteccion{
		5: {deteccion(CategoriaReciclable, f64(90), nil, 10, time.Now())},
	}})

	inexistente := uint(999)
	panel, err := e.CombinedPanel(5, &inexistente)
	require.NoError(t, err)

	assert.Nil(t, panel.Basurero)
	assert.Equal(t, int64(1), panel.Usuario.TotalDetecciones)

	body, err := json.Marshal(panel)
	require.NoError(t, err)
	assert.NotContains(t, string(body), `"basurero"`)
	assert.Contains(t, string(body), `"usuario"`)
}

func TestCombinedPanelConBasurero(t *testing.T) {
	ahora := time.Now()
	enBin := deteccion(CategoriaOrganico, nil, nil, 10, ahora)
	idBin := uint(7)
	enBin.IDBasurero = &idBin
	store := &fakeStore{
		porUsuario: map[uint][]dbpkg.Deteccion{5: {
			enBin,
			deteccion(CategoriaReciclable, nil, nil, 10, ahora),
		}},
		bins: map[uint]*dbpkg.Basurero{7: {ID: 7, Codigo: "BAS-7", CapacidadKg: 300}},
		porBin: map[uint][]dbpkg.Deteccion{7: {
			deteccion(CategoriaOrganico, nil, f64(10000), 10, ahora),
		}},
	}
	e := newEngine(store)

	panel, err := e.CombinedPanel(5, &idBin)
	require.NoError(t, err)

	require.NotNil(t, panel.Basurero)
	assert.Equal(t, "Operativo", panel.Basurero.Estado)
	assert.Equal(t, "BAS-7", panel.Basurero.Codigo)
	assert.Equal(t, int64(1), panel.Basurero.AportesUsuario)
	require.Len(t, panel.Basurero.PorCategoria, 3)
	assert.Equal(t, 10, panel.Basurero.PorCategoria["organico"].Porcentaje)
}

func TestTodayEventsFiltraYOrdena(t *testing.T) {
	ahora := time.Date(2026, 8, 30, 12, 0, 0, 0, time.Local)
	evs := []dbpkg.Deteccion{
		deteccion(CategoriaOrganico, nil, nil, 10, ahora.Add(-26*time.Hour)), // ayer
		deteccion(CategoriaOrganico, nil, nil, 10, ahora.Add(-3*time.Hour)),
		deteccion(CategoriaReciclable, nil, nil, 10, ahora.Add(-time.Hour)),
	}
	evs[1].ID = 2
	evs[2].ID = 3
	e := newEngine(&fakeStore{porUsuario: map[uint][]dbpkg.Deteccion{1: evs}})
	e.Now = func() time.Time { return ahora }

	res, err := e.TodayEvents(1)
	require.NoError(t, err)

	require.Len(t, res, 2)
	assert.Equal(t, uint(3), res[0].IDDeteccion)
	assert.Equal(t, uint(2), res[1].IDDeteccion)
}

func TestStatusPanelPorDefecto(t *testing.T) {
	e := newEngine(&fakeStore{})

	panel, err := e.StatusPanel(1)
	require.NoError(t, err)

	require.Len(t, panel.Cantidades, 3)
	assert.Equal(t, int64(0), panel.Cantidades["organico"])
	assert.Equal(t, int64(0), panel.Cantidades["inorganico"])
	assert.Equal(t, int64(0), panel.Cantidades["reciclable"])
	assert.Nil(t, panel.UltimaAccion)
	assert.Equal(t, 0, panel.PorcentajeAcierto)
}

func TestStatusPanelUltimaAccion(t *testing.T) {
	ahora := time.Now()
	evs := []dbpkg.Deteccion{
		deteccion(CategoriaOrganico, f64(60), nil, 10, ahora.Add(-time.Hour)),
		deteccion(CategoriaReciclable, f64(90), nil, 10, ahora),
	}
	evs[1].NombreObjeto = "botella"
	evs[1].TipoResiduo = "reciclable"
	e := newEngine(&fakeStore{porUsuario: map[uint][]dbpkg.Deteccion{1: evs}})

	panel, err := e.StatusPanel(1)
	require.NoError(t, err)

	assert.Equal(t, int64(1), panel.Cantidades["organico"])
	assert.Equal(t, int64(1), panel.Cantidades["reciclable"])
	require.NotNil(t, panel.UltimaAccion)
	assert.Equal(t, "botella", panel.UltimaAccion.NombreObjeto)
	assert.Equal(t, 75, panel.PorcentajeAcierto)
}

func TestAggregacionesIdempotentes(t *testing.T) {
	ahora := time.Now()
	store := &fakeStore{
		porUsuario: map[uint][]dbpkg.Deteccion{1: {
			deteccion(CategoriaOrganico, f64(77), f64(1500), 10, ahora),
			deteccion(CategoriaReciclable, f64(88), f64(2500), 20, ahora),
		}},
		bins:   map[uint]*dbpkg.Basurero{1: {ID: 1, Codigo: "X", CapacidadKg: 60}},
		porBin: map[uint][]dbpkg.Deteccion{1: {deteccion(CategoriaOrganico, nil, f64(3000), 10, ahora)}},
	}
	e := newEngine(store)

	primera, err := e.UserTotals(1)
	require.NoError(t, err)
	segunda, err := e.UserTotals(1)
	require.NoError(t, err)

	b1, _ := json.Marshal(primera)
	b2, _ := json.Marshal(segunda)
	assert.Equal(t, b1, b2)

	n1, err := e.BinFillLevel(1)
	require.NoError(t, err)
	n2, err := e.BinFillLevel(1)
	require.NoError(t, err)

	b1, _ = json.Marshal(n1)
	b2, _ = json.Marshal(n2)
	assert.Equal(t, b1, b2)
}

func TestErrorDeStoreSePropaga(t *testing.T) {
	fallo := errors.New("conexión perdida")
	e := newEngine(&fakeStore{err: fallo})

	_, err := e.UserTotals(1)
	assert.True(t, errors.Is(err, fallo))

	_, err = e.Ranking(10)
	assert.True(t, errors.Is(err, fallo))
}
