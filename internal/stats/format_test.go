package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLlenadoPorCantidad(t *testing.T) {
	cases := []struct {
		cantidad int64
		want     string
	}{
		{0, LlenadoVacio},
		{1, LlenadoBajo},
		{9, LlenadoBajo},
		{10, LlenadoMedio},
		{19, LlenadoMedio},
		{20, LlenadoAlto},
		{500, LlenadoAlto},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, LlenadoPorCantidad(c.cantidad), "cantidad=%d", c.cantidad)
	}
}

func TestEstadoPorPeso(t *testing.T) {
	cases := []struct {
		peso, capacidad float64
		want            string
	}{
		{0, 100, LlenadoBajo},
		{39.9, 100, LlenadoBajo},
		{40, 100, LlenadoMedio},
		{69.9, 100, LlenadoMedio},
		{70, 100, LlenadoAlto},
		{89.9, 100, LlenadoAlto},
		{90, 100, LlenadoCritico},
		{500, 100, LlenadoCritico},
		{10, 0, LlenadoBajo},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, EstadoPorPeso(c.peso, c.capacidad), "peso=%v capacidad=%v", c.peso, c.capacidad)
	}
}

func TestPorcentajeClamp(t *testing.T) {
	assert.Equal(t, 0, Porcentaje(0, 100))
	assert.Equal(t, 50, Porcentaje(50, 100))
	assert.Equal(t, 33, Porcentaje(100, 300))
	assert.Equal(t, 100, Porcentaje(100, 100))
	assert.Equal(t, 100, Porcentaje(250, 100))
	assert.Equal(t, 0, Porcentaje(50, 0))
	assert.Equal(t, 0, Porcentaje(10, -5))
}

func TestRedondear(t *testing.T) {
	assert.Equal(t, 0, redondear(0, 0))
	assert.Equal(t, 80, redondear(240, 3))
	assert.Equal(t, 76, redondear(151, 2))
}

func TestNombreCategoria(t *testing.T) {
	assert.Equal(t, "reciclable", NombreCategoria(CategoriaReciclable))
	assert.Equal(t, "organico", NombreCategoria(CategoriaOrganico))
	assert.Equal(t, "inorganico", NombreCategoria(CategoriaInorganico))
	assert.Equal(t, "peligroso", NombreCategoria(CategoriaPeligroso))
	assert.Equal(t, "otro", NombreCategoria(0))
	assert.Equal(t, "otro", NombreCategoria(99))
}

func TestEsPrimaria(t *testing.T) {
	assert.True(t, EsPrimaria("organico"))
	assert.True(t, EsPrimaria("reciclable"))
	assert.True(t, EsPrimaria("inorganico"))
	assert.False(t, EsPrimaria("peligroso"))
	assert.False(t, EsPrimaria("otro"))
}

func TestFormatHora12(t *testing.T) {
	assert.Nil(t, FormatHora12(nil))

	tarde := time.Date(2026, 1, 2, 15, 9, 0, 0, time.Local)
	got := FormatHora12(&tarde)
	assert.Equal(t, "03:09 PM", *got)

	madrugada := time.Date(2026, 1, 2, 0, 5, 0, 0, time.Local)
	got = FormatHora12(&madrugada)
	assert.Equal(t, "12:05 AM", *got)
}
