package handlers

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

func TestJSONResponseEnvelope(t *testing.T) {
	ctx := &fasthttp.RequestCtx{}
	jsonResponse(ctx, map[string]any{"total": 2})

	var body map[string]any
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(2), body["total"])
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
}

func TestErrResponseEnvelope(t *testing.T) {
	ctx := &fasthttp.RequestCtx{}
	errResponse(ctx, fasthttp.StatusNotFound, "Basurero no encontrado")

	var body map[string]any
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Basurero no encontrado", body["error"])
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
}

func TestRouteID(t *testing.T) {
	ctx := &fasthttp.RequestCtx{}
	ctx.SetUserValue("id_usuario", "42")
	id, ok := routeID(ctx, "id_usuario")
	assert.True(t, ok)
	assert.Equal(t, uint(42), id)

	for _, bad := range []string{"", "abc", "-1", "0", "1.5"} {
		ctx := &fasthttp.RequestCtx{}
		ctx.SetUserValue("id_usuario", bad)
		_, ok := routeID(ctx, "id_usuario")
		assert.False(t, ok, "value %q should be rejected", bad)
	}
}

func TestFormatearNombre(t *testing.T) {
	assert.Equal(t, "Maria Jose", formatearNombre("  maria   jose "))
	assert.Equal(t, "Ana", formatearNombre("ANA"))
	assert.Equal(t, "Óscar", formatearNombre("óscar"))
	assert.Equal(t, "", formatearNombre("   "))
}
