package handlers

import (
	"encoding/json"
	"log"
	"strconv"
	"time"

	"github.com/valyala/fasthttp"

	httpctx "separapp/internal/http/ctx"
)

// RequestLogger returns fasthttp middleware that logs method, path, status, duration.
func RequestLogger(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		next(ctx)
		log.Printf("%s %s -> %d (%s) ip=%s", ctx.Method(), ctx.Path(), ctx.Response.StatusCode(), time.Since(start), ctx.RemoteAddr())
	}
}

// jsonResponse writes a success envelope. Every payload key is merged
// next to "success": true, matching the mobile client contract.
func jsonResponse(ctx *fasthttp.RequestCtx, payload map[string]any) {
	jsonStatus(ctx, fasthttp.StatusOK, payload)
}

func jsonStatus(ctx *fasthttp.RequestCtx, code int, payload map[string]any) {
	out := make(map[string]any, len(payload)+1)
	out["success"] = true
	for k, v := range payload {
		out[k] = v
	}
	ctx.SetStatusCode(code)
	ctx.SetContentType("application/json")
	body, _ := json.Marshal(out)
	ctx.SetBody(body)
}

// errResponse writes the structured failure envelope, always distinct
// in shape from success.
func errResponse(ctx *fasthttp.RequestCtx, code int, msg string) {
	ctx.SetStatusCode(code)
	ctx.SetContentType("application/json")
	body, _ := json.Marshal(map[string]any{"success": false, "error": msg})
	ctx.SetBody(body)
}

// routeID parses a numeric path segment. Malformed ids are rejected
// before any query runs.
func routeID(ctx *fasthttp.RequestCtx, name string) (uint, bool) {
	v := ctx.UserValue(name)
	if v == nil {
		errResponse(ctx, fasthttp.StatusBadRequest, "id inválido")
		return 0, false
	}
	s, ok := v.(string)
	if !ok {
		errResponse(ctx, fasthttp.StatusBadRequest, "id inválido")
		return 0, false
	}
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil || id == 0 {
		errResponse(ctx, fasthttp.StatusBadRequest, "id inválido")
		return 0, false
	}
	return uint(id), true
}

// routeCodigo returns a non-empty :codigo path segment.
func routeCodigo(ctx *fasthttp.RequestCtx) (string, bool) {
	v := ctx.UserValue("codigo")
	s, ok := v.(string)
	if !ok || s == "" {
		errResponse(ctx, fasthttp.StatusBadRequest, "código inválido")
		return "", false
	}
	return s, true
}

// MustClaims returns the token claims set by the auth middleware, or
// sends 401 and returns false.
func MustClaims(ctx *fasthttp.RequestCtx) (idUsuario uint, ok bool) {
	claims, ok := httpctx.ClaimsFromCtx(ctx)
	if !ok {
		errResponse(ctx, fasthttp.StatusUnauthorized, "No autorizado")
		return 0, false
	}
	id, ok := claims.UserID()
	if !ok {
		errResponse(ctx, fasthttp.StatusUnauthorized, "No autorizado")
		return 0, false
	}
	return id, true
}
