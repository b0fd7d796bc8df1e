package ctx

import (
	"github.com/valyala/fasthttp"

	"separapp/internal/auth"
)

const claimsKey = "claims"

func SetClaims(ctx *fasthttp.RequestCtx, claims *auth.Claims) {
	ctx.SetUserValue(claimsKey, claims)
}

func ClaimsFromCtx(ctx *fasthttp.RequestCtx) (*auth.Claims, bool) {
	v := ctx.UserValue(claimsKey)
	if v == nil {
		return nil, false
	}
	c, ok := v.(*auth.Claims)
	return c, ok
}
