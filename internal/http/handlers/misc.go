package handlers

import (
	"time"

	"github.com/valyala/fasthttp"
	"gorm.io/gorm"

	dbpkg "separapp/internal/db"
)

// Root answers the version banner the mobile client pings on startup.
func Root() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		jsonResponse(ctx, map[string]any{
			"message":   "API SeparAPP funcionando correctamente",
			"version":   "1.0.0",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// Health verifies database connectivity.
func Health(db *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		var resultado int
		if err := db.Raw("SELECT 1 + 1").Scan(&resultado).Error; err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "Error de conexión a la base de datos")
			return
		}
		jsonResponse(ctx, map[string]any{
			"message": "Conexión a la base de datos exitosa",
			"test":    resultado,
		})
	}
}

type usuarioRow struct {
	IDUsuario     uint      `json:"id_usuario"`
	Nombre        string    `json:"nombre"`
	Apellido      string    `json:"apellido"`
	Correo        string    `json:"correo"`
	IDRol         int       `json:"id_rol"`
	IDEstado      int       `json:"id_estado"`
	FechaRegistro time.Time `json:"fecha_registro"`
}

// ListarUsuarios returns every account, newest first. Admin-gated.
func ListarUsuarios(db *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		var usuarios []dbpkg.Usuario
		if err := db.Order("fecha_registro DESC").Find(&usuarios).Error; err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "Error al obtener usuarios")
			return
		}

		rows := make([]usuarioRow, 0, len(usuarios))
		for _, u := range usuarios {
			rows = append(rows, usuarioRow{
				IDUsuario:     u.ID,
				Nombre:        u.Nombre,
				Apellido:      u.Apellido,
				Correo:        u.Correo,
				IDRol:         u.IDRol,
				IDEstado:      u.IDEstado,
				FechaRegistro: u.CreatedAt,
			})
		}

		jsonResponse(ctx, map[string]any{
			"total": len(rows),
			"data":  rows,
		})
	}
}
