package handlers

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	dbpkg "separapp/internal/db"
)

type registroBasureroRequest struct {
	Codigo      string   `json:"codigo"`
	Nombre      string   `json:"nombre"`
	Capacidad   *float64 `json:"capacidad"`
	Ubicacion   string   `json:"ubicacion"`
	Descripcion string   `json:"descripcion"`
}

// RegistroBasurero registers a bin by its unique code, or updates the
// basic fields of an existing one. Only fields present in the body are
// overwritten on update.
func RegistroBasurero(db *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		var req registroBasureroRequest
		if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, "Cuerpo JSON inválido")
			return
		}
		if req.Codigo == "" {
			errResponse(ctx, fasthttp.StatusBadRequest, `El campo "codigo" es obligatorio`)
			return
		}

		var existente dbpkg.Basurero
		err := db.Where("codigo = ?", req.Codigo).Limit(1).Find(&existente).Error
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "Error al registrar basurero")
			return
		}

		if existente.ID != 0 {
			updates := map[string]any{}
			if req.Nombre != "" {
				updates["nombre"] = req.Nombre
			}
			if req.Capacidad != nil {
				updates["capacidad"] = *req.Capacidad
			}
			if req.Ubicacion != "" {
				updates["ubicacion"] = req.Ubicacion
			}
			if req.Descripcion != "" {
				updates["descripcion"] = req.Descripcion
			}
			if len(updates) > 0 {
				if err := db.Model(&existente).Updates(updates).Error; err != nil {
					errResponse(ctx, fasthttp.StatusInternalServerError, "Error al registrar basurero")
					return
				}
			}
			jsonResponse(ctx, map[string]any{
				"message": "Basurero actualizado correctamente",
				"data":    map[string]any{"id_basurero": existente.ID, "codigo": req.Codigo},
			})
			return
		}

		nombre := req.Nombre
		if nombre == "" {
			nombre = "Basurero " + req.Codigo
		}
		nuevo := dbpkg.Basurero{
			Codigo:      req.Codigo,
			Nombre:      nombre,
			Ubicacion:   req.Ubicacion,
			Descripcion: req.Descripcion,
			IDEstado:    1,
		}
		if req.Capacidad != nil {
			nuevo.CapacidadKg = *req.Capacidad
		}
		if err := db.Create(&nuevo).Error; err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "Error al registrar basurero")
			return
		}

		jsonStatus(ctx, fasthttp.StatusCreated, map[string]any{
			"message": "Basurero registrado correctamente",
			"data":    map[string]any{"id_basurero": nuevo.ID, "codigo": nuevo.Codigo},
		})
	}
}

func BasureroPorCodigo(db *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		codigo, ok := routeCodigo(ctx)
		if !ok {
			return
		}

		var bin dbpkg.Basurero
		err := db.Where("codigo = ?", codigo).Limit(1).Find(&bin).Error
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "Error al buscar basurero")
			return
		}
		if bin.ID == 0 {
			errResponse(ctx, fasthttp.StatusNotFound, "Basurero no encontrado")
			return
		}

		jsonResponse(ctx, map[string]any{
			"data": map[string]any{
				"id_basurero": bin.ID,
				"nombre":      bin.Nombre,
				"codigo":      bin.Codigo,
				"capacidad":   bin.CapacidadKg,
				"ubicacion":   bin.Ubicacion,
				"descripcion": bin.Descripcion,
			},
		})
	}
}

type conexionRequest struct {
	IDUsuario    *uint    `json:"id_usuario"`
	IDBasurero   uint     `json:"id_basurero"`
	TipoConexion string   `json:"tipo_conexion"`
	IPCliente    string   `json:"ip_cliente"`
	Dispositivo  string   `json:"dispositivo"`
	Latitud      *float64 `json:"latitud"`
	Longitud     *float64 `json:"longitud"`
}

var tiposConexionValidos = map[string]bool{
	"consulta": true, "apertura": true, "deposito": true, "otro": true,
}

// RegistrarConexion logs a client contact with a bin, addressed by
// numeric bin id in the body.
func RegistrarConexion(db *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		var req conexionRequest
		if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, "Cuerpo JSON inválido")
			return
		}
		if req.IDUsuario == nil || *req.IDUsuario == 0 || req.IDBasurero == 0 {
			errResponse(ctx, fasthttp.StatusBadRequest, "id_usuario y id_basurero son obligatorios")
			return
		}

		tipo := strings.ToLower(req.TipoConexion)
		if tipo == "" {
			tipo = "consulta"
		}
		if !tiposConexionValidos[tipo] {
			errResponse(ctx, fasthttp.StatusBadRequest, "tipo_conexion debe ser: consulta, apertura, deposito u otro")
			return
		}

		conexion := dbpkg.Conexion{
			IDBasurero:   req.IDBasurero,
			IDUsuario:    req.IDUsuario,
			TipoConexion: tipo,
			IPCliente:    req.IPCliente,
			Dispositivo:  req.Dispositivo,
			Latitud:      req.Latitud,
			Longitud:     req.Longitud,
		}
		if err := db.Create(&conexion).Error; err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "Error al registrar conexión")
			return
		}

		jsonStatus(ctx, fasthttp.StatusCreated, map[string]any{
			"message": "Conexión registrada correctamente",
			"data": map[string]any{
				"id_conexion":   conexion.ID,
				"id_basurero":   conexion.IDBasurero,
				"id_usuario":    req.IDUsuario,
				"tipo_conexion": tipo,
			},
		})
	}
}

// RegistrarConexionPorCodigo logs a contact with a bin addressed by
// code, and upserts the user/bin access link when a user is given.
func RegistrarConexionPorCodigo(db *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		codigo, ok := routeCodigo(ctx)
		if !ok {
			return
		}

		var req conexionRequest
		if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, "Cuerpo JSON inválido")
			return
		}

		var bin dbpkg.Basurero
		err := db.Where("codigo = ?", codigo).Limit(1).Find(&bin).Error
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "Error al registrar conexión")
			return
		}
		if bin.ID == 0 {
			errResponse(ctx, fasthttp.StatusNotFound, "Basurero no encontrado")
			return
		}

		tipo := strings.ToLower(req.TipoConexion)
		if tipo == "" || !tiposConexionValidos[tipo] {
			tipo = "consulta"
		}

		conexion := dbpkg.Conexion{
			IDBasurero:   bin.ID,
			IDUsuario:    req.IDUsuario,
			TipoConexion: tipo,
			IPCliente:    req.IPCliente,
			Dispositivo:  req.Dispositivo,
			Latitud:      req.Latitud,
			Longitud:     req.Longitud,
		}
		if err := db.Create(&conexion).Error; err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "Error al registrar conexión")
			return
		}

		if req.IDUsuario != nil && *req.IDUsuario != 0 {
			enlace := dbpkg.UsuarioBasurero{
				IDUsuario:   *req.IDUsuario,
				IDBasurero:  bin.ID,
				FechaAcceso: time.Now(),
				IDEstado:    1,
			}
			err := db.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id_usuario"}, {Name: "id_basurero"}},
				DoUpdates: clause.AssignmentColumns([]string{"fecha_acceso"}),
			}).Create(&enlace).Error
			if err != nil {
				errResponse(ctx, fasthttp.StatusInternalServerError, "Error al registrar conexión")
				return
			}
		}

		jsonResponse(ctx, map[string]any{
			"message": "Conexión registrada exitosamente",
			"data": map[string]any{
				"id_conexion":     conexion.ID,
				"id_basurero":     bin.ID,
				"nombre_basurero": bin.Nombre,
				"codigo":          codigo,
			},
		})
	}
}

type conexionRow struct {
	IDConexion    uint      `json:"id_conexion" gorm:"column:id_conexion"`
	TipoConexion  string    `json:"tipo_conexion" gorm:"column:tipo_conexion"`
	IPCliente     string    `json:"ip_cliente" gorm:"column:ip_cliente"`
	Dispositivo   string    `json:"dispositivo" gorm:"column:dispositivo"`
	FechaConexion time.Time `json:"fecha_conexion" gorm:"column:fecha_conexion"`
	Nombre        string    `json:"nombre" gorm:"column:nombre"`
	Apellido      string    `json:"apellido" gorm:"column:apellido"`
}

// ConexionesBasurero lists the most recent connections of a bin
// addressed by code.
func ConexionesBasurero(db *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		codigo, ok := routeCodigo(ctx)
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

		var rows []conexionRow
		err := db.Raw(`
			SELECT
				bc.id_conexion,
				bc.tipo_conexion,
				bc.ip_cliente,
				bc.dispositivo,
				bc.fecha_conexion,
				COALESCE(u.nombre, '') AS nombre,
				COALESCE(u.apellido, '') AS apellido
			FROM basureros_conexiones bc
			LEFT JOIN usuarios u ON bc.id_usuario = u.id_usuario
			WHERE bc.id_basurero = (SELECT id_basurero FROM basureros WHERE codigo = ?)
			ORDER BY bc.fecha_conexion DESC
			LIMIT ?`, codigo, limit).
			Scan(&rows).Error
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "Error al obtener historial de conexiones")
			return
		}

		jsonResponse(ctx, map[string]any{
			"total": len(rows),
			"data":  rows,
		})
	}
}
