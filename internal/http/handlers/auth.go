package handlers

import (
	"encoding/json"
	"log"
	"regexp"
	"strings"

	"github.com/valyala/fasthttp"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"separapp/internal/auth"
	"separapp/internal/config"
	dbpkg "separapp/internal/db"
	"separapp/internal/recovery"
)

var emailRegex = regexp.MustCompile(`^[\w\-.]+@([\w-]+\.)+[\w-]{2,4}$`)

const estadoSuspendido = 2

type credencialesRequest struct {
	Correo     string `json:"correo"`
	Contrasena string `json:"contrasena"`
}

func usuarioJSON(u *dbpkg.Usuario) map[string]any {
	return map[string]any{
		"id_usuario": u.ID,
		"nombre":     u.Nombre,
		"apellido":   u.Apellido,
		"correo":     u.Correo,
		"id_rol":     u.IDRol,
	}
}

func tokensPara(cfg *config.Config, u *dbpkg.Usuario) (access, refresh string, err error) {
	access, err = auth.SignAccessToken(cfg, u.ID, u.Correo, u.IDRol)
	if err != nil {
		return "", "", err
	}
	refresh, err = auth.SignRefreshToken(cfg, u.ID, u.Correo, u.IDRol)
	return access, refresh, err
}

func Login(db *gorm.DB, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		var req credencialesRequest
		if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, "Cuerpo JSON inválido")
			return
		}
		correo := strings.ToLower(strings.TrimSpace(req.Correo))
		if correo == "" || req.Contrasena == "" {
			errResponse(ctx, fasthttp.StatusBadRequest, "Correo y contraseña son obligatorios")
			return
		}

		var usuario dbpkg.Usuario
		if err := db.Where("correo = ?", correo).First(&usuario).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				errResponse(ctx, fasthttp.StatusUnauthorized, "Correo o contraseña inválidos")
				return
			}
			errResponse(ctx, fasthttp.StatusInternalServerError, "Error interno del servidor")
			return
		}

		if usuario.IDEstado == estadoSuspendido {
			errResponse(ctx, fasthttp.StatusForbidden, "Cuenta suspendida o inactiva")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(usuario.Contrasena), []byte(req.Contrasena)); err != nil {
			errResponse(ctx, fasthttp.StatusUnauthorized, "Correo o contraseña inválidos")
			return
		}

		access, refresh, err := tokensPara(cfg, &usuario)
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "Error interno del servidor")
			return
		}

		jsonResponse(ctx, map[string]any{
			"message":      "Inicio de sesión exitoso",
			"accessToken":  access,
			"refreshToken": refresh,
			"usuario":      usuarioJSON(&usuario),
		})
	}
}

type registroRequest struct {
	Nombre     string `json:"nombre"`
	Apellido   string `json:"apellido"`
	Correo     string `json:"correo"`
	Contrasena string `json:"contrasena"`
	Telefono   string `json:"telefono"`
	Foto       string `json:"foto"`
}

// formatearNombre title-cases each word of a name.
func formatearNombre(texto string) string {
	palabras := strings.Fields(strings.TrimSpace(texto))
	for i, p := range palabras {
		r := []rune(p)
		palabras[i] = strings.ToUpper(string(r[0])) + strings.ToLower(string(r[1:]))
	}
	return strings.Join(palabras, " ")
}

func Registro(db *gorm.DB, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		var req registroRequest
		if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, "Cuerpo JSON inválido")
			return
		}

		if req.Nombre == "" || req.Apellido == "" || req.Correo == "" || req.Contrasena == "" {
			errResponse(ctx, fasthttp.StatusBadRequest, "Nombre, apellido, correo y contraseña son obligatorios")
			return
		}
		correo := strings.ToLower(strings.TrimSpace(req.Correo))
		if !emailRegex.MatchString(correo) {
			errResponse(ctx, fasthttp.StatusBadRequest, "El correo electrónico no es válido")
			return
		}
		if len(req.Contrasena) < 6 {
			errResponse(ctx, fasthttp.StatusBadRequest, "La contraseña debe tener al menos 6 caracteres")
			return
		}

		var count int64
		if err := db.Model(&dbpkg.Usuario{}).Where("correo = ?", correo).Count(&count).Error; err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "Error al registrar usuario. Intenta nuevamente.")
			return
		}
		if count > 0 {
			errResponse(ctx, fasthttp.StatusConflict, "Este correo ya está registrado")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Contrasena), bcrypt.DefaultCost)
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "Error al registrar usuario. Intenta nuevamente.")
			return
		}

		telefono := strings.NewReplacer(" ", "", "-", "").Replace(req.Telefono)
		usuario := dbpkg.Usuario{
			Nombre:     formatearNombre(req.Nombre),
			Apellido:   formatearNombre(req.Apellido),
			Correo:     correo,
			Contrasena: string(hash),
			Telefono:   telefono,
			Foto:       req.Foto,
			IDRol:      1,
			IDEstado:   1,
		}
		if err := db.Create(&usuario).Error; err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "Error al registrar usuario. Intenta nuevamente.")
			return
		}

		access, refresh, err := tokensPara(cfg, &usuario)
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "Error al registrar usuario. Intenta nuevamente.")
			return
		}

		jsonStatus(ctx, fasthttp.StatusCreated, map[string]any{
			"message":      "Usuario registrado exitosamente",
			"accessToken":  access,
			"refreshToken": refresh,
			"usuario":      usuarioJSON(&usuario),
		})
	}
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func RefreshToken(db *gorm.DB, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		var req refreshRequest
		if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.RefreshToken == "" {
			errResponse(ctx, fasthttp.StatusBadRequest, "refreshToken es obligatorio")
			return
		}

		claims, err := auth.ParseRefreshToken(cfg, req.RefreshToken)
		if err != nil {
			errResponse(ctx, fasthttp.StatusUnauthorized, "Token inválido o expirado")
			return
		}
		id, ok := claims.UserID()
		if !ok {
			errResponse(ctx, fasthttp.StatusUnauthorized, "Token inválido o expirado")
			return
		}

		var usuario dbpkg.Usuario
		if err := db.First(&usuario, id).Error; err != nil {
			errResponse(ctx, fasthttp.StatusUnauthorized, "Token inválido o expirado")
			return
		}
		if usuario.IDEstado == estadoSuspendido {
			errResponse(ctx, fasthttp.StatusForbidden, "Cuenta suspendida o inactiva")
			return
		}

		access, refresh, err := tokensPara(cfg, &usuario)
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "Error interno del servidor")
			return
		}

		jsonResponse(ctx, map[string]any{
			"accessToken":  access,
			"refreshToken": refresh,
		})
	}
}

// Perfil returns the account behind the presented access token.
func Perfil(db *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		id, ok := MustClaims(ctx)
		if !ok {
			return
		}
		var usuario dbpkg.Usuario
		if err := db.First(&usuario, id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				errResponse(ctx, fasthttp.StatusNotFound, "Usuario no encontrado")
				return
			}
			errResponse(ctx, fasthttp.StatusInternalServerError, "Error interno del servidor")
			return
		}
		jsonResponse(ctx, map[string]any{"usuario": usuarioJSON(&usuario)})
	}
}

type recuperarRequest struct {
	Correo string `json:"correo"`
	Codigo string `json:"codigo"`
}

// SolicitarRecuperacion issues a recovery code for the address. The
// code travels out of band (mail delivery is owned by an external
// service); the response never reveals whether the account exists.
func SolicitarRecuperacion(db *gorm.DB, codes *recovery.Store) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		var req recuperarRequest
		if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.Correo == "" {
			errResponse(ctx, fasthttp.StatusBadRequest, "correo es obligatorio")
			return
		}
		correo := strings.ToLower(strings.TrimSpace(req.Correo))

		var count int64
		if err := db.Model(&dbpkg.Usuario{}).Where("correo = ?", correo).Count(&count).Error; err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "Error interno del servidor")
			return
		}
		if count > 0 {
			code, err := codes.Issue(correo)
			if err != nil {
				errResponse(ctx, fasthttp.StatusInternalServerError, "Error interno del servidor")
				return
			}
			log.Printf("recovery code issued for %s: %s", correo, code)
		}

		jsonResponse(ctx, map[string]any{
			"message": "Si el correo existe, se envió un código de recuperación",
		})
	}
}

func VerificarRecuperacion(codes *recovery.Store) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		var req recuperarRequest
		if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.Correo == "" || req.Codigo == "" {
			errResponse(ctx, fasthttp.StatusBadRequest, "correo y codigo son obligatorios")
			return
		}
		if !codes.Verify(req.Correo, req.Codigo) {
			errResponse(ctx, fasthttp.StatusUnauthorized, "Código inválido o expirado")
			return
		}
		jsonResponse(ctx, map[string]any{"message": "Código válido"})
	}
}

type restablecerRequest struct {
	Correo     string `json:"correo"`
	Codigo     string `json:"codigo"`
	Contrasena string `json:"contrasena"`
}

func RestablecerContrasena(db *gorm.DB, codes *recovery.Store) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		var req restablecerRequest
		if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.Correo == "" || req.Codigo == "" {
			errResponse(ctx, fasthttp.StatusBadRequest, "correo, codigo y contrasena son obligatorios")
			return
		}
		if len(req.Contrasena) < 6 {
			errResponse(ctx, fasthttp.StatusBadRequest, "La contraseña debe tener al menos 6 caracteres")
			return
		}
		if !codes.Consume(req.Correo, req.Codigo) {
			errResponse(ctx, fasthttp.StatusUnauthorized, "Código inválido o expirado")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Contrasena), bcrypt.DefaultCost)
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "Error interno del servidor")
			return
		}

		correo := strings.ToLower(strings.TrimSpace(req.Correo))
		if err := db.Model(&dbpkg.Usuario{}).Where("correo = ?", correo).
			Update("contrasena", string(hash)).Error; err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "Error interno del servidor")
			return
		}

		jsonResponse(ctx, map[string]any{"message": "Contraseña restablecida exitosamente"})
	}
}
