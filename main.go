package main

import (
	"log"

	"github.com/fasthttp/router"
	"github.com/joho/godotenv"
	"github.com/valyala/fasthttp"

	"separapp/internal/config"
	"separapp/internal/db"
	"separapp/internal/http/handlers"
	appmw "separapp/internal/http/middleware"
	"separapp/internal/recovery"
	"separapp/internal/stats"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	sqlDB, err := db.Connect(cfg)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	if err := db.EnsureCategorias(sqlDB); err != nil {
		log.Fatalf("failed to seed categories: %v", err)
	}
	if err := db.EnsureBootstrapAdmin(sqlDB, cfg); err != nil {
		log.Fatalf("failed to ensure bootstrap admin: %v", err)
	}

	db.StartRetentionWorker(sqlDB, cfg.ConexionRetencionDias)

	handlers.InitPrometheusMetrics()

	engine := &stats.Engine{
		Store:              &db.StatsStore{DB: sqlDB},
		CapacidadDefectoKg: cfg.CapacidadDefectoKg,
	}
	codes := recovery.New(cfg.RecuperacionTTL)

	r := router.New()
	auth := appmw.BearerAuth(cfg)

	r.GET("/", handlers.Root())
	r.GET("/api/health", handlers.Health(sqlDB))
	r.GET("/metrics", handlers.PrometheusMetrics())

	r.POST("/api/login", handlers.Login(sqlDB, cfg))
	r.POST("/api/registro", handlers.Registro(sqlDB, cfg))
	r.POST("/api/token/refresh", handlers.RefreshToken(sqlDB, cfg))
	r.POST("/api/recuperar", handlers.SolicitarRecuperacion(sqlDB, codes))
	r.POST("/api/recuperar/verificar", handlers.VerificarRecuperacion(codes))
	r.POST("/api/recuperar/restablecer", handlers.RestablecerContrasena(sqlDB, codes))

	r.GET("/api/perfil", auth(handlers.Perfil(sqlDB)))
	r.GET("/api/usuarios", auth(appmw.AdminOnly(handlers.ListarUsuarios(sqlDB))))

	r.POST("/api/basureros/registro", handlers.RegistroBasurero(sqlDB))
	r.POST("/api/basureros/conexion", handlers.RegistrarConexion(sqlDB))
	r.GET("/api/basureros/codigo/{codigo}", handlers.BasureroPorCodigo(sqlDB))
	r.POST("/api/basureros/codigo/{codigo}/registrar-conexion", handlers.RegistrarConexionPorCodigo(sqlDB))
	r.GET("/api/basureros/codigo/{codigo}/conexiones", handlers.ConexionesBasurero(sqlDB))

	r.POST("/api/detecciones", handlers.GuardarDeteccion(sqlDB))
	r.GET("/api/detecciones/{id}", handlers.DeteccionDetalle(sqlDB))
	r.GET("/api/detecciones/usuario/{id_usuario}", auth(handlers.DeteccionesUsuario(sqlDB)))

	r.GET("/api/detecciones/estadisticas/{id_usuario}", auth(handlers.EstadisticasUsuario(engine)))
	r.GET("/api/detecciones/hoy/{id_usuario}", auth(handlers.DeteccionesHoy(engine)))
	r.GET("/api/historial/resumen/{id_usuario}", auth(handlers.ResumenHistorial(engine)))
	r.GET("/api/basureros/{id_basurero}/nivel-llenado", auth(handlers.NivelLlenadoBasurero(engine)))
	r.GET("/api/basureros/{id_basurero}/historial/resumen", auth(handlers.ResumenHistorialBasurero(engine)))
	r.GET("/api/ranking", auth(handlers.Ranking(engine)))
	r.GET("/api/panel/estado/{id_usuario}", auth(handlers.PanelEstado(engine)))
	r.GET("/api/panel/completo/{id_usuario}", auth(handlers.PanelCompleto(engine)))

	handler := handlers.RequestLogger(r.Handler)

	log.Printf("separapp listening on %s", cfg.ListenAddr)
	if err := fasthttp.ListenAndServe(cfg.ListenAddr, handler); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
