package db

import (
	"time"

	"gorm.io/datatypes"
)

// Usuario is an application account. Roles: 1 = usuario normal,
// 2 = administrador. Estados: 1 = activo, 2 = suspendido.
type Usuario struct {
	ID uint `gorm:"primaryKey;column:id_usuario"`

	CreatedAt time.Time `gorm:"column:fecha_registro"`
	UpdatedAt time.Time

	Nombre     string `gorm:"size:128;not null"`
	Apellido   string `gorm:"size:128;not null"`
	Correo     string `gorm:"uniqueIndex;size:255;not null"`
	Contrasena string `gorm:"size:255;not null"` // bcrypt hash
	Telefono   string `gorm:"size:32"`
	Foto       string
	IDRol      int `gorm:"column:id_rol;default:1"`
	IDEstado   int `gorm:"column:id_estado;default:1"`
}

func (Usuario) TableName() string { return "usuarios" }

// Categoria is a static reference row for the fixed waste classes.
// The canonical set is seeded at startup and never grows at runtime.
type Categoria struct {
	ID     uint   `gorm:"primaryKey;column:id_categoria"`
	Nombre string `gorm:"uniqueIndex;size:32;not null"`
}

func (Categoria) TableName() string { return "categorias" }

// Basurero is a physical smart bin. CapacidadKg is the rated total
// capacity; zero means "not configured" and the engine applies the
// configured default instead.
type Basurero struct {
	ID uint `gorm:"primaryKey;column:id_basurero"`

	CreatedAt time.Time `gorm:"column:fecha_instalacion"`
	UpdatedAt time.Time

	Codigo      string  `gorm:"uniqueIndex;size:64;not null"`
	Nombre      string  `gorm:"size:128"`
	CapacidadKg float64 `gorm:"column:capacidad"`
	Ubicacion   string  `gorm:"size:255"`
	Descripcion string
	IDEstado    int `gorm:"column:id_estado;default:1"`
}

func (Basurero) TableName() string { return "basureros" }

// Deteccion is one classification result reported by the ML/IoT
// process. Rows are append-only: the engine never mutates or deletes
// them, every aggregate view is recomputed from them per request.
type Deteccion struct {
	ID uint `gorm:"primaryKey;column:id_deteccion"`

	CreatedAt time.Time `gorm:"column:fecha_deteccion;index"`

	IDUsuario   uint  `gorm:"column:id_usuario;index;not null"`
	IDBasurero  *uint `gorm:"column:id_basurero;index"`
	IDCategoria uint  `gorm:"column:id_categoria;not null"`

	// TipoResiduo is the legacy free-text residue class written by
	// older firmware. Kept for the alternate por-tipo groupings; the
	// canonical grouping key is IDCategoria.
	TipoResiduo string `gorm:"column:tipo_residuo;size:32;index"`

	NombreObjeto  string   `gorm:"size:128;not null"`
	Confianza     *float64 // 0-100
	PesoGramos    *float64
	PuntosGanados int `gorm:"default:10"`
	Foto          string
	Latitud       *float64
	Longitud      *float64

	// Atributos holds arbitrary extra key/value pairs from the
	// detector (model version, inference time, ...) without schema
	// changes.
	Atributos datatypes.JSONMap `gorm:"type:json"`
}

func (Deteccion) TableName() string { return "detecciones" }

// Conexion logs one client contact with a bin (scan, open, deposit).
// Rows expire via the retention worker.
type Conexion struct {
	ID uint `gorm:"primaryKey;column:id_conexion"`

	CreatedAt time.Time `gorm:"column:fecha_conexion;index"`

	IDBasurero   uint   `gorm:"column:id_basurero;index;not null"`
	IDUsuario    *uint  `gorm:"column:id_usuario;index"`
	TipoConexion string `gorm:"size:32;not null"` // consulta, apertura, deposito, otro
	IPCliente    string `gorm:"column:ip_cliente;size:64"`
	Dispositivo  string `gorm:"size:128"`
	Latitud      *float64
	Longitud     *float64
}

func (Conexion) TableName() string { return "basureros_conexiones" }

// UsuarioBasurero links a user to a bin they have accessed, with the
// most recent access time. Upserted on each registered connection.
type UsuarioBasurero struct {
	ID uint `gorm:"primaryKey"`

	IDUsuario   uint      `gorm:"column:id_usuario;uniqueIndex:idx_usuario_basurero,priority:1;not null"`
	IDBasurero  uint      `gorm:"column:id_basurero;uniqueIndex:idx_usuario_basurero,priority:2;not null"`
	FechaAcceso time.Time `gorm:"column:fecha_acceso;not null"`
	IDEstado    int       `gorm:"column:id_estado;default:1"`
}

func (UsuarioBasurero) TableName() string { return "usuarios_basureros" }
