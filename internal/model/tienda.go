package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm/schema"
)

// Roles a user can hold inside a shop.
const (
	RolOwner = "owner"
	RolAdmin = "admin"
)

// Tienda is a tenant. Lives in platform_meta. Slug is immutable and derives the
// tenant schema name (db_<slug>).
type Tienda struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Slug        string    `gorm:"type:varchar(48);uniqueIndex;not null"`
	DBName      string    `gorm:"type:varchar(63);not null"`
	StoreName   string    `gorm:"not null"`
	OwnerEmail  string    `gorm:"not null"`
	Location    *string
	Description *string
	ImageURL    *string
	IsActive    bool `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Tienda) TableName(namer schema.Namer) string { return namer.TableName("tiendas") }

// MiembroTienda is the single source of truth for shop membership. The shop's
// member list and the user's associated stores are both read from it.
type MiembroTienda struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TiendaID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_miembro_tienda_usuario"`
	UsuarioID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_miembro_tienda_usuario;index"`
	Rol       string    `gorm:"type:varchar(10);not null"`
	CreatedAt time.Time
}

func (MiembroTienda) TableName(namer schema.Namer) string {
	return namer.TableName("miembros_tienda")
}
