package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm/schema"
)

// Categoria groups products inside one tenant.
type Categoria struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre      string    `gorm:"uniqueIndex;not null"`
	Slug        string    `gorm:"uniqueIndex;not null"`
	Descripcion *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName keeps the Spanish plural and the tenant schema prefix.
func (Categoria) TableName(namer schema.Namer) string { return namer.TableName("categorias") }
