package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm/schema"
)

// Configuracion is a per-tenant key/value setting. Valor is any JSON value;
// EsPublica entries are exposed to the storefront.
type Configuracion struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Clave       string         `gorm:"type:varchar(100);uniqueIndex;not null"`
	Valor       datatypes.JSON `gorm:"type:jsonb;not null"`
	Descripcion *string
	EsPublica   bool `gorm:"not null;default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Configuracion) TableName(namer schema.Namer) string {
	return namer.TableName("configuraciones")
}
