package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm/schema"
)

// Promotion kinds.
const (
	PromoPorcentaje = "porcentaje"
	PromoFijo       = "fijo"
	PromoNxM        = "nxm"
)

// Promocion is stored as a jsonb document on the product row.
// For nxm, Valor is N (items taken) and ValorSecundario is M (items paid).
type Promocion struct {
	Tipo            string           `json:"tipo"`
	Valor           decimal.Decimal  `json:"valor"`
	ValorSecundario *decimal.Decimal `json:"valor_secundario,omitempty"`
	Activa          bool             `json:"activa"`
}

func (p Promocion) Value() (driver.Value, error) {
	b, err := json.Marshal(p)
	return string(b), err
}

func (p *Promocion) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return errors.New("promocion: unsupported column type")
	}
}

// Producto lives in a tenant schema. Categorias holds Categoria ids.
type Producto struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre      string          `gorm:"uniqueIndex;not null"`
	Descripcion string          `gorm:"not null;default:''"`
	Precio      decimal.Decimal `gorm:"type:decimal(12,2);not null;check:chk_producto_precio,precio >= 0"`
	Stock       int             `gorm:"not null;default:0;check:chk_producto_stock,stock >= 0"`
	ImageURL    *string
	Categorias  pq.StringArray `gorm:"type:text[];not null;default:'{}'"`
	Promocion   *Promocion     `gorm:"type:jsonb"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Producto) TableName(namer schema.Namer) string { return namer.TableName("productos") }
