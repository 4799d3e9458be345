package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm/schema"
)

// Order statuses, persisted verbatim.
const (
	EstadoPendiente = "Pendiente"
	EstadoPagado    = "Pagado"
	EstadoEnviado   = "Enviado"
	EstadoCancelado = "Cancelado"
)

// Comprador is the buyer's contact data captured at checkout.
type Comprador struct {
	Nombre       string `gorm:"not null"`
	Email        string `gorm:"not null"`
	Direccion    string `gorm:"not null"`
	CodigoPostal string `gorm:"not null"`
}

// LineaPedido is a snapshot of the product at purchase time. Later catalog
// edits never reach it.
type LineaPedido struct {
	ProductoID  uuid.UUID       `json:"productId"`
	Nombre      string          `json:"name"`
	Precio      decimal.Decimal `json:"price"`
	Cantidad    int             `json:"quantity"`
	Descripcion string          `json:"description"`
	ImageURL    *string         `json:"imageUrl,omitempty"`
}

// Subtotal = Precio * Cantidad.
func (l LineaPedido) Subtotal() decimal.Decimal {
	return l.Precio.Mul(decimal.NewFromInt(int64(l.Cantidad)))
}

// Pedido lives in a tenant schema. Total is computed server-side from Productos.
type Pedido struct {
	ID        uuid.UUID                        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Comprador Comprador                        `gorm:"embedded;embeddedPrefix:comprador_"`
	Productos datatypes.JSONSlice[LineaPedido] `gorm:"type:jsonb;not null"`
	Total     decimal.Decimal                  `gorm:"type:decimal(12,2);not null"`
	Estado    string                           `gorm:"type:varchar(20);not null;default:'Pendiente';index"`
	CreatedAt time.Time                        `gorm:"index"`
	UpdatedAt time.Time
}

func (Pedido) TableName(namer schema.Namer) string { return namer.TableName("pedidos") }
