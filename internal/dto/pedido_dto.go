package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CompradorRequest struct {
	Nombre       string `json:"nombre"        validate:"required,min=2,max=120"`
	Email        string `json:"email"         validate:"required,email"`
	Direccion    string `json:"direccion"     validate:"required,max=300"`
	CodigoPostal string `json:"codigo_postal" validate:"required,max=20"`
}

type ItemPedidoRequest struct {
	ProductoID string `json:"producto_id" validate:"required,uuid"`
	Cantidad   int    `json:"cantidad"    validate:"required,min=1"`
}

// CrearPedidoRequest is the storefront checkout. Any client-side total is
// ignored: the server recomputes it from current prices.
type CrearPedidoRequest struct {
	Comprador CompradorRequest    `json:"comprador"`
	Productos []ItemPedidoRequest `json:"productos" validate:"required,min=1,dive"`
	Total     *decimal.Decimal    `json:"total,omitempty"`
}

type CambiarEstadoRequest struct {
	Estado string `json:"estado" validate:"required,oneof=Pendiente Pagado Enviado Cancelado"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type PedidoFilter struct {
	Estado string `form:"estado" validate:"omitempty,oneof=Pendiente Pagado Enviado Cancelado"`
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type CompradorResponse struct {
	Nombre       string `json:"nombre"`
	Email        string `json:"email"`
	Direccion    string `json:"direccion"`
	CodigoPostal string `json:"codigo_postal"`
}

type LineaPedidoResponse struct {
	ProductoID  string          `json:"producto_id"`
	Nombre      string          `json:"nombre"`
	Precio      decimal.Decimal `json:"precio"`
	Cantidad    int             `json:"cantidad"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Descripcion string          `json:"descripcion"`
	ImageURL    *string         `json:"image_url,omitempty"`
}

type PedidoResponse struct {
	ID        string                `json:"id"`
	Comprador CompradorResponse     `json:"comprador"`
	Productos []LineaPedidoResponse `json:"productos"`
	Total     decimal.Decimal       `json:"total"`
	Estado    string                `json:"estado"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

type PedidoListResponse struct {
	Data       []PedidoResponse `json:"data"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"total_pages"`
}
