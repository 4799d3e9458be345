package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type PromocionRequest struct {
	Tipo            string           `json:"tipo"             validate:"required,oneof=porcentaje fijo nxm"`
	Valor           decimal.Decimal  `json:"valor"            validate:"gt=0"`
	ValorSecundario *decimal.Decimal `json:"valor_secundario"`
	Activa          bool             `json:"activa"`
}

type CrearProductoRequest struct {
	Nombre      string            `json:"nombre"      validate:"required,min=2,max=120"`
	Descripcion string            `json:"descripcion" validate:"max=2000"`
	Precio      decimal.Decimal   `json:"precio"      validate:"min=0"`
	Stock       int               `json:"stock"       validate:"min=0"`
	Categorias  []string          `json:"categorias"  validate:"omitempty,dive,uuid"`
	Promocion   *PromocionRequest `json:"promocion"`
}

type ActualizarProductoRequest struct {
	Nombre      *string           `json:"nombre"      validate:"omitempty,min=2,max=120"`
	Descripcion *string           `json:"descripcion" validate:"omitempty,max=2000"`
	Precio      *decimal.Decimal  `json:"precio"`
	Stock       *int              `json:"stock"       validate:"omitempty,min=0"`
	Categorias  *[]string         `json:"categorias"  validate:"omitempty,dive,uuid"`
	Promocion   *PromocionRequest `json:"promocion"`
	// QuitarPromocion clears the promotion; Promocion is ignored when set.
	QuitarPromocion bool `json:"quitar_promocion"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type ProductoFilter struct {
	Nombre    string `form:"nombre"`
	Categoria string `form:"categoria" validate:"omitempty,uuid"`
	Page      int    `form:"page,default=1"   validate:"min=1"`
	Limit     int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type PromocionResponse struct {
	Tipo            string           `json:"tipo"`
	Valor           decimal.Decimal  `json:"valor"`
	ValorSecundario *decimal.Decimal `json:"valor_secundario,omitempty"`
	Activa          bool             `json:"activa"`
}

type ProductoResponse struct {
	ID          string             `json:"id"`
	Nombre      string             `json:"nombre"`
	Descripcion string             `json:"descripcion"`
	Precio      decimal.Decimal    `json:"precio"`
	Stock       int                `json:"stock"`
	ImageURL    *string            `json:"image_url"`
	Categorias  []string           `json:"categorias"`
	Promocion   *PromocionResponse `json:"promocion"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

type ProductoListResponse struct {
	Data       []ProductoResponse `json:"data"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"total_pages"`
}
