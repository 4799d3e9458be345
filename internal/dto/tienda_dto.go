package dto

import "time"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearTiendaRequest struct {
	Slug        string  `json:"slug"        validate:"required,min=2,max=48"`
	StoreName   string  `json:"store_name"  validate:"required,min=2,max=120"`
	OwnerEmail  *string `json:"owner_email" validate:"omitempty,email"`
	Location    *string `json:"location"    validate:"omitempty,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

// ActualizarTiendaRequest never carries the slug: it is immutable.
type ActualizarTiendaRequest struct {
	StoreName   *string `json:"store_name"  validate:"omitempty,min=2,max=120"`
	OwnerEmail  *string `json:"owner_email" validate:"omitempty,email"`
	Location    *string `json:"location"    validate:"omitempty,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	IsActive    *bool   `json:"is_active"`
}

type AgregarMiembroRequest struct {
	Email string `json:"email" validate:"required,email"`
	Rol   string `json:"rol"   validate:"omitempty,oneof=admin"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type MiembroResponse struct {
	UsuarioID string `json:"usuario_id"`
	Nombre    string `json:"nombre,omitempty"`
	Email     string `json:"email,omitempty"`
	Rol       string `json:"rol"`
}

type TiendaResponse struct {
	ID          string            `json:"id"`
	Slug        string            `json:"slug"`
	DBName      string            `json:"db_name"`
	StoreName   string            `json:"store_name"`
	OwnerEmail  string            `json:"owner_email"`
	Location    *string           `json:"location"`
	Description *string           `json:"description"`
	ImageURL    *string           `json:"image_url"`
	IsActive    bool              `json:"is_active"`
	Members     []MiembroResponse `json:"members,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// PublicTiendaResponse is the storefront view of a shop: no members, no db name.
type PublicTiendaResponse struct {
	Slug        string  `json:"slug"`
	StoreName   string  `json:"store_name"`
	Location    *string `json:"location"`
	Description *string `json:"description"`
	ImageURL    *string `json:"image_url"`
}

// EliminarTiendaResponse reports the teardown steps that failed. The shop is
// gone even when some steps failed.
type EliminarTiendaResponse struct {
	Slug          string   `json:"slug"`
	PasosFallidos []string `json:"pasos_fallidos"`
}
