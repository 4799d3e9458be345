package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type RegistroRequest struct {
	Nombre   string `json:"nombre"   validate:"required,min=2,max=100"`
	Email    string `json:"email"    validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// TiendaAsociada is one entry of a user's associated stores.
type TiendaAsociada struct {
	TiendaID  string `json:"tienda_id"`
	Slug      string `json:"slug"`
	StoreName string `json:"store_name"`
	Rol       string `json:"rol"`
}

type UsuarioResponse struct {
	ID               string           `json:"id"`
	Nombre           string           `json:"nombre"`
	Email            string           `json:"email"`
	TiendasAsociadas []TiendaAsociada `json:"tiendas_asociadas"`
}

type LoginResponse struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	ExpiresIn   int             `json:"expires_in"`
	User        UsuarioResponse `json:"user"`
}
