package dto

type CrearCategoriaRequest struct {
	Nombre      string  `json:"nombre"      validate:"required,min=2,max=80"`
	Slug        *string `json:"slug"        validate:"omitempty,min=2,max=80"`
	Descripcion *string `json:"descripcion" validate:"omitempty,max=500"`
}

type ActualizarCategoriaRequest struct {
	Nombre      *string `json:"nombre"      validate:"omitempty,min=2,max=80"`
	Slug        *string `json:"slug"        validate:"omitempty,min=2,max=80"`
	Descripcion *string `json:"descripcion" validate:"omitempty,max=500"`
}

type CategoriaResponse struct {
	ID          string  `json:"id"`
	Nombre      string  `json:"nombre"`
	Slug        string  `json:"slug"`
	Descripcion *string `json:"descripcion"`
}
