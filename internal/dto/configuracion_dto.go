package dto

import "encoding/json"

// UpsertConfiguracionRequest carries an arbitrary JSON value; the handler
// rejects bodies whose valor is missing or not well-formed JSON.
type UpsertConfiguracionRequest struct {
	Valor       json.RawMessage `json:"valor"`
	Descripcion *string         `json:"descripcion" validate:"omitempty,max=500"`
	EsPublica   bool            `json:"es_publica"`
}

type ConfiguracionResponse struct {
	Clave       string          `json:"clave"`
	Valor       json.RawMessage `json:"valor"`
	Descripcion *string         `json:"descripcion,omitempty"`
	EsPublica   bool            `json:"es_publica"`
}
