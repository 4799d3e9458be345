package handler

import (
	"net/http"

	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/dto"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

type ConfiguracionHandler struct{ svc service.ConfiguracionService }

func NewConfiguracionHandler(svc service.ConfiguracionService) *ConfiguracionHandler {
	return &ConfiguracionHandler{svc: svc}
}

// ListarPublicas godoc
// @Summary Configuración pública de la tienda (storefront)
// @Tags configuracion
// @Produce json
// @Param x-tenant-id header string true "Slug de la tienda"
// @Success 200 {array} dto.ConfiguracionResponse
// @Router /v1/configuracion/publica [get]
func (h *ConfiguracionHandler) ListarPublicas(c *gin.Context) {
	resp, err := h.svc.ListarPublicas(c.Request.Context(), tenant(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Listar GET /v1/configuracion
func (h *ConfiguracionHandler) Listar(c *gin.Context) {
	resp, err := h.svc.Listar(c.Request.Context(), tenant(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Obtener GET /v1/configuracion/:clave
func (h *ConfiguracionHandler) Obtener(c *gin.Context) {
	resp, err := h.svc.Obtener(c.Request.Context(), tenant(c), c.Param("clave"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Upsert godoc
// @Summary Crea o reemplaza una clave de configuración
// @Tags configuracion
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param x-tenant-id header string true "Slug de la tienda"
// @Param clave path string true "Clave"
// @Param body body dto.UpsertConfiguracionRequest true "Valor JSON"
// @Success 200 {object} dto.ConfiguracionResponse
// @Router /v1/configuracion/{clave} [put]
func (h *ConfiguracionHandler) Upsert(c *gin.Context) {
	var req dto.UpsertConfiguracionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Upsert(c.Request.Context(), tenant(c), c.Param("clave"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Eliminar DELETE /v1/configuracion/:clave
func (h *ConfiguracionHandler) Eliminar(c *gin.Context) {
	if err := h.svc.Eliminar(c.Request.Context(), tenant(c), c.Param("clave")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
