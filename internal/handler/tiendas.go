package handler

import (
	"net/http"
	"strings"

	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/dto"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

type TiendasHandler struct{ svc service.TiendaService }

func NewTiendasHandler(svc service.TiendaService) *TiendasHandler {
	return &TiendasHandler{svc: svc}
}

func slugParam(c *gin.Context) string { return strings.ToLower(c.Param("slug")) }

// Crear godoc
// @Summary Alta de tienda; el usuario autenticado queda como dueño
// @Tags tiendas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CrearTiendaRequest true "Tienda"
// @Success 201 {object} dto.TiendaResponse
// @Failure 409 {object} apierror.APIError "slug_in_use"
// @Router /v1/tiendas [post]
func (h *TiendasHandler) Crear(c *gin.Context) {
	var req dto.CrearTiendaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CrearTienda(c.Request.Context(), usuario(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Listar godoc
// @Summary Tiendas activas (público)
// @Tags tiendas
// @Produce json
// @Success 200 {array} dto.PublicTiendaResponse
// @Router /v1/tiendas [get]
func (h *TiendasHandler) Listar(c *gin.Context) {
	resp, err := h.svc.ListarTiendas(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Obtener GET /v1/tiendas/:slug
func (h *TiendasHandler) Obtener(c *gin.Context) {
	resp, err := h.svc.ObtenerTienda(c.Request.Context(), slugParam(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Detalle GET /v1/tiendas/:slug/detalle (miembros)
func (h *TiendasHandler) Detalle(c *gin.Context) {
	resp, err := h.svc.ObtenerDetalle(c.Request.Context(), slugParam(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Mias GET /v1/tiendas/mias
func (h *TiendasHandler) Mias(c *gin.Context) {
	resp, err := h.svc.MisTiendas(c.Request.Context(), usuario(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Actualizar PUT /v1/tiendas/:slug
func (h *TiendasHandler) Actualizar(c *gin.Context) {
	var req dto.ActualizarTiendaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ActualizarTienda(c.Request.Context(), usuario(c), slugParam(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SubirImagen godoc
// @Summary Sube el logo de la tienda
// @Tags tiendas
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Slug"
// @Param imagen formData file true "jpeg, png, webp o gif; máx. 5 MB"
// @Success 200 {object} dto.TiendaResponse
// @Router /v1/tiendas/{slug}/imagen [post]
func (h *TiendasHandler) SubirImagen(c *gin.Context) {
	img, cerrar, ok := imagenDelForm(c)
	if !ok {
		return
	}
	defer cerrar()
	resp, err := h.svc.SubirImagen(c.Request.Context(), usuario(c), slugParam(c), img)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Eliminar godoc
// @Summary Baja de la tienda (solo el dueño)
// @Description Borra el esquema del tenant, sus archivos, las membresías y la tienda.
// @Description Los pasos que fallan se informan en pasos_fallidos; la baja no se revierte.
// @Tags tiendas
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Slug"
// @Success 200 {object} dto.EliminarTiendaResponse
// @Failure 403 {object} apierror.APIError
// @Router /v1/tiendas/{slug} [delete]
func (h *TiendasHandler) Eliminar(c *gin.Context) {
	resp, err := h.svc.EliminarTienda(c.Request.Context(), usuario(c), slugParam(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ── Miembros ─────────────────────────────────────────────────────────────────

// ListarMiembros GET /v1/tiendas/:slug/miembros
func (h *TiendasHandler) ListarMiembros(c *gin.Context) {
	resp, err := h.svc.ListarMiembros(c.Request.Context(), slugParam(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AgregarMiembro POST /v1/tiendas/:slug/miembros
func (h *TiendasHandler) AgregarMiembro(c *gin.Context) {
	var req dto.AgregarMiembroRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AgregarMiembro(c.Request.Context(), usuario(c), slugParam(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// QuitarMiembro DELETE /v1/tiendas/:slug/miembros/:usuario_id
func (h *TiendasHandler) QuitarMiembro(c *gin.Context) {
	id, ok := parseUUID(c, "usuario_id")
	if !ok {
		return
	}
	if err := h.svc.QuitarMiembro(c.Request.Context(), usuario(c), slugParam(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
