package handler

import (
	"fmt"
	"net/http"

	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/dto"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

type PedidosHandler struct{ svc service.PedidoService }

func NewPedidosHandler(svc service.PedidoService) *PedidosHandler {
	return &PedidosHandler{svc: svc}
}

// Crear godoc
// @Summary Checkout del storefront
// @Description Reserva stock de cada ítem y crea el pedido en estado Pendiente.
// @Description El total lo calcula el servidor; cualquier total enviado se ignora.
// @Tags pedidos
// @Accept json
// @Produce json
// @Param x-tenant-id header string true "Slug de la tienda"
// @Param body body dto.CrearPedidoRequest true "Pedido"
// @Success 201 {object} dto.PedidoResponse
// @Failure 404 {object} apierror.APIError "product_not_found"
// @Failure 409 {object} apierror.APIError "insufficient_stock"
// @Router /v1/pedidos [post]
func (h *PedidosHandler) Crear(c *gin.Context) {
	var req dto.CrearPedidoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), tenant(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Listar GET /v1/pedidos?estado=&page=&limit=
func (h *PedidosHandler) Listar(c *gin.Context) {
	var filter dto.PedidoFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.Listar(c.Request.Context(), tenant(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ObtenerPorID GET /v1/pedidos/:id
func (h *PedidosHandler) ObtenerPorID(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerPorID(c.Request.Context(), tenant(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CambiarEstado godoc
// @Summary Cambia el estado del pedido
// @Description Cancelar devuelve el stock de cada línea. Cancelado es terminal.
// @Tags pedidos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param x-tenant-id header string true "Slug de la tienda"
// @Param id path string true "ID del pedido"
// @Param body body dto.CambiarEstadoRequest true "Nuevo estado"
// @Success 200 {object} dto.PedidoResponse
// @Failure 409 {object} apierror.APIError "invalid_status_transition"
// @Router /v1/pedidos/{id}/estado [patch]
func (h *PedidosHandler) CambiarEstado(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req dto.CambiarEstadoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CambiarEstado(c.Request.Context(), tenant(c), id, req.Estado)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Comprobante GET /v1/pedidos/:id/comprobante (PDF)
func (h *PedidosHandler) Comprobante(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	pdf, err := h.svc.ComprobantePDF(c.Request.Context(), tenant(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="pedido-%s.pdf"`, id.String()[:8]))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
