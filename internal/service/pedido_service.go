package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/apierror"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/cache"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/dto"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/infra"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/metrics"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/model"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/repository"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PedidoService interface {
	Crear(ctx context.Context, slug string, req dto.CrearPedidoRequest) (*dto.PedidoResponse, error)
	ObtenerPorID(ctx context.Context, slug string, id uuid.UUID) (*dto.PedidoResponse, error)
	Listar(ctx context.Context, slug string, filter dto.PedidoFilter) (*dto.PedidoListResponse, error)
	CambiarEstado(ctx context.Context, slug string, id uuid.UUID, estado string) (*dto.PedidoResponse, error)
	ComprobantePDF(ctx context.Context, slug string, id uuid.UUID) ([]byte, error)
}

type pedidoService struct {
	repo       repository.PedidoRepository
	productos  repository.ProductoRepository
	tiendas    repository.TiendaRepository
	cache      *cache.Cache
	dispatcher *worker.Dispatcher
}

func NewPedidoService(
	repo repository.PedidoRepository,
	productos repository.ProductoRepository,
	tiendas repository.TiendaRepository,
	c *cache.Cache,
	dispatcher *worker.Dispatcher,
) PedidoService {
	return &pedidoService{
		repo:       repo,
		productos:  productos,
		tiendas:    tiendas,
		cache:      c,
		dispatcher: dispatcher,
	}
}

// transiciones lists the statuses reachable from each status. Cancelado is terminal.
var transiciones = map[string][]string{
	model.EstadoPendiente: {model.EstadoPagado, model.EstadoEnviado, model.EstadoCancelado},
	model.EstadoPagado:    {model.EstadoEnviado, model.EstadoCancelado},
	model.EstadoEnviado:   {model.EstadoCancelado},
}

func estadoValido(e string) bool {
	switch e {
	case model.EstadoPendiente, model.EstadoPagado, model.EstadoEnviado, model.EstadoCancelado:
		return true
	}
	return false
}

func puedeTransicionar(desde, hasta string) bool {
	for _, e := range transiciones[desde] {
		if e == hasta {
			return true
		}
	}
	return false
}

// ── Crear ─────────────────────────────────────────────────────────────────────
// One tenant transaction:
//   1. For each item, in request order: load the product, check stock, snapshot
//      name/price/description/image and add price*qty to the total
//   2. Conditionally decrement stock (stock >= qty) in product id order, so two
//      checkouts over the same products lock their rows in the same order; a
//      lost race is insufficient stock
//   3. Insert the order as Pendiente with the computed total
// Any failure rolls everything back. After commit: invalidate the product cache
// and enqueue the confirmation email.

type reserva struct {
	productoID uuid.UUID
	cantidad   int
}

func (s *pedidoService) Crear(ctx context.Context, slug string, req dto.CrearPedidoRequest) (*dto.PedidoResponse, error) {
	if len(req.Productos) == 0 {
		return nil, apierror.Validation(apierror.CodeInvalidInput, "el pedido debe incluir al menos un producto")
	}
	ids := make([]uuid.UUID, len(req.Productos))
	for i, item := range req.Productos {
		id, err := uuid.Parse(item.ProductoID)
		if err != nil {
			return nil, apierror.Validation(apierror.CodeInvalidInput, "producto_id inválido: %s", item.ProductoID)
		}
		if item.Cantidad < 1 {
			return nil, apierror.Validation(apierror.CodeInvalidInput, "la cantidad debe ser al menos 1")
		}
		ids[i] = id
	}

	var (
		pedido   model.Pedido
		reservas []reserva
		enTx     bool
	)
	err := s.repo.WithinTx(ctx, slug, func(tx *gorm.DB) error {
		enTx = tx != nil
		reservas = reservas[:0]
		total := decimal.Zero
		lineas := make([]model.LineaPedido, 0, len(req.Productos))
		pendientes := make([]reserva, 0, len(req.Productos))
		nombres := make(map[uuid.UUID]string, len(req.Productos))

		for i, item := range req.Productos {
			p, err := s.productos.FindByIDTx(ctx, tx, slug, ids[i])
			if errors.Is(err, repository.ErrNotFound) {
				return apierror.NotFound(apierror.CodeProductNotFound, "producto %s no encontrado", ids[i])
			}
			if err != nil {
				return fmt.Errorf("cargar producto %s: %w", ids[i], err)
			}
			if p.Stock < item.Cantidad {
				return stockInsuficiente(p.Nombre, p.Stock)
			}

			linea := model.LineaPedido{
				ProductoID:  p.ID,
				Nombre:      p.Nombre,
				Precio:      p.Precio,
				Cantidad:    item.Cantidad,
				Descripcion: p.Descripcion,
				ImageURL:    p.ImageURL,
			}
			lineas = append(lineas, linea)
			total = total.Add(linea.Subtotal())
			pendientes = append(pendientes, reserva{productoID: p.ID, cantidad: item.Cantidad})
			nombres[p.ID] = p.Nombre
		}

		sort.SliceStable(pendientes, func(i, j int) bool {
			return pendientes[i].productoID.String() < pendientes[j].productoID.String()
		})
		for _, r := range pendientes {
			ok, err := s.productos.DecrementStockTx(ctx, tx, slug, r.productoID, r.cantidad)
			if err != nil {
				return fmt.Errorf("descontar stock de %s: %w", r.productoID, err)
			}
			if !ok {
				return s.carreraPerdida(ctx, tx, slug, r.productoID, nombres[r.productoID])
			}
			reservas = append(reservas, r)
		}

		pedido = model.Pedido{
			Comprador: model.Comprador{
				Nombre:       req.Comprador.Nombre,
				Email:        req.Comprador.Email,
				Direccion:    req.Comprador.Direccion,
				CodigoPostal: req.Comprador.CodigoPostal,
			},
			Productos: lineas,
			Total:     total,
			Estado:    model.EstadoPendiente,
		}
		return s.repo.CreateTx(ctx, tx, slug, &pedido)
	})
	if err != nil {
		// Without a real transaction nothing rolls the decrements back.
		if !enTx {
			s.liberar(ctx, slug, reservas)
		}
		metrics.RecordOrder("rejected")
		return nil, err
	}

	metrics.RecordOrder("created")
	s.cache.DeleteByPattern(ctx, cache.ResourcePattern(slug, cache.ResourceProducts))

	if err := s.dispatcher.EnqueuePedidoConfirmacion(ctx, worker.PedidoConfirmacionPayload{
		Slug:     slug,
		PedidoID: pedido.ID.String(),
	}); err != nil {
		log.Warn().Err(err).Str("tenant", slug).Str("pedido_id", pedido.ID.String()).
			Msg("pedido: no se pudo encolar el email de confirmación")
	}

	log.Info().Str("tenant", slug).Str("pedido_id", pedido.ID.String()).
		Str("total", pedido.Total.StringFixed(2)).Int("items", len(pedido.Productos)).
		Msg("pedido creado")
	return pedidoToResponse(&pedido), nil
}

func stockInsuficiente(nombre string, disponible int) error {
	return apierror.Business(apierror.CodeInsufficientStock,
		"stock insuficiente para %q (disponible: %d)", nombre, disponible)
}

// carreraPerdida reports a conditional decrement that found less stock than the
// earlier read. The product is read again so the error shows the current stock.
func (s *pedidoService) carreraPerdida(ctx context.Context, tx *gorm.DB, slug string, id uuid.UUID, nombre string) error {
	p, err := s.productos.FindByIDTx(ctx, tx, slug, id)
	if err != nil {
		return apierror.Business(apierror.CodeInsufficientStock, "stock insuficiente para %q", nombre)
	}
	return stockInsuficiente(p.Nombre, p.Stock)
}

// liberar re-increments stock already decremented by a failed Crear.
func (s *pedidoService) liberar(ctx context.Context, slug string, reservas []reserva) {
	for _, r := range reservas {
		if err := s.productos.IncrementStockTx(ctx, nil, slug, r.productoID, r.cantidad); err != nil {
			log.Error().Err(err).Str("tenant", slug).Str("producto_id", r.productoID.String()).
				Int("cantidad", r.cantidad).Msg("pedido: no se pudo restituir stock")
		}
	}
}

// ── CambiarEstado ─────────────────────────────────────────────────────────────
// The order row is locked for the duration of the transaction, so two
// concurrent cancellations cannot both restore stock.

func (s *pedidoService) CambiarEstado(ctx context.Context, slug string, id uuid.UUID, estado string) (*dto.PedidoResponse, error) {
	if !estadoValido(estado) {
		return nil, apierror.Validation(apierror.CodeInvalidInput, "estado inválido: %q", estado)
	}

	var actualizado *model.Pedido
	err := s.repo.WithinTx(ctx, slug, func(tx *gorm.DB) error {
		p, err := s.repo.FindByIDTx(ctx, tx, slug, id)
		if errors.Is(err, repository.ErrNotFound) {
			return apierror.NotFound(apierror.CodeOrderNotFound, "pedido %s no encontrado", id)
		}
		if err != nil {
			return err
		}
		if !puedeTransicionar(p.Estado, estado) {
			return apierror.Business(apierror.CodeInvalidTransition,
				"no se puede pasar de %s a %s", p.Estado, estado)
		}

		if estado == model.EstadoCancelado {
			for _, l := range p.Productos {
				err := s.productos.IncrementStockTx(ctx, tx, slug, l.ProductoID, l.Cantidad)
				if errors.Is(err, repository.ErrNotFound) {
					log.Warn().Str("tenant", slug).Str("pedido_id", id.String()).
						Str("producto_id", l.ProductoID.String()).
						Msg("pedido: producto eliminado, no se restituye stock")
					continue
				}
				if err != nil {
					return fmt.Errorf("restituir stock de %s: %w", l.ProductoID, err)
				}
			}
		}

		if err := s.repo.UpdateEstadoTx(ctx, tx, slug, id, estado); err != nil {
			return err
		}
		p.Estado = estado
		actualizado = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	if estado == model.EstadoCancelado {
		metrics.RecordOrder("cancelled")
		s.cache.DeleteByPattern(ctx, cache.ResourcePattern(slug, cache.ResourceProducts))
	}
	log.Info().Str("tenant", slug).Str("pedido_id", id.String()).Str("estado", estado).
		Msg("pedido: estado actualizado")
	return pedidoToResponse(actualizado), nil
}

// ── Consultas ─────────────────────────────────────────────────────────────────

func (s *pedidoService) ObtenerPorID(ctx context.Context, slug string, id uuid.UUID) (*dto.PedidoResponse, error) {
	p, err := s.cargar(ctx, slug, id)
	if err != nil {
		return nil, err
	}
	return pedidoToResponse(p), nil
}

func (s *pedidoService) Listar(ctx context.Context, slug string, filter dto.PedidoFilter) (*dto.PedidoListResponse, error) {
	if filter.Estado != "" && !estadoValido(filter.Estado) {
		return nil, apierror.Validation(apierror.CodeInvalidInput, "estado inválido: %q", filter.Estado)
	}
	pedidos, total, err := s.repo.List(ctx, slug, filter)
	if err != nil {
		return nil, err
	}
	page, limit := paginacion(filter.Page, filter.Limit)
	out := &dto.PedidoListResponse{
		Data:       make([]dto.PedidoResponse, 0, len(pedidos)),
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPaginas(total, limit),
	}
	for i := range pedidos {
		out.Data = append(out.Data, *pedidoToResponse(&pedidos[i]))
	}
	return out, nil
}

// ComprobantePDF renders the order receipt with the shop's name on it.
func (s *pedidoService) ComprobantePDF(ctx context.Context, slug string, id uuid.UUID) ([]byte, error) {
	p, err := s.cargar(ctx, slug, id)
	if err != nil {
		return nil, err
	}
	nombre := slug
	if t, err := s.tiendas.FindBySlug(ctx, slug); err == nil {
		nombre = t.StoreName
	}
	return infra.GeneratePedidoPDF(nombre, p)
}

func (s *pedidoService) cargar(ctx context.Context, slug string, id uuid.UUID) (*model.Pedido, error) {
	p, err := s.repo.FindByID(ctx, slug, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apierror.NotFound(apierror.CodeOrderNotFound, "pedido %s no encontrado", id)
	}
	return p, err
}

// ── Mapping ───────────────────────────────────────────────────────────────────

func pedidoToResponse(p *model.Pedido) *dto.PedidoResponse {
	lineas := make([]dto.LineaPedidoResponse, 0, len(p.Productos))
	for _, l := range p.Productos {
		lineas = append(lineas, dto.LineaPedidoResponse{
			ProductoID:  l.ProductoID.String(),
			Nombre:      l.Nombre,
			Precio:      l.Precio,
			Cantidad:    l.Cantidad,
			Subtotal:    l.Subtotal(),
			Descripcion: l.Descripcion,
			ImageURL:    l.ImageURL,
		})
	}
	return &dto.PedidoResponse{
		ID: p.ID.String(),
		Comprador: dto.CompradorResponse{
			Nombre:       p.Comprador.Nombre,
			Email:        p.Comprador.Email,
			Direccion:    p.Comprador.Direccion,
			CodigoPostal: p.Comprador.CodigoPostal,
		},
		Productos: lineas,
		Total:     p.Total,
		Estado:    p.Estado,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// paginacion mirrors the repository defaults so responses echo what was applied.
func paginacion(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

func totalPaginas(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
