package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/apierror"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/cache"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/dto"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/model"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/repository"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/storage"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ProductoService defines the business logic contract for a tenant's catalog.
type ProductoService interface {
	Listar(ctx context.Context, slug string, filter dto.ProductoFilter) (*dto.ProductoListResponse, error)
	ObtenerPorID(ctx context.Context, slug string, id uuid.UUID) (*dto.ProductoResponse, error)
	Crear(ctx context.Context, slug string, req dto.CrearProductoRequest) (*dto.ProductoResponse, error)
	Actualizar(ctx context.Context, slug string, id uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error)
	Eliminar(ctx context.Context, slug string, id uuid.UUID) error
	SubirImagen(ctx context.Context, slug string, id uuid.UUID, img Archivo) (*dto.ProductoResponse, error)
}

type productoService struct {
	repo       repository.ProductoRepository
	categorias repository.CategoriaRepository
	cache      *cache.Cache
	blobs      BlobStore
}

func NewProductoService(
	repo repository.ProductoRepository,
	categorias repository.CategoriaRepository,
	c *cache.Cache,
	blobs BlobStore,
) ProductoService {
	return &productoService{repo: repo, categorias: categorias, cache: c, blobs: blobs}
}

// ── Lecturas (cache-aside) ────────────────────────────────────────────────────

func (s *productoService) Listar(ctx context.Context, slug string, filter dto.ProductoFilter) (*dto.ProductoListResponse, error) {
	if filter.Categoria != "" {
		if _, err := uuid.Parse(filter.Categoria); err != nil {
			return nil, apierror.Validation(apierror.CodeInvalidInput, "categoria inválida: %q", filter.Categoria)
		}
	}
	page, limit := paginacion(filter.Page, filter.Limit)
	filter.Page, filter.Limit = page, limit
	filter.Nombre = strings.TrimSpace(filter.Nombre)

	key := cache.Key(slug, cache.ResourceProducts, "list",
		fmt.Sprintf("n=%s|c=%s|p=%d|l=%d", strings.ToLower(filter.Nombre), filter.Categoria, page, limit))
	var cached dto.ProductoListResponse
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	productos, total, err := s.repo.List(ctx, slug, filter)
	if err != nil {
		return nil, err
	}
	out := &dto.ProductoListResponse{
		Data:       make([]dto.ProductoResponse, 0, len(productos)),
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPaginas(total, limit),
	}
	for i := range productos {
		out.Data = append(out.Data, *productoToResponse(&productos[i]))
	}
	s.cache.Set(ctx, key, out, 0)
	return out, nil
}

func (s *productoService) ObtenerPorID(ctx context.Context, slug string, id uuid.UUID) (*dto.ProductoResponse, error) {
	key := cache.Key(slug, cache.ResourceProducts, "id", id.String())
	var cached dto.ProductoResponse
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}
	p, err := s.cargar(ctx, slug, id)
	if err != nil {
		return nil, err
	}
	out := productoToResponse(p)
	s.cache.Set(ctx, key, out, 0)
	return out, nil
}

// ── Escrituras ────────────────────────────────────────────────────────────────

func (s *productoService) Crear(ctx context.Context, slug string, req dto.CrearProductoRequest) (*dto.ProductoResponse, error) {
	nombre := strings.TrimSpace(req.Nombre)
	if nombre == "" {
		return nil, apierror.Validation(apierror.CodeInvalidInput, "el nombre es obligatorio")
	}
	if req.Precio.IsNegative() {
		return nil, apierror.Validation(apierror.CodeInvalidInput, "el precio no puede ser negativo")
	}
	if req.Stock < 0 {
		return nil, apierror.Validation(apierror.CodeInvalidInput, "el stock no puede ser negativo")
	}
	promo, err := promocionFromRequest(req.Promocion)
	if err != nil {
		return nil, err
	}
	cats, err := s.validarCategorias(ctx, slug, req.Categorias)
	if err != nil {
		return nil, err
	}
	if err := s.nombreDisponible(ctx, slug, nombre, uuid.Nil); err != nil {
		return nil, err
	}

	p := &model.Producto{
		Nombre:      nombre,
		Descripcion: req.Descripcion,
		Precio:      req.Precio,
		Stock:       req.Stock,
		Categorias:  cats,
		Promocion:   promo,
	}
	if err := s.repo.Create(ctx, slug, p); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, nombreDuplicado(nombre)
		}
		return nil, err
	}
	s.invalidar(ctx, slug)
	return productoToResponse(p), nil
}

func (s *productoService) Actualizar(ctx context.Context, slug string, id uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error) {
	if _, err := s.cargar(ctx, slug, id); err != nil {
		return nil, err
	}

	patch := map[string]any{}
	if req.Nombre != nil {
		nombre := strings.TrimSpace(*req.Nombre)
		if nombre == "" {
			return nil, apierror.Validation(apierror.CodeInvalidInput, "el nombre no puede quedar vacío")
		}
		if err := s.nombreDisponible(ctx, slug, nombre, id); err != nil {
			return nil, err
		}
		patch["nombre"] = nombre
	}
	if req.Descripcion != nil {
		patch["descripcion"] = *req.Descripcion
	}
	if req.Precio != nil {
		if req.Precio.IsNegative() {
			return nil, apierror.Validation(apierror.CodeInvalidInput, "el precio no puede ser negativo")
		}
		patch["precio"] = *req.Precio
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return nil, apierror.Validation(apierror.CodeInvalidInput, "el stock no puede ser negativo")
		}
		patch["stock"] = *req.Stock
	}
	if req.Categorias != nil {
		cats, err := s.validarCategorias(ctx, slug, *req.Categorias)
		if err != nil {
			return nil, err
		}
		patch["categorias"] = cats
	}
	switch {
	case req.QuitarPromocion:
		patch["promocion"] = nil
	case req.Promocion != nil:
		promo, err := promocionFromRequest(req.Promocion)
		if err != nil {
			return nil, err
		}
		patch["promocion"] = promo
	}

	if len(patch) == 0 {
		return s.ObtenerPorID(ctx, slug, id)
	}
	p, err := s.repo.Update(ctx, slug, id, patch)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, apierror.NotFound(apierror.CodeProductNotFound, "producto %s no encontrado", id)
	case errors.Is(err, repository.ErrDuplicate):
		return nil, nombreDuplicado(fmt.Sprint(patch["nombre"]))
	case err != nil:
		return nil, err
	}
	s.invalidar(ctx, slug)
	return productoToResponse(p), nil
}

func (s *productoService) Eliminar(ctx context.Context, slug string, id uuid.UUID) error {
	p, err := s.repo.Delete(ctx, slug, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apierror.NotFound(apierror.CodeProductNotFound, "producto %s no encontrado", id)
	}
	if err != nil {
		return err
	}
	if err := deleteBlobByURL(ctx, s.blobs, p.ImageURL); err != nil {
		log.Warn().Err(err).Str("tenant", slug).Str("producto_id", id.String()).
			Msg("producto: no se pudo borrar la imagen")
	}
	s.invalidar(ctx, slug)
	return nil
}

// SubirImagen stores the image under <slug>/productos/ and replaces the old one.
func (s *productoService) SubirImagen(ctx context.Context, slug string, id uuid.UUID, img Archivo) (*dto.ProductoResponse, error) {
	if err := validarImagen(img); err != nil {
		return nil, err
	}
	actual, err := s.cargar(ctx, slug, id)
	if err != nil {
		return nil, err
	}

	key := storage.NewKey(slug+"/productos", img.Nombre, img.ContentType)
	url, err := s.blobs.Put(ctx, key, img.Contenido, img.ContentType)
	if err != nil {
		return nil, fmt.Errorf("guardar imagen: %w", err)
	}
	p, err := s.repo.Update(ctx, slug, id, map[string]any{"image_url": url})
	if err != nil {
		_ = s.blobs.Delete(ctx, key)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apierror.NotFound(apierror.CodeProductNotFound, "producto %s no encontrado", id)
		}
		return nil, err
	}
	if err := deleteBlobByURL(ctx, s.blobs, actual.ImageURL); err != nil {
		log.Warn().Err(err).Str("tenant", slug).Msg("producto: no se pudo borrar la imagen anterior")
	}
	s.invalidar(ctx, slug)
	return productoToResponse(p), nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func (s *productoService) cargar(ctx context.Context, slug string, id uuid.UUID) (*model.Producto, error) {
	p, err := s.repo.FindByID(ctx, slug, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apierror.NotFound(apierror.CodeProductNotFound, "producto %s no encontrado", id)
	}
	return p, err
}

func (s *productoService) invalidar(ctx context.Context, slug string) {
	s.cache.DeleteByPattern(ctx, cache.ResourcePattern(slug, cache.ResourceProducts))
}

// nombreDisponible fails when another product (not self) already uses nombre.
func (s *productoService) nombreDisponible(ctx context.Context, slug, nombre string, self uuid.UUID) error {
	existing, err := s.repo.FindByNombre(ctx, slug, nombre)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID == self:
		return nil
	default:
		return nombreDuplicado(nombre)
	}
}

func nombreDuplicado(nombre string) error {
	return apierror.Business(apierror.CodeDuplicateProduct, "ya existe un producto llamado %q", nombre)
}

// validarCategorias dedupes ids and checks that every one exists in the tenant.
func (s *productoService) validarCategorias(ctx context.Context, slug string, raw []string) (pq.StringArray, error) {
	out := pq.StringArray{}
	if len(raw) == 0 {
		return out, nil
	}
	seen := make(map[uuid.UUID]bool, len(raw))
	ids := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := uuid.Parse(r)
		if err != nil {
			return nil, apierror.Validation(apierror.CodeInvalidInput, "categoria inválida: %q", r)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
		out = append(out, id.String())
	}
	n, err := s.categorias.CountByIDs(ctx, slug, ids)
	if err != nil {
		return nil, err
	}
	if n != int64(len(ids)) {
		return nil, apierror.Validation(apierror.CodeInvalidInput, "una o más categorías no existen")
	}
	return out, nil
}

func promocionFromRequest(req *dto.PromocionRequest) (*model.Promocion, error) {
	if req == nil {
		return nil, nil
	}
	if !req.Valor.IsPositive() {
		return nil, apierror.Validation(apierror.CodeInvalidInput, "el valor de la promoción debe ser positivo")
	}
	p := &model.Promocion{Tipo: req.Tipo, Valor: req.Valor, Activa: req.Activa}
	switch req.Tipo {
	case model.PromoPorcentaje:
		if req.Valor.GreaterThan(decimal.NewFromInt(100)) {
			return nil, apierror.Validation(apierror.CodeInvalidInput, "el porcentaje no puede superar 100")
		}
	case model.PromoFijo:
	case model.PromoNxM:
		// n x m: llevás Valor, pagás ValorSecundario.
		if req.ValorSecundario == nil || !req.ValorSecundario.IsPositive() ||
			!req.ValorSecundario.LessThan(req.Valor) ||
			!req.Valor.IsInteger() || !req.ValorSecundario.IsInteger() {
			return nil, apierror.Validation(apierror.CodeInvalidInput,
				"la promoción nxm requiere enteros con valor_secundario menor que valor")
		}
		m := *req.ValorSecundario
		p.ValorSecundario = &m
	default:
		return nil, apierror.Validation(apierror.CodeInvalidInput, "tipo de promoción inválido: %q", req.Tipo)
	}
	return p, nil
}

func productoToResponse(p *model.Producto) *dto.ProductoResponse {
	cats := []string(p.Categorias)
	if cats == nil {
		cats = []string{}
	}
	out := &dto.ProductoResponse{
		ID:          p.ID.String(),
		Nombre:      p.Nombre,
		Descripcion: p.Descripcion,
		Precio:      p.Precio,
		Stock:       p.Stock,
		ImageURL:    p.ImageURL,
		Categorias:  cats,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.Promocion != nil {
		out.Promocion = &dto.PromocionResponse{
			Tipo:            p.Promocion.Tipo,
			Valor:           p.Promocion.Valor,
			ValorSecundario: p.Promocion.ValorSecundario,
			Activa:          p.Promocion.Activa,
		}
	}
	return out
}
