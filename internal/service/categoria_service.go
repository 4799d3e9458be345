package service

import (
	"context"
	"errors"
	"strings"

	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/apierror"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/cache"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/dto"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/model"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// CategoriaService defines business operations for a tenant's product categories.
type CategoriaService interface {
	Crear(ctx context.Context, slug string, req dto.CrearCategoriaRequest) (dto.CategoriaResponse, error)
	Listar(ctx context.Context, slug string) ([]dto.CategoriaResponse, error)
	Actualizar(ctx context.Context, slug string, id uuid.UUID, req dto.ActualizarCategoriaRequest) (dto.CategoriaResponse, error)
	Eliminar(ctx context.Context, slug string, id uuid.UUID) error
}

type categoriaService struct {
	repo      repository.CategoriaRepository
	productos repository.ProductoRepository
	cache     *cache.Cache
}

func NewCategoriaService(repo repository.CategoriaRepository, productos repository.ProductoRepository, c *cache.Cache) CategoriaService {
	return &categoriaService{repo: repo, productos: productos, cache: c}
}

// mapCategoria converts a model to a DTO response.
func mapCategoria(c model.Categoria) dto.CategoriaResponse {
	return dto.CategoriaResponse{
		ID:          c.ID.String(),
		Nombre:      c.Nombre,
		Slug:        c.Slug,
		Descripcion: c.Descripcion,
	}
}

func categoriaDuplicada(nombre string) error {
	return apierror.Business(apierror.CodeDuplicateName, "ya existe una categoría con ese nombre o slug: %q", nombre)
}

func categoriaNoEncontrada(id uuid.UUID) error {
	return apierror.NotFound(apierror.CodeNotFound, "categoría %s no encontrada", id)
}

// slugCategoria uses the explicit slug when given, otherwise derives it from the name.
func slugCategoria(nombre string, explicit *string) (string, error) {
	src := nombre
	if explicit != nil {
		src = *explicit
	}
	s := Slugify(src)
	if s == "" {
		return "", apierror.Validation(apierror.CodeInvalidInput, "no se pudo derivar un slug de %q", src)
	}
	return s, nil
}

func (s *categoriaService) Crear(ctx context.Context, slug string, req dto.CrearCategoriaRequest) (dto.CategoriaResponse, error) {
	nombre := strings.TrimSpace(req.Nombre)
	if nombre == "" {
		return dto.CategoriaResponse{}, apierror.Validation(apierror.CodeInvalidInput, "el nombre es obligatorio")
	}
	catSlug, err := slugCategoria(nombre, req.Slug)
	if err != nil {
		return dto.CategoriaResponse{}, err
	}

	// Check for duplicate name
	existing, err := s.repo.FindByNombre(ctx, slug, nombre)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return dto.CategoriaResponse{}, err
	}
	if existing != nil {
		return dto.CategoriaResponse{}, categoriaDuplicada(nombre)
	}

	c := &model.Categoria{
		Nombre:      nombre,
		Slug:        catSlug,
		Descripcion: req.Descripcion,
	}
	if err := s.repo.Create(ctx, slug, c); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return dto.CategoriaResponse{}, categoriaDuplicada(nombre)
		}
		return dto.CategoriaResponse{}, err
	}
	s.cache.DeleteByPattern(ctx, cache.ResourcePattern(slug, cache.ResourceCategories))
	return mapCategoria(*c), nil
}

func (s *categoriaService) Listar(ctx context.Context, slug string) ([]dto.CategoriaResponse, error) {
	key := cache.Key(slug, cache.ResourceCategories)
	var cached []dto.CategoriaResponse
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	list, err := s.repo.List(ctx, slug)
	if err != nil {
		return nil, err
	}
	result := make([]dto.CategoriaResponse, 0, len(list))
	for _, c := range list {
		result = append(result, mapCategoria(c))
	}
	s.cache.Set(ctx, key, result, 0)
	return result, nil
}

func (s *categoriaService) Actualizar(ctx context.Context, slug string, id uuid.UUID, req dto.ActualizarCategoriaRequest) (dto.CategoriaResponse, error) {
	c, err := s.repo.FindByID(ctx, slug, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return dto.CategoriaResponse{}, categoriaNoEncontrada(id)
		}
		return dto.CategoriaResponse{}, err
	}

	patch := map[string]any{}
	if req.Nombre != nil {
		nombre := strings.TrimSpace(*req.Nombre)
		if nombre == "" {
			return dto.CategoriaResponse{}, apierror.Validation(apierror.CodeInvalidInput, "el nombre no puede quedar vacío")
		}
		// Check uniqueness if name is changing
		if !strings.EqualFold(nombre, c.Nombre) {
			existing, err := s.repo.FindByNombre(ctx, slug, nombre)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return dto.CategoriaResponse{}, err
			}
			if existing != nil && existing.ID != id {
				return dto.CategoriaResponse{}, categoriaDuplicada(nombre)
			}
		}
		patch["nombre"] = nombre
	}
	if req.Slug != nil {
		catSlug, err := slugCategoria("", req.Slug)
		if err != nil {
			return dto.CategoriaResponse{}, err
		}
		patch["slug"] = catSlug
	}
	if req.Descripcion != nil {
		patch["descripcion"] = *req.Descripcion
	}
	if len(patch) == 0 {
		return mapCategoria(*c), nil
	}

	updated, err := s.repo.Update(ctx, slug, id, patch)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return dto.CategoriaResponse{}, categoriaNoEncontrada(id)
	case errors.Is(err, repository.ErrDuplicate):
		return dto.CategoriaResponse{}, categoriaDuplicada(c.Nombre)
	case err != nil:
		return dto.CategoriaResponse{}, err
	}
	s.cache.DeleteByPattern(ctx, cache.ResourcePattern(slug, cache.ResourceCategories))
	return mapCategoria(*updated), nil
}

// Eliminar removes the category and pulls its id from every product, so no
// product is left pointing at a category that no longer exists.
func (s *categoriaService) Eliminar(ctx context.Context, slug string, id uuid.UUID) error {
	if _, err := s.repo.Delete(ctx, slug, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return categoriaNoEncontrada(id)
		}
		return err
	}
	n, err := s.productos.PullCategoria(ctx, slug, id)
	if err != nil {
		log.Error().Err(err).Str("tenant", slug).Str("categoria_id", id.String()).
			Msg("categoria: no se pudo quitar de los productos")
	}
	s.cache.DeleteByPattern(ctx, cache.ResourcePattern(slug, cache.ResourceCategories))
	if n > 0 || err != nil {
		s.cache.DeleteByPattern(ctx, cache.ResourcePattern(slug, cache.ResourceProducts))
	}
	return nil
}
