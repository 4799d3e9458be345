package service

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"

	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/apierror"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/cache"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/dto"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/model"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/repository"

	"gorm.io/datatypes"
)

// ConfiguracionService manages a tenant's key/value settings. Public entries
// are readable by the storefront; the rest only by shop members.
type ConfiguracionService interface {
	Listar(ctx context.Context, slug string) ([]dto.ConfiguracionResponse, error)
	ListarPublicas(ctx context.Context, slug string) ([]dto.ConfiguracionResponse, error)
	Obtener(ctx context.Context, slug, clave string) (*dto.ConfiguracionResponse, error)
	Upsert(ctx context.Context, slug, clave string, req dto.UpsertConfiguracionRequest) (*dto.ConfiguracionResponse, error)
	Eliminar(ctx context.Context, slug, clave string) error
}

type configuracionService struct {
	repo  repository.ConfiguracionRepository
	cache *cache.Cache
}

func NewConfiguracionService(repo repository.ConfiguracionRepository, c *cache.Cache) ConfiguracionService {
	return &configuracionService{repo: repo, cache: c}
}

var claveRe = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]{0,99}$`)

func validarClave(clave string) error {
	if !claveRe.MatchString(clave) {
		return apierror.Validation(apierror.CodeInvalidInput, "clave inválida: %q", clave)
	}
	return nil
}

func mapConfiguracion(c model.Configuracion) dto.ConfiguracionResponse {
	return dto.ConfiguracionResponse{
		Clave:       c.Clave,
		Valor:       json.RawMessage(c.Valor),
		Descripcion: c.Descripcion,
		EsPublica:   c.EsPublica,
	}
}

func (s *configuracionService) Listar(ctx context.Context, slug string) ([]dto.ConfiguracionResponse, error) {
	return s.listar(ctx, slug, false)
}

// ListarPublicas is served from cache: every storefront page load reads it.
func (s *configuracionService) ListarPublicas(ctx context.Context, slug string) ([]dto.ConfiguracionResponse, error) {
	key := cache.Key(slug, cache.ResourceConfig, "public")
	var cached []dto.ConfiguracionResponse
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}
	out, err := s.listar(ctx, slug, true)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, key, out, 0)
	return out, nil
}

func (s *configuracionService) listar(ctx context.Context, slug string, soloPublicas bool) ([]dto.ConfiguracionResponse, error) {
	list, err := s.repo.List(ctx, slug, soloPublicas)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ConfiguracionResponse, 0, len(list))
	for _, c := range list {
		out = append(out, mapConfiguracion(c))
	}
	return out, nil
}

func (s *configuracionService) Obtener(ctx context.Context, slug, clave string) (*dto.ConfiguracionResponse, error) {
	if err := validarClave(clave); err != nil {
		return nil, err
	}
	c, err := s.repo.FindByClave(ctx, slug, clave)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apierror.NotFound(apierror.CodeNotFound, "configuración %q no encontrada", clave)
	}
	if err != nil {
		return nil, err
	}
	out := mapConfiguracion(*c)
	return &out, nil
}

func (s *configuracionService) Upsert(ctx context.Context, slug, clave string, req dto.UpsertConfiguracionRequest) (*dto.ConfiguracionResponse, error) {
	if err := validarClave(clave); err != nil {
		return nil, err
	}
	if len(req.Valor) == 0 || !json.Valid(req.Valor) {
		return nil, apierror.Validation(apierror.CodeInvalidInput, "valor debe ser JSON válido")
	}

	patch := map[string]any{
		"valor":      datatypes.JSON(req.Valor),
		"es_publica": req.EsPublica,
	}
	if req.Descripcion != nil {
		patch["descripcion"] = *req.Descripcion
	}
	c, err := s.repo.Upsert(ctx, slug, clave, patch)
	if err != nil {
		return nil, err
	}
	s.cache.DeleteByPattern(ctx, cache.ResourcePattern(slug, cache.ResourceConfig))
	out := mapConfiguracion(*c)
	return &out, nil
}

func (s *configuracionService) Eliminar(ctx context.Context, slug, clave string) error {
	if err := validarClave(clave); err != nil {
		return err
	}
	err := s.repo.Delete(ctx, slug, clave)
	if errors.Is(err, repository.ErrNotFound) {
		return apierror.NotFound(apierror.CodeNotFound, "configuración %q no encontrada", clave)
	}
	if err != nil {
		return err
	}
	s.cache.DeleteByPattern(ctx, cache.ResourcePattern(slug, cache.ResourceConfig))
	return nil
}
