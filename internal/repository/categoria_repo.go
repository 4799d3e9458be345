package repository

import (
	"context"

	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/model"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/tenancy"

	"github.com/google/uuid"
)

// CategoriaRepository defines CRUD operations for a tenant's categories.
type CategoriaRepository interface {
	Create(ctx context.Context, slug string, c *model.Categoria) error
	FindByID(ctx context.Context, slug string, id uuid.UUID) (*model.Categoria, error)
	FindByNombre(ctx context.Context, slug, nombre string) (*model.Categoria, error)
	List(ctx context.Context, slug string) ([]model.Categoria, error)
	CountByIDs(ctx context.Context, slug string, ids []uuid.UUID) (int64, error)
	Update(ctx context.Context, slug string, id uuid.UUID, patch map[string]any) (*model.Categoria, error)
	Delete(ctx context.Context, slug string, id uuid.UUID) (*model.Categoria, error)
}

type categoriaRepo struct{ reg *tenancy.Registry }

func NewCategoriaRepository(reg *tenancy.Registry) CategoriaRepository {
	return &categoriaRepo{reg: reg}
}

func (r *categoriaRepo) model(slug string) (*tenancy.Model[model.Categoria], error) {
	return tenantModel[model.Categoria](r.reg, slug, modelCategoria)
}

func (r *categoriaRepo) Create(ctx context.Context, slug string, c *model.Categoria) error {
	m, err := r.model(slug)
	if err != nil {
		return err
	}
	_, err = m.Insert(ctx, c)
	return translate(err)
}

func (r *categoriaRepo) FindByID(ctx context.Context, slug string, id uuid.UUID) (*model.Categoria, error) {
	m, err := r.model(slug)
	if err != nil {
		return nil, err
	}
	c, err := m.FindOne(ctx, tenancy.Filter{"id": id})
	return c, translate(err)
}

func (r *categoriaRepo) FindByNombre(ctx context.Context, slug, nombre string) (*model.Categoria, error) {
	m, err := r.model(slug)
	if err != nil {
		return nil, err
	}
	c, err := m.FindOne(ctx, nil, tenancy.Where("LOWER(nombre) = LOWER(?)", nombre))
	return c, translate(err)
}

func (r *categoriaRepo) List(ctx context.Context, slug string) ([]model.Categoria, error) {
	m, err := r.model(slug)
	if err != nil {
		return nil, err
	}
	return m.Find(ctx, nil, tenancy.OrderBy("nombre ASC"))
}

func (r *categoriaRepo) CountByIDs(ctx context.Context, slug string, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	m, err := r.model(slug)
	if err != nil {
		return 0, err
	}
	return m.Count(ctx, tenancy.Filter{"id": ids})
}

func (r *categoriaRepo) Update(ctx context.Context, slug string, id uuid.UUID, patch map[string]any) (*model.Categoria, error) {
	m, err := r.model(slug)
	if err != nil {
		return nil, err
	}
	c, err := m.UpdateOne(ctx, tenancy.Filter{"id": id}, patch, false)
	return c, translate(err)
}

func (r *categoriaRepo) Delete(ctx context.Context, slug string, id uuid.UUID) (*model.Categoria, error) {
	m, err := r.model(slug)
	if err != nil {
		return nil, err
	}
	c, err := m.DeleteOne(ctx, tenancy.Filter{"id": id})
	return c, translate(err)
}
