package repository

import (
	"context"

	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/model"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/tenancy"
)

// ConfiguracionRepository stores a tenant's key/value settings.
type ConfiguracionRepository interface {
	List(ctx context.Context, slug string, soloPublicas bool) ([]model.Configuracion, error)
	FindByClave(ctx context.Context, slug, clave string) (*model.Configuracion, error)
	// Upsert writes patch onto the entry for clave, creating it when missing.
	Upsert(ctx context.Context, slug, clave string, patch map[string]any) (*model.Configuracion, error)
	Delete(ctx context.Context, slug, clave string) error
}

type configuracionRepo struct{ reg *tenancy.Registry }

func NewConfiguracionRepository(reg *tenancy.Registry) ConfiguracionRepository {
	return &configuracionRepo{reg: reg}
}

func (r *configuracionRepo) model(slug string) (*tenancy.Model[model.Configuracion], error) {
	return tenantModel[model.Configuracion](r.reg, slug, modelConfiguracion)
}

func (r *configuracionRepo) List(ctx context.Context, slug string, soloPublicas bool) ([]model.Configuracion, error) {
	m, err := r.model(slug)
	if err != nil {
		return nil, err
	}
	f := tenancy.Filter{}
	if soloPublicas {
		f["es_publica"] = true
	}
	return m.Find(ctx, f, tenancy.OrderBy("clave ASC"))
}

func (r *configuracionRepo) FindByClave(ctx context.Context, slug, clave string) (*model.Configuracion, error) {
	m, err := r.model(slug)
	if err != nil {
		return nil, err
	}
	c, err := m.FindOne(ctx, tenancy.Filter{"clave": clave})
	return c, translate(err)
}

func (r *configuracionRepo) Upsert(ctx context.Context, slug, clave string, patch map[string]any) (*model.Configuracion, error) {
	m, err := r.model(slug)
	if err != nil {
		return nil, err
	}
	c, err := m.UpdateOne(ctx, tenancy.Filter{"clave": clave}, patch, true)
	return c, translate(err)
}

func (r *configuracionRepo) Delete(ctx context.Context, slug, clave string) error {
	m, err := r.model(slug)
	if err != nil {
		return err
	}
	_, err = m.DeleteOne(ctx, tenancy.Filter{"clave": clave})
	return translate(err)
}
