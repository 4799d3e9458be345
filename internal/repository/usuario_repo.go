package repository

import (
	"context"

	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/model"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/tenancy"

	"github.com/google/uuid"
)

// UsuarioRepository reads and writes platform users in platform_meta.
type UsuarioRepository interface {
	Create(ctx context.Context, u *model.Usuario) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Usuario, error)
	FindByEmail(ctx context.Context, email string) (*model.Usuario, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Usuario, error)
}

type usuarioRepo struct{ reg *tenancy.Registry }

func NewUsuarioRepository(reg *tenancy.Registry) UsuarioRepository { return &usuarioRepo{reg: reg} }

func (r *usuarioRepo) Create(ctx context.Context, u *model.Usuario) error {
	m, err := metaModel[model.Usuario](r.reg, modelUsuario)
	if err != nil {
		return err
	}
	_, err = m.Insert(ctx, u)
	return translate(err)
}

func (r *usuarioRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Usuario, error) {
	m, err := metaModel[model.Usuario](r.reg, modelUsuario)
	if err != nil {
		return nil, err
	}
	u, err := m.FindOne(ctx, tenancy.Filter{"id": id})
	return u, translate(err)
}

func (r *usuarioRepo) FindByEmail(ctx context.Context, email string) (*model.Usuario, error) {
	m, err := metaModel[model.Usuario](r.reg, modelUsuario)
	if err != nil {
		return nil, err
	}
	u, err := m.FindOne(ctx, nil, tenancy.Where("LOWER(email) = LOWER(?)", email))
	return u, translate(err)
}

func (r *usuarioRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Usuario, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	m, err := metaModel[model.Usuario](r.reg, modelUsuario)
	if err != nil {
		return nil, err
	}
	return m.Find(ctx, tenancy.Filter{"id": ids})
}
