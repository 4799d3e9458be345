package repository

import (
	"context"

	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/dto"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/model"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/tenancy"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PedidoRepository persists a tenant's orders. WithinTx opens a transaction on
// the tenant connection that the product repository's *Tx methods can join.
type PedidoRepository interface {
	WithinTx(ctx context.Context, slug string, fn func(tx *gorm.DB) error) error
	CreateTx(ctx context.Context, tx *gorm.DB, slug string, p *model.Pedido) error
	FindByID(ctx context.Context, slug string, id uuid.UUID) (*model.Pedido, error)
	FindByIDTx(ctx context.Context, tx *gorm.DB, slug string, id uuid.UUID) (*model.Pedido, error)
	List(ctx context.Context, slug string, filter dto.PedidoFilter) ([]model.Pedido, int64, error)
	UpdateEstadoTx(ctx context.Context, tx *gorm.DB, slug string, id uuid.UUID, estado string) error
}

type pedidoRepo struct{ reg *tenancy.Registry }

func NewPedidoRepository(reg *tenancy.Registry) PedidoRepository { return &pedidoRepo{reg: reg} }

func (r *pedidoRepo) model(slug string) (*tenancy.Model[model.Pedido], error) {
	return tenantModel[model.Pedido](r.reg, slug, modelPedido)
}

func (r *pedidoRepo) WithinTx(ctx context.Context, slug string, fn func(tx *gorm.DB) error) error {
	// Bind both models first: migrating inside the transaction would hold DDL
	// locks for the whole checkout.
	if _, err := r.model(slug); err != nil {
		return err
	}
	if _, err := tenantModel[model.Producto](r.reg, slug, modelProducto); err != nil {
		return err
	}
	return tenantTx(ctx, r.reg, slug, fn)
}

func (r *pedidoRepo) CreateTx(ctx context.Context, tx *gorm.DB, slug string, p *model.Pedido) error {
	m, err := r.model(slug)
	if err != nil {
		return err
	}
	_, err = m.Tx(tx).Insert(ctx, p)
	return translate(err)
}

func (r *pedidoRepo) FindByID(ctx context.Context, slug string, id uuid.UUID) (*model.Pedido, error) {
	return r.FindByIDTx(ctx, nil, slug, id)
}

func (r *pedidoRepo) FindByIDTx(ctx context.Context, tx *gorm.DB, slug string, id uuid.UUID) (*model.Pedido, error) {
	m, err := r.model(slug)
	if err != nil {
		return nil, err
	}
	var opts []tenancy.QueryOption
	if tx != nil {
		opts = append(opts, tenancy.ForUpdate())
	}
	p, err := m.Tx(tx).FindOne(ctx, tenancy.Filter{"id": id}, opts...)
	return p, translate(err)
}

func (r *pedidoRepo) List(ctx context.Context, slug string, filter dto.PedidoFilter) ([]model.Pedido, int64, error) {
	m, err := r.model(slug)
	if err != nil {
		return nil, 0, err
	}
	f := tenancy.Filter{}
	if filter.Estado != "" {
		f["estado"] = filter.Estado
	}
	total, err := m.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	page, limit := pageOf(filter.Page, filter.Limit)
	pedidos, err := m.Find(ctx, f, tenancy.OrderBy("created_at DESC"), tenancy.Page(page, limit))
	return pedidos, total, err
}

func (r *pedidoRepo) UpdateEstadoTx(ctx context.Context, tx *gorm.DB, slug string, id uuid.UUID, estado string) error {
	m, err := r.model(slug)
	if err != nil {
		return err
	}
	n, err := m.Tx(tx).UpdateMany(ctx, tenancy.Filter{"id": id}, tenancy.Patch{"estado": estado})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
