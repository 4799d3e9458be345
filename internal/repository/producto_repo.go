package repository

import (
	"context"

	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/dto"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/model"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/tenancy"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductoRepository defines the data access contract for a tenant's products.
// Every method takes the tenant slug and resolves the tenant connection itself.
// The *Tx variants run on the given transaction; a nil tx runs outside one.
type ProductoRepository interface {
	Create(ctx context.Context, slug string, p *model.Producto) error
	FindByID(ctx context.Context, slug string, id uuid.UUID) (*model.Producto, error)
	FindByNombre(ctx context.Context, slug, nombre string) (*model.Producto, error)
	List(ctx context.Context, slug string, filter dto.ProductoFilter) ([]model.Producto, int64, error)
	Update(ctx context.Context, slug string, id uuid.UUID, patch map[string]any) (*model.Producto, error)
	Delete(ctx context.Context, slug string, id uuid.UUID) (*model.Producto, error)
	// PullCategoria removes a category id from every product that references it.
	PullCategoria(ctx context.Context, slug string, categoriaID uuid.UUID) (int64, error)

	FindByIDTx(ctx context.Context, tx *gorm.DB, slug string, id uuid.UUID) (*model.Producto, error)
	// DecrementStockTx subtracts qty only if the current stock covers it and
	// reports whether it did.
	DecrementStockTx(ctx context.Context, tx *gorm.DB, slug string, id uuid.UUID, qty int) (bool, error)
	IncrementStockTx(ctx context.Context, tx *gorm.DB, slug string, id uuid.UUID, qty int) error
}

type productoRepo struct{ reg *tenancy.Registry }

func NewProductoRepository(reg *tenancy.Registry) ProductoRepository { return &productoRepo{reg: reg} }

func (r *productoRepo) model(slug string) (*tenancy.Model[model.Producto], error) {
	return tenantModel[model.Producto](r.reg, slug, modelProducto)
}

func (r *productoRepo) Create(ctx context.Context, slug string, p *model.Producto) error {
	m, err := r.model(slug)
	if err != nil {
		return err
	}
	_, err = m.Insert(ctx, p)
	return translate(err)
}

func (r *productoRepo) FindByID(ctx context.Context, slug string, id uuid.UUID) (*model.Producto, error) {
	return r.FindByIDTx(ctx, nil, slug, id)
}

func (r *productoRepo) FindByNombre(ctx context.Context, slug, nombre string) (*model.Producto, error) {
	m, err := r.model(slug)
	if err != nil {
		return nil, err
	}
	p, err := m.FindOne(ctx, tenancy.Filter{"nombre": nombre})
	return p, translate(err)
}

func (r *productoRepo) List(ctx context.Context, slug string, filter dto.ProductoFilter) ([]model.Producto, int64, error) {
	m, err := r.model(slug)
	if err != nil {
		return nil, 0, err
	}

	var conds []tenancy.QueryOption
	if filter.Nombre != "" {
		conds = append(conds, tenancy.Where("nombre ILIKE ?", "%"+filter.Nombre+"%"))
	}
	if filter.Categoria != "" {
		conds = append(conds, tenancy.Where("? = ANY(categorias)", filter.Categoria))
	}

	total, err := m.Count(ctx, nil, conds...)
	if err != nil {
		return nil, 0, err
	}

	page, limit := pageOf(filter.Page, filter.Limit)
	opts := append(conds, tenancy.OrderBy("nombre ASC"), tenancy.Page(page, limit))
	productos, err := m.Find(ctx, nil, opts...)
	return productos, total, err
}

func (r *productoRepo) Update(ctx context.Context, slug string, id uuid.UUID, patch map[string]any) (*model.Producto, error) {
	m, err := r.model(slug)
	if err != nil {
		return nil, err
	}
	p, err := m.UpdateOne(ctx, tenancy.Filter{"id": id}, patch, false)
	return p, translate(err)
}

func (r *productoRepo) Delete(ctx context.Context, slug string, id uuid.UUID) (*model.Producto, error) {
	m, err := r.model(slug)
	if err != nil {
		return nil, err
	}
	p, err := m.DeleteOne(ctx, tenancy.Filter{"id": id})
	return p, translate(err)
}

func (r *productoRepo) PullCategoria(ctx context.Context, slug string, categoriaID uuid.UUID) (int64, error) {
	m, err := r.model(slug)
	if err != nil {
		return 0, err
	}
	id := categoriaID.String()
	return m.UpdateMany(ctx, nil,
		tenancy.Patch{"categorias": gorm.Expr("array_remove(categorias, ?)", id)},
		tenancy.Where("? = ANY(categorias)", id))
}

func (r *productoRepo) FindByIDTx(ctx context.Context, tx *gorm.DB, slug string, id uuid.UUID) (*model.Producto, error) {
	m, err := r.model(slug)
	if err != nil {
		return nil, err
	}
	p, err := m.Tx(tx).FindOne(ctx, tenancy.Filter{"id": id})
	return p, translate(err)
}

func (r *productoRepo) DecrementStockTx(ctx context.Context, tx *gorm.DB, slug string, id uuid.UUID, qty int) (bool, error) {
	m, err := r.model(slug)
	if err != nil {
		return false, err
	}
	n, err := m.Tx(tx).UpdateMany(ctx, tenancy.Filter{"id": id},
		tenancy.Patch{"stock": gorm.Expr("stock - ?", qty)},
		tenancy.Where("stock >= ?", qty))
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *productoRepo) IncrementStockTx(ctx context.Context, tx *gorm.DB, slug string, id uuid.UUID, qty int) error {
	m, err := r.model(slug)
	if err != nil {
		return err
	}
	n, err := m.Tx(tx).UpdateMany(ctx, tenancy.Filter{"id": id},
		tenancy.Patch{"stock": gorm.Expr("stock + ?", qty)})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
