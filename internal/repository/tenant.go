package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/tenancy"

	"gorm.io/gorm"
)

// Model names as registered on each logical connection.
const (
	modelTienda        = "Tienda"
	modelUsuario       = "Usuario"
	modelMiembro       = "MiembroTienda"
	modelProducto      = "Producto"
	modelCategoria     = "Categoria"
	modelPedido        = "Pedido"
	modelConfiguracion = "Configuracion"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("registro no encontrado")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("registro duplicado")
	// ErrInvalidTenant is returned for slugs that cannot name a tenant.
	ErrInvalidTenant = errors.New("tenant invalido")
)

// tenantModel resolves db_<slug> → logical connection → model binding. It runs
// on every call: repositories never hold a binding across requests.
func tenantModel[T any](reg *tenancy.Registry, slug, name string) (*tenancy.Model[T], error) {
	if !tenancy.ValidSlug(slug) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTenant, slug)
	}
	return tenancy.ModelFor[T](reg.ConnectionForTenant(slug), name)
}

func metaModel[T any](reg *tenancy.Registry, name string) (*tenancy.Model[T], error) {
	return tenancy.ModelFor[T](reg.MetadataConnection(), name)
}

// tenantTx runs fn in one transaction on the tenant's logical connection.
func tenantTx(ctx context.Context, reg *tenancy.Registry, slug string, fn func(tx *gorm.DB) error) error {
	if !tenancy.ValidSlug(slug) {
		return fmt.Errorf("%w: %q", ErrInvalidTenant, slug)
	}
	return reg.ConnectionForTenant(slug).Transaction(ctx, fn)
}

// translate maps store errors onto the repository sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, tenancy.ErrNoDocument), errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	default:
		return err
	}
}

func pageOf(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
