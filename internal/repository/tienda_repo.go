package repository

import (
	"context"

	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/model"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/tenancy"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Membresia is a shop seen from one of its members.
type Membresia struct {
	Tienda model.Tienda
	Rol    string
}

// TiendaRepository manages shops and their memberships in platform_meta.
// Membership rows are the only record of who belongs to which shop.
type TiendaRepository interface {
	// CreateWithOwner inserts the shop and its owner membership in one transaction.
	CreateWithOwner(ctx context.Context, t *model.Tienda, ownerID uuid.UUID) error
	FindBySlug(ctx context.Context, slug string) (*model.Tienda, error)
	CountBySlug(ctx context.Context, slug string) (int64, error)
	ListActive(ctx context.Context) ([]model.Tienda, error)
	ListAll(ctx context.Context) ([]model.Tienda, error)
	Update(ctx context.Context, id uuid.UUID, patch map[string]any) (*model.Tienda, error)
	Delete(ctx context.Context, id uuid.UUID) error

	ListMembers(ctx context.Context, tiendaID uuid.UUID) ([]model.MiembroTienda, error)
	FindMember(ctx context.Context, tiendaID, usuarioID uuid.UUID) (*model.MiembroTienda, error)
	AddMember(ctx context.Context, m *model.MiembroTienda) error
	RemoveMember(ctx context.Context, tiendaID, usuarioID uuid.UUID) error
	RemoveAllMembers(ctx context.Context, tiendaID uuid.UUID) (int64, error)
	ListMemberships(ctx context.Context, usuarioID uuid.UUID) ([]Membresia, error)
}

type tiendaRepo struct{ reg *tenancy.Registry }

func NewTiendaRepository(reg *tenancy.Registry) TiendaRepository { return &tiendaRepo{reg: reg} }

func (r *tiendaRepo) tiendas() (*tenancy.Model[model.Tienda], error) {
	return metaModel[model.Tienda](r.reg, modelTienda)
}

func (r *tiendaRepo) miembros() (*tenancy.Model[model.MiembroTienda], error) {
	return metaModel[model.MiembroTienda](r.reg, modelMiembro)
}

func (r *tiendaRepo) CreateWithOwner(ctx context.Context, t *model.Tienda, ownerID uuid.UUID) error {
	tiendas, err := r.tiendas()
	if err != nil {
		return err
	}
	miembros, err := r.miembros()
	if err != nil {
		return err
	}
	err = r.reg.MetadataConnection().Transaction(ctx, func(tx *gorm.DB) error {
		if _, err := tiendas.Tx(tx).Insert(ctx, t); err != nil {
			return err
		}
		_, err := miembros.Tx(tx).Insert(ctx, &model.MiembroTienda{
			TiendaID:  t.ID,
			UsuarioID: ownerID,
			Rol:       model.RolOwner,
		})
		return err
	})
	return translate(err)
}

func (r *tiendaRepo) FindBySlug(ctx context.Context, slug string) (*model.Tienda, error) {
	m, err := r.tiendas()
	if err != nil {
		return nil, err
	}
	t, err := m.FindOne(ctx, tenancy.Filter{"slug": slug})
	return t, translate(err)
}

func (r *tiendaRepo) CountBySlug(ctx context.Context, slug string) (int64, error) {
	m, err := r.tiendas()
	if err != nil {
		return 0, err
	}
	return m.Count(ctx, tenancy.Filter{"slug": slug})
}

func (r *tiendaRepo) ListActive(ctx context.Context) ([]model.Tienda, error) {
	m, err := r.tiendas()
	if err != nil {
		return nil, err
	}
	return m.Find(ctx, tenancy.Filter{"is_active": true}, tenancy.OrderBy("store_name ASC"))
}

func (r *tiendaRepo) ListAll(ctx context.Context) ([]model.Tienda, error) {
	m, err := r.tiendas()
	if err != nil {
		return nil, err
	}
	return m.Find(ctx, nil, tenancy.OrderBy("slug ASC"))
}

func (r *tiendaRepo) Update(ctx context.Context, id uuid.UUID, patch map[string]any) (*model.Tienda, error) {
	m, err := r.tiendas()
	if err != nil {
		return nil, err
	}
	t, err := m.UpdateOne(ctx, tenancy.Filter{"id": id}, patch, false)
	return t, translate(err)
}

func (r *tiendaRepo) Delete(ctx context.Context, id uuid.UUID) error {
	m, err := r.tiendas()
	if err != nil {
		return err
	}
	_, err = m.DeleteOne(ctx, tenancy.Filter{"id": id})
	return translate(err)
}

func (r *tiendaRepo) ListMembers(ctx context.Context, tiendaID uuid.UUID) ([]model.MiembroTienda, error) {
	m, err := r.miembros()
	if err != nil {
		return nil, err
	}
	return m.Find(ctx, tenancy.Filter{"tienda_id": tiendaID}, tenancy.OrderBy("created_at ASC"))
}

func (r *tiendaRepo) FindMember(ctx context.Context, tiendaID, usuarioID uuid.UUID) (*model.MiembroTienda, error) {
	m, err := r.miembros()
	if err != nil {
		return nil, err
	}
	mt, err := m.FindOne(ctx, tenancy.Filter{"tienda_id": tiendaID, "usuario_id": usuarioID})
	return mt, translate(err)
}

func (r *tiendaRepo) AddMember(ctx context.Context, mt *model.MiembroTienda) error {
	m, err := r.miembros()
	if err != nil {
		return err
	}
	_, err = m.Insert(ctx, mt)
	return translate(err)
}

func (r *tiendaRepo) RemoveMember(ctx context.Context, tiendaID, usuarioID uuid.UUID) error {
	m, err := r.miembros()
	if err != nil {
		return err
	}
	_, err = m.DeleteOne(ctx, tenancy.Filter{"tienda_id": tiendaID, "usuario_id": usuarioID})
	return translate(err)
}

func (r *tiendaRepo) RemoveAllMembers(ctx context.Context, tiendaID uuid.UUID) (int64, error) {
	m, err := r.miembros()
	if err != nil {
		return 0, err
	}
	return m.DeleteMany(ctx, tenancy.Filter{"tienda_id": tiendaID})
}

func (r *tiendaRepo) ListMemberships(ctx context.Context, usuarioID uuid.UUID) ([]Membresia, error) {
	miembros, err := r.miembros()
	if err != nil {
		return nil, err
	}
	rows, err := miembros.Find(ctx, tenancy.Filter{"usuario_id": usuarioID})
	if err != nil || len(rows) == 0 {
		return nil, err
	}

	roles := make(map[uuid.UUID]string, len(rows))
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		roles[row.TiendaID] = row.Rol
		ids = append(ids, row.TiendaID)
	}

	tiendas, err := r.tiendas()
	if err != nil {
		return nil, err
	}
	found, err := tiendas.Find(ctx, tenancy.Filter{"id": ids}, tenancy.OrderBy("store_name ASC"))
	if err != nil {
		return nil, err
	}
	out := make([]Membresia, 0, len(found))
	for _, t := range found {
		out = append(out, Membresia{Tienda: t, Rol: roles[t.ID]})
	}
	return out, nil
}
