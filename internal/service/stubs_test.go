package service_test

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/dto"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/model"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/repository"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/service"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ── Productos ─────────────────────────────────────────────────────────────────

// stubProductoRepo is an in-memory ProductoRepository keyed by tenant slug.
type stubProductoRepo struct {
	mu        sync.Mutex
	productos map[string]map[uuid.UUID]*model.Producto
	// carrera simulates a concurrent checkout: DecrementStockTx first takes
	// that many units of the product, once.
	carrera map[uuid.UUID]int
	// descuentos records the order in which DecrementStockTx touched products.
	descuentos []uuid.UUID
	listCalls  int
}

func newStubProductoRepo() *stubProductoRepo {
	return &stubProductoRepo{
		productos: map[string]map[uuid.UUID]*model.Producto{},
		carrera:   map[uuid.UUID]int{},
	}
}

func (r *stubProductoRepo) tenant(slug string) map[uuid.UUID]*model.Producto {
	m, ok := r.productos[slug]
	if !ok {
		m = map[uuid.UUID]*model.Producto{}
		r.productos[slug] = m
	}
	return m
}

func (r *stubProductoRepo) seed(slug, nombre string, precio float64, stock int) *model.Producto {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := &model.Producto{
		ID:        uuid.New(),
		Nombre:    nombre,
		Precio:    decimal.NewFromFloat(precio),
		Stock:     stock,
		CreatedAt: time.Now(),
	}
	r.tenant(slug)[p.ID] = p
	return p
}

func (r *stubProductoRepo) stock(slug string, id uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tenant(slug)[id].Stock
}

func (r *stubProductoRepo) Create(_ context.Context, slug string, p *model.Producto) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.tenant(slug) {
		if existing.Nombre == p.Nombre {
			return repository.ErrDuplicate
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	r.tenant(slug)[p.ID] = &cp
	return nil
}

func (r *stubProductoRepo) FindByID(_ context.Context, slug string, id uuid.UUID) (*model.Producto, error) {
	return r.FindByIDTx(context.Background(), nil, slug, id)
}

func (r *stubProductoRepo) FindByNombre(_ context.Context, slug, nombre string) (*model.Producto, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.tenant(slug) {
		if p.Nombre == nombre {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubProductoRepo) List(_ context.Context, slug string, f dto.ProductoFilter) ([]model.Producto, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++
	var out []model.Producto
	for _, p := range r.tenant(slug) {
		if f.Nombre != "" && !strings.Contains(strings.ToLower(p.Nombre), strings.ToLower(f.Nombre)) {
			continue
		}
		if f.Categoria != "" && !contains(p.Categorias, f.Categoria) {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nombre < out[j].Nombre })
	return out, int64(len(out)), nil
}

func (r *stubProductoRepo) Update(_ context.Context, slug string, id uuid.UUID, patch map[string]any) (*model.Producto, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.tenant(slug)[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	for k, v := range patch {
		switch k {
		case "nombre":
			p.Nombre = v.(string)
		case "descripcion":
			p.Descripcion = v.(string)
		case "precio":
			p.Precio = v.(decimal.Decimal)
		case "stock":
			p.Stock = v.(int)
		case "image_url":
			s := v.(string)
			p.ImageURL = &s
		case "promocion":
			p.Promocion, _ = v.(*model.Promocion)
		case "categorias":
			p.Categorias = v.(pq.StringArray)
		}
	}
	cp := *p
	return &cp, nil
}

func (r *stubProductoRepo) Delete(_ context.Context, slug string, id uuid.UUID) (*model.Producto, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.tenant(slug)[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(r.tenant(slug), id)
	return p, nil
}

func (r *stubProductoRepo) PullCategoria(_ context.Context, slug string, categoriaID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	id := categoriaID.String()
	for _, p := range r.tenant(slug) {
		if !contains(p.Categorias, id) {
			continue
		}
		kept := p.Categorias[:0]
		for _, c := range p.Categorias {
			if c != id {
				kept = append(kept, c)
			}
		}
		p.Categorias = kept
		n++
	}
	return n, nil
}

func (r *stubProductoRepo) FindByIDTx(_ context.Context, _ *gorm.DB, slug string, id uuid.UUID) (*model.Producto, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.tenant(slug)[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubProductoRepo) DecrementStockTx(_ context.Context, _ *gorm.DB, slug string, id uuid.UUID, qty int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.descuentos = append(r.descuentos, id)
	p, ok := r.tenant(slug)[id]
	if !ok {
		return false, nil
	}
	if n, ok := r.carrera[id]; ok {
		p.Stock -= n
		delete(r.carrera, id)
	}
	if p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	return true, nil
}

func (r *stubProductoRepo) IncrementStockTx(_ context.Context, _ *gorm.DB, slug string, id uuid.UUID, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.tenant(slug)[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Stock += qty
	return nil
}

var _ repository.ProductoRepository = (*stubProductoRepo)(nil)

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// ── Categorias ────────────────────────────────────────────────────────────────

type stubCategoriaRepo struct {
	mu         sync.Mutex
	categorias map[string]map[uuid.UUID]*model.Categoria
}

func newStubCategoriaRepo() *stubCategoriaRepo {
	return &stubCategoriaRepo{categorias: map[string]map[uuid.UUID]*model.Categoria{}}
}

func (r *stubCategoriaRepo) tenant(slug string) map[uuid.UUID]*model.Categoria {
	m, ok := r.categorias[slug]
	if !ok {
		m = map[uuid.UUID]*model.Categoria{}
		r.categorias[slug] = m
	}
	return m
}

func (r *stubCategoriaRepo) seed(slug, nombre string) *model.Categoria {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := &model.Categoria{ID: uuid.New(), Nombre: nombre, Slug: service.Slugify(nombre)}
	r.tenant(slug)[c.ID] = c
	return c
}

func (r *stubCategoriaRepo) Create(_ context.Context, slug string, c *model.Categoria) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.tenant(slug) {
		if e.Nombre == c.Nombre || e.Slug == c.Slug {
			return repository.ErrDuplicate
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	cp := *c
	r.tenant(slug)[c.ID] = &cp
	return nil
}

func (r *stubCategoriaRepo) FindByID(_ context.Context, slug string, id uuid.UUID) (*model.Categoria, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.tenant(slug)[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *stubCategoriaRepo) FindByNombre(_ context.Context, slug, nombre string) (*model.Categoria, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.tenant(slug) {
		if c.Nombre == nombre {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubCategoriaRepo) List(_ context.Context, slug string) ([]model.Categoria, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Categoria, 0)
	for _, c := range r.tenant(slug) {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nombre < out[j].Nombre })
	return out, nil
}

func (r *stubCategoriaRepo) CountByIDs(_ context.Context, slug string, ids []uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := r.tenant(slug)[id]; ok {
			n++
		}
	}
	return n, nil
}

func (r *stubCategoriaRepo) Update(_ context.Context, slug string, id uuid.UUID, patch map[string]any) (*model.Categoria, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.tenant(slug)[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if v, ok := patch["nombre"]; ok {
		c.Nombre = v.(string)
	}
	if v, ok := patch["slug"]; ok {
		c.Slug = v.(string)
	}
	if v, ok := patch["descripcion"]; ok {
		s := v.(string)
		c.Descripcion = &s
	}
	cp := *c
	return &cp, nil
}

func (r *stubCategoriaRepo) Delete(_ context.Context, slug string, id uuid.UUID) (*model.Categoria, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.tenant(slug)[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(r.tenant(slug), id)
	return c, nil
}

var _ repository.CategoriaRepository = (*stubCategoriaRepo)(nil)

// ── Pedidos ───────────────────────────────────────────────────────────────────

// stubPedidoRepo runs WithinTx as fn(nil): unit test mode, no real transaction.
type stubPedidoRepo struct {
	mu        sync.Mutex
	pedidos   map[uuid.UUID]*model.Pedido
	createErr error
}

func newStubPedidoRepo() *stubPedidoRepo {
	return &stubPedidoRepo{pedidos: map[uuid.UUID]*model.Pedido{}}
}

func (r *stubPedidoRepo) WithinTx(_ context.Context, _ string, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func (r *stubPedidoRepo) CreateTx(_ context.Context, _ *gorm.DB, _ string, p *model.Pedido) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	r.pedidos[p.ID] = &cp
	return nil
}

func (r *stubPedidoRepo) FindByID(ctx context.Context, slug string, id uuid.UUID) (*model.Pedido, error) {
	return r.FindByIDTx(ctx, nil, slug, id)
}

func (r *stubPedidoRepo) FindByIDTx(_ context.Context, _ *gorm.DB, _ string, id uuid.UUID) (*model.Pedido, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pedidos[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubPedidoRepo) List(_ context.Context, _ string, f dto.PedidoFilter) ([]model.Pedido, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Pedido
	for _, p := range r.pedidos {
		if f.Estado == "" || p.Estado == f.Estado {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, int64(len(out)), nil
}

func (r *stubPedidoRepo) UpdateEstadoTx(_ context.Context, _ *gorm.DB, _ string, id uuid.UUID, estado string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pedidos[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Estado = estado
	return nil
}

var _ repository.PedidoRepository = (*stubPedidoRepo)(nil)

// ── Tiendas y usuarios ────────────────────────────────────────────────────────

type stubTiendaRepo struct {
	mu        sync.Mutex
	tiendas   map[uuid.UUID]*model.Tienda
	miembros  []model.MiembroTienda
	deleteErr error
}

func newStubTiendaRepo() *stubTiendaRepo {
	return &stubTiendaRepo{tiendas: map[uuid.UUID]*model.Tienda{}}
}

func (r *stubTiendaRepo) CreateWithOwner(_ context.Context, t *model.Tienda, ownerID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.tiendas {
		if e.Slug == t.Slug {
			return repository.ErrDuplicate
		}
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.CreatedAt = time.Now()
	cp := *t
	r.tiendas[t.ID] = &cp
	r.miembros = append(r.miembros, model.MiembroTienda{
		ID: uuid.New(), TiendaID: t.ID, UsuarioID: ownerID, Rol: model.RolOwner,
	})
	return nil
}

func (r *stubTiendaRepo) FindBySlug(_ context.Context, slug string) (*model.Tienda, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tiendas {
		if t.Slug == slug {
			cp := *t
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubTiendaRepo) CountBySlug(_ context.Context, slug string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, t := range r.tiendas {
		if t.Slug == slug {
			n++
		}
	}
	return n, nil
}

func (r *stubTiendaRepo) ListActive(_ context.Context) ([]model.Tienda, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Tienda
	for _, t := range r.tiendas {
		if t.IsActive {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StoreName < out[j].StoreName })
	return out, nil
}

func (r *stubTiendaRepo) ListAll(_ context.Context) ([]model.Tienda, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Tienda, 0, len(r.tiendas))
	for _, t := range r.tiendas {
		out = append(out, *t)
	}
	return out, nil
}

func (r *stubTiendaRepo) Update(_ context.Context, id uuid.UUID, patch map[string]any) (*model.Tienda, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tiendas[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	for k, v := range patch {
		switch k {
		case "store_name":
			t.StoreName = v.(string)
		case "owner_email":
			t.OwnerEmail = v.(string)
		case "location":
			s := v.(string)
			t.Location = &s
		case "description":
			s := v.(string)
			t.Description = &s
		case "image_url":
			s := v.(string)
			t.ImageURL = &s
		case "is_active":
			t.IsActive = v.(bool)
		}
	}
	cp := *t
	return &cp, nil
}

func (r *stubTiendaRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.tiendas[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.tiendas, id)
	return nil
}

func (r *stubTiendaRepo) ListMembers(_ context.Context, tiendaID uuid.UUID) ([]model.MiembroTienda, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.MiembroTienda
	for _, m := range r.miembros {
		if m.TiendaID == tiendaID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *stubTiendaRepo) FindMember(_ context.Context, tiendaID, usuarioID uuid.UUID) (*model.MiembroTienda, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.miembros {
		if m.TiendaID == tiendaID && m.UsuarioID == usuarioID {
			cp := m
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubTiendaRepo) AddMember(_ context.Context, m *model.MiembroTienda) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.miembros {
		if e.TiendaID == m.TiendaID && e.UsuarioID == m.UsuarioID {
			return repository.ErrDuplicate
		}
	}
	m.ID = uuid.New()
	r.miembros = append(r.miembros, *m)
	return nil
}

func (r *stubTiendaRepo) RemoveMember(_ context.Context, tiendaID, usuarioID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.miembros {
		if m.TiendaID == tiendaID && m.UsuarioID == usuarioID {
			r.miembros = append(r.miembros[:i], r.miembros[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *stubTiendaRepo) RemoveAllMembers(_ context.Context, tiendaID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.miembros[:0]
	var n int64
	for _, m := range r.miembros {
		if m.TiendaID == tiendaID {
			n++
			continue
		}
		kept = append(kept, m)
	}
	r.miembros = kept
	return n, nil
}

func (r *stubTiendaRepo) ListMemberships(_ context.Context, usuarioID uuid.UUID) ([]repository.Membresia, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []repository.Membresia
	for _, m := range r.miembros {
		if m.UsuarioID != usuarioID {
			continue
		}
		if t, ok := r.tiendas[m.TiendaID]; ok {
			out = append(out, repository.Membresia{Tienda: *t, Rol: m.Rol})
		}
	}
	return out, nil
}

var _ repository.TiendaRepository = (*stubTiendaRepo)(nil)

type stubUsuarioRepo struct {
	mu       sync.Mutex
	usuarios map[uuid.UUID]*model.Usuario
}

func newStubUsuarioRepo() *stubUsuarioRepo {
	return &stubUsuarioRepo{usuarios: map[uuid.UUID]*model.Usuario{}}
}

func (r *stubUsuarioRepo) seed(nombre, email string, hash *string) *model.Usuario {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := &model.Usuario{ID: uuid.New(), Nombre: nombre, Email: email, PasswordHash: hash}
	r.usuarios[u.ID] = u
	return u
}

func (r *stubUsuarioRepo) Create(_ context.Context, u *model.Usuario) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.usuarios {
		if e.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	cp := *u
	r.usuarios[u.ID] = &cp
	return nil
}

func (r *stubUsuarioRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Usuario, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.usuarios[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *stubUsuarioRepo) FindByEmail(_ context.Context, email string) (*model.Usuario, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.usuarios {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubUsuarioRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]model.Usuario, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Usuario
	for _, id := range ids {
		if u, ok := r.usuarios[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

var _ repository.UsuarioRepository = (*stubUsuarioRepo)(nil)

// ── Configuracion ─────────────────────────────────────────────────────────────

type stubConfiguracionRepo struct {
	mu      sync.Mutex
	entries map[string]map[string]*model.Configuracion
}

func newStubConfiguracionRepo() *stubConfiguracionRepo {
	return &stubConfiguracionRepo{entries: map[string]map[string]*model.Configuracion{}}
}

func (r *stubConfiguracionRepo) tenant(slug string) map[string]*model.Configuracion {
	m, ok := r.entries[slug]
	if !ok {
		m = map[string]*model.Configuracion{}
		r.entries[slug] = m
	}
	return m
}

func (r *stubConfiguracionRepo) List(_ context.Context, slug string, soloPublicas bool) ([]model.Configuracion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Configuracion, 0)
	for _, c := range r.tenant(slug) {
		if soloPublicas && !c.EsPublica {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Clave < out[j].Clave })
	return out, nil
}

func (r *stubConfiguracionRepo) FindByClave(_ context.Context, slug, clave string) (*model.Configuracion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.tenant(slug)[clave]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *stubConfiguracionRepo) Upsert(_ context.Context, slug, clave string, patch map[string]any) (*model.Configuracion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.tenant(slug)[clave]
	if !ok {
		c = &model.Configuracion{ID: uuid.New(), Clave: clave}
		r.tenant(slug)[clave] = c
	}
	for k, v := range patch {
		switch k {
		case "valor":
			c.Valor = v.(datatypes.JSON)
		case "es_publica":
			c.EsPublica = v.(bool)
		case "descripcion":
			s := v.(string)
			c.Descripcion = &s
		}
	}
	cp := *c
	return &cp, nil
}

func (r *stubConfiguracionRepo) Delete(_ context.Context, slug, clave string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tenant(slug)[clave]; !ok {
		return repository.ErrNotFound
	}
	delete(r.tenant(slug), clave)
	return nil
}

var _ repository.ConfiguracionRepository = (*stubConfiguracionRepo)(nil)

// ── Colaboradores ─────────────────────────────────────────────────────────────

type stubBlobStore struct {
	mu      sync.Mutex
	objetos map[string][]byte
	listErr error
}

func newStubBlobStore() *stubBlobStore { return &stubBlobStore{objetos: map[string][]byte{}} }

const blobBaseURL = "http://cdn.test/uploads"

func (b *stubBlobStore) Put(_ context.Context, key string, r io.Reader, _ string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objetos[key] = data
	return blobBaseURL + "/" + key, nil
}

func (b *stubBlobStore) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objetos, key)
	return nil
}

func (b *stubBlobStore) ListByPrefix(_ context.Context, prefix string) ([]string, error) {
	if b.listErr != nil {
		return nil, b.listErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for k := range b.objetos {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out, nil
}

func (b *stubBlobStore) DeleteMany(_ context.Context, keys []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, k := range keys {
		delete(b.objetos, k)
	}
	return nil
}

func (b *stubBlobStore) KeyFromURL(u string) (string, bool) {
	if !strings.HasPrefix(u, blobBaseURL+"/") {
		return "", false
	}
	return strings.TrimPrefix(u, blobBaseURL+"/"), true
}

func (b *stubBlobStore) keys() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.objetos))
	for k := range b.objetos {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

var _ service.BlobStore = (*stubBlobStore)(nil)

type stubDropper struct {
	dropped []string
	err     error
}

func (d *stubDropper) DropDatabase(_ context.Context, dbName string) error {
	if d.err != nil {
		return d.err
	}
	d.dropped = append(d.dropped, dbName)
	return nil
}

var _ service.TenantDropper = (*stubDropper)(nil)

var errBoom = errors.New("boom")
