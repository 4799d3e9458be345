//go:build integration

package repository_test

// Runs the repositories and the services on top of them against a real
// PostgreSQL via testcontainers:
//   go test -tags integration ./internal/repository/... -v

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/apierror"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/cache"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/dto"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/model"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/repository"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/service"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/storage"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/tenancy"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

const slug = "acme"

func openTestRegistry(t *testing.T) *tenancy.Registry {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.Run(ctx, "postgres:16-alpine",
		tcPostgres.WithDatabase("tiendas_test"),
		tcPostgres.WithUsername("tiendas"),
		tcPostgres.WithPassword("tiendas"),
		testcontainers.WithWaitStrategy(tcPostgres.BasicWaitStrategies()...),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	dsn, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	reg, err := tenancy.Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reg.Close() })
	return reg
}

type env struct {
	reg       *tenancy.Registry
	productos repository.ProductoRepository
	pedidos   repository.PedidoRepository
	tiendas   repository.TiendaRepository
	usuarios  repository.UsuarioRepository
	svc       service.PedidoService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	reg := openTestRegistry(t)
	e := &env{
		reg:       reg,
		productos: repository.NewProductoRepository(reg),
		pedidos:   repository.NewPedidoRepository(reg),
		tiendas:   repository.NewTiendaRepository(reg),
		usuarios:  repository.NewUsuarioRepository(reg),
	}
	e.svc = service.NewPedidoService(e.pedidos, e.productos, e.tiendas, cache.New(nil, 0), nil)
	return e
}

func (e *env) seed(t *testing.T, nombre string, precio int64, stock int) *model.Producto {
	t.Helper()
	p := &model.Producto{Nombre: nombre, Precio: decimal.NewFromInt(precio), Stock: stock}
	require.NoError(t, e.productos.Create(context.Background(), slug, p))
	return p
}

func (e *env) stock(t *testing.T, id uuid.UUID) int {
	t.Helper()
	p, err := e.productos.FindByID(context.Background(), slug, id)
	require.NoError(t, err)
	return p.Stock
}

func pedidoDe(items ...dto.ItemPedidoRequest) dto.CrearPedidoRequest {
	return dto.CrearPedidoRequest{
		Comprador: dto.CompradorRequest{
			Nombre:       "Ana Pérez",
			Email:        "ana@example.com",
			Direccion:    "Calle Falsa 123",
			CodigoPostal: "1900",
		},
		Productos: items,
	}
}

func item(p *model.Producto, qty int) dto.ItemPedidoRequest {
	return dto.ItemPedidoRequest{ProductoID: p.ID.String(), Cantidad: qty}
}

// ── Modelos ───────────────────────────────────────────────────────────────────

func TestIntegration_MigraModelosReales(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	cat := &model.Categoria{Nombre: "Mates", Slug: "mates"}
	require.NoError(t, repository.NewCategoriaRepository(e.reg).Create(ctx, slug, cat))

	valor := decimal.NewFromInt(2)
	p := &model.Producto{
		Nombre:     "Mate imperial",
		Precio:     decimal.RequireFromString("1500.50"),
		Stock:      3,
		Categorias: pq.StringArray{cat.ID.String()},
		Promocion:  &model.Promocion{Tipo: model.PromoNxM, Valor: decimal.NewFromInt(3), ValorSecundario: &valor, Activa: true},
	}
	require.NoError(t, e.productos.Create(ctx, slug, p))
	assert.NotEqual(t, uuid.Nil, p.ID)

	got, err := e.productos.FindByID(ctx, slug, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Precio.Equal(decimal.RequireFromString("1500.50")))
	assert.Equal(t, []string{cat.ID.String()}, []string(got.Categorias))
	require.NotNil(t, got.Promocion)
	assert.Equal(t, model.PromoNxM, got.Promocion.Tipo)
	require.NotNil(t, got.Promocion.ValorSecundario)
	assert.True(t, got.Promocion.ValorSecundario.Equal(valor))

	// Defaults and CHECK constraints come from the model tags.
	sinCats := e.seed(t, "Bombilla", 10, 1)
	got, err = e.productos.FindByID(ctx, slug, sinCats.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Categorias)

	_, err = e.productos.Update(ctx, slug, sinCats.ID, map[string]any{"stock": -1})
	assert.Error(t, err, "chk_producto_stock")

	err = e.productos.Create(ctx, slug, &model.Producto{Nombre: "Mate imperial", Precio: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
	// The unique index is case sensitive.
	require.NoError(t, e.productos.Create(ctx, slug, &model.Producto{Nombre: "mate imperial", Precio: decimal.NewFromInt(1)}))

	schemas, err := e.reg.ListTenantDatabases(ctx)
	require.NoError(t, err)
	assert.Contains(t, schemas, "db_acme")
}

// ── Pedidos ───────────────────────────────────────────────────────────────────

func TestIntegration_CrearPedido_TotalYSnapshot(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.seed(t, "Mate", 10, 10)
	b := e.seed(t, "Bombilla", 20, 10)
	bogus := decimal.NewFromInt(1)

	req := pedidoDe(item(a, 2), item(b, 1))
	req.Total = &bogus
	resp, err := e.svc.Crear(ctx, slug, req)
	require.NoError(t, err)
	assert.True(t, resp.Total.Equal(decimal.NewFromInt(40)), "total = %s", resp.Total)

	_, err = e.productos.Update(ctx, slug, a.ID, map[string]any{"precio": decimal.NewFromInt(99)})
	require.NoError(t, err)

	stored, err := e.pedidos.FindByID(ctx, slug, uuid.MustParse(resp.ID))
	require.NoError(t, err)
	assert.True(t, stored.Total.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, "Ana Pérez", stored.Comprador.Nombre)
	require.Len(t, stored.Productos, 2)
	assert.Equal(t, a.ID, stored.Productos[0].ProductoID)
	assert.True(t, stored.Productos[0].Precio.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, model.EstadoPendiente, stored.Estado)

	assert.Equal(t, 8, e.stock(t, a.ID))
	assert.Equal(t, 9, e.stock(t, b.ID))
}

func TestIntegration_CrearPedido_StockInsuficiente(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.seed(t, "Mate", 10, 5)
	b := e.seed(t, "Bombilla", 20, 1)

	_, err := e.svc.Crear(ctx, slug, pedidoDe(item(a, 2), item(b, 2)))
	require.Error(t, err)
	assert.Equal(t, apierror.CodeInsufficientStock, apierror.CodeOf(err))

	assert.Equal(t, 5, e.stock(t, a.ID))
	assert.Equal(t, 1, e.stock(t, b.ID))

	_, total, err := e.pedidos.List(ctx, slug, dto.PedidoFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

// The second decrement of the same product fails after the first one already
// ran inside the transaction; the rollback must undo both reservations.
func TestIntegration_CrearPedido_RollbackTrasDescuento(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.seed(t, "Mate", 10, 5)
	b := e.seed(t, "Bombilla", 20, 4)

	_, err := e.svc.Crear(ctx, slug, pedidoDe(item(b, 1), item(a, 3), item(a, 3)))
	require.Error(t, err)
	assert.Equal(t, apierror.CodeInsufficientStock, apierror.CodeOf(err))
	assert.Contains(t, err.Error(), "disponible: 2")

	assert.Equal(t, 5, e.stock(t, a.ID))
	assert.Equal(t, 4, e.stock(t, b.ID))

	_, total, err := e.pedidos.List(ctx, slug, dto.PedidoFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestIntegration_CancelarRestituyeStock(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.seed(t, "Mate", 10, 5)

	resp, err := e.svc.Crear(ctx, slug, pedidoDe(item(p, 3)))
	require.NoError(t, err)
	assert.Equal(t, 2, e.stock(t, p.ID))

	id := uuid.MustParse(resp.ID)
	_, err = e.svc.CambiarEstado(ctx, slug, id, model.EstadoPagado)
	require.NoError(t, err)
	assert.Equal(t, 2, e.stock(t, p.ID))

	out, err := e.svc.CambiarEstado(ctx, slug, id, model.EstadoCancelado)
	require.NoError(t, err)
	assert.Equal(t, model.EstadoCancelado, out.Estado)
	assert.Equal(t, 5, e.stock(t, p.ID))

	_, err = e.svc.CambiarEstado(ctx, slug, id, model.EstadoCancelado)
	assert.Equal(t, apierror.CodeInvalidTransition, apierror.CodeOf(err))
	assert.Equal(t, 5, e.stock(t, p.ID))
}

// Two cancellations racing on the same order: the row lock lets only one of
// them restore stock.
func TestIntegration_CancelacionesConcurrentes(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.seed(t, "Mate", 10, 5)

	resp, err := e.svc.Crear(ctx, slug, pedidoDe(item(p, 3)))
	require.NoError(t, err)
	id := uuid.MustParse(resp.ID)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.svc.CambiarEstado(ctx, slug, id, model.EstadoCancelado)
		}(i)
	}
	wg.Wait()

	fallidos := 0
	for _, err := range errs {
		if err != nil {
			fallidos++
			assert.Equal(t, apierror.CodeInvalidTransition, apierror.CodeOf(err))
		}
	}
	assert.Equal(t, 1, fallidos)
	assert.Equal(t, 5, e.stock(t, p.ID))
}

// ── Categorías ────────────────────────────────────────────────────────────────

func TestIntegration_PullCategoria(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	cats := repository.NewCategoriaRepository(e.reg)

	mates := &model.Categoria{Nombre: "Mates", Slug: "mates"}
	regalos := &model.Categoria{Nombre: "Regalos", Slug: "regalos"}
	require.NoError(t, cats.Create(ctx, slug, mates))
	require.NoError(t, cats.Create(ctx, slug, regalos))

	ambos := &model.Producto{Nombre: "Mate", Precio: decimal.NewFromInt(10),
		Categorias: pq.StringArray{mates.ID.String(), regalos.ID.String()}}
	solo := &model.Producto{Nombre: "Yerba", Precio: decimal.NewFromInt(5),
		Categorias: pq.StringArray{regalos.ID.String()}}
	require.NoError(t, e.productos.Create(ctx, slug, ambos))
	require.NoError(t, e.productos.Create(ctx, slug, solo))

	svc := service.NewCategoriaService(cats, e.productos, cache.New(nil, 0))
	require.NoError(t, svc.Eliminar(ctx, slug, mates.ID))

	got, err := e.productos.FindByID(ctx, slug, ambos.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{regalos.ID.String()}, []string(got.Categorias))

	got, err = e.productos.FindByID(ctx, slug, solo.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{regalos.ID.String()}, []string(got.Categorias))

	n, err := e.productos.PullCategoria(ctx, slug, mates.ID)
	require.NoError(t, err)
	assert.Zero(t, n, "nothing left to pull")

	_, err = cats.FindByID(ctx, slug, mates.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

// ── Tiendas ───────────────────────────────────────────────────────────────────

func (e *env) usuario(t *testing.T, email string) *model.Usuario {
	t.Helper()
	u := &model.Usuario{Nombre: strings.Split(email, "@")[0], Email: email}
	require.NoError(t, e.usuarios.Create(context.Background(), u))
	return u
}

func TestIntegration_SlugUnico(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.usuario(t, "owner@example.com")
	otro := e.usuario(t, "otro@example.com")
	svc := service.NewTiendaService(e.tiendas, e.usuarios, e.reg, nil, cache.New(nil, 0))

	_, err := svc.CrearTienda(ctx, owner.ID, dto.CrearTiendaRequest{Slug: "acme", StoreName: "Acme"})
	require.NoError(t, err)

	_, err = svc.CrearTienda(ctx, otro.ID, dto.CrearTiendaRequest{Slug: "ACME", StoreName: "Otra Acme"})
	require.Error(t, err)
	assert.Equal(t, apierror.CodeSlugInUse, apierror.CodeOf(err))

	// Past the pre-check, the unique index still rejects the row.
	err = e.tiendas.CreateWithOwner(ctx, &model.Tienda{
		Slug: "acme", DBName: tenancy.TenantDBName("acme"), StoreName: "Carrera", OwnerEmail: otro.Email, IsActive: true,
	}, otro.ID)
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	n, err := e.tiendas.CountBySlug(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	ms, err := e.tiendas.ListMemberships(ctx, otro.ID)
	require.NoError(t, err)
	assert.Empty(t, ms, "the failed insert leaves no membership behind")
}

func TestIntegration_EliminarTienda(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.usuario(t, "owner@example.com")
	admin := e.usuario(t, "admin@example.com")

	blobs, err := storage.NewLocalStore(t.TempDir(), "http://localhost/uploads")
	require.NoError(t, err)
	svc := service.NewTiendaService(e.tiendas, e.usuarios, e.reg, blobs, cache.New(nil, 0))

	creada, err := svc.CrearTienda(ctx, owner.ID, dto.CrearTiendaRequest{Slug: slug, StoreName: "Acme"})
	require.NoError(t, err)
	tiendaID := uuid.MustParse(creada.ID)
	require.NoError(t, e.tiendas.AddMember(ctx, &model.MiembroTienda{
		TiendaID: tiendaID, UsuarioID: admin.ID, Rol: model.RolAdmin,
	}))
	e.seed(t, "Mate", 10, 1)
	_, err = blobs.Put(ctx, slug+"/productos/mate.png", strings.NewReader("png"), "image/png")
	require.NoError(t, err)

	ms, err := e.tiendas.ListMemberships(ctx, admin.ID)
	require.NoError(t, err)
	require.Len(t, ms, 1)

	_, err = svc.EliminarTienda(ctx, admin.ID, slug)
	assert.Equal(t, apierror.CodeNotOwner, apierror.CodeOf(err))

	report, err := svc.EliminarTienda(ctx, owner.ID, slug)
	require.NoError(t, err)
	assert.Empty(t, report.PasosFallidos)

	for _, u := range []*model.Usuario{owner, admin} {
		ms, err := e.tiendas.ListMemberships(ctx, u.ID)
		require.NoError(t, err)
		assert.Empty(t, ms, u.Email)
	}
	_, err = e.tiendas.FindBySlug(ctx, slug)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	schemas, err := e.reg.ListTenantDatabases(ctx)
	require.NoError(t, err)
	assert.NotContains(t, schemas, "db_acme")

	keys, err := blobs.ListByPrefix(ctx, slug+"/")
	require.NoError(t, err)
	assert.Empty(t, keys)
}
