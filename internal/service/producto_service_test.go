package service_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/apierror"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/cache"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/dto"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/model"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/service"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type productoFixture struct {
	svc        service.ProductoService
	productos  *stubProductoRepo
	categorias *stubCategoriaRepo
	blobs      *stubBlobStore
}

func buildProductoSvc(c *cache.Cache) productoFixture {
	f := productoFixture{
		productos:  newStubProductoRepo(),
		categorias: newStubCategoriaRepo(),
		blobs:      newStubBlobStore(),
	}
	f.svc = service.NewProductoService(f.productos, f.categorias, c, f.blobs)
	return f
}

// cacheCaido points at a port nobody listens on.
func cacheCaido(t *testing.T) *cache.Cache {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })
	return cache.New(rdb, time.Minute)
}

func TestProducto_CacheCaidoLeeDelStore(t *testing.T) {
	f := buildProductoSvc(cacheCaido(t))
	p := f.productos.seed(tenantSlug, "Mate", 10, 3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		got, err := f.svc.ObtenerPorID(ctx, tenantSlug, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "Mate", got.Nombre)

		list, err := f.svc.Listar(ctx, tenantSlug, dto.ProductoFilter{})
		require.NoError(t, err)
		require.Len(t, list.Data, 1)
	}
	assert.Equal(t, 5, f.productos.listCalls)

	created, err := f.svc.Crear(ctx, tenantSlug, dto.CrearProductoRequest{Nombre: "Termo", Precio: decimal.NewFromInt(50)})
	require.NoError(t, err)
	assert.Equal(t, "Termo", created.Nombre)
}

func TestProducto_SinCache(t *testing.T) {
	f := buildProductoSvc(nil)
	p := f.productos.seed(tenantSlug, "Mate", 10, 3)

	got, err := f.svc.ObtenerPorID(context.Background(), tenantSlug, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Precio.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, []string{}, got.Categorias)

	_, err = f.svc.ObtenerPorID(context.Background(), tenantSlug, uuid.New())
	assert.Equal(t, apierror.CodeProductNotFound, apierror.CodeOf(err))
}

func TestCrearProducto_NombreDuplicado(t *testing.T) {
	f := buildProductoSvc(nil)
	f.productos.seed(tenantSlug, "Mate", 10, 3)

	_, err := f.svc.Crear(context.Background(), tenantSlug, dto.CrearProductoRequest{Nombre: "Mate", Precio: decimal.NewFromInt(1)})
	assert.Equal(t, apierror.CodeDuplicateProduct, apierror.CodeOf(err))
	assert.Equal(t, apierror.KindBusiness, apierror.KindOf(err))

	// The unique index on nombre is case sensitive.
	_, err = f.svc.Crear(context.Background(), tenantSlug, dto.CrearProductoRequest{Nombre: "mate", Precio: decimal.NewFromInt(1)})
	assert.NoError(t, err)

	// Same name in another tenant is fine.
	_, err = f.svc.Crear(context.Background(), "globex", dto.CrearProductoRequest{Nombre: "Mate", Precio: decimal.NewFromInt(1)})
	assert.NoError(t, err)
}

func TestCrearProducto_Validaciones(t *testing.T) {
	f := buildProductoSvc(nil)
	neg := decimal.NewFromInt(-1)
	dos := decimal.NewFromInt(2)
	cinco := decimal.NewFromInt(5)

	cases := map[string]dto.CrearProductoRequest{
		"precio negativo":   {Nombre: "A", Precio: neg},
		"stock negativo":    {Nombre: "B", Stock: -1},
		"categoria ajena":   {Nombre: "C", Categorias: []string{uuid.NewString()}},
		"categoria no uuid": {Nombre: "D", Categorias: []string{"x"}},
		"porcentaje > 100":  {Nombre: "E", Promocion: &dto.PromocionRequest{Tipo: model.PromoPorcentaje, Valor: decimal.NewFromInt(150)}},
		"nxm sin m":         {Nombre: "F", Promocion: &dto.PromocionRequest{Tipo: model.PromoNxM, Valor: decimal.NewFromInt(3)}},
		"nxm m >= n":        {Nombre: "G", Promocion: &dto.PromocionRequest{Tipo: model.PromoNxM, Valor: dos, ValorSecundario: &cinco}},
		"tipo desconocido":  {Nombre: "H", Promocion: &dto.PromocionRequest{Tipo: "regalo", Valor: dos}},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Crear(context.Background(), tenantSlug, req)
			assert.Equal(t, apierror.KindValidation, apierror.KindOf(err))
		})
	}
}

func TestCrearProducto_ConCategoriasYPromocion(t *testing.T) {
	f := buildProductoSvc(nil)
	c := f.categorias.seed(tenantSlug, "Bebidas")
	dos := decimal.NewFromInt(2)

	resp, err := f.svc.Crear(context.Background(), tenantSlug, dto.CrearProductoRequest{
		Nombre:     "Agua",
		Precio:     decimal.NewFromInt(3),
		Stock:      10,
		Categorias: []string{c.ID.String(), c.ID.String()},
		Promocion:  &dto.PromocionRequest{Tipo: model.PromoNxM, Valor: decimal.NewFromInt(3), ValorSecundario: &dos, Activa: true},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID.String()}, resp.Categorias)
	require.NotNil(t, resp.Promocion)
	assert.Equal(t, model.PromoNxM, resp.Promocion.Tipo)
	assert.True(t, resp.Promocion.ValorSecundario.Equal(dos))
}

func TestActualizarProducto(t *testing.T) {
	f := buildProductoSvc(nil)
	p := f.productos.seed(tenantSlug, "Mate", 10, 3)
	f.productos.seed(tenantSlug, "Termo", 10, 3)
	ctx := context.Background()

	precio := decimal.NewFromInt(12)
	resp, err := f.svc.Actualizar(ctx, tenantSlug, p.ID, dto.ActualizarProductoRequest{Precio: &precio})
	require.NoError(t, err)
	assert.True(t, resp.Precio.Equal(precio))

	nombre := "termo"
	_, err = f.svc.Actualizar(ctx, tenantSlug, p.ID, dto.ActualizarProductoRequest{Nombre: &nombre})
	assert.Equal(t, apierror.CodeDuplicateProduct, apierror.CodeOf(err))

	mismo := "MATE"
	_, err = f.svc.Actualizar(ctx, tenantSlug, p.ID, dto.ActualizarProductoRequest{Nombre: &mismo})
	assert.NoError(t, err)

	_, err = f.svc.Actualizar(ctx, tenantSlug, uuid.New(), dto.ActualizarProductoRequest{Precio: &precio})
	assert.Equal(t, apierror.CodeProductNotFound, apierror.CodeOf(err))

	resp, err = f.svc.Actualizar(ctx, tenantSlug, p.ID, dto.ActualizarProductoRequest{QuitarPromocion: true})
	require.NoError(t, err)
	assert.Nil(t, resp.Promocion)
}

func TestSubirImagenYEliminarProducto(t *testing.T) {
	f := buildProductoSvc(nil)
	p := f.productos.seed(tenantSlug, "Mate", 10, 3)
	ctx := context.Background()

	img := service.Archivo{Nombre: "mate.png", ContentType: "image/png", Size: 4, Contenido: bytes.NewReader([]byte("\x89PNG"))}
	resp, err := f.svc.SubirImagen(ctx, tenantSlug, p.ID, img)
	require.NoError(t, err)
	require.NotNil(t, resp.ImageURL)
	require.Len(t, f.blobs.keys(), 1)
	assert.Contains(t, f.blobs.keys()[0], tenantSlug+"/productos/")

	// Replacing the image removes the previous blob.
	img.Contenido = bytes.NewReader([]byte("\x89PNG"))
	_, err = f.svc.SubirImagen(ctx, tenantSlug, p.ID, img)
	require.NoError(t, err)
	assert.Len(t, f.blobs.keys(), 1)

	require.NoError(t, f.svc.Eliminar(ctx, tenantSlug, p.ID))
	assert.Empty(t, f.blobs.keys())
	assert.Equal(t, apierror.CodeProductNotFound, apierror.CodeOf(f.svc.Eliminar(ctx, tenantSlug, p.ID)))
}

func TestSubirImagen_FormatoInvalido(t *testing.T) {
	f := buildProductoSvc(nil)
	p := f.productos.seed(tenantSlug, "Mate", 10, 3)

	_, err := f.svc.SubirImagen(context.Background(), tenantSlug, p.ID, service.Archivo{
		Nombre: "x.exe", ContentType: "application/octet-stream", Size: 10, Contenido: bytes.NewReader(nil),
	})
	assert.Equal(t, apierror.KindValidation, apierror.KindOf(err))
	assert.Empty(t, f.blobs.keys())
}

func TestListarProductos_Filtros(t *testing.T) {
	f := buildProductoSvc(nil)
	c := f.categorias.seed(tenantSlug, "Bebidas")
	agua := f.productos.seed(tenantSlug, "Agua", 1, 1)
	agua.Categorias = []string{c.ID.String()}
	f.productos.seed(tenantSlug, "Mate", 1, 1)

	list, err := f.svc.Listar(context.Background(), tenantSlug, dto.ProductoFilter{Categoria: c.ID.String()})
	require.NoError(t, err)
	require.Len(t, list.Data, 1)
	assert.Equal(t, "Agua", list.Data[0].Nombre)
	assert.Equal(t, 1, list.Page)
	assert.Equal(t, 20, list.Limit)

	list, err = f.svc.Listar(context.Background(), tenantSlug, dto.ProductoFilter{Nombre: "at"})
	require.NoError(t, err)
	require.Len(t, list.Data, 1)
	assert.Equal(t, "Mate", list.Data[0].Nombre)

	_, err = f.svc.Listar(context.Background(), tenantSlug, dto.ProductoFilter{Categoria: "nope"})
	assert.Equal(t, apierror.KindValidation, apierror.KindOf(err))
}
