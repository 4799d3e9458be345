package router

import (
	"context"
	"errors"
	"time"

	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/auth"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/cache"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/config"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/handler"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/middleware"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/model"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/repository"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/service"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/storage"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/tenancy"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the infrastructure pieces built by the composition root.
type Deps struct {
	Registry   *tenancy.Registry
	Cache      *cache.Cache
	Blobs      *storage.LocalStore
	Creds      *auth.Credentials
	Dispatcher *worker.Dispatcher
}

// Services groups the domain services so tests can build the engine over stubs.
type Services struct {
	Auth          service.AuthService
	Tiendas       service.TiendaService
	Productos     service.ProductoService
	Categorias    service.CategoriaService
	Configuracion service.ConfiguracionService
	Pedidos       service.PedidoService
}

// NewServices wires repositories and services over the tenancy registry.
// Dependency graph: Service ← Repository ← Registry (one pool, one schema per tenant)
func NewServices(d Deps) (Services, repository.TiendaRepository) {
	usuarioRepo := repository.NewUsuarioRepository(d.Registry)
	tiendaRepo := repository.NewTiendaRepository(d.Registry)
	productoRepo := repository.NewProductoRepository(d.Registry)
	categoriaRepo := repository.NewCategoriaRepository(d.Registry)
	configRepo := repository.NewConfiguracionRepository(d.Registry)
	pedidoRepo := repository.NewPedidoRepository(d.Registry)

	return Services{
		Auth:          service.NewAuthService(usuarioRepo, tiendaRepo, d.Creds),
		Tiendas:       service.NewTiendaService(tiendaRepo, usuarioRepo, d.Registry, d.Blobs, d.Cache),
		Productos:     service.NewProductoService(productoRepo, categoriaRepo, d.Cache, d.Blobs),
		Categorias:    service.NewCategoriaService(categoriaRepo, productoRepo, d.Cache),
		Configuracion: service.NewConfiguracionService(configRepo, d.Cache),
		Pedidos:       service.NewPedidoService(pedidoRepo, productoRepo, tiendaRepo, d.Cache, d.Dispatcher),
	}, tiendaRepo
}

// Options tune the engine; zero values disable the optional pieces.
type Options struct {
	Health       gin.HandlerFunc
	TenantExists middleware.TenantChecker
	TenantActive middleware.TenantChecker
	UploadsDir   string
}

// New returns a configured Gin engine.
func New(cfg *config.Config, creds *auth.Credentials, svcs Services, opts Options) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.AllowedOrigins()))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP
	r.MaxMultipartMemory = 8 << 20

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(svcs.Auth)
	tiendasH := handler.NewTiendasHandler(svcs.Tiendas)
	productosH := handler.NewProductosHandler(svcs.Productos)
	categoriasH := handler.NewCategoriasHandler(svcs.Categorias)
	configH := handler.NewConfiguracionHandler(svcs.Configuracion)
	pedidosH := handler.NewPedidosHandler(svcs.Pedidos)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	if opts.Health != nil {
		r.GET("/health", opts.Health)
	}
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if opts.UploadsDir != "" {
		r.Static("/uploads", opts.UploadsDir)
	}

	jwtMW := middleware.JWTAuth(creds)
	miembro := []string{model.RolOwner, model.RolAdmin}

	// Auth
	authG := r.Group("/v1/auth")
	{
		authG.POST("/register", authH.Registro)
		authG.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		authG.GET("/me", jwtMW, authH.Perfil)
	}

	// Platform: shops and membership. The shop comes from the path, not the header.
	tiendas := r.Group("/v1/tiendas")
	{
		tiendas.GET("", tiendasH.Listar)
		tiendas.GET("/:slug", tiendasH.Obtener)

		tiendas.POST("", jwtMW, tiendasH.Crear)
		tiendas.GET("/mias", jwtMW, tiendasH.Mias)

		shopMember := middleware.RequireShopRole(svcs.Tiendas, "slug", miembro...)
		tiendas.GET("/:slug/detalle", jwtMW, shopMember, tiendasH.Detalle)
		tiendas.GET("/:slug/miembros", jwtMW, shopMember, tiendasH.ListarMiembros)
		// Membership and ownership rules for writes are enforced by the service.
		tiendas.PUT("/:slug", jwtMW, tiendasH.Actualizar)
		tiendas.POST("/:slug/imagen", jwtMW, tiendasH.SubirImagen)
		tiendas.DELETE("/:slug", jwtMW, tiendasH.Eliminar)
		tiendas.POST("/:slug/miembros", jwtMW, tiendasH.AgregarMiembro)
		tiendas.DELETE("/:slug/miembros/:usuario_id", jwtMW, tiendasH.QuitarMiembro)
	}

	// Tenant scoped: x-tenant-id header on every route.
	v1 := r.Group("/v1", middleware.Tenant(opts.TenantExists))
	admin := []gin.HandlerFunc{jwtMW, middleware.RequireTenantRole(svcs.Tiendas, miembro...)}
	activa := middleware.ActiveTenant(opts.TenantActive)
	{
		// Storefront (public, active shops only)
		v1.GET("/productos", activa, productosH.Listar)
		v1.GET("/productos/:id", activa, productosH.ObtenerPorID)
		v1.GET("/categorias", activa, categoriasH.Listar)
		v1.GET("/configuracion/publica", activa, configH.ListarPublicas)
		v1.POST("/pedidos", activa, pedidosH.Crear)

		// Shop admin (owner or admin of the tenant)
		prods := v1.Group("/productos", admin...)
		{
			prods.POST("", productosH.Crear)
			prods.PUT("/:id", productosH.Actualizar)
			prods.DELETE("/:id", productosH.Eliminar)
			prods.POST("/:id/imagen", productosH.SubirImagen)
		}

		cats := v1.Group("/categorias", admin...)
		{
			cats.POST("", categoriasH.Crear)
			cats.PUT("/:id", categoriasH.Actualizar)
			cats.DELETE("/:id", categoriasH.Eliminar)
		}

		conf := v1.Group("/configuracion", admin...)
		{
			conf.GET("", configH.Listar)
			conf.GET("/:clave", configH.Obtener)
			conf.PUT("/:clave", configH.Upsert)
			conf.DELETE("/:clave", configH.Eliminar)
		}

		peds := v1.Group("/pedidos", admin...)
		{
			peds.GET("", pedidosH.Listar)
			peds.GET("/:id", pedidosH.ObtenerPorID)
			peds.PATCH("/:id/estado", pedidosH.CambiarEstado)
			peds.GET("/:id/comprobante", pedidosH.Comprobante)
		}
	}

	// Swagger UI, only enabled outside production
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}

// TenantActive reports whether the shop exists and is enabled.
func TenantActive(repo repository.TiendaRepository) middleware.TenantChecker {
	return func(ctx context.Context, slug string) (bool, error) {
		t, err := repo.FindBySlug(ctx, slug)
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return t.IsActive, nil
	}
}

// TenantExists adapts the shop repository to middleware.TenantChecker.
func TenantExists(repo repository.TiendaRepository) middleware.TenantChecker {
	return func(ctx context.Context, slug string) (bool, error) {
		n, err := repo.CountBySlug(ctx, slug)
		return n > 0, err
	}
}
