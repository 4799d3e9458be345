// Package tenancy routes every data operation to the right tenant namespace.
//
// One physical PostgreSQL pool is opened at startup. Each tenant gets a
// logical connection (*Conn) scoped to its own schema, "db_<slug>", and the
// platform metadata lives in the reserved "platform_meta" schema. Logical
// connections are cached by name and every model binding is cached per
// connection, so the same (connection, model) pair always resolves to the
// same *Model.
package tenancy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sync"

	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/infra"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/metrics"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

const (
	// TenantDBPrefix is prepended to a tenant slug to obtain its database name.
	TenantDBPrefix = "db_"
	// MetadataDBName holds users, shops and memberships.
	MetadataDBName = "platform_meta"
)

var (
	slugPattern   = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	dbNamePattern = regexp.MustCompile(`^[a-z0-9_-]{1,63}$`)

	// ErrInvalidDBName is returned when a database name cannot be used as a schema identifier.
	ErrInvalidDBName = errors.New("tenancy: invalid database name")
)

// ValidSlug reports whether slug can identify a tenant.
func ValidSlug(slug string) bool {
	return len(slug) >= 2 && len(slug) <= 48 && slugPattern.MatchString(slug)
}

// TenantDBName derives the physical database name of a tenant.
func TenantDBName(slug string) string { return TenantDBPrefix + slug }

// Registry owns the physical pool and the cache of logical connections.
type Registry struct {
	pool    *sql.DB
	migrate bool

	mu    sync.Mutex
	conns map[string]*Conn
}

// Option customizes a Registry.
type Option func(*Registry)

// WithoutMigrations disables schema creation and AutoMigrate when a model is
// first bound. Model compilation then only parses the Go struct.
func WithoutMigrations() Option {
	return func(r *Registry) { r.migrate = false }
}

// NewRegistry builds a registry over an already opened pool.
func NewRegistry(pool *sql.DB, opts ...Option) *Registry {
	r := &Registry{
		pool:    pool,
		migrate: true,
		conns:   make(map[string]*Conn),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Open establishes the single physical connection and returns a ready registry.
func Open(uri string, opts ...Option) (*Registry, error) {
	pool, err := infra.NewPool(uri, infra.PoolConfig{})
	if err != nil {
		return nil, err
	}
	return NewRegistry(pool, opts...), nil
}

func (r *Registry) mustBeInitialized() {
	if r == nil || r.pool == nil || r.conns == nil {
		panic("tenancy: registry used before initialization")
	}
}

// ConnectionFor returns the logical connection for dbName, deriving it from the
// physical pool on first use. Repeated calls return the identical *Conn.
func (r *Registry) ConnectionFor(dbName string) *Conn {
	r.mustBeInitialized()

	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.conns[dbName]; ok {
		return c
	}
	c := r.newConn(dbName)
	r.conns[dbName] = c
	metrics.TenantConnections.Set(float64(len(r.conns)))
	return c
}

// ConnectionForTenant is ConnectionFor(TenantDBName(slug)).
func (r *Registry) ConnectionForTenant(slug string) *Conn {
	return r.ConnectionFor(TenantDBName(slug))
}

// MetadataConnection returns the platform metadata connection.
func (r *Registry) MetadataConnection() *Conn {
	return r.ConnectionFor(MetadataDBName)
}

// newConn must be called with r.mu held.
func (r *Registry) newConn(dbName string) *Conn {
	// Each logical connection gets its own gorm instance (and therefore its own
	// schema cache) on top of the shared pool. A shared schema cache would
	// resolve a model to the table of whichever tenant parsed it first.
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: r.pool}), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   dbName + ".",
			SingularTable: true,
		},
		Logger:               logger.Default.LogMode(logger.Silent),
		DisableAutomaticPing: true,
		TranslateError:       true,
	})
	if err != nil {
		// gorm.Open over an existing pool performs no I/O; failing here means
		// the dialector itself is broken.
		panic(fmt.Sprintf("tenancy: derive connection %s: %v", dbName, err))
	}
	return &Conn{
		name:     dbName,
		db:       db,
		registry: r,
		models:   make(map[string]any),
	}
}

// DropDatabase removes a logical database with everything in it and evicts its
// cached connection, so the next ConnectionFor derives a fresh one.
func (r *Registry) DropDatabase(ctx context.Context, dbName string) error {
	r.mustBeInitialized()
	if !dbNamePattern.MatchString(dbName) || dbName == MetadataDBName {
		return fmt.Errorf("%w: %q", ErrInvalidDBName, dbName)
	}

	stmt := fmt.Sprintf(`DROP SCHEMA IF EXISTS "%s" CASCADE`, dbName)
	if _, err := r.pool.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("tenancy: drop %s: %w", dbName, err)
	}

	r.mu.Lock()
	delete(r.conns, dbName)
	metrics.TenantConnections.Set(float64(len(r.conns)))
	r.mu.Unlock()

	log.Info().Str("db", dbName).Msg("tenant database dropped")
	return nil
}

// ListTenantDatabases lists every tenant schema present in the cluster.
func (r *Registry) ListTenantDatabases(ctx context.Context) ([]string, error) {
	r.mustBeInitialized()
	rows, err := r.pool.QueryContext(ctx,
		`SELECT schema_name FROM information_schema.schemata WHERE schema_name LIKE 'db\_%' ORDER BY schema_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// Ping checks the physical pool.
func (r *Registry) Ping(ctx context.Context) error {
	r.mustBeInitialized()
	return r.pool.PingContext(ctx)
}

// Close releases the physical pool.
func (r *Registry) Close() error {
	if r == nil || r.pool == nil {
		return nil
	}
	return r.pool.Close()
}
