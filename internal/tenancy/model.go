package tenancy

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

// ErrNoDocument is returned when a filter matches nothing.
var ErrNoDocument = errors.New("tenancy: no document matches the filter")

// Filter selects rows by column equality.
type Filter map[string]any

// Patch is a set of column assignments; values may be gorm.Expr.
type Patch map[string]any

// Conn is a logical connection: a gorm handle scoped to one database name and
// multiplexed over the registry's physical pool.
type Conn struct {
	name     string
	db       *gorm.DB
	registry *Registry

	mu          sync.Mutex
	provisioned bool
	models      map[string]any
	schemas     sync.Map
}

// Name returns the database name this connection is scoped to.
func (c *Conn) Name() string { return c.name }

// DB exposes the scoped gorm handle.
func (c *Conn) DB(ctx context.Context) *gorm.DB { return c.db.WithContext(ctx) }

// Transaction runs fn inside a single transaction on this connection.
func (c *Conn) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return c.db.WithContext(ctx).Transaction(fn)
}

// provision creates the schema backing this connection. Must be called with c.mu held.
func (c *Conn) provision() error {
	if c.provisioned {
		return nil
	}
	if !dbNamePattern.MatchString(c.name) {
		return fmt.Errorf("%w: %q", ErrInvalidDBName, c.name)
	}
	if err := c.db.Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, c.name)).Error; err != nil {
		return fmt.Errorf("tenancy: create schema %s: %w", c.name, err)
	}
	c.provisioned = true
	return nil
}

// Model is a compiled binding of the Go type T to a table on one connection.
type Model[T any] struct {
	conn   *Conn
	name   string
	schema *schema.Schema
	tx     *gorm.DB
}

// ModelFor returns the binding for (conn, name), compiling it on first use.
// Compiling parses T and, unless the registry disables migrations, creates the
// connection's schema and table. The first call mutates the connection's
// model table; later calls only read it.
func ModelFor[T any](conn *Conn, name string) (*Model[T], error) {
	conn.mu.Lock()
	defer conn.mu.Unlock()

	if existing, ok := conn.models[name]; ok {
		m, ok := existing.(*Model[T])
		if !ok {
			return nil, fmt.Errorf("tenancy: model %q on %s is bound to %T", name, conn.name, existing)
		}
		return m, nil
	}

	sch, err := schema.Parse(new(T), &conn.schemas, conn.db.NamingStrategy)
	if err != nil {
		return nil, fmt.Errorf("tenancy: compile %s on %s: %w", name, conn.name, err)
	}

	if conn.registry.migrate {
		if err := conn.provision(); err != nil {
			return nil, err
		}
		if err := conn.db.AutoMigrate(new(T)); err != nil {
			return nil, fmt.Errorf("tenancy: migrate %s on %s: %w", name, conn.name, err)
		}
	}

	m := &Model[T]{conn: conn, name: name, schema: sch}
	conn.models[name] = m
	return m, nil
}

// Name returns the model name.
func (m *Model[T]) Name() string { return m.name }

// Table returns the fully qualified table name.
func (m *Model[T]) Table() string { return m.schema.Table }

// Conn returns the connection this model is bound to.
func (m *Model[T]) Conn() *Conn { return m.conn }

// Tx returns a copy of the binding that runs inside tx. A nil tx returns m.
func (m *Model[T]) Tx(tx *gorm.DB) *Model[T] {
	if tx == nil {
		return m
	}
	cp := *m
	cp.tx = tx
	return &cp
}

// DB returns a gorm session for this model, transactional if bound to one.
func (m *Model[T]) DB(ctx context.Context) *gorm.DB {
	db := m.conn.db
	if m.tx != nil {
		db = m.tx
	}
	return db.WithContext(ctx)
}

// QueryOption refines a query beyond column equality.
type QueryOption func(*gorm.DB) *gorm.DB

// Where adds a raw condition.
func Where(query string, args ...any) QueryOption {
	return func(db *gorm.DB) *gorm.DB { return db.Where(query, args...) }
}

// OrderBy sets the ordering.
func OrderBy(order string) QueryOption {
	return func(db *gorm.DB) *gorm.DB { return db.Order(order) }
}

// ForUpdate locks the selected rows until the surrounding transaction ends.
func ForUpdate() QueryOption {
	return func(db *gorm.DB) *gorm.DB { return db.Clauses(clause.Locking{Strength: "UPDATE"}) }
}

// Page limits the result set to one page; page is 1-based.
func Page(page, limit int) QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		if page < 1 {
			page = 1
		}
		return db.Limit(limit).Offset((page - 1) * limit)
	}
}

func scoped(db *gorm.DB, f Filter, opts []QueryOption) *gorm.DB {
	if len(f) > 0 {
		db = db.Where(map[string]any(f))
	}
	for _, o := range opts {
		db = o(db)
	}
	return db
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNoDocument
	}
	return err
}

// Find returns every document matching filter.
func (m *Model[T]) Find(ctx context.Context, filter Filter, opts ...QueryOption) ([]T, error) {
	var out []T
	if err := scoped(m.DB(ctx), filter, opts).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// FindOne returns the first document matching filter or ErrNoDocument.
func (m *Model[T]) FindOne(ctx context.Context, filter Filter, opts ...QueryOption) (*T, error) {
	var out T
	if err := scoped(m.DB(ctx), filter, opts).Take(&out).Error; err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

// Count counts documents matching filter.
func (m *Model[T]) Count(ctx context.Context, filter Filter, opts ...QueryOption) (int64, error) {
	var n int64
	err := scoped(m.DB(ctx).Model(new(T)), filter, opts).Count(&n).Error
	return n, err
}

// Insert stores doc; database defaults (ids, timestamps) are written back into it.
func (m *Model[T]) Insert(ctx context.Context, doc *T) (*T, error) {
	if err := m.DB(ctx).Create(doc).Error; err != nil {
		return nil, err
	}
	return doc, nil
}

// UpdateOne applies patch to the first document matching filter and returns
// it as stored. With upsert, a missing document is created from filter+patch.
func (m *Model[T]) UpdateOne(ctx context.Context, filter Filter, patch Patch, upsert bool) (*T, error) {
	doc, err := m.FindOne(ctx, filter)
	switch {
	case errors.Is(err, ErrNoDocument) && upsert:
		created, cerr := m.insertFrom(ctx, filter, patch)
		if cerr == nil {
			return created, nil
		}
		if !errors.Is(cerr, gorm.ErrDuplicatedKey) {
			return nil, cerr
		}
		// Lost a race against a concurrent upsert: update what it inserted.
		if doc, err = m.FindOne(ctx, filter); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	}

	if err := m.DB(ctx).Model(doc).Updates(map[string]any(patch)).Error; err != nil {
		return nil, err
	}
	return m.reload(ctx, doc)
}

// DeleteOne removes the first document matching filter and returns it.
func (m *Model[T]) DeleteOne(ctx context.Context, filter Filter) (*T, error) {
	doc, err := m.FindOne(ctx, filter)
	if err != nil {
		return nil, err
	}
	if err := m.DB(ctx).Delete(doc).Error; err != nil {
		return nil, err
	}
	return doc, nil
}

// UpdateMany applies patch to every document matching filter and opts and
// returns how many were affected. At least one condition is required.
func (m *Model[T]) UpdateMany(ctx context.Context, filter Filter, patch Patch, opts ...QueryOption) (int64, error) {
	res := scoped(m.DB(ctx).Model(new(T)), filter, opts).Updates(map[string]any(patch))
	return res.RowsAffected, res.Error
}

// DeleteMany removes every document matching filter and opts.
func (m *Model[T]) DeleteMany(ctx context.Context, filter Filter, opts ...QueryOption) (int64, error) {
	res := scoped(m.DB(ctx), filter, opts).Delete(new(T))
	return res.RowsAffected, res.Error
}

func (m *Model[T]) insertFrom(ctx context.Context, filter Filter, patch Patch) (*T, error) {
	doc := new(T)
	rv := reflect.ValueOf(doc).Elem()
	for _, src := range []map[string]any{filter, patch} {
		for col, v := range src {
			field := m.schema.LookUpField(col)
			if field == nil {
				return nil, fmt.Errorf("tenancy: %s has no field %q", m.name, col)
			}
			if err := field.Set(ctx, rv, v); err != nil {
				return nil, fmt.Errorf("tenancy: set %s.%s: %w", m.name, col, err)
			}
		}
	}
	return m.Insert(ctx, doc)
}

func (m *Model[T]) reload(ctx context.Context, doc *T) (*T, error) {
	pk := m.schema.PrioritizedPrimaryField
	if pk == nil {
		return doc, nil
	}
	id, zero := pk.ValueOf(ctx, reflect.ValueOf(doc).Elem())
	if zero {
		return doc, nil
	}
	return m.FindOne(ctx, Filter{pk.DBName: id})
}
