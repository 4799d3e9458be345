package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/cache"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/config"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/infra"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/repository"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/tenancy"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
)

const (
	slugFlag    = "slug"
	confirmFlag = "confirm"
)

var dropFlags = map[string]cobraflags.Flag{
	slugFlag: &cobraflags.StringFlag{
		Name:  slugFlag,
		Value: "",
		Usage: "Slug of the tenant whose schema is dropped (required)",
	},
	confirmFlag: &cobraflags.StringFlag{
		Name:  confirmFlag,
		Value: "",
		Usage: "Repeat the slug to confirm the drop",
	},
}

func newTenantsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenants",
		Short: "Inspect and clean up tenant schemas",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List shops and tenant schemas, flagging orphans on either side",
		RunE:  listTenants,
	}

	drop := &cobra.Command{
		Use:   "drop",
		Short: "Drop a tenant schema and its cache keys",
		Long: `Drop a tenant schema (db_<slug>) with everything in it and remove the
tenant's cache keys. The shop row and memberships are not touched: use it to
clean schemas left behind by a failed shop deletion.

Example:
  tiendactl tenants drop --slug acme --confirm acme`,
		RunE: dropTenant,
	}
	cobraflags.RegisterMap(drop, dropFlags)

	cmd.AddCommand(list, drop)
	return cmd
}

func openRegistry(cfg *config.Config) (*tenancy.Registry, error) {
	pool, err := infra.NewPool(cfg.DatabaseURL, infra.PoolConfig{MaxOpenConns: 2, MaxIdleConns: 1})
	if err != nil {
		return nil, err
	}
	return tenancy.NewRegistry(pool, tenancy.WithoutMigrations()), nil
}

func listTenants(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	reg, err := openRegistry(cfg)
	if err != nil {
		return err
	}
	defer reg.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	schemas, err := reg.ListTenantDatabases(ctx)
	if err != nil {
		return fmt.Errorf("list schemas: %w", err)
	}
	tiendas, err := repository.NewTiendaRepository(reg).ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list shops: %w", err)
	}

	present := make(map[string]bool, len(schemas))
	for _, s := range schemas {
		present[s] = true
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SLUG\tSCHEMA\tACTIVE\tSTATUS")
	for _, t := range tiendas {
		status := "ok"
		if !present[t.DBName] {
			// Schemas are created on first use, so this is normal for new shops.
			status = "not provisioned"
		}
		delete(present, t.DBName)
		fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", t.Slug, t.DBName, t.IsActive, status)
	}
	for _, s := range schemas {
		if present[s] {
			fmt.Fprintf(w, "%s\t%s\t-\torphan schema\n", strings.TrimPrefix(s, tenancy.TenantDBPrefix), s)
		}
	}
	return w.Flush()
}

func dropTenant(cmd *cobra.Command, _ []string) error {
	slug := strings.ToLower(dropFlags[slugFlag].GetString())
	if !tenancy.ValidSlug(slug) {
		return fmt.Errorf("invalid or missing --%s %q", slugFlag, slug)
	}
	if dropFlags[confirmFlag].GetString() != slug {
		return fmt.Errorf("refusing to drop %s: pass --%s %s", tenancy.TenantDBName(slug), confirmFlag, slug)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	reg, err := openRegistry(cfg)
	if err != nil {
		return err
	}
	defer reg.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	if err := reg.DropDatabase(ctx, tenancy.TenantDBName(slug)); err != nil {
		return err
	}

	if client, err := infra.NewRedis(cfg.RedisURL); err == nil {
		defer client.Close()
		cache.New(client, 0).DeleteByPattern(ctx, cache.TenantPattern(slug))
	} else {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: cache keys of %s not removed: %v\n", slug, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "dropped %s\n", tenancy.TenantDBName(slug))
	return nil
}
