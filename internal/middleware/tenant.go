package middleware

import (
	"context"
	"strings"

	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/apierror"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/metrics"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/tenancy"

	"github.com/gin-gonic/gin"
)

const (
	TenantHeader = "x-tenant-id"
	TenantKey    = "tenant"
)

// TenantChecker reports whether a shop with the slug exists.
type TenantChecker func(ctx context.Context, slug string) (bool, error)

// Tenant resolves the tenant of the request from the x-tenant-id header.
// A missing header is a client error, never a default tenant. When exists is
// set, slugs of unknown shops are rejected before any tenant schema is touched.
func Tenant(exists TenantChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		slug := strings.ToLower(strings.TrimSpace(c.GetHeader(TenantHeader)))
		if slug == "" {
			metrics.TenantMissingTotal.Inc()
			abortWith(c, apierror.Validation(apierror.CodeTenantRequired, "Falta el header %s", TenantHeader))
			return
		}
		if !tenancy.ValidSlug(slug) {
			abortWith(c, apierror.Validation(apierror.CodeInvalidInput, "Tenant invalido: %q", slug))
			return
		}
		if exists != nil {
			ok, err := exists(c.Request.Context(), slug)
			if err != nil {
				abortWith(c, err)
				return
			}
			if !ok {
				abortWith(c, apierror.NotFound(apierror.CodeShopNotFound, "tienda %q no encontrada", slug))
				return
			}
		}
		c.Set(TenantKey, slug)
		c.Next()
	}
}

// ActiveTenant runs after Tenant on storefront routes: shops that exist but
// are disabled answer as not found, the same as their public profile. Admin
// routes skip it so owners can keep managing a paused shop.
func ActiveTenant(active TenantChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if active == nil {
			c.Next()
			return
		}
		slug := TenantSlug(c)
		ok, err := active(c.Request.Context(), slug)
		if err != nil {
			abortWith(c, err)
			return
		}
		if !ok {
			abortWith(c, apierror.NotFound(apierror.CodeShopNotFound, "tienda %q no encontrada", slug))
			return
		}
		c.Next()
	}
}

// TenantSlug returns the slug resolved by Tenant.
func TenantSlug(c *gin.Context) string {
	return c.GetString(TenantKey)
}
