package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/apierror"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	ClaimsKey = "claims"
	RolKey    = "rol_tienda"
)

// JWTAuth validates the Bearer token on every protected route.
func JWTAuth(creds *auth.Credentials) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			abortWith(c, apierror.Unauthorized(apierror.CodeInvalidCredentials, "Autenticacion requerida"))
			return
		}

		claims, err := creds.VerifyToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			abortWith(c, apierror.Unauthorized(apierror.CodeInvalidCredentials, "Token invalido o expirado"))
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// GetClaims is a helper to retrieve typed claims from the Gin context.
func GetClaims(c *gin.Context) *auth.Claims {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}

// UserID returns the authenticated user, or uuid.Nil on public routes.
func UserID(c *gin.Context) uuid.UUID {
	if claims := GetClaims(c); claims != nil {
		return claims.UserUUID()
	}
	return uuid.Nil
}

// ── Shop roles ────────────────────────────────────────────────────────────────

// RoleResolver answers which role a user holds in a shop.
type RoleResolver interface {
	RolEn(ctx context.Context, slug string, usuarioID uuid.UUID) (string, error)
}

// RequireTenantRole rejects requests whose user has none of roles in the
// tenant named by the x-tenant-id header. Runs after JWTAuth and Tenant.
func RequireTenantRole(resolver RoleResolver, roles ...string) gin.HandlerFunc {
	return requireRole(resolver, TenantSlug, roles)
}

// RequireShopRole is RequireTenantRole for platform routes that carry the
// shop slug as a path parameter.
func RequireShopRole(resolver RoleResolver, param string, roles ...string) gin.HandlerFunc {
	return requireRole(resolver, func(c *gin.Context) string {
		return strings.ToLower(c.Param(param))
	}, roles)
}

func requireRole(resolver RoleResolver, slugOf func(*gin.Context) string, roles []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		userID := UserID(c)
		if userID == uuid.Nil {
			abortWith(c, apierror.Unauthorized(apierror.CodeInvalidCredentials, "Autenticacion requerida"))
			return
		}
		rol, err := resolver.RolEn(c.Request.Context(), slugOf(c), userID)
		if err != nil {
			abortWith(c, err)
			return
		}
		if len(allowed) > 0 && !allowed[rol] {
			abortWith(c, apierror.Forbidden(apierror.CodeNotOwner, "Permisos insuficientes"))
			return
		}
		c.Set(RolKey, rol)
		c.Next()
	}
}

// abortWith writes a domain error as JSON; anything else becomes a safe 500.
func abortWith(c *gin.Context, err error) {
	e, ok := apierror.As(err)
	if !ok {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.New("Error interno del servidor"))
		return
	}
	c.AbortWithStatusJSON(apierror.Status(err), &apierror.APIError{Detail: e.Detail, Code: e.Code})
}
