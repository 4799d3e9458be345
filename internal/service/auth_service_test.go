package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/apierror"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/auth"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/dto"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func buildAuthSvc() (service.AuthService, *stubUsuarioRepo, *stubTiendaRepo, *auth.Credentials) {
	usuarios := newStubUsuarioRepo()
	tiendas := newStubTiendaRepo()
	creds := auth.NewCredentials("test-secret", time.Hour, bcrypt.MinCost)
	return service.NewAuthService(usuarios, tiendas, creds), usuarios, tiendas, creds
}

func TestRegistrarYLogin(t *testing.T) {
	svc, _, _, creds := buildAuthSvc()
	ctx := context.Background()

	u, err := svc.Registrar(ctx, dto.RegistroRequest{Nombre: "Ana", Email: " Ana@Example.com ", Password: "secreto123"})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.Empty(t, u.TiendasAsociadas)

	resp, err := svc.Login(ctx, dto.LoginRequest{Email: "ana@example.com", Password: "secreto123"})
	require.NoError(t, err)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, 3600, resp.ExpiresIn)

	claims, err := creds.VerifyToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, "ana@example.com", claims.Email)
}

func TestRegistrar_EmailEnUso(t *testing.T) {
	svc, usuarios, _, _ := buildAuthSvc()
	usuarios.seed("Ana", "ana@example.com", nil)

	_, err := svc.Registrar(context.Background(), dto.RegistroRequest{Nombre: "Otra", Email: "ANA@example.com", Password: "secreto123"})
	assert.Equal(t, apierror.CodeEmailInUse, apierror.CodeOf(err))
}

func TestLogin_CredencialesInvalidas(t *testing.T) {
	svc, usuarios, _, _ := buildAuthSvc()
	ctx := context.Background()
	_, err := svc.Registrar(ctx, dto.RegistroRequest{Nombre: "Ana", Email: "ana@example.com", Password: "secreto123"})
	require.NoError(t, err)
	usuarios.seed("Gabi", "gabi@example.com", nil) // external sign-in, no password

	for _, req := range []dto.LoginRequest{
		{Email: "ana@example.com", Password: "otra-cosa"},
		{Email: "nadie@example.com", Password: "secreto123"},
		{Email: "gabi@example.com", Password: "secreto123"},
	} {
		_, err := svc.Login(ctx, req)
		assert.Equal(t, apierror.CodeInvalidCredentials, apierror.CodeOf(err), req.Email)
		assert.Equal(t, apierror.KindUnauthorized, apierror.KindOf(err))
	}
}

func TestPerfil_TiendasDerivadasDeMembresias(t *testing.T) {
	svc, usuarios, tiendas, _ := buildAuthSvc()
	ctx := context.Background()
	u := usuarios.seed("Ana", "ana@example.com", nil)
	tiendaSvc := service.NewTiendaService(tiendas, usuarios, &stubDropper{}, newStubBlobStore(), nil)
	_, err := tiendaSvc.CrearTienda(ctx, u.ID, dto.CrearTiendaRequest{Slug: "acme", StoreName: "Acme"})
	require.NoError(t, err)

	perfil, err := svc.Perfil(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, perfil.TiendasAsociadas, 1)
	assert.Equal(t, "acme", perfil.TiendasAsociadas[0].Slug)
	assert.Equal(t, "owner", perfil.TiendasAsociadas[0].Rol)

	_, err = svc.Perfil(ctx, uuid.New())
	assert.Equal(t, apierror.CodeUserNotFound, apierror.CodeOf(err))
}
