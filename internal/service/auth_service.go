package service

import (
	"context"
	"errors"
	"strings"

	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/apierror"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/auth"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/dto"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/model"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type AuthService interface {
	Registrar(ctx context.Context, req dto.RegistroRequest) (*dto.UsuarioResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Perfil(ctx context.Context, usuarioID uuid.UUID) (*dto.UsuarioResponse, error)
}

type authService struct {
	usuarios repository.UsuarioRepository
	tiendas  repository.TiendaRepository
	creds    *auth.Credentials
}

func NewAuthService(usuarios repository.UsuarioRepository, tiendas repository.TiendaRepository, creds *auth.Credentials) AuthService {
	return &authService{usuarios: usuarios, tiendas: tiendas, creds: creds}
}

func normalizarEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func credencialesInvalidas() error {
	return apierror.Unauthorized(apierror.CodeInvalidCredentials, "credenciales invalidas")
}

func (s *authService) Registrar(ctx context.Context, req dto.RegistroRequest) (*dto.UsuarioResponse, error) {
	email := normalizarEmail(req.Email)
	nombre := strings.TrimSpace(req.Nombre)
	if email == "" || nombre == "" || len(req.Password) < 8 {
		return nil, apierror.Validation(apierror.CodeInvalidInput, "nombre, email y una contraseña de al menos 8 caracteres son obligatorios")
	}

	if _, err := s.usuarios.FindByEmail(ctx, email); err == nil {
		return nil, apierror.Business(apierror.CodeEmailInUse, "el email %s ya está registrado", email)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := s.creds.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	u := &model.Usuario{Nombre: nombre, Email: email, PasswordHash: &hash}
	if err := s.usuarios.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apierror.Business(apierror.CodeEmailInUse, "el email %s ya está registrado", email)
		}
		return nil, err
	}
	log.Info().Str("usuario_id", u.ID.String()).Msg("usuario registrado")
	return &dto.UsuarioResponse{
		ID:               u.ID.String(),
		Nombre:           u.Nombre,
		Email:            u.Email,
		TiendasAsociadas: []dto.TiendaAsociada{},
	}, nil
}

// Login never says whether the email exists: unknown email, wrong password
// and accounts without a password (external sign-in) all fail the same way.
func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.usuarios.FindByEmail(ctx, normalizarEmail(req.Email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, credencialesInvalidas()
	}
	if err != nil {
		return nil, err
	}
	if user.PasswordHash == nil || !s.creds.Verify(req.Password, *user.PasswordHash) {
		return nil, credencialesInvalidas()
	}

	token, err := s.creds.IssueToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	perfil, err := s.perfilDe(ctx, user)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(s.creds.TTL().Seconds()),
		User:        *perfil,
	}, nil
}

func (s *authService) Perfil(ctx context.Context, usuarioID uuid.UUID) (*dto.UsuarioResponse, error) {
	user, err := s.usuarios.FindByID(ctx, usuarioID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apierror.NotFound(apierror.CodeUserNotFound, "usuario no encontrado")
	}
	if err != nil {
		return nil, err
	}
	return s.perfilDe(ctx, user)
}

// perfilDe derives the associated stores from the membership rows.
func (s *authService) perfilDe(ctx context.Context, u *model.Usuario) (*dto.UsuarioResponse, error) {
	membresias, err := s.tiendas.ListMemberships(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	return &dto.UsuarioResponse{
		ID:               u.ID.String(),
		Nombre:           u.Nombre,
		Email:            u.Email,
		TiendasAsociadas: tiendasAsociadas(membresias),
	}, nil
}

func tiendasAsociadas(ms []repository.Membresia) []dto.TiendaAsociada {
	out := make([]dto.TiendaAsociada, 0, len(ms))
	for _, m := range ms {
		out = append(out, dto.TiendaAsociada{
			TiendaID:  m.Tienda.ID.String(),
			Slug:      m.Tienda.Slug,
			StoreName: m.Tienda.StoreName,
			Rol:       m.Rol,
		})
	}
	return out
}
