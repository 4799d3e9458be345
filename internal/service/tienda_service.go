package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/apierror"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/cache"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/dto"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/model"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/repository"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/storage"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/tenancy"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// TiendaService owns the shop lifecycle and its membership.
type TiendaService interface {
	CrearTienda(ctx context.Context, usuarioID uuid.UUID, req dto.CrearTiendaRequest) (*dto.TiendaResponse, error)
	ObtenerTienda(ctx context.Context, slug string) (*dto.PublicTiendaResponse, error)
	ObtenerDetalle(ctx context.Context, slug string) (*dto.TiendaResponse, error)
	ListarTiendas(ctx context.Context) ([]dto.PublicTiendaResponse, error)
	MisTiendas(ctx context.Context, usuarioID uuid.UUID) ([]dto.TiendaAsociada, error)
	ActualizarTienda(ctx context.Context, actor uuid.UUID, slug string, req dto.ActualizarTiendaRequest) (*dto.TiendaResponse, error)
	SubirImagen(ctx context.Context, actor uuid.UUID, slug string, img Archivo) (*dto.TiendaResponse, error)
	EliminarTienda(ctx context.Context, actor uuid.UUID, slug string) (*dto.EliminarTiendaResponse, error)

	ListarMiembros(ctx context.Context, slug string) ([]dto.MiembroResponse, error)
	AgregarMiembro(ctx context.Context, actor uuid.UUID, slug string, req dto.AgregarMiembroRequest) (*dto.MiembroResponse, error)
	QuitarMiembro(ctx context.Context, actor uuid.UUID, slug string, usuarioID uuid.UUID) error
	// RolEn returns the user's role in the shop, or a forbidden error when
	// the user is not a member.
	RolEn(ctx context.Context, slug string, usuarioID uuid.UUID) (string, error)

	// EnsureTenantProvisioned exists for callers that expect an explicit
	// provisioning step; tenant schemas are created lazily on first use.
	EnsureTenantProvisioned(ctx context.Context, slug string) error
}

type tiendaService struct {
	repo     repository.TiendaRepository
	usuarios repository.UsuarioRepository
	dropper  TenantDropper
	blobs    BlobStore
	cache    *cache.Cache
}

func NewTiendaService(
	repo repository.TiendaRepository,
	usuarios repository.UsuarioRepository,
	dropper TenantDropper,
	blobs BlobStore,
	c *cache.Cache,
) TiendaService {
	return &tiendaService{repo: repo, usuarios: usuarios, dropper: dropper, blobs: blobs, cache: c}
}

// Teardown steps reported by EliminarTienda.
const (
	PasoBaseDeDatos = "base_de_datos"
	PasoArchivos    = "archivos"
	PasoMiembros    = "miembros"
	PasoTienda      = "tienda"
)

// ── Alta y consultas ──────────────────────────────────────────────────────────

func (s *tiendaService) CrearTienda(ctx context.Context, usuarioID uuid.UUID, req dto.CrearTiendaRequest) (*dto.TiendaResponse, error) {
	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	if !tenancy.ValidSlug(slug) {
		return nil, apierror.Validation(apierror.CodeInvalidInput,
			"slug inválido: %q (minúsculas, números y guiones)", req.Slug)
	}
	storeName := strings.TrimSpace(req.StoreName)
	if storeName == "" {
		return nil, apierror.Validation(apierror.CodeInvalidInput, "store_name es obligatorio")
	}

	owner, err := s.usuarios.FindByID(ctx, usuarioID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apierror.NotFound(apierror.CodeUserNotFound, "usuario no encontrado")
	}
	if err != nil {
		return nil, err
	}

	n, err := s.repo.CountBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, slugEnUso(slug)
	}

	ownerEmail := owner.Email
	if req.OwnerEmail != nil && strings.TrimSpace(*req.OwnerEmail) != "" {
		ownerEmail = normalizarEmail(*req.OwnerEmail)
	}
	t := &model.Tienda{
		Slug:        slug,
		DBName:      tenancy.TenantDBName(slug),
		StoreName:   storeName,
		OwnerEmail:  ownerEmail,
		Location:    req.Location,
		Description: req.Description,
		IsActive:    true,
	}
	if err := s.repo.CreateWithOwner(ctx, t, usuarioID); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, slugEnUso(slug)
		}
		return nil, err
	}
	log.Info().Str("tenant", slug).Str("owner_id", usuarioID.String()).Msg("tienda creada")

	out := tiendaToResponse(t)
	out.Members = []dto.MiembroResponse{{
		UsuarioID: owner.ID.String(),
		Nombre:    owner.Nombre,
		Email:     owner.Email,
		Rol:       model.RolOwner,
	}}
	return out, nil
}

func slugEnUso(slug string) error {
	return apierror.Business(apierror.CodeSlugInUse, "el slug %q ya está en uso", slug)
}

// ObtenerTienda is the public storefront view; inactive shops are not found.
func (s *tiendaService) ObtenerTienda(ctx context.Context, slug string) (*dto.PublicTiendaResponse, error) {
	key := cache.Key(slug, cache.ResourceShop)
	var cached dto.PublicTiendaResponse
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}
	t, err := s.cargar(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !t.IsActive {
		return nil, tiendaNoEncontrada(slug)
	}
	out := tiendaToPublic(t)
	s.cache.Set(ctx, key, out, 0)
	return &out, nil
}

// ObtenerDetalle is the admin view, with members.
func (s *tiendaService) ObtenerDetalle(ctx context.Context, slug string) (*dto.TiendaResponse, error) {
	t, err := s.cargar(ctx, slug)
	if err != nil {
		return nil, err
	}
	miembros, err := s.miembrosDe(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	out := tiendaToResponse(t)
	out.Members = miembros
	return out, nil
}

func (s *tiendaService) ListarTiendas(ctx context.Context) ([]dto.PublicTiendaResponse, error) {
	list, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PublicTiendaResponse, 0, len(list))
	for i := range list {
		out = append(out, tiendaToPublic(&list[i]))
	}
	return out, nil
}

func (s *tiendaService) MisTiendas(ctx context.Context, usuarioID uuid.UUID) ([]dto.TiendaAsociada, error) {
	ms, err := s.repo.ListMemberships(ctx, usuarioID)
	if err != nil {
		return nil, err
	}
	return tiendasAsociadas(ms), nil
}

// ── Modificación ──────────────────────────────────────────────────────────────

func (s *tiendaService) ActualizarTienda(ctx context.Context, actor uuid.UUID, slug string, req dto.ActualizarTiendaRequest) (*dto.TiendaResponse, error) {
	t, err := s.cargar(ctx, slug)
	if err != nil {
		return nil, err
	}
	if _, err := s.exigirMiembro(ctx, t, actor); err != nil {
		return nil, err
	}

	patch := map[string]any{}
	if req.StoreName != nil {
		name := strings.TrimSpace(*req.StoreName)
		if name == "" {
			return nil, apierror.Validation(apierror.CodeInvalidInput, "store_name no puede quedar vacío")
		}
		patch["store_name"] = name
	}
	if req.OwnerEmail != nil {
		patch["owner_email"] = normalizarEmail(*req.OwnerEmail)
	}
	if req.Location != nil {
		patch["location"] = *req.Location
	}
	if req.Description != nil {
		patch["description"] = *req.Description
	}
	if req.IsActive != nil {
		patch["is_active"] = *req.IsActive
	}
	if len(patch) == 0 {
		return tiendaToResponse(t), nil
	}

	updated, err := s.repo.Update(ctx, t.ID, patch)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, tiendaNoEncontrada(slug)
	}
	if err != nil {
		return nil, err
	}
	s.cache.DeleteByPattern(ctx, cache.ResourcePattern(slug, cache.ResourceShop))
	return tiendaToResponse(updated), nil
}

func (s *tiendaService) SubirImagen(ctx context.Context, actor uuid.UUID, slug string, img Archivo) (*dto.TiendaResponse, error) {
	if err := validarImagen(img); err != nil {
		return nil, err
	}
	t, err := s.cargar(ctx, slug)
	if err != nil {
		return nil, err
	}
	if _, err := s.exigirMiembro(ctx, t, actor); err != nil {
		return nil, err
	}

	key := storage.NewKey(slug+"/shop", img.Nombre, img.ContentType)
	url, err := s.blobs.Put(ctx, key, img.Contenido, img.ContentType)
	if err != nil {
		return nil, fmt.Errorf("guardar imagen: %w", err)
	}
	updated, err := s.repo.Update(ctx, t.ID, map[string]any{"image_url": url})
	if err != nil {
		_ = s.blobs.Delete(ctx, key)
		return nil, err
	}
	if err := deleteBlobByURL(ctx, s.blobs, t.ImageURL); err != nil {
		log.Warn().Err(err).Str("tenant", slug).Msg("tienda: no se pudo borrar la imagen anterior")
	}
	s.cache.DeleteByPattern(ctx, cache.ResourcePattern(slug, cache.ResourceShop))
	return tiendaToResponse(updated), nil
}

// ── Baja ──────────────────────────────────────────────────────────────────────
// Best-effort teardown, in order:
//   a. drop the tenant schema
//   b. delete every blob under <slug>/
//   c. remove every membership row (the shop leaves every user's associated stores)
//   d. delete the Tienda row
// A failed step is logged and reported; later steps still run.

func (s *tiendaService) EliminarTienda(ctx context.Context, actor uuid.UUID, slug string) (*dto.EliminarTiendaResponse, error) {
	t, err := s.cargar(ctx, slug)
	if err != nil {
		return nil, err
	}
	rol, err := s.exigirMiembro(ctx, t, actor)
	if err != nil {
		return nil, err
	}
	if rol != model.RolOwner {
		return nil, apierror.Forbidden(apierror.CodeNotOwner, "solo el dueño puede eliminar la tienda")
	}

	report := &dto.EliminarTiendaResponse{Slug: slug, PasosFallidos: []string{}}
	fallo := func(paso string, err error) {
		report.PasosFallidos = append(report.PasosFallidos, paso)
		log.Error().Err(err).Str("tenant", slug).Str("paso", paso).Msg("tienda: paso de baja fallido")
	}

	if err := s.dropper.DropDatabase(ctx, t.DBName); err != nil {
		fallo(PasoBaseDeDatos, err)
	}
	if err := s.borrarArchivos(ctx, slug); err != nil {
		fallo(PasoArchivos, err)
	}
	if _, err := s.repo.RemoveAllMembers(ctx, t.ID); err != nil {
		fallo(PasoMiembros, err)
	}
	if err := s.repo.Delete(ctx, t.ID); err != nil {
		fallo(PasoTienda, err)
	}

	s.cache.DeleteByPattern(ctx, cache.TenantPattern(slug))
	log.Info().Str("tenant", slug).Strs("pasos_fallidos", report.PasosFallidos).Msg("tienda eliminada")
	return report, nil
}

func (s *tiendaService) borrarArchivos(ctx context.Context, slug string) error {
	keys, err := s.blobs.ListByPrefix(ctx, slug+"/")
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.blobs.DeleteMany(ctx, keys)
}

// ── Miembros ──────────────────────────────────────────────────────────────────

func (s *tiendaService) ListarMiembros(ctx context.Context, slug string) ([]dto.MiembroResponse, error) {
	t, err := s.cargar(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.miembrosDe(ctx, t.ID)
}

func (s *tiendaService) AgregarMiembro(ctx context.Context, actor uuid.UUID, slug string, req dto.AgregarMiembroRequest) (*dto.MiembroResponse, error) {
	t, err := s.cargar(ctx, slug)
	if err != nil {
		return nil, err
	}
	if err := s.exigirOwner(ctx, t, actor); err != nil {
		return nil, err
	}
	rol := req.Rol
	if rol == "" {
		rol = model.RolAdmin
	}
	if rol != model.RolAdmin {
		return nil, apierror.Validation(apierror.CodeInvalidInput, "rol inválido: %q", req.Rol)
	}

	u, err := s.usuarios.FindByEmail(ctx, normalizarEmail(req.Email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apierror.NotFound(apierror.CodeUserNotFound, "no existe un usuario con email %s", req.Email)
	}
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.FindMember(ctx, t.ID, u.ID); err == nil {
		return nil, apierror.Business(apierror.CodeAlreadyMember, "%s ya es miembro de la tienda", u.Email)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	if err := s.repo.AddMember(ctx, &model.MiembroTienda{TiendaID: t.ID, UsuarioID: u.ID, Rol: rol}); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apierror.Business(apierror.CodeAlreadyMember, "%s ya es miembro de la tienda", u.Email)
		}
		return nil, err
	}
	return &dto.MiembroResponse{UsuarioID: u.ID.String(), Nombre: u.Nombre, Email: u.Email, Rol: rol}, nil
}

func (s *tiendaService) QuitarMiembro(ctx context.Context, actor uuid.UUID, slug string, usuarioID uuid.UUID) error {
	t, err := s.cargar(ctx, slug)
	if err != nil {
		return err
	}
	if err := s.exigirOwner(ctx, t, actor); err != nil {
		return err
	}
	m, err := s.repo.FindMember(ctx, t.ID, usuarioID)
	if errors.Is(err, repository.ErrNotFound) {
		return apierror.NotFound(apierror.CodeNotMember, "el usuario no es miembro de la tienda")
	}
	if err != nil {
		return err
	}
	if m.Rol == model.RolOwner {
		return apierror.Business(apierror.CodeInvalidInput, "no se puede quitar al dueño de la tienda")
	}
	err = s.repo.RemoveMember(ctx, t.ID, usuarioID)
	if errors.Is(err, repository.ErrNotFound) {
		return apierror.NotFound(apierror.CodeNotMember, "el usuario no es miembro de la tienda")
	}
	return err
}

func (s *tiendaService) RolEn(ctx context.Context, slug string, usuarioID uuid.UUID) (string, error) {
	t, err := s.cargar(ctx, slug)
	if err != nil {
		return "", err
	}
	return s.exigirMiembro(ctx, t, usuarioID)
}

func (s *tiendaService) EnsureTenantProvisioned(context.Context, string) error { return nil }

// ── Helpers ───────────────────────────────────────────────────────────────────

func tiendaNoEncontrada(slug string) error {
	return apierror.NotFound(apierror.CodeShopNotFound, "tienda %q no encontrada", slug)
}

func (s *tiendaService) cargar(ctx context.Context, slug string) (*model.Tienda, error) {
	if !tenancy.ValidSlug(slug) {
		return nil, tiendaNoEncontrada(slug)
	}
	t, err := s.repo.FindBySlug(ctx, slug)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, tiendaNoEncontrada(slug)
	}
	return t, err
}

func (s *tiendaService) exigirMiembro(ctx context.Context, t *model.Tienda, usuarioID uuid.UUID) (string, error) {
	m, err := s.repo.FindMember(ctx, t.ID, usuarioID)
	if errors.Is(err, repository.ErrNotFound) {
		return "", apierror.Forbidden(apierror.CodeNotMember, "no sos miembro de la tienda %q", t.Slug)
	}
	if err != nil {
		return "", err
	}
	return m.Rol, nil
}

func (s *tiendaService) exigirOwner(ctx context.Context, t *model.Tienda, usuarioID uuid.UUID) error {
	rol, err := s.exigirMiembro(ctx, t, usuarioID)
	if err != nil {
		return err
	}
	if rol != model.RolOwner {
		return apierror.Forbidden(apierror.CodeNotOwner, "solo el dueño puede gestionar miembros")
	}
	return nil
}

// miembrosDe joins membership rows with their users.
func (s *tiendaService) miembrosDe(ctx context.Context, tiendaID uuid.UUID) ([]dto.MiembroResponse, error) {
	rows, err := s.repo.ListMembers(ctx, tiendaID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.UsuarioID)
	}
	usuarios := map[uuid.UUID]model.Usuario{}
	if len(ids) > 0 {
		list, err := s.usuarios.FindByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, u := range list {
			usuarios[u.ID] = u
		}
	}
	out := make([]dto.MiembroResponse, 0, len(rows))
	for _, r := range rows {
		m := dto.MiembroResponse{UsuarioID: r.UsuarioID.String(), Rol: r.Rol}
		if u, ok := usuarios[r.UsuarioID]; ok {
			m.Nombre, m.Email = u.Nombre, u.Email
		}
		out = append(out, m)
	}
	return out, nil
}

func tiendaToResponse(t *model.Tienda) *dto.TiendaResponse {
	return &dto.TiendaResponse{
		ID:          t.ID.String(),
		Slug:        t.Slug,
		DBName:      t.DBName,
		StoreName:   t.StoreName,
		OwnerEmail:  t.OwnerEmail,
		Location:    t.Location,
		Description: t.Description,
		ImageURL:    t.ImageURL,
		IsActive:    t.IsActive,
		CreatedAt:   t.CreatedAt,
	}
}

func tiendaToPublic(t *model.Tienda) dto.PublicTiendaResponse {
	return dto.PublicTiendaResponse{
		Slug:        t.Slug,
		StoreName:   t.StoreName,
		Location:    t.Location,
		Description: t.Description,
		ImageURL:    t.ImageURL,
	}
}
