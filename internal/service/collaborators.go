package service

import (
	"context"
	"io"
	"strings"

	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/apierror"
)

// BlobStore is the object storage used for shop and product images.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	ListByPrefix(ctx context.Context, prefix string) ([]string, error)
	DeleteMany(ctx context.Context, keys []string) error
	KeyFromURL(url string) (string, bool)
}

// TenantDropper removes a tenant's logical database.
type TenantDropper interface {
	DropDatabase(ctx context.Context, dbName string) error
}

// Archivo is an uploaded file as received by the handlers.
type Archivo struct {
	Nombre      string
	ContentType string
	Size        int64
	Contenido   io.Reader
}

const maxImagenBytes = 5 << 20

var tiposImagen = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

func validarImagen(a Archivo) error {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(a.ContentType, ";", 2)[0]))
	if !tiposImagen[ct] {
		return apierror.Validation(apierror.CodeInvalidInput, "formato de imagen no soportado: %s", a.ContentType)
	}
	if a.Size <= 0 || a.Size > maxImagenBytes {
		return apierror.Validation(apierror.CodeInvalidInput, "la imagen debe pesar entre 1 byte y 5 MB")
	}
	return nil
}

// deleteBlobByURL removes the object behind url when this store issued it.
// Best-effort: failures are only logged by the caller.
func deleteBlobByURL(ctx context.Context, blobs BlobStore, url *string) error {
	if blobs == nil || url == nil || *url == "" {
		return nil
	}
	key, ok := blobs.KeyFromURL(*url)
	if !ok {
		return nil
	}
	return blobs.Delete(ctx, key)
}
