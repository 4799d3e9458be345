package storage

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(t.TempDir(), "http://localhost:8000/uploads/")
	require.NoError(t, err)
	return s
}

func TestPut_DevuelveURLPublica(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	url, err := s.Put(ctx, "acme/products/a.png", strings.NewReader("png"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/uploads/acme/products/a.png", url)

	raw, err := os.ReadFile(filepath.Join(s.Root(), "acme", "products", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(raw))

	key, ok := s.KeyFromURL(url)
	assert.True(t, ok)
	assert.Equal(t, "acme/products/a.png", key)
	_, ok = s.KeyFromURL("https://cdn.example.com/x.png")
	assert.False(t, ok)
}

func TestPut_RechazaClavesFueraDeRaiz(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Put(context.Background(), "../escape.png", strings.NewReader("x"), "image/png")
	assert.ErrorIs(t, err, ErrInvalidKey)
	_, err = s.Put(context.Background(), "", strings.NewReader("x"), "image/png")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestListYDeleteMany_PorPrefijo(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, k := range []string{"acme/shop/logo.png", "acme/products/1.jpg", "globex/products/2.jpg"} {
		_, err := s.Put(ctx, k, strings.NewReader(k), "image/jpeg")
		require.NoError(t, err)
	}

	keys, err := s.ListByPrefix(ctx, "acme")
	require.NoError(t, err)
	sort.Strings(keys)
	assert.Equal(t, []string{"acme/products/1.jpg", "acme/shop/logo.png"}, keys)

	require.NoError(t, s.DeleteMany(ctx, keys))

	keys, err = s.ListByPrefix(ctx, "acme")
	require.NoError(t, err)
	assert.Empty(t, keys)
	_, err = os.Stat(filepath.Join(s.Root(), "acme"))
	assert.True(t, os.IsNotExist(err))

	other, err := s.ListByPrefix(ctx, "globex")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestDelete_Inexistente(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Delete(context.Background(), "acme/nada.png"))
}

func TestNewKey(t *testing.T) {
	k := NewKey("acme/products/", "Foto.JPG", "image/jpeg")
	assert.True(t, strings.HasPrefix(k, "acme/products/"))
	assert.True(t, strings.HasSuffix(k, ".jpg"))

	k = NewKey("acme/shop", "", "image/png")
	assert.True(t, strings.HasSuffix(k, ".png"))
}
