package covers

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/bookdatabase/bookdb/pkg/errcodes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var filenameRE = regexp.MustCompile(`^book-7-[0-9a-f-]{36}\.(png|jpg|gif|webp)$`)

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 6))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	return img
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage()))
	return buf.Bytes()
}

func newStorage(t *testing.T, maxSize int64) *LocalStorage {
	t.Helper()
	s, err := NewLocalStorage(filepath.Join(t.TempDir(), "uploads"), maxSize)
	require.NoError(t, err)
	return s
}

func TestStoreCoverImage_Formats(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStorage(t, 1024*1024)

	var jpg, gf bytes.Buffer
	require.NoError(t, jpeg.Encode(&jpg, testImage(), nil))
	require.NoError(t, gif.Encode(&gf, testImage(), nil))

	cases := map[string][]byte{
		"png": pngBytes(t),
		"jpg": jpg.Bytes(),
		"gif": gf.Bytes(),
	}
	for ext, data := range cases {
		name, err := s.StoreCoverImage(ctx, 7, bytes.NewReader(data))
		require.NoError(t, err, ext)
		assert.Regexp(t, filenameRE, name)
		assert.True(t, strings.HasSuffix(name, "."+ext))

		stored, err := os.ReadFile(filepath.Join(s.Dir(), name))
		require.NoError(t, err)
		assert.Equal(t, data, stored)
	}

	// No temp files are left behind.
	leftovers, err := filepath.Glob(filepath.Join(s.Dir(), ".cover-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestStoreCoverImage_Rejects(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	corrupt := append([]byte{}, pngBytes(t)[:16]...)
	corrupt = append(corrupt, bytes.Repeat([]byte{0xff}, 32)...)

	cases := map[string][]byte{
		"text":    []byte("definitely not an image"),
		"pdf":     []byte("%PDF-1.4\n%âãÏÓ\n1 0 obj\n<<>>\nendobj\n"),
		"corrupt": corrupt,
		"empty":   {},
	}
	for name, data := range cases {
		s := newStorage(t, 1024*1024)
		_, err := s.StoreCoverImage(ctx, 7, bytes.NewReader(data))
		require.Error(t, err, name)
		assert.True(t, errcodes.HasCode(err, errcodes.CodeValidation), name)

		entries, err := os.ReadDir(s.Dir())
		require.NoError(t, err)
		assert.Empty(t, entries, name)
	}
}

func TestStoreCoverImage_TooLarge(t *testing.T) {
	t.Parallel()
	data := pngBytes(t)
	s := newStorage(t, int64(len(data)-1))

	_, err := s.StoreCoverImage(context.Background(), 7, bytes.NewReader(data))
	assert.True(t, errcodes.HasCode(err, errcodes.CodeValidation))
}

func TestDeleteCoverImage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStorage(t, 1024*1024)

	name, err := s.StoreCoverImage(ctx, 7, bytes.NewReader(pngBytes(t)))
	require.NoError(t, err)

	require.NoError(t, s.DeleteCoverImage(ctx, name))
	_, err = os.Stat(filepath.Join(s.Dir(), name))
	assert.True(t, os.IsNotExist(err))

	// Already gone.
	require.NoError(t, s.DeleteCoverImage(ctx, name))
	require.NoError(t, s.DeleteCoverImage(ctx, ""))
}

func TestDeleteCoverImage_RefusesEscapes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStorage(t, 1024*1024)

	outside := filepath.Join(filepath.Dir(s.Dir()), "keep.txt")
	require.NoError(t, os.WriteFile(outside, []byte("keep"), 0600))

	err := s.DeleteCoverImage(ctx, "../keep.txt")
	assert.True(t, errcodes.HasCode(err, errcodes.CodeValidation))
	_, err = os.Stat(outside)
	require.NoError(t, err)

	err = s.DeleteCoverImage(ctx, "..")
	assert.True(t, errcodes.HasCode(err, errcodes.CodeValidation))
}

func TestRemoveAll(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStorage(t, 1024*1024)

	for i := 0; i < 3; i++ {
		_, err := s.StoreCoverImage(ctx, 7, bytes.NewReader(pngBytes(t)))
		require.NoError(t, err)
	}

	n, err := s.RemoveAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestDownloader(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	data := pngBytes(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	s := newStorage(t, 1024*1024)
	d := NewDownloader(s)

	name, err := d.Download(ctx, 7, srv.URL+"/cover.png")
	require.NoError(t, err)
	assert.Regexp(t, filenameRE, name)

	_, err = d.Download(ctx, 7, srv.URL+"/missing.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")

	_, err = d.Download(ctx, 7, "")
	require.Error(t, err)
}
