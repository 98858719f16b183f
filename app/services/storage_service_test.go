package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/amirphl/orochi-partners/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *LocalStorageService {
	t.Helper()
	return NewLocalStorageService(config.StorageConfig{
		RootDir:       t.TempDir(),
		PublicBaseURL: "https://cdn.example.com/assets/",
		MaxLogoBytes:  1024,
	})
}

func TestStorageUploadFetchDelete(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	obj, err := storage.Upload(ctx, "programs/prog_1/logo_abc", []byte("logo-bytes"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/assets/programs/prog_1/logo_abc", obj.URL)
	assert.True(t, storage.IsStored(obj.URL))

	key, ok := storage.KeyFromURL(obj.URL)
	require.True(t, ok)
	assert.Equal(t, "programs/prog_1/logo_abc", key)

	data, err := storage.Fetch(ctx, obj.URL)
	require.NoError(t, err)
	assert.Equal(t, []byte("logo-bytes"), data)

	require.NoError(t, storage.Delete(ctx, key))
	_, err = storage.Fetch(ctx, obj.URL)
	assert.Error(t, err)
	assert.NoError(t, storage.Delete(ctx, key), "deleting a missing object is not an error")
}

func TestStorageRejectsBadKeys(t *testing.T) {
	storage := newTestStorage(t)
	for _, key := range []string{"", "/etc/passwd", "../escape", "a/../../b", "a\\b"} {
		_, err := storage.Upload(context.Background(), key, []byte("x"), "image/png")
		assert.ErrorIs(t, err, ErrInvalidObjectKey, key)
	}
	assert.False(t, storage.IsStored("https://cdn.example.com/assets/../secret"))
	assert.False(t, storage.IsStored("https://elsewhere.com/assets/logo"))
}

func TestStorageSizeLimit(t *testing.T) {
	storage := newTestStorage(t)
	_, err := storage.Upload(context.Background(), "big", bytes.Repeat([]byte("a"), 2048), "image/png")
	assert.ErrorIs(t, err, ErrObjectTooLarge)
}

func TestStorageFetchDataURI(t *testing.T) {
	storage := newTestStorage(t)
	src := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png"))

	data, err := storage.Fetch(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), data)

	_, err = storage.Fetch(context.Background(), "data:image/png;base64,%%%")
	assert.ErrorIs(t, err, ErrInvalidSource)

	_, err = storage.Fetch(context.Background(), "ftp://example.com/logo.png")
	assert.ErrorIs(t, err, ErrInvalidSource)
}

func TestStorageFetchRefusesForeignURLs(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("remote-logo"))
	}))
	defer srv.Close()

	storage := newTestStorage(t)
	for _, src := range []string{
		srv.URL + "/logo.png",
		"http://169.254.169.254/latest/meta-data/",
		"https://cdn.example.com/other/logo.png",
	} {
		_, err := storage.Fetch(context.Background(), src)
		assert.ErrorIs(t, err, ErrInvalidSource, src)
	}
	assert.Zero(t, hits.Load())
}

func encodeTestPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func TestLogoProcessorNormalize(t *testing.T) {
	processor := NewLogoProcessor(64)

	out, err := processor.Normalize(encodeTestPNG(t, 256, 128))
	require.NoError(t, err)
	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 64, cfg.Width)
	assert.Equal(t, 32, cfg.Height)

	out, err = processor.Normalize(encodeTestPNG(t, 16, 40))
	require.NoError(t, err)
	cfg, _, err = image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Width)
	assert.Equal(t, 40, cfg.Height)

	_, err = processor.Normalize([]byte("not an image"))
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}
