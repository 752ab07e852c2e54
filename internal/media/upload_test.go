package media

import (
	"bytes"
	"context"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"kofa_admin/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func pngBytes(t *testing.T, w, h int, noisy bool) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	rnd := rand.New(rand.NewSource(42))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255}
			if noisy {
				c = color.RGBA{R: uint8(rnd.Intn(256)), G: uint8(rnd.Intn(256)), B: uint8(rnd.Intn(256)), A: 255}
			}
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestUploader(t *testing.T, handler http.Handler) (*Uploader, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.UploadBaseURL = server.URL
	cfg.CompressImages = false
	cfg.Timeout = 2 * time.Second
	return NewUploader(cfg, zap.NewNop()), &hits
}

func TestUploadImageRejectsBeforeAnyRequest(t *testing.T) {
	uploader, hits := newTestUploader(t, http.NotFoundHandler())

	oversized := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, MaxImageSize)...)

	cases := map[string]struct {
		file   File
		reason string
	}{
		"empty":     {File{Name: "none.png"}, ReasonNoFile},
		"text":      {File{Name: "notes.png", Data: []byte("just some text pretending to be an image")}, ReasonInvalidType},
		"pdf":       {File{Name: "invoice.pdf", Data: []byte("%PDF-1.4\n%âãÏÓ\n1 0 obj\n")}, ReasonInvalidType},
		"oversized": {File{Name: "huge.png", Data: oversized}, ReasonTooLarge},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			img, err := uploader.UploadImage(context.Background(), tc.file)

			assert.Nil(t, img)
			var rejected *RejectedError
			require.ErrorAs(t, err, &rejected)
			assert.Equal(t, tc.reason, rejected.Reason)
		})
	}
	assert.Zero(t, hits.Load())
}

func TestUploadImageSendsUnsignedMultipart(t *testing.T) {
	data := pngBytes(t, 8, 8, false)

	uploader, hits := newTestUploader(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/demo/image/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, config.DefaultUploadPreset, r.FormValue("upload_preset"))
		assert.Equal(t, "kofa_products", r.FormValue("folder"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "shirt.png", header.Filename)
		assert.Equal(t, "image/png", header.Header.Get("Content-Type"))
		got, _ := io.ReadAll(file)
		assert.Equal(t, data, got)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"secure_url":"https://res.cloudinary.com/demo/image/upload/v1/kofa_products/shirt.png","public_id":"kofa_products/shirt","width":8,"height":8}`))
	}))

	img, err := uploader.UploadImage(context.Background(), File{Name: "shirt.png", Data: data})

	require.NoError(t, err)
	require.NotNil(t, img)
	assert.Equal(t, "kofa_products/shirt", img.PublicID)
	assert.Equal(t, 8, img.Width)
	assert.Contains(t, img.URL, "https://")
	assert.Equal(t, int32(1), hits.Load())
}

func TestUploadImageProviderError(t *testing.T) {
	uploader, _ := newTestUploader(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Upload preset not found"}}`))
	}))

	img, err := uploader.UploadImage(context.Background(), File{Name: "a.png", Data: pngBytes(t, 2, 2, false)})

	assert.Nil(t, img)
	assert.ErrorIs(t, err, ErrUploadFailed)
	assert.Contains(t, err.Error(), "Upload preset not found")
}

func TestDeleteImageIsNoOp(t *testing.T) {
	uploader, hits := newTestUploader(t, http.NotFoundHandler())

	ok, err := uploader.DeleteImage(context.Background(), "kofa_products/shirt")

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, hits.Load())
}

func TestCompressDownscalesToJPEG(t *testing.T) {
	data := pngBytes(t, 1600, 200, true)

	out, ok, err := Compress(data, "image/png", DefaultMaxWidth)

	require.NoError(t, err)
	require.True(t, ok)
	assert.Less(t, len(out), len(data))
	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, DefaultMaxWidth, cfg.Width)
	assert.Equal(t, 150, cfg.Height)
}

func TestCompressFlattensTransparencyOntoWhite(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 400, 100))
	rnd := rand.New(rand.NewSource(7))
	for y := 0; y < 100; y++ {
		for x := 0; x < 200; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(rnd.Intn(256)), G: uint8(rnd.Intn(256)), B: uint8(rnd.Intn(256)), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	out, ok, err := Compress(buf.Bytes(), "image/png", DefaultMaxWidth)

	require.NoError(t, err)
	require.True(t, ok)
	decoded, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	r, g, b, _ := decoded.At(350, 50).RGBA()
	assert.Greater(t, r>>8, uint32(240))
	assert.Greater(t, g>>8, uint32(240))
	assert.Greater(t, b>>8, uint32(240))
}

func TestCompressSkipsOtherTypes(t *testing.T) {
	out, ok, err := Compress([]byte("GIF89a"), "image/gif", DefaultMaxWidth)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, out)
}

func TestOpenFileCapsRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, MaxImageSize+1024), 0o600))

	f, err := OpenFile(path)

	require.NoError(t, err)
	assert.Equal(t, "big.bin", f.Name)
	assert.Len(t, f.Data, int(MaxImageSize)+1)
}

func TestJPEGName(t *testing.T) {
	assert.Equal(t, "shirt.jpg", jpegName("shirt.png"))
	assert.Equal(t, "image.jpg", jpegName(".png"))
	assert.Equal(t, "photo.jpg", jpegName("photo"))
}
