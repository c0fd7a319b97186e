package media

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPutResizesAndDelete(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewStore(dir, "/static/uploads")
	require.NoError(t, err)

	url, err := s.Put(ctx, "cover.PNG", bytes.NewReader(pngBytes(t, 1600, 400)))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "/static/uploads/"))
	require.True(t, strings.HasSuffix(url, ".jpg"))

	f, err := os.Open(filepath.Join(dir, filepath.Base(url)))
	require.NoError(t, err)
	cfg, err := jpeg.DecodeConfig(f)
	f.Close()
	require.NoError(t, err)
	require.Equal(t, 800, cfg.Width)
	require.Equal(t, 200, cfg.Height)

	require.NoError(t, s.Delete(ctx, url))
	_, err = os.Stat(filepath.Join(dir, filepath.Base(url)))
	require.True(t, os.IsNotExist(err))
}

func TestPutKeepsSmallImages(t *testing.T) {
	s, err := NewStore(t.TempDir(), "/static/uploads/")
	require.NoError(t, err)
	url, err := s.Put(context.Background(), "small.png", bytes.NewReader(pngBytes(t, 300, 100)))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "/static/uploads/"))
	require.False(t, strings.HasPrefix(url, "/static/uploads//"))
}

func TestPutRejects(t *testing.T) {
	s, err := NewStore(t.TempDir(), "/static/uploads")
	require.NoError(t, err)

	_, err = s.Put(context.Background(), "cover.gif", bytes.NewReader([]byte("GIF89a")))
	require.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = s.Put(context.Background(), "cover.png", bytes.NewReader([]byte("not a png")))
	require.Error(t, err)
}

func TestDeleteForeign(t *testing.T) {
	s, err := NewStore(t.TempDir(), "/static/uploads")
	require.NoError(t, err)
	require.ErrorIs(t, s.Delete(context.Background(), "https://example.com/x.jpg"), ErrForeignURL)
	require.Error(t, s.Delete(context.Background(), "/static/uploads/missing.jpg"))
}
