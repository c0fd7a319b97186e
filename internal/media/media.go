// Package media stores book cover images on local disk and serves them
// under a public URL prefix.
package media

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/nfnt/resize"
)

const (
	MaxWidth    = 800
	JPEGQuality = 80
)

var (
	ErrUnsupportedFormat = errors.New("unsupported image format, use PNG or JPEG")
	ErrForeignURL        = errors.New("url does not belong to this media store")
)

type Store struct {
	dir       string
	urlPrefix string
}

// NewStore keeps files in dir and hands out URLs starting with urlPrefix.
func NewStore(dir, urlPrefix string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{dir: dir, urlPrefix: strings.TrimSuffix(urlPrefix, "/") + "/"}, nil
}

// Dir is the directory files are written to.
func (s *Store) Dir() string { return s.dir }

// Put decodes an uploaded image, shrinks it to MaxWidth and saves it as
// JPEG under a fresh name. The format is picked from the original file name.
func (s *Store) Put(ctx context.Context, filename string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var img image.Image
	var err error
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		img, err = png.Decode(r)
	case ".jpg", ".jpeg":
		img, err = jpeg.Decode(r)
	default:
		return "", ErrUnsupportedFormat
	}
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	// Resize image (max width 800px, preserve aspect ratio)
	if img.Bounds().Dx() > MaxWidth {
		img = resize.Resize(MaxWidth, 0, img, resize.Lanczos3)
	}

	name := uuid.New().String() + ".jpg"
	out, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	if err := jpeg.Encode(out, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		out.Close()
		os.Remove(out.Name())
		return "", fmt.Errorf("encode image: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	return s.urlPrefix + name, nil
}

// Delete removes an object previously returned by Put.
func (s *Store) Delete(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !strings.HasPrefix(url, s.urlPrefix) {
		return ErrForeignURL
	}
	name := path.Base(strings.TrimPrefix(url, s.urlPrefix))
	if name == "." || name == "/" || name == ".." {
		return ErrForeignURL
	}
	return os.Remove(filepath.Join(s.dir, name))
}
