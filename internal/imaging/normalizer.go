// Package imaging validates uploaded image bytes and persists them as
// normalized, uniquely named files.
package imaging

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Store is the upload store normalized images are written to.
type Store interface {
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) error
	Path(key string) (string, error)
}

// Normalizer decodes uploads, re-encodes them in a canonical form, and writes
// exactly one file per successful Save.
type Normalizer struct {
	cfg    *Config
	store  Store
	logger *slog.Logger
}

// New creates a Normalizer writing to store.
func New(cfg *Config, store Store, logger *slog.Logger) *Normalizer {
	return &Normalizer{
		cfg:    cfg,
		store:  store,
		logger: logger.With("system", "imaging"),
	}
}

// Save validates data, normalizes it, and returns the path of the stored file.
// Errors from undecodable or unsupported input wrap ErrInvalidImage and leave
// nothing written.
func (n *Normalizer) Save(ctx context.Context, data []byte, filename string) (string, error) {
	img, format, err := n.decode(data)
	if err != nil {
		return "", err
	}

	ext := CanonicalExtension(format)
	if !n.cfg.Allowed(ext) {
		return "", fmt.Errorf("%w: unsupported format %s", ErrInvalidImage, format)
	}

	encoded, err := n.encode(img, format, data)
	if err != nil {
		return "", err
	}

	key := UniqueName(filename, ext)
	if err := n.store.Upload(ctx, key, bytes.NewReader(encoded), ContentType(ext)); err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}

	n.logger.Debug("image stored", "key", key, "format", format, "bytes", len(encoded))
	return n.store.Path(key)
}

// CanonicalExtension maps a decoder format name to the stored file extension.
func CanonicalExtension(format string) string {
	switch format {
	case "jpeg", "jfif":
		return "jpg"
	default:
		return format
	}
}

// ContentType returns the MIME type for a canonical extension.
func ContentType(ext string) string {
	if ext == "jpg" {
		return "image/jpeg"
	}
	return "image/" + ext
}

func (n *Normalizer) decode(data []byte) (image.Image, string, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if px := int64(cfg.Width) * int64(cfg.Height); px > n.cfg.MaxPixels {
		return nil, "", fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrInvalidImage, cfg.Width, cfg.Height, n.cfg.MaxPixels)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return img, format, nil
}

func (n *Normalizer) encode(img image.Image, format string, original []byte) ([]byte, error) {
	var buf bytes.Buffer
	var err error

	switch format {
	case "jpeg":
		err = jpeg.Encode(&buf, toRGB(img), &jpeg.Options{Quality: n.cfg.JPEGQuality})
	case "png":
		err = png.Encode(&buf, img)
	case "gif":
		var anim *gif.GIF
		anim, err = gif.DecodeAll(bytes.NewReader(original))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
		}
		err = gif.EncodeAll(&buf, anim)
	case "bmp":
		err = bmp.Encode(&buf, img)
	case "tiff":
		err = tiff.Encode(&buf, img, nil)
	default:
		return original, nil
	}

	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

// toRGB drops alpha and expands grayscale so the JPEG encoder always
// writes three YCbCr channels.
func toRGB(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			out.SetRGBA(x, y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff})
		}
	}
	return out
}
