package imaging_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"github.com/JaimeStill/sightline/internal/imaging"
	"github.com/JaimeStill/sightline/pkg/logging"
	"github.com/JaimeStill/sightline/pkg/storage"
)

var uniqueName = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}_([A-Za-z0-9_.-]+)\.([a-z]+)$`)

func newNormalizer(t *testing.T, cfg *imaging.Config) (*imaging.Normalizer, string) {
	t.Helper()
	dir := t.TempDir()
	storeCfg := &storage.Config{
		UploadDir:    filepath.Join(dir, "uploads"),
		DetectionDir: filepath.Join(dir, "runs"),
	}
	require.NoError(t, storeCfg.Finalize(nil))

	if cfg == nil {
		cfg = &imaging.Config{}
	}
	require.NoError(t, cfg.Finalize(nil))

	store := storage.NewLocal(storeCfg, logging.Discard())
	return imaging.New(cfg, store, logging.Discard()), storeCfg.UploadDir
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func solid(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}
	return img
}

func listFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestSavePNG(t *testing.T) {
	n, dir := newNormalizer(t, nil)
	data := encodePNG(t, solid(100, 100, color.NRGBA{R: 200, A: 255}))

	path, err := n.Save(context.Background(), data, "field shot.png")
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(path))
	m := uniqueName.FindStringSubmatch(filepath.Base(path))
	require.NotNil(t, m, filepath.Base(path))
	assert.Equal(t, "field_shot", m[1])
	assert.Equal(t, "png", m[2])

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	cfg, format, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 100, cfg.Width)
}

func TestSaveIdenticalBytesProducesDistinctNames(t *testing.T) {
	n, dir := newNormalizer(t, nil)
	data := encodePNG(t, solid(8, 8, color.White))

	first, err := n.Save(context.Background(), data, "same.png")
	require.NoError(t, err)
	second, err := n.Save(context.Background(), data, "same.png")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Len(t, listFiles(t, dir), 2)
}

func TestSaveRejectsInvalidBytes(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"text", []byte("this is definitely not an image")},
		{"empty", nil},
		{"truncated png", encodePNG(t, solid(64, 64, color.Black))[:60]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, dir := newNormalizer(t, nil)

			_, err := n.Save(context.Background(), tt.data, "notes.txt")
			require.ErrorIs(t, err, imaging.ErrInvalidImage)
			assert.Empty(t, listFiles(t, dir))
		})
	}
}

// inflatePNGHeader rewrites the IHDR dimensions of a valid PNG so the header
// declares w x h while the pixel data stays tiny.
func inflatePNGHeader(t *testing.T, data []byte, w, h uint32) []byte {
	t.Helper()
	out := bytes.Clone(data)
	require.Equal(t, "IHDR", string(out[12:16]))
	binary.BigEndian.PutUint32(out[16:20], w)
	binary.BigEndian.PutUint32(out[20:24], h)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func TestSaveRejectsOversizedDimensions(t *testing.T) {
	t.Run("declared header over default limit", func(t *testing.T) {
		n, dir := newNormalizer(t, nil)
		data := inflatePNGHeader(t, encodePNG(t, solid(1, 1, color.White)), 14000, 14000)

		_, err := n.Save(context.Background(), data, "bomb.png")
		require.ErrorIs(t, err, imaging.ErrInvalidImage)
		assert.Empty(t, listFiles(t, dir))
	})

	t.Run("configured limit", func(t *testing.T) {
		n, dir := newNormalizer(t, &imaging.Config{MaxPixels: 100})

		_, err := n.Save(context.Background(), encodePNG(t, solid(20, 20, color.White)), "big.png")
		require.ErrorIs(t, err, imaging.ErrInvalidImage)
		assert.Empty(t, listFiles(t, dir))

		_, err = n.Save(context.Background(), encodePNG(t, solid(10, 10, color.White)), "fits.png")
		require.NoError(t, err)
		assert.Len(t, listFiles(t, dir), 1)
	})
}

func TestSaveGrayscaleJPEGStoredAsThreeChannels(t *testing.T) {
	n, _ := newNormalizer(t, nil)

	gray := image.NewGray(image.Rect(0, 0, 32, 32))
	for i := range gray.Pix {
		gray.Pix[i] = uint8(i % 256)
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, gray, nil))

	path, err := n.Save(context.Background(), buf.Bytes(), "scan.jpeg")
	require.NoError(t, err)
	assert.Equal(t, ".jpg", filepath.Ext(path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	decoded, err := jpeg.Decode(f)
	require.NoError(t, err)
	_, isYCbCr := decoded.(*image.YCbCr)
	assert.True(t, isYCbCr, "stored jpeg decoded as %T", decoded)
}

func TestSaveGIFKeepsAllFrames(t *testing.T) {
	n, _ := newNormalizer(t, nil)

	palette := color.Palette{color.Black, color.White}
	anim := &gif.GIF{}
	for range 3 {
		anim.Image = append(anim.Image, image.NewPaletted(image.Rect(0, 0, 4, 4), palette))
		anim.Delay = append(anim.Delay, 10)
	}
	var buf bytes.Buffer
	require.NoError(t, gif.EncodeAll(&buf, anim))

	path, err := n.Save(context.Background(), buf.Bytes(), "loop.gif")
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	stored, err := gif.DecodeAll(f)
	require.NoError(t, err)
	assert.Len(t, stored.Image, 3)
}

func TestSaveBMP(t *testing.T) {
	n, _ := newNormalizer(t, nil)

	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, solid(10, 10, color.White)))

	path, err := n.Save(context.Background(), buf.Bytes(), "")
	require.NoError(t, err)

	m := uniqueName.FindStringSubmatch(filepath.Base(path))
	require.NotNil(t, m)
	assert.Equal(t, "image", m[1])
	assert.Equal(t, "bmp", m[2])
}

func TestSaveRejectsDisallowedFormat(t *testing.T) {
	n, dir := newNormalizer(t, &imaging.Config{AllowedExtensions: []string{"jpg"}})

	_, err := n.Save(context.Background(), encodePNG(t, solid(4, 4, color.White)), "a.png")
	require.ErrorIs(t, err, imaging.ErrInvalidImage)
	assert.Empty(t, listFiles(t, dir))
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"My cool movie.mov", "My_cool_movie.mov"},
		{"../../../etc/passwd", "etc_passwd"},
		{"i contain cool \u00fcml\u00e4uts.txt", "i_contain_cool_umlauts.txt"},
		{`C:\photos\site 4.jpg`, "C_photos_site_4.jpg"},
		{"..hidden_", "hidden"},
		{"", ""},
		{"\u6f22\u5b57", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, imaging.SanitizeFilename(tt.in))
		})
	}
}

func TestUniqueName(t *testing.T) {
	tests := []struct {
		original string
		ext      string
		base     string
	}{
		{"crack.JPG", "jpg", "crack"},
		{"archive.tar.gz", "png", "archive.tar"},
		{"", "png", "image"},
		{".png", "png", "png"},
		{"\u6f22\u5b57.webp", "webp", "image"},
	}

	for _, tt := range tests {
		t.Run(tt.original, func(t *testing.T) {
			m := uniqueName.FindStringSubmatch(imaging.UniqueName(tt.original, tt.ext))
			require.NotNil(t, m)
			assert.Equal(t, tt.base, m[1])
			assert.Equal(t, tt.ext, m[2])
		})
	}
}

func TestCanonicalExtension(t *testing.T) {
	assert.Equal(t, "jpg", imaging.CanonicalExtension("jpeg"))
	assert.Equal(t, "jpg", imaging.CanonicalExtension("jfif"))
	assert.Equal(t, "webp", imaging.CanonicalExtension("webp"))
	assert.Equal(t, "image/jpeg", imaging.ContentType("jpg"))
	assert.Equal(t, "image/tiff", imaging.ContentType("tiff"))
}

func TestConfigFinalize(t *testing.T) {
	cfg := &imaging.Config{}
	require.NoError(t, cfg.Finalize(nil))
	assert.Equal(t, 90, cfg.JPEGQuality)
	assert.True(t, cfg.Allowed("JFIF"))
	assert.False(t, cfg.Allowed("mp4"))
	assert.Contains(t, cfg.VideoExtensions, "mp4")
	assert.Equal(t, imaging.DefaultMaxPixels, cfg.MaxPixels)

	t.Setenv("TEST_IMAGING_QUALITY", "150")
	bad := &imaging.Config{}
	assert.Error(t, bad.Finalize(&imaging.Env{JPEGQuality: "TEST_IMAGING_QUALITY"}))

	t.Setenv("TEST_IMAGING_MAX_PIXELS", "-1")
	negative := &imaging.Config{}
	assert.Error(t, negative.Finalize(&imaging.Env{MaxPixels: "TEST_IMAGING_MAX_PIXELS"}))
}
