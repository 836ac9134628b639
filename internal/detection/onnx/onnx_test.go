package onnx

import (
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/sightline/internal/detection"
	"github.com/JaimeStill/sightline/pkg/logging"
)

func TestParseLabelsPlain(t *testing.T) {
	names, err := ParseLabels(strings.NewReader("small\n\n# comment\nmedium\nlarge\n"))
	require.NoError(t, err)
	assert.Equal(t, map[int]string{0: "small", 1: "medium", 2: "large"}, names)
}

func TestParseLabelsIndexed(t *testing.T) {
	names, err := ParseLabels(strings.NewReader("0: small-crack\n2: 'large-crack'\nextra\n"))
	require.NoError(t, err)
	assert.Equal(t, map[int]string{0: "small-crack", 2: "large-crack", 3: "extra"}, names)
}

func TestParseLabelsEmpty(t *testing.T) {
	_, err := ParseLabels(strings.NewReader("\n# only comments\n"))
	assert.Error(t, err)
}

func TestDecodeOutput(t *testing.T) {
	// two classes, three candidate columns
	const count = 3
	data := []float32{
		// cx
		100, 320, 50,
		// cy
		100, 320, 50,
		// w
		40, 64, 10,
		// h
		20, 64, 10,
		// class 0
		0.9, 0.1, 0.05,
		// class 1
		0.2, 0.8, 0.1,
	}

	got := decodeOutput(data, 6, count, 2, 0.5, 0.25)
	require.Len(t, got, 2)

	assert.Equal(t, 0, got[0].class)
	assert.InDelta(t, 0.9, got[0].score, 1e-6)
	assert.Equal(t, image.Rect(160, 45, 240, 55), got[0].box)

	assert.Equal(t, 1, got[1].class)
	assert.Equal(t, image.Rect(576, 144, 704, 176), got[1].box)
}

func TestDecodeOutputMalformed(t *testing.T) {
	assert.Nil(t, decodeOutput([]float32{1, 2, 3, 4}, 4, 1, 1, 1, 0.1))
	assert.Nil(t, decodeOutput([]float32{1, 2}, 6, 3, 1, 1, 0.1))
}

func TestLoadMissingModel(t *testing.T) {
	cfg := &detection.Config{ModelPath: filepath.Join(t.TempDir(), "best.onnx")}
	require.NoError(t, cfg.Finalize(nil))

	_, err := Load(cfg, logging.Discard())
	assert.ErrorIs(t, err, detection.ErrModelUnavailable)
}

func TestLoadMissingLabels(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "best.onnx")
	require.NoError(t, os.WriteFile(model, []byte("not a network"), 0o644))

	cfg := &detection.Config{ModelPath: model, LabelsPath: filepath.Join(dir, "labels.txt")}
	require.NoError(t, cfg.Finalize(nil))

	_, err := Load(cfg, logging.Discard())
	assert.ErrorIs(t, err, detection.ErrModelUnavailable)
}
