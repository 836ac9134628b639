// Package onnx runs YOLO object detection models exported to ONNX through
// the OpenCV DNN module.
package onnx

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/JaimeStill/sightline/internal/detection"
)

// Model is a detection.Model backed by an OpenCV DNN network.
// The network is not safe for concurrent forward passes, so Predict
// serializes access to it.
type Model struct {
	mu        sync.Mutex
	net       gocv.Net
	names     map[int]string
	inputSize int
	conf      float32
	nms       float32
	logger    *slog.Logger
}

// Load reads the network and class names described by cfg. A missing model
// file or unreadable network yields detection.ErrModelUnavailable.
func Load(cfg *detection.Config, logger *slog.Logger) (*Model, error) {
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("%w: model file not found: %s", detection.ErrModelUnavailable, cfg.ModelPath)
	}

	names, err := LoadLabels(cfg.LabelsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: labels %s: %v", detection.ErrModelUnavailable, cfg.LabelsPath, err)
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("%w: failed to load network %s", detection.ErrModelUnavailable, cfg.ModelPath)
	}

	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return nil, fmt.Errorf("%w: failed to set preferable backend or target", detection.ErrModelUnavailable)
	}

	logger.Info("detection network loaded", "model", cfg.ModelPath, "classes", len(names))

	return &Model{
		net:       net,
		names:     names,
		inputSize: cfg.InputSize,
		conf:      cfg.ConfidenceThreshold,
		nms:       cfg.NMSThreshold,
		logger:    logger.With("system", "detection", "provider", detection.ProviderONNX),
	}, nil
}

// Names returns the class name table.
func (m *Model) Names() map[int]string {
	return m.names
}

// Predict runs one forward pass over the image at path.
func (m *Model) Predict(ctx context.Context, path string) ([]detection.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img := gocv.IMRead(path, gocv.IMReadColor)
	defer img.Close()
	if img.Empty() {
		return nil, fmt.Errorf("%w: cannot read image %s", detection.ErrInference, path)
	}

	blob := gocv.BlobFromImage(img, 1.0/255.0, image.Pt(m.inputSize, m.inputSize), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	m.mu.Lock()
	m.net.SetInput(blob, "")
	output := m.net.Forward("")
	m.mu.Unlock()
	defer output.Close()

	sizes := output.Size()
	if len(sizes) != 3 {
		return nil, fmt.Errorf("%w: unexpected output shape %v", detection.ErrInference, sizes)
	}

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("%w: read output: %v", detection.ErrInference, err)
	}

	scaleX := float32(img.Cols()) / float32(m.inputSize)
	scaleY := float32(img.Rows()) / float32(m.inputSize)
	candidates := decodeOutput(data, sizes[1], sizes[2], scaleX, scaleY, m.conf)

	rects := make([]image.Rectangle, len(candidates))
	scores := make([]float32, len(candidates))
	for i, c := range candidates {
		rects[i] = c.box
		scores[i] = c.score
	}

	var pred detection.Prediction
	if len(candidates) > 0 {
		for _, idx := range gocv.NMSBoxes(rects, scores, m.conf, m.nms) {
			c := candidates[idx]
			pred.Boxes = append(pred.Boxes, detection.Box{
				Class:      c.class,
				Confidence: c.score,
				X:          c.box.Min.X,
				Y:          c.box.Min.Y,
				W:          c.box.Dx(),
				H:          c.box.Dy(),
			})
		}
	}

	m.logger.Debug("forward pass complete", "path", path, "candidates", len(candidates), "boxes", len(pred.Boxes))
	return []detection.Prediction{pred}, nil
}

// Close releases the network.
func (m *Model) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.net.Close()
}
