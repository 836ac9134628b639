// Package detection turns classifier output into the set of class labels
// recorded for an upload.
package detection

import (
	"context"
	"slices"
	"strconv"
	"strings"
)

const (
	// LabelModelMissing is recorded when no classifier is configured.
	LabelModelMissing = "model_missing"
	// LabelNone is recorded when the classifier found nothing.
	LabelNone = "None"
)

// Box is a single detection. Class indexes the model's name table.
type Box struct {
	Class      int
	Confidence float32
	X, Y, W, H int
}

// Prediction is the result for one input image.
type Prediction struct {
	Boxes []Box
}

// Model is an object detector operating on image files.
type Model interface {
	Predict(ctx context.Context, path string) ([]Prediction, error)
	Names() map[int]string
}

// Label is a resolved class name.
type Label struct {
	Name string
}

// Labels is a set of distinct class labels.
type Labels []Label

// Adapt resolves every box class through names, falling back to the decimal
// class index, and returns the distinct labels in first-seen order.
func Adapt(preds []Prediction, names map[int]string) Labels {
	seen := make(map[string]struct{})
	var labels Labels

	for _, p := range preds {
		for _, b := range p.Boxes {
			name, ok := names[b.Class]
			if !ok || name == "" {
				name = strconv.Itoa(b.Class)
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			labels = append(labels, Label{Name: name})
		}
	}

	return labels
}

// Names returns the label names sorted alphabetically.
func (l Labels) Names() []string {
	names := make([]string, len(l))
	for i, label := range l {
		names[i] = label.Name
	}
	slices.Sort(names)
	return slices.Compact(names)
}

// String renders the stored detected_classes value: sorted names joined by
// ", ", or "None" when empty.
func (l Labels) String() string {
	if len(l) == 0 {
		return LabelNone
	}
	return strings.Join(l.Names(), ", ")
}
