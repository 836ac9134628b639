package onnx

import "image"

// candidate is a single YOLO output column above the confidence threshold.
type candidate struct {
	box   image.Rectangle
	score float32
	class int
}

// decodeOutput reads a YOLOv8-style output laid out as attrs rows by count
// columns: rows 0-3 hold cx, cy, w, h in input pixels and the remaining rows
// hold per-class scores. Boxes are scaled back to the source image.
func decodeOutput(data []float32, attrs, count int, scaleX, scaleY, threshold float32) []candidate {
	classes := attrs - 4
	if classes <= 0 || len(data) < attrs*count {
		return nil
	}

	at := func(attr, i int) float32 { return data[attr*count+i] }

	var out []candidate
	for i := range count {
		best, class := float32(0), -1
		for c := range classes {
			if s := at(4+c, i); s > best {
				best, class = s, c
			}
		}
		if class < 0 || best < threshold {
			continue
		}

		cx, cy, w, h := at(0, i), at(1, i), at(2, i), at(3, i)
		x0 := int((cx - w/2) * scaleX)
		y0 := int((cy - h/2) * scaleY)
		out = append(out, candidate{
			box:   image.Rect(x0, y0, x0+int(w*scaleX), y0+int(h*scaleY)),
			score: best,
			class: class,
		})
	}
	return out
}
