package inference

import (
	"image"

	"crashalert-model-service/internal/models"
)

// candidate is one pre-NMS box decoded from the raw model output
type candidate struct {
	classID int
	score   float32
	rect    image.Rectangle
}

// decodeYOLO reads a YOLOv8-style output laid out as rows = 4 + classes,
// cols = anchors. Rows 0-3 hold cx, cy, w, h in model-input pixels and the
// remaining rows hold per-class scores. Boxes are scaled by sx, sy back to
// source pixels.
func decodeYOLO(rows, cols int, at func(row, col int) float32, sx, sy, minScore float32) []candidate {
	if rows <= 4 {
		return nil
	}

	var out []candidate
	for j := 0; j < cols; j++ {
		bestClass, bestScore := -1, float32(0)
		for r := 4; r < rows; r++ {
			if s := at(r, j); s > bestScore {
				bestClass, bestScore = r-4, s
			}
		}
		if bestClass < 0 || bestScore < minScore {
			continue
		}

		cx, cy, w, h := at(0, j)*sx, at(1, j)*sy, at(2, j)*sx, at(3, j)*sy
		x0, y0 := int(cx-w/2), int(cy-h/2)
		out = append(out, candidate{
			classID: bestClass,
			score:   bestScore,
			rect:    image.Rect(x0, y0, x0+int(w), y0+int(h)),
		})
	}
	return out
}

func toDetections(cands []candidate, keep []int) []models.Detection {
	dets := make([]models.Detection, 0, len(keep))
	for _, idx := range keep {
		if idx < 0 || idx >= len(cands) {
			continue
		}
		c := cands[idx]
		dets = append(dets, models.Detection{
			ClassID:    c.classID,
			Confidence: float64(c.score),
			Box: models.BoundingBox{
				X:      float64(c.rect.Min.X),
				Y:      float64(c.rect.Min.Y),
				Width:  float64(c.rect.Dx()),
				Height: float64(c.rect.Dy()),
			},
		})
	}
	return dets
}
