// Package metrics scores a predicted water mask against a ground-truth mask.
// The scores validate the segmentation pipeline; they are not the downstream
// infrastructure-impact estimate, which consumes full-resolution masks as an
// external collaborator.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"floodseg/pkg/raster"
)

// Scores holds the mask-vs-mask quality metrics.
type Scores struct {
	// IoU is the intersection over union of the water class (Jaccard
	// index). 1 is a perfect match.
	IoU float64

	// Precision is the fraction of predicted water pixels that are water
	// in the ground truth.
	Precision float64

	// Recall is the fraction of true water pixels the prediction found.
	Recall float64

	// F1 is the harmonic mean of precision and recall (Dice coefficient).
	F1 float64

	// PixelAccuracy is the fraction of pixels classified correctly,
	// water or not.
	PixelAccuracy float64

	// Correlation is the Pearson correlation between the two masks; it
	// penalizes both missed and hallucinated water.
	Correlation float64
}

// Compare scores a predicted binary mask against the ground truth. Both
// buffers must have the same length; values are treated as water when >= 0.5
// so thresholded confidences work unmodified.
func Compare(predicted, truth []float64) (Scores, error) {
	if len(predicted) != len(truth) {
		return Scores{}, &raster.ShapeError{
			Context: "mask comparison",
			Want:    raster.Shape{Bands: 1, Width: len(truth), Height: 1},
			Got:     raster.Shape{Bands: 1, Width: len(predicted), Height: 1},
		}
	}

	var tp, fp, fn, tn float64
	for i := range predicted {
		p := predicted[i] >= 0.5
		t := truth[i] >= 0.5
		switch {
		case p && t:
			tp++
		case p && !t:
			fp++
		case !p && t:
			fn++
		default:
			tn++
		}
	}

	var s Scores
	if union := tp + fp + fn; union > 0 {
		s.IoU = tp / union
	} else {
		// Neither mask contains water; a vacuous but perfect match.
		s.IoU = 1
	}
	if tp+fp > 0 {
		s.Precision = tp / (tp + fp)
	}
	if tp+fn > 0 {
		s.Recall = tp / (tp + fn)
	}
	if s.Precision+s.Recall > 0 {
		s.F1 = 2 * s.Precision * s.Recall / (s.Precision + s.Recall)
	}
	if n := tp + fp + fn + tn; n > 0 {
		s.PixelAccuracy = (tp + tn) / n
	}

	s.Correlation = stat.Correlation(predicted, truth, nil)
	if math.IsNaN(s.Correlation) {
		// Constant masks have zero variance; fall back to agreement.
		if s.PixelAccuracy == 1 {
			s.Correlation = 1
		} else {
			s.Correlation = 0
		}
	}

	return s, nil
}

// ChangedPixels counts pixels that flipped between two co-registered masks,
// e.g. a pre-event and post-event flood mask. Gained counts dry-to-water
// transitions, lost the reverse.
func ChangedPixels(before, after []float64) (gained, lost int, err error) {
	if len(before) != len(after) {
		return 0, 0, &raster.ShapeError{
			Context: "mask change",
			Want:    raster.Shape{Bands: 1, Width: len(before), Height: 1},
			Got:     raster.Shape{Bands: 1, Width: len(after), Height: 1},
		}
	}

	for i := range before {
		b := before[i] >= 0.5
		a := after[i] >= 0.5
		if !b && a {
			gained++
		} else if b && !a {
			lost++
		}
	}
	return gained, lost, nil
}
