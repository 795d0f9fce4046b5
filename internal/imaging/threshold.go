package imaging

import (
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/segment"
)

// Binarize produces a two-level image: pixels whose luminance reaches the
// threshold become white (255), all others black (0).
//
// The threshold is on a normalized [0,1] scale and is mapped to the 8-bit
// cutoff round(threshold*255).
func Binarize(src image.Image, threshold float64) (*image.Gray, error) {
	if src.Bounds().Empty() {
		return nil, ErrEmptyImage
	}
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("threshold %v outside [0,1]", threshold)
	}
	return segment.Threshold(src, ThresholdLevel(threshold)), nil
}

// ThresholdLevel maps a normalized threshold to its 8-bit cutoff.
func ThresholdLevel(threshold float64) uint8 {
	return uint8(math.Round(threshold * 255))
}
