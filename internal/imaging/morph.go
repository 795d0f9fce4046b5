package imaging

import (
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/effect"
)

// Dilate grows bright regions by one pixel per iteration using a 3x3
// neighbourhood maximum. Zero iterations returns an unchanged copy.
func Dilate(src *image.Gray, iterations int) (*image.Gray, error) {
	if src.Bounds().Empty() {
		return nil, ErrEmptyImage
	}
	if iterations < 0 {
		return nil, fmt.Errorf("dilate iterations must be >= 0, got %d", iterations)
	}

	out := ToGray(src)
	for i := 0; i < iterations; i++ {
		out = ToGray(effect.Dilate(out, 1))
	}
	return out, nil
}
