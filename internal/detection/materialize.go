package detection

import (
	"fmt"
	"image"
	"image/color"

	"github.com/ironsheep/plate-detect/internal/imaging"
)

// Style controls how candidates are drawn on the annotated copy.
type Style struct {
	// LineWidth is the outline thickness in pixels.
	LineWidth int `json:"line_width"`

	// Color is the outline color as "#RRGGBB".
	Color string `json:"color"`

	// Labels draws "#index score" above each outline.
	Labels bool `json:"labels"`
}

// DefaultStyle draws 5px rose outlines without labels.
func DefaultStyle() Style {
	return Style{
		LineWidth: 5,
		Color:     "#FF00E1",
	}
}

// Artifacts are the outputs of a successful detection.
type Artifacts struct {
	// Best is the first candidate in extraction order.
	Best Box

	// Cropped is Best cut out of the original color image.
	Cropped *image.NRGBA

	// Annotated is a copy of the original with every candidate outlined.
	Annotated *image.NRGBA
}

// Materialize crops the best candidate out of original and outlines every
// candidate on a copy of it. The best candidate is simply the first one; no
// score-based ranking takes place.
//
// The candidate list is released before Materialize returns, on success and
// on failure. original is never modified.
func Materialize(original image.Image, candidates *Candidates, style Style) (_ *Artifacts, err error) {
	if candidates.Released() {
		return nil, ErrCandidatesReleased
	}
	defer func() {
		if rerr := candidates.Release(); rerr != nil && err == nil {
			err = rerr
		}
	}()

	boxes := candidates.Boxes()
	if len(boxes) == 0 {
		return nil, fmt.Errorf("materialize: %w", ErrNoPlateFound)
	}

	outline, err := imaging.ParseColor(style.Color)
	if err != nil {
		return nil, err
	}

	best := boxes[0]
	cropped, err := imaging.Crop(original, best.Rect())
	if err != nil {
		return nil, fmt.Errorf("crop best candidate: %w", err)
	}

	annotated := imaging.Clone(original)
	offset := original.Bounds().Min
	for i, b := range boxes {
		r := b.Rect().Sub(offset)
		imaging.DrawRectOutline(annotated, r, style.LineWidth, outline)
		if style.Labels {
			label := fmt.Sprintf("#%d %.2f", i, b.Score)
			imaging.DrawLabel(annotated, r.Min.X, labelY(r), label, color.White, outline)
		}
	}

	return &Artifacts{
		Best:      best,
		Cropped:   cropped,
		Annotated: annotated,
	}, nil
}

// labelY places a label just above the box, or inside it at the top edge.
func labelY(r image.Rectangle) int {
	const labelHeight = 15
	if r.Min.Y >= labelHeight {
		return r.Min.Y - labelHeight
	}
	return r.Min.Y
}
