package detection

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is wrapped by every configuration validation failure.
var ErrInvalidConfig = errors.New("invalid detection config")

// Policy is the geometric acceptance test applied to every candidate region.
//
// The defaults approximate the silhouette of a US licence plate: a wide
// rectangle close to 3:1 that is neither tiny noise nor most of the frame.
type Policy struct {
	// A region is rejected when it is wider than MaxWidth AND taller than MaxHeight.
	MaxWidth  int `json:"max_width"`
	MaxHeight int `json:"max_height"`

	// A region is rejected when it is narrower than MinWidth OR shorter than MinHeight.
	MinWidth  int `json:"min_width"`
	MinHeight int `json:"min_height"`

	// Inclusive band for width/height.
	MinAspect float64 `json:"min_aspect"`
	MaxAspect float64 `json:"max_aspect"`
}

// DefaultPolicy returns the US plate heuristic.
func DefaultPolicy() Policy {
	return Policy{
		MaxWidth:  300,
		MaxHeight: 200,
		MinWidth:  25,
		MinHeight: 25,
		MinAspect: 2.7,
		MaxAspect: 3.3,
	}
}

// Accept reports whether a w×h region is plausible as a plate.
// Non-positive extents are always rejected.
func (p Policy) Accept(w, h int) bool {
	if w <= 0 || h <= 0 {
		return false
	}
	if w > p.MaxWidth && h > p.MaxHeight {
		return false
	}
	if w < p.MinWidth || h < p.MinHeight {
		return false
	}
	aspect := float64(w) / float64(h)
	return aspect >= p.MinAspect && aspect <= p.MaxAspect
}

// Validate checks that the policy can accept at least some region.
func (p Policy) Validate() error {
	if p.MinWidth < 1 || p.MinHeight < 1 {
		return fmt.Errorf("%w: minimum extents must be positive", ErrInvalidConfig)
	}
	if p.MinAspect <= 0 || p.MaxAspect < p.MinAspect {
		return fmt.Errorf("%w: aspect band [%v, %v]", ErrInvalidConfig, p.MinAspect, p.MaxAspect)
	}
	return nil
}
