package detection

import (
	"fmt"
	"math"
)

// Config holds the tunable parameters of the adaptive threshold search.
type Config struct {
	// InitialThreshold is the first binarization cutoff tried, on a [0,1] scale.
	InitialThreshold float64 `json:"initial_threshold"`

	// ThresholdStep is added after every iteration that yields no candidate.
	ThresholdStep float64 `json:"threshold_step"`

	// ThresholdBound is the last threshold that may be tried (inclusive).
	ThresholdBound float64 `json:"threshold_bound"`

	// DilateIterations is how many times the edge map is grown before labelling.
	DilateIterations int `json:"dilate_iterations"`

	// ReduceNoise enables the Gaussian pass of the edge detector.
	ReduceNoise bool `json:"reduce_noise"`

	// Policy filters candidate regions.
	Policy Policy `json:"policy"`
}

// DefaultConfig returns the parameters the detector was tuned with.
func DefaultConfig() Config {
	return Config{
		InitialThreshold: 0.1,
		ThresholdStep:    0.1,
		ThresholdBound:   1.0,
		DilateIterations: 2,
		ReduceNoise:      true,
		Policy:           DefaultPolicy(),
	}
}

// Validate rejects configurations that would not terminate or that ask the
// binarizer for cutoffs outside [0,1].
func (c Config) Validate() error {
	if math.IsNaN(c.ThresholdStep) || c.ThresholdStep <= 0 {
		return fmt.Errorf("%w: threshold step must be positive, got %v", ErrInvalidConfig, c.ThresholdStep)
	}
	if c.ThresholdStep < thresholdResolution || c.thresholdAt(1) <= c.thresholdAt(0) {
		return fmt.Errorf("%w: threshold step %v below resolution %v", ErrInvalidConfig, c.ThresholdStep, thresholdResolution)
	}
	if math.IsNaN(c.InitialThreshold) || c.InitialThreshold <= 0 || c.InitialThreshold > 1 {
		return fmt.Errorf("%w: initial threshold %v outside (0,1]", ErrInvalidConfig, c.InitialThreshold)
	}
	if math.IsNaN(c.ThresholdBound) || c.ThresholdBound > 1 {
		return fmt.Errorf("%w: threshold bound %v above 1", ErrInvalidConfig, c.ThresholdBound)
	}
	if c.InitialThreshold > c.ThresholdBound {
		return fmt.Errorf("%w: initial threshold %v above bound %v", ErrInvalidConfig, c.InitialThreshold, c.ThresholdBound)
	}
	if c.DilateIterations < 0 {
		return fmt.Errorf("%w: dilate iterations must be >= 0, got %d", ErrInvalidConfig, c.DilateIterations)
	}
	return c.Policy.Validate()
}

// Scheduled thresholds are rounded to multiples of thresholdResolution.
const (
	thresholdScale      = 1e9
	thresholdResolution = 1 / thresholdScale
)

// thresholdAt returns the i-th threshold of the schedule. Values are computed
// from the index rather than accumulated so that the bound is hit exactly.
func (c Config) thresholdAt(i int) float64 {
	t := c.InitialThreshold + float64(i)*c.ThresholdStep
	return math.Round(t*thresholdScale) / thresholdScale
}
