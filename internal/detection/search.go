package detection

import (
	"errors"
	"fmt"
	"image"

	"github.com/ironsheep/plate-detect/internal/imaging"
)

// ErrNoPlateFound reports that no threshold up to the bound produced an
// accepted candidate. It is an expected outcome, not a fault.
var ErrNoPlateFound = errors.New("no plate found")

// Attempt records one iteration of the threshold search.
type Attempt struct {
	Threshold float64 `json:"threshold"`
	Accepted  int     `json:"accepted"`
}

// Result is the outcome of a threshold search.
//
// The caller owns the intermediate frames and the candidate list and must
// call Release once it no longer needs them.
type Result struct {
	// Threshold that produced Candidates (the last one tried on exhaustion).
	Threshold float64

	// Candidates accepted at Threshold, in extraction order. Empty on exhaustion.
	Candidates *Candidates

	// Stages are the binary, edge and dilated images of the final iteration.
	Stages *Stages

	// Attempts lists every threshold tried, in order.
	Attempts []Attempt
}

// Found reports whether the search ended with at least one candidate.
func (r *Result) Found() bool {
	return r != nil && r.Candidates.Len() > 0
}

// Iterations returns the number of thresholds tried.
func (r *Result) Iterations() int {
	if r == nil {
		return 0
	}
	return len(r.Attempts)
}

// Release releases the final iteration's frames and, if still held, its candidate list.
func (r *Result) Release() error {
	if r == nil {
		return nil
	}
	var errs []error
	if r.Candidates != nil && !r.Candidates.Released() {
		errs = append(errs, r.Candidates.Release())
	}
	errs = append(errs, r.Stages.Release())
	return errors.Join(errs...)
}

// Search drives the stage chain over increasing thresholds until an
// iteration yields at least one accepted candidate or the bound is passed.
//
// The first successful threshold wins; later thresholds are never tried.
// On exhaustion the returned Result still carries the last iteration's
// frames for diagnostics, together with ErrNoPlateFound. Any other error
// is a stage fault and no Result is returned.
//
// Each iteration's frames and candidate list are released before the next
// iteration starts, so a failed threshold never leaks its buffers.
func Search(gray *image.Gray, cfg Config, ledger *imaging.Ledger, trace func(Attempt)) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if gray == nil || gray.Bounds().Empty() {
		return nil, imaging.ErrEmptyImage
	}

	result := &Result{}
	for i := 0; ; i++ {
		threshold := cfg.thresholdAt(i)
		if threshold > cfg.ThresholdBound {
			break
		}

		if err := result.Release(); err != nil {
			return nil, fmt.Errorf("release iteration %d: %w", i, err)
		}

		stages, err := runChain(gray, threshold, cfg, ledger)
		if err != nil {
			return nil, err
		}
		candidates, err := extract(stages.Dilated, cfg.Policy)
		if err != nil {
			_ = stages.Release()
			return nil, fmt.Errorf("extract at %.2f: %w", threshold, err)
		}

		attempt := Attempt{Threshold: threshold, Accepted: candidates.Len()}
		result.Threshold = threshold
		result.Stages = stages
		result.Candidates = candidates
		result.Attempts = append(result.Attempts, attempt)
		if trace != nil {
			trace(attempt)
		}

		if candidates.Len() > 0 {
			return result, nil
		}
	}

	return result, ErrNoPlateFound
}
