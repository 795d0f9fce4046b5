package detection

import (
	"errors"
	"fmt"
	"image"

	"github.com/ironsheep/plate-detect/internal/imaging"
)

// Stages holds the intermediate images of one search iteration.
type Stages struct {
	Threshold float64
	Binary    *imaging.Frame
	Edges     *imaging.Frame
	Dilated   *imaging.Frame
}

// Release releases every frame still held. Frames that were already released
// are skipped, so Release is safe to call on every exit path.
func (s *Stages) Release() error {
	if s == nil {
		return nil
	}
	var errs []error
	for _, f := range []*imaging.Frame{s.Binary, s.Edges, s.Dilated} {
		if f == nil || f.Released() {
			continue
		}
		errs = append(errs, f.Release())
	}
	return errors.Join(errs...)
}

// runChain binarizes gray at threshold, detects edges and dilates them.
// On failure every frame produced so far is released before returning.
func runChain(gray *image.Gray, threshold float64, cfg Config, ledger *imaging.Ledger) (*Stages, error) {
	stages := &Stages{Threshold: threshold}

	binary, err := imaging.Binarize(gray, threshold)
	if err != nil {
		return nil, fmt.Errorf("binarize at %.2f: %w", threshold, err)
	}
	stages.Binary = ledger.Track(binary)

	edges, err := imaging.DetectEdges(binary, cfg.ReduceNoise)
	if err != nil {
		_ = stages.Release()
		return nil, fmt.Errorf("edge detection at %.2f: %w", threshold, err)
	}
	stages.Edges = ledger.Track(edges)

	dilated, err := imaging.Dilate(edges, cfg.DilateIterations)
	if err != nil {
		_ = stages.Release()
		return nil, fmt.Errorf("dilate at %.2f: %w", threshold, err)
	}
	stages.Dilated = ledger.Track(dilated)

	return stages, nil
}

// extract labels the dilated frame using the policy as an inline filter.
func extract(dilated *imaging.Frame, policy Policy) (*Candidates, error) {
	img := dilated.Gray()
	if img == nil {
		return nil, imaging.ErrReleased
	}
	return newCandidates(FindBlobs(img, policy.Accept)), nil
}
