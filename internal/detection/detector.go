package detection

import (
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/ironsheep/plate-detect/internal/imaging"
)

var errMissingArtifacts = errors.New("detection has no artifacts")

// Status is the terminal outcome of a detection run.
type Status string

const (
	StatusFound      Status = "found"
	StatusNotFound   Status = "not_found"
	StatusLoadFailed Status = "load_failed"
)

// Detector runs the full plate pipeline: grayscale conversion, adaptive
// threshold search and result materialization.
type Detector struct {
	Config Config
	Style  Style

	// Logger receives per-iteration search traces. Nil disables them.
	Logger *log.Logger

	// Ledger counts live stage frames. Nil disables counting.
	Ledger *imaging.Ledger
}

// New returns a detector with the default style.
func New(cfg Config) *Detector {
	return &Detector{
		Config: cfg,
		Style:  DefaultStyle(),
	}
}

// Detection is the outcome of one run over one image.
type Detection struct {
	RunID  string
	Status Status

	// Gray is the grayscale view the search ran on.
	Gray *image.Gray

	// Result holds the final iteration's frames. Release it when done.
	Result *Result

	// Boxes are the accepted candidates of the successful iteration.
	Boxes []Box

	// Artifacts is nil unless Status is StatusFound.
	Artifacts *Artifacts
}

// Release releases the frames held by the detection.
func (d *Detection) Release() error {
	if d == nil {
		return nil
	}
	return d.Result.Release()
}

// DetectFile loads path and runs Detect on it. Load failures wrap
// imaging.ErrLoad and produce no Detection.
func (d *Detector) DetectFile(path string) (*Detection, error) {
	original, err := imaging.LoadColor(path)
	if err != nil {
		return nil, err
	}
	return d.Detect(original)
}

// Detect runs the pipeline over a decoded color image.
//
// Search exhaustion is not an error: the Detection comes back with
// StatusNotFound and no artifacts. Errors are reserved for stage faults.
func (d *Detector) Detect(original image.Image) (*Detection, error) {
	gray := imaging.ToGray(original)

	var trace func(Attempt)
	if d.Logger != nil {
		trace = func(a Attempt) {
			d.Logger.Printf("threshold %.2f: %d candidate(s)", a.Threshold, a.Accepted)
		}
	}

	result, err := Search(gray, d.Config, d.Ledger, trace)
	det := &Detection{
		RunID:  uuid.NewString(),
		Gray:   gray,
		Result: result,
	}
	switch {
	case errors.Is(err, ErrNoPlateFound):
		det.Status = StatusNotFound
		return det, nil
	case err != nil:
		return nil, err
	}

	det.Boxes = result.Candidates.Boxes()
	artifacts, err := Materialize(original, result.Candidates, d.Style)
	if err != nil {
		_ = result.Release()
		return nil, err
	}
	det.Status = StatusFound
	det.Artifacts = artifacts
	return det, nil
}

// DiagnosticPaths names the files diagnostic images are written to.
// Empty paths are skipped.
type DiagnosticPaths struct {
	Grayscale string
	Binary    string
	Canny     string
	Dilate    string
	Cropped   string
}

// DiagnosticsIn returns the conventional diagnostic file names inside dir.
func DiagnosticsIn(dir string) DiagnosticPaths {
	return DiagnosticPaths{
		Grayscale: filepath.Join(dir, "grayscale_plate.png"),
		Binary:    filepath.Join(dir, "binary_plate.png"),
		Canny:     filepath.Join(dir, "canny_plate.png"),
		Dilate:    filepath.Join(dir, "dilate_plate.png"),
		Cropped:   filepath.Join(dir, "cropped_plate.png"),
	}
}

type diagnostic struct {
	path string
	img  image.Image
}

// SaveDiagnostics writes the grayscale view, the final iteration's stage
// images and, when a plate was found, the cropped plate. It runs on both
// found and not-found outcomes; without a plate any existing crop file is
// removed. Frames must not have been released yet.
func (d *Detection) SaveDiagnostics(paths DiagnosticPaths) error {
	writes := []diagnostic{{paths.Grayscale, grayOrNil(d.Gray)}}
	if d.Result != nil && d.Result.Stages != nil {
		s := d.Result.Stages
		writes = append(writes,
			diagnostic{paths.Binary, grayOrNil(s.Binary.Gray())},
			diagnostic{paths.Canny, grayOrNil(s.Edges.Gray())},
			diagnostic{paths.Dilate, grayOrNil(s.Dilated.Gray())},
		)
	}
	if d.Artifacts != nil {
		writes = append(writes, diagnostic{paths.Cropped, d.Artifacts.Cropped})
	}

	for _, w := range writes {
		if w.path == "" {
			continue
		}
		if w.img == nil {
			return fmt.Errorf("diagnostic %s: %w", w.path, imaging.ErrReleased)
		}
		if err := os.MkdirAll(filepath.Dir(w.path), 0755); err != nil {
			return fmt.Errorf("failed to create diagnostics directory: %w", err)
		}
		if err := imaging.Save(w.img, w.path); err != nil {
			return err
		}
	}

	// A crop left over from an earlier run would read as this run's plate.
	if d.Artifacts == nil && paths.Cropped != "" {
		if err := os.Remove(paths.Cropped); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove stale %s: %w", paths.Cropped, err)
		}
	}
	return nil
}

// SaveAnnotated writes the annotated copy. It fails for detections without artifacts.
func (d *Detection) SaveAnnotated(path string) error {
	if d.Artifacts == nil {
		return errMissingArtifacts
	}
	return imaging.Save(d.Artifacts.Annotated, path)
}

// grayOrNil keeps a nil *image.Gray from turning into a non-nil image.Image.
func grayOrNil(g *image.Gray) image.Image {
	if g == nil {
		return nil
	}
	return g
}
