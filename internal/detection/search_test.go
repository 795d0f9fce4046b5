package detection

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/ironsheep/plate-detect/internal/imaging"
)

// createPlateImage returns a black image with a single white plate-shaped rectangle.
func createPlateImage(width, height int, plate image.Rectangle) *image.RGBA {
	return createTwoToneImage(width, height, color.Black, color.White, plate)
}

// createSquareImage returns a black image with a single white size x size square.
func createSquareImage(width, height, size int) *image.RGBA {
	x := (width - size) / 2
	y := (height - size) / 2
	return createTwoToneImage(width, height, color.Black, color.White, image.Rect(x, y, x+size, y+size))
}

func createTwoToneImage(width, height int, bg, fg color.Color, r image.Rectangle) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if (image.Point{x, y}).In(r) {
				img.Set(x, y, fg)
			} else {
				img.Set(x, y, bg)
			}
		}
	}
	return img
}

var plateRect = image.Rect(125, 75, 275, 125)

func TestSearch_FirstThresholdWins(t *testing.T) {
	gray := imaging.ToGray(createPlateImage(400, 200, plateRect))
	ledger := imaging.NewLedger()

	var traced []Attempt
	result, err := Search(gray, DefaultConfig(), ledger, func(a Attempt) { traced = append(traced, a) })
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	defer result.Release()

	if !result.Found() {
		t.Fatal("plate should be found")
	}
	if result.Threshold != 0.1 || result.Iterations() != 1 {
		t.Errorf("threshold %v after %d iterations, want 0.1 after 1", result.Threshold, result.Iterations())
	}
	if len(traced) != 1 || traced[0] != result.Attempts[0] {
		t.Errorf("trace: got %+v, want %+v", traced, result.Attempts)
	}
	if result.Candidates.Len() != 1 {
		t.Fatalf("candidates: got %d, want 1", result.Candidates.Len())
	}

	box := result.Candidates.Boxes()[0]
	if box.W < 150 || box.W > 158 || box.H < 50 || box.H > 58 {
		t.Errorf("box size: got %dx%d, want about 150x50", box.W, box.H)
	}
	if !box.Rect().Overlaps(plateRect) {
		t.Errorf("box %v does not cover the plate %v", box.Rect(), plateRect)
	}
	if ledger.Live() != 3 {
		t.Errorf("live frames: got %d, want 3 (binary, edges, dilated)", ledger.Live())
	}
}

func TestSearch_LaterThreshold(t *testing.T) {
	// Background 150 and plate 200 binarize apart only once the cutoff exceeds 150.
	img := createTwoToneImage(400, 200, color.Gray{Y: 150}, color.Gray{Y: 200}, plateRect)
	gray := imaging.ToGray(img)
	ledger := imaging.NewLedger()

	result, err := Search(gray, DefaultConfig(), ledger, nil)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if result.Threshold != 0.6 {
		t.Errorf("threshold: got %v, want 0.6", result.Threshold)
	}
	if result.Iterations() != 6 {
		t.Errorf("iterations: got %d, want 6", result.Iterations())
	}
	for i, a := range result.Attempts[:len(result.Attempts)-1] {
		if a.Accepted != 0 {
			t.Errorf("attempt %d at %v accepted %d, want 0", i, a.Threshold, a.Accepted)
		}
	}

	// Earlier iterations were released as the search moved on.
	if ledger.Produced() != 18 || ledger.Live() != 3 {
		t.Errorf("ledger: produced %d live %d, want 18 and 3", ledger.Produced(), ledger.Live())
	}
	if err := result.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if ledger.Live() != 0 {
		t.Errorf("live after release: got %d, want 0", ledger.Live())
	}
}

func TestSearch_Exhaustion(t *testing.T) {
	gray := imaging.ToGray(createSquareImage(200, 200, 40))
	ledger := imaging.NewLedger()

	result, err := Search(gray, DefaultConfig(), ledger, nil)
	if !errors.Is(err, ErrNoPlateFound) {
		t.Fatalf("Search: got %v, want ErrNoPlateFound", err)
	}
	if result == nil {
		t.Fatal("exhaustion should still return the final iteration")
	}
	if result.Found() {
		t.Error("Found should be false on exhaustion")
	}
	if result.Iterations() != 10 {
		t.Errorf("iterations: got %d, want 10", result.Iterations())
	}
	if result.Threshold != 1.0 {
		t.Errorf("final threshold: got %v, want 1.0", result.Threshold)
	}
	for i := 1; i < len(result.Attempts); i++ {
		if result.Attempts[i].Threshold <= result.Attempts[i-1].Threshold {
			t.Errorf("thresholds not increasing at %d: %+v", i, result.Attempts)
		}
	}
	if result.Stages == nil || result.Stages.Dilated.Released() {
		t.Error("final iteration frames should be kept for diagnostics")
	}

	if ledger.Produced() != 30 || ledger.Live() != 3 {
		t.Errorf("ledger: produced %d live %d, want 30 and 3", ledger.Produced(), ledger.Live())
	}
	if err := result.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if ledger.Live() != 0 {
		t.Errorf("live after release: got %d, want 0", ledger.Live())
	}
}

func TestSearch_RunsAtBound(t *testing.T) {
	gray := imaging.ToGray(createSquareImage(100, 100, 20))
	cfg := DefaultConfig()
	cfg.InitialThreshold = 0.5
	cfg.ThresholdStep = 0.25

	result, err := Search(gray, cfg, nil, nil)
	if !errors.Is(err, ErrNoPlateFound) {
		t.Fatalf("Search: got %v, want ErrNoPlateFound", err)
	}
	defer result.Release()

	want := []float64{0.5, 0.75, 1.0}
	if len(result.Attempts) != len(want) {
		t.Fatalf("attempts: got %+v, want thresholds %v", result.Attempts, want)
	}
	for i, w := range want {
		if result.Attempts[i].Threshold != w {
			t.Errorf("attempt %d: got %v, want %v", i, result.Attempts[i].Threshold, w)
		}
	}
}

func TestSearch_Deterministic(t *testing.T) {
	gray := imaging.ToGray(createPlateImage(400, 200, plateRect))

	first, err := Search(gray, DefaultConfig(), nil, nil)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	defer first.Release()
	second, err := Search(gray, DefaultConfig(), nil, nil)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	defer second.Release()

	a, b := first.Candidates.Boxes(), second.Candidates.Boxes()
	if len(a) != len(b) {
		t.Fatalf("candidate counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("candidate %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestSearch_InvalidInput(t *testing.T) {
	gray := imaging.ToGray(createSquareImage(50, 50, 10))

	cfg := DefaultConfig()
	cfg.ThresholdStep = 0
	if _, err := Search(gray, cfg, nil, nil); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("zero step: got %v, want ErrInvalidConfig", err)
	}
	if _, err := Search(image.NewGray(image.Rectangle{}), DefaultConfig(), nil, nil); !errors.Is(err, imaging.ErrEmptyImage) {
		t.Errorf("empty image: got %v, want ErrEmptyImage", err)
	}
	if _, err := Search(nil, DefaultConfig(), nil, nil); !errors.Is(err, imaging.ErrEmptyImage) {
		t.Errorf("nil image: got %v, want ErrEmptyImage", err)
	}
}

func TestResult_ReleaseTwice(t *testing.T) {
	gray := imaging.ToGray(createPlateImage(400, 200, plateRect))
	result, err := Search(gray, DefaultConfig(), nil, nil)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if err := result.Release(); err != nil {
		t.Fatalf("first Release failed: %v", err)
	}
	if err := result.Release(); err != nil {
		t.Errorf("Release should skip what is already released, got %v", err)
	}
	if result.Candidates.Boxes() != nil {
		t.Error("candidates should be gone after release")
	}
}
