package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/plate-detect/internal/detection"
)

// writeImage saves a black width x height PNG with a white rect.
func writeImage(t *testing.T, dir string, width, height int, rect image.Rectangle) string {
	t.Helper()

	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}

	path := filepath.Join(dir, "plate.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestRun_Found(t *testing.T) {
	dir := t.TempDir()
	input := writeImage(t, dir, 400, 200, image.Rect(125, 75, 275, 125))
	output := filepath.Join(dir, "out_plate.png")
	diag := filepath.Join(dir, "diag")

	var stdout, stderr bytes.Buffer
	code := run([]string{"-diag-dir", diag, input, output}, &stdout, &stderr)

	if code != exitFound {
		t.Fatalf("exit code: got %d, want %d (stderr: %s)", code, exitFound, stderr.String())
	}
	for _, prefix := range []string{"confidence threshold: ", "x: ", "y: ", "width: ", "height: "} {
		if !strings.Contains(stdout.String(), "\n"+prefix) && !strings.HasPrefix(stdout.String(), prefix) {
			t.Errorf("summary missing %q:\n%s", prefix, stdout.String())
		}
	}
	if !exists(output) {
		t.Error("annotated output not written")
	}
	for _, name := range []string{"grayscale_plate.png", "binary_plate.png", "canny_plate.png", "dilate_plate.png", "cropped_plate.png"} {
		if !exists(filepath.Join(diag, name)) {
			t.Errorf("diagnostic %s not written", name)
		}
	}
}

func TestRun_NotFound(t *testing.T) {
	dir := t.TempDir()
	input := writeImage(t, dir, 200, 200, image.Rect(80, 80, 120, 120))
	output := filepath.Join(dir, "out_plate.png")

	var stdout, stderr bytes.Buffer
	code := run([]string{"-diag-dir", dir, input, output}, &stdout, &stderr)

	if code != exitNotFound {
		t.Fatalf("exit code: got %d, want %d (stderr: %s)", code, exitNotFound, stderr.String())
	}
	if strings.TrimSpace(stdout.String()) != "Can not find license plate." {
		t.Errorf("stdout: got %q", stdout.String())
	}
	if exists(output) {
		t.Error("annotated output should not be written")
	}
	if !exists(filepath.Join(dir, "dilate_plate.png")) {
		t.Error("final iteration diagnostics should be written")
	}
	if exists(filepath.Join(dir, "cropped_plate.png")) {
		t.Error("cropped plate should not be written")
	}
}

func TestRun_LoadFailure(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "out_plate.png")

	var stdout, stderr bytes.Buffer
	code := run([]string{"-diag-dir", dir, "-db", filepath.Join(dir, "runs.db"), filepath.Join(dir, "missing.jpg"), output}, &stdout, &stderr)

	if code != exitError {
		t.Fatalf("exit code: got %d, want %d", code, exitError)
	}
	if !strings.Contains(stderr.String(), "Cannot load input image") {
		t.Errorf("stderr: got %q", stderr.String())
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("no files should be written on load failure, found %d", len(entries))
	}
}

func TestRun_NoDiag(t *testing.T) {
	dir := t.TempDir()
	input := writeImage(t, dir, 400, 200, image.Rect(125, 75, 275, 125))

	var stdout, stderr bytes.Buffer
	code := run([]string{"-no-diag", "-diag-dir", dir, input, filepath.Join(dir, "out.png")}, &stdout, &stderr)

	if code != exitFound {
		t.Fatalf("exit code: got %d, want %d", code, exitFound)
	}
	if exists(filepath.Join(dir, "grayscale_plate.png")) {
		t.Error("diagnostics should be skipped with -no-diag")
	}
}

func TestRun_JSONAndHistory(t *testing.T) {
	dir := t.TempDir()
	input := writeImage(t, dir, 400, 200, image.Rect(125, 75, 275, 125))
	db := filepath.Join(dir, "runs.db")

	var stdout, stderr bytes.Buffer
	code := run([]string{"-no-diag", "-json", "-db", db, input, filepath.Join(dir, "out.png")}, &stdout, &stderr)
	if code != exitFound {
		t.Fatalf("exit code: got %d, want %d (stderr: %s)", code, exitFound, stderr.String())
	}

	var report detection.Report
	if err := json.Unmarshal(stdout.Bytes(), &report); err != nil {
		t.Fatalf("stdout is not a report: %v", err)
	}
	if report.Status != detection.StatusFound || report.Best == nil {
		t.Fatalf("report: got %+v", report)
	}

	stdout.Reset()
	if code := run([]string{"history", "-db", db}, &stdout, &stderr); code != exitFound {
		t.Fatalf("history exit code: got %d", code)
	}
	if !strings.Contains(stdout.String(), report.RunID) {
		t.Errorf("history should list run %s:\n%s", report.RunID, stdout.String())
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-step", "0", "-no-diag", "missing.jpg"}, &stdout, &stderr)

	if code != exitError {
		t.Errorf("exit code: got %d, want %d", code, exitError)
	}
	if !strings.Contains(stderr.String(), detection.ErrInvalidConfig.Error()) {
		t.Errorf("stderr should report the invalid config, got %q", stderr.String())
	}
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"-version"}, &stdout, &stderr); code != exitFound {
		t.Fatalf("exit code: got %d", code)
	}
	if !strings.HasPrefix(stdout.String(), "plate-detect ") {
		t.Errorf("stdout: got %q", stdout.String())
	}
}
