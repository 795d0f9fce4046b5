package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func TestEdgeDetect(t *testing.T) {
	img := createEdgeTestImage(100, 100)

	result, err := EdgeDetect(img, 50, 150, true)
	if err != nil {
		t.Fatalf("EdgeDetect failed: %v", err)
	}

	if result.Width != 100 || result.Height != 100 {
		t.Errorf("dimensions: got %dx%d, want 100x100", result.Width, result.Height)
	}
	if result.MimeType != "image/png" {
		t.Errorf("MimeType: got %s, want image/png", result.MimeType)
	}

	decoded, err := base64.StdEncoding.DecodeString(result.ImageBase64)
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	edgeImg, err := png.Decode(bytes.NewReader(decoded))
	if err != nil {
		t.Fatalf("failed to decode PNG: %v", err)
	}
	if edgeImg.Bounds().Dx() != 100 || edgeImg.Bounds().Dy() != 100 {
		t.Errorf("decoded image dimensions: got %dx%d, want 100x100",
			edgeImg.Bounds().Dx(), edgeImg.Bounds().Dy())
	}
}

func TestEdgeDetect_DifferentThresholds(t *testing.T) {
	img := createEdgeTestImage(50, 50)

	tests := []struct {
		name      string
		low, high int
	}{
		{"low thresholds", 10, 50},
		{"medium thresholds", 50, 150},
		{"high thresholds", 100, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := EdgeDetect(img, tt.low, tt.high, false)
			if err != nil {
				t.Fatalf("EdgeDetect failed: %v", err)
			}
			if result.ImageBase64 == "" {
				t.Error("ImageBase64 is empty")
			}
		})
	}
}

func TestCanny_InvalidInput(t *testing.T) {
	img := createEdgeTestImage(20, 20)

	if _, err := Canny(img, 150, 50, false); err == nil {
		t.Error("Canny should reject low > high")
	}
	if _, err := Canny(img, -1, 50, false); err == nil {
		t.Error("Canny should reject a negative threshold")
	}
	if _, err := Canny(image.NewGray(image.Rect(0, 0, 0, 0)), 50, 150, false); err != ErrEmptyImage {
		t.Errorf("empty image: got %v, want ErrEmptyImage", err)
	}
}

func TestDetectEdges_UniformImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 50, 50))
	for i := range img.Pix {
		img.Pix[i] = 128
	}

	edges, err := DetectEdges(img, false)
	if err != nil {
		t.Fatalf("DetectEdges failed: %v", err)
	}
	for i, v := range edges.Pix {
		if v != 0 {
			t.Fatalf("uniform image should have no edges, pixel %d = %d", i, v)
		}
	}
}

func TestDetectEdges_StrongEdge(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 50; x < 100; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}

	for _, reduceNoise := range []bool{false, true} {
		edges, err := DetectEdges(img, reduceNoise)
		if err != nil {
			t.Fatalf("DetectEdges failed: %v", err)
		}

		edgeFound := false
		for x := 47; x <= 53; x++ {
			if edges.GrayAt(x, 50).Y == 255 {
				edgeFound = true
				break
			}
		}
		if !edgeFound {
			t.Errorf("reduceNoise=%v: strong vertical edge was not detected", reduceNoise)
		}
		if edges.GrayAt(10, 50).Y != 0 || edges.GrayAt(90, 50).Y != 0 {
			t.Errorf("reduceNoise=%v: flat regions should have no edges", reduceNoise)
		}
	}
}

func TestDetectEdges_BinaryOutput(t *testing.T) {
	edges, err := DetectEdges(createEdgeTestImage(60, 60), true)
	if err != nil {
		t.Fatalf("DetectEdges failed: %v", err)
	}
	for i, v := range edges.Pix {
		if v != 0 && v != 255 {
			t.Fatalf("pixel %d = %d, want 0 or 255", i, v)
		}
	}
}

func TestDetectEdges_OffsetBounds(t *testing.T) {
	full := createPlateGray(60, 40, image.Rect(20, 10, 40, 30))
	sub := full.SubImage(image.Rect(10, 5, 50, 35)).(*image.Gray)

	edges, err := DetectEdges(sub, false)
	if err != nil {
		t.Fatalf("DetectEdges failed: %v", err)
	}
	if edges.Bounds() != sub.Bounds() {
		t.Errorf("bounds: got %v, want %v", edges.Bounds(), sub.Bounds())
	}
}

func TestEdgeDetect_SmallImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 5, 5))

	result, err := EdgeDetect(img, 50, 150, true)
	if err != nil {
		t.Fatalf("EdgeDetect failed: %v", err)
	}
	if result.Width != 5 || result.Height != 5 {
		t.Errorf("dimensions: got %dx%d, want 5x5", result.Width, result.Height)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		val, min, max, want int
	}{
		{5, 0, 10, 5},   // within range
		{-1, 0, 10, 0},  // below min
		{15, 0, 10, 10}, // above max
		{0, 0, 10, 0},   // at min
		{10, 0, 10, 10}, // at max
	}

	for _, tt := range tests {
		got := clamp(tt.val, tt.min, tt.max)
		if got != tt.want {
			t.Errorf("clamp(%d, %d, %d): got %d, want %d",
				tt.val, tt.min, tt.max, got, tt.want)
		}
	}
}

// createEdgeTestImage creates an image with a black rectangle on white background
func createEdgeTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.White)
		}
	}
	for y := height / 4; y < 3*height/4; y++ {
		for x := width / 4; x < 3*width/4; x++ {
			img.Set(x, y, color.Black)
		}
	}
	return img
}
