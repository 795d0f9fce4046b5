package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"github.com/anthonynsimon/bild/blur"
)

// Default hysteresis thresholds used by DetectEdges, on a 0-255 scale.
const (
	DefaultCannyLow  = 50
	DefaultCannyHigh = 150
)

// noiseRadius is the Gaussian radius applied before gradients when noise
// reduction is requested. It corresponds to the classic 5x5, sigma≈1.4 kernel.
const noiseRadius = 2.0

// DetectEdges runs Canny edge detection with the default hysteresis thresholds.
func DetectEdges(src image.Image, reduceNoise bool) (*image.Gray, error) {
	return Canny(src, DefaultCannyLow, DefaultCannyHigh, reduceNoise)
}

// Canny performs Canny-style edge detection on an image.
//
// The result is a single-channel image with the same extents as src, where
// white pixels (255) are edges and black pixels (0) are not.
//
// # Algorithm
//
//  1. Luminance: RGB -> gray using ITU-R BT.601 weights
//  2. Optional Gaussian blur to suppress noise
//  3. Sobel gradients, magnitude = sqrt(Gx² + Gy²), direction = atan2(Gy, Gx)
//  4. Non-maximum suppression along the gradient direction
//  5. Hysteresis: magnitudes above thresholdHigh are kept, those between
//     thresholdLow and thresholdHigh only when touching a strong edge
//
// Border pixels never become edges.
func Canny(src image.Image, thresholdLow, thresholdHigh int, reduceNoise bool) (*image.Gray, error) {
	bounds := src.Bounds()
	if bounds.Empty() {
		return nil, ErrEmptyImage
	}
	if thresholdLow < 0 || thresholdHigh < thresholdLow {
		return nil, fmt.Errorf("invalid hysteresis thresholds %d/%d", thresholdLow, thresholdHigh)
	}

	var input image.Image = src
	if reduceNoise {
		input = blur.Gaussian(src, noiseRadius)
	}

	width := bounds.Dx()
	height := bounds.Dy()
	inBounds := input.Bounds()

	gray := make([][]float64, height)
	for y := 0; y < height; y++ {
		gray[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			r, g, b, _ := input.At(x+inBounds.Min.X, y+inBounds.Min.Y).RGBA()
			rf := float64(r>>8) / 255.0
			gf := float64(g>>8) / 255.0
			bf := float64(b>>8) / 255.0
			gray[y][x] = 0.299*rf + 0.587*gf + 0.114*bf
		}
	}

	magnitude := make([][]float64, height)
	direction := make([][]float64, height)

	sobelX := [3][3]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	sobelY := [3][3]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}

	for y := 0; y < height; y++ {
		magnitude[y] = make([]float64, width)
		direction[y] = make([]float64, width)

		for x := 0; x < width; x++ {
			var gx, gy float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					py := clamp(y+ky, 0, height-1)
					px := clamp(x+kx, 0, width-1)
					gx += gray[py][px] * sobelX[ky+1][kx+1]
					gy += gray[py][px] * sobelY[ky+1][kx+1]
				}
			}
			magnitude[y][x] = math.Sqrt(gx*gx + gy*gy)
			direction[y][x] = math.Atan2(gy, gx)
		}
	}

	suppressed := make([][]float64, height)
	for y := 0; y < height; y++ {
		suppressed[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			if y == 0 || y == height-1 || x == 0 || x == width-1 {
				continue
			}

			angle := direction[y][x]
			mag := magnitude[y][x]

			var n1, n2 float64
			if (angle >= -math.Pi/8 && angle < math.Pi/8) || (angle >= 7*math.Pi/8 || angle < -7*math.Pi/8) {
				n1 = magnitude[y][x-1]
				n2 = magnitude[y][x+1]
			} else if (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8) {
				n1 = magnitude[y-1][x+1]
				n2 = magnitude[y+1][x-1]
			} else if (angle >= 3*math.Pi/8 && angle < 5*math.Pi/8) || (angle >= -5*math.Pi/8 && angle < -3*math.Pi/8) {
				n1 = magnitude[y-1][x]
				n2 = magnitude[y+1][x]
			} else {
				n1 = magnitude[y-1][x-1]
				n2 = magnitude[y+1][x+1]
			}

			if mag >= n1 && mag >= n2 {
				suppressed[y][x] = mag
			}
		}
	}

	result := image.NewGray(bounds)
	lowThresh := float64(thresholdLow) / 255.0
	highThresh := float64(thresholdHigh) / 255.0

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			val := suppressed[y][x]
			if val == 0 {
				continue
			}
			if val >= highThresh {
				result.SetGray(x+bounds.Min.X, y+bounds.Min.Y, color.Gray{Y: 255})
			} else if val >= lowThresh && hasStrongNeighbor(suppressed, x, y, width, height, highThresh) {
				result.SetGray(x+bounds.Min.X, y+bounds.Min.Y, color.Gray{Y: 255})
			}
		}
	}

	return result, nil
}

func hasStrongNeighbor(suppressed [][]float64, x, y, width, height int, highThresh float64) bool {
	for ky := -1; ky <= 1; ky++ {
		for kx := -1; kx <= 1; kx++ {
			py := clamp(y+ky, 0, height-1)
			px := clamp(x+kx, 0, width-1)
			if suppressed[py][px] >= highThresh {
				return true
			}
		}
	}
	return false
}

// EdgeDetectResult contains an edge-detected image encoded as base64 PNG.
type EdgeDetectResult struct {
	// Width of the output image in pixels (same as input).
	Width int `json:"width"`

	// Height of the output image in pixels (same as input).
	Height int `json:"height"`

	// ImageBase64 is the edge image encoded as base64 PNG.
	ImageBase64 string `json:"image_base64"`

	// MimeType is always "image/png" for edge detection results.
	MimeType string `json:"mime_type"`
}

// EdgeDetect runs Canny with explicit thresholds and returns the edge map as a base64 PNG.
func EdgeDetect(img image.Image, thresholdLow, thresholdHigh int, reduceNoise bool) (*EdgeDetectResult, error) {
	edges, err := Canny(img, thresholdLow, thresholdHigh, reduceNoise)
	if err != nil {
		return nil, err
	}

	encoded, err := EncodePNGBase64(edges)
	if err != nil {
		return nil, fmt.Errorf("failed to encode edge image: %w", err)
	}

	return &EdgeDetectResult{
		Width:       edges.Bounds().Dx(),
		Height:      edges.Bounds().Dy(),
		ImageBase64: encoded,
		MimeType:    "image/png",
	}, nil
}

// EncodePNGBase64 encodes an image as PNG and returns it base64-encoded.
func EncodePNGBase64(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// clamp constrains an integer value to the range [lo, hi].
func clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
