package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"
	"unicode"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// DefaultLanguage is the Tesseract language used when none is given.
const DefaultLanguage = "eng"

// plateAlphabet is the whitelist handed to Tesseract.
const plateAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// minReadHeight is the height small crops are upscaled to before recognition.
const minReadHeight = 96

// Word is a recognized token with its position inside the crop.
type Word struct {
	Text       string          `json:"text"`
	Confidence float64         `json:"confidence"`
	Bounds     image.Rectangle `json:"bounds"`
}

// PlateText is the result of reading a plate crop.
type PlateText struct {
	// Raw is Tesseract's output before normalization.
	Raw string `json:"raw"`

	// Text is Raw reduced to upper-case letters and digits.
	Text string `json:"text"`

	// Confidence is the mean word confidence (0.0 to 1.0), 0 when no words were boxed.
	Confidence float64 `json:"confidence"`

	// Words are the individual tokens, in crop coordinates.
	Words []Word `json:"words"`
}

// ReadPlate recognizes the characters in a cropped plate image.
//
// Errors are returned when the image is empty, when Tesseract cannot be
// initialized for the language, or when recognition fails. An image without
// readable characters yields an empty Text and no error.
func ReadPlate(img image.Image, language string) (*PlateText, error) {
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("cannot read an empty image")
	}
	if language == "" {
		language = DefaultLanguage
	}

	prepared := prepare(img)
	var buf bytes.Buffer
	if err := png.Encode(&buf, prepared); err != nil {
		return nil, fmt.Errorf("failed to encode plate image: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_LINE); err != nil {
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	if err := client.SetWhitelist(plateAlphabet); err != nil {
		return nil, fmt.Errorf("failed to set whitelist: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	raw, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	result := &PlateText{
		Raw:   raw,
		Text:  NormalizePlate(raw),
		Words: []Word{},
	}

	// Word boxes are a bonus; keep the text if they are unavailable.
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return result, nil
	}

	scale := float64(img.Bounds().Dy()) / float64(prepared.Bounds().Dy())
	var total float64
	for _, box := range boxes {
		if strings.TrimSpace(box.Word) == "" {
			continue
		}
		conf := box.Confidence / 100.0
		total += conf
		result.Words = append(result.Words, Word{
			Text:       box.Word,
			Confidence: conf,
			Bounds:     scaleRect(box.Box, scale),
		})
	}
	if len(result.Words) > 0 {
		result.Confidence = total / float64(len(result.Words))
	}

	return result, nil
}

// NormalizePlate upper-cases s and drops everything but letters and digits.
func NormalizePlate(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// prepare converts the crop to grayscale and upscales short crops.
func prepare(img image.Image) image.Image {
	gray := imaging.Grayscale(img)
	if gray.Bounds().Dy() >= minReadHeight {
		return gray
	}
	return imaging.Resize(gray, 0, minReadHeight, imaging.Lanczos)
}

func scaleRect(r image.Rectangle, scale float64) image.Rectangle {
	return image.Rect(
		int(float64(r.Min.X)*scale),
		int(float64(r.Min.Y)*scale),
		int(float64(r.Max.X)*scale),
		int(float64(r.Max.Y)*scale),
	)
}
