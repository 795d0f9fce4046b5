// Package ocr reads the characters of a cropped licence plate using Tesseract.
//
// This package wraps the Tesseract OCR engine (via gosseract/v2). It is an
// optional last step of the plate pipeline: the detector works without it,
// and a failed read never invalidates a detection.
//
// # Prerequisites
//
// Tesseract and its language data must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// # Plate Reading
//
// ReadPlate treats the crop as a single text line, restricts recognition to
// upper-case letters and digits, and upscales small crops before recognition
// because Tesseract performs poorly on glyphs under ~20px tall.
package ocr
