// Package imaging provides the image primitives the plate detector is built on.
//
// This package implements decoding, colorspace conversion, binarization, Canny
// edge detection, dilation, cropping, rectangle annotation and encoding. All
// operations work with standard Go image.Image types and use a coordinate system
// where (0,0) is at the top-left corner, X increases rightward, and Y increases downward.
//
// # Stage Images
//
// Binarize, DetectEdges and Dilate each consume a single-channel image and
// return a new one with identical extents. None of them mutate their input.
// Intermediate images can be registered with a Ledger as Frames; every Frame
// must be released exactly once after its last use, and Ledger.Live reports
// how many are still outstanding.
//
// # Thread Safety
//
// The ImageCache and Ledger types are safe for concurrent use. Individual image
// operations are stateless and can be called concurrently on different images.
// DrawRectOutline mutates its destination and must not race with readers of it.
//
// # Error Handling
//
// Functions return errors for invalid inputs such as:
//   - Files that cannot be opened or decoded (wrapped in ErrLoad)
//   - Empty images (ErrEmptyImage)
//   - Thresholds outside [0,1] or negative repeat counts
//   - Crop regions that do not intersect the image
//   - Encoding errors during image output
package imaging
