// Package detection locates licence-plate-shaped regions in a photograph
// using classical image processing only.
//
// # Pipeline
//
//  1. The color input is reduced to a grayscale view.
//  2. Adaptive threshold search: starting at Config.InitialThreshold, the
//     grayscale view is binarized, edge-detected and dilated, and the
//     connected components of the result are labelled. Each component's
//     bounding box is passed through the Policy; survivors become candidates.
//  3. If no candidate survives, the threshold grows by Config.ThresholdStep
//     and the chain runs again, up to and including Config.ThresholdBound.
//     The first threshold with any candidate ends the search.
//  4. The first candidate in extraction order is cropped from the original
//     image and every candidate is outlined on a copy of it.
//
// # Outcomes
//
// Detector.Detect distinguishes three outcomes: StatusFound, StatusNotFound
// (the search ran out of thresholds, which is normal) and an error for stage
// faults. Load failures from Detector.DetectFile wrap imaging.ErrLoad.
//
// # Lifetimes
//
// Stage images are imaging.Frames and candidate lists are Candidates; both
// must be released exactly once. Search releases each failed iteration's
// frames before starting the next; Materialize releases the candidate list
// it consumes; the caller releases the final frames via Detection.Release.
//
// # Confidence Scores
//
// Box.Score is the fraction of the bounding box covered by the component's
// pixels. It is reported but never used to pick the best candidate.
package detection
