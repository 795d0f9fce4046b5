package detection

import (
	"errors"
	"image"
)

// ErrCandidatesReleased is returned when a released candidate list is used or released again.
var ErrCandidatesReleased = errors.New("candidate list already released")

// foregroundLevel is the gray level at or above which a pixel belongs to a blob.
const foregroundLevel = 128

// Box is a candidate plate region.
type Box struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"width"`
	H int `json:"height"`

	// Score is the fraction of the bounding box covered by the blob's pixels.
	Score float64 `json:"score"`
}

// Rect returns the box as an image rectangle.
func (b Box) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.W, b.Y+b.H)
}

// AcceptFunc decides whether a w×h region is kept.
type AcceptFunc func(w, h int) bool

type point struct {
	x, y int
}

// FindBlobs labels 8-connected foreground components of img and returns the
// bounding box of every component the accept function keeps.
//
// Components are reported in raster order of their first pixel (top to
// bottom, then left to right). A nil accept keeps every component.
func FindBlobs(img *image.Gray, accept AcceptFunc) []Box {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width == 0 || height == 0 {
		return nil
	}

	foreground := func(x, y int) bool {
		return img.Pix[img.PixOffset(x+bounds.Min.X, y+bounds.Min.Y)] >= foregroundLevel
	}

	visited := make([]bool, width*height)
	var boxes []Box
	var stack []point

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if visited[y*width+x] || !foreground(x, y) {
				continue
			}

			minX, minY, maxX, maxY := x, y, x, y
			count := 0

			// Stack-based flood fill; recursion would overflow on large blobs.
			stack = append(stack[:0], point{x, y})
			visited[y*width+x] = true
			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				count++

				if p.x < minX {
					minX = p.x
				}
				if p.x > maxX {
					maxX = p.x
				}
				if p.y < minY {
					minY = p.y
				}
				if p.y > maxY {
					maxY = p.y
				}

				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						nx, ny := p.x+dx, p.y+dy
						if nx < 0 || nx >= width || ny < 0 || ny >= height {
							continue
						}
						if visited[ny*width+nx] || !foreground(nx, ny) {
							continue
						}
						visited[ny*width+nx] = true
						stack = append(stack, point{nx, ny})
					}
				}
			}

			w := maxX - minX + 1
			h := maxY - minY + 1
			if accept != nil && !accept(w, h) {
				continue
			}
			boxes = append(boxes, Box{
				X:     minX + bounds.Min.X,
				Y:     minY + bounds.Min.Y,
				W:     w,
				H:     h,
				Score: float64(count) / float64(w*h),
			})
		}
	}

	return boxes
}

// Candidates is the accepted region list of one search iteration.
//
// The list has an explicit lifetime: it must be released exactly once, after
// which Boxes returns nil. It is not safe for concurrent use.
type Candidates struct {
	boxes    []Box
	released bool
}

func newCandidates(boxes []Box) *Candidates {
	return &Candidates{boxes: boxes}
}

// Len returns the number of candidates, or 0 after release.
func (c *Candidates) Len() int {
	if c == nil || c.released {
		return 0
	}
	return len(c.boxes)
}

// Boxes returns a copy of the candidates in extraction order, or nil after release.
func (c *Candidates) Boxes() []Box {
	if c == nil || c.released {
		return nil
	}
	out := make([]Box, len(c.boxes))
	copy(out, c.boxes)
	return out
}

// Released reports whether Release has been called.
func (c *Candidates) Released() bool {
	return c != nil && c.released
}

// Release drops the list. Releasing nil is a no-op; releasing twice returns
// ErrCandidatesReleased.
func (c *Candidates) Release() error {
	if c == nil {
		return nil
	}
	if c.released {
		return ErrCandidatesReleased
	}
	c.released = true
	c.boxes = nil
	return nil
}
