package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ParseColor parses a "#RRGGBB" hex string into an opaque color.
func ParseColor(hex string) (color.RGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

// DrawRectOutline draws the outline of r onto dst in place.
//
// The outline is lineWidth pixels thick and grows inward from the rectangle
// edges, so it never paints outside r. Parts of r outside dst are clipped.
func DrawRectOutline(dst draw.Image, r image.Rectangle, lineWidth int, c color.Color) {
	r = r.Canon()
	if lineWidth < 1 || r.Empty() {
		return
	}
	src := image.NewUniform(c)
	clip := dst.Bounds()

	fill := func(band image.Rectangle) {
		band = band.Intersect(r).Intersect(clip)
		if !band.Empty() {
			draw.Draw(dst, band, src, image.Point{}, draw.Src)
		}
	}

	fill(image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+lineWidth)) // top
	fill(image.Rect(r.Min.X, r.Max.Y-lineWidth, r.Max.X, r.Max.Y)) // bottom
	fill(image.Rect(r.Min.X, r.Min.Y, r.Min.X+lineWidth, r.Max.Y)) // left
	fill(image.Rect(r.Max.X-lineWidth, r.Min.Y, r.Max.X, r.Max.Y)) // right
}

// DrawLabel writes text with its top-left corner at (x, y) using a 7x13
// bitmap font, on a filled background box so it stays readable over photos.
func DrawLabel(dst draw.Image, x, y int, text string, fg, bg color.Color) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(fg),
		Face: face,
	}

	width := d.MeasureString(text).Ceil()
	metrics := face.Metrics()
	height := (metrics.Ascent + metrics.Descent).Ceil()

	box := image.Rect(x-1, y-1, x+width+1, y+height+1).Intersect(dst.Bounds())
	if box.Empty() {
		return
	}
	draw.Draw(dst, box, image.NewUniform(bg), image.Point{}, draw.Src)

	d.Dot = fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y) + metrics.Ascent}
	d.DrawString(text)
}
