// Package annotate draws extraction marks onto captured screenshots: a
// white border around the page image, one dashed box per mark, and an
// index label patch the model can read back as a mark reference.
package annotate

import (
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"strconv"

	"github.com/fogleman/gg"

	"github.com/yhl48/proxy-lite/dom"
	"github.com/yhl48/proxy-lite/poi"
)

// Border is the white padding added on every side of the screenshot, so
// boxes and labels at the viewport edge stay readable.
const Border = 25

// Dash geometry for mark rectangles.
const (
	dashOn  = 10.0
	dashOff = 5.0
)

// Box is one rectangle to draw, with its index label.
type Box struct {
	Rect  dom.Rect
	Label string
}

// Boxes converts an extraction result into drawable boxes, labelled by
// mark index.
func Boxes(r poi.Result) []Box {
	out := make([]Box, 0, len(r.Centroids))
	for i, c := range r.Centroids {
		out = append(out, Box{Rect: c.Rect, Label: strconv.Itoa(i)})
	}
	return out
}

// Annotate returns a copy of the screenshot padded by Border pixels of
// white on all sides, with a dashed red rectangle and an index label patch
// per box. Label patches sit just above each box's top-left corner and are
// clamped to the image bounds.
func Annotate(src image.Image, boxes []Box) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx() + 2*Border
	h := bounds.Dy() + 2*Border

	dc := gg.NewContext(w, h)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.DrawImage(src, Border, Border)

	for _, b := range boxes {
		drawBox(dc, b, w, h)
	}
	return dc.Image()
}

func drawBox(dc *gg.Context, b Box, imgW, imgH int) {
	left := b.Rect.Left + Border
	top := b.Rect.Top + Border

	dc.SetRGBA(1, 0, 0, 1)
	dc.SetLineWidth(1)
	dc.SetDash(dashOn, dashOff)
	dc.DrawRectangle(left, top, b.Rect.Width(), b.Rect.Height())
	dc.Stroke()
	dc.SetDash()

	labelW, labelH := dc.MeasureString(b.Label)
	padX, padY := 4.0, 3.0
	patchW := labelW + 2*padX
	patchH := labelH + 2*padY

	// Patch above the corner, pulled back inside the image when the box
	// touches an edge.
	px := clamp(left, 0, float64(imgW)-patchW)
	py := clamp(top-patchH, 0, float64(imgH)-patchH)

	dc.SetRGBA(1, 0, 0, 0.5)
	dc.DrawRectangle(px, py, patchW, patchH)
	dc.Fill()

	dc.SetRGB(1, 1, 1)
	dc.DrawString(b.Label, px+padX, py+patchH-padY)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// EncodeJPEG writes the annotated image as JPEG at the given quality.
func EncodeJPEG(w io.Writer, img image.Image, quality int) error {
	if quality <= 0 || quality > 100 {
		quality = 70
	}
	if err := jpeg.Encode(w, img, &jpeg.Options{Quality: quality}); err != nil {
		return fmt.Errorf("annotate: encode jpeg: %w", err)
	}
	return nil
}
