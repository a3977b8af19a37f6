package annotate

import (
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"io"
)

// EncodeGIF composes observation frames into an animated GIF for session
// replay. delay is per-frame, in hundredths of a second.
func EncodeGIF(w io.Writer, frames []image.Image, delay int) error {
	if len(frames) == 0 {
		return fmt.Errorf("annotate: no frames")
	}
	if delay <= 0 {
		delay = 100
	}

	g := &gif.GIF{}
	for _, frame := range frames {
		bounds := frame.Bounds()
		paletted := image.NewPaletted(bounds, palette.Plan9)
		draw.FloydSteinberg.Draw(paletted, bounds, frame, bounds.Min)
		g.Image = append(g.Image, paletted)
		g.Delay = append(g.Delay, delay)
	}

	if err := gif.EncodeAll(w, g); err != nil {
		return fmt.Errorf("annotate: encode gif: %w", err)
	}
	return nil
}
