// Package framebuffer is the presentation boundary: it collects pixel
// events onto a fixed-size canvas and can materialize it as a PPM image.
package framebuffer

import (
	"bufio"
	"fmt"
	"io"

	"github.com/retroenv/retrogolib/log"

	"github.com/twe4ked/drawer/vm"
)

// Buffer is a Width x Height canvas of 24-bit RGB pixels, indexed from
// the top-left corner. Programs draw in origin-centered coordinates;
// Plot applies the offset.
type Buffer struct {
	Width  int
	Height int

	pix    []uint32
	logger *log.Logger
}

// New creates a zeroed (black) canvas with the given dimensions.
func New(width, height uint16, logger *log.Logger) (buf *Buffer) {
	buf = &Buffer{
		Width:  int(width),
		Height: int(height),
		pix:    make([]uint32, int(width)*int(height)),
		logger: logger,
	}

	return
}

// Plot paints one pixel event. The event's origin-centered coordinates
// are offset so (0, 0) lands in the middle of the canvas; events outside
// the canvas are dropped with a diagnostic, never an error.
func (buf *Buffer) Plot(pixel vm.Pixel) {
	x := buf.Width/2 + pixel.X
	y := buf.Height/2 + pixel.Y

	if x < 0 || x >= buf.Width || y < 0 || y >= buf.Height {
		buf.logger.Warn("pixel outside canvas",
			log.Int("x", pixel.X),
			log.Int("y", pixel.Y))
		return
	}

	buf.pix[y*buf.Width+x] = pixel.Color
}

// At returns the pixel at canvas (not origin-centered) coordinates.
func (buf *Buffer) At(x, y int) uint32 {
	return buf.pix[y*buf.Width+x]
}

// Pix exposes the raw canvas, row-major from the top-left corner.
func (buf *Buffer) Pix() []uint32 {
	return buf.pix
}

// WritePPM writes the canvas as a binary PPM (P6) image.
func (buf *Buffer) WritePPM(w io.Writer) (err error) {
	bw := bufio.NewWriter(w)

	_, err = fmt.Fprintf(bw, "P6\n%d %d\n255\n", buf.Width, buf.Height)
	if err != nil {
		return
	}

	for _, color := range buf.pix {
		_, err = bw.Write([]byte{
			byte(color >> 16),
			byte(color >> 8),
			byte(color),
		})
		if err != nil {
			return
		}
	}

	err = bw.Flush()

	return
}
