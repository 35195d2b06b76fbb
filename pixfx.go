// Package pixfx defines pixel surfaces and the effects rendered onto them.
package pixfx

import (
	"errors"
	"fmt"
	"image"
	"math"
)

// BytesPerPixel is the size of a pixel in buffers exchanged with a [Surface].
// Channels are stored red, green, blue, alpha; color is not alpha-premultiplied.
const BytesPerPixel = 4

var (
	// ErrPixelAccessDenied is returned by surfaces whose pixel data may not be
	// read or written, i.e: a canvas tainted by cross-origin content.
	ErrPixelAccessDenied = errors.New("pixel access denied")
	// ErrInvalidRegion is returned for regions with negative dimensions or
	// too many pixels to be held in a single buffer.
	ErrInvalidRegion = errors.New("invalid region")
)

// Surface is a rendering target that can hand out and take back pixel data.
// It is the only boundary an [Effect] touches.
type Surface interface {
	// ReadPixels returns a copy of the pixels inside r as a row-major RGBA8888
	// buffer of length r.Dx()*r.Dy()*BytesPerPixel.
	ReadPixels(r image.Rectangle) ([]byte, error)
	// WritePixels writes a buffer in the format returned by ReadPixels back to r.
	WritePixels(r image.Rectangle, pix []byte) error
}

// BufferedSurface is a [Surface] whose pixels live in memory.
//
// Effects should always try casting [Surface] to [BufferedSurface]
// to see if they can work on the pixels in place which avoids a copy.
type BufferedSurface interface {
	Surface
	// Buffer returns the raw underlying RGBA8888 buffer or nil to signal
	// the buffer is currently not accessible.
	Buffer() []byte
	// Dims returns the in-memory layout of Buffer.
	Dims() Dims
}

// Effect is a visual effect applied to a rectangular region of a surface
// anchored at the origin.
type Effect interface {
	// Render applies the effect to the region [0,0,width,height] of s.
	// Failures never panic and never leave s partially modified; they are
	// reported through the returned [Result].
	Render(s Surface, width, height int) Result
	// Controls returns the adjustable parameters of the effect.
	Controls() []Control
}

// Region is the area an effect is rendered to. It always starts at (0,0).
type Region struct {
	Width  int
	Height int
}

// Validate returns an error wrapping [ErrInvalidRegion] if the region has a
// negative side or its pixel buffer length does not fit in an int.
func (r Region) Validate() error {
	if r.Width < 0 || r.Height < 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidRegion, r.Width, r.Height)
	} else if _, ok := bufferLen(r.Width, r.Height); !ok {
		return fmt.Errorf("%w: %dx%d buffer overflows", ErrInvalidRegion, r.Width, r.Height)
	}
	return nil
}

// bufferLen returns the length of an RGBA8888 buffer of w by h pixels and
// false if it overflows int. w and h must not be negative.
func bufferLen(w, h int) (int, bool) {
	if w == 0 || h == 0 {
		return 0, true
	}
	if w > math.MaxInt/BytesPerPixel/h {
		return 0, false
	}
	return w * h * BytesPerPixel, true
}

// Empty reports whether the region contains no pixels.
func (r Region) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

func (r Region) Rect() image.Rectangle { return image.Rect(0, 0, r.Width, r.Height) }

func (r Region) NumPixels() int64 { return int64(r.Width) * int64(r.Height) }

// Size returns the length in bytes of a pixel buffer covering the region.
// The result is only meaningful for regions that pass [Region.Validate].
func (r Region) Size() int64 { return r.NumPixels() * BytesPerPixel }

// Dims describes an in-memory RGBA8888 buffer.
// Row spacing must be homogenous in entire buffer separated by Stride bytes.
type Dims struct {
	Width  int
	Height int
	Stride int
}

func (d Dims) Validate() error {
	if d.Height <= 0 || d.Width <= 0 {
		return errors.New("empty image")
	} else if d.SizeRow() > d.Stride {
		return errors.New("stride smaller than pixel row size")
	}
	return nil
}

func (d Dims) SizeRow() int { return d.Width * BytesPerPixel }

// Size returns the addressable size of the buffer in bytes.
func (d Dims) Size() int64 {
	if d.Height == 0 || d.Width == 0 {
		return 0
	}
	return int64(d.Height-1)*int64(d.Stride) + int64(d.SizeRow())
}

// Contains reports whether the region lies entirely within the buffer.
func (d Dims) Contains(r Region) bool {
	return r.Width <= d.Width && r.Height <= d.Height
}

// ReadRegion validates region, reads its pixels from s and checks the
// returned buffer is sized to cover it.
func ReadRegion(s Surface, region Region) ([]byte, error) {
	if err := region.Validate(); err != nil {
		return nil, err
	}
	buf, err := s.ReadPixels(region.Rect())
	if err != nil {
		return nil, err
	}
	if int64(len(buf)) != region.Size() {
		return nil, fmt.Errorf("surface returned %d bytes for %dx%d region", len(buf), region.Width, region.Height)
	}
	return buf, nil
}

// InPlaceRows returns the rows of the in-memory buffer of s covering region,
// each sliced to exactly region.Width pixels. It returns nil if s does not
// expose a usable buffer for region, in which case callers should fall back
// to [ReadRegion] and [Surface.WritePixels].
func InPlaceRows(s Surface, region Region) [][]byte {
	buffered, ok := s.(BufferedSurface)
	if !ok {
		return nil
	}
	buf := buffered.Buffer()
	if buf == nil {
		return nil
	}
	d := buffered.Dims()
	if d.Validate() != nil || !d.Contains(region) || int64(len(buf)) < d.Size() {
		return nil
	}
	rows := make([][]byte, region.Height)
	rowLen := region.Width * BytesPerPixel
	for y := range rows {
		off := y * d.Stride
		rows[y] = buf[off : off+rowLen]
	}
	return rows
}
