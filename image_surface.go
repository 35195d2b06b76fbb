package pixfx

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// MaxImageSurfaceArea is the largest number of pixels an [ImageSurface] reads
// or writes in one call, matching the canvas area limit of common browsers.
const MaxImageSurfaceArea = 1 << 28

// ImageSurface is a [Surface] backed by a [draw.Image]. It behaves like a 2D
// canvas context: reads outside the image return transparent black and writes
// are clipped to the image bounds.
//
// ImageSurface is not safe for concurrent use.
type ImageSurface struct {
	img     draw.Image
	tainted bool
}

var _ BufferedSurface = (*ImageSurface)(nil)

// NewImageSurface returns a surface drawing to img. Pixels are converted
// to and from non-premultiplied RGBA8888 as needed by img's color model.
func NewImageSurface(img draw.Image) *ImageSurface {
	return &ImageSurface{img: img}
}

// Image returns the image the surface draws to.
func (s *ImageSurface) Image() draw.Image { return s.img }

// Taint marks the surface as holding content from another origin. From then on
// every pixel read or write fails with [ErrPixelAccessDenied]. A surface can not be untainted.
func (s *ImageSurface) Taint() { s.tainted = true }

// Tainted reports whether [ImageSurface.Taint] was called.
func (s *ImageSurface) Tainted() bool { return s.tainted }

// ReadPixels implements [Surface].
func (s *ImageSurface) ReadPixels(r image.Rectangle) ([]byte, error) {
	if s.tainted {
		return nil, fmt.Errorf("read %v: %w", r, ErrPixelAccessDenied)
	}
	if _, err := rectBufferLen(r); err != nil {
		return nil, fmt.Errorf("read %v: %w", r, err)
	}
	dst := image.NewNRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	isect := r.Intersect(s.img.Bounds())
	if isect.Empty() {
		return dst.Pix, nil
	}
	dp := isect.Min.Sub(r.Min)
	if src, ok := s.img.(*image.NRGBA); ok {
		copyNRGBA(dst, dp, src, isect)
	} else {
		draw.Copy(dst, dp, s.img, isect, draw.Src, nil)
	}
	return dst.Pix, nil
}

// WritePixels implements [Surface].
func (s *ImageSurface) WritePixels(r image.Rectangle, pix []byte) error {
	if s.tainted {
		return fmt.Errorf("write %v: %w", r, ErrPixelAccessDenied)
	}
	want, err := rectBufferLen(r)
	if err != nil {
		return fmt.Errorf("write %v: %w", r, err)
	} else if len(pix) != want {
		return fmt.Errorf("write %v: got %d bytes, want %d", r, len(pix), want)
	}
	src := &image.NRGBA{Pix: pix, Stride: r.Dx() * BytesPerPixel, Rect: r}
	isect := r.Intersect(s.img.Bounds())
	if isect.Empty() {
		return nil
	}
	if dst, ok := s.img.(*image.NRGBA); ok {
		copyNRGBA(dst, isect.Min, src, isect)
	} else {
		draw.Copy(s.img, isect.Min, src, isect, draw.Src, nil)
	}
	return nil
}

// Buffer implements [BufferedSurface]. Only untainted surfaces backed by an
// [*image.NRGBA] anchored at the origin expose their buffer.
func (s *ImageSurface) Buffer() []byte {
	nrgba, ok := s.img.(*image.NRGBA)
	if !ok || s.tainted || nrgba.Rect.Min != (image.Point{}) {
		return nil
	}
	return nrgba.Pix
}

// Dims implements [BufferedSurface].
func (s *ImageSurface) Dims() Dims {
	b := s.img.Bounds()
	d := Dims{Width: b.Dx(), Height: b.Dy()}
	if nrgba, ok := s.img.(*image.NRGBA); ok {
		d.Stride = nrgba.Stride
	}
	return d
}

// copyNRGBA copies sr of src to dst at dp byte for byte. Going through
// draw would round trip partially transparent pixels through premultiplied color.
func copyNRGBA(dst *image.NRGBA, dp image.Point, src *image.NRGBA, sr image.Rectangle) {
	n := sr.Dx() * BytesPerPixel
	for y := sr.Min.Y; y < sr.Max.Y; y++ {
		si := src.PixOffset(sr.Min.X, y)
		di := dst.PixOffset(dp.X, dp.Y+y-sr.Min.Y)
		copy(dst.Pix[di:di+n], src.Pix[si:si+n])
	}
}

// rectBufferLen returns the pixel buffer length for r or an error wrapping
// [ErrInvalidRegion] if r is empty or larger than [MaxImageSurfaceArea].
func rectBufferLen(r image.Rectangle) (int, error) {
	w, h := r.Dx(), r.Dy()
	if w <= 0 || h <= 0 {
		return 0, ErrInvalidRegion
	}
	n, ok := bufferLen(w, h)
	if !ok || n/BytesPerPixel > MaxImageSurfaceArea {
		return 0, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrInvalidRegion, w, h, MaxImageSurfaceArea)
	}
	return n, nil
}
