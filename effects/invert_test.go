package effects

import (
	"bytes"
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/soypat/pixfx"
)

// memSurface is an unbuffered in-memory surface so Render takes the read/write path.
type memSurface struct {
	w, h   int
	pix    []byte
	reads  int
	writes int
}

func newMemSurface(w, h int, pix []byte) *memSurface {
	return &memSurface{w: w, h: h, pix: append([]byte(nil), pix...)}
}

func (m *memSurface) ReadPixels(r image.Rectangle) ([]byte, error) {
	m.reads++
	out := make([]byte, 0, r.Dx()*r.Dy()*pixfx.BytesPerPixel)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		off := (y*m.w + r.Min.X) * pixfx.BytesPerPixel
		out = append(out, m.pix[off:off+r.Dx()*pixfx.BytesPerPixel]...)
	}
	return out, nil
}

func (m *memSurface) WritePixels(r image.Rectangle, pix []byte) error {
	m.writes++
	rowLen := r.Dx() * pixfx.BytesPerPixel
	for y := r.Min.Y; y < r.Max.Y; y++ {
		off := (y*m.w + r.Min.X) * pixfx.BytesPerPixel
		copy(m.pix[off:off+rowLen], pix[(y-r.Min.Y)*rowLen:])
	}
	return nil
}

func TestInvertSinglePixel(t *testing.T) {
	tests := []struct {
		in, want []byte
	}{
		{in: []byte{255, 255, 255, 255}, want: []byte{0, 0, 0, 255}},
		{in: []byte{0, 0, 0, 128}, want: []byte{255, 255, 255, 128}},
		{in: []byte{10, 100, 200, 0}, want: []byte{245, 155, 55, 0}},
	}
	for _, tt := range tests {
		s := newMemSurface(1, 1, tt.in)
		res := NewInvert().Render(s, 1, 1)
		if !res.Applied() {
			t.Fatalf("Render(%v) not applied: %v %v", tt.in, res.Outcome, res.Err)
		}
		if !bytes.Equal(s.pix, tt.want) {
			t.Errorf("invert %v = %v, want %v", tt.in, s.pix, tt.want)
		}
	}
}

func TestInvertMixedPixelsIndependent(t *testing.T) {
	in := []byte{
		255, 0, 0, 255, 0, 255, 0, 200,
		0, 0, 255, 100, 12, 34, 56, 78,
	}
	want := []byte{
		0, 255, 255, 255, 255, 0, 255, 200,
		255, 255, 0, 100, 243, 221, 199, 78,
	}
	s := newMemSurface(2, 2, in)
	NewInvert().Render(s, 2, 2)
	if !bytes.Equal(s.pix, want) {
		t.Errorf("got %v, want %v", s.pix, want)
	}
	if s.reads != 1 || s.writes != 1 {
		t.Errorf("got %d reads and %d writes, want 1 each", s.reads, s.writes)
	}
}

func TestInvertProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	const w, h = 17, 9
	orig := make([]byte, w*h*pixfx.BytesPerPixel)
	rng.Read(orig)

	s := newMemSurface(w, h, orig)
	effect := NewInvert()
	effect.Render(s, w, h)
	for i := 0; i < len(orig); i += pixfx.BytesPerPixel {
		for c := 0; c < 3; c++ {
			if want := 255 - orig[i+c]; s.pix[i+c] != want {
				t.Fatalf("byte %d: got %d, want %d", i+c, s.pix[i+c], want)
			}
		}
		if s.pix[i+3] != orig[i+3] {
			t.Fatalf("pixel %d alpha changed: got %d, want %d", i/4, s.pix[i+3], orig[i+3])
		}
	}

	effect.Render(s, w, h)
	if !bytes.Equal(s.pix, orig) {
		t.Error("inverting twice did not restore original pixels")
	}
}

func TestInvertPartialRegion(t *testing.T) {
	in := bytes.Repeat([]byte{10, 20, 30, 40}, 3*2)
	s := newMemSurface(3, 2, in)
	NewInvert().Render(s, 2, 1)
	for i := 0; i < len(s.pix); i += 4 {
		x, y := (i/4)%3, (i/4)/3
		want := []byte{10, 20, 30, 40}
		if x < 2 && y < 1 {
			want = []byte{245, 235, 225, 40}
		}
		if !bytes.Equal(s.pix[i:i+4], want) {
			t.Errorf("pixel (%d,%d) = %v, want %v", x, y, s.pix[i:i+4], want)
		}
	}
}

func TestInvertImageSurfaceInPlace(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{0, 0, 0, 128})
	img.SetNRGBA(1, 0, color.NRGBA{255, 255, 255, 255})
	res := NewInvert().Render(pixfx.NewImageSurface(img), 2, 1)
	if !res.Applied() {
		t.Fatalf("not applied: %v", res.Err)
	}
	want := []byte{255, 255, 255, 128, 0, 0, 0, 255}
	if !bytes.Equal(img.Pix, want) {
		t.Errorf("got %v, want %v", img.Pix, want)
	}
}

func TestInvertImageSurfaceRGBA(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	img.SetRGBA(1, 1, color.RGBA{10, 20, 30, 255})
	res := NewInvert().Render(pixfx.NewImageSurface(img), 2, 2)
	if !res.Applied() {
		t.Fatalf("not applied: %v", res.Err)
	}
	if got := img.RGBAAt(0, 0); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("(0,0) = %v", got)
	}
	if got := img.RGBAAt(1, 1); got != (color.RGBA{245, 235, 225, 255}) {
		t.Errorf("(1,1) = %v", got)
	}
}

func TestInvertTaintedSurface(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for i := range img.Pix {
		img.Pix[i] = byte(i * 7)
	}
	orig := append([]byte(nil), img.Pix...)
	s := pixfx.NewImageSurface(img)
	s.Taint()

	res := NewInvert().Render(s, 2, 2)
	if res.Outcome != pixfx.OutcomeAccessDenied {
		t.Errorf("outcome = %v, want %v", res.Outcome, pixfx.OutcomeAccessDenied)
	}
	if !bytes.Equal(img.Pix, orig) {
		t.Error("tainted surface was modified")
	}
}

func TestInvertChannelsControl(t *testing.T) {
	effect := NewInvert()
	ctrls := effect.Controls()
	if len(ctrls) != 1 {
		t.Fatalf("got %d controls, want 1", len(ctrls))
	}
	if ctrls[0].ActualValue() != ChannelsRGB {
		t.Errorf("default channels = %v, want RGB", ctrls[0].ActualValue())
	}
	if err := ctrls[0].ChangeValue(ChannelsRGBA); err != nil {
		t.Fatal(err)
	}
	s := newMemSurface(1, 1, []byte{1, 2, 3, 4})
	effect.Render(s, 1, 1)
	if want := []byte{254, 253, 252, 251}; !bytes.Equal(s.pix, want) {
		t.Errorf("RGBA invert = %v, want %v", s.pix, want)
	}

	if err := ctrls[0].ChangeValue(ChannelGreen); err != nil {
		t.Fatal(err)
	}
	s = newMemSurface(1, 1, []byte{1, 2, 3, 4})
	effect.Render(s, 1, 1)
	if want := []byte{1, 253, 3, 4}; !bytes.Equal(s.pix, want) {
		t.Errorf("green invert = %v, want %v", s.pix, want)
	}

	if err := ctrls[0].ChangeValue(ChannelMask(0)); err == nil {
		t.Error("empty channel mask accepted")
	}
}

func TestChannelMaskString(t *testing.T) {
	tests := []struct {
		m    ChannelMask
		want string
	}{
		{ChannelsRGB, "RGB"},
		{ChannelsRGBA, "RGBA"},
		{ChannelRed, "R"},
		{ChannelBlue | ChannelAlpha, "BA"},
		{0, "None"},
	}
	for _, tt := range tests {
		if got := tt.m.String(); got != tt.want {
			t.Errorf("ChannelMask(%d).String() = %q, want %q", uint8(tt.m), got, tt.want)
		}
	}
	if !ChannelsRGBA.Has(ChannelsRGB) || ChannelsRGB.Has(ChannelAlpha) {
		t.Error("Has mismatch")
	}
}
