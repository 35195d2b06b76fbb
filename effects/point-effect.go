package effects

import (
	"github.com/soypat/pixfx"
)

// PointFunc transforms a contiguous row of RGBA8888 pixels.
// dst and src hold the same number of pixels and may be the same slice.
// The function should iterate through pixels: for i := 0; i < len(src); i += pixfx.BytesPerPixel { ... }
type PointFunc func(dst, src []byte)

// PointEffect applies a per-pixel transformation using a callback function.
// It handles region validation, pixel access and failure reporting common to all per-pixel effects.
// The callback is invoked once per row with contiguous pixel data.
type PointEffect struct {
	Name  string
	Fn    PointFunc
	Ctrls []pixfx.Control // User-defined controls for this effect.
}

var _ pixfx.Effect = (*PointEffect)(nil)

// Controls implements [pixfx.Effect].
func (e *PointEffect) Controls() []pixfx.Control {
	return e.Ctrls
}

// Render implements [pixfx.Effect]. When s exposes its pixels through
// [pixfx.BufferedSurface] rows are transformed in place, otherwise the region
// is read, transformed and written back. A failed read leaves s untouched.
func (e *PointEffect) Render(s pixfx.Surface, width, height int) pixfx.Result {
	res := e.render(s, pixfx.Region{Width: width, Height: height})
	if !res.Applied() {
		logSkipped(e.Name, res, width, height)
	}
	return res
}

func (e *PointEffect) render(s pixfx.Surface, region pixfx.Region) pixfx.Result {
	if e.Fn == nil {
		return pixfx.Skipped(errNilPointFunc)
	}
	if err := region.Validate(); err != nil {
		return pixfx.Skipped(err)
	} else if region.Empty() {
		return pixfx.Skipped(nil)
	}

	if rows := pixfx.InPlaceRows(s, region); rows != nil {
		for _, row := range rows {
			e.Fn(row, row)
		}
		return pixfx.Applied()
	}

	buf, err := pixfx.ReadRegion(s, region)
	if err != nil {
		return pixfx.Skipped(err)
	}
	rowLen := region.Width * pixfx.BytesPerPixel
	for off := 0; off < len(buf); off += rowLen {
		row := buf[off : off+rowLen]
		e.Fn(row, row)
	}
	if err := s.WritePixels(region.Rect(), buf); err != nil {
		return pixfx.Skipped(err)
	}
	return pixfx.Applied()
}

func logSkipped(effect string, res pixfx.Result, width, height int) {
	pixfx.Logger().Debug("effect skipped",
		"effect", effect,
		"outcome", res.Outcome.String(),
		"err", res.Err,
		"width", width,
		"height", height,
	)
}

var errNilPointFunc = errorString("nil PointFunc")

type errorString string

func (e errorString) Error() string { return string(e) }
