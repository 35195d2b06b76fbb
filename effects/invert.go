package effects

import (
	"strings"

	"github.com/soypat/pixfx"
)

// ChannelMask selects the channels of a pixel an effect operates on.
type ChannelMask uint8

const (
	ChannelRed ChannelMask = 1 << iota
	ChannelGreen
	ChannelBlue
	ChannelAlpha

	// ChannelsRGB selects the color channels and leaves alpha untouched.
	ChannelsRGB  = ChannelRed | ChannelGreen | ChannelBlue
	ChannelsRGBA = ChannelsRGB | ChannelAlpha
)

func (m ChannelMask) String() string {
	if m&ChannelsRGBA == 0 {
		return "None"
	}
	var sb strings.Builder
	for i, name := range [4]byte{'R', 'G', 'B', 'A'} {
		if m&(1<<i) != 0 {
			sb.WriteByte(name)
		}
	}
	return sb.String()
}

// Has reports whether all channels of c are selected by m.
func (m ChannelMask) Has(c ChannelMask) bool { return m&c == c }

// xorKey returns per-channel bytes that invert the selected channels when XORed.
// For a byte x, x^0xff == 255-x.
func (m ChannelMask) xorKey() (key [pixfx.BytesPerPixel]byte) {
	for i := range key {
		if m&(1<<i) != 0 {
			key[i] = 0xff
		}
	}
	return key
}

var invertChannelChoices = []ChannelMask{ChannelsRGB, ChannelRed, ChannelGreen, ChannelBlue, ChannelsRGBA}

// NewInvert creates the color inversion effect. With its default [ChannelsRGB]
// setting every pixel's red, green and blue become 255 minus their value and
// alpha is left as is. Applying the effect twice restores the original pixels.
func NewInvert() *PointEffect {
	key := ChannelsRGB.xorKey()
	return &PointEffect{
		Name: "invert",
		Fn: func(dst, src []byte) {
			for i := 0; i+3 < len(src); i += pixfx.BytesPerPixel {
				dst[i] = src[i] ^ key[0]
				dst[i+1] = src[i+1] ^ key[1]
				dst[i+2] = src[i+2] ^ key[2]
				dst[i+3] = src[i+3] ^ key[3]
			}
		},
		Ctrls: []pixfx.Control{
			&pixfx.ControlEnum[ChannelMask]{
				Name:        "Channels",
				Description: "Channels to invert. Alpha is only inverted when selected explicitly",
				Value:       ChannelsRGB,
				ValidValues: invertChannelChoices,
				OnChange: func(m ChannelMask) error {
					key = m.xorKey() // Closure will assign and Fn above pick up.
					return nil
				},
			},
		},
	}
}
