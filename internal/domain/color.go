package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Color is an RGB color with channels normalized to [0,1].
type Color struct {
	R float32
	G float32
	B float32
}

// ParseHexColor decodes a six digit hex string ("rrggbb"), two digits per channel.
func ParseHexColor(hex string) (Color, error) {
	if len(hex) != 6 {
		return Color{}, fmt.Errorf("color %q: expected 6 hex digits", hex)
	}
	var ch [3]float32
	for i := range ch {
		v, err := strconv.ParseUint(hex[i*2:i*2+2], 16, 8)
		if err != nil {
			return Color{}, fmt.Errorf("color %q: %w", hex, err)
		}
		ch[i] = float32(v) / 255
	}
	return Color{R: ch[0], G: ch[1], B: ch[2]}, nil
}

// Bytes re-encodes the channels to 8-bit values.
func (c Color) Bytes() (r, g, b uint8) {
	return toByte(c.R), toByte(c.G), toByte(c.B)
}

// Hex formats the color as lowercase "rrggbb".
func (c Color) Hex() string {
	r, g, b := c.Bytes()
	return fmt.Sprintf("%02x%02x%02x", r, g, b)
}

func (c Color) String() string {
	return "#" + c.Hex()
}

// MarshalJSON writes the color in the same hex form the server uses.
func (c Color) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Hex())
}

// UnmarshalJSON accepts the server's hex form.
func (c *Color) UnmarshalJSON(data []byte) error {
	var hex string
	if err := json.Unmarshal(data, &hex); err != nil {
		return err
	}
	parsed, err := ParseHexColor(hex)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func toByte(v float32) uint8 {
	scaled := math.Round(float64(v) * 255)
	return uint8(math.Max(0, math.Min(255, scaled)))
}
