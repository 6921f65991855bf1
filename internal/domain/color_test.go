package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHexColorNormalizesChannels(t *testing.T) {
	c, err := ParseHexColor("ff0080")
	require.NoError(t, err)

	assert.InDelta(t, 1.0, c.R, 1e-6)
	assert.InDelta(t, 0.0, c.G, 1e-6)
	assert.InDelta(t, 128.0/255.0, c.B, 1e-6)
}

func TestParseHexColorAcceptsUpperCase(t *testing.T) {
	c, err := ParseHexColor("ABCDEF")
	require.NoError(t, err)
	assert.Equal(t, "abcdef", c.Hex())
}

func TestParseHexColorRoundTripsEveryChannelValue(t *testing.T) {
	for v := 0; v <= 255; v++ {
		hex := fmt.Sprintf("%02x%02x%02x", v, 255-v, (v*7)%256)
		c, err := ParseHexColor(hex)
		require.NoError(t, err, hex)

		r, g, b := c.Bytes()
		require.Equal(t, uint8(v), r, hex)
		require.Equal(t, uint8(255-v), g, hex)
		require.Equal(t, uint8((v*7)%256), b, hex)
		require.Equal(t, hex, c.Hex())
	}
}

func TestParseHexColorRejectsMalformed(t *testing.T) {
	for _, input := range []string{"", "fff", "#ffffff", "gg0000", "12345", "1234567"} {
		_, err := ParseHexColor(input)
		assert.Error(t, err, "input %q", input)
	}
}

func TestColorBytesClampsOutOfRange(t *testing.T) {
	r, g, b := Color{R: 1.5, G: -0.2, B: 0.5}.Bytes()
	assert.Equal(t, uint8(255), r)
	assert.Equal(t, uint8(0), g)
	assert.Equal(t, uint8(128), b)
}

func TestColorJSONRoundTrip(t *testing.T) {
	var c Color
	require.NoError(t, c.UnmarshalJSON([]byte(`"102030"`)))
	raw, err := c.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `"102030"`, string(raw))
	assert.Error(t, c.UnmarshalJSON([]byte(`"zz"`)))
}
