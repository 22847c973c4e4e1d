package qrcode_test

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestaonuvem/entitlements/pkg/qrcode"
)

const pixPayload = "00020126580014br.gov.bcb.pix0136123e4567-e12b-12d1-a456-4266554400005204000053039865802BR5913GESTAO NUVEM6009SAO PAULO62070503***63041D3D"

func TestPNG(t *testing.T) {
	t.Parallel()

	t.Run("rejects empty payload", func(t *testing.T) {
		t.Parallel()
		img, err := qrcode.PNG("  \t", 128)
		require.ErrorIs(t, err, qrcode.ErrEmptyPayload)
		assert.Nil(t, img)
	})

	t.Run("encodes a decodable image of the requested size", func(t *testing.T) {
		t.Parallel()
		img, err := qrcode.PNG(pixPayload, 300)
		require.NoError(t, err)

		decoded, err := png.Decode(bytes.NewReader(img))
		require.NoError(t, err)
		assert.Equal(t, 300, decoded.Bounds().Dx())
		assert.Equal(t, 300, decoded.Bounds().Dy())
	})

	t.Run("falls back to the default size", func(t *testing.T) {
		t.Parallel()
		img, err := qrcode.PNG(pixPayload, 0)
		require.NoError(t, err)

		decoded, err := png.Decode(bytes.NewReader(img))
		require.NoError(t, err)
		assert.Equal(t, qrcode.DefaultSize, decoded.Bounds().Dx())
	})
}

func TestDataURI(t *testing.T) {
	t.Parallel()

	uri, err := qrcode.DataURI(pixPayload, 128)
	require.NoError(t, err)
	require.True(t, qrcode.IsDataURI(uri))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/png;base64,"))
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)

	_, err = qrcode.DataURI("", 128)
	require.ErrorIs(t, err, qrcode.ErrEmptyPayload)
	assert.False(t, qrcode.IsDataURI("https://example.com/qr.png"))
}

func TestTerminal(t *testing.T) {
	t.Parallel()

	out, err := qrcode.Terminal(pixPayload)
	require.NoError(t, err)
	assert.Greater(t, strings.Count(out, "\n"), 10)
	assert.True(t, strings.ContainsAny(out, "█▀▄"))

	_, err = qrcode.Terminal(" ")
	require.ErrorIs(t, err, qrcode.ErrEmptyPayload)
}
