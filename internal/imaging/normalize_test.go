package imaging

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	img "github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeJPEG(t *testing.T, width, height int) []byte {
	m := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			m.Set(x, y, color.NRGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, img.Encode(&buf, m, img.JPEG))
	return buf.Bytes()
}

func heifHeader(brand string) []byte {
	payload := make([]byte, 0, 24)
	payload = append(payload, 0x00, 0x00, 0x00, 0x18)
	payload = append(payload, []byte("ftyp")...)
	payload = append(payload, []byte(brand)...)
	payload = append(payload, make([]byte, 12)...)
	return payload
}

func TestIsProbablyHEIF(t *testing.T) {
	t.Run("recognizes known brands", func(t *testing.T) {
		for _, brand := range []string{"heic", "heix", "hevc", "hevx", "mif1", "msf1", "heif"} {
			assert.True(t, IsProbablyHEIF(heifHeader(brand)), brand)
		}
	})

	t.Run("brand check is case-insensitive", func(t *testing.T) {
		assert.True(t, IsProbablyHEIF(heifHeader("HEIC")))
	})

	t.Run("rejects other containers", func(t *testing.T) {
		assert.False(t, IsProbablyHEIF(heifHeader("isom")))
		assert.False(t, IsProbablyHEIF([]byte{0xFF, 0xD8, 0xFF}))
		assert.False(t, IsProbablyHEIF(nil))
	})
}

func TestDetectMediaType(t *testing.T) {
	assert.Equal(t, "image/jpeg", DetectMediaType([]byte{0xFF, 0xD8, 0xFF, 0xE0}))
	assert.Equal(t, "image/png", DetectMediaType([]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}))
	assert.Equal(t, "image/gif", DetectMediaType([]byte("GIF89a......")))
	assert.Equal(t, "image/webp", DetectMediaType(append([]byte("RIFF\x00\x00\x00\x00"), []byte("WEBP")...)))
	// unknown headers fall back to jpeg
	assert.Equal(t, "image/jpeg", DetectMediaType([]byte("plain text")))
}

func TestNormalize(t *testing.T) {
	t.Run("rejects HEIF uploads", func(t *testing.T) {
		_, _, err := Normalize(heifHeader("heic"))
		assert.ErrorIs(t, err, ErrHEIFNotSupported)
	})

	t.Run("small image passes through unchanged", func(t *testing.T) {
		data := encodeJPEG(t, 640, 480)
		out, mime, err := Normalize(data)
		require.NoError(t, err)
		assert.Equal(t, data, out)
		assert.Equal(t, "image/jpeg", mime)
	})

	t.Run("oversized image is downscaled", func(t *testing.T) {
		data := encodeJPEG(t, 4000, 1000)
		out, mime, err := Normalize(data)
		require.NoError(t, err)
		assert.Equal(t, "image/jpeg", mime)

		decoded, err := img.Decode(bytes.NewReader(out))
		require.NoError(t, err)
		assert.Equal(t, 3200, decoded.Bounds().Dx())
		assert.LessOrEqual(t, decoded.Bounds().Dy(), 1000)
	})

	t.Run("portrait orientation capped on height", func(t *testing.T) {
		data := encodeJPEG(t, 1000, 4000)
		out, _, err := Normalize(data)
		require.NoError(t, err)

		decoded, err := img.Decode(bytes.NewReader(out))
		require.NoError(t, err)
		assert.Equal(t, 3200, decoded.Bounds().Dy())
	})

	t.Run("undecodable payload passes through", func(t *testing.T) {
		data := []byte("not an image at all")
		out, mime, err := Normalize(data)
		require.NoError(t, err)
		assert.Equal(t, data, out)
		assert.Equal(t, "image/jpeg", mime)
	})
}
