// Package imaging normalizes uploaded receipt photos before storage so the
// rest of the pipeline only ever sees browser- and model-friendly bytes.
package imaging

import (
	"bytes"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// photos beyond this edge length are downscaled to keep stored blobs and
// model payloads lightweight
const maxEdge = 3200

const jpegQuality = 90

const DefaultMimeType = "image/jpeg"

// ErrHEIFNotSupported is returned for HEIC/HEIF uploads, which have no
// pure-Go decoder. Callers surface this as a client error.
var ErrHEIFNotSupported = errors.New("HEIC/HEIF images are not supported, please upload JPEG or PNG")

var heifBrands = map[string]struct{}{
	"heic": {},
	"heix": {},
	"hevc": {},
	"hevx": {},
	"mif1": {},
	"msf1": {},
	"heif": {},
}

// IsProbablyHEIF detects HEIC/HEIF containers via the ftyp brand without
// decoding the payload.
func IsProbablyHEIF(payload []byte) bool {
	if len(payload) <= 12 {
		return false
	}
	if !bytes.Equal(payload[4:8], []byte("ftyp")) {
		return false
	}
	brand := string(bytes.ToLower(payload[8:12]))
	_, ok := heifBrands[brand]
	return ok
}

// DetectMediaType sniffs the image format from magic bytes, falling back to
// JPEG when the header is not recognized.
func DetectMediaType(payload []byte) string {
	switch {
	case len(payload) >= 3 && payload[0] == 0xFF && payload[1] == 0xD8 && payload[2] == 0xFF:
		return "image/jpeg"
	case len(payload) >= 8 && bytes.Equal(payload[:8], []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}):
		return "image/png"
	case len(payload) >= 6 && (bytes.Equal(payload[:6], []byte("GIF87a")) || bytes.Equal(payload[:6], []byte("GIF89a"))):
		return "image/gif"
	case len(payload) >= 12 && bytes.Equal(payload[:4], []byte("RIFF")) && bytes.Equal(payload[8:12], []byte("WEBP")):
		return "image/webp"
	default:
		return DefaultMimeType
	}
}

// Normalize prepares an uploaded image for storage. HEIF uploads are
// rejected. Oversized photos are downscaled to maxEdge and re-encoded as
// JPEG; everything else passes through untouched with its sniffed mime
// type. Undecodable payloads also pass through, the extraction model gets
// to decide what to do with them.
func Normalize(data []byte) ([]byte, string, error) {
	if IsProbablyHEIF(data) {
		return nil, "", ErrHEIFNotSupported
	}

	mime := DetectMediaType(data)

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return data, mime, nil
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	longest := width
	if height > longest {
		longest = height
	}
	if longest <= maxEdge {
		return data, mime, nil
	}

	if width >= height {
		img = imaging.Resize(img, maxEdge, 0, imaging.Lanczos)
	} else {
		img = imaging.Resize(img, 0, maxEdge, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, "", errors.Wrap(err, "re-encoding downscaled image")
	}
	return buf.Bytes(), "image/jpeg", nil
}
