package documents

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

const signaturePrefix = "data:image/png;base64,"

// Keeps pathological uploads out of the render pipeline.
const maxSignatureBytes = 1 << 20

var pngMagic = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

// ErrInvalidSignature rejects malformed signature uploads.
var ErrInvalidSignature = errors.New("documents: invalid signature image")

// DecodeSignature validates a base64 PNG data URL and returns the raw image
// bytes.
func DecodeSignature(dataURL string) ([]byte, error) {
	if !strings.HasPrefix(dataURL, signaturePrefix) {
		return nil, fmt.Errorf("%w: expected a PNG data URL", ErrInvalidSignature)
	}
	encoded := strings.TrimPrefix(dataURL, signaturePrefix)
	if encoded == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidSignature)
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if len(raw) > maxSignatureBytes {
		return nil, fmt.Errorf("%w: image too large", ErrInvalidSignature)
	}
	if !bytes.HasPrefix(raw, pngMagic) {
		return nil, fmt.Errorf("%w: not a PNG image", ErrInvalidSignature)
	}
	return raw, nil
}

// SignatureDataURL re-encodes validated image bytes for inline embedding.
func SignatureDataURL(raw []byte) string {
	return signaturePrefix + base64.StdEncoding.EncodeToString(raw)
}
