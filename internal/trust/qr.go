package trust

import (
	"encoding/base64"
	"errors"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// ErrRendererUnavailable is returned by the no-op renderer; the surface
// degrades to a plain-URL payload instead of failing the request.
var ErrRendererUnavailable = errors.New("trust: QR renderer unavailable")

// QRRenderer renders scannable codes. Selected at composition time: either
// the real renderer or the unavailable variant, never probed per call.
type QRRenderer interface {
	// Render returns a base64 PNG data URI encoding content, sized to
	// size pixels per edge.
	Render(content string, size int) (string, error)
}

type qrcodeRenderer struct{}

// NewQRRenderer returns the PNG-backed renderer.
func NewQRRenderer() QRRenderer {
	return qrcodeRenderer{}
}

func (qrcodeRenderer) Render(content string, size int) (string, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return "", fmt.Errorf("trust: failed to render QR code: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

type noopRenderer struct{}

// NewNoopRenderer returns the unavailable variant.
func NewNoopRenderer() QRRenderer {
	return noopRenderer{}
}

func (noopRenderer) Render(string, int) (string, error) {
	return "", ErrRendererUnavailable
}
