package qrcode

import (
	"fmt"

	goqrcode "github.com/skip2/go-qrcode"

	"github.com/valepallet/vpallet/internal/application/port"
)

// DefaultSize is the PNG edge length in pixels
const DefaultSize = 256

// Encoder renders voucher payloads as PNG QR codes with medium error recovery
type Encoder struct {
	size int
}

// NewEncoder creates an encoder; a non-positive size falls back to DefaultSize
func NewEncoder(size int) *Encoder {
	if size <= 0 {
		size = DefaultSize
	}
	return &Encoder{size: size}
}

// Encode returns the PNG bytes for content. The output depends only on content and size.
func (e *Encoder) Encode(content string) ([]byte, error) {
	if content == "" {
		return nil, fmt.Errorf("empty qr content")
	}
	png, err := goqrcode.Encode(content, goqrcode.Medium, e.size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}
	return png, nil
}

var _ port.QREncoder = (*Encoder)(nil)
