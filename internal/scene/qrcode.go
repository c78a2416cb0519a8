package scene

import (
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/skip2/go-qrcode"
)

// NewQRCode creates an <image> node showing content as a QR code of
// size x size pixels, embedded as a PNG data URI.
func NewQRCode(id, content string, size int) (*Node, error) {
	if size <= 0 {
		return nil, fmt.Errorf("qr code size must be positive, got %d", size)
	}
	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("qr code encode: %w", err)
	}

	n := New("image").SetID(id)
	n.SetAttr("width", strconv.Itoa(size))
	n.SetAttr("height", strconv.Itoa(size))
	n.SetAttr("href", "data:image/png;base64,"+base64.StdEncoding.EncodeToString(png))
	return n, nil
}
