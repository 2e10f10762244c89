package ocr

import (
	"bytes"
	"fmt"
	"image/png"
	"os"

	"github.com/gen2brain/heic"
)

// decodeHEIC converts the HEIC/HEIF photo at src into a PNG at dst. The
// image converter does not read HEIC reliably, so photos are decoded in
// process before they enter the regular image path.
func decodeHEIC(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("reading HEIC image: %w", err)
	}

	img, err := heic.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decoding HEIC/HEIF image: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encoding PNG: %w", err)
	}

	if err := os.WriteFile(dst, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("writing PNG: %w", err)
	}
	return nil
}

// isHEICFormat checks if the image data is in HEIC/HEIF format
// HEIC files carry an ftyp box at offset 4 followed by the brand
func isHEICFormat(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heix", "heif", "mif1", "msf1":
		return true
	}
	return false
}
