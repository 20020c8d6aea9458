// Package codeimage renders identifiers as QR code PNG images.
package codeimage

import (
	"errors"
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// ErrEncoding is returned when a payload cannot be represented as a QR code.
var ErrEncoding = errors.New("code image encoding failed")

// DefaultSize is the edge length in pixels of generated images.
const DefaultSize = 256

// Encoder converts payloads into square PNG QR codes.
type Encoder struct {
	size  int
	level qrcode.RecoveryLevel
}

// NewEncoder creates an encoder producing size×size images with the given
// error-correction level (low, medium, high or highest).
func NewEncoder(size int, level string) (*Encoder, error) {
	if size <= 0 {
		size = DefaultSize
	}
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return &Encoder{size: size, level: lvl}, nil
}

// ParseLevel maps a level name to a recovery level. An empty name means medium.
func ParseLevel(name string) (qrcode.RecoveryLevel, error) {
	switch strings.ToLower(name) {
	case "low":
		return qrcode.Low, nil
	case "", "medium":
		return qrcode.Medium, nil
	case "high":
		return qrcode.High, nil
	case "highest":
		return qrcode.Highest, nil
	default:
		return qrcode.Medium, fmt.Errorf("unknown QR error-correction level %q", name)
	}
}

// Size returns the image edge length in pixels.
func (e *Encoder) Size() int { return e.size }

// Encode returns the PNG bytes of a QR code carrying payload verbatim.
func (e *Encoder) Encode(payload string) ([]byte, error) {
	if payload == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrEncoding)
	}
	png, err := qrcode.Encode(payload, e.level, e.size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	return png, nil
}
