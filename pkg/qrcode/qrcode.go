package qrcode

import (
	"encoding/base64"
	"errors"
	"strings"

	skipqrcode "github.com/skip2/go-qrcode"
)

// DefaultSize is the PNG edge in pixels used when size is not positive.
const DefaultSize = 256

const dataURIPrefix = "data:image/png;base64,"

// PNG encodes the payload as a square PNG image.
func PNG(payload string, size int) ([]byte, error) {
	if strings.TrimSpace(payload) == "" {
		return nil, ErrEmptyPayload
	}
	if size <= 0 {
		size = DefaultSize
	}
	img, err := skipqrcode.Encode(payload, skipqrcode.Medium, size)
	if err != nil {
		return nil, errors.Join(ErrEncode, err)
	}
	return img, nil
}

// DataURI encodes the payload as a base64 PNG data URI, ready for an <img> src.
func DataURI(payload string, size int) (string, error) {
	img, err := PNG(payload, size)
	if err != nil {
		return "", err
	}
	return dataURIPrefix + base64.StdEncoding.EncodeToString(img), nil
}

// Terminal renders the payload with Unicode half blocks so a PIX code can be
// scanned straight from a terminal window.
func Terminal(payload string) (string, error) {
	if strings.TrimSpace(payload) == "" {
		return "", ErrEmptyPayload
	}
	q, err := skipqrcode.New(payload, skipqrcode.Low)
	if err != nil {
		return "", errors.Join(ErrEncode, err)
	}
	return q.ToSmallString(false), nil
}

// IsDataURI reports whether s already is a PNG data URI.
func IsDataURI(s string) bool {
	return strings.HasPrefix(s, dataURIPrefix)
}
