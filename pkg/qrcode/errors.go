package qrcode

import "errors"

var (
	ErrEmptyPayload = errors.New("qr payload cannot be empty")
	ErrEncode       = errors.New("failed to encode qr code")
)
