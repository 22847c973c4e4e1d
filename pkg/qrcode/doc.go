// Package qrcode renders PIX copy-and-paste payloads as scannable QR codes.
//
// PNG returns raw image bytes, DataURI wraps them as a base64 data URI for web
// clients, and Terminal draws the code with Unicode half blocks for CLI use.
// Encoding is delegated to github.com/skip2/go-qrcode.
//
// Empty payloads return ErrEmptyPayload; encoder failures wrap ErrEncode.
package qrcode
