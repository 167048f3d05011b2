package vfs

import (
	"bytes"
	"unicode/utf8"
)

// BOM (Byte Order Mark) constants
var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// DecodeText converts file content to document text. A UTF-8 BOM is
// stripped; UTF-16 content and invalid UTF-8 are rejected.
func DecodeText(content []byte) (string, error) {
	if bytes.HasPrefix(content, bomUTF8) {
		content = content[len(bomUTF8):]
	} else if bytes.HasPrefix(content, bomUTF16LE) || bytes.HasPrefix(content, bomUTF16BE) {
		return "", ErrUnsupportedEncoding
	}
	if !utf8.Valid(content) {
		return "", ErrInvalidEncoding
	}
	return string(content), nil
}

// EncodeText converts document text to file content.
func EncodeText(text string) ([]byte, error) {
	if !utf8.ValidString(text) {
		return nil, ErrInvalidEncoding
	}
	return []byte(text), nil
}
