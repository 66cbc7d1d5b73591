package record

import (
	"crypto/rand"
	"io"
	"strings"
)

const (
	keyAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	keyLength   = 8

	// DefaultExt substitutes empty or malformed extension hints.
	DefaultExt = "jpg"

	maxExtLength = 4
)

// NewKey produces a storage key: an 8-character random base-36 token plus
// the normalized extension. Keys are assumed unique; no collision check
// is performed, a colliding write overwrites the older record.
func NewKey(extHint string) string {
	var buf [keyLength]byte
	_, _ = io.ReadFull(rand.Reader, buf[:])
	token := make([]byte, keyLength)
	for i, b := range buf {
		token[i] = keyAlphabet[int(b)%len(keyAlphabet)]
	}
	return string(token) + "." + NormalizeExt(extHint)
}

// NormalizeExt lowercases the hint and falls back to DefaultExt when it
// is empty or longer than four characters.
func NormalizeExt(hint string) string {
	ext := strings.ToLower(strings.TrimPrefix(hint, "."))
	if ext == "" || len(ext) > maxExtLength {
		return DefaultExt
	}
	return ext
}

// ExtHint extracts the extension hint from a filename or a Telegram file
// path. Names without a dot yield an empty hint.
func ExtHint(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 || i == len(name)-1 {
		return ""
	}
	return name[i+1:]
}
