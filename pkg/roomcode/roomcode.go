// Package roomcode handles the shared strings that scope every room-bound record.
package roomcode

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
)

const (
	// GeneratedLength is the length of codes produced by Generate.
	GeneratedLength = 6

	// MaxLength bounds user-chosen codes.
	MaxLength = 64

	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var (
	ErrEmpty   = errors.New("room code is required")
	ErrTooLong = errors.New("room code is too long")
)

// Normalize trims the code and upper-cases it. Every feature uses the same form,
// so "abcdef" and " ABCDEF " name the same room.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Parse normalizes code and rejects empty or oversized input.
func Parse(code string) (string, error) {
	n := Normalize(code)
	if n == "" {
		return "", ErrEmpty
	}
	if len(n) > MaxLength {
		return "", ErrTooLong
	}
	return n, nil
}

// Generate returns a random code of GeneratedLength characters from [A-Z0-9].
func Generate() (string, error) {
	var sb strings.Builder
	sb.Grow(GeneratedLength)

	max := big.NewInt(int64(len(alphabet)))
	for i := 0; i < GeneratedLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(alphabet[n.Int64()])
	}
	return sb.String(), nil
}
