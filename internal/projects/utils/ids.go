package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// NewID generates a new hex-based ID with a prefix (used for form sessions and spooled uploads).
// Format: "prefix_hexstring" (e.g., "frm_a1b2c3d4e5f6...")
func NewID(prefix string) (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s_%s", prefix, hex.EncodeToString(b)), nil
}
