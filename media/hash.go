package media

import (
	"crypto/sha512"
	"encoding/hex"
)

// HashLength is the length of a content hash in hex characters
const HashLength = sha512.Size * 2

// Hash returns the lowercase hex SHA-512 digest of buf
func Hash(buf []byte) string {
	sum := sha512.Sum512(buf)
	return hex.EncodeToString(sum[:])
}

// ValidHash reports whether s looks like a value produced by Hash
func ValidHash(s string) bool {
	if len(s) != HashLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
