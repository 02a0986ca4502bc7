package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

const saltBytes = 16

// NewSalt returns a random per-account salt, hex encoded.
func NewSalt() (string, error) {
	return randomHex(saltBytes)
}

// HashPassword returns hex(HMAC-SHA256(key=salt, msg=password)).
func HashPassword(salt, password string) string {
	mac := hmac.New(sha256.New, []byte(salt))
	mac.Write([]byte(password))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyPassword compares in constant time.
func VerifyPassword(salt, password, hash string) bool {
	if salt == "" || hash == "" {
		return false
	}
	return hmac.Equal([]byte(HashPassword(salt, password)), []byte(hash))
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
