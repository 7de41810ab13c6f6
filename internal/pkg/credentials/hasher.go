// Package credentials implements the user credential store's hash scheme:
// a single unsalted SHA-256 hex digest, kept compatible with the documents
// already persisted in the user collection.
package credentials

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

func VerifyPassword(storedHash, provided string) bool {
	computed := HashPassword(provided)
	return subtle.ConstantTimeCompare([]byte(storedHash), []byte(computed)) == 1
}
