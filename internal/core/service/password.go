package service

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// bcryptPrefix is the delegating-encoder id stored in front of bcrypt digests.
const bcryptPrefix = "{bcrypt}"

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// HashPassword returns a "{bcrypt}"-prefixed digest of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return bcryptPrefix + string(hash), nil
}

// CheckPassword verifies password against a stored digest. Digests tagged with
// any encoder id other than {bcrypt} never match.
func CheckPassword(stored, password string) bool {
	hash := stored
	if strings.HasPrefix(hash, "{") {
		if !strings.HasPrefix(hash, bcryptPrefix) {
			return false
		}
		hash = strings.TrimPrefix(hash, bcryptPrefix)
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
