package utils

import (
	"golang.org/x/crypto/bcrypt" // Password hashing
)

// MinPasswordLength is the shortest accepted password
const MinPasswordLength = 8

// dummyHash is compared against when the email is unknown so both login failures cost the same
var dummyHash = []byte("$2a$10$7EqJtq98hPqEX7fNZaFWoO5rR2x8yEBt6Q3yYxv2NBBBBBBBBBBBB")

// HashPassword hashes a password with the given bcrypt cost
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// BurnPasswordCheck runs a comparison that always fails
func BurnPasswordCheck(password string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}
