package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PINCost is the bcrypt cost for attendance PINs.
var PINCost = bcrypt.DefaultCost

// HashPIN hashes an attendance PIN for storage.
func HashPIN(pin string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(pin), PINCost)
	if err != nil {
		return "", fmt.Errorf("hash pin: %w", err)
	}
	return string(h), nil
}

// CheckPIN reports whether pin matches the stored hash.
func CheckPIN(hash, pin string) bool {
	if hash == "" || pin == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) == nil
}
