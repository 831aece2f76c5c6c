// Package authutil holds password rules and bcrypt helpers for the admin account.
package authutil

import (
	"errors"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 6
	MaxPasswordLength = 128
	BcryptCost        = 12
)

var (
	ErrPasswordTooShort = errors.New("Password must be at least 6 characters.")
	ErrPasswordTooLong  = errors.New("Password must be at most 128 characters.")
	ErrPasswordCommon   = errors.New("This password is too common. Please choose a different one.")
)

// blocked passwords, compared case-insensitively.
var commonPasswords = map[string]bool{
	"123456":    true,
	"1234567":   true,
	"12345678":  true,
	"123456789": true,
	"password":  true,
	"password1": true,
	"qwerty":    true,
	"qwerty123": true,
	"abc123":    true,
	"111111":    true,
	"000000":    true,
	"123123":    true,
	"iloveyou":  true,
	"letmein":   true,
	"welcome":   true,
	"admin":     true,
	"admin123":  true,
}

// ValidatePassword checks length bounds and the common-password list.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	if commonPasswords[strings.ToLower(password)] {
		return ErrPasswordCommon
	}
	return nil
}

// HashPassword hashes a password with bcrypt at BcryptCost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the bcrypt hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

var (
	dummyHash     []byte
	dummyHashOnce sync.Once
)

// BurnCompare runs one bcrypt comparison against a throwaway hash so a
// login for an unknown account costs as much as a wrong password.
func BurnCompare(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("stratasite-unknown-account"), BcryptCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}
