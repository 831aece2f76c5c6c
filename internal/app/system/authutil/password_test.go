package authutil

import (
	"strings"
	"testing"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"valid short", "abc123x", nil},
		{"valid medium", "mySecurePassword", nil},
		{"valid max length", strings.Repeat("a", MaxPasswordLength), nil},
		{"valid with spaces", "my secret password", nil},

		{"too short", "abcde", ErrPasswordTooShort},
		{"empty", "", ErrPasswordTooShort},
		{"too long", strings.Repeat("a", MaxPasswordLength+1), ErrPasswordTooLong},

		{"common password", "password", ErrPasswordCommon},
		{"common uppercase", "PASSWORD", ErrPasswordCommon},
		{"common admin123", "Admin123", ErrPasswordCommon},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if err != tt.wantErr {
				t.Errorf("ValidatePassword(%q) = %v, want %v", tt.password, err, tt.wantErr)
			}
		})
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	password := "mySecurePassword123"

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == password {
		t.Fatal("HashPassword() returned unhashed password")
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("hash does not appear to be bcrypt: %s", hash)
	}
	if !strings.Contains(hash, "$12$") {
		t.Errorf("hash should use cost %d: %s", BcryptCost, hash)
	}

	if !CheckPassword(password, hash) {
		t.Error("CheckPassword() = false for correct password")
	}
	if CheckPassword("wrongPassword", hash) {
		t.Error("CheckPassword() = true for wrong password")
	}
	if CheckPassword(password, "not-a-hash") {
		t.Error("CheckPassword() = true for malformed hash")
	}

	hash2, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() second call error = %v", err)
	}
	if hash == hash2 {
		t.Error("same password should produce different hashes (salt)")
	}
}

func TestBurnCompare(t *testing.T) {
	// Must not panic on first or repeated use.
	BurnCompare("anything")
	BurnCompare("")
}
