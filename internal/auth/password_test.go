package auth

import (
	"strings"
	"testing"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name        string
		password    string
		expectError bool
	}{
		{
			name:        "Valid password",
			password:    "correct-horse-battery",
			expectError: false,
		},
		{
			name:        "Minimum length password",
			password:    "12345678",
			expectError: false,
		},
		{
			name:        "Too short",
			password:    "1234567",
			expectError: true,
		},
		{
			name:        "Empty password",
			password:    "",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password)
			if tt.expectError {
				if err != ErrWeakPassword {
					t.Errorf("HashPassword() error = %v, want ErrWeakPassword", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("HashPassword() error: %v", err)
			}
			if hash == tt.password {
				t.Error("HashPassword() returned the plaintext")
			}
			if !strings.HasPrefix(hash, "$2a$") && !strings.HasPrefix(hash, "$2b$") {
				t.Errorf("hash %q does not look like bcrypt", hash)
			}
		})
	}
}

func TestVerifyPassword(t *testing.T) {
	password := "correct-horse-battery"
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}

	if err := VerifyPassword(hash, password); err != nil {
		t.Errorf("VerifyPassword() rejected the correct password: %v", err)
	}
	if err := VerifyPassword(hash, "wrong-password"); err == nil {
		t.Error("VerifyPassword() accepted a wrong password")
	}
}

func TestHashPasswordUniqueSalts(t *testing.T) {
	a, err := HashPassword("correct-horse-battery")
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	b, err := HashPassword("correct-horse-battery")
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	if a == b {
		t.Error("two hashes of the same password are identical; salting is broken")
	}
}
