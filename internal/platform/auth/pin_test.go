package auth

import (
	"strings"
	"testing"
)

func TestHashPIN(t *testing.T) {
	hash, err := HashPIN("1234")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hash == "1234" || !strings.HasPrefix(hash, "$2") {
		t.Fatalf("expected a bcrypt hash, got %q", hash)
	}

	tests := []struct {
		name string
		hash string
		pin  string
		want bool
	}{
		{"match", hash, "1234", true},
		{"wrong pin", hash, "4321", false},
		{"empty pin", hash, "", false},
		{"no hash", "", "1234", false},
		{"plain text is not a hash", "1234", "1234", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckPIN(tt.hash, tt.pin); got != tt.want {
				t.Errorf("CheckPIN = %v, want %v", got, tt.want)
			}
		})
	}
}
