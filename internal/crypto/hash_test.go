package crypto

import (
	"strings"
	"testing"
)

// testParams keeps hashing fast in tests.
var testParams = HashParams{Memory: MinHashMemoryKiB, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("correct-horse-battery-staple", DefaultHashParams())
	if err != nil {
		t.Fatalf("HashPassword() unexpected error: %v", err)
	}

	if hash == "" {
		t.Fatal("HashPassword() returned empty string")
	}

	parts := strings.Split(hash, "$")
	if len(parts) != 6 {
		t.Fatalf("HashPassword() expected 6 parts, got %d: %q", len(parts), hash)
	}
	if parts[1] != "argon2id" {
		t.Errorf("HashPassword() algorithm = %q, want %q", parts[1], "argon2id")
	}
	if parts[2] != "v=19" {
		t.Errorf("HashPassword() version = %q, want %q", parts[2], "v=19")
	}
	if parts[3] != "m=65536,t=3,p=2" {
		t.Errorf("HashPassword() params = %q, want %q", parts[3], "m=65536,t=3,p=2")
	}
	if strings.Contains(hash, "correct-horse-battery-staple") {
		t.Error("HashPassword() leaked the plaintext into the digest")
	}
}

func TestHashPasswordUsesParams(t *testing.T) {
	hash, err := HashPassword("secret1", testParams)
	if err != nil {
		t.Fatalf("HashPassword() unexpected error: %v", err)
	}

	if !strings.Contains(hash, "$m=8192,t=1,p=1$") {
		t.Errorf("HashPassword() = %q, want m=8192,t=1,p=1", hash)
	}
}

func TestVerifyPasswordCorrect(t *testing.T) {
	password := "my-secure-password"
	hash, err := HashPassword(password, testParams)
	if err != nil {
		t.Fatalf("HashPassword() unexpected error: %v", err)
	}

	match, err := VerifyPassword(password, hash)
	if err != nil {
		t.Fatalf("VerifyPassword() unexpected error: %v", err)
	}
	if !match {
		t.Error("VerifyPassword() returned false for correct password")
	}
}

func TestVerifyPasswordLongAndMultiByte(t *testing.T) {
	passwords := []string{
		strings.Repeat("a", 100),
		strings.Repeat("a", 99) + "b",
		strings.Repeat("пароль", 16),
	}

	for _, password := range passwords {
		hash, err := HashPassword(password, testParams)
		if err != nil {
			t.Fatalf("HashPassword(%d bytes) unexpected error: %v", len(password), err)
		}

		match, err := VerifyPassword(password, hash)
		if err != nil || !match {
			t.Errorf("VerifyPassword(%d bytes) = %v, %v; want true, nil", len(password), match, err)
		}
	}

	// Bytes past 72 must still count.
	hash, err := HashPassword(strings.Repeat("a", 100), testParams)
	if err != nil {
		t.Fatalf("HashPassword() unexpected error: %v", err)
	}
	match, err := VerifyPassword(strings.Repeat("a", 99)+"b", hash)
	if err != nil {
		t.Fatalf("VerifyPassword() unexpected error: %v", err)
	}
	if match {
		t.Error("VerifyPassword() ignored a difference in the last byte")
	}
}

func TestVerifyPasswordWrong(t *testing.T) {
	hash, err := HashPassword("correct-password", testParams)
	if err != nil {
		t.Fatalf("HashPassword() unexpected error: %v", err)
	}

	match, err := VerifyPassword("wrong-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword() unexpected error: %v", err)
	}
	if match {
		t.Error("VerifyPassword() returned true for wrong password")
	}
}

func TestHashPasswordProducesDifferentHashes(t *testing.T) {
	password := "same-password"

	hash1, err := HashPassword(password, testParams)
	if err != nil {
		t.Fatalf("HashPassword() unexpected error: %v", err)
	}

	hash2, err := HashPassword(password, testParams)
	if err != nil {
		t.Fatalf("HashPassword() unexpected error: %v", err)
	}

	if hash1 == hash2 {
		t.Error("HashPassword() produced identical hashes for same password (salt should differ)")
	}
}

func TestVerifyPasswordInvalidHash(t *testing.T) {
	tests := []string{
		"invalid-hash-format",
		"$2a$10$abcdefghijklmnopqrstuv",
		"$argon2id$v=19$m=8192,t=0,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1,p=1$!!$aGFzaA",
	}

	for _, encoded := range tests {
		if _, err := VerifyPassword("password", encoded); err == nil {
			t.Errorf("VerifyPassword(%q) expected error for invalid hash format", encoded)
		}
	}

	if _, err := VerifyPassword("password", "$argon2id$v=16$m=8192,t=1,p=1$c2FsdA$aGFzaA"); err != ErrIncompatibleVersion {
		t.Errorf("VerifyPassword() error = %v, want ErrIncompatibleVersion", err)
	}
}
