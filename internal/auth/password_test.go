package auth

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "correct horse" {
		t.Fatal("hash must not equal the plain password")
	}

	if !CheckPassword(hash, "correct horse") {
		t.Error("expected matching password to be accepted")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("expected wrong password to be rejected")
	}
}

// TestCheckPassword_EmptyHash はGoogle専用アカウントでパスワード認証できないことを確認する。
func TestCheckPassword_EmptyHash(t *testing.T) {
	if CheckPassword("", "") {
		t.Error("empty hash must never match")
	}
	if CheckPassword("", "anything") {
		t.Error("empty hash must never match")
	}
}
