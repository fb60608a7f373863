package internal

import (
	"bytes"
	"testing"
)

func TestEncryptDecrypt(t *testing.T) {
	key := []byte("a-keychain-secret-of-any-length")
	plainText := []byte(`{"access_key":"AKIA"}`)

	cipherText, err := Encrypt(plainText, key)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if bytes.Contains(cipherText, plainText) {
		t.Fatal("ciphertext contains the plaintext")
	}

	decrypted, err := Decrypt(cipherText, key)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if !bytes.Equal(decrypted, plainText) {
		t.Errorf("Decrypted message does not match original.\nGot: %s\nWant: %s", decrypted, plainText)
	}
}

func TestDecryptWithWrongKey(t *testing.T) {
	cipherText, err := Encrypt([]byte("secret message"), []byte("1234567890ABCDEF1234567890ABCDEF"))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if _, err := Decrypt(cipherText, []byte("TOTAL_DIFFERENT_KEY_1234567890AB")); err == nil {
		t.Error("Expected error when decrypting with wrong key, got nil")
	}
}

func TestNonceRandomness(t *testing.T) {
	key := []byte("1234567890ABCDEF1234567890ABCDEF")
	c1, _ := Encrypt([]byte("same message"), key)
	c2, _ := Encrypt([]byte("same message"), key)
	if bytes.Equal(c1, c2) {
		t.Error("Encryption should produce different output for same input")
	}
}

func TestCorruptCiphertext(t *testing.T) {
	key := []byte("short")

	_, err := Decrypt([]byte("foo"), key)
	if err == nil || err.Error() != "cipher too short" {
		t.Errorf("Expected 'cipher too short' error, got: %v", err)
	}

	valid, _ := Encrypt([]byte("message"), key)
	valid[len(valid)-1] ^= 0x01
	if _, err := Decrypt(valid, key); err == nil {
		t.Error("Expected error for tampered ciphertext, got nil")
	}

	if _, err := Encrypt([]byte("message"), nil); err == nil {
		t.Error("Expected error for empty secret, got nil")
	}
}
