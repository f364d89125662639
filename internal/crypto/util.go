package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/pbkdf2"

	"southwinds.dev/notesafe/internal/misc"
)

var (
	// ErrNotBlockAligned means the ciphertext length is not a multiple of the AES block size
	ErrNotBlockAligned = errors.New("ciphertext is not block aligned")

	// ErrInvalidPadding means PKCS#7 padding validation failed after decryption
	ErrInvalidPadding = errors.New("invalid padding")

	// ErrInvalidIV means the IV length does not match the cipher block size
	ErrInvalidIV = errors.New("invalid IV length")
)

// RandomBytes returns n bytes from the platform CSPRNG.
func RandomBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %w", err)
	}
	return buf, nil
}

// EncryptCBC encrypts plaintext with AES-256-CBC and PKCS#7 padding.
// The caller supplies the IV; it must be freshly random per call and is
// never embedded in the returned ciphertext.
func EncryptCBC(plaintext, key, iv []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	if len(iv) != block.BlockSize() {
		return nil, ErrInvalidIV
	}

	padded := pkcs7Pad(plaintext, block.BlockSize())
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)
	return ciphertext, nil
}

// DecryptCBC reverses EncryptCBC. It returns ErrNotBlockAligned for
// ciphertext of the wrong length, ErrInvalidIV for a bad IV, and
// ErrInvalidPadding when the padding does not validate (wrong key or
// tampered input).
func DecryptCBC(ciphertext, key, iv []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	if len(iv) != block.BlockSize() {
		return nil, ErrInvalidIV
	}
	if len(ciphertext) == 0 || len(ciphertext)%block.BlockSize() != 0 {
		return nil, ErrNotBlockAligned
	}

	padded := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(padded, ciphertext)
	return pkcs7Unpad(padded, block.BlockSize())
}

// pkcs7Pad always appends between 1 and blockSize bytes, so an empty
// plaintext still produces one full block of ciphertext.
func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+n)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(n)
	}
	return padded
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, ErrInvalidPadding
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, ErrInvalidPadding
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, ErrInvalidPadding
		}
	}
	return data[:len(data)-n], nil
}

// EncryptWithPassphrase seals data using PBKDF2 + ChaCha20-Poly1305 for
// backup containers. Output layout: salt + nonce + ciphertext.
func EncryptWithPassphrase(data []byte, passphrase string) ([]byte, error) {
	salt, err := RandomBytes(misc.BackupSaltSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	key := pbkdf2.Key([]byte(passphrase), salt, misc.Pbkdf2Iterations, misc.KeySize, sha256.New)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	nonce, err := RandomBytes(aead.NonceSize())
	if err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := aead.Seal(nil, nonce, data, nil)

	result := make([]byte, 0, len(salt)+len(nonce)+len(ciphertext))
	result = append(result, salt...)
	result = append(result, nonce...)
	result = append(result, ciphertext...)
	return result, nil
}

// DecryptWithPassphrase reverses EncryptWithPassphrase. Authentication
// failure means a wrong passphrase or a tampered container.
func DecryptWithPassphrase(encryptedData []byte, passphrase string) ([]byte, error) {
	if len(encryptedData) < misc.BackupSaltSize+chacha20poly1305.NonceSize {
		return nil, errors.New("encrypted data too short")
	}

	salt := encryptedData[:misc.BackupSaltSize]
	nonce := encryptedData[misc.BackupSaltSize : misc.BackupSaltSize+chacha20poly1305.NonceSize]
	ciphertext := encryptedData[misc.BackupSaltSize+chacha20poly1305.NonceSize:]

	key := pbkdf2.Key([]byte(passphrase), salt, misc.Pbkdf2Iterations, misc.KeySize, sha256.New)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}
	return plaintext, nil
}

// CalculateChecksum calculates the SHA-256 checksum of data
func CalculateChecksum(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
