package crypto

import (
	"bytes"
	"errors"
	"testing"

	"southwinds.dev/notesafe/internal/misc"
)

func TestCBCRoundTrip(t *testing.T) {
	key, err := RandomBytes(misc.KeySize)
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}

	testCases := [][]byte{
		[]byte(""),
		[]byte("Hello, World!"),
		[]byte("Special chars: !@#$%^&*()_+{}|"),
		[]byte("Unicode: こんにちは"),
		bytes.Repeat([]byte{0xAB}, 16),  // exactly one block
		bytes.Repeat([]byte{0x00}, 17),  // just over a block
		bytes.Repeat([]byte("x"), 4096), // multiple blocks
	}

	for i, tc := range testCases {
		iv, err := RandomBytes(misc.IVSize)
		if err != nil {
			t.Fatalf("Failed to generate IV: %v", err)
		}

		ciphertext, err := EncryptCBC(tc, key, iv)
		if err != nil {
			t.Fatalf("case %d: failed to encrypt: %v", i, err)
		}
		if len(ciphertext)%misc.IVSize != 0 {
			t.Errorf("case %d: ciphertext not block aligned: %d bytes", i, len(ciphertext))
		}
		if len(tc) > 0 && bytes.Equal(ciphertext, tc) {
			t.Errorf("case %d: ciphertext identical to plaintext", i)
		}

		plaintext, err := DecryptCBC(ciphertext, key, iv)
		if err != nil {
			t.Fatalf("case %d: failed to decrypt: %v", i, err)
		}
		if !bytes.Equal(plaintext, tc) {
			t.Errorf("case %d: round trip mismatch", i)
		}
	}
}

func TestDecryptCBCRejectsMisalignedCiphertext(t *testing.T) {
	key, _ := RandomBytes(misc.KeySize)
	iv, _ := RandomBytes(misc.IVSize)

	for _, n := range []int{1, 15, 17, 31} {
		junk := bytes.Repeat([]byte{0x42}, n)
		if _, err := DecryptCBC(junk, key, iv); !errors.Is(err, ErrNotBlockAligned) {
			t.Errorf("length %d: expected ErrNotBlockAligned, got %v", n, err)
		}
	}

	if _, err := DecryptCBC(nil, key, iv); !errors.Is(err, ErrNotBlockAligned) {
		t.Errorf("empty ciphertext: expected ErrNotBlockAligned, got %v", err)
	}
}

func TestDecryptCBCRejectsBadIV(t *testing.T) {
	key, _ := RandomBytes(misc.KeySize)
	iv, _ := RandomBytes(misc.IVSize)

	ciphertext, err := EncryptCBC([]byte("some note"), key, iv)
	if err != nil {
		t.Fatalf("Failed to encrypt: %v", err)
	}

	shortIV, _ := RandomBytes(8)
	if _, err = DecryptCBC(ciphertext, key, shortIV); !errors.Is(err, ErrInvalidIV) {
		t.Errorf("expected ErrInvalidIV, got %v", err)
	}

	if _, err = EncryptCBC([]byte("some note"), key, shortIV); !errors.Is(err, ErrInvalidIV) {
		t.Errorf("encrypt with short IV: expected ErrInvalidIV, got %v", err)
	}
}

func TestPKCS7Padding(t *testing.T) {
	tests := []struct {
		name    string
		input   []byte
		padding int
	}{
		{"empty", []byte{}, 16},
		{"one byte", []byte{0x01}, 15},
		{"fifteen bytes", bytes.Repeat([]byte{0x02}, 15), 1},
		{"full block", bytes.Repeat([]byte{0x03}, 16), 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			padded := pkcs7Pad(tt.input, 16)
			if len(padded)%16 != 0 {
				t.Fatalf("padded length %d not a block multiple", len(padded))
			}
			if got := int(padded[len(padded)-1]); got != tt.padding {
				t.Errorf("expected %d padding bytes, got %d", tt.padding, got)
			}

			unpadded, err := pkcs7Unpad(padded, 16)
			if err != nil {
				t.Fatalf("Failed to unpad: %v", err)
			}
			if !bytes.Equal(unpadded, tt.input) {
				t.Error("unpad did not restore the original data")
			}
		})
	}
}

func TestPKCS7UnpadRejectsInvalidPadding(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"zero pad byte", append(bytes.Repeat([]byte{0x01}, 15), 0x00)},
		{"pad byte above block size", append(bytes.Repeat([]byte{0x01}, 15), 0x11)},
		{"inconsistent pad bytes", append(bytes.Repeat([]byte{0x01}, 14), 0x05, 0x02)},
		{"empty input", []byte{}},
		{"misaligned input", bytes.Repeat([]byte{0x01}, 15)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := pkcs7Unpad(tt.data, 16); !errors.Is(err, ErrInvalidPadding) {
				t.Errorf("expected ErrInvalidPadding, got %v", err)
			}
		})
	}
}

func TestPassphraseSealRoundTrip(t *testing.T) {
	data := []byte(`{"key":"blob","note":"record"}`)

	sealed, err := EncryptWithPassphrase(data, "correct horse battery staple")
	if err != nil {
		t.Fatalf("Failed to seal: %v", err)
	}

	opened, err := DecryptWithPassphrase(sealed, "correct horse battery staple")
	if err != nil {
		t.Fatalf("Failed to open: %v", err)
	}
	if !bytes.Equal(opened, data) {
		t.Error("sealed round trip mismatch")
	}

	if _, err = DecryptWithPassphrase(sealed, "wrong passphrase"); err == nil {
		t.Error("expected authentication failure with wrong passphrase, got none")
	}

	// Tampering with the ciphertext must break authentication
	sealed[len(sealed)-1] ^= 0xFF
	if _, err = DecryptWithPassphrase(sealed, "correct horse battery staple"); err == nil {
		t.Error("expected authentication failure after tampering, got none")
	}
}

func TestCalculateChecksum(t *testing.T) {
	a := CalculateChecksum([]byte("payload"))
	b := CalculateChecksum([]byte("payload"))
	c := CalculateChecksum([]byte("Payload"))

	if a != b {
		t.Error("checksum not deterministic")
	}
	if a == c {
		t.Error("checksum collision for different inputs")
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}
}
