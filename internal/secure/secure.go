// Package secure implements the ciphertext wire contract used by the
// library: salt(16) || iv(16) || AES-256-CBC ciphertext with PKCS#7
// padding, key derived via PBKDF2-SHA256. The constants below are
// compatibility constants shared with every previously encrypted file;
// changing any of them breaks the whole library.
package secure

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"

	"secure-library/internal/domain"
	apperrors "secure-library/pkg/errors"
)

const (
	// SaltSize is the length of the PBKDF2 salt prefixed to each payload.
	SaltSize = 16
	// IVSize is the length of the CBC initialization vector following the salt.
	IVSize = 16
	// HeaderSize is the minimum length of a well-formed payload.
	HeaderSize = SaltSize + IVSize
	// KeySize is the derived AES key length (AES-256).
	KeySize = 32
	// KeyIterations is the PBKDF2 iteration count.
	KeyIterations = 100000
)

// DeriveKey derives the AES-256 key for a passphrase and per-file salt.
func DeriveKey(passphrase string, salt []byte) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, KeyIterations, KeySize, sha256.New)
}

// Decrypt validates the payload framing, derives the key, and decrypts.
// It fails with a malformed-payload error when the framing is broken and
// a decryption error when the ciphertext or padding does not check out.
// The function is stateless and safe for concurrent use.
func Decrypt(payload []byte, passphrase string) ([]byte, error) {
	if passphrase == "" {
		return nil, domain.ErrEmptyPassphrase
	}
	if len(payload) < HeaderSize {
		return nil, apperrors.NewMalformedPayloadError(
			fmt.Sprintf("payload too short: %d bytes, need at least %d", len(payload), HeaderSize))
	}

	salt := payload[:SaltSize]
	iv := payload[SaltSize:HeaderSize]
	ciphertext := payload[HeaderSize:]

	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, apperrors.NewMalformedPayloadError(
			fmt.Sprintf("ciphertext length %d is not a positive multiple of the block size", len(ciphertext)))
	}

	block, err := aes.NewCipher(DeriveKey(passphrase, salt))
	if err != nil {
		return nil, apperrors.NewDecryptionError("failed to initialize cipher", err)
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	unpadded, err := pkcs7Unpad(plaintext)
	if err != nil {
		return nil, apperrors.NewDecryptionError("invalid padding", err)
	}
	return unpadded, nil
}

// Encrypt is the counterpart used by the batch encryption tool and the
// round-trip tests. Salt and IV come from crypto/rand.
func Encrypt(plaintext []byte, passphrase string) ([]byte, error) {
	if passphrase == "" {
		return nil, domain.ErrEmptyPassphrase
	}

	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(rand.Reader, header); err != nil {
		return nil, fmt.Errorf("failed to generate salt and iv: %w", err)
	}
	salt := header[:SaltSize]
	iv := header[SaltSize:]

	block, err := aes.NewCipher(DeriveKey(passphrase, salt))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}

	padded := pkcs7Pad(plaintext)
	out := make([]byte, HeaderSize+len(padded))
	copy(out, header)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out[HeaderSize:], padded)
	return out, nil
}

func pkcs7Pad(data []byte) []byte {
	padLen := aes.BlockSize - len(data)%aes.BlockSize
	padded := make([]byte, len(data)+padLen)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}
	return padded
}

func pkcs7Unpad(data []byte) ([]byte, error) {
	if len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("invalid padded length %d", len(data))
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > aes.BlockSize || padLen > len(data) {
		return nil, fmt.Errorf("invalid padding byte %d", padLen)
	}
	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, fmt.Errorf("inconsistent padding")
		}
	}
	return data[:len(data)-padLen], nil
}
