// Package crypto encrypts backup snapshots before they leave the device.
// The passphrase is never stored with the snapshot; the same passphrase
// must be configured to download and restore it.
package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

var (
	// ErrInvalidPassphrase is returned when authentication of the payload fails.
	ErrInvalidPassphrase = errors.New("invalid passphrase")
	// ErrInvalidSnapshot is returned when the envelope cannot be parsed.
	ErrInvalidSnapshot = errors.New("invalid encrypted snapshot")
)

const (
	// PassphraseMinLength is the minimum accepted passphrase length.
	PassphraseMinLength = 8
	// SaltLength is the length of the random PBKDF2 salt.
	SaltLength = 32
	// Iterations is the PBKDF2-SHA256 iteration count.
	Iterations = 100_000

	headerMagic = "SALONENC"
	version     = 1
	algorithm   = "AES-256-GCM"
)

// Header is the cleartext envelope preceding the ciphertext.
type Header struct {
	Version   uint8
	Algorithm string
	Nonce     []byte
	Salt      []byte
}

// ValidatePassphrase checks if a passphrase meets minimum requirements.
func ValidatePassphrase(passphrase string) error {
	if len(passphrase) < PassphraseMinLength {
		return fmt.Errorf("passphrase must be at least %d characters", PassphraseMinLength)
	}
	return nil
}

// IsEncrypted reports whether data starts with the snapshot envelope.
func IsEncrypted(data []byte) bool {
	return bytes.HasPrefix(data, []byte(headerMagic))
}

// Encrypt seals a snapshot with a key derived from passphrase.
func Encrypt(data []byte, passphrase string) ([]byte, error) {
	if err := ValidatePassphrase(passphrase); err != nil {
		return nil, err
	}

	salt := make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	header, err := marshalHeader(Header{
		Version:   version,
		Algorithm: algorithm,
		Nonce:     nonce,
		Salt:      salt,
	})
	if err != nil {
		return nil, err
	}

	// The header is authenticated as additional data.
	return gcm.Seal(header, nonce, data, header), nil
}

// Decrypt opens a snapshot produced by Encrypt.
func Decrypt(data []byte, passphrase string) ([]byte, error) {
	header, headerLen, err := parseHeader(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if header.Version != version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidSnapshot, header.Version)
	}
	if header.Algorithm != algorithm {
		return nil, fmt.Errorf("%w: unsupported algorithm %s", ErrInvalidSnapshot, header.Algorithm)
	}

	gcm, err := newGCM(passphrase, header.Salt)
	if err != nil {
		return nil, err
	}
	if len(header.Nonce) != gcm.NonceSize() {
		return nil, fmt.Errorf("%w: bad nonce size", ErrInvalidSnapshot)
	}

	plaintext, err := gcm.Open(nil, header.Nonce, data[headerLen:], data[:headerLen])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPassphrase, err)
	}
	return plaintext, nil
}

func newGCM(passphrase string, salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(passphrase), salt, Iterations, 32, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// marshalHeader: magic | version | len+algorithm | len+nonce | len+salt
func marshalHeader(h Header) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(headerMagic)
	buf.WriteByte(h.Version)

	for _, field := range [][]byte{[]byte(h.Algorithm), h.Nonce, h.Salt} {
		if len(field) > 255 {
			return nil, errors.New("header field too long")
		}
		buf.WriteByte(byte(len(field)))
		buf.Write(field)
	}
	return buf.Bytes(), nil
}

// parseHeader returns the header and its encoded length.
func parseHeader(data []byte) (Header, int, error) {
	var h Header
	r := bytes.NewReader(data)

	magic := make([]byte, len(headerMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return h, 0, fmt.Errorf("failed to read magic: %w", err)
	}
	if string(magic) != headerMagic {
		return h, 0, fmt.Errorf("invalid magic number: %q", magic)
	}

	v, err := r.ReadByte()
	if err != nil {
		return h, 0, fmt.Errorf("failed to read version: %w", err)
	}
	h.Version = v

	readField := func(name string) ([]byte, error) {
		n, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s length: %w", name, err)
		}
		field := make([]byte, n)
		if _, err := io.ReadFull(r, field); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		return field, nil
	}

	alg, err := readField("algorithm")
	if err != nil {
		return h, 0, err
	}
	h.Algorithm = string(alg)
	if h.Nonce, err = readField("nonce"); err != nil {
		return h, 0, err
	}
	if h.Salt, err = readField("salt"); err != nil {
		return h, 0, err
	}

	return h, len(data) - r.Len(), nil
}
