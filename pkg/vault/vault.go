// Package vault encrypts, decrypts and masks per-connection secret records.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	// KeySize is the AES-256 key length in bytes.
	KeySize = 32
	// IVSize is the GCM nonce length in bytes.
	IVSize = 12
	// TagSize is the GCM authentication tag length in bytes.
	TagSize = 16

	maskPrefix  = "****"
	visibleTail = 4
)

// Vault seals secret records with AES-256-GCM. The payload layout is
// IV (12 bytes) | tag (16 bytes) | ciphertext. A Vault is safe for concurrent use.
type Vault struct {
	aead cipher.AEAD
}

// New creates a vault from raw key material.
func New(key []byte) (*Vault, error) {
	if len(key) == 0 {
		return nil, &ConfigurationError{Setting: "vault key", Err: ErrMissingKey}
	}

	if len(key) != KeySize {
		return nil, &ConfigurationError{Setting: "vault key", Err: fmt.Errorf("%w: got %d", ErrInvalidKey, len(key))}
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, &ConfigurationError{Setting: "vault key", Err: err}
	}

	aead, err := cipher.NewGCMWithNonceSize(block, IVSize)
	if err != nil {
		return nil, &ConfigurationError{Setting: "vault key", Err: err}
	}

	return &Vault{aead: aead}, nil
}

// NewFromBase64 creates a vault from base64 encoded key material, as supplied
// through process configuration.
func NewFromBase64(encoded string) (*Vault, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, &ConfigurationError{Setting: "vault key", Err: ErrMissingKey}
	}

	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, &ConfigurationError{Setting: "vault key", Err: fmt.Errorf("invalid base64: %w", err)}
	}

	return New(key)
}

// Encrypt seals a secret record.
func (v *Vault) Encrypt(record map[string]string) ([]byte, error) {
	if record == nil {
		record = map[string]string{}
	}

	plaintext, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}

	iv := make([]byte, IVSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, fmt.Errorf("failed to generate iv: %w", err)
	}

	// Seal appends the tag after the ciphertext; the stored layout puts it first.
	sealed := v.aead.Seal(nil, iv, plaintext, nil)
	ciphertext, tag := sealed[:len(sealed)-TagSize], sealed[len(sealed)-TagSize:]

	payload := make([]byte, 0, IVSize+TagSize+len(ciphertext))
	payload = append(payload, iv...)
	payload = append(payload, tag...)
	payload = append(payload, ciphertext...)

	return payload, nil
}

// Decrypt opens a payload produced by Encrypt. It never returns partial or
// unauthenticated plaintext.
func (v *Vault) Decrypt(payload []byte) (map[string]string, error) {
	if len(payload) < IVSize+TagSize {
		return nil, &DecryptionError{Err: ErrPayloadTooShort}
	}

	iv := payload[:IVSize]
	tag := payload[IVSize : IVSize+TagSize]
	ciphertext := payload[IVSize+TagSize:]

	sealed := make([]byte, 0, len(ciphertext)+TagSize)
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := v.aead.Open(nil, iv, sealed, nil)
	if err != nil {
		return nil, &DecryptionError{Err: err}
	}

	var raw map[string]any
	if err := json.Unmarshal(plaintext, &raw); err != nil {
		return nil, &DecryptionError{Err: fmt.Errorf("%w: %w", ErrNotAnObject, err)}
	}

	if raw == nil {
		return nil, &DecryptionError{Err: ErrNotAnObject}
	}

	record := make(map[string]string, len(raw))
	for key, value := range raw {
		record[key] = stringify(value)
	}

	return record, nil
}

// Mask replaces every value with "****" followed by its last four characters.
// Values of four characters or fewer are masked entirely.
func Mask(record map[string]string) map[string]string {
	masked := make(map[string]string, len(record))
	for key, value := range record {
		masked[key] = MaskValue(value)
	}

	return masked
}

// MaskValue masks a single secret value.
func MaskValue(value string) string {
	runes := []rune(value)
	if len(runes) <= visibleTail {
		return maskPrefix
	}

	return maskPrefix + string(runes[len(runes)-visibleTail:])
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return ""
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}

		return string(encoded)
	}
}
