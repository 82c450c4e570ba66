package vault

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidKey indicates the key material is not exactly 32 raw bytes.
	ErrInvalidKey = errors.New("vault key must be 32 bytes")

	// ErrMissingKey indicates no key material was configured.
	ErrMissingKey = errors.New("vault key is not configured")

	// ErrPayloadTooShort indicates a payload shorter than IV plus tag.
	ErrPayloadTooShort = errors.New("payload shorter than iv and tag")

	// ErrNotAnObject indicates the decrypted plaintext is not a JSON object.
	ErrNotAnObject = errors.New("decrypted payload is not a JSON object")
)

// ConfigurationError reports bad or missing key material. It is fatal at startup.
type ConfigurationError struct {
	Setting string
	Err     error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration for %s: %v", e.Setting, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// DecryptionError reports a payload that could not be authenticated or parsed.
type DecryptionError struct {
	Err error
}

func (e *DecryptionError) Error() string {
	return fmt.Sprintf("decryption failed: %v", e.Err)
}

func (e *DecryptionError) Unwrap() error {
	return e.Err
}

// IsDecryptionError checks if an error is a DecryptionError.
func IsDecryptionError(err error) bool {
	var target *DecryptionError

	return errors.As(err, &target)
}

// IsConfigurationError checks if an error is a ConfigurationError.
func IsConfigurationError(err error) bool {
	var target *ConfigurationError

	return errors.As(err, &target)
}
