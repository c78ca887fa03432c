// Package secrets keeps credentials such as the Postgres DSN in the OS
// keyring so they never land in the config file.
package secrets

import (
	"errors"
	"fmt"
	"slices"

	"github.com/zalando/go-keyring"
)

// Service is the keyring service every secret is stored under.
const Service = "carbonledger"

// Secret names.
const (
	StoreDSN          = "store-dsn"
	S3SecretAccessKey = "s3-secret-access-key"
)

// constError is an immutable error type for sentinel errors.
type constError string

func (e constError) Error() string { return string(e) }

// Sentinel errors.
var (
	// ErrNotFound indicates the secret has not been stored.
	ErrNotFound = constError("secret not found in keyring")

	// ErrUnavailable indicates the OS keyring cannot be reached.
	ErrUnavailable = constError("OS keyring is not available")

	// ErrUnknownSecret indicates a name outside Names.
	ErrUnknownSecret = constError("unknown secret")
)

// Names returns the secrets carbonledger knows how to use.
func Names() []string {
	return []string{StoreDSN, S3SecretAccessKey}
}

func checkName(name string) error {
	if !slices.Contains(Names(), name) {
		return fmt.Errorf("%w: %q", ErrUnknownSecret, name)
	}
	return nil
}

// Get returns the stored secret.
func Get(name string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	v, err := keyring.Get(Service, name)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return v, nil
}

// Set stores value under name, replacing any previous value.
func Set(name, value string) error {
	if err := checkName(name); err != nil {
		return err
	}
	if value == "" {
		return fmt.Errorf("secret %s cannot be empty", name)
	}
	if err := keyring.Set(Service, name, value); err != nil {
		return fmt.Errorf("storing %s in keyring: %w", name, err)
	}
	return nil
}

// Delete removes the secret.
func Delete(name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := keyring.Delete(Service, name); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return fmt.Errorf("deleting %s from keyring: %w", name, err)
	}
	return nil
}

// Lookup returns the secret, or "" when it is not stored or the keyring is
// unreachable. It suits optional fallbacks.
func Lookup(name string) string {
	v, err := Get(name)
	if err != nil {
		return ""
	}
	return v
}
