package fcrypt

import (
	"fmt"
	"os"
	"strings"

	"filippo.io/age"
)

func LoadPublicKey(key string) (*age.X25519Recipient, error) {
	ageRecipient, err := age.ParseX25519Recipient(key)
	if err != nil {
		return nil, fmt.Errorf("error parsing age public key='%s': %w", key, err)
	}

	return ageRecipient, nil
}

// LoadRecipients parses every key in keys. At least one key is required.
func LoadRecipients(keys []string) ([]age.Recipient, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("no age recipients configured")
	}

	recipients := make([]age.Recipient, 0, len(keys))
	for _, key := range keys {
		r, err := LoadPublicKey(strings.TrimSpace(key))
		if err != nil {
			return nil, err
		}
		recipients = append(recipients, r)
	}

	return recipients, nil
}

func LoadPrivateKey(key string) (*age.X25519Identity, error) {
	ageIdentity, err := age.ParseX25519Identity(key)
	if err != nil {
		return nil, fmt.Errorf("error parsing age private key: %w", err)
	}

	return ageIdentity, nil
}

// ReadIdentityFile loads the first key from an age identity file as written
// by age-keygen. Comment and blank lines are skipped.
func ReadIdentityFile(path string) (*age.X25519Identity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read identity file %s: %w", path, err)
	}

	for line := range strings.Lines(string(data)) {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		identity, err := LoadPrivateKey(line)
		if err != nil {
			return nil, fmt.Errorf("failed to load private key from %s: %w", path, err)
		}
		return identity, nil
	}

	return nil, fmt.Errorf("no valid key found in identity file %s", path)
}
