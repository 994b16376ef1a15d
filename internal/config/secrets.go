package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"filippo.io/age"
	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog"

	"github.com/hay-kot/qgen/internal/core"
	"github.com/hay-kot/qgen/pkgs/fcrypt"
)

// ReadIdentity loads the age identity from the configured identity file,
// resolving relative paths with resolver.
func (a AgeConfig) ReadIdentity(resolver core.PathResolver) (age.Identity, error) {
	path, err := resolver.Resolve(a.IdentityFile)
	if err != nil {
		return nil, err
	}

	return fcrypt.ReadIdentityFile(path)
}

// ParseRecipients parses the configured recipients.
func (a AgeConfig) ParseRecipients() ([]age.Recipient, error) {
	return fcrypt.LoadRecipients(a.Recipients)
}

// SecretsFiles returns the plain and encrypted locations of the connection
// secrets file, resolved against the config directory. Both are empty when
// no secrets file is configured.
func (c *WithPath) SecretsFiles() (plain, encrypted string, err error) {
	if c.ConnectionSecrets == "" {
		return "", "", nil
	}

	path, err := core.NewPathResolver(c.Dir()).Resolve(c.ConnectionSecrets)
	if err != nil {
		return "", "", err
	}

	plain, encrypted = fcrypt.Paths(path)
	return plain, encrypted, nil
}

// readSecrets reads the connection secrets overlay. A plain file wins over its
// encrypted counterpart; a missing secrets file is skipped with a warning.
func readSecrets(c *WithPath, logger zerolog.Logger) (*ConnectionOptions, error) {
	plain, encrypted, err := c.SecretsFiles()
	if err != nil || plain == "" {
		return nil, err
	}

	var data []byte

	switch {
	case !strings.HasSuffix(c.ConnectionSecrets, fcrypt.Ext) && fileExists(plain):
		data, err = os.ReadFile(plain)
		if err != nil {
			return nil, err
		}
	case fileExists(encrypted):
		if c.Age.IdentityFile == "" {
			return nil, fmt.Errorf("no age identity_file configured to decrypt %s", encrypted)
		}

		identity, err := c.Age.ReadIdentity(core.NewPathResolver(c.Dir()))
		if err != nil {
			return nil, err
		}

		file, err := os.Open(encrypted)
		if err != nil {
			return nil, err
		}
		defer func() { _ = file.Close() }()

		buff := bytes.NewBuffer([]byte{})
		if err := fcrypt.DecryptReader(file, buff, identity); err != nil {
			return nil, err
		}
		data = buff.Bytes()
	default:
		logger.Warn().Str("path", plain).Msg("connection secrets file does not exist, skipping")
		return nil, nil
	}

	var opts ConnectionOptions
	if err := yaml.UnmarshalWithOptions(data, &opts, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("failed to decode connection secrets: %w", err)
	}

	return &opts, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}
