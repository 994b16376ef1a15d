package fcrypt

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"filippo.io/age"
)

// Ext is appended to the name of every encrypted file.
const Ext = ".age"

// ErrNotEncryptedPath is returned when a path passed for decryption does not
// end in Ext.
var ErrNotEncryptedPath = errors.New("path does not have the " + Ext + " extension")

// Paths returns the plain and encrypted file names for path, which may name
// either of the two.
func Paths(path string) (plain, encrypted string) {
	if strings.HasSuffix(path, Ext) {
		return strings.TrimSuffix(path, Ext), path
	}
	return path, path + Ext
}

// EncryptInPlace replaces path with path+Ext. The plain file is removed.
func EncryptInPlace(path string, recipients ...age.Recipient) error {
	plain, encrypted := Paths(path)
	return EncryptFile(plain, encrypted, recipients...)
}

// DecryptInPlace replaces path, which must end in Ext, with its decrypted
// counterpart. The encrypted file is removed once the plain file is written.
func DecryptInPlace(path string, identity age.Identity) error {
	if !strings.HasSuffix(path, Ext) {
		return fmt.Errorf("%s: %w", path, ErrNotEncryptedPath)
	}

	plain, _ := Paths(path)
	if err := DecryptFile(path, plain, identity); err != nil {
		return err
	}

	return os.Remove(path)
}
