// Package fcrypt encrypts and decrypts files with age using ASCII armor.
package fcrypt

import (
	"errors"
	"fmt"
	"io"
	"os"

	"filippo.io/age"
	"filippo.io/age/armor"
)

// secretPerm is the mode of every file fcrypt creates.
const secretPerm = 0o600

// EncryptReader encrypts data from r for every recipient and writes the
// armored result to w.
func EncryptReader(r io.Reader, w io.Writer, recipients ...age.Recipient) error {
	if len(recipients) == 0 {
		return errors.New("at least one recipient is required")
	}

	armorWriter := armor.NewWriter(w)
	defer func() {
		_ = armorWriter.Close()
	}()

	encryptor, err := age.Encrypt(armorWriter, recipients...)
	if err != nil {
		return fmt.Errorf("failed to create encryptor: %w", err)
	}
	defer func() {
		_ = encryptor.Close()
	}()

	if _, err = io.Copy(encryptor, r); err != nil {
		return fmt.Errorf("failed to encrypt: %w", err)
	}

	// Close in reverse order so the armor footer follows the final chunk.
	if err = encryptor.Close(); err != nil {
		_ = armorWriter.Close()
		return fmt.Errorf("failed to finalize encryption: %w", err)
	}
	if err = armorWriter.Close(); err != nil {
		return fmt.Errorf("failed to finalize armor: %w", err)
	}

	return nil
}

// EncryptFile encrypts inputPath into outputPath and removes inputPath.
func EncryptFile(inputPath, outputPath string, recipients ...age.Recipient) error {
	err := transformFile(inputPath, outputPath, func(r io.Reader, w io.Writer) error {
		return EncryptReader(r, w, recipients...)
	})
	if err != nil {
		return err
	}

	return os.Remove(inputPath)
}

// DecryptReader decrypts armored data from r and writes the plaintext to w.
func DecryptReader(r io.Reader, w io.Writer, identity age.Identity) error {
	decryptor, err := age.Decrypt(armor.NewReader(r), identity)
	if err != nil {
		return fmt.Errorf("failed to create decryptor: %w", err)
	}

	if _, err = io.Copy(w, decryptor); err != nil {
		return fmt.Errorf("failed to decrypt: %w", err)
	}

	return nil
}

// DecryptFile decrypts inputPath into outputPath, leaving inputPath in place.
func DecryptFile(inputPath, outputPath string, identity age.Identity) error {
	return transformFile(inputPath, outputPath, func(r io.Reader, w io.Writer) error {
		return DecryptReader(r, w, identity)
	})
}

// transformFile streams inputPath through fn into outputPath, created with
// secretPerm. A partially written output is removed when fn fails.
func transformFile(inputPath, outputPath string, fn func(io.Reader, io.Writer) error) error {
	in, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(outputPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, secretPerm)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if err := fn(in, out); err != nil {
		_ = out.Close()
		_ = os.Remove(outputPath)
		return err
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}

	return nil
}
