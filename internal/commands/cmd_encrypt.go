package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/qgen/internal/config"
	"github.com/hay-kot/qgen/internal/core"
	"github.com/hay-kot/qgen/pkgs/fcrypt"
)

type EncryptCmd struct {
	coreFlags *core.Flags
	registry  *config.Registry

	flags struct {
		check bool
	}
}

func NewEncryptCmd(coreFlags *core.Flags, registry *config.Registry) *EncryptCmd {
	return &EncryptCmd{coreFlags: coreFlags, registry: registry}
}

func (ec *EncryptCmd) Register(app *cli.Command) *cli.Command {
	cmds := []*cli.Command{
		{
			Name:  "encrypt",
			Usage: "encrypt the connection secrets file in-place",
			Description: `Encrypts the file named by connectionSecrets using age encryption.

The command will:
- Use every configured age recipient (age.recipients) for encryption
- Write <file>.age next to the plain file and remove the plain file
- Skip when the encrypted file already exists

With --check nothing is written. The command fails when the plain secrets file
exists, which makes it suitable for a pre-commit hook.`,
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:        "check",
					Usage:       "fail if the secrets file is not encrypted, without writing anything",
					Destination: &ec.flags.check,
				},
			},
			Action: ec.encrypt,
		},
		{
			Name:  "decrypt",
			Usage: "decrypt the connection secrets file in-place",
			Description: `Decrypts <connectionSecrets>.age with the configured age identity
(age.identity_file), restores the plain file and removes the encrypted copy.

This is typically used when you need to edit the connection secrets.`,
			Action: ec.decrypt,
		},
	}

	app.Commands = append(app.Commands, cmds...)
	return app
}

func (ec *EncryptCmd) encrypt(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(ec.coreFlags, ec.registry, true)
	if err != nil {
		return err
	}

	plain, encrypted, err := cfg.SecretsFiles()
	if err != nil {
		return err
	}

	if plain == "" {
		log.Info().Msg("No connectionSecrets file configured")
		return nil
	}

	if ec.flags.check {
		if fileExists(plain) {
			return fmt.Errorf("connection secrets file %s is not encrypted, run 'qgen encrypt'", plain)
		}
		log.Debug().Str("file", plain).Msg("connection secrets are not stored in plain text")
		return nil
	}

	if !fileExists(plain) {
		log.Debug().Str("file", plain).Msg("Source file doesn't exist, skipping")
		return nil
	}

	if fileExists(encrypted) {
		log.Debug().Str("file", encrypted).Msg("Encrypted file already exists, skipping")
		return nil
	}

	recipients, err := cfg.Age.ParseRecipients()
	if err != nil {
		return fmt.Errorf("failed to load recipients: %w", err)
	}

	log.Info().Str("source", plain).Str("target", encrypted).Msg("Encrypting file")
	if err := fcrypt.EncryptFile(plain, encrypted, recipients...); err != nil {
		return fmt.Errorf("failed to encrypt %s: %w", plain, err)
	}

	log.Info().Str("file", encrypted).Msg("File encrypted successfully")
	return nil
}

func (ec *EncryptCmd) decrypt(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(ec.coreFlags, ec.registry, true)
	if err != nil {
		return err
	}

	plain, encrypted, err := cfg.SecretsFiles()
	if err != nil {
		return err
	}

	if plain == "" {
		log.Info().Msg("No connectionSecrets file configured")
		return nil
	}

	if !fileExists(encrypted) {
		log.Debug().Str("file", encrypted).Msg("Encrypted file doesn't exist, skipping")
		return nil
	}

	if fileExists(plain) {
		log.Debug().Str("file", plain).Msg("Decrypted file already exists, skipping")
		return nil
	}

	identity, err := cfg.Age.ReadIdentity(core.NewPathResolver(cfg.Dir()))
	if err != nil {
		return err
	}

	log.Info().Str("source", encrypted).Str("target", plain).Msg("Decrypting file")
	if err := fcrypt.DecryptInPlace(encrypted, identity); err != nil {
		return fmt.Errorf("failed to decrypt %s: %w", encrypted, err)
	}

	log.Info().Str("file", plain).Msg("File decrypted successfully")
	return nil
}
