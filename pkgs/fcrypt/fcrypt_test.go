package fcrypt

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"filippo.io/age"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secrets = "host: redis.internal\npassword: hunter2\n"

func TestEncryptionIntegration(t *testing.T) {
	identity, err := age.GenerateX25519Identity()
	require.NoError(t, err)

	dir := t.TempDir()
	identityPath := filepath.Join(dir, "key.txt")
	require.NoError(t, os.WriteFile(identityPath, []byte("# created: today\n# public key: "+identity.Recipient().String()+"\n"+identity.String()+"\n"), 0o600))

	recipients, err := LoadRecipients([]string{identity.Recipient().String()})
	require.NoError(t, err)

	plain := filepath.Join(dir, "redis.yml")
	require.NoError(t, os.WriteFile(plain, []byte(secrets), 0o644))

	t.Run("encrypt in place", func(t *testing.T) {
		require.NoError(t, EncryptInPlace(plain, recipients...))

		assert.NoFileExists(t, plain)

		data, err := os.ReadFile(plain + ".age")
		require.NoError(t, err)
		assert.Contains(t, string(data), "-----BEGIN AGE ENCRYPTED FILE-----")
		assert.NotContains(t, string(data), "hunter2")

		info, err := os.Stat(plain + ".age")
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	})

	t.Run("decrypt in place", func(t *testing.T) {
		loaded, err := ReadIdentityFile(identityPath)
		require.NoError(t, err)

		require.NoError(t, DecryptInPlace(plain+".age", loaded))

		assert.NoFileExists(t, plain+".age")

		data, err := os.ReadFile(plain)
		require.NoError(t, err)
		assert.Equal(t, secrets, string(data))
	})
}

func TestDecryptReader_WrongIdentity(t *testing.T) {
	sender, err := age.GenerateX25519Identity()
	require.NoError(t, err)
	other, err := age.GenerateX25519Identity()
	require.NoError(t, err)

	var encrypted bytes.Buffer
	require.NoError(t, EncryptReader(bytes.NewBufferString(secrets), &encrypted, sender.Recipient()))

	var out bytes.Buffer
	require.Error(t, DecryptReader(&encrypted, &out, other))
}

func TestEncryptReader_NoRecipients(t *testing.T) {
	var out bytes.Buffer
	require.Error(t, EncryptReader(bytes.NewBufferString(secrets), &out))
}

func TestDecryptInPlace_RequiresAgeExtension(t *testing.T) {
	identity, err := age.GenerateX25519Identity()
	require.NoError(t, err)

	err = DecryptInPlace(filepath.Join(t.TempDir(), "redis.yml"), identity)
	require.ErrorIs(t, err, ErrNotEncryptedPath)
}

func TestReadIdentityFile(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("# only comments\n\n"), 0o600))
	_, err := ReadIdentityFile(empty)
	require.Error(t, err)

	invalid := filepath.Join(dir, "invalid.txt")
	require.NoError(t, os.WriteFile(invalid, []byte("not-a-key\n"), 0o600))
	_, err = ReadIdentityFile(invalid)
	require.Error(t, err)

	_, err = ReadIdentityFile(filepath.Join(dir, "missing.txt"))
	require.Error(t, err)
}

func TestLoadRecipients(t *testing.T) {
	_, err := LoadRecipients(nil)
	require.Error(t, err)

	_, err = LoadRecipients([]string{"age1invalid"})
	require.Error(t, err)
}

func TestPaths(t *testing.T) {
	plain, encrypted := Paths("/proj/redis.yml")
	assert.Equal(t, "/proj/redis.yml", plain)
	assert.Equal(t, "/proj/redis.yml.age", encrypted)

	plain, encrypted = Paths("/proj/redis.yml.age")
	assert.Equal(t, "/proj/redis.yml", plain)
	assert.Equal(t, "/proj/redis.yml.age", encrypted)
}
