package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"filippo.io/age"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/qgen/internal/core"
	"github.com/hay-kot/qgen/pkgs/fcrypt"
)

const sampleConfig = `queues:
  - name: repoSyncQueue
    workerOptions:
      concurrency: 3
      autorun: false
    queueOptions:
      defaultJobOptions:
        attempts: 3
    jobs:
      - name: initRepoFetching
        payload:
          name: RepoIdentifierSchema
          schema:
            owner: string
            repo: string
        processorPath: ./processors/initRepoFetchingProcessor.ts
outputPath: ./.qgen
connectionFactory: local
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func loadOpts(root string) LoadOptions {
	return LoadOptions{ProjectRoot: root, Registry: testRegistry()}
}

func TestLoad_ValidFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "app", "codegen.config.yml"), sampleConfig)

	cfg, err := Load("app/codegen.config.yml", loadOpts(root))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "app", "codegen.config.yml"), cfg.Path)
	assert.Equal(t, filepath.Join(root, "app"), cfg.Dir())
	assert.Equal(t, root, cfg.Root)
	assert.Equal(t, filepath.Join(root, ".qgen"), cfg.OutputPath)
	require.Len(t, cfg.Queues, 1)
	assert.Equal(t, "repoSyncQueue", cfg.Queues[0].Name)
	assert.Equal(t, "RepoIdentifierSchema", cfg.Queues[0].Jobs[0].Payload.Name)
	assert.Equal(t, ConnectionOptions{Host: "localhost", Port: 6379}, cfg.Connection)
}

func TestLoad_NamedConfigKey(t *testing.T) {
	root := t.TempDir()

	var indented bytes.Buffer
	indented.WriteString("config:\n")
	for _, line := range bytes.Split([]byte(sampleConfig), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		indented.WriteString("  ")
		indented.Write(line)
		indented.WriteString("\n")
	}
	writeFile(t, filepath.Join(root, "codegen.config.yml"), indented.String())

	cfg, err := Load("", loadOpts(root))
	require.NoError(t, err)
	require.Len(t, cfg.Queues, 1)
	assert.Equal(t, "initRepoFetching", cfg.Queues[0].Jobs[0].Name)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	root := t.TempDir()

	cfg, err := Load("./non-existent-config.yml", loadOpts(root))
	require.NoError(t, err)

	def := Default(root)
	assert.Equal(t, def.Queues, cfg.Queues)
	assert.Equal(t, def.OutputPath, cfg.OutputPath)
	assert.Equal(t, NoopFactoryName, cfg.ConnectionFactory)
	assert.Equal(t, filepath.Join(root, "non-existent-config.yml"), cfg.Path)
}

func TestLoad_MissingFileStrict(t *testing.T) {
	root := t.TempDir()

	opts := loadOpts(root)
	opts.Strict = true

	_, err := Load("./non-existent-config.yml", opts)
	require.ErrorIs(t, err, core.ErrConfigNotFound)
}

func TestLoad_EmptyDocumentUsesDefaults(t *testing.T) {
	for _, content := range []string{"", "# nothing here\n", "config:\n", "{}\n"} {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "codegen.config.yml"), content)

		cfg, err := Load("codegen.config.yml", loadOpts(root))
		require.NoError(t, err, "content %q", content)
		assert.Empty(t, cfg.Queues)
		assert.Equal(t, filepath.Join(root, "output"), cfg.OutputPath)
	}
}

func TestLoad_PathOutsideRoot(t *testing.T) {
	root := t.TempDir()

	_, err := Load("../outside.yml", loadOpts(root))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrConfigLoad)
	assert.ErrorIs(t, err, core.ErrPathValidation)
}

func TestLoad_SyntaxErrorIsLoadError(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "codegen.config.yml"), "queues: [\n  - name: broken\n")

	_, err := Load("codegen.config.yml", loadOpts(root))
	require.ErrorIs(t, err, core.ErrConfigLoad)
}

func TestLoad_DirectoryIsLoadError(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "codegen.config.yml"), 0o755))

	_, err := Load("codegen.config.yml", loadOpts(root))
	require.ErrorIs(t, err, core.ErrConfigLoad)
}

func TestLoad_ValidationErrorPropagates(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "codegen.config.yml"), "queues: not-an-array\nconnectionFactory: not-registered\n")

	_, err := Load("codegen.config.yml", loadOpts(root))
	require.ErrorIs(t, err, core.ErrConfigValidation)
	assert.NotErrorIs(t, err, core.ErrConfigLoad)
}

func TestLoad_PlainSecretsOverlay(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "codegen.config.yml"), sampleConfig+"connectionSecrets: secrets/redis.yml\n")
	writeFile(t, filepath.Join(root, "secrets", "redis.yml"), "password: hunter2\nport: 6380\n")

	cfg, err := Load("codegen.config.yml", loadOpts(root))
	require.NoError(t, err)
	assert.Equal(t, ConnectionOptions{Host: "localhost", Port: 6380, Password: "hunter2"}, cfg.Connection)
}

func TestLoad_MissingSecretsSkipped(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "codegen.config.yml"), sampleConfig+"connectionSecrets: secrets/redis.yml\n")

	cfg, err := Load("codegen.config.yml", loadOpts(root))
	require.NoError(t, err)
	assert.Equal(t, ConnectionOptions{Host: "localhost", Port: 6379}, cfg.Connection)
}

func TestLoad_InvalidSecrets(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "codegen.config.yml"), sampleConfig+"connectionSecrets: redis.yml\n")
	writeFile(t, filepath.Join(root, "redis.yml"), "port: 99999\n")

	_, err := Load("codegen.config.yml", loadOpts(root))

	var verr *core.ConfigValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.ErrorsByPath(), "connectionSecrets.port")
}

func TestLoad_EncryptedSecretsOverlay(t *testing.T) {
	root := t.TempDir()

	identity, err := age.GenerateX25519Identity()
	require.NoError(t, err)

	writeFile(t, filepath.Join(root, "key.txt"), "# created for tests\n"+identity.String()+"\n")

	var encrypted bytes.Buffer
	require.NoError(t, fcrypt.EncryptReader(bytes.NewBufferString("password: s3cret\n"), &encrypted, identity.Recipient()))
	writeFile(t, filepath.Join(root, "redis.yml.age"), encrypted.String())

	writeFile(t, filepath.Join(root, "codegen.config.yml"),
		sampleConfig+"connectionSecrets: redis.yml\nage:\n  identity_file: key.txt\n")

	cfg, err := Load("codegen.config.yml", loadOpts(root))
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Connection.Password)
	assert.Equal(t, "localhost", cfg.Connection.Host)
}
