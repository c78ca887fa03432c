package cli_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gokeyring "github.com/zalando/go-keyring"

	"github.com/rshade/carbonledger/internal/config"
	"github.com/rshade/carbonledger/internal/secrets"
)

func TestConfigSetGet(t *testing.T) {
	home := setupCLITest(t)

	out := mustRun(t, "config", "set", "benchmark.region", "europe")
	assert.Contains(t, out, "Set benchmark.region = europe in "+filepath.Join(home, "config.yaml"))

	assert.Equal(t, "europe", strings.TrimSpace(mustRun(t, "config", "get", "benchmark.region")))

	_, err := runCLI(t, "config", "set", "benchmark.planet", "mars")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown config key")

	_, err = runCLI(t, "config", "set", "output.precision", "99")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not saved")
	assert.Equal(t, "2", strings.TrimSpace(mustRun(t, "config", "get", "output.precision")))
}

func TestConfigSet_EnvironmentNotPersisted(t *testing.T) {
	home := setupCLITest(t)
	t.Setenv("CARBONLEDGER_REGION", "asia")

	mustRun(t, "config", "set", "output.precision", "1")

	data, err := os.ReadFile(filepath.Join(home, "config.yaml"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "asia")
	assert.Equal(t, "asia", strings.TrimSpace(mustRun(t, "config", "get", "benchmark.region")))
}

func TestConfigList(t *testing.T) {
	setupCLITest(t)
	t.Setenv("CARBONLEDGER_STORE_DSN", "postgres://user:hunter2@db/ledger")

	out := mustRun(t, "config", "list")
	for _, key := range config.Keys() {
		assert.Contains(t, out, key+" = ")
	}
	assert.Contains(t, out, "store.dsn = <set>")
	assert.NotContains(t, out, "hunter2")
}

func TestConfigValidate(t *testing.T) {
	home := setupCLITest(t)

	out := mustRun(t, "config", "validate", "--verbose")
	assert.Contains(t, out, "Configuration is valid")
	assert.Contains(t, out, "Configuration details:")

	t.Setenv("CARBONLEDGER_REGION", "atlantis")
	out = mustRun(t, "config", "validate")
	assert.Contains(t, out, `unknown benchmark.region "atlantis"`)

	require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"), []byte("output:\n  unit: furlongs\n"), 0o600))
	_, err := runCLI(t, "config", "validate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output.unit")
}

func TestConfigInit_Global(t *testing.T) {
	home := setupCLITest(t)

	out := mustRun(t, "config", "init")
	assert.Contains(t, out, "Configuration initialized successfully")
	_, err := os.Stat(filepath.Join(home, "config.yaml"))
	require.NoError(t, err)

	_, err = runCLI(t, "config", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	mustRun(t, "config", "init", "--force")
}

func TestConfigInit_Project(t *testing.T) {
	setupCLITest(t)
	project := t.TempDir()
	t.Setenv("CARBONLEDGER_PROJECT_DIR", project)
	projectDir := filepath.Join(project, config.ProjectDirName)

	out := mustRun(t, "config", "init")
	assert.Contains(t, out, "Configuration initialized at "+filepath.Join(projectDir, "config.yaml"))
	assert.Contains(t, out, "Ledger: "+filepath.Join(projectDir, "ledger.json"))
	assert.Contains(t, out, "Created .gitignore")

	gitignore, err := os.ReadFile(filepath.Join(projectDir, ".gitignore"))
	require.NoError(t, err)
	assert.Equal(t, config.GitignoreContent(), string(gitignore))

	_, err = runCLI(t, "config", "init")
	require.Error(t, err)

	mustRun(t, "config", "set", "benchmark.region", "oceania")
	assert.Equal(t, "oceania", strings.TrimSpace(mustRun(t, "config", "get", "benchmark.region")))

	mustRun(t, "log", "activity", "energy", "electricity", "10")
	_, err = os.Stat(filepath.Join(projectDir, "ledger.json"))
	require.NoError(t, err, "the project ledger is used")
}

func TestConfigSecrets(t *testing.T) {
	setupCLITest(t)
	gokeyring.MockInit()

	out := mustRun(t, "config", "set-secret", secrets.StoreDSN, "postgres://localhost/ledger")
	assert.Contains(t, out, "Stored store-dsn in the keyring")
	v, err := secrets.Get(secrets.StoreDSN)
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/ledger", v)

	_, err = runCLIWithInput(t, strings.NewReader("s3cr3t\n"), "config", "set-secret", secrets.S3SecretAccessKey)
	require.NoError(t, err)
	v, err = secrets.Get(secrets.S3SecretAccessKey)
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", v)

	_, err = runCLI(t, "config", "set-secret", "api-token", "x")
	require.ErrorIs(t, err, secrets.ErrUnknownSecret)

	out = mustRun(t, "config", "delete-secret", secrets.StoreDSN)
	assert.Contains(t, out, "Deleted store-dsn from the keyring")
	_, err = runCLI(t, "config", "delete-secret", secrets.StoreDSN)
	require.ErrorIs(t, err, secrets.ErrNotFound)
}
