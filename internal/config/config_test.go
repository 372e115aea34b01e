package config

import (
	"os"
	"testing"
	"time"

	"go-portal-sync/internal/common/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	chdirForTest(t, t.TempDir())
	t.Setenv("SOURCE_PAGE_SIZE", "")
	t.Setenv("HTTP_TIMEOUT", "")
	t.Setenv("SYNC_SCHEDULES", "")
	t.Setenv("CHECKPOINT_BACKEND", CheckpointBackendFile)
	t.Setenv("LEDGER_BACKEND", LedgerBackendLog)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.SourcePageSize)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Empty(t, cfg.SyncSchedules)
}

func TestLoadConfigRejectsUnknownBackend(t *testing.T) {
	chdirForTest(t, t.TempDir())
	t.Setenv("CHECKPOINT_BACKEND", "redis")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindConfiguration))
}

func TestLoadConfigPostgresLedgerNeedsURL(t *testing.T) {
	chdirForTest(t, t.TempDir())
	t.Setenv("CHECKPOINT_BACKEND", CheckpointBackendFile)
	t.Setenv("LEDGER_BACKEND", LedgerBackendPostgres)
	t.Setenv("LEDGER_DATABASE_URL", "")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LEDGER_DATABASE_URL")
}

func TestValidateSourceListsMissingKeys(t *testing.T) {
	cfg := &Config{SourceBaseURL: "https://crm.example.com", SourceClientID: "id"}

	err := cfg.ValidateSource()
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindConfiguration))
	assert.Contains(t, err.Error(), "SOURCE_AUTH_URL, SOURCE_CLIENT_SECRET")

	cfg.SourceAuthURL = "https://login.example.com/token"
	cfg.SourceClientSecret = "secret"
	assert.NoError(t, cfg.ValidateSource())
}

func TestValidateServer(t *testing.T) {
	assert.Error(t, (&Config{}).ValidateServer())
	assert.NoError(t, (&Config{SkipAuth: true}).ValidateServer())
	assert.NoError(t, (&Config{JWTSecret: "s3cret"}).ValidateServer())
}

func TestParseSchedules(t *testing.T) {
	got, err := parseSchedules("members=*/15 * * * *; organizations=@hourly ;")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"members":       "*/15 * * * *",
		"organizations": "@hourly",
	}, got)

	_, err = parseSchedules("members")
	assert.Error(t, err)
}

func TestGetEnvIntRejectsGarbage(t *testing.T) {
	t.Setenv("SOURCE_PAGE_SIZE", "lots")
	_, err := getEnvInt("SOURCE_PAGE_SIZE", 100)
	assert.Error(t, err)
}

// chdirForTest changes the working directory for the duration of the test
// and restores it on cleanup (equivalent of testing.T.Chdir on older Go).
func chdirForTest(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
