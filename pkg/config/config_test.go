package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func loadFromDir(t *testing.T, env string) *Config {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o600))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load()
	require.NoError(t, err)
	return cfg
}

func TestLoadDefaults(t *testing.T) {
	cfg := loadFromDir(t, "")

	require.Equal(t, 5000, cfg.Port)
	require.Equal(t, "/api", cfg.APIPrefix)
	require.Equal(t, int64(10*1024*1024), cfg.Uploads.MaxFileSizeBytes)
	require.Equal(t, 5, cfg.Uploads.MaxFilesPerSave)
	require.Equal(t, []string{
		"application/pdf",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}, cfg.Uploads.AllowedMIMEs)
}

func TestLoadReadsEnvFile(t *testing.T) {
	cfg := loadFromDir(t, "PORT=8080\nDB_NAME=ccmr_test\n")

	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "ccmr_test", cfg.Database.Name)
}
