package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CONFIG_DIR", filepath.Join(dir, "cfg"))

	cfg, err := Load(filepath.Join(dir, ".env"))
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, filepath.Join(dir, "cfg", "payfamily.db"), cfg.DataPath)
	assert.Equal(t, filepath.Join(dir, "cfg", "master.key"), cfg.KeyFilePath)
	assert.Equal(t, filepath.Join(dir, "cfg", "profile.json"), cfg.ProfilePath)
	assert.Equal(t, 100000, cfg.KDF.Iterations)
	assert.Equal(t, KDFPBKDF2, cfg.KDF.Algorithm)
	assert.Equal(t, BackendNone, cfg.Backup.Backend)
	assert.True(t, cfg.IsProd())

	info, err := os.Stat(cfg.ConfigDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLoad_Overrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CONFIG_DIR", dir)
	t.Setenv("APP_ENV", "local")
	t.Setenv("DATA_PATH", filepath.Join(dir, "other.db"))
	t.Setenv("KDF_ITERATIONS", "250000")
	t.Setenv("BACKUP_BACKEND", "S3")
	t.Setenv("S3_ENDPOINT", "localhost:9000")
	t.Setenv("S3_USE_SSL", "false")

	cfg, err := Load(filepath.Join(dir, ".env"))
	require.NoError(t, err)

	assert.True(t, cfg.IsLocal())
	assert.Equal(t, filepath.Join(dir, "other.db"), cfg.DataPath)
	assert.Equal(t, 250000, cfg.KDF.Iterations)
	assert.Equal(t, BackendS3, cfg.Backup.Backend)
	assert.False(t, cfg.Backup.S3.UseSSL)
	assert.Equal(t, "payfamily", cfg.Backup.S3.Bucket)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"server without address", map[string]string{"BACKUP_BACKEND": "server"}, "BACKUP_SERVER_ADDRESS"},
		{"s3 without endpoint", map[string]string{"BACKUP_BACKEND": "s3"}, "S3_ENDPOINT"},
		{"unknown backend", map[string]string{"BACKUP_BACKEND": "ftp"}, "unknown BACKUP_BACKEND"},
		{"unknown kdf", map[string]string{"KDF_ALGORITHM": "scrypt"}, "KDF_ALGORITHM"},
		{"bad iterations", map[string]string{"KDF_ITERATIONS": "-5"}, "KDF_ITERATIONS"},
		{"too few iterations", map[string]string{"KDF_ITERATIONS": "1"}, "KDF_ITERATIONS"},
		{"too many iterations", map[string]string{"KDF_ITERATIONS": "2147483647"}, "KDF_ITERATIONS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			t.Setenv("CONFIG_DIR", dir)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load(filepath.Join(dir, ".env"))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
