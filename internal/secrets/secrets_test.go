// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// secretsDir writes files (name → content) into a fresh directory.
func secretsDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	return dir
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  Secrets
	}{
		{
			name: "all known secrets trimmed",
			files: map[string]string{
				APIToken:        "  tok_abc123  \n",
				ResponderAPIKey: "rk_xyz789",
				DatabaseDSN:     "postgres://intellidrug@localhost/intellidrug\n",
			},
			want: Secrets{
				APIToken:        "tok_abc123",
				ResponderAPIKey: "rk_xyz789",
				DatabaseDSN:     "postgres://intellidrug@localhost/intellidrug",
			},
		},
		{
			name: "blank files ignored",
			files: map[string]string{
				APIToken:        "",
				ResponderAPIKey: " \n\t ",
				DatabaseDSN:     "data/alt.db",
			},
			want: Secrets{DatabaseDSN: "data/alt.db"},
		},
		{
			name: "dotfiles ignored",
			files: map[string]string{
				".gitkeep":     "",
				".old-api-key": "stale",
				APIToken:       "tok_live",
			},
			want: Secrets{APIToken: "tok_live"},
		},
		{
			name:  "empty directory",
			files: nil,
			want:  Secrets{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(secretsDir(t, tt.files))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoad_MissingDirectory(t *testing.T) {
	got, err := Load(filepath.Join(t.TempDir(), ".secrets"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoad_SkipsDirectoriesAndUnreadableFiles(t *testing.T) {
	dir := secretsDir(t, map[string]string{ResponderAPIKey: "rk_123"})
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive"), 0o755))

	locked := filepath.Join(dir, DatabaseDSN)
	require.NoError(t, os.WriteFile(locked, []byte("postgres://x"), 0o000))
	t.Cleanup(func() { os.Chmod(locked, 0o600) })
	if _, err := os.ReadFile(locked); err == nil {
		t.Skip("running with privileges that ignore file modes")
	}

	got, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, Secrets{ResponderAPIKey: "rk_123"}, got)
}

func TestSecrets_OrAndKeys(t *testing.T) {
	s := Secrets{ResponderAPIKey: "rk_file", APIToken: "tok_file"}

	assert.Equal(t, "tok_config", s.Or(APIToken, "tok_config"), "configured value wins")
	assert.Equal(t, "rk_file", s.Or(ResponderAPIKey, ""))
	assert.Empty(t, s.Or(DatabaseDSN, ""))
	assert.Equal(t, []string{APIToken, ResponderAPIKey}, s.Keys())
}
