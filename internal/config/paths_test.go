package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePaths_HomeOverride(t *testing.T) {
	base := t.TempDir()
	t.Setenv("HOOKMOUNT_HOME", base)

	p, err := ResolvePaths()
	require.NoError(t, err)
	assert.Equal(t, base, p.Base)
	assert.Equal(t, filepath.Join(base, "config.yaml"), p.Config)
	assert.Equal(t, filepath.Join(base, "hooks.hcl"), p.Manifest)
	assert.Equal(t, filepath.Join(base, "scripts"), p.Scripts)
	assert.Equal(t, filepath.Join(base, "data", "hookmount.db"), p.Database)
}

func TestResolvePaths_Default(t *testing.T) {
	t.Setenv("HOOKMOUNT_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	p, err := ResolvePaths()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".hookmount"), p.Base)
}

func TestEnsureDirs(t *testing.T) {
	t.Setenv("HOOKMOUNT_HOME", filepath.Join(t.TempDir(), "hm"))
	p, err := ResolvePaths()
	require.NoError(t, err)

	require.NoError(t, p.EnsureDirs())
	for _, d := range []string{p.Base, p.Scripts, p.Data} {
		info, err := os.Stat(d)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestParseConfigPath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr bool
	}{
		{"section", "hooks", []string{"hooks"}, false},
		{"two segments", "store.path", []string{"store", "path"}, false},
		{"logging", "logging.level", []string{"logging", "level"}, false},
		{"empty", "", nil, true},
		{"empty segment", "hooks..manifest", nil, true},
		{"leading dot", ".hooks", nil, true},
		{"trailing dot", "hooks.", nil, true},
		{"unknown section", "gateway.port", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseConfigPath(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				var ce *ConfigError
				assert.ErrorAs(t, err, &ce)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestGetValueAtPath(t *testing.T) {
	root := map[string]any{
		"hooks": map[string]any{
			"defaultPriority": 5,
		},
		"simple": "value",
	}

	v, ok := GetValueAtPath(root, []string{"hooks", "defaultPriority"})
	assert.True(t, ok)
	assert.Equal(t, 5, v)

	v, ok = GetValueAtPath(root, []string{"hooks"})
	assert.True(t, ok)
	assert.IsType(t, map[string]any{}, v)

	_, ok = GetValueAtPath(root, []string{"hooks", "missing"})
	assert.False(t, ok)

	_, ok = GetValueAtPath(root, []string{"simple", "deeper"})
	assert.False(t, ok)
}

func TestSetValueAtPath(t *testing.T) {
	root := map[string]any{"store": "not a map"}

	SetValueAtPath(root, []string{"hooks", "manifest"}, "a.hcl")
	SetValueAtPath(root, []string{"store", "path"}, "x.db")

	assert.Equal(t, map[string]any{"manifest": "a.hcl"}, root["hooks"])
	assert.Equal(t, map[string]any{"path": "x.db"}, root["store"])
}

func TestUnsetValueAtPath(t *testing.T) {
	root := map[string]any{
		"hooks": map[string]any{"manifest": "a.hcl"},
		"flat":  1,
	}

	assert.True(t, UnsetValueAtPath(root, []string{"hooks", "manifest"}))
	assert.Empty(t, root["hooks"])
	assert.False(t, UnsetValueAtPath(root, []string{"hooks", "manifest"}))
	assert.False(t, UnsetValueAtPath(root, []string{"missing", "key"}))
	assert.False(t, UnsetValueAtPath(root, []string{"flat", "key"}))
}
