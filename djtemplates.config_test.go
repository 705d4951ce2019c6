package djtemplates_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UnknownPlatypus/djtemplates"
)

func TestParseConfig(t *testing.T) {
	cfg, err := djtemplates.ParseConfig([]byte("autoescape: false\nstring_if_invalid: \"???\"\nmax_depth: 16\n"))
	require.NoError(t, err)

	require.NotNil(t, cfg.Autoescape)
	assert.False(t, *cfg.Autoescape)
	require.NotNil(t, cfg.StringIfInvalid)
	assert.Equal(t, "???", *cfg.StringIfInvalid)
	assert.Equal(t, 16, cfg.MaxDepth)
}

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := djtemplates.ParseConfig([]byte("{}"))
	require.NoError(t, err)

	assert.Nil(t, cfg.Autoescape)
	assert.Nil(t, cfg.StringIfInvalid)
	assert.Zero(t, cfg.MaxDepth)
	assert.Empty(t, cfg.Options())
}

func TestParseConfigInvalidYAML(t *testing.T) {
	_, err := djtemplates.ParseConfig([]byte("autoescape: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), djtemplates.ErrMsgConfigParse)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("string_if_invalid: MISSING\n"), 0o644))

	cfg, err := djtemplates.LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.StringIfInvalid)
	assert.Equal(t, "MISSING", *cfg.StringIfInvalid)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := djtemplates.LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), djtemplates.ErrMsgConfigRead)
}

func TestWithConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("autoescape: false\n"), 0o644))

	engine, err := djtemplates.New(djtemplates.WithConfigFile(path))
	require.NoError(t, err)

	out, err := engine.Render("{{ v }}", map[string]any{"v": "<b>"})
	require.NoError(t, err)
	assert.Equal(t, "<b>", out)
}

func TestWithConfigFileMissing(t *testing.T) {
	_, err := djtemplates.New(djtemplates.WithConfigFile(filepath.Join(t.TempDir(), "nope.yaml")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), djtemplates.ErrMsgConfigRead)
}

func TestWithConfig(t *testing.T) {
	cfg, err := djtemplates.ParseConfig([]byte("autoescape: false\nstring_if_invalid: \"-\"\n"))
	require.NoError(t, err)

	engine := djtemplates.MustNew(djtemplates.WithConfig(cfg))

	out, err := engine.Render("{{ html }}{{ missing }}", map[string]any{"html": "<b>"})
	require.NoError(t, err)
	assert.Equal(t, "<b>-", out)
}
