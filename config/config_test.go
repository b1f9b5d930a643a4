package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/benoitkugler/svgviewbox/svgdoc"
	"github.com/benoitkugler/svgviewbox/svgopt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultPath)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "output.html", cfg.Output)
	assert.False(t, cfg.Sort)
	assert.Equal(t, svgopt.DefaultConfig(), cfg.OptimizerConfig())
	assert.Equal(t, svgdoc.DefaultOptions(), cfg.ClientOptions())
	assert.Equal(t, 300*time.Millisecond, cfg.Debounce())
	assert.Equal(t, "letters.svg", cfg.Bake.Output)
	assert.Equal(t, 30*time.Second, cfg.BakeTimeout())

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
output: icons.html
sort: true
log_level: debug
optimizer:
  precision: 1
  preserve_prefixes: ["0x", "keep-"]
  remove_xmlns: false
client:
  content_type: image/svg+xml
watch:
  debounce_ms: 50
bake:
  remote_url: ws://127.0.0.1:9222/devtools/browser/id
  bin: /usr/bin/chromium
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "icons.html", cfg.Output)
	assert.True(t, cfg.Sort)
	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	opt := cfg.OptimizerConfig()
	assert.Equal(t, 1, opt.Precision)
	assert.Equal(t, []string{"0x", "keep-"}, opt.PreservePrefixes)
	assert.False(t, opt.RemoveXMLNS)
	// absent keys keep their default
	assert.True(t, opt.Multipass)
	assert.Equal(t, 10, opt.MaxPasses)
	assert.Equal(t, []string{svgopt.DefaultRemovedAttrs}, opt.RemoveAttrs)

	client := cfg.ClientOptions()
	assert.Equal(t, "image/svg+xml", client.ContentType)
	assert.Equal(t, "letters.svg", client.DownloadName)
	assert.Equal(t, 50*time.Millisecond, cfg.Debounce())

	assert.Equal(t, "ws://127.0.0.1:9222/devtools/browser/id", cfg.Bake.RemoteURL)
	assert.Equal(t, "/usr/bin/chromium", cfg.Bake.Bin)
	assert.Equal(t, "letters.svg", cfg.Bake.Output)
}

func TestLoadEmpty(t *testing.T) {
	cfg, err := Load(writeConfig(t, "# nothing configured\n"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadInvalid(t *testing.T) {
	for _, content := range []string{
		"unknown_key: 1\n",
		"optimizer:\n  max_passes: 0\n",
		"optimizer:\n  precision: high\n",
		"log_level: verbose\n",
		"watch:\n  debounce_ms: -1\n",
		"client: []\n",
		"bake:\n  bin: 1\n",
	} {
		_, err := Load(writeConfig(t, content))
		var validationErr *ValidationError
		assert.True(t, errors.As(err, &validationErr), "expected a validation error for %q", content)
	}

	_, err := Load(writeConfig(t, "output: [unclosed\n"))
	assert.Error(t, err)
}

func TestLoadOrDefault(t *testing.T) {
	missing := filepath.Join(t.TempDir(), DefaultPath)

	_, err := Load(missing)
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	cfg, err := LoadOrDefault(missing)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = LoadOrDefault(writeConfig(t, "sort: maybe\n"))
	assert.Error(t, err)
}
