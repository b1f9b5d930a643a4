package svgbake

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/benoitkugler/svgviewbox/svgdoc"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireBrowser(t *testing.T) {
	t.Helper()
	if _, found := launcher.LookPath(); !found {
		t.Skip("no Chrome binary found")
	}
}

func writePage(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "output.html")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileURL(t *testing.T) {
	u, err := FileURL("output.html")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "file:///"), u)
	assert.True(t, strings.HasSuffix(u, "/output.html"), u)
}

func TestBake(t *testing.T) {
	requireBrowser(t)

	page := svgdoc.Assemble([][]byte{
		[]byte(`<svg><rect x="1" y="2" width="3" height="4"/></svg>`),
		[]byte(`<svg id="0x01"><circle cx="10" cy="10" r="5"/></svg>`),
	}, svgdoc.DefaultOptions())

	res, err := Bake(context.Background(), writePage(t, page), Config{})
	require.NoError(t, err)

	assert.Equal(t, []string{"1 2 3 4", "5 5 10 10"}, res.ViewBoxes)
	assert.True(t, strings.HasPrefix(res.Markup, `<svg id="svg"`), res.Markup)
	assert.Contains(t, res.Markup, `viewBox="1 2 3 4"`)
	assert.Contains(t, res.Markup, `id="0x01"`)
}

func TestBakeWithoutWrapper(t *testing.T) {
	requireBrowser(t)

	_, err := Bake(context.Background(), writePage(t, "<!doctype html><p>nothing</p>"), Config{})
	assert.Error(t, err)
}

func TestBakeMissingBinary(t *testing.T) {
	_, err := Bake(context.Background(), "output.html", Config{Bin: filepath.Join(t.TempDir(), "no-chrome")})
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoBrowser))
}
