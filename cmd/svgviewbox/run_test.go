package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

type result struct {
	code           int
	stdout, stderr string
}

func runIn(t *testing.T, workDir string, args ...string) result {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(workDir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return result{code, stdout.String(), stderr.String()}
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

// wrapperChildren parses the page and returns the children of the wrapping element
func wrapperChildren(t *testing.T, path string) []*html.Node {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("<!doctype html>")))
	doc, err := html.Parse(bytes.NewReader(data))
	require.NoError(t, err)

	var (
		wrappers []*html.Node
		visit    func(n *html.Node)
	)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode {
			for _, a := range n.Attr {
				if a.Key == "id" && a.Val == "svg" {
					wrappers = append(wrappers, n)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(doc)
	require.Len(t, wrappers, 1)

	var children []*html.Node
	for c := wrappers[0].FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			children = append(children, c)
		}
	}
	return children
}

func attrs(n *html.Node) map[string]string {
	out := map[string]string{}
	for _, a := range n.Attr {
		out[a.Key] = a.Val
	}
	return out
}

func TestUsage(t *testing.T) {
	for _, args := range [][]string{nil, {"a", "b"}, {"--unknown-flag", "dir"}} {
		res := runIn(t, t.TempDir(), args...)
		assert.Equal(t, 0, res.code)
		assert.Contains(t, res.stdout, "Usage:")
		assert.Contains(t, res.stdout, "svgviewbox SVG_SOURCE_DIR")
		assert.NoFileExists(t, "output.html")
	}
}

func TestVersion(t *testing.T) {
	res := runIn(t, t.TempDir(), "--version")
	assert.Equal(t, 0, res.code)
	assert.Contains(t, res.stdout, Version)
}

func TestEmptyFolder(t *testing.T) {
	work := t.TempDir()
	src := filepath.Join(work, "icons")
	require.NoError(t, os.Mkdir(src, 0o755))
	writeFiles(t, src, map[string]string{"readme.txt": "no icons here"})

	res := runIn(t, work, src)
	assert.Equal(t, 0, res.code)
	assert.Contains(t, res.stderr, "no files were found in folder '"+src+"'")
	assert.NoFileExists(t, filepath.Join(work, "output.html"))
}

func TestMissingFolder(t *testing.T) {
	work := t.TempDir()
	src := filepath.Join(work, "missing")

	res := runIn(t, work, src)
	assert.Equal(t, 0, res.code)
	assert.Contains(t, res.stderr, "unable to list SVG files in '"+src+"'")
	assert.NoFileExists(t, filepath.Join(work, "output.html"))
}

func TestMissingFolderWatch(t *testing.T) {
	work := t.TempDir()
	src := filepath.Join(work, "missing")

	res := runIn(t, work, "--watch", src)
	assert.Equal(t, 0, res.code)
	assert.Equal(t, 1, strings.Count(res.stderr, "unable to list SVG files in '"+src+"'"), res.stderr)
	assert.NotContains(t, res.stdout, "Watching")
}

func TestOutputsAreNotSources(t *testing.T) {
	work := t.TempDir()
	writeFiles(t, work, map[string]string{
		"a.svg":       `<svg><rect/></svg>`,
		"letters.svg": `<svg id="svg"><svg><rect/></svg></svg>`,
	})

	res := runIn(t, work, ".")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Found 1 SVG files in '.':\n")
	assert.NotContains(t, res.stdout, "letters.svg")
	assert.Len(t, wrapperChildren(t, filepath.Join(work, "output.html")), 1)
}

func TestSingleIcon(t *testing.T) {
	work := t.TempDir()
	src := filepath.Join(work, "icons")
	require.NoError(t, os.Mkdir(src, 0o755))
	writeFiles(t, src, map[string]string{
		"a.svg": `<svg width="10" height="10"><rect id="box" fill="red"/></svg>`,
	})

	res := runIn(t, work, src)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t,
		"Found 1 SVG files in '"+src+"':\n"+filepath.Join(src, "a.svg")+"\n"+
			"Processing...\n"+
			"Writing output HTML 'output.html'...\n"+
			"Done!\n",
		res.stdout)

	children := wrapperChildren(t, filepath.Join(work, "output.html"))
	require.Len(t, children, 1)
	a := attrs(children[0])
	for _, name := range []string{"fill", "width", "height", "xmlns"} {
		assert.NotContains(t, a, name)
	}
}

func TestPreservedID(t *testing.T) {
	work := t.TempDir()
	writeFiles(t, work, map[string]string{
		"glyph.svg": `<svg xmlns="http://www.w3.org/2000/svg"><path id="0x01" d="M0 0L10 10"/></svg>`,
	})

	res := runIn(t, work, ".")
	require.Equal(t, 0, res.code, res.stderr)

	children := wrapperChildren(t, filepath.Join(work, "output.html"))
	require.Len(t, children, 1)
	require.NotNil(t, children[0].FirstChild)
	assert.Equal(t, "0x01", attrs(children[0].FirstChild)["id"])
}

func TestMalformedIcon(t *testing.T) {
	work := t.TempDir()
	src := filepath.Join(work, "icons")
	require.NoError(t, os.Mkdir(src, 0o755))
	writeFiles(t, src, map[string]string{
		"good.svg":   `<svg><rect/></svg>`,
		"broken.svg": `<svg><rect></svg>`,
	})

	res := runIn(t, work, src)
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, filepath.Join(src, "broken.svg"))
	assert.NoFileExists(t, filepath.Join(work, "output.html"))
}

func TestSortAndOutput(t *testing.T) {
	work := t.TempDir()
	src := filepath.Join(work, "icons")
	require.NoError(t, os.Mkdir(src, 0o755))
	writeFiles(t, src, map[string]string{
		"c.svg": `<svg><g id="0xc"><rect/></g></svg>`,
		"a.svg": `<svg><g id="0xa"><rect/></g></svg>`,
		"B.SVG": `<svg><g id="0xb"><rect/></g></svg>`,
	})
	out := filepath.Join(work, "sheet.html")

	res := runIn(t, work, "--sort", "--out", out, src)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Found 3 SVG files in '"+src+"':\n"+
		strings.Join([]string{
			filepath.Join(src, "B.SVG"),
			filepath.Join(src, "a.svg"),
			filepath.Join(src, "c.svg"),
		}, "\n")+"\n")
	assert.Contains(t, res.stdout, "Writing output HTML '"+out+"'...")

	children := wrapperChildren(t, out)
	require.Len(t, children, 3)
	for i, id := range []string{"0xb", "0xa", "0xc"} {
		require.NotNil(t, children[i].FirstChild)
		assert.Equal(t, id, attrs(children[i].FirstChild)["id"])
	}
}

func TestConfigFile(t *testing.T) {
	work := t.TempDir()
	writeFiles(t, work, map[string]string{
		"svgviewbox.yaml": "output: icons.html\nclient:\n  download_name: icons.svg\n",
		"a.svg":           `<svg><rect/></svg>`,
	})

	res := runIn(t, work, ".")
	require.Equal(t, 0, res.code, res.stderr)
	data, err := os.ReadFile(filepath.Join(work, "icons.html"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"icons.svg"`)

	res = runIn(t, work, "--config", "missing.yaml", ".")
	assert.Equal(t, 1, res.code)

	writeFiles(t, work, map[string]string{"invalid.yaml": "optimizer:\n  max_passes: none\n"})
	res = runIn(t, work, "--config", "invalid.yaml", ".")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "max_passes")
}

func TestWriteFailure(t *testing.T) {
	work := t.TempDir()
	writeFiles(t, work, map[string]string{"a.svg": `<svg><rect/></svg>`})

	res := runIn(t, work, "--out", filepath.Join(work, "missing", "output.html"), ".")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "unable to write")
	assert.NotContains(t, res.stdout, "Done!")
}
