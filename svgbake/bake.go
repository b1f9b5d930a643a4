// Package svgbake runs a generated page in headless Chrome, so that the
// viewBox computed by its script can be saved without opening a browser.
package svgbake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"time"

	"github.com/benoitkugler/svgviewbox/svgdoc"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// ErrNoBrowser is returned when no Chrome binary is found and
// no remote instance is configured.
var ErrNoBrowser = errors.New("svgbake: no Chrome or Chromium binary found")

// Config configures a bake run.
type Config struct {
	// RemoteURL is the WebSocket URL of an external Chrome instance.
	// Empty = launch a local headless Chrome.
	RemoteURL string

	// Bin is the path of the Chrome binary. Empty = looked up in the usual places.
	Bin string

	// Timeout bounds the whole run. Default: 30s.
	Timeout time.Duration

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Result is the state of the page once its script has run.
type Result struct {
	// Markup is the outer markup of the wrapping element,
	// as saved by the download button.
	Markup string `json:"markup"`
	// ViewBoxes holds the viewBox set on each icon, in order.
	ViewBoxes []string `json:"viewBoxes"`
}

const extractScript = `() => {
	const svg = document.getElementById(%q);
	return JSON.stringify({
		markup: svg.outerHTML,
		viewBoxes: [...svg.children].map(e => e.getAttribute("viewBox") || ""),
	});
}`

// FileURL returns the file:// URL of `path`.
func FileURL(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String(), nil
}

func connect(cfg Config) (*rod.Browser, func(), error) {
	log := cfg.Logger
	wsURL := cfg.RemoteURL
	var lnch *launcher.Launcher
	if wsURL == "" {
		bin := cfg.Bin
		if bin == "" {
			path, found := launcher.LookPath()
			if !found {
				return nil, nil, ErrNoBrowser
			}
			bin = path
		}
		lnch = launcher.New().Bin(bin).Headless(true)
		u, err := lnch.Launch()
		if err != nil {
			return nil, nil, fmt.Errorf("svgbake: launch: %w", err)
		}
		wsURL = u
		log.Debug("svgbake: launched local chrome", "bin", bin, "url", wsURL)
	} else {
		log.Debug("svgbake: connecting to remote", "url", wsURL)
	}

	b := rod.New().ControlURL(wsURL)
	cleanup := func() {
		if lnch != nil {
			lnch.Cleanup()
		}
	}
	if err := b.Connect(); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("svgbake: connect: %w", err)
	}
	return b, func() {
		if err := b.Close(); err != nil {
			log.Debug("svgbake: closing browser", "error", err)
		}
		cleanup()
	}, nil
}

// Bake opens the page at `pagePath` in a browser, lets its script
// set the viewBox of the icons and returns the resulting markup.
func Bake(ctx context.Context, pagePath string, cfg Config) (*Result, error) {
	cfg.defaults()
	log := cfg.Logger

	pageURL, err := FileURL(pagePath)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	b, closeBrowser, err := connect(cfg)
	if err != nil {
		return nil, err
	}
	defer closeBrowser()

	page, err := b.Context(ctx).Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		return nil, fmt.Errorf("svgbake: create tab: %w", err)
	}
	defer page.Close()

	if err := page.Context(ctx).Navigate(pageURL); err != nil {
		return nil, fmt.Errorf("svgbake: navigate %s: %w", pageURL, err)
	}
	if err := page.Context(ctx).WaitLoad(); err != nil {
		return nil, fmt.Errorf("svgbake: wait load %s: %w", pageURL, err)
	}

	res, err := page.Context(ctx).Eval(fmt.Sprintf(extractScript, svgdoc.WrapperID))
	if err != nil {
		return nil, fmt.Errorf("svgbake: read %s: %w", pageURL, err)
	}
	var out Result
	if err := json.Unmarshal([]byte(res.Value.Str()), &out); err != nil {
		return nil, fmt.Errorf("svgbake: decode page state: %w", err)
	}
	for i, box := range out.ViewBoxes {
		log.Debug("svgbake: computed viewBox", "index", i, "viewBox", box)
	}
	return &out, nil
}
