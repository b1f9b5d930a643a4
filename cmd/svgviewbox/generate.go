package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/benoitkugler/svgviewbox/config"
	"github.com/benoitkugler/svgviewbox/svgbake"
	"github.com/benoitkugler/svgviewbox/svgdoc"
	"github.com/benoitkugler/svgviewbox/svgopt"
	"github.com/benoitkugler/svgviewbox/svgscan"
	"github.com/benoitkugler/svgviewbox/utils"
	"github.com/benoitkugler/svgviewbox/watch"
)

// FileWriteError is returned when an output file can't be written.
type FileWriteError struct {
	Path string
	Err  error
}

func (e *FileWriteError) Error() string {
	return fmt.Sprintf("unable to write '%s': %v", e.Path, e.Err)
}

func (e *FileWriteError) Unwrap() error { return e.Err }

// noFilesError is returned for a source folder without SVG files.
type noFilesError struct {
	Dir string
}

func (e noFilesError) Error() string {
	return fmt.Sprintf("An error occurred or no files were found in folder '%s'", e.Dir)
}

// report prints err on stderr and returns the exit code of the run.
// An empty or unreadable source folder is only a warning.
func report(stderr io.Writer, err error) int {
	dec := utils.NewDecorator(stderr)
	var (
		dirErr     *svgscan.DirectoryAccessError
		noFilesErr noFilesError
	)
	switch {
	case errors.As(err, &noFilesErr):
		fmt.Fprintf(stderr, "\n%s\n\n", dec.Text(err.Error(), utils.WarningMessage))
		return 0
	case errors.As(err, &dirErr):
		fmt.Fprintln(stderr, dec.Text("Error: "+err.Error(), utils.WarningMessage))
		return 0
	default:
		fmt.Fprintln(stderr, dec.Text("Error: "+err.Error(), utils.ErrorMessage))
		return 1
	}
}

// generator runs the generation pipeline:
// listing, optimization, assembling and writing.
type generator struct {
	dir       string
	cfg       *config.Config
	optimizer svgopt.Optimizer
	stdout    io.Writer
	stderr    io.Writer
	logger    *slog.Logger

	// absolute paths of the files written by the generator,
	// excluded from the sources
	outputs []string
}

func newGenerator(dir string, cfg *config.Config, stdout, stderr io.Writer, logger *slog.Logger) (*generator, error) {
	optimizer, err := svgopt.New(cfg.OptimizerConfig(), logger)
	if err != nil {
		return nil, err
	}
	g := &generator{
		dir:       dir,
		cfg:       cfg,
		optimizer: optimizer,
		stdout:    stdout,
		stderr:    stderr,
		logger:    logger,
	}
	for _, path := range []string{cfg.Output, cfg.Bake.Output} {
		if abs, err := filepath.Abs(path); err == nil {
			g.outputs = append(g.outputs, abs)
		}
	}
	return g, nil
}

func (g *generator) isOutput(file string) bool {
	abs, err := filepath.Abs(file)
	if err != nil {
		return false
	}
	for _, out := range g.outputs {
		if abs == out {
			return true
		}
	}
	return false
}

func (g *generator) report(err error) { report(g.stderr, err) }

// listFiles returns the SVG files of the source folder,
// failing with noFilesError when there are none.
// The files written by a previous run are not sources.
func (g *generator) listFiles() ([]string, error) {
	all, err := svgscan.ListSVGFiles(g.dir)
	if err != nil {
		return nil, err
	}
	files := all[:0]
	for _, file := range all {
		if g.isOutput(file) {
			g.logger.Debug("skipping output file", "file", file)
			continue
		}
		files = append(files, file)
	}
	if len(files) == 0 {
		return nil, noFilesError{Dir: g.dir}
	}
	if g.cfg.Sort {
		files = svgscan.Sorted(files)
	}
	return files, nil
}

// optimizeAll stops on the first failure, so that no partial page is written.
func (g *generator) optimizeAll(files []string) ([][]byte, error) {
	fragments := make([][]byte, 0, len(files))
	for _, file := range files {
		out, err := svgopt.OptimizeFile(g.optimizer, file)
		if err != nil {
			return nil, err
		}
		g.logger.Debug("optimized", "file", file, "size", len(out))
		fragments = append(fragments, out)
	}
	return fragments, nil
}

func (g *generator) write(path string, content string) error {
	if err := utils.WriteFileAtomic(path, []byte(content), 0o644); err != nil {
		return &FileWriteError{Path: path, Err: err}
	}
	return nil
}

// generate writes the page, and, if `bake` is true, the SVG computed by the page.
func (g *generator) generate(ctx context.Context, bake bool) error {
	files, err := g.listFiles()
	if err != nil {
		return err
	}
	fmt.Fprintf(g.stdout, "Found %d SVG files in '%s':\n%s\n", len(files), g.dir, strings.Join(files, "\n"))
	fmt.Fprintln(g.stdout, "Processing...")

	fragments, err := g.optimizeAll(files)
	if err != nil {
		return err
	}
	page := svgdoc.Assemble(fragments, g.cfg.ClientOptions())

	fmt.Fprintf(g.stdout, "Writing output HTML '%s'...\n", g.cfg.Output)
	if err := g.write(g.cfg.Output, page); err != nil {
		return err
	}

	if bake {
		if err := g.bake(ctx); err != nil {
			return err
		}
	}
	fmt.Fprintln(g.stdout, "Done!")
	return nil
}

func (g *generator) bake(ctx context.Context) error {
	res, err := svgbake.Bake(ctx, g.cfg.Output, svgbake.Config{
		RemoteURL: g.cfg.Bake.RemoteURL,
		Bin:       g.cfg.Bake.Bin,
		Timeout:   g.cfg.BakeTimeout(),
		Logger:    g.logger,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(g.stdout, "Writing baked SVG '%s'...\n", g.cfg.Bake.Output)
	return g.write(g.cfg.Bake.Output, res.Markup)
}

// watch regenerates the outputs on changes, until ctx is done.
func (g *generator) watch(ctx context.Context, bake bool) error {
	dec := utils.NewDecorator(g.stdout)
	w, err := watch.New(g.dir, g.cfg.Debounce(), g.logger, func(files []string) {
		fmt.Fprintf(g.stdout, "\nChanged: %s\n", strings.Join(files, ", "))
		start := time.Now()
		if err := g.generate(ctx, bake); err != nil {
			g.report(err)
			return
		}
		fmt.Fprintf(g.stdout, "Regenerated in %s\n", dec.Text(utils.FormatTime(time.Since(start)), utils.SuccessMessage))
	})
	if err != nil {
		return err
	}
	defer w.Close()
	w.Ignore(g.outputs...)

	fmt.Fprintf(g.stdout, "Watching '%s' for changes (Ctrl+C to stop)...\n", dec.Text(g.dir, utils.StatusMessage))
	return w.Run(ctx)
}
