// Optimizes SVG icons before they are inlined in an HTML page.
// Documents are parsed into a lightweight tree, transformed by a fixed
// pipeline of plugins (see `pipeline`), and written back without XML
// declaration, ready to be embedded.
package svgopt

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
)

// DefaultRemovedAttrs is the pattern of the presentation and sizing
// attributes removed from the icons, which are expected to be applied
// (or computed) by the embedding page.
const DefaultRemovedAttrs = "(fill|stroke|fill-opacity|stroke-width|width|height|version)"

// Config selects the optimizations applied.
type Config struct {
	// Multipass runs the pipeline repeatedly, while the output shrinks.
	Multipass bool
	// MaxPasses bounds the number of passes in multipass mode.
	MaxPasses int
	// Precision is the number of decimals kept in numeric values.
	Precision int
	// PreservePrefixes lists the ID prefixes whose IDs are never
	// renamed nor removed.
	PreservePrefixes []string
	// RemoveAttrs lists the attribute patterns to remove,
	// written `attr`, `element:attr` or `element:attr:value` (regular expressions).
	RemoveAttrs []string
	// RemoveXMLNS drops the xmlns declaration of the root element.
	RemoveXMLNS bool
}

// DefaultConfig returns the configuration used for icon sheets.
func DefaultConfig() Config {
	return Config{
		Multipass:        true,
		MaxPasses:        10,
		Precision:        3,
		PreservePrefixes: []string{"0x"},
		RemoveAttrs:      []string{DefaultRemovedAttrs},
		RemoveXMLNS:      true,
	}
}

// Optimizer transforms the content of one SVG file.
type Optimizer interface {
	Optimize(src []byte) ([]byte, error)
}

// OptimizationError is returned when an input can't be optimized,
// usually because it is not valid XML.
type OptimizationError struct {
	Source string // file name, may be empty
	Err    error
}

func (e *OptimizationError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("optimizing svg: %v", e.Err)
	}
	return fmt.Sprintf("optimizing svg %s: %v", e.Source, e.Err)
}

func (e *OptimizationError) Unwrap() error { return e.Err }

var _ Optimizer = (*Processor)(nil) // assert interface conformance

// Processor is the in-process Optimizer. It is safe for concurrent use,
// since it only holds the compiled configuration.
type Processor struct {
	cfg          Config
	attrPatterns []attrPattern
	logger       *slog.Logger
}

// New compiles the configuration. An error is returned
// for invalid attribute patterns.
// A nil logger is replaced by slog.Default().
func New(cfg Config, logger *slog.Logger) (*Processor, error) {
	if cfg.MaxPasses <= 0 {
		cfg.MaxPasses = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{
		cfg:    cfg,
		logger: logger,
	}
	// copy the slices, so that the configuration is not shared with the caller
	p.cfg.PreservePrefixes = append([]string(nil), cfg.PreservePrefixes...)
	p.cfg.RemoveAttrs = append([]string(nil), cfg.RemoveAttrs...)
	for _, pattern := range p.cfg.RemoveAttrs {
		compiled, err := compileAttrPattern(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid attribute pattern %q: %w", pattern, err)
		}
		p.attrPatterns = append(p.attrPatterns, compiled)
	}
	return p, nil
}

// Config returns a copy of the configuration.
func (p *Processor) Config() Config {
	cfg := p.cfg
	cfg.PreservePrefixes = append([]string(nil), p.cfg.PreservePrefixes...)
	cfg.RemoveAttrs = append([]string(nil), p.cfg.RemoveAttrs...)
	return cfg
}

// Optimize parses `src` and returns the optimized markup.
// The root <svg> element is kept.
func (p *Processor) Optimize(src []byte) ([]byte, error) {
	root, err := parse(src)
	if err != nil {
		return nil, &OptimizationError{Err: err}
	}

	var (
		output   string
		prevSize = len(src)
		pass     int
	)
	for pass < p.cfg.MaxPasses {
		pass++
		for _, plug := range pipeline {
			plug.fn(p, root)
		}
		output = root.serialize()
		if !p.cfg.Multipass || len(output) >= prevSize {
			break
		}
		prevSize = len(output)
	}
	p.logger.Debug("svgopt: optimized", "input", len(src), "output", len(output), "passes", pass)
	return []byte(output), nil
}

// OptimizeFile reads the file `path` and optimizes it with `opt`.
// Optimization failures are returned as *OptimizationError.
func OptimizeFile(opt Optimizer, path string) ([]byte, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	out, err := opt.Optimize(src)
	if err != nil {
		var optErr *OptimizationError
		if errors.As(err, &optErr) {
			return nil, &OptimizationError{Source: path, Err: optErr.Err}
		}
		return nil, &OptimizationError{Source: path, Err: err}
	}
	return out, nil
}
