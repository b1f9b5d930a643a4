package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/benoitkugler/svgviewbox/config"
	"github.com/benoitkugler/svgviewbox/svgscan"
	"github.com/benoitkugler/svgviewbox/utils"
	"github.com/spf13/cobra"
)

const helpText = `Optimize SVGs and set viewBox
-----------------------------

Input : folder of SVGs
Output: HTML file that displays the SVGs, sets their viewBoxes, and provides
        a download link.

Optimization is done by this program, while the viewBox setting is offloaded
to the browser.

This is accomplished by writing an HTML file that includes:
- The SVGs inline.
- A script to set the viewBox (using the browser API method 'getBBox').
- A button to download the resulting SVG.

The individual SVGs are wrapped in an outer SVG with style 'display: none' and
have no xml tag, as they are intended to be added inline and included via the
'use' tag.

Example:
  svgviewbox ./my-svgs`

type options struct {
	configPath string
	out        string
	sort       bool
	logLevel   string
	watch      bool
	bake       bool
}

// errUsage signals a command line which is not understood
var errUsage = errors.New("usage")

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:           "svgviewbox SVG_SOURCE_DIR",
		Short:         "Optimize a folder of SVGs and set their viewBox",
		Long:          helpText,
		Version:       Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errUsage
			}
			return runGenerate(cmd, args[0], opts, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		fmt.Fprintln(stderr, utils.NewDecorator(stderr).Text(err.Error(), utils.ErrorMessage))
		return errUsage
	})

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", config.DefaultPath, "configuration file (optional)")
	flags.StringVarP(&opts.out, "out", "o", "", "output HTML file (default \"output.html\")")
	flags.BoolVar(&opts.sort, "sort", false, "sort the SVG files by name instead of directory order")
	flags.StringVar(&opts.logLevel, "log-level", "", "diagnostics level: debug/info/warn/error (default \"warn\")")
	flags.BoolVarP(&opts.watch, "watch", "w", false, "regenerate the page when the SVG files change")
	flags.BoolVar(&opts.bake, "bake", false, "run the page in headless Chrome and save the SVG with its viewBoxes")
	return cmd
}

// loadConfig returns the configuration, with the command line overrides applied.
func loadConfig(cmd *cobra.Command, opts options) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if cmd.Flags().Changed("config") {
		cfg, err = config.Load(opts.configPath)
	} else {
		cfg, err = config.LoadOrDefault(opts.configPath)
	}
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("out") {
		cfg.Output = opts.out
	}
	if cmd.Flags().Changed("sort") {
		cfg.Sort = opts.sort
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	return cfg, nil
}

func runGenerate(cmd *cobra.Command, dir string, opts options, stdout, stderr io.Writer) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	level, err := cfg.Level()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	g, err := newGenerator(dir, cfg, stdout, stderr, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = g.generate(ctx, opts.bake)
	if !opts.watch {
		return err
	}
	var dirErr *svgscan.DirectoryAccessError
	if errors.As(err, &dirErr) {
		// nothing to watch
		return err
	}
	if err != nil {
		g.report(err)
	}
	return g.watch(ctx, opts.bake)
}

// run executes the command line `args` and returns the exit code.
func run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	if errors.Is(err, errUsage) {
		cmd.Help()
		return 0
	}
	if err == nil {
		return 0
	}
	return report(stderr, err)
}
