package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"

	"github.com/mattpair/conder-sub001/internal/config"
	"github.com/mattpair/conder-sub001/internal/slog"
	"github.com/mattpair/conder-sub001/internal/utils"
)

const WATCH_DEBOUNCE_DURATION = 100 * time.Millisecond

type watchOptions struct {
	path       string
	outputPath string
	indent     int
	colorize   bool
	highlight  bool

	//called after each build, err is nil if the build succeeded.
	onBuild func(err error)
}

func WatchManifest(ctx context.Context, cfg config.Config, args []string, outW, errW io.Writer) (exitCode int) {
	flags := flag.NewFlagSet(WATCH_SUBCMD, flag.ContinueOnError)
	flags.SetOutput(errW)

	opts := watchOptions{colorize: cfg.Colorize, highlight: cfg.HighlightOutput}
	flags.StringVar(&opts.outputPath, "o", "", "write the program to a file instead of stdout")
	flags.IntVar(&opts.indent, "indent", cfg.Indent, "number of spaces used to indent the program (0: compact)")
	bf := addBuildFlags(flags, cfg)

	if showHelp(flags, args, outW) {
		return 0
	}

	if err := flags.Parse(moveFlagsStart(flags, args)); err != nil {
		return ERROR_STATUS_CODE
	}

	path, ok := checkPathArg(flags, errW)
	if !ok {
		return ERROR_STATUS_CODE
	}
	opts.path = path

	b, err := newBuilder(cfg, bf, errW)
	if err != nil {
		fmt.Fprintln(errW, err)
		return ERROR_STATUS_CODE
	}
	defer b.Close()

	if err := watchManifest(ctx, b, opts, outW, errW); err != nil {
		printError(errW, err, cfg.Colorize)
		return ERROR_STATUS_CODE
	}
	return 0
}

// watchManifest builds the manifest, then rebuilds it after each change until ctx is done.
// The directory of the manifest is watched because editors often replace files instead of writing them.
func watchManifest(ctx context.Context, b *builder, opts watchOptions, outW, errW io.Writer) (finalErr error) {
	logger := slog.ChildLoggerForSource(b.logger, LOG_SRC)

	absPath, err := filepath.Abs(opts.path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() {
		finalErr = utils.CombineErrors(finalErr, watcher.Close())
	}()

	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		return err
	}

	rebuild := func() {
		result, err := b.build(ctx, absPath)
		if err == nil {
			err = writeDocument(result.Document, opts.indent, opts.outputPath, outW, opts.highlight)
		}

		if err != nil {
			printError(errW, err, opts.colorize)
		} else {
			newDiagnosticPrinter(errW, opts.colorize).printSuccess(fmt.Sprintf("%s compiled", opts.path))
		}

		if opts.onBuild != nil {
			opts.onBuild(err)
		}
	}

	rebuild()

	//rebuilds run on this goroutine, the debounced function only requests them.
	rebuildRequests := make(chan struct{}, 1)
	debounced := debounce.New(WATCH_DEBOUNCE_DURATION)
	requestRebuild := func() {
		select {
		case rebuildRequests <- struct{}{}:
		default:
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != absPath {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				debounced(requestRebuild)
			}
		case <-rebuildRequests:
			utils.PrintSeparator(errW, filepath.Base(opts.path))
			rebuild()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("watcher error")
		}
	}
}
