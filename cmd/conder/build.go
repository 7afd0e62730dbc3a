package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/mattpair/conder-sub001/internal/buildcache"
	"github.com/mattpair/conder-sub001/internal/compiler"
	"github.com/mattpair/conder-sub001/internal/config"
	"github.com/mattpair/conder-sub001/internal/manifest"
	"github.com/mattpair/conder-sub001/internal/slog"
)

const (
	LOG_SRC = "cli"

	HIGHLIGHT_FORMATTER = "terminal256"
	HIGHLIGHT_STYLE     = "monokai"
)

// buildFlags are the flags shared by the subcommands that compile a manifest,
// their default values come from the configuration.
type buildFlags struct {
	workers   int
	noCache   bool
	logLevel  string
	logFormat string
}

func addBuildFlags(flags *flag.FlagSet, cfg config.Config) *buildFlags {
	f := &buildFlags{}
	flags.IntVar(&f.workers, "workers", cfg.Workers, "maximum number of functions compiled in parallel (0: number of CPUs)")
	flags.BoolVar(&f.noCache, "no-cache", cfg.NoCache, "do not read or write the build cache")
	flags.StringVar(&f.logLevel, "log-level", cfg.LogLevel, "minimum level of the logs written to stderr")
	flags.StringVar(&f.logFormat, "log-format", cfg.LogFormat, "format of the logs: console or json")
	return f
}

// A builder compiles manifests, it is shared by the successive builds of a watch session.
type builder struct {
	flags  *buildFlags
	logger zerolog.Logger
	cache  *buildcache.Cache //nil if caching is disabled
	trace  io.Writer
}

func newBuilder(cfg config.Config, flags *buildFlags, errW io.Writer) (*builder, error) {
	level, err := slog.ParseLevel(flags.logLevel)
	if err != nil {
		return nil, err
	}

	logger, err := slog.New(errW, level, flags.logFormat)
	if err != nil {
		return nil, err
	}

	b := &builder{
		flags:  flags,
		logger: logger,
	}

	if !flags.noCache {
		cache, err := buildcache.Open(buildcache.Config{Dir: cfg.CacheDir, Logger: logger})
		if err != nil {
			//compilation works without the cache.
			logger.Warn().Err(err).Msg("build cache disabled")
		} else {
			b.cache = cache
		}
	}

	return b, nil
}

func (b *builder) Close() error {
	if b.cache != nil {
		return b.cache.Close()
	}
	return nil
}

// A buildResult is a successfully compiled manifest.
type buildResult struct {
	Manifest   *manifest.Manifest
	Document   []byte //compact
	FrameSizes map[string]int
	FromCache  bool
}

// build loads and compiles the manifest at path. Compilation errors are returned as a *compiler.BatchError,
// programs with errors are never cached.
func (b *builder) build(ctx context.Context, path string) (*buildResult, error) {
	logger := slog.ChildLoggerForSource(b.logger, LOG_SRC)

	m, err := manifest.Load(path)
	if err != nil {
		return nil, err
	}
	fingerprint := m.Fingerprint()

	//tracing requires an actual compilation
	useCache := b.cache != nil && b.trace == nil

	if useCache {
		entry, ok, err := b.cache.Get(fingerprint)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to read the build cache")
		} else if ok {
			return &buildResult{
				Manifest:   m,
				Document:   entry.Document,
				FrameSizes: entry.FrameSizes,
				FromCache:  true,
			}, nil
		}
	}

	program, err := compiler.CompileManifest(ctx, m, compiler.Options{
		Trace:   b.trace,
		Logger:  b.logger,
		Workers: b.flags.workers,
	})
	if err != nil {
		return nil, err
	}

	entry, err := buildcache.NewEntry(program)
	if err != nil {
		return nil, err
	}

	if useCache {
		if err := b.cache.Put(fingerprint, entry); err != nil {
			logger.Warn().Err(err).Msg("failed to write the build cache")
		}
	}

	return &buildResult{
		Manifest:   m,
		Document:   entry.Document,
		FrameSizes: entry.FrameSizes,
	}, nil
}

// indentDocument returns the document indented with the given number of spaces, 0 returns it unchanged.
func indentDocument(doc []byte, indent int) ([]byte, error) {
	if indent == 0 {
		return doc, nil
	}
	cfg := config.Config{Indent: indent}

	var buf bytes.Buffer
	if err := json.Indent(&buf, doc, "", cfg.IndentString()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeDocument writes the document to the file at path, or to w if path is empty.
// The document is syntax highlighted only if it is written to w.
func writeDocument(doc []byte, indent int, path string, w io.Writer, highlight bool) error {
	doc, err := indentDocument(doc, indent)
	if err != nil {
		return err
	}
	doc = append(doc, '\n')

	if path == "" {
		if highlight {
			return quick.Highlight(w, string(doc), "json", HIGHLIGHT_FORMATTER, HIGHLIGHT_STYLE)
		}
		_, err := w.Write(doc)
		return err
	}
	return os.WriteFile(path, doc, OUTPUT_FILE_PERM)
}

// printError prints err to errW, compilation errors are printed one function per line.
func printError(errW io.Writer, err error, colorize bool) {
	p := newDiagnosticPrinter(errW, colorize)

	var batchErr *compiler.BatchError
	if errors.As(err, &batchErr) {
		for _, fnErr := range batchErr.Errors {
			p.printFunctionError(fnErr)
		}
		p.printSummary(len(batchErr.Errors))
		return
	}
	p.printError(err)
}

func checkPathArg(flags *flag.FlagSet, errW io.Writer) (string, bool) {
	if flags.NArg() == 0 || flags.Arg(0) == "" {
		fmt.Fprintln(errW, "missing manifest path")
		return "", false
	}
	return flags.Arg(0), true
}
