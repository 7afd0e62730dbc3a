package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/mattpair/conder-sub001/internal/config"
)

const OUTPUT_FILE_PERM = 0o644

func CompileManifest(ctx context.Context, cfg config.Config, args []string, outW, errW io.Writer) (exitCode int) {
	flags := flag.NewFlagSet(COMPILE_SUBCMD, flag.ContinueOnError)
	flags.SetOutput(errW)

	var (
		outputPath string
		indent     int
		trace      bool
	)
	flags.StringVar(&outputPath, "o", "", "write the program to a file instead of stdout")
	flags.IntVar(&indent, "indent", cfg.Indent, "number of spaces used to indent the program (0: compact)")
	flags.BoolVar(&trace, "trace", false, "print the emitted instructions to stderr, disables the build cache")
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

	b, err := newBuilder(cfg, bf, errW)
	if err != nil {
		fmt.Fprintln(errW, err)
		return ERROR_STATUS_CODE
	}
	defer b.Close()

	if trace {
		b.trace = errW
	}

	result, err := b.build(ctx, path)
	if err != nil {
		printError(errW, err, cfg.Colorize)
		return ERROR_STATUS_CODE
	}

	if err := writeDocument(result.Document, indent, outputPath, outW, cfg.HighlightOutput); err != nil {
		printError(errW, err, cfg.Colorize)
		return ERROR_STATUS_CODE
	}
	return 0
}
