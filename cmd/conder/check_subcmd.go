package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/goccy/go-json"

	"github.com/mattpair/conder-sub001/internal/ast"
	"github.com/mattpair/conder-sub001/internal/compiler"
	"github.com/mattpair/conder-sub001/internal/config"
)

const GLOB_METACHARACTERS = "*?[{"

type checkDiagnostic struct {
	Manifest string        `json:"manifest"`
	Function string        `json:"function,omitempty"`
	Kind     string        `json:"kind"`
	Message  string        `json:"message"`
	Location *ast.Location `json:"location,omitempty"`
}

type checkData struct {
	Ok          bool              `json:"ok"`
	Diagnostics []checkDiagnostic `json:"diagnostics"`
}

// CheckManifest compiles one or more manifests and reports the errors, the arguments are paths or
// doublestar patterns such as manifests/**/*.yaml.
func CheckManifest(ctx context.Context, cfg config.Config, args []string, outW, errW io.Writer) (exitCode int) {
	flags := flag.NewFlagSet(CHECK_SUBCMD, flag.ContinueOnError)
	flags.SetOutput(errW)

	var printJSON bool
	flags.BoolVar(&printJSON, "json", false, "print the diagnostics as a JSON document on stdout")
	bf := addBuildFlags(flags, cfg)

	if showHelp(flags, args, outW) {
		return 0
	}

	if err := flags.Parse(moveFlagsStart(flags, args)); err != nil {
		return ERROR_STATUS_CODE
	}

	if _, ok := checkPathArg(flags, errW); !ok {
		return ERROR_STATUS_CODE
	}

	paths, err := expandManifestPatterns(flags.Args())
	if err != nil {
		fmt.Fprintln(errW, err)
		return ERROR_STATUS_CODE
	}

	b, err := newBuilder(cfg, bf, errW)
	if err != nil {
		fmt.Fprintln(errW, err)
		return ERROR_STATUS_CODE
	}
	defer b.Close()

	data := checkData{Ok: true, Diagnostics: []checkDiagnostic{}}
	p := newDiagnosticPrinter(outW, cfg.Colorize)

	for _, path := range paths {
		if ctx.Err() != nil {
			fmt.Fprintln(errW, ctx.Err())
			return ERROR_STATUS_CODE
		}

		result, err := b.build(ctx, path)

		if printJSON {
			diagnostics := getCheckDiagnostics(path, err)
			data.Ok = data.Ok && err == nil
			data.Diagnostics = append(data.Diagnostics, diagnostics...)
			continue
		}

		prefix := ""
		if len(paths) > 1 {
			prefix = path + ": "
		}

		if err != nil {
			data.Ok = false
			if prefix != "" {
				fmt.Fprintln(errW, path)
			}
			printError(errW, err, cfg.Colorize)
			continue
		}
		p.printSuccess(fmt.Sprintf("%sok: %d function(s) compiled", prefix, len(result.Manifest.Functions())))
	}

	if printJSON {
		report, err := json.Marshal(data)
		if err != nil {
			fmt.Fprintln(errW, err)
			return ERROR_STATUS_CODE
		}
		fmt.Fprintf(outW, "%s\n", report)
	}

	if !data.Ok {
		return ERROR_STATUS_CODE
	}
	return 0
}

// expandManifestPatterns replaces the patterns in args by the files they match, sorted and
// without duplicates. Other arguments are kept as is.
func expandManifestPatterns(args []string) ([]string, error) {
	var paths []string

	for _, arg := range args {
		if !strings.ContainsAny(arg, GLOB_METACHARACTERS) {
			if !slices.Contains(paths, arg) {
				paths = append(paths, arg)
			}
			continue
		}

		matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", arg, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no manifest matches %s", arg)
		}

		slices.Sort(matches)
		for _, match := range matches {
			if !slices.Contains(paths, match) {
				paths = append(paths, match)
			}
		}
	}
	return paths, nil
}

func getCheckDiagnostics(path string, err error) []checkDiagnostic {
	if err == nil {
		return nil
	}

	var batchErr *compiler.BatchError
	if !errors.As(err, &batchErr) {
		return []checkDiagnostic{{
			Manifest: path,
			Kind:     errorKindName(err),
			Message:  err.Error(),
		}}
	}

	var diagnostics []checkDiagnostic

	for _, fnErr := range batchErr.Errors {
		diagnostic := checkDiagnostic{
			Manifest: path,
			Function: fnErr.Function,
			Kind:     errorKindName(fnErr),
			Message:  fnErr.Err.Error(),
		}

		var compileErr *compiler.CompileError
		if errors.As(fnErr, &compileErr) {
			diagnostic.Message = compileErr.Message
			if compileErr.Location.IsKnown() {
				loc := compileErr.Location
				diagnostic.Location = &loc
			}
		}
		diagnostics = append(diagnostics, diagnostic)
	}
	return diagnostics
}
