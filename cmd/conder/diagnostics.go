package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/muesli/termenv"

	"github.com/mattpair/conder-sub001/internal/compiler"
)

// errorKindNames are the names of the error kinds in diagnostics and in the JSON output of check.
var errorKindNames = []struct {
	kind error
	name string
}{
	{compiler.ErrUnresolvedSymbol, "unresolved-symbol"},
	{compiler.ErrDuplicateSymbol, "duplicate-symbol"},
	{compiler.ErrTypeMismatch, "type-mismatch"},
	{compiler.ErrUnsupportedConstruct, "unsupported-construct"},
	{compiler.ErrControlFlow, "control-flow"},
	{compiler.ErrSchemaCollision, "schema-collision"},
}

func errorKindName(err error) string {
	for _, entry := range errorKindNames {
		if errors.Is(err, entry.kind) {
			return entry.name
		}
	}
	return "error"
}

type diagnosticPrinter struct {
	out *termenv.Output
}

func newDiagnosticPrinter(w io.Writer, colorize bool) *diagnosticPrinter {
	profile := termenv.Ascii
	if colorize {
		profile = termenv.ANSI256
	}
	return &diagnosticPrinter{out: termenv.NewOutput(w, termenv.WithProfile(profile))}
}

func (p *diagnosticPrinter) label(kind string) string {
	return p.out.String(kind + ":").Foreground(termenv.ANSIRed).Bold().String()
}

func (p *diagnosticPrinter) printFunctionError(err *compiler.FunctionError) {
	location := ""
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		if compileErr.Location.IsKnown() {
			location = p.out.String(compileErr.Location.String() + ": ").Faint().String()
		}
		fmt.Fprintf(p.out, "%s %s%s %s\n",
			p.label(errorKindName(err)),
			location,
			p.out.String(err.Function).Bold(),
			compileErr.Message,
		)
		return
	}
	fmt.Fprintf(p.out, "%s %s %s\n", p.label("error"), p.out.String(err.Function).Bold(), err.Err)
}

func (p *diagnosticPrinter) printSummary(failures int) {
	fmt.Fprintf(p.out, "%s\n", p.out.String(fmt.Sprintf("%d function(s) failed to compile", failures)).Foreground(termenv.ANSIYellow))
}

func (p *diagnosticPrinter) printError(err error) {
	fmt.Fprintf(p.out, "%s %s\n", p.label(errorKindName(err)), err)
}

func (p *diagnosticPrinter) printSuccess(msg string) {
	fmt.Fprintln(p.out, p.out.String(msg).Foreground(termenv.ANSIGreen))
}
