package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"

	"github.com/mattpair/conder-sub001/internal/bytecode"
	"github.com/mattpair/conder-sub001/internal/config"
)

func InspectManifest(ctx context.Context, cfg config.Config, args []string, outW, errW io.Writer) (exitCode int) {
	flags := flag.NewFlagSet(INSPECT_SUBCMD, flag.ContinueOnError)
	flags.SetOutput(errW)

	var showOps bool
	flags.BoolVar(&showOps, "ops", false, "print the instructions of every procedure")
	bf := addBuildFlags(flags, cfg)

	if showHelp(flags, args, outW) {
		fmt.Fprint(outW, "\nAn optional second argument is a path (gjson syntax) to query in the program, e.g. PROCEDURES.count.#\n")
		return 0
	}

	if err := flags.Parse(moveFlagsStart(flags, args)); err != nil {
		return ERROR_STATUS_CODE
	}

	path, ok := checkPathArg(flags, errW)
	if !ok {
		return ERROR_STATUS_CODE
	}
	query := flags.Arg(1)

	b, err := newBuilder(cfg, bf, errW)
	if err != nil {
		fmt.Fprintln(errW, err)
		return ERROR_STATUS_CODE
	}
	defer b.Close()

	result, err := b.build(ctx, path)
	if err != nil {
		printError(errW, err, cfg.Colorize)
		return ERROR_STATUS_CODE
	}

	switch {
	case query != "":
		value := gjson.GetBytes(result.Document, query)
		if !value.Exists() {
			fmt.Fprintf(errW, "nothing at path %s\n", query)
			return ERROR_STATUS_CODE
		}
		fmt.Fprintln(outW, value.Raw)
	case showOps:
		program := programFromDocument(result.Document, result.FrameSizes)
		if err := bytecode.FprintProgram(outW, program); err != nil {
			fmt.Fprintln(errW, err)
			return ERROR_STATUS_CODE
		}
	default:
		printSummary(outW, result)
	}
	return 0
}

// programFromDocument rebuilds the procedures of a serialized program for disassembly,
// the data of the instructions is kept in its raw JSON form so that doubles keep their fraction.
func programFromDocument(doc []byte, frameSizes map[string]int) *bytecode.Program {
	program := bytecode.NewProgram()

	gjson.GetBytes(doc, "PROCEDURES").ForEach(func(name, ops gjson.Result) bool {
		instructions := []bytecode.Instruction{}
		ops.ForEach(func(_, op gjson.Result) bool {
			instruction := bytecode.Instruction{Kind: bytecode.OpKind(op.Get("kind").String())}
			if data := op.Get("data"); data.Exists() && data.Type != gjson.Null {
				instruction.Data = json.RawMessage(data.Raw)
			}
			instructions = append(instructions, instruction)
			return true
		})
		program.Procedures[name.String()] = instructions
		return true
	})

	for name, size := range frameSizes {
		program.FrameSizes[name] = size
	}
	return program
}

func printSummary(w io.Writer, result *buildResult) {
	doc := gjson.ParseBytes(result.Document)
	program := programFromDocument(result.Document, result.FrameSizes)
	names := program.ProcedureNames()

	fmt.Fprintf(w, "procedures (%d):\n", len(names))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, name := range names {
		fmt.Fprintf(tw, "  %s\t%d instruction(s)\tframe: %d\n", name, len(program.Procedures[name]), program.FrameSizes[name])
	}
	tw.Flush()

	fmt.Fprintf(w, "schemas: %d\n", doc.Get("SCHEMAS.#").Int())

	stores := []string{}
	doc.Get("STORES").ForEach(func(name, _ gjson.Result) bool {
		stores = append(stores, name.String())
		return true
	})
	fmt.Fprintf(w, "stores (%d): %v\n", len(stores), stores)

	if result.FromCache {
		fmt.Fprintln(w, "(from build cache)")
	}
}
