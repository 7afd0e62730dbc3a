package main

import (
	"flag"
	"fmt"
	"io"
	"slices"
	"strings"
)

const (
	COMPILE_SUBCMD               = "compile"
	CHECK_SUBCMD                 = "check"
	INSPECT_SUBCMD               = "inspect"
	WATCH_SUBCMD                 = "watch"
	CLEAR_CACHE_SUBCMD           = "clear-cache"
	INSTALL_COMPLETIONS_SUBCMD   = "install-completions"
	UNINSTALL_COMPLETIONS_SUBCMD = "uninstall-completions"
	HELP_SUBCMD                  = "help"
)

var (
	SUBCOMMANDS = []string{
		COMPILE_SUBCMD, CHECK_SUBCMD, INSPECT_SUBCMD, WATCH_SUBCMD, CLEAR_CACHE_SUBCMD,
		INSTALL_COMPLETIONS_SUBCMD, UNINSTALL_COMPLETIONS_SUBCMD, HELP_SUBCMD,
	}

	HELP_SUBCMD_EQUIVALENTS = []string{"--help", "-help", "-h"}

	SUBCOMMAND_DESCRIPTIONS = [][2]string{
		{COMPILE_SUBCMD, "compile a manifest to a bytecode program"},
		{CHECK_SUBCMD, "compile manifests (paths or ** patterns) and only report errors"},
		{INSPECT_SUBCMD, "show the procedures of a compiled manifest or query the program document"},
		{WATCH_SUBCMD, "recompile a manifest each time it changes"},
		{CLEAR_CACHE_SUBCMD, "remove all the programs stored in the build cache"},

		{INSTALL_COMPLETIONS_SUBCMD, "install CLI completions by addding the completion command to the detected rc file (supported shells are bash, zsh and fish)"},
		{UNINSTALL_COMPLETIONS_SUBCMD, "uninstall CLI completions by removing the completion command from the detected rc file"},
		{HELP_SUBCMD, "show the general help or command-specific help"},
	}

	SUBCOMMAND_DESCRIPTION_MAP = map[string]string{}

	CONDER_CMD_HELP = "commands:\n"
)

func init() {
	for _, entry := range SUBCOMMAND_DESCRIPTIONS {
		cmd, desc := entry[0], entry[1]
		SUBCOMMAND_DESCRIPTION_MAP[cmd] = desc
		CONDER_CMD_HELP += "\t" + cmd + " - " + desc + "\n"
	}
	CONDER_CMD_HELP += "\nType `conder help <command>` to get command-specific help.\n"
}

// moveFlagsStart moves the flags and their values before the positional arguments so that
// the flag package parses flags written after the manifest path.
func moveFlagsStart(flags *flag.FlagSet, args []string) []string {
	var options, positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			positional = append(positional, args[i:]...)
			break
		}
		if len(arg) < 2 || arg[0] != '-' {
			positional = append(positional, arg)
			continue
		}

		options = append(options, arg)

		name := strings.TrimLeft(arg, "-")
		if strings.Contains(name, "=") {
			continue
		}

		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if boolFlag, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && boolFlag.IsBoolFlag() {
			continue
		}
		if i+1 < len(args) {
			i++
			options = append(options, args[i])
		}
	}

	return append(options, positional...)
}

func showHelp(flags *flag.FlagSet, args []string, out io.Writer) bool {
	//only show help
	if slices.Contains(args, "-h") || slices.Contains(args, "--help") {

		cmd := flags.Name()
		if desc, ok := SUBCOMMAND_DESCRIPTION_MAP[cmd]; ok {
			fmt.Fprintln(out, desc)
		}

		flags.SetOutput(out)
		fmt.Fprint(out, "\noptions:\n")
		flags.PrintDefaults()

		return true
	}

	return false
}
