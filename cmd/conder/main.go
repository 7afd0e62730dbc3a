package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"

	"github.com/posener/complete/v2/install"

	"github.com/mattpair/conder-sub001/internal/buildcache"
	"github.com/mattpair/conder-sub001/internal/config"
	"github.com/mattpair/conder-sub001/internal/utils"
)

const (
	ERROR_STATUS_CODE = 1

	COMMAND_NAME = "conder"
)

func main() {
	//handle completions
	completer.Complete(COMMAND_NAME)

	statusCode := _main(os.Args, os.Stdout, os.Stderr)
	if statusCode != 0 {
		os.Exit(statusCode)
	}
}

func _main(args []string, outW io.Writer, errW io.Writer) (statusCode int) {
	if len(args) == 1 { //no subcommand specified
		fmt.Fprint(errW, CONDER_CMD_HELP)
		return ERROR_STATUS_CODE
	}

	mainSubCommand := args[1]
	mainSubCommandArgs := slices.Clone(args[2:])

	//if the command has the shape help <subcommand> ... we modify the arguments to ask the subcommand to print its help message.
	if mainSubCommand == HELP_SUBCMD && len(mainSubCommandArgs) > 0 && slices.Contains(SUBCOMMANDS, mainSubCommandArgs[0]) {
		mainSubCommand = mainSubCommandArgs[0]
		mainSubCommandArgs = []string{"-h"}
	}

	if slices.Contains(HELP_SUBCMD_EQUIVALENTS, mainSubCommand) {
		mainSubCommand = HELP_SUBCMD
	}

	//unknown command
	if !slices.Contains(SUBCOMMANDS, mainSubCommand) {
		fmt.Fprintf(errW, "unknown command '%s'", mainSubCommand)

		closest, _, ok := utils.FindClosestString(context.Background(), SUBCOMMANDS, mainSubCommand, 2)
		if ok {
			fmt.Fprintf(errW, ", did you mean '%s' ?\n", closest)
		} else {
			fmt.Fprint(errW, "\n"+CONDER_CMD_HELP)
		}
		return ERROR_STATUS_CODE
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	switch mainSubCommand {
	case HELP_SUBCMD:
		fmt.Fprint(outW, CONDER_CMD_HELP)
		return 0
	case INSTALL_COMPLETIONS_SUBCMD:
		err := install.Install(COMMAND_NAME)
		if err != nil {
			fmt.Fprintln(errW, err)
			return ERROR_STATUS_CODE
		}
		fmt.Fprintln(outW, "installed")
		return 0
	case UNINSTALL_COMPLETIONS_SUBCMD:
		err := install.Uninstall(COMMAND_NAME)
		if err != nil {
			fmt.Fprintln(errW, err)
			return ERROR_STATUS_CODE
		}
		fmt.Fprintln(outW, "uninstalled")
		return 0
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(errW, err)
		return ERROR_STATUS_CODE
	}

	switch mainSubCommand {
	case COMPILE_SUBCMD:
		return CompileManifest(ctx, cfg, mainSubCommandArgs, outW, errW)
	case CHECK_SUBCMD:
		return CheckManifest(ctx, cfg, mainSubCommandArgs, outW, errW)
	case INSPECT_SUBCMD:
		return InspectManifest(ctx, cfg, mainSubCommandArgs, outW, errW)
	case WATCH_SUBCMD:
		return WatchManifest(ctx, cfg, mainSubCommandArgs, outW, errW)
	case CLEAR_CACHE_SUBCMD:
		return clearCache(cfg, outW, errW)
	default:
		panic(fmt.Errorf("subcommand %s is not handled", mainSubCommand))
	}
}

func clearCache(cfg config.Config, outW, errW io.Writer) int {
	cache, err := buildcache.Open(buildcache.Config{Dir: cfg.CacheDir})
	if err != nil {
		fmt.Fprintln(errW, err)
		return ERROR_STATUS_CODE
	}

	n, err := cache.Len()
	if err == nil {
		err = cache.Clear()
	}
	if err = utils.CombineErrorsWithPrefixMessage("failed to clear the build cache", err, cache.Close()); err != nil {
		fmt.Fprintln(errW, err)
		return ERROR_STATUS_CODE
	}

	fmt.Fprintf(outW, "%d program(s) removed from %s\n", n, cache.Path())
	return 0
}
