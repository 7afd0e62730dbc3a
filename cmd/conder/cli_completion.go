package main

import (
	"os"
	"strconv"

	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

var (
	predictManifestFiles = predict.Or(predict.Files("*.json"), predict.Files("*.yaml"), predict.Files("*.yml"))
	predictAnyFileAndDir = predict.Files("*")

	predictBuildFlags = func(c *Completer) map[string]complete.Predictor {
		return map[string]complete.Predictor{
			"workers":    predict.Set{"1", "2", "4", "8"},
			"no-cache":   complete.PredictFunc(c.predictFileAfterSwitch),
			"log-level":  predict.Set{"trace", "debug", "info", "warn", "error"},
			"log-format": predict.Set{"console", "json"},
		}
	}

	completer = CreateCompleter(func(c *Completer) *complete.Command {
		withFlags := func(extra map[string]complete.Predictor) map[string]complete.Predictor {
			flags := predictBuildFlags(c)
			for name, predictor := range extra {
				flags[name] = predictor
			}
			return flags
		}

		return &complete.Command{
			Sub: map[string]*complete.Command{
				COMPILE_SUBCMD: {
					Flags: withFlags(map[string]complete.Predictor{
						"o":      predictAnyFileAndDir,
						"indent": predict.Set{"0", "2", "4"},
						"trace":  complete.PredictFunc(c.predictFileAfterSwitch),
					}),
					Args: predictManifestFiles,
				},
				CHECK_SUBCMD: {
					Flags: withFlags(map[string]complete.Predictor{
						"json": complete.PredictFunc(c.predictFileAfterSwitch),
					}),
					Args: predictManifestFiles,
				},
				INSPECT_SUBCMD: {
					Flags: withFlags(map[string]complete.Predictor{
						"ops": complete.PredictFunc(c.predictFileAfterSwitch),
					}),
					Args: predictManifestFiles,
				},
				WATCH_SUBCMD: {
					Flags: withFlags(map[string]complete.Predictor{
						"o":      predictAnyFileAndDir,
						"indent": predict.Set{"0", "2", "4"},
					}),
					Args: predictManifestFiles,
				},
				CLEAR_CACHE_SUBCMD:           {},
				INSTALL_COMPLETIONS_SUBCMD:   {},
				UNINSTALL_COMPLETIONS_SUBCMD: {},
				HELP_SUBCMD:                  {},
			},
		}
	})
)

type Completer struct {
	*complete.Command
	currentCompLine  string
	currentCompPoint int //-1 if not retrieved
}

func CreateCompleter(create func(c *Completer) *complete.Command) *Completer {
	c := &Completer{}
	c.Command = create(c)
	return c
}

func (c *Completer) Complete(name string) {
	c.currentCompLine = os.Getenv("COMP_LINE")
	c.currentCompPoint, _ = strconv.Atoi(os.Getenv("COMP_POINT")) //ignore error because .Complete will also check the value

	if c.currentCompPoint > len(c.currentCompLine) {
		c.currentCompPoint = len(c.currentCompLine)
	}

	c.Command.Complete(name)
}

func (c *Completer) beforeCursorPoint() string {
	return c.currentCompLine[:c.currentCompPoint]
}

func (c *Completer) predictFileAfterSwitch(prefix string) (results []string) {
	s := c.beforeCursorPoint()
	if s == "" {
		return
	}

	switch s[len(s)-1] {
	case '=':
		//The flag is a switch, it does not accept any value.
		return
	default:
		return predictManifestFiles.Predict(prefix)
	}
}
