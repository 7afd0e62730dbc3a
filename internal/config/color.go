package config

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// ShouldColorize decides whether diagnostics are colorized from the FORCE_COLOR, NO_COLOR, COLORTERM
// and TERM variables, lookup is usually os.LookupEnv.
func ShouldColorize(lookup func(string) (string, bool)) bool {
	var forceColor, noColor, truecolorColorterm, term256ColorCapable bool

	if s, ok := lookup("FORCE_COLOR"); ok {
		forceColor = isTruthy(s)
	}

	if s, ok := lookup("NO_COLOR"); ok {
		noColor = isTruthy(s)
	}

	if s, ok := lookup("COLORTERM"); ok {
		truecolorColorterm = s == "truecolor"
	}

	if term, ok := lookup("TERM"); ok {
		term256ColorCapable = strings.Contains(term, "256color")
	}

	return !noColor && (forceColor || truecolorColorterm || term256ColorCapable)
}

// ShouldColorizeFile is ShouldColorize restricted to terminals, FORCE_COLOR lifts the restriction.
func ShouldColorizeFile(lookup func(string) (string, bool), f *os.File) bool {
	if !ShouldColorize(lookup) {
		return false
	}
	if s, ok := lookup("FORCE_COLOR"); ok && isTruthy(s) {
		return true
	}
	return term.IsTerminal(int(f.Fd()))
}
