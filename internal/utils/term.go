package utils

import (
	"fmt"
	"io"
	"strings"
)

const SEPARATOR_WIDTH = 40

// PrintSeparator prints a line of dashes of SEPARATOR_WIDTH runes with label near its start,
// labels too long to fit are printed whole.
func PrintSeparator(w io.Writer, label string) {
	if label == "" {
		fmt.Fprintln(w, strings.Repeat("-", SEPARATOR_WIDTH))
		return
	}
	head := "--- " + label + " "
	fmt.Fprintln(w, head+strings.Repeat("-", max(SEPARATOR_WIDTH-len([]rune(head)), 3)))
}
