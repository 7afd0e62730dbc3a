package bytecode

import (
	"fmt"
	"io"
	"strings"
)

// Format returns a listing of ops, one instruction per line:
//
//	0000 enforceSchemaOnHeap {"heap_pos":0,"schema":0}
//	0001 copyFromHeap 0
//	0002 returnStackTop
func Format(ops []Instruction) string {
	var sb strings.Builder
	for index, op := range ops {
		fmt.Fprintf(&sb, "%04d %s\n", index, op)
	}
	return sb.String()
}

// FprintProgram writes the listing of every procedure of p, procedures are sorted by name.
func FprintProgram(w io.Writer, p *Program) error {
	for i, name := range p.ProcedureNames() {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}

		header := name
		if size, ok := p.FrameSizes[name]; ok {
			header = fmt.Sprintf("%s (frame: %d)", name, size)
		}
		if _, err := fmt.Fprintf(w, "; %s\n%s", header, Format(p.Procedures[name])); err != nil {
			return err
		}
	}
	return nil
}
