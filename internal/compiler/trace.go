package compiler

import (
	"fmt"
	"strings"

	"github.com/mattpair/conder-sub001/internal/bytecode"
)

// printTrace writes line to the trace, indented by one ". " per open block.
func (c *compiler) printTrace(line string) {
	fmt.Fprintf(c.trace, "%s%s\n", strings.Repeat(". ", c.indent), line)
}

func (c *compiler) printOp(address int, op bytecode.Instruction) {
	c.printTrace(fmt.Sprintf("%04d %s", address, op))
}

// printOps prints ops, firstAddress is the absolute address of ops[0].
func (c *compiler) printOps(firstAddress int, ops []bytecode.Instruction) {
	if c.trace == nil {
		return
	}
	for i, op := range ops {
		c.printOp(firstAddress+i, op)
	}
}

func (c *compiler) enterTracingBlock(label string) {
	c.printTrace(label + " {")
	c.indent++
}

func (c *compiler) leaveTracingBlock() {
	c.indent--
	c.printTrace("}")
}
