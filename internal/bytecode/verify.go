package bytecode

import (
	"errors"
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

var (
	ErrInvalidJumpAddress = errors.New("invalid jump address")
	ErrInvalidOperand     = errors.New("invalid operand")
)

// Verify checks that every jump of ops addresses an existing instruction and that
// heap operands are not negative.
func Verify(ops []Instruction) error {
	var targets bitset.BitSet

	for index, op := range ops {
		switch op.Kind {
		case ConditionalGoto, Goto:
			address, ok := op.JumpAddress()
			if !ok {
				return fmt.Errorf("%w: %s at %04d has a non integer address", ErrInvalidJumpAddress, op.Kind, index)
			}
			if address < 0 {
				return fmt.Errorf("%w: %s at %04d jumps to %d", ErrInvalidJumpAddress, op.Kind, index, address)
			}
			targets.Set(uint(address))
		case CopyFromHeap, OverwriteHeap, TruncateHeap, SetField, GetField:
			n, ok := op.Data.(int)
			if !ok || n < 0 {
				return fmt.Errorf("%w: %s at %04d has operand %v", ErrInvalidOperand, op.Kind, index, op.Data)
			}
		}
	}

	if target, ok := targets.NextSet(uint(len(ops))); ok {
		return fmt.Errorf("%w: %d is outside of the %d instructions", ErrInvalidJumpAddress, target, len(ops))
	}
	return nil
}

// VerifyProgram verifies all procedures of p in name order.
func VerifyProgram(p *Program) error {
	for _, name := range p.ProcedureNames() {
		if err := Verify(p.Procedures[name]); err != nil {
			return fmt.Errorf("procedure %s: %w", name, err)
		}
	}
	return nil
}
