/*
 * zkriscv - Canonical single-step interpreter: the fallback dispatch
 * path for dynamic targets, syscalls, unrecognized opcodes, and program
 * end.
 *
 * Copyright 2026, zkriscv contributors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package interp provides the canonical single-instruction dispatch used
// whenever the AOT block table has no entry for the current PC: dynamic
// jump targets (JALR), syscalls, unrecognized opcodes, and the
// instruction immediately following the end of the decoded program.
package interp

import (
	"github.com/rvzk/zkriscv/internal/core"
	"github.com/rvzk/zkriscv/internal/exec"
	"github.com/rvzk/zkriscv/internal/state"
	"github.com/rvzk/zkriscv/internal/vmerr"
)

// Handler is a syscall implementation: given the core, it performs the
// syscall's effects and reports whether the program should halt.
type Handler func(c *core.Core) (halt bool, err error)

// Table maps a syscall id (read from a7/x17) to its handler.
type Table map[uint32]Handler

// Step executes exactly one instruction at c.PC, handling syscalls via
// table and updating insn_count/clk by the retirement quantum. It
// reports whether the program halted this step.
func Step(c *core.Core, table Table) (halted bool, err error) {
	if c.PC%4 != 0 {
		return false, vmerr.ErrMisalignedPC
	}
	inst, ok := c.Program.At(c.PC)
	if !ok {
		return true, nil // ran off the end of the program: treat as halt
	}

	res, err := exec.One(c, inst, c.PC, state.WriteTracked)
	if err != nil {
		return false, err
	}

	switch res.Outcome {
	case exec.Halt:
		c.Retire(1)
		return true, nil

	case exec.Syscall:
		id := c.Regs.ReadUnsafe(17) // a7: dispatch read, not a tracked operand access
		handler, ok := table[id]
		if !ok {
			c.Retire(1)
			return true, nil // unrecognized syscall: halt rather than hang
		}
		c.EnterSyscall()
		halt, herr := handler(c)
		c.ExitSyscall()
		c.Retire(1)
		c.PC += 4
		if herr != nil {
			return false, herr
		}
		return halt, nil

	default:
		c.Retire(1)
		c.PC = res.NextPC
		return false, nil
	}
}
