package interp

/*
 * zkriscv - Interpreter fallback tests.
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

import (
	"errors"
	"testing"

	"github.com/rvzk/zkriscv/internal/core"
	"github.com/rvzk/zkriscv/internal/program"
	"github.com/rvzk/zkriscv/internal/state"
	"github.com/rvzk/zkriscv/internal/vmerr"
)

func testCore(insts []program.Instruction) *core.Core {
	return core.New(program.New(insts, 0x1000, 0x1000, nil), nil, 0)
}

func TestStepAdvances(t *testing.T) {
	c := testCore([]program.Instruction{
		{Opcode: program.ADD, Rd: 5, Rs1: 0, Rs2OrImm: 9, ImmCFlag: true},
	})
	halted, err := Step(c, nil)
	if halted || err != nil {
		t.Fatalf("step not correct got: (%v,%v)", halted, err)
	}
	if c.PC != 0x1004 || c.InsnCount != 1 || c.Split.Clk != 4 {
		t.Errorf("retirement not correct got: pc=%#x insns=%d clk=%d", c.PC, c.InsnCount, c.Split.Clk)
	}
	if c.Regs.ReadUnsafe(5) != 9 {
		t.Errorf("x5 not correct got: %d expected: 9", c.Regs.ReadUnsafe(5))
	}
}

func TestStepMisalignedPC(t *testing.T) {
	c := testCore(nil)
	c.PC = 0x1001
	_, err := Step(c, nil)
	if !errors.Is(err, vmerr.ErrMisalignedPC) {
		t.Errorf("misaligned pc error not correct got: %v expected: %v", err, vmerr.ErrMisalignedPC)
	}
}

// Running off the end of the decoded program halts cleanly.
func TestStepPastEnd(t *testing.T) {
	c := testCore(nil)
	halted, err := Step(c, nil)
	if !halted || err != nil {
		t.Errorf("past-end step not correct got: (%v,%v) expected: (true,nil)", halted, err)
	}
}

// An unknown syscall id halts rather than hanging.
func TestStepUnknownSyscall(t *testing.T) {
	c := testCore([]program.Instruction{{Opcode: program.ECALL}})
	c.WriteReg(17, 0xdead, state.WriteTracked)
	halted, err := Step(c, Table{})
	if !halted || err != nil {
		t.Errorf("unknown syscall not correct got: (%v,%v) expected: (true,nil)", halted, err)
	}
}

// A syscall handler runs inside the enter/exit guard.
func TestStepSyscallGuard(t *testing.T) {
	c := testCore([]program.Instruction{{Opcode: program.ECALL}})
	sawGuard := false
	table := Table{
		0: func(c *core.Core) (bool, error) {
			sawGuard = c.Split.InSyscall()
			return false, nil
		},
	}
	halted, err := Step(c, table)
	if halted || err != nil {
		t.Fatalf("syscall step failed: (%v,%v)", halted, err)
	}
	if !sawGuard {
		t.Errorf("handler did not run under the syscall guard")
	}
	if c.Split.InSyscall() {
		t.Errorf("guard not released after the handler")
	}
	if c.PC != 0x1004 {
		t.Errorf("pc after syscall not correct got: %#x expected: 0x1004", c.PC)
	}
}
