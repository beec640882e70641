package exec

/*
 * zkriscv - Instruction execution semantics tests.
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

func newCore() *core.Core {
	p := program.New(nil, 0x1000, 0x1000, nil)
	return core.New(p, nil, 0)
}

func setReg(c *core.Core, reg, value uint32) {
	c.WriteReg(reg, value, state.WriteTracked)
}

func runOne(t *testing.T, c *core.Core, inst program.Instruction) Result {
	t.Helper()
	res, err := One(c, inst, 0x1000, state.WriteTracked)
	if err != nil {
		t.Fatalf("One failed: %v", err)
	}
	return res
}

// Check every RV32IM ALU operation including the division edge cases.
func TestAluOps(t *testing.T) {
	tests := []struct {
		name string
		op   program.Opcode
		a, b uint32
		want uint32
	}{
		{"add", program.ADD, 3, 4, 7},
		{"sub", program.SUB, 3, 4, 0xffffffff},
		{"and", program.AND, 0xf0f0, 0xff00, 0xf000},
		{"or", program.OR, 0xf0f0, 0x0f00, 0xfff0},
		{"xor", program.XOR, 0xff00, 0x0ff0, 0xf0f0},
		{"sll", program.SLL, 1, 4, 16},
		{"sll-mask", program.SLL, 1, 33, 2},
		{"srl", program.SRL, 0x80000000, 4, 0x08000000},
		{"sra", program.SRA, 0x80000000, 4, 0xf8000000},
		{"slt-true", program.SLT, 0xffffffff, 0, 1},
		{"slt-false", program.SLT, 0, 0xffffffff, 0},
		{"sltu-true", program.SLTU, 0, 0xffffffff, 1},
		{"sltu-false", program.SLTU, 0xffffffff, 0, 0},
		{"mul", program.MUL, 7, 6, 42},
		{"mulh", program.MULH, 0x80000000, 0x80000000, 0x40000000},
		{"mulhu", program.MULHU, 0xffffffff, 0xffffffff, 0xfffffffe},
		{"mulhsu", program.MULHSU, 0xffffffff, 0xffffffff, 0xffffffff},
		{"div", program.DIV, 0xfffffff8, 2, 0xfffffffc},
		{"div-by-zero", program.DIV, 5, 0, 0xffffffff},
		{"div-overflow", program.DIV, 0x80000000, 0xffffffff, 0x80000000},
		{"divu", program.DIVU, 8, 2, 4},
		{"divu-by-zero", program.DIVU, 5, 0, 0xffffffff},
		{"rem", program.REM, 0xfffffff9, 2, 0xffffffff},
		{"rem-by-zero", program.REM, 5, 0, 5},
		{"rem-overflow", program.REM, 0x80000000, 0xffffffff, 0},
		{"remu", program.REMU, 9, 2, 1},
		{"remu-by-zero", program.REMU, 9, 0, 9},
	}

	for _, test := range tests {
		c := newCore()
		setReg(c, 1, test.a)
		setReg(c, 2, test.b)
		res := runOne(t, c, program.Instruction{Opcode: test.op, Rd: 3, Rs1: 1, Rs2OrImm: 2})
		if got := c.Regs.ReadUnsafe(3); got != test.want {
			t.Errorf("%s not correct got: %#x expected: %#x", test.name, got, test.want)
		}
		if res.NextPC != 0x1004 || res.Outcome != Continue {
			t.Errorf("%s result not correct got: %+v", test.name, res)
		}
	}
}

// The synthesized LUI form (both immediate flags set) treats both
// operands as literals and performs no register read.
func TestSynthesizedLui(t *testing.T) {
	c := newCore()
	inst := program.Instruction{Opcode: program.ADD, Rd: 5, Rs1: 0, Rs2OrImm: 0x12345000, ImmBFlag: true, ImmCFlag: true}
	runOne(t, c, inst)
	if got := c.Regs.ReadUnsafe(5); got != 0x12345000 {
		t.Errorf("lui not correct got: %#x expected: %#x", got, 0x12345000)
	}
}

func TestBranches(t *testing.T) {
	tests := []struct {
		name  string
		op    program.Opcode
		a, b  uint32
		taken bool
	}{
		{"beq-taken", program.BEQ, 5, 5, true},
		{"beq-not", program.BEQ, 5, 6, false},
		{"bne-taken", program.BNE, 5, 6, true},
		{"blt-signed", program.BLT, 0xffffffff, 0, true},
		{"bge-equal", program.BGE, 7, 7, true},
		{"bltu-unsigned", program.BLTU, 0, 0xffffffff, true},
		{"bgeu-not", program.BGEU, 0, 0xffffffff, false},
	}
	for _, test := range tests {
		c := newCore()
		setReg(c, 1, test.a)
		setReg(c, 2, test.b)
		// branches carry rs1 in Rd and rs2 in Rs1
		res := runOne(t, c, program.Instruction{Opcode: test.op, Rd: 1, Rs1: 2, Rs2OrImm: 0x40, ImmCFlag: true})
		wantPC := uint32(0x1004)
		if test.taken {
			wantPC = 0x1040
		}
		if res.NextPC != wantPC {
			t.Errorf("%s next pc not correct got: %#x expected: %#x", test.name, res.NextPC, wantPC)
		}
	}
}

func TestJumps(t *testing.T) {
	c := newCore()
	res := runOne(t, c, program.Instruction{Opcode: program.JAL, Rd: 1, Rs1: 0x100, ImmBFlag: true})
	if res.NextPC != 0x1100 {
		t.Errorf("jal target not correct got: %#x expected: %#x", res.NextPC, 0x1100)
	}
	if got := c.Regs.ReadUnsafe(1); got != 0x1004 {
		t.Errorf("jal link not correct got: %#x expected: %#x", got, 0x1004)
	}

	c = newCore()
	setReg(c, 2, 0x2001) // low bit must be cleared by jalr
	res = runOne(t, c, program.Instruction{Opcode: program.JALR, Rd: 1, Rs1: 2, Rs2OrImm: 4, ImmCFlag: true})
	if res.NextPC != 0x2004 {
		t.Errorf("jalr target not correct got: %#x expected: %#x", res.NextPC, 0x2004)
	}

	c = newCore()
	runOne(t, c, program.Instruction{Opcode: program.AUIPC, Rd: 3, Rs1: 0x2000, ImmBFlag: true})
	if got := c.Regs.ReadUnsafe(3); got != 0x3000 {
		t.Errorf("auipc not correct got: %#x expected: %#x", got, 0x3000)
	}
}

// Sub-word loads and stores are synthesized from word accesses with
// extraction and insertion.
func TestLoadsStores(t *testing.T) {
	c := newCore()
	setReg(c, 2, 0x4000)

	// sw x1, 0(x2)
	setReg(c, 1, 0x8899aabb)
	runOne(t, c, program.Instruction{Opcode: program.SW, Rd: 1, Rs1: 2, Rs2OrImm: 0, ImmCFlag: true})

	// lw
	runOne(t, c, program.Instruction{Opcode: program.LW, Rd: 3, Rs1: 2, Rs2OrImm: 0, ImmCFlag: true})
	if got := c.Regs.ReadUnsafe(3); got != 0x8899aabb {
		t.Errorf("lw not correct got: %#x expected: %#x", got, 0x8899aabb)
	}

	// lb of byte 3 sign-extends 0x88
	runOne(t, c, program.Instruction{Opcode: program.LB, Rd: 3, Rs1: 2, Rs2OrImm: 3, ImmCFlag: true})
	if got := c.Regs.ReadUnsafe(3); got != 0xffffff88 {
		t.Errorf("lb not correct got: %#x expected: %#x", got, 0xffffff88)
	}

	// lbu of byte 3 zero-extends
	runOne(t, c, program.Instruction{Opcode: program.LBU, Rd: 3, Rs1: 2, Rs2OrImm: 3, ImmCFlag: true})
	if got := c.Regs.ReadUnsafe(3); got != 0x88 {
		t.Errorf("lbu not correct got: %#x expected: %#x", got, 0x88)
	}

	// lh of the high half sign-extends 0x8899
	runOne(t, c, program.Instruction{Opcode: program.LH, Rd: 3, Rs1: 2, Rs2OrImm: 2, ImmCFlag: true})
	if got := c.Regs.ReadUnsafe(3); got != 0xffff8899 {
		t.Errorf("lh not correct got: %#x expected: %#x", got, 0xffff8899)
	}

	// lhu zero-extends
	runOne(t, c, program.Instruction{Opcode: program.LHU, Rd: 3, Rs1: 2, Rs2OrImm: 2, ImmCFlag: true})
	if got := c.Regs.ReadUnsafe(3); got != 0x8899 {
		t.Errorf("lhu not correct got: %#x expected: %#x", got, 0x8899)
	}

	// sb replaces one byte
	setReg(c, 1, 0x11)
	runOne(t, c, program.Instruction{Opcode: program.SB, Rd: 1, Rs1: 2, Rs2OrImm: 1, ImmCFlag: true})
	runOne(t, c, program.Instruction{Opcode: program.LW, Rd: 3, Rs1: 2, Rs2OrImm: 0, ImmCFlag: true})
	if got := c.Regs.ReadUnsafe(3); got != 0x889911bb {
		t.Errorf("sb merge not correct got: %#x expected: %#x", got, 0x889911bb)
	}

	// sh replaces the high half
	setReg(c, 1, 0x2233)
	runOne(t, c, program.Instruction{Opcode: program.SH, Rd: 1, Rs1: 2, Rs2OrImm: 2, ImmCFlag: true})
	runOne(t, c, program.Instruction{Opcode: program.LW, Rd: 3, Rs1: 2, Rs2OrImm: 0, ImmCFlag: true})
	if got := c.Regs.ReadUnsafe(3); got != 0x223311bb {
		t.Errorf("sh merge not correct got: %#x expected: %#x", got, 0x223311bb)
	}
}

func TestMisalignedAccess(t *testing.T) {
	tests := []struct {
		op   program.Opcode
		addr uint32
	}{
		{program.LW, 0x4001},
		{program.LW, 0x4002},
		{program.LH, 0x4001},
		{program.SW, 0x4003},
		{program.SH, 0x4001},
	}
	for _, test := range tests {
		c := newCore()
		setReg(c, 2, test.addr)
		inst := program.Instruction{Opcode: test.op, Rd: 1, Rs1: 2, Rs2OrImm: 0, ImmCFlag: true}
		_, err := One(c, inst, 0x1000, state.WriteTracked)
		if !errors.Is(err, vmerr.ErrMisalignedMemory) {
			t.Errorf("op %d at %#x should trap got: %v", test.op, test.addr, err)
		}
	}

	// byte accesses are never misaligned
	c := newCore()
	setReg(c, 2, 0x4003)
	if _, err := One(c, program.Instruction{Opcode: program.LB, Rd: 1, Rs1: 2, Rs2OrImm: 0, ImmCFlag: true}, 0x1000, state.WriteTracked); err != nil {
		t.Errorf("lb at odd address should not trap got: %v", err)
	}
}

func TestTrapOutcomes(t *testing.T) {
	c := newCore()
	res := runOne(t, c, program.Instruction{Opcode: program.UNIMP})
	if res.Outcome != Halt {
		t.Errorf("unimp outcome not correct got: %v expected: Halt", res.Outcome)
	}
	res = runOne(t, c, program.Instruction{Opcode: program.EBREAK})
	if res.Outcome != Halt {
		t.Errorf("ebreak outcome not correct got: %v expected: Halt", res.Outcome)
	}
	res = runOne(t, c, program.Instruction{Opcode: program.ECALL})
	if res.Outcome != Syscall {
		t.Errorf("ecall outcome not correct got: %v expected: Syscall", res.Outcome)
	}
}
