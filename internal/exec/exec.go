/*
 * zkriscv - Single-instruction execution semantics shared by the
 * interpreter fallback and AOT-compiled block functions.
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

// Package exec executes one decoded instruction against a core.Core. Both
// the interpreter fallback and the AOT block functions call One so that
// arithmetic, memory, and control-flow semantics are defined exactly
// once: the two dispatch paths must produce byte-identical record
// streams, and that is only guaranteed if they share one implementation.
package exec

import (
	"github.com/rvzk/zkriscv/internal/core"
	"github.com/rvzk/zkriscv/internal/program"
	"github.com/rvzk/zkriscv/internal/state"
	"github.com/rvzk/zkriscv/internal/vmerr"
)

// Outcome communicates what the driver must do after One returns.
type Outcome int

const (
	// Continue means NextPC is valid and retirement proceeds normally.
	Continue Outcome = iota
	// Syscall means control must yield to the syscall dispatch table;
	// the instruction's own PC advance has not happened yet.
	Syscall
	// Halt means the program has reached EBREAK or executed UNIMP: an
	// ordinary, reproducible trap to program termination.
	Halt
)

// Result is what executing one instruction yields.
type Result struct {
	NextPC  uint32
	Outcome Outcome
}

// One executes a single decoded instruction at pc under the given
// register-write mode, returning the PC of the next instruction to
// retire (valid only when Outcome == Continue).
func One(c *core.Core, inst program.Instruction, pc uint32, mode state.WriteMode) (Result, error) {
	switch inst.Opcode {
	case program.UNIMP:
		return Result{Outcome: Halt}, nil
	case program.EBREAK:
		return Result{Outcome: Halt}, nil
	case program.ECALL:
		return Result{Outcome: Syscall}, nil

	case program.ADD, program.SUB, program.AND, program.OR, program.XOR,
		program.SLL, program.SRL, program.SRA, program.SLT, program.SLTU,
		program.MUL, program.MULH, program.MULHSU, program.MULHU,
		program.DIV, program.DIVU, program.REM, program.REMU:
		var b uint32
		if inst.ImmBFlag {
			b = inst.Rs1 // synthesized LUI carries operand b as an immediate
		} else {
			b = c.ReadReg(inst.Rs1, state.PosB)
		}
		var op2 uint32
		if inst.ImmCFlag {
			op2 = inst.Rs2OrImm
		} else {
			op2 = c.ReadReg(inst.Rs2OrImm, state.PosC)
		}
		result := alu(inst.Opcode, b, op2)
		c.WriteReg(inst.Rd, result, mode)
		return Result{NextPC: pc + 4, Outcome: Continue}, nil

	case program.LB, program.LH, program.LW, program.LBU, program.LHU:
		base := c.ReadReg(inst.Rs1, state.PosB)
		addr := base + inst.Rs2OrImm
		value, err := loadValue(c, inst.Opcode, addr)
		if err != nil {
			return Result{}, err
		}
		c.WriteReg(inst.Rd, value, mode)
		return Result{NextPC: pc + 4, Outcome: Continue}, nil

	case program.SB, program.SH, program.SW:
		base := c.ReadReg(inst.Rs1, state.PosB)
		value := c.ReadReg(inst.Rd, state.PosC) // stores reuse Rd to carry rs2
		addr := base + inst.Rs2OrImm
		if err := storeValue(c, inst.Opcode, addr, value); err != nil {
			return Result{}, err
		}
		return Result{NextPC: pc + 4, Outcome: Continue}, nil

	case program.BEQ, program.BNE, program.BLT, program.BGE, program.BLTU, program.BGEU:
		a := c.ReadReg(inst.Rd, state.PosB)  // branches reuse Rd to carry rs1
		b := c.ReadReg(inst.Rs1, state.PosC) // and Rs1 to carry rs2
		if branchTaken(inst.Opcode, a, b) {
			return Result{NextPC: pc + inst.Rs2OrImm, Outcome: Continue}, nil
		}
		return Result{NextPC: pc + 4, Outcome: Continue}, nil

	case program.JAL:
		c.WriteReg(inst.Rd, pc+4, mode)
		return Result{NextPC: pc + inst.Rs1, Outcome: Continue}, nil // JAL carries imm in Rs1

	case program.JALR:
		base := c.ReadReg(inst.Rs1, state.PosB)
		target := (base + inst.Rs2OrImm) &^ 1
		c.WriteReg(inst.Rd, pc+4, mode)
		return Result{NextPC: target, Outcome: Continue}, nil

	case program.AUIPC:
		c.WriteReg(inst.Rd, pc+inst.Rs1, mode) // AUIPC carries imm in Rs1
		return Result{NextPC: pc + 4, Outcome: Continue}, nil

	default:
		return Result{Outcome: Halt}, nil
	}
}

func alu(op program.Opcode, a, b uint32) uint32 {
	sa, sb := int32(a), int32(b)
	switch op {
	case program.ADD:
		return a + b
	case program.SUB:
		return a - b
	case program.AND:
		return a & b
	case program.OR:
		return a | b
	case program.XOR:
		return a ^ b
	case program.SLL:
		return a << (b & 0x1f)
	case program.SRL:
		return a >> (b & 0x1f)
	case program.SRA:
		return uint32(sa >> (b & 0x1f))
	case program.SLT:
		if sa < sb {
			return 1
		}
		return 0
	case program.SLTU:
		if a < b {
			return 1
		}
		return 0
	case program.MUL:
		return a * b
	case program.MULH:
		return uint32((int64(sa) * int64(sb)) >> 32)
	case program.MULHSU:
		return uint32((int64(sa) * int64(uint64(b))) >> 32)
	case program.MULHU:
		return uint32((uint64(a) * uint64(b)) >> 32)
	case program.DIV:
		if sb == 0 {
			return 0xffffffff
		}
		if sa == -(1<<31) && sb == -1 {
			return uint32(sa)
		}
		return uint32(sa / sb)
	case program.DIVU:
		if b == 0 {
			return 0xffffffff
		}
		return a / b
	case program.REM:
		if sb == 0 {
			return uint32(sa)
		}
		if sa == -(1<<31) && sb == -1 {
			return 0
		}
		return uint32(sa % sb)
	case program.REMU:
		if b == 0 {
			return a
		}
		return a % b
	default:
		return 0
	}
}

func branchTaken(op program.Opcode, a, b uint32) bool {
	sa, sb := int32(a), int32(b)
	switch op {
	case program.BEQ:
		return a == b
	case program.BNE:
		return a != b
	case program.BLT:
		return sa < sb
	case program.BGE:
		return sa >= sb
	case program.BLTU:
		return a < b
	case program.BGEU:
		return a >= b
	default:
		return false
	}
}

func loadValue(c *core.Core, op program.Opcode, addr uint32) (uint32, error) {
	width := loadWidth(op)
	if addr&uint32(width-1) != 0 {
		return 0, vmerr.ErrMisalignedMemory
	}
	wordAddr := addr &^ 3
	shift := (addr & 3) * 8
	word := c.ReadWord(wordAddr, state.PosB)
	raw := word >> shift

	switch op {
	case program.LB:
		return uint32(int32(int8(raw))), nil
	case program.LH:
		return uint32(int32(int16(raw))), nil
	case program.LW:
		return word, nil
	case program.LBU:
		return raw & 0xff, nil
	case program.LHU:
		return raw & 0xffff, nil
	default:
		return 0, vmerr.ErrUnreachable
	}
}

func storeValue(c *core.Core, op program.Opcode, addr, value uint32) error {
	width := loadWidth(op)
	if addr&uint32(width-1) != 0 {
		return vmerr.ErrMisalignedMemory
	}
	wordAddr := addr &^ 3
	shift := (addr & 3) * 8

	switch op {
	case program.SW:
		c.WriteWord(wordAddr, value, state.PosA)
		return nil
	case program.SB:
		mask := uint32(0xff) << shift
		cur := c.ReadWord(wordAddr, state.PosB)
		c.WriteWord(wordAddr, (cur&^mask)|((value&0xff)<<shift), state.PosA)
		return nil
	case program.SH:
		mask := uint32(0xffff) << shift
		cur := c.ReadWord(wordAddr, state.PosB)
		c.WriteWord(wordAddr, (cur&^mask)|((value&0xffff)<<shift), state.PosA)
		return nil
	default:
		return vmerr.ErrUnreachable
	}
}

func loadWidth(op program.Opcode) uint32 {
	switch op {
	case program.LB, program.LBU, program.SB:
		return 1
	case program.LH, program.LHU, program.SH:
		return 2
	default:
		return 4
	}
}
