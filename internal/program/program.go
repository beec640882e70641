/*
 * zkriscv - Program model: decoded instruction stream plus initial memory.
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

// Package program holds the decoded RV32IM instruction stream and the
// initial memory image a loader hands to the emulator.
package program

// Opcode identifies a decoded RV32IM operation, plus the synthetic
// AUIPC/JAL/JALR/ECALL/EBREAK/UNIMP forms.
type Opcode uint8

const (
	UNIMP Opcode = iota
	ADD
	SUB
	AND
	OR
	XOR
	SLL
	SRL
	SRA
	SLT
	SLTU
	MUL
	MULH
	MULHSU
	MULHU
	DIV
	DIVU
	REM
	REMU
	LB
	LH
	LW
	LBU
	LHU
	SB
	SH
	SW
	BEQ
	BNE
	BLT
	BGE
	BLTU
	BGEU
	JAL
	JALR
	AUIPC
	ECALL
	EBREAK
)

// Instruction is a decoded instruction record. The fields are
// deliberately generic: JAL and AUIPC reuse Rs1 to carry their
// immediate rather than adding a dedicated immediate field.
type Instruction struct {
	Opcode   Opcode
	Rd       uint32
	Rs1      uint32
	Rs2OrImm uint32
	ImmBFlag bool
	ImmCFlag bool
}

// IsTerminator reports whether this instruction ends a basic block.
func (i Instruction) IsTerminator() bool {
	switch i.Opcode {
	case JAL, JALR, ECALL, EBREAK,
		BEQ, BNE, BLT, BGE, BLTU, BGEU:
		return true
	default:
		return false
	}
}

// IsBranch reports whether this is a conditional branch.
func (i Instruction) IsBranch() bool {
	switch i.Opcode {
	case BEQ, BNE, BLT, BGE, BLTU, BGEU:
		return true
	default:
		return false
	}
}

// Program is the ahead-of-time input: a word-aligned instruction array,
// the entry PC, and the initial data segment.
type Program struct {
	PCBase       uint32
	PCStart      uint32
	Instructions []Instruction
	MemoryImage  map[uint32]uint32
}

// New builds a Program from a decoded instruction slice.
func New(instructions []Instruction, pcBase, pcStart uint32, memoryImage map[uint32]uint32) *Program {
	if memoryImage == nil {
		memoryImage = make(map[uint32]uint32)
	}
	return &Program{
		PCBase:       pcBase,
		PCStart:      pcStart,
		Instructions: instructions,
		MemoryImage:  memoryImage,
	}
}

// End returns the PC one past the last decoded instruction.
func (p *Program) End() uint32 {
	return p.PCBase + uint32(len(p.Instructions))*4
}

// IndexForPC returns the instruction index for a word-aligned PC within
// [PCBase, End()), or false if the PC is out of range or misaligned.
func (p *Program) IndexForPC(pc uint32) (int, bool) {
	if pc < p.PCBase || pc >= p.End() {
		return 0, false
	}
	offset := pc - p.PCBase
	if offset%4 != 0 {
		return 0, false
	}
	idx := int(offset / 4)
	if idx >= len(p.Instructions) {
		return 0, false
	}
	return idx, true
}

// At returns the instruction at pc, or UNIMP plus false if out of range.
func (p *Program) At(pc uint32) (Instruction, bool) {
	idx, ok := p.IndexForPC(pc)
	if !ok {
		return Instruction{Opcode: UNIMP}, false
	}
	return p.Instructions[idx], true
}
