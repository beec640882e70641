/*
 * zkriscv - RV32IM instruction decoder.
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

// Package decode turns a 32-bit little-endian RISC-V word into a decoded
// program.Instruction. Decoding never fails: unrecognized words become
// UNIMP, which traps to HALT at execution time rather than aborting
// construction.
package decode

import "github.com/rvzk/zkriscv/internal/program"

// Word decodes a single 32-bit instruction word.
func Word(word uint32) program.Instruction {
	opcodeBits := word & 0x7f
	rd := (word >> 7) & 0x1f
	funct3 := (word >> 12) & 0x7
	rs1 := (word >> 15) & 0x1f
	rs2 := (word >> 20) & 0x1f
	funct7 := (word >> 25) & 0x7f

	switch opcodeBits {
	case 0b0110011: // R-type
		op, ok := rTypeOp(funct3, funct7)
		if !ok {
			return unimp()
		}
		return program.Instruction{Opcode: op, Rd: rd, Rs1: rs1, Rs2OrImm: rs2}

	case 0b0010011: // I-type ALU
		imm := signExtend(word>>20, 12)
		op, ok := iTypeOp(funct3, funct7)
		if !ok {
			return unimp()
		}
		return program.Instruction{Opcode: op, Rd: rd, Rs1: rs1, Rs2OrImm: imm, ImmCFlag: true}

	case 0b0000011: // Loads
		imm := signExtend(word>>20, 12)
		op, ok := loadOp(funct3)
		if !ok {
			return unimp()
		}
		return program.Instruction{Opcode: op, Rd: rd, Rs1: rs1, Rs2OrImm: imm, ImmCFlag: true}

	case 0b0100011: // Stores
		immBits := ((word >> 25) & 0x7f << 5) | ((word >> 7) & 0x1f)
		imm := signExtend(immBits, 12)
		op, ok := storeOp(funct3)
		if !ok {
			return unimp()
		}
		return program.Instruction{Opcode: op, Rd: rs2, Rs1: rs1, Rs2OrImm: imm, ImmCFlag: true}

	case 0b1100011: // Branches
		immBits := (((word >> 31) & 0x1) << 12) |
			(((word >> 7) & 0x1) << 11) |
			(((word >> 25) & 0x3f) << 5) |
			(((word >> 8) & 0xf) << 1)
		imm := signExtend(immBits, 13)
		op, ok := branchOp(funct3)
		if !ok {
			return unimp()
		}
		return program.Instruction{Opcode: op, Rd: rs1, Rs1: rs2, Rs2OrImm: imm, ImmCFlag: true}

	case 0b1101111: // JAL
		immBits := (((word >> 31) & 0x1) << 20) |
			(((word >> 12) & 0xff) << 12) |
			(((word >> 20) & 0x1) << 11) |
			(((word >> 21) & 0x3ff) << 1)
		imm := signExtend(immBits, 21)
		return program.Instruction{Opcode: program.JAL, Rd: rd, Rs1: imm, ImmBFlag: true}

	case 0b1100111: // JALR
		imm := signExtend(word>>20, 12)
		return program.Instruction{Opcode: program.JALR, Rd: rd, Rs1: rs1, Rs2OrImm: imm, ImmCFlag: true}

	case 0b0010111: // AUIPC
		imm := word & 0xfffff000
		return program.Instruction{Opcode: program.AUIPC, Rd: rd, Rs1: imm, ImmBFlag: true}

	case 0b0110111: // LUI, synthesized as ADD rd, x0, imm<<12
		imm := word & 0xfffff000
		return program.Instruction{Opcode: program.ADD, Rd: rd, Rs1: 0, Rs2OrImm: imm, ImmBFlag: true, ImmCFlag: true}

	case 0b1110011: // SYSTEM
		if funct3 != 0 {
			return unimp()
		}
		switch word {
		case 0x00000073:
			return program.Instruction{Opcode: program.ECALL}
		case 0x00100073:
			return program.Instruction{Opcode: program.EBREAK}
		default:
			return unimp()
		}

	default:
		return unimp()
	}
}

func unimp() program.Instruction {
	return program.Instruction{Opcode: program.UNIMP}
}

// signExtend sign-extends the low `bits` bits of v.
func signExtend(v uint32, bits uint) uint32 {
	shift := 32 - bits
	return uint32(int32(v<<shift) >> shift)
}

// rTypeOp matches the exact (funct3, funct7) tuples of RV32IM; any
// other combination is a reserved encoding and decodes as UNIMP.
func rTypeOp(funct3, funct7 uint32) (program.Opcode, bool) {
	switch {
	case funct3 == 0x0 && funct7 == 0x00:
		return program.ADD, true
	case funct3 == 0x0 && funct7 == 0x20:
		return program.SUB, true
	case funct3 == 0x1 && funct7 == 0x00:
		return program.SLL, true
	case funct3 == 0x2 && funct7 == 0x00:
		return program.SLT, true
	case funct3 == 0x3 && funct7 == 0x00:
		return program.SLTU, true
	case funct3 == 0x4 && funct7 == 0x00:
		return program.XOR, true
	case funct3 == 0x5 && funct7 == 0x00:
		return program.SRL, true
	case funct3 == 0x5 && funct7 == 0x20:
		return program.SRA, true
	case funct3 == 0x6 && funct7 == 0x00:
		return program.OR, true
	case funct3 == 0x7 && funct7 == 0x00:
		return program.AND, true

	case funct3 == 0x0 && funct7 == 0x01:
		return program.MUL, true
	case funct3 == 0x1 && funct7 == 0x01:
		return program.MULH, true
	case funct3 == 0x2 && funct7 == 0x01:
		return program.MULHSU, true
	case funct3 == 0x3 && funct7 == 0x01:
		return program.MULHU, true
	case funct3 == 0x4 && funct7 == 0x01:
		return program.DIV, true
	case funct3 == 0x5 && funct7 == 0x01:
		return program.DIVU, true
	case funct3 == 0x6 && funct7 == 0x01:
		return program.REM, true
	case funct3 == 0x7 && funct7 == 0x01:
		return program.REMU, true
	}
	return program.UNIMP, false
}

func iTypeOp(funct3, funct7 uint32) (program.Opcode, bool) {
	switch funct3 {
	case 0x0:
		return program.ADD, true // ADDI
	case 0x4:
		return program.XOR, true // XORI
	case 0x6:
		return program.OR, true // ORI
	case 0x7:
		return program.AND, true // ANDI
	case 0x1:
		return program.SLL, true // SLLI
	case 0x5:
		if funct7 == 0x20 {
			return program.SRA, true // SRAI
		}
		return program.SRL, true // SRLI
	case 0x2:
		return program.SLT, true // SLTI
	case 0x3:
		return program.SLTU, true // SLTIU
	}
	return program.UNIMP, false
}

func loadOp(funct3 uint32) (program.Opcode, bool) {
	switch funct3 {
	case 0:
		return program.LB, true
	case 1:
		return program.LH, true
	case 2:
		return program.LW, true
	case 4:
		return program.LBU, true
	case 5:
		return program.LHU, true
	}
	return program.UNIMP, false
}

func storeOp(funct3 uint32) (program.Opcode, bool) {
	switch funct3 {
	case 0:
		return program.SB, true
	case 1:
		return program.SH, true
	case 2:
		return program.SW, true
	}
	return program.UNIMP, false
}

func branchOp(funct3 uint32) (program.Opcode, bool) {
	switch funct3 {
	case 0:
		return program.BEQ, true
	case 1:
		return program.BNE, true
	case 4:
		return program.BLT, true
	case 5:
		return program.BGE, true
	case 6:
		return program.BLTU, true
	case 7:
		return program.BGEU, true
	}
	return program.UNIMP, false
}
