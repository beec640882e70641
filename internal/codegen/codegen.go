/*
 * zkriscv - AOT code generator: compiles each basic block into a
 * straight-line Go closure (a "block function") indexed by entry PC.
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

// Package codegen compiles decoded basic blocks into block functions:
// closures with the signature "take the emulator core by exclusive
// reference, run until the block's terminator or an interpreter-fallback
// condition, return the next PC". Since Go cannot emit native machine
// code without cgo, a block function is a closure over a precomputed
// instruction slice rather than compiled machine instructions — the
// specialization win is skipping re-decode and re-dispatch of the
// opcode, not native codegen.
package codegen

import (
	"github.com/rvzk/zkriscv/internal/chunksplit"
	"github.com/rvzk/zkriscv/internal/core"
	"github.com/rvzk/zkriscv/internal/exec"
	"github.com/rvzk/zkriscv/internal/program"
	"github.com/rvzk/zkriscv/internal/state"
)

// maxBlockInsns caps a compiled prefix so no block's clk contribution
// can exceed the fast-path margin the entry check relies on.
const maxBlockInsns = int(chunksplit.FastPathClkMargin / chunksplit.RetirementQuantum)

// BlockFn runs a compiled block. fallback reports that control must
// yield to the interpreter at nextPC: the block's terminator was a
// dynamic jump (JALR), a syscall (ECALL), or a halting instruction
// (EBREAK/UNIMP), none of which a block function resolves itself; the
// compiled prefix reached maxBlockInsns or an address outside the
// program; or the fast boundary check fired at entry, in which case
// nextPC is the block's own entry PC and nothing was retired.
type BlockFn func(c *core.Core) (nextPC uint32, fallback bool, err error)

// Table maps a block's entry PC to its compiled function.
type Table map[uint32]BlockFn

// Compile builds the block-function table for every discovered leader
// PC in blockPCs, which must be sorted ascending (as cfg.DiscoverBlocks
// returns them).
func Compile(p *program.Program, blockPCs []uint32) Table {
	table := make(Table, len(blockPCs))
	for idx, startPC := range blockPCs {
		endPC := p.End()
		if idx+1 < len(blockPCs) {
			endPC = blockPCs[idx+1]
		}
		table[startPC] = compileBlock(p, startPC, endPC)
	}
	return table
}

// dynamicTerminator reports whether an opcode must be resolved by the
// interpreter rather than a block function.
func dynamicTerminator(op program.Opcode) bool {
	switch op {
	case program.JALR, program.ECALL, program.EBREAK, program.UNIMP:
		return true
	default:
		return false
	}
}

func compileBlock(p *program.Program, startPC, endPC uint32) BlockFn {
	var insts []program.Instruction
	var pcs []uint32

	pc := startPC
	endsInFallback := false
	for pc < endPC {
		if len(insts) == maxBlockInsns {
			endsInFallback = true
			break
		}
		inst, ok := p.At(pc)
		if !ok {
			endsInFallback = true
			break
		}
		if dynamicTerminator(inst.Opcode) {
			endsInFallback = true // excluded from the compiled prefix; interpreter resolves it
			break
		}
		insts = append(insts, inst)
		pcs = append(pcs, pc)
		if inst.IsTerminator() {
			break // JAL or a branch: statically resolvable, last instruction
		}
		pc += 4
	}
	fallbackPC := pc // PC of the dynamic terminator, or of the block's end

	staticWrites := countWrites(insts)

	return func(c *core.Core) (uint32, bool, error) {
		// Past the fast threshold the boundary predicate must be
		// evaluated per instruction to keep AOT and interpreter chunk
		// boundaries identical, so yield before retiring anything. A
		// block entered below the fast threshold cannot cross the full
		// threshold: the margins exceed any block's contribution.
		if c.Split.ShouldSplitFast(c.Thresholds) {
			return startPC, true, nil
		}
		next := fallbackPC
		for i, inst := range insts {
			res, err := exec.One(c, inst, pcs[i], state.WriteNoCount)
			if err != nil {
				// account the executed prefix so the error chunk's
				// event count matches the interpreter's
				c.AddMemoryRWEvents(countWrites(insts[:i]))
				return 0, false, err
			}
			c.Retire(1)
			if i == len(insts)-1 {
				next = res.NextPC
			}
		}
		c.AddMemoryRWEvents(staticWrites)
		if endsInFallback {
			return fallbackPC, true, nil
		}
		return next, false, nil
	}
}

// countWrites computes the static upper bound on register-write events
// a block's compiled prefix contributes, so the driver can call
// AddMemoryRWEvents once instead of incrementing per instruction.
func countWrites(insts []program.Instruction) uint32 {
	var n uint32
	for _, inst := range insts {
		switch inst.Opcode {
		case program.SB, program.SH, program.SW,
			program.BEQ, program.BNE, program.BLT, program.BGE, program.BLTU, program.BGEU:
			// these do not write a register
		default:
			n++
		}
	}
	return n
}
