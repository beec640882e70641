/*
 * zkriscv - Emulator core: the single-owner struct holding all register,
 * memory, clock, and batch-control state threaded through every block
 * function, interpreter step, and syscall handler.
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

// Package core holds AotEmulatorCore's Go counterpart: the mutable state
// every block function, interpreter step, and syscall handler operates
// on by exclusive reference. There is exactly one Core per emulator; it
// is never shared across goroutines.
package core

import (
	"github.com/rvzk/zkriscv/internal/chunksplit"
	"github.com/rvzk/zkriscv/internal/program"
	"github.com/rvzk/zkriscv/internal/snapshot"
	"github.com/rvzk/zkriscv/internal/state"
)

// PVDigestWords and DeferredProofDigestWords size the two public-values
// digests; eight words matches a 256-bit hash split into u32 limbs.
const (
	PVDigestWords            = 8
	DeferredProofDigestWords = 8
)

// Core is the execution state shared by every dispatch path.
type Core struct {
	Program *program.Program

	Regs  *state.Registers
	Mem   *state.Memory
	Split *chunksplit.State

	// Thresholds is the active batch's boundary-predicate limits; the
	// driver installs it at batch entry and compiled blocks consult the
	// fast predicate against it before running.
	Thresholds chunksplit.Thresholds

	PC           uint32
	InsnCount    uint64
	CurrentChunk uint32
	CurrentBatch uint32

	MaxSyscallExtraCycles uint32

	InputStream    [][]byte
	InputStreamPtr int

	Stdout []byte
	Stderr []byte

	PublicValuesStream    []byte
	PublicValuesStreamPtr int
	CommittedValueDigest  [PVDigestWords]uint32
	DeferredProofsDigest  [DeferredProofDigestWords]uint32

	Halted bool

	unconstrained *snapshot.Unconstrained
}

// New builds a Core over a decoded program and an input stream, with
// memory seeded from the program's initial image under chunk=0,ts=0 and
// current_chunk starting at 1 per the normative constants.
func New(p *program.Program, inputStream [][]byte, maxSyscallExtraCycles uint32) *Core {
	return &Core{
		Program:               p,
		Regs:                  state.NewRegisters(),
		Mem:                   state.NewMemory(p.MemoryImage),
		Split:                 chunksplit.New(),
		PC:                    p.PCStart,
		CurrentChunk:          1,
		MaxSyscallExtraCycles: maxSyscallExtraCycles,
		InputStream:           inputStream,
	}
}

// Clk is the chunk-local clock used to tag register/memory timestamps.
func (c *Core) Clk() uint32 { return c.Split.Clk }

// IsUnconstrainedMode reports whether execution is inside an
// unconstrained-mode bracket.
func (c *Core) IsUnconstrainedMode() bool { return c.unconstrained.Active() }

// EnterUnconstrained saves the full rollback-relevant scalar and
// register state and begins logging the pre-image of every memory word
// modified, so ExitUnconstrained can undo the bracket.
func (c *Core) EnterUnconstrained() {
	c.unconstrained = &snapshot.Unconstrained{
		PC:                   c.PC,
		Clk:                  c.Split.Clk,
		InsnCount:            c.InsnCount,
		CurrentChunk:         c.CurrentChunk,
		NumMemoryRWEvents:    c.Split.NumMemoryRWEvents,
		Registers:            c.Regs.Snapshot(),
		MemoryDiff:           make(map[uint32]state.MemoryRecord),
		CommittedValueDigest: c.CommittedValueDigest,
		DeferredProofsDigest: c.DeferredProofsDigest,
	}
}

// ExitUnconstrained restores the saved scalars and registers and rolls
// back every memory word touched since EnterUnconstrained, leaving the
// accessed-register bitmap untouched so enclosing-batch snapshot deltas
// still cover those accesses.
func (c *Core) ExitUnconstrained() {
	u := c.unconstrained
	if u == nil {
		return
	}
	c.PC = u.PC
	c.Split.Clk = u.Clk
	c.Split.NumMemoryRWEvents = u.NumMemoryRWEvents
	c.InsnCount = u.InsnCount
	c.CurrentChunk = u.CurrentChunk
	c.Regs.Restore(u.Registers)
	c.CommittedValueDigest = u.CommittedValueDigest
	c.DeferredProofsDigest = u.DeferredProofsDigest

	for addr, rec := range u.MemoryDiff {
		c.Mem.Store(addr, rec.Value, rec.Chunk, rec.Timestamp)
	}
	c.unconstrained = nil
}

// noteMemoryDiffOnce captures a word's current record the first time it
// is about to be overwritten inside an unconstrained bracket.
func (c *Core) noteMemoryDiffOnce(addr uint32) {
	u := c.unconstrained
	if u == nil {
		return
	}
	if _, ok := u.MemoryDiff[addr]; ok {
		return
	}
	rec, _ := c.Mem.Provenance(addr)
	u.MemoryDiff[addr] = rec
}

// ReadReg reads a register at the given position, tagging provenance
// with the current chunk and chunk-local clock.
func (c *Core) ReadReg(reg uint32, pos state.Position) uint32 {
	switch pos {
	case state.PosA:
		return c.Regs.ReadA(reg, c.CurrentChunk, c.Split.Clk)
	case state.PosC:
		return c.Regs.ReadC(reg, c.CurrentChunk, c.Split.Clk)
	default:
		return c.Regs.ReadB(reg, c.CurrentChunk, c.Split.Clk)
	}
}

// WriteReg writes a register under the given mode. The tracked path
// counts the write event unless an unconstrained bracket is active; the
// constrained path counts unconditionally (the caller already verified
// the mode); the no-count path defers to AddMemoryRWEvents.
func (c *Core) WriteReg(reg, value uint32, mode state.WriteMode) {
	c.Split.InsertMemoryAddress(reg)
	c.Regs.Write(reg, value, c.CurrentChunk, c.Split.Clk)
	switch mode {
	case state.WriteTracked:
		if !c.IsUnconstrainedMode() {
			c.Split.NumMemoryRWEvents++
		}
	case state.WriteConstrained:
		c.Split.NumMemoryRWEvents++
	case state.WriteNoCount:
		// deferred to AddMemoryRWEvents
	}
}

// AddMemoryRWEvents batch-adds a statically known write count for blocks
// that used the no-count write variant. Register-write events are not
// counted while an unconstrained bracket is active.
func (c *Core) AddMemoryRWEvents(n uint32) {
	if c.IsUnconstrainedMode() {
		return
	}
	c.Split.NumMemoryRWEvents += n
}

// ReadWord loads a word and stamps its record with the access's
// provenance; a never-touched address materializes an implicit zero
// record on first touch.
func (c *Core) ReadWord(addr uint32, pos state.Position) uint32 {
	c.Split.InsertMemoryAddress(addr)
	if c.unconstrained != nil {
		c.noteMemoryDiffOnce(addr)
	}
	return c.Mem.Read(addr, c.CurrentChunk, c.Split.Clk+uint32(pos))
}

// WriteWord stores a word; when an unconstrained bracket is active the
// word's prior record is logged first so the write can be rolled back
// on exit.
func (c *Core) WriteWord(addr, value uint32, pos state.Position) {
	c.Split.InsertMemoryAddress(addr)
	if c.unconstrained != nil {
		c.noteMemoryDiffOnce(addr)
	}
	c.Mem.Store(addr, value, c.CurrentChunk, c.Split.Clk+uint32(pos))
}

// ReadSpan reads consecutive words starting at addr, each access
// stamped at the current chunk clock. Precompile handlers read their
// operand spans through this path.
func (c *Core) ReadSpan(addr uint32, out []uint32) {
	for i := range out {
		a := addr + uint32(i)*4
		c.Split.InsertMemoryAddress(a)
		if c.unconstrained != nil {
			c.noteMemoryDiffOnce(a)
		}
		out[i] = c.Mem.Read(a, c.CurrentChunk, c.Split.Clk)
	}
}

// ReadSpanSnapshot reads consecutive words without touching records,
// for a destination span the handler is about to overwrite; the
// overwrite's record (clk+1 for the adds, clk for the single-operand
// precompiles) is the only provenance the span gets.
func (c *Core) ReadSpanSnapshot(addr uint32, out []uint32) {
	for i := range out {
		v, _ := c.Mem.Load(addr + uint32(i)*4)
		out[i] = v
	}
}

// WriteSpanAtClk writes consecutive words starting at addr, each
// stamped at the given clock. Handlers pick the clock per operation:
// a two-operand add overwrites a span it also read tracked this cycle,
// so its writes land at clk+1; double/decompress only snapshot-read
// their destination and write at plain clk.
func (c *Core) WriteSpanAtClk(addr uint32, values []uint32, clk uint32) {
	for i, v := range values {
		a := addr + uint32(i)*4
		c.Split.InsertMemoryAddress(a)
		if c.unconstrained != nil {
			c.noteMemoryDiffOnce(a)
		}
		c.Mem.Store(a, v, c.CurrentChunk, clk)
	}
}

// WriteSpan writes a span at clk+1, the clock the add precompiles use
// so an address read at clk in the same handler still has a strictly
// increasing record sequence.
func (c *Core) WriteSpan(addr uint32, values []uint32) {
	c.WriteSpanAtClk(addr, values, c.Split.Clk+1)
}

// EnterSyscall guards the boundary test so a chunk cannot end mid-syscall.
func (c *Core) EnterSyscall() { c.Split.EnterSyscall() }

// ExitSyscall lifts the syscall guard.
func (c *Core) ExitSyscall() { c.Split.ExitSyscall() }

// Retire advances insn_count and clk by the retirement quantum; callers
// may batch this across a block's instructions.
func (c *Core) Retire(instructions uint64) {
	c.InsnCount += instructions
	c.Split.Clk += uint32(instructions) * chunksplit.RetirementQuantum
}

// Result returns the conventional return-value register (a0 / x10).
func (c *Core) Result() uint32 {
	return c.Regs.ReadUnsafe(10)
}
