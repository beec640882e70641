/*
 * zkriscv - Batch snapshot/rollback and unconstrained-mode saved state.
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

// Package snapshot holds the two forms of rollback state the emulator
// core needs: a forward/backward delta taken at batch start so a
// downstream consumer can replay or rewind a batch, and a full
// save/restore bracket for unconstrained-mode regions.
package snapshot

import "github.com/rvzk/zkriscv/internal/state"

// BatchSnapshot is a forward/backward delta: pre-batch register values
// (those accessed during the batch, tracked via a bitmap) and pre-batch
// values for every memory word written during the batch.
type BatchSnapshot struct {
	RegisterBitmap  uint32
	PreRegisters    [state.NumRegisters]uint32
	PreMemoryValues map[uint32]uint32
}

// NewBatchSnapshot starts an empty delta; the batch driver fills it at
// batch end from the registers and memory words the batch touched.
func NewBatchSnapshot() *BatchSnapshot {
	return &BatchSnapshot{PreMemoryValues: make(map[uint32]uint32)}
}

// NoteRegister records a register's pre-batch value the first time it is
// modified during the batch; later modifications are no-ops here since
// the delta only needs the value as of batch start.
func (b *BatchSnapshot) NoteRegister(reg uint32, preValue uint32) {
	bit := uint32(1) << reg
	if b.RegisterBitmap&bit != 0 {
		return
	}
	b.RegisterBitmap |= bit
	b.PreRegisters[reg] = preValue
}

// NoteMemory records a word's pre-batch value the first time it is
// written during the batch.
func (b *BatchSnapshot) NoteMemory(addr, preValue uint32) {
	if _, ok := b.PreMemoryValues[addr]; ok {
		return
	}
	b.PreMemoryValues[addr] = preValue
}

// ModifiedRegisters returns the register indices the bitmap marks, in
// ascending order.
func (b *BatchSnapshot) ModifiedRegisters() []uint32 {
	out := make([]uint32, 0, state.NumRegisters)
	for reg := uint32(0); reg < state.NumRegisters; reg++ {
		if b.RegisterBitmap&(uint32(1)<<reg) != 0 {
			out = append(out, reg)
		}
	}
	return out
}

// Rewind applies the delta backward: restores every modified register
// and every touched memory word to its pre-batch value. Used to verify
// the snapshot-inverse property and to support rewinding a partially
// consumed batch.
func (b *BatchSnapshot) Rewind(regs *state.Registers, mem *state.Memory, chunk, clk uint32) {
	for _, reg := range b.ModifiedRegisters() {
		regs.Write(reg, b.PreRegisters[reg], chunk, clk)
	}
	for addr, value := range b.PreMemoryValues {
		mem.Store(addr, value, chunk, clk)
	}
}

// Unconstrained is the full save/restore bracket entered and exited by
// a matched pair of syscalls. The pre-image of every memory word
// modified while active is logged in MemoryDiff so the exit can undo
// it, and register-write events are never counted while active.
type Unconstrained struct {
	PC                   uint32
	Clk                  uint32
	NumMemoryRWEvents    uint32
	InsnCount            uint64
	CurrentChunk         uint32
	Registers            state.RegisterSnapshot
	MemoryDiff           map[uint32]state.MemoryRecord
	CommittedValueDigest [8]uint32
	DeferredProofsDigest [8]uint32
}

// Active reports whether a nil-checked pointer denotes an active bracket;
// provided so callers can write "if snap.Active()" instead of comparing
// against nil directly at every call site.
func (u *Unconstrained) Active() bool { return u != nil }
