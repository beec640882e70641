/*
 * zkriscv - Batch driver: dispatches compiled blocks (falling back to the
 * interpreter), enforces the chunk-boundary discipline, and surfaces a
 * bounded run of completed chunks to a record sink every call.
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

// Package emulator implements the batch driver: the loop
// that, for each call to NextStateBatch, dispatches a bounded sequence
// of chunks, closing each one when the chunk-split state machine's
// boundary predicate fires and handing a completed-chunk record to a
// caller-owned sink. It is the top-level entry point a CLI or test
// harness drives; everything below it (core.Core, codegen.Table,
// interp.Step, the syscall table) is plumbing this package wires
// together.
package emulator

import (
	"github.com/rvzk/zkriscv/internal/chunksplit"
	"github.com/rvzk/zkriscv/internal/codegen"
	"github.com/rvzk/zkriscv/internal/core"
	"github.com/rvzk/zkriscv/internal/interp"
	"github.com/rvzk/zkriscv/internal/snapshot"
	"github.com/rvzk/zkriscv/internal/state"
)

// Phase is the program lifecycle state.
type Phase int

const (
	Initial Phase = iota
	Running
	Halted
)

// ChunkRecord is the EmulationRecord handed to the sink once per
// completed chunk: the chunk's final clock/event counters, every
// register accessed since the batch began and the memory words stored
// during the chunk (current values as of chunk close), and any
// public-values bytes committed during the chunk.
type ChunkRecord struct {
	Chunk             uint32
	FinalClk          uint32
	FinalEvents       uint32
	ModifiedRegisters []uint32
	RegisterValues    map[uint32]uint32
	MemoryWrites      map[uint32]uint32
	PublicValues      []byte
}

// Sink is the in-process FIFO the driver hands completed chunks to; it
// is owned and buffered by the caller.
type Sink interface {
	EmitChunk(rec ChunkRecord)
}

// ChannelSink forwards records over a bounded channel to a consumer
// goroutine (typically a prover pool). EmitChunk blocks when the
// consumer lags; that backpressure is what throttles the emulator.
type ChannelSink struct {
	C chan ChunkRecord
}

// NewChannelSink builds a sink with the given buffer depth.
func NewChannelSink(depth int) *ChannelSink {
	return &ChannelSink{C: make(chan ChunkRecord, depth)}
}

// EmitChunk sends the record, blocking on a full buffer.
func (s *ChannelSink) EmitChunk(rec ChunkRecord) { s.C <- rec }

// Close signals the consumer that no further records will arrive. Call
// only after the final batch reports done.
func (s *ChannelSink) Close() { close(s.C) }

// BatchOptions parameterizes a single NextStateBatch call.
type BatchOptions struct {
	ChunkBatchSize        uint32
	ChunkInsnCap          uint32
	ChunkEventCap         uint32
	MaxSyscallExtraCycles uint32
}

// BatchReport summarizes one batch's outcome.
type BatchReport struct {
	Done         bool
	BatchIndex   uint32
	ChunksClosed uint32
	Err          error
}

// Emulator wires a Core through the batch dispatch loop: block-table
// lookup with interpreter fallback, boundary-predicate evaluation, and
// chunk-close bookkeeping. One Emulator exclusively owns its state;
// it is never shared across goroutines.
type Emulator struct {
	Core   *core.Core
	Blocks codegen.Table
	Table  interp.Table
	Sink   Sink
	Phase  Phase
}

// New builds an Emulator over a core, ready to run from its entry PC.
func New(blocks codegen.Table, table interp.Table, c *core.Core, sink Sink) *Emulator {
	return &Emulator{
		Core:   c,
		Blocks: blocks,
		Table:  table,
		Sink:   sink,
		Phase:  Initial,
	}
}

// NextStateBatch runs a bounded sequence of chunks and returns the
// batch-start rollback snapshot plus a report. The first call
// transitions Initial->Running; a batch that terminates the
// program transitions Running->Halted; further calls return done=true
// with an empty snapshot.
func (e *Emulator) NextStateBatch(opts BatchOptions) (*snapshot.BatchSnapshot, BatchReport) {
	if e.Phase == Halted {
		return snapshot.NewBatchSnapshot(), BatchReport{Done: true}
	}
	e.Phase = Running

	preRegs := e.snapshotRegisterValues()
	e.Core.Regs.ResetAccessed()
	e.Core.Mem.ResetDiff()

	thresholds := chunksplit.NewThresholds(opts.ChunkInsnCap, opts.ChunkEventCap, opts.MaxSyscallExtraCycles)
	e.Core.Thresholds = thresholds

	var chunksClosed uint32
	var report BatchReport

	for chunksClosed < opts.ChunkBatchSize {
		halted, err := e.step()
		if err != nil {
			report.Err = err
			e.Phase = Halted
			e.Core.Halted = true
			e.closeChunk()
			chunksClosed++
			break
		}
		if halted {
			e.Phase = Halted
			e.Core.Halted = true
			e.closeChunk()
			chunksClosed++
			break
		}

		// No boundary inside an unconstrained bracket: the exit rolls
		// clk and current_chunk back, which must never cross a chunk
		// record already handed to the sink.
		if e.Core.IsUnconstrainedMode() {
			continue
		}
		split := e.Core.Split
		if split.ShouldSplitFast(thresholds) && split.ShouldSplit(thresholds) {
			e.closeChunk()
			chunksClosed++
		}
	}

	report.Done = e.Phase == Halted
	report.ChunksClosed = chunksClosed
	report.BatchIndex = e.Core.CurrentBatch
	e.Core.CurrentBatch++

	snap := e.buildSnapshot(preRegs)
	return snap, report
}

// step advances the emulator by one unit of work: a compiled block if
// one starts at the current PC, otherwise a single interpreted
// instruction. It returns true once the program has halted.
func (e *Emulator) step() (bool, error) {
	pc := e.Core.PC

	if blk, ok := e.Blocks[pc]; ok {
		next, fallback, err := blk(e.Core)
		if err != nil {
			return false, err
		}
		e.Core.PC = next
		if fallback {
			return interp.Step(e.Core, e.Table)
		}
		return false, nil
	}

	return interp.Step(e.Core, e.Table)
}

// buildSnapshot assembles the batch-start rollback delta from the
// register accessed-bitmap and the memory diff base Core accumulated
// over the batch.
func (e *Emulator) buildSnapshot(preRegs [state.NumRegisters]uint32) *snapshot.BatchSnapshot {
	snap := snapshot.NewBatchSnapshot()
	for reg := uint32(0); reg < state.NumRegisters; reg++ {
		if e.Core.Regs.Accessed(reg) {
			snap.NoteRegister(reg, preRegs[reg])
		}
	}
	for addr, preValue := range e.Core.Mem.DiffBase() {
		snap.NoteMemory(addr, preValue)
	}
	return snap
}

func (e *Emulator) snapshotRegisterValues() [state.NumRegisters]uint32 {
	var out [state.NumRegisters]uint32
	for reg := uint32(0); reg < state.NumRegisters; reg++ {
		out[reg] = e.Core.Regs.ReadUnsafe(reg)
	}
	return out
}

// closeChunk emits the completed chunk's record to the sink, bumps
// current_chunk, and resets the chunk-local clock and event state.
func (e *Emulator) closeChunk() {
	if e.Sink != nil {
		writes := e.Core.Mem.DrainWritten()
		rec := ChunkRecord{
			Chunk:             e.Core.CurrentChunk,
			FinalClk:          e.Core.Split.Clk,
			FinalEvents:       e.Core.Split.NumMemoryRWEvents,
			ModifiedRegisters: modifiedRegistersThisChunk(e.Core.Regs),
			RegisterValues:    make(map[uint32]uint32),
			MemoryWrites:      make(map[uint32]uint32, len(writes)),
			PublicValues:      e.Core.PublicValuesStream[e.Core.PublicValuesStreamPtr:],
		}
		for _, reg := range rec.ModifiedRegisters {
			rec.RegisterValues[reg] = e.Core.Regs.ReadUnsafe(reg)
		}
		for _, addr := range writes {
			v, _ := e.Core.Mem.Load(addr)
			rec.MemoryWrites[addr] = v
		}
		e.Core.PublicValuesStreamPtr = len(e.Core.PublicValuesStream)
		e.Sink.EmitChunk(rec)
	} else {
		e.Core.Mem.DrainWritten()
	}
	e.Core.CurrentChunk++
	e.Core.Split.Reset()
}

// modifiedRegistersThisChunk reports every register accessed since
// batch start; the chunk record is a convenience summary, not a
// tight per-chunk delta, since accuracy only matters at batch
// granularity for rollback.
func modifiedRegistersThisChunk(regs *state.Registers) []uint32 {
	out := make([]uint32, 0, state.NumRegisters)
	for reg := uint32(0); reg < state.NumRegisters; reg++ {
		if regs.Accessed(reg) {
			out = append(out, reg)
		}
	}
	return out
}
