/*
 * zkriscv - Chunk-split state machine: cycle/event accounting, syscall
 * guard, and the boundary predicate that decides when a chunk closes.
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

// Package chunksplit tracks the per-chunk cycle and memory-event budget
// and answers whether the current instruction retirement must close the
// chunk.
package chunksplit

// FastPathClkMargin and FastPathEventMargin bound the fast-path skip:
// both exceed the maximum possible per-block contribution to clk/events,
// so skipping the full boundary check between blocks can never miss a
// cap violation.
const (
	FastPathClkMargin   uint32 = 4096
	FastPathEventMargin uint32 = 4096
)

// RetirementQuantum is added to clk for every retired instruction.
const RetirementQuantum uint32 = 4

// Thresholds are the boundary predicate's precomputed limits, derived
// once per batch configuration from the chunk caps.
type Thresholds struct {
	ClkThreshold       uint32
	EventThreshold     uint32
	ClkFastThreshold   uint32
	EventFastThreshold uint32
}

// NewThresholds derives clk/event thresholds from a chunk's instruction
// and event caps, reserving headroom for the worst-case syscall so a
// syscall started inside this chunk cannot push it over the cap.
func NewThresholds(chunkInsnCap, chunkEventCap, maxSyscallExtraCycles uint32) Thresholds {
	clkThreshold := chunkInsnCap*RetirementQuantum - maxSyscallExtraCycles
	eventThreshold := chunkEventCap

	clkFast := uint32(0)
	if clkThreshold > FastPathClkMargin {
		clkFast = clkThreshold - FastPathClkMargin
	}
	eventFast := uint32(0)
	if eventThreshold > FastPathEventMargin {
		eventFast = eventThreshold - FastPathEventMargin
	}

	return Thresholds{
		ClkThreshold:       clkThreshold,
		EventThreshold:     eventThreshold,
		ClkFastThreshold:   clkFast,
		EventFastThreshold: eventFast,
	}
}

// State is the chunk-local accounting the boundary predicate reads.
// Reset at every chunk boundary.
type State struct {
	Clk               uint32
	NumMemoryRWEvents uint32
	inSyscall         bool
	touched           map[uint32]struct{}
}

// New returns a freshly reset chunk-split state.
func New() *State {
	return &State{touched: make(map[uint32]struct{})}
}

// Reset zeroes the chunk-local counters at a chunk boundary.
func (s *State) Reset() {
	s.Clk = 0
	s.NumMemoryRWEvents = 0
	s.touched = make(map[uint32]struct{})
}

// EnterSyscall marks that a syscall is executing; the boundary predicate
// is forced false while this holds.
func (s *State) EnterSyscall() { s.inSyscall = true }

// ExitSyscall clears the in-syscall guard.
func (s *State) ExitSyscall() { s.inSyscall = false }

// InSyscall reports whether a syscall is currently executing.
func (s *State) InSyscall() bool { return s.inSyscall }

// InsertMemoryAddress records that addr was touched this chunk.
func (s *State) InsertMemoryAddress(addr uint32) {
	s.touched[addr] = struct{}{}
}

// TouchedCount returns the number of distinct addresses touched this chunk.
func (s *State) TouchedCount() int { return len(s.touched) }

// ShouldSplitFast is the cheap pre-check: when both counters are below
// their fast thresholds, the full predicate cannot possibly fire and is
// skipped.
func (s *State) ShouldSplitFast(t Thresholds) bool {
	return s.Clk >= t.ClkFastThreshold || s.NumMemoryRWEvents >= t.EventFastThreshold
}

// ShouldSplit is the full boundary predicate: a chunk never ends
// mid-syscall regardless of cycle or event pressure.
func (s *State) ShouldSplit(t Thresholds) bool {
	if s.inSyscall {
		return false
	}
	return s.Clk >= t.ClkThreshold || s.NumMemoryRWEvents >= t.EventThreshold
}
