/*
 * zkriscv - Register file with access provenance and the three write
 * paths register writes are dispatched through.
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

package state

// NumRegisters is the RV32I integer register count, x0 through x31. x0 is
// hard-wired to zero; writes to it update provenance and accessed-set
// tracking like any other register but never change its value.
const NumRegisters = 32

// WriteMode selects how a register write participates in the chunk's
// memory-read/write event count.
type WriteMode int

const (
	// WriteTracked increments the event counter on every write made
	// outside an unconstrained bracket: the interpreter fallback path,
	// which does not know a block's write shape ahead of time.
	WriteTracked WriteMode = iota
	// WriteConstrained increments the event counter unconditionally,
	// for callers that have already checked that unconstrained mode is
	// off.
	WriteConstrained
	// WriteNoCount applies the write without touching the counter; the
	// caller has a statically known write count for the block and adds
	// it in bulk at block end via AddMemoryRWEvents.
	WriteNoCount
)

// Registers is the RV32I integer register file plus per-register
// provenance and the set of registers touched since the last
// ResetAccessed. Event counting belongs to the chunk-split state, not
// the register file; the write modes only select who does it.
type Registers struct {
	values   [NumRegisters]uint32
	prov     [NumRegisters]RegisterRecord
	accessed [NumRegisters]bool
}

// NewRegisters returns a zeroed register file.
func NewRegisters() *Registers {
	return &Registers{}
}

// readPos is the shared body of the position-tagged reads: it marks the
// register accessed and stamps fresh provenance before returning the
// value.
func (r *Registers) readPos(reg uint32, chunk, clk uint32, pos Position) uint32 {
	r.accessed[reg] = true
	r.prov[reg] = RegisterRecord{Chunk: chunk, Timestamp: clk + uint32(pos)}
	if reg == 0 {
		return 0
	}
	return r.values[reg]
}

// ReadA reads a register at operand position A (the write-back operand
// read back, e.g. for a read-modify-write), tagging provenance accordingly.
func (r *Registers) ReadA(reg, chunk, clk uint32) uint32 { return r.readPos(reg, chunk, clk, PosA) }

// ReadB reads a register at operand position B.
func (r *Registers) ReadB(reg, chunk, clk uint32) uint32 { return r.readPos(reg, chunk, clk, PosB) }

// ReadC reads a register at operand position C.
func (r *Registers) ReadC(reg, chunk, clk uint32) uint32 { return r.readPos(reg, chunk, clk, PosC) }

// ReadUnsafe reads a register's value without touching provenance or the
// accessed set, for contexts that are not part of the proved trace (e.g.
// diagnostic dumps).
func (r *Registers) ReadUnsafe(reg uint32) uint32 {
	if reg == 0 {
		return 0
	}
	return r.values[reg]
}

// Provenance returns the last recorded access to a register.
func (r *Registers) Provenance(reg uint32) RegisterRecord {
	return r.prov[reg]
}

// Write sets a register's value and provenance. The x0 value is never
// changed but its provenance and accessed mark still advance, keeping
// the record stream uniform.
func (r *Registers) Write(reg, value, chunk, clk uint32) {
	if reg != 0 {
		r.values[reg] = value
	}
	r.accessed[reg] = true
	r.prov[reg] = RegisterRecord{Chunk: chunk, Timestamp: clk + uint32(PosA)}
}

// Accessed reports whether reg was read or written since the last
// ResetAccessed.
func (r *Registers) Accessed(reg uint32) bool {
	return r.accessed[reg]
}

// ResetAccessed clears the accessed set. The batch driver calls this
// once at batch start; the set then accumulates every register touched
// for the rest of the batch and backs the modified-registers bitmap in
// a BatchSnapshot. An unconstrained-mode exit deliberately does not
// call this, so registers touched inside the bracket remain covered by
// the enclosing batch's snapshot.
func (r *Registers) ResetAccessed() {
	r.accessed = [NumRegisters]bool{}
}

// RegisterSnapshot is a value copy of register state for bracket-level
// rollback. It deliberately excludes the accessed set: unconstrained-mode
// bracket restores roll back values and provenance but never erase the
// record of what was touched while inside the bracket.
type RegisterSnapshot struct {
	values [NumRegisters]uint32
	prov   [NumRegisters]RegisterRecord
}

// Snapshot captures values and provenance.
func (r *Registers) Snapshot() RegisterSnapshot {
	return RegisterSnapshot{values: r.values, prov: r.prov}
}

// Restore replaces values and provenance from a Snapshot, leaving the
// accessed set untouched.
func (r *Registers) Restore(snap RegisterSnapshot) {
	r.values = snap.values
	r.prov = snap.prov
}
