/*
 * zkriscv - Word-addressable memory store with access provenance.
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

// Memory is sparse, word-addressed RV32 memory. Unlike a fixed-size byte
// array it only materializes the words a program actually touches, which
// keeps a 32-bit address space affordable; addresses must be 4-byte
// aligned, matching the word-granular model the chunk machinery assumes.
type Memory struct {
	words    map[uint32]uint32
	prov     map[uint32]MemoryRecord
	written  map[uint32]struct{} // addresses Store has touched since the last DrainWritten
	diffBase map[uint32]uint32   // pre-write value of each address, as of the last ResetDiff
}

// NewMemory builds an empty memory store seeded with an initial image
// (typically a Program's MemoryImage). Seeded words carry chunk/timestamp
// zero: they are attributed to the program's load, before execution begins.
// Seeding does not count as a write for DrainWritten/ResetDiff's purposes.
func NewMemory(image map[uint32]uint32) *Memory {
	m := &Memory{
		words:    make(map[uint32]uint32, len(image)),
		prov:     make(map[uint32]MemoryRecord, len(image)),
		written:  make(map[uint32]struct{}),
		diffBase: make(map[uint32]uint32),
	}
	for addr, v := range image {
		m.words[addr] = v
		m.prov[addr] = MemoryRecord{Value: v, Chunk: 0, Timestamp: 0}
	}
	return m
}

// Load reads the word at addr along with the provenance of whoever wrote
// it last. An address never written returns (0, zero-record).
func (m *Memory) Load(addr uint32) (uint32, MemoryRecord) {
	v := m.words[addr]
	return v, m.prov[addr]
}

// Read reads the word at addr and stamps its record with the access's
// provenance. A never-touched address materializes an implicit zero
// record on this first touch.
func (m *Memory) Read(addr, chunk, timestamp uint32) uint32 {
	v := m.words[addr]
	if _, ok := m.prov[addr]; !ok {
		m.words[addr] = 0
	}
	m.prov[addr] = MemoryRecord{Value: v, Chunk: chunk, Timestamp: timestamp}
	return v
}

// Store writes a word and stamps it with the access's provenance.
func (m *Memory) Store(addr, value uint32, chunk, timestamp uint32) {
	if _, ok := m.diffBase[addr]; !ok {
		m.diffBase[addr] = m.words[addr] // captures zero for a never-touched address
	}
	m.words[addr] = value
	m.prov[addr] = MemoryRecord{Value: value, Chunk: chunk, Timestamp: timestamp}
	m.written[addr] = struct{}{}
}

// Provenance returns the last-access record for addr without reading its
// value, used by the snapshot machinery to compare cell ownership.
func (m *Memory) Provenance(addr uint32) (MemoryRecord, bool) {
	rec, ok := m.prov[addr]
	return rec, ok
}

// Snapshot returns a deep copy suitable for batch-level rollback.
func (m *Memory) Snapshot() *Memory {
	out := &Memory{
		words: make(map[uint32]uint32, len(m.words)),
		prov:  make(map[uint32]MemoryRecord, len(m.prov)),
	}
	for k, v := range m.words {
		out.words[k] = v
	}
	for k, v := range m.prov {
		out.prov[k] = v
	}
	return out
}

// Restore replaces this memory's contents with a previously taken Snapshot.
func (m *Memory) Restore(snap *Memory) {
	m.words = snap.words
	m.prov = snap.prov
}

// Touched reports every address the store holds a value for, including
// the seeded initial image; used by diagnostics that need the full
// resident set rather than a recency window.
func (m *Memory) Touched() []uint32 {
	out := make([]uint32, 0, len(m.words))
	for addr := range m.words {
		out = append(out, addr)
	}
	return out
}

// DrainWritten returns the addresses written by Store since the last
// DrainWritten call (or since NewMemory) and clears the set. The batch
// driver calls this once per closed chunk to populate that chunk's
// memory-write record without re-scanning the whole sparse store.
func (m *Memory) DrainWritten() []uint32 {
	if len(m.written) == 0 {
		return nil
	}
	out := make([]uint32, 0, len(m.written))
	for addr := range m.written {
		out = append(out, addr)
	}
	m.written = make(map[uint32]struct{})
	return out
}

// ResetDiff clears the pre-write value cache that Store populates; the
// batch driver calls this once at batch start.
func (m *Memory) ResetDiff() {
	m.diffBase = make(map[uint32]uint32)
}

// DiffBase returns, for every address written since the last ResetDiff,
// its value immediately before that first write — the pre-batch value
// a BatchSnapshot needs for its memory delta.
func (m *Memory) DiffBase() map[uint32]uint32 {
	return m.diffBase
}
