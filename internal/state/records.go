/*
 * zkriscv - Register and memory provenance records.
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

// Package state implements the register file and word-addressable
// memory store, both with per-cell provenance: the (chunk, timestamp)
// pair of the access that last touched a register or memory word.
package state

// Position identifies which operand slot of an instruction a register
// access belongs to; the three positions of one instruction are totally
// ordered by adding the position to the chunk-local clock.
type Position uint32

const (
	PosA Position = 0 // write position
	PosB Position = 1 // read position B
	PosC Position = 2 // read position C
)

// RegisterRecord is the provenance of the last access to a register.
type RegisterRecord struct {
	Chunk     uint32
	Timestamp uint32
}

// MemoryRecord is the value and provenance of a memory word.
type MemoryRecord struct {
	Value     uint32
	Chunk     uint32
	Timestamp uint32
}
