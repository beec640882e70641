/*
 * zkriscv - Chunk partitioner: DP-optimal cut selection under size/penalty caps.
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

// Package chunk selects chunk boundaries over a block sequence: a
// dynamic program that minimizes the total CFG cut penalty subject to
// a per-chunk instruction-count cap and a per-chunk estimated
// memory-event cap.
package chunk

import (
	"fmt"

	"github.com/rvzk/zkriscv/internal/vmerr"
)

// ErrOversizedBlock is returned when a single block exceeds either cap;
// the partitioner cannot proceed and the caller must raise caps or
// refuse the program.
var ErrOversizedBlock = fmt.Errorf("chunk: %w", vmerr.ErrOversizedBlock)

// Caps bounds a single chunk.
type Caps struct {
	MaxInsns  int
	MaxEvents int
}

const maxCost = int64(1) << 62

// Partition computes cut indices (each a block index marking the last
// block of a chunk) over blockInsnCounts/blockEventCounts such that
// every chunk satisfies both caps and the sum of penalties at the
// chosen cuts is minimal. Ties are broken first by fewest chunks, then
// by the leftmost cut sequence.
//
// penalties[k] is the cost of cutting after block k (i.e. the boundary
// between block k and block k+1); len(penalties) == len(blockInsnCounts)-1.
func Partition(blockInsnCounts, blockEventCounts []int, penalties []uint32, caps Caps) ([]int, error) {
	n := len(blockInsnCounts)
	if n == 0 {
		return nil, nil
	}
	for i := 0; i < n; i++ {
		if blockInsnCounts[i] > caps.MaxInsns || blockEventCounts[i] > caps.MaxEvents {
			return nil, ErrOversizedBlock
		}
	}

	// prefix sums for O(1) range-sum queries
	prefixInsns := make([]int, n+1)
	prefixEvents := make([]int, n+1)
	for i := 0; i < n; i++ {
		prefixInsns[i+1] = prefixInsns[i] + blockInsnCounts[i]
		prefixEvents[i+1] = prefixEvents[i] + blockEventCounts[i]
	}

	// best[k] = minimum total penalty to have partitioned blocks [0..k)
	// into complete chunks, where k is a boundary position (0..n).
	// chunks[k] = number of chunks used to reach boundary k (for tie-break).
	// from[k] = predecessor boundary chosen.
	best := make([]int64, n+1)
	chunks := make([]int, n+1)
	from := make([]int, n+1)
	for i := 1; i <= n; i++ {
		best[i] = maxCost
		from[i] = -1
	}

	for k := 1; k <= n; k++ {
		// j ranges over candidate previous boundaries; chunk is blocks [j..k).
		for j := k - 1; j >= 0; j-- {
			insns := prefixInsns[k] - prefixInsns[j]
			events := prefixEvents[k] - prefixEvents[j]
			if insns > caps.MaxInsns || events > caps.MaxEvents {
				break // further j only makes the chunk bigger
			}
			if best[j] == maxCost {
				continue
			}
			var cutCost int64
			if k < n { // a real boundary; k==n has no cut after the last block
				cutCost = int64(penalties[k-1])
			}
			cost := best[j] + cutCost
			candidateChunks := chunks[j] + 1
			// Tie-break: fewer chunks wins; among equal chunk counts the
			// smallest j (leftmost cut) wins. j is scanned descending, so
			// an equal-or-better candidate at a smaller j must replace the
			// current choice to honor "leftmost cut".
			better := cost < best[k] ||
				(cost == best[k] && candidateChunks < chunks[k]) ||
				(cost == best[k] && candidateChunks == chunks[k])
			if better {
				best[k] = cost
				chunks[k] = candidateChunks
				from[k] = j
			}
		}
	}

	if best[n] == maxCost {
		return nil, ErrOversizedBlock
	}

	// Walk predecessors back from n to recover each chunk's last block
	// index (k-1), in ascending order. The final entry is always n-1.
	var cuts []int
	for k := n; k > 0; {
		cuts = append(cuts, k-1)
		k = from[k]
	}
	for i, j := 0, len(cuts)-1; i < j; i, j = i+1, j-1 {
		cuts[i], cuts[j] = cuts[j], cuts[i]
	}
	return cuts, nil
}
