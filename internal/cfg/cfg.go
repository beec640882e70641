/*
 * zkriscv - Basic-block discovery and control-flow graph construction.
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

// Package cfg discovers basic-block leaders and builds a weighted
// control-flow graph used to steer chunk-boundary placement away from
// hot edges (loop back-edges in particular).
package cfg

import (
	"fmt"
	"sort"

	"github.com/rvzk/zkriscv/internal/program"
	"github.com/rvzk/zkriscv/internal/vmerr"
)

// EdgeKind classifies a control-flow edge.
type EdgeKind int

const (
	Fallthrough EdgeKind = iota
	BranchTarget
	JalTarget
)

// Edge is a typed control-flow edge between two block indices.
type Edge struct {
	From, To int
	Kind     EdgeKind
}

// Weights holds the per-kind base edge weight and the back-edge multiplier.
type Weights struct {
	Fallthrough        uint32
	BranchTarget       uint32
	JalTarget          uint32
	BackEdgeMultiplier uint32
}

// DefaultWeights returns the baseline weighting: fallthrough edges are
// cheap to cut, branch/jump targets less so, and back-edges (loops) are
// amplified so the partitioner strongly prefers keeping a loop's blocks
// in one chunk.
func DefaultWeights() Weights {
	return Weights{
		Fallthrough:        1,
		BranchTarget:       4,
		JalTarget:          4,
		BackEdgeMultiplier: 8,
	}
}

// DiscoverBlocks returns the sorted, deduplicated set of leader PCs:
// pc_start, every branch fallthrough, every statically known branch
// target, and every JAL target.
func DiscoverBlocks(p *program.Program) []uint32 {
	leaders := make(map[uint32]struct{})
	leaders[p.PCStart] = struct{}{}

	for i, inst := range p.Instructions {
		pc := p.PCBase + uint32(i)*4
		switch inst.Opcode {
		case program.JAL:
			target := pc + inst.Rs1 // JAL stores its immediate in Rs1
			leaders[target] = struct{}{}
		case program.BEQ, program.BNE, program.BLT, program.BGE, program.BLTU, program.BGEU:
			target := pc + inst.Rs2OrImm
			leaders[target] = struct{}{}
			leaders[pc+4] = struct{}{}
		}
	}

	out := make([]uint32, 0, len(leaders))
	for pc := range leaders {
		if _, ok := p.IndexForPC(pc); ok {
			out = append(out, pc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Graph is the block-indexed edge list plus each block's terminator PC.
type Graph struct {
	BlockPCs      []uint32
	Edges         []Edge
	LastInstPC    []uint32 // last instruction PC per block
	HasTerminator []bool
}

// BuildGraph inspects each block's terminator instruction and emits
// its typed static edges.
func BuildGraph(p *program.Program, blockPCs []uint32) *Graph {
	pcToIdx := make(map[uint32]int, len(blockPCs))
	for idx, pc := range blockPCs {
		pcToIdx[pc] = idx
	}

	g := &Graph{
		BlockPCs:      blockPCs,
		LastInstPC:    make([]uint32, len(blockPCs)),
		HasTerminator: make([]bool, len(blockPCs)),
	}

	for idx, startPC := range blockPCs {
		nextBlockPC := p.End()
		if idx+1 < len(blockPCs) {
			nextBlockPC = blockPCs[idx+1]
		}

		lastPC, ok := blockEndPC(p, startPC, nextBlockPC)
		if !ok {
			continue
		}
		g.LastInstPC[idx] = lastPC

		inst, _ := p.At(lastPC)
		switch inst.Opcode {
		case program.JAL:
			g.HasTerminator[idx] = true
			target := lastPC + inst.Rs1
			if targetIdx, ok := pcToIdx[target]; ok {
				g.Edges = append(g.Edges, Edge{From: idx, To: targetIdx, Kind: JalTarget})
			}

		case program.BEQ, program.BNE, program.BLT, program.BGE, program.BLTU, program.BGEU:
			g.HasTerminator[idx] = true
			target := lastPC + inst.Rs2OrImm
			fallthroughPC := lastPC + 4
			if targetIdx, ok := pcToIdx[target]; ok {
				g.Edges = append(g.Edges, Edge{From: idx, To: targetIdx, Kind: BranchTarget})
			}
			if fallIdx, ok := pcToIdx[fallthroughPC]; ok {
				g.Edges = append(g.Edges, Edge{From: idx, To: fallIdx, Kind: Fallthrough})
			}

		case program.JALR, program.ECALL, program.EBREAK:
			g.HasTerminator[idx] = true
			// dynamic targets: no static edge

		default:
			// non-terminator: handled in the fallthrough pass below
		}
	}

	// Implicit fallthrough edges for non-terminated blocks whose successor
	// is the sequential next block.
	for idx := 0; idx < len(blockPCs)-1; idx++ {
		if g.HasTerminator[idx] {
			continue
		}
		nextPC := blockPCs[idx+1]
		expected := g.LastInstPC[idx] + 4
		if nextPC != expected {
			continue
		}
		if hasEdge(g.Edges, idx, idx+1) {
			continue
		}
		g.Edges = append(g.Edges, Edge{From: idx, To: idx + 1, Kind: Fallthrough})
	}

	return g
}

func hasEdge(edges []Edge, from, to int) bool {
	for _, e := range edges {
		if e.From == from && e.To == to {
			return true
		}
	}
	return false
}

// blockEndPC walks forward from the leader to find the block's last
// instruction: its first terminator, or failing that the last decoded
// instruction strictly before the next leader. Instructions between a
// terminator and the next leader are unreachable padding and belong to
// no block.
func blockEndPC(p *program.Program, startPC, nextBlockPC uint32) (uint32, bool) {
	last := uint32(0)
	found := false
	for pc := startPC; pc < nextBlockPC; pc += 4 {
		inst, ok := p.At(pc)
		if !ok {
			break
		}
		last = pc
		found = true
		if inst.IsTerminator() {
			break
		}
	}
	return last, found
}

func edgeWeight(w Weights, kind EdgeKind, fromPC, toPC uint32) uint32 {
	var base uint32
	switch kind {
	case Fallthrough:
		base = w.Fallthrough
	case BranchTarget:
		base = w.BranchTarget
	case JalTarget:
		base = w.JalTarget
	}
	if toPC < fromPC { // back-edge: loop
		base *= w.BackEdgeMultiplier
	}
	return base
}

// BlockInsnCounts returns each block's instruction count: the distance
// to the next leader (or program end) in words.
func (g *Graph) BlockInsnCounts(p *program.Program) []int {
	out := make([]int, len(g.BlockPCs))
	for i, pc := range g.BlockPCs {
		end := p.End()
		if i+1 < len(g.BlockPCs) {
			end = g.BlockPCs[i+1]
		}
		out[i] = int(end-pc) / 4
	}
	return out
}

// BlockEventEstimates returns each block's estimated memory-event
// contribution: the count of its register-writing instructions (stores
// and branches write no register).
func (g *Graph) BlockEventEstimates(p *program.Program) []int {
	out := make([]int, len(g.BlockPCs))
	for i, pc := range g.BlockPCs {
		end := p.End()
		if i+1 < len(g.BlockPCs) {
			end = g.BlockPCs[i+1]
		}
		n := 0
		for cursor := pc; cursor < end; cursor += 4 {
			inst, ok := p.At(cursor)
			if !ok {
				break
			}
			switch inst.Opcode {
			case program.SB, program.SH, program.SW,
				program.BEQ, program.BNE, program.BLT, program.BGE, program.BLTU, program.BGEU:
			default:
				n++
			}
		}
		out[i] = n
	}
	return out
}

// CutPenalties computes, for every boundary k (between block k and k+1),
// the sum of weights of edges whose endpoints straddle k, using the
// difference-array / prefix-sum technique in linear time.
func (g *Graph) CutPenalties(w Weights) ([]uint32, error) {
	numBlocks := len(g.BlockPCs)
	if numBlocks == 0 {
		return nil, nil
	}
	diff := make([]int64, numBlocks)

	for _, e := range g.Edges {
		fromPC, toPC := g.BlockPCs[e.From], g.BlockPCs[e.To]
		weight := int64(edgeWeight(w, e.Kind, fromPC, toPC))
		minIdx, maxIdx := e.From, e.To
		if minIdx > maxIdx {
			minIdx, maxIdx = maxIdx, minIdx
		}
		if minIdx == maxIdx {
			continue
		}
		diff[minIdx] += weight
		if maxIdx < numBlocks {
			diff[maxIdx] -= weight
		}
	}

	numBoundaries := numBlocks - 1
	if numBoundaries < 0 {
		numBoundaries = 0
	}
	penalties := make([]uint32, 0, numBoundaries)
	var running int64
	for i := 0; i < numBoundaries; i++ {
		running += diff[i]
		if running < 0 {
			return nil, fmt.Errorf("%w: negative cut penalty at boundary %d", vmerr.ErrUnreachable, i)
		}
		penalties = append(penalties, uint32(running))
	}
	return penalties, nil
}
