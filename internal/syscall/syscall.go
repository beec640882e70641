/*
 * zkriscv - Syscall and precompile dispatch table: host handlers invoked
 * via ECALL.
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

// Package syscall builds the fixed id-to-handler table ECALL dispatches
// through. Handlers read arguments and write results via the core's
// tracked register/memory paths so their accesses participate in the
// same provenance stream as ordinary instructions.
package syscall

import (
	"github.com/rvzk/zkriscv/internal/core"
	"github.com/rvzk/zkriscv/internal/interp"
	"github.com/rvzk/zkriscv/internal/state"
	"github.com/rvzk/zkriscv/internal/vmerr"
)

// Well-known syscall ids, read from a7/x17 at ECALL time.
const (
	IDHalt                 uint32 = 0
	IDHintLen              uint32 = 1
	IDHintRead             uint32 = 2
	IDWrite                uint32 = 3
	IDCommit               uint32 = 4
	IDCommitDeferredProofs uint32 = 5
	IDEnterUnconstrained   uint32 = 6
	IDExitUnconstrained    uint32 = 7

	IDSha256Extend      uint32 = 8
	IDSha256Compress    uint32 = 9
	IDKeccakPermute     uint32 = 10
	IDEdAdd             uint32 = 11
	IDEdDecompress      uint32 = 12
	IDSecp256k1Add      uint32 = 13
	IDSecp256k1Double   uint32 = 14
	IDSecp256k1Decomp   uint32 = 15
	IDUint256Mul        uint32 = 16
	IDPoseidon2Permute  uint32 = 17
)

// MaxExtraCycles bounds the extra clk a handler may add beyond the
// retirement quantum already charged by the driver; used to derive the
// chunk-split clk threshold so a syscall begun near a chunk's edge can
// never overflow it.
const MaxExtraCycles uint32 = 64

// Word counts for the span-oriented precompiles below, taken from the
// field/curve/hash parameters the operations are named after (256-bit
// field elements and curve points as 8/16-word little-endian spans, a
// 64-word SHA-256 message schedule, a 50-word/25-lane Keccak state, and
// a 16-word Poseidon2 state).
const (
	fieldElementWords   = 8
	curvePointWords     = 2 * fieldElementWords
	sha256ScheduleWords = 64
	sha256StateWords    = 8
	keccakStateWords    = 50
	poseidon2Words      = 16
)

// DefaultTable returns the fixed syscall dispatch table.
func DefaultTable() interp.Table {
	return interp.Table{
		IDHalt:                 halt,
		IDHintLen:              hintLen,
		IDHintRead:             hintRead,
		IDWrite:                write,
		IDCommit:               commit,
		IDCommitDeferredProofs: commitDeferredProofs,
		IDEnterUnconstrained:   enterUnconstrained,
		IDExitUnconstrained:    exitUnconstrained,

		IDSha256Extend:     sha256Extend,
		IDSha256Compress:   sha256Compress,
		IDKeccakPermute:    keccakPermute,
		IDEdAdd:            edAdd,
		IDEdDecompress:     edDecompress,
		IDSecp256k1Add:     secp256k1Add,
		IDSecp256k1Double:  secp256k1Double,
		IDSecp256k1Decomp:  secp256k1Decompress,
		IDUint256Mul:       uint256Mul,
		IDPoseidon2Permute: poseidon2Permute,
	}
}

// halt is the distinguished handler signaling program termination.
func halt(c *core.Core) (bool, error) {
	return true, nil
}

// hintLen reports the byte length of the next unread input-stream entry,
// via a0, without consuming it.
func hintLen(c *core.Core) (bool, error) {
	if c.InputStreamPtr >= len(c.InputStream) {
		c.WriteReg(10, 0, state.WriteTracked)
		return false, nil
	}
	c.WriteReg(10, uint32(len(c.InputStream[c.InputStreamPtr])), state.WriteTracked)
	return false, nil
}

// hintRead pops the next input-stream entry and writes it word-by-word
// (little-endian, zero-padded) starting at the address in a0.
func hintRead(c *core.Core) (bool, error) {
	if c.InputStreamPtr >= len(c.InputStream) {
		return true, vmerr.ErrIoExhausted
	}
	addr := c.ReadReg(10, state.PosB)
	data := c.InputStream[c.InputStreamPtr]
	c.InputStreamPtr++

	for i := 0; i < len(data); i += 4 {
		var word uint32
		for j := 0; j < 4 && i+j < len(data); j++ {
			word |= uint32(data[i+j]) << (8 * j)
		}
		c.WriteWord(addr+uint32(i), word, state.PosA)
	}
	return false, nil
}

// write appends fd-tagged bytes to stdout/stderr, sourced from a span of
// memory at (addr=a1, len=a2); a0 selects the file descriptor (1=stdout,
// 2=stderr).
func write(c *core.Core) (bool, error) {
	fd := c.ReadReg(10, state.PosB)
	addr := c.ReadReg(11, state.PosC)
	length := c.ReadReg(12, state.PosC)

	buf := make([]byte, 0, length)
	for i := uint32(0); i < length; i += 4 {
		word := c.ReadWord(addr+i, state.PosB)
		for j := uint32(0); j < 4 && i+j < length; j++ {
			buf = append(buf, byte(word>>(8*j)))
		}
	}
	if fd == 2 {
		c.Stderr = append(c.Stderr, buf...)
	} else {
		c.Stdout = append(c.Stdout, buf...)
	}
	return false, nil
}

// commit appends a word to the public-values stream and folds it into
// the committed-value digest at the word index given in a0.
func commit(c *core.Core) (bool, error) {
	wordIdx := c.ReadReg(10, state.PosB)
	value := c.ReadReg(11, state.PosC)
	if int(wordIdx) < len(c.CommittedValueDigest) {
		c.CommittedValueDigest[wordIdx] = value
	}
	c.PublicValuesStream = append(c.PublicValuesStream,
		byte(value), byte(value>>8), byte(value>>16), byte(value>>24))
	return false, nil
}

// commitDeferredProofs folds a word into the deferred-proofs digest.
func commitDeferredProofs(c *core.Core) (bool, error) {
	wordIdx := c.ReadReg(10, state.PosB)
	value := c.ReadReg(11, state.PosC)
	if int(wordIdx) < len(c.DeferredProofsDigest) {
		c.DeferredProofsDigest[wordIdx] = value
	}
	return false, nil
}

// enterUnconstrained opens the bracket and returns 1 in a0. The write
// happens after the state save, so it is itself rolled back on exit:
// when execution resumes at the instruction after this syscall the
// second time, a0 holds the 0 exitUnconstrained wrote instead, letting
// the guest branch over the bracketed region.
func enterUnconstrained(c *core.Core) (bool, error) {
	c.EnterUnconstrained()
	c.WriteReg(10, 1, state.WriteTracked)
	return false, nil
}

// exitUnconstrained rolls the bracket back (restoring PC to the enter
// syscall, so retirement resumes at the instruction after it) and then
// writes 0 to a0, post-restore.
func exitUnconstrained(c *core.Core) (bool, error) {
	c.ExitUnconstrained()
	c.WriteReg(10, 0, state.WriteTracked)
	return false, nil
}

// addExtraCycles bumps clk by a handler-specific amount beyond the
// retirement quantum the driver already charged for the ECALL itself,
// capped at the core's configured bound so the chunk-split threshold
// derived from it is never exceeded.
func addExtraCycles(c *core.Core, n uint32) {
	if n > c.MaxSyscallExtraCycles {
		n = c.MaxSyscallExtraCycles
	}
	c.Split.Clk += n
}

// pointAdd performs the register/memory side effects of a curve point
// addition precompile: read two num_words-word affine points at p_ptr
// (a0) and q_ptr (a1), and overwrite p_ptr with the result. The
// destination span is read untracked since its only surviving record
// is the overwrite; q is read tracked at the current clock. The host
// emulator never computes the real curve arithmetic, which belongs to
// the proving chips downstream of the record stream, so the "result"
// is the XOR of the two operands, which
// keeps the write dependent on both inputs without claiming a
// cryptographic answer.
func pointAdd(c *core.Core, numWords int, extraCycles uint32) (bool, error) {
	pPtr := c.ReadReg(10, state.PosB)
	qPtr := c.ReadReg(11, state.PosC)

	p := make([]uint32, numWords)
	q := make([]uint32, numWords)
	c.ReadSpanSnapshot(pPtr, p)
	c.ReadSpan(qPtr, q)

	result := make([]uint32, numWords)
	for i := range result {
		result[i] = p[i] ^ q[i]
	}
	c.WriteSpan(pPtr, result)
	addExtraCycles(c, extraCycles)
	return false, nil
}

// pointDouble performs the side effects of a curve point doubling
// precompile: read a num_words-word affine point at p_ptr (a0), and
// overwrite it with its stub-doubled value (first and last words
// swapped, a host-visible-effects-only stand-in like pointAdd's XOR).
func pointDouble(c *core.Core, numWords int, extraCycles uint32) (bool, error) {
	pPtr := c.ReadReg(10, state.PosB)

	p := make([]uint32, numWords)
	c.ReadSpanSnapshot(pPtr, p)

	result := make([]uint32, numWords)
	copy(result, p)
	if numWords > 0 {
		result[0], result[numWords-1] = result[numWords-1], result[0]
	}
	// single-operand: the destination was only snapshot-read, so the
	// overwrite lands at plain clk
	c.WriteSpanAtClk(pPtr, result, c.Split.Clk)
	addExtraCycles(c, extraCycles)
	return false, nil
}

// pointDecompress performs the side effects of a curve decompression
// precompile: read the compressed half of a point (the second
// numWords/2 words at slicePtr) plus a sign bit in a1, and write the
// decompressed half back into the first numWords/2 words of slicePtr.
func pointDecompress(c *core.Core, numWords int, extraCycles uint32) (bool, error) {
	slicePtr := c.ReadReg(10, state.PosB)
	sign := c.ReadReg(11, state.PosC)
	half := numWords / 2

	compressed := make([]uint32, half)
	c.ReadSpan(slicePtr+uint32(half)*4, compressed)

	decompressed := make([]uint32, half)
	for i := range decompressed {
		decompressed[i] = compressed[i] ^ sign
	}
	// the written half is disjoint from the half read at clk, so the
	// write also lands at plain clk
	c.WriteSpanAtClk(slicePtr, decompressed, c.Split.Clk)
	addExtraCycles(c, extraCycles)
	return false, nil
}

// edAdd is the Edwards-curve (Ed25519) point addition precompile.
func edAdd(c *core.Core) (bool, error) { return pointAdd(c, curvePointWords, 4) }

// edDecompress is the Edwards-curve point decompression precompile.
func edDecompress(c *core.Core) (bool, error) { return pointDecompress(c, curvePointWords, 4) }

// secp256k1Add is the secp256k1 Weierstrass-curve point addition precompile.
func secp256k1Add(c *core.Core) (bool, error) { return pointAdd(c, curvePointWords, 8) }

// secp256k1Double is the secp256k1 point doubling precompile.
func secp256k1Double(c *core.Core) (bool, error) { return pointDouble(c, curvePointWords, 8) }

// secp256k1Decompress is the secp256k1 point decompression precompile.
func secp256k1Decompress(c *core.Core) (bool, error) { return pointDecompress(c, curvePointWords, 8) }

// sha256Extend performs the side effects of extending a 64-word SHA-256
// message schedule in place at the pointer in a0: the low 16 words
// (the original message block) are left untouched and the remaining 48
// are derived from a fixed rolling combination of earlier words. As
// with the curve precompiles this does not reproduce the real SHA-256
// schedule function, only its memory access shape.
func sha256Extend(c *core.Core) (bool, error) {
	ptr := c.ReadReg(10, state.PosB)
	words := make([]uint32, sha256ScheduleWords)
	c.ReadSpan(ptr, words)
	for i := 16; i < sha256ScheduleWords; i++ {
		words[i] = words[i-16] ^ words[i-15] ^ words[i-7] ^ words[i-2]
	}
	c.WriteSpan(ptr+16*4, words[16:])
	addExtraCycles(c, 16)
	return false, nil
}

// sha256Compress performs the side effects of one SHA-256 compression
// round: read the 8-word state at a0 and the 64-word schedule at a1,
// and overwrite the state with a stub combination of both.
func sha256Compress(c *core.Core) (bool, error) {
	statePtr := c.ReadReg(10, state.PosB)
	schedulePtr := c.ReadReg(11, state.PosC)

	state8 := make([]uint32, sha256StateWords)
	c.ReadSpan(statePtr, state8)
	schedule := make([]uint32, sha256ScheduleWords)
	c.ReadSpan(schedulePtr, schedule)

	for i := range state8 {
		state8[i] += schedule[i] + schedule[sha256ScheduleWords-1-i]
	}
	c.WriteSpan(statePtr, state8)
	addExtraCycles(c, 32)
	return false, nil
}

// keccakPermute performs the side effects of the Keccak-f[1600]
// permutation on the 50-word (25-lane) state at the pointer in a0.
func keccakPermute(c *core.Core) (bool, error) {
	ptr := c.ReadReg(10, state.PosB)
	lanes := make([]uint32, keccakStateWords)
	c.ReadSpan(ptr, lanes)
	for i := range lanes {
		lanes[i] = lanes[i]<<1 | lanes[i]>>31
		lanes[i] ^= lanes[(i+1)%len(lanes)]
	}
	c.WriteSpan(ptr, lanes)
	addExtraCycles(c, 24)
	return false, nil
}

// poseidon2Permute performs the side effects of the Poseidon2
// permutation on the 16-word state at the pointer in a0.
func poseidon2Permute(c *core.Core) (bool, error) {
	ptr := c.ReadReg(10, state.PosB)
	words := make([]uint32, poseidon2Words)
	c.ReadSpan(ptr, words)
	var sum uint32
	for _, w := range words {
		sum += w
	}
	for i := range words {
		words[i] += sum
	}
	c.WriteSpan(ptr, words)
	addExtraCycles(c, 8)
	return false, nil
}

// uint256Mul performs the side effects of a 256-bit modular
// multiplication precompile: read the two 8-word operands at x_ptr
// (a0) and y_ptr (a1) plus an 8-word modulus at a2, and overwrite
// x_ptr with a stub combination of all three, matching the host-visible
// read/write shape of the real operation without computing it.
func uint256Mul(c *core.Core) (bool, error) {
	xPtr := c.ReadReg(10, state.PosB)
	yPtr := c.ReadReg(11, state.PosC)
	modPtr := c.ReadReg(12, state.PosC)

	x := make([]uint32, fieldElementWords)
	y := make([]uint32, fieldElementWords)
	mod := make([]uint32, fieldElementWords)
	c.ReadSpan(xPtr, x)
	c.ReadSpan(yPtr, y)
	c.ReadSpan(modPtr, mod)

	result := make([]uint32, fieldElementWords)
	for i := range result {
		m := mod[i]
		if m == 0 {
			m = 1
		}
		result[i] = (x[i] + y[i]) % m
	}
	c.WriteSpan(xPtr, result)
	addExtraCycles(c, 16)
	return false, nil
}
