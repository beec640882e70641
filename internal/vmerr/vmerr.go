/*
 * zkriscv - Error taxonomy shared across the emulation core.
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

// Package vmerr defines the sentinel error kinds the emulation core
// reports, so callers can branch on kind with errors.Is rather than on
// message text.
package vmerr

import "errors"

var (
	// ErrInvalidElf covers wrong class/endianness/machine/type or a
	// missing .text section with no executable PT_LOAD fallback.
	ErrInvalidElf = errors.New("vmerr: invalid ELF input")
	// ErrMisalignedPC: PC not a multiple of 4 at a retirement point.
	ErrMisalignedPC = errors.New("vmerr: misaligned program counter")
	// ErrMisalignedMemory: an access whose address violates the
	// alignment the instruction width requires.
	ErrMisalignedMemory = errors.New("vmerr: misaligned memory access")
	// ErrOversizedBlock: a single block exceeds a chunk cap.
	ErrOversizedBlock = errors.New("vmerr: block exceeds chunk size cap")
	// ErrIoExhausted: HINT_READ requested past the end of stdin.
	ErrIoExhausted = errors.New("vmerr: input stream exhausted")
	// ErrUnreachable: an internal invariant was violated.
	ErrUnreachable = errors.New("vmerr: internal invariant violated")
)
