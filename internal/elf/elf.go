/*
 * zkriscv - Minimal ELF32/RISC-V loader: extracts the entry PC and the
 * .text bytes a Program is built from; no initial memory image is loaded.
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

// Package elf extracts the pieces a Program needs from a 32-bit
// little-endian RISC-V ELF executable: the .text section (falling back
// to the lowest executable PT_LOAD segment when no section table is
// present), pc_base, and the entry PC.
package elf

import (
	"encoding/binary"
	"fmt"

	"github.com/rvzk/zkriscv/internal/decode"
	"github.com/rvzk/zkriscv/internal/program"
	"github.com/rvzk/zkriscv/internal/vmerr"
)

const (
	elfMagic0 = 0x7f
	elfMagic1 = 'E'
	elfMagic2 = 'L'
	elfMagic3 = 'F'

	classELF32  = 1
	dataLSB     = 1
	typeExec    = 2
	typeDyn     = 3
	machineRISCV = 0xf3

	shtProgBits = 1
	ptLoad      = 1
	pfExecute   = 1 << 0

	ehdrSize = 52
	shdrSize = 40
	phdrSize = 32
)

type elfHeader struct {
	entry     uint32
	phOff     uint32
	shOff     uint32
	phEntSize uint16
	phNum     uint16
	shEntSize uint16
	shNum     uint16
	shStrNdx  uint16
}

type sectionHeader struct {
	name uint32
	typ  uint32
	addr uint32
	off  uint32
	size uint32
}

type programHeader struct {
	typ   uint32
	off   uint32
	vaddr uint32
	flags uint32
	size  uint32
}

// Load parses a raw ELF32/RISC-V image and returns a decoded Program.
func Load(data []byte) (*program.Program, error) {
	hdr, err := parseHeader(data)
	if err != nil {
		return nil, err
	}

	text, pcBase, err := extractText(data, hdr)
	if err != nil {
		return nil, err
	}

	instructions := make([]program.Instruction, len(text)/4)
	for i := range instructions {
		word := binary.LittleEndian.Uint32(text[i*4:])
		instructions[i] = decode.Word(word)
	}

	return program.New(instructions, pcBase, hdr.entry, nil), nil
}

func parseHeader(data []byte) (elfHeader, error) {
	if len(data) < ehdrSize {
		return elfHeader{}, fmt.Errorf("%w: file too short for ELF header", vmerr.ErrInvalidElf)
	}
	if data[0] != elfMagic0 || data[1] != elfMagic1 || data[2] != elfMagic2 || data[3] != elfMagic3 {
		return elfHeader{}, fmt.Errorf("%w: bad magic", vmerr.ErrInvalidElf)
	}
	if data[4] != classELF32 {
		return elfHeader{}, fmt.Errorf("%w: not a 32-bit ELF", vmerr.ErrInvalidElf)
	}
	if data[5] != dataLSB {
		return elfHeader{}, fmt.Errorf("%w: not little-endian", vmerr.ErrInvalidElf)
	}

	etype := binary.LittleEndian.Uint16(data[16:])
	if etype != typeExec && etype != typeDyn {
		return elfHeader{}, fmt.Errorf("%w: not an executable or PIE", vmerr.ErrInvalidElf)
	}

	machine := binary.LittleEndian.Uint16(data[18:])
	if machine != machineRISCV {
		return elfHeader{}, fmt.Errorf("%w: not a RISC-V machine type", vmerr.ErrInvalidElf)
	}

	return elfHeader{
		entry:     binary.LittleEndian.Uint32(data[24:]),
		phOff:     binary.LittleEndian.Uint32(data[28:]),
		shOff:     binary.LittleEndian.Uint32(data[32:]),
		phEntSize: binary.LittleEndian.Uint16(data[42:]),
		phNum:     binary.LittleEndian.Uint16(data[44:]),
		shEntSize: binary.LittleEndian.Uint16(data[46:]),
		shNum:     binary.LittleEndian.Uint16(data[48:]),
		shStrNdx:  binary.LittleEndian.Uint16(data[50:]),
	}, nil
}

// extractText locates the .text section by name; if absent, it falls
// back to the lowest executable PT_LOAD segment.
func extractText(data []byte, hdr elfHeader) ([]byte, uint32, error) {
	if sec, ok := findTextSection(data, hdr); ok {
		if int(sec.off+sec.size) > len(data) {
			return nil, 0, fmt.Errorf("%w: .text section exceeds file bounds", vmerr.ErrInvalidElf)
		}
		return data[sec.off : sec.off+sec.size], sec.addr, nil
	}

	if seg, ok := lowestExecSegment(data, hdr); ok {
		if int(seg.off+seg.size) > len(data) {
			return nil, 0, fmt.Errorf("%w: executable segment exceeds file bounds", vmerr.ErrInvalidElf)
		}
		return data[seg.off : seg.off+seg.size], seg.vaddr, nil
	}

	return nil, 0, fmt.Errorf("%w: no .text section and no executable PT_LOAD segment", vmerr.ErrInvalidElf)
}

func findTextSection(data []byte, hdr elfHeader) (sectionHeader, bool) {
	if hdr.shNum == 0 || int(hdr.shStrNdx) >= int(hdr.shNum) {
		return sectionHeader{}, false
	}
	sections := make([]sectionHeader, hdr.shNum)
	for i := 0; i < int(hdr.shNum); i++ {
		off := hdr.shOff + uint32(i)*uint32(hdr.shEntSize)
		if int(off+shdrSize) > len(data) {
			return sectionHeader{}, false
		}
		sections[i] = sectionHeader{
			name: binary.LittleEndian.Uint32(data[off:]),
			typ:  binary.LittleEndian.Uint32(data[off+4:]),
			addr: binary.LittleEndian.Uint32(data[off+12:]),
			off:  binary.LittleEndian.Uint32(data[off+16:]),
			size: binary.LittleEndian.Uint32(data[off+20:]),
		}
	}

	strTab := sections[hdr.shStrNdx]
	for _, sec := range sections {
		if sec.typ != shtProgBits {
			continue
		}
		if sectionName(data, strTab, sec.name) == ".text" {
			return sec, true
		}
	}
	return sectionHeader{}, false
}

func sectionName(data []byte, strTab sectionHeader, nameOff uint32) string {
	start := strTab.off + nameOff
	if int(start) >= len(data) {
		return ""
	}
	end := start
	for int(end) < len(data) && data[end] != 0 {
		end++
	}
	return string(data[start:end])
}

func lowestExecSegment(data []byte, hdr elfHeader) (programHeader, bool) {
	var best programHeader
	found := false
	for i := 0; i < int(hdr.phNum); i++ {
		off := hdr.phOff + uint32(i)*uint32(hdr.phEntSize)
		if int(off+phdrSize) > len(data) {
			break
		}
		ph := programHeader{
			typ:   binary.LittleEndian.Uint32(data[off:]),
			off:   binary.LittleEndian.Uint32(data[off+4:]),
			vaddr: binary.LittleEndian.Uint32(data[off+8:]),
			flags: binary.LittleEndian.Uint32(data[off+24:]),
			size:  binary.LittleEndian.Uint32(data[off+16:]),
		}
		if ph.typ != ptLoad || ph.flags&pfExecute == 0 {
			continue
		}
		if !found || ph.vaddr < best.vaddr {
			best = ph
			found = true
		}
	}
	return best, found
}
