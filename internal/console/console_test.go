package console

/*
 * zkriscv - Console command dispatch tests.
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

import (
	"strings"
	"testing"

	"github.com/rvzk/zkriscv/internal/codegen"
	"github.com/rvzk/zkriscv/internal/core"
	"github.com/rvzk/zkriscv/internal/emulator"
	"github.com/rvzk/zkriscv/internal/program"
	"github.com/rvzk/zkriscv/internal/syscall"
)

func testEmulator() (*emulator.Emulator, emulator.BatchOptions) {
	insts := []program.Instruction{
		{Opcode: program.ADD, Rd: 10, Rs1: 0, Rs2OrImm: 42, ImmCFlag: true},
		{Opcode: program.ADD, Rd: 17, Rs1: 0, Rs2OrImm: syscall.IDHalt, ImmCFlag: true},
		{Opcode: program.ECALL},
	}
	p := program.New(insts, 0x1000, 0x1000, nil)
	c := core.New(p, nil, 0)
	e := emulator.New(codegen.Table{}, syscall.DefaultTable(), c, nil)
	opts := emulator.BatchOptions{ChunkBatchSize: 4, ChunkInsnCap: 1 << 16, ChunkEventCap: 1 << 16}
	return e, opts
}

func TestProcessCommandUnknown(t *testing.T) {
	e, opts := testEmulator()
	quit, err := ProcessCommand("bogus", e, opts)
	if err == nil {
		t.Fatalf("unknown command should fail")
	}
	if quit {
		t.Errorf("unknown command should not quit")
	}
	if !strings.Contains(err.Error(), "unknown command") {
		t.Errorf("error not correct got: %v", err)
	}
}

func TestProcessCommandEmpty(t *testing.T) {
	e, opts := testEmulator()
	quit, err := ProcessCommand("", e, opts)
	if err != nil || quit {
		t.Errorf("empty line not correct got: (%v,%v) expected: (false,nil)", quit, err)
	}
}

func TestProcessCommandQuit(t *testing.T) {
	e, opts := testEmulator()
	quit, err := ProcessCommand("quit", e, opts)
	if err != nil {
		t.Fatalf("quit failed: %v", err)
	}
	if !quit {
		t.Errorf("quit should request exit")
	}
}

func TestRunCommand(t *testing.T) {
	e, opts := testEmulator()
	quit, err := ProcessCommand("run", e, opts)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if quit {
		t.Errorf("run should not quit the console")
	}
	if e.Phase != emulator.Halted {
		t.Errorf("phase not correct got: %d expected: %d", e.Phase, emulator.Halted)
	}
	if got := e.Core.Result(); got != 42 {
		t.Errorf("result not correct got: %d expected: 42", got)
	}
}

func TestBatchCommand(t *testing.T) {
	e, opts := testEmulator()
	quit, err := ProcessCommand("batch", e, opts)
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}
	if quit {
		t.Errorf("batch should not quit the console")
	}
	if e.Phase != emulator.Halted {
		t.Errorf("phase not correct got: %d expected: %d", e.Phase, emulator.Halted)
	}
}

func TestCompleter(t *testing.T) {
	got := completer("qu")
	if len(got) != 1 || got[0] != "quit" {
		t.Errorf("completion not correct got: %v expected: [quit]", got)
	}
	all := completer("")
	found := false
	for _, name := range all {
		if name == "batch" {
			found = true
		}
	}
	if !found {
		t.Errorf("completion of empty line should include batch got: %v", all)
	}
}
