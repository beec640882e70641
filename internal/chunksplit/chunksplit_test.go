package chunksplit

/*
 * zkriscv - Chunk-split state machine tests.
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

import "testing"

func TestThresholdDerivation(t *testing.T) {
	th := NewThresholds(1<<20, 1<<22, 64)
	if th.ClkThreshold != (1<<20)*4-64 {
		t.Errorf("clk threshold not correct got: %d expected: %d", th.ClkThreshold, (1<<20)*4-64)
	}
	if th.EventThreshold != 1<<22 {
		t.Errorf("event threshold not correct got: %d expected: %d", th.EventThreshold, 1<<22)
	}
	if th.ClkFastThreshold != th.ClkThreshold-FastPathClkMargin {
		t.Errorf("clk fast threshold not correct got: %d expected: %d",
			th.ClkFastThreshold, th.ClkThreshold-FastPathClkMargin)
	}
	if th.EventFastThreshold != th.EventThreshold-FastPathEventMargin {
		t.Errorf("event fast threshold not correct got: %d expected: %d",
			th.EventFastThreshold, th.EventThreshold-FastPathEventMargin)
	}

	// Small caps clamp the fast thresholds to zero rather than wrapping.
	small := NewThresholds(16, 16, 0)
	if small.ClkFastThreshold != 0 || small.EventFastThreshold != 0 {
		t.Errorf("small-cap fast thresholds not clamped got: %d %d",
			small.ClkFastThreshold, small.EventFastThreshold)
	}
}

func TestBoundaryPredicate(t *testing.T) {
	th := Thresholds{ClkThreshold: 100, EventThreshold: 50, ClkFastThreshold: 80, EventFastThreshold: 40}
	s := New()

	if s.ShouldSplit(th) {
		t.Errorf("fresh state should not split")
	}

	s.Clk = 100
	if !s.ShouldSplit(th) {
		t.Errorf("clk at threshold should split")
	}

	s.Clk = 0
	s.NumMemoryRWEvents = 50
	if !s.ShouldSplit(th) {
		t.Errorf("events at threshold should split")
	}
}

// A chunk never ends mid-syscall, whatever the cycle or event pressure.
func TestNoSplitInSyscall(t *testing.T) {
	th := Thresholds{ClkThreshold: 100, EventThreshold: 50}
	s := New()
	s.Clk = 10000
	s.NumMemoryRWEvents = 10000

	s.EnterSyscall()
	if s.ShouldSplit(th) {
		t.Errorf("split fired mid-syscall")
	}
	if !s.InSyscall() {
		t.Errorf("InSyscall not correct got: false expected: true")
	}
	s.ExitSyscall()
	if !s.ShouldSplit(th) {
		t.Errorf("split should fire after syscall exit")
	}
}

// The fast predicate is a superset of the full predicate: whenever the
// full predicate would fire, the fast one has already fired.
func TestFastPathCoversFull(t *testing.T) {
	th := Thresholds{ClkThreshold: 100, EventThreshold: 50, ClkFastThreshold: 80, EventFastThreshold: 40}
	s := New()
	for clk := uint32(0); clk <= 120; clk += 4 {
		s.Clk = clk
		if s.ShouldSplit(th) && !s.ShouldSplitFast(th) {
			t.Errorf("full predicate fired at clk %d without the fast predicate", clk)
		}
	}
}

func TestReset(t *testing.T) {
	s := New()
	s.Clk = 44
	s.NumMemoryRWEvents = 3
	s.InsertMemoryAddress(0x100)
	s.InsertMemoryAddress(0x104)
	if s.TouchedCount() != 2 {
		t.Errorf("touched count not correct got: %d expected: 2", s.TouchedCount())
	}

	s.Reset()
	if s.Clk != 0 || s.NumMemoryRWEvents != 0 || s.TouchedCount() != 0 {
		t.Errorf("reset not correct got: clk=%d events=%d touched=%d",
			s.Clk, s.NumMemoryRWEvents, s.TouchedCount())
	}
}
