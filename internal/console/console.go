/*
 * zkriscv - Interactive console.
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

// Package console implements a liner-backed REPL over a running
// Emulator: "batch" drives NextStateBatch once, "run" drives it to
// completion, "status" prints phase/chunk/clk, "quit" exits.
package console

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/peterh/liner"
	"github.com/rvzk/zkriscv/internal/emulator"
)

// Command is one REPL verb: Run executes it against the emulator and
// reports whether the REPL should exit.
type Command struct {
	Name string
	Help string
	Run  func(e *emulator.Emulator, opts emulator.BatchOptions, args []string) (quit bool, err error)
}

var commands = map[string]Command{}

func register(c Command) { commands[c.Name] = c }

func init() {
	register(Command{Name: "batch", Help: "run one batch of chunks", Run: cmdBatch})
	register(Command{Name: "run", Help: "run until halted", Run: cmdRun})
	register(Command{Name: "status", Help: "print phase/chunk/clk", Run: cmdStatus})
	register(Command{Name: "quit", Help: "exit the console", Run: cmdQuit})
	register(Command{Name: "help", Help: "list commands", Run: cmdHelp})
}

func cmdBatch(e *emulator.Emulator, opts emulator.BatchOptions, _ []string) (bool, error) {
	_, report := e.NextStateBatch(opts)
	if report.Err != nil {
		return false, report.Err
	}
	fmt.Printf("batch %d: %d chunk(s) closed, done=%v\n", report.BatchIndex, report.ChunksClosed, report.Done)
	return false, nil
}

func cmdRun(e *emulator.Emulator, opts emulator.BatchOptions, _ []string) (bool, error) {
	for {
		_, report := e.NextStateBatch(opts)
		if report.Err != nil {
			return false, report.Err
		}
		if report.Done {
			fmt.Printf("halted after batch %d\n", report.BatchIndex)
			return false, nil
		}
	}
}

func cmdStatus(e *emulator.Emulator, _ emulator.BatchOptions, _ []string) (bool, error) {
	fmt.Printf("phase=%d pc=%#x chunk=%d clk=%d result=%d resident-words=%d\n",
		e.Phase, e.Core.PC, e.Core.CurrentChunk, e.Core.Clk(), e.Core.Result(),
		len(e.Core.Mem.Touched()))
	return false, nil
}

func cmdQuit(*emulator.Emulator, emulator.BatchOptions, []string) (bool, error) {
	return true, nil
}

func cmdHelp(*emulator.Emulator, emulator.BatchOptions, []string) (bool, error) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %-10s %s\n", name, commands[name].Help)
	}
	return false, nil
}

// completer offers every registered command name as a completion.
func completer(line string) []string {
	var out []string
	for name := range commands {
		if strings.HasPrefix(name, line) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// ProcessCommand parses and dispatches a single input line.
func ProcessCommand(line string, e *emulator.Emulator, opts emulator.BatchOptions) (quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	cmd, ok := commands[fields[0]]
	if !ok {
		return false, fmt.Errorf("unknown command %q", fields[0])
	}
	return cmd.Run(e, opts, fields[1:])
}

// Run drives the REPL loop until "quit" or a prompt abort (Ctrl-D).
func Run(e *emulator.Emulator, opts emulator.BatchOptions) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(completer)

	for {
		input, err := line.Prompt("zkriscv> ")
		if err == nil {
			line.AppendHistory(input)
			quit, cmdErr := ProcessCommand(input, e, opts)
			if cmdErr != nil {
				fmt.Println("error: " + cmdErr.Error())
			}
			if quit {
				return
			}
			continue
		}

		if errors.Is(err, liner.ErrPromptAborted) {
			return
		}
		slog.Error("error reading line: " + err.Error())
		return
	}
}
