/*
 * zkriscv - Configuration file parser
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

// Package rvconfig parses the directive-line configuration file the CLI
// accepts for tuning a run: one whitespace-separated "directive value"
// pair per line, '#' starting a comment that runs to end of line, blank
// lines ignored.
//
// Configuration file format:
//
//	<line>      := <directive> <whitespace> <value> | 'debug' | <comment>
//	<comment>   := '#' *<any>
//	<directive> := 'chunk_insn_cap' | 'chunk_event_cap' |
//	               'chunk_batch_size' | 'max_syscall_extra_cycles' |
//	               'input_file' | 'log'
package rvconfig

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Config holds the batch-tuning knobs and ambient settings a run can
// override from their built-in defaults.
type Config struct {
	ChunkInsnCap          uint32
	ChunkEventCap         uint32
	ChunkBatchSize        uint32
	MaxSyscallExtraCycles uint32
	InputFiles            []string
	LogFile               string
	Debug                 bool
}

// Default returns the built-in tuning defaults, used when no config
// file is given or a directive is absent from it.
func Default() Config {
	return Config{
		ChunkInsnCap:          1 << 20,
		ChunkEventCap:         1 << 22,
		ChunkBatchSize:        8,
		MaxSyscallExtraCycles: 64,
		LogFile:               "zkriscv.log",
	}
}

var lineNumber int

// Parse reads directive lines from r, applying each one on top of cfg
// and returning the updated value. lineNumber is tracked module-wide so
// error messages from a multi-file load still read naturally.
func Parse(r io.Reader, cfg Config) (Config, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineNumber++
		line := scanner.Text()
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		directive := strings.ToLower(fields[0])
		rest := fields[1:]

		var err error
		cfg, err = applyDirective(cfg, directive, rest)
		if err != nil {
			return cfg, fmt.Errorf("line %d: %w", lineNumber, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyDirective(cfg Config, directive string, args []string) (Config, error) {
	need := func(n int) error {
		if len(args) < n {
			return fmt.Errorf("directive %q needs %d argument(s)", directive, n)
		}
		return nil
	}

	switch directive {
	case "chunk_insn_cap":
		if err := need(1); err != nil {
			return cfg, err
		}
		v, err := parseUint(args[0])
		if err != nil {
			return cfg, err
		}
		cfg.ChunkInsnCap = v
	case "chunk_event_cap":
		if err := need(1); err != nil {
			return cfg, err
		}
		v, err := parseUint(args[0])
		if err != nil {
			return cfg, err
		}
		cfg.ChunkEventCap = v
	case "chunk_batch_size":
		if err := need(1); err != nil {
			return cfg, err
		}
		v, err := parseUint(args[0])
		if err != nil {
			return cfg, err
		}
		cfg.ChunkBatchSize = v
	case "max_syscall_extra_cycles":
		if err := need(1); err != nil {
			return cfg, err
		}
		v, err := parseUint(args[0])
		if err != nil {
			return cfg, err
		}
		cfg.MaxSyscallExtraCycles = v
	case "input_file":
		if err := need(1); err != nil {
			return cfg, err
		}
		cfg.InputFiles = append(cfg.InputFiles, args[0])
	case "log":
		if err := need(1); err != nil {
			return cfg, err
		}
		cfg.LogFile = args[0]
	case "debug":
		cfg.Debug = true
	default:
		return cfg, fmt.Errorf("unknown directive %q", directive)
	}
	return cfg, nil
}

func parseUint(s string) (uint32, error) {
	mult := uint64(1)
	switch {
	case strings.HasSuffix(s, "K") || strings.HasSuffix(s, "k"):
		mult = 1 << 10
		s = s[:len(s)-1]
	case strings.HasSuffix(s, "M") || strings.HasSuffix(s, "m"):
		mult = 1 << 20
		s = s[:len(s)-1]
	}
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid numeric value %q: %w", s, err)
	}
	return uint32(v * mult), nil
}

// LoadFile opens path and parses it on top of the built-in defaults.
func LoadFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()
	lineNumber = 0
	return Parse(f, Default())
}
