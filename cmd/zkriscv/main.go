/*
 * zkriscv - Main process.
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

// Command zkriscv loads a RISC-V ELF binary, AOT-compiles its basic
// blocks, and runs it to completion (or drops into an interactive
// console) through the batch emulator.
package main

import (
	"fmt"
	"log/slog"
	"os"

	getopt "github.com/pborman/getopt/v2"

	"github.com/rvzk/zkriscv/internal/cfg"
	"github.com/rvzk/zkriscv/internal/chunk"
	"github.com/rvzk/zkriscv/internal/codegen"
	"github.com/rvzk/zkriscv/internal/console"
	"github.com/rvzk/zkriscv/internal/core"
	"github.com/rvzk/zkriscv/internal/elf"
	"github.com/rvzk/zkriscv/internal/emulator"
	"github.com/rvzk/zkriscv/internal/program"
	"github.com/rvzk/zkriscv/internal/rvconfig"
	"github.com/rvzk/zkriscv/internal/rvlog"
	"github.com/rvzk/zkriscv/internal/syscall"
)

// chunkSink logs each completed chunk at debug level; a real deployment
// would instead forward ChunkRecord values to the proving pipeline.
type chunkSink struct {
	logger *slog.Logger
	count  uint32
}

func (s *chunkSink) EmitChunk(rec emulator.ChunkRecord) {
	s.count++
	s.logger.Debug("chunk closed",
		"chunk", rec.Chunk, "clk", rec.FinalClk, "events", rec.FinalEvents,
		"registers_modified", len(rec.ModifiedRegisters), "memory_writes", len(rec.MemoryWrites))
}

// planChunks runs the static AOT analysis: build the weighted CFG,
// compute cut penalties, and verify a cap-respecting chunk partition
// exists. A program with a block too large for the configured caps is
// refused here, before any emulation starts.
func planChunks(p *program.Program, blockPCs []uint32, cfgv rvconfig.Config, logger *slog.Logger) error {
	g := cfg.BuildGraph(p, blockPCs)
	penalties, err := g.CutPenalties(cfg.DefaultWeights())
	if err != nil {
		return err
	}
	cuts, err := chunk.Partition(
		g.BlockInsnCounts(p), g.BlockEventEstimates(p), penalties,
		chunk.Caps{MaxInsns: int(cfgv.ChunkInsnCap), MaxEvents: int(cfgv.ChunkEventCap)})
	if err != nil {
		return err
	}
	logger.Info("aot plan",
		"blocks", len(blockPCs), "edges", len(g.Edges), "planned_chunks", len(cuts))
	return nil
}

func main() {
	optConfig := getopt.StringLong("config", 'c', "", "Configuration file")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optDebug := getopt.BoolLong("debug", 'd', "Enable debug logging")
	optInteractive := getopt.BoolLong("interactive", 'i', "Drop into the console instead of running to completion")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	cfgv := rvconfig.Default()
	if *optConfig != "" {
		loaded, err := rvconfig.LoadFile(*optConfig)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error: "+err.Error())
			os.Exit(1)
		}
		cfgv = loaded
	}
	if *optLogFile != "" {
		cfgv.LogFile = *optLogFile
	}
	if *optDebug {
		cfgv.Debug = true
	}

	logFile, err := os.Create(cfgv.LogFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error: "+err.Error())
		os.Exit(1)
	}
	defer logFile.Close()

	logger := rvlog.New(logFile, cfgv.Debug)
	slog.SetDefault(logger)
	logger.Info("zkriscv started")

	args := getopt.Args()
	inputFiles := cfgv.InputFiles
	inputFiles = append(inputFiles, args...)
	if len(inputFiles) == 0 {
		logger.Error("no ELF file given")
		os.Exit(1)
	}

	data, err := os.ReadFile(inputFiles[0])
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}

	p, err := elf.Load(data)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}

	blockPCs := cfg.DiscoverBlocks(p)
	if err := planChunks(p, blockPCs, cfgv, logger); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	blocks := codegen.Compile(p, blockPCs)
	table := syscall.DefaultTable()

	var inputStream [][]byte
	for _, path := range inputFiles[1:] {
		b, err := os.ReadFile(path)
		if err != nil {
			logger.Error(err.Error())
			os.Exit(1)
		}
		inputStream = append(inputStream, b)
	}

	c := core.New(p, inputStream, cfgv.MaxSyscallExtraCycles)
	sink := &chunkSink{logger: logger}
	e := emulator.New(blocks, table, c, sink)

	opts := emulator.BatchOptions{
		ChunkBatchSize:        cfgv.ChunkBatchSize,
		ChunkInsnCap:          cfgv.ChunkInsnCap,
		ChunkEventCap:         cfgv.ChunkEventCap,
		MaxSyscallExtraCycles: cfgv.MaxSyscallExtraCycles,
	}

	if *optInteractive {
		console.Run(e, opts)
		return
	}

	for {
		_, report := e.NextStateBatch(opts)
		if report.Err != nil {
			logger.Error(report.Err.Error())
			os.Exit(1)
		}
		if report.Done {
			break
		}
	}

	logger.Info("program halted", "result", c.Result(), "chunks", sink.count)
	os.Stdout.Write(c.Stdout)
}
