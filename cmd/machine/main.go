// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/k0kubun/pp/v3"

	"github.com/arlobright/accumac/pkg/encoding"
	"github.com/arlobright/accumac/pkg/machine"
)

var interactivevar bool
var verbosevar bool

const usage = "machine config binary"

func init() {
	log.SetFlags(0)
	log.SetOutput(os.Stderr)
}

func init() {
	flag.BoolVar(&interactivevar, "interactive", false, "Feeds terminal keystrokes as scheduled input instead of the config's input_file")
	flag.BoolVar(&verbosevar, "verbose", false, "Pretty-prints the parsed config and decoded binary header to stderr before running")
	flag.Parse()
}

func run() int {
	args := flag.Args()

	if len(args) != 2 {
		log.Println(usage)
		return 1
	}

	configPath, binaryPath := args[0], args[1]

	configFile, err := os.Open(configPath)
	if err != nil {
		log.Println(err)
		return 1
	}
	cfg, err := machine.ParseConfig(configFile)
	configFile.Close()
	if err != nil {
		log.Println(err)
		return 1
	}

	if verbosevar {
		pp.Fprintln(os.Stderr, cfg)
	}

	image, err := os.ReadFile(binaryPath)
	if err != nil {
		log.Println(err)
		return 1
	}
	if len(image) < 8 {
		log.Println("binary image is shorter than the 8-byte header")
		return 1
	}

	if verbosevar {
		pp.Fprintf(os.Stderr, "header: code=%d words, data=%d words\n",
			encoding.WordBE(image[0:4]), encoding.WordBE(image[4:8]))
	}

	m := machine.NewMachine()
	if err := machine.LoadImage(bytes.NewReader(image), m); err != nil {
		log.Println(err)
		return 1
	}

	if cfg.BinaryReprFile != "" {
		f, err := os.Create(cfg.BinaryReprFile)
		if err != nil {
			log.Println(err)
			return 1
		}
		wordCount := encoding.WordBE(image[0:4]) + encoding.WordBE(image[4:8])
		err = machine.DumpBinary(f, m, wordCount)
		f.Close()
		if err != nil {
			log.Println(err)
			return 1
		}
	}

	outputs := []io.Writer{os.Stdout}
	if cfg.OutputFile != "" {
		f, err := os.Create(cfg.OutputFile)
		if err != nil {
			log.Println(err)
			return 1
		}
		defer f.Close()
		outputs = append(outputs, f)
	}
	m.SetOutput(io.MultiWriter(outputs...))

	var hasher *encoding.FNV1a
	if cfg.LogFile != "" {
		f, err := os.Create(cfg.LogFile)
		if err != nil {
			log.Println(err)
			return 1
		}
		defer f.Close()
		hasher = encoding.NewFNV1a()
		m.SetLog(f, hasher)
	} else if cfg.LogHashFile != "" {
		hasher = encoding.NewFNV1a()
		m.SetLog(nil, hasher)
	}

	if interactivevar {
		enterRawTerm()
		defer exitRawTerm()

		if err := runInteractive(m); err != nil {
			log.Println(err)
			return 1
		}
	} else {
		if cfg.InputFile != "" {
			inputFile, err := os.Open(cfg.InputFile)
			if err != nil {
				log.Println(err)
				return 1
			}
			schedule, err := machine.BuildSchedule(cfg, inputFile)
			inputFile.Close()
			if err != nil {
				log.Println(err)
				return 1
			}
			for _, entry := range schedule {
				m.AddInput(entry.Tick, entry.Token)
			}
		}

		if verbosevar {
			if err := runVerbose(m); err != nil {
				log.Println(err)
				return 1
			}
		} else {
			if err := m.Run(); err != nil {
				log.Println(err)
				return 1
			}
		}
	}

	if cfg.LogHashFile != "" && hasher != nil {
		if err := os.WriteFile(cfg.LogHashFile, []byte(hasher.HexString()+"\n"), 0666); err != nil {
			log.Println(err)
			return 1
		}
	}

	if verbosevar {
		fmt.Fprintf(os.Stderr, "halted at tick %d\n", m.Tick())
	}

	return 0
}

// runInteractive steps the machine to completion, feeding each keystroke
// read from the (already raw-mode) terminal as a scheduled input token for
// the tick immediately following the one it arrived on. VMIN=0/VTIME=0
// makes the read non-blocking, so this is a plain poll-and-step loop rather
// than anything needing a reader goroutine.
func runInteractive(m *machine.Machine) error {
	buf := make([]byte, 1)
	for !m.IsHalted() {
		n, _ := os.Stdin.Read(buf)
		if n > 0 {
			m.AddInput(m.Tick()+1, uint32(buf[0]))
		}
		if err := m.Step(); err != nil {
			return err
		}
	}
	return nil
}

// runVerbose steps the machine to completion one tick at a time, writing a
// register dump line to stderr after each tick. This is the -verbose path's
// per-tick trace; the one-shot config/header dumps above it run regardless
// of how the machine is then driven to completion.
func runVerbose(m *machine.Machine) error {
	for !m.IsHalted() {
		if err := m.Step(); err != nil {
			return err
		}
		if err := machine.WriteRegisterDump(os.Stderr, m.Snapshot()); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	os.Exit(run())
}
