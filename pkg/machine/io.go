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

package machine

import (
	"fmt"
	"io"
	"strings"

	"github.com/arlobright/accumac/pkg/isa"
)

// ScheduleEntry is one (tick, token) pair of the input schedule.
type ScheduleEntry struct {
	Tick  uint64
	Token uint32
}

// OutputEntry is one (tick, char) pair of characters observed on the
// output port, in emission order.
type OutputEntry struct {
	Tick uint64
	Char byte
}

// ScheduledIO is the sole I/O device this machine supports: a scheduled
// character-input interrupt and a memory-mapped character-output port
// (spec.md §4.5).
type ScheduledIO struct {
	interrupt *InterruptController
	memory    *Memory
	output    io.Writer

	inputSchedule []ScheduleEntry
	outputLog     []OutputEntry
}

func newScheduledIO(interrupt *InterruptController, memory *Memory) *ScheduledIO {
	return &ScheduledIO{interrupt: interrupt, memory: memory}
}

// AddInput appends one (tick, token) entry to the input schedule.
func (s *ScheduledIO) AddInput(entry ScheduleEntry) {
	s.inputSchedule = append(s.inputSchedule, entry)
}

// SetOutput directs emitted output characters to w, in addition to being
// recorded in the output schedule.
func (s *ScheduledIO) SetOutput(w io.Writer) {
	s.output = w
}

// CheckInput runs step 1 of the tick loop (spec.md §5): raise any input
// scheduled for this tick and write it to the input port.
func (s *ScheduledIO) CheckInput(tick uint64) error {
	for _, entry := range s.inputSchedule {
		if entry.Tick == tick {
			s.interrupt.SetIRQ(IRQInput)
			if err := s.memory.Write(isa.InputPort, entry.Token); err != nil {
				return err
			}
		}
	}
	return nil
}

// CheckOutput runs step 5 of the tick loop (spec.md §5): drain the output
// port if it holds a non-zero byte.
func (s *ScheduledIO) CheckOutput(tick uint64) error {
	value, err := s.memory.Read(isa.OutputPort)
	if err != nil {
		return err
	}
	if value != 0 {
		char := byte(value & isa.ByteMask)
		s.outputLog = append(s.outputLog, OutputEntry{Tick: tick, Char: char})
		if s.output != nil {
			if _, err := s.output.Write([]byte{char}); err != nil {
				return err
			}
		}
		if err := s.memory.Write(isa.OutputPort, 0); err != nil {
			return err
		}
	}

	return nil
}

// OutputSchedule returns the recorded (tick, char) output entries.
func (s *ScheduledIO) OutputSchedule() []OutputEntry {
	return s.outputLog
}

// TokenOutputString renders the output schedule the way
// original_source/machine/processorModel.h's IOSimulator::getTokenOutput
// does: "[(t0, 'a'), (t1, 'b')]", with \n and \t escaped.
func (s *ScheduledIO) TokenOutputString() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, entry := range s.outputLog {
		if i > 0 {
			b.WriteString(", ")
		}
		repr := string(entry.Char)
		switch entry.Char {
		case '\n':
			repr = `\n`
		case '\t':
			repr = `\t`
		}
		fmt.Fprintf(&b, "(%d, '%s')", entry.Tick, repr)
	}
	b.WriteByte(']')
	return b.String()
}
