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

	"github.com/arlobright/accumac/pkg/encoding"
	"github.com/arlobright/accumac/pkg/isa"
)

// Machine is the top-level processor model: datapath, control unit,
// interrupt controller, and scheduled I/O wired together, driven one tick
// at a time (spec.md §5).
type Machine struct {
	memory Memory
	regs   Registers
	alu    ALU
	mux1   MUX
	mux2   MUX

	interrupt InterruptController
	io        *ScheduledIO
	cu        cu

	// aluLatches is the ALU result fan-out router: ALU -> {ACC, AR, DR, IP,
	// SP, SPC}, one enable mask per microstep (spec.md §4.2).
	aluLatches LatchRouter

	// Memory-bus and interrupt latches, addressed through AR except where
	// spec.md names a dedicated path (SPC->IP, VEC->IP).
	memToIRLatch    *Latch
	memToDRLatch    *Latch
	drToMemLatch    *Latch
	spcRestoreLatch *Latch
	vecEnterLatch   *Latch

	tick uint64

	logWriter io.Writer
	hasher    *encoding.FNV1a
}

// NewMachine returns a freshly reset machine, with its MUX/ALU wiring
// assembled the way original_source/machine/processorModel.h's constructor
// does: MUX1 over {ACC, AR, operand, MEM[AR], zero}, MUX2 over {ACC, DR, IP,
// SP, zero}, ALU fed from whichever MUX each input currently selects.
func NewMachine() *Machine {
	m := &Machine{}
	m.interrupt.SetVectorTable(isa.DefaultInterruptVector, isa.DefaultInterruptVector)
	m.io = newScheduledIO(&m.interrupt, &m.memory)

	m.mux1.addInput(func() uint32 { return m.regs.Get(ACC) })
	m.mux1.addInput(func() uint32 { return m.regs.Get(AR) })
	m.mux1.addInput(func() uint32 { return uint32(0) }) // OPERAND, rebound each Decode
	m.mux1.addInput(func() uint32 {
		word, err := m.memory.Read(m.regs.Get(AR))
		if err != nil {
			return 0
		}
		return word
	})
	m.mux1.addInput(func() uint32 { return 0 }) // ZERO

	m.mux2.addInput(func() uint32 { return m.regs.Get(ACC) })
	m.mux2.addInput(func() uint32 { return m.regs.Get(DR) })
	m.mux2.addInput(func() uint32 { return m.regs.Get(IP) })
	m.mux2.addInput(func() uint32 { return m.regs.Get(SP) })
	m.mux2.addInput(func() uint32 { return 0 }) // ZERO

	m.alu.setInputs(m.mux1.Selected, m.mux2.Selected)

	aluResult := wordRef{
		get: func() uint32 { return m.alu.Result() },
		set: func(uint32) {},
	}
	for _, name := range aluLatchOrder {
		m.aluLatches.add(&Latch{source: aluResult, target: m.regs.ref(name)})
	}

	memAtAR := wordRef{
		get: func() uint32 {
			word, err := m.memory.Read(m.regs.Get(AR))
			if err != nil {
				return 0
			}
			return word
		},
		set: func(v uint32) { m.memory.Write(m.regs.Get(AR), v) },
	}
	m.memToIRLatch = &Latch{source: memAtAR, target: m.regs.ref(IR)}
	m.memToDRLatch = &Latch{source: memAtAR, target: m.regs.ref(DR)}
	m.drToMemLatch = &Latch{source: m.regs.ref(DR), target: memAtAR}

	m.spcRestoreLatch = &Latch{source: m.regs.ref(SPC), target: m.regs.ref(IP)}
	m.vecEnterLatch = &Latch{
		source: wordRef{get: func() uint32 { return m.interrupt.Vector() }, set: func(uint32) {}},
		target: m.regs.ref(IP),
	}

	m.Reset()
	return m
}

// Reset returns every component to its power-on state.
func (m *Machine) Reset() {
	m.memory.Reset()
	m.regs.Reset()
	m.interrupt.reset()
	m.cu = cu{}
	m.tick = 0
}

// SetLog directs the per-tick trace to w. If h is non-nil every chunk
// written is also folded into it, letting the caller hash the log
// incrementally instead of re-reading it from disk afterward.
func (m *Machine) SetLog(w io.Writer, h *encoding.FNV1a) {
	m.logWriter = w
	m.hasher = h
}

func (m *Machine) log(format string, args ...interface{}) {
	if m.logWriter == nil && m.hasher == nil {
		return
	}
	line := fmt.Sprintf("tick %06d: %s\n", m.tick, fmt.Sprintf(format, args...))
	if m.logWriter != nil {
		io.WriteString(m.logWriter, line)
	}
	if m.hasher != nil {
		io.WriteString(m.hasher, line)
	}
}

// AddInput appends one scheduled (tick, token) input entry.
func (m *Machine) AddInput(tick uint64, token uint32) {
	m.io.AddInput(ScheduleEntry{Tick: tick, Token: token})
}

// SetOutput directs output port characters to w, in addition to being
// recorded for OutputSchedule/TokenOutputString.
func (m *Machine) SetOutput(w io.Writer) {
	m.io.SetOutput(w)
}

// OutputSchedule returns the (tick, char) pairs observed on the output
// port over the run so far.
func (m *Machine) OutputSchedule() []OutputEntry {
	return m.io.OutputSchedule()
}

// TokenOutputString renders OutputSchedule in the original's bracketed
// tuple form.
func (m *Machine) TokenOutputString() string {
	return m.io.TokenOutputString()
}

// Tick returns the number of ticks executed so far.
func (m *Machine) Tick() uint64 { return m.tick }

// Registers exposes the register file for dump/debug callers.
func (m *Machine) Registers() Registers { return m.regs }

// Flags exposes the condition flags for dump/debug callers.
func (m *Machine) Flags() Flags { return m.regs.Flags }

// ReadMemory exposes a single memory word for dump/debug callers.
func (m *Machine) ReadMemory(addr uint32) (uint32, error) {
	return m.memory.Read(addr)
}

// LoadImage loads a binary image per spec.md's format: an 8-byte
// big-endian header (code word count, data word count) followed by that
// many words, placed starting at address 0.
func LoadImage(r io.Reader, m *Machine) error {
	header := make([]byte, 8)
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("reading image header: %w", err)
	}
	codeSize := encoding.WordBE(header[0:4])
	dataSize := encoding.WordBE(header[4:8])

	total := codeSize + dataSize
	buf := make([]byte, 4)
	for i := uint32(0); i < total; i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return fmt.Errorf("reading word %d of %d: %w", i, total, err)
		}
		if err := m.memory.Write(i, encoding.WordBE(buf)); err != nil {
			return err
		}
	}

	return nil
}

// IsHalted reports whether the control unit reached the Halt state.
func (m *Machine) IsHalted() bool { return m.cu.isHalted() }

// Step advances the machine by exactly one tick, in the order spec.md §5
// fixes: scheduled input, interrupt entry check, one CU microstep,
// scheduled output.
func (m *Machine) Step() error {
	if err := m.io.CheckInput(m.tick); err != nil {
		return err
	}

	if m.cu.state == stateFetchAR && m.interrupt.ShouldInterrupt() {
		m.enterInterrupt()
	}

	if err := m.cuTick(); err != nil {
		return err
	}

	if err := m.io.CheckOutput(m.tick); err != nil {
		return err
	}

	m.tick++
	return nil
}

func (m *Machine) enterInterrupt() {
	m.runALU(mux1ZERO, mux2IP, opNOP, false, SPC)

	m.vecEnterLatch.SetEnabled(true)
	m.vecEnterLatch.Propagate()
	m.vecEnterLatch.SetEnabled(false)

	m.interrupt.Enter()
	m.log("interrupt entry -> IP=%#08x", m.regs.Get(IP))
}

// Run steps the machine until HALT, feeding every tick's I/O and
// interrupt checks along the way.
func (m *Machine) Run() error {
	for !m.IsHalted() {
		if err := m.Step(); err != nil {
			return err
		}
	}
	return nil
}
