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

// Package machine implements the datapath-and-microcode processor simulator:
// memory, registers, ALU, MUX, latches, the microprogrammed control unit,
// the interrupt controller, and scheduled I/O.
package machine

import (
	"fmt"

	"github.com/arlobright/accumac/pkg/isa"
)

// Memory is the flat 2**24-word address space. Out-of-range access is
// fatal, never a recoverable error, matching spec.md's "malformed program
// is a bug, not a trap."
type Memory struct {
	words [isa.MemSize]uint32
}

func (m *Memory) Read(addr uint32) (uint32, error) {
	if addr >= isa.MemSize {
		return 0, fmt.Errorf("memory read out of bounds: %#x", addr)
	}
	return m.words[addr], nil
}

func (m *Memory) Write(addr uint32, value uint32) error {
	if addr >= isa.MemSize {
		return fmt.Errorf("memory write out of bounds: %#x", addr)
	}
	m.words[addr] = value
	return nil
}

// Reset zeroes the whole address space.
func (m *Memory) Reset() {
	for i := range m.words {
		m.words[i] = 0
	}
}

// wordRef is a tagged, gettable/settable memory location: a register slot,
// a memory cell, or a constant. This replaces the C++ source's
// std::function<uint32_t&()> reference-wrapper latches (Design Note §9):
// instead of aliasing a live uint32&, a latch holds a pair of closures.
type wordRef struct {
	get func() uint32
	set func(uint32)
}

func constRef(value uint32) wordRef {
	return wordRef{
		get: func() uint32 { return value },
		set: func(uint32) {},
	}
}

// RegName identifies one of the named registers.
type RegName uint8

const (
	ACC RegName = iota
	IR
	AR
	DR
	IP
	SP
	SPC
	regCount
)

// Flags holds the four condition bits. It is a plain owned value read by
// the CU and written only by the ALU, avoiding the long-lived aliasing the
// C++ source's shared_ptr<FlagsRegister> has (Design Note §9).
type Flags struct {
	N, Z, V, C bool
}

func (f Flags) String() string {
	bit := func(b bool, c byte) byte {
		if b {
			return c
		}
		return '-'
	}
	return string([]byte{bit(f.N, 'N'), bit(f.Z, 'Z'), bit(f.V, 'V'), bit(f.C, 'C')})
}

// Registers holds the named register file. SP resets to the top of the
// address space; the stack grows downward. Flags reset to Z set, matching
// the zeroed ACC.
type Registers struct {
	regs  [regCount]uint32
	Flags Flags
}

func (r *Registers) Reset() {
	r.regs = [regCount]uint32{}
	r.regs[SP] = isa.ResetSP
	r.Flags = Flags{Z: true}
}

func (r Registers) Get(name RegName) uint32       { return r.regs[name] }
func (r *Registers) Set(name RegName, val uint32) { r.regs[name] = val }

func (r *Registers) ref(name RegName) wordRef {
	return wordRef{
		get: func() uint32 { return r.regs[name] },
		set: func(v uint32) { r.regs[name] = v },
	}
}

// ALUOp is the operation tag an ALU step performs.
type ALUOp uint8

const (
	opADD ALUOp = iota
	opSUB
	opMUL
	opDIV
	opREM
	opINC
	opDEC
	opNOT
	opAND
	opOR
	opXOR
	opSHL
	opSHR
	opNOP
)

// ALU computes one binary operation per step, optionally writing Flags.
// Division and remainder by zero yield 0 with no trap (spec.md §4.2, §8).
type ALU struct {
	left, right func() uint32
	op          ALUOp
	writeFlags  bool
	result      uint32
}

func (a *ALU) setInputs(left, right func() uint32) {
	a.left, a.right = left, right
}

func (a *ALU) Perform(flags *Flags) {
	left, right := a.left(), a.right()
	var value uint32
	var vFlag, cFlag bool

	switch a.op {
	case opADD:
		tmp := uint64(left) + uint64(right)
		value = uint32(tmp & uint64(isa.FullMask))
		cFlag = tmp > uint64(isa.FullMask)
		vFlag = (((left ^ value) & (right ^ value)) & isa.MSBMask) != 0
	case opSUB:
		tmp := uint64(left) - uint64(right)
		value = uint32(tmp & uint64(isa.FullMask))
		cFlag = left >= right
		vFlag = (((left ^ right) & (left ^ value)) & isa.MSBMask) != 0
	case opMUL:
		value = left * right
	case opDIV:
		if right != 0 {
			value = left / right
		}
	case opREM:
		if right != 0 {
			value = left % right
		}
	case opINC:
		value = left + right + 1
	case opDEC:
		value = left + right - 1
	case opNOT:
		value = ^(left + right)
	case opAND:
		value = left & right
	case opOR:
		value = left | right
	case opXOR:
		value = left ^ right
	case opSHL:
		value = left << right
		if right != 0 {
			cFlag = ((left >> (isa.WordBits - right)) & 1) != 0
		}
	case opSHR:
		value = left >> right
		// SHR by 0 (Open Question, §9/Design Notes): the source reads bit
		// index -1, which is ill-defined. This implementation leaves the
		// value unchanged (right-shift by 0 already does that) and takes C
		// from the sign bit rather than an out-of-range index.
		if right != 0 {
			cFlag = ((left >> (right - 1)) & 1) != 0
		} else {
			cFlag = (left>>isa.MSBIndex)&1 != 0
		}
	case opNOP:
		value = left + right
	}

	a.result = value
	if a.writeFlags {
		flags.N = (value >> isa.MSBIndex) != 0
		flags.Z = value == 0
		flags.V = vFlag
		flags.C = cFlag
	}
}

func (a *ALU) Result() uint32 { return a.result }

// MUX selects one of several inputs by index.
type MUX struct {
	inputs []func() uint32
	sel    int
}

func (m *MUX) addInput(get func() uint32) { m.inputs = append(m.inputs, get) }

func (m *MUX) replaceInput(index int, get func() uint32) { m.inputs[index] = get }

func (m *MUX) Select(index int) { m.sel = index }

func (m *MUX) Selected() uint32 { return m.inputs[m.sel]() }

// Latch is a gated one-way copy between two word locations.
type Latch struct {
	source, target wordRef
	enabled        bool
}

func (l *Latch) SetEnabled(enabled bool) { l.enabled = enabled }

func (l *Latch) Propagate() {
	if l.enabled {
		l.target.set(l.source.get())
	}
}

// LatchRouter propagates an ordered group of latches together, one
// enable-mask vector per microstep.
type LatchRouter struct {
	latches []*Latch
}

func (r *LatchRouter) add(l *Latch) { r.latches = append(r.latches, l) }

func (r *LatchRouter) SetStates(states []bool) {
	for i, enabled := range states {
		r.latches[i].SetEnabled(enabled)
	}
}

func (r *LatchRouter) Propagate() {
	for _, l := range r.latches {
		l.Propagate()
	}
}
