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

	"github.com/arlobright/accumac/pkg/isa"
)

// cpuState is the control unit's coarse state, per spec.md §4.3.
type cpuState uint8

const (
	stateFetchAR cpuState = iota
	stateFetchIR
	stateDecode
	stateIncrementIP
	stateHalt
)

func (s cpuState) String() string {
	switch s {
	case stateFetchAR:
		return "FetchAR"
	case stateFetchIR:
		return "FetchIR"
	case stateDecode:
		return "Decode"
	case stateIncrementIP:
		return "IncrementIP"
	case stateHalt:
		return "Halt"
	default:
		return "?"
	}
}

// MUX1 input indices. OPERAND is re-bound to the current instruction's
// operand once per Decode. ZERO is not in spec.md's bus topology table but
// is required to route a MUX2-only register (DR, IP, SP) through the ALU
// unaccompanied — see DESIGN.md's note on this Open Question.
const (
	mux1ACC = iota
	mux1AR
	mux1OPERAND
	mux1MEMAR
	mux1ZERO
)

// MUX2 input indices, exactly as spec.md §4.2 lists them.
const (
	mux2ACC = iota
	mux2DR
	mux2IP
	mux2SP
	mux2ZERO
)

// destNone marks a microstep whose ALU result is discarded (CMP): every
// ALU fan-out latch stays disabled for that step.
const destNone RegName = regCount

// aluLatchOrder is the enable-mask order of m.aluLatches, matching
// spec.md §4.2's "ALU result fan-out latches: ALU->{DR, AR, SP, ACC, IP,
// SPC}" list (reordered here only so ACC, the most common destination, is
// cheap to reason about first).
var aluLatchOrder = [6]RegName{ACC, AR, DR, IP, SP, SPC}

func aluDestMask(dest RegName) []bool {
	mask := make([]bool, len(aluLatchOrder))
	for i, name := range aluLatchOrder {
		mask[i] = name == dest
	}
	return mask
}

type memOp uint8

const (
	memNone memOp = iota
	memToIR
	memToDR
	drToMem
)

// microstep is one tick's worth of control signals: a table entry, per
// Design Note §9's suggestion, rather than an ad-hoc per-opcode switch.
type microstep struct {
	mux1       int
	mux2       int
	alu        ALUOp
	writeFlags bool
	dest       RegName
	mem        memOp
}

var microcode = buildMicrocode()

func buildMicrocode() map[isa.Opcode][]microstep {
	arith := func(op ALUOp) []microstep {
		return []microstep{
			{mux1: mux1OPERAND, mux2: mux2ZERO, alu: opNOP, dest: AR},
			{mem: memToDR},
			{mux1: mux1ACC, mux2: mux2DR, alu: op, writeFlags: true, dest: ACC},
		}
	}

	return map[isa.Opcode][]microstep{
		isa.LDI: {
			{mux1: mux1OPERAND, mux2: mux2ZERO, alu: opNOP, writeFlags: true, dest: ACC},
		},
		isa.LD: {
			{mux1: mux1OPERAND, mux2: mux2ZERO, alu: opNOP, dest: AR},
			{mem: memToDR},
			{mux1: mux1ZERO, mux2: mux2DR, alu: opNOP, writeFlags: true, dest: ACC},
		},
		isa.ST: {
			{mux1: mux1OPERAND, mux2: mux2ZERO, alu: opNOP, dest: AR},
			{mux1: mux1ACC, mux2: mux2ZERO, alu: opNOP, dest: DR},
			{mem: drToMem},
		},
		isa.LDA: {
			{mux1: mux1OPERAND, mux2: mux2ZERO, alu: opNOP, dest: AR},
			{mem: memToDR},
			{mux1: mux1ZERO, mux2: mux2DR, alu: opNOP, dest: AR},
			{mem: memToDR},
			{mux1: mux1ZERO, mux2: mux2DR, alu: opNOP, writeFlags: true, dest: ACC},
		},
		isa.STA: {
			{mux1: mux1OPERAND, mux2: mux2ZERO, alu: opNOP, dest: AR},
			{mem: memToDR},
			{mux1: mux1ZERO, mux2: mux2DR, alu: opNOP, dest: AR},
			{mux1: mux1ACC, mux2: mux2ZERO, alu: opNOP, dest: DR},
			{mem: drToMem},
		},
		isa.ADD: arith(opADD),
		isa.SUB: arith(opSUB),
		isa.MUL: arith(opMUL),
		isa.DIV: arith(opDIV),
		isa.REM: arith(opREM),
		isa.CMP: {
			{mux1: mux1OPERAND, mux2: mux2ZERO, alu: opNOP, dest: AR},
			{mem: memToDR},
			{mux1: mux1ACC, mux2: mux2DR, alu: opSUB, writeFlags: true, dest: destNone},
		},
		isa.INC: {
			{mux1: mux1ACC, mux2: mux2ZERO, alu: opINC, writeFlags: true, dest: ACC},
		},
		isa.DEC: {
			{mux1: mux1ACC, mux2: mux2ZERO, alu: opDEC, writeFlags: true, dest: ACC},
		},
		isa.NOT: {
			{mux1: mux1ACC, mux2: mux2ZERO, alu: opNOT, writeFlags: true, dest: ACC},
		},
		isa.CLA: {
			{mux1: mux1ZERO, mux2: mux2ZERO, alu: opNOP, writeFlags: true, dest: ACC},
		},
		isa.JMP: {
			{mux1: mux1OPERAND, mux2: mux2ZERO, alu: opNOP, dest: IP},
		},
		isa.PUSH: {
			{mux1: mux1ZERO, mux2: mux2SP, alu: opNOP, dest: AR},
			{mux1: mux1ACC, mux2: mux2ZERO, alu: opNOP, dest: DR},
			{mem: drToMem},
			{mux1: mux1ZERO, mux2: mux2SP, alu: opDEC, dest: SP},
		},
		isa.POP: {
			{mux1: mux1ZERO, mux2: mux2SP, alu: opINC, dest: SP},
			{mux1: mux1ZERO, mux2: mux2SP, alu: opNOP, dest: AR},
			{mem: memToDR},
			{mux1: mux1ZERO, mux2: mux2DR, alu: opNOP, writeFlags: true, dest: ACC},
		},
		// CALL/RET push and pop through MEM[AR], so each step that the
		// compressed spec.md table writes as "-> MEM[SP]" first routes SP
		// into AR: the memory-bus latches are only addressable through AR
		// (spec.md §4.2), a level of indirection the summary table elides.
		isa.CALL: {
			{mux1: mux1ZERO, mux2: mux2IP, alu: opINC, dest: DR},
			{mux1: mux1ZERO, mux2: mux2SP, alu: opNOP, dest: AR},
			{mem: drToMem},
			{mux1: mux1ZERO, mux2: mux2SP, alu: opDEC, dest: SP},
			{mux1: mux1OPERAND, mux2: mux2ZERO, alu: opNOP, dest: IP},
		},
		isa.RET: {
			{mux1: mux1ZERO, mux2: mux2SP, alu: opINC, dest: SP},
			{mux1: mux1ZERO, mux2: mux2SP, alu: opNOP, dest: AR},
			{mem: memToDR},
			{mux1: mux1ZERO, mux2: mux2DR, alu: opNOP, dest: IP},
		},
	}
}

// conditionalJumpTaken evaluates a Jcc's predicate against flags, per
// spec.md §4.3's table.
func conditionalJumpTaken(op isa.Opcode, f Flags) bool {
	switch op {
	case isa.JZ:
		return f.Z
	case isa.JNZ:
		return !f.Z
	case isa.JG:
		return !f.Z && f.N == f.V
	case isa.JGE:
		return f.N == f.V
	case isa.JL:
		return f.N != f.V
	case isa.JLE:
		return f.Z || f.N != f.V
	case isa.JA:
		return f.C && !f.Z
	case isa.JAE:
		return f.C
	case isa.JB:
		return !f.C
	case isa.JBE:
		return !f.C || f.Z
	default:
		return false
	}
}

// cu is the microprogrammed control unit. Every instruction begins at
// FetchAR; the fixed fetch subsequence runs FetchAR, FetchIR, Decode,
// IncrementIP, one microstep of the current opcode's program advancing
// per tick within Decode (spec.md §4.3).
type cu struct {
	state cpuState

	opcode  isa.Opcode
	operand uint32

	program []microstep
	step    int

	suppressAdvance bool
	instructionDone bool
	halted          bool
}

func (c *cu) isHalted() bool { return c.halted }

// runALU selects mux1/mux2, performs the operation, and propagates the
// result through the ALU fan-out latch router to dest (or nowhere, for
// destNone).
func (m *Machine) runALU(mux1, mux2 int, op ALUOp, writeFlags bool, dest RegName) {
	m.mux1.Select(mux1)
	m.mux2.Select(mux2)
	m.alu.op = op
	m.alu.writeFlags = writeFlags
	m.alu.Perform(&m.regs.Flags)
	m.aluLatches.SetStates(aluDestMask(dest))
	m.aluLatches.Propagate()
}

// cuTick advances the control unit by exactly one microstep, mutating m.
func (m *Machine) cuTick() error {
	c := &m.cu

	switch c.state {
	case stateFetchAR:
		m.runALU(mux1ZERO, mux2IP, opNOP, false, AR)
		m.log("FetchAR IP=%#08x -> AR=%#08x", m.regs.Get(IP), m.regs.Get(AR))
		c.state = stateFetchIR

	case stateFetchIR:
		m.memToIRLatch.SetEnabled(true)
		m.memToIRLatch.Propagate()
		m.memToIRLatch.SetEnabled(false)

		op, operand := isa.DecodeWord(m.regs.Get(IR))
		c.opcode = op
		c.operand = operand
		m.log("FetchIR MEM[%#08x]=%#08x -> IR", m.regs.Get(AR), m.regs.Get(IR))
		c.state = stateDecode
		c.step = 0
		c.suppressAdvance = false
		c.instructionDone = false

		program, ok := microcode[op]
		if !ok && !isConditional(op) && !isControlOnly(op) {
			return fmt.Errorf("unknown opcode at fetch: %#02x", uint8(op))
		}
		c.program = program

	case stateDecode:
		if err := m.decodeStep(); err != nil {
			return err
		}

	case stateIncrementIP:
		m.runALU(mux1ZERO, mux2IP, opINC, false, IP)
		m.log("IncrementIP IP -> %#08x", m.regs.Get(IP))
		c.instructionDone = true
		c.state = stateFetchAR

	case stateHalt:
		c.halted = true
	}

	return nil
}

func isConditional(op isa.Opcode) bool { return isa.ConditionalJumps[op] }

func isControlOnly(op isa.Opcode) bool {
	switch op {
	case isa.EI, isa.DI, isa.IRET, isa.HALT:
		return true
	default:
		return false
	}
}

// decodeStep runs one microstep of the current opcode's program, or
// handles the control-flow opcodes that need runtime state (conditional
// jumps, EI/DI/IRET/HALT) rather than a static table entry.
func (m *Machine) decodeStep() error {
	c := &m.cu

	m.mux1.replaceInput(mux1OPERAND, func() uint32 { return c.operand })

	switch {
	case isConditional(c.opcode):
		if conditionalJumpTaken(c.opcode, m.regs.Flags) {
			m.runALU(mux1OPERAND, mux2ZERO, opNOP, false, IP)
			m.log("%s taken -> IP=%#08x", c.opcode, m.regs.Get(IP))
			c.suppressAdvance = true
		} else {
			m.log("%s not taken", c.opcode)
		}
		c.instructionDone = true
		if c.suppressAdvance {
			c.state = stateFetchAR
		} else {
			c.state = stateIncrementIP
		}
		return nil

	case c.opcode == isa.EI:
		m.interrupt.IE = true
		m.log("EI")
		c.instructionDone = true
		c.state = stateIncrementIP
		return nil

	case c.opcode == isa.DI:
		m.interrupt.IE = false
		m.log("DI")
		c.instructionDone = true
		c.state = stateIncrementIP
		return nil

	case c.opcode == isa.IRET:
		m.spcRestoreLatch.SetEnabled(true)
		m.spcRestoreLatch.Propagate()
		m.spcRestoreLatch.SetEnabled(false)
		m.interrupt.Return()
		m.log("IRET -> IP=%#08x", m.regs.Get(IP))
		c.instructionDone = true
		c.state = stateFetchAR
		return nil

	case c.opcode == isa.HALT:
		m.log("HALT")
		c.state = stateHalt
		c.instructionDone = true
		return nil
	}

	if c.step >= len(c.program) {
		return fmt.Errorf("microcode exhausted for opcode %s", c.opcode)
	}

	step := c.program[c.step]
	c.step++

	switch step.mem {
	case memToIR:
		m.memToIRLatch.SetEnabled(true)
		m.memToIRLatch.Propagate()
		m.memToIRLatch.SetEnabled(false)
	case memToDR:
		m.memToDRLatch.SetEnabled(true)
		m.memToDRLatch.Propagate()
		m.memToDRLatch.SetEnabled(false)
	case drToMem:
		m.drToMemLatch.SetEnabled(true)
		m.drToMemLatch.Propagate()
		m.drToMemLatch.SetEnabled(false)
	default:
		m.runALU(step.mux1, step.mux2, step.alu, step.writeFlags, step.dest)
	}

	m.log("Decode %s step=%d/%d dest=%v mem=%d",
		c.opcode, c.step, len(c.program), step.dest, step.mem)

	if c.step >= len(c.program) {
		c.instructionDone = true
		if c.opcode == isa.JMP || c.opcode == isa.CALL || c.opcode == isa.RET {
			c.suppressAdvance = true
		}
		if c.suppressAdvance {
			c.state = stateFetchAR
		} else {
			c.state = stateIncrementIP
		}
	}

	return nil
}
