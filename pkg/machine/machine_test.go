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
	"strings"
	"testing"

	"github.com/arlobright/accumac/pkg/isa"
)

// loadWords writes a program directly into memory starting at addr,
// bypassing the assembler so these tests exercise only the datapath and
// control unit.
func loadWords(t *testing.T, m *Machine, addr uint32, words ...uint32) {
	t.Helper()
	for i, w := range words {
		if err := m.memory.Write(addr+uint32(i), w); err != nil {
			t.Fatalf("loadWords: %v", err)
		}
	}
}

func inst(op isa.Opcode, operand uint32) uint32 {
	return isa.EncodeWord(op, operand)
}

func runUntilHalt(t *testing.T, m *Machine, maxTicks int) {
	t.Helper()
	for i := 0; i < maxTicks; i++ {
		if m.IsHalted() {
			return
		}
		if err := m.Step(); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}
	t.Fatalf("machine did not halt within %d ticks", maxTicks)
}

func TestArithmetic(t *testing.T) {
	m := NewMachine()
	loadWords(t, m, 0,
		inst(isa.LDI, 2),
		inst(isa.ST, 5),
		inst(isa.LDI, 3),
		inst(isa.ADD, 5),
		inst(isa.HALT, 0),
		0,
	)

	runUntilHalt(t, m, 100)

	if got := m.Registers().Get(ACC); got != 5 {
		t.Errorf("ACC = %d, want 5", got)
	}
	if f := m.Flags(); f.Z || f.N {
		t.Errorf("flags = %s, want Z=0 N=0", f)
	}
}

func TestSubtractToZeroSetsZ(t *testing.T) {
	m := NewMachine()
	loadWords(t, m, 0,
		inst(isa.LDI, 7),
		inst(isa.ST, 5),
		inst(isa.LDI, 7),
		inst(isa.SUB, 5),
		inst(isa.HALT, 0),
		0,
	)

	runUntilHalt(t, m, 100)

	if got := m.Registers().Get(ACC); got != 0 {
		t.Errorf("ACC = %d, want 0", got)
	}
	if !m.Flags().Z {
		t.Errorf("Z = false, want true")
	}
}

func TestSignedBranch(t *testing.T) {
	// ldi -1; st A; ldi 0; cmp A; jl NEG; halt; NEG: ldi 42; halt; A: 0
	m := NewMachine()
	loadWords(t, m, 0,
		inst(isa.LDI, 0x00FFFFFF), // -1 truncated to the 24-bit operand field
		inst(isa.ST, 8),
		inst(isa.LDI, 0),
		inst(isa.CMP, 8),
		inst(isa.JL, 6),
		inst(isa.HALT, 0),
		inst(isa.LDI, 42), // NEG:
		inst(isa.HALT, 0),
		0, // A:
	)

	runUntilHalt(t, m, 100)

	if got := m.Registers().Get(ACC); got != 42 {
		t.Errorf("ACC = %d, want 42", got)
	}
}

func TestCallRet(t *testing.T) {
	// _start: call F; halt; F: ldi 9; ret
	m := NewMachine()
	loadWords(t, m, 0,
		inst(isa.CALL, 3),
		inst(isa.HALT, 0),
		0,
		inst(isa.LDI, 9), // F:
		inst(isa.RET, 0),
	)
	initialSP := m.Registers().Get(SP)

	runUntilHalt(t, m, 100)

	if got := m.Registers().Get(ACC); got != 9 {
		t.Errorf("ACC = %d, want 9", got)
	}
	if got := m.Registers().Get(SP); got != initialSP {
		t.Errorf("SP = %#x, want %#x (returned to initial value)", got, initialSP)
	}
}

func TestInterrupt(t *testing.T) {
	m := NewMachine()

	// Main program: EI; jmp $ (idle loop).
	loadWords(t, m, 0,
		inst(isa.EI, 0),
		inst(isa.JMP, 1),
	)

	// Default/input interrupt vector handler at 0x20: relay input to output.
	loadWords(t, m, isa.DefaultInterruptVector,
		inst(isa.LD, isa.InputPort),
		inst(isa.ST, isa.OutputPort),
		inst(isa.IRET, 0),
	)

	m.AddInput(10, uint32('A'))

	for i := 0; i < 60; i++ {
		if err := m.Step(); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}

	out := m.OutputSchedule()
	if len(out) != 1 {
		t.Fatalf("output entries = %d, want 1", len(out))
	}
	if out[0].Char != 'A' {
		t.Errorf("output char = %q, want 'A'", out[0].Char)
	}
	if m.interrupt.IPC {
		t.Errorf("IPC still set after IRET")
	}
}

func TestStringOutput(t *testing.T) {
	// Data "Hi\n" relayed through the output port by three unrolled LD/ST
	// pairs rather than a loop, so only the output path is exercised.
	m := NewMachine()
	const data = 0x100
	loadWords(t, m, 0,
		inst(isa.LD, data+0),
		inst(isa.ST, isa.OutputPort),
		inst(isa.LD, data+1),
		inst(isa.ST, isa.OutputPort),
		inst(isa.LD, data+2),
		inst(isa.ST, isa.OutputPort),
		inst(isa.HALT, 0),
	)
	loadWords(t, m, data, uint32('H'), uint32('i'), uint32('\n'), 0)

	var out strings.Builder
	m.SetOutput(&out)

	runUntilHalt(t, m, 200)

	if out.String() != "Hi\n" {
		t.Errorf("output = %q, want %q", out.String(), "Hi\n")
	}

	entries := m.OutputSchedule()
	if len(entries) != 3 {
		t.Fatalf("output entries = %d, want 3", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Tick <= entries[i-1].Tick {
			t.Errorf("entry %d tick %d not strictly after entry %d tick %d", i, entries[i].Tick, i-1, entries[i-1].Tick)
		}
	}

	token := m.TokenOutputString()
	if !strings.Contains(token, `\n`) {
		t.Errorf("TokenOutputString() = %q, want escaped newline", token)
	}
}

func TestALUDivByZero(t *testing.T) {
	m := NewMachine()
	loadWords(t, m, 0,
		inst(isa.LDI, 0),
		inst(isa.ST, 5),
		inst(isa.LDI, 5),
		inst(isa.DIV, 5),
		inst(isa.HALT, 0),
		0,
	)

	runUntilHalt(t, m, 100)

	if got := m.Registers().Get(ACC); got != 0 {
		t.Errorf("ACC = %d, want 0", got)
	}
	if !m.Flags().Z {
		t.Errorf("Z = false, want true after divide by zero")
	}
}

// TestInvariantsHoldEveryTick checks two invariants after every single
// Step, not only once at the end of a run: the address-bearing registers
// (AR, IP, SP, SPC — the ones Memory.Read/Write index with directly) stay
// within the 2**24 address space, and Z always agrees with "ACC == 0" the
// moment a tick completes (the program has no CMP, whose flags describe
// ACC minus the operand rather than ACC itself). ACC/DR are excluded from the address-range
// check since they carry full 32-bit ALU results (e.g. MUL can overflow
// past AddrMask), not addresses.
func TestInvariantsHoldEveryTick(t *testing.T) {
	m := NewMachine()
	loadWords(t, m, 0,
		inst(isa.LDI, 2),
		inst(isa.ST, 8),
		inst(isa.LDI, 3),
		inst(isa.ADD, 8),
		inst(isa.SUB, 8),
		inst(isa.SUB, 8),
		inst(isa.HALT, 0),
		0,
	)

	for tick := 0; !m.IsHalted(); tick++ {
		if tick >= 200 {
			t.Fatalf("machine did not halt within 200 ticks")
		}
		if err := m.Step(); err != nil {
			t.Fatalf("Step at tick %d: %v", tick, err)
		}

		regs := m.Registers()
		for _, r := range []RegName{AR, IP, SP, SPC} {
			if got := regs.Get(r); got > isa.AddrMask {
				t.Fatalf("tick %d: register %v = %#x exceeds AddrMask %#x", tick, r, got, isa.AddrMask)
			}
		}

		if want := regs.Get(ACC) == 0; m.Flags().Z != want {
			t.Fatalf("tick %d: Z = %v, want %v (ACC = %d)", tick, m.Flags().Z, want, regs.Get(ACC))
		}
	}
}

func TestPushPop(t *testing.T) {
	m := NewMachine()
	initialSP := m.Registers().Get(SP)

	loadWords(t, m, 0,
		inst(isa.LDI, 77),
		inst(isa.PUSH, 0),
		inst(isa.CLA, 0),
		inst(isa.POP, 0),
		inst(isa.HALT, 0),
	)

	runUntilHalt(t, m, 100)

	if got := m.Registers().Get(ACC); got != 77 {
		t.Errorf("ACC = %d, want 77", got)
	}
	if got := m.Registers().Get(SP); got != initialSP {
		t.Errorf("SP = %#x, want %#x", got, initialSP)
	}
}
