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

// IRQType identifies the sole interrupt source this machine supports.
type IRQType uint8

const (
	IRQNone IRQType = iota
	IRQInput
)

type intState uint8

const (
	intSavingPC intState = iota
	intExecuting
	intRestoring
)

// InterruptController holds the enable bit, in-progress bit, pending IRQ,
// SPC, and the fixed vector table. Interrupts do not nest: an IRQ raised
// while one is in progress is dropped at SetIRQ time (spec.md §4.4).
type InterruptController struct {
	IE  bool
	IPC bool

	irq IRQType

	defaultVec uint32
	inputVec   uint32

	state intState
}

func (ic *InterruptController) reset() {
	*ic = InterruptController{defaultVec: ic.defaultVec, inputVec: ic.inputVec}
}

func (ic *InterruptController) SetVectorTable(defaultVec, inputVec uint32) {
	ic.defaultVec = defaultVec
	ic.inputVec = inputVec
}

// SetIRQ raises an interrupt unless one is already in progress.
func (ic *InterruptController) SetIRQ(irq IRQType) {
	if !ic.IPC {
		ic.irq = irq
	}
}

// ShouldInterrupt reports whether entry should happen at the next
// instruction boundary.
func (ic *InterruptController) ShouldInterrupt() bool {
	return ic.IE && ic.irq != IRQNone && !ic.IPC
}

// Vector returns the address interrupt entry loads into IP.
func (ic *InterruptController) Vector() uint32 {
	switch ic.irq {
	case IRQInput:
		return ic.inputVec
	default:
		return ic.defaultVec
	}
}

// Enter transitions into the interrupt: the caller (Machine.enterInterrupt,
// via the datapath's ALU_SPC and VEC_PC latches) has already saved IP into SPC and
// loaded IP from Vector(). Enter just updates the controller's own state.
func (ic *InterruptController) Enter() {
	ic.IPC = true
	ic.irq = IRQNone
	ic.state = intExecuting
}

// Return clears IPC on IRET; IP itself is restored by the SPC->IP latch.
func (ic *InterruptController) Return() {
	ic.IPC = false
	ic.state = intSavingPC
}
