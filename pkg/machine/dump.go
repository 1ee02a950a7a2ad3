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
)

// RegisterSnapshot is a point-in-time copy of the named registers and
// flags, the shape the -verbose per-tick dump renders.
type RegisterSnapshot struct {
	ACC, AR, DR, IP, SP, SPC uint32
	IR                       uint32
	Flags                    Flags
	Tick                     uint64
}

// Snapshot captures the machine's current register state.
func (m *Machine) Snapshot() RegisterSnapshot {
	return RegisterSnapshot{
		ACC:   m.regs.Get(ACC),
		AR:    m.regs.Get(AR),
		DR:    m.regs.Get(DR),
		IP:    m.regs.Get(IP),
		SP:    m.regs.Get(SP),
		SPC:   m.regs.Get(SPC),
		IR:    m.regs.Get(IR),
		Flags: m.regs.Flags,
		Tick:  m.tick,
	}
}

// WriteRegisterDump renders one line of register state to w; cmd/machine's
// -verbose mode writes one such line per tick.
func WriteRegisterDump(w io.Writer, s RegisterSnapshot) error {
	_, err := fmt.Fprintf(w, "tick=%06d acc=%#08x ar=%#08x dr=%#08x ip=%#08x sp=%#08x spc=%#08x ir=%#08x flags=%s\n",
		s.Tick, s.ACC, s.AR, s.DR, s.IP, s.SP, s.SPC, s.IR, s.Flags)
	return err
}

// DumpBinary renders the first wordCount words of m's memory as a hex dump,
// four words per line with a bold address prefix, the way the teacher's
// debugger.PrintMem dumps LC-3 memory. Zero words are dimmed so the
// boundary between code, data, and untouched memory stands out. This is
// what binary_repr_file writes right after LoadImage.
func DumpBinary(w io.Writer, m *Machine, wordCount uint32) error {
	for addr := uint32(0); addr < wordCount; addr++ {
		if addr%4 == 0 {
			if addr != 0 {
				if _, err := fmt.Fprintln(w); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintf(w, "\033[1m[%#06x]\033[0m ", addr); err != nil {
				return err
			}
		}

		word, err := m.ReadMemory(addr)
		if err != nil {
			return err
		}

		if word == 0 {
			_, err = fmt.Fprintf(w, "\033[1;30m%#08x\033[0m ", word)
		} else {
			_, err = fmt.Fprintf(w, "%#08x ", word)
		}
		if err != nil {
			return err
		}
	}
	if wordCount > 0 {
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}
