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

// Package compiler lowers the high-level surface language to the assembly
// text pkg/assembler accepts: Parse builds an AST, Generate walks it into
// assembly, and Compile chains both together with pkg/assembler.Assemble to
// go straight from source to a binary image.
package compiler

import "github.com/arlobright/accumac/pkg/assembler"

// CompileToAssembly runs the front end only, returning the generated
// assembly text without assembling it. Compile calls it before handing the
// text to pkg/assembler.
func CompileToAssembly(source string) (string, error) {
	program, err := Parse(source)
	if err != nil {
		return "", err
	}
	return Generate(program)
}

// Compile parses source, generates assembly, and assembles it into a
// binary image in one step.
func Compile(source string) (*assembler.Image, error) {
	asm, err := CompileToAssembly(source)
	if err != nil {
		return nil, err
	}
	return assembler.Assemble(asm)
}
