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
	"bufio"
	"bytes"
	"flag"
	"log"
	"os"
	"strings"

	"github.com/k0kubun/pp/v3"

	"github.com/arlobright/accumac/pkg/assembler"
	"github.com/arlobright/accumac/pkg/compiler"
	"github.com/arlobright/accumac/pkg/encoding"
)

var asmvar bool
var hlvar bool
var vizvar string

const usage = "translator [-asm|-hl] [-viz file] input output"

func init() {
	log.SetFlags(0)
	log.SetOutput(os.Stderr)
}

func init() {
	flag.BoolVar(&asmvar, "asm", false, "Treats the input file as assembly rather than surface-language source")
	flag.BoolVar(&hlvar, "hl", false, "Treats the input file as surface-language source (default)")
	flag.StringVar(&vizvar, "viz", "", "Pretty-prints the resolved AST to the named file (surface-language input only)")
	flag.Parse()
}

func reportTokenError(input string, name string, err error) {
	tokenErr, ok := err.(assembler.TokenError)
	if !ok {
		log.Println(err)
		return
	}

	cursor := tokenErr.GetPosition()
	lines := strings.Split(input, "\n")
	if cursor.Line-1 < 0 || cursor.Line-1 >= len(lines) {
		log.Println(err)
		return
	}
	line := lines[cursor.Line-1]

	underline := strings.Repeat(" ", cursor.Column-1) + "^"
	log.Printf("%s:%d:%d: %s\n%s\n\033[31m%s\033[0m", name, cursor.Line, cursor.Column, err, line, underline)
}

func translate() int {
	args := flag.Args()

	if asmvar && hlvar {
		log.Println("-asm and -hl are mutually exclusive")
		return 1
	}

	if len(args) != 2 {
		log.Println(usage)
		return 1
	}

	infile, outfile := args[0], args[1]

	source, err := os.ReadFile(infile)
	if err != nil {
		log.Println(err)
		return 1
	}

	var img *assembler.Image

	if asmvar {
		img, err = assembler.Assemble(string(source))
		if err != nil {
			reportTokenError(string(source), infile, err)
			return 1
		}
	} else {
		if vizvar != "" {
			program, perr := compiler.Parse(string(source))
			if perr != nil {
				log.Println(perr)
				return 1
			}
			vf, verr := os.Create(vizvar)
			if verr != nil {
				log.Println(verr)
				return 1
			}
			pp.Fprintln(vf, program)
			vf.Close()
		}

		img, err = compiler.Compile(string(source))
		if err != nil {
			log.Println(err)
			return 1
		}
	}

	buffer := new(bytes.Buffer)
	header := make([]byte, 8)
	encoding.PutWordBE(header[0:4], uint32(len(img.Code)))
	encoding.PutWordBE(header[4:8], uint32(len(img.Data)))
	buffer.Write(header)

	word := make([]byte, 4)
	for _, w := range img.Code {
		encoding.PutWordBE(word, w)
		buffer.Write(word)
	}
	for _, w := range img.Data {
		encoding.PutWordBE(word, w)
		buffer.Write(word)
	}

	out, err := os.Create(outfile)
	if err != nil {
		log.Println(err)
		return 1
	}
	defer out.Close()

	bw := bufio.NewWriter(out)
	if _, err := bw.Write(buffer.Bytes()); err != nil {
		log.Println(err)
		return 1
	}
	if err := bw.Flush(); err != nil {
		log.Println(err)
		return 1
	}

	return 0
}

func main() {
	os.Exit(translate())
}
