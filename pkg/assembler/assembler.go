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

package assembler

import (
	"fmt"
	"strings"

	"github.com/arlobright/accumac/pkg/encoding"
	"github.com/arlobright/accumac/pkg/isa"
)

// section names the two address spaces a line can contribute to.
type section int

const (
	sectionText section = iota
	sectionData
)

func (s section) String() string {
	if s == sectionData {
		return ".data"
	}
	return ".text"
}

// dataItemKind distinguishes the five data-line forms spec.md §4.6 allows.
type dataItemKind int

const (
	itemNumber dataItemKind = iota
	itemLabel
	itemString
	itemZero
)

type dataItem struct {
	kind   dataItemKind
	number uint32
	label  string
	text   string
	zero   uint32
}

// wordCount reports how many words this item contributes to .data layout.
func (it dataItem) wordCount() uint32 {
	switch it.kind {
	case itemString:
		return uint32(len(it.text))
	case itemZero:
		return it.zero
	default:
		return 1
	}
}

type lineKind int

const (
	lineBlank lineKind = iota
	lineOrg
	lineInstruction
	lineData
)

// parsedLine is the single-pass lexical result of one source line: enough
// to both compute layout (pass 1) and emit words (pass 2) without
// re-scanning the source text.
type parsedLine struct {
	pos   Cursor
	label string // optional label on this line, "" if none
	sect  section
	kind  lineKind

	orgValue uint32

	mnemonic   string
	operandTok string
	hasOperand bool

	items []dataItem

	// addr is filled in during pass 1: the absolute address of this line's
	// first word. Both cursors are absolute from the start of layout, since
	// dataStart is computed by a quick pre-pass before either cursor moves.
	addr uint32
}

// Image is the assembled result: code and data words ready for
// LoadImage's header-plus-payload framing.
type Image struct {
	Code []uint32
	Data []uint32
}

// Assemble runs the full two-pass pipeline described in spec.md §4.6 over
// source text and returns the resulting image.
func Assemble(source string) (*Image, error) {
	lines, err := parseLines(source)
	if err != nil {
		return nil, err
	}

	textSize, dataSize, labels, err := layout(lines)
	if err != nil {
		return nil, err
	}

	// +1 for the synthesized reset-vector word at code[0]: data addresses
	// are absolute over the whole image, not just the .text region.
	dataStart := textSize + 1

	startAddr, ok := labels["_start"]
	if !ok {
		return nil, &MissingEntryPointError{}
	}

	// code[0] is the synthesized reset vector; real text begins at code[1].
	code := make([]uint32, 1+textSize)
	code[0] = isa.EncodeWord(isa.JMP, startAddr)
	data := make([]uint32, dataSize)

	if err := emit(lines, labels, code, data, dataStart); err != nil {
		return nil, err
	}

	return &Image{Code: code, Data: data}, nil
}

// parseLines performs the lexical pass: strip comments, split each line
// into an optional label, an optional directive/instruction/data body, and
// record its section based on the most recently seen .text/.data
// directive (starting in .text).
func parseLines(source string) ([]*parsedLine, error) {
	var lines []*parsedLine
	cur := sectionText

	for lineNo, raw := range strings.Split(source, "\n") {
		pos := Cursor{Line: lineNo + 1, Column: 1}

		text := stripComment(raw)
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		label := ""
		if idx := strings.IndexByte(text, ':'); idx >= 0 && !strings.HasPrefix(text, "\"") {
			candidate := strings.TrimSpace(text[:idx])
			if candidate != "" && isIdent(candidate) {
				label = candidate
				text = strings.TrimSpace(text[idx+1:])
			}
		}

		if text == "" {
			if label == "" {
				continue
			}
			lines = append(lines, &parsedLine{pos: pos, label: label, sect: cur, kind: lineBlank})
			continue
		}

		fields := strings.SplitN(text, " ", 2)
		head := strings.ToLower(fields[0])
		rest := ""
		if len(fields) == 2 {
			rest = strings.TrimSpace(fields[1])
		}

		switch head {
		case ".text":
			cur = sectionText
			continue
		case ".data":
			cur = sectionData
			continue
		case ".org":
			if rest == "" {
				return nil, &MalformedLineError{Position: pos, Text: raw}
			}
			val, err := encoding.DecodeLiteral(rest)
			if err != nil {
				return nil, &InvalidLiteralError{Position: pos, Text: rest}
			}
			lines = append(lines, &parsedLine{pos: pos, label: label, sect: cur, kind: lineOrg, orgValue: val})
			continue
		}

		if cur == sectionText {
			if _, ok := isa.Lookup(head); !ok {
				return nil, &UnknownMnemonicError{Position: pos, Text: head}
			}
			lines = append(lines, &parsedLine{
				pos: pos, label: label, sect: cur, kind: lineInstruction,
				mnemonic: head, operandTok: rest, hasOperand: rest != "",
			})
			continue
		}

		items, err := parseDataItems(pos, text)
		if err != nil {
			return nil, err
		}
		lines = append(lines, &parsedLine{pos: pos, label: label, sect: cur, kind: lineData, items: items})
	}

	return lines, nil
}

// stripComment removes a trailing ';' comment, honoring string literals so
// a ';' inside quotes isn't mistaken for one.
func stripComment(s string) string {
	inString := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			inString = !inString
		case '\\':
			if inString {
				i++
			}
		case ';':
			if !inString {
				return s[:i]
			}
		}
	}
	return s
}

func isIdent(s string) bool {
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return s != ""
}

// parseDataItems parses one .data line's body: `.zero N`, a single string
// literal, or a comma-separated list of numbers and labels. A string
// literal cannot appear inside a comma-separated list.
func parseDataItems(pos Cursor, text string) ([]dataItem, error) {
	fields := strings.SplitN(text, " ", 2)
	if strings.ToLower(fields[0]) == ".zero" {
		if len(fields) != 2 {
			return nil, &MalformedLineError{Position: pos, Text: text}
		}
		n, err := encoding.DecodeLiteral(strings.TrimSpace(fields[1]))
		if err != nil {
			return nil, &InvalidLiteralError{Position: pos, Text: fields[1]}
		}
		return []dataItem{{kind: itemZero, zero: n}}, nil
	}

	if strings.HasPrefix(text, "\"") {
		s, err := parseStringLiteral(pos, text)
		if err != nil {
			return nil, err
		}
		return []dataItem{{kind: itemString, text: s}}, nil
	}

	var items []dataItem
	for _, tok := range splitTopLevelCommas(text) {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			return nil, &MalformedLineError{Position: pos, Text: text}
		}
		if n, err := encoding.DecodeLiteral(tok); err == nil {
			items = append(items, dataItem{kind: itemNumber, number: n})
			continue
		}
		if !isIdent(tok) {
			return nil, &InvalidLiteralError{Position: pos, Text: tok}
		}
		items = append(items, dataItem{kind: itemLabel, label: tok})
	}
	return items, nil
}

func splitTopLevelCommas(s string) []string {
	return strings.Split(s, ",")
}

// parseStringLiteral unquotes text, expanding the escapes spec.md §4.6
// names: \0 \n \t \\ \".
func parseStringLiteral(pos Cursor, text string) (string, error) {
	if len(text) < 2 || text[0] != '"' || text[len(text)-1] != '"' {
		return "", &InvalidStringError{Position: pos, Text: text}
	}
	body := text[1 : len(text)-1]

	var b strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(body) {
			return "", &InvalidStringError{Position: pos, Text: text}
		}
		switch body[i] {
		case '0':
			b.WriteByte(0)
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case '\\':
			b.WriteByte('\\')
		case '"':
			b.WriteByte('"')
		default:
			return "", &InvalidStringError{Position: pos, Text: text}
		}
	}
	return b.String(), nil
}

// computeTextSize runs a throwaway pass over just the .text lines to learn
// textSize (and so dataStart = textSize+1) before layout's real pass
// begins. This is what lets layout treat both cursors as absolute from
// their very first line: a .org in .data names an absolute address exactly
// like a .org in .text does, and that only works if dataStart is already
// known by the time layout gets there, rather than being derived from the
// same pass's own final dataCursor value.
func computeTextSize(lines []*parsedLine) uint32 {
	var textCursor uint32 = 1
	for _, ln := range lines {
		if ln.sect != sectionText {
			continue
		}
		switch ln.kind {
		case lineOrg:
			textCursor = ln.orgValue
		case lineInstruction:
			textCursor++
		case lineData:
			for _, it := range ln.items {
				textCursor += it.wordCount()
			}
		}
	}
	return textCursor - 1
}

// layout runs pass 1 (spec.md §4.6): walk the parsed lines tracking a
// cursor per section, record each label's address, and compute final
// textSize/dataSize. textCursor starts at 1, not 0, since mem[0] always
// holds the synthesized reset vector, and dataCursor starts at dataStart
// (computed by computeTextSize up front) rather than at 0 — so both a
// bare label and a .org value are already the line's true absolute
// address in either section, matching spec.md's ".org in a section sets
// the next cursor to an absolute address" for .data as much as for .text.
func layout(lines []*parsedLine) (textSize, dataSize uint32, labels map[string]uint32, err error) {
	labels = make(map[string]uint32)

	dataStart := computeTextSize(lines) + 1

	var textCursor uint32 = 1
	dataCursor := dataStart

	cursorFor := func(s section) *uint32 {
		if s == sectionText {
			return &textCursor
		}
		return &dataCursor
	}

	for _, ln := range lines {
		cursor := cursorFor(ln.sect)

		if ln.label != "" {
			if _, dup := labels[ln.label]; dup {
				return 0, 0, nil, &RedeclaredLabelError{Position: ln.pos, Name: ln.label}
			}
			labels[ln.label] = *cursor
		}

		ln.addr = *cursor

		switch ln.kind {
		case lineOrg:
			*cursor = ln.orgValue
		case lineInstruction:
			*cursor++
		case lineData:
			for _, it := range ln.items {
				*cursor += it.wordCount()
			}
		}
	}

	return textCursor - 1, dataCursor - dataStart, labels, nil
}

// emit runs pass 2 (spec.md §4.6): turn each line into its final words.
func emit(lines []*parsedLine, labels map[string]uint32, code, data []uint32, dataStart uint32) error {
	resolve := func(pos Cursor, tok string) (uint32, error) {
		if n, err := encoding.DecodeLiteral(tok); err == nil {
			return n, nil
		}
		if addr, ok := labels[tok]; ok {
			return addr, nil
		}
		return 0, &UnknownLabelError{Position: pos, Name: tok}
	}

	for _, ln := range lines {
		switch ln.kind {
		case lineInstruction:
			op, _ := isa.Lookup(ln.mnemonic)
			var operand uint32
			if isa.HasOperand(op) {
				if !ln.hasOperand {
					return &InvalidOperandError{Position: ln.pos, Mnemonic: ln.mnemonic, Wanted: true}
				}
				v, err := resolve(ln.pos, ln.operandTok)
				if err != nil {
					return err
				}
				operand = v
			} else if ln.hasOperand {
				return &InvalidOperandError{Position: ln.pos, Mnemonic: ln.mnemonic, Wanted: false}
			}
			code[ln.addr] = isa.EncodeWord(op, operand)

		case lineData:
			addr := ln.addr - dataStart
			for _, it := range ln.items {
				switch it.kind {
				case itemNumber:
					data[addr] = it.number
					addr++
				case itemLabel:
					v, err := resolve(ln.pos, it.label)
					if err != nil {
						return err
					}
					data[addr] = v
					addr++
				case itemString:
					for i := 0; i < len(it.text); i++ {
						data[addr] = uint32(it.text[i])
						addr++
					}
				case itemZero:
					for i := uint32(0); i < it.zero; i++ {
						data[addr] = 0
						addr++
					}
				}
			}
		}
	}

	return nil
}

// FormatDump renders an already-assembled image the way
// original_source/translator/binarizer.cpp's human-readable dump does:
// one "addr: word" line per populated word, code first, then data.
func FormatDump(img *Image) string {
	var b strings.Builder
	for i, w := range img.Code {
		fmt.Fprintf(&b, "%06x: %08x\n", i, w)
	}
	for i, w := range img.Data {
		fmt.Fprintf(&b, "%06x: %08x\n", len(img.Code)+i, w)
	}
	return b.String()
}
