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

package compiler

import "testing"

func TestLexCombinedIntArrayKeyword(t *testing.T) {
	toks, err := lex("int[] xs;")
	if err != nil {
		t.Fatalf("lex: %v", err)
	}
	if toks[0].typ != tokKeywordIntArr {
		t.Fatalf("toks[0].typ = %v, want tokKeywordIntArr", toks[0].typ)
	}
	if toks[1].typ != tokIdentifier || toks[1].value != "xs" {
		t.Fatalf("toks[1] = %+v, want identifier xs", toks[1])
	}
}

func TestLexTwoCharOperators(t *testing.T) {
	toks, err := lex("a != b && c == d || e <= f")
	if err != nil {
		t.Fatalf("lex: %v", err)
	}
	want := []tokenType{
		tokIdentifier, tokNotEqual, tokIdentifier, tokAnd, tokIdentifier,
		tokEqual, tokIdentifier, tokOr, tokIdentifier, tokLessEqual, tokIdentifier, tokEOF,
	}
	if len(toks) != len(want) {
		t.Fatalf("len(toks) = %d, want %d", len(toks), len(want))
	}
	for i, w := range want {
		if toks[i].typ != w {
			t.Fatalf("toks[%d].typ = %v, want %v", i, toks[i].typ, w)
		}
	}
}

func TestLexStringEscapes(t *testing.T) {
	toks, err := lex(`"a\nb\tc\\d\"e"`)
	if err != nil {
		t.Fatalf("lex: %v", err)
	}
	if toks[0].typ != tokString {
		t.Fatalf("toks[0].typ = %v, want tokString", toks[0].typ)
	}
	if want := "a\nb\tc\\d\"e"; toks[0].value != want {
		t.Fatalf("toks[0].value = %q, want %q", toks[0].value, want)
	}
}

func TestLexCharEscape(t *testing.T) {
	toks, err := lex(`'\n'`)
	if err != nil {
		t.Fatalf("lex: %v", err)
	}
	if toks[0].typ != tokChar || toks[0].value != "\n" {
		t.Fatalf("toks[0] = %+v, want char '\\n'", toks[0])
	}
}

func TestLexUnterminatedStringIsError(t *testing.T) {
	if _, err := lex(`"abc`); err == nil {
		t.Fatal("expected error for unterminated string")
	}
}

func TestLexLineComment(t *testing.T) {
	toks, err := lex("int x; // trailing comment\nint y;")
	if err != nil {
		t.Fatalf("lex: %v", err)
	}
	// int x ; int y ; EOF
	if len(toks) != 7 {
		t.Fatalf("len(toks) = %d, want 7", len(toks))
	}
	if toks[4].line != 2 {
		t.Fatalf("second statement line = %d, want 2", toks[4].line)
	}
}
