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
)

func TestParseConfig(t *testing.T) {
	src := `
# comment lines are ignored
input_file: in.txt
input_mode: stream
schedule_start: 5
schedule_offset: 2
output_file: out.txt
log_file: run.log
binary_repr_file: run.bin.txt
log_hash_file: run.hash
`
	cfg, err := ParseConfig(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}

	if cfg.InputFile != "in.txt" || cfg.OutputFile != "out.txt" {
		t.Fatalf("file fields = %+v", cfg)
	}
	if cfg.InputMode != InputModeStream {
		t.Fatalf("InputMode = %v, want InputModeStream", cfg.InputMode)
	}
	if cfg.ScheduleStart != 5 || cfg.ScheduleOffset != 2 {
		t.Fatalf("schedule fields = %+v", cfg)
	}
	if cfg.LogFile != "run.log" || cfg.BinaryReprFile != "run.bin.txt" || cfg.LogHashFile != "run.hash" {
		t.Fatalf("remaining file fields = %+v", cfg)
	}
}

func TestParseConfigUnquotesValues(t *testing.T) {
	cfg, err := ParseConfig(strings.NewReader(`output_file: "out with spaces.txt"` + "\n"))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.OutputFile != "out with spaces.txt" {
		t.Fatalf("OutputFile = %q, want the unquoted path", cfg.OutputFile)
	}
}

func TestParseConfigDefaultsToTokenMode(t *testing.T) {
	cfg, err := ParseConfig(strings.NewReader("input_file: in.txt\n"))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.InputMode != InputModeToken {
		t.Fatalf("InputMode = %v, want InputModeToken (the default)", cfg.InputMode)
	}
}

func TestParseConfigUnknownKey(t *testing.T) {
	_, err := ParseConfig(strings.NewReader("bogus_key: 1\n"))
	if err == nil {
		t.Fatal("expected error for unknown config key")
	}
}

func TestBuildScheduleStreamMode(t *testing.T) {
	cfg := Config{InputMode: InputModeStream, ScheduleStart: 10, ScheduleOffset: 3}
	entries, err := BuildSchedule(cfg, strings.NewReader("AB"))
	if err != nil {
		t.Fatalf("BuildSchedule: %v", err)
	}
	want := []ScheduleEntry{
		{Tick: 10, Token: 'A'},
		{Tick: 13, Token: 'B'},
	}
	if len(entries) != len(want) {
		t.Fatalf("len(entries) = %d, want %d", len(entries), len(want))
	}
	for i, e := range want {
		if entries[i] != e {
			t.Fatalf("entries[%d] = %+v, want %+v", i, entries[i], e)
		}
	}
}

func TestBuildScheduleTokenMode(t *testing.T) {
	cfg := Config{InputMode: InputModeToken}
	src := `
# blank and comment lines are skipped
10 A
25 66
40 0x43
`
	entries, err := BuildSchedule(cfg, strings.NewReader(src))
	if err != nil {
		t.Fatalf("BuildSchedule: %v", err)
	}
	want := []ScheduleEntry{
		{Tick: 10, Token: 'A'},
		{Tick: 25, Token: 66},
		{Tick: 40, Token: 0x43},
	}
	if len(entries) != len(want) {
		t.Fatalf("len(entries) = %d, want %d", len(entries), len(want))
	}
	for i, e := range want {
		if entries[i] != e {
			t.Fatalf("entries[%d] = %+v, want %+v", i, entries[i], e)
		}
	}
}

func TestBuildScheduleTokenModeIgnoresScheduleFields(t *testing.T) {
	cfg := Config{InputMode: InputModeToken, ScheduleStart: 999, ScheduleOffset: 999}
	entries, err := BuildSchedule(cfg, strings.NewReader("7 Z\n"))
	if err != nil {
		t.Fatalf("BuildSchedule: %v", err)
	}
	if len(entries) != 1 || entries[0].Tick != 7 || entries[0].Token != 'Z' {
		t.Fatalf("entries = %+v, want a single (7, 'Z') entry", entries)
	}
}

func TestBuildScheduleTokenModeMalformedLine(t *testing.T) {
	cfg := Config{InputMode: InputModeToken}
	_, err := BuildSchedule(cfg, strings.NewReader("10\n"))
	if err == nil {
		t.Fatal("expected error for a line missing its token")
	}
}
