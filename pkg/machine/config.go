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
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/arlobright/accumac/pkg/encoding"
)

// InputMode selects how the scheduled input file is interpreted: one
// interrupt per "tick token" line, or one per byte of a raw character
// stream.
type InputMode int

const (
	InputModeToken InputMode = iota
	InputModeStream
)

// Config is the parsed line-oriented "key: value" machine configuration,
// per spec.md's config file grammar and original_source's configParser.hpp.
// A field left unset by the file disables the feature it names; an unknown
// key is a hard error.
type Config struct {
	InputFile      string
	InputMode      InputMode
	ScheduleStart  uint64
	ScheduleOffset uint64
	OutputFile     string
	LogFile        string
	BinaryReprFile string
	LogHashFile    string
}

// unquote strips one matching pair of surrounding double quotes, per
// configParser.hpp's unquote(): a value with no quotes, or mismatched
// ones, passes through unchanged.
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// ParseConfig reads the "key: value" config format line by line. Blank
// lines and lines beginning with '#' are ignored. Values may optionally be
// wrapped in a single pair of double quotes, which are stripped.
func ParseConfig(r io.Reader) (Config, error) {
	var cfg Config
	cfg.InputMode = InputModeToken

	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return Config{}, fmt.Errorf("config line %d: expected \"key: value\", got %q", lineNo, line)
		}
		key = strings.TrimSpace(key)
		value = unquote(strings.TrimSpace(value))

		switch key {
		case "input_file":
			cfg.InputFile = value
		case "input_mode":
			switch value {
			case "token":
				cfg.InputMode = InputModeToken
			case "stream":
				cfg.InputMode = InputModeStream
			default:
				return Config{}, fmt.Errorf("config line %d: unknown input_mode %q", lineNo, value)
			}
		case "schedule_start":
			n, err := strconv.ParseUint(value, 10, 64)
			if err != nil {
				return Config{}, fmt.Errorf("config line %d: %w", lineNo, err)
			}
			cfg.ScheduleStart = n
		case "schedule_offset":
			n, err := strconv.ParseUint(value, 10, 64)
			if err != nil {
				return Config{}, fmt.Errorf("config line %d: %w", lineNo, err)
			}
			cfg.ScheduleOffset = n
		case "output_file":
			cfg.OutputFile = value
		case "log_file":
			cfg.LogFile = value
		case "binary_repr_file":
			cfg.BinaryReprFile = value
		case "log_hash_file":
			cfg.LogHashFile = value
		default:
			return Config{}, fmt.Errorf("config line %d: unknown key %q", lineNo, key)
		}
	}

	if err := scanner.Err(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// BuildSchedule turns the configured input source into the machine's
// (tick, token) schedule. The two input modes name their ticks
// differently, per spec.md §6: stream mode is a plain character stream
// whose pacing schedule_start/schedule_offset supply (tick
// schedule_start, schedule_start+schedule_offset, ... in file order),
// while token mode is "a literal list of (tick, char) tuples" — each line
// names its own tick, so schedule_start/schedule_offset don't apply to it
// at all.
func BuildSchedule(cfg Config, r io.Reader) ([]ScheduleEntry, error) {
	if cfg.InputMode == InputModeStream {
		raw, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		entries := make([]ScheduleEntry, len(raw))
		tick := cfg.ScheduleStart
		for i, b := range raw {
			entries[i] = ScheduleEntry{Tick: tick, Token: uint32(b)}
			tick += cfg.ScheduleOffset
		}
		return entries, nil
	}

	var entries []ScheduleEntry
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("input line %d: expected \"tick token\", got %q", lineNo, line)
		}

		tick, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("input line %d: %w", lineNo, err)
		}

		token, err := decodeToken(fields[1])
		if err != nil {
			return nil, fmt.Errorf("input line %d: %w", lineNo, err)
		}

		entries = append(entries, ScheduleEntry{Tick: tick, Token: token})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// decodeToken parses a single token-mode value: a decimal integer, a
// single character taken by its byte value, or a pkg/encoding literal
// (0x.../0b...).
func decodeToken(word string) (uint32, error) {
	if n, err := strconv.ParseInt(word, 10, 64); err == nil {
		return uint32(n), nil
	}
	if len(word) == 1 {
		return uint32(word[0]), nil
	}
	return encoding.DecodeLiteral(word)
}
