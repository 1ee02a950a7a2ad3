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

package encoding

import (
	"fmt"
	"hash"
	"hash/fnv"
)

// FNV1a is the log-hashing wrapper around hash/fnv's 64-bit FNV-1a
// implementation: hash.Hash64 already implements io.Writer and exposes
// Sum64 at any point without resetting, which is exactly what letting the
// hasher sit behind an io.MultiWriter alongside the log file needs.
type FNV1a struct {
	hash.Hash64
}

// NewFNV1a returns a hasher seeded at the FNV offset basis.
func NewFNV1a() *FNV1a {
	return &FNV1a{Hash64: fnv.New64a()}
}

// HexString returns the lowercase hex representation written to
// log_hash_file.
func (h *FNV1a) HexString() string {
	return fmt.Sprintf("%016x", h.Sum64())
}
