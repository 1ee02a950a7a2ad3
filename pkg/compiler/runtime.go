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

// runtimeData declares every memory cell the runtime routines below share,
// plus the two scratch cells (temp_right, temp_ret_addr) the generated user
// code itself relies on. It is assembled once per program, after every
// user-level .data entry emitted by codegen.go.
const runtimeData = `
  temp_right: 0
  temp_ret_addr: 0

  input_char: 0
  input_ready: 0
  input_count: 0

  const_10: 10

  ri_value: 0
  ri_negative: 0
  ri_char: 0
  ri_char_0: 48
  ri_char_9: 57
  ri_minus_char: 45

  rs_index: 0
  rs_char: 0
  rs_newline: 10
  read_buf: .zero 65

  ra_len: 0
  ra_index: 0
  ra_val: 0
  arr_buf: .zero 65

  ws_base: 0
  ws_index: 0
  ws_char: 0

  wa_base: 0
  wa_len: 0
  wa_index: 0

  wi_val: 0
  wi_negative: 0
  wi_count: 0
  wi_zero_char: 48
`

// runtimeInterruptHandler is placed at isa.DefaultInterruptVector by the
// ".org 0x20" assemble() writes ahead of it. The scheduled I/O device has
// already latched the incoming token into the input port by the time this
// runs (pkg/machine/io.go's CheckInput); the handler's only job is to copy
// it somewhere read_char can poll without racing the next interrupt.
const runtimeInterruptHandler = `
default_interrupt:
  ld 0x10
  st input_char
  ldi 1
  st input_ready
  iret
`

// runtimeCode holds the nine reserved I/O routines and arr_size, dispatched
// to by genReservedCall/genMethodCall. None of them take arguments on the
// stack: "in"/"out" pass their single argument through input_count or ACC,
// so unlike a user function's prologue these never touch temp_ret_addr —
// the return address CALL auto-pushed is exactly what a bare ret expects.
const runtimeCode = `
read_char:
rc_wait:
  ld input_ready
  jz rc_wait
  ldi 0
  st input_ready
  ld input_char
  ret

read_int:
  ldi 0
  st ri_value
  ldi 0
  st ri_negative
  call read_char
  st ri_char
  ld ri_char
  cmp ri_minus_char
  jnz ri_loop
  ldi 1
  st ri_negative
  call read_char
  st ri_char
ri_loop:
  ld ri_char
  cmp ri_char_0
  jl ri_done
  ld ri_char
  cmp ri_char_9
  jg ri_done
  ld ri_char
  sub ri_char_0
  push
  ld ri_value
  mul const_10
  st ri_value
  pop
  add ri_value
  st ri_value
  call read_char
  st ri_char
  jmp ri_loop
ri_done:
  ld ri_negative
  jz ri_return_pos
  ld ri_value
  not
  inc
  ret
ri_return_pos:
  ld ri_value
  ret

read_string:
  ldi 0
  st rs_index
rs_loop:
  ld rs_index
  cmp input_count
  jge rs_done
  call read_char
  cmp rs_newline
  jz rs_done
  st rs_char
  ld rs_index
  st temp_right
  ldi read_buf
  add temp_right
  st temp_right
  ld rs_char
  sta temp_right
  ld rs_index
  inc
  st rs_index
  jmp rs_loop
rs_done:
  ld rs_index
  st temp_right
  ldi read_buf
  add temp_right
  st temp_right
  ldi 0
  sta temp_right
  ldi read_buf
  ret

read_arr:
  ld input_count
  st ra_len
  st arr_buf
  ldi 0
  st ra_index
ra_loop:
  ld ra_index
  cmp ra_len
  jge ra_done
  call read_int
  st ra_val
  ld ra_index
  inc
  st temp_right
  ldi arr_buf
  add temp_right
  st temp_right
  ld ra_val
  sta temp_right
  ld ra_index
  inc
  st ra_index
  jmp ra_loop
ra_done:
  ldi arr_buf
  ret

write_char:
  st 0x11
  ret

write_int:
  st wi_val
  ldi 0
  st wi_negative
  ld wi_val
  jge wi_extract
  ld wi_val
  not
  inc
  st wi_val
  ldi 1
  st wi_negative
wi_extract:
  ldi 0
  st wi_count
wi_loop:
  ld wi_val
  jz wi_after_loop
  rem const_10
  add wi_zero_char
  push
  ld wi_count
  inc
  st wi_count
  ld wi_val
  div const_10
  st wi_val
  jmp wi_loop
wi_after_loop:
  ld wi_count
  jnz wi_sign
  ldi 48
  push
  ldi 1
  st wi_count
wi_sign:
  ld wi_negative
  jz wi_print
  ldi 45
  st 0x11
wi_print:
  ld wi_count
  jz wi_done
  pop
  st 0x11
  ld wi_count
  dec
  st wi_count
  jmp wi_print
wi_done:
  ret

write_uint:
  st wi_val
  ldi 0
  st wi_count
wu_loop:
  ld wi_val
  jz wu_after_loop
  rem const_10
  add wi_zero_char
  push
  ld wi_count
  inc
  st wi_count
  ld wi_val
  div const_10
  st wi_val
  jmp wu_loop
wu_after_loop:
  ld wi_count
  jnz wu_print
  ldi 48
  push
  ldi 1
  st wi_count
wu_print:
  ld wi_count
  jz wu_done
  pop
  st 0x11
  ld wi_count
  dec
  st wi_count
  jmp wu_print
wu_done:
  ret

write_string:
  st ws_base
  ldi 0
  st ws_index
ws_loop:
  ld ws_index
  st temp_right
  ld ws_base
  add temp_right
  st temp_right
  lda temp_right
  st ws_char
  jz ws_done
  ld ws_char
  st 0x11
  ld ws_index
  inc
  st ws_index
  jmp ws_loop
ws_done:
  ret

write_arr:
  st wa_base
  lda wa_base
  st wa_len
  ldi 0
  st wa_index
wa_loop:
  ld wa_index
  cmp wa_len
  jge wa_done
  ld wa_index
  inc
  st temp_right
  ld wa_base
  add temp_right
  st temp_right
  lda temp_right
  call write_int
  ldi 32
  st 0x11
  ld wa_index
  inc
  st wa_index
  jmp wa_loop
wa_done:
  ret

arr_size:
  st temp_right
  lda temp_right
  ret
`
