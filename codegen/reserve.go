/*
	   nscc code emitter — storage reservation

		Copyright (c) 2024, Richard Cornwell

		Permission is hereby granted, free of charge, to any person obtaining a
		copy of this software and associated documentation files (the "Software"),
		to deal in the Software without restriction, including without limitation
		the rights to use, copy, modify, merge, publish, distribute, sublicense,
		and/or sell copies of the Software, and to permit persons to whom the
		Software is furnished to do so, subject to the following conditions:

		The above copyright notice and this permission notice shall be included in
		all copies or substantial portions of the Software.

		THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
		IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
		FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.  IN NO EVENT SHALL
		RICHARD CORNWELL BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
		IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
		CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
*/

package codegen

import (
	"github.com/ncsforge/nscc/symtab"
	"github.com/ncsforge/nscc/vmisa"
)

// CodeReserve emits the RSADD sequence reserving ty's storage — one
// RSADD per scalar cell, three for a Vector, and one per member,
// recursively, for a Struct. cursor, when non-nil, is credited with the
// reserved cell count: a declaration reserves onto SP, a call's return
// slot onto EXP, and the loader's result slot onto neither.
func (e *Emitter) CodeReserve(ty symtab.Type, cursor *int) error {
	if err := e.reserveCells(ty); err != nil {
		return err
	}
	if cursor != nil {
		*cursor += e.sizeOf(ty)
	}
	return nil
}

func (e *Emitter) reserveCells(ty symtab.Type) error {
	switch ty.Tag {
	case symtab.Void, symtab.Action:
		return nil
	case symtab.Vector:
		for i := 0; i < 3; i++ {
			if err := e.codeOpcode(vmisa.OpRSADD, vmisa.TypeFloat); err != nil {
				return err
			}
		}
		return nil
	case symtab.Struct:
		sym := e.syms.Get(ty.Index)
		for _, m := range sym.Struct.Members {
			if err := e.reserveCells(m.Type); err != nil {
				return err
			}
		}
		return nil
	default:
		return e.codeOpcode(vmisa.OpRSADD, vmisa.DeclType(ty))
	}
}
