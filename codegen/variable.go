/*
	   nscc code emitter — variable access

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

// CodeVariableCP is the higher-level copy used for both variable reads
// (top=true) and assignment stores (top=false): it resolves the
// target's address, applies any pre/post increment the referencing
// record requests, and — for a partial struct-element read with the
// struct-copy optimization off — copies the whole struct and DESTRUCTs
// down to the element. flags and stackOffset come from the referencing
// record, not the symbol: the record captured them when the reference
// was still in scope.
func (e *Emitter) CodeVariableCP(top bool, sym *symtab.Symbol, ty, sourceType symtab.Type, flags symtab.Flags, element, stackOffset int) error {
	depth, bpRel := e.resolveOffset(sym, flags, stackOffset)
	elementOffset := 0
	if element != -1 {
		elementOffset = element
	}
	elementSize := e.sizeOf(ty)

	var cpOp vmisa.Op
	switch {
	case top && !bpRel:
		cpOp = vmisa.OpCPTOPSP
	case !top && !bpRel:
		cpOp = vmisa.OpCPDOWNSP
	case top && bpRel:
		cpOp = vmisa.OpCPTOPBP
	default:
		cpOp = vmisa.OpCPDOWNBP
	}

	if flags.Has(symtab.PreIncrement) {
		if err := e.codeIncDec(bpRel, false, depth-elementOffset); err != nil {
			return err
		}
	} else if flags.Has(symtab.PreDecrement) {
		if err := e.codeIncDec(bpRel, true, depth-elementOffset); err != nil {
			return err
		}
	}

	if !top || element == -1 || e.cfg.Flags.OptStructCopy {
		if err := e.CodeCP(cpOp, depth-elementOffset, elementSize); err != nil {
			return err
		}
	} else {
		totalSize := e.sizeOf(sourceType)
		if err := e.CodeCP(cpOp, depth, totalSize); err != nil {
			return err
		}
		if err := e.CodeDESTRUCT(totalSize, element, elementSize); err != nil {
			return err
		}
	}

	// A post-increment lands after the copy, so an SP-relative target
	// has slid one cell deeper under the value just pushed.
	spAdj := 0
	if !bpRel {
		spAdj = 1
	}
	if flags.Has(symtab.PostIncrement) {
		if err := e.codeIncDec(bpRel, false, depth-elementOffset+spAdj); err != nil {
			return err
		}
	} else if flags.Has(symtab.PostDecrement) {
		if err := e.codeIncDec(bpRel, true, depth-elementOffset+spAdj); err != nil {
			return err
		}
	}
	return nil
}

func (e *Emitter) codeIncDec(bpRel, dec bool, depthCells int) error {
	switch {
	case !bpRel && !dec:
		return e.CodeINC(vmisa.OpINCISP, depthCells)
	case !bpRel && dec:
		return e.CodeINC(vmisa.OpDECISP, depthCells)
	case bpRel && !dec:
		return e.CodeINC(vmisa.OpINCIBP, depthCells)
	default:
		return e.CodeINC(vmisa.OpDECIBP, depthCells)
	}
}
