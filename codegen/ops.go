/*
	   nscc code emitter — operator tables

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
	"github.com/ncsforge/nscc/pcode"
	"github.com/ncsforge/nscc/vmisa"
)

// binaryOp maps a simple binary/comparison PCode tag to its VM opcode.
func binaryOp(tag pcode.Tag) vmisa.Op {
	switch tag {
	case pcode.TagAdd:
		return vmisa.OpADD
	case pcode.TagSub:
		return vmisa.OpSUB
	case pcode.TagMul:
		return vmisa.OpMUL
	case pcode.TagDiv:
		return vmisa.OpDIV
	case pcode.TagMod:
		return vmisa.OpMOD
	case pcode.TagShl:
		return vmisa.OpSHLEFT
	case pcode.TagShr:
		return vmisa.OpSHRIGHT
	case pcode.TagUshr:
		return vmisa.OpUSHRIGHT
	case pcode.TagBitAnd:
		return vmisa.OpBOOLAND
	case pcode.TagBitOr:
		return vmisa.OpINCOR
	case pcode.TagBitXor:
		return vmisa.OpEXCOR
	case pcode.TagCmpEq:
		return vmisa.OpEQUAL
	case pcode.TagCmpNe:
		return vmisa.OpNEQUAL
	case pcode.TagCmpLt:
		return vmisa.OpLT
	case pcode.TagCmpLe:
		return vmisa.OpLEQ
	case pcode.TagCmpGt:
		return vmisa.OpGT
	case pcode.TagCmpGe:
		return vmisa.OpGEQ
	default:
		return 0
	}
}

// unaryOp maps Neg/BitNot/LogNot to its VM opcode.
func unaryOp(tag pcode.Tag) vmisa.Op {
	switch tag {
	case pcode.TagNeg:
		return vmisa.OpNEG
	case pcode.TagBitNot:
		return vmisa.OpCOMP
	case pcode.TagLogNot:
		return vmisa.OpNOT
	default:
		return 0
	}
}

func assignBinaryTag(op pcode.AssignOp) pcode.Tag {
	switch op {
	case pcode.AssignMul:
		return pcode.TagMul
	case pcode.AssignDiv:
		return pcode.TagDiv
	case pcode.AssignMod:
		return pcode.TagMod
	case pcode.AssignAdd:
		return pcode.TagAdd
	case pcode.AssignSub:
		return pcode.TagSub
	case pcode.AssignShl:
		return pcode.TagShl
	case pcode.AssignShr:
		return pcode.TagShr
	case pcode.AssignUshr:
		return pcode.TagUshr
	case pcode.AssignAnd:
		return pcode.TagBitAnd
	case pcode.AssignXor:
		return pcode.TagBitXor
	case pcode.AssignOr:
		return pcode.TagBitOr
	default:
		return pcode.TagAdd // unreachable for AssignPlain, which never binarizes
	}
}
