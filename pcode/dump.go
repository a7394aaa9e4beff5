/*
	   nscc PCode tree printer

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

package pcode

import (
	"fmt"
	"strings"
)

// tagNames gives every record kind a printable name so a record
// stream can be inspected independent of code generation.
var tagNames = map[Tag]string{
	TagAdd: "Add", TagSub: "Sub", TagMul: "Mul", TagDiv: "Div", TagMod: "Mod",
	TagShl: "Shl", TagShr: "Shr", TagUshr: "Ushr", TagBitAnd: "BitAnd",
	TagBitOr: "BitOr", TagBitXor: "BitXor", TagCmpEq: "CmpEq", TagCmpNe: "CmpNe",
	TagCmpLt: "CmpLt", TagCmpLe: "CmpLe", TagCmpGt: "CmpGt", TagCmpGe: "CmpGe",
	TagNeg: "Neg", TagBitNot: "BitNot", TagLogNot: "LogNot", TagConstEnd: "ConstEnd",
	TagLineMarker: "Line", TagBreak: "Break", TagContinue: "Continue",
	TagConstant: "Constant", TagVariable: "Variable", TagDeclaration: "Declaration",
	TagArgument: "Argument", TagStatement: "Statement", TagCall: "Call",
	TagElement: "Element", TagReturn: "Return", TagCase: "Case", TagDefault: "Default",
	TagLogicalAnd: "LogicalAnd", TagLogicalOr: "LogicalOr", TagAssignment: "Assignment",
	TagBlock5: "Block5",
}

// Dump writes a human-readable, indented tree of slice to sb, recursing
// into every composite's children. Used by the REPL inspector; never by
// the emitter itself.
func (b *Buffer) Dump(sb *strings.Builder, slice Slice) {
	b.dump(sb, slice, 0)
}

func (b *Buffer) dump(sb *strings.Builder, slice Slice, depth int) {
	indent := strings.Repeat("  ", depth)
	for i := slice.Start; i < slice.Start+slice.Len; i++ {
		n := &b.nodes[i]
		fmt.Fprintf(sb, "%s[%d] %s type=%s", indent, i, tagNames[n.Tag], n.Type)
		switch n.Tag {
		case TagConstant:
			fmt.Fprintf(sb, " int=%d float=%g str=%q", n.ConstInt, n.ConstFloat, n.ConstStr)
		case TagVariable, TagAssignment:
			fmt.Fprintf(sb, " sym=%d element=%d stackOffset=%d flags=%x", n.Symbol, n.Element, n.StackOffset, n.Flags)
		case TagCall:
			fmt.Fprintf(sb, " callee=%d argc=%d", n.CalleeSymbol, n.ArgCount)
		case TagStatement:
			fmt.Fprintf(sb, " locals=%d", n.Locals)
		case TagBlock5:
			fmt.Fprintf(sb, " op=%d", n.BlockOp)
		}
		sb.WriteByte('\n')
		if !n.Child.Empty() {
			b.dump(sb, n.Child, depth+1)
		}
		if !n.Child2.Empty() {
			b.dump(sb, n.Child2, depth+1)
		}
		if n.Tag == TagBlock5 {
			for _, slot := range n.Slots {
				if !slot.Body.Empty() {
					b.dump(sb, slot.Body, depth+1)
				}
			}
		}
	}
}
