/*
	   nscc code emitter — expressions

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
	"github.com/ncsforge/nscc/diag"
	"github.com/ncsforge/nscc/pcode"
	"github.com/ncsforge/nscc/symtab"
	"github.com/ncsforge/nscc/vmisa"
)

// exprNode returns the single node an expression-position Slice covers.
// Every expression position (an operand of a binary op, an Argument's
// payload, a Declaration's init, ...) is exactly one node deep: nested
// structure hangs off that node's own Child/Child2 slices. Only block
// bodies (Statement, Block5 slots) hold a sequence of sibling nodes.
func (e *Emitter) exprNode(s pcode.Slice) *pcode.Node {
	return e.buf.At(s.Start)
}

// emitExpr lowers one expression node, leaving its value on the
// expression stack and advancing exp by size(n.Type).
func (e *Emitter) emitExpr(n *pcode.Node) error {
	switch n.Tag {
	case pcode.TagConstant:
		return e.emitConstant(n)
	case pcode.TagVariable:
		return e.emitVariableRead(n)
	case pcode.TagCall:
		return e.emitCall(n)
	case pcode.TagElement:
		return e.emitElement(n)
	case pcode.TagAssignment:
		return e.emitAssignment(n)
	case pcode.TagLogicalAnd:
		return e.emitLogicalAnd(n)
	case pcode.TagLogicalOr:
		return e.emitLogicalOr(n)
	case pcode.TagNeg, pcode.TagBitNot, pcode.TagLogNot:
		return e.emitUnary(n)
	case pcode.TagBlock5:
		if n.BlockOp == pcode.BlockConditional {
			return e.emitConditional(n)
		}
		return diag.NewDetail(diag.InternalCompilerError, "", "composite in expression position")
	default:
		return e.emitBinary(n)
	}
}

func (e *Emitter) emitUnary(n *pcode.Node) error {
	operand := e.exprNode(n.Child)
	if err := e.emitExpr(operand); err != nil {
		return err
	}
	op := unaryOp(n.Tag)
	if op == 0 {
		return diag.NewDetail(diag.InternalCompilerError, "", "invalid unary op")
	}
	// Unary ops replace their operand in place; exp is unchanged.
	return e.CodeUnaryOp(op, operand.Type)
}

func (e *Emitter) emitBinary(n *pcode.Node) error {
	lhs := e.exprNode(n.Child)
	rhs := e.exprNode(n.Child2)
	if err := e.emitExpr(lhs); err != nil {
		return err
	}
	if err := e.emitExpr(rhs); err != nil {
		return err
	}
	op := binaryOp(n.Tag)
	if op == 0 {
		return diag.NewDetail(diag.InternalCompilerError, "", "invalid binary op")
	}
	useTT := n.Tag == pcode.TagCmpEq || n.Tag == pcode.TagCmpNe
	return e.CodeBinaryOp(op, useTT, n.Type, lhs.Type, rhs.Type)
}

func (e *Emitter) emitConstant(n *pcode.Node) error {
	switch n.Type.Tag {
	case symtab.Integer, symtab.Engine:
		return e.CodeCONSTInt(n.ConstInt)
	case symtab.Float:
		return e.CodeCONSTFloat(n.ConstFloat)
	case symtab.String:
		return e.CodeCONSTString(n.ConstStr)
	case symtab.Object:
		return e.CodeCONSTObject(n.ConstObj)
	case symtab.Vector:
		for _, c := range n.ConstVec {
			if err := e.CodeCONSTFloat(c); err != nil {
				return err
			}
		}
		return nil
	case symtab.Struct:
		return e.emitDefaultValue(n.Type)
	default:
		return diag.NewDetail(diag.InternalCompilerError, "", "invalid constant type")
	}
}

// emitDefaultValue pushes ty's zero value: a struct constant expands
// into one default initializer per member, recursively.
func (e *Emitter) emitDefaultValue(ty symtab.Type) error {
	switch ty.Tag {
	case symtab.Struct:
		sym := e.syms.Get(ty.Index)
		for _, m := range sym.Struct.Members {
			if err := e.emitDefaultValue(m.Type); err != nil {
				return err
			}
		}
		return nil
	case symtab.Vector:
		for i := 0; i < 3; i++ {
			if err := e.CodeCONSTFloat(0); err != nil {
				return err
			}
		}
		return nil
	case symtab.Float:
		return e.CodeCONSTFloat(0)
	case symtab.String:
		return e.CodeCONSTString("")
	case symtab.Object:
		return e.CodeCONSTObject(0)
	default: // Integer, Engine
		return e.CodeCONSTInt(0)
	}
}

// emitVariableRead lowers a Variable reference. A whole-value read of a
// global marked TreatAsConstant inlines the global's own initializer
// expression in place of a stack load.
func (e *Emitter) emitVariableRead(n *pcode.Node) error {
	sym := e.syms.Get(n.Symbol)
	if n.Flags.Has(symtab.Global) && sym.Flags.Has(symtab.TreatAsConstant) {
		if init, ok := e.globalInits[n.Symbol]; ok && !init.Empty() {
			return e.emitExpr(e.exprNode(init))
		}
	}
	return e.CodeVariableCP(true, sym, n.Type, n.SourceType, n.Flags, n.Element, n.StackOffset)
}

// emitElement extracts a field from a struct-valued expression: the
// whole struct is pushed, then DESTRUCT drops everything but the field.
func (e *Emitter) emitElement(n *pcode.Node) error {
	lhs := e.exprNode(n.Child)
	if err := e.emitExpr(lhs); err != nil {
		return err
	}
	return e.CodeDESTRUCT(e.sizeOf(n.LhsType), n.Element, e.sizeOf(n.Type))
}

func (e *Emitter) emitLogicalAnd(n *pcode.Node) error {
	end := e.newLabel()
	if err := e.emitExpr(e.exprNode(n.Child)); err != nil {
		return err
	}
	if err := e.CodeCP(vmisa.OpCPTOPSP, 1, 1); err != nil {
		return err
	}
	if err := e.CodeJZ(end); err != nil {
		return err
	}
	if err := e.emitExpr(e.exprNode(n.Child2)); err != nil {
		return err
	}
	if err := e.CodeBinaryOp(vmisa.OpLOGAND, false, intType, intType, intType); err != nil {
		return err
	}
	e.resolve(end)
	return nil
}

// emitLogicalOr has three encodings. The fixed one duplicates the LHS
// and skips the RHS when it is already true. The compatibility
// encodings instead test the LHS twice: the newer of the two jumps
// unconditionally over the RHS, while the oldest VM's encoding re-tests
// with JZ — which never branches when the LHS is true, so the RHS is
// evaluated anyway. That last shape is wrong on purpose: scripts
// compiled for those VMs depend on it, so it is reproduced bit for bit.
func (e *Emitter) emitLogicalOr(n *pcode.Node) error {
	lhs := e.exprNode(n.Child)
	rhs := e.exprNode(n.Child2)

	if e.cfg.Flags.NoBugLogicalOr {
		end := e.newLabel()
		if err := e.emitExpr(lhs); err != nil {
			return err
		}
		if err := e.CodeCP(vmisa.OpCPTOPSP, 1, 1); err != nil {
			return err
		}
		if err := e.CodeJNZ(end); err != nil {
			return err
		}
		if err := e.emitExpr(rhs); err != nil {
			return err
		}
		if err := e.CodeBinaryOp(vmisa.OpLOGOR, false, intType, intType, intType); err != nil {
			return err
		}
		e.resolve(end)
		return nil
	}

	end := e.newLabel()
	rhsLabel := e.newLabel()
	if err := e.emitExpr(lhs); err != nil {
		return err
	}
	if err := e.CodeCP(vmisa.OpCPTOPSP, 1, 1); err != nil {
		return err
	}
	if err := e.CodeJZ(rhsLabel); err != nil {
		return err
	}
	if err := e.CodeCP(vmisa.OpCPTOPSP, 1, 1); err != nil {
		return err
	}
	if e.cfg.VMVersion >= 130 {
		if err := e.CodeJMP(end); err != nil {
			return err
		}
		e.exp--
	} else {
		if err := e.CodeJZ(end); err != nil {
			return err
		}
	}
	e.resolve(rhsLabel)
	if err := e.emitExpr(rhs); err != nil {
		return err
	}
	e.resolve(end)
	return e.CodeBinaryOp(vmisa.OpLOGOR, false, intType, intType, intType)
}

// emitAssignment lowers an Assignment. A compound op (+=, &=, ...)
// pushes the target's current value, evaluates rhs, applies the
// underlying binary op, then stores; a plain assignment evaluates rhs
// and stores directly. The store never pops its source, so the value is
// left on top as the assignment expression's result.
func (e *Emitter) emitAssignment(n *pcode.Node) error {
	sym := e.syms.Get(n.Symbol)
	rhs := e.exprNode(n.Child)

	if n.AssignOp != pcode.AssignPlain {
		if err := e.CodeVariableCP(true, sym, n.Type, n.SourceType, n.Flags, n.Element, n.StackOffset); err != nil {
			return err
		}
		if err := e.emitExpr(rhs); err != nil {
			return err
		}
		op := binaryOp(assignBinaryTag(n.AssignOp))
		if op == 0 {
			return diag.NewDetail(diag.InternalCompilerError, "", "invalid assignment op")
		}
		if err := e.CodeBinaryOp(op, false, n.Type, n.Type, n.RhsType); err != nil {
			return err
		}
	} else {
		if err := e.emitExpr(rhs); err != nil {
			return err
		}
	}
	return e.CodeVariableCP(false, sym, n.Type, n.Type, n.Flags, n.Element, n.StackOffset)
}

// emitConditional lowers the ternary operator. A literal condition
// (with the conditional optimization on) collapses to the live arm.
func (e *Emitter) emitConditional(n *pcode.Node) error {
	if isLit, val := e.literalBool(n.Slots[1].Body); isLit {
		if val {
			return e.emitExpr(e.exprNode(n.Slots[3].Body))
		}
		return e.emitExpr(e.exprNode(n.Slots[4].Body))
	}

	elseLabel := e.newLabel()
	endLabel := e.newLabel()
	if err := e.emitExpr(e.exprNode(n.Slots[1].Body)); err != nil {
		return err
	}
	if err := e.CodeJZ(elseLabel); err != nil {
		return err
	}
	if err := e.emitExpr(e.exprNode(n.Slots[3].Body)); err != nil {
		return err
	}
	// The two arms share the same cells at run time; only one set exists.
	e.exp -= e.sizeOf(n.Type)
	if err := e.CodeJMP(endLabel); err != nil {
		return err
	}
	e.resolve(elseLabel)
	if err := e.emitExpr(e.exprNode(n.Slots[4].Body)); err != nil {
		return err
	}
	e.resolve(endLabel)
	return nil
}
