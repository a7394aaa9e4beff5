/*
	   nscc PCode builder

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

import "github.com/ncsforge/nscc/symtab"

// PushUnary appends a unary-op record (Neg, BitNot, LogNot) whose
// operand was already pushed as child.
func (b *Buffer) PushUnary(tag Tag, resultType symtab.Type, child Slice) Slice {
	return b.push(Node{Tag: tag, Type: resultType, Child: child})
}

// PushBinary appends a binary op / comparison record over two
// already-pushed operand slices.
func (b *Buffer) PushBinary(tag Tag, resultType symtab.Type, lhs, rhs Slice) Slice {
	return b.push(Node{Tag: tag, Type: resultType, Child: lhs, Child2: rhs})
}

// PushConstEnd marks that the expression just pushed is a discarded,
// statement-level expression; ty is its type, so the emitter knows how
// many cells to retire.
func (b *Buffer) PushConstEnd(ty symtab.Type) Slice {
	return b.push(Node{Tag: TagConstEnd, Type: ty})
}

// PushLineMarker records a source line boundary.
func (b *Buffer) PushLineMarker(file, line int) Slice {
	return b.push(Node{Tag: TagLineMarker, File: file, Line: line})
}

// PushBreak/PushContinue append loop/switch control markers.
func (b *Buffer) PushBreak() Slice    { return b.push(Node{Tag: TagBreak}) }
func (b *Buffer) PushContinue() Slice { return b.push(Node{Tag: TagContinue}) }

// PushConstantInt/Float/String/Object/Vector append typed constants.
func (b *Buffer) PushConstantInt(v int32) Slice {
	return b.push(Node{Tag: TagConstant, Type: symtab.Type{Tag: symtab.Integer}, ConstInt: v})
}

func (b *Buffer) PushConstantFloat(v float32) Slice {
	return b.push(Node{Tag: TagConstant, Type: symtab.Type{Tag: symtab.Float}, ConstFloat: v})
}

func (b *Buffer) PushConstantString(v string) Slice {
	return b.push(Node{Tag: TagConstant, Type: symtab.Type{Tag: symtab.String}, ConstStr: v})
}

func (b *Buffer) PushConstantObject(v int32) Slice {
	return b.push(Node{Tag: TagConstant, Type: symtab.Type{Tag: symtab.Object}, ConstObj: v})
}

func (b *Buffer) PushConstantVector(v [3]float32) Slice {
	return b.push(Node{Tag: TagConstant, Type: symtab.Type{Tag: symtab.Vector}, ConstVec: v})
}

// PushConstantStructDefault appends a zero-initialized struct constant;
// the emitter expands it into one default initializer per member.
func (b *Buffer) PushConstantStructDefault(ty symtab.Type) Slice {
	return b.push(Node{Tag: TagConstant, Type: ty})
}

// VariableOpts carries the optional fields of a Variable reference.
// Element must be -1 for a whole-value reference; 0 is the first cell
// of a struct.
type VariableOpts struct {
	Element     int
	StackOffset int
	Flags       symtab.Flags
	SourceType  symtab.Type // the whole struct's type when Element selects a field
}

// PushVariable appends a Variable reference.
func (b *Buffer) PushVariable(ty symtab.Type, symbol int, opts VariableOpts) Slice {
	return b.push(Node{
		Tag: TagVariable, Type: ty, Symbol: symbol,
		Element: opts.Element, StackOffset: opts.StackOffset, Flags: opts.Flags,
		SourceType: opts.SourceType,
	})
}

// PushVariableWhole is PushVariable with Element fixed at -1 (whole
// value, not a struct field).
func (b *Buffer) PushVariableWhole(ty symtab.Type, symbol, stackOffset int, flags symtab.Flags) Slice {
	return b.push(Node{Tag: TagVariable, Type: ty, Symbol: symbol, Element: -1, StackOffset: stackOffset, Flags: flags})
}

// PushDeclaration appends a Declaration; init may be an empty Slice for
// a default-initialized local/global.
func (b *Buffer) PushDeclaration(ty symtab.Type, symbol, file, line int, init Slice) Slice {
	return b.push(Node{Tag: TagDeclaration, Type: ty, Symbol: symbol, File: file, Line: line, Child: init})
}

// PushArgument wraps one call-argument expression.
func (b *Buffer) PushArgument(ty symtab.Type, expr Slice) Slice {
	return b.push(Node{Tag: TagArgument, Type: ty, Child: expr})
}

// PushStatement wraps a block body, recording how many cells of locals
// it introduces (and must release on exit).
func (b *Buffer) PushStatement(localsInCells int, body Slice) Slice {
	return b.push(Node{Tag: TagStatement, Locals: localsInCells, Child: body})
}

// PushCall appends a Call to callee with the given argument-list slice
// (a sequence of Argument nodes).
func (b *Buffer) PushCall(returnType symtab.Type, callee, argCount int, args Slice) Slice {
	return b.push(Node{Tag: TagCall, Type: returnType, CalleeSymbol: callee, ArgCount: argCount, Child: args})
}

// PushElement appends a struct field extraction.
func (b *Buffer) PushElement(ty, lhsType symtab.Type, elementIndex int, lhs Slice) Slice {
	return b.push(Node{Tag: TagElement, Type: ty, LhsType: lhsType, Element: elementIndex, Child: lhs})
}

// PushReturn appends a Return; value is empty for a void return.
func (b *Buffer) PushReturn(ty symtab.Type, value Slice) Slice {
	return b.push(Node{Tag: TagReturn, Type: ty, Child: value})
}

// PushCase appends a Case label with its key expression; a Default
// label is appended with PushDefault.
func (b *Buffer) PushCase(ty symtab.Type, file, line int, key Slice) Slice {
	return b.push(Node{Tag: TagCase, Type: ty, File: file, Line: line, Child: key})
}

// PushDefault appends a Default label.
func (b *Buffer) PushDefault(file, line int) Slice {
	return b.push(Node{Tag: TagDefault, File: file, Line: line})
}

// PushLogicalAnd/PushLogicalOr append short-circuit boolean operators.
func (b *Buffer) PushLogicalAnd(lhs, rhs Slice) Slice {
	return b.push(Node{Tag: TagLogicalAnd, Type: symtab.Type{Tag: symtab.Integer}, Child: lhs, Child2: rhs})
}

func (b *Buffer) PushLogicalOr(lhs, rhs Slice) Slice {
	return b.push(Node{Tag: TagLogicalOr, Type: symtab.Type{Tag: symtab.Integer}, Child: lhs, Child2: rhs})
}

// AssignmentOpts carries the optional fields of an Assignment target.
// Element must be -1 for a whole-value store; 0 is the first cell of a
// struct.
type AssignmentOpts struct {
	Element     int
	StackOffset int
	Flags       symtab.Flags
	SourceType  symtab.Type // the whole struct's type when Element selects a field
	RhsType     symtab.Type // the right-hand side's type, for compound ops
}

// PushAssignment appends an Assignment of op to target, evaluating rhs.
func (b *Buffer) PushAssignment(op AssignOp, ty symtab.Type, target int, opts AssignmentOpts, rhs Slice) Slice {
	return b.push(Node{
		Tag: TagAssignment, Type: ty, AssignOp: op, Symbol: target,
		Element: opts.Element, StackOffset: opts.StackOffset, Flags: opts.Flags,
		SourceType: opts.SourceType, RhsType: opts.RhsType, Child: rhs,
	})
}

// PushBlock5 appends a five-slot composite. For If, slot 1 is the
// condition, slot 3 the then branch and slot 4 the else branch;
// Conditional uses the same slots as an expression and carries its
// result type in ty; While and Do use slots 1 and 3 for condition and
// body; For adds the initializer in slot 0 and the step in slot 2;
// Switch puts the selector in slot 1 and the case-carrying body in
// slot 3. Statement composites pass Void.
func (b *Buffer) PushBlock5(op Block5Op, ty symtab.Type, slots [5]Block5Slot) Slice {
	return b.push(Node{Tag: TagBlock5, Type: ty, BlockOp: op, Slots: slots})
}
