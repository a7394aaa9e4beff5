/*
	   nscc PCode intermediate representation

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

// Package pcode is the front end's append-only intermediate
// representation: a flat arena of tagged, self-describing records.
// Composite records reference children through (start, length) Slices
// into the same arena rather than raw pointers, so the arena can be
// walked linearly and never needs a side table to know where a record
// ends.
package pcode

import "github.com/ncsforge/nscc/symtab"

// Tag identifies the kind of a Node.
type Tag uint8

const (
	TagAdd Tag = iota
	TagSub
	TagMul
	TagDiv
	TagMod
	TagShl
	TagShr
	TagUshr
	TagBitAnd
	TagBitOr
	TagBitXor
	TagCmpEq
	TagCmpNe
	TagCmpLt
	TagCmpLe
	TagCmpGt
	TagCmpGe
	TagNeg
	TagBitNot
	TagLogNot
	TagConstEnd // marks the end of a discarded (statement-level) expression
	TagLineMarker
	TagBreak
	TagContinue
	TagConstant
	TagVariable
	TagDeclaration
	TagArgument
	TagStatement
	TagCall
	TagElement
	TagReturn
	TagCase
	TagDefault
	TagLogicalAnd
	TagLogicalOr
	TagAssignment
	TagBlock5
)

// AssignOp is the compound-assignment variant carried by an Assignment
// record.
type AssignOp uint8

const (
	AssignPlain AssignOp = iota
	AssignMul
	AssignDiv
	AssignMod
	AssignAdd
	AssignSub
	AssignShl
	AssignShr
	AssignUshr
	AssignAnd
	AssignXor
	AssignOr
)

// Block5Op selects which five-block composite a Block5 node represents.
type Block5Op uint8

const (
	BlockSwitch Block5Op = iota
	BlockIf
	BlockDo
	BlockWhile
	BlockFor
	BlockConditional
)

// Slice is a (start, length) range of arena slots, interpreted against
// the Buffer that produced it. An empty Slice (Len == 0) means "no
// expression" (e.g. a default-initialized Declaration, a void Return).
type Slice struct {
	Start int
	Len   int
}

// Empty reports whether the slice carries no nodes.
func (s Slice) Empty() bool { return s.Len == 0 }

// Block5Slot is one (pcode_slice, file, line) triple inside a Block5
// composite.
type Block5Slot struct {
	Body       Slice
	File, Line int
}

// Node is one PCode record: a tag plus the type-dependent payload
// fields that tag uses. Only the fields relevant to Tag are
// meaningful; the rest are zero.
type Node struct {
	Tag  Tag
	Type symtab.Type // the record's own result type ("operand type")

	// Constant payload (TagConstant).
	ConstInt   int32
	ConstFloat float32
	ConstStr   string
	ConstVec   [3]float32
	ConstObj   int32

	// Variable / Assignment target (TagVariable, TagAssignment).
	Symbol      int
	Element     int // >=0 selects a struct field's cell offset, -1 = whole value
	StackOffset int
	Flags       symtab.Flags
	SourceType  symtab.Type // the whole value's type when Element selects a field
	RhsType     symtab.Type // a compound Assignment's right-hand-side type

	// Declaration (TagDeclaration).
	File, Line int

	// Call (TagCall).
	CalleeSymbol int
	ArgCount     int

	// Element (TagElement).
	LhsType symtab.Type

	// Statement (TagStatement): cells released on exit.
	Locals int

	// Assignment (TagAssignment).
	AssignOp AssignOp

	// Block5 (TagBlock5).
	BlockOp Block5Op
	Slots   [5]Block5Slot

	// Generic operand slices. Meaning depends on Tag:
	//   unary op / Neg / BitNot / LogNot: Child = operand
	//   binary op / comparisons / LogicalAnd / LogicalOr: Child = lhs, Child2 = rhs
	//   Declaration: Child = initializer (may be empty)
	//   Argument: Child = argument expression
	//   Statement: Child = body
	//   Call: Child = argument list (sequence of Argument nodes)
	//   Element: Child = lhs expression
	//   Return: Child = value (may be empty)
	//   Case: Child = key expression (empty for Default)
	//   Assignment: Child = rhs expression
	Child  Slice
	Child2 Slice
}

// Buffer is the IR Store: a single growable arena of Nodes, appended to
// by the front end and read by the Reachability Pass and Emitter.
type Buffer struct {
	nodes []Node
}

// NewBuffer returns an empty IR store.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Mark returns the current arena length, to be paired with Since to
// delimit a list of sibling records (a statement body, a call's
// argument list). Every record in the delimited range is treated as a
// top-level member of the list, so a front end must push each
// member's operand subtrees BEFORE the mark; only the members
// themselves go inside. Operands are still reachable through the
// members' Child/Child2/Slots slices.
func (b *Buffer) Mark() int { return len(b.nodes) }

// Since returns the Slice covering every node pushed since mark.
func (b *Buffer) Since(mark int) Slice {
	return Slice{Start: mark, Len: len(b.nodes) - mark}
}

// All returns the slice covering the entire buffer.
func (b *Buffer) All() Slice {
	return Slice{Start: 0, Len: len(b.nodes)}
}

// push appends one node and returns the one-node Slice covering it.
func (b *Buffer) push(n Node) Slice {
	b.nodes = append(b.nodes, n)
	return Slice{Start: len(b.nodes) - 1, Len: 1}
}

// At returns a pointer to the node at arena index i. Panics on an
// out-of-range index, signalling a PCode invariant violation
// (InternalCompilerError territory for callers).
func (b *Buffer) At(i int) *Node {
	return &b.nodes[i]
}

// Node returns a copy of the node at arena index i.
func (b *Buffer) Node(i int) Node {
	return b.nodes[i]
}

// Visitor is called once per node during a Walk, in arena order.
type Visitor func(index int, n *Node)

// Walk performs one linear scan of slice, calling visit for each node
// it covers. Walk never recurses into composite children: callers that
// need to descend call Walk again on the child Slice they are given.
func (b *Buffer) Walk(slice Slice, visit Visitor) {
	for i := slice.Start; i < slice.Start+slice.Len; i++ {
		visit(i, &b.nodes[i])
	}
}
