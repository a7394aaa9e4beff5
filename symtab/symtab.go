/*
	   nscc Symbol Table

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

// Package symtab holds the named entities a compilation unit declares:
// functions, variables, structures, and the flag bits the reachability
// pass and emitter accumulate on them between passes.
package symtab

// TypeTag identifies one of the closed set of scalar/composite types.
type TypeTag uint8

const (
	Void TypeTag = iota
	Integer
	Float
	String
	Object
	Vector
	Engine // Engine[Index]
	Struct // Struct[Index]
	Action // deferred-execution closure, only valid as an engine-func parameter
)

// Type is a fully resolved NWScript-style type: a tag plus, for Engine
// and Struct, the front-end-assigned index.
type Type struct {
	Tag   TypeTag
	Index int
}

func (t Type) String() string {
	switch t.Tag {
	case Void:
		return "void"
	case Integer:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	case Object:
		return "object"
	case Vector:
		return "vector"
	case Engine:
		return "engine"
	case Struct:
		return "struct"
	case Action:
		return "action"
	default:
		return "?"
	}
}

// Kind distinguishes what a Symbol names.
type Kind uint8

const (
	KindVariable Kind = iota
	KindFunction
	KindStructure
	KindToken
	KindLinker
	KindConstant
)

// Flags are the independent, combinable bits a symbol may carry.
type Flags uint32

const (
	Global Flags = 1 << iota
	Referenced
	Modified
	Increments
	PreIncrement
	PostIncrement
	PreDecrement
	PostDecrement
	TreatAsConstant
	SelfReferenceDef
	LastDecl
	EngineFunc
	Intrinsic
)

func (f Flags) Has(bits Flags) bool { return f&bits == bits }

// FunctionFlags are the flags tracked per function symbol.
type FunctionFlags uint32

const (
	Defined FunctionFlags = 1 << iota
	DefaultFunction
	UsesGlobalVars
	PureFunction
)

func (f FunctionFlags) Has(bits FunctionFlags) bool { return f&bits == bits }

// FunctionData is the side table carried by KindFunction symbols.
type FunctionData struct {
	ArgCount     int
	ArgSize      int    // total argument size, in cells
	ArgTypes     []Type // per-argument type, declaration order; for the NDB "fp type" lines
	ArgDeclNodes []int  // per-argument Declaration node index in the owning IR store; the emitter reads default initializers from these when a call site omits trailing arguments
	CodeOffset   int    // offset of the body slice in the owning pcode.Buffer
	CodeSize     int    // length, in pcode.Buffer arena slots
	File, Line   int
	EngineAction int // valid when Flags&EngineFunc
	IntrinsicID  int // valid when Flags&Intrinsic
	Flags        FunctionFlags
}

// StructMember describes one field of a user-defined structure, in
// declaration order.
type StructMember struct {
	Name string
	Type Type
}

// StructData is the side table carried by KindStructure symbols.
type StructData struct {
	Members []StructMember
}

// Symbol is one named entity: a function, variable, structure, label,
// linker symbol, or constant.
type Symbol struct {
	Name  string
	Kind  Kind
	Type  Type
	Flags Flags
	Extra uint32 // opaque front-end source-extra handle

	// StackOffset is variable-only: cell offset within its frame (or
	// within globals). The byte ranges are filled in by the emitter for
	// variables as it declares/retires them and for emitted functions.
	StackOffset      int
	CompiledStart    uint32
	CompiledEnd      uint32
	HasCompiledRange bool

	Func   *FunctionData // non-nil iff Kind == KindFunction
	Struct *StructData   // non-nil iff Kind == KindStructure
}

// Table is the front end's append-only symbol store. Symbols are added
// once by the front end and thereafter only have flag bits OR'd in by
// the reachability pass, or StackOffset/CompiledStart/CompiledEnd set
// exactly once each by the emitter.
type Table struct {
	symbols []Symbol
}

// New returns an empty symbol table.
func New() *Table {
	return &Table{}
}

// Add appends a symbol and returns its index.
func (t *Table) Add(sym Symbol) int {
	t.symbols = append(t.symbols, sym)
	return len(t.symbols) - 1
}

// Get returns a mutable pointer to symbol index, for in-place flag
// updates. Panics on an out-of-range index: an invariant violation here
// means the IR referenced a symbol that was never declared.
func (t *Table) Get(index int) *Symbol {
	return &t.symbols[index]
}

// Len returns the number of symbols in the table.
func (t *Table) Len() int { return len(t.symbols) }

// SizeOf returns a type's size in cells (one cell = one 4-byte VM stack
// slot). Struct sizes are computed transitively from member types, so
// SizeOf must be able to resolve nested Struct[k] types via t.
func (t *Table) SizeOf(ty Type) int {
	switch ty.Tag {
	case Void, Action:
		return 0
	case Vector:
		return 3
	case Struct:
		sym := t.Get(ty.Index)
		size := 0
		for _, m := range sym.Struct.Members {
			size += t.SizeOf(m.Type)
		}
		return size
	default:
		return 1
	}
}
