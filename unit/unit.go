/*
	   nscc compilation unit

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

// Package unit ties together one compilation unit's inputs: a
// pcode.Buffer, a symtab.Table, and the front end's declaration-order
// lists of globals and functions. Nothing in this package mutates
// PCode or symbols; it is the fixed handle the reachability pass,
// emitter, and container writer all take.
package unit

import (
	"github.com/ncsforge/nscc/pcode"
	"github.com/ncsforge/nscc/symtab"
)

// Global is one global variable declaration, in source order.
type Global struct {
	Symbol int
	Init   pcode.Slice // empty for a default-initialized global
	File   int
	Line   int
}

// Program is a complete compilation unit: the PCode arena, the symbol
// table, and the front end's declared order of globals and functions.
// Function bodies are not stored here directly — they live in the
// FunctionData side table on each function's Symbol (CodeOffset and
// CodeSize into Buf).
type Program struct {
	Buf     *pcode.Buffer
	Syms    *symtab.Table
	Globals []Global // declaration order
	Funcs   []int    // function symbol indices, declaration order

	// Files is the front end's source-file table; LineRun.File and
	// Global.File index into it. Index 0 is the main compilation unit,
	// which the debug sidecar's file list marks specially.
	Files []string
}

// AddFile appends a source file and returns its index.
func (p *Program) AddFile(name string) int {
	p.Files = append(p.Files, name)
	return len(p.Files) - 1
}

// New returns an empty Program over buf and syms.
func New(buf *pcode.Buffer, syms *symtab.Table) *Program {
	return &Program{Buf: buf, Syms: syms}
}

// AddGlobal records a global variable's declaration order and
// initializer slice.
func (p *Program) AddGlobal(symbol int, init pcode.Slice, file, line int) {
	p.Globals = append(p.Globals, Global{Symbol: symbol, Init: init, File: file, Line: line})
}

// AddFunction records a function symbol in declaration order.
func (p *Program) AddFunction(symbol int) {
	p.Funcs = append(p.Funcs, symbol)
}

// FuncBody returns the body slice of the function at symbol index idx.
func (p *Program) FuncBody(idx int) pcode.Slice {
	fn := p.Syms.Get(idx).Func
	return pcode.Slice{Start: fn.CodeOffset, Len: fn.CodeSize}
}

// FindFunction looks up a function by name among Funcs, in declaration
// order. Used for entry-point selection.
func (p *Program) FindFunction(name string) (int, bool) {
	for _, idx := range p.Funcs {
		sym := p.Syms.Get(idx)
		if sym.Kind == symtab.KindFunction && sym.Name == name {
			return idx, true
		}
	}
	return 0, false
}
