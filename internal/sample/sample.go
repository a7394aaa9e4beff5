/*
	   nscc built-in sample programs

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

// Package sample builds small, fixed compilation units directly
// through the IR builder, standing in for the script front end so the
// command line and the inspector have something real to compile.
package sample

import (
	"fmt"
	"sort"

	"github.com/ncsforge/nscc/codegen"
	"github.com/ncsforge/nscc/pcode"
	"github.com/ncsforge/nscc/symtab"
	"github.com/ncsforge/nscc/unit"
)

var (
	intType    = symtab.Type{Tag: symtab.Integer}
	voidType   = symtab.Type{Tag: symtab.Void}
	stringType = symtab.Type{Tag: symtab.String}
)

type builder struct {
	buf  *pcode.Buffer
	syms *symtab.Table
	p    *unit.Program
	file int
}

func newBuilder(mainFile string) *builder {
	buf := pcode.NewBuffer()
	syms := symtab.New()
	p := unit.New(buf, syms)
	b := &builder{buf: buf, syms: syms, p: p}
	b.file = p.AddFile(mainFile)
	return b
}

// function registers a function symbol whose body was already pushed.
func (b *builder) function(name string, ret symtab.Type, argSize int, body pcode.Slice, line int, flags symtab.FunctionFlags) int {
	idx := b.syms.Add(symtab.Symbol{
		Name: name, Kind: symtab.KindFunction, Type: ret,
		Func: &symtab.FunctionData{
			ArgSize: argSize, CodeOffset: body.Start, CodeSize: body.Len,
			File: b.file, Line: line, Flags: flags,
		},
	})
	b.p.AddFunction(idx)
	return idx
}

// engineFunc registers a host-provided service invoked through ACTION.
func (b *builder) engineFunc(name string, ret symtab.Type, action int, argTypes ...symtab.Type) int {
	argSize := 0
	for _, at := range argTypes {
		argSize += b.syms.SizeOf(at)
	}
	return b.syms.Add(symtab.Symbol{
		Name: name, Kind: symtab.KindFunction, Type: ret, Flags: symtab.EngineFunc,
		Func: &symtab.FunctionData{
			ArgCount: len(argTypes), ArgSize: argSize, ArgTypes: argTypes,
			EngineAction: action,
		},
	})
}

// intrinsicFunc registers one of the compiler-lowered built-ins.
func (b *builder) intrinsicFunc(name string, ret symtab.Type, id int) int {
	return b.syms.Add(symtab.Symbol{
		Name: name, Kind: symtab.KindFunction, Type: ret, Flags: symtab.Intrinsic,
		Func: &symtab.FunctionData{IntrinsicID: id},
	})
}

func (b *builder) variable(name string, ty symtab.Type, flags symtab.Flags) int {
	return b.syms.Add(symtab.Symbol{Name: name, Kind: symtab.KindVariable, Type: ty, Flags: flags})
}

// argList wraps argument expressions and pushes the Call node's argument
// list; the Call node itself is pushed by the caller inside its
// statement list.
func (b *builder) argList(args ...struct {
	ty   symtab.Type
	expr pcode.Slice
}) pcode.Slice {
	mark := b.buf.Mark()
	for _, a := range args {
		b.buf.PushArgument(a.ty, a.expr)
	}
	return b.buf.Since(mark)
}

func arg(ty symtab.Type, expr pcode.Slice) struct {
	ty   symtab.Type
	expr pcode.Slice
} {
	return struct {
		ty   symtab.Type
		expr pcode.Slice
	}{ty, expr}
}

// Empty is the smallest possible unit: a void main with no body.
func Empty() *unit.Program {
	b := newBuilder("empty.nss")
	b.function("main", voidType, 0, pcode.Slice{}, 1, symtab.Defined)
	return b.p
}

// Conditional returns 1 from StartingConditional.
func Conditional() *unit.Program {
	b := newBuilder("conditional.nss")
	one := b.buf.PushConstantInt(1)
	mark := b.buf.Mark()
	b.buf.PushLineMarker(b.file, 1)
	b.buf.PushReturn(intType, one)
	body := b.buf.Since(mark)
	b.function("StartingConditional", intType, 0, body, 1, symtab.Defined)
	return b.p
}

// Globals declares one foldable global and one stored, modified global.
//
//	int g = 2;
//	int h = 0;
//	void main() { h = g + 1; }
func Globals() *unit.Program {
	b := newBuilder("globals.nss")
	g := b.variable("g", intType, symtab.Global)
	h := b.variable("h", intType, symtab.Global)
	gInit := b.buf.PushConstantInt(2)
	hInit := b.buf.PushConstantInt(0)
	b.p.AddGlobal(g, gInit, b.file, 1)
	b.p.AddGlobal(h, hInit, b.file, 2)

	gRead := b.buf.PushVariableWhole(intType, g, 0, symtab.Global)
	one := b.buf.PushConstantInt(1)
	sum := b.buf.PushBinary(pcode.TagAdd, intType, gRead, one)
	mark := b.buf.Mark()
	b.buf.PushLineMarker(b.file, 4)
	b.buf.PushAssignment(pcode.AssignPlain, intType, h,
		pcode.AssignmentOpts{Element: -1, Flags: symtab.Global}, sum)
	b.buf.PushConstEnd(intType)
	body := b.buf.Since(mark)
	b.function("main", voidType, 0, body, 4, symtab.Defined)
	return b.p
}

// Countdown recurses down to zero.
//
//	int f(int n) { if (n == 0) return 0; return f(n - 1); }
//	void main() { f(3); }
func Countdown() *unit.Program {
	b := newBuilder("countdown.nss")

	f := b.syms.Add(symtab.Symbol{Name: "f", Kind: symtab.KindFunction, Type: intType})
	n := b.variable("n", intType, 0)
	nDecl := b.buf.PushDeclaration(intType, n, b.file, 1, pcode.Slice{})

	// if (n == 0) return 0;
	nRead := b.buf.PushVariableWhole(intType, n, 0, 0)
	zero := b.buf.PushConstantInt(0)
	cond := b.buf.PushBinary(pcode.TagCmpEq, intType, nRead, zero)
	retZero := b.buf.PushConstantInt(0)
	thenMark := b.buf.Mark()
	b.buf.PushReturn(intType, retZero)
	thenBody := b.buf.Since(thenMark)

	// return f(n - 1);
	nRead2 := b.buf.PushVariableWhole(intType, n, 0, 0)
	one := b.buf.PushConstantInt(1)
	sub := b.buf.PushBinary(pcode.TagSub, intType, nRead2, one)
	args := b.argList(arg(intType, sub))
	rec := b.buf.PushCall(intType, f, 1, args)

	fMark := b.buf.Mark()
	b.buf.PushLineMarker(b.file, 1)
	b.buf.PushBlock5(pcode.BlockIf, voidType, [5]pcode.Block5Slot{
		1: {Body: cond, File: b.file, Line: 1},
		3: {Body: thenBody, File: b.file, Line: 1},
	})
	b.buf.PushReturn(intType, rec)
	fBody := b.buf.Since(fMark)

	fSym := b.syms.Get(f)
	fSym.Func = &symtab.FunctionData{
		ArgCount: 1, ArgSize: 1,
		ArgTypes: []symtab.Type{intType}, ArgDeclNodes: []int{nDecl.Start},
		CodeOffset: fBody.Start, CodeSize: fBody.Len,
		File: b.file, Line: 1, Flags: symtab.Defined,
	}
	b.p.AddFunction(f)

	three := b.buf.PushConstantInt(3)
	mainArgs := b.argList(arg(intType, three))
	mainMark := b.buf.Mark()
	b.buf.PushLineMarker(b.file, 2)
	b.buf.PushCall(intType, f, 1, mainArgs)
	b.buf.PushConstEnd(intType)
	mainBody := b.buf.Since(mainMark)
	b.function("main", voidType, 0, mainBody, 2, symtab.Defined)
	return b.p
}

// Loops ticks an engine service three times.
//
//	void main() { int i = 0; while (i < 3) { PrintString("tick"); i += 1; } }
func Loops() *unit.Program {
	b := newBuilder("loops.nss")
	print := b.engineFunc("PrintString", voidType, 1, stringType)

	i := b.variable("i", intType, 0)
	iInit := b.buf.PushConstantInt(0)

	iRead := b.buf.PushVariableWhole(intType, i, 0, 0)
	three := b.buf.PushConstantInt(3)
	cond := b.buf.PushBinary(pcode.TagCmpLt, intType, iRead, three)

	tick := b.buf.PushConstantString("tick")
	printArgs := b.argList(arg(stringType, tick))
	one := b.buf.PushConstantInt(1)
	loopMark := b.buf.Mark()
	b.buf.PushLineMarker(b.file, 3)
	b.buf.PushCall(voidType, print, 1, printArgs)
	b.buf.PushConstEnd(voidType)
	b.buf.PushLineMarker(b.file, 4)
	b.buf.PushAssignment(pcode.AssignAdd, intType, i,
		pcode.AssignmentOpts{Element: -1, RhsType: intType}, one)
	b.buf.PushConstEnd(intType)
	loopBody := b.buf.Since(loopMark)

	mark := b.buf.Mark()
	b.buf.PushLineMarker(b.file, 1)
	b.buf.PushDeclaration(intType, i, b.file, 1, iInit)
	b.buf.PushBlock5(pcode.BlockWhile, voidType, [5]pcode.Block5Slot{
		1: {Body: cond, File: b.file, Line: 2},
		3: {Body: loopBody, File: b.file, Line: 2},
	})
	body := b.buf.Since(mark)
	b.function("main", voidType, 0, body, 1, symtab.Defined)
	return b.p
}

// Intrinsics reads the program counter through a compiler built-in.
//
//	void main() { int pc = __readpc(); }
func Intrinsics() *unit.Program {
	b := newBuilder("intrinsics.nss")
	readpc := b.intrinsicFunc("__readpc", intType, codegen.IntrinsicReadPC)

	pc := b.variable("pc", intType, 0)
	args := b.argList()
	call := b.buf.PushCall(intType, readpc, 0, args)
	mark := b.buf.Mark()
	b.buf.PushLineMarker(b.file, 1)
	b.buf.PushDeclaration(intType, pc, b.file, 1, call)
	body := b.buf.Since(mark)
	b.function("main", voidType, 0, body, 1, symtab.Defined)
	return b.p
}

var programs = map[string]func() *unit.Program{
	"empty":       Empty,
	"conditional": Conditional,
	"globals":     Globals,
	"countdown":   Countdown,
	"loops":       Loops,
	"intrinsics":  Intrinsics,
}

// Names lists the available samples, sorted.
func Names() []string {
	names := make([]string, 0, len(programs))
	for n := range programs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Build constructs the named sample.
func Build(name string) (*unit.Program, error) {
	fn, ok := programs[name]
	if !ok {
		return nil, fmt.Errorf("unknown sample %q", name)
	}
	return fn(), nil
}
