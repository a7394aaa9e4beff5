/*
	   nscc container writer — NDB

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

package ncs

import (
	"bufio"
	"fmt"
	"io"

	"github.com/ncsforge/nscc/codegen"
	"github.com/ncsforge/nscc/reach"
	"github.com/ncsforge/nscc/symtab"
	"github.com/ncsforge/nscc/unit"
)

// ndbWriter accumulates the sidecar text line by line, remembering the
// first write error so the record emitters stay uncluttered.
type ndbWriter struct {
	w *bufio.Writer
	// ordinals maps a structure's symbol index to its 1-based position
	// in the struct list; ordinal 0 is the built-in vector record.
	ordinals map[int]int
	err      error
}

func (n *ndbWriter) linef(format string, args ...any) {
	if n.err != nil {
		return
	}
	_, n.err = fmt.Fprintf(n.w, format+"\n", args...)
}

// typeCode renders a type's NDB code: the single letters for the
// scalars (void included), eK for an engine type, and tNNNN for a
// struct. Struct ordinal 0 is the built-in vector record every NDB
// file declares, so user structs are numbered from 1.
func (n *ndbWriter) typeCode(t symtab.Type) string {
	switch t.Tag {
	case symtab.Void:
		return "v"
	case symtab.Integer:
		return "i"
	case symtab.Float:
		return "f"
	case symtab.String:
		return "s"
	case symtab.Object:
		return "o"
	case symtab.Vector:
		return "t0000"
	case symtab.Engine:
		return fmt.Sprintf("e%d", t.Index)
	case symtab.Struct:
		return fmt.Sprintf("t%04d", n.ordinals[t.Index])
	default:
		return "???"
	}
}

// WriteNDB renders the textual debug sidecar for one emitted program:
// the file, struct, function, variable, and line lists that let a
// debugger map an NCS byte offset back to source. Functions appear in
// declaration order followed by the synthetic #loader and (when
// present) #globals; variables appear in capture order, which puts a
// conditional entry's #retval first, then the stored globals, then
// every function's locals.
func WriteNDB(w io.Writer, p *unit.Program, out *codegen.Output, res *reach.Result) error {
	nw := &ndbWriter{w: bufio.NewWriter(w), ordinals: map[int]int{}}

	var structSyms []int
	for i := 0; i < p.Syms.Len(); i++ {
		if p.Syms.Get(i).Kind == symtab.KindStructure {
			structSyms = append(structSyms, i)
			nw.ordinals[i] = len(structSyms)
		}
	}

	var loader, globals *codegen.FuncRange
	for i := range out.Funcs {
		fr := &out.Funcs[i]
		switch fr.Name {
		case "#loader":
			loader = fr
		case "#globals":
			globals = fr
		}
	}

	funcCount := len(p.Funcs) + 1
	if globals != nil {
		funcCount++
	}

	nw.linef("NDB V1.0")
	nw.linef("%07d %07d %07d %07d %07d",
		len(p.Files), len(structSyms)+1, funcCount, len(out.Vars), len(out.Lines))

	for i, name := range p.Files {
		marker := byte('n')
		if i == 0 {
			marker = 'N'
		}
		nw.linef("%c%02x %s", marker, i, name)
	}

	// The vector type is a built-in structure as far as the debugger is
	// concerned; it is always declared first, as struct ordinal 0.
	nw.linef("s 03 vector")
	nw.linef("sf f x")
	nw.linef("sf f y")
	nw.linef("sf f z")
	for _, symIdx := range structSyms {
		sym := p.Syms.Get(symIdx)
		nw.linef("s %02x %s", len(sym.Struct.Members), sym.Name)
		for _, m := range sym.Struct.Members {
			nw.linef("sf %s %s", nw.typeCode(m.Type), m.Name)
		}
	}

	for _, fnIdx := range p.Funcs {
		sym := p.Syms.Get(fnIdx)
		argCount := 0
		var argTypes []symtab.Type
		if sym.Func != nil {
			argCount = sym.Func.ArgCount
			argTypes = sym.Func.ArgTypes
		}
		start, end := sym.CompiledStart, sym.CompiledEnd
		if !sym.HasCompiledRange {
			// Declared but never emitted: a prototype, or unreachable.
			start, end = codegen.NoOffset, codegen.NoOffset
		}
		nw.linef("f %08x %08x %03d %s %s", start, end, argCount, nw.typeCode(sym.Type), sym.Name)
		for _, at := range argTypes {
			nw.linef("fp %s", nw.typeCode(at))
		}
	}

	loaderType := "v"
	if res.EntryKind == reach.EntryConditional {
		loaderType = "i"
	}
	if loader != nil {
		nw.linef("f %08x %08x %03d %s %s", loader.Start, loader.End, 0, loaderType, "#loader")
	}
	if globals != nil {
		nw.linef("f %08x %08x %03d %s %s", globals.Start, globals.End, 0, "v", "#globals")
	}

	for _, vr := range out.Vars {
		name := vr.Name
		ty := symtab.Type{Tag: symtab.Integer}
		if vr.Symbol >= 0 {
			sym := p.Syms.Get(vr.Symbol)
			name = sym.Name
			ty = sym.Type
		}
		nw.linef("v %08x %08x %08x %s %s", vr.Start, vr.End, uint32(vr.StackOffsetBytes), nw.typeCode(ty), name)
	}

	for _, lr := range out.Lines {
		nw.linef("l%02x %07d %08x %08x", lr.File, lr.Line, lr.Start, lr.End)
	}

	if nw.err != nil {
		return nw.err
	}
	return nw.w.Flush()
}
