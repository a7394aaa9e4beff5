/*
	   nscc code emitter — program and routine framing

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
	"github.com/ncsforge/nscc/config/compilerconfig"
	"github.com/ncsforge/nscc/diag"
	"github.com/ncsforge/nscc/reach"
	"github.com/ncsforge/nscc/symtab"
	"github.com/ncsforge/nscc/unit"
	"github.com/ncsforge/nscc/vmisa"
)

// HeaderLen is the NCS header's fixed size in bytes: the "NCS " and
// "V1.0" signatures, a one-byte program-type tag, and the big-endian
// total file size.
const HeaderLen = 13

// NoOffset is the sentinel written to NDB offset fields that carry no
// value, reproduced literally for tooling compatibility.
const NoOffset uint32 = 0xFFFFFFFF

// Output is the complete product of one program's code generation: the
// raw instruction stream (header excluded) plus the NDB side tables.
type Output struct {
	Bytes []byte
	Lines []LineRun
	Vars  []VarRange
	Funcs []FuncRange
}

// EmitProgram runs the Emitter over every function in res.EmitOrder
// plus the synthesized #loader/#globals routines, and returns the
// finished instruction stream and side tables, or the first fatal
// diagnostic. When the entry point is a plain void main and no globals
// frame is needed, the entry function itself doubles as the loader and
// no stub is emitted ahead of it.
func EmitProgram(p *unit.Program, res *reach.Result, cfg compilerconfig.Config, warn *diag.Sink) (*Output, error) {
	e := New(p.Buf, p.Syms, cfg, warn)
	for _, g := range p.Globals {
		if !g.Init.Empty() {
			e.globalInits[g.Symbol] = g.Init
		}
	}

	entryLabel := e.labelFor(res.Entry)
	var globalsLabel *label
	if res.NeedsGlobals {
		globalsLabel = e.newLabel()
	}
	skipLoader := res.EntryKind == reach.EntryVoidMain && !res.NeedsGlobals

	if !skipLoader {
		loaderStart := uint32(e.out.offset())
		if res.EntryKind == reach.EntryConditional {
			retValPos := uint32(e.out.offset())
			if err := e.CodeReserve(intType, nil); err != nil {
				return nil, err
			}
			e.vars = append(e.vars, VarRange{
				Symbol: -1, Name: "#retval", Start: retValPos, End: NoOffset,
			})
		}
		target := entryLabel
		if res.NeedsGlobals {
			target = globalsLabel
		}
		if err := e.CodeJSR(target, 0); err != nil {
			return nil, err
		}
		if err := e.CodeRETN(); err != nil {
			return nil, err
		}
		e.funcs = append(e.funcs, FuncRange{
			Symbol: -1, Name: "#loader", Start: loaderStart, End: uint32(e.out.offset()),
		})
	}

	if res.NeedsGlobals {
		if err := e.emitGlobalsRoutine(p, res, globalsLabel, entryLabel); err != nil {
			return nil, err
		}
	}

	for _, fn := range res.EmitOrder {
		if err := e.emitFunctionBody(p, fn); err != nil {
			return nil, err
		}
	}

	if skipLoader {
		entrySym := p.Syms.Get(res.Entry)
		e.funcs = append(e.funcs, FuncRange{
			Symbol: -1, Name: "#loader",
			Start: entrySym.CompiledStart, End: entrySym.CompiledEnd,
		})
	}

	if e.out.offset()+HeaderLen > MaxScript {
		return nil, diag.New(diag.ScriptTooLarge)
	}

	return &Output{Bytes: e.Bytes(), Lines: e.Lines(), Vars: e.Vars(), Funcs: e.Funcs()}, nil
}

// emitGlobalsRoutine lowers #globals: one declaration per stored
// global in declaration order (constants folded at their use sites own
// no storage and are skipped), then the handoff into user code with BP
// established over the finished frame. For a conditional entry the user
// result is propagated into the loader's reserved slot, which sits
// below the whole globals frame plus the SAVEBP cell and the local
// result slot.
func (e *Emitter) emitGlobalsRoutine(p *unit.Program, res *reach.Result, globalsLabel, entryLabel *label) error {
	start := uint32(e.out.offset())
	e.resolve(globalsLabel)
	e.resetLineCursor()
	e.bp, e.sp, e.exp = 0, 0, 0
	e.returnSize, e.argSize = 0, 0
	e.insideGlobals = true

	for _, g := range p.Globals {
		sym := p.Syms.Get(g.Symbol)
		if sym.Flags.Has(symtab.TreatAsConstant) {
			continue
		}
		e.markLine(g.File, g.Line)
		sym.StackOffset = e.bp
		size := e.sizeOf(sym.Type)

		optimized := e.cfg.Flags.OptDeclaration && !g.Init.Empty() && !sym.Flags.Has(symtab.SelfReferenceDef)
		if !optimized {
			e.bp += size
			if err := e.CodeReserve(sym.Type, &e.sp); err != nil {
				return err
			}
			sym.CompiledStart = uint32(e.out.offset())
			if !g.Init.Empty() {
				if err := e.emitExpr(e.exprNode(g.Init)); err != nil {
					return err
				}
				if err := e.CodeCP(vmisa.OpCPDOWNSP, size*2, size); err != nil {
					return err
				}
				if err := e.CodeMOVSP(size, &e.exp); err != nil {
					return err
				}
			}
		} else {
			sym.CompiledStart = uint32(e.out.offset())
			saved := e.exp
			if err := e.emitExpr(e.exprNode(g.Init)); err != nil {
				return err
			}
			diff := e.exp - saved
			e.exp = saved
			e.sp += diff
			e.bp += size
		}

		sym.CompiledEnd = uint32(e.out.offset())
		sym.HasCompiledRange = true
		e.vars = append(e.vars, VarRange{
			Symbol: g.Symbol, Start: sym.CompiledStart, End: sym.CompiledEnd,
			StackOffsetBytes: sym.StackOffset * 4,
		})
	}
	e.resetLineCursor()

	globalsSize := e.bp
	if err := e.CodeSAVEBP(); err != nil {
		return err
	}
	if res.EntryKind == reach.EntryConditional {
		if err := e.CodeReserve(intType, &e.exp); err != nil {
			return err
		}
	}
	if err := e.CodeJSR(entryLabel, 0); err != nil {
		return err
	}
	if res.EntryKind == reach.EntryConditional {
		if err := e.CodeCP(vmisa.OpCPDOWNSP, e.bp+3, 1); err != nil {
			return err
		}
		if err := e.CodeMOVSP(1, &e.exp); err != nil {
			return err
		}
	}
	if err := e.CodeRESTOREBP(); err != nil {
		return err
	}
	if err := e.CodeMOVSP(globalsSize, &e.sp); err != nil {
		return err
	}
	e.insideGlobals = false
	if err := e.CodeRETN(); err != nil {
		return err
	}
	e.funcs = append(e.funcs, FuncRange{
		Symbol: -1, Name: "#globals", Start: start, End: uint32(e.out.offset()),
	})
	return nil
}

// emitFunctionBody lowers one user function: resolve its entry label,
// run its statement list over a fresh frame whose stack pointer starts
// at the argument size, then the shared epilogue that drops the
// arguments and returns. A declared-but-bodiless function is an error
// unless it is an intentional default, which returns its zero value.
func (e *Emitter) emitFunctionBody(p *unit.Program, fn int) error {
	sym := p.Syms.Get(fn)
	if sym.Func == nil || (!sym.Func.Flags.Has(symtab.Defined) && !sym.Func.Flags.Has(symtab.DefaultFunction)) {
		return diag.NewSymbol(diag.FunctionBodyMissing, sym.Name)
	}

	e.resetLineCursor()
	e.returnSize = e.sizeOf(sym.Type)
	e.argSize = sym.Func.ArgSize
	e.sp, e.exp = e.argSize, 0
	e.returnLabel = e.newLabel()
	e.ctrl = e.ctrl[:0]

	start := uint32(e.out.offset())
	e.resolve(e.labelFor(fn))
	sym.CompiledStart = start

	if e.returnSize > 0 {
		e.vars = append(e.vars, VarRange{
			Symbol: -1, Name: "#retval", Start: start, StackOffsetBytes: 0,
		})
	}
	e.openArgRanges(sym, start)

	if sym.Func.Flags.Has(symtab.Defined) {
		if err := e.emitStatementList(p.FuncBody(fn)); err != nil {
			return err
		}
	} else if e.returnSize > 0 {
		// Default function: hand back its zero value.
		if err := e.CodeReserve(sym.Type, &e.exp); err != nil {
			return err
		}
		if err := e.CodeCP(vmisa.OpCPDOWNSP, e.returnSize+e.sp+e.exp, e.returnSize); err != nil {
			return err
		}
		if err := e.CodeMOVSP(e.returnSize, &e.exp); err != nil {
			return err
		}
	}

	e.resolve(e.returnLabel)
	e.closeVars(e.returnSize)
	if err := e.CodeMOVSP(e.argSize, &e.sp); err != nil {
		return err
	}
	e.closeVars(0)
	if err := e.CodeRETN(); err != nil {
		return err
	}
	e.resetLineCursor()

	sym.CompiledEnd = uint32(e.out.offset())
	sym.HasCompiledRange = true
	e.funcs = append(e.funcs, FuncRange{Symbol: fn, Start: start, End: sym.CompiledEnd})
	e.returnLabel = nil
	return nil
}

// openArgRanges opens a variable record for each argument, deepest
// first: the rightmost argument was pushed first and sits just above
// the return slot.
func (e *Emitter) openArgRanges(sym *symtab.Symbol, start uint32) {
	if len(sym.Func.ArgDeclNodes) == 0 {
		return
	}
	offset := e.returnSize
	for i := len(sym.Func.ArgDeclNodes) - 1; i >= 0; i-- {
		decl := e.buf.At(sym.Func.ArgDeclNodes[i])
		argSym := e.syms.Get(decl.Symbol)
		argSym.CompiledStart = start
		argSym.StackOffset = offset
		e.vars = append(e.vars, VarRange{
			Symbol: decl.Symbol, Start: start, StackOffsetBytes: offset * 4,
		})
		offset += e.sizeOf(decl.Type)
	}
}
