/*
	   nscc code emitter — statements

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

// flushLine closes out the currently open line-accounting region,
// recording it to e.lines if it covered any bytes.
func (e *Emitter) flushLine() {
	if !e.lineOpen {
		return
	}
	end := uint32(e.out.offset())
	if end > uint32(e.regionStart) {
		e.lines = append(e.lines, LineRun{
			File: e.curFile, Line: e.curLine,
			Start: uint32(e.regionStart), End: end,
		})
	}
	e.lineOpen = false
}

// markLine opens a new line-accounting region at the current offset; a
// changed marker flushes the previous run first, and re-marking the
// same line extends the open run instead of splitting it.
func (e *Emitter) markLine(file, line int) {
	if e.lineOpen && file == e.curFile && line == e.curLine {
		return
	}
	e.flushLine()
	e.curFile, e.curLine = file, line
	e.regionStart = e.out.offset()
	e.lineOpen = true
}

// resetLineCursor clears line accounting at a routine prologue or
// epilogue.
func (e *Emitter) resetLineCursor() {
	e.flushLine()
	e.curFile, e.curLine = 0, 0
}

// emitStatementList walks a sequence of sibling statement-position
// nodes (a Statement body, a Block5 slot body), dispatching each by tag.
func (e *Emitter) emitStatementList(body pcode.Slice) error {
	var failure error
	e.buf.Walk(body, func(i int, n *pcode.Node) {
		if failure != nil {
			return
		}
		failure = e.emitTopLevel(i, n)
	})
	return failure
}

// emitTopLevel lowers one statement-position node: declarations,
// control-flow composites, expression statements, line markers,
// break/continue, return, and nested blocks. idx is the node's arena
// index, which Case/Default labels are keyed by.
func (e *Emitter) emitTopLevel(idx int, n *pcode.Node) error {
	switch n.Tag {
	case pcode.TagLineMarker:
		e.markLine(n.File, n.Line)
		return nil
	case pcode.TagDeclaration:
		return e.emitDeclaration(n)
	case pcode.TagStatement:
		return e.emitStatement(n)
	case pcode.TagBlock5:
		return e.emitBlock5(n)
	case pcode.TagBreak:
		return e.emitBreak()
	case pcode.TagContinue:
		return e.emitContinue()
	case pcode.TagReturn:
		return e.emitReturn(n)
	case pcode.TagCase, pcode.TagDefault:
		e.markLine(n.File, n.Line)
		if lbl, ok := e.caseLabels[idx]; ok {
			e.resolve(lbl)
		}
		return nil
	case pcode.TagConstEnd:
		// The preceding expression's value is discarded.
		if size := e.sizeOf(n.Type); size > 0 {
			if err := e.CodeMOVSP(size, &e.exp); err != nil {
				return err
			}
		}
		return nil
	default:
		// A bare expression in statement position; its value stays on the
		// stack until the ConstEnd marker (or the enclosing loop's step
		// flush) retires it.
		return e.emitExpr(n)
	}
}

// emitDeclaration lowers a local Declaration. The optimized form lets
// the initializer's own pushed cells become the declared storage; the
// traditional form reserves first, copies the initializer value down,
// and drops the transient copy.
func (e *Emitter) emitDeclaration(n *pcode.Node) error {
	sym := e.syms.Get(n.Symbol)
	// The NDB wants the frame-absolute offset, return slot included.
	sym.StackOffset = e.returnSize + e.sp

	if e.declarationOptimized(n, sym) {
		sym.CompiledStart = uint32(e.out.offset())
		saved := e.exp
		if err := e.emitExpr(e.exprNode(n.Child)); err != nil {
			return err
		}
		diff := e.exp - saved
		e.exp = saved
		e.sp += diff
	} else {
		if err := e.CodeReserve(n.Type, &e.sp); err != nil {
			return err
		}
		sym.CompiledStart = uint32(e.out.offset())
		size := e.sizeOf(n.Type)
		if !n.Child.Empty() {
			if err := e.emitExpr(e.exprNode(n.Child)); err != nil {
				return err
			}
			if err := e.CodeCP(vmisa.OpCPDOWNSP, size*2, size); err != nil {
				return err
			}
			if err := e.CodeMOVSP(size, &e.exp); err != nil {
				return err
			}
		}
	}

	e.vars = append(e.vars, VarRange{
		Symbol: n.Symbol, Start: sym.CompiledStart, StackOffsetBytes: sym.StackOffset * 4,
	})
	return nil
}

// declarationOptimized reports whether a declaration may skip its RSADD
// and adopt the initializer's cells directly: the initializer must
// exist, and must not read the variable being declared.
func (e *Emitter) declarationOptimized(n *pcode.Node, sym *symtab.Symbol) bool {
	return e.cfg.Flags.OptDeclaration && !n.Child.Empty() && !sym.Flags.Has(symtab.SelfReferenceDef)
}

// emitStatement lowers a Statement wrapper: emit the body, then retire
// the locals it introduced. The expression stack must be empty at both
// block boundaries; a leftover transient is an IR invariant violation.
func (e *Emitter) emitStatement(n *pcode.Node) error {
	if err := e.emitStatementList(n.Child); err != nil {
		return err
	}
	if n.Locals != 0 {
		e.closeVars(e.returnSize + e.sp - n.Locals)
		if err := e.CodeMOVSP(n.Locals, &e.sp); err != nil {
			return err
		}
	}
	return nil
}

// closeVars stamps compiled_end on every open variable record whose
// frame offset is at or above watermarkCells (in cells, return slot
// included) — the cells about to be released.
func (e *Emitter) closeVars(watermarkCells int) {
	end := uint32(e.out.offset())
	for i := range e.vars {
		v := &e.vars[i]
		if v.End != 0 || v.StackOffsetBytes < watermarkCells*4 {
			continue
		}
		v.End = end
		if v.Symbol >= 0 {
			sym := e.syms.Get(v.Symbol)
			sym.CompiledEnd = end
			sym.HasCompiledRange = true
		}
	}
}

func (e *Emitter) emitBreak() error {
	if len(e.ctrl) == 0 {
		return diag.NewDetail(diag.InternalCompilerError, "", "break outside loop or switch")
	}
	top := &e.ctrl[len(e.ctrl)-1]
	if e.cfg.Flags.NoBugBreakContinue && top.breakSP < e.sp {
		if err := e.CodeMOVSP(e.sp-top.breakSP, nil); err != nil {
			return err
		}
	}
	return e.CodeJMP(top.breakLabel)
}

// emitContinue targets the nearest enclosing loop, skipping any switch
// frames on the control stack (a switch has no continue of its own).
func (e *Emitter) emitContinue() error {
	for i := len(e.ctrl) - 1; i >= 0; i-- {
		c := &e.ctrl[i]
		if c.continueLabel == nil {
			continue
		}
		if e.cfg.Flags.NoBugBreakContinue && c.breakSP < e.sp {
			if err := e.CodeMOVSP(e.sp-c.breakSP, nil); err != nil {
				return err
			}
		}
		return e.CodeJMP(c.continueLabel)
	}
	return diag.NewDetail(diag.InternalCompilerError, "", "continue outside loop")
}

func (e *Emitter) pushCtrl(brk, cont *label, breakSP int) {
	e.ctrl = append(e.ctrl, ctrlState{breakLabel: brk, continueLabel: cont, breakSP: breakSP})
}

func (e *Emitter) popCtrl() {
	e.ctrl = e.ctrl[:len(e.ctrl)-1]
}

// emitReturn lowers Return: copy the value (if any) down into the
// caller-allocated return slot, pop everything this frame pushed above
// its arguments, and jump to the shared epilogue. The MOVSP leaves the
// cursors alone — control diverges here, and the emitter's view must
// keep describing the fall-through path.
func (e *Emitter) emitReturn(n *pcode.Node) error {
	if e.returnLabel == nil {
		return diag.NewDetail(diag.InternalCompilerError, "", "return outside function")
	}
	if !n.Child.Empty() {
		if err := e.emitExpr(e.exprNode(n.Child)); err != nil {
			return err
		}
		if err := e.CodeCP(vmisa.OpCPDOWNSP, e.returnSize+e.sp+e.exp, e.returnSize); err != nil {
			return err
		}
	}
	if err := e.CodeMOVSP(e.sp+e.exp-e.argSize, nil); err != nil {
		return err
	}
	if e.cfg.Flags.OptReturn {
		e.exp -= e.returnSize
	}
	return e.CodeJMP(e.returnLabel)
}
