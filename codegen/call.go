/*
	   nscc code emitter — calls and intrinsics

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

// emitCall lowers a Call node. A non-engine call with a return value
// reserves the return cells first; arguments are then evaluated right
// to left, call sites that omit trailing arguments falling back to the
// default initializers on the callee's argument declarations; finally
// the transfer itself is a JSR for user code, an ACTION for an engine
// service, or an inline sequence for a compiler intrinsic.
func (e *Emitter) emitCall(n *pcode.Node) error {
	callee := e.syms.Get(n.CalleeSymbol)
	if callee.Func == nil {
		return diag.NewSymbol(diag.InternalCompilerError, callee.Name)
	}
	isEngine := callee.Flags.Has(symtab.EngineFunc)
	isIntrinsic := callee.Flags.Has(symtab.Intrinsic)

	if !isEngine && n.Type.Tag != symtab.Void {
		if err := e.CodeReserve(n.Type, &e.exp); err != nil {
			return err
		}
	}

	// Collect the call site's Argument nodes, then pad with the callee's
	// own argument declarations so omitted trailing arguments pick up
	// their default initializers.
	var supplied []*pcode.Node
	e.buf.Walk(n.Child, func(_ int, arg *pcode.Node) {
		supplied = append(supplied, arg)
	})
	argCount := callee.Func.ArgCount
	argSize := callee.Func.ArgSize

	for i := argCount - 1; i >= 0; i-- {
		var arg *pcode.Node
		if i < len(supplied) {
			arg = supplied[i]
		} else if i < len(callee.Func.ArgDeclNodes) {
			arg = e.buf.At(callee.Func.ArgDeclNodes[i])
		} else {
			return diag.NewSymbol(diag.InternalCompilerError, callee.Name)
		}
		if arg.Type.Tag == symtab.Action {
			if err := e.emitActionArg(arg); err != nil {
				return err
			}
			continue
		}
		if arg.Child.Empty() {
			// A defaulted argument with no initializer: push its zero value.
			if err := e.emitDefaultValue(arg.Type); err != nil {
				return err
			}
			continue
		}
		if err := e.emitExpr(e.exprNode(arg.Child)); err != nil {
			return err
		}
	}

	switch {
	case isEngine:
		return e.CodeACTION(n.Type, callee.Func.EngineAction, argCount, argSize)
	case isIntrinsic:
		return e.emitIntrinsic(callee, argCount, argSize)
	default:
		if e.insideGlobals && callee.Func.Flags.Has(symtab.UsesGlobalVars) && e.warn != nil {
			e.warn.Warn(diag.WarningBPFuncBeforeBPSet, e.curFile, e.curLine, callee.Name)
		}
		return e.CodeJSR(e.labelFor(n.CalleeSymbol), argSize)
	}
}

// emitActionArg captures the VM state for a deferred action argument:
// the engine later resumes execution at the captured body, which runs
// to its own RETN. At the call site the body is jumped over.
func (e *Emitter) emitActionArg(arg *pcode.Node) error {
	end := e.newLabel()
	savedExp := e.exp
	e.sp += savedExp
	e.exp = 0
	if err := e.CodeSTORE_STATE(); err != nil {
		return err
	}
	if err := e.CodeJMP(end); err != nil {
		return err
	}
	if !arg.Child.Empty() {
		if err := e.emitExpr(e.exprNode(arg.Child)); err != nil {
			return err
		}
	}
	if err := e.CodeRETN(); err != nil {
		return err
	}
	e.resolve(end)
	e.sp -= savedExp
	e.exp = savedExp
	return nil
}

// Intrinsic identifiers carried in FunctionData.IntrinsicID.
const (
	IntrinsicReadBP = iota
	IntrinsicWriteBP
	IntrinsicReadRelativeSP
	IntrinsicReadSP
	IntrinsicReadPC
)

// emitIntrinsic lowers one of the five compiler-injected intrinsics,
// none of which are backed by callable code. The caller has already
// reserved the return slot (they are non-engine calls) and pushed any
// arguments; each sequence stores its result through the reserved slot
// and retires the argument cells itself.
func (e *Emitter) emitIntrinsic(callee *symtab.Symbol, argCount, argSize int) error {
	switch callee.Func.IntrinsicID {
	case IntrinsicReadBP:
		// SAVEBP materializes BP on the stack; copy it into the return
		// slot and put BP back.
		if err := e.CodeSAVEBP(); err != nil {
			return err
		}
		if err := e.CodeCP(vmisa.OpCPDOWNSP, 2, 1); err != nil {
			return err
		}
		if err := e.CodeRESTOREBP(); err != nil {
			return err
		}
		return e.CodeMOVSP(argSize, &e.exp)

	case IntrinsicWriteBP:
		// Overwrite the cell SAVEBP pushed with the argument, then let
		// RESTOREBP pop it into BP.
		if err := e.CodeSAVEBP(); err != nil {
			return err
		}
		if err := e.CodeCP(vmisa.OpCPTOPSP, 2, 1); err != nil {
			return err
		}
		if err := e.CodeCP(vmisa.OpCPDOWNSP, 2, 1); err != nil {
			return err
		}
		if err := e.CodeMOVSP(1, &e.exp); err != nil {
			return err
		}
		if err := e.CodeRESTOREBP(); err != nil {
			return err
		}
		return e.CodeMOVSP(argSize, &e.exp)

	case IntrinsicReadRelativeSP:
		if err := e.CodeCONSTInt(int32(e.sp)); err != nil {
			return err
		}
		if err := e.CodeCP(vmisa.OpCPDOWNSP, 2, 1); err != nil {
			return err
		}
		if err := e.CodeMOVSP(1, &e.exp); err != nil {
			return err
		}
		return e.CodeMOVSP(argSize, &e.exp)

	case IntrinsicReadSP:
		// Establish a BP frame twice: the second SAVEBP pushes the BP set
		// by the first, i.e. the absolute SP at that instant. Subtract the
		// known expression depth to recover the scope-level SP.
		depth := int32(e.exp + 2)
		if err := e.CodeReserve(intType, &e.exp); err != nil {
			return err
		}
		if err := e.CodeCONSTInt(depth); err != nil {
			return err
		}
		if err := e.CodeSAVEBP(); err != nil {
			return err
		}
		if err := e.CodeSAVEBP(); err != nil {
			return err
		}
		if err := e.CodeCP(vmisa.OpCPDOWNSP, 4, 1); err != nil {
			return err
		}
		if err := e.CodeRESTOREBP(); err != nil {
			return err
		}
		if err := e.CodeRESTOREBP(); err != nil {
			return err
		}
		if err := e.CodeBinaryOp(vmisa.OpSUB, false, intType, intType, intType); err != nil {
			return err
		}
		if err := e.CodeCP(vmisa.OpCPDOWNSP, 2, 1); err != nil {
			return err
		}
		if err := e.CodeMOVSP(1, &e.exp); err != nil {
			return err
		}
		return e.CodeMOVSP(argSize, &e.exp)

	case IntrinsicReadPC:
		pc := int32(e.out.offset())
		if err := e.CodeCONSTInt(pc); err != nil {
			return err
		}
		if err := e.CodeCP(vmisa.OpCPDOWNSP, 2, 1); err != nil {
			return err
		}
		if err := e.CodeMOVSP(1, &e.exp); err != nil {
			return err
		}
		return e.CodeMOVSP(argSize, &e.exp)

	default:
		return diag.NewSymbol(diag.InternalCompilerError, callee.Name)
	}
}
