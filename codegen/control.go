/*
	   nscc code emitter — control flow

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

// emitBlock5 dispatches a five-slot composite to its lowering.
// Conditional (the ternary) is an expression, not a statement, and is
// handled by emitConditional in expr.go.
func (e *Emitter) emitBlock5(n *pcode.Node) error {
	switch n.BlockOp {
	case pcode.BlockIf:
		return e.emitIf(n)
	case pcode.BlockWhile:
		return e.emitWhile(n)
	case pcode.BlockDo:
		return e.emitDo(n)
	case pcode.BlockFor:
		return e.emitFor(n)
	case pcode.BlockSwitch:
		return e.emitSwitch(n)
	default:
		return diag.NewDetail(diag.InternalCompilerError, "", "invalid composite op")
	}
}

// literalBool reports whether slice is a lone constant-int condition
// and its truth value. Folding on it is itself an optimization, so a
// configuration without it sees every condition as non-literal.
func (e *Emitter) literalBool(slice pcode.Slice) (isLiteral bool, value bool) {
	if !e.cfg.Flags.OptConditional || slice.Empty() || slice.Len != 1 {
		return false, false
	}
	n := e.buf.At(slice.Start)
	if n.Tag != pcode.TagConstant || n.Type.Tag != symtab.Integer {
		return false, false
	}
	return true, n.ConstInt != 0
}

func (e *Emitter) emitIf(n *pcode.Node) error {
	cond := n.Slots[1]
	thenSlot := n.Slots[3]
	elseSlot := n.Slots[4]

	// A literal condition keeps only the live branch.
	if isLit, val := e.literalBool(cond.Body); isLit {
		if val {
			return e.emitStatementList(thenSlot.Body)
		}
		return e.emitStatementList(elseSlot.Body)
	}

	// With no else branch the optimized shape needs a single label.
	if elseSlot.Body.Empty() && e.cfg.Flags.OptIf {
		end := e.newLabel()
		e.markLine(cond.File, cond.Line)
		if err := e.emitExpr(e.exprNode(cond.Body)); err != nil {
			return err
		}
		if err := e.CodeJZ(end); err != nil {
			return err
		}
		if err := e.emitStatementList(thenSlot.Body); err != nil {
			return err
		}
		e.resolve(end)
		return nil
	}

	end := e.newLabel()
	elseLabel := e.newLabel()
	e.markLine(cond.File, cond.Line)
	if err := e.emitExpr(e.exprNode(cond.Body)); err != nil {
		return err
	}
	if err := e.CodeJZ(elseLabel); err != nil {
		return err
	}
	if err := e.emitStatementList(thenSlot.Body); err != nil {
		return err
	}
	if err := e.CodeJMP(end); err != nil {
		return err
	}
	e.resolve(elseLabel)
	if e.cfg.VMVersion >= 130 {
		// The debugger needs a step target for the else keyword even when
		// the branch body is empty.
		if !elseSlot.Body.Empty() || elseSlot.Line != 0 {
			if err := e.CodeNOP(); err != nil {
				return err
			}
			e.markLine(thenSlot.File, thenSlot.Line)
		}
	}
	if err := e.emitStatementList(elseSlot.Body); err != nil {
		return err
	}
	e.resolve(end)
	return nil
}

func (e *Emitter) emitWhile(n *pcode.Node) error {
	cond := n.Slots[1]
	body := n.Slots[3]

	isLit, val := e.literalBool(cond.Body)
	if isLit && !val {
		return nil
	}

	test := e.newLabel()
	end := e.newLabel()
	continueLabel := e.newLabel()
	e.pushCtrl(end, continueLabel, e.sp)
	defer e.popCtrl()

	e.resolve(test)
	if e.cfg.Flags.OptWhile {
		e.resolve(continueLabel)
	}
	if !isLit {
		e.markLine(cond.File, cond.Line)
		if err := e.emitExpr(e.exprNode(cond.Body)); err != nil {
			return err
		}
		if err := e.CodeJZ(end); err != nil {
			return err
		}
	}
	if err := e.emitStatementList(body.Body); err != nil {
		return err
	}
	if !e.cfg.Flags.OptWhile {
		e.resolve(continueLabel)
	}
	if err := e.CodeJMP(test); err != nil {
		return err
	}
	e.resolve(end)
	return nil
}

func (e *Emitter) emitDo(n *pcode.Node) error {
	cond := n.Slots[1]
	body := n.Slots[3]

	start := e.newLabel()
	end := e.newLabel()
	test := e.newLabel()
	e.pushCtrl(end, test, e.sp)
	defer e.popCtrl()

	e.resolve(start)
	if err := e.emitStatementList(body.Body); err != nil {
		return err
	}
	if isLit, val := e.literalBool(cond.Body); isLit {
		if val {
			if err := e.CodeJMP(start); err != nil {
				return err
			}
		}
		// A literal-false condition falls straight out of the loop. The
		// test label still resolves here so a continue has a target.
		e.resolve(test)
	} else {
		e.resolve(test)
		e.markLine(cond.File, cond.Line)
		if err := e.emitExpr(e.exprNode(cond.Body)); err != nil {
			return err
		}
		if e.cfg.Flags.OptDo {
			if err := e.CodeJNZ(start); err != nil {
				return err
			}
		} else {
			if err := e.CodeJZ(end); err != nil {
				return err
			}
			if err := e.CodeJMP(start); err != nil {
				return err
			}
		}
	}
	e.resolve(end)
	return nil
}

func (e *Emitter) emitFor(n *pcode.Node) error {
	initSlot := n.Slots[0]
	cond := n.Slots[1]
	step := n.Slots[2]
	body := n.Slots[3]

	isLit, val := e.literalBool(cond.Body)

	test := e.newLabel()
	end := e.newLabel()
	increment := e.newLabel()
	e.pushCtrl(end, increment, e.sp)
	defer e.popCtrl()

	if !initSlot.Body.Empty() {
		e.markLine(initSlot.File, initSlot.Line)
		if err := e.emitStatementList(initSlot.Body); err != nil {
			return err
		}
		if e.exp != 0 {
			if err := e.CodeMOVSP(e.exp, &e.exp); err != nil {
				return err
			}
		}
	}

	e.resolve(test)
	if !isLit {
		if cond.Body.Empty() {
			// An absent condition is an always-true test; the older VMs
			// still expect a test sequence to land on.
			if !e.cfg.Flags.OptFor {
				if err := e.CodeCONSTInt(1); err != nil {
					return err
				}
				if err := e.CodeJZ(end); err != nil {
					return err
				}
			}
		} else {
			if err := e.emitExpr(e.exprNode(cond.Body)); err != nil {
				return err
			}
			if err := e.CodeJZ(end); err != nil {
				return err
			}
		}
	}

	if !isLit || val {
		if err := e.emitStatementList(body.Body); err != nil {
			return err
		}
	}

	e.resolve(increment)
	if !isLit || val {
		if !step.Body.Empty() {
			e.markLine(step.File, step.Line)
			if err := e.emitStatementList(step.Body); err != nil {
				return err
			}
			if e.exp != 0 {
				if err := e.CodeMOVSP(e.exp, &e.exp); err != nil {
					return err
				}
			}
		}
		if err := e.CodeJMP(test); err != nil {
			return err
		}
	}
	e.resolve(end)
	return nil
}

// emitSwitch lowers Switch in two passes over the body: a case-scan
// pass compares the selector against every case key and jumps to its
// label, concluding with a jump to the default (or the end); the body
// pass then emits the statements with the Case/Default labels resolved
// in place. The selector stays on the stack for the whole switch —
// it is accounted as a one-cell local — and is dropped at the end.
func (e *Emitter) emitSwitch(n *pcode.Node) error {
	selector := n.Slots[1]
	body := n.Slots[3]

	end := e.newLabel()
	savedDefault := e.defaultLabel
	e.defaultLabel = nil
	e.pushCtrl(end, nil, e.sp+1)
	defer func() {
		e.popCtrl()
		e.defaultLabel = savedDefault
	}()

	e.markLine(selector.File, selector.Line)
	if err := e.emitExpr(e.exprNode(selector.Body)); err != nil {
		return err
	}

	if err := e.scanCases(body.Body); err != nil {
		return err
	}
	target := e.defaultLabel
	if target == nil {
		target = end
	}
	if err := e.CodeJMP(target); err != nil {
		return err
	}

	// The selector cell now behaves like a declared local.
	e.sp++
	e.exp--

	if err := e.emitStatementList(body.Body); err != nil {
		return err
	}

	e.resolve(end)
	return e.CodeMOVSP(1, &e.sp)
}

// scanCases is the case-scan pass: it descends into nested Statement
// blocks looking for Case/Default markers, creating each one's label
// and emitting the compare-and-branch sequence for the cases.
func (e *Emitter) scanCases(body pcode.Slice) error {
	var failure error
	e.buf.Walk(body, func(i int, item *pcode.Node) {
		if failure != nil {
			return
		}
		switch item.Tag {
		case pcode.TagStatement:
			failure = e.scanCases(item.Child)
		case pcode.TagCase:
			lbl := e.newLabel()
			e.caseLabels[i] = lbl
			if err := e.CodeCP(vmisa.OpCPTOPSP, 1, 1); err != nil {
				failure = err
				return
			}
			if err := e.emitExpr(e.exprNode(item.Child)); err != nil {
				failure = err
				return
			}
			if err := e.CodeBinaryOp(vmisa.OpEQUAL, false, intType, intType, intType); err != nil {
				failure = err
				return
			}
			failure = e.CodeJNZ(lbl)
		case pcode.TagDefault:
			lbl := e.newLabel()
			e.caseLabels[i] = lbl
			e.defaultLabel = lbl
		}
	})
	return failure
}
