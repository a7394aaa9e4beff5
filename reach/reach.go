/*
	   nscc reachability pass

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

// Package reach is the reachability pass: it walks
// every global initializer and the function call graph starting from
// the entry point, accumulating the Referenced/Modified/UsesGlobalVars
// flags the emitter later reads, and decides which globals may be
// folded to a constant at their use sites.
package reach

import (
	"log/slog"

	"github.com/ncsforge/nscc/config/compilerconfig"
	"github.com/ncsforge/nscc/diag"
	"github.com/ncsforge/nscc/pcode"
	"github.com/ncsforge/nscc/symtab"
	"github.com/ncsforge/nscc/unit"
)

// EntryKind distinguishes the two shapes the entry point may take.
type EntryKind int

const (
	EntryVoidMain EntryKind = iota
	EntryConditional
)

// Result is everything the emitter needs from the reachability pass:
// the functions to emit, in discovery order, the chosen entry point,
// and whether a #globals routine must be synthesized.
type Result struct {
	EmitOrder    []int // function symbol indices, discovery order
	Entry        int   // symbol index of the selected entry point
	EntryKind    EntryKind
	NeedsGlobals bool
}

// walker carries the mutable state threaded through one reachability
// walk: the explicit function-symbol stack used to attribute
// UsesGlobalVars (explicit so that call cycles never consume host
// stack), and the discovery-order list.
type walker struct {
	buf       *pcode.Buffer
	syms      *symtab.Table
	funcStack []int
	emitOrder []int
	err       error // first FunctionBodyMissing seen, if any
}

// Run computes the Result for p. log may be nil.
func Run(p *unit.Program, flags compilerconfig.Flags, log *slog.Logger) (*Result, error) {
	if log != nil {
		log.Debug("reachability pass starting")
	}
	w := &walker{buf: p.Buf, syms: p.Syms}

	// Scan every global's initializer first, even before an entry point
	// is chosen, so cross-global references are marked regardless of
	// whether the global that reads them is itself reachable yet.
	for _, g := range p.Globals {
		if !g.Init.Empty() {
			w.walkSlice(g.Init)
		}
	}

	entry, kind, err := selectEntry(p)
	if err != nil {
		return nil, err
	}

	entrySym := p.Syms.Get(entry)
	entrySym.Flags |= symtab.Referenced
	w.emitOrder = append(w.emitOrder, entry)

	// The worklist only ever holds the entry point: every other reachable
	// function is discovered and walked inline from visitCall, with the
	// explicit funcStack (not the host call stack) breaking cycles.
	worklist := []int{entry}
	for len(worklist) > 0 {
		fn := worklist[0]
		worklist = worklist[1:]
		w.walkFunction(fn)
		if w.err != nil {
			return nil, w.err
		}
	}

	needsGlobals := computeNeedsGlobals(p, flags)

	if log != nil {
		log.Debug("reachability pass complete", "functions", len(w.emitOrder), "needsGlobals", needsGlobals)
	}

	return &Result{EmitOrder: w.emitOrder, Entry: entry, EntryKind: kind, NeedsGlobals: needsGlobals}, nil
}

// selectEntry implements the entry-point precedence: a void main() first, then
// an int StartingConditional(), else EntrySymbolNotFound.
func selectEntry(p *unit.Program) (int, EntryKind, error) {
	if idx, ok := p.FindFunction("main"); ok {
		sym := p.Syms.Get(idx)
		if sym.Kind != symtab.KindFunction {
			return 0, 0, diag.NewSymbol(diag.EntrySymbolMustBeFunction, "main")
		}
		if sym.Type.Tag != symtab.Void {
			return 0, 0, diag.NewSymbol(diag.EntrySymbolMustReturnType, "main")
		}
		return idx, EntryVoidMain, nil
	}
	if idx, ok := p.FindFunction("StartingConditional"); ok {
		sym := p.Syms.Get(idx)
		if sym.Kind != symtab.KindFunction {
			return 0, 0, diag.NewSymbol(diag.EntrySymbolMustBeFunction, "StartingConditional")
		}
		if sym.Type.Tag != symtab.Integer {
			return 0, 0, diag.NewSymbol(diag.EntrySymbolMustReturnType, "StartingConditional")
		}
		return idx, EntryConditional, nil
	}
	return 0, 0, diag.New(diag.EntrySymbolNotFound)
}

// walkSlice performs one descent into slice, marking symbol flags and
// discovering new reachable functions. It recurses by calling itself on
// child slices, matching pcode.Buffer.Walk's "callers recurse" contract.
func (w *walker) walkSlice(slice pcode.Slice) {
	w.buf.Walk(slice, func(_ int, n *pcode.Node) {
		switch n.Tag {
		case pcode.TagVariable:
			w.markGlobalUse(n.Symbol, n.Flags)
		case pcode.TagAssignment:
			if n.Flags.Has(symtab.Global) {
				sym := w.syms.Get(n.Symbol)
				sym.Flags |= symtab.Referenced | symtab.Modified
				w.markUsesGlobals()
			}
		case pcode.TagCall:
			w.visitCall(n)
		case pcode.TagBlock5:
			for _, slot := range n.Slots {
				if !slot.Body.Empty() {
					w.walkSlice(slot.Body)
				}
			}
			return
		}

		if !n.Child.Empty() {
			w.walkSlice(n.Child)
		}
		if !n.Child2.Empty() {
			w.walkSlice(n.Child2)
		}
	})
}

// markGlobalUse is only ever invoked for TagVariable; the TagAssignment
// case marks directly above since its semantics (always Modified) differ.
func (w *walker) markGlobalUse(symIdx int, flags symtab.Flags) {
	if !flags.Has(symtab.Global) {
		return
	}
	sym := w.syms.Get(symIdx)
	sym.Flags |= symtab.Referenced
	if flags.Has(symtab.Increments) {
		sym.Flags |= symtab.Modified
	}
	w.markUsesGlobals()
}

func (w *walker) markUsesGlobals() {
	if len(w.funcStack) == 0 {
		return
	}
	top := w.syms.Get(w.funcStack[len(w.funcStack)-1])
	if top.Func != nil {
		top.Func.Flags |= symtab.UsesGlobalVars
	}
}

func (w *walker) visitCall(n *pcode.Node) {
	callee := w.syms.Get(n.CalleeSymbol)
	if callee.Flags.Has(symtab.EngineFunc) || callee.Flags.Has(symtab.Intrinsic) {
		return
	}
	if callee.Flags.Has(symtab.Referenced) {
		return
	}
	callee.Flags |= symtab.Referenced
	w.emitOrder = append(w.emitOrder, n.CalleeSymbol)

	if !w.onStack(n.CalleeSymbol) {
		w.walkFunction(n.CalleeSymbol)
	}

	// A caller of a globals-using function transitively uses globals:
	// calling it BP-relative code before BP is set would misbehave, so
	// the flag must reach every caller on the discovery path.
	if callee.Func != nil && callee.Func.Flags.Has(symtab.UsesGlobalVars) && len(w.funcStack) > 0 {
		cur := w.syms.Get(w.funcStack[len(w.funcStack)-1])
		if cur.Func != nil {
			cur.Func.Flags |= symtab.UsesGlobalVars
		}
	}
}

// walkFunction validates that fn has a body (or is an intentionally
// empty DefaultFunction) and, if so, walks it with fn pushed on the
// explicit function-symbol stack.
func (w *walker) walkFunction(fn int) {
	if w.err != nil {
		return
	}
	fnSym := w.syms.Get(fn)
	if fnSym.Func == nil || (!fnSym.Func.Flags.Has(symtab.Defined) && !fnSym.Func.Flags.Has(symtab.DefaultFunction)) {
		w.err = diag.NewSymbol(diag.FunctionBodyMissing, fnSym.Name)
		return
	}
	if !fnSym.Func.Flags.Has(symtab.Defined) {
		return // DefaultFunction with no body: nothing to walk, nothing to call.
	}
	w.funcStack = append(w.funcStack, fn)
	w.walkSlice(pcode.Slice{Start: fnSym.Func.CodeOffset, Len: fnSym.Func.CodeSize})
	w.funcStack = w.funcStack[:len(w.funcStack)-1]
}

func (w *walker) onStack(symIdx int) bool {
	for _, s := range w.funcStack {
		if s == symIdx {
			return true
		}
	}
	return false
}

// computeNeedsGlobals applies the constant-eligibility predicate to
// every global and then decides whether a #globals routine is needed:
// any stored global or user structure requires one, and a VM without
// the empty-globals optimization always gets one.
func computeNeedsGlobals(p *unit.Program, flags compilerconfig.Flags) bool {
	if !flags.OptEmptyGlobals {
		// The target VM predates the optimization: every global is
		// stored and the routine is always emitted.
		return true
	}

	anyStruct := false
	for i := 0; i < p.Syms.Len(); i++ {
		if p.Syms.Get(i).Kind == symtab.KindStructure {
			anyStruct = true
			break
		}
	}

	anyNonConst := false
	for _, g := range p.Globals {
		sym := p.Syms.Get(g.Symbol)
		if eligibleForConstant(p, g, sym) {
			sym.Flags |= symtab.TreatAsConstant
		} else {
			anyNonConst = true
		}
	}
	return anyNonConst || anyStruct
}

// eligibleForConstant reports whether a global may be folded into its
// use sites: never modified, scalar, not self-referential, and backed
// by a non-empty initializer with no side effects.
func eligibleForConstant(p *unit.Program, g unit.Global, sym *symtab.Symbol) bool {
	if sym.Flags.Has(symtab.Modified) {
		return false
	}
	if sym.Type.Tag == symtab.String || sym.Type.Tag == symtab.Struct {
		return false
	}
	if sym.Flags.Has(symtab.SelfReferenceDef) {
		return false
	}
	if g.Init.Empty() {
		return false
	}
	if !sym.Flags.Has(symtab.Referenced) {
		return false
	}
	return isPure(p, g.Init)
}

// isPure reports whether slice has no side effects: no Call to a
// non-pure callee, no Assignment of any kind, and no Variable carrying
// a pre/post inc-dec flag.
func isPure(p *unit.Program, slice pcode.Slice) bool {
	pure := true
	p.Buf.Walk(slice, func(_ int, n *pcode.Node) {
		if !pure {
			return
		}
		switch n.Tag {
		case pcode.TagAssignment:
			pure = false
			return
		case pcode.TagVariable:
			if n.Flags.Has(symtab.Increments) {
				pure = false
				return
			}
		case pcode.TagCall:
			callee := p.Syms.Get(n.CalleeSymbol)
			if callee.Func == nil || !callee.Func.Flags.Has(symtab.PureFunction) {
				pure = false
				return
			}
		case pcode.TagBlock5:
			for _, slot := range n.Slots {
				if !slot.Body.Empty() && !isPure(p, slot.Body) {
					pure = false
				}
			}
			return
		}
		if !n.Child.Empty() && !isPure(p, n.Child) {
			pure = false
		}
		if pure && !n.Child2.Empty() && !isPure(p, n.Child2) {
			pure = false
		}
	})
	return pure
}
