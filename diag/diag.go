/*
	   nscc diagnostics

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

// Package diag carries the fixed set of error/warning kinds the
// compiler back end can raise and a Sink that accumulates warnings
// without aborting compilation.
package diag

import "fmt"

// Kind identifies one of the back end's fixed diagnostic conditions.
type Kind int

const (
	EntrySymbolNotFound Kind = iota
	EntrySymbolMustBeFunction
	EntrySymbolMustReturnType
	FunctionBodyMissing
	ScriptTooLarge
	InternalCompilerError
	WarningStoreStateGlobal
	WarningBPFuncBeforeBPSet
)

func (k Kind) String() string {
	switch k {
	case EntrySymbolNotFound:
		return "entry symbol not found"
	case EntrySymbolMustBeFunction:
		return "entry symbol must be a function"
	case EntrySymbolMustReturnType:
		return "entry symbol has the wrong return type"
	case FunctionBodyMissing:
		return "function body missing"
	case ScriptTooLarge:
		return "compiled script exceeds the maximum size"
	case InternalCompilerError:
		return "internal compiler error"
	case WarningStoreStateGlobal:
		return "STORE_STATE used while global variables are live"
	case WarningBPFuncBeforeBPSet:
		return "BP-relative access before the frame's base pointer was established"
	default:
		return "unknown diagnostic"
	}
}

// Error is a fatal compilation failure: one of the Kind values above
// plus the symbol/location context that made it concrete.
type Error struct {
	Kind   Kind
	Symbol string
	File   int
	Line   int
	Detail string
}

func (e *Error) Error() string {
	switch {
	case e.Detail != "" && e.Symbol != "":
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Symbol, e.Detail)
	case e.Detail != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	case e.Symbol != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Symbol)
	default:
		return e.Kind.String()
	}
}

// New builds an *Error with no extra context.
func New(k Kind) *Error { return &Error{Kind: k} }

// NewSymbol builds an *Error naming the offending symbol.
func NewSymbol(k Kind, symbol string) *Error { return &Error{Kind: k, Symbol: symbol} }

// NewDetail builds an *Error with a free-form detail string.
func NewDetail(k Kind, symbol, detail string) *Error {
	return &Error{Kind: k, Symbol: symbol, Detail: detail}
}

// Warning is a non-fatal diagnostic collected into a Sink rather than
// aborting compilation.
type Warning struct {
	Kind   Kind
	Symbol string
	File   int
	Line   int
}

func (w Warning) String() string {
	if w.Symbol != "" {
		return fmt.Sprintf("file %02x line %d: warning: %s: %s", w.File, w.Line, w.Kind, w.Symbol)
	}
	return fmt.Sprintf("file %02x line %d: warning: %s", w.File, w.Line, w.Kind)
}

// Sink accumulates warnings emitted during code generation. The zero
// value is ready to use.
type Sink struct {
	warnings []Warning
}

// Warn records one warning.
func (s *Sink) Warn(kind Kind, file, line int, symbol string) {
	s.warnings = append(s.warnings, Warning{Kind: kind, Symbol: symbol, File: file, Line: line})
}

// Warnings returns every warning recorded so far, in emission order.
func (s *Sink) Warnings() []Warning { return s.warnings }

// Len reports how many warnings have been recorded.
func (s *Sink) Len() int { return len(s.warnings) }
