/*
	   nscc code emitter — cursors and instruction encoders

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
	"math"

	"github.com/ncsforge/nscc/config/compilerconfig"
	"github.com/ncsforge/nscc/diag"
	"github.com/ncsforge/nscc/pcode"
	"github.com/ncsforge/nscc/symtab"
	"github.com/ncsforge/nscc/vmisa"
)

// ctrlState is the break/continue context saved on entry to each loop
// or switch and restored on exit. breakSP is the stack-pointer
// watermark a break must pop back down to before it jumps; a switch
// frame has no continue label (continue passes through to the nearest
// enclosing loop).
type ctrlState struct {
	breakLabel    *label
	continueLabel *label
	breakSP       int
}

// LineRun is one flushed (file, line, region) tuple for the NDB line list.
type LineRun struct {
	File, Line int
	Start, End uint32
}

// VarRange is a captured (start, end, stackOffset) triple for a
// declared variable, for the NDB variable list. Name is set only for a
// synthetic entry ("#retval") that has no backing symtab symbol;
// Symbol is -1 in that case.
type VarRange struct {
	Symbol           int
	Name             string
	Start, End       uint32
	StackOffsetBytes int
}

// FuncRange is a captured (start, end) byte range for an emitted
// routine. Name is set only for a synthetic routine ("#loader",
// "#globals") that has no backing symtab symbol; Symbol is -1 then.
type FuncRange struct {
	Symbol     int
	Name       string
	Start, End uint32
}

// Emitter owns the single growable output buffer and the three stack
// cursors, and lowers PCode into VM instructions in one linear pass
// per reachable function. bp counts long-lived cells below the current
// frame (the globals), sp counts the frame's locals (arguments
// included), and exp counts expression transients above sp.
type Emitter struct {
	out  outBuf
	buf  *pcode.Buffer
	syms *symtab.Table
	cfg  compilerconfig.Config
	warn *diag.Sink

	bp, sp, exp   int
	insideGlobals bool

	returnLabel *label
	returnSize  int // current function's return size, in cells
	argSize     int // current function's total argument size, in cells

	ctrl []ctrlState

	curFile, curLine, regionStart int
	lineOpen                      bool
	lines                         []LineRun
	vars                          []VarRange
	funcs                         []FuncRange

	funcLabels map[int]*label // function symbol index -> its entry label

	// caseLabels maps a Case/Default node's arena index to the label the
	// switch case-scan pass created for it; the body pass resolves them.
	caseLabels   map[int]*label
	defaultLabel *label

	// globalInits lets a read of a TreatAsConstant global inline the
	// global's own initializer expression in place of a stack load.
	globalInits map[int]pcode.Slice
}

// New returns an Emitter ready to compile one reachable function set.
func New(buf *pcode.Buffer, syms *symtab.Table, cfg compilerconfig.Config, warn *diag.Sink) *Emitter {
	return &Emitter{
		buf: buf, syms: syms, cfg: cfg, warn: warn,
		funcLabels:  map[int]*label{},
		caseLabels:  map[int]*label{},
		globalInits: map[int]pcode.Slice{},
	}
}

// Bytes returns the instruction stream emitted so far.
func (e *Emitter) Bytes() []byte { return e.out.data }

// Lines returns the flushed line-accounting records.
func (e *Emitter) Lines() []LineRun { return e.lines }

// Vars returns the captured variable compiled-ranges.
func (e *Emitter) Vars() []VarRange { return e.vars }

// Funcs returns the captured routine compiled-ranges.
func (e *Emitter) Funcs() []FuncRange { return e.funcs }

// labelFor returns (creating if necessary) the entry label for a user
// function, so JSR sites can reference a callee before it is emitted.
func (e *Emitter) labelFor(symIdx int) *label {
	if l, ok := e.funcLabels[symIdx]; ok {
		return l
	}
	l := e.newLabel()
	e.funcLabels[symIdx] = l
	return l
}

func (e *Emitter) sizeOf(t symtab.Type) int { return e.syms.SizeOf(t) }

var intType = symtab.Type{Tag: symtab.Integer}

func (e *Emitter) codeOpcode(op vmisa.Op, typeByte byte) error {
	if err := e.out.writeByte(byte(op)); err != nil {
		return err
	}
	return e.out.writeByte(typeByte)
}

// CodeUnaryOp lowers NEG/COMP/NOT. A unary op replaces its operand in
// place, so no cursor moves.
func (e *Emitter) CodeUnaryOp(op vmisa.Op, operandType symtab.Type) error {
	return e.codeOpcode(op, vmisa.DeclType(operandType))
}

// CodeBinaryOp lowers a binary/comparison operator and adjusts exp by
// size(out) - size(lhs) - size(rhs). useTT selects the struct/vector
// comparison shape (EQUAL/NEQUAL only), which carries an extra int16
// byte-size payload.
func (e *Emitter) CodeBinaryOp(op vmisa.Op, useTT bool, out, lhs, rhs symtab.Type) error {
	matrix, ok := vmisa.BinaryMatrix(lhs, rhs, useTT)
	if !ok {
		return diag.NewDetail(diag.InternalCompilerError, "", "invalid binary op")
	}
	if err := e.codeOpcode(op, matrix); err != nil {
		return err
	}
	if matrix == vmisa.MatrixTT {
		extra := 12
		if lhs.Tag == symtab.Struct {
			extra = e.sizeOf(lhs) * 4
		}
		if err := e.out.writeInt16(int16(extra)); err != nil {
			return err
		}
	}
	e.exp += e.sizeOf(out) - e.sizeOf(lhs) - e.sizeOf(rhs)
	return nil
}

// CodeCONSTInt emits CONST int and pushes one cell.
func (e *Emitter) CodeCONSTInt(v int32) error {
	if err := e.codeOpcode(vmisa.OpCONST, vmisa.TypeInteger); err != nil {
		return err
	}
	if err := e.out.writeInt32(v); err != nil {
		return err
	}
	e.exp++
	return nil
}

// CodeCONSTFloat emits CONST float and pushes one cell.
func (e *Emitter) CodeCONSTFloat(v float32) error {
	if err := e.codeOpcode(vmisa.OpCONST, vmisa.TypeFloat); err != nil {
		return err
	}
	if err := e.out.writeUint32(math.Float32bits(v)); err != nil {
		return err
	}
	e.exp++
	return nil
}

// CodeCONSTString emits CONST string (int16 length + bytes) and pushes
// one cell.
func (e *Emitter) CodeCONSTString(s string) error {
	if err := e.codeOpcode(vmisa.OpCONST, vmisa.TypeString); err != nil {
		return err
	}
	if err := e.out.writeInt16(int16(len(s))); err != nil {
		return err
	}
	if err := e.out.writeBytes([]byte(s)); err != nil {
		return err
	}
	e.exp++
	return nil
}

// CodeCONSTObject emits CONST object and pushes one cell.
func (e *Emitter) CodeCONSTObject(id int32) error {
	if err := e.codeOpcode(vmisa.OpCONST, vmisa.TypeObject); err != nil {
		return err
	}
	if err := e.out.writeInt32(id); err != nil {
		return err
	}
	e.exp++
	return nil
}

// CodeMOVSP pops count cells (the instruction's byte delta is written
// negative). cursor, when non-nil, is decremented by count; a nil
// cursor leaves the bookkeeping to the caller (used on paths where
// control diverges right after, like break and return). A zero count
// emits nothing.
func (e *Emitter) CodeMOVSP(count int, cursor *int) error {
	if count == 0 {
		return nil
	}
	if err := e.codeOpcode(vmisa.OpMOVSP, vmisa.TypeVoid); err != nil {
		return err
	}
	if err := e.out.writeInt32(int32(-count) * 4); err != nil {
		return err
	}
	if cursor != nil {
		*cursor -= count
	}
	return nil
}

// CodeCP encodes one of the four copy instructions. depthCells is the
// positive cell depth below the relevant cursor (the byte offset is
// written negated); countCells is the span copied. A top copy pushes
// its span onto the expression stack.
func (e *Emitter) CodeCP(op vmisa.Op, depthCells, countCells int) error {
	if err := e.out.writeByte(byte(op)); err != nil {
		return err
	}
	if err := e.out.writeByte(1); err != nil {
		return err
	}
	if err := e.out.writeInt32(int32(-depthCells) * 4); err != nil {
		return err
	}
	if err := e.out.writeInt16(int16(countCells) * 4); err != nil {
		return err
	}
	if op == vmisa.OpCPTOPSP || op == vmisa.OpCPTOPBP {
		e.exp += countCells
	}
	return nil
}

// CodeACTION emits an engine-function call: the arguments are consumed
// and the engine leaves the return value, so exp nets their difference.
func (e *Emitter) CodeACTION(returnType symtab.Type, actionID, argCount, argSizeCells int) error {
	if err := e.codeOpcode(vmisa.OpACTION, vmisa.TypeVoid); err != nil {
		return err
	}
	if err := e.out.writeInt16(int16(actionID)); err != nil {
		return err
	}
	if err := e.out.writeByte(byte(argCount)); err != nil {
		return err
	}
	e.exp -= argSizeCells
	e.exp += e.sizeOf(returnType)
	return nil
}

// CodeJSR emits a user-routine call. The callee consumes its argument
// cells, so exp drops by argSizeCells; the return value was reserved by
// the caller before the arguments were pushed.
func (e *Emitter) CodeJSR(target *label, argSizeCells int) error {
	if err := e.emitJump(byte(vmisa.OpJSR), target); err != nil {
		return err
	}
	e.exp -= argSizeCells
	return nil
}

func (e *Emitter) CodeJMP(target *label) error {
	return e.emitJump(byte(vmisa.OpJMP), target)
}

// CodeJZ / CodeJNZ consume the test cell.
func (e *Emitter) CodeJZ(target *label) error {
	if err := e.emitJump(byte(vmisa.OpJZ), target); err != nil {
		return err
	}
	e.exp--
	return nil
}

func (e *Emitter) CodeJNZ(target *label) error {
	if err := e.emitJump(byte(vmisa.OpJNZ), target); err != nil {
		return err
	}
	e.exp--
	return nil
}

func (e *Emitter) CodeRETN() error {
	return e.codeOpcode(vmisa.OpRETN, vmisa.TypeVoid)
}

// CodeDESTRUCT keeps sizeCells cells at elementCells within the top
// totalCells cells and drops the rest.
func (e *Emitter) CodeDESTRUCT(totalCells, elementCells, sizeCells int) error {
	if err := e.out.writeByte(byte(vmisa.OpDESTRUCT)); err != nil {
		return err
	}
	if err := e.out.writeByte(1); err != nil {
		return err
	}
	if err := e.out.writeInt16(int16(totalCells) * 4); err != nil {
		return err
	}
	if err := e.out.writeInt16(int16(elementCells) * 4); err != nil {
		return err
	}
	if err := e.out.writeInt16(int16(sizeCells) * 4); err != nil {
		return err
	}
	e.exp -= totalCells
	e.exp += sizeCells
	return nil
}

// CodeSTORE_STATE captures the live globals and locals for a deferred
// action argument. Using it while the globals frame is still being
// built is unreliable (later globals won't be in the captured frame),
// so that draws a warning rather than an error.
func (e *Emitter) CodeSTORE_STATE() error {
	if e.insideGlobals && e.warn != nil {
		e.warn.Warn(diag.WarningStoreStateGlobal, e.curFile, e.curLine, "")
	}
	if err := e.out.writeByte(byte(vmisa.OpSTORE_STATE)); err != nil {
		return err
	}
	if err := e.out.writeByte(16); err != nil {
		return err
	}
	if err := e.out.writeInt32(int32(e.bp) * 4); err != nil {
		return err
	}
	return e.out.writeInt32(int32(e.returnSize+e.sp) * 4)
}

// CodeINC emits one of the in-place increment/decrement instructions.
// depthCells is the positive cell depth of the target (written negated).
func (e *Emitter) CodeINC(op vmisa.Op, depthCells int) error {
	if err := e.out.writeByte(byte(op)); err != nil {
		return err
	}
	if err := e.out.writeByte(3); err != nil {
		return err
	}
	return e.out.writeInt32(int32(-depthCells) * 4)
}

func (e *Emitter) CodeNOP() error {
	return e.codeOpcode(vmisa.OpNOP, vmisa.TypeVoid)
}

func (e *Emitter) CodeSAVEBP() error    { return e.codeOpcode(vmisa.OpSAVEBP, vmisa.TypeVoid) }
func (e *Emitter) CodeRESTOREBP() error { return e.codeOpcode(vmisa.OpRESTOREBP, vmisa.TypeVoid) }

// resolveOffset computes the positive cell depth passed to a CP*
// instruction for a reference to sym, and which copy family applies.
// Globals are addressed from their recorded slot below BP, except while
// the globals frame itself is being built, when they are still ordinary
// stack cells. Locals use the stack offset carried on the referencing
// record, measured from the frame's argument baseline.
func (e *Emitter) resolveOffset(sym *symtab.Symbol, flags symtab.Flags, stackOffset int) (depthCells int, bpRel bool) {
	if flags.Has(symtab.Global) {
		if e.insideGlobals {
			return e.bp + e.exp - sym.StackOffset, false
		}
		return e.bp - sym.StackOffset, true
	}
	return e.sp + e.exp - stackOffset, false
}
