package codegen_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ncsforge/nscc/codegen"
	"github.com/ncsforge/nscc/config/compilerconfig"
	"github.com/ncsforge/nscc/diag"
	"github.com/ncsforge/nscc/disasm"
	"github.com/ncsforge/nscc/internal/sample"
	"github.com/ncsforge/nscc/pcode"
	"github.com/ncsforge/nscc/reach"
	"github.com/ncsforge/nscc/symtab"
	"github.com/ncsforge/nscc/unit"
	"github.com/ncsforge/nscc/vmisa"
)

var (
	intType  = symtab.Type{Tag: symtab.Integer}
	voidType = symtab.Type{Tag: symtab.Void}
)

func cfg130() compilerconfig.Config { return compilerconfig.ForVersion(130) }

func emit(t *testing.T, p *unit.Program, cfg compilerconfig.Config) (*codegen.Output, []disasm.Instr) {
	t.Helper()
	res, err := reach.Run(p, cfg.Flags, nil)
	require.NoError(t, err)
	out, err := codegen.EmitProgram(p, res, cfg, &diag.Sink{})
	require.NoError(t, err)
	instrs, err := disasm.Disassemble(out.Bytes)
	require.NoError(t, err)
	return out, instrs
}

func opNames(instrs []disasm.Instr) []string {
	names := make([]string, len(instrs))
	for i, in := range instrs {
		names[i] = in.Name()
	}
	return names
}

// An empty void main with no globals needs no loader stub: the
// function itself sits at offset zero and is the whole program.
func TestEmptyMain(t *testing.T) {
	out, _ := emit(t, sample.Empty(), cfg130())
	require.Equal(t, []byte{byte(vmisa.OpRETN), 0}, out.Bytes)

	var names []string
	for _, fr := range out.Funcs {
		names = append(names, fr.Name)
	}
	require.Contains(t, names, "#loader")
}

// A conditional entry reserves the result slot in the loader, and the
// body copies its value down into it before unwinding.
func TestConditionalEntryExactBytes(t *testing.T) {
	out, instrs := emit(t, sample.Conditional(), cfg130())

	want := []byte{
		0x02, 0x03, // RSADD int: the result slot
		0x1E, 0x00, 0x00, 0x00, 0x00, 0x08, // JSR StartingConditional
		0x20, 0x00, // RETN
		0x04, 0x03, 0x00, 0x00, 0x00, 0x01, // CONST int 1
		0x01, 0x01, 0xFF, 0xFF, 0xFF, 0xF8, 0x00, 0x04, // CPDOWNSP -8, 4
		0x1B, 0x00, 0xFF, 0xFF, 0xFF, 0xFC, // MOVSP -4
		0x1D, 0x00, 0x00, 0x00, 0x00, 0x06, // JMP to the epilogue
		0x20, 0x00, // RETN
	}
	require.Equal(t, want, out.Bytes)

	require.Equal(t, []string{
		"RSADD", "JSR", "RETN", "CONST", "CPDOWNSP", "MOVSP", "JMP", "RETN",
	}, opNames(instrs))
}

// Every jump must land on an instruction boundary inside the stream.
func TestJumpTargetsAreInstructionStarts(t *testing.T) {
	for _, name := range sample.Names() {
		p, err := sample.Build(name)
		require.NoError(t, err)
		out, instrs := emit(t, p, cfg130())

		starts := map[int]bool{len(out.Bytes): true}
		for _, in := range instrs {
			starts[in.Offset] = true
		}
		for _, in := range instrs {
			switch in.Op {
			case vmisa.OpJMP, vmisa.OpJSR, vmisa.OpJZ, vmisa.OpJNZ:
				target := in.Offset + int(in.Operands[0])
				require.True(t, starts[target],
					"%s: %s at %#x jumps to %#x, not an instruction start", name, in.Name(), in.Offset, target)
			}
		}
	}
}

// A recursive function is emitted once and calls back to its own start.
func TestRecursion(t *testing.T) {
	p := sample.Countdown()
	out, instrs := emit(t, p, cfg130())

	var fRange *codegen.FuncRange
	seen := 0
	for i := range out.Funcs {
		if out.Funcs[i].Symbol >= 0 && p.Syms.Get(out.Funcs[i].Symbol).Name == "f" {
			fRange = &out.Funcs[i]
			seen++
		}
	}
	require.Equal(t, 1, seen)

	var jsrTargets []int
	for _, in := range instrs {
		if in.Op == vmisa.OpJSR {
			jsrTargets = append(jsrTargets, in.Offset+int(in.Operands[0]))
		}
	}
	require.Len(t, jsrTargets, 2, "one call from main, one recursive")
	require.Equal(t, int(fRange.Start), jsrTargets[0])
	require.Equal(t, int(fRange.Start), jsrTargets[1])
}

// A foldable global compiles to its constant at every read; a stored
// global is addressed through BP.
func TestGlobalFoldingAndStores(t *testing.T) {
	out, instrs := emit(t, sample.Globals(), cfg130())

	var consts []int32
	downBP, topBP := 0, 0
	for _, in := range instrs {
		switch in.Op {
		case vmisa.OpCONST:
			consts = append(consts, in.Operands[0])
		case vmisa.OpCPDOWNBP:
			downBP++
		case vmisa.OpCPTOPBP:
			topBP++
		}
	}
	require.Contains(t, consts, int32(2), "the read of g is inlined as CONST 2")
	require.Equal(t, 0, topBP, "nothing loads g from storage")
	require.Equal(t, 1, downBP, "the store to h is BP-relative")

	var globalsRange *codegen.FuncRange
	for i := range out.Funcs {
		if out.Funcs[i].Name == "#globals" {
			globalsRange = &out.Funcs[i]
		}
	}
	require.NotNil(t, globalsRange, "a stored global forces #globals")
}

// With the empty-globals optimization, a unit whose only global folds
// away gets no #globals routine at all.
func TestNoGlobalsRoutine(t *testing.T) {
	buf := pcode.NewBuffer()
	syms := symtab.New()
	p := unit.New(buf, syms)
	p.AddFile("t.nss")
	g := syms.Add(symtab.Symbol{Name: "g", Kind: symtab.KindVariable, Type: intType, Flags: symtab.Global})
	p.AddGlobal(g, buf.PushConstantInt(9), 0, 1)

	gRead := buf.PushVariableWhole(intType, g, 0, symtab.Global)
	mark := buf.Mark()
	buf.PushReturn(intType, gRead)
	body := buf.Since(mark)
	fn := syms.Add(symtab.Symbol{
		Name: "StartingConditional", Kind: symtab.KindFunction, Type: intType,
		Func: &symtab.FunctionData{CodeOffset: body.Start, CodeSize: body.Len, Flags: symtab.Defined},
	})
	p.AddFunction(fn)

	out, _ := emit(t, p, cfg130())
	for _, fr := range out.Funcs {
		require.NotEqual(t, "#globals", fr.Name)
	}
}

// buildOrProgram compiles "return lhs || rhs" with both operands local
// constants, under the given configuration.
func buildOrProgram() *unit.Program {
	buf := pcode.NewBuffer()
	syms := symtab.New()
	p := unit.New(buf, syms)
	p.AddFile("t.nss")

	lhs := buf.PushConstantInt(1)
	rhs := buf.PushConstantInt(0)
	or := buf.PushLogicalOr(lhs, rhs)
	mark := buf.Mark()
	buf.PushReturn(intType, or)
	body := buf.Since(mark)
	fn := syms.Add(symtab.Symbol{
		Name: "StartingConditional", Kind: symtab.KindFunction, Type: intType,
		Func: &symtab.FunctionData{CodeOffset: body.Start, CodeSize: body.Len, Flags: symtab.Defined},
	})
	p.AddFunction(fn)
	return p
}

func orOpcodes(t *testing.T, cfg compilerconfig.Config) []string {
	t.Helper()
	out, instrs := emit(t, buildOrProgram(), cfg)
	// Skip the synthesized routines: the loader stub (RSADD, JSR, RETN)
	// and, on VMs without the empty-globals optimization, #globals.
	var body []disasm.Instr
	for _, in := range instrs {
		synthetic := false
		for _, fr := range out.Funcs {
			if fr.Symbol < 0 && uint32(in.Offset) >= fr.Start && uint32(in.Offset) < fr.End {
				synthetic = true
			}
		}
		if !synthetic {
			body = append(body, in)
		}
	}
	return opNames(body)
}

func TestLogicalOrEncodings(t *testing.T) {
	// Fixed: duplicate the LHS, skip the RHS when it is already true.
	fixed := cfg130()
	require.True(t, fixed.Flags.NoBugLogicalOr)
	require.Equal(t, []string{
		"CONST", "CPTOPSP", "JNZ", "CONST", "LOGOR", // the OR itself
		"CPDOWNSP", "MOVSP", "JMP", "RETN",
	}, orOpcodes(t, fixed))

	// Compatibility shape for the newest VMs: the second re-test is an
	// unconditional jump over the RHS.
	compat := cfg130()
	compat.Flags.NoBugLogicalOr = false
	require.Equal(t, []string{
		"CONST", "CPTOPSP", "JZ", "CPTOPSP", "JMP", "CONST", "LOGOR",
		"CPDOWNSP", "MOVSP", "JMP", "RETN",
	}, orOpcodes(t, compat))

	// The oldest VMs re-test with JZ, which never branches when the LHS
	// is true, so the RHS always evaluates. Wrong, and required.
	old := compilerconfig.ForVersion(100)
	require.False(t, old.Flags.NoBugLogicalOr)
	require.Equal(t, []string{
		"CONST", "CPTOPSP", "JZ", "CPTOPSP", "JZ", "CONST", "LOGOR",
		"CPDOWNSP", "MOVSP", "JMP", "RETN",
	}, orOpcodes(t, old))
}

// break pops the loop scope's locals before jumping out.
func TestBreakPopsLoopLocals(t *testing.T) {
	buf := pcode.NewBuffer()
	syms := symtab.New()
	p := unit.New(buf, syms)
	p.AddFile("t.nss")

	local := syms.Add(symtab.Symbol{Name: "tmp", Kind: symtab.KindVariable, Type: intType})
	cond := buf.PushConstantInt(1)
	tmpInit := buf.PushConstantInt(5)
	loopMark := buf.Mark()
	buf.PushDeclaration(intType, local, 0, 2, tmpInit)
	buf.PushBreak()
	loopBody := buf.Since(loopMark)

	mark := buf.Mark()
	buf.PushBlock5(pcode.BlockWhile, voidType, [5]pcode.Block5Slot{
		1: {Body: cond, File: 0, Line: 1},
		3: {Body: loopBody, File: 0, Line: 1},
	})
	body := buf.Since(mark)
	fn := syms.Add(symtab.Symbol{
		Name: "main", Kind: symtab.KindFunction, Type: voidType,
		Func: &symtab.FunctionData{CodeOffset: body.Start, CodeSize: body.Len, Flags: symtab.Defined},
	})
	p.AddFunction(fn)

	_, instrs := emit(t, p, cfg130())
	// Literal-true condition folds the test away entirely; the break
	// must still pop the declared local before jumping to the end.
	require.Equal(t, []string{
		"CONST", // tmp's optimized declaration
		"MOVSP", // break pops tmp
		"JMP",   // break
		"JMP",   // loop back edge
		"RETN",
	}, opNames(instrs))
	require.Equal(t, int32(-4), instrs[1].Operands[0])
}

// The switch selector is compared against each case key in a scan pass
// ahead of the body, and dropped when the switch ends.
func TestSwitchShape(t *testing.T) {
	buf := pcode.NewBuffer()
	syms := symtab.New()
	p := unit.New(buf, syms)
	p.AddFile("t.nss")

	selector := buf.PushConstantInt(2)
	key1 := buf.PushConstantInt(1)
	caseMark := buf.Mark()
	buf.PushCase(intType, 0, 2, key1)
	buf.PushBreak()
	buf.PushDefault(0, 3)
	buf.PushBreak()
	switchBody := buf.Since(caseMark)

	mark := buf.Mark()
	buf.PushBlock5(pcode.BlockSwitch, voidType, [5]pcode.Block5Slot{
		1: {Body: selector, File: 0, Line: 1},
		3: {Body: switchBody, File: 0, Line: 1},
	})
	body := buf.Since(mark)
	fn := syms.Add(symtab.Symbol{
		Name: "main", Kind: symtab.KindFunction, Type: voidType,
		Func: &symtab.FunctionData{CodeOffset: body.Start, CodeSize: body.Len, Flags: symtab.Defined},
	})
	p.AddFunction(fn)

	_, instrs := emit(t, p, cfg130())
	require.Equal(t, []string{
		"CONST",   // selector
		"CPTOPSP", // duplicate selector for the case compare
		"CONST",   // case key 1
		"EQUAL",
		"JNZ",   // to case 1's body
		"JMP",   // to default
		"JMP",   // case 1: break
		"JMP",   // default: break
		"MOVSP", // drop the selector
		"RETN",
	}, opNames(instrs))
}

// The two declaration modes: optimized adopts the initializer's cells,
// traditional reserves first and copies down.
func TestDeclarationModes(t *testing.T) {
	build := func() *unit.Program {
		buf := pcode.NewBuffer()
		syms := symtab.New()
		p := unit.New(buf, syms)
		p.AddFile("t.nss")
		local := syms.Add(symtab.Symbol{Name: "x", Kind: symtab.KindVariable, Type: intType})
		init := buf.PushConstantInt(7)
		mark := buf.Mark()
		buf.PushDeclaration(intType, local, 0, 1, init)
		body := buf.Since(mark)
		fn := syms.Add(symtab.Symbol{
			Name: "main", Kind: symtab.KindFunction, Type: voidType,
			Func: &symtab.FunctionData{CodeOffset: body.Start, CodeSize: body.Len, Flags: symtab.Defined},
		})
		p.AddFunction(fn)
		return p
	}

	_, instrs := emit(t, build(), cfg130())
	require.Equal(t, []string{"CONST", "RETN"}, opNames(instrs),
		"optimized declaration keeps the pushed value as the variable")

	trad := cfg130()
	trad.Flags.OptDeclaration = false
	_, instrs = emit(t, build(), trad)
	require.Equal(t, []string{"RSADD", "CONST", "CPDOWNSP", "MOVSP", "RETN"}, opNames(instrs))
	// The copy reaches down over both the transient and the reserved cell.
	require.Equal(t, int32(-8), instrs[2].Operands[0])
}

// __readpc materializes the current body-relative offset.
func TestReadPCIntrinsic(t *testing.T) {
	_, instrs := emit(t, sample.Intrinsics(), cfg130())
	require.Equal(t, []string{"RSADD", "CONST", "CPDOWNSP", "MOVSP", "RETN"}, opNames(instrs))
	require.Equal(t, int32(instrs[1].Offset), instrs[1].Operands[0])
}

// Identical input must produce identical bytes.
func TestDeterministicEmission(t *testing.T) {
	for _, name := range sample.Names() {
		p1, err := sample.Build(name)
		require.NoError(t, err)
		p2, err := sample.Build(name)
		require.NoError(t, err)
		out1, _ := emit(t, p1, cfg130())
		out2, _ := emit(t, p2, cfg130())
		require.True(t, bytes.Equal(out1.Bytes, out2.Bytes), "sample %s not deterministic", name)
	}
}

// An engine call lowers to ACTION with the service id and arg count.
func TestEngineCall(t *testing.T) {
	_, instrs := emit(t, sample.Loops(), cfg130())
	var action *disasm.Instr
	for i := range instrs {
		if instrs[i].Op == vmisa.OpACTION {
			action = &instrs[i]
		}
	}
	require.NotNil(t, action)
	require.Equal(t, int32(1), action.Operands[0], "service id")
	require.Equal(t, int32(1), action.Operands[1], "argument count")
}

// A conditional entry with stored globals routes its result through the
// loader's slot: reserve, call, copy down past the whole globals frame,
// unwind.
func TestGlobalsConditionalHandoff(t *testing.T) {
	buf := pcode.NewBuffer()
	syms := symtab.New()
	p := unit.New(buf, syms)
	p.AddFile("t.nss")

	g := syms.Add(symtab.Symbol{Name: "g", Kind: symtab.KindVariable, Type: intType, Flags: symtab.Global})
	p.AddGlobal(g, buf.PushConstantInt(0), 0, 1)

	one := buf.PushConstantInt(1)
	gRead := buf.PushVariableWhole(intType, g, 0, symtab.Global)
	mark := buf.Mark()
	buf.PushAssignment(pcode.AssignPlain, intType, g,
		pcode.AssignmentOpts{Element: -1, Flags: symtab.Global}, one)
	buf.PushConstEnd(intType)
	buf.PushReturn(intType, gRead)
	body := buf.Since(mark)
	fn := syms.Add(symtab.Symbol{
		Name: "StartingConditional", Kind: symtab.KindFunction, Type: intType,
		Func: &symtab.FunctionData{CodeOffset: body.Start, CodeSize: body.Len, Flags: symtab.Defined},
	})
	p.AddFunction(fn)

	out, instrs := emit(t, p, cfg130())

	var globalsRange *codegen.FuncRange
	for i := range out.Funcs {
		if out.Funcs[i].Name == "#globals" {
			globalsRange = &out.Funcs[i]
		}
	}
	require.NotNil(t, globalsRange)

	var inGlobals []disasm.Instr
	for _, in := range instrs {
		if in.Offset >= int(globalsRange.Start) && in.Offset < int(globalsRange.End) {
			inGlobals = append(inGlobals, in)
		}
	}
	require.Equal(t, []string{
		"CONST",     // g's initializer becomes its storage
		"SAVEBP",    // BP now covers the finished frame
		"RSADD",     // local slot for the entry's result
		"JSR",       // into StartingConditional
		"CPDOWNSP",  // result down into the loader's slot
		"MOVSP",     // drop the local slot
		"RESTOREBP", //
		"MOVSP",     // drop the globals frame
		"RETN",
	}, opNames(inGlobals))
	// The copy reaches below the one-cell frame, the saved BP, and the
	// local slot.
	require.Equal(t, int32(-16), inGlobals[4].Operands[0])
}

// A deferred action argument captures the VM state, jumps over its
// body, and the body runs to its own RETN when the engine resumes it.
func TestActionArgument(t *testing.T) {
	buf := pcode.NewBuffer()
	syms := symtab.New()
	p := unit.New(buf, syms)
	p.AddFile("t.nss")

	actionType := symtab.Type{Tag: symtab.Action}
	floatType := symtab.Type{Tag: symtab.Float}
	stringType := symtab.Type{Tag: symtab.String}

	print := syms.Add(symtab.Symbol{
		Name: "PrintString", Kind: symtab.KindFunction, Type: voidType, Flags: symtab.EngineFunc,
		Func: &symtab.FunctionData{ArgCount: 1, ArgSize: 1, ArgTypes: []symtab.Type{stringType}, EngineAction: 1},
	})
	delay := syms.Add(symtab.Symbol{
		Name: "DelayCommand", Kind: symtab.KindFunction, Type: voidType, Flags: symtab.EngineFunc,
		Func: &symtab.FunctionData{ArgCount: 2, ArgSize: 1, ArgTypes: []symtab.Type{floatType, actionType}, EngineAction: 6},
	})

	msg := buf.PushConstantString("later")
	printArgsMark := buf.Mark()
	buf.PushArgument(stringType, msg)
	printArgs := buf.Since(printArgsMark)
	deferredCall := buf.PushCall(voidType, print, 1, printArgs)

	seconds := buf.PushConstantFloat(2)
	delayArgsMark := buf.Mark()
	buf.PushArgument(floatType, seconds)
	buf.PushArgument(actionType, deferredCall)
	delayArgs := buf.Since(delayArgsMark)

	mark := buf.Mark()
	buf.PushLineMarker(0, 1)
	buf.PushCall(voidType, delay, 2, delayArgs)
	buf.PushConstEnd(voidType)
	body := buf.Since(mark)
	fn := syms.Add(symtab.Symbol{
		Name: "main", Kind: symtab.KindFunction, Type: voidType,
		Func: &symtab.FunctionData{CodeOffset: body.Start, CodeSize: body.Len, Flags: symtab.Defined},
	})
	p.AddFunction(fn)

	_, instrs := emit(t, p, cfg130())
	require.Equal(t, []string{
		"STORE_STATE", // capture for the deferred body
		"JMP",         // over the body at call time
		"CONST",       // "later"
		"ACTION",      // PrintString inside the deferred body
		"RETN",        // end of the deferred body
		"CONST",       // 2.0, the first argument
		"ACTION",      // DelayCommand
		"RETN",
	}, opNames(instrs))

	// The capture names the current globals frame (none) and frame size.
	require.Equal(t, int32(0), instrs[0].Operands[0])
	require.Equal(t, int32(0), instrs[0].Operands[1])
	// The skip jump lands right after the deferred body's RETN.
	require.Equal(t, instrs[5].Offset, instrs[1].Offset+int(instrs[1].Operands[0]))
}

// Field extraction pushes the whole struct and DESTRUCTs down to the
// member; with the struct-copy optimization off, reading a member of a
// variable does the same instead of a narrow copy.
func TestStructElementAccess(t *testing.T) {
	floatType := symtab.Type{Tag: symtab.Float}

	build := func() *unit.Program {
		buf := pcode.NewBuffer()
		syms := symtab.New()
		p := unit.New(buf, syms)
		p.AddFile("t.nss")

		pair := syms.Add(symtab.Symbol{
			Name: "pair", Kind: symtab.KindStructure,
			Struct: &symtab.StructData{Members: []symtab.StructMember{
				{Name: "a", Type: intType},
				{Name: "b", Type: floatType},
			}},
		})
		pairType := symtab.Type{Tag: symtab.Struct, Index: pair}
		s := syms.Add(symtab.Symbol{Name: "s", Kind: symtab.KindVariable, Type: pairType})

		sInit := buf.PushConstantStructDefault(pairType)
		sRead := buf.PushVariableWhole(pairType, s, 0, 0)
		elem := buf.PushElement(floatType, pairType, 1, sRead)
		mark := buf.Mark()
		buf.PushDeclaration(pairType, s, 0, 1, sInit)
		buf.PushReturn(floatType, elem)
		body := buf.Since(mark)
		fn := syms.Add(symtab.Symbol{
			Name: "f", Kind: symtab.KindFunction, Type: floatType,
			Func: &symtab.FunctionData{CodeOffset: body.Start, CodeSize: body.Len, Flags: symtab.Defined},
		})
		// Entry point so the unit is valid; it just calls f.
		mainMark := buf.Mark()
		buf.PushCall(floatType, fn, 0, pcode.Slice{})
		buf.PushConstEnd(floatType)
		mainBody := buf.Since(mainMark)
		main := syms.Add(symtab.Symbol{
			Name: "main", Kind: symtab.KindFunction, Type: voidType,
			Func: &symtab.FunctionData{CodeOffset: mainBody.Start, CodeSize: mainBody.Len, Flags: symtab.Defined},
		})
		p.AddFunction(fn)
		p.AddFunction(main)
		return p
	}

	_, instrs := emit(t, build(), cfg130())
	var dest *disasm.Instr
	for i := range instrs {
		if instrs[i].Op == vmisa.OpDESTRUCT {
			dest = &instrs[i]
		}
	}
	require.NotNil(t, dest)
	// Keep 4 bytes at byte offset 4 of an 8-byte struct.
	require.Equal(t, []int32{8, 4, 4}, dest.Operands)
}

// Logical AND duplicates the LHS and skips the RHS when it is false.
func TestLogicalAnd(t *testing.T) {
	buf := pcode.NewBuffer()
	syms := symtab.New()
	p := unit.New(buf, syms)
	p.AddFile("t.nss")

	lhs := buf.PushConstantInt(0)
	rhs := buf.PushConstantInt(1)
	and := buf.PushLogicalAnd(lhs, rhs)
	mark := buf.Mark()
	buf.PushReturn(intType, and)
	body := buf.Since(mark)
	fn := syms.Add(symtab.Symbol{
		Name: "StartingConditional", Kind: symtab.KindFunction, Type: intType,
		Func: &symtab.FunctionData{CodeOffset: body.Start, CodeSize: body.Len, Flags: symtab.Defined},
	})
	p.AddFunction(fn)

	_, instrs := emit(t, p, cfg130())
	require.Equal(t, []string{
		"RSADD", "JSR", "RETN", // loader
		"CONST", "CPTOPSP", "JZ", "CONST", "LOGAND",
		"CPDOWNSP", "MOVSP", "JMP", "RETN",
	}, opNames(instrs))
}

// A vector constant is three float constants back to back.
func TestVectorConstant(t *testing.T) {
	vecType := symtab.Type{Tag: symtab.Vector}
	buf := pcode.NewBuffer()
	syms := symtab.New()
	p := unit.New(buf, syms)
	p.AddFile("t.nss")

	v := syms.Add(symtab.Symbol{Name: "v", Kind: symtab.KindVariable, Type: vecType})
	init := buf.PushConstantVector([3]float32{1, 2, 3})
	mark := buf.Mark()
	buf.PushDeclaration(vecType, v, 0, 1, init)
	body := buf.Since(mark)
	fn := syms.Add(symtab.Symbol{
		Name: "main", Kind: symtab.KindFunction, Type: voidType,
		Func: &symtab.FunctionData{CodeOffset: body.Start, CodeSize: body.Len, Flags: symtab.Defined},
	})
	p.AddFunction(fn)

	trad := cfg130()
	trad.Flags.OptDeclaration = false
	_, instrs := emit(t, p, trad)
	require.Equal(t, []string{
		"RSADD", "RSADD", "RSADD", // three float cells
		"CONST", "CONST", "CONST", // the initializer
		"CPDOWNSP", "MOVSP", "RETN",
	}, opNames(instrs))
	// The copy spans all three cells, reaching under the transient copy.
	require.Equal(t, []int32{-24, 12}, instrs[6].Operands)
}

// A post-increment reads the old value, then bumps the stored cell,
// which now sits one deeper under the value just pushed.
func TestPostIncrement(t *testing.T) {
	buf := pcode.NewBuffer()
	syms := symtab.New()
	p := unit.New(buf, syms)
	p.AddFile("t.nss")

	i := syms.Add(symtab.Symbol{Name: "i", Kind: symtab.KindVariable, Type: intType})
	init := buf.PushConstantInt(0)
	mark := buf.Mark()
	buf.PushDeclaration(intType, i, 0, 1, init)
	buf.PushVariableWhole(intType, i, 0, symtab.Increments|symtab.PostIncrement)
	buf.PushConstEnd(intType)
	body := buf.Since(mark)
	fn := syms.Add(symtab.Symbol{
		Name: "main", Kind: symtab.KindFunction, Type: voidType,
		Func: &symtab.FunctionData{CodeOffset: body.Start, CodeSize: body.Len, Flags: symtab.Defined},
	})
	p.AddFunction(fn)

	_, instrs := emit(t, p, cfg130())
	require.Equal(t, []string{
		"CONST",   // i's storage
		"CPTOPSP", // read the old value
		"INCISP",  // bump the stored cell
		"MOVSP",   // discard the expression value
		"RETN",
	}, opNames(instrs))
	require.Equal(t, int32(-4), instrs[1].Operands[0])
	require.Equal(t, int32(-8), instrs[2].Operands[0], "the stored cell slid under the pushed value")
}
