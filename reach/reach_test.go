package reach_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ncsforge/nscc/config/compilerconfig"
	"github.com/ncsforge/nscc/diag"
	"github.com/ncsforge/nscc/internal/sample"
	"github.com/ncsforge/nscc/pcode"
	"github.com/ncsforge/nscc/reach"
	"github.com/ncsforge/nscc/symtab"
	"github.com/ncsforge/nscc/unit"
)

var (
	intType  = symtab.Type{Tag: symtab.Integer}
	voidType = symtab.Type{Tag: symtab.Void}
)

func flags130() compilerconfig.Flags {
	return compilerconfig.ForVersion(130).Flags
}

func TestGlobalFolding(t *testing.T) {
	p := sample.Globals()
	res, err := reach.Run(p, flags130(), nil)
	require.NoError(t, err)

	g := p.Syms.Get(p.Globals[0].Symbol)
	h := p.Syms.Get(p.Globals[1].Symbol)

	require.True(t, g.Flags.Has(symtab.Referenced), "g is read in main")
	require.False(t, g.Flags.Has(symtab.Modified))
	require.True(t, g.Flags.Has(symtab.TreatAsConstant), "unmodified pure int global folds")

	require.True(t, h.Flags.Has(symtab.Modified), "h is assigned in main")
	require.False(t, h.Flags.Has(symtab.TreatAsConstant))

	require.True(t, res.NeedsGlobals, "a stored global forces the globals routine")

	main := p.Syms.Get(res.Entry)
	require.True(t, main.Func.Flags.Has(symtab.UsesGlobalVars))
}

func TestNoGlobalsRoutineWhenAllFold(t *testing.T) {
	buf := pcode.NewBuffer()
	syms := symtab.New()
	p := unit.New(buf, syms)
	p.AddFile("t.nss")

	g := syms.Add(symtab.Symbol{Name: "g", Kind: symtab.KindVariable, Type: intType, Flags: symtab.Global})
	init := buf.PushConstantInt(2)
	p.AddGlobal(g, init, 0, 1)

	gRead := buf.PushVariableWhole(intType, g, 0, symtab.Global)
	mark := buf.Mark()
	buf.PushReturn(intType, gRead)
	body := buf.Since(mark)
	fn := syms.Add(symtab.Symbol{
		Name: "StartingConditional", Kind: symtab.KindFunction, Type: intType,
		Func: &symtab.FunctionData{CodeOffset: body.Start, CodeSize: body.Len, Flags: symtab.Defined},
	})
	p.AddFunction(fn)

	res, err := reach.Run(p, flags130(), nil)
	require.NoError(t, err)
	require.False(t, res.NeedsGlobals)
	require.Equal(t, reach.EntryConditional, res.EntryKind)
}

func TestRecursionDiscoveredOnce(t *testing.T) {
	p := sample.Countdown()
	res, err := reach.Run(p, flags130(), nil)
	require.NoError(t, err)

	count := 0
	for _, fn := range res.EmitOrder {
		if p.Syms.Get(fn).Name == "f" {
			count++
		}
	}
	require.Equal(t, 1, count, "a recursive callee is discovered exactly once")
	require.Equal(t, "main", p.Syms.Get(res.EmitOrder[0]).Name, "discovery order starts at the entry")
}

func TestEntryErrors(t *testing.T) {
	buf := pcode.NewBuffer()
	syms := symtab.New()
	p := unit.New(buf, syms)

	_, err := reach.Run(p, flags130(), nil)
	var cerr *diag.Error
	require.True(t, errors.As(err, &cerr))
	require.Equal(t, diag.EntrySymbolNotFound, cerr.Kind)

	// A main with the wrong return type is rejected too.
	fn := syms.Add(symtab.Symbol{
		Name: "main", Kind: symtab.KindFunction, Type: intType,
		Func: &symtab.FunctionData{Flags: symtab.Defined},
	})
	p.AddFunction(fn)
	_, err = reach.Run(p, flags130(), nil)
	require.True(t, errors.As(err, &cerr))
	require.Equal(t, diag.EntrySymbolMustReturnType, cerr.Kind)
}

func TestMissingBody(t *testing.T) {
	buf := pcode.NewBuffer()
	syms := symtab.New()
	p := unit.New(buf, syms)
	p.AddFile("t.nss")

	helper := syms.Add(symtab.Symbol{
		Name: "helper", Kind: symtab.KindFunction, Type: voidType,
		Func: &symtab.FunctionData{},
	})
	mark := buf.Mark()
	buf.PushCall(voidType, helper, 0, pcode.Slice{})
	body := buf.Since(mark)
	fn := syms.Add(symtab.Symbol{
		Name: "main", Kind: symtab.KindFunction, Type: voidType,
		Func: &symtab.FunctionData{CodeOffset: body.Start, CodeSize: body.Len, Flags: symtab.Defined},
	})
	p.AddFunction(fn)

	_, err := reach.Run(p, flags130(), nil)
	var cerr *diag.Error
	require.True(t, errors.As(err, &cerr))
	require.Equal(t, diag.FunctionBodyMissing, cerr.Kind)
}

func TestUsesGlobalsPropagatesThroughCallers(t *testing.T) {
	buf := pcode.NewBuffer()
	syms := symtab.New()
	p := unit.New(buf, syms)
	p.AddFile("t.nss")

	g := syms.Add(symtab.Symbol{Name: "g", Kind: symtab.KindVariable, Type: intType, Flags: symtab.Global})
	init := buf.PushConstantInt(0)
	p.AddGlobal(g, init, 0, 1)

	// leaf reads the global; mid calls leaf; main calls mid.
	gRead := buf.PushVariableWhole(intType, g, 0, symtab.Global)
	leafMark := buf.Mark()
	buf.PushReturn(intType, gRead)
	leafBody := buf.Since(leafMark)
	leaf := syms.Add(symtab.Symbol{
		Name: "leaf", Kind: symtab.KindFunction, Type: intType,
		Func: &symtab.FunctionData{CodeOffset: leafBody.Start, CodeSize: leafBody.Len, Flags: symtab.Defined},
	})
	p.AddFunction(leaf)

	leafCall := buf.PushCall(intType, leaf, 0, pcode.Slice{})
	midMark := buf.Mark()
	buf.PushReturn(intType, leafCall)
	midBody := buf.Since(midMark)
	mid := syms.Add(symtab.Symbol{
		Name: "mid", Kind: symtab.KindFunction, Type: intType,
		Func: &symtab.FunctionData{CodeOffset: midBody.Start, CodeSize: midBody.Len, Flags: symtab.Defined},
	})
	p.AddFunction(mid)

	mainMark := buf.Mark()
	buf.PushCall(intType, mid, 0, pcode.Slice{})
	buf.PushConstEnd(intType)
	mainBody := buf.Since(mainMark)
	main := syms.Add(symtab.Symbol{
		Name: "main", Kind: symtab.KindFunction, Type: voidType,
		Func: &symtab.FunctionData{CodeOffset: mainBody.Start, CodeSize: mainBody.Len, Flags: symtab.Defined},
	})
	p.AddFunction(main)

	_, err := reach.Run(p, flags130(), nil)
	require.NoError(t, err)

	require.True(t, syms.Get(leaf).Func.Flags.Has(symtab.UsesGlobalVars))
	require.True(t, syms.Get(mid).Func.Flags.Has(symtab.UsesGlobalVars))
	require.True(t, syms.Get(main).Func.Flags.Has(symtab.UsesGlobalVars))
}
