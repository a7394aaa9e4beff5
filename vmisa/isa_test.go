package vmisa

import (
	"testing"

	"github.com/ncsforge/nscc/symtab"
)

// The numeric opcode values are a compatibility contract with the VM;
// pin the values whose position in the table is easy to get wrong.
func TestOpcodeValues(t *testing.T) {
	cases := []struct {
		op   Op
		want byte
	}{
		{OpCPDOWNSP, 0x01},
		{OpCONST, 0x04},
		{OpACTION, 0x05},
		{OpEQUAL, 0x0B},
		{OpADD, 0x14},
		{OpMOVSP, 0x1B},
		{OpSTORE_STATEALL, 0x1C},
		{OpJMP, 0x1D},
		{OpJSR, 0x1E},
		{OpJZ, 0x1F},
		{OpRETN, 0x20},
		{OpDESTRUCT, 0x21},
		{OpJNZ, 0x25},
		{OpCPDOWNBP, 0x26},
		{OpCPTOPBP, 0x27},
		{OpSAVEBP, 0x2A},
		{OpRESTOREBP, 0x2B},
		{OpSTORE_STATE, 0x2C},
		{OpNOP, 0x2D},
	}
	for _, c := range cases {
		if byte(c.op) != c.want {
			t.Errorf("opcode value got %#02x want %#02x", byte(c.op), c.want)
		}
	}
}

func TestBinaryMatrix(t *testing.T) {
	intT := symtab.Type{Tag: symtab.Integer}
	floatT := symtab.Type{Tag: symtab.Float}
	vecT := symtab.Type{Tag: symtab.Vector}
	strT := symtab.Type{Tag: symtab.String}
	objT := symtab.Type{Tag: symtab.Object}
	eng1 := symtab.Type{Tag: symtab.Engine, Index: 1}
	structA := symtab.Type{Tag: symtab.Struct, Index: 3}
	structB := symtab.Type{Tag: symtab.Struct, Index: 4}

	cases := []struct {
		lhs, rhs symtab.Type
		useTT    bool
		want     byte
		ok       bool
	}{
		{intT, intT, false, MatrixII, true},
		{floatT, floatT, false, MatrixFF, true},
		{intT, floatT, false, MatrixIF, true},
		{floatT, intT, false, MatrixFI, true},
		{objT, objT, false, MatrixOO, true},
		{strT, strT, false, MatrixSS, true},
		{vecT, vecT, false, MatrixVV, true},
		{vecT, vecT, true, MatrixTT, true},
		{vecT, floatT, false, MatrixVF, true},
		{floatT, vecT, false, MatrixFV, true},
		{eng1, eng1, false, EngineBase + 1, true},
		{structA, structA, true, MatrixTT, true},
		{structA, structA, false, 0, false},
		{structA, structB, true, 0, false},
		{intT, strT, false, 0, false},
	}
	for _, c := range cases {
		got, ok := BinaryMatrix(c.lhs, c.rhs, c.useTT)
		if ok != c.ok || (ok && got != c.want) {
			t.Errorf("BinaryMatrix(%s, %s, %v) got (%#02x, %v) want (%#02x, %v)",
				c.lhs, c.rhs, c.useTT, got, ok, c.want, c.ok)
		}
	}
}

func TestDeclType(t *testing.T) {
	if got := DeclType(symtab.Type{Tag: symtab.Engine, Index: 5}); got != TypeInteger {
		t.Errorf("engine handle type byte got %d want %d", got, TypeInteger)
	}
	if got := DeclType(symtab.Type{Tag: symtab.String}); got != TypeString {
		t.Errorf("string type byte got %d want %d", got, TypeString)
	}
}
