package symtab

import "testing"

func TestSizeOf(t *testing.T) {
	tab := New()
	inner := tab.Add(Symbol{
		Name: "pair", Kind: KindStructure,
		Struct: &StructData{Members: []StructMember{
			{Name: "a", Type: Type{Tag: Integer}},
			{Name: "b", Type: Type{Tag: Float}},
		}},
	})
	outer := tab.Add(Symbol{
		Name: "mixed", Kind: KindStructure,
		Struct: &StructData{Members: []StructMember{
			{Name: "p", Type: Type{Tag: Struct, Index: inner}},
			{Name: "v", Type: Type{Tag: Vector}},
			{Name: "o", Type: Type{Tag: Object}},
		}},
	})

	cases := []struct {
		ty   Type
		want int
	}{
		{Type{Tag: Void}, 0},
		{Type{Tag: Action}, 0},
		{Type{Tag: Integer}, 1},
		{Type{Tag: Float}, 1},
		{Type{Tag: String}, 1},
		{Type{Tag: Object}, 1},
		{Type{Tag: Engine, Index: 2}, 1},
		{Type{Tag: Vector}, 3},
		{Type{Tag: Struct, Index: inner}, 2},
		{Type{Tag: Struct, Index: outer}, 6},
	}
	for _, c := range cases {
		if got := tab.SizeOf(c.ty); got != c.want {
			t.Errorf("SizeOf(%s) got %d want %d", c.ty, got, c.want)
		}
	}
}

func TestFlagsHas(t *testing.T) {
	f := Global | Referenced
	if !f.Has(Global) || !f.Has(Referenced) {
		t.Error("set bits not reported")
	}
	if f.Has(Modified) {
		t.Error("clear bit reported set")
	}
	if f.Has(Global | Modified) {
		t.Error("Has should require every bit")
	}
}

func TestTableGetMutates(t *testing.T) {
	tab := New()
	idx := tab.Add(Symbol{Name: "g", Kind: KindVariable, Type: Type{Tag: Integer}})
	tab.Get(idx).Flags |= Referenced
	if !tab.Get(idx).Flags.Has(Referenced) {
		t.Error("flag update through Get was lost")
	}
	if tab.Len() != 1 {
		t.Errorf("Len got %d want 1", tab.Len())
	}
}
