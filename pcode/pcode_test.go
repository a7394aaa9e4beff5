package pcode

import (
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/ncsforge/nscc/symtab"
)

var intType = symtab.Type{Tag: symtab.Integer}

func TestBuilderSlices(t *testing.T) {
	b := NewBuffer()
	lhs := b.PushConstantInt(2)
	rhs := b.PushConstantInt(3)
	sum := b.PushBinary(TagAdd, intType, lhs, rhs)

	if sum.Len != 1 {
		t.Fatalf("binary op slice should cover one node, got %d", sum.Len)
	}
	n := b.At(sum.Start)
	if n.Tag != TagAdd {
		t.Errorf("tag got %d want TagAdd", n.Tag)
	}
	if n.Child != lhs || n.Child2 != rhs {
		t.Errorf("operand slices wrong: %s", spew.Sdump(n))
	}
	if got := b.At(n.Child.Start).ConstInt; got != 2 {
		t.Errorf("lhs constant got %d want 2", got)
	}
}

func TestMarkSinceExcludesOperands(t *testing.T) {
	b := NewBuffer()
	value := b.PushConstantInt(1)
	mark := b.Mark()
	b.PushLineMarker(0, 1)
	b.PushReturn(intType, value)
	body := b.Since(mark)

	if body.Len != 2 {
		t.Fatalf("statement list length got %d want 2", body.Len)
	}
	var tags []Tag
	b.Walk(body, func(_ int, n *Node) {
		tags = append(tags, n.Tag)
	})
	if tags[0] != TagLineMarker || tags[1] != TagReturn {
		t.Errorf("walked tags %v, operand leaked into the list", tags)
	}
}

func TestWalkIsLinear(t *testing.T) {
	b := NewBuffer()
	for i := range 5 {
		b.PushConstantInt(int32(i))
	}
	count := 0
	last := -1
	b.Walk(b.All(), func(i int, _ *Node) {
		if i <= last {
			t.Fatalf("walk went backwards: %d after %d", i, last)
		}
		last = i
		count++
	})
	if count != 5 {
		t.Errorf("visited %d nodes, want 5", count)
	}
}

func TestDump(t *testing.T) {
	b := NewBuffer()
	value := b.PushConstantInt(7)
	b.PushReturn(intType, value)

	var sb strings.Builder
	b.Dump(&sb, b.All())
	text := sb.String()
	if !strings.Contains(text, "Constant") || !strings.Contains(text, "Return") {
		t.Errorf("dump missing records:\n%s", text)
	}
	if !strings.Contains(text, "int=7") {
		t.Errorf("dump missing constant payload:\n%s", text)
	}
}
