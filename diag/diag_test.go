package diag

import (
	"errors"
	"testing"
)

func TestErrorText(t *testing.T) {
	cases := []struct {
		err  *Error
		want string
	}{
		{New(EntrySymbolNotFound), "entry symbol not found"},
		{NewSymbol(FunctionBodyMissing, "helper"), "function body missing: helper"},
		{NewDetail(InternalCompilerError, "", "invalid binary op"), "internal compiler error: invalid binary op"},
		{NewDetail(InternalCompilerError, "f", "bad walk"), "internal compiler error: f (bad walk)"},
	}
	for _, c := range cases {
		if got := c.err.Error(); got != c.want {
			t.Errorf("got %q want %q", got, c.want)
		}
	}
}

func TestErrorsAs(t *testing.T) {
	var err error = NewSymbol(ScriptTooLarge, "big")
	var cerr *Error
	if !errors.As(err, &cerr) {
		t.Fatal("errors.As failed")
	}
	if cerr.Kind != ScriptTooLarge {
		t.Errorf("kind got %v", cerr.Kind)
	}
}

func TestSink(t *testing.T) {
	var s Sink
	if s.Len() != 0 {
		t.Fatal("zero value not empty")
	}
	s.Warn(WarningStoreStateGlobal, 0, 3, "")
	s.Warn(WarningBPFuncBeforeBPSet, 0, 5, "helper")
	if s.Len() != 2 {
		t.Fatalf("len got %d", s.Len())
	}
	ws := s.Warnings()
	if ws[0].Kind != WarningStoreStateGlobal || ws[1].Symbol != "helper" {
		t.Errorf("warnings recorded wrong: %+v", ws)
	}
}
