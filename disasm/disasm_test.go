package disasm_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ncsforge/nscc/codegen"
	"github.com/ncsforge/nscc/config/compilerconfig"
	"github.com/ncsforge/nscc/diag"
	"github.com/ncsforge/nscc/disasm"
	"github.com/ncsforge/nscc/internal/sample"
	"github.com/ncsforge/nscc/reach"
	"github.com/ncsforge/nscc/vmisa"
)

// Every compiled sample must survive disassemble-then-reassemble
// byte for byte.
func TestRoundTrip(t *testing.T) {
	cfg := compilerconfig.ForVersion(130)
	for _, name := range sample.Names() {
		p, err := sample.Build(name)
		if err != nil {
			t.Fatal(err)
		}
		res, err := reach.Run(p, cfg.Flags, nil)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		out, err := codegen.EmitProgram(p, res, cfg, &diag.Sink{})
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}

		instrs, err := disasm.Disassemble(out.Bytes)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		back := disasm.Encode(instrs)
		if diff := cmp.Diff(out.Bytes, back); diff != "" {
			t.Errorf("%s: reassembly differs (-want +got):\n%s", name, diff)
		}
	}
}

func TestDecodeString(t *testing.T) {
	stream := []byte{
		byte(vmisa.OpCONST), vmisa.TypeString, 0x00, 0x04, 't', 'i', 'c', 'k',
		byte(vmisa.OpRETN), 0x00,
	}
	instrs, err := disasm.Disassemble(stream)
	if err != nil {
		t.Fatal(err)
	}
	if len(instrs) != 2 {
		t.Fatalf("decoded %d instructions, want 2", len(instrs))
	}
	if instrs[0].Str != "tick" {
		t.Errorf("string payload got %q", instrs[0].Str)
	}
	if instrs[1].Offset != 8 {
		t.Errorf("second instruction offset got %d want 8", instrs[1].Offset)
	}
	if diff := cmp.Diff(stream, disasm.Encode(instrs)); diff != "" {
		t.Errorf("string reassembly (-want +got):\n%s", diff)
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, err := disasm.Disassemble([]byte{0xEE, 0x00}); err == nil {
		t.Error("unknown opcode accepted")
	}
	if _, err := disasm.Disassemble([]byte{byte(vmisa.OpJMP), 0x00, 0x00}); err == nil {
		t.Error("truncated jump accepted")
	}
	if _, err := disasm.Disassemble([]byte{byte(vmisa.OpRETN)}); err == nil {
		t.Error("truncated instruction accepted")
	}
}
