package ncs_test

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ncsforge/nscc/codegen"
	"github.com/ncsforge/nscc/config/compilerconfig"
	"github.com/ncsforge/nscc/diag"
	"github.com/ncsforge/nscc/internal/sample"
	"github.com/ncsforge/nscc/ncs"
	"github.com/ncsforge/nscc/reach"
	"github.com/ncsforge/nscc/unit"
)

func compile(t *testing.T, p *unit.Program) (*codegen.Output, *reach.Result) {
	t.Helper()
	cfg := compilerconfig.ForVersion(130)
	res, err := reach.Run(p, cfg.Flags, nil)
	if err != nil {
		t.Fatal(err)
	}
	out, err := codegen.EmitProgram(p, res, cfg, &diag.Sink{})
	if err != nil {
		t.Fatal(err)
	}
	return out, res
}

func TestAssembleHeader(t *testing.T) {
	body := []byte{0x20, 0x00}
	image, err := ncs.Assemble(body)
	if err != nil {
		t.Fatal(err)
	}
	if len(image) != 15 {
		t.Fatalf("image length got %d want 15", len(image))
	}
	if string(image[0:4]) != "NCS " || string(image[4:8]) != "V1.0" {
		t.Errorf("bad signature %q", image[0:8])
	}
	if image[8] != 0x42 {
		t.Errorf("tag byte got %#02x want 0x42", image[8])
	}
	if got := binary.BigEndian.Uint32(image[9:13]); got != 15 {
		t.Errorf("size field got %d want 15", got)
	}

	back, total, err := ncs.SplitHeader(image)
	if err != nil {
		t.Fatal(err)
	}
	if total != 15 {
		t.Errorf("SplitHeader total got %d", total)
	}
	if diff := cmp.Diff(body, back); diff != "" {
		t.Errorf("body round trip (-want +got):\n%s", diff)
	}
}

func TestSplitHeaderRejectsCorruption(t *testing.T) {
	image, err := ncs.Assemble([]byte{0x20, 0x00})
	if err != nil {
		t.Fatal(err)
	}

	short := image[:10]
	if _, _, err := ncs.SplitHeader(short); err == nil {
		t.Error("truncated image accepted")
	}

	bad := append([]byte(nil), image...)
	bad[0] = 'X'
	if _, _, err := ncs.SplitHeader(bad); err == nil {
		t.Error("bad magic accepted")
	}

	wrongSize := append([]byte(nil), image...)
	binary.BigEndian.PutUint32(wrongSize[9:13], 99)
	if _, _, err := ncs.SplitHeader(wrongSize); err == nil {
		t.Error("mismatched size field accepted")
	}
}

// The smallest program really is a header plus one return.
func TestEmptyProgramIsFifteenBytes(t *testing.T) {
	out, _ := compile(t, sample.Empty())
	image, err := ncs.Assemble(out.Bytes)
	if err != nil {
		t.Fatal(err)
	}
	if len(image) != 15 {
		t.Errorf("empty program image got %d bytes want 15", len(image))
	}
}

func TestNDBGlobals(t *testing.T) {
	p := sample.Globals()
	out, res := compile(t, p)

	var sb strings.Builder
	if err := ncs.WriteNDB(&sb, p, out, res); err != nil {
		t.Fatal(err)
	}

	want := strings.Join([]string{
		"NDB V1.0",
		"0000001 0000001 0000003 0000001 0000002",
		"N00 globals.nss",
		"s 03 vector",
		"sf f x",
		"sf f y",
		"sf f z",
		"f 00000020 0000003e 000 v main",
		"f 00000000 00000008 000 v #loader",
		"f 00000008 00000020 000 v #globals",
		"v 00000008 0000000e 00000000 i h",
		"l00 0000002 00000008 0000000e",
		"l00 0000004 00000020 0000003e",
		"",
	}, "\n")
	if diff := cmp.Diff(want, sb.String()); diff != "" {
		t.Errorf("NDB text (-want +got):\n%s", diff)
	}
}

func TestNDBConditional(t *testing.T) {
	p := sample.Conditional()
	out, res := compile(t, p)

	var sb strings.Builder
	if err := ncs.WriteNDB(&sb, p, out, res); err != nil {
		t.Fatal(err)
	}

	want := strings.Join([]string{
		"NDB V1.0",
		"0000001 0000001 0000002 0000002 0000001",
		"N00 conditional.nss",
		"s 03 vector",
		"sf f x",
		"sf f y",
		"sf f z",
		"f 0000000a 00000026 000 i StartingConditional",
		"f 00000000 0000000a 000 i #loader",
		"v 00000000 ffffffff 00000000 i #retval",
		"v 0000000a 00000024 00000000 i #retval",
		"l00 0000001 0000000a 00000026",
		"",
	}, "\n")
	if diff := cmp.Diff(want, sb.String()); diff != "" {
		t.Errorf("NDB text (-want +got):\n%s", diff)
	}
}
