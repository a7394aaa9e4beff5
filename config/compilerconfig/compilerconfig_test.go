package compilerconfig

import (
	"strings"
	"testing"
)

func TestParseVersionDefaults(t *testing.T) {
	cfg, err := parse(strings.NewReader("vmversion 130\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.VMVersion != 130 {
		t.Errorf("version got %d want 130", cfg.VMVersion)
	}
	if !cfg.Flags.NoBugLogicalOr || !cfg.Flags.OptDeclaration {
		t.Errorf("version 130 defaults not applied: %+v", cfg.Flags)
	}

	cfg, err = parse(strings.NewReader("vmversion 100\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Flags.NoBugLogicalOr || cfg.Flags.OptIf {
		t.Errorf("version 100 should keep the compatibility encodings: %+v", cfg.Flags)
	}
}

func TestLaterLinesOverrideVersionDefaults(t *testing.T) {
	text := `
# target the fixed VM but keep the old || encoding
vmversion 130
no_bug_logical_or = false
opt_struct_copy = off
`
	cfg, err := parse(strings.NewReader(text))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Flags.NoBugLogicalOr {
		t.Error("explicit override lost")
	}
	if cfg.Flags.OptStructCopy {
		t.Error("off not honored")
	}
	if !cfg.Flags.OptDeclaration {
		t.Error("unrelated version default clobbered")
	}
}

func TestParseBoolForms(t *testing.T) {
	for _, v := range []string{"true", "1", "yes", "on"} {
		b, err := parseBool(v)
		if err != nil || !b {
			t.Errorf("parseBool(%q) = %v, %v", v, b, err)
		}
	}
	if _, err := parseBool("maybe"); err == nil {
		t.Error("bad boolean accepted")
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := parse(strings.NewReader("no_such_flag = true\n")); err == nil {
		t.Error("unknown option accepted")
	}
	if _, err := parse(strings.NewReader("vmversion banana\n")); err == nil {
		t.Error("non-numeric version accepted")
	}
	if _, err := parse(strings.NewReader("opt_if = sideways\n")); err == nil {
		t.Error("bad flag value accepted")
	}
}

func TestCommentsAndBlanks(t *testing.T) {
	text := "\n# full comment line\nvmversion 130  # trailing comment\n\n"
	cfg, err := parse(strings.NewReader(text))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.VMVersion != 130 {
		t.Errorf("version got %d want 130", cfg.VMVersion)
	}
}

func TestForVersion(t *testing.T) {
	if !ForVersion(162).Flags.OptReturn {
		t.Error("version 162 should carry the optimizations")
	}
	if ForVersion(129).Flags.OptReturn {
		t.Error("version 129 should not")
	}
}
