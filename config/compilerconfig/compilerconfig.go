/*
 * nscc - Compiler configuration file parser
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package compilerconfig loads the VM-version bug-compatibility flags
// from a hand-written line-oriented configuration file.
package compilerconfig

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"
)

// Flags are the per-VM-version behavior switches threaded through the
// emitter at construction. The zero value matches the oldest, most
// conservative VM (bug-compatible, no optimizations).
type Flags struct {
	NoBugBreakContinue bool // break/continue pop the locals declared inside the loop or switch before jumping
	NoBugLogicalOr     bool // fixed short-circuit encoding for ||
	OptEmptyGlobals    bool // fold eligible globals to constants; omit #globals when none is stored and no structure exists
	OptStructCopy      bool // a struct-element read copies just that element instead of the whole struct plus DESTRUCT
	OptReturn          bool // after a return, take the returned value's cells off the expression-depth cursor
	OptIf              bool
	OptDo              bool
	OptWhile           bool
	OptFor             bool
	OptDeclaration     bool // skip RSADD for a declaration whose initializer already leaves the value on the stack
	OptConditional     bool
}

// Config is the full set of values a compilation run needs beyond the
// source text itself.
type Config struct {
	VMVersion int
	Flags     Flags
}

// Default returns the oldest VM's configuration: no optimizations, the
// bug-compatible encodings, so a compiled script runs anywhere.
func Default() Config {
	return Config{VMVersion: 1}
}

// ForVersion returns the default configuration for a target VM
// version, with every flag at that version's setting.
func ForVersion(v int) Config {
	c := Config{VMVersion: v}
	c.applyVersionDefaults()
	return c
}

// current position in line, in the style of configparser's optionLine.
type optionLine struct {
	line string
	pos  int
}

func (o *optionLine) skipSpace() {
	for o.pos < len(o.line) && unicode.IsSpace(rune(o.line[o.pos])) {
		o.pos++
	}
}

func (o *optionLine) token() string {
	o.skipSpace()
	start := o.pos
	for o.pos < len(o.line) && !unicode.IsSpace(rune(o.line[o.pos])) && o.line[o.pos] != '=' {
		o.pos++
	}
	return o.line[start:o.pos]
}

func (o *optionLine) value() string {
	o.skipSpace()
	if o.pos < len(o.line) && o.line[o.pos] == '=' {
		o.pos++
	}
	o.skipSpace()
	start := o.pos
	for o.pos < len(o.line) && !unicode.IsSpace(rune(o.line[o.pos])) {
		o.pos++
	}
	return o.line[start:o.pos]
}

// Load reads a compiler configuration file. Lines starting with '#' are
// comments; blank lines are ignored; every other line is either
// "vmversion <n>" or "<flag-name> = <true|false>".
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()
	return parse(f)
}

func parse(r io.Reader) (Config, error) {
	cfg := Default()
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		ol := &optionLine{line: line}
		key := strings.ToLower(ol.token())
		if key == "" {
			continue
		}
		val := ol.value()
		if err := apply(&cfg, key, val); err != nil {
			return Config{}, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func apply(cfg *Config, key, val string) error {
	if key == "vmversion" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("vmversion: %w", err)
		}
		cfg.VMVersion = n
		cfg.applyVersionDefaults()
		return nil
	}

	b, err := parseBool(val)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	switch key {
	case "no_bug_break_continue":
		cfg.Flags.NoBugBreakContinue = b
	case "no_bug_logical_or":
		cfg.Flags.NoBugLogicalOr = b
	case "opt_empty_globals":
		cfg.Flags.OptEmptyGlobals = b
	case "opt_struct_copy":
		cfg.Flags.OptStructCopy = b
	case "opt_return":
		cfg.Flags.OptReturn = b
	case "opt_if":
		cfg.Flags.OptIf = b
	case "opt_do":
		cfg.Flags.OptDo = b
	case "opt_while":
		cfg.Flags.OptWhile = b
	case "opt_for":
		cfg.Flags.OptFor = b
	case "opt_declaration":
		cfg.Flags.OptDeclaration = b
	case "opt_conditional":
		cfg.Flags.OptConditional = b
	default:
		return fmt.Errorf("unknown option %q", key)
	}
	return nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("not a boolean: %q", s)
	}
}

// applyVersionDefaults sets every flag's default for the VM version
// just parsed, letting later explicit flag lines in the same file
// override individual ones. VM 130 and later fixed the logical-OR
// short-circuit bug and gained the declaration/return/control-flow
// optimizations.
func (c *Config) applyVersionDefaults() {
	fixed := c.VMVersion >= 130
	c.Flags = Flags{
		NoBugBreakContinue: fixed,
		NoBugLogicalOr:     fixed,
		OptEmptyGlobals:    fixed,
		OptStructCopy:      fixed,
		OptReturn:          fixed,
		OptIf:              fixed,
		OptDo:              fixed,
		OptWhile:           fixed,
		OptFor:             fixed,
		OptDeclaration:     fixed,
		OptConditional:     fixed,
	}
}
