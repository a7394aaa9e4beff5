/*
 * nscc - Interactive inspector.
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

// Package console is the interactive inspector: a small line-edited
// shell for compiling the built-in samples and poking at the result —
// function ranges, variable ranges, the disassembly, the debug
// sidecar, and the IR itself.
package console

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/peterh/liner"

	"github.com/ncsforge/nscc/config/compilerconfig"
	"github.com/ncsforge/nscc/disasm"
	"github.com/ncsforge/nscc/internal/driver"
	"github.com/ncsforge/nscc/internal/sample"
	"github.com/ncsforge/nscc/ncs"
)

// Session holds the inspector's state: the configuration compilations
// run under and the most recent result.
type Session struct {
	Config compilerconfig.Config
	Log    *slog.Logger

	result *driver.Result
}

type cmd struct {
	name    string // Command name.
	min     int    // Minimum match size.
	process func(*Session, *cmdLine) (bool, error)
	help    string
}

type cmdLine struct {
	line string // Current command.
	pos  int    // Position in line.
}

var cmdList []cmd

func init() {
	cmdList = []cmd{
		{name: "compile", min: 1, process: compile, help: "compile <sample>  build one of the sample units"},
		{name: "samples", min: 2, process: samples, help: "samples           list the sample units"},
		{name: "funcs", min: 1, process: funcs, help: "funcs             list emitted routines"},
		{name: "vars", min: 1, process: vars, help: "vars              list captured variable ranges"},
		{name: "lines", min: 1, process: lines, help: "lines             list the line table"},
		{name: "disasm", min: 1, process: disassemble, help: "disasm            disassemble the compiled image"},
		{name: "ndb", min: 1, process: ndb, help: "ndb               render the debug sidecar"},
		{name: "pcode", min: 1, process: pcodeDump, help: "pcode             dump the unit's IR"},
		{name: "warnings", min: 1, process: warnings, help: "warnings          list compile warnings"},
		{name: "help", min: 1, process: help, help: "help              this list"},
		{name: "quit", min: 1, process: quit, help: "quit              leave the inspector"},
	}
}

// Run reads and executes commands until quit or EOF.
func Run(sess *Session) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(completeCmd)

	for {
		command, err := line.Prompt("nscc> ")
		if err == nil {
			line.AppendHistory(command)
			done, err := processCommand(sess, command)
			if err != nil {
				fmt.Println("Error: " + err.Error())
			}
			if done {
				return
			}
			continue
		}

		if errors.Is(err, liner.ErrPromptAborted) {
			return
		}
		if sess.Log != nil {
			sess.Log.Error("error reading line: " + err.Error())
		}
		return
	}
}

func processCommand(sess *Session, commandLine string) (bool, error) {
	line := cmdLine{line: commandLine}
	name := line.getWord()
	if name == "" {
		return false, nil
	}

	match := matchList(name)
	if len(match) == 0 {
		return false, errors.New("command not found: " + name)
	}
	if len(match) > 1 {
		return false, errors.New("unique command not found: " + name)
	}
	return match[0].process(sess, &line)
}

func completeCmd(commandLine string) []string {
	line := cmdLine{line: commandLine}
	name := line.getWord()
	if !line.isEOL() {
		// Only "compile" takes an argument worth completing.
		match := matchList(name)
		if len(match) == 1 && match[0].name == "compile" {
			prefix := line.getWord()
			var out []string
			for _, s := range sample.Names() {
				if strings.HasPrefix(s, prefix) {
					out = append(out, "compile "+s)
				}
			}
			return out
		}
		return nil
	}
	var matches []string
	for _, m := range matchList(name) {
		matches = append(matches, m.name)
	}
	return matches
}

// matchCommand checks a command matches at least to minimum length.
func matchCommand(match cmd, command string) bool {
	if len(command) > len(match.name) {
		return false
	}
	for l := range len(command) {
		if match.name[l] != command[l] {
			return false
		}
	}
	return len(command) >= match.min
}

func matchList(command string) []cmd {
	var matches []cmd
	for _, m := range cmdList {
		if matchCommand(m, command) {
			matches = append(matches, m)
		}
	}
	return matches
}

func (line *cmdLine) skipSpace() {
	for line.pos < len(line.line) && line.line[line.pos] == ' ' {
		line.pos++
	}
}

func (line *cmdLine) isEOL() bool {
	line.skipSpace()
	return line.pos >= len(line.line)
}

func (line *cmdLine) getWord() string {
	line.skipSpace()
	start := line.pos
	for line.pos < len(line.line) && line.line[line.pos] != ' ' {
		line.pos++
	}
	return line.line[start:line.pos]
}

func (sess *Session) compiled() (*driver.Result, error) {
	if sess.result == nil {
		return nil, errors.New("nothing compiled yet; try: compile empty")
	}
	return sess.result, nil
}

func compile(sess *Session, line *cmdLine) (bool, error) {
	name := line.getWord()
	if name == "" {
		return false, errors.New("usage: compile <sample>")
	}
	p, err := sample.Build(name)
	if err != nil {
		return false, err
	}
	result, err := driver.Compile(p, sess.Config, sess.Log)
	if err != nil {
		return false, err
	}
	sess.result = result
	fmt.Printf("%s: %d bytes, %d routines, %d warnings\n",
		name, len(result.Image), len(result.Out.Funcs), len(result.Warnings))
	return false, nil
}

func samples(_ *Session, _ *cmdLine) (bool, error) {
	for _, n := range sample.Names() {
		fmt.Println(n)
	}
	return false, nil
}

func funcs(sess *Session, _ *cmdLine) (bool, error) {
	result, err := sess.compiled()
	if err != nil {
		return false, err
	}
	for _, fr := range result.Out.Funcs {
		name := fr.Name
		if fr.Symbol >= 0 {
			name = result.Program.Syms.Get(fr.Symbol).Name
		}
		fmt.Printf("%08x %08x %s\n", fr.Start, fr.End, name)
	}
	return false, nil
}

func vars(sess *Session, _ *cmdLine) (bool, error) {
	result, err := sess.compiled()
	if err != nil {
		return false, err
	}
	for _, vr := range result.Out.Vars {
		name := vr.Name
		if vr.Symbol >= 0 {
			name = result.Program.Syms.Get(vr.Symbol).Name
		}
		fmt.Printf("%08x %08x sp=%-4d %s\n", vr.Start, vr.End, vr.StackOffsetBytes, name)
	}
	return false, nil
}

func lines(sess *Session, _ *cmdLine) (bool, error) {
	result, err := sess.compiled()
	if err != nil {
		return false, err
	}
	for _, lr := range result.Out.Lines {
		fmt.Printf("file %02x line %d: %08x-%08x\n", lr.File, lr.Line, lr.Start, lr.End)
	}
	return false, nil
}

func disassemble(sess *Session, _ *cmdLine) (bool, error) {
	result, err := sess.compiled()
	if err != nil {
		return false, err
	}
	body, _, err := ncs.SplitHeader(result.Image)
	if err != nil {
		return false, err
	}
	instrs, err := disasm.Disassemble(body)
	if err != nil {
		return false, err
	}
	fmt.Print(disasm.Print(instrs))
	return false, nil
}

func ndb(sess *Session, _ *cmdLine) (bool, error) {
	result, err := sess.compiled()
	if err != nil {
		return false, err
	}
	text, err := result.RenderNDB()
	if err != nil {
		return false, err
	}
	fmt.Print(text)
	return false, nil
}

func pcodeDump(sess *Session, _ *cmdLine) (bool, error) {
	result, err := sess.compiled()
	if err != nil {
		return false, err
	}
	var sb strings.Builder
	result.Program.Buf.Dump(&sb, result.Program.Buf.All())
	fmt.Print(sb.String())
	return false, nil
}

func warnings(sess *Session, _ *cmdLine) (bool, error) {
	result, err := sess.compiled()
	if err != nil {
		return false, err
	}
	if len(result.Warnings) == 0 {
		fmt.Println("no warnings")
		return false, nil
	}
	for _, w := range result.Warnings {
		fmt.Println(w.String())
	}
	return false, nil
}

func help(_ *Session, _ *cmdLine) (bool, error) {
	for _, m := range cmdList {
		fmt.Println(m.help)
	}
	return false, nil
}

func quit(_ *Session, _ *cmdLine) (bool, error) {
	return true, nil
}
