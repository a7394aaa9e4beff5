/*
	   nscc compilation driver

		Copyright (c) 2024, Richard Cornwell

		Permission is hereby granted, free of charge, to any person obtaining a
		copy of this software and associated documentation files (the "Software"),
		to deal in the Software without restriction, including without limitation
		the rights to use, copy, modify, merge, publish, distribute, sublicense,
		and/or sell copies of the Software, and to permit persons to whom the
		Software is furnished to do so, subject to the following conditions:

		The above copyright notice and this permission notice shall be included in
		all copies or substantial portions of the Software.

		THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
		IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
		FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.  IN NO EVENT SHALL
		RICHARD CORNWELL BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
		IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
		CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
*/

// Package driver runs one compilation unit through the whole back end:
// reachability, code emission, and container assembly. It is the one
// place the passes are sequenced, shared by the command line and the
// interactive inspector.
package driver

import (
	"bytes"
	"log/slog"

	"github.com/ncsforge/nscc/codegen"
	"github.com/ncsforge/nscc/config/compilerconfig"
	"github.com/ncsforge/nscc/diag"
	"github.com/ncsforge/nscc/ncs"
	"github.com/ncsforge/nscc/reach"
	"github.com/ncsforge/nscc/unit"
)

// Result is one successful compilation: the analyzed unit, the emitted
// side tables, and the finished container image.
type Result struct {
	Program  *unit.Program
	Reach    *reach.Result
	Out      *codegen.Output
	Image    []byte
	Warnings []diag.Warning
}

// Compile runs p through the back end under cfg. A fatal diagnostic
// aborts and nothing of the partial emission survives.
func Compile(p *unit.Program, cfg compilerconfig.Config, log *slog.Logger) (*Result, error) {
	warn := &diag.Sink{}

	res, err := reach.Run(p, cfg.Flags, log)
	if err != nil {
		return nil, err
	}
	out, err := codegen.EmitProgram(p, res, cfg, warn)
	if err != nil {
		return nil, err
	}
	image, err := ncs.Assemble(out.Bytes)
	if err != nil {
		return nil, err
	}
	if log != nil {
		log.Debug("compilation complete", "bytes", len(image), "functions", len(res.EmitOrder), "warnings", warn.Len())
	}
	return &Result{Program: p, Reach: res, Out: out, Image: image, Warnings: warn.Warnings()}, nil
}

// RenderNDB renders r's debug sidecar.
func (r *Result) RenderNDB() (string, error) {
	var sb bytes.Buffer
	if err := ncs.WriteNDB(&sb, r.Program, r.Out, r.Reach); err != nil {
		return "", err
	}
	return sb.String(), nil
}
