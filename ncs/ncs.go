/*
	   nscc container writer — NCS

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

// Package ncs is the container writer: it wraps the emitter's
// instruction stream in the 13-byte NCS header and, on request,
// renders the NDB debug sidecar.
package ncs

import (
	"encoding/binary"

	"github.com/ncsforge/nscc/codegen"
	"github.com/ncsforge/nscc/diag"
)

// HeaderLen is the fixed header size, re-exported for callers that
// only deal in containers.
const HeaderLen = codegen.HeaderLen

var magic = [4]byte{'N', 'C', 'S', ' '}
var version = [4]byte{'V', '1', '.', '0'}

// tagByte is the single opcode-tag byte at header offset 8. The original
// format calls this the "program type"; every script this compiler
// produces is the one kind it knows how to emit.
const tagByte = 0x42

// Assemble prefixes body (the Emitter's finished instruction stream)
// with the 13-byte NCS header, filling in the big-endian total file size.
// It fails with ScriptTooLarge if the total, header included, exceeds
// codegen.MaxScript.
func Assemble(body []byte) ([]byte, error) {
	total := HeaderLen + len(body)
	if total > codegen.MaxScript {
		return nil, diag.New(diag.ScriptTooLarge)
	}

	out := make([]byte, total)
	copy(out[0:4], magic[:])
	copy(out[4:8], version[:])
	out[8] = tagByte
	binary.BigEndian.PutUint32(out[9:13], uint32(total))
	copy(out[HeaderLen:], body)
	return out, nil
}

// SplitHeader reports the body slice of an assembled NCS image and the
// total size field recorded in its header, validating the magic,
// version and tag bytes and that the recorded size matches len(data).
func SplitHeader(data []byte) (body []byte, totalSize uint32, err error) {
	if len(data) < HeaderLen {
		return nil, 0, diag.New(diag.InternalCompilerError)
	}
	if string(data[0:4]) != string(magic[:]) || string(data[4:8]) != string(version[:]) {
		return nil, 0, diag.New(diag.InternalCompilerError)
	}
	if data[8] != tagByte {
		return nil, 0, diag.New(diag.InternalCompilerError)
	}
	totalSize = binary.BigEndian.Uint32(data[9:13])
	if int(totalSize) != len(data) {
		return nil, 0, diag.New(diag.InternalCompilerError)
	}
	return data[HeaderLen:], totalSize, nil
}
