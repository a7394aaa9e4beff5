/*
	   nscc code emitter — output buffer

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

// Package codegen walks the reachable PCode and lowers it to the
// target VM's instruction stream, tracking the BP/SP/EXP stack cursors
// and the line/symbol accounting the container writer needs.
package codegen

import (
	"encoding/binary"

	"github.com/ncsforge/nscc/diag"
)

// MaxScript is the largest instruction stream this emitter will
// produce. The real VM enforces a size limit on compiled scripts; ours
// is a generous constant rather than a negotiated value.
const MaxScript = 0x0FFFFF

// outBuf is the growable byte buffer instructions are appended to. It
// doubles capacity (plus the incoming size) rather than growing by a
// fixed increment.
type outBuf struct {
	data []byte
}

func (o *outBuf) grow(n int) {
	need := len(o.data) + n
	if cap(o.data) >= need {
		return
	}
	newCap := cap(o.data)*2 + n
	buf := make([]byte, len(o.data), newCap)
	copy(buf, o.data)
	o.data = buf
}

func (o *outBuf) offset() int { return len(o.data) }

func (o *outBuf) writeByte(b byte) error {
	if len(o.data)+1 > MaxScript {
		return diag.New(diag.ScriptTooLarge)
	}
	o.grow(1)
	o.data = append(o.data, b)
	return nil
}

func (o *outBuf) writeBytes(b []byte) error {
	if len(o.data)+len(b) > MaxScript {
		return diag.New(diag.ScriptTooLarge)
	}
	o.grow(len(b))
	o.data = append(o.data, b...)
	return nil
}

func (o *outBuf) writeInt32(v int32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	return o.writeBytes(b[:])
}

func (o *outBuf) writeInt16(v int16) error {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(v))
	return o.writeBytes(b[:])
}

func (o *outBuf) writeUint32(v uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return o.writeBytes(b[:])
}

// patchInt32 overwrites the 4 bytes at offset with v, used by label
// resolution to fill in a previously-emitted placeholder.
func (o *outBuf) patchInt32(offset int, v int32) {
	binary.BigEndian.PutUint32(o.data[offset:offset+4], uint32(v))
}
