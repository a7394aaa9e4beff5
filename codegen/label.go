/*
	   nscc code emitter — forward labels

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

package codegen

// label is a forward-reference target. Until resolve runs, every jump
// to the label records its own instruction-start offset on the
// back-link chain; resolve walks the chain and patches each site with
// a relative offset measured from the jump instruction's start.
type label struct {
	resolved bool
	offset   int
	backlink []int
}

// newLabel returns a fresh unresolved label.
func (e *Emitter) newLabel() *label {
	return &label{}
}

// emitJump writes opcode, a zero type byte, and a 32-bit relative
// offset for lbl. If lbl is already resolved the offset is computed
// immediately; otherwise a placeholder is written and the site is
// chained for resolve to patch later.
func (e *Emitter) emitJump(opcode byte, lbl *label) error {
	site := e.out.offset()
	if err := e.out.writeByte(opcode); err != nil {
		return err
	}
	if err := e.out.writeByte(0); err != nil {
		return err
	}
	if lbl.resolved {
		return e.out.writeInt32(int32(lbl.offset - site))
	}
	lbl.backlink = append(lbl.backlink, site)
	return e.out.writeInt32(0)
}

// resolve fixes lbl's offset at the current write cursor and patches
// every outstanding back-linked jump site.
func (e *Emitter) resolve(lbl *label) {
	lbl.resolved = true
	lbl.offset = e.out.offset()
	for _, site := range lbl.backlink {
		e.out.patchInt32(site+2, int32(lbl.offset-site))
	}
	lbl.backlink = nil
}
