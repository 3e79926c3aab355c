// Copyright © 2023-2024 Wei Shen <shenwei356@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package kmer

// WindowIterator slides a window of fixed length along a sequence,
// optionally pairing every window with its reverse complement.
type WindowIterator struct {
	s  []byte
	rc []byte // reverse complement of the whole sequence
	w  int

	i   int // offset of the next window
	end int // the last offset, inclusive
}

// NewWindowIterator returns an iterator of windows of w bases in s,
// at offsets 0, 1, ..., len(s)-w. If excludeLast is true, the last window
// (ending at the last base) is not returned.
// The sequence should not be modified during the iteration.
func NewWindowIterator(s []byte, w int, revcom bool, excludeLast bool) *WindowIterator {
	iter := &WindowIterator{s: s, w: w, end: len(s) - w}
	if excludeLast {
		iter.end--
	}
	if w <= 0 {
		iter.end = -1
	}
	if revcom && iter.end >= 0 {
		iter.rc = RevComp(s)
	}
	return iter
}

// Next returns the next window and its reverse complement (nil if not asked).
// The returned slices share memory with the sequence.
func (iter *WindowIterator) Next() (fwd []byte, rc []byte, ok bool) {
	if iter.i > iter.end {
		return nil, nil, false
	}
	i := iter.i
	fwd = iter.s[i : i+iter.w]
	if iter.rc != nil {
		j := len(iter.s) - i
		rc = iter.rc[j-iter.w : j]
	}
	iter.i++
	return fwd, rc, true
}

// Index returns the 0-based offset of the window returned by the last Next.
func (iter *WindowIterator) Index() int {
	return iter.i - 1
}

// Windows returns the number of windows of w bases in a sequence of l bases.
func Windows(l int, w int, excludeLast bool) int {
	if w <= 0 {
		return 0
	}
	n := l - w + 1
	if excludeLast {
		n--
	}
	if n < 0 {
		return 0
	}
	return n
}

// RevComp returns the reverse complement of s in a new slice.
// Bases beyond ACGTacgt are kept as they are.
func RevComp(s []byte) []byte {
	rc := make([]byte, len(s))
	n := len(s) - 1
	for i, b := range s {
		rc[n-i] = complement[b]
	}
	return rc
}

// RevCompInplace reverse-complements s in place.
func RevCompInplace(s []byte) []byte {
	var i, j int
	for i, j = 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = complement[s[j]], complement[s[i]]
	}
	if i == j {
		s[i] = complement[s[i]]
	}
	return s
}

var complement = func() (t [256]byte) {
	for i := range t {
		t[i] = byte(i)
	}
	t['A'], t['T'] = 'T', 'A'
	t['C'], t['G'] = 'G', 'C'
	t['a'], t['t'] = 't', 'a'
	t['c'], t['g'] = 'g', 'c'
	return t
}()
