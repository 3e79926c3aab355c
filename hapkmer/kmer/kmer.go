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

import (
	"errors"
	"fmt"
)

// MaxK is the maximum number of packed bytes of a k-mer,
// i.e., k-mers are at most 128 bp long.
const MaxK = 32

// ErrInvalidK means K < 1 or K > MaxK.
var ErrInvalidK = fmt.Errorf("kmer: K (bytes of a k-mer) should be in range of [1, %d]", MaxK)

// ErrLengthMismatch means the sequence length is not 4*K.
var ErrLengthMismatch = errors.New("kmer: sequence length does not match 4*K")

// ErrIllegalBase means that a base beyond A, C, G, T (case-insensitive) is detected.
var ErrIllegalBase = errors.New("kmer: illegal base")

// Kmer is a 2bit-packed k-mer of exactly K bytes, 4 bases in every byte.
// It is immutable and can be used as a map key.
type Kmer string

// Codec converts k-mers of 4*K bases to and from Kmer.
// K is fixed once the Codec is created.
type Codec struct {
	k int
	w int
}

// NewCodec creates a Codec for k-mers of k bytes (4*k bases).
func NewCodec(k int) (*Codec, error) {
	if k < 1 || k > MaxK {
		return nil, ErrInvalidK
	}
	return &Codec{k: k, w: k << 2}, nil
}

// K returns the number of bytes of a packed k-mer.
func (c *Codec) K() int { return c.k }

// WindowSize returns the number of bases of a k-mer, i.e., 4*K.
func (c *Codec) WindowSize() int { return c.w }

// Encode packs a sequence of 4*K bases.
// Any base not in A/C/G/T (case-insensitive) fails the whole k-mer.
func (c *Codec) Encode(s []byte) (Kmer, error) {
	buf, err := c.EncodeTo(make([]byte, 0, c.k), s)
	if err != nil {
		return "", err
	}
	return Kmer(buf), nil
}

// EncodeString is the string version of Encode.
func (c *Codec) EncodeString(s string) (Kmer, error) {
	return c.Encode([]byte(s))
}

// EncodeTo appends the packed bytes of s to dst[:0] and returns the result.
// It does not allocate when cap(dst) >= K.
func (c *Codec) EncodeTo(dst []byte, s []byte) ([]byte, error) {
	if len(s) != c.w {
		return dst[:0], ErrLengthMismatch
	}
	dst = dst[:0]

	var j int
	var b0, b1, b2, b3 uint8
	for i := 0; i < c.k; i++ {
		j = i << 2

		b0 = base2bit[s[j]]
		b1 = base2bit[s[j+1]]
		b2 = base2bit[s[j+2]]
		b3 = base2bit[s[j+3]]
		if (b0|b1|b2|b3)&illegal != 0 {
			return dst[:0], ErrIllegalBase
		}

		dst = append(dst, b0<<6|b1<<4|b2<<2|b3)
	}
	return dst, nil
}

// Decode unpacks a k-mer to its uppercase bases.
func (c *Codec) Decode(km Kmer) string {
	return string(c.AppendDecode(make([]byte, 0, c.w), km))
}

// AppendDecode appends the bases of km to dst.
// It panics if km was not created by a Codec with the same K.
func (c *Codec) AppendDecode(dst []byte, km Kmer) []byte {
	if len(km) != c.k {
		panic(fmt.Sprintf("kmer: packed k-mer of %d bytes decoded with K=%d", len(km), c.k))
	}

	var b byte
	for i := 0; i < c.k; i++ {
		b = km[i]
		dst = append(dst,
			bit2base[b>>6&3],
			bit2base[b>>4&3],
			bit2base[b>>2&3],
			bit2base[b&3],
		)
	}
	return dst
}

// illegal is the flag of bases beyond A, C, G, T in base2bit.
const illegal uint8 = 4

var bit2base = [4]byte{'A', 'C', 'G', 'T'}

var base2bit = func() (t [256]uint8) {
	for i := range t {
		t[i] = illegal
	}
	t['A'], t['a'] = 0, 0
	t['C'], t['c'] = 1, 1
	t['G'], t['g'] = 2, 2
	t['T'], t['t'] = 3, 3
	return t
}()
