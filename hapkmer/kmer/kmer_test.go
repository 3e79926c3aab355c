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
	"bytes"
	"math/rand"
	"strings"
	"testing"

	"github.com/shenwei356/kmers"
)

func TestNewCodec(t *testing.T) {
	for _, k := range []int{-1, 0, MaxK + 1} {
		if _, err := NewCodec(k); err != ErrInvalidK {
			t.Errorf("k=%d: expected ErrInvalidK, got %v", k, err)
		}
	}

	c, err := NewCodec(6)
	if err != nil {
		t.Error(err)
		return
	}
	if c.K() != 6 || c.WindowSize() != 24 {
		t.Errorf("unexpected K and window size: %d, %d", c.K(), c.WindowSize())
	}
}

func TestEncodeDecode(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	letters := []byte("ACGTacgt")

	for k := 1; k <= MaxK; k++ {
		c, err := NewCodec(k)
		if err != nil {
			t.Error(err)
			return
		}

		s := make([]byte, c.WindowSize())
		for n := 0; n < 50; n++ {
			for i := range s {
				s[i] = letters[r.Intn(len(letters))]
			}

			km, err := c.Encode(s)
			if err != nil {
				t.Errorf("%s: %s", s, err)
				return
			}
			if len(km) != k {
				t.Errorf("%s: packed into %d bytes, expected %d", s, len(km), k)
				return
			}

			d := c.Decode(km)
			if d != strings.ToUpper(string(s)) {
				t.Errorf("round trip failed: %s -> %s", s, d)
				return
			}

			km2, err := c.EncodeString(d)
			if err != nil {
				t.Error(err)
				return
			}
			if km2 != km {
				t.Errorf("re-encoding %s changed the packed bytes", d)
				return
			}
		}
	}
}

// every packed byte should equal the uint64 code of its 4 bases.
func TestBitOrder(t *testing.T) {
	c, _ := NewCodec(4)
	s := []byte("ACGTTGCAAAACTTTG")

	km, err := c.Encode(s)
	if err != nil {
		t.Error(err)
		return
	}

	var code uint64
	for i := 0; i < c.K(); i++ {
		code, err = kmers.Encode(s[i<<2 : (i+1)<<2])
		if err != nil {
			t.Error(err)
			return
		}
		if uint64(km[i]) != code {
			t.Errorf("byte %d of %s: %08b, expected %08b", i, s, km[i], code)
		}
	}
}

func TestEncodeIllegalBases(t *testing.T) {
	c, _ := NewCodec(2)

	for _, s := range []string{
		"ACGTACGN",
		"NCGTACGT",
		"ACGT-CGT",
		"acgtacgu",
		"ACGT ACG",
		"RYKMACGT",
	} {
		km, err := c.EncodeString(s)
		if err != ErrIllegalBase {
			t.Errorf("%s: expected ErrIllegalBase, got %v", s, err)
		}
		if km != "" {
			t.Errorf("%s: partial result returned", s)
		}
	}

	for _, s := range []string{"", "ACGT", "ACGTACGTA"} {
		if _, err := c.EncodeString(s); err != ErrLengthMismatch {
			t.Errorf("%q: expected ErrLengthMismatch, got %v", s, err)
		}
	}
}

func TestEncodeToReusesBuffer(t *testing.T) {
	c, _ := NewCodec(3)
	buf := make([]byte, 0, c.K())

	seqs := []string{"AAAACCCCGGGG", "TTTTGGGGCCCC", "ACGTNNNNACGT", "acgtacgtacgt"}
	for _, s := range seqs {
		var err error
		buf, err = c.EncodeTo(buf, []byte(s))
		if strings.Contains(s, "N") {
			if err != ErrIllegalBase || len(buf) != 0 {
				t.Errorf("%s: expected an empty result and ErrIllegalBase", s)
			}
			continue
		}
		if err != nil {
			t.Error(err)
			return
		}
		km, _ := c.EncodeString(s)
		if !bytes.Equal(buf, []byte(km)) {
			t.Errorf("%s: EncodeTo and Encode disagree", s)
		}
	}
}

func TestDecodePanicsOnForeignKmer(t *testing.T) {
	c, _ := NewCodec(2)
	defer func() {
		if recover() == nil {
			t.Errorf("decoding a 3-byte k-mer with K=2 should panic")
		}
	}()
	c.Decode(Kmer("abc"))
}
