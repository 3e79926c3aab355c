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

package haplotype

import (
	"bufio"
	"io"
	"strconv"

	"github.com/pkg/errors"
	"github.com/shenwei356/bio/seqio/fastx"
	"github.com/shenwei356/hapkmer/hapkmer/kmer"
)

// Binner counts windows of reads matching haplotype-specific k-mers.
type Binner struct {
	table *Table
	w     int

	excludeLast bool
}

// NewBinner creates a Binner for k-mers of w bases.
func NewBinner(t *Table, w int, excludeLast bool) *Binner {
	return &Binner{table: t, w: w, excludeLast: excludeLast}
}

// Classify counts the windows of s found in the k-mer sets of the two haplotypes.
// Only the forward strand is scanned, and windows are compared as they are,
// case-sensitive.
func (b *Binner) Classify(s []byte) (hap1, hap2 uint32) {
	var ok bool
	var fwd []byte
	iter := kmer.NewWindowIterator(s, b.w, false, b.excludeLast)
	for {
		fwd, _, ok = iter.Next()
		if !ok {
			break
		}

		if _, ok = b.table.Hap1[string(fwd)]; ok {
			hap1++
		}
		if _, ok = b.table.Hap2[string(fwd)]; ok {
			hap2++
		}
	}
	return
}

// ReadResult is the classification result of a read.
type ReadResult struct {
	ID   []byte
	Len  int
	Hap1 uint32 // windows matching k-mers of haplotype 1
	Hap2 uint32 // windows matching k-mers of haplotype 2
}

// AppendRow appends the row "read_id\thap1\thap2\n" to dst.
func (r *ReadResult) AppendRow(dst []byte) []byte {
	dst = append(dst, r.ID...)
	dst = append(dst, '\t')
	dst = strconv.AppendUint(dst, uint64(r.Hap1), 10)
	dst = append(dst, '\t')
	dst = strconv.AppendUint(dst, uint64(r.Hap2), 10)
	return append(dst, '\n')
}

// BinStats is the statistics of a binning run.
type BinStats struct {
	Reads    int
	Hap1Only int // reads matching k-mers of haplotype 1 only
	Hap2Only int // reads matching k-mers of haplotype 2 only
	Both     int
	None     int
}

func (s *BinStats) add(r *ReadResult) {
	s.Reads++
	switch {
	case r.Hap1 > 0 && r.Hap2 == 0:
		s.Hap1Only++
	case r.Hap1 == 0 && r.Hap2 > 0:
		s.Hap2Only++
	case r.Hap1 > 0 && r.Hap2 > 0:
		s.Both++
	default:
		s.None++
	}
}

// BinFile classifies all reads in a FASTA/Q file and writes one row for
// every read to w, in the input order.
// fn, if not nil, is called after each read; the result is only valid during the call.
func (b *Binner) BinFile(file string, w io.Writer, fn func(r *ReadResult)) (BinStats, error) {
	var stats BinStats

	bw, ok := w.(*bufio.Writer)
	if !ok {
		bw = bufio.NewWriterSize(w, 65536)
	}

	fastxReader, err := fastx.NewReader(nil, file, "")
	if err != nil {
		return stats, errors.Wrapf(err, "read %s", file)
	}
	defer fastxReader.Close()

	var record *fastx.Record
	var r ReadResult
	buf := make([]byte, 0, 1024)
	for {
		record, err = fastxReader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return stats, errors.Wrapf(err, "read %s", file)
		}

		r.ID = record.ID
		r.Len = len(record.Seq.Seq)
		r.Hap1, r.Hap2 = b.Classify(record.Seq.Seq)

		buf = r.AppendRow(buf[:0])
		if _, err = bw.Write(buf); err != nil {
			return stats, err
		}

		stats.add(&r)
		if fn != nil {
			fn(&r)
		}
	}

	return stats, bw.Flush()
}
