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
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/pkg/errors"
	"github.com/shenwei356/bio/seqio/fastx"
	"github.com/shenwei356/hapkmer/hapkmer/kmer"
	"github.com/twotwotwo/sorts/sortutil"
)

// Haplotype is one of the two parental genome copies.
type Haplotype int

const (
	Hap1 Haplotype = iota
	Hap2
)

func (h Haplotype) String() string {
	switch h {
	case Hap1:
		return "hap1"
	case Hap2:
		return "hap2"
	}
	return fmt.Sprintf("Haplotype(%d)", int(h))
}

// CounterOptions contains the options of counting k-mers of two haplotypes.
type CounterOptions struct {
	// count k-mers on both strands.
	RevCom bool
	// skip the window ending at the last base of every sequence.
	ExcludeLastWindow bool

	// initial size of the k-mer map.
	MapInitSize int
}

// DefaultCounterOptions counts the positive strand only.
var DefaultCounterOptions = CounterOptions{
	MapInitSize: 1 << 20,
}

// Counter counts packed k-mers of the two haplotypes.
// It is not safe for concurrent use.
type Counter struct {
	codec *kmer.Codec
	opt   CounterOptions

	counts map[kmer.Kmer][2]uint32

	buf []byte
}

// NewCounter creates a Counter. DefaultCounterOptions is used if opt is nil.
func NewCounter(codec *kmer.Codec, opt *CounterOptions) *Counter {
	if opt == nil {
		opt = &DefaultCounterOptions
	}
	n := opt.MapInitSize
	if n < 0 {
		n = 0
	}
	return &Counter{
		codec:  codec,
		opt:    *opt,
		counts: make(map[kmer.Kmer][2]uint32, n),
		buf:    make([]byte, 0, codec.K()),
	}
}

// Options returns the options of the counter.
func (c *Counter) Options() CounterOptions { return c.opt }

// SeqStats is the statistics of adding one sequence.
type SeqStats struct {
	Windows int // counted k-mers, including reverse complements
	Skipped int // windows with bases beyond A/C/G/T
}

// AddSeq counts all k-mers in s for a haplotype.
// Windows with bases other than A/C/G/T are skipped.
func (c *Counter) AddSeq(hap Haplotype, s []byte) (stats SeqStats) {
	h := int(hap)
	iter := kmer.NewWindowIterator(s, c.codec.WindowSize(), c.opt.RevCom, c.opt.ExcludeLastWindow)
	for {
		fwd, rc, ok := iter.Next()
		if !ok {
			break
		}

		if c.add(h, fwd) {
			stats.Windows++
		} else {
			stats.Skipped++
		}

		if rc == nil {
			continue
		}
		if c.add(h, rc) {
			stats.Windows++
		} else {
			stats.Skipped++
		}
	}
	return stats
}

func (c *Counter) add(h int, w []byte) bool {
	var err error
	c.buf, err = c.codec.EncodeTo(c.buf, w)
	if err != nil {
		return false
	}

	v := c.counts[kmer.Kmer(c.buf)]
	if v[h] < math.MaxUint32 {
		v[h]++
	}
	c.counts[kmer.Kmer(c.buf)] = v
	return true
}

// FileStats is the statistics of adding one sequence file.
type FileStats struct {
	Seqs  int
	Bases int
	SeqStats
}

// AddFile counts k-mers of all sequences in a FASTA/Q file.
// fn, if not nil, is called after each sequence.
// Errors of reading the file are returned immediately.
func (c *Counter) AddFile(hap Haplotype, file string, fn func(id []byte, length int, stats SeqStats)) (FileStats, error) {
	var fstats FileStats

	fastxReader, err := fastx.NewReader(nil, file, "")
	if err != nil {
		return fstats, errors.Wrapf(err, "read %s", file)
	}
	defer fastxReader.Close()

	var record *fastx.Record
	var stats SeqStats
	for {
		record, err = fastxReader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return fstats, errors.Wrapf(err, "read %s", file)
		}

		stats = c.AddSeq(hap, record.Seq.Seq)

		fstats.Seqs++
		fstats.Bases += len(record.Seq.Seq)
		fstats.Windows += stats.Windows
		fstats.Skipped += stats.Skipped

		if fn != nil {
			fn(record.ID, len(record.Seq.Seq), stats)
		}
	}
	return fstats, nil
}

// Len returns the number of distinct k-mers of both haplotypes.
func (c *Counter) Len() int { return len(c.counts) }

// Count returns the counts of a k-mer in the two haplotypes.
func (c *Counter) Count(km kmer.Kmer) [2]uint32 { return c.counts[km] }

// Summary is the numbers of haplotype-specific and shared k-mers.
type Summary struct {
	Hap1   int // k-mers only found in haplotype 1
	Hap2   int // k-mers only found in haplotype 2
	Shared int
}

// Summary counts haplotype-specific and shared k-mers.
func (c *Counter) Summary() (s Summary) {
	for _, v := range c.counts {
		switch {
		case v[0] > 0 && v[1] == 0:
			s.Hap1++
		case v[0] == 0 && v[1] > 0:
			s.Hap2++
		default:
			s.Shared++
		}
	}
	return s
}

// Specific calls fn for every k-mer found in only one haplotype,
// in the order of map iteration.
// Iteration stops if fn returns true.
func (c *Counter) Specific(fn func(km kmer.Kmer, counts [2]uint32) (stop bool)) {
	for km, v := range c.counts {
		if specific(v) {
			if fn(km, v) {
				return
			}
		}
	}
}

func specific(v [2]uint32) bool {
	return (v[0] > 0 && v[1] == 0) || (v[0] == 0 && v[1] > 0)
}

// WriteTable writes haplotype-specific k-mers in the format of
// "kmer\tcount_hap1\tcount_hap2". If sorted is true, rows are sorted by k-mer.
func (c *Counter) WriteTable(w io.Writer, sorted bool) (s Summary, err error) {
	bw, ok := w.(*bufio.Writer)
	if !ok {
		bw = bufio.NewWriterSize(w, 65536)
	}

	buf := make([]byte, 0, 2*c.codec.WindowSize())
	dec := make([]byte, 0, c.codec.WindowSize())

	write := func(km kmer.Kmer, v [2]uint32) error {
		if v[0] > 0 {
			s.Hap1++
		} else {
			s.Hap2++
		}
		dec = c.codec.AppendDecode(dec[:0], km)
		buf = AppendRecord(buf[:0], dec, v[0], v[1])
		_, err := bw.Write(buf)
		return err
	}

	if sorted {
		keys := make([]string, 0, 1024)
		c.Specific(func(km kmer.Kmer, _ [2]uint32) bool {
			keys = append(keys, string(km))
			return false
		})
		sortutil.Strings(keys)

		for _, key := range keys {
			if err = write(kmer.Kmer(key), c.counts[kmer.Kmer(key)]); err != nil {
				return s, err
			}
		}
	} else {
		c.Specific(func(km kmer.Kmer, v [2]uint32) bool {
			err = write(km, v)
			return err != nil
		})
		if err != nil {
			return s, err
		}
	}

	s.Shared = len(c.counts) - s.Hap1 - s.Hap2
	return s, bw.Flush()
}

// AppendRecord appends one row of the k-mer table to dst.
func AppendRecord(dst []byte, km []byte, count1, count2 uint32) []byte {
	dst = append(dst, km...)
	dst = append(dst, '\t')
	dst = strconv.AppendUint(dst, uint64(count1), 10)
	dst = append(dst, '\t')
	dst = strconv.AppendUint(dst, uint64(count2), 10)
	return append(dst, '\n')
}
