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
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/hapkmer/hapkmer/kmer"
)

func init() {
	seq.ValidateSeq = false
}

func writeFile(t *testing.T, name string, content string) string {
	file := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(file, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return file
}

// rows returns the sorted rows of a table.
func rows(data []byte) []string {
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return nil
	}
	sort.Strings(lines)
	return lines
}

func discover(t *testing.T, hap1, hap2 string, k int, opt *CounterOptions) []byte {
	codec, err := kmer.NewCodec(k)
	if err != nil {
		t.Fatal(err)
	}
	c := NewCounter(codec, opt)
	c.AddSeq(Hap1, []byte(hap1))
	c.AddSeq(Hap2, []byte(hap2))

	var buf bytes.Buffer
	if _, err = c.WriteTable(&buf, false); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDiscoverExample(t *testing.T) {
	data := discover(t, "AAAACCCC", "GGGGTTTT", 1, nil)

	expected := []string{
		"AAAA\t1\t0",
		"AAAC\t1\t0",
		"AACC\t1\t0",
		"ACCC\t1\t0",
		"CCCC\t1\t0",
		"GGGG\t0\t1",
		"GGGT\t0\t1",
		"GGTT\t0\t1",
		"GTTT\t0\t1",
		"TTTT\t0\t1",
	}
	result := rows(data)
	if strings.Join(result, "\n") != strings.Join(expected, "\n") {
		t.Errorf("expected:\n%s\nresult:\n%s", strings.Join(expected, "\n"), strings.Join(result, "\n"))
	}
}

func TestDiscoverExclusivity(t *testing.T) {
	hap1 := "ACGTTGCAGGCTAGCTAGGATCGATNNACGTAGCTAGCTTTAGC"
	hap2 := "ACGTTGCAGGCTAGCTAGGTTCGATCCACGTAGCTAGCTTTAGC"

	for _, revcom := range []bool{false, true} {
		data := discover(t, hap1, hap2, 1, &CounterOptions{RevCom: revcom})

		var n int
		for _, line := range rows(data) {
			n++
			km, c1, c2, err := ParseRecord(line)
			if err != nil {
				t.Error(err)
				return
			}
			if !((c1 > 0 && c2 == 0) || (c1 == 0 && c2 > 0)) {
				t.Errorf("revcom=%v: k-mer %s is not haplotype-specific: %d, %d", revcom, km, c1, c2)
			}
			if c1 > 0 && strings.Contains(hap2, km) {
				t.Errorf("revcom=%v: k-mer %s found in haplotype 2", revcom, km)
			}
			if c2 > 0 && strings.Contains(hap1, km) {
				t.Errorf("revcom=%v: k-mer %s found in haplotype 1", revcom, km)
			}
		}
		if n == 0 {
			t.Errorf("revcom=%v: no haplotype-specific k-mers found", revcom)
		}
	}
}

func TestDiscoverRevCom(t *testing.T) {
	// AACG is the reverse complement of CGTT
	codec, _ := kmer.NewCodec(1)

	c := NewCounter(codec, &CounterOptions{RevCom: true})
	stats := c.AddSeq(Hap1, []byte("AACG"))
	if stats.Windows != 2 {
		t.Errorf("expected 2 windows on both strands, got %d", stats.Windows)
	}
	c.AddSeq(Hap2, []byte("CGTT"))
	if c.Len() != 2 {
		t.Errorf("expected 2 distinct k-mers, got %d", c.Len())
	}
	if s := c.Summary(); s.Shared != 2 || s.Hap1 != 0 || s.Hap2 != 0 {
		t.Errorf("all k-mers should be shared on both strands: %+v", s)
	}

	c = NewCounter(codec, &CounterOptions{})
	c.AddSeq(Hap1, []byte("AACG"))
	c.AddSeq(Hap2, []byte("CGTT"))
	if s := c.Summary(); s.Shared != 0 || s.Hap1 != 1 || s.Hap2 != 1 {
		t.Errorf("k-mers should be specific on the positive strand: %+v", s)
	}
}

func TestDiscoverSkipsIllegalBases(t *testing.T) {
	codec, _ := kmer.NewCodec(1)
	c := NewCounter(codec, nil)

	stats := c.AddSeq(Hap1, []byte("ACGTNACGT"))
	if stats.Windows != 2 || stats.Skipped != 4 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	km, _ := codec.EncodeString("ACGT")
	if counts := c.Count(km); counts[0] != 2 || counts[1] != 0 {
		t.Errorf("unexpected counts of ACGT: %v", counts)
	}

	// short sequences
	stats = c.AddSeq(Hap2, []byte("ACG"))
	if stats.Windows != 0 || stats.Skipped != 0 {
		t.Errorf("short sequence should have no windows: %+v", stats)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 k-mer, got %d", c.Len())
	}
}

func TestDiscoverCaseInsensitive(t *testing.T) {
	data := discover(t, "acgtA", "TTTTT", 1, nil)
	expected := []string{"ACGT\t1\t0", "CGTA\t1\t0", "TTTT\t0\t2"}
	if result := rows(data); strings.Join(result, ",") != strings.Join(expected, ",") {
		t.Errorf("expected %v, got %v", expected, result)
	}
}

func TestDiscoverExcludeLastWindow(t *testing.T) {
	data := discover(t, "AAAACCCC", "GGGGTTTT", 1, &CounterOptions{ExcludeLastWindow: true})
	result := rows(data)
	if len(result) != 8 {
		t.Errorf("expected 8 rows, got %d: %v", len(result), result)
	}
	for _, line := range result {
		if strings.HasPrefix(line, "CCCC") || strings.HasPrefix(line, "TTTT") {
			t.Errorf("the last window should be excluded: %s", line)
		}
	}
}

func TestWriteTableSorted(t *testing.T) {
	codec, _ := kmer.NewCodec(1)
	c := NewCounter(codec, nil)
	c.AddSeq(Hap1, []byte("TTTGCAAACGT"))
	c.AddSeq(Hap2, []byte("GGGGAGGG"))

	var buf bytes.Buffer
	s, err := c.WriteTable(&buf, true)
	if err != nil {
		t.Error(err)
		return
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if !sort.StringsAreSorted(lines) {
		t.Errorf("rows are not sorted:\n%s", buf.String())
	}
	if s.Hap1+s.Hap2 != len(lines) {
		t.Errorf("summary %+v does not match %d rows", s, len(lines))
	}
	if s != c.Summary() {
		t.Errorf("summaries differ: %+v, %+v", s, c.Summary())
	}
}

func TestReadTable(t *testing.T) {
	file := writeFile(t, "t.tsv", "AAAA\t3\t0\nCCCC\t0\t1\n\nGGGG\t2\t2\nTTTT\t0\t0\n")
	table, err := ReadTable(file, 4)
	if err != nil {
		t.Error(err)
		return
	}

	for _, c := range []struct {
		km         string
		hap1, hap2 bool
	}{
		{"AAAA", true, false},
		{"CCCC", false, true},
		{"GGGG", true, true},
		{"TTTT", false, false},
	} {
		_, ok1 := table.Hap1[c.km]
		_, ok2 := table.Hap2[c.km]
		if ok1 != c.hap1 || ok2 != c.hap2 {
			t.Errorf("%s: expected (%v, %v), got (%v, %v)", c.km, c.hap1, c.hap2, ok1, ok2)
		}
	}
}

func TestReadTableErrors(t *testing.T) {
	for _, c := range []struct {
		content string
		line    string
	}{
		{"AAAA\t1\n", "line 1"},
		{"AAAA\t1\t0\nCCCC\tx\t0\n", "line 2"},
		{"AAAA\t1\t0\n\nCCCC\t0\t-1\n", "line 3"},
		{"AAAAC\t1\t0\n", "line 1"},
	} {
		_, err := ReadTable(writeFile(t, "t.tsv", c.content), 4)
		if err == nil {
			t.Errorf("%q: error expected", c.content)
			continue
		}
		if !strings.Contains(err.Error(), c.line) {
			t.Errorf("%q: error should report %s: %s", c.content, c.line, err)
		}
	}

	if _, err := ReadTable(filepath.Join(t.TempDir(), "missing.tsv"), 4); err == nil {
		t.Errorf("error expected for a missing file")
	}
}

func TestClassify(t *testing.T) {
	codec, _ := kmer.NewCodec(1)
	c := NewCounter(codec, nil)
	c.AddSeq(Hap1, []byte("AAAACCCC"))
	c.AddSeq(Hap2, []byte("GGGGTTTT"))

	var buf bytes.Buffer
	if _, err := c.WriteTable(&buf, true); err != nil {
		t.Error(err)
		return
	}
	table, err := ReadTable(writeFile(t, "t.tsv", buf.String()), codec.WindowSize())
	if err != nil {
		t.Error(err)
		return
	}

	b := NewBinner(table, codec.WindowSize(), false)
	for _, r := range []struct {
		s          string
		hap1, hap2 uint32
	}{
		{"AAAACCCC", 5, 0},
		{"GGGGTTTT", 0, 5},
		{"AAAACCCCGGGG", 5, 1},
		{"aaaacccc", 0, 0},
		{"AAA", 0, 0},
		{"", 0, 0},
		{"AACCNAAAA", 2, 0},
		{"GGTTTTGGGG", 0, 4},
	} {
		hap1, hap2 := b.Classify([]byte(r.s))
		if hap1 != r.hap1 || hap2 != r.hap2 {
			t.Errorf("%s: expected (%d, %d), got (%d, %d)", r.s, r.hap1, r.hap2, hap1, hap2)
		}
	}
}

func TestBinFile(t *testing.T) {
	table := NewTable()
	table.Add("AAAA", 1, 0)
	table.Add("AAAC", 1, 0)
	table.Add("GGGG", 0, 2)
	table.Add("TTTT", 1, 1) // malformed, but allowed

	reads := writeFile(t, "reads.fq",
		"@r1 desc\nAAAACGT\n+\nIIIIIII\n"+
			"@r2\nAA\n+\nII\n"+
			"@r3\nGGGGGTTTT\n+\nIIIIIIIII\n"+
			"@r4\nACGTACGT\n+\nIIIIIIII\n")

	b := NewBinner(table, 4, false)

	var outputs [2]bytes.Buffer
	for i := range outputs {
		var ids []string
		stats, err := b.BinFile(reads, &outputs[i], func(r *ReadResult) {
			ids = append(ids, string(r.ID))
		})
		if err != nil {
			t.Error(err)
			return
		}
		if strings.Join(ids, ",") != "r1,r2,r3,r4" {
			t.Errorf("unexpected order of reads: %v", ids)
		}
		if stats != (BinStats{Reads: 4, Hap1Only: 1, Both: 1, None: 2}) {
			t.Errorf("unexpected stats: %+v", stats)
		}
	}

	expected := "r1\t2\t0\nr2\t0\t0\nr3\t1\t3\nr4\t0\t0\n"
	if outputs[0].String() != expected {
		t.Errorf("expected:\n%s\nresult:\n%s", expected, outputs[0].String())
	}
	if !bytes.Equal(outputs[0].Bytes(), outputs[1].Bytes()) {
		t.Errorf("outputs of two runs differ")
	}
}

func TestAddFile(t *testing.T) {
	hap1 := writeFile(t, "hap1.fa", ">chr1 hap1\nAAAA\nCCCC\n>chr2\nACG\n")
	hap2 := writeFile(t, "hap2.fa", ">chr1 hap2\nGGGGTTTT\n")

	codec, _ := kmer.NewCodec(1)
	c := NewCounter(codec, nil)

	var ids []string
	fstats, err := c.AddFile(Hap1, hap1, func(id []byte, length int, stats SeqStats) {
		ids = append(ids, string(id))
	})
	if err != nil {
		t.Error(err)
		return
	}
	if strings.Join(ids, ",") != "chr1,chr2" {
		t.Errorf("unexpected sequence IDs: %v", ids)
	}
	if fstats.Seqs != 2 || fstats.Bases != 11 || fstats.Windows != 5 {
		t.Errorf("unexpected stats: %+v", fstats)
	}

	if _, err = c.AddFile(Hap2, hap2, nil); err != nil {
		t.Error(err)
		return
	}

	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	s, err := c.WriteTable(w, true)
	if err != nil {
		t.Error(err)
		return
	}
	if s.Hap1 != 5 || s.Hap2 != 5 || s.Shared != 0 {
		t.Errorf("unexpected summary: %+v", s)
	}

	if _, err = c.AddFile(Hap1, filepath.Join(t.TempDir(), "missing.fa"), nil); err == nil {
		t.Errorf("error expected for a missing file")
	}
}
