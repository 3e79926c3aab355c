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
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shenwei356/xopen"
)

// ErrInvalidTableRow means a row of the k-mer table does not have three
// tab-separated fields or the counts are not unsigned integers.
var ErrInvalidTableRow = errors.New("haplotype: invalid k-mer table row")

// ErrKmerLength means the length of a k-mer in the table is not 4*K.
var ErrKmerLength = errors.New("haplotype: k-mer length does not match 4*K")

// Table holds haplotype-specific k-mers loaded from a k-mer table.
// A k-mer is added to Hap1 if its count_hap1 > 0, and to Hap2
// if its count_hap2 > 0, independently.
type Table struct {
	Hap1 map[string]struct{}
	Hap2 map[string]struct{}
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{
		Hap1: make(map[string]struct{}, 1024),
		Hap2: make(map[string]struct{}, 1024),
	}
}

// Add adds a row of the k-mer table.
func (t *Table) Add(km string, count1, count2 uint64) {
	if count1 > 0 {
		t.Hap1[km] = struct{}{}
	}
	if count2 > 0 {
		t.Hap2[km] = struct{}{}
	}
}

// ParseRecord parses one row of the k-mer table.
func ParseRecord(line string) (km string, count1, count2 uint64, err error) {
	items := strings.Split(line, "\t")
	if len(items) < 3 {
		return "", 0, 0, ErrInvalidTableRow
	}

	count1, err = strconv.ParseUint(items[1], 10, 32)
	if err != nil {
		return "", 0, 0, errors.Wrapf(ErrInvalidTableRow, "count_hap1: %s", err)
	}
	count2, err = strconv.ParseUint(items[2], 10, 32)
	if err != nil {
		return "", 0, 0, errors.Wrapf(ErrInvalidTableRow, "count_hap2: %s", err)
	}
	return items[0], count1, count2, nil
}

// ReadTable reads a k-mer table (plain or compressed) produced by
// the discovery step. Every k-mer should be of w bases.
func ReadTable(file string, w int) (*Table, error) {
	fh, err := xopen.Ropen(file)
	if err != nil {
		return nil, errors.Wrapf(err, "read k-mer table %s", file)
	}

	t := NewTable()

	scanner := bufio.NewScanner(fh)
	scanner.Buffer(make([]byte, 0, 65536), 1<<20)

	var line, km string
	var count1, count2 uint64
	var n int
	for scanner.Scan() {
		n++
		line = strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" {
			continue
		}

		km, count1, count2, err = ParseRecord(line)
		if err != nil {
			fh.Close()
			return nil, errors.Wrapf(err, "%s: line %d", file, n)
		}
		if len(km) != w {
			fh.Close()
			return nil, errors.Wrapf(ErrKmerLength, "%s: line %d: %d != %d", file, n, len(km), w)
		}

		t.Add(km, count1, count2)
	}
	if err = scanner.Err(); err != nil {
		fh.Close()
		return nil, errors.Wrapf(err, "read k-mer table %s", file)
	}

	return t, fh.Close()
}
