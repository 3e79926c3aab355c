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

package cmd

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/shenwei356/util/pathutil"
)

// MainVersion is use for checking compatibility of k-mer tables
var MainVersion uint8 = 1

// TableInfoFileExt is the suffix of the metadata file of a k-mer table.
const TableInfoFileExt = ".info.toml"

// TableInfo is the metadata of a k-mer table, saved beside the table.
type TableInfo struct {
	MainVersion  uint8 `toml:"main-version" comment:"Table format version"`
	MinorVersion uint8 `toml:"minor-version"`

	K                 int  `toml:"kmer-bytes" comment:"Bytes of 2bit-packed k-mers, k-mer size is 4*K"`
	KmerSize          int  `toml:"kmer-size"`
	RevCom            bool `toml:"revcom" comment:"K-mers on the negative strand are counted"`
	ExcludeLastWindow bool `toml:"exclude-last-window"`

	Hap1Files []string `toml:"hap1-files" comment:"Input files"`
	Hap2Files []string `toml:"hap2-files"`

	Hap1Kmers   int `toml:"hap1-kmers" comment:"K-mers only found in haplotype 1"`
	Hap2Kmers   int `toml:"hap2-kmers" comment:"K-mers only found in haplotype 2"`
	SharedKmers int `toml:"shared-kmers" comment:"K-mers found in both haplotypes, not saved"`
}

// tableInfoFile returns the path of the metadata file of a k-mer table.
// "hap.kmers.tsv.gz" -> "hap.kmers.info.toml"
func tableInfoFile(table string) string {
	name, _, _ := filepathTrimExtension(table, nil)
	return name + TableInfoFileExt
}

func writeTableInfo(file string, info *TableInfo) error {
	data, err := toml.Marshal(info)
	if err != nil {
		return errors.Wrapf(err, "marshal table info")
	}
	return errors.Wrapf(os.WriteFile(file, data, 0644), "write table info %s", file)
}

func readTableInfo(file string) (*TableInfo, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrapf(err, "read table info %s", file)
	}

	info := &TableInfo{}
	if err = toml.Unmarshal(data, info); err != nil {
		return nil, errors.Wrapf(err, "parse table info %s", file)
	}
	return info, nil
}

// checkTableInfo checks if a k-mer table is compatible with the options.
// A table without metadata is accepted.
func checkTableInfo(table string, opt *Options) (*TableInfo, error) {
	file := tableInfoFile(table)
	ok, err := pathutil.Exists(file)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	info, err := readTableInfo(file)
	if err != nil {
		return nil, err
	}
	if info.MainVersion != MainVersion {
		return info, fmt.Errorf("k-mer table main versions do not match: %d (table) != %d (tool). please re-create the table", info.MainVersion, MainVersion)
	}
	if info.K != opt.K {
		return info, fmt.Errorf("the k-mer table was created with -k/--kmer-bytes %d, but %d is given", info.K, opt.K)
	}
	return info, nil
}
