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
	"github.com/pkg/errors"
	"github.com/shenwei356/hapkmer/hapkmer/haplotype"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// hap1Fractions collects the fraction of haplotype-1 matches of reads
// with at least one matched window.
type hap1Fractions []float64

func (fs *hap1Fractions) add(r *haplotype.ReadResult) {
	n := r.Hap1 + r.Hap2
	if n == 0 {
		return
	}
	*fs = append(*fs, float64(r.Hap1)/float64(n))
}

// meanStdev returns the mean and standard deviation of the fractions.
func (fs hap1Fractions) meanStdev() (float64, float64) {
	if len(fs) == 0 {
		return 0, 0
	}
	if len(fs) == 1 {
		return fs[0], 0
	}
	return stat.MeanStdDev(fs, nil)
}

// plotHist saves the histogram of the fractions to a file,
// the format is detected from the file extension (png, svg, pdf, ...).
func (fs hap1Fractions) plotHist(file string, bins int) error {
	p := plot.New()
	p.Title.Text = "Haplotype-1 fraction of matched windows per read"
	p.X.Label.Text = "hap1 / (hap1 + hap2)"
	p.Y.Label.Text = "reads"
	p.X.Min, p.X.Max = 0, 1

	values := plotter.Values(fs)
	if len(values) == 0 {
		values = plotter.Values{0}
	}
	h, err := plotter.NewHist(values, bins)
	if err != nil {
		return errors.Wrap(err, "plot histogram")
	}
	p.Add(h)

	return errors.Wrapf(p.Save(6*vg.Inch, 4*vg.Inch, file), "save plot %s", file)
}
